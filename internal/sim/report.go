package sim

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Report is the aggregated outcome of one Simulate call.
type Report struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Job       string
	TotalTime time.Duration
	Runs      []*Run
	Best      *Run // nil when every rotation failed
}

func (r *Report) pickBest() {
	r.Best = nil
	for _, run := range r.Runs {
		if run.Failed() {
			continue
		}
		if r.Best == nil || run.DPS > r.Best.DPS {
			r.Best = run
		}
	}
}

// RunSummary is the flat view of a run used for JSON output and the archive.
type RunSummary struct {
	Rotation    string  `json:"rotation"`
	DPS         float64 `json:"dps"`
	TotalDamage float64 `json:"total_damage"`
	StdDev      float64 `json:"std_dev"`
	Error       string  `json:"error,omitempty"`
}

// Summaries flattens the runs in rotation order.
func (r *Report) Summaries() []RunSummary {
	out := make([]RunSummary, 0, len(r.Runs))
	for _, run := range r.Runs {
		s := RunSummary{Rotation: run.Rotation, DPS: run.DPS}
		if run.Result != nil {
			s.TotalDamage = run.Result.TotalDamage.Expected
			s.StdDev = run.Result.TotalDamage.StdDev
		}
		if run.Err != nil {
			s.Error = run.Err.Error()
		}
		out = append(out, s)
	}
	return out
}

// Print writes a human-readable summary: every rotation, then the best
// rotation's per-ability breakdown and buff uptimes.
func (r *Report) Print(w io.Writer) error {
	pr := message.NewPrinter(language.English)

	pr.Fprintf(w, "Simulation %s\n", r.ID)
	pr.Fprintf(w, "Job: %s, Duration: %.0fs\n\n", r.Job, r.TotalTime.Seconds())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Rotation\tDPS\tTotal Damage\tStatus\n")
	for _, s := range r.Summaries() {
		status := "ok"
		if s.Error != "" {
			status = "failed: " + s.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Rotation, pr.Sprintf("%.2f", s.DPS), pr.Sprintf("%.0f", s.TotalDamage), status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.Best == nil {
		_, err := fmt.Fprintln(w, "\nNo rotation completed.")
		return err
	}
	res := r.Best.Result
	pr.Fprintf(w, "\nBest: %s (%.2f DPS)\n\n", r.Best.Rotation, r.Best.DPS)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Ability\tUses\tDirect\tDoT\tTotal\tShare\n")
	for _, st := range res.Breakdown {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%.1f%%\n",
			st.Name, st.Uses,
			pr.Sprintf("%.0f", st.Direct.Expected),
			pr.Sprintf("%.0f", st.Dot.Expected),
			pr.Sprintf("%.0f", st.Total.Expected),
			st.Share*100)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(res.BuffUptime) == 0 {
		return nil
	}
	names := make([]string, 0, len(res.BuffUptime))
	for name := range res.BuffUptime {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Buff\tUptime\n")
	for _, name := range names {
		up := res.BuffUptime[name]
		fmt.Fprintf(tw, "%s\t%.1fs (%.1f%%)\n", name, up.Seconds(), 100*up.Seconds()/r.TotalTime.Seconds())
	}
	return tw.Flush()
}
