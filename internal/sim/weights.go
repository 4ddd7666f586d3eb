package sim

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/character"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/jobs/party"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/worker"
)

// StatDelta nudges one stat of a stat block. Delta is in Unit; Apply adds d units.
type StatDelta struct {
	Name  string
	Key   string
	Unit  string
	Delta float64
	Apply func(s *character.Stats, d float64)
}

// DefaultDeltas covers the stats a finalized stat block exposes, one percent each.
func DefaultDeltas() []StatDelta {
	return []StatDelta{
		{Name: "Main Stat", Key: "main", Unit: "% multiplier", Delta: 1, Apply: func(s *character.Stats, d float64) { s.MainStatMulti += d / 100 }},
		{Name: "Critical Hit", Key: "crit", Unit: "% chance", Delta: 1, Apply: func(s *character.Stats, d float64) { s.CritChance += d / 100 }},
		{Name: "Direct Hit", Key: "dh", Unit: "% chance", Delta: 1, Apply: func(s *character.Stats, d float64) { s.DhChance += d / 100 }},
		{Name: "Determination", Key: "det", Unit: "% multiplier", Delta: 1, Apply: func(s *character.Stats, d float64) { s.DetMulti += d / 100 }},
		{Name: "Speed", Key: "speed", Unit: "% recast", Delta: 1, Apply: func(s *character.Stats, d float64) {
			s.SpeedMulti -= d / 100
			s.DotMulti += d / 100
		}},
	}
}

// LookupDelta finds a default delta by key or name.
func LookupDelta(name string) (StatDelta, error) {
	for _, d := range DefaultDeltas() {
		if strings.EqualFold(name, d.Key) || strings.EqualFold(name, d.Name) {
			return d, nil
		}
	}
	return StatDelta{}, fmt.Errorf("unsupported stat %q (use main|crit|dh|det|speed)", name)
}

// Weight is one central-difference result.
type Weight struct {
	Stat     string  `json:"stat"`
	Unit     string  `json:"unit"`
	Delta    float64 `json:"delta"`
	Weight   float64 `json:"weight"` // DPS per unit
	PlusDPS  float64 `json:"plus_dps"`
	MinusDPS float64 `json:"minus_dps"`
}

// WeightsReport is the outcome of Weights.
type WeightsReport struct {
	Job      string   `json:"job"`
	Rotation string   `json:"rotation"`
	Baseline float64  `json:"baseline_dps"`
	Weights  []Weight `json:"weights"`
}

// Weights finds the best rotation for stats, then measures how its DPS moves
// when each stat is nudged up and down by its delta. All runs share the
// worker pool and the simulation timeout.
func Weights(ctx context.Context, job *Job, stats character.Stats, settings Settings, deltas []StatDelta) (*WeightsReport, error) {
	if settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, settings.Timeout)
		defer cancel()
		settings.Timeout = 0
	}
	base, err := Simulate(ctx, job, stats, settings)
	if err != nil {
		return nil, err
	}
	if base.Best == nil {
		return nil, fmt.Errorf("no rotation of %s completed", job.Name)
	}
	best, _ := job.Rotation(base.Best.Rotation)

	variants := make([]character.Stats, 0, 2*len(deltas))
	for _, d := range deltas {
		plus, minus := stats, stats
		d.Apply(&plus, d.Delta)
		d.Apply(&minus, -d.Delta)
		variants = append(variants, plus, minus)
	}
	dps, err := bestDPS(ctx, job, best, settings, variants)
	if err != nil {
		return nil, err
	}

	report := &WeightsReport{Job: job.Name, Rotation: best.Name(), Baseline: base.Best.DPS}
	for i, d := range deltas {
		plus, minus := dps[2*i], dps[2*i+1]
		report.Weights = append(report.Weights, Weight{
			Stat:     d.Name,
			Unit:     d.Unit,
			Delta:    d.Delta,
			Weight:   (plus - minus) / (2 * d.Delta),
			PlusDPS:  plus,
			MinusDPS: minus,
		})
	}
	return report, nil
}

// bestDPS runs one rotation for every stat block on the worker pool.
func bestDPS(ctx context.Context, job *Job, rot Rotation, settings Settings, variants []character.Stats) ([]float64, error) {
	if job.Name != "" {
		for i := range variants {
			if variants[i].Job == "" {
				variants[i].Job = job.Name
			}
		}
	}
	buffs := party.Enabled(settings.Buffs.Enabled)
	pool := worker.NewPool[character.Stats, *Run](settings.Concurrency)
	results := pool.Process(ctx, variants, func(_ context.Context, s character.Stats) (*Run, error) {
		return runRotation(job, s, settings, buffs, rot)
	})
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRejected, err)
	}
	out := make([]float64, len(results))
	for i, res := range results {
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Value.Failed() {
			return nil, fmt.Errorf("%s: %w", res.Value.Rotation, res.Value.Err)
		}
		out[i] = res.Value.DPS
	}
	return out, nil
}

// Print writes the weights as a table, normalized to the main stat when possible.
func (r *WeightsReport) Print(w io.Writer, verbose bool) error {
	pr := message.NewPrinter(language.English)
	pr.Fprintf(w, "Stat Weights (central diff)\n")
	pr.Fprintf(w, "Job: %s, Rotation: %s\n", r.Job, r.Rotation)
	pr.Fprintf(w, "Baseline DPS: %.2f\n\n", r.Baseline)

	var mainWeight float64
	for _, wt := range r.Weights {
		if wt.Stat == "Main Stat" {
			mainWeight = wt.Weight
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := "Stat\tDelta\tDPS/Unit"
	if mainWeight != 0 {
		header += "\tvs Main"
	}
	if verbose {
		header += "\tPlus DPS\tMinus DPS"
	}
	fmt.Fprintln(tw, header)
	for _, wt := range r.Weights {
		line := fmt.Sprintf("%s\t%+.0f %s\t%.2f", wt.Stat, wt.Delta, wt.Unit, wt.Weight)
		if mainWeight != 0 {
			line += fmt.Sprintf("\t%.3f", wt.Weight/mainWeight)
		}
		if verbose {
			line += "\t" + pr.Sprintf("%.2f", wt.PlusDPS) + "\t" + pr.Sprintf("%.2f", wt.MinusDPS)
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}

// SweepPoint is the DPS at one offset of a swept stat.
type SweepPoint struct {
	Offset float64 `json:"offset"`
	DPS    float64 `json:"dps"`
}

// Sweep runs rot with stats offset by every value in offsets (in the delta's unit).
func Sweep(ctx context.Context, job *Job, rot Rotation, stats character.Stats, settings Settings, d StatDelta, offsets []float64) ([]SweepPoint, error) {
	if len(offsets) == 0 {
		return nil, fmt.Errorf("no sweep points generated")
	}
	if settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, settings.Timeout)
		defer cancel()
	}
	variants := make([]character.Stats, len(offsets))
	for i, off := range offsets {
		variants[i] = stats
		d.Apply(&variants[i], off)
	}
	dps, err := bestDPS(ctx, job, rot, settings, variants)
	if err != nil {
		return nil, err
	}
	out := make([]SweepPoint, len(offsets))
	for i := range offsets {
		out[i] = SweepPoint{Offset: offsets[i], DPS: dps[i]}
	}
	return out, nil
}

// SweepOffsets lists start, start+step, ... up to stop inclusive.
func SweepOffsets(start, stop, step float64) ([]float64, error) {
	if step <= 0 {
		return nil, fmt.Errorf("step must be > 0 (got %.2f)", step)
	}
	if stop <= start {
		return nil, fmt.Errorf("stop must be > start (start=%.2f, stop=%.2f)", start, stop)
	}
	var out []float64
	for i := 0; ; i++ {
		v := start + float64(i)*step
		if v > stop+1e-9 {
			break
		}
		out = append(out, v)
	}
	return out, nil
}

// WriteSweepCSV writes the sweep as CSV with an optional DPS-per-unit column.
func WriteSweepCSV(w io.Writer, points []SweepPoint, includeDelta bool) error {
	writer := csv.NewWriter(w)
	header := []string{"stat_offset", "dps"}
	if includeDelta {
		header = append(header, "dps_per_point")
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, pt := range points {
		record := []string{
			fmt.Sprintf("%.4f", pt.Offset),
			fmt.Sprintf("%.4f", pt.DPS),
		}
		if includeDelta {
			if i == 0 {
				record = append(record, "")
			} else {
				prev := points[i-1]
				record = append(record, fmt.Sprintf("%.6f", (pt.DPS-prev.DPS)/(pt.Offset-prev.Offset)))
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
