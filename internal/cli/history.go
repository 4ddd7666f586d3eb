package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/config"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	DBPath string
	Job    string
	Limit  int
}

// HistoryEntry is one archived report in JSON output.
type HistoryEntry struct {
	ID           string         `json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	Job          string         `json:"job"`
	TotalSeconds float64        `json:"total_seconds"`
	Best         string         `json:"best,omitempty"`
	BestDPS      float64        `json:"best_dps,omitempty"`
	Runs         []store.RunRow `json:"runs,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history [report-id]",
		Short: "List archived simulation reports",
		Long: `List the most recent archived reports, or show the runs of one report
when its id is given.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runHistory(cmd, rootOpts, opts, id)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "report archive (defaults to simulation.yaml)")
	cmd.Flags().StringVarP(&opts.Job, "job", "j", "", "only list reports of this job")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of reports")

	return cmd
}

func runHistory(cmd *cobra.Command, rootOpts *RootOptions, opts *HistoryOptions, id string) error {
	formatter := rootOpts.formatter(cmd)

	path := opts.DBPath
	if path == "" {
		cfg, err := config.LoadConfig(rootOpts.ConfigDir)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
		}
		path = cfg.Simulation.Database
	}
	if path == "" {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "no report archive configured", nil)
	}
	if _, err := os.Stat(path); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "report archive not found", err)
	}

	db, err := store.Open(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open report archive", err)
	}
	defer db.Close()

	if id != "" {
		return showReport(formatter, db, id)
	}

	rows, err := db.ListReports(opts.Job, opts.Limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to list reports", err)
	}
	if formatter.JSON() {
		entries := make([]HistoryEntry, 0, len(rows))
		for _, row := range rows {
			entries = append(entries, historyEntry(row))
		}
		return formatter.Success(entries)
	}
	if len(rows) == 0 {
		fmt.Fprintln(formatter.Writer, "No archived reports.")
		return nil
	}
	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tCreated\tJob\tDuration\tBest\tDPS\n")
	for _, row := range rows {
		best, dps := "-", "-"
		if row.BestRotation.Valid {
			best = row.BestRotation.String
			dps = fmt.Sprintf("%.2f", row.BestDPS.Float64)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0fs\t%s\t%s\n",
			row.ID, row.Created().Format(time.DateTime), row.Job, row.TotalSeconds, best, dps)
	}
	return tw.Flush()
}

func showReport(formatter *OutputFormatter, db *store.DB, id string) error {
	row, err := db.GetReport(id)
	if errors.Is(err, sql.ErrNoRows) {
		return formatter.Fail(ExitFailure, ErrCodeStore, fmt.Sprintf("no report %s", id), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read report", err)
	}
	runs, err := db.Runs(id)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read runs", err)
	}

	if formatter.JSON() {
		entry := historyEntry(row)
		entry.Runs = runs
		return formatter.Success(entry)
	}
	fmt.Fprintf(formatter.Writer, "Simulation %s\n", row.ID)
	fmt.Fprintf(formatter.Writer, "Job: %s, Duration: %.0fs, Created: %s\n\n",
		row.Job, row.TotalSeconds, row.Created().Format(time.DateTime))
	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Rotation\tDPS\tTotal Damage\tStatus\n")
	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "failed: " + run.Error
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%.0f\t%s\n", run.Rotation, run.DPS, run.TotalDamage, status)
	}
	return tw.Flush()
}

func historyEntry(row store.ReportRow) HistoryEntry {
	e := HistoryEntry{
		ID:           row.ID,
		CreatedAt:    row.Created(),
		Job:          row.Job,
		TotalSeconds: row.TotalSeconds,
	}
	if row.BestRotation.Valid {
		e.Best = row.BestRotation.String
		e.BestDPS = row.BestDPS.Float64
	}
	return e
}
