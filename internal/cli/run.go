package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/sim"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	Rotation   string
	ScriptOnly bool
	CombatLog  bool
	DBPath     string
	NoSave     bool
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	ID           string           `json:"id"`
	Job          string           `json:"job"`
	TotalSeconds float64          `json:"total_seconds"`
	Best         string           `json:"best,omitempty"`
	BestDPS      float64          `json:"best_dps,omitempty"`
	Runs         []sim.RunSummary `json:"runs"`
	CombatLog    string           `json:"combat_log,omitempty"`
	Archived     string           `json:"archived,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate every rotation of the configured job",
		Long: `Simulate the built-in rotations of the configured job, plus an optional
rotation script, and report the best one with its per-ability breakdown.

Reports are archived in the SQLite database named in simulation.yaml
unless --no-save is given.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Rotation, "rotation", "r", "", "rotation script under the config's rotations/ (defaults to simulation.yaml)")
	cmd.Flags().BoolVar(&opts.ScriptOnly, "script-only", false, "simulate only the rotation script")
	cmd.Flags().BoolVar(&opts.CombatLog, "log", false, "print the combat log of the best rotation")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "report archive (defaults to simulation.yaml)")
	cmd.Flags().BoolVar(&opts.NoSave, "no-save", false, "do not archive the report")

	return cmd
}

func runRun(cmd *cobra.Command, rootOpts *RootOptions, opts *RunOptions) error {
	formatter := rootOpts.formatter(cmd)
	logger := rootOpts.logger()

	ws, err := loadWorkspace(rootOpts, loadOptions{
		rotation:   opts.Rotation,
		scriptOnly: opts.ScriptOnly,
		combatLog:  opts.CombatLog,
	})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load simulation", err)
	}
	formatter.VerboseLog("Simulating %d rotation(s) of %s over %s", len(ws.job.Rotations), ws.job.Name, ws.settings.TotalTime)

	report, err := sim.Simulate(cmd.Context(), ws.job, ws.stats, ws.settings)
	if err != nil {
		if errors.Is(err, sim.ErrRejected) {
			return formatter.Fail(ExitFailure, ErrCodeRejected, "simulation did not finish", err)
		}
		return formatter.Fail(ExitFailure, ErrCodeGeneric, "simulation failed", err)
	}

	var archived string
	if !opts.NoSave {
		path := opts.DBPath
		if path == "" {
			path = ws.cfg.Simulation.Database
		}
		if path != "" {
			if err := archiveReport(path, report); err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to archive report", err)
			}
			archived = path
			logger.Info("report archived", "id", report.ID.String(), "db", path)
		}
	}

	if formatter.JSON() {
		result := RunResult{
			ID:           report.ID.String(),
			Job:          report.Job,
			TotalSeconds: report.TotalTime.Seconds(),
			Runs:         report.Summaries(),
			Archived:     archived,
		}
		if report.Best != nil {
			result.Best = report.Best.Rotation
			result.BestDPS = report.Best.DPS
			result.CombatLog = report.Best.Log
		}
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		w := formatter.Writer
		if err := report.Print(w); err != nil {
			return err
		}
		if opts.CombatLog && report.Best != nil {
			fmt.Fprintf(w, "\nCombat log (%s):\n%s", report.Best.Rotation, report.Best.Log)
		}
		if archived != "" {
			fmt.Fprintf(w, "\nArchived as %s in %s\n", report.ID, archived)
		}
	}

	if report.Best == nil {
		return NewExitError(ExitFailure, "no rotation completed")
	}
	return nil
}

func archiveReport(path string, report *sim.Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.SaveReport(report)
}
