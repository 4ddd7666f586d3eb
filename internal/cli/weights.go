package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/sim"
)

// WeightsOptions holds flags for the weights command.
type WeightsOptions struct {
	Rotation     string
	Stat         string
	Start        float64
	Stop         float64
	Step         float64
	IncludeDelta bool
	OutputDir    string
}

// SweepResult is the JSON payload of a sweep.
type SweepResult struct {
	Job      string           `json:"job"`
	Rotation string           `json:"rotation"`
	Stat     string           `json:"stat"`
	Unit     string           `json:"unit"`
	Points   []sim.SweepPoint `json:"points"`
	Output   string           `json:"output,omitempty"`
}

// NewWeightsCommand creates the weights command.
func NewWeightsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WeightsOptions{}

	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Estimate stat weights for the best rotation",
		Long: `Find the best rotation of the configured job, then estimate how much DPS
each stat is worth with a central difference around the stat block.

With --stat the command sweeps one stat over [start, stop] instead and
writes the curve as CSV ("-" as output dir writes to stdout).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Stat != "" {
				return runSweep(cmd, rootOpts, opts)
			}
			return runWeights(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Rotation, "rotation", "r", "", "rotation script under the config's rotations/ (defaults to simulation.yaml)")
	cmd.Flags().StringVar(&opts.Stat, "stat", "", "stat to sweep (main|crit|dh|det|speed); runs sweep mode")
	cmd.Flags().Float64Var(&opts.Start, "start", -5, "sweep start offset, in the stat's unit")
	cmd.Flags().Float64Var(&opts.Stop, "stop", 5, "sweep stop offset, in the stat's unit")
	cmd.Flags().Float64Var(&opts.Step, "step", 0.5, "sweep step, in the stat's unit")
	cmd.Flags().BoolVar(&opts.IncludeDelta, "deltas", true, "include a DPS-per-point column in the sweep CSV")
	cmd.Flags().StringVar(&opts.OutputDir, "output-dir", "output/stat_curves", "directory for sweep CSV output")

	return cmd
}

func runWeights(cmd *cobra.Command, rootOpts *RootOptions, opts *WeightsOptions) error {
	formatter := rootOpts.formatter(cmd)

	ws, err := loadWorkspace(rootOpts, loadOptions{rotation: opts.Rotation})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load simulation", err)
	}
	report, err := sim.Weights(cmd.Context(), ws.job, ws.stats, ws.settings, sim.DefaultDeltas())
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, "stat weights failed", err)
	}
	if formatter.JSON() {
		return formatter.Success(report)
	}
	return report.Print(formatter.Writer, rootOpts.Verbose)
}

func runSweep(cmd *cobra.Command, rootOpts *RootOptions, opts *WeightsOptions) error {
	formatter := rootOpts.formatter(cmd)

	delta, err := sim.LookupDelta(opts.Stat)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "invalid sweep", err)
	}
	offsets, err := sim.SweepOffsets(opts.Start, opts.Stop, opts.Step)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "invalid sweep", err)
	}
	ws, err := loadWorkspace(rootOpts, loadOptions{rotation: opts.Rotation})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load simulation", err)
	}

	base, err := sim.Simulate(cmd.Context(), ws.job, ws.stats, ws.settings)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeRejected, "baseline simulation failed", err)
	}
	if base.Best == nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, fmt.Sprintf("no rotation of %s completed", ws.job.Name), nil)
	}
	rot, _ := ws.job.Rotation(base.Best.Rotation)
	formatter.VerboseLog("Sweeping %s over %d points with '%s'", delta.Name, len(offsets), rot.Name())

	points, err := sim.Sweep(cmd.Context(), ws.job, rot, ws.stats, ws.settings, delta, offsets)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, "sweep failed", err)
	}

	result := SweepResult{Job: ws.job.Name, Rotation: rot.Name(), Stat: delta.Key, Unit: delta.Unit, Points: points}
	if opts.OutputDir == "-" {
		if formatter.JSON() {
			return formatter.Success(result)
		}
		return sim.WriteSweepCSV(formatter.Writer, points, opts.IncludeDelta)
	}

	outPath, err := writeSweepFile(opts.OutputDir, ws.job.Name, delta.Key, func(w io.Writer) error {
		return sim.WriteSweepCSV(w, points, opts.IncludeDelta)
	})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to write sweep", err)
	}
	result.Output = outPath
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "Sweep of %s (%s) with '%s': %d points written to %s\n",
		delta.Name, delta.Unit, rot.Name(), len(points), outPath)
	return nil
}

func writeSweepFile(dir, job, stat string, write func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	outPath := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", job, stat))
	file, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}
	if err := write(file); err != nil {
		file.Close()
		return "", err
	}
	return outPath, file.Close()
}
