package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/apl"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/jobs"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool   `json:"valid"`
	Rotation string `json:"rotation,omitempty"`
	Job      string `json:"job,omitempty"`
	Source   string `json:"source"`
	Prepull  int    `json:"prepull"`
	Actions  int    `json:"actions"`
	Error    string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var job string

	cmd := &cobra.Command{
		Use:   "validate <rotation.yaml>",
		Short: "Check a rotation script without simulating it",
		Long: `Load a rotation script with its imports and compile it against the
abilities and buffs of its job. The job comes from --job, or from the
script's own job field.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rootOpts, args[0], job)
		},
	}

	cmd.Flags().StringVarP(&job, "job", "j", "", "job the script is written for")

	return cmd
}

func runValidate(cmd *cobra.Command, rootOpts *RootOptions, path, jobName string) error {
	formatter := rootOpts.formatter(cmd)

	path = filepath.Clean(path)
	file, err := apl.LoadRotation(filepath.Dir(path), filepath.Base(path))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeRotation, "failed to load rotation", err)
	}
	if jobName == "" {
		jobName = file.Job
	}
	if jobName == "" {
		return formatter.Fail(ExitCommandError, ErrCodeRotation, "rotation names no job; pass --job", nil)
	}
	job, err := jobs.Lookup(jobName)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeRotation, "failed to resolve job", err)
	}
	formatter.VerboseLog("Compiling '%s' against %d %s abilities", file.Name, len(job.Abilities), job.Name)

	result := ValidationResult{Rotation: file.Name, Job: job.Name, Source: path}
	rot, err := compileScript(job, filepath.Dir(path), filepath.Base(path))
	if err != nil {
		result.Error = err.Error()
		if formatter.JSON() {
			_ = formatter.Error(ErrCodeRotation, "rotation invalid", result)
		} else {
			fmt.Fprintf(formatter.Writer, "✗ Rotation '%s' is invalid\n  %s\n", file.Name, err)
		}
		return WrapExitError(ExitFailure, "rotation invalid", err)
	}

	result.Valid = true
	result.Prepull = len(rot.Prepull)
	result.Actions = len(rot.Actions)
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Rotation '%s' validated for %s (source: %s, %d prepull, %d actions)\n",
		rot.Name, job.Name, path, result.Prepull, result.Actions)
	return nil
}
