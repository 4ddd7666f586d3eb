package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/jobs"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/jobs/party"
)

// AbilityInfo describes one ability in JSON output.
type AbilityInfo struct {
	Name     string  `json:"name"`
	ID       int     `json:"id"`
	Kind     string  `json:"kind"`
	Potency  float64 `json:"potency"`
	Cooldown float64 `json:"cooldown_seconds,omitempty"`
	Charges  int     `json:"charges,omitempty"`
}

// JobInfo describes one job module in JSON output.
type JobInfo struct {
	Name      string        `json:"name"`
	Rotations []string      `json:"rotations"`
	Abilities []AbilityInfo `json:"abilities,omitempty"`
}

// PartyBuffInfo describes one party buff in JSON output.
type PartyBuffInfo struct {
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	Job      string  `json:"job"`
	Category string  `json:"category"`
	Duration float64 `json:"duration_seconds"`
}

// JobsListing is the JSON payload of the jobs command.
type JobsListing struct {
	Jobs       []JobInfo       `json:"jobs"`
	PartyBuffs []PartyBuffInfo `json:"party_buffs"`
}

// NewJobsCommand creates the jobs command.
func NewJobsCommand(rootOpts *RootOptions) *cobra.Command {
	var abilities bool

	cmd := &cobra.Command{
		Use:           "jobs",
		Short:         "List the supported jobs and party buffs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobs(cmd, rootOpts, abilities)
		},
	}

	cmd.Flags().BoolVarP(&abilities, "abilities", "a", false, "list each job's abilities")

	return cmd
}

func runJobs(cmd *cobra.Command, rootOpts *RootOptions, withAbilities bool) error {
	formatter := rootOpts.formatter(cmd)

	var listing JobsListing
	for _, name := range jobs.Names() {
		job, err := jobs.Lookup(name)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeGeneric, "failed to load job", err)
		}
		info := JobInfo{Name: job.Name}
		for _, r := range job.Rotations {
			info.Rotations = append(info.Rotations, r.Name())
		}
		if withAbilities {
			for _, a := range job.Abilities {
				ai := AbilityInfo{Name: a.Name, ID: a.ID, Kind: a.Kind.String(), Potency: a.Potency}
				if a.Cooldown != nil {
					ai.Cooldown = a.Cooldown.Time.Seconds()
					ai.Charges = a.Cooldown.MaxCharges()
				}
				info.Abilities = append(info.Abilities, ai)
			}
		}
		listing.Jobs = append(listing.Jobs, info)
	}
	for _, key := range party.Names() {
		b, _ := party.Lookup(key)
		cat, _ := party.CategoryOf(key)
		listing.PartyBuffs = append(listing.PartyBuffs, PartyBuffInfo{
			Key:      key,
			Name:     b.Name,
			Job:      b.Job,
			Category: string(cat),
			Duration: b.Duration.Seconds(),
		})
	}

	if formatter.JSON() {
		return formatter.Success(listing)
	}

	w := formatter.Writer
	for _, info := range listing.Jobs {
		fmt.Fprintf(w, "%s: %d rotation(s)\n", info.Name, len(info.Rotations))
		for _, r := range info.Rotations {
			fmt.Fprintf(w, "  - %s\n", r)
		}
		if len(info.Abilities) > 0 {
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "  Ability\tID\tKind\tPotency\tCooldown\n")
			for _, a := range info.Abilities {
				cd := "-"
				if a.Cooldown > 0 {
					cd = fmt.Sprintf("%.0fs x%d", a.Cooldown, a.Charges)
				}
				fmt.Fprintf(tw, "  %s\t%d\t%s\t%.0f\t%s\n", a.Name, a.ID, a.Kind, a.Potency, cd)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Party Buff\tKey\tJob\tCategory\tDuration\n")
	for _, b := range listing.PartyBuffs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.0fs\n", b.Name, b.Key, b.Job, b.Category, b.Duration)
	}
	return tw.Flush()
}
