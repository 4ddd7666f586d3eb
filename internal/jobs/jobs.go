// Package jobs maps job abbreviations to their simulation modules.
package jobs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/jobs/whm"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/sim"
)

var registry = map[string]func() *sim.Job{
	whm.JobName: whm.New,
}

// Lookup returns a fresh job module for an abbreviation such as "WHM".
func Lookup(name string) (*sim.Job, error) {
	build, ok := registry[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown job %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return build(), nil
}

// Names lists the supported jobs.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
