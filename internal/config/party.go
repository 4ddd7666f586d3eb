package config

import "github.com/xiv-gear-planner/gear-planner-sub002/internal/jobs/party"

// PartyBuffs selects the raid buffs present in the simulated party.
// With All set, Exclude removes buffs from the full list; otherwise only
// Include is used.
type PartyBuffs struct {
	All     bool     `yaml:"all"`
	Include []string `yaml:"enabled"`
	Exclude []string `yaml:"disabled"`

	active map[string]struct{}
}

// Active returns true if the given party buff is switched on.
func (pb *PartyBuffs) Active(name string) bool {
	if pb == nil || pb.active == nil {
		return false
	}
	_, ok := pb.active[party.Normalize(name)]
	return ok
}

// Enabled returns the active set in the shape the driver takes.
func (pb *PartyBuffs) Enabled() map[string]bool {
	out := make(map[string]bool, len(pb.active))
	for name := range pb.active {
		out[name] = true
	}
	return out
}

// HasPartyBuff is a convenience helper on Simulation.
func (s *Simulation) HasPartyBuff(name string) bool {
	return s.PartyBuffs.Active(name)
}
