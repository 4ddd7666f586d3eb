package config

import (
	"fmt"
	"strings"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/cooldown"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/engine"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/jobs/party"
)

func (cfg *Config) validate() error {
	if err := cfg.Simulation.validate(); err != nil {
		return fmt.Errorf("%s: %w", SimulationFile, err)
	}
	if err := cfg.Stats.validate(); err != nil {
		return fmt.Errorf("%s: %w", StatsFile, err)
	}
	if !strings.EqualFold(cfg.Stats.Job, cfg.Simulation.Job) {
		return fmt.Errorf("stat block is for %s but the simulation is for %s", cfg.Stats.Job, cfg.Simulation.Job)
	}
	return nil
}

func (s *Simulation) validate() error {
	if s.Job == "" {
		return fmt.Errorf("job is required")
	}
	if s.TotalSeconds <= 0 {
		return fmt.Errorf("total_seconds must be positive (got %.2f)", s.TotalSeconds)
	}
	if s.CycleSeconds < 0 {
		return fmt.Errorf("cycle_seconds must not be negative (got %.2f)", s.CycleSeconds)
	}
	if _, err := engine.ParseCycleMode(s.CycleMode); err != nil {
		return err
	}
	if _, err := cooldown.ParseMode(s.CooldownMode); err != nil {
		return err
	}
	if s.BuffOffsetSec < 0 {
		return fmt.Errorf("party_buff_offset_seconds must not be negative (got %.2f)", s.BuffOffsetSec)
	}
	if s.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative (got %.2f)", s.TimeoutSeconds)
	}
	return validatePartyBuffs(&s.PartyBuffs)
}

func validatePartyBuffs(pb *PartyBuffs) error {
	active := map[string]struct{}{}
	if pb.All {
		for _, name := range party.Names() {
			active[name] = struct{}{}
		}
	}
	seen := map[string]struct{}{}
	check := func(names []string, list string) error {
		for i, raw := range names {
			name := party.Normalize(raw)
			names[i] = name
			if !party.Known(name) {
				return fmt.Errorf("party_buffs: unknown buff '%s'", raw)
			}
			if _, dup := seen[name]; dup {
				return fmt.Errorf("party_buffs: buff '%s' listed more than once", name)
			}
			seen[name] = struct{}{}
			if list == "enabled" && pb.All {
				return fmt.Errorf("party_buffs: '%s' is enabled explicitly but all buffs are already on", name)
			}
			if list == "disabled" && !pb.All {
				return fmt.Errorf("party_buffs: '%s' is disabled but only enabled buffs are used", name)
			}
		}
		return nil
	}
	if err := check(pb.Include, "enabled"); err != nil {
		return err
	}
	if err := check(pb.Exclude, "disabled"); err != nil {
		return err
	}
	for _, name := range pb.Include {
		active[name] = struct{}{}
	}
	for _, name := range pb.Exclude {
		delete(active, name)
	}
	pb.active = active
	return nil
}

func (s *StatBlock) validate() error {
	for _, m := range []struct {
		key string
		v   float64
	}{
		{"main_stat_multi", s.MainStatMulti},
		{"wd_multi", s.WdMulti},
		{"auto_multi", s.AutoMulti},
		{"det_multi", s.DetMulti},
		{"trait_multi", s.TraitMulti},
		{"dot_multi", s.DotMulti},
		{"speed_multi", s.SpeedMulti},
	} {
		if m.v <= 0 {
			return fmt.Errorf("%s must be positive (got %.4f)", m.key, m.v)
		}
	}
	if s.CritChance < 0 || s.CritChance > 1 {
		return fmt.Errorf("crit_chance must be within [0, 1] (got %.4f)", s.CritChance)
	}
	if s.DhChance < 0 || s.DhChance > 1 {
		return fmt.Errorf("dh_chance must be within [0, 1] (got %.4f)", s.DhChance)
	}
	if s.CritMulti < 1 || s.DhMulti < 1 {
		return fmt.Errorf("crit_multi and dh_multi must be at least 1")
	}
	if s.Haste < 0 || s.Haste >= 100 {
		return fmt.Errorf("haste must be within [0, 100) (got %.2f)", s.Haste)
	}
	if s.WeaponDelaySeconds < 0 {
		return fmt.Errorf("weapon_delay_seconds must not be negative (got %.2f)", s.WeaponDelaySeconds)
	}
	return nil
}
