package character

import (
	"math"
	"time"
)

// Stats is a finalized stat block. The multipliers are computed by the gear layer;
// the simulator only consumes them.
type Stats struct {
	Job   string
	Level int

	MainStatMulti float64
	WdMulti       float64
	AutoMulti     float64 // weapon damage multiplier for auto-attacks, weapon delay included
	DetMulti      float64
	TraitMulti    float64
	DotMulti      float64 // speed stat multiplier, only applied to DoT potencies

	CritChance float64 // 0..1
	CritMulti  float64 // e.g. 1.55
	DhChance   float64 // 0..1
	DhMulti    float64 // e.g. 1.25

	SpeedMulti  float64 // recast multiplier from the speed stat (1 = no reduction)
	Haste       float64 // percent, from job traits
	WeaponDelay time.Duration
}

// GCDTime returns the recast of a base GCD (or cast) after speed and haste scaling.
// extraHaste is a percent, normally taken from active buffs. Results are floored
// to the hundredth of a second like the game does.
func (s Stats) GCDTime(base time.Duration, extraHaste float64) time.Duration {
	if base <= 0 {
		return 0
	}
	speed := s.SpeedMulti
	if speed <= 0 {
		speed = 1
	}
	ms := floorMs(float64(base.Milliseconds()) * speed)
	ms = floorMs(ms * (100 - s.Haste - extraHaste) / 100)
	if ms < 0 {
		ms = 0
	}
	centis := floorMs(ms / 10)
	return time.Duration(centis) * 10 * time.Millisecond
}

// CastTime scales a cast duration the same way as a recast.
func (s Stats) CastTime(base time.Duration, extraHaste float64) time.Duration {
	return s.GCDTime(base, extraHaste)
}

// AutoDelay returns the auto-attack interval, falling back to 3s.
func (s Stats) AutoDelay() time.Duration {
	if s.WeaponDelay <= 0 {
		return 3 * time.Second
	}
	return s.WeaponDelay
}

// Unit returns a stat block whose multipliers are all 1 and whose crit/DH chances are 0.
// Handy as a neutral baseline.
func Unit() Stats {
	return Stats{
		Level:         100,
		MainStatMulti: 1,
		WdMulti:       1,
		AutoMulti:     1,
		DetMulti:      1,
		TraitMulti:    1,
		DotMulti:      1,
		CritMulti:     1.5,
		DhMulti:       1.25,
		SpeedMulti:    1,
		WeaponDelay:   3 * time.Second,
	}
}

// floorMs floors with a small tolerance so that 2500*0.924 lands on 2310 and not 2309.
func floorMs(v float64) float64 {
	return math.Floor(v + 1e-9)
}
