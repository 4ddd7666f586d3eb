package engine

import (
	"time"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/damage"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/spells"
)

// Record is one row of the processor's record log.
type Record interface {
	Time() time.Duration
}

// UsedAbility is an ability use as it happened, with the buffs it snapshotted.
type UsedAbility struct {
	Ability *spells.Ability
	UsedAt  time.Duration

	// SnapshotAt and AppliedAt are offsets from UsedAt.
	SnapshotAt time.Duration
	AppliedAt  time.Duration

	CastTime time.Duration
	LockTime time.Duration
	GCDTime  time.Duration

	Buffs    []*spells.Buff
	Combined spells.CombinedEffects
	Damage   damage.Result

	Partial bool
}

func (u *UsedAbility) Time() time.Duration {
	return u.UsedAt
}

// SnapshotTime is the absolute time the damage snapshotted.
func (u *UsedAbility) SnapshotTime() time.Duration {
	return u.UsedAt + u.SnapshotAt
}

// ApplicationTime is the absolute time the damage landed.
func (u *UsedAbility) ApplicationTime() time.Duration {
	return u.UsedAt + u.AppliedAt
}

// FinalizedAbility is a use with its DoT outcome resolved.
type FinalizedAbility struct {
	*UsedAbility

	DotTicks    float64
	DotDuration time.Duration

	DirectDamage damage.Value
	DotDamage    damage.Value
	TotalDamage  damage.Value
}

// MarkerKind identifies non-ability rows.
type MarkerKind int

const (
	MarkerCycleStart MarkerKind = iota
	MarkerCycleEnd
	MarkerSpecial
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerCycleStart:
		return "cycle-start"
	case MarkerCycleEnd:
		return "cycle-end"
	default:
		return "special"
	}
}

// Marker is an annotation row.
type Marker struct {
	Kind  MarkerKind
	At    time.Duration
	Label string
}

func (m *Marker) Time() time.Duration {
	return m.At
}

// Cycle is one completed cycle window on the combat axis. Pre-pull time is
// clipped, so the windows of a finished run add up to the fight length.
type Cycle struct {
	Index int
	Start time.Duration
	End   time.Duration
}

// Records returns the record log so far. The slice must not be modified.
func (p *Processor) Records() []Record {
	return p.records
}

// UsedAbilities returns the ability rows in use order.
func (p *Processor) UsedAbilities() []*UsedAbility {
	var out []*UsedAbility
	for _, r := range p.records {
		if u, ok := r.(*UsedAbility); ok {
			out = append(out, u)
		}
	}
	return out
}

func (p *Processor) useCount(a *spells.Ability) int {
	n := 0
	for _, r := range p.records {
		if u, ok := r.(*UsedAbility); ok && u.Ability.Same(a) {
			n++
		}
	}
	return n
}

// Cycles returns the completed cycles.
func (p *Processor) Cycles() []Cycle {
	return p.cycles
}
