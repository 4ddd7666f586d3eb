package damage

import (
	"math"
	"time"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/character"
)

// AttackType is the damage category of an ability. Buffs filter on it.
type AttackType string

const (
	Spell       AttackType = "Spell"
	Weaponskill AttackType = "Weaponskill"
	Ability     AttackType = "Ability"
	AutoAttack  AttackType = "Auto-attack"
	Unknown     AttackType = "Unknown"
)

// rollSpread is the half-width of the uniform damage roll (±5%).
const rollSpread = 0.05

// Modifiers are the combined, damage-relevant buff effects at a snapshot.
type Modifiers struct {
	DmgMod        float64 // multiplier, 1 = unmodified
	CritChanceAdd float64
	DhChanceAdd   float64
	ForceCrit     bool
	ForceDh       bool
}

// NoModifiers is the identity modifier set.
func NoModifiers() Modifiers {
	return Modifiers{DmgMod: 1}
}

// BaseDamage converts potency to expected pre-crit damage for the stat block.
// isDot selects the DoT speed multiplier.
func BaseDamage(stats character.Stats, potency float64, attackType AttackType, isDot bool) Value {
	if potency <= 0 {
		return Value{}
	}
	wd := stats.WdMulti
	if attackType == AutoAttack {
		wd = stats.AutoMulti
	}
	expected := potency / 100 * stats.MainStatMulti * wd * stats.DetMulti * traitOrOne(stats.TraitMulti)
	if isDot {
		expected *= stats.DotMulti
	}
	return Value{
		Expected: expected,
		StdDev:   expected * rollSpread / math.Sqrt(3),
	}
}

// ApplyCritDh blends in crit and direct hit as expected values and applies the damage modifier.
// Forced crit or direct hit sets that chance to 1.
func ApplyCritDh(base Value, stats character.Stats, mods Modifiers) Value {
	critChance := clamp01(stats.CritChance + mods.CritChanceAdd)
	if mods.ForceCrit {
		critChance = 1
	}
	dhChance := clamp01(stats.DhChance + mods.DhChanceAdd)
	if mods.ForceDh {
		dhChance = 1
	}
	dmgMod := mods.DmgMod
	if dmgMod == 0 {
		dmgMod = 1
	}
	out := base.Times(bernoulli(critChance, stats.CritMulti))
	out = out.Times(bernoulli(dhChance, stats.DhMulti))
	return out.Scale(dmgMod)
}

// bernoulli is the multiplier that is multi with probability p and 1 otherwise.
func bernoulli(p, multi float64) Value {
	if multi <= 0 {
		multi = 1
	}
	bonus := multi - 1
	return Value{
		Expected: 1 + p*bonus,
		StdDev:   math.Sqrt(p*(1-p)) * math.Abs(bonus),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func traitOrOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

// Dot describes the damage of one DoT application.
type Dot struct {
	ID         int
	TickDamage Value
	Interval   time.Duration
	Duration   time.Duration
}

// FullTicks is the number of ticks the DoT would deal if it ran its full duration.
func (d Dot) FullTicks() float64 {
	if d.Interval <= 0 {
		return 0
	}
	return float64(d.Duration) / float64(d.Interval)
}

// Total is the damage dealt over the given number of (possibly fractional) ticks.
func (d Dot) Total(ticks float64) Value {
	if ticks <= 0 {
		return Value{}
	}
	// Ticks share one snapshot, so they are fully correlated.
	return d.TickDamage.Scale(ticks)
}

// Result is the damage of one ability use.
type Result struct {
	Direct Value
	Dot    *Dot
}

// Scale multiplies both the direct and the DoT portion.
func (r Result) Scale(k float64) Result {
	out := Result{Direct: r.Direct.Scale(k)}
	if r.Dot != nil {
		dot := *r.Dot
		dot.TickDamage = dot.TickDamage.Scale(k)
		out.Dot = &dot
	}
	return out
}
