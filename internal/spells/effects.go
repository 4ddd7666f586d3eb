package spells

import "github.com/xiv-gear-planner/gear-planner-sub002/internal/damage"

// CombinedEffects is the sum of the effects of a set of buffs.
type CombinedEffects struct {
	DmgMod        float64
	CritChanceAdd float64
	DhChanceAdd   float64
	ForceCrit     bool
	ForceDh       bool
	Haste         float64
}

// Combine folds buff effects together. Damage increases multiply, everything else adds.
func Combine(buffs []*Buff) CombinedEffects {
	out := CombinedEffects{DmgMod: 1}
	for _, b := range buffs {
		e := b.Effects
		out.DmgMod *= 1 + e.DmgIncrease
		out.CritChanceAdd += e.CritChanceIncrease
		out.DhChanceAdd += e.DhitChanceIncrease
		out.Haste += e.Haste
		out.ForceCrit = out.ForceCrit || e.ForceCrit
		out.ForceDh = out.ForceDh || e.ForceDhit
	}
	return out
}

// Modifiers converts to the calculator's modifier set, adding the ability's own guarantees.
func (c CombinedEffects) Modifiers(a *Ability) damage.Modifiers {
	return damage.Modifiers{
		DmgMod:        c.DmgMod,
		CritChanceAdd: c.CritChanceAdd,
		DhChanceAdd:   c.DhChanceAdd,
		ForceCrit:     c.ForceCrit || a.AutoCrit,
		ForceDh:       c.ForceDh || a.AutoDH,
	}
}
