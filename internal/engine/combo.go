package engine

import "github.com/xiv-gear-planner/gear-planner-sub002/internal/spells"

// resolveCombo returns a with combo potency applied and updates the combo anchors.
// Autos never touch combo state; oGCDs only reset keys when marked as combo breakers.
func (p *Processor) resolveCombo(a *spells.Ability) *spells.Ability {
	if a.Kind == spells.KindAutoAttack {
		return a
	}
	out := a
	handled := make(map[string]bool, len(a.Combos))
	matched := false
	for _, c := range a.Combos {
		key := c.ComboKey()
		if handled[key] {
			continue
		}
		handled[key] = true
		if entry, ok := c.Match(p.combos[key]); ok {
			if !matched {
				out = out.WithPotency(entry.Potency)
				matched = true
			}
			p.combos[key] = a
			continue
		}
		switch {
		case c.Start:
			p.combos[key] = a
		case c.Behavior == spells.ComboBreak:
			delete(p.combos, key)
		}
	}
	if a.IsGCD() || a.ComboBreaker {
		for key := range p.combos {
			if !handled[key] {
				delete(p.combos, key)
			}
		}
	}
	return out
}

// LastComboAbility returns the current anchor of a combo key.
func (p *Processor) LastComboAbility(key string) *spells.Ability {
	if key == "" {
		key = spells.DefaultComboKey
	}
	return p.combos[key]
}
