package engine

import (
	"time"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/damage"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/spells"
)

// DefaultAutoAttack is used when the job does not supply its own auto-attack.
var DefaultAutoAttack = &spells.Ability{
	Kind:       spells.KindAutoAttack,
	Name:       "Auto Attack",
	ID:         7,
	AttackType: damage.AutoAttack,
	Potency:    90,
}

func (p *Processor) autoDue(t time.Duration) bool {
	return p.autosRunning && p.autoNext <= t && p.autoNext < p.settings.TotalTime
}

// resolveAuto lands one auto-attack at at and schedules the next swing.
// Autos only see modifyDamage hooks; they never start or consume procs.
func (p *Processor) resolveAuto(at time.Duration) {
	a := p.autoAttack
	snapBuffs := p.buffs.EffectiveAt(at, a)
	combined := spells.Combine(snapBuffs)
	res := p.computeDamage(a, combined)
	res = p.hooks.ModifyDamage(snapBuffs, res, a, at)

	p.records = append(p.records, &UsedAbility{
		Ability:  a,
		UsedAt:   at,
		Buffs:    snapBuffs,
		Combined: combined,
		Damage:   res,
	})
	p.logAt(at, "AUTO %s damage=%.2f", a.Name, res.Direct.Expected)
	p.autoNext = at + p.stats.AutoDelay()
}
