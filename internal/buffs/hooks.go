package buffs

import (
	"time"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/damage"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/spells"
)

// RemovalFunc is told about every buff a hook removed.
type RemovalFunc func(b *spells.Buff, at time.Duration)

// useController collects the removal intents of a single hook call.
type useController struct {
	self    *spells.Buff
	removed []*spells.Buff
}

func (c *useController) RemoveSelf() {
	c.removed = append(c.removed, c.self)
}

func (c *useController) RemoveStatus(b *spells.Buff) {
	if b != nil {
		c.removed = append(c.removed, b)
	}
}

// Runner invokes hooks of the buffs active at an instant and applies their removals.
type Runner struct {
	Registry  *Registry
	OnRemoved RemovalFunc
}

func (r *Runner) apply(ctl *useController, at time.Duration) {
	for _, b := range ctl.removed {
		if r.Registry.Remove(b, at) && r.OnRemoved != nil {
			r.OnRemoved(b, at)
		}
	}
}

// call runs fn for b with a fresh controller. Removals are applied even if fn panics.
func (r *Runner) call(b *spells.Buff, at time.Duration, fn func(ctl spells.Controller)) {
	ctl := &useController{self: b}
	defer r.apply(ctl, at)
	fn(ctl)
}

// BeforeAbility runs beforeAbility hooks at the start of a use.
func (r *Runner) BeforeAbility(a *spells.Ability, at time.Duration) *spells.Ability {
	return r.abilityStage(a, at, func(b *spells.Buff) spells.AbilityHook { return b.BeforeAbility })
}

// BeforeSnapshot runs beforeSnapshot hooks at the snapshot instant.
func (r *Runner) BeforeSnapshot(a *spells.Ability, at time.Duration) *spells.Ability {
	return r.abilityStage(a, at, func(b *spells.Buff) spells.AbilityHook { return b.BeforeSnapshot })
}

func (r *Runner) abilityStage(a *spells.Ability, at time.Duration, pick func(*spells.Buff) spells.AbilityHook) *spells.Ability {
	for _, b := range r.Registry.ActiveAt(at) {
		hook := pick(b)
		if hook == nil || !b.Applies(a) {
			continue
		}
		// a buff removed by an earlier hook in this stage no longer runs
		if !r.Registry.IsActive(b.Name, at) {
			continue
		}
		r.call(b, at, func(ctl spells.Controller) {
			if next := hook(ctl, a); next != nil {
				a = next
			}
		})
	}
	return a
}

// ModifyDamage runs modifyDamage hooks of the snapshot buffs, in activation order.
func (r *Runner) ModifyDamage(snapshot []*spells.Buff, res damage.Result, a *spells.Ability, at time.Duration) damage.Result {
	for _, b := range snapshot {
		if b.ModifyDamage == nil || !b.Applies(a) || !r.Registry.IsActive(b.Name, at) {
			continue
		}
		r.call(b, at, func(ctl spells.Controller) {
			res = b.ModifyDamage(ctl, res, a)
		})
	}
	return res
}
