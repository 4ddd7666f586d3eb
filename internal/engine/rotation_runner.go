package engine

import (
	"fmt"
	"time"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/apl"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/spells"
)

// idleStep is how long the runner waits when no rotation entry can act.
const idleStep = 100 * time.Millisecond

// Catalog maps the names a rotation script uses to job abilities and buffs.
type Catalog struct {
	abilities map[string]*spells.Ability
	buffs     map[string]string
}

// NewCatalog indexes abilities and buffs by normalized name. Buffs activated by
// the abilities are picked up automatically.
func NewCatalog(abilities []*spells.Ability, extraBuffs []*spells.Buff) *Catalog {
	c := &Catalog{
		abilities: make(map[string]*spells.Ability, len(abilities)),
		buffs:     make(map[string]string),
	}
	for _, a := range abilities {
		c.abilities[apl.NormalizeName(a.Name)] = a
		for _, b := range a.ActivatesBuffs {
			c.buffs[apl.NormalizeName(b.Name)] = b.Name
		}
	}
	for _, b := range extraBuffs {
		c.buffs[apl.NormalizeName(b.Name)] = b.Name
	}
	return c
}

// Names returns the name set used to validate scripts against this catalog.
func (c *Catalog) Names() *apl.Names {
	var abilities, buffs []string
	for n := range c.abilities {
		abilities = append(abilities, n)
	}
	for n := range c.buffs {
		buffs = append(buffs, n)
	}
	return apl.NewNames(abilities, buffs)
}

// Ability looks up an ability by script name.
func (c *Catalog) Ability(name string) (*spells.Ability, bool) {
	a, ok := c.abilities[apl.NormalizeName(name)]
	return a, ok
}

type rotationContext struct {
	p       *Processor
	catalog *Catalog
}

func (c *rotationContext) buffName(name string) string {
	if n, ok := c.catalog.buffs[name]; ok {
		return n
	}
	return name
}

func (c *rotationContext) BuffActive(name string) bool {
	return c.p.IsBuffActive(c.buffName(name))
}

func (c *rotationContext) BuffRemaining(name string) time.Duration {
	return c.p.BuffRemaining(c.buffName(name))
}

func (c *rotationContext) BuffStacks(name string) int {
	b, ok := c.p.ActiveBuff(c.buffName(name))
	if !ok {
		return 0
	}
	return b.Stacks
}

func (c *rotationContext) DotRemaining(ability string) time.Duration {
	a, ok := c.catalog.abilities[ability]
	if !ok {
		return 0
	}
	return c.p.DotRemaining(a)
}

func (c *rotationContext) CooldownReady(ability string) bool {
	a, ok := c.catalog.abilities[ability]
	if !ok {
		return false
	}
	return c.p.CooldownStatus(a).ReadyToUse
}

func (c *rotationContext) CooldownRemaining(ability string) time.Duration {
	a, ok := c.catalog.abilities[ability]
	if !ok {
		return 0
	}
	return max(0, c.p.CooldownStatus(a).ReadyAt-c.p.CurrentTime())
}

func (c *rotationContext) Charges(ability string) int {
	a, ok := c.catalog.abilities[ability]
	if !ok {
		return 0
	}
	return c.p.CooldownStatus(a).CurrentCharges
}

func (c *rotationContext) FightRemaining() time.Duration {
	return c.p.RemainingTime()
}

func (c *rotationContext) CombatStarted() bool {
	return c.p.CombatStarted()
}

// RunRotation drives p with a compiled script: prepull entries once in order,
// then the priority list re-evaluated after every action, one cycle at a time.
func RunRotation(p *Processor, rot *apl.CompiledRotation, catalog *Catalog) error {
	if rot == nil || len(rot.Actions) == 0 {
		return fmt.Errorf("rotation has no actions")
	}
	ctx := &rotationContext{p: p, catalog: catalog}
	for _, action := range rot.Prepull {
		if action == nil {
			continue
		}
		if action.Condition != nil && !action.Condition.Eval(ctx) {
			continue
		}
		if _, err := ctx.execute(action); err != nil {
			return err
		}
	}
	var runErr error
	p.RemainingCycles(func(cycle *CycleContext) {
		for runErr == nil && p.Err() == nil && cycle.RemainingGCDTime() > 0 {
			acted, err := ctx.executeRotation(rot)
			if err != nil {
				runErr = err
				return
			}
			if acted {
				continue
			}
			if !p.CombatStarted() {
				// nothing left that could start the fight
				return
			}
			p.AdvanceTo(p.CurrentTime() + idleStep)
		}
	})
	if runErr != nil {
		return runErr
	}
	return p.Err()
}

func (c *rotationContext) executeRotation(rot *apl.CompiledRotation) (bool, error) {
	for _, action := range rot.Actions {
		if action == nil {
			continue
		}
		if action.Condition != nil && !action.Condition.Eval(c) {
			continue
		}
		acted, err := c.execute(action)
		if err != nil || acted {
			return acted, err
		}
	}
	return false, nil
}

// execute runs one action and reports whether it did anything.
func (c *rotationContext) execute(action *apl.Action) (bool, error) {
	switch action.Type {
	case apl.ActionUse, apl.ActionUseOgcd, apl.ActionUseUntil:
		a, ok := c.catalog.abilities[action.Ability]
		if !ok {
			return false, fmt.Errorf("ability '%s' is not part of this job", action.Ability)
		}
		switch action.Type {
		case apl.ActionUseOgcd:
			return c.p.UseOgcd(a) != UseNone, nil
		case apl.ActionUseUntil:
			before := c.p.useCount(a)
			c.p.UseUntil(a, action.Until)
			return c.p.useCount(a) != before, nil
		}
		// a priority entry only fires once the ability has a charge for it
		if a.Cooldown != nil && !c.p.cooldowns.StatusOfAt(a, c.p.readyAt(a)).ReadyToUse {
			return false, nil
		}
		return c.p.Use(a) != UseNone, nil
	case apl.ActionWait:
		before := c.p.CurrentTime()
		c.p.AdvanceTo(before + action.Duration)
		return c.p.CurrentTime() != before, nil
	case apl.ActionSpecial:
		c.p.AddSpecialRow(action.Label)
		return false, nil
	case apl.ActionMacro:
		acted := false
		for _, step := range action.Steps {
			if step == nil {
				continue
			}
			if step.Condition != nil && !step.Condition.Eval(c) {
				continue
			}
			ok, err := c.execute(step)
			if err != nil {
				return acted, err
			}
			acted = acted || ok
		}
		return acted, nil
	default:
		return false, fmt.Errorf("unsupported action type %d", action.Type)
	}
}
