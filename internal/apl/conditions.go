package apl

import (
	"cmp"
	"time"
)

// EvaluationContext is provided by the engine when evaluating conditions.
// Names are normalized with NormalizeName.
type EvaluationContext interface {
	BuffActive(name string) bool
	BuffRemaining(name string) time.Duration
	BuffStacks(name string) int
	DotRemaining(ability string) time.Duration
	CooldownReady(ability string) bool
	CooldownRemaining(ability string) time.Duration
	Charges(ability string) int
	FightRemaining() time.Duration
	CombatStarted() bool
}

// Condition evaluates to true/false for a given context.
type Condition interface {
	Eval(ctx EvaluationContext) bool
}

// Always true/false conditions.
type trueCondition struct{}

func (trueCondition) Eval(EvaluationContext) bool { return true }

type falseCondition struct{}

func (falseCondition) Eval(EvaluationContext) bool { return false }

// anyCondition is logical OR.
type anyCondition struct {
	children []Condition
}

func (c anyCondition) Eval(ctx EvaluationContext) bool {
	for _, child := range c.children {
		if child.Eval(ctx) {
			return true
		}
	}
	return false
}

// allCondition is logical AND.
type allCondition struct {
	children []Condition
}

func (c allCondition) Eval(ctx EvaluationContext) bool {
	for _, child := range c.children {
		if !child.Eval(ctx) {
			return false
		}
	}
	return true
}

// notCondition negates a child.
type notCondition struct {
	child Condition
}

func (c notCondition) Eval(ctx EvaluationContext) bool {
	if c.child == nil {
		return true
	}
	return !c.child.Eval(ctx)
}

// bounds holds the optional lt/lte/gt/gte comparisons of a condition.
type bounds[T cmp.Ordered] struct {
	lt, lte, gt, gte *T
}

func (b bounds[T]) match(v T) bool {
	if b.lt != nil && !(v < *b.lt) {
		return false
	}
	if b.lte != nil && !(v <= *b.lte) {
		return false
	}
	if b.gt != nil && !(v > *b.gt) {
		return false
	}
	if b.gte != nil && !(v >= *b.gte) {
		return false
	}
	return true
}

type buffActiveCondition struct {
	name         string
	minRemaining *time.Duration
	maxRemaining *time.Duration
}

func (c buffActiveCondition) Eval(ctx EvaluationContext) bool {
	if ctx == nil {
		return false
	}
	if !ctx.BuffActive(c.name) {
		return false
	}
	remaining := ctx.BuffRemaining(c.name)
	if c.minRemaining != nil && remaining < *c.minRemaining {
		return false
	}
	if c.maxRemaining != nil && remaining > *c.maxRemaining {
		return false
	}
	return true
}

// dotRemainingCondition compares the remaining duration of an ability's DoT.
type dotRemainingCondition struct {
	ability string
	bounds[time.Duration]
}

func (c dotRemainingCondition) Eval(ctx EvaluationContext) bool {
	if ctx == nil {
		return false
	}
	return c.match(ctx.DotRemaining(c.ability))
}

// cooldownReadyCondition checks if an ability has a charge available.
type cooldownReadyCondition struct {
	ability string
}

func (c cooldownReadyCondition) Eval(ctx EvaluationContext) bool {
	if ctx == nil {
		return false
	}
	return ctx.CooldownReady(c.ability)
}

type cooldownRemainingCondition struct {
	ability string
	bounds[time.Duration]
}

func (c cooldownRemainingCondition) Eval(ctx EvaluationContext) bool {
	if ctx == nil {
		return false
	}
	return c.match(ctx.CooldownRemaining(c.ability))
}

// chargesCondition compares ability charges, or buff stacks when buff is set.
type chargesCondition struct {
	ability string
	buff    string
	bounds[int]
}

func (c chargesCondition) Eval(ctx EvaluationContext) bool {
	if ctx == nil {
		return false
	}
	if c.buff != "" {
		return c.match(ctx.BuffStacks(c.buff))
	}
	return c.match(ctx.Charges(c.ability))
}

type fightRemainingCondition struct {
	bounds[time.Duration]
}

func (c fightRemainingCondition) Eval(ctx EvaluationContext) bool {
	if ctx == nil {
		return false
	}
	return c.match(ctx.FightRemaining())
}

type combatStartedCondition struct {
	want bool
}

func (c combatStartedCondition) Eval(ctx EvaluationContext) bool {
	if ctx == nil {
		return false
	}
	return ctx.CombatStarted() == c.want
}
