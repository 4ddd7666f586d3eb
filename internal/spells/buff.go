package spells

import (
	"time"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/damage"
)

// BuffKind separates buffs granted by the player from raid buffs.
type BuffKind int

const (
	PersonalBuff BuffKind = iota
	PartyBuff
)

// Effects are the passive modifiers a buff grants while active.
type Effects struct {
	DmgIncrease        float64 // fraction, 0.05 = +5%
	CritChanceIncrease float64
	DhitChanceIncrease float64
	ForceCrit          bool
	ForceDhit          bool
	Haste              float64 // percent
}

// Controller lets a hook remove buffs during the current ability use.
// Removals take effect as soon as the hook returns.
type Controller interface {
	RemoveSelf()
	RemoveStatus(b *Buff)
}

// Hook signatures. Hooks return the (possibly replaced) value they were given.
type (
	AbilityHook func(ctl Controller, a *Ability) *Ability
	DamageHook  func(ctl Controller, r damage.Result, a *Ability) damage.Result
)

// Buff is a status effect. Personal buffs with no Duration last until removed.
type Buff struct {
	Kind     BuffKind
	Name     string
	StatusID int
	SelfOnly bool
	Stacks   int

	Duration time.Duration
	Job      string        // party buffs only
	Cooldown time.Duration // party buffs only

	Effects   Effects
	AppliesTo func(a *Ability) bool

	BeforeAbility  AbilityHook
	BeforeSnapshot AbilityHook
	ModifyDamage   DamageHook
}

// Indefinite reports whether the buff only ends through explicit removal.
func (b *Buff) Indefinite() bool {
	return b.Duration <= 0
}

// Applies reports whether the buff affects a.
func (b *Buff) Applies(a *Ability) bool {
	if b.AppliesTo == nil {
		return true
	}
	return b.AppliesTo(a)
}

// WithStacks returns a copy carrying a different stack count.
func (b *Buff) WithStacks(stacks int) *Buff {
	c := *b
	c.Stacks = stacks
	return &c
}

// OnlyAttackTypes is an AppliesTo predicate matching the given attack types.
func OnlyAttackTypes(types ...damage.AttackType) func(*Ability) bool {
	return func(a *Ability) bool {
		for _, t := range types {
			if a.AttackType == t {
				return true
			}
		}
		return false
	}
}

// OnlyCasts matches abilities with a cast time.
func OnlyCasts(a *Ability) bool {
	return a.Cast > 0
}
