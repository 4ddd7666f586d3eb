package spells

import (
	"strconv"
	"time"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/damage"
)

// Kind identifies how an ability interacts with the GCD.
type Kind int

const (
	KindGCD Kind = iota
	KindOGCD
	KindAutoAttack
)

func (k Kind) String() string {
	switch k {
	case KindGCD:
		return "gcd"
	case KindOGCD:
		return "ogcd"
	case KindAutoAttack:
		return "autoattack"
	default:
		return "unknown"
	}
}

// SpeedStat names the stat that shortens a cooldown.
type SpeedStat string

const (
	NoSpeedStat SpeedStat = ""
	SpellSpeed  SpeedStat = "spellspeed"
	SkillSpeed  SpeedStat = "skillspeed"
)

// Cooldown describes an ability recharge.
type Cooldown struct {
	Time      time.Duration
	Charges   int // 0 is treated as 1
	ReducedBy SpeedStat
}

// MaxCharges returns the charge count with the default applied.
func (c *Cooldown) MaxCharges() int {
	if c == nil || c.Charges <= 0 {
		return 1
	}
	return c.Charges
}

// Dot is the damage-over-time part of an ability.
type Dot struct {
	ID       int
	Potency  float64
	Duration time.Duration
}

// Ability is an action a rotation can use. Abilities are treated as values:
// hooks that want a different ability produce a modified copy.
type Ability struct {
	Kind       Kind
	Name       string
	ID         int
	AttackType damage.AttackType

	Potency  float64
	AutoCrit bool
	AutoDH   bool
	Dot      *Dot

	Cooldown      *Cooldown
	Cast          time.Duration
	GCD           time.Duration
	FixedGCD      bool
	AnimationLock time.Duration
	AppDelay      time.Duration

	ActivatesBuffs []*Buff
	Combos         []Combo
	ComboBreaker   bool
}

// Key identifies the ability for cooldown and combo bookkeeping.
// Modified copies keep the key of the ability they were made from.
func (a *Ability) Key() string {
	if a.ID != 0 {
		return "id:" + strconv.Itoa(a.ID)
	}
	return "name:" + a.Name
}

// Same reports whether two abilities share a key.
func (a *Ability) Same(other *Ability) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.Key() == other.Key()
}

// IsDamaging reports whether the ability has a damaging payload.
func (a *Ability) IsDamaging() bool {
	return a.Potency > 0 || a.Dot != nil
}

// IsGCD reports whether the ability occupies the GCD channel.
func (a *Ability) IsGCD() bool {
	return a.Kind == KindGCD
}

// Clone returns a shallow copy.
func (a *Ability) Clone() *Ability {
	c := *a
	return &c
}

// WithCast returns a copy with a different cast time.
func (a *Ability) WithCast(cast time.Duration) *Ability {
	c := a.Clone()
	c.Cast = cast
	return c
}

// WithPotency returns a copy with a different potency.
func (a *Ability) WithPotency(potency float64) *Ability {
	c := a.Clone()
	c.Potency = potency
	return c
}

// ActivatesBuff reports whether the ability lists the named buff.
func (a *Ability) ActivatesBuff(name string) bool {
	for _, b := range a.ActivatesBuffs {
		if b.Name == name {
			return true
		}
	}
	return false
}
