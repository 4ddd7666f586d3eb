package spells

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAbility = errors.New("invalid ability")
	ErrInvalidBuff    = errors.New("invalid buff")
)

// ValidateAbility checks an ability definition, including the buffs it activates.
func ValidateAbility(a *Ability) error {
	if a == nil {
		return fmt.Errorf("%w: nil", ErrInvalidAbility)
	}
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w %q: %s", ErrInvalidAbility, a.Name, fmt.Sprintf(format, args...))
	}
	if a.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidAbility)
	}
	switch a.Kind {
	case KindGCD:
		if a.GCD <= 0 {
			return fail("gcd ability needs a gcd")
		}
	case KindOGCD:
		if a.GCD != 0 {
			return fail("ogcd ability cannot have a gcd")
		}
		if a.Cast != 0 {
			return fail("ogcd ability cannot have a cast time")
		}
	case KindAutoAttack:
		if a.Potency <= 0 {
			return fail("auto-attack needs a potency")
		}
	default:
		return fail("unknown kind %d", int(a.Kind))
	}
	if a.Potency < 0 {
		return fail("negative potency")
	}
	if a.Cast < 0 || a.AnimationLock < 0 || a.AppDelay < 0 {
		return fail("negative duration")
	}
	if a.Dot != nil {
		if a.Dot.Duration <= 0 {
			return fail("dot needs a duration")
		}
		if a.Dot.Potency <= 0 {
			return fail("dot needs a potency")
		}
	}
	if a.Cooldown != nil {
		if a.Cooldown.Time <= 0 {
			return fail("cooldown needs a time")
		}
		if a.Cooldown.Charges < 0 {
			return fail("negative charges")
		}
	}
	for _, c := range a.Combos {
		for i, entry := range c.Entries {
			if len(entry.From) == 0 {
				return fail("combo %s entry %d has no predecessor", c.ComboKey(), i)
			}
			if entry.Potency <= 0 {
				return fail("combo %s entry %d needs a potency", c.ComboKey(), i)
			}
		}
	}
	for _, b := range a.ActivatesBuffs {
		if err := ValidateBuff(b); err != nil {
			return fmt.Errorf("%s: %w", a.Name, err)
		}
	}
	return nil
}

// ValidateBuff checks a buff definition.
func ValidateBuff(b *Buff) error {
	if b == nil {
		return fmt.Errorf("%w: nil", ErrInvalidBuff)
	}
	if b.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidBuff)
	}
	if b.Duration < 0 {
		return fmt.Errorf("%w %q: negative duration", ErrInvalidBuff, b.Name)
	}
	if b.Stacks < 0 {
		return fmt.Errorf("%w %q: negative stacks", ErrInvalidBuff, b.Name)
	}
	if b.Effects.Haste < 0 || b.Effects.Haste >= 100 {
		return fmt.Errorf("%w %q: haste must be in [0, 100)", ErrInvalidBuff, b.Name)
	}
	if b.Kind == PartyBuff {
		if b.Job == "" {
			return fmt.Errorf("%w %q: party buff needs a job", ErrInvalidBuff, b.Name)
		}
		if b.Duration <= 0 {
			return fmt.Errorf("%w %q: party buff needs a duration", ErrInvalidBuff, b.Name)
		}
		if b.Cooldown <= 0 {
			return fmt.Errorf("%w %q: party buff needs a cooldown", ErrInvalidBuff, b.Name)
		}
	}
	return nil
}

// MustAbility panics if a is malformed. Job modules use it for their catalogues.
func MustAbility(a *Ability) *Ability {
	if err := ValidateAbility(a); err != nil {
		panic(err)
	}
	return a
}

// MustBuff panics if b is malformed.
func MustBuff(b *Buff) *Buff {
	if err := ValidateBuff(b); err != nil {
		panic(err)
	}
	return b
}
