package buffs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/damage"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/spells"
)

func timed(name string, d time.Duration) *spells.Buff {
	return &spells.Buff{Name: name, Duration: d}
}

func names(bs []*spells.Buff) []string {
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Name)
	}
	return out
}

func TestActivateAndExpire(t *testing.T) {
	r := NewRegistry()
	r.Activate(timed("Presence of Mind", 15*time.Second), 2*time.Second)

	assert.Empty(t, r.ActiveAt(time.Second))
	assert.Equal(t, []string{"Presence of Mind"}, names(r.ActiveAt(2*time.Second)))
	assert.Equal(t, []string{"Presence of Mind"}, names(r.ActiveAt(16*time.Second)))
	assert.Empty(t, r.ActiveAt(17*time.Second))
	assert.Equal(t, 5*time.Second, r.Remaining("Presence of Mind", 12*time.Second))
}

func TestRefreshReplacesInsteadOfStacking(t *testing.T) {
	r := NewRegistry()
	b := timed("Dmg Up", 10*time.Second)
	r.Activate(b, 0)
	r.Activate(timed("Other", 30*time.Second), time.Second)
	r.Activate(b, 5*time.Second)

	active := r.ActiveAt(6 * time.Second)
	assert.Equal(t, []string{"Other", "Dmg Up"}, names(active))
	assert.Equal(t, 9*time.Second, r.Remaining("Dmg Up", 6*time.Second))
	assert.True(t, r.IsActive("Dmg Up", 14*time.Second))
	assert.False(t, r.IsActive("Dmg Up", 15*time.Second))

	// history before the refresh is kept
	assert.True(t, r.IsActive("Dmg Up", 4*time.Second))
}

func TestStacksTravelOnTheValue(t *testing.T) {
	r := NewRegistry()
	b := &spells.Buff{Name: "Stacks", Duration: 30 * time.Second, Stacks: 3}
	r.Activate(b, 0)
	r.Activate(b.WithStacks(2), time.Second)

	active := r.ActiveAt(2 * time.Second)
	require.Len(t, active, 1)
	assert.Equal(t, 2, active[0].Stacks)
}

func TestIndefiniteUntilRemoved(t *testing.T) {
	r := NewRegistry()
	b := &spells.Buff{Name: "Stance"}
	r.Activate(b, 0)
	assert.True(t, r.IsActive("Stance", time.Hour))
	assert.Zero(t, r.Remaining("Stance", time.Minute))

	assert.True(t, r.Remove(b, 10*time.Second))
	assert.False(t, r.IsActive("Stance", 10*time.Second))
	assert.True(t, r.IsActive("Stance", 9*time.Second))
	assert.False(t, r.Remove(b, 11*time.Second))
}

func TestUptimeAndShift(t *testing.T) {
	r := NewRegistry()
	b := timed("Window", 20*time.Second)
	r.Activate(b, 10*time.Second)
	r.Activate(b, 100*time.Second)
	assert.Equal(t, 30*time.Second, r.Uptime("Window", 0, 110*time.Second))

	r.Shift(-10 * time.Second)
	assert.True(t, r.IsActive("Window", 0))
	assert.False(t, r.IsActive("Window", 20*time.Second))
	assert.Equal(t, []string{"Window"}, r.Names())
}

func TestHookOrderAndRemoval(t *testing.T) {
	r := NewRegistry()
	var calls []string
	first := &spells.Buff{Name: "First", Duration: 10 * time.Second}
	second := &spells.Buff{Name: "Second", Duration: 10 * time.Second}
	first.BeforeAbility = func(ctl spells.Controller, a *spells.Ability) *spells.Ability {
		calls = append(calls, "first")
		ctl.RemoveStatus(second)
		return a.WithCast(0)
	}
	second.BeforeAbility = func(ctl spells.Controller, a *spells.Ability) *spells.Ability {
		calls = append(calls, "second")
		return a
	}
	r.Activate(first, 0)
	r.Activate(second, 0)

	var removed []string
	runner := &Runner{Registry: r, OnRemoved: func(b *spells.Buff, _ time.Duration) { removed = append(removed, b.Name) }}
	glare := &spells.Ability{Kind: spells.KindGCD, Name: "Glare", GCD: 2500 * time.Millisecond, Cast: 1500 * time.Millisecond}
	out := runner.BeforeAbility(glare, time.Second)

	assert.Equal(t, []string{"first"}, calls)
	assert.Equal(t, []string{"Second"}, removed)
	assert.Zero(t, out.Cast)
	assert.Equal(t, 1500*time.Millisecond, glare.Cast, "original ability is not mutated")
}

func TestAppliesToSkipsAllHooks(t *testing.T) {
	r := NewRegistry()
	called := 0
	b := &spells.Buff{
		Name:      "Spell Only",
		Duration:  10 * time.Second,
		AppliesTo: spells.OnlyAttackTypes(damage.Spell),
		BeforeAbility: func(ctl spells.Controller, a *spells.Ability) *spells.Ability {
			called++
			ctl.RemoveSelf()
			return a
		},
		BeforeSnapshot: func(ctl spells.Controller, a *spells.Ability) *spells.Ability {
			called++
			ctl.RemoveSelf()
			return a
		},
		ModifyDamage: func(ctl spells.Controller, res damage.Result, a *spells.Ability) damage.Result {
			called++
			ctl.RemoveSelf()
			return res
		},
	}
	r.Activate(b, 0)
	runner := &Runner{Registry: r}
	assize := &spells.Ability{Kind: spells.KindOGCD, Name: "Assize", AttackType: damage.Ability, Potency: 400}

	runner.BeforeAbility(assize, time.Second)
	runner.BeforeSnapshot(assize, time.Second)
	runner.ModifyDamage(r.ActiveAt(time.Second), damage.Result{Direct: damage.Fixed(100)}, assize, time.Second)

	assert.Zero(t, called)
	assert.True(t, r.IsActive("Spell Only", time.Second))
}

func TestRemovalSurvivesHookPanic(t *testing.T) {
	r := NewRegistry()
	b := &spells.Buff{
		Name:     "Broken",
		Duration: 10 * time.Second,
		BeforeSnapshot: func(ctl spells.Controller, a *spells.Ability) *spells.Ability {
			ctl.RemoveSelf()
			panic("job module bug")
		},
	}
	r.Activate(b, 0)
	runner := &Runner{Registry: r}
	a := &spells.Ability{Kind: spells.KindOGCD, Name: "Any"}

	assert.Panics(t, func() { runner.BeforeSnapshot(a, 2*time.Second) })
	assert.False(t, r.IsActive("Broken", 2*time.Second))
}

func TestModifyDamageRunsInActivationOrder(t *testing.T) {
	r := NewRegistry()
	double := &spells.Buff{Name: "Double", Duration: 10 * time.Second,
		ModifyDamage: func(_ spells.Controller, res damage.Result, _ *spells.Ability) damage.Result {
			return res.Scale(2)
		}}
	plus := &spells.Buff{Name: "Plus", Duration: 10 * time.Second,
		ModifyDamage: func(_ spells.Controller, res damage.Result, _ *spells.Ability) damage.Result {
			res.Direct = res.Direct.Plus(damage.Fixed(10))
			return res
		}}
	r.Activate(double, 0)
	r.Activate(plus, 0)
	runner := &Runner{Registry: r}
	a := &spells.Ability{Kind: spells.KindOGCD, Name: "Hit", Potency: 100}

	res := runner.ModifyDamage(r.ActiveAt(time.Second), damage.Result{Direct: damage.Fixed(5)}, a, time.Second)
	assert.InDelta(t, 20, res.Direct.Expected, 1e-9)
}
