package engine

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/character"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/damage"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/spells"
)

func gcdSpell(name string, potency float64, cast time.Duration) *spells.Ability {
	return &spells.Ability{
		Kind:       spells.KindGCD,
		Name:       name,
		AttackType: damage.Spell,
		Potency:    potency,
		Cast:       cast,
		GCD:        2500 * time.Millisecond,
	}
}

func newSwiftcast() (*spells.Ability, *spells.Buff) {
	buff := &spells.Buff{
		Name:      "Swiftcast",
		Duration:  10 * time.Second,
		AppliesTo: spells.OnlyCasts,
		BeforeAbility: func(ctl spells.Controller, a *spells.Ability) *spells.Ability {
			ctl.RemoveSelf()
			return a.WithCast(0)
		},
	}
	ability := &spells.Ability{
		Kind:           spells.KindOGCD,
		Name:           "Swiftcast",
		Cooldown:       &spells.Cooldown{Time: 60 * time.Second},
		ActivatesBuffs: []*spells.Buff{buff},
	}
	return ability, buff
}

func newDia() *spells.Ability {
	return &spells.Ability{
		Kind:       spells.KindGCD,
		Name:       "Dia",
		ID:         16532,
		AttackType: damage.Spell,
		Potency:    65,
		Dot:        &spells.Dot{ID: 1871, Potency: 65, Duration: 30 * time.Second},
		GCD:        2500 * time.Millisecond,
	}
}

type settingsOption func(*Settings)

func withAutos(s *Settings) { s.UseAutos = true }

func withLog(w io.Writer) settingsOption {
	return func(s *Settings) { s.CombatLog = w }
}

func newTestProcessor(t *testing.T, total time.Duration, opts ...settingsOption) *Processor {
	t.Helper()
	settings := Settings{
		Stats:        character.Unit(),
		TotalTime:    total,
		CooldownMode: "reject",
	}
	for _, opt := range opts {
		opt(&settings)
	}
	p, err := NewProcessor(settings)
	require.NoError(t, err)
	return p
}

func autoTimes(p *Processor) []time.Duration {
	var out []time.Duration
	for _, u := range p.UsedAbilities() {
		if u.Ability.Kind == spells.KindAutoAttack {
			out = append(out, u.UsedAt)
		}
	}
	return out
}

func lastUse(p *Processor) *UsedAbility {
	uses := p.UsedAbilities()
	for i := len(uses) - 1; i >= 0; i-- {
		if uses[i].Ability.Kind != spells.KindAutoAttack {
			return uses[i]
		}
	}
	return nil
}
