package whm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/character"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/engine"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/spells"
)

func newProcessor(t *testing.T, total time.Duration) *engine.Processor {
	t.Helper()
	stats := character.Unit()
	stats.Job = JobName
	p, err := engine.NewProcessor(engine.Settings{
		Stats:        stats,
		TotalTime:    total,
		CycleTime:    120 * time.Second,
		CooldownMode: "reject",
	})
	require.NoError(t, err)
	return p
}

func uses(p *engine.Processor, a *spells.Ability) []*engine.UsedAbility {
	var out []*engine.UsedAbility
	for _, u := range p.UsedAbilities() {
		if u.Ability.Same(a) {
			out = append(out, u)
		}
	}
	return out
}

func hasBuff(u *engine.UsedAbility, b *spells.Buff) bool {
	for _, active := range u.Buffs {
		if active.Name == b.Name {
			return true
		}
	}
	return false
}

func TestCatalogueIsValid(t *testing.T) {
	seen := map[string]bool{}
	for _, a := range Abilities {
		assert.NoError(t, spells.ValidateAbility(a), a.Name)
		assert.False(t, seen[a.Name], "duplicate %s", a.Name)
		seen[a.Name] = true
	}

	job := New()
	assert.Equal(t, JobName, job.Name)
	require.Len(t, job.Rotations, 2)
	assert.Equal(t, "Standard", job.Rotations[0].Name())
	assert.Equal(t, "Misery on cooldown", job.Rotations[1].Name())
}

func TestStandardOpener(t *testing.T) {
	p := newProcessor(t, 120*time.Second)
	require.NoError(t, New().Rotations[0].Run(p))

	all := p.UsedAbilities()
	require.GreaterOrEqual(t, len(all), 6)
	var names []string
	for _, u := range all[:6] {
		names = append(names, u.Ability.Name)
	}
	assert.Equal(t, []string{"Glare III", "Dia", "Presence of Mind", "Assize", "Thin Air", "Afflatus Misery"}, names)
	assert.Negative(t, all[0].UsedAt)

	misery := uses(p, AfflatusMisery)
	require.Len(t, misery, 2)
	assert.True(t, hasBuff(misery[0], PresenceOfMindBuff))
	assert.False(t, p.IsBuffActive(ThinAirBuff.Name))
	assert.GreaterOrEqual(t, misery[1].UsedAt-misery[0].UsedAt, 60*time.Second)

	assert.Len(t, uses(p, Assize), 3)
	assert.Len(t, uses(p, PresenceOfMind), 1)
}

func TestStandardKeepsDiaUpAndStopsRefreshingLate(t *testing.T) {
	p := newProcessor(t, 120*time.Second)
	require.NoError(t, New().Rotations[0].Run(p))

	dia := uses(p, Dia)
	require.GreaterOrEqual(t, len(dia), 4)
	for i := 1; i < len(dia); i++ {
		gap := dia[i].ApplicationTime() - dia[i-1].ApplicationTime()
		assert.LessOrEqual(t, gap, Dia.Dot.Duration+diaRefresh)
		assert.GreaterOrEqual(t, gap, Dia.Dot.Duration-diaRefresh-3*time.Second)
	}
	last := dia[len(dia)-1]
	assert.LessOrEqual(t, last.UsedAt, 120*time.Second-diaMinValue)
}

func TestGCDsStayWithinTheFight(t *testing.T) {
	for _, rot := range New().Rotations {
		t.Run(rot.Name(), func(t *testing.T) {
			p := newProcessor(t, 60*time.Second)
			require.NoError(t, rot.Run(p))
			assert.NoError(t, p.Err())
			for _, u := range p.UsedAbilities() {
				assert.Less(t, u.UsedAt, 60*time.Second, u.Ability.Name)
			}
			res := p.Finalize()
			assert.Greater(t, res.DPS, 0.0)
		})
	}
}

func TestPresenceOfMindHastesGCDs(t *testing.T) {
	p := newProcessor(t, 60*time.Second)
	p.Use(Glare3)
	p.UseOgcd(PresenceOfMind)
	p.Use(Glare3)

	u := uses(p, Glare3)[1]
	assert.Equal(t, 2000*time.Millisecond, u.GCDTime)
	assert.Equal(t, 1200*time.Millisecond, u.CastTime)
}

func TestSwiftcastMakesNextCastInstant(t *testing.T) {
	p := newProcessor(t, 60*time.Second)
	p.Use(Dia)
	p.UseOgcd(Swiftcast)
	p.Use(Glare3)
	p.Use(Glare3)

	glares := uses(p, Glare3)
	require.Len(t, glares, 2)
	assert.Zero(t, glares[0].CastTime)
	assert.Equal(t, engine.StandardAnimationLock, glares[0].LockTime)
	assert.Equal(t, 1500*time.Millisecond, glares[1].CastTime)
}
