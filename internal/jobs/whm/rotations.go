package whm

import (
	"time"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/engine"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/sim"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/spells"
)

const (
	// diaRefresh is how much DoT may be left when Dia is reapplied.
	diaRefresh = 3 * time.Second
	// diaMinValue is the least fight time for which a fresh Dia outdamages a Glare III.
	diaMinValue = 9 * time.Second
	// miseryHold is how close the next Presence of Mind must be for Misery to wait for it.
	miseryHold = 30 * time.Second
)

// New returns the WHM job with its built-in rotations.
func New() *sim.Job {
	return &sim.Job{
		Name:      JobName,
		Abilities: append([]*spells.Ability(nil), Abilities...),
		Rotations: []sim.Rotation{
			sim.NewRotation("Standard", standard),
			sim.NewRotation("Misery on cooldown", miseryOnCooldown),
		},
	}
}

// standard holds Afflatus Misery for Presence of Mind unless that would cost a use.
func standard(p *engine.Processor) {
	p.Use(Glare3)
	p.RemainingCycles(func(c *engine.CycleContext) {
		fill(c, miseryInBuffs)
	})
}

func miseryOnCooldown(p *engine.Processor) {
	p.Use(Glare3)
	p.RemainingCycles(func(c *engine.CycleContext) {
		fill(c, func(*engine.Processor) bool { return true })
	})
}

func fill(c *engine.CycleContext, misery func(*engine.Processor) bool) {
	p := c.Processor()
	for p.Err() == nil && c.RemainingGCDTime() > 0 {
		if c.Use(nextGCD(p, misery)) == engine.UseNone {
			return
		}
		weave(c, misery)
	}
}

func nextGCD(p *engine.Processor, misery func(*engine.Processor) bool) *spells.Ability {
	at := p.NextGCDTime()
	left := p.DotRemaining(Dia) - (at - p.CurrentTime())
	if left < diaRefresh && (!p.CombatStarted() || p.RemainingGCDTime() >= diaMinValue) {
		return Dia
	}
	if p.CooldownStatusAt(AfflatusMisery, at).ReadyToUse && misery(p) {
		return AfflatusMisery
	}
	return Glare3
}

func miseryInBuffs(p *engine.Processor) bool {
	if p.IsBuffActive(PresenceOfMindBuff.Name) {
		return true
	}
	at := p.NextGCDTime()
	pomIn := p.CooldownStatusAt(PresenceOfMind, at).ReadyAt - at
	return pomIn > miseryHold || pomIn >= p.RemainingGCDTime()
}

// weave fills the gap after a GCD with whatever oGCDs fit before the next one.
func weave(c *engine.CycleContext, misery func(*engine.Processor) bool) {
	p := c.Processor()
	c.UseOgcd(PresenceOfMind)
	c.UseOgcd(Assize)
	if nextGCD(p, misery) == AfflatusMisery && !p.IsBuffActive(ThinAirBuff.Name) {
		c.UseOgcd(ThinAir)
	}
	c.UseOgcd(LucidDreaming)
}
