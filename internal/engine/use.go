package engine

import (
	"fmt"
	"time"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/cooldown"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/damage"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/spells"
)

// readyAt is the earliest time a could start. The ability's own cooldown only
// counts in delay mode; other modes leave cooldown discipline to the tracker.
func (p *Processor) readyAt(a *spells.Ability) time.Duration {
	at := max(p.currentTime, p.lock.ReadyAt())
	if a.IsGCD() {
		at = max(at, p.gcd.ReadyAt())
	}
	if p.cooldowns.Mode() == cooldown.ModeDelay {
		at = max(at, p.cooldowns.StatusOfAt(a, at).ReadyAt)
	}
	return at
}

// Use waits until a can be initiated, then resolves it.
func (p *Processor) Use(a *spells.Ability) UseResult {
	if p.err != nil {
		return UseNone
	}
	spells.MustAbility(a)
	if a.Kind == spells.KindAutoAttack {
		panic(fmt.Sprintf("engine: %s is an auto-attack and cannot be used directly", a.Name))
	}
	at := p.readyAt(a)
	if p.combatStarted && at >= p.settings.TotalTime {
		p.AdvanceTo(p.settings.TotalTime)
		return UseNone
	}
	p.advanceTo(at)
	return p.resolve(a)
}

// UseOgcd weaves a if it can be used before the next GCD without delaying it.
// It waits for the ability's cooldown when that still fits in the window.
func (p *Processor) UseOgcd(a *spells.Ability) UseResult {
	if p.err != nil {
		return UseNone
	}
	spells.MustAbility(a)
	if a.IsGCD() {
		return p.Use(a)
	}
	at := max(p.NextActionTime(), p.cooldowns.StatusOfAt(a, p.NextActionTime()).ReadyAt)
	if p.combatStarted && at >= p.settings.TotalTime {
		return UseNone
	}
	if at+p.lockFor(a) > p.NextGCDTime() {
		return UseNone
	}
	p.advanceTo(at)
	return p.resolve(a)
}

// UseUntil uses a repeatedly while it can start before t.
func (p *Processor) UseUntil(a *spells.Ability, t time.Duration) {
	for p.err == nil {
		at := p.readyAt(a)
		if at >= t || (p.combatStarted && at >= p.settings.TotalTime) {
			return
		}
		if p.Use(a) == UseNone {
			return
		}
	}
}

// UseWhile uses a repeatedly while cond holds and the fight has time left.
func (p *Processor) UseWhile(a *spells.Ability, cond func() bool) {
	for p.err == nil && cond() {
		if p.combatStarted && p.RemainingGCDTime() <= 0 {
			return
		}
		if p.Use(a) == UseNone {
			return
		}
	}
}

// lockFor estimates the action lock a would take if used now, before hooks run.
func (p *Processor) lockFor(a *spells.Ability) time.Duration {
	if a.Cast > 0 {
		cast := a.Cast
		if !a.FixedGCD {
			cast = p.stats.CastTime(a.Cast, 0)
		}
		return cast + CasterTax
	}
	if a.AnimationLock > 0 {
		return a.AnimationLock
	}
	return StandardAnimationLock
}

func (p *Processor) consumeCooldown(a *spells.Ability) error {
	if a.Cooldown == nil {
		return nil
	}
	if a.Cooldown.ReducedBy != spells.NoSpeedStat {
		return p.cooldowns.UseAbilityWithTime(a, p.stats.GCDTime(a.Cooldown.Time, 0))
	}
	return p.cooldowns.UseAbility(a)
}

// resolve runs one use at the current time: hooks, snapshot, damage, record, locks.
func (p *Processor) resolve(a *spells.Ability) UseResult {
	if err := p.consumeCooldown(a); err != nil {
		p.fail(fmt.Errorf("use %s: %w", a.Name, err))
		return UseNone
	}
	start := p.currentTime

	a = p.hooks.BeforeAbility(a, start)
	haste := spells.Combine(p.buffs.EffectiveAt(start, a)).Haste
	a = p.resolveCombo(a)

	castTime, gcdTime := a.Cast, a.GCD
	if !a.FixedGCD {
		castTime = p.stats.CastTime(a.Cast, haste)
		gcdTime = p.stats.GCDTime(a.GCD, haste)
	}
	lockTime := StandardAnimationLock
	if a.AnimationLock > 0 {
		lockTime = a.AnimationLock
	}
	if castTime > 0 {
		lockTime = castTime + CasterTax
	}
	snapshotFromStart := max(0, castTime-CastSnapshotLead)
	snapshotAt := start + snapshotFromStart

	p.runEventsThrough(snapshotAt)
	a = p.hooks.BeforeSnapshot(a, snapshotAt)
	snapBuffs := p.buffs.EffectiveAt(snapshotAt, a)
	combined := spells.Combine(snapBuffs)
	combined.Haste = haste
	res := p.computeDamage(a, combined)
	res = p.hooks.ModifyDamage(snapBuffs, res, a, snapshotAt)

	appDelay := StandardApplicationDelay
	if a.AppDelay > 0 {
		appDelay = a.AppDelay
	}
	u := &UsedAbility{
		Ability:    a,
		UsedAt:     start,
		SnapshotAt: snapshotFromStart,
		AppliedAt:  snapshotFromStart + appDelay,
		CastTime:   castTime,
		LockTime:   lockTime,
		GCDTime:    gcdTime,
		Buffs:      snapBuffs,
		Combined:   combined,
		Damage:     res,
	}
	p.records = append(p.records, u)
	if a.IsGCD() {
		p.gcd.Reset(start, gcdTime)
	}
	p.lock.Reset(start, lockTime)
	if castTime > 0 {
		p.castStart, p.castEnd = start, start+castTime
	}
	p.logAt(start, "USE %s potency=%.0f damage=%.2f", a.Name, a.Potency, res.Direct.Expected)
	p.applyDot(u)
	for _, b := range a.ActivatesBuffs {
		p.activateBuff(b, snapshotAt)
	}

	if !p.combatStarted && a.IsDamaging() {
		p.startCombat(u.ApplicationTime())
	}

	result := UseFull
	if p.combatStarted && u.UsedAt+max(gcdTime, lockTime) > p.settings.TotalTime {
		u.Partial = true
		result = UsePartial
	}
	end := p.lock.ReadyAt()
	if p.combatStarted {
		end = min(end, p.settings.TotalTime)
	}
	if end > p.currentTime {
		p.advanceTo(end)
	}
	return result
}

func (p *Processor) computeDamage(a *spells.Ability, combined spells.CombinedEffects) damage.Result {
	var res damage.Result
	if a.Potency > 0 {
		base := damage.BaseDamage(p.stats, a.Potency, a.AttackType, false)
		res.Direct = damage.ApplyCritDh(base, p.stats, combined.Modifiers(a))
	}
	if a.Dot != nil {
		// auto-crit and auto-DH only cover the direct hit
		mods := damage.Modifiers{
			DmgMod:        combined.DmgMod,
			CritChanceAdd: combined.CritChanceAdd,
			DhChanceAdd:   combined.DhChanceAdd,
			ForceCrit:     combined.ForceCrit,
			ForceDh:       combined.ForceDh,
		}
		base := damage.BaseDamage(p.stats, a.Dot.Potency, a.AttackType, true)
		res.Dot = &damage.Dot{
			ID:         a.Dot.ID,
			TickDamage: damage.ApplyCritDh(base, p.stats, mods),
			Interval:   DotTickInterval,
			Duration:   a.Dot.Duration,
		}
	}
	return res
}
