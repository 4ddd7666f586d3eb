package engine

import (
	"strconv"
	"time"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/damage"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/spells"
)

type dotInstance struct {
	key    string
	record *UsedAbility
	dot    damage.Dot
	start  time.Duration
	end    time.Duration
}

func dotKey(a *spells.Ability) string {
	if a.Dot != nil && a.Dot.ID != 0 {
		return "dot:" + strconv.Itoa(a.Dot.ID)
	}
	return a.Key()
}

// applyDot starts the DoT of u at its application time. An earlier instance of the
// same DoT is cut off at that instant.
func (p *Processor) applyDot(u *UsedAbility) {
	if u.Damage.Dot == nil {
		return
	}
	at := u.ApplicationTime()
	key := dotKey(u.Ability)
	if prev, ok := p.activeDots[key]; ok && prev.end > at {
		prev.end = max(prev.start, at)
		p.logAt(at, "DOT_TRUNCATE %s ticks=%.2f", prev.record.Ability.Name, p.dotTicks(prev))
	}
	inst := &dotInstance{
		key:    key,
		record: u,
		dot:    *u.Damage.Dot,
		start:  at,
		end:    at + u.Damage.Dot.Duration,
	}
	p.activeDots[key] = inst
	p.dotByRecord[u] = inst
	p.logAt(at, "DOT_APPLY %s tick=%.2f duration=%.1fs", u.Ability.Name,
		inst.dot.TickDamage.Expected, inst.dot.Duration.Seconds())
}

// dotTicks counts ticks pro-rata over the instance window, never past the end of the fight.
func (p *Processor) dotTicks(d *dotInstance) float64 {
	end := d.end
	if p.combatStarted && end > p.settings.TotalTime {
		end = p.settings.TotalTime
	}
	if end <= d.start || d.dot.Interval <= 0 {
		return 0
	}
	return float64(end-d.start) / float64(d.dot.Interval)
}

// DotRemaining returns how long the DoT applied by a still runs. Zero when it is not ticking.
func (p *Processor) DotRemaining(a *spells.Ability) time.Duration {
	d, ok := p.activeDots[dotKey(a)]
	if !ok {
		return 0
	}
	if d.start > p.currentTime || d.end <= p.currentTime {
		return 0
	}
	return d.end - p.currentTime
}
