package engine

import (
	"fmt"
	"time"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/spells"
)

// CycleContext is handed to the function run by OneCycle.
type CycleContext struct {
	p     *Processor
	index int
}

// Index is the zero-based cycle number.
func (c *CycleContext) Index() int {
	return c.index
}

// StartedAt is the cycle start, already shifted if combat started during the cycle.
func (c *CycleContext) StartedAt() time.Duration {
	return c.p.cycle.start
}

// NominalEnd is where the cycle would end without drift.
func (c *CycleContext) NominalEnd() time.Duration {
	return c.p.nominalCycleEnd(c.p.cycle.start)
}

// RemainingTime is the time left before the nominal cycle end.
func (c *CycleContext) RemainingTime() time.Duration {
	end := c.NominalEnd()
	if end == unbounded {
		return unbounded
	}
	return max(0, end-c.p.currentTime)
}

// RemainingGCDTime is the time left before the nominal cycle end, measured from the next GCD.
func (c *CycleContext) RemainingGCDTime() time.Duration {
	end := c.NominalEnd()
	if end == unbounded {
		return unbounded
	}
	return max(0, end-c.p.NextGCDTime())
}

// Use uses a through the processor.
func (c *CycleContext) Use(a *spells.Ability) UseResult {
	return c.p.Use(a)
}

// UseOgcd weaves a through the processor.
func (c *CycleContext) UseOgcd(a *spells.Ability) UseResult {
	return c.p.UseOgcd(a)
}

// UseUntil uses a until t.
func (c *CycleContext) UseUntil(a *spells.Ability, t time.Duration) {
	c.p.UseUntil(a, t)
}

// UseGcds uses a while the next GCD still starts inside this cycle.
func (c *CycleContext) UseGcds(a *spells.Ability) {
	c.p.UseWhile(a, func() bool { return c.RemainingGCDTime() > 0 })
}

// Processor returns the underlying processor.
func (c *CycleContext) Processor() *Processor {
	return c.p
}

func floorDiv(a, b time.Duration) time.Duration {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// nominalCycleEnd places the boundary of a cycle that started at start.
// Before combat starts there is no fixed axis yet, so the cycle is unbounded.
func (p *Processor) nominalCycleEnd(start time.Duration) time.Duration {
	if !p.combatStarted {
		return unbounded
	}
	period := p.settings.CycleTime
	if period <= 0 {
		return p.settings.TotalTime
	}
	var end time.Duration
	switch p.settings.CycleMode {
	case AlignToFirst:
		if p.alignRefSet {
			end = p.alignRef + (floorDiv(start-p.alignRef, period)+1)*period
		} else {
			end = max(start, 0) + period
		}
	case FullDuration:
		end = start + period
	default:
		k := max(floorDiv(start, period)+1, 1)
		end = k * period
	}
	return min(end, p.settings.TotalTime)
}

// OneCycle runs fn as one cycle and closes it at the next boundary. The boundary
// is deferred past any in-flight ability and never lies past the end of the fight.
func (p *Processor) OneCycle(fn func(c *CycleContext)) {
	if p.cycle != nil {
		panic("engine: OneCycle called inside a cycle")
	}
	index := len(p.cycles)
	p.cycle = &cycleState{index: index, start: p.currentTime}
	label := fmt.Sprintf("Cycle %d", index+1)
	p.records = append(p.records, &Marker{Kind: MarkerCycleStart, At: p.currentTime, Label: label})
	p.logAt(p.currentTime, "CYCLE_START %d", index+1)

	fn(&CycleContext{p: p, index: index})

	start := p.cycle.start
	end := p.nominalCycleEnd(start)
	if end == unbounded {
		end = p.currentTime
	}
	end = max(end, p.lock.ReadyAt(), p.currentTime)
	if p.combatStarted {
		end = min(end, p.settings.TotalTime)
	}
	if end > p.currentTime {
		p.advanceTo(end)
	}
	if p.settings.CycleMode == AlignToFirst && !p.alignRefSet && p.combatStarted {
		p.alignRef = end
		p.alignRefSet = true
	}
	if p.combatStarted {
		// pre-pull time is not part of the fight
		start = max(start, 0)
	}
	p.cycles = append(p.cycles, Cycle{Index: index, Start: start, End: end})
	p.records = append(p.records, &Marker{Kind: MarkerCycleEnd, At: end, Label: label})
	p.logAt(end, "CYCLE_END %d (%.2fs)", index+1, (end - start).Seconds())
	p.cycle = nil
}

// RemainingCycles runs fn in consecutive cycles until the fight is over or the
// processor has failed.
func (p *Processor) RemainingCycles(fn func(c *CycleContext)) {
	for p.err == nil && p.RemainingGCDTime() > 0 {
		p.OneCycle(fn)
		last := p.cycles[len(p.cycles)-1]
		if last.End <= last.Start && p.RemainingGCDTime() > 0 {
			// nothing moved the clock; stop rather than spin
			if p.combatStarted {
				p.AdvanceTo(p.settings.TotalTime)
			}
			return
		}
	}
}
