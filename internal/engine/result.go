package engine

import (
	"sort"
	"time"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/damage"
)

// AbilityStats aggregates the uses of one ability.
type AbilityStats struct {
	Name   string
	Uses   int
	Direct damage.Value
	Dot    damage.Value
	Total  damage.Value
	Share  float64 // fraction of total expected damage
}

// Result is the finalized outcome of a processor run.
type Result struct {
	TotalTime   time.Duration
	Records     []Record
	Cycles      []Cycle
	TotalDamage damage.Value
	DPS         float64
	Breakdown   []*AbilityStats
	BuffUptime  map[string]time.Duration
	Err         error
}

// Abilities returns the finalized ability rows in use order.
func (r *Result) Abilities() []*FinalizedAbility {
	var out []*FinalizedAbility
	for _, rec := range r.Records {
		if f, ok := rec.(*FinalizedAbility); ok {
			out = append(out, f)
		}
	}
	return out
}

// Finalize resolves DoT outcomes, aggregates damage and writes the combat log.
// The processor must not be used afterwards.
func (p *Processor) Finalize() *Result {
	res := &Result{
		TotalTime:  p.settings.TotalTime,
		Cycles:     append([]Cycle(nil), p.cycles...),
		BuffUptime: make(map[string]time.Duration),
		Err:        p.err,
	}
	byName := make(map[string]*AbilityStats)
	var order []string
	var parts []damage.Value
	for _, rec := range p.records {
		u, ok := rec.(*UsedAbility)
		if !ok {
			res.Records = append(res.Records, rec)
			continue
		}
		f := p.finalizeUse(u)
		res.Records = append(res.Records, f)
		parts = append(parts, f.TotalDamage)

		st, ok := byName[u.Ability.Name]
		if !ok {
			st = &AbilityStats{Name: u.Ability.Name}
			byName[u.Ability.Name] = st
			order = append(order, u.Ability.Name)
		}
		st.Uses++
		st.Direct = st.Direct.Plus(f.DirectDamage)
		st.Dot = st.Dot.Plus(f.DotDamage)
		st.Total = st.Total.Plus(f.TotalDamage)
	}
	res.TotalDamage = damage.Sum(parts...)
	if p.settings.TotalTime > 0 {
		res.DPS = res.TotalDamage.Expected / p.settings.TotalTime.Seconds()
	}
	for _, name := range order {
		st := byName[name]
		if res.TotalDamage.Expected > 0 {
			st.Share = st.Total.Expected / res.TotalDamage.Expected
		}
		res.Breakdown = append(res.Breakdown, st)
	}
	sort.SliceStable(res.Breakdown, func(i, j int) bool {
		return res.Breakdown[i].Total.Expected > res.Breakdown[j].Total.Expected
	})
	for _, name := range p.buffs.Names() {
		res.BuffUptime[name] = p.buffs.Uptime(name, 0, p.settings.TotalTime)
	}
	p.flushLog()
	return res
}

func (p *Processor) finalizeUse(u *UsedAbility) *FinalizedAbility {
	f := &FinalizedAbility{
		UsedAbility:  u,
		DirectDamage: u.Damage.Direct,
	}
	if d, ok := p.dotByRecord[u]; ok {
		f.DotTicks = p.dotTicks(d)
		f.DotDuration = time.Duration(f.DotTicks * float64(d.dot.Interval))
		f.DotDamage = d.dot.Total(f.DotTicks)
	}
	f.TotalDamage = f.DirectDamage.Plus(f.DotDamage)
	return f
}
