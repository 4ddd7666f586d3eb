// Package buffs keeps the timeline of active buffs for one simulation run
// and runs buff hooks against ability uses.
package buffs

import (
	"time"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/spells"
)

// Entry is one activation window of a buff. Entries are never deleted:
// removal or refresh closes the window, so past instants can still be queried.
type Entry struct {
	Buff       *spells.Buff
	Start      time.Duration
	End        time.Duration
	Indefinite bool
}

// ActiveAt reports whether the window contains at.
func (e *Entry) ActiveAt(at time.Duration) bool {
	if at < e.Start {
		return false
	}
	return e.Indefinite || at < e.End
}

// Remaining returns the time left in the window at at, zero for indefinite windows.
func (e *Entry) Remaining(at time.Duration) time.Duration {
	if e.Indefinite || !e.ActiveAt(at) {
		return 0
	}
	return e.End - at
}

// Registry records buff windows in activation order.
type Registry struct {
	entries []*Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Activate starts b at at. An active buff with the same name is replaced rather than stacked:
// its window is closed and the new window becomes the latest activation.
func (r *Registry) Activate(b *spells.Buff, at time.Duration) *Entry {
	r.close(b.Name, at)
	e := &Entry{Buff: b, Start: at, Indefinite: b.Indefinite()}
	if !e.Indefinite {
		e.End = at + b.Duration
	}
	r.entries = append(r.entries, e)
	return e
}

// Remove ends b at at. It reports whether b was active.
func (r *Registry) Remove(b *spells.Buff, at time.Duration) bool {
	return r.close(b.Name, at)
}

func (r *Registry) close(name string, at time.Duration) bool {
	closed := false
	for _, e := range r.entries {
		if e.Buff.Name != name || !e.ActiveAt(at) {
			continue
		}
		e.Indefinite = false
		e.End = at
		closed = true
	}
	return closed
}

// ActiveAt returns the buffs active at at, in activation order.
func (r *Registry) ActiveAt(at time.Duration) []*spells.Buff {
	var out []*spells.Buff
	for _, e := range r.entries {
		if e.ActiveAt(at) {
			out = append(out, e.Buff)
		}
	}
	return out
}

// EffectiveAt returns the buffs active at at that apply to a.
func (r *Registry) EffectiveAt(at time.Duration, a *spells.Ability) []*spells.Buff {
	var out []*spells.Buff
	for _, b := range r.ActiveAt(at) {
		if b.Applies(a) {
			out = append(out, b)
		}
	}
	return out
}

// Entry returns the active window of the named buff at at.
func (r *Registry) Entry(name string, at time.Duration) (*Entry, bool) {
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.Buff.Name == name && e.ActiveAt(at) {
			return e, true
		}
	}
	return nil, false
}

// IsActive reports whether the named buff is active at at.
func (r *Registry) IsActive(name string, at time.Duration) bool {
	_, ok := r.Entry(name, at)
	return ok
}

// Remaining returns the time left on the named buff at at.
func (r *Registry) Remaining(name string, at time.Duration) time.Duration {
	e, ok := r.Entry(name, at)
	if !ok {
		return 0
	}
	return e.Remaining(at)
}

// Uptime sums how long the named buff was active between from and to.
func (r *Registry) Uptime(name string, from, to time.Duration) time.Duration {
	var total time.Duration
	for _, e := range r.entries {
		if e.Buff.Name != name {
			continue
		}
		start := max(e.Start, from)
		end := to
		if !e.Indefinite && e.End < end {
			end = e.End
		}
		if end > start {
			total += end - start
		}
	}
	return total
}

// Names returns every buff name seen, in first-activation order.
func (r *Registry) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range r.entries {
		if !seen[e.Buff.Name] {
			seen[e.Buff.Name] = true
			out = append(out, e.Buff.Name)
		}
	}
	return out
}

// Shift moves every window by delta.
func (r *Registry) Shift(delta time.Duration) {
	for _, e := range r.entries {
		e.Start += delta
		if !e.Indefinite {
			e.End += delta
		}
	}
}
