package engine

import "time"

type scheduledEvent struct {
	executeAt time.Duration
	action    func()
}

type eventQueue []*scheduledEvent

func (eq *eventQueue) add(ev *scheduledEvent) {
	if ev == nil {
		return
	}
	inserted := false
	for i, existing := range *eq {
		if ev.executeAt < existing.executeAt {
			*eq = append(*eq, nil)
			copy((*eq)[i+1:], (*eq)[i:])
			(*eq)[i] = ev
			inserted = true
			break
		}
	}
	if !inserted {
		*eq = append(*eq, ev)
	}
}

func (eq *eventQueue) popReady(now time.Duration) *scheduledEvent {
	if len(*eq) == 0 {
		return nil
	}
	ev := (*eq)[0]
	if ev.executeAt > now {
		return nil
	}
	*eq = (*eq)[1:]
	return ev
}

// peek returns the time of the next event.
func (eq *eventQueue) peek() (time.Duration, bool) {
	if len(*eq) == 0 {
		return 0, false
	}
	return (*eq)[0].executeAt, true
}

func (eq *eventQueue) shift(delta time.Duration) {
	for _, ev := range *eq {
		ev.executeAt += delta
	}
}

func (p *Processor) scheduleEvent(at time.Duration, action func()) {
	if action == nil {
		return
	}
	p.events.add(&scheduledEvent{executeAt: at, action: action})
}

// runEventsThrough runs every event due at or before now. Events carry their own
// timestamps, so this does not move the processor clock.
func (p *Processor) runEventsThrough(now time.Duration) {
	for {
		ev := p.events.popReady(now)
		if ev == nil {
			break
		}
		ev.action()
	}
}
