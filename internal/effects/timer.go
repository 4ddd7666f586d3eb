package effects

import "time"

// Timer tracks a ready-at timestamp. The processor uses one for the GCD channel
// and one for the action lock.
type Timer struct {
	readyAt time.Duration
}

// Reset makes the timer ready after d has elapsed from now.
func (t *Timer) Reset(now time.Duration, d time.Duration) {
	if d < 0 {
		panic("effects: negative timer duration")
	}
	t.readyAt = now + d
}

// ReadyAt returns the current ready timestamp.
func (t *Timer) ReadyAt() time.Duration {
	return t.readyAt
}

// Shift moves the ready timestamp by delta.
func (t *Timer) Shift(delta time.Duration) {
	t.readyAt += delta
}
