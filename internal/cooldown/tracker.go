// Package cooldown tracks ability recharges.
//
// Each ability with a cooldown is represented by a single "capped-at" timestamp:
// the instant at which every charge will be available again. Charges are derived
// from it on demand, so shifting the timeline or spending several charges in a
// burst needs no special cases.
package cooldown

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/spells"
)

// Mode selects what happens when an ability is used while not ready.
type Mode string

const (
	ModeNone   Mode = "none"
	ModeWarn   Mode = "warn"
	ModeReject Mode = "reject"
	// ModeDelay means the caller waits for the cooldown before using the ability.
	// The tracker never waits itself; a violation in this mode is a bug in the caller.
	ModeDelay Mode = "delay"
)

// ParseMode validates a mode name. The empty string selects ModeWarn.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeWarn, nil
	case ModeNone, ModeWarn, ModeReject, ModeDelay:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown cooldown mode %q", s)
	}
}

// ErrNotReady is matched by every ViolationError.
var ErrNotReady = errors.New("ability not ready")

// ViolationError reports a use while no charge was available.
type ViolationError struct {
	Ability string
	At      time.Duration
	ReadyAt time.Duration
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s used at %.2fs but not ready until %.2fs", e.Ability, e.At.Seconds(), e.ReadyAt.Seconds())
}

func (e *ViolationError) Is(target error) bool {
	return target == ErrNotReady
}

// Status describes an ability's cooldown at one instant.
type Status struct {
	ReadyToUse     bool
	ReadyAt        time.Duration
	Capped         bool
	CappedAt       time.Duration
	CurrentCharges int
}

type entry struct {
	cappedAt time.Duration
	cooldown time.Duration
	charges  int
}

// Tracker holds the recharge state of every ability used so far.
// It is owned by a single processor and is not safe for concurrent use.
type Tracker struct {
	clock  func() time.Duration
	mode   Mode
	logger *slog.Logger
	state  map[string]*entry
}

// New returns a tracker reading the current time from clock.
func New(clock func() time.Duration, mode Mode, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if mode == "" {
		mode = ModeWarn
	}
	return &Tracker{
		clock:  clock,
		mode:   mode,
		logger: logger,
		state:  make(map[string]*entry),
	}
}

// Mode returns the violation policy.
func (t *Tracker) Mode() Mode {
	return t.mode
}

// UseAbility records a use of a at the current time with its own cooldown.
func (t *Tracker) UseAbility(a *spells.Ability) error {
	if a.Cooldown == nil {
		return nil
	}
	return t.UseAbilityWithTime(a, a.Cooldown.Time)
}

// UseAbilityWithTime records a use with an overridden cooldown duration,
// e.g. one already reduced by a speed stat.
func (t *Tracker) UseAbilityWithTime(a *spells.Ability, cd time.Duration) error {
	if a.Cooldown == nil {
		return nil
	}
	if cd <= 0 {
		panic(fmt.Sprintf("cooldown: non-positive cooldown %v for %s", cd, a.Name))
	}
	now := t.clock()
	status := t.StatusOfAt(a, now)
	if !status.ReadyToUse {
		switch t.mode {
		case ModeNone:
		case ModeWarn:
			t.logger.Warn("ability used while on cooldown",
				"ability", a.Name,
				"at", now.Seconds(),
				"ready_at", status.ReadyAt.Seconds())
		case ModeReject:
			return &ViolationError{Ability: a.Name, At: now, ReadyAt: status.ReadyAt}
		case ModeDelay:
			panic(fmt.Sprintf("cooldown: %s used at %.2fs before ready at %.2fs; delay must be handled by the caller",
				a.Name, now.Seconds(), status.ReadyAt.Seconds()))
		}
	}
	e, ok := t.state[a.Key()]
	if !ok {
		e = &entry{cappedAt: now}
		t.state[a.Key()] = e
	}
	base := e.cappedAt
	if base < now {
		base = now
	}
	e.cappedAt = base + cd
	e.cooldown = cd
	e.charges = a.Cooldown.MaxCharges()
	return nil
}

// StatusOf is StatusOfAt at the current time.
func (t *Tracker) StatusOf(a *spells.Ability) Status {
	return t.StatusOfAt(a, t.clock())
}

// StatusOfAt derives the charge state of a at time at.
func (t *Tracker) StatusOfAt(a *spells.Ability, at time.Duration) Status {
	if a.Cooldown == nil {
		return Status{ReadyToUse: true, ReadyAt: at, Capped: true, CappedAt: at, CurrentCharges: 1}
	}
	maxCharges := a.Cooldown.MaxCharges()
	cd := a.Cooldown.Time
	e, ok := t.state[a.Key()]
	if ok {
		cd = e.cooldown
	}
	if !ok || e.cappedAt <= at {
		return Status{ReadyToUse: true, ReadyAt: at, Capped: true, CappedAt: at, CurrentCharges: maxCharges}
	}
	remaining := e.cappedAt - at
	missing := int((remaining + cd - 1) / cd)
	charges := maxCharges - missing
	if charges < 0 {
		charges = 0
	}
	status := Status{
		CappedAt:       e.cappedAt,
		CurrentCharges: charges,
		ReadyToUse:     charges >= 1,
		ReadyAt:        at,
	}
	if !status.ReadyToUse {
		status.ReadyAt = e.cappedAt - time.Duration(maxCharges-1)*cd
	}
	return status
}

// TimeShift moves every capped-at timestamp by delta.
func (t *Tracker) TimeShift(delta time.Duration) {
	for _, e := range t.state {
		e.cappedAt += delta
	}
}
