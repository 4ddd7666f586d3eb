package engine

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/buffs"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/character"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/cooldown"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/effects"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/spells"
)

const (
	StandardAnimationLock    = 600 * time.Millisecond
	CasterTax                = 100 * time.Millisecond
	StandardApplicationDelay = 600 * time.Millisecond
	// CastSnapshotLead is how long before the end of a cast its damage snapshots.
	CastSnapshotLead = 500 * time.Millisecond
	DotTickInterval  = 3 * time.Second
)

const unbounded = time.Duration(math.MaxInt64)

// CycleMode selects how cycle boundaries are placed.
type CycleMode string

const (
	// AlignAbsolute puts every boundary on a multiple of the period from time 0.
	AlignAbsolute CycleMode = "align-absolute"
	// AlignToFirst uses the end of the first cycle as the phase reference.
	AlignToFirst CycleMode = "align-to-first"
	// FullDuration makes every cycle one full period from its own start.
	FullDuration CycleMode = "full-duration"
)

// ParseCycleMode validates a mode name. The empty string selects AlignAbsolute.
func ParseCycleMode(s string) (CycleMode, error) {
	switch CycleMode(s) {
	case "":
		return AlignAbsolute, nil
	case AlignAbsolute, AlignToFirst, FullDuration:
		return CycleMode(s), nil
	default:
		return "", fmt.Errorf("unknown cycle mode %q", s)
	}
}

// Settings configures one processor run.
type Settings struct {
	Stats        character.Stats
	TotalTime    time.Duration
	CycleTime    time.Duration
	CycleMode    CycleMode
	CooldownMode cooldown.Mode
	UseAutos     bool
	AutoAttack   *spells.Ability // nil uses DefaultAutoAttack

	// PartyBuffs are activated at PartyBuffOffset and then every buff cooldown.
	PartyBuffs      []*spells.Buff
	PartyBuffOffset time.Duration

	Logger    *slog.Logger
	CombatLog io.Writer
}

// UseResult reports whether an ability use happened and whether it fit in the run.
type UseResult int

const (
	UseNone UseResult = iota
	// UsePartial means the ability started before the end but its GCD or lock runs past it.
	UsePartial
	UseFull
)

func (r UseResult) String() string {
	switch r {
	case UseNone:
		return "none"
	case UsePartial:
		return "partial"
	default:
		return "full"
	}
}

type cycleState struct {
	index int
	start time.Duration
}

// Processor drives one rotation over logical time. It is not safe for concurrent use.
type Processor struct {
	settings Settings
	stats    character.Stats
	logger   *slog.Logger

	currentTime time.Duration
	gcd         effects.Timer
	lock        effects.Timer
	castStart   time.Duration
	castEnd     time.Duration

	cooldowns *cooldown.Tracker
	buffs     *buffs.Registry
	hooks     *buffs.Runner
	events    eventQueue
	combos    map[string]*spells.Ability

	activeDots  map[string]*dotInstance
	dotByRecord map[*UsedAbility]*dotInstance

	records []Record
	cycles  []Cycle
	cycle   *cycleState

	alignRef    time.Duration
	alignRefSet bool

	combatStarted bool
	autoAttack    *spells.Ability
	autosRunning  bool
	autoNext      time.Duration

	logLines []logLine
	err      error
}

// NewProcessor validates the settings and returns a processor at time 0, before combat.
func NewProcessor(settings Settings) (*Processor, error) {
	if settings.TotalTime <= 0 {
		return nil, fmt.Errorf("total time must be positive, got %v", settings.TotalTime)
	}
	if settings.CycleTime < 0 {
		return nil, fmt.Errorf("cycle time must not be negative, got %v", settings.CycleTime)
	}
	if settings.CycleMode == "" {
		settings.CycleMode = AlignAbsolute
	}
	if _, err := ParseCycleMode(string(settings.CycleMode)); err != nil {
		return nil, err
	}
	if _, err := cooldown.ParseMode(string(settings.CooldownMode)); err != nil {
		return nil, err
	}
	for _, b := range settings.PartyBuffs {
		if err := spells.ValidateBuff(b); err != nil {
			return nil, err
		}
	}
	auto := settings.AutoAttack
	if auto == nil {
		auto = DefaultAutoAttack
	}
	if err := spells.ValidateAbility(auto); err != nil {
		return nil, err
	}
	logger := settings.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	p := &Processor{
		settings:    settings,
		stats:       settings.Stats,
		logger:      logger,
		buffs:       buffs.NewRegistry(),
		combos:      make(map[string]*spells.Ability),
		activeDots:  make(map[string]*dotInstance),
		dotByRecord: make(map[*UsedAbility]*dotInstance),
		autoAttack:  auto,
	}
	p.cooldowns = cooldown.New(p.CurrentTime, settings.CooldownMode, logger)
	p.hooks = &buffs.Runner{
		Registry: p.buffs,
		OnRemoved: func(b *spells.Buff, at time.Duration) {
			p.logAt(at, "BUFF_REMOVE %s", b.Name)
		},
	}
	return p, nil
}

// Settings returns the settings the processor was built with.
func (p *Processor) Settings() Settings {
	return p.settings
}

// Stats returns the stat block.
func (p *Processor) Stats() character.Stats {
	return p.stats
}

// CurrentTime is the processor clock. Negative before the pull.
func (p *Processor) CurrentTime() time.Duration {
	return p.currentTime
}

// NextGCDTime is when the GCD channel is next free.
func (p *Processor) NextGCDTime() time.Duration {
	return max(p.currentTime, p.gcd.ReadyAt())
}

// NextActionTime is when the action lock is next free.
func (p *Processor) NextActionTime() time.Duration {
	return max(p.currentTime, p.lock.ReadyAt())
}

// CombatStarted reports whether a damaging ability has landed yet.
func (p *Processor) CombatStarted() bool {
	return p.combatStarted
}

// TotalTime is the configured fight length.
func (p *Processor) TotalTime() time.Duration {
	return p.settings.TotalTime
}

// RemainingTime is the fight time left. Before the pull the whole fight remains.
func (p *Processor) RemainingTime() time.Duration {
	if !p.combatStarted {
		return p.settings.TotalTime
	}
	return max(0, p.settings.TotalTime-p.currentTime)
}

// RemainingGCDTime is the fight time left measured from the next GCD start.
func (p *Processor) RemainingGCDTime() time.Duration {
	if !p.combatStarted {
		return p.settings.TotalTime
	}
	return max(0, p.settings.TotalTime-p.NextGCDTime())
}

// Err returns the error that stopped the run, if any.
func (p *Processor) Err() error {
	return p.err
}

func (p *Processor) fail(err error) {
	if p.err != nil {
		return
	}
	p.err = err
	p.logger.Error("rotation stopped", "at", p.currentTime.Seconds(), "err", err)
}

// CooldownStatus reports the cooldown state of a at the current time.
func (p *Processor) CooldownStatus(a *spells.Ability) cooldown.Status {
	return p.cooldowns.StatusOf(a)
}

// CooldownStatusAt reports the cooldown state of a at t, usually NextGCDTime.
func (p *Processor) CooldownStatusAt(a *spells.Ability, t time.Duration) cooldown.Status {
	return p.cooldowns.StatusOfAt(a, t)
}

// IsBuffActive reports whether the named buff is active now.
func (p *Processor) IsBuffActive(name string) bool {
	return p.buffs.IsActive(name, p.currentTime)
}

// BuffRemaining returns the time left on the named buff.
func (p *Processor) BuffRemaining(name string) time.Duration {
	return p.buffs.Remaining(name, p.currentTime)
}

// ActiveBuff returns the active value of the named buff, which carries its stacks.
func (p *Processor) ActiveBuff(name string) (*spells.Buff, bool) {
	e, ok := p.buffs.Entry(name, p.currentTime)
	if !ok {
		return nil, false
	}
	return e.Buff, true
}

// ActiveBuffs returns the buffs active now in activation order.
func (p *Processor) ActiveBuffs() []*spells.Buff {
	return p.buffs.ActiveAt(p.currentTime)
}

// ActivateBuff starts b now.
func (p *Processor) ActivateBuff(b *spells.Buff) {
	if err := spells.ValidateBuff(b); err != nil {
		panic(err)
	}
	p.activateBuff(b, p.currentTime)
}

// RemoveBuff ends b now.
func (p *Processor) RemoveBuff(b *spells.Buff) {
	if p.buffs.Remove(b, p.currentTime) {
		p.logAt(p.currentTime, "BUFF_REMOVE %s", b.Name)
	}
}

func (p *Processor) activateBuff(b *spells.Buff, at time.Duration) {
	p.buffs.Activate(b, at)
	if b.Indefinite() {
		p.logAt(at, "BUFF_GAIN %s (indefinite)", b.Name)
		return
	}
	p.logAt(at, "BUFF_GAIN %s (%.1fs)", b.Name, b.Duration.Seconds())
}

// AddSpecialRow appends a free-form annotation to the record log.
func (p *Processor) AddSpecialRow(label string) {
	p.records = append(p.records, &Marker{Kind: MarkerSpecial, At: p.currentTime, Label: label})
	p.logAt(p.currentTime, "SPECIAL %s", label)
}

// AdvanceTo idles until t. After the pull the clock never passes the end of the fight.
func (p *Processor) AdvanceTo(t time.Duration) {
	if p.combatStarted && t > p.settings.TotalTime {
		t = p.settings.TotalTime
	}
	if t <= p.currentTime {
		return
	}
	p.advanceTo(t)
}

// advanceTo moves the clock, running party-buff events and auto-attacks on the way.
func (p *Processor) advanceTo(t time.Duration) {
	if t < p.currentTime {
		panic(fmt.Sprintf("engine: time going backwards (%v -> %v)", p.currentTime, t))
	}
	for {
		evAt, evOK := p.events.peek()
		evOK = evOK && evAt <= t
		autoOK := p.autoDue(t)
		if !evOK && !autoOK {
			break
		}
		if evOK && (!autoOK || evAt <= p.autoNext) {
			p.currentTime = max(p.currentTime, evAt)
			p.runEventsThrough(evAt)
			continue
		}
		if p.autoNext >= p.castStart && p.autoNext < p.castEnd {
			p.autoNext = p.castEnd
			continue
		}
		p.currentTime = max(p.currentTime, p.autoNext)
		p.resolveAuto(p.autoNext)
	}
	p.currentTime = t
}

// startCombat shifts the whole timeline so that the first damaging application lands at 0.
func (p *Processor) startCombat(application time.Duration) {
	delta := -application
	p.timeShift(delta)
	p.combatStarted = true
	p.logAt(0, "COMBAT_START shift=%.2fs", delta.Seconds())
	p.logger.Debug("combat started", "shift", delta.Seconds())

	if p.settings.UseAutos {
		p.autosRunning = true
		p.autoNext = 0
	}
	p.schedulePartyBuffs()
}

func (p *Processor) schedulePartyBuffs() {
	for _, b := range p.settings.PartyBuffs {
		if b.Job != "" && strings.EqualFold(b.Job, p.stats.Job) {
			// the job's own raid buff comes from its rotation
			continue
		}
		buff := b
		for at := p.settings.PartyBuffOffset; at < p.settings.TotalTime; at += buff.Cooldown {
			at := at
			p.scheduleEvent(at, func() { p.activateBuff(buff, at) })
		}
	}
}

func (p *Processor) timeShift(delta time.Duration) {
	p.currentTime += delta
	p.gcd.Shift(delta)
	p.lock.Shift(delta)
	p.castStart += delta
	p.castEnd += delta
	p.cooldowns.TimeShift(delta)
	p.buffs.Shift(delta)
	p.events.shift(delta)
	for _, r := range p.records {
		switch rec := r.(type) {
		case *UsedAbility:
			rec.UsedAt += delta
		case *Marker:
			rec.At += delta
		}
	}
	for _, d := range p.dotByRecord {
		d.start += delta
		d.end += delta
	}
	for i := range p.cycles {
		p.cycles[i].Start = max(p.cycles[i].Start+delta, 0)
		p.cycles[i].End = max(p.cycles[i].End+delta, 0)
	}
	if p.cycle != nil {
		p.cycle.start += delta
	}
	for i := range p.logLines {
		p.logLines[i].at += delta
	}
}
