// Package sim runs a job's candidate rotations against a stat block and
// collects the results into a report.
package sim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/apl"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/character"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/cooldown"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/engine"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/jobs/party"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/spells"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/worker"
)

var (
	// ErrRejected is returned when a simulation does not finish before its deadline.
	ErrRejected = errors.New("simulation rejected")
	// ErrNoRotations is returned for a job without candidate rotations.
	ErrNoRotations = errors.New("job has no rotations")
)

// Rotation is one candidate script for a job.
type Rotation interface {
	Name() string
	Run(p *engine.Processor) error
}

// RotationFunc adapts a plain script function.
type RotationFunc func(p *engine.Processor)

type namedRotation struct {
	name string
	fn   RotationFunc
}

func (r namedRotation) Name() string { return r.name }

func (r namedRotation) Run(p *engine.Processor) error {
	r.fn(p)
	return p.Err()
}

// NewRotation names a script function.
func NewRotation(name string, fn RotationFunc) Rotation {
	return namedRotation{name: name, fn: fn}
}

type scriptRotation struct {
	rot     *apl.CompiledRotation
	catalog *engine.Catalog
}

func (r scriptRotation) Name() string { return r.rot.Name }

func (r scriptRotation) Run(p *engine.Processor) error {
	return engine.RunRotation(p, r.rot, r.catalog)
}

// ScriptRotation wraps a compiled YAML rotation.
func ScriptRotation(rot *apl.CompiledRotation, catalog *engine.Catalog) Rotation {
	return scriptRotation{rot: rot, catalog: catalog}
}

// Job is everything the driver needs to simulate one job.
type Job struct {
	Name       string
	Abilities  []*spells.Ability
	AutoAttack *spells.Ability // nil uses the engine default
	Rotations  []Rotation
}

// Catalog indexes the job's abilities for rotation scripts.
func (j *Job) Catalog() *engine.Catalog {
	return engine.NewCatalog(j.Abilities, nil)
}

// WithRotations returns a copy of the job with rots instead of its own rotations.
func (j *Job) WithRotations(rots ...Rotation) *Job {
	out := *j
	out.Rotations = rots
	return &out
}

// Rotation finds a rotation by name.
func (j *Job) Rotation(name string) (Rotation, bool) {
	for _, r := range j.Rotations {
		if r.Name() == name {
			return r, true
		}
	}
	return nil, false
}

// BuffSettings says which party buffs are present. Keys are party buff names in any spelling.
type BuffSettings struct {
	Enabled map[string]bool
}

// Settings configures a simulation.
type Settings struct {
	TotalTime       time.Duration
	CycleTime       time.Duration
	CycleMode       engine.CycleMode
	CooldownMode    cooldown.Mode
	UseAutos        bool
	Buffs           BuffSettings
	PartyBuffOffset time.Duration

	Concurrency int           // 0 = NumCPU
	Timeout     time.Duration // 0 = only the caller's context
	CombatLog   bool          // keep the per-run combat log in Run.Log
	Logger      *slog.Logger
}

// DefaultSettings is a six minute fight with two minute cycles and a full party.
func DefaultSettings() Settings {
	return Settings{
		TotalTime:    6 * time.Minute,
		CycleTime:    2 * time.Minute,
		CycleMode:    engine.AlignAbsolute,
		CooldownMode: cooldown.ModeReject,
		UseAutos:     true,
		Buffs:        BuffSettings{Enabled: party.All()},
	}
}

func (s Settings) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Run is the outcome of one rotation.
type Run struct {
	Rotation string
	DPS      float64
	Result   *engine.Result
	Log      string
	Err      error
}

// Failed reports whether the run did not complete.
func (r *Run) Failed() bool {
	return r.Err != nil || r.Result == nil
}

// Simulate runs every rotation of job in its own processor and reports the results.
// A rotation that panics or trips a cooldown rejection fails on its own; the
// simulation as a whole is rejected with ErrRejected if ctx or Settings.Timeout
// expires first.
func Simulate(ctx context.Context, job *Job, stats character.Stats, settings Settings) (*Report, error) {
	if job == nil || len(job.Rotations) == 0 {
		return nil, ErrNoRotations
	}
	if settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, settings.Timeout)
		defer cancel()
	}
	if stats.Job == "" {
		stats.Job = job.Name
	}
	logger := settings.logger()
	buffs := party.Enabled(settings.Buffs.Enabled)
	started := time.Now()

	pool := worker.NewPool[Rotation, *Run](settings.Concurrency)
	done := make(chan []worker.Result[*Run], 1)
	go func() {
		done <- pool.Process(ctx, job.Rotations, func(_ context.Context, r Rotation) (*Run, error) {
			return runRotation(job, stats, settings, buffs, r)
		})
	}()

	var results []worker.Result[*Run]
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrRejected, ctx.Err())
	case results = <-done:
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRejected, err)
	}

	report := &Report{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Job:       job.Name,
		TotalTime: settings.TotalTime,
	}
	for i, res := range results {
		run := res.Value
		if run == nil {
			run = &Run{Rotation: job.Rotations[i].Name()}
		}
		if res.Err != nil {
			run.Err = res.Err
		}
		if run.Failed() {
			logger.Warn("rotation failed", "job", job.Name, "rotation", run.Rotation, "err", run.Err)
		} else {
			logger.Debug("rotation finished", "job", job.Name, "rotation", run.Rotation, "dps", run.DPS)
		}
		report.Runs = append(report.Runs, run)
	}
	report.pickBest()
	logger.Info("simulation finished",
		"id", report.ID.String(),
		"job", job.Name,
		"rotations", len(report.Runs),
		"elapsed", time.Since(started))
	return report, nil
}

func engineSettings(job *Job, stats character.Stats, settings Settings, buffs []*spells.Buff) engine.Settings {
	return engine.Settings{
		Stats:           stats,
		TotalTime:       settings.TotalTime,
		CycleTime:       settings.CycleTime,
		CycleMode:       settings.CycleMode,
		CooldownMode:    settings.CooldownMode,
		UseAutos:        settings.UseAutos,
		AutoAttack:      job.AutoAttack,
		PartyBuffs:      buffs,
		PartyBuffOffset: settings.PartyBuffOffset,
		Logger:          settings.Logger,
	}
}

func runRotation(job *Job, stats character.Stats, settings Settings, buffs []*spells.Buff, r Rotation) (*Run, error) {
	es := engineSettings(job, stats, settings, buffs)
	var log bytes.Buffer
	if settings.CombatLog {
		es.CombatLog = &log
	}
	p, err := engine.NewProcessor(es)
	if err != nil {
		return nil, err
	}
	run := &Run{Rotation: r.Name()}
	runErr := r.Run(p)
	res := p.Finalize()
	run.Result = res
	run.DPS = res.DPS
	run.Log = log.String()
	run.Err = runErr
	if run.Err == nil {
		run.Err = res.Err
	}
	return run, nil
}
