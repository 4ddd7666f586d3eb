package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/apl"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/character"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/config"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/jobs"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/sim"
)

// workspace is a loaded config with its job module and optional script rotation.
type workspace struct {
	cfg      *config.Config
	job      *sim.Job
	stats    character.Stats
	settings sim.Settings
}

type loadOptions struct {
	rotation   string // script under rotations/; empty uses the config value
	scriptOnly bool   // drop the built-in rotations
	combatLog  bool
}

func loadWorkspace(opts *RootOptions, lo loadOptions) (*workspace, error) {
	cfg, err := config.LoadConfig(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", opts.ConfigDir, err)
	}
	job, err := jobs.Lookup(cfg.Simulation.Job)
	if err != nil {
		return nil, err
	}

	rotation := lo.rotation
	if rotation == "" {
		rotation = cfg.Simulation.Rotation
	}
	switch {
	case rotation != "":
		rot, err := compileScript(job, cfg.RotationDir(), rotation)
		if err != nil {
			return nil, err
		}
		script := sim.ScriptRotation(rot, job.Catalog())
		if lo.scriptOnly {
			job = job.WithRotations(script)
		} else {
			job = job.WithRotations(append(job.Rotations[:len(job.Rotations):len(job.Rotations)], script)...)
		}
	case lo.scriptOnly:
		return nil, fmt.Errorf("--script-only needs a rotation script")
	}

	settings := cfg.Simulation.Settings()
	settings.Logger = opts.logger()
	settings.CombatLog = lo.combatLog
	return &workspace{
		cfg:      cfg,
		job:      job,
		stats:    cfg.Stats.CharacterStats(),
		settings: settings,
	}, nil
}

// compileScript loads a rotation script and checks it against the job's abilities.
func compileScript(job *sim.Job, dir, rel string) (*apl.CompiledRotation, error) {
	file, err := apl.LoadRotation(dir, rel)
	if err != nil {
		return nil, fmt.Errorf("load rotation %s: %w", filepath.Join(dir, rel), err)
	}
	if file.Job != "" && !strings.EqualFold(file.Job, job.Name) {
		return nil, fmt.Errorf("rotation '%s' is for %s, not %s", file.Name, file.Job, job.Name)
	}
	rot, err := apl.Compile(file, job.Catalog().Names())
	if err != nil {
		return nil, fmt.Errorf("compile rotation %s: %w", rel, err)
	}
	return rot, nil
}
