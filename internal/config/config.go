package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/character"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/cooldown"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/engine"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/sim"
)

const (
	SimulationFile = "simulation.yaml"
	StatsFile      = "stats.yaml"
	RotationsDir   = "rotations"
)

// Simulation holds the run settings
type Simulation struct {
	Job      string `yaml:"job"`
	Rotation string `yaml:"rotation"` // optional script under rotations/, run next to the built-in rotations

	TotalSeconds  float64    `yaml:"total_seconds"`
	CycleSeconds  float64    `yaml:"cycle_seconds"`
	CycleMode     string     `yaml:"cycle_mode"`
	CooldownMode  string     `yaml:"cooldown_mode"`
	UseAutos      *bool      `yaml:"use_autos"`
	PartyBuffs    PartyBuffs `yaml:"party_buffs"`
	BuffOffsetSec float64    `yaml:"party_buff_offset_seconds"`

	Concurrency    int     `yaml:"concurrency"`
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
	Database       string  `yaml:"database"` // report archive; empty disables it
}

// StatBlock holds the finalized stats of the character
type StatBlock struct {
	Job   string `yaml:"job"`
	Level int    `yaml:"level"`

	MainStatMulti float64 `yaml:"main_stat_multi"`
	WdMulti       float64 `yaml:"wd_multi"`
	AutoMulti     float64 `yaml:"auto_multi"`
	DetMulti      float64 `yaml:"det_multi"`
	TraitMulti    float64 `yaml:"trait_multi"`
	DotMulti      float64 `yaml:"dot_multi"`

	CritChance float64 `yaml:"crit_chance"`
	CritMulti  float64 `yaml:"crit_multi"`
	DhChance   float64 `yaml:"dh_chance"`
	DhMulti    float64 `yaml:"dh_multi"`

	SpeedMulti         float64 `yaml:"speed_multi"`
	Haste              float64 `yaml:"haste"`
	WeaponDelaySeconds float64 `yaml:"weapon_delay_seconds"`
}

// Config holds all configuration
type Config struct {
	Dir        string
	Simulation Simulation
	Stats      StatBlock
}

// LoadConfig loads all YAML configuration files
func LoadConfig(configDir string) (*Config, error) {
	cfg := &Config{Dir: configDir}

	// Load simulation settings
	if err := loadFile(filepath.Join(configDir, SimulationFile), &cfg.Simulation); err != nil {
		return nil, err
	}

	// Load stat block
	if err := loadFile(filepath.Join(configDir, StatsFile), &cfg.Stats); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (cfg *Config) applyDefaults() {
	s := &cfg.Simulation
	defaults := sim.DefaultSettings()
	if s.Job == "" {
		s.Job = cfg.Stats.Job
	}
	if cfg.Stats.Job == "" {
		cfg.Stats.Job = s.Job
	}
	if s.TotalSeconds == 0 {
		s.TotalSeconds = defaults.TotalTime.Seconds()
	}
	if s.CycleSeconds == 0 {
		s.CycleSeconds = defaults.CycleTime.Seconds()
	}
	if s.CooldownMode == "" {
		s.CooldownMode = string(defaults.CooldownMode)
	}
	if s.UseAutos == nil {
		on := true
		s.UseAutos = &on
	}
	if cfg.Stats.Level == 0 {
		cfg.Stats.Level = 100
	}
	for _, m := range []*float64{
		&cfg.Stats.MainStatMulti, &cfg.Stats.WdMulti, &cfg.Stats.AutoMulti,
		&cfg.Stats.DetMulti, &cfg.Stats.TraitMulti, &cfg.Stats.DotMulti, &cfg.Stats.SpeedMulti,
	} {
		if *m == 0 {
			*m = 1
		}
	}
	if cfg.Stats.CritMulti == 0 {
		cfg.Stats.CritMulti = 1.4
	}
	if cfg.Stats.DhMulti == 0 {
		cfg.Stats.DhMulti = 1.25
	}
}

// RotationDir is where rotation scripts live.
func (cfg *Config) RotationDir() string {
	return filepath.Join(cfg.Dir, RotationsDir)
}

// CharacterStats converts the stat block for the engine.
func (s StatBlock) CharacterStats() character.Stats {
	return character.Stats{
		Job:           s.Job,
		Level:         s.Level,
		MainStatMulti: s.MainStatMulti,
		WdMulti:       s.WdMulti,
		AutoMulti:     s.AutoMulti,
		DetMulti:      s.DetMulti,
		TraitMulti:    s.TraitMulti,
		DotMulti:      s.DotMulti,
		CritChance:    s.CritChance,
		CritMulti:     s.CritMulti,
		DhChance:      s.DhChance,
		DhMulti:       s.DhMulti,
		SpeedMulti:    s.SpeedMulti,
		Haste:         s.Haste,
		WeaponDelay:   seconds(s.WeaponDelaySeconds),
	}
}

// Settings converts the simulation section for the driver. Only valid after LoadConfig.
func (s Simulation) Settings() sim.Settings {
	cycleMode, _ := engine.ParseCycleMode(s.CycleMode)
	cdMode, _ := cooldown.ParseMode(s.CooldownMode)
	return sim.Settings{
		TotalTime:       seconds(s.TotalSeconds),
		CycleTime:       seconds(s.CycleSeconds),
		CycleMode:       cycleMode,
		CooldownMode:    cdMode,
		UseAutos:        s.UseAutos == nil || *s.UseAutos,
		Buffs:           sim.BuffSettings{Enabled: s.PartyBuffs.Enabled()},
		PartyBuffOffset: seconds(s.BuffOffsetSec),
		Concurrency:     s.Concurrency,
		Timeout:         seconds(s.TimeoutSeconds),
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(math.Round(v * float64(time.Second)))
}
