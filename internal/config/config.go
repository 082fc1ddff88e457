// Package config handles reading and writing lsrp.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/elektrokombinacija/lsrp-capaset/internal/algo"
	"github.com/elektrokombinacija/lsrp-capaset/internal/logging"
)

// FileName is the default config file looked up in the working directory.
const FileName = "lsrp.yaml"

// ErrInvalid is returned for values no planner setting can take.
var ErrInvalid = errors.New("config: invalid value")

// Config is the top-level structure for lsrp.yaml.
type Config struct {
	Version int             `yaml:"version"`
	Planner PlannerConfig   `yaml:"planner"`
	Log     logging.Options `yaml:"log"`
	Bench   BenchConfig     `yaml:"bench"`
	Sim     SimConfig       `yaml:"sim"`
}

// PlannerConfig holds the planner settings.
type PlannerConfig struct {
	Swap                  bool      `yaml:"swap"`
	SwapMode              string    `yaml:"swap_mode"` // "lenient" | "strict"
	Seed                  int64     `yaml:"seed"`
	AgingDelta            float64   `yaml:"aging_delta"`
	DistanceWeightedAging bool      `yaml:"distance_weighted_aging"`
	DetourAfter           int       `yaml:"detour_after"`     // aging steps before a detour, -1 = never
	MaxStallRounds        int       `yaml:"max_stall_rounds"` // 0 = 50 + 10 per agent
	Horizon               float64   `yaml:"horizon"`          // simulated seconds, 0 = none
	TimeLimit             float64   `yaml:"time_limit"`       // wall-clock seconds
	Eps                   float64   `yaml:"eps"`
	CostWeights           []float64 `yaml:"cost_weights,omitempty"`
}

// BenchConfig controls `lsrp bench`.
type BenchConfig struct {
	Dir     string  `yaml:"dir"`
	Output  string  `yaml:"output"`
	Repeats int     `yaml:"repeats"`
	Seeds   []int64 `yaml:"seeds,omitempty"`
}

// SimConfig controls `lsrp simulate`.
type SimConfig struct {
	TimeStep float64 `yaml:"time_step"`
	Metrics  string  `yaml:"metrics,omitempty"` // JSON output path
}

// ReadConfig reads the config file at path.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := cfg.Planner.Options(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WriteConfig writes cfg to path, creating its directory if needed.
func WriteConfig(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config populated with the planner defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Planner: PlannerConfig{
			Swap:       true,
			SwapMode:   algo.SwapLenient.String(),
			Seed:       0,
			AgingDelta: 1,
			TimeLimit:  algo.DefaultTimeLimit,
			Eps:        algo.TimeTolerance,
		},
		Log: logging.Options{
			Level:  "info",
			Format: logging.FormatConsole,
		},
		Bench: BenchConfig{
			Dir:     "scenarios",
			Output:  "results.csv",
			Repeats: 1,
		},
		Sim: SimConfig{
			TimeStep: 0.1,
		},
	}
}

// Options converts the planner settings into planner options.
func (c *PlannerConfig) Options() (algo.Options, error) {
	opts := algo.DefaultOptions()
	opts.Swap = c.Swap
	switch c.SwapMode {
	case "", "lenient":
		opts.SwapMode = algo.SwapLenient
	case "strict":
		opts.SwapMode = algo.SwapStrict
	default:
		return opts, fmt.Errorf("swap_mode %q: %w", c.SwapMode, ErrInvalid)
	}
	if c.AgingDelta < 0 {
		return opts, fmt.Errorf("aging_delta %v: %w", c.AgingDelta, ErrInvalid)
	}
	if c.MaxStallRounds < 0 || c.Horizon < 0 || c.TimeLimit < 0 || c.Eps < 0 {
		return opts, fmt.Errorf("negative limit: %w", ErrInvalid)
	}
	opts.Seed = c.Seed
	if c.AgingDelta > 0 {
		opts.AgingDelta = c.AgingDelta
	}
	opts.DistanceWeightedAging = c.DistanceWeightedAging
	opts.DetourAfter = c.DetourAfter
	opts.MaxStallRounds = c.MaxStallRounds
	opts.Horizon = c.Horizon
	opts.CostWeights = c.CostWeights
	return opts, nil
}
