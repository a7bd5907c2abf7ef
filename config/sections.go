package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/lessonalloc/core/allocation"
	"github.com/kilianp07/lessonalloc/core/factory"
	"github.com/kilianp07/lessonalloc/core/solver"
)

// InputConfig locates the input tables.
type InputConfig struct {
	Dir string `json:"dir"`
}

func (c *InputConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "data"
	}
}

func (c InputConfig) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("dir is required")
	}
	return nil
}

// OutputConfig locates the output tables. It defaults to the input directory
// so that the next run picks up the allocations as fixed lessons.
type OutputConfig struct {
	Dir string `json:"dir"`
}

func (c *OutputConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "data"
	}
}

// SolverConfig selects the solver backend and bounds the solve.
type SolverConfig struct {
	Type             string         `json:"type"`
	TimeLimitSeconds float64        `json:"time_limit_seconds"`
	Conf             map[string]any `json:"conf"`
}

func (c *SolverConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = solver.DefaultBackend
	}
	if c.TimeLimitSeconds == 0 {
		c.TimeLimitSeconds = 60
	}
}

func (c SolverConfig) Validate() error {
	if c.TimeLimitSeconds < 0 {
		return fmt.Errorf("time_limit_seconds must not be negative")
	}
	return nil
}

// AllocationConfig tunes the objective.
type AllocationConfig struct {
	PreferenceWeight float64 `json:"preference_weight"`
}

func (c AllocationConfig) Validate() error {
	if c.PreferenceWeight < 0 || c.PreferenceWeight > 1 {
		return fmt.Errorf("preference_weight must be within [0, 1]")
	}
	return nil
}

// Engine assembles the engine configuration.
func (c Config) Engine() allocation.Config {
	return allocation.Config{
		TimeLimit:        time.Duration(c.Solver.TimeLimitSeconds * float64(time.Second)),
		Solver:           factory.ModuleConfig{Type: c.Solver.Type, Conf: c.Solver.Conf},
		PreferenceWeight: c.Allocation.PreferenceWeight,
	}
}

// RunLogConfig defines settings for run history storage and rotation.
type RunLogConfig struct {
	// Backend selects the store type: "jsonl", "sqlite" or "none".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB enables rotation of the jsonl store above this size.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *RunLogConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		switch c.Backend {
		case "sqlite":
			c.Path = "runs.db"
		default:
			c.Path = "runs.jsonl"
		}
	}
}

// Validate checks mandatory fields.
func (c RunLogConfig) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite", "none":
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Backend != "none" && c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("rotation settings must not be negative")
	}
	return nil
}
