package allocation

import (
	"fmt"
	"time"

	"github.com/kilianp07/lessonalloc/core/factory"
)

// Config parameterises an Engine.
type Config struct {
	// TimeLimit bounds the solve. Zero means no limit.
	TimeLimit time.Duration
	// Solver selects the backend through the solver registry.
	Solver factory.ModuleConfig
	// PreferenceWeight in [0, 1] breaks ties in favour of higher ranked
	// teachers. Zero keeps the plain session count objective.
	PreferenceWeight float64
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	if c.TimeLimit == 0 {
		c.TimeLimit = 60 * time.Second
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.TimeLimit < 0 {
		return fmt.Errorf("time limit must not be negative")
	}
	if c.PreferenceWeight < 0 || c.PreferenceWeight > 1 {
		return fmt.Errorf("preference weight must be within [0, 1], got %v", c.PreferenceWeight)
	}
	return nil
}
