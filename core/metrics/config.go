package metrics

import (
	"fmt"

	"github.com/kilianp07/lessonalloc/core/factory"
)

// Config lists the sinks a run reports to. Each entry names a registered sink
// type and its settings.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
}

// Validate checks that every sink names a type.
func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("sink %d: type is required", i)
		}
	}
	return nil
}
