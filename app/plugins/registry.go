package plugins

import (
	"fmt"
	"sort"

	"github.com/kilianp07/lessonalloc/config"
	"github.com/kilianp07/lessonalloc/core/runlog"
)

// RunStoreFactory builds a run history store from its configuration.
type RunStoreFactory func(cfg config.RunLogConfig) (runlog.Store, error)

var RunStores = map[string]RunStoreFactory{}

func RegisterRunStore(name string, f RunStoreFactory) { RunStores[name] = f }

// NewRunStore creates the store selected by cfg.Backend.
func NewRunStore(cfg config.RunLogConfig) (runlog.Store, error) {
	f, ok := RunStores[cfg.Backend]
	if !ok {
		names := make([]string, 0, len(RunStores))
		for n := range RunStores {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown run store %q (known: %v)", cfg.Backend, names)
	}
	return f(cfg)
}
