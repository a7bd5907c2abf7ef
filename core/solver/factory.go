package solver

import (
	"github.com/kilianp07/lessonalloc/core/factory"
)

// DefaultBackend is used when no solver type is configured.
const DefaultBackend = "branch_and_bound"

var backends = factory.NewRegistry[Model]()

func init() {
	_ = Register(DefaultBackend, func(conf map[string]any) (Model, error) {
		var o Options
		if err := factory.Decode(conf, &o); err != nil {
			return nil, err
		}
		return NewBranchAndBound(o), nil
	})
}

// Register adds a solver backend. Each Create call must return a fresh model.
func Register(name string, f factory.Factory[Model]) error {
	return backends.Register(name, f)
}

// New creates an empty model for the configured backend.
func New(cfg factory.ModuleConfig) (Model, error) {
	if cfg.Type == "" {
		cfg.Type = DefaultBackend
	}
	return backends.Create(cfg)
}
