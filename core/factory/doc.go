// Package factory instantiates pluggable modules (solver backends, metrics
// sinks) from configuration. A module is named by a type string and carries a
// map of raw settings that its factory decodes into a typed struct.
//
//	reg := factory.NewRegistry[solver.Model]()
//	reg.Register("branch_and_bound", func(conf map[string]any) (solver.Model, error) {
//	    var o solver.Options
//	    if err := factory.Decode(conf, &o); err != nil {
//	        return nil, err
//	    }
//	    return solver.NewBranchAndBound(o), nil
//	})
//	m, err := reg.Create(factory.ModuleConfig{Type: "branch_and_bound", Conf: map[string]any{"node_limit": 5000}})
package factory
