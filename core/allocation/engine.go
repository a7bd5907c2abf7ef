package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/lessonalloc/core/candidate"
	"github.com/kilianp07/lessonalloc/core/catalog"
	"github.com/kilianp07/lessonalloc/core/demand"
	"github.com/kilianp07/lessonalloc/core/diag"
	"github.com/kilianp07/lessonalloc/core/factory"
	"github.com/kilianp07/lessonalloc/core/logger"
	"github.com/kilianp07/lessonalloc/core/model"
	"github.com/kilianp07/lessonalloc/core/report"
	"github.com/kilianp07/lessonalloc/core/solver"
)

// Outcome is the overall result of a run.
type Outcome int

const (
	// Allocated means the solver returned a usable solution.
	Allocated Outcome = iota
	// NoDemand means every request was already satisfied.
	NoDemand
	// Failed means the solver returned no usable solution.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Allocated:
		return "allocated"
	case NoDemand:
		return "no_demand"
	default:
		return "failed"
	}
}

// Result gathers everything a run produced.
type Result struct {
	Outcome        Outcome
	Status         solver.Status
	NewAllocations []model.Allocation
	// Reconciliation is set unless the run failed.
	Reconciliation *report.Reconciliation
	// Failure is set when the run failed.
	Failure     *report.FailureReport
	Diagnostics []diag.Diagnostic
	Stats       BuildStats
	Duration    time.Duration
}

// Err returns a *SolveError for failed runs and nil otherwise.
func (r *Result) Err() error {
	if r.Outcome != Failed {
		return nil
	}
	return &SolveError{Status: r.Status, Report: r.Failure}
}

// SolveError reports a solver status without a usable solution.
type SolveError struct {
	Status solver.Status
	Report *report.FailureReport
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("allocation failed: solver status %s", e.Status)
}

// Engine runs the allocation pipeline.
type Engine struct {
	cfg      Config
	log      logger.Logger
	newModel func(factory.ModuleConfig) (solver.Model, error)
}

// NewEngine returns an engine. A nil logger discards output.
func NewEngine(cfg Config, log logger.Logger) *Engine {
	if log == nil {
		log = logger.NopLogger{}
	}
	cfg.SetDefaults()
	return &Engine{cfg: cfg, log: log, newModel: solver.New}
}

// Run resolves demand, builds and solves the model and reconciles the answer.
// Diagnostics are appended to d, which may already hold the normalisation
// findings. The returned error is reserved for setup problems; a solver
// failure is reported through Result.Outcome.
func (e *Engine) Run(ctx context.Context, cat *catalog.Catalog, d *diag.Collector) (*Result, error) {
	if d == nil {
		d = diag.New()
	}
	start := time.Now()
	res := &Result{}
	defer func() {
		res.Duration = time.Since(start)
		res.Diagnostics = d.Items()
	}()

	resolution, err := demand.Resolve(cat)
	if errors.Is(err, demand.ErrNoDemand) {
		e.log.Infof("no remaining demand; keeping %d existing lessons", len(cat.Existing()))
		res.Outcome = NoDemand
		res.Status = solver.Optimal
		res.Reconciliation = report.Reconcile(cat, nil, nil, nil)
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve demand: %w", err)
	}
	e.log.Infof("resolved %d requests, %d sessions to place", len(resolution.Requests), resolution.Remaining())

	space := candidate.Build(cat, resolution, d)
	e.log.Infof("generated %d candidate variables", space.Len())

	m, err := e.newModel(e.cfg.Solver)
	if err != nil {
		return nil, fmt.Errorf("create solver: %w", err)
	}
	b := NewBuilder(m, cat, resolution, space, d)
	res.Stats = b.Build(e.cfg.PreferenceWeight)
	e.log.Infof("base constraints: %d", res.Stats.BaseConstraints)
	for _, code := range cat.Flags().ActiveCodes() {
		e.log.Infof("constraint %s: %d rows", code, res.Stats.Optional[code])
	}
	for _, item := range d.Items() {
		if item.Severity == diag.Warning {
			e.log.Warnf("%s", item)
		}
	}

	res.Status = e.solve(ctx, m)
	switch res.Status {
	case solver.Optimal, solver.Feasible:
		res.Outcome = Allocated
		res.NewAllocations = b.Solution()
		res.Reconciliation = report.Reconcile(cat, resolution, space, res.NewAllocations)
		e.log.Infof("placed %d new lessons, fulfillment %.1f%%", len(res.NewAllocations), res.Reconciliation.Percent())
	default:
		// Infeasible, Unbounded, Abnormal, NotSolved and any status a
		// backend invents.
		res.Outcome = Failed
		res.Failure = report.Failure(cat, resolution, space, res.Status, m.NumVars(), m.NumConstraints())
		e.log.Errorf("solver returned %s with %d variables and %d constraints", res.Status, m.NumVars(), m.NumConstraints())
	}
	return res, nil
}

func (e *Engine) solve(ctx context.Context, m solver.Model) solver.Status {
	e.log.Infof("solving %d variables, %d constraints, time limit %s", m.NumVars(), m.NumConstraints(), e.cfg.TimeLimit)
	st := m.Solve(ctx, e.cfg.TimeLimit)
	e.log.Debugw("solve finished", map[string]any{"status": st.String(), "objective": m.ObjectiveValue()})
	return st
}
