package solver

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Options tunes the branch-and-bound backend.
type Options struct {
	// NodeLimit caps the number of relaxations solved. Reaching it ends the
	// search like a timeout.
	NodeLimit int `json:"node_limit"`
	// Tolerance is the integrality and feasibility tolerance.
	Tolerance float64 `json:"tolerance"`
}

// SetDefaults fills zero fields.
func (o *Options) SetDefaults() {
	if o.NodeLimit <= 0 {
		o.NodeLimit = 100000
	}
	if o.Tolerance <= 0 {
		o.Tolerance = 1e-6
	}
}

type row struct {
	terms []Term
	rel   Relation
	rhs   float64
}

// BranchAndBound is a depth-first branch-and-bound over LP relaxations. It is
// meant for the small, sparse models of a single scheduling run; relaxations
// are solved densely.
type BranchAndBound struct {
	opts Options

	names    []string
	lb, ub   []float64
	rows     []row
	obj      []Term
	maximize bool

	values    []float64
	objective float64
	nodes     int
	status    Status

	// lpSolve is the LP routine captured when Solve starts.
	lpSolve func(c []float64, A mat.Matrix, b []float64) ([]float64, error)
}

// NewBranchAndBound returns an empty model.
func NewBranchAndBound(opts Options) *BranchAndBound {
	opts.SetDefaults()
	return &BranchAndBound{opts: opts}
}

// NewIntVar adds an integer variable. lb must be finite; ub may be +Inf.
func (m *BranchAndBound) NewIntVar(lb, ub float64, name string) Var {
	m.names = append(m.names, name)
	m.lb = append(m.lb, math.Ceil(lb-m.opts.Tolerance))
	m.ub = append(m.ub, math.Floor(ub+m.opts.Tolerance))
	return Var(len(m.lb) - 1)
}

// AddConstraint adds sum(terms) rel rhs. Repeated variables are merged and zero
// coefficients dropped.
func (m *BranchAndBound) AddConstraint(terms []Term, rel Relation, rhs float64) {
	m.rows = append(m.rows, row{terms: merge(terms), rel: rel, rhs: rhs})
}

// SetObjective replaces the objective.
func (m *BranchAndBound) SetObjective(terms []Term, maximize bool) {
	m.obj = merge(terms)
	m.maximize = maximize
}

// Name returns the name given to a variable.
func (m *BranchAndBound) Name(v Var) string { return m.names[v] }

// NumVars returns the number of variables.
func (m *BranchAndBound) NumVars() int { return len(m.lb) }

// NumConstraints returns the number of constraints added.
func (m *BranchAndBound) NumConstraints() int { return len(m.rows) }

// Nodes returns the number of relaxations solved by the last Solve.
func (m *BranchAndBound) Nodes() int { return m.nodes }

// Value returns the value of v in the best solution found, or 0 when no
// usable solution exists.
func (m *BranchAndBound) Value(v Var) float64 {
	if m.values == nil {
		return 0
	}
	return m.values[v]
}

// ObjectiveValue returns the objective of the best solution in the direction
// requested by SetObjective.
func (m *BranchAndBound) ObjectiveValue() float64 {
	if m.maximize {
		return -m.objective
	}
	return m.objective
}

type node struct {
	lb, ub []float64
}

// Solve runs the search until it is proven optimal, ctx is done or the time
// limit passes. A relaxation still running at the deadline is abandoned and
// the best incumbent so far is returned as Feasible. The all-lower-bound point
// is tried first, so a model whose rows all admit it always has one.
func (m *BranchAndBound) Solve(ctx context.Context, timeLimit time.Duration) Status {
	if timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeLimit)
		defer cancel()
	}
	tol := m.opts.Tolerance
	n := len(m.lb)
	cost := make([]float64, n)
	sign := 1.0
	if m.maximize {
		sign = -1
	}
	integral := true
	for _, t := range m.obj {
		cost[t.Var] += sign * t.Coef
	}
	for _, c := range cost {
		if math.Abs(c-math.Round(c)) > 1e-12 {
			integral = false
		}
	}

	var (
		incumbent []float64
		incVal    = math.Inf(1)
		failures  int
		stopped   bool
	)
	m.nodes = 0
	m.lpSolve = simplex
	if m.satisfies(m.lb) {
		// Non-nil even without variables: an empty model is solved by the
		// empty assignment.
		incumbent = append(make([]float64, 0, n), m.lb...)
		incVal = dot(cost, incumbent)
	}

	stack := []node{{lb: append([]float64(nil), m.lb...), ub: append([]float64(nil), m.ub...)}}
	for len(stack) > 0 {
		if ctx.Err() != nil || m.nodes >= m.opts.NodeLimit {
			stopped = true
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		m.nodes++

		rel, done := m.relaxWithin(ctx, nd.lb, nd.ub, cost)
		if !done {
			stopped = true
			break
		}
		switch rel.status {
		case relaxInfeasible:
			continue
		case relaxUnbounded:
			if m.nodes == 1 {
				return m.finish(Unbounded, nil, 0)
			}
			failures++
			continue
		case relaxFailed:
			if m.nodes == 1 {
				return m.finish(Abnormal, nil, 0)
			}
			failures++
			continue
		}

		bound := rel.obj
		if integral {
			bound = math.Ceil(bound - tol)
		}
		if incumbent != nil && bound >= incVal-tol {
			continue
		}

		branch, worst := -1, tol
		for j, v := range rel.x {
			f := v - math.Floor(v)
			if d := math.Min(f, 1-f); d > worst {
				branch, worst = j, d
			}
		}
		if branch < 0 {
			x := make([]float64, n)
			for j, v := range rel.x {
				x[j] = math.Round(v)
			}
			if !m.satisfies(x) {
				failures++
				continue
			}
			if v := dot(cost, x); v < incVal-tol {
				incumbent, incVal = x, v
			}
			continue
		}

		v := rel.x[branch]
		down := node{lb: nd.lb, ub: append([]float64(nil), nd.ub...)}
		down.ub[branch] = math.Floor(v)
		up := node{lb: append([]float64(nil), nd.lb...), ub: nd.ub}
		up.lb[branch] = math.Ceil(v)
		stack = append(stack, down, up)
	}

	switch {
	case incumbent == nil && stopped:
		return m.finish(NotSolved, nil, 0)
	case incumbent == nil && failures > 0:
		return m.finish(Abnormal, nil, 0)
	case incumbent == nil:
		return m.finish(Infeasible, nil, 0)
	case stopped || failures > 0:
		return m.finish(Feasible, incumbent, incVal)
	default:
		return m.finish(Optimal, incumbent, incVal)
	}
}

// relaxWithin solves a relaxation on its own goroutine and gives up when ctx
// is done first. The abandoned goroutine runs to completion in the background
// and its result is dropped.
func (m *BranchAndBound) relaxWithin(ctx context.Context, lb, ub, cost []float64) (relaxation, bool) {
	out := make(chan relaxation, 1)
	go func() { out <- m.relax(lb, ub, cost) }()
	select {
	case rel := <-out:
		return rel, true
	case <-ctx.Done():
		return relaxation{}, false
	}
}

func (m *BranchAndBound) finish(s Status, x []float64, obj float64) Status {
	m.status = s
	m.values = x
	m.objective = obj
	return s
}

// satisfies checks x against the variable bounds and every constraint.
func (m *BranchAndBound) satisfies(x []float64) bool {
	tol := m.opts.Tolerance
	for j, v := range x {
		if v < m.lb[j]-tol || v > m.ub[j]+tol {
			return false
		}
	}
	for _, r := range m.rows {
		act := 0.0
		for _, t := range r.terms {
			act += t.Coef * x[t.Var]
		}
		switch r.rel {
		case LE:
			if act > r.rhs+tol {
				return false
			}
		case GE:
			if act < r.rhs-tol {
				return false
			}
		case EQ:
			if math.Abs(act-r.rhs) > tol {
				return false
			}
		}
	}
	return true
}

func merge(terms []Term) []Term {
	pos := make(map[Var]int, len(terms))
	out := make([]Term, 0, len(terms))
	for _, t := range terms {
		if i, ok := pos[t.Var]; ok {
			out[i].Coef += t.Coef
			continue
		}
		pos[t.Var] = len(out)
		out = append(out, t)
	}
	kept := out[:0]
	for _, t := range out {
		if t.Coef != 0 {
			kept = append(kept, t)
		}
	}
	return kept
}

func dot(c, x []float64) float64 {
	s := 0.0
	for i := range c {
		s += c[i] * x[i]
	}
	return s
}
