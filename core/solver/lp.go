package solver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	simplexTol        = 1e-9
	maxPresolvePasses = 64
)

// simplex points to the LP routine used for relaxations. Tests override it to
// simulate solver failures.
var simplex = func(c []float64, A mat.Matrix, b []float64) ([]float64, error) {
	_, x, err := lp.Simplex(c, A, b, simplexTol, nil)
	return x, err
}

type relaxStatus int

const (
	relaxOptimal relaxStatus = iota
	relaxInfeasible
	relaxUnbounded
	relaxFailed
)

type relaxation struct {
	status relaxStatus
	x      []float64
	obj    float64
}

// relax solves the LP relaxation of the model restricted to [lb, ub]. The
// bounds are not modified.
func (m *BranchAndBound) relax(nodeLB, nodeUB, cost []float64) relaxation {
	lb := append([]float64(nil), nodeLB...)
	ub := append([]float64(nil), nodeUB...)
	active, ok := m.presolve(lb, ub)
	if !ok {
		return relaxation{status: relaxInfeasible}
	}

	x := append([]float64(nil), lb...)
	col := make(map[Var]int)
	var free []Var
	for _, i := range active {
		for _, t := range m.rows[i].terms {
			if lb[t.Var] == ub[t.Var] {
				continue
			}
			if _, seen := col[t.Var]; !seen {
				col[t.Var] = len(free)
				free = append(free, t.Var)
			}
		}
	}
	// Variables outside every remaining row sit at their cheapest bound.
	for j := range x {
		if lb[j] == ub[j] {
			continue
		}
		if _, inRow := col[Var(j)]; inRow {
			continue
		}
		if cost[j] < 0 {
			if math.IsInf(ub[j], 1) {
				return relaxation{status: relaxUnbounded}
			}
			x[j] = ub[j]
		}
	}
	if len(free) == 0 {
		return relaxation{status: relaxOptimal, x: x, obj: dot(cost, x)}
	}

	type stdRow struct {
		coefs map[int]float64
		rhs   float64
		slack float64
	}
	var rows []stdRow
	implied := make([]bool, len(free))
	for _, i := range active {
		r := m.rows[i]
		coefs := make(map[int]float64, len(r.terms))
		rhs := r.rhs
		nonNeg := true
		for _, t := range r.terms {
			rhs -= t.Coef * lb[t.Var]
			if c, ok := col[t.Var]; ok {
				coefs[c] = t.Coef
				if t.Coef < 0 {
					nonNeg = false
				}
			}
		}
		if r.rel != GE && nonNeg {
			for c, a := range coefs {
				if a > 0 && rhs/a <= ub[free[c]]-lb[free[c]]+m.opts.Tolerance {
					implied[c] = true
				}
			}
		}
		switch r.rel {
		case LE:
			rows = append(rows, stdRow{coefs: coefs, rhs: rhs, slack: 1})
		case GE:
			rows = append(rows, stdRow{coefs: coefs, rhs: rhs, slack: -1})
		case EQ:
			rows = append(rows, stdRow{coefs: coefs, rhs: rhs, slack: 1}, stdRow{coefs: coefs, rhs: rhs, slack: -1})
		}
	}
	for c, v := range free {
		if implied[c] || math.IsInf(ub[v], 1) {
			continue
		}
		rows = append(rows, stdRow{coefs: map[int]float64{c: 1}, rhs: ub[v] - lb[v], slack: 1})
	}

	k, nr := len(free), len(rows)
	A := mat.NewDense(nr, k+nr, nil)
	b := make([]float64, nr)
	c := make([]float64, k+nr)
	for i, r := range rows {
		for j, a := range r.coefs {
			A.Set(i, j, a)
		}
		A.Set(i, k+i, r.slack)
		b[i] = r.rhs
	}
	for j, v := range free {
		c[j] = cost[v]
	}

	sol, err := runSimplex(m.lpSolve, c, A, b)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return relaxation{status: relaxInfeasible}
	case errors.Is(err, lp.ErrUnbounded):
		return relaxation{status: relaxUnbounded}
	case err != nil:
		return relaxation{status: relaxFailed}
	}
	for j, v := range free {
		x[v] = lb[v] + sol[j]
	}
	return relaxation{status: relaxOptimal, x: x, obj: dot(cost, x)}
}

// runSimplex converts a panic of the LP routine into an error so a single bad
// relaxation fails the node instead of the run.
func runSimplex(solve func([]float64, mat.Matrix, []float64) ([]float64, error), c []float64, A mat.Matrix, b []float64) (x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simplex: %v", r)
		}
	}()
	return solve(c, A, b)
}

// presolve tightens lb and ub in place from single-variable rows and drops
// rows that the bounds already satisfy. It returns the indices of the rows
// left for the LP, or false when the bounds prove the node infeasible.
func (m *BranchAndBound) presolve(lb, ub []float64) ([]int, bool) {
	tol := m.opts.Tolerance
	live := make([]bool, len(m.rows))
	for i := range live {
		live[i] = true
	}
	for pass := 0; pass < maxPresolvePasses; pass++ {
		changed := false
		for i, r := range m.rows {
			if !live[i] {
				continue
			}
			rhs := r.rhs
			var minAct, maxAct float64
			free := 0
			var single Term
			for _, t := range r.terms {
				j := t.Var
				if lb[j] == ub[j] {
					rhs -= t.Coef * lb[j]
					continue
				}
				free++
				single = t
				if t.Coef > 0 {
					minAct += t.Coef * lb[j]
					maxAct += t.Coef * ub[j]
				} else {
					minAct += t.Coef * ub[j]
					maxAct += t.Coef * lb[j]
				}
			}
			upper := r.rel == LE || r.rel == EQ
			lower := r.rel == GE || r.rel == EQ
			if (upper && minAct > rhs+tol) || (lower && maxAct < rhs-tol) {
				return nil, false
			}
			if (!upper || maxAct <= rhs+tol) && (!lower || minAct >= rhs-tol) {
				live[i] = false
				continue
			}
			if free != 1 {
				continue
			}
			live[i] = false
			j, a := single.Var, single.Coef
			bound := rhs / a
			// a*x <= rhs bounds x from above when a > 0 and from below otherwise.
			if (upper && a > 0) || (lower && a < 0) {
				if nb := math.Floor(bound + tol); nb < ub[j] {
					ub[j], changed = nb, true
				}
			}
			if (upper && a < 0) || (lower && a > 0) {
				if nb := math.Ceil(bound - tol); nb > lb[j] {
					lb[j], changed = nb, true
				}
			}
			if lb[j] > ub[j] {
				return nil, false
			}
		}
		if !changed {
			break
		}
	}
	var active []int
	for i, ok := range live {
		if ok {
			active = append(active, i)
		}
	}
	return active, true
}
