// Package solver defines the integer programming capability the allocation
// engine drives, together with a built-in branch-and-bound backend over the
// gonum simplex.
package solver

import (
	"context"
	"time"
)

// Var is a handle to a decision variable of a Model.
type Var int

// Term is one coefficient of a linear expression.
type Term struct {
	Var  Var
	Coef float64
}

// Relation is the comparison of a linear constraint.
type Relation int

const (
	LE Relation = iota
	GE
	EQ
)

func (r Relation) String() string {
	switch r {
	case LE:
		return "<="
	case GE:
		return ">="
	case EQ:
		return "=="
	default:
		return "?"
	}
}

// Status is the closed set of solve outcomes.
type Status int

const (
	NotSolved Status = iota
	Optimal
	Feasible
	Infeasible
	Unbounded
	Abnormal
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "OPTIMAL"
	case Feasible:
		return "FEASIBLE"
	case Infeasible:
		return "INFEASIBLE"
	case Unbounded:
		return "UNBOUNDED"
	case Abnormal:
		return "ABNORMAL"
	default:
		return "NOT_SOLVED"
	}
}

// Usable reports whether variable values can be read back after the solve.
func (s Status) Usable() bool { return s == Optimal || s == Feasible }

// Model is a mixed integer linear program under construction. Variables are
// integer and bounded; Solve may be called once.
type Model interface {
	NewIntVar(lb, ub float64, name string) Var
	AddConstraint(terms []Term, rel Relation, rhs float64)
	SetObjective(terms []Term, maximize bool)
	Solve(ctx context.Context, timeLimit time.Duration) Status
	Value(v Var) float64
	ObjectiveValue() float64
	NumVars() int
	NumConstraints() int
}
