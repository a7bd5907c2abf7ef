package solver

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/lessonalloc/core/factory"
)

func binaries(m Model, n int) []Var {
	vs := make([]Var, n)
	for i := range vs {
		vs[i] = m.NewIntVar(0, 1, "")
	}
	return vs
}

func sum(vs ...Var) []Term {
	ts := make([]Term, len(vs))
	for i, v := range vs {
		ts[i] = Term{Var: v, Coef: 1}
	}
	return ts
}

func TestBranchAndBound_Packing(t *testing.T) {
	m := NewBranchAndBound(Options{})
	x := binaries(m, 3)
	m.AddConstraint(sum(x[0], x[1]), LE, 1)
	m.AddConstraint(sum(x[1], x[2]), LE, 1)
	m.SetObjective(sum(x...), true)

	if st := m.Solve(context.Background(), time.Second); st != Optimal {
		t.Fatalf("expected optimal got %s", st)
	}
	if m.ObjectiveValue() != 2 {
		t.Fatalf("expected objective 2 got %v", m.ObjectiveValue())
	}
	if m.Value(x[0]) != 1 || m.Value(x[1]) != 0 || m.Value(x[2]) != 1 {
		t.Fatalf("unexpected solution %v %v %v", m.Value(x[0]), m.Value(x[1]), m.Value(x[2]))
	}
}

func TestBranchAndBound_BranchesOnFractional(t *testing.T) {
	m := NewBranchAndBound(Options{})
	x := binaries(m, 2)
	m.AddConstraint([]Term{{x[0], 2}, {x[1], 2}}, LE, 3)
	m.SetObjective(sum(x...), true)

	if st := m.Solve(context.Background(), time.Second); st != Optimal {
		t.Fatalf("expected optimal got %s", st)
	}
	if m.ObjectiveValue() != 1 {
		t.Fatalf("expected objective 1 got %v", m.ObjectiveValue())
	}
	if m.Nodes() < 2 {
		t.Fatalf("expected branching, solved %d nodes", m.Nodes())
	}
}

func TestBranchAndBound_Equality(t *testing.T) {
	m := NewBranchAndBound(Options{})
	x := binaries(m, 3)
	m.AddConstraint(sum(x...), EQ, 2)
	m.SetObjective([]Term{{x[0], 1}, {x[1], 2}, {x[2], 3}}, true)

	if st := m.Solve(context.Background(), 0); st != Optimal {
		t.Fatalf("expected optimal got %s", st)
	}
	if m.ObjectiveValue() != 5 || m.Value(x[0]) != 0 {
		t.Fatalf("expected y=z=1, got objective %v", m.ObjectiveValue())
	}
}

func TestBranchAndBound_ImplicationRow(t *testing.T) {
	m := NewBranchAndBound(Options{})
	a := m.NewIntVar(0, 1, "a")
	mid1 := m.NewIntVar(0, 0, "mid1")
	mid2 := m.NewIntVar(0, 0, "mid2")
	b := m.NewIntVar(0, 1, "b")
	// mid1 + mid2 >= 1 * (a + b - 1)
	m.AddConstraint([]Term{{mid1, 1}, {mid2, 1}, {a, -1}, {b, -1}}, GE, -1)
	m.SetObjective(sum(a, b), true)

	if st := m.Solve(context.Background(), time.Second); st != Optimal {
		t.Fatalf("expected optimal got %s", st)
	}
	if m.ObjectiveValue() != 1 {
		t.Fatalf("both endpoints must not be occupied, objective %v", m.ObjectiveValue())
	}
}

func TestBranchAndBound_Infeasible(t *testing.T) {
	m := NewBranchAndBound(Options{})
	x := m.NewIntVar(0, 1, "x")
	m.AddConstraint(sum(x), GE, 2)
	m.SetObjective(sum(x), true)
	if st := m.Solve(context.Background(), time.Second); st != Infeasible {
		t.Fatalf("expected infeasible got %s", st)
	}
	if m.Value(x) != 0 {
		t.Fatal("no value expected after infeasible solve")
	}
}

func TestBranchAndBound_Unbounded(t *testing.T) {
	m := NewBranchAndBound(Options{})
	x := m.NewIntVar(0, math.Inf(1), "x")
	m.SetObjective(sum(x), true)
	if st := m.Solve(context.Background(), time.Second); st != Unbounded {
		t.Fatalf("expected unbounded got %s", st)
	}
}

func TestBranchAndBound_NodeLimitKeepsIncumbent(t *testing.T) {
	m := NewBranchAndBound(Options{NodeLimit: 1})
	x := binaries(m, 2)
	m.AddConstraint([]Term{{x[0], 2}, {x[1], 2}}, LE, 3)
	m.SetObjective(sum(x...), true)

	if st := m.Solve(context.Background(), time.Second); st != Feasible {
		t.Fatalf("expected feasible got %s", st)
	}
	if m.ObjectiveValue() != 0 {
		t.Fatalf("expected lower-bound incumbent, objective %v", m.ObjectiveValue())
	}
}

func TestBranchAndBound_CancelledWithoutIncumbent(t *testing.T) {
	m := NewBranchAndBound(Options{})
	x := binaries(m, 2)
	m.AddConstraint(sum(x...), GE, 1)
	m.SetObjective(sum(x...), true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if st := m.Solve(ctx, time.Second); st != NotSolved {
		t.Fatalf("expected not solved got %s", st)
	}
}

func TestBranchAndBound_SimplexFailure(t *testing.T) {
	old := simplex
	simplex = func(_ []float64, _ mat.Matrix, _ []float64) ([]float64, error) {
		return nil, errors.New("fail")
	}
	defer func() { simplex = old }()

	m := NewBranchAndBound(Options{})
	x := binaries(m, 3)
	m.AddConstraint(sum(x[0], x[1]), LE, 1)
	m.AddConstraint(sum(x[1], x[2]), LE, 1)
	m.SetObjective(sum(x...), true)
	if st := m.Solve(context.Background(), time.Second); st != Abnormal {
		t.Fatalf("expected abnormal got %s", st)
	}
}

func TestBranchAndBound_SimplexPanic(t *testing.T) {
	old := simplex
	simplex = func(_ []float64, _ mat.Matrix, _ []float64) ([]float64, error) {
		panic("boom")
	}
	defer func() { simplex = old }()

	m := NewBranchAndBound(Options{})
	x := binaries(m, 2)
	m.AddConstraint(sum(x...), LE, 1)
	m.SetObjective(sum(x...), true)
	if st := m.Solve(context.Background(), time.Second); st != Abnormal {
		t.Fatalf("expected abnormal got %s", st)
	}
}

func TestBranchAndBound_NoVariables(t *testing.T) {
	m := NewBranchAndBound(Options{})
	m.SetObjective(nil, true)
	if st := m.Solve(context.Background(), time.Second); st != Optimal {
		t.Fatalf("expected optimal got %s", st)
	}
	if m.ObjectiveValue() != 0 {
		t.Fatalf("expected objective 0 got %v", m.ObjectiveValue())
	}

	// Constant rows only: satisfied by the empty assignment or not at all.
	m = NewBranchAndBound(Options{})
	m.AddConstraint(nil, LE, 0)
	if st := m.Solve(context.Background(), time.Second); st != Optimal {
		t.Fatalf("expected optimal got %s", st)
	}
	m = NewBranchAndBound(Options{})
	m.AddConstraint(nil, GE, 1)
	if st := m.Solve(context.Background(), time.Second); st != Infeasible {
		t.Fatalf("expected infeasible got %s", st)
	}
}

func TestBranchAndBound_TimeLimitInterruptsRelaxation(t *testing.T) {
	release := make(chan struct{})
	old := simplex
	simplex = func(_ []float64, _ mat.Matrix, _ []float64) ([]float64, error) {
		<-release
		return nil, errors.New("released")
	}
	t.Cleanup(func() {
		simplex = old
		close(release)
	})

	m := NewBranchAndBound(Options{})
	x := binaries(m, 3)
	m.AddConstraint(sum(x[0], x[1]), LE, 1)
	m.AddConstraint(sum(x[1], x[2]), LE, 1)
	m.SetObjective(sum(x...), true)

	start := time.Now()
	st := m.Solve(context.Background(), 50*time.Millisecond)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("solve ran %s past a 50ms limit", elapsed)
	}
	if st != Feasible {
		t.Fatalf("expected feasible got %s", st)
	}
	if m.ObjectiveValue() != 0 {
		t.Fatalf("expected lower-bound incumbent, objective %v", m.ObjectiveValue())
	}
}

func TestMergeTerms(t *testing.T) {
	got := merge([]Term{{0, 1}, {1, 2}, {0, -1}, {2, 3}})
	if len(got) != 2 || got[0] != (Term{1, 2}) || got[1] != (Term{2, 3}) {
		t.Fatalf("unexpected merge %v", got)
	}
}

func TestStatus(t *testing.T) {
	for st, usable := range map[Status]bool{
		Optimal: true, Feasible: true, Infeasible: false, Unbounded: false, Abnormal: false, NotSolved: false,
	} {
		if st.Usable() != usable {
			t.Fatalf("%s usable=%v", st, st.Usable())
		}
	}
	if Feasible.String() != "FEASIBLE" || NotSolved.String() != "NOT_SOLVED" {
		t.Fatal("unexpected status names")
	}
}

func TestNew(t *testing.T) {
	m, err := New(factory.ModuleConfig{})
	if err != nil {
		t.Fatalf("default backend: %v", err)
	}
	if _, ok := m.(*BranchAndBound); !ok {
		t.Fatalf("expected branch and bound got %T", m)
	}
	m, err = New(factory.ModuleConfig{Type: DefaultBackend, Conf: map[string]any{"node_limit": 7}})
	if err != nil {
		t.Fatalf("configured backend: %v", err)
	}
	if m.(*BranchAndBound).opts.NodeLimit != 7 {
		t.Fatal("node limit not decoded")
	}
	if _, err := New(factory.ModuleConfig{Type: "cp_sat"}); err == nil {
		t.Fatal("expected unknown backend error")
	}
}
