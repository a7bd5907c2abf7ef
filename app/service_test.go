package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lessonalloc/config"
	"github.com/kilianp07/lessonalloc/core/allocation"
	"github.com/kilianp07/lessonalloc/core/catalog"
	"github.com/kilianp07/lessonalloc/core/diag"
	coremetrics "github.com/kilianp07/lessonalloc/core/metrics"
	"github.com/kilianp07/lessonalloc/core/model"
	"github.com/kilianp07/lessonalloc/core/runlog"
	"github.com/kilianp07/lessonalloc/core/solver"
	"github.com/kilianp07/lessonalloc/infra/mqtt"
	"github.com/kilianp07/lessonalloc/infra/store"
	"github.com/kilianp07/lessonalloc/internal/fixture"
)

type memStore struct {
	snap    catalog.Snapshot
	loadErr error
	saved   []store.Output
}

func (m *memStore) Load(context.Context) (catalog.Snapshot, error) { return m.snap, m.loadErr }

func (m *memStore) Save(_ context.Context, out store.Output) error {
	m.saved = append(m.saved, out)
	return nil
}

type recordingSink struct {
	runs    []coremetrics.RunSummary
	rows    []coremetrics.ConstraintRowsEvent
	fulfil  []coremetrics.FulfillmentEvent
	flushed int
}

func (r *recordingSink) RecordRun(s coremetrics.RunSummary) error {
	r.runs = append(r.runs, s)
	return nil
}

func (r *recordingSink) RecordConstraintRows(e coremetrics.ConstraintRowsEvent) error {
	r.rows = append(r.rows, e)
	return nil
}

func (r *recordingSink) RecordFulfillment(e coremetrics.FulfillmentEvent) error {
	r.fulfil = append(r.fulfil, e)
	return nil
}

func (r *recordingSink) Flush(context.Context) error {
	r.flushed++
	return nil
}

type harness struct {
	svc     *Service
	store   *memStore
	sink    *recordingSink
	pub     *mqtt.MockPublisher
	history *runlog.JSONLStore
}

func newHarness(t *testing.T, snap catalog.Snapshot, mods ...func(*config.Config)) *harness {
	t.Helper()
	cfg := &config.Config{}
	cfg.SetDefaults()
	for _, m := range mods {
		m(cfg)
	}
	hist, err := runlog.NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)
	h := &harness{
		store:   &memStore{snap: snap},
		sink:    &recordingSink{},
		pub:     mqtt.NewMockPublisher(),
		history: hist,
	}
	ids := 0
	h.svc, err = New(cfg,
		WithStore(h.store),
		WithHistory(hist),
		WithMetrics(h.sink),
		WithPublisher(h.pub),
		WithClock(func() time.Time { return time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC) }),
		WithRunID(func() string { ids++; return "run-" + string(rune('0'+ids)) }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.svc.Close() })
	return h
}

func twoStudents() *fixture.Builder {
	return fixture.New().
		Subject(1, "Math").
		Student(1, "Alice").Student(2, "Bob").
		Teacher(1, "Sato").
		Day("2025-04-01", 1, 3).
		Teaches(1, 1).
		Request(1, 1, 1).Request(2, 1, 2).
		StudentAvail(1, 1, 2).StudentAvail(2, 2).
		TeacherAvail(1, 1, 2, 3).
		Constraint(string(model.MaxTeacherDailySlot), false, nil)
}

func TestRun_Allocated(t *testing.T) {
	h := newHarness(t, twoStudents().Snapshot())

	rep, err := h.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", rep.RunID)
	assert.Equal(t, allocation.Allocated, rep.Result.Outcome)

	require.Len(t, h.store.saved, 1)
	out := h.store.saved[0]
	assert.Equal(t, "run-1", out.Summary.RunID)
	assert.Len(t, out.Schedule, 2)
	assert.Equal(t, 3, out.Summary.Requested)
	assert.Equal(t, 2, out.Summary.Placed)

	require.Len(t, h.sink.runs, 1)
	assert.Equal(t, "allocated", h.sink.runs[0].Outcome)
	assert.Equal(t, 2, h.sink.runs[0].NewLessons)
	require.Len(t, h.sink.rows, 1)
	assert.Contains(t, h.sink.rows[0].Rows, "base")
	require.Len(t, h.sink.fulfil, 1)
	assert.Len(t, h.sink.fulfil[0].Requests, 2)
	assert.Equal(t, 1, h.sink.flushed)

	require.Len(t, h.pub.Notices, 1)
	notice := h.pub.Notices[0]
	assert.Equal(t, "run-1", notice.RunID)
	require.Len(t, notice.Unallocated, 1)
	assert.Equal(t, 2, notice.Unallocated[0].StudentID)
	assert.Equal(t, 1, notice.Unallocated[0].Deficit)

	recs, err := h.svc.History(context.Background(), runlog.Query{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "allocated", recs[0].Outcome)
	assert.Equal(t, 66.7, recs[0].Percent)
	assert.Empty(t, recs[0].Error)
}

func TestRun_NoDemand(t *testing.T) {
	snap := fixture.New().
		Subject(1, "Math").Student(1, "Alice").Teacher(1, "Sato").
		Day("2025-04-01", 1, 1).
		Teaches(1, 1).
		Request(1, 1, 1).
		Existing(1, 1, 1, 1).
		Snapshot()
	h := newHarness(t, snap)

	rep, err := h.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, allocation.NoDemand, rep.Result.Outcome)
	require.Len(t, h.store.saved, 1)
	assert.Len(t, h.store.saved[0].Schedule, 1)
	assert.Zero(t, h.store.saved[0].Summary.NewLessons)
	assert.Empty(t, h.pub.Notices[0].Unallocated)
}

type infeasibleModel struct{ vars, rows int }

func (m *infeasibleModel) NewIntVar(float64, float64, string) solver.Var {
	m.vars++
	return solver.Var(m.vars - 1)
}
func (m *infeasibleModel) AddConstraint([]solver.Term, solver.Relation, float64) { m.rows++ }
func (m *infeasibleModel) SetObjective([]solver.Term, bool)                      {}
func (m *infeasibleModel) Solve(context.Context, time.Duration) solver.Status {
	return solver.Infeasible
}
func (m *infeasibleModel) Value(solver.Var) float64 { return 0 }
func (m *infeasibleModel) ObjectiveValue() float64  { return 0 }
func (m *infeasibleModel) NumVars() int             { return m.vars }
func (m *infeasibleModel) NumConstraints() int      { return m.rows }

func init() {
	_ = solver.Register("test-infeasible", func(map[string]any) (solver.Model, error) {
		return &infeasibleModel{}, nil
	})
}

func TestRun_Infeasible(t *testing.T) {
	h := newHarness(t, twoStudents().Snapshot(), func(c *config.Config) { c.Solver.Type = "test-infeasible" })

	rep, err := h.svc.Run(context.Background())
	var se *allocation.SolveError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, solver.Infeasible, se.Status)
	require.NotNil(t, se.Report)
	assert.Equal(t, allocation.Failed, rep.Result.Outcome)
	assert.Empty(t, h.store.saved)

	require.Len(t, h.pub.Notices, 1)
	assert.Equal(t, "failed", h.pub.Notices[0].Outcome)
	assert.Equal(t, "INFEASIBLE", h.pub.Notices[0].Status)

	recs, qerr := h.svc.History(context.Background(), runlog.Query{Outcome: "failed"})
	require.NoError(t, qerr)
	require.Len(t, recs, 1)
	assert.NotEmpty(t, recs[0].Error)
	assert.Positive(t, recs[0].Variables)
}

func TestRun_LoadError(t *testing.T) {
	h := newHarness(t, catalog.Snapshot{})
	h.store.loadErr = store.ErrInputDir

	_, err := h.svc.Run(context.Background())
	require.ErrorIs(t, err, store.ErrInputDir)
	assert.Empty(t, h.sink.runs)
	assert.Empty(t, h.pub.Notices)

	recs, qerr := h.svc.History(context.Background(), runlog.Query{})
	require.NoError(t, qerr)
	require.Len(t, recs, 1)
	assert.Equal(t, "failed", recs[0].Outcome)
}

func TestInspect(t *testing.T) {
	h := newHarness(t, twoStudents().Snapshot())
	ic, diags, err := h.svc.Inspect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, ic.Requests)
	assert.Equal(t, 3, ic.Sessions)
	require.Len(t, ic.Shortfalls, 1)
	assert.Equal(t, model.StudentID(2), ic.Shortfalls[0].Student)
	for _, d := range diags {
		assert.NotEqual(t, diag.Warning, d.Severity, d.String())
		assert.NotEqual(t, diag.TableEmpty, d.Code, d.String())
	}
	assert.Empty(t, h.store.saved)
}

func TestNew_UnknownRunStore(t *testing.T) {
	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.RunLog.Backend = "postgres"
	_, err := New(cfg, WithStore(&memStore{}), WithMetrics(coremetrics.NopSink{}))
	require.Error(t, err)
	assert.False(t, errors.Is(err, store.ErrInputDir))
}
