package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lessonalloc/core/candidate"
	"github.com/kilianp07/lessonalloc/core/demand"
	"github.com/kilianp07/lessonalloc/core/diag"
	"github.com/kilianp07/lessonalloc/core/model"
	"github.com/kilianp07/lessonalloc/core/solver"
	"github.com/kilianp07/lessonalloc/internal/fixture"
)

func reportFixture() *fixture.Builder {
	return fixture.New().
		Subject(1, "Math").Subject(2, "English").
		Student(1, "Alice").Student(2, "Bob").
		Teacher(1, "Sato").Teacher(2, "Suzuki").
		Day("2025-04-01", 1, 3).
		Teaches(1, 1).Teaches(2, 2).
		Request(2, 1, 3).
		Request(1, 1, 2).
		Request(1, 2, 1).
		StudentAvail(1, 1, 2, 3).StudentAvail(2, 3).
		TeacherAvail(1, 1, 2, 3).
		Existing(2, 1, 1, 1).
		Constraint(string(model.MaxLessonPerTimeslot), true, fixture.Float(4)).
		Constraint(string(model.SoftSpreadSubjectAcrossDays), true, fixture.Float(1)).
		Constraint(string(model.MaxTeacherDailySlot), false, nil)
}

func TestReconcile(t *testing.T) {
	d := diag.New()
	c := reportFixture().Catalog(d)
	res, err := demand.Resolve(c)
	require.NoError(t, err)
	space := candidate.Build(c, res, d)

	added := []model.Allocation{
		{Slot: 3, Student: 2, Teacher: 1, Subject: 1},
		{Slot: 1, Student: 1, Teacher: 1, Subject: 1},
	}
	rec := Reconcile(c, res, space, added)

	require.Len(t, rec.Schedule, 3)
	assert.Equal(t, model.SlotID(1), rec.Schedule[0].Slot)
	assert.Equal(t, model.SlotID(2), rec.Schedule[1].Slot)
	assert.False(t, rec.Schedule[1].New)
	assert.True(t, rec.Schedule[2].New)
	assert.Equal(t, "2025-04-01 (P3)", rec.Schedule[2].SlotLabel)
	assert.Equal(t, "Bob", rec.Schedule[2].StudentName)
	assert.Equal(t, 2, rec.NewLessons())

	require.Len(t, rec.Requests, 3)
	alice := rec.Requests[0]
	assert.Equal(t, 2, alice.Placed)
	assert.Equal(t, 1, alice.Existing)
	assert.Zero(t, alice.Deficit)
	assert.Equal(t, 100.0, alice.Percent())

	english := rec.Requests[1]
	assert.Equal(t, model.SubjectID(2), english.Subject)
	assert.Equal(t, ReasonNoCandidate, english.Reason)

	bob := rec.Requests[2]
	assert.Equal(t, 2, bob.Deficit)
	assert.Equal(t, ReasonCapacity, bob.Reason)
	assert.Equal(t, 33.3, bob.Percent())

	assert.Equal(t, 6, rec.Requested)
	assert.Equal(t, 3, rec.Placed)
	assert.Equal(t, 50.0, rec.Percent())
	assert.Len(t, rec.Unallocated(), 2)
}

func TestReconcile_NoDemand(t *testing.T) {
	c := fixture.New().
		Subject(1, "Math").Student(1, "Alice").Teacher(1, "Sato").
		Day("2025-04-01", 1, 1).
		Request(1, 1, 1).
		Existing(1, 1, 1, 1).
		Catalog(nil)
	rec := Reconcile(c, nil, nil, nil)
	require.Len(t, rec.Schedule, 1)
	assert.Empty(t, rec.Unallocated())
	assert.Equal(t, 100.0, rec.Percent())
}

func TestReconcile_ZeroSessions(t *testing.T) {
	c := fixture.New().Subject(1, "Math").Student(1, "Alice").Request(1, 1, 0).Catalog(nil)
	rec := Reconcile(c, nil, nil, nil)
	require.Len(t, rec.Requests, 1)
	assert.Zero(t, rec.Requests[0].Ratio)
	assert.Zero(t, rec.Ratio)
}

func TestFailure(t *testing.T) {
	d := diag.New()
	c := reportFixture().Catalog(d)
	res, err := demand.Resolve(c)
	require.NoError(t, err)
	space := candidate.Build(c, res, d)

	fr := Failure(c, res, space, solver.Infeasible, space.Len(), 12)
	assert.Equal(t, "INFEASIBLE", fr.StatusName)
	require.Len(t, fr.Requests, 3)
	assert.Equal(t, 1, fr.Requests[0].Required)
	assert.Equal(t, 2, fr.Requests[0].CandidateSlots)
	assert.True(t, fr.Requests[1].Short())
	require.Len(t, fr.Teachers, 2)
	assert.Equal(t, 1, fr.Teachers[0].Existing)
	require.Len(t, fr.Flags, 3)
	assert.Equal(t, model.MaxLessonPerTimeslot, fr.Flags[0].Code)

	var buf bytes.Buffer
	require.NoError(t, fr.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "solver status: INFEASIBLE")
	assert.Contains(t, out, "[SHORT] Alice x English")
	assert.Contains(t, out, "[off] max_teacher_daily_slot")
	assert.Contains(t, out, "4. relax the value")
}

func TestCheck(t *testing.T) {
	c := reportFixture().Catalog(nil)
	ic := Check(c)
	assert.Equal(t, 3, ic.Requests)
	assert.Equal(t, 2, ic.Students)
	assert.Equal(t, 6, ic.Sessions)
	assert.Equal(t, 2, ic.StudentsWithAvailability)
	assert.Equal(t, 2.0, ic.AvgStudentSlots)
	require.Len(t, ic.Shortfalls, 1)
	assert.Equal(t, Shortfall{Student: 2, Name: "Bob", Requested: 3, Available: 1}, ic.Shortfalls[0])
	assert.Equal(t, 2, ic.Active)
	assert.Equal(t, 1, ic.Inactive)

	var buf bytes.Buffer
	require.NoError(t, ic.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "Bob requested 3 sessions but is available in 1 slots")
	assert.Contains(t, out, "max_lesson_per_timeslot (global: 4)")
	assert.Contains(t, out, "soft_spread_subject_across_days (soft, not enforced)")
}
