package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lessonalloc/core/catalog"
	"github.com/kilianp07/lessonalloc/core/model"
	"github.com/kilianp07/lessonalloc/core/report"
	"github.com/kilianp07/lessonalloc/pkg/export"
)

func writeTable(t *testing.T, dir, table, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, table+".csv"), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", table, err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, catalog.TableSubjects, "\ufeffid,subject_name\n1,Math\n2,English\n")
	writeTable(t, dir, catalog.TableStudents, "id,student_name,max_continuous_slot,max_daily_slot\n1,Alice,2,3\n2,Bob,,\n")
	writeTable(t, dir, catalog.TableTeachers, "id,teacher_name,max_daily_slot,max_continuous_vacant_slot\n1,Sato,4.0,1\n")
	writeTable(t, dir, catalog.TableSlots, "id,date,time_range_id\n1,2025-04-01,1\n2,2025-04-01,2\n")
	writeTable(t, dir, catalog.TableRequests,
		"student_id,subject_id,sessions,desired_teacher_1,max_slot_1,desired_teacher_2,max_slot_2,desired_teacher_3,max_slot_3\n"+
			"1,1,2,1,2,,,,\n"+
			",,,,,,,,\n")
	writeTable(t, dir, catalog.TableStudentAvail, "student_id,slot_id\n1,1\n1,2\n")
	writeTable(t, dir, catalog.TableConstraints, "code,description,activated,value\nmax_lesson_per_timeslot,booths,TRUE,3\nmax_teacher_daily_slot,cap,FALSE,\n")

	snap, err := NewCSVStore(dir, dir, nil).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Subjects, 2)
	assert.Equal(t, "Math", snap.Subjects[0].Name)
	require.Len(t, snap.Students, 2)
	require.NotNil(t, snap.Students[0].MaxDailySlots)
	assert.Equal(t, 3, *snap.Students[0].MaxDailySlots)
	assert.Nil(t, snap.Students[1].MaxContinuousSlots)
	require.NotNil(t, snap.Teachers[0].MaxDailySlots)
	assert.Equal(t, 4, *snap.Teachers[0].MaxDailySlots)
	require.Len(t, snap.Requests, 1, "blank rows are skipped")
	require.NotNil(t, snap.Requests[0].Desired[0].TeacherID)
	assert.Equal(t, 1, *snap.Requests[0].Desired[0].TeacherID)
	assert.Nil(t, snap.Requests[0].Desired[1].TeacherID)
	assert.Len(t, snap.StudentAvail, 2)
	assert.Empty(t, snap.TeacherAvail, "missing file is an empty table")
	assert.Empty(t, snap.Allocated)
	require.Len(t, snap.Constraints, 2)
	assert.True(t, snap.Constraints[0].Activated)
	require.NotNil(t, snap.Constraints[0].Value)
	assert.Equal(t, 3.0, *snap.Constraints[0].Value)
	assert.False(t, snap.Constraints[1].Activated)
	assert.Nil(t, snap.Constraints[1].Value)
}

func TestLoad_MalformedNumbersBecomeZero(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, catalog.TableSubjects, "id,subject_name\nabc,Math\n1.5,Art\n")
	snap, err := NewCSVStore(dir, dir, nil).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Subjects, 2)
	assert.Zero(t, snap.Subjects[0].ID)
	assert.Zero(t, snap.Subjects[1].ID)
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := NewCSVStore(filepath.Join(t.TempDir(), "nope"), "", nil).Load(context.Background())
	assert.True(t, errors.Is(err, ErrInputDir))
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCSVStore(t.TempDir(), "", nil).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSaveThenLoadPreviousAllocation(t *testing.T) {
	dir := t.TempDir()
	rec := &report.Reconciliation{
		Schedule: []report.Lesson{
			{Allocation: model.Allocation{Slot: 1, Student: 1, Teacher: 1, Subject: 1}, SlotLabel: "2025-04-01 (P1)", StudentName: "Alice", TeacherName: "Sato", SubjectName: "Math", New: true},
		},
		Requests: []report.RequestOutcome{
			{Student: 1, Subject: 1, Requested: 2, New: 1, Placed: 1, Deficit: 1, Reason: report.ReasonCapacity, Ratio: 0.5},
		},
		Requested: 2,
		Placed:    1,
		Ratio:     0.5,
	}
	s := NewCSVStore(dir, dir, nil)
	out := Output{Summary: export.NewSummary("r1", "allocated", "OPTIMAL", rec), Schedule: rec.Schedule, Requests: rec.Requests}
	require.NoError(t, s.Save(context.Background(), out))

	for _, name := range []string{catalog.TableAllocated + ".csv", catalog.TableUnallocated + ".csv", catalog.TableFulfillment + ".csv", SummaryFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "."), "temporary file left behind: %s", e.Name())
	}

	data, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	require.NoError(t, err)
	var sum export.Summary
	require.NoError(t, json.Unmarshal(data, &sum))
	assert.Equal(t, 50.0, sum.Percent)

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Allocated, 1)
	assert.Equal(t, catalog.AllocationRecord{SlotID: 1, StudentID: 1, TeacherID: 1, SubjectID: 1}, snap.Allocated[0])
}

func TestSave_RegeneratesTables(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVStore(dir, dir, nil)
	full := Output{
		Summary:  export.NewSummary("", "allocated", "OPTIMAL", &report.Reconciliation{}),
		Schedule: []report.Lesson{{Allocation: model.Allocation{Slot: 1, Student: 1, Teacher: 1, Subject: 1}}},
	}
	require.NoError(t, s.Save(context.Background(), full))
	empty := Output{Summary: export.NewSummary("", "no_demand", "OPTIMAL", &report.Reconciliation{})}
	require.NoError(t, s.Save(context.Background(), empty))

	data, err := os.ReadFile(filepath.Join(dir, catalog.TableAllocated+".csv"))
	require.NoError(t, err)
	assert.Equal(t, strings.Join(export.AllocatedHeader, ",")+"\n", string(data))
}
