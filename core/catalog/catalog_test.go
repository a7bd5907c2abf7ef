package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lessonalloc/core/catalog"
	"github.com/kilianp07/lessonalloc/core/diag"
	"github.com/kilianp07/lessonalloc/core/model"
	"github.com/kilianp07/lessonalloc/internal/fixture"
)

func TestNormalize_EmptySnapshotWarnsPerTable(t *testing.T) {
	d := diag.New()
	c := catalog.Normalize(catalog.Snapshot{}, d)
	require.NotNil(t, c)
	empties := d.ByCode(diag.TableEmpty)
	assert.Len(t, empties, 10)
	assert.Equal(t, catalog.TableSubjects, empties[0].Fields["table"])
	assert.Equal(t, catalog.TableConstraints, empties[9].Fields["table"])
	assert.Empty(t, c.Requests())
	assert.Empty(t, c.Existing())
}

func TestNormalize_IndexesAndOrdering(t *testing.T) {
	d := diag.New()
	c := fixture.New().
		Subject(1, "Math").
		Student(2, "Bob").Student(1, "Alice").
		Teacher(9, "Tanaka").Teacher(3, "Sato").
		Slot(12, "2025-04-02", 2).Slot(11, "2025-04-02", 1).Slot(10, "2025-04-01", 3).
		TimeRange(1, "16:00").TimeRange(2, "17:30").TimeRange(3, "19:00").
		Teaches(9, 1).Teaches(3, 1).
		Request(2, 1, 2).Request(1, 1, 1, fixture.Desired(9, 1)).
		StudentAvail(1, 12, 10).
		TeacherAvail(9, 11).
		Constraint("max_lesson_per_timeslot", true, fixture.Float(4)).
		Existing(11, 2, 9, 1).
		Catalog(d)

	ids := func(slots []model.TimeSlot) []model.SlotID {
		var out []model.SlotID
		for _, s := range slots {
			out = append(out, s.ID)
		}
		return out
	}
	assert.Equal(t, []model.SlotID{10, 11, 12}, ids(c.Slots()))
	assert.Equal(t, []string{"2025-04-01", "2025-04-02"}, c.Dates())
	assert.Equal(t, []model.SlotID{11, 12}, ids(c.SlotsOn("2025-04-02")))
	assert.Equal(t, []model.TeacherID{3, 9}, c.TeachersFor(1))
	assert.Equal(t, []model.SlotID{10, 12}, c.StudentAvailability(1))
	assert.True(t, c.TeacherAvailable(9, 11))
	assert.True(t, c.CanTeach(9, 1))
	assert.False(t, c.CanTeach(9, 2))

	reqs := c.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, model.StudentID(1), reqs[0].Student)
	require.Len(t, reqs[0].Desired, 1)
	assert.Equal(t, 1, *reqs[0].Desired[0].MaxSlots)

	assert.True(t, c.StudentBusy(2, 11))
	assert.True(t, c.TeacherBusy(9, 11))
	assert.Equal(t, 1, c.ExistingFor(model.RequestKey{Student: 2, Subject: 1}))
	assert.Equal(t, 1, c.ExistingAt(11))
	assert.Equal(t, "2025-04-02 (16:00)", c.SlotLabel(11))
	assert.Equal(t, "99", c.SlotLabel(99))

	v, ok := c.Flags().Value(model.MaxLessonPerTimeslot)
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)
	assert.Zero(t, d.Warnings())
}

func TestNormalize_InvalidAndDanglingRecords(t *testing.T) {
	d := diag.New()
	b := fixture.New().
		Subject(1, "Math").
		Slot(1, "2025-04-01", 1).
		Slot(2, "01/04/2025", 2).
		Student(1, "Alice").
		Request(1, 1, 1).
		Request(1, 1, 3).
		Request(0, 0, 0).
		Request(1, 2, -1).
		StudentAvail(1, 1, 42)
	c := b.Catalog(d)

	invalid := d.ByCode(diag.RecordInvalid)
	require.Len(t, invalid, 2)
	assert.Equal(t, catalog.TableSlots, invalid[0].Fields["table"])
	assert.Contains(t, invalid[0].Message, "Date failed datetime")
	assert.Equal(t, catalog.TableRequests, invalid[1].Fields["table"])

	dup := d.ByCode(diag.DuplicateRequest)
	require.Len(t, dup, 1)
	assert.Equal(t, "2", dup[0].Fields["row"])

	unknown := d.ByCode(diag.UnknownReference)
	require.Len(t, unknown, 1)
	assert.Equal(t, "42", unknown[0].Fields["slot"])

	reqs := c.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, 1, reqs[0].Sessions)
	assert.Equal(t, []model.SlotID{1}, c.StudentAvailability(1))
}
