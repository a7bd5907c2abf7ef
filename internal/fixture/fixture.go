// Package fixture builds small snapshots for tests.
package fixture

import (
	"fmt"

	"github.com/kilianp07/lessonalloc/core/catalog"
	"github.com/kilianp07/lessonalloc/core/diag"
)

// Builder accumulates snapshot records.
type Builder struct {
	snap catalog.Snapshot
}

// New returns an empty builder.
func New() *Builder { return &Builder{} }

// Subject adds a subject.
func (b *Builder) Subject(id int, name string) *Builder {
	b.snap.Subjects = append(b.snap.Subjects, catalog.SubjectRecord{ID: id, Name: name})
	return b
}

// TimeRange adds a time range.
func (b *Builder) TimeRange(id int, desc string) *Builder {
	b.snap.TimeRanges = append(b.snap.TimeRanges, catalog.TimeRangeRecord{ID: id, Description: desc})
	return b
}

// Student adds a student without limits.
func (b *Builder) Student(id int, name string) *Builder {
	return b.StudentRecord(catalog.StudentRecord{ID: id, Name: name})
}

// StudentRecord adds a student record as is.
func (b *Builder) StudentRecord(r catalog.StudentRecord) *Builder {
	b.snap.Students = append(b.snap.Students, r)
	return b
}

// Teacher adds a teacher without limits.
func (b *Builder) Teacher(id int, name string) *Builder {
	return b.TeacherRecord(catalog.TeacherRecord{ID: id, Name: name})
}

// TeacherRecord adds a teacher record as is.
func (b *Builder) TeacherRecord(r catalog.TeacherRecord) *Builder {
	b.snap.Teachers = append(b.snap.Teachers, r)
	return b
}

// Slot adds a lesson slot.
func (b *Builder) Slot(id int, date string, timeRange int) *Builder {
	b.snap.Slots = append(b.snap.Slots, catalog.LessonSlotRecord{ID: id, Date: date, TimeRangeID: timeRange})
	return b
}

// Day adds n consecutive slots on date with ids firstID.. and time ranges 1..n.
// Missing time ranges are created.
func (b *Builder) Day(date string, firstID, n int) *Builder {
	for i := 0; i < n; i++ {
		b.Slot(firstID+i, date, i+1)
		b.ensureTimeRange(i + 1)
	}
	return b
}

func (b *Builder) ensureTimeRange(id int) {
	for _, tr := range b.snap.TimeRanges {
		if tr.ID == id {
			return
		}
	}
	b.TimeRange(id, fmt.Sprintf("P%d", id))
}

// Teaches marks the teacher as able to teach the subjects.
func (b *Builder) Teaches(teacher int, subjects ...int) *Builder {
	for _, s := range subjects {
		b.snap.Teachable = append(b.snap.Teachable, catalog.TeachableRecord{TeacherID: teacher, SubjectID: s})
	}
	return b
}

// Request adds a demand line with optional ranked desired teachers.
func (b *Builder) Request(student, subject, sessions int, desired ...catalog.DesiredTeacherRecord) *Builder {
	r := catalog.RequestRecord{StudentID: student, SubjectID: subject, Sessions: sessions}
	copy(r.Desired[:], desired)
	b.snap.Requests = append(b.snap.Requests, r)
	return b
}

// Desired builds a ranked teacher preference; maxSlots < 0 means no cap.
func Desired(teacher, maxSlots int) catalog.DesiredTeacherRecord {
	d := catalog.DesiredTeacherRecord{TeacherID: &teacher}
	if maxSlots >= 0 {
		d.MaxSlots = &maxSlots
	}
	return d
}

// StudentAvail marks the student available in the slots.
func (b *Builder) StudentAvail(student int, slots ...int) *Builder {
	for _, s := range slots {
		b.snap.StudentAvail = append(b.snap.StudentAvail, catalog.AvailabilityRecord{PersonID: student, SlotID: s})
	}
	return b
}

// TeacherAvail marks the teacher available in the slots.
func (b *Builder) TeacherAvail(teacher int, slots ...int) *Builder {
	for _, s := range slots {
		b.snap.TeacherAvail = append(b.snap.TeacherAvail, catalog.AvailabilityRecord{PersonID: teacher, SlotID: s})
	}
	return b
}

// Constraint adds a constraint flag. A nil value leaves the flag without a
// numeric parameter.
func (b *Builder) Constraint(code string, activated bool, value *float64) *Builder {
	b.snap.Constraints = append(b.snap.Constraints, catalog.ConstraintRecord{Code: code, Activated: activated, Value: value})
	return b
}

// Existing adds a fixed allocation from a previous run.
func (b *Builder) Existing(slot, student, teacher, subject int) *Builder {
	b.snap.Allocated = append(b.snap.Allocated, catalog.AllocationRecord{
		SlotID: slot, StudentID: student, TeacherID: teacher, SubjectID: subject,
	})
	return b
}

// Snapshot returns a copy of the accumulated snapshot.
func (b *Builder) Snapshot() catalog.Snapshot { return b.snap }

// Catalog normalises the snapshot, collecting diagnostics into d.
func (b *Builder) Catalog(d *diag.Collector) *catalog.Catalog {
	return catalog.Normalize(b.snap, d)
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
