package catalog

import (
	"sort"
	"strconv"

	"github.com/kilianp07/lessonalloc/core/model"
)

// Subject returns the subject with the given id.
func (c *Catalog) Subject(id model.SubjectID) (model.Subject, bool) {
	s, ok := c.subjects[id]
	return s, ok
}

// Student returns the student with the given id.
func (c *Catalog) Student(id model.StudentID) (model.Student, bool) {
	s, ok := c.students[id]
	return s, ok
}

// Teacher returns the teacher with the given id.
func (c *Catalog) Teacher(id model.TeacherID) (model.Teacher, bool) {
	t, ok := c.teachers[id]
	return t, ok
}

// Slot returns the slot with the given id.
func (c *Catalog) Slot(id model.SlotID) (model.TimeSlot, bool) {
	s, ok := c.slots[id]
	return s, ok
}

// SlotLabel renders a slot as "<date> (<time range>)". Unknown slots render
// as their id.
func (c *Catalog) SlotLabel(id model.SlotID) string {
	s, ok := c.slots[id]
	if !ok {
		return strconv.Itoa(int(id))
	}
	return s.Label(c.timeRanges[s.TimeRange].Description)
}

// StudentName returns the display name or an empty string.
func (c *Catalog) StudentName(id model.StudentID) string { return c.students[id].Name }

// TeacherName returns the display name or an empty string.
func (c *Catalog) TeacherName(id model.TeacherID) string { return c.teachers[id].Name }

// SubjectName returns the display name or an empty string.
func (c *Catalog) SubjectName(id model.SubjectID) string { return c.subjects[id].Name }

// Students returns all students ordered by id.
func (c *Catalog) Students() []model.Student {
	out := make([]model.Student, 0, len(c.students))
	for _, s := range c.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Teachers returns all teachers ordered by id.
func (c *Catalog) Teachers() []model.Teacher {
	out := make([]model.Teacher, 0, len(c.teachers))
	for _, t := range c.teachers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Slots returns every slot ordered by date, time range and id.
func (c *Catalog) Slots() []model.TimeSlot {
	out := make([]model.TimeSlot, len(c.slotOrder))
	copy(out, c.slotOrder)
	return out
}

// Dates returns the calendar dates that have at least one slot, ascending.
func (c *Catalog) Dates() []string {
	out := make([]string, len(c.dates))
	copy(out, c.dates)
	return out
}

// SlotsOn returns the slots of a date ordered by time range.
func (c *Catalog) SlotsOn(date string) []model.TimeSlot {
	return c.slotsByDate[date]
}

// CanTeach reports whether the teacher may teach the subject.
func (c *Catalog) CanTeach(t model.TeacherID, s model.SubjectID) bool {
	return c.teachable[t][s]
}

// TeachersFor returns the ids of the teachers able to teach the subject,
// ascending.
func (c *Catalog) TeachersFor(s model.SubjectID) []model.TeacherID {
	var out []model.TeacherID
	for tid, subjects := range c.teachable {
		if subjects[s] {
			out = append(out, tid)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// StudentAvailable reports whether the student is reachable in the slot.
func (c *Catalog) StudentAvailable(s model.StudentID, slot model.SlotID) bool {
	return c.studentAvail[s][slot]
}

// TeacherAvailable reports whether the teacher is reachable in the slot.
func (c *Catalog) TeacherAvailable(t model.TeacherID, slot model.SlotID) bool {
	return c.teacherAvail[t][slot]
}

// StudentAvailability returns the student's available slots in calendar
// order.
func (c *Catalog) StudentAvailability(s model.StudentID) []model.SlotID {
	return c.ordered(c.studentAvail[s])
}

// TeacherAvailability returns the teacher's available slots in calendar order.
func (c *Catalog) TeacherAvailability(t model.TeacherID) []model.SlotID {
	return c.ordered(c.teacherAvail[t])
}

// StudentsWithAvailability counts students with at least one available slot.
func (c *Catalog) StudentsWithAvailability() map[model.StudentID]int {
	out := make(map[model.StudentID]int, len(c.studentAvail))
	for sid, set := range c.studentAvail {
		out[sid] = len(set)
	}
	return out
}

// TeachersWithAvailability counts available slots per teacher.
func (c *Catalog) TeachersWithAvailability() map[model.TeacherID]int {
	out := make(map[model.TeacherID]int, len(c.teacherAvail))
	for tid, set := range c.teacherAvail {
		out[tid] = len(set)
	}
	return out
}

func (c *Catalog) ordered(set map[model.SlotID]bool) []model.SlotID {
	if len(set) == 0 {
		return nil
	}
	out := make([]model.SlotID, 0, len(set))
	for _, s := range c.slotOrder {
		if set[s.ID] {
			out = append(out, s.ID)
		}
	}
	return out
}

// Requests returns the demand lines ordered by student then subject.
func (c *Catalog) Requests() []model.Request {
	out := make([]model.Request, len(c.requests))
	copy(out, c.requests)
	return out
}

// Flags returns the constraint flags.
func (c *Catalog) Flags() model.Flags { return c.flags }

// Existing returns the fixed allocations of previous runs in input order.
func (c *Catalog) Existing() []model.Allocation {
	out := make([]model.Allocation, len(c.existing))
	copy(out, c.existing)
	return out
}

// StudentBusy reports whether an existing allocation occupies the student in
// the slot.
func (c *Catalog) StudentBusy(s model.StudentID, slot model.SlotID) bool {
	return c.studentBusy[s][slot]
}

// TeacherBusy reports whether an existing allocation occupies the teacher in
// the slot.
func (c *Catalog) TeacherBusy(t model.TeacherID, slot model.SlotID) bool {
	return c.teacherBusy[t][slot]
}

// TeacherBusyCount returns the number of slots a teacher already teaches in.
func (c *Catalog) TeacherBusyCount(t model.TeacherID) int { return len(c.teacherBusy[t]) }

// ExistingFor counts existing allocations of a demand line.
func (c *Catalog) ExistingFor(k model.RequestKey) int { return c.existingByReq[k] }

// ExistingForTeacher counts existing allocations of a (student, subject,
// teacher) triple.
func (c *Catalog) ExistingForTeacher(k model.TeacherKey) int { return c.existingByTKey[k] }

// ExistingAt counts existing allocations in a slot across all people.
func (c *Catalog) ExistingAt(slot model.SlotID) int { return c.existingPerSlot[slot] }
