// Package candidate enumerates the feasible (student, subject, teacher, slot)
// tuples of a resolved demand. Each tuple becomes one binary decision
// variable of the allocation model.
package candidate

import (
	"strconv"

	"github.com/kilianp07/lessonalloc/core/catalog"
	"github.com/kilianp07/lessonalloc/core/demand"
	"github.com/kilianp07/lessonalloc/core/diag"
	"github.com/kilianp07/lessonalloc/core/model"
)

// Key identifies a candidate lesson.
type Key struct {
	Student model.StudentID
	Subject model.SubjectID
	Teacher model.TeacherID
	Slot    model.SlotID
}

// Request returns the demand line of the candidate.
func (k Key) Request() model.RequestKey {
	return model.RequestKey{Student: k.Student, Subject: k.Subject}
}

// TeacherKey returns the (student, subject, teacher) triple of the candidate.
func (k Key) TeacherKey() model.TeacherKey {
	return model.TeacherKey{Student: k.Student, Subject: k.Subject, Teacher: k.Teacher}
}

// Allocation converts the key into an allocation.
func (k Key) Allocation() model.Allocation {
	return model.Allocation{Slot: k.Slot, Student: k.Student, Teacher: k.Teacher, Subject: k.Subject}
}

// StudentSlot pairs a student with a slot.
type StudentSlot struct {
	Student model.StudentID
	Slot    model.SlotID
}

// TeacherSlot pairs a teacher with a slot.
type TeacherSlot struct {
	Teacher model.TeacherID
	Slot    model.SlotID
}

// Space holds the candidates in generation order together with secondary
// indices. Index values are positions in Keys.
type Space struct {
	Keys []Key
	// Rank is the preference rank of the candidate's teacher (0 when the
	// teacher came from the teachable relation).
	Rank []int

	index         map[Key]int
	byRequest     map[model.RequestKey][]int
	byTeacherKey  map[model.TeacherKey][]int
	byStudentSlot map[StudentSlot][]int
	byTeacherSlot map[TeacherSlot][]int
	byTeacher     map[model.TeacherID][]int
	byStudent     map[model.StudentID][]int
	bySlot        map[model.SlotID][]int
}

// Build enumerates candidates for every resolved request. Teachers that
// cannot teach the subject are skipped with an info diagnostic, guarding
// against stale preference data.
func Build(c *catalog.Catalog, res *demand.Resolution, d *diag.Collector) *Space {
	s := &Space{index: make(map[Key]int)}
	for _, req := range res.Requests {
		avail := c.StudentAvailability(req.Student)
		for _, et := range req.Teachers {
			if !c.CanTeach(et.Teacher, req.Subject) {
				d.Infof(diag.TeacherNotCapable, map[string]string{
					"student": strconv.Itoa(int(req.Student)),
					"subject": strconv.Itoa(int(req.Subject)),
					"teacher": strconv.Itoa(int(et.Teacher)),
				}, "teacher %d cannot teach subject %d requested by student %d", et.Teacher, req.Subject, req.Student)
				continue
			}
			if et.EffectiveCap(req.Remaining) <= 0 {
				continue
			}
			for _, slot := range avail {
				if !c.TeacherAvailable(et.Teacher, slot) {
					continue
				}
				if c.StudentBusy(req.Student, slot) || c.TeacherBusy(et.Teacher, slot) {
					continue
				}
				s.add(Key{Student: req.Student, Subject: req.Subject, Teacher: et.Teacher, Slot: slot}, et.Rank)
			}
		}
	}
	s.buildIndices()
	return s
}

func (s *Space) add(k Key, rank int) {
	if _, dup := s.index[k]; dup {
		return
	}
	s.index[k] = len(s.Keys)
	s.Keys = append(s.Keys, k)
	s.Rank = append(s.Rank, rank)
}

func (s *Space) buildIndices() {
	s.byRequest = make(map[model.RequestKey][]int)
	s.byTeacherKey = make(map[model.TeacherKey][]int)
	s.byStudentSlot = make(map[StudentSlot][]int)
	s.byTeacherSlot = make(map[TeacherSlot][]int)
	s.byTeacher = make(map[model.TeacherID][]int)
	s.byStudent = make(map[model.StudentID][]int)
	s.bySlot = make(map[model.SlotID][]int)
	for i, k := range s.Keys {
		s.byRequest[k.Request()] = append(s.byRequest[k.Request()], i)
		s.byTeacherKey[k.TeacherKey()] = append(s.byTeacherKey[k.TeacherKey()], i)
		ss := StudentSlot{Student: k.Student, Slot: k.Slot}
		s.byStudentSlot[ss] = append(s.byStudentSlot[ss], i)
		ts := TeacherSlot{Teacher: k.Teacher, Slot: k.Slot}
		s.byTeacherSlot[ts] = append(s.byTeacherSlot[ts], i)
		s.byTeacher[k.Teacher] = append(s.byTeacher[k.Teacher], i)
		s.byStudent[k.Student] = append(s.byStudent[k.Student], i)
		s.bySlot[k.Slot] = append(s.bySlot[k.Slot], i)
	}
}

// Len returns the number of candidates.
func (s *Space) Len() int { return len(s.Keys) }

// Lookup returns the position of a key.
func (s *Space) Lookup(k Key) (int, bool) {
	i, ok := s.index[k]
	return i, ok
}

// ForRequest returns the candidates of a demand line.
func (s *Space) ForRequest(k model.RequestKey) []int { return s.byRequest[k] }

// ForTeacherKey returns the candidates of a (student, subject, teacher) triple.
func (s *Space) ForTeacherKey(k model.TeacherKey) []int { return s.byTeacherKey[k] }

// ForStudentSlot returns the candidates placing the student in the slot.
func (s *Space) ForStudentSlot(st model.StudentID, slot model.SlotID) []int {
	return s.byStudentSlot[StudentSlot{Student: st, Slot: slot}]
}

// ForTeacherSlot returns the candidates placing the teacher in the slot.
func (s *Space) ForTeacherSlot(t model.TeacherID, slot model.SlotID) []int {
	return s.byTeacherSlot[TeacherSlot{Teacher: t, Slot: slot}]
}

// ForTeacher returns all candidates of a teacher.
func (s *Space) ForTeacher(t model.TeacherID) []int { return s.byTeacher[t] }

// ForStudent returns all candidates of a student.
func (s *Space) ForStudent(st model.StudentID) []int { return s.byStudent[st] }

// ForSlot returns all candidates in a slot.
func (s *Space) ForSlot(slot model.SlotID) []int { return s.bySlot[slot] }

// StudentSlots lists the distinct (student, slot) pairs in first-seen order.
func (s *Space) StudentSlots() []StudentSlot {
	var out []StudentSlot
	seen := make(map[StudentSlot]bool)
	for _, k := range s.Keys {
		ss := StudentSlot{Student: k.Student, Slot: k.Slot}
		if seen[ss] {
			continue
		}
		seen[ss] = true
		out = append(out, ss)
	}
	return out
}

// TeacherSlots lists the distinct (teacher, slot) pairs in first-seen order.
func (s *Space) TeacherSlots() []TeacherSlot {
	var out []TeacherSlot
	seen := make(map[TeacherSlot]bool)
	for _, k := range s.Keys {
		ts := TeacherSlot{Teacher: k.Teacher, Slot: k.Slot}
		if seen[ts] {
			continue
		}
		seen[ts] = true
		out = append(out, ts)
	}
	return out
}

// DistinctSlots counts the distinct slots among the given candidates.
func (s *Space) DistinctSlots(idx []int) int {
	seen := make(map[model.SlotID]bool)
	for _, i := range idx {
		seen[s.Keys[i].Slot] = true
	}
	return len(seen)
}

// DistinctTeachers counts the distinct teachers among the given candidates.
func (s *Space) DistinctTeachers(idx []int) int {
	seen := make(map[model.TeacherID]bool)
	for _, i := range idx {
		seen[s.Keys[i].Teacher] = true
	}
	return len(seen)
}
