package model

// Allocation is one lesson: a student taking a subject with a teacher in a
// slot. Allocations from previous runs are fixed inputs; new ones are produced
// by the engine.
type Allocation struct {
	Slot    SlotID    `json:"slot_id"`
	Student StudentID `json:"student_id"`
	Teacher TeacherID `json:"teacher_id"`
	Subject SubjectID `json:"subject_id"`
}

// Request returns the demand line the allocation counts toward.
func (a Allocation) Request() RequestKey { return RequestKey{Student: a.Student, Subject: a.Subject} }

// TeacherKey returns the (student, subject, teacher) triple of the allocation.
func (a Allocation) TeacherKey() TeacherKey {
	return TeacherKey{Student: a.Student, Subject: a.Subject, Teacher: a.Teacher}
}
