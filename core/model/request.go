package model

// MaxDesiredTeachers is the number of ranked teacher preferences a request can
// carry.
const MaxDesiredTeachers = 3

// DesiredTeacher is a ranked teacher preference with an optional cap on the
// number of sessions that teacher may give for the request.
type DesiredTeacher struct {
	Teacher  TeacherID
	MaxSlots *int
}

// Request is a (student, subject) demand line. Desired is in rank order; when
// empty, any teacher able to teach the subject is eligible.
type Request struct {
	Student  StudentID
	Subject  SubjectID
	Sessions int
	Desired  []DesiredTeacher
}

// Key returns the (student, subject) pair identifying the request.
func (r Request) Key() RequestKey { return RequestKey{Student: r.Student, Subject: r.Subject} }

// RequestKey identifies a demand line.
type RequestKey struct {
	Student StudentID
	Subject SubjectID
}

// Less orders request keys by student then subject.
func (k RequestKey) Less(o RequestKey) bool {
	if k.Student != o.Student {
		return k.Student < o.Student
	}
	return k.Subject < o.Subject
}

// TeacherKey identifies a (student, subject, teacher) triple used by the
// per-teacher session caps.
type TeacherKey struct {
	Student StudentID
	Subject SubjectID
	Teacher TeacherID
}
