package model

// Teacher is a tutor. Limit attributes are optional; a nil value disables the
// related optional constraint for this teacher.
type Teacher struct {
	ID                       TeacherID
	Name                     string
	MaxDailySlots            *int
	MaxContinuousVacantSlots *int
}

// Student attends lessons. Limit attributes are optional.
type Student struct {
	ID                 StudentID
	Name               string
	MaxContinuousSlots *int
	MaxDailySlots      *int
}

// Subject is a teachable course.
type Subject struct {
	ID   SubjectID
	Name string
}

// IntPtr is a helper for optional limits.
func IntPtr(v int) *int { return &v }
