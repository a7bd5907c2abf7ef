package model

// Identifiers mirror the integer keys of the ingested tables.
type (
	StudentID   int
	TeacherID   int
	SubjectID   int
	SlotID      int
	TimeRangeID int
)
