package catalog

// Table names of the ingested snapshot. They double as file names for the CSV
// store.
const (
	TableSubjects     = "I01_subject"
	TableTimeRanges   = "I02_time_range"
	TableStudents     = "I03_student_list"
	TableTeachers     = "I04_teacher_list"
	TableSlots        = "I05_lesson_slot"
	TableTeachable    = "I06_teachable_subjects"
	TableRequests     = "I07_student_subject"
	TableStudentAvail = "I51_student_availability"
	TableTeacherAvail = "I52_teacher_availability"
	TableConstraints  = "constraint"
	TableAllocated    = "O01_output_allocated_lessons"
	TableUnallocated  = "O02_output_unallocated_lessons"
	TableFulfillment  = "O03_output_fulfillment"
)

// SubjectRecord is a row of the subject table.
type SubjectRecord struct {
	ID   int    `json:"id" validate:"gt=0"`
	Name string `json:"subject_name"`
}

// TimeRangeRecord is a row of the time range table.
type TimeRangeRecord struct {
	ID          int    `json:"id" validate:"gte=0"`
	Description string `json:"description"`
}

// StudentRecord is a row of the student list.
type StudentRecord struct {
	ID                 int    `json:"id" validate:"gt=0"`
	Name               string `json:"student_name"`
	MaxContinuousSlots *int   `json:"max_continuous_slot" validate:"omitempty,gte=0"`
	MaxDailySlots      *int   `json:"max_daily_slot" validate:"omitempty,gte=0"`
}

// TeacherRecord is a row of the teacher list.
type TeacherRecord struct {
	ID                       int    `json:"id" validate:"gt=0"`
	Name                     string `json:"teacher_name"`
	MaxDailySlots            *int   `json:"max_daily_slot" validate:"omitempty,gte=0"`
	MaxContinuousVacantSlots *int   `json:"max_continuous_vacant_slot" validate:"omitempty,gte=0"`
}

// LessonSlotRecord is a row of the lesson slot calendar.
type LessonSlotRecord struct {
	ID          int    `json:"id" validate:"gt=0"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeRangeID int    `json:"time_range_id" validate:"gte=0"`
}

// TeachableRecord states that a teacher may teach a subject.
type TeachableRecord struct {
	TeacherID int `json:"teacher_id" validate:"gt=0"`
	SubjectID int `json:"subject_id" validate:"gt=0"`
}

// DesiredTeacherRecord is one ranked teacher/cap pair of a request row.
type DesiredTeacherRecord struct {
	TeacherID *int `json:"desired_teacher" validate:"omitempty,gt=0"`
	MaxSlots  *int `json:"max_slot" validate:"omitempty,gte=0"`
}

// RequestRecord is a row of the student subject table.
type RequestRecord struct {
	StudentID int                     `json:"student_id" validate:"gt=0"`
	SubjectID int                     `json:"subject_id" validate:"gt=0"`
	Sessions  int                     `json:"sessions" validate:"gte=0"`
	Desired   [3]DesiredTeacherRecord `json:"desired" validate:"dive"`
}

// AvailabilityRecord marks a person reachable in a slot. PersonID is a student
// or teacher id depending on the table.
type AvailabilityRecord struct {
	PersonID int `json:"person_id" validate:"gt=0"`
	SlotID   int `json:"slot_id" validate:"gt=0"`
}

// ConstraintRecord is a row of the constraint table.
type ConstraintRecord struct {
	Code      string   `json:"code" validate:"required"`
	Activated bool     `json:"activated"`
	Value     *float64 `json:"value"`
}

// AllocationRecord is a row of a previously produced allocation table.
type AllocationRecord struct {
	SlotID    int `json:"slot_id" validate:"gt=0"`
	StudentID int `json:"student_id" validate:"gt=0"`
	TeacherID int `json:"teacher_id" validate:"gt=0"`
	SubjectID int `json:"subject_id" validate:"gt=0"`
}

// Snapshot is the raw input of one run, read once from the data store.
type Snapshot struct {
	Subjects     []SubjectRecord
	TimeRanges   []TimeRangeRecord
	Students     []StudentRecord
	Teachers     []TeacherRecord
	Slots        []LessonSlotRecord
	Teachable    []TeachableRecord
	Requests     []RequestRecord
	StudentAvail []AvailabilityRecord
	TeacherAvail []AvailabilityRecord
	Constraints  []ConstraintRecord
	Allocated    []AllocationRecord
}
