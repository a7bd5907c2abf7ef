package model

import "sort"

// ConstraintCode names an optional constraint that can be toggled by the
// constraint table.
type ConstraintCode string

const (
	MaxTeacherDailySlot            ConstraintCode = "max_teacher_daily_slot"
	MaxStudentContinuousSlot       ConstraintCode = "max_student_continuous_slot"
	MaxStudentDailySlot            ConstraintCode = "max_student_daily_slot"
	MaxLessonPerTimeslot           ConstraintCode = "max_lesson_per_timeslot"
	MaxTeacherContinuousVacantSlot ConstraintCode = "max_teacher_continuous_vacant_slot"

	// Codes recognised by the input check but not enforced by the engine.
	MaxStudentSubjectDailySlot     ConstraintCode = "max_student_subject_daily_slot"
	SoftSpreadSubjectAcrossDays    ConstraintCode = "soft_spread_subject_across_days"
	SoftStudentConsecutiveSlots    ConstraintCode = "soft_student_consecutive_slots"
)

// ConstraintScope describes where a constraint takes its limit from.
type ConstraintScope int

const (
	ScopeUnknown ConstraintScope = iota
	// ScopePerPerson reads the limit from a teacher or student attribute.
	ScopePerPerson
	// ScopeGlobal reads the limit from the flag value.
	ScopeGlobal
	// ScopeSoft is a weighted preference; not enforced.
	ScopeSoft
)

func (s ConstraintScope) String() string {
	switch s {
	case ScopePerPerson:
		return "per-person"
	case ScopeGlobal:
		return "global"
	case ScopeSoft:
		return "soft"
	default:
		return "unknown"
	}
}

// Scope classifies the code.
func (c ConstraintCode) Scope() ConstraintScope {
	switch c {
	case MaxTeacherDailySlot, MaxStudentContinuousSlot, MaxStudentDailySlot,
		MaxTeacherContinuousVacantSlot, MaxStudentSubjectDailySlot:
		return ScopePerPerson
	case MaxLessonPerTimeslot:
		return ScopeGlobal
	case SoftSpreadSubjectAcrossDays, SoftStudentConsecutiveSlots:
		return ScopeSoft
	default:
		return ScopeUnknown
	}
}

// Enforced reports whether the engine builds constraints for the code.
func (c ConstraintCode) Enforced() bool {
	switch c {
	case MaxTeacherDailySlot, MaxStudentContinuousSlot, MaxStudentDailySlot,
		MaxLessonPerTimeslot, MaxTeacherContinuousVacantSlot:
		return true
	}
	return false
}

// ConstraintFlag toggles and parameterises an optional constraint.
type ConstraintFlag struct {
	Code      ConstraintCode `json:"code"`
	Activated bool           `json:"activated"`
	Value     *float64       `json:"value,omitempty"`
}

// Flags indexes constraint flags by code.
type Flags map[ConstraintCode]ConstraintFlag

// Active reports whether the code is present and activated.
func (f Flags) Active(code ConstraintCode) bool {
	flag, ok := f[code]
	return ok && flag.Activated
}

// Value returns the numeric parameter of an activated flag.
func (f Flags) Value(code ConstraintCode) (float64, bool) {
	flag, ok := f[code]
	if !ok || !flag.Activated || flag.Value == nil {
		return 0, false
	}
	return *flag.Value, true
}

// Sorted returns the flags ordered by code.
func (f Flags) Sorted() []ConstraintFlag {
	out := make([]ConstraintFlag, 0, len(f))
	for _, fl := range f {
		out = append(out, fl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ActiveCodes lists activated codes in code order.
func (f Flags) ActiveCodes() []ConstraintCode {
	var out []ConstraintCode
	for _, fl := range f.Sorted() {
		if fl.Activated {
			out = append(out, fl.Code)
		}
	}
	return out
}
