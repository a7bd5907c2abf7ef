package report

import (
	"io"
	"sort"

	"github.com/kilianp07/lessonalloc/core/catalog"
	"github.com/kilianp07/lessonalloc/core/model"
)

// Shortfall is a student who requested more sessions than available slots.
type Shortfall struct {
	Student   model.StudentID `json:"student_id"`
	Name      string          `json:"student"`
	Requested int             `json:"requested"`
	Available int             `json:"available"`
}

// FlagCheck classifies one constraint flag.
type FlagCheck struct {
	model.ConstraintFlag
	Scope    string `json:"scope"`
	Enforced bool   `json:"enforced"`
}

// InputCheck summarises a catalog before any model is built.
type InputCheck struct {
	Requests        int `json:"requests"`
	Students        int `json:"students"`
	Sessions        int `json:"sessions"`
	WithPreferences int `json:"with_preferences"`

	StudentsWithAvailability int         `json:"students_with_availability"`
	AvgStudentSlots          float64     `json:"avg_student_slots"`
	Shortfalls               []Shortfall `json:"shortfalls,omitempty"`

	TeachersWithAvailability int     `json:"teachers_with_availability"`
	AvgTeacherSlots          float64 `json:"avg_teacher_slots"`

	Active   int         `json:"active_constraints"`
	Inactive int         `json:"inactive_constraints"`
	Flags    []FlagCheck `json:"flags"`
}

// Check builds the input summary.
func Check(c *catalog.Catalog) *InputCheck {
	ic := &InputCheck{}
	perStudent := make(map[model.StudentID]int)
	for _, r := range c.Requests() {
		ic.Requests++
		ic.Sessions += r.Sessions
		perStudent[r.Student] += r.Sessions
		if len(r.Desired) > 0 {
			ic.WithPreferences++
		}
	}
	ic.Students = len(perStudent)

	sAvail := c.StudentsWithAvailability()
	ic.StudentsWithAvailability = len(sAvail)
	ic.AvgStudentSlots = average(sAvail)
	for sid, req := range perStudent {
		if avail := sAvail[sid]; avail < req {
			ic.Shortfalls = append(ic.Shortfalls, Shortfall{Student: sid, Name: c.StudentName(sid), Requested: req, Available: avail})
		}
	}
	sort.Slice(ic.Shortfalls, func(i, j int) bool { return ic.Shortfalls[i].Student < ic.Shortfalls[j].Student })

	tAvail := c.TeachersWithAvailability()
	ic.TeachersWithAvailability = len(tAvail)
	ic.AvgTeacherSlots = average(tAvail)

	for _, f := range c.Flags().Sorted() {
		if f.Activated {
			ic.Active++
		} else {
			ic.Inactive++
		}
		ic.Flags = append(ic.Flags, FlagCheck{ConstraintFlag: f, Scope: f.Code.Scope().String(), Enforced: f.Code.Enforced()})
	}
	return ic
}

func average[K comparable](m map[K]int) float64 {
	if len(m) == 0 {
		return 0
	}
	sum := 0
	for _, v := range m {
		sum += v
	}
	return float64(sum) / float64(len(m))
}

// WriteText renders the check for a terminal.
func (ic *InputCheck) WriteText(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("requests: %d (students %d, sessions %d, with preferred teachers %d)\n",
		ic.Requests, ic.Students, ic.Sessions, ic.WithPreferences)
	ew.printf("student availability: %d students, %.0f slots on average\n", ic.StudentsWithAvailability, ic.AvgStudentSlots)
	for _, s := range ic.Shortfalls {
		if s.Available == 0 {
			ew.printf("  warning: %s has no availability\n", nameOr(s.Name, int(s.Student)))
			continue
		}
		ew.printf("  warning: %s requested %d sessions but is available in %d slots\n",
			nameOr(s.Name, int(s.Student)), s.Requested, s.Available)
	}
	ew.printf("teacher availability: %d teachers, %.0f slots on average\n", ic.TeachersWithAvailability, ic.AvgTeacherSlots)
	ew.printf("constraints: %d active / %d inactive\n", ic.Active, ic.Inactive)
	for _, f := range ic.Flags {
		switch {
		case !f.Activated:
			ew.printf("  [off] %s\n", f.Code)
		case !f.Enforced:
			ew.printf("  [on]  %s (%s, not enforced)\n", f.Code, f.Scope)
		case f.Value != nil && f.Code.Scope() == model.ScopeGlobal:
			ew.printf("  [on]  %s (%s: %g)\n", f.Code, f.Scope, *f.Value)
		default:
			ew.printf("  [on]  %s (%s)\n", f.Code, f.Scope)
		}
	}
	return ew.err
}
