package allocation

import (
	"fmt"
	"strings"

	"github.com/kilianp07/lessonalloc/core/diag"
	"github.com/kilianp07/lessonalloc/core/model"
	"github.com/kilianp07/lessonalloc/core/solver"
)

// endpoint is the occupancy of a teacher at one slot: fixed by an existing
// allocation, or decided by the candidates placing the teacher there.
type endpoint struct {
	fixed bool
	vars  []int
}

func (e endpoint) possible() bool { return e.fixed || len(e.vars) > 0 }

// teacherVacancyCap limits the run of empty slots between two lessons of the
// same teacher on a date. For every pair of positions i < j whose gap exceeds
// the allowed vacancy, at least gap-allowed intermediate slots must be filled
// whenever both endpoints are occupied:
//
//	both fixed:        sum(inter) >= needed - existingInter
//	one fixed:         sum(inter) + existingInter >= needed * other
//	both variable:     sum(inter) + existingInter >= needed * (a + b - 1)
//
// Pairs where an endpoint can never be occupied add nothing. Pairs of fixed
// lessons with nothing placeable between them are reported once per teacher
// and date.
func (b *Builder) teacherVacancyCap() {
	for _, t := range b.cat.Teachers() {
		if t.MaxContinuousVacantSlots == nil {
			continue
		}
		allowed := *t.MaxContinuousVacantSlots
		for _, date := range b.cat.Dates() {
			slots := b.cat.SlotsOn(date)
			points := make([]endpoint, len(slots))
			for i, slot := range slots {
				points[i] = endpoint{fixed: b.cat.TeacherBusy(t.ID, slot.ID), vars: b.space.ForTeacherSlot(t.ID, slot.ID)}
			}
			var skipped []string
			deficit := 0
			for i := 0; i < len(slots); i++ {
				if !points[i].possible() {
					continue
				}
				for j := i + 1; j < len(slots); j++ {
					gap := j - i - 1
					if gap <= allowed || !points[j].possible() {
						continue
					}
					needed := gap - allowed
					var inter []int
					existing := 0
					for k := i + 1; k < j; k++ {
						if points[k].fixed {
							existing++
						}
						inter = append(inter, points[k].vars...)
					}
					if existing >= needed {
						continue
					}
					if !b.vacancyPair(points[i], points[j], inter, needed, existing) {
						skipped = append(skipped, fmt.Sprintf("%d-%d", slots[i].ID, slots[j].ID))
						deficit = max(deficit, needed-existing)
					}
				}
			}
			if len(skipped) > 0 {
				b.d.Warnf(diag.VacancyUnenforcable,
					idFields("teacher", itoa(t.ID), "date", date, "pairs", strings.Join(skipped, ",")),
					"teacher %d on %s: up to %d vacant slots between fixed lessons (slot pairs %s) cannot be filled; constraint skipped",
					t.ID, date, deficit, strings.Join(skipped, ", "))
			}
		}
	}
}

// vacancyPair emits the row for one pair. It returns false when both
// endpoints are fixed and no candidate can fill the gap.
func (b *Builder) vacancyPair(a, z endpoint, inter []int, needed, existing int) bool {
	code := model.MaxTeacherContinuousVacantSlot
	terms := b.terms(inter)
	scaled := func(idx []int) []solver.Term {
		out := make([]solver.Term, len(idx))
		for n, j := range idx {
			out[n] = solver.Term{Var: b.vars[j], Coef: -float64(needed)}
		}
		return out
	}
	switch {
	case a.fixed && z.fixed:
		if len(inter) == 0 {
			return false
		}
		b.addOptional(code, terms, solver.GE, float64(needed-existing))
	case a.fixed:
		b.addOptional(code, append(terms, scaled(z.vars)...), solver.GE, float64(-existing))
	case z.fixed:
		b.addOptional(code, append(terms, scaled(a.vars)...), solver.GE, float64(-existing))
	default:
		terms = append(terms, scaled(a.vars)...)
		terms = append(terms, scaled(z.vars)...)
		b.addOptional(code, terms, solver.GE, float64(-needed-existing))
	}
	return true
}
