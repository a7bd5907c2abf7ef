// Package allocation assembles the lesson allocation model, drives the solver
// and reconciles its answer with the existing schedule.
package allocation

import (
	"fmt"

	"github.com/kilianp07/lessonalloc/core/candidate"
	"github.com/kilianp07/lessonalloc/core/catalog"
	"github.com/kilianp07/lessonalloc/core/demand"
	"github.com/kilianp07/lessonalloc/core/diag"
	"github.com/kilianp07/lessonalloc/core/model"
	"github.com/kilianp07/lessonalloc/core/solver"
)

// BuildStats counts what the builder put into the model.
type BuildStats struct {
	Variables       int                          `json:"variables"`
	BaseConstraints int                          `json:"base_constraints"`
	Optional        map[model.ConstraintCode]int `json:"optional_constraints"`
}

// Constraints returns the total number of constraints.
func (s BuildStats) Constraints() int {
	n := s.BaseConstraints
	for _, c := range s.Optional {
		n += c
	}
	return n
}

// Builder emits the constraints of one run into a solver model. Variables are
// aligned with the candidate space: vars[i] decides space.Keys[i].
type Builder struct {
	cat   *catalog.Catalog
	res   *demand.Resolution
	space *candidate.Space
	m     solver.Model
	d     *diag.Collector

	vars  []solver.Var
	stats BuildStats

	teacherDay map[dayKey[model.TeacherID]]int
	studentDay map[dayKey[model.StudentID]]int
}

type dayKey[T comparable] struct {
	who  T
	date string
}

// NewBuilder creates one decision variable per candidate.
func NewBuilder(m solver.Model, c *catalog.Catalog, res *demand.Resolution, space *candidate.Space, d *diag.Collector) *Builder {
	b := &Builder{
		cat:        c,
		res:        res,
		space:      space,
		m:          m,
		d:          d,
		stats:      BuildStats{Optional: make(map[model.ConstraintCode]int)},
		teacherDay: make(map[dayKey[model.TeacherID]]int),
		studentDay: make(map[dayKey[model.StudentID]]int),
	}
	b.vars = make([]solver.Var, space.Len())
	for i, k := range space.Keys {
		b.vars[i] = m.NewIntVar(0, 1, fmt.Sprintf("x_%d_%d_%d_%d", k.Student, k.Subject, k.Teacher, k.Slot))
	}
	b.stats.Variables = len(b.vars)
	for _, a := range c.Existing() {
		slot, ok := c.Slot(a.Slot)
		if !ok {
			continue
		}
		b.teacherDay[dayKey[model.TeacherID]{a.Teacher, slot.Date}]++
		b.studentDay[dayKey[model.StudentID]{a.Student, slot.Date}]++
	}
	return b
}

// Vars returns the decision variables in candidate order.
func (b *Builder) Vars() []solver.Var { return b.vars }

// Stats returns the counters accumulated so far.
func (b *Builder) Stats() BuildStats { return b.stats }

// Build emits the base constraints, the activated optional constraints and
// the objective.
func (b *Builder) Build(preferenceWeight float64) BuildStats {
	b.base()
	flags := b.cat.Flags()
	if flags.Active(model.MaxTeacherDailySlot) {
		b.teacherDailyCap()
	}
	if flags.Active(model.MaxStudentContinuousSlot) {
		b.studentContinuousCap()
	}
	if flags.Active(model.MaxStudentDailySlot) {
		b.studentDailyCap()
	}
	if flags.Active(model.MaxLessonPerTimeslot) {
		b.boothCapacity()
	}
	if flags.Active(model.MaxTeacherContinuousVacantSlot) {
		b.teacherVacancyCap()
	}
	b.objective(preferenceWeight)
	return b.stats
}

func (b *Builder) terms(idx []int) []solver.Term {
	ts := make([]solver.Term, len(idx))
	for i, j := range idx {
		ts[i] = solver.Term{Var: b.vars[j], Coef: 1}
	}
	return ts
}

func (b *Builder) addBase(idx []int, limit int) {
	b.m.AddConstraint(b.terms(idx), solver.LE, float64(limit))
	b.stats.BaseConstraints++
}

func (b *Builder) addOptional(code model.ConstraintCode, terms []solver.Term, rel solver.Relation, rhs float64) {
	b.m.AddConstraint(terms, rel, rhs)
	b.stats.Optional[code]++
}

func (b *Builder) base() {
	for _, r := range b.res.Requests {
		if idx := b.space.ForRequest(r.Key()); len(idx) > 0 {
			b.addBase(idx, r.Remaining)
		}
		for _, et := range r.Teachers {
			if !et.Capped {
				continue
			}
			key := model.TeacherKey{Student: r.Student, Subject: r.Subject, Teacher: et.Teacher}
			if idx := b.space.ForTeacherKey(key); len(idx) > 0 {
				b.addBase(idx, et.Cap)
			}
		}
	}
	for _, ss := range b.space.StudentSlots() {
		b.addBase(b.space.ForStudentSlot(ss.Student, ss.Slot), 1)
	}
	for _, ts := range b.space.TeacherSlots() {
		b.addBase(b.space.ForTeacherSlot(ts.Teacher, ts.Slot), 1)
	}
}

// objective maximises placed sessions. A positive preference weight adds a
// bonus per ranked teacher, scaled so the bonuses of all variables together
// stay below one session.
func (b *Builder) objective(weight float64) {
	n := len(b.vars)
	terms := make([]solver.Term, n)
	for i, v := range b.vars {
		coef := 1.0
		if rank := b.space.Rank[i]; weight > 0 && rank > 0 {
			eps := weight / float64(n+1)
			coef += eps * float64(model.MaxDesiredTeachers+1-rank) / model.MaxDesiredTeachers
		}
		terms[i] = solver.Term{Var: v, Coef: coef}
	}
	b.m.SetObjective(terms, true)
}

// Solution reads back the candidates the solver switched on.
func (b *Builder) Solution() []model.Allocation {
	var out []model.Allocation
	for i, v := range b.vars {
		if b.m.Value(v) > 0.5 {
			out = append(out, b.space.Keys[i].Allocation())
		}
	}
	return out
}
