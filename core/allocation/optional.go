package allocation

import (
	"math"
	"strconv"

	"github.com/kilianp07/lessonalloc/core/diag"
	"github.com/kilianp07/lessonalloc/core/model"
	"github.com/kilianp07/lessonalloc/core/solver"
)

func (b *Builder) teacherDailyCap() {
	for _, t := range b.cat.Teachers() {
		if t.MaxDailySlots == nil {
			continue
		}
		for _, date := range b.cat.Dates() {
			var idx []int
			for _, slot := range b.cat.SlotsOn(date) {
				idx = append(idx, b.space.ForTeacherSlot(t.ID, slot.ID)...)
			}
			if len(idx) == 0 {
				continue
			}
			existing := b.teacherDay[dayKey[model.TeacherID]{t.ID, date}]
			remaining := max(0, *t.MaxDailySlots-existing)
			b.addOptional(model.MaxTeacherDailySlot, b.terms(idx), solver.LE, float64(remaining))
		}
	}
}

func (b *Builder) studentDailyCap() {
	for _, s := range b.cat.Students() {
		if s.MaxDailySlots == nil {
			continue
		}
		for _, date := range b.cat.Dates() {
			var idx []int
			for _, slot := range b.cat.SlotsOn(date) {
				idx = append(idx, b.space.ForStudentSlot(s.ID, slot.ID)...)
			}
			if len(idx) == 0 {
				continue
			}
			existing := b.studentDay[dayKey[model.StudentID]{s.ID, date}]
			remaining := max(0, *s.MaxDailySlots-existing)
			b.addOptional(model.MaxStudentDailySlot, b.terms(idx), solver.LE, float64(remaining))
		}
	}
}

// studentContinuousCap slides a window of cap+1 consecutive slots over each
// date so no student sits more than cap lessons in a row.
func (b *Builder) studentContinuousCap() {
	for _, s := range b.cat.Students() {
		if s.MaxContinuousSlots == nil {
			continue
		}
		limit := *s.MaxContinuousSlots
		window := limit + 1
		for _, date := range b.cat.Dates() {
			slots := b.cat.SlotsOn(date)
			for start := 0; start+window <= len(slots); start++ {
				var idx []int
				existing := 0
				for _, slot := range slots[start : start+window] {
					if b.cat.StudentBusy(s.ID, slot.ID) {
						existing++
					}
					idx = append(idx, b.space.ForStudentSlot(s.ID, slot.ID)...)
				}
				if len(idx) == 0 {
					continue
				}
				b.addOptional(model.MaxStudentContinuousSlot, b.terms(idx), solver.LE, float64(max(0, limit-existing)))
			}
		}
	}
}

// boothCapacity bounds the number of simultaneous lessons per slot by the
// flag value.
func (b *Builder) boothCapacity() {
	v, ok := b.cat.Flags().Value(model.MaxLessonPerTimeslot)
	if !ok {
		b.d.Warnf(diag.ConstraintNoValue, map[string]string{"code": string(model.MaxLessonPerTimeslot)},
			"constraint %s is active but has no value; skipped", model.MaxLessonPerTimeslot)
		return
	}
	limit := int(math.Floor(v))
	for _, slot := range b.cat.Slots() {
		idx := b.space.ForSlot(slot.ID)
		if len(idx) == 0 {
			continue
		}
		remaining := max(0, limit-b.cat.ExistingAt(slot.ID))
		b.addOptional(model.MaxLessonPerTimeslot, b.terms(idx), solver.LE, float64(remaining))
	}
}

func idFields(kv ...string) map[string]string {
	f := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		f[kv[i]] = kv[i+1]
	}
	return f
}

func itoa[T ~int](v T) string { return strconv.Itoa(int(v)) }
