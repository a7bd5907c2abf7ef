// Package report turns solver output into the schedule, deficit and
// fulfillment tables, and explains failed runs.
package report

import (
	"math"
	"sort"

	"github.com/kilianp07/lessonalloc/core/candidate"
	"github.com/kilianp07/lessonalloc/core/catalog"
	"github.com/kilianp07/lessonalloc/core/demand"
	"github.com/kilianp07/lessonalloc/core/model"
)

// Reason classifies unmet demand.
type Reason string

const (
	// ReasonNoCandidate means the request never produced a decision variable.
	ReasonNoCandidate Reason = "no-candidate"
	// ReasonCapacity means candidates existed but could not all be placed.
	ReasonCapacity Reason = "capacity-constrained"
)

// Lesson is one row of the final schedule.
type Lesson struct {
	model.Allocation
	SlotLabel   string `json:"slot"`
	StudentName string `json:"student"`
	TeacherName string `json:"teacher"`
	SubjectName string `json:"subject"`
	// New is set for lessons placed by this run.
	New bool `json:"new"`
}

// RequestOutcome is the fulfillment of one (student, subject) request.
type RequestOutcome struct {
	Student     model.StudentID `json:"student_id"`
	Subject     model.SubjectID `json:"subject_id"`
	StudentName string          `json:"student"`
	SubjectName string          `json:"subject"`
	Requested   int             `json:"requested"`
	Existing    int             `json:"existing"`
	New         int             `json:"new"`
	Placed      int             `json:"placed"`
	Deficit     int             `json:"deficit"`
	Reason      Reason          `json:"reason,omitempty"`
	Ratio       float64         `json:"ratio"`
}

// Percent returns the fulfillment ratio as a percentage rounded to 0.1.
func (r RequestOutcome) Percent() float64 { return percent(r.Ratio) }

// Reconciliation is the outcome of a successful run.
type Reconciliation struct {
	Schedule  []Lesson         `json:"schedule"`
	Requests  []RequestOutcome `json:"requests"`
	Requested int              `json:"requested"`
	Placed    int              `json:"placed"`
	Ratio     float64          `json:"ratio"`
}

// Percent returns the aggregate fulfillment as a percentage rounded to 0.1.
func (r *Reconciliation) Percent() float64 { return percent(r.Ratio) }

// Unallocated returns the requests with a positive deficit.
func (r *Reconciliation) Unallocated() []RequestOutcome {
	var out []RequestOutcome
	for _, o := range r.Requests {
		if o.Deficit > 0 {
			out = append(out, o)
		}
	}
	return out
}

// NewLessons counts the lessons placed by this run.
func (r *Reconciliation) NewLessons() int {
	n := 0
	for _, l := range r.Schedule {
		if l.New {
			n++
		}
	}
	return n
}

// Reconcile merges the new allocations with the existing schedule and
// measures every request against it. res and space may be nil when no demand
// was left to place.
func Reconcile(c *catalog.Catalog, res *demand.Resolution, space *candidate.Space, added []model.Allocation) *Reconciliation {
	rec := &Reconciliation{}
	for _, a := range c.Existing() {
		rec.Schedule = append(rec.Schedule, lesson(c, a, false))
	}
	newByReq := make(map[model.RequestKey]int)
	for _, a := range added {
		rec.Schedule = append(rec.Schedule, lesson(c, a, true))
		newByReq[a.Request()]++
	}
	sort.SliceStable(rec.Schedule, func(i, j int) bool {
		return lessLesson(rec.Schedule[i].Allocation, rec.Schedule[j].Allocation)
	})

	for _, r := range c.Requests() {
		k := r.Key()
		o := RequestOutcome{
			Student:     r.Student,
			Subject:     r.Subject,
			StudentName: c.StudentName(r.Student),
			SubjectName: c.SubjectName(r.Subject),
			Requested:   r.Sessions,
			Existing:    c.ExistingFor(k),
			New:         newByReq[k],
		}
		o.Placed = o.Existing + o.New
		o.Deficit = max(0, o.Requested-o.Placed)
		if o.Requested > 0 {
			o.Ratio = float64(o.Placed) / float64(o.Requested)
		}
		if o.Deficit > 0 {
			o.Reason = ReasonCapacity
			if res == nil || !res.Has(k) || space == nil || len(space.ForRequest(k)) == 0 {
				o.Reason = ReasonNoCandidate
			}
		}
		rec.Requests = append(rec.Requests, o)
		rec.Requested += o.Requested
		rec.Placed += o.Placed
	}
	if rec.Requested > 0 {
		rec.Ratio = float64(rec.Placed) / float64(rec.Requested)
	}
	return rec
}

func lesson(c *catalog.Catalog, a model.Allocation, added bool) Lesson {
	return Lesson{
		Allocation:  a,
		SlotLabel:   c.SlotLabel(a.Slot),
		StudentName: c.StudentName(a.Student),
		TeacherName: c.TeacherName(a.Teacher),
		SubjectName: c.SubjectName(a.Subject),
		New:         added,
	}
}

func lessLesson(a, b model.Allocation) bool {
	if a.Slot != b.Slot {
		return a.Slot < b.Slot
	}
	if a.Student != b.Student {
		return a.Student < b.Student
	}
	if a.Teacher != b.Teacher {
		return a.Teacher < b.Teacher
	}
	return a.Subject < b.Subject
}

func percent(ratio float64) float64 {
	return math.Round(ratio*1000) / 10
}
