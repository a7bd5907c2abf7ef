// Package demand computes the net demand left to place once the allocations
// of previous runs are accounted for.
package demand

import (
	"errors"

	"github.com/kilianp07/lessonalloc/core/catalog"
	"github.com/kilianp07/lessonalloc/core/model"
)

// ErrNoDemand signals that every request is already satisfied (or that no
// request was ingested). It is not a solver failure.
var ErrNoDemand = errors.New("no remaining demand")

// EligibleTeacher is a teacher who may give sessions for a resolved request.
type EligibleTeacher struct {
	Teacher model.TeacherID
	// Rank is the 1-based preference rank, or 0 when the teacher was derived
	// from the teachable relation.
	Rank int
	// Cap bounds the sessions this teacher may give for the request when
	// Capped is set.
	Cap    int
	Capped bool
}

// EffectiveCap returns the number of sessions the teacher may still give,
// bounded by the request's remaining sessions.
func (e EligibleTeacher) EffectiveCap(remaining int) int {
	if e.Capped && e.Cap < remaining {
		return e.Cap
	}
	return remaining
}

// Request is a demand line with its remaining sessions and eligible teachers.
type Request struct {
	Student   model.StudentID
	Subject   model.SubjectID
	Requested int
	Remaining int
	Teachers  []EligibleTeacher
	// Preferred is set when the teachers come from ranked preferences.
	Preferred bool
}

// Key returns the (student, subject) pair.
func (r Request) Key() model.RequestKey {
	return model.RequestKey{Student: r.Student, Subject: r.Subject}
}

// Resolution is the output of Resolve.
type Resolution struct {
	Requests []Request
	// Caps holds the per-teacher caps of ranked teachers.
	Caps map[model.TeacherKey]int

	byKey map[model.RequestKey]int
}

// Has reports whether the demand line was resolved.
func (r *Resolution) Has(k model.RequestKey) bool {
	_, ok := r.Lookup(k)
	return ok
}

// Lookup returns the resolved request for k.
func (r *Resolution) Lookup(k model.RequestKey) (Request, bool) {
	if r.byKey == nil {
		r.index()
	}
	i, ok := r.byKey[k]
	if !ok {
		return Request{}, false
	}
	return r.Requests[i], true
}

func (r *Resolution) index() {
	r.byKey = make(map[model.RequestKey]int, len(r.Requests))
	for i, req := range r.Requests {
		if _, dup := r.byKey[req.Key()]; !dup {
			r.byKey[req.Key()] = i
		}
	}
}

// Remaining returns the total number of sessions still to place.
func (r *Resolution) Remaining() int {
	n := 0
	for _, req := range r.Requests {
		n += req.Remaining
	}
	return n
}

// Resolve nets every request against the existing allocations of the
// catalog. Requests with nothing left are dropped. When no request remains the
// returned resolution is empty and the error is ErrNoDemand.
func Resolve(c *catalog.Catalog) (*Resolution, error) {
	res := &Resolution{Caps: make(map[model.TeacherKey]int)}
	for _, r := range c.Requests() {
		remaining := r.Sessions - c.ExistingFor(r.Key())
		if remaining <= 0 {
			continue
		}
		req := Request{
			Student:   r.Student,
			Subject:   r.Subject,
			Requested: r.Sessions,
			Remaining: remaining,
		}
		seen := make(map[model.TeacherID]bool)
		for i, d := range r.Desired {
			if seen[d.Teacher] {
				continue
			}
			seen[d.Teacher] = true
			key := model.TeacherKey{Student: r.Student, Subject: r.Subject, Teacher: d.Teacher}
			limit := remaining
			if d.MaxSlots != nil {
				limit = max(0, *d.MaxSlots-c.ExistingForTeacher(key))
			}
			res.Caps[key] = limit
			req.Teachers = append(req.Teachers, EligibleTeacher{Teacher: d.Teacher, Rank: i + 1, Cap: limit, Capped: true})
		}
		if len(req.Teachers) > 0 {
			req.Preferred = true
		} else {
			for _, tid := range c.TeachersFor(r.Subject) {
				req.Teachers = append(req.Teachers, EligibleTeacher{Teacher: tid})
			}
		}
		res.Requests = append(res.Requests, req)
	}
	res.index()
	if len(res.Requests) == 0 {
		return res, ErrNoDemand
	}
	return res, nil
}
