// Package catalog turns the raw tables of a snapshot into typed entities and
// the index structures the allocation engine queries: availability sets,
// teachable subjects, the slot calendar and the footprint of existing
// allocations.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kilianp07/lessonalloc/core/diag"
	"github.com/kilianp07/lessonalloc/core/model"
)

var validate = validator.New()

// Catalog is the normalised, read-only view of one snapshot.
type Catalog struct {
	subjects   map[model.SubjectID]model.Subject
	timeRanges map[model.TimeRangeID]model.TimeRange
	students   map[model.StudentID]model.Student
	teachers   map[model.TeacherID]model.Teacher
	slots      map[model.SlotID]model.TimeSlot

	slotOrder   []model.TimeSlot
	dates       []string
	slotsByDate map[string][]model.TimeSlot

	teachable    map[model.TeacherID]map[model.SubjectID]bool
	studentAvail map[model.StudentID]map[model.SlotID]bool
	teacherAvail map[model.TeacherID]map[model.SlotID]bool

	requests []model.Request
	flags    model.Flags

	existing        []model.Allocation
	studentBusy     map[model.StudentID]map[model.SlotID]bool
	teacherBusy     map[model.TeacherID]map[model.SlotID]bool
	existingByReq   map[model.RequestKey]int
	existingByTKey  map[model.TeacherKey]int
	existingPerSlot map[model.SlotID]int
}

// Normalize validates the snapshot and builds the catalog. Problems with the
// input are reported to d and never abort normalisation: empty tables become
// empty sets and invalid rows are skipped.
func Normalize(snap Snapshot, d *diag.Collector) *Catalog {
	c := &Catalog{
		subjects:        make(map[model.SubjectID]model.Subject),
		timeRanges:      make(map[model.TimeRangeID]model.TimeRange),
		students:        make(map[model.StudentID]model.Student),
		teachers:        make(map[model.TeacherID]model.Teacher),
		slots:           make(map[model.SlotID]model.TimeSlot),
		slotsByDate:     make(map[string][]model.TimeSlot),
		teachable:       make(map[model.TeacherID]map[model.SubjectID]bool),
		studentAvail:    make(map[model.StudentID]map[model.SlotID]bool),
		teacherAvail:    make(map[model.TeacherID]map[model.SlotID]bool),
		flags:           make(model.Flags),
		studentBusy:     make(map[model.StudentID]map[model.SlotID]bool),
		teacherBusy:     make(map[model.TeacherID]map[model.SlotID]bool),
		existingByReq:   make(map[model.RequestKey]int),
		existingByTKey:  make(map[model.TeacherKey]int),
		existingPerSlot: make(map[model.SlotID]int),
	}

	for _, t := range []struct {
		name  string
		empty bool
	}{
		{TableSubjects, len(snap.Subjects) == 0},
		{TableTimeRanges, len(snap.TimeRanges) == 0},
		{TableStudents, len(snap.Students) == 0},
		{TableTeachers, len(snap.Teachers) == 0},
		{TableSlots, len(snap.Slots) == 0},
		{TableTeachable, len(snap.Teachable) == 0},
		{TableRequests, len(snap.Requests) == 0},
		{TableStudentAvail, len(snap.StudentAvail) == 0},
		{TableTeacherAvail, len(snap.TeacherAvail) == 0},
		{TableConstraints, len(snap.Constraints) == 0},
	} {
		if t.empty {
			d.Warnf(diag.TableEmpty, map[string]string{"table": t.name}, "table %s is empty or missing", t.name)
		}
	}

	for i, r := range snap.Subjects {
		if !valid(d, TableSubjects, i, r) {
			continue
		}
		c.subjects[model.SubjectID(r.ID)] = model.Subject{ID: model.SubjectID(r.ID), Name: r.Name}
	}
	for i, r := range snap.TimeRanges {
		if !valid(d, TableTimeRanges, i, r) {
			continue
		}
		c.timeRanges[model.TimeRangeID(r.ID)] = model.TimeRange{ID: model.TimeRangeID(r.ID), Description: r.Description}
	}
	for i, r := range snap.Students {
		if !valid(d, TableStudents, i, r) {
			continue
		}
		c.students[model.StudentID(r.ID)] = model.Student{
			ID:                 model.StudentID(r.ID),
			Name:               r.Name,
			MaxContinuousSlots: r.MaxContinuousSlots,
			MaxDailySlots:      r.MaxDailySlots,
		}
	}
	for i, r := range snap.Teachers {
		if !valid(d, TableTeachers, i, r) {
			continue
		}
		c.teachers[model.TeacherID(r.ID)] = model.Teacher{
			ID:                       model.TeacherID(r.ID),
			Name:                     r.Name,
			MaxDailySlots:            r.MaxDailySlots,
			MaxContinuousVacantSlots: r.MaxContinuousVacantSlots,
		}
	}
	c.loadSlots(snap.Slots, d)

	for i, r := range snap.Teachable {
		if !valid(d, TableTeachable, i, r) {
			continue
		}
		tid := model.TeacherID(r.TeacherID)
		if c.teachable[tid] == nil {
			c.teachable[tid] = make(map[model.SubjectID]bool)
		}
		c.teachable[tid][model.SubjectID(r.SubjectID)] = true
	}
	for i, r := range snap.StudentAvail {
		if !valid(d, TableStudentAvail, i, r) || !c.knownSlot(d, TableStudentAvail, i, r.SlotID) {
			continue
		}
		sid := model.StudentID(r.PersonID)
		if c.studentAvail[sid] == nil {
			c.studentAvail[sid] = make(map[model.SlotID]bool)
		}
		c.studentAvail[sid][model.SlotID(r.SlotID)] = true
	}
	for i, r := range snap.TeacherAvail {
		if !valid(d, TableTeacherAvail, i, r) || !c.knownSlot(d, TableTeacherAvail, i, r.SlotID) {
			continue
		}
		tid := model.TeacherID(r.PersonID)
		if c.teacherAvail[tid] == nil {
			c.teacherAvail[tid] = make(map[model.SlotID]bool)
		}
		c.teacherAvail[tid][model.SlotID(r.SlotID)] = true
	}
	for i, r := range snap.Constraints {
		if !valid(d, TableConstraints, i, r) {
			continue
		}
		code := model.ConstraintCode(strings.TrimSpace(r.Code))
		c.flags[code] = model.ConstraintFlag{Code: code, Activated: r.Activated, Value: r.Value}
	}
	c.loadRequests(snap.Requests, d)
	c.loadExisting(snap.Allocated, d)
	return c
}

func (c *Catalog) loadSlots(recs []LessonSlotRecord, d *diag.Collector) {
	for i, r := range recs {
		if !valid(d, TableSlots, i, r) {
			continue
		}
		s := model.TimeSlot{ID: model.SlotID(r.ID), Date: r.Date, TimeRange: model.TimeRangeID(r.TimeRangeID)}
		c.slots[s.ID] = s
	}
	c.slotOrder = make([]model.TimeSlot, 0, len(c.slots))
	for _, s := range c.slots {
		c.slotOrder = append(c.slotOrder, s)
	}
	model.SortSlots(c.slotOrder)
	for _, s := range c.slotOrder {
		if _, ok := c.slotsByDate[s.Date]; !ok {
			c.dates = append(c.dates, s.Date)
		}
		c.slotsByDate[s.Date] = append(c.slotsByDate[s.Date], s)
	}
}

func (c *Catalog) loadRequests(recs []RequestRecord, d *diag.Collector) {
	seen := make(map[model.RequestKey]bool)
	for i, r := range recs {
		// Blank spreadsheet rows come through with a zero student id.
		if r.StudentID == 0 {
			continue
		}
		if !valid(d, TableRequests, i, r) {
			continue
		}
		req := model.Request{
			Student:  model.StudentID(r.StudentID),
			Subject:  model.SubjectID(r.SubjectID),
			Sessions: r.Sessions,
		}
		if seen[req.Key()] {
			d.Warnf(diag.DuplicateRequest, fields(TableRequests, i),
				"duplicate request for student %d subject %d ignored", r.StudentID, r.SubjectID)
			continue
		}
		seen[req.Key()] = true
		for _, dt := range r.Desired {
			if dt.TeacherID == nil {
				continue
			}
			req.Desired = append(req.Desired, model.DesiredTeacher{Teacher: model.TeacherID(*dt.TeacherID), MaxSlots: dt.MaxSlots})
		}
		c.requests = append(c.requests, req)
	}
	sort.SliceStable(c.requests, func(i, j int) bool { return c.requests[i].Key().Less(c.requests[j].Key()) })
}

func (c *Catalog) loadExisting(recs []AllocationRecord, d *diag.Collector) {
	for i, r := range recs {
		if !valid(d, TableAllocated, i, r) || !c.knownSlot(d, TableAllocated, i, r.SlotID) {
			continue
		}
		a := model.Allocation{
			Slot:    model.SlotID(r.SlotID),
			Student: model.StudentID(r.StudentID),
			Teacher: model.TeacherID(r.TeacherID),
			Subject: model.SubjectID(r.SubjectID),
		}
		c.existing = append(c.existing, a)
		if c.studentBusy[a.Student] == nil {
			c.studentBusy[a.Student] = make(map[model.SlotID]bool)
		}
		c.studentBusy[a.Student][a.Slot] = true
		if c.teacherBusy[a.Teacher] == nil {
			c.teacherBusy[a.Teacher] = make(map[model.SlotID]bool)
		}
		c.teacherBusy[a.Teacher][a.Slot] = true
		c.existingByReq[a.Request()]++
		c.existingByTKey[a.TeacherKey()]++
		c.existingPerSlot[a.Slot]++
	}
}

func (c *Catalog) knownSlot(d *diag.Collector, table string, row, id int) bool {
	if _, ok := c.slots[model.SlotID(id)]; ok {
		return true
	}
	f := fields(table, row)
	f["slot"] = strconv.Itoa(id)
	d.Warnf(diag.UnknownReference, f, "%s row %d references unknown slot %d", table, row+1, id)
	return false
}

func valid(d *diag.Collector, table string, row int, rec any) bool {
	err := validate.Struct(rec)
	if err == nil {
		return true
	}
	d.Warnf(diag.RecordInvalid, fields(table, row), "%s row %d skipped: %s", table, row+1, describe(err))
	return false
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}

func fields(table string, row int) map[string]string {
	return map[string]string{"table": table, "row": strconv.Itoa(row + 1)}
}
