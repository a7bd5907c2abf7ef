package report

import (
	"fmt"
	"io"

	"github.com/kilianp07/lessonalloc/core/candidate"
	"github.com/kilianp07/lessonalloc/core/catalog"
	"github.com/kilianp07/lessonalloc/core/demand"
	"github.com/kilianp07/lessonalloc/core/model"
	"github.com/kilianp07/lessonalloc/core/solver"
)

// Hints are the operator actions suggested with every failure report.
var Hints = []string{
	"deactivate some optional constraints and run again",
	"add availability slots for students or teachers",
	"check the subjects each teacher is allowed to teach",
	"relax the value of max_teacher_continuous_vacant_slot when it is active",
}

// RequestDiagnostic compares what a request needs with what it could get.
type RequestDiagnostic struct {
	Student           model.StudentID `json:"student_id"`
	Subject           model.SubjectID `json:"subject_id"`
	StudentName       string          `json:"student"`
	SubjectName       string          `json:"subject"`
	Required          int             `json:"required"`
	CandidateSlots    int             `json:"candidate_slots"`
	CandidateTeachers int             `json:"candidate_teachers"`
}

// Short reports whether the request has fewer candidate slots than sessions.
func (r RequestDiagnostic) Short() bool { return r.CandidateSlots < r.Required }

// TeacherDiagnostic summarises a teacher's share of the model.
type TeacherDiagnostic struct {
	Teacher        model.TeacherID `json:"teacher_id"`
	Name           string          `json:"teacher"`
	Variables      int             `json:"variables"`
	CandidateSlots int             `json:"candidate_slots"`
	Existing       int             `json:"existing"`
}

// FailureReport explains a run whose solver status carries no solution.
type FailureReport struct {
	Status      solver.Status          `json:"-"`
	StatusName  string                 `json:"status"`
	Variables   int                    `json:"variables"`
	Constraints int                    `json:"constraints"`
	Requests    []RequestDiagnostic    `json:"requests"`
	Teachers    []TeacherDiagnostic    `json:"teachers"`
	Flags       []model.ConstraintFlag `json:"flags"`
	Hints       []string               `json:"hints"`
}

// Failure builds the diagnostic report of a failed solve.
func Failure(c *catalog.Catalog, res *demand.Resolution, space *candidate.Space, st solver.Status, variables, constraints int) *FailureReport {
	fr := &FailureReport{
		Status:      st,
		StatusName:  st.String(),
		Variables:   variables,
		Constraints: constraints,
		Flags:       c.Flags().Sorted(),
		Hints:       Hints,
	}
	for _, r := range res.Requests {
		idx := space.ForRequest(r.Key())
		fr.Requests = append(fr.Requests, RequestDiagnostic{
			Student:           r.Student,
			Subject:           r.Subject,
			StudentName:       c.StudentName(r.Student),
			SubjectName:       c.SubjectName(r.Subject),
			Required:          r.Remaining,
			CandidateSlots:    space.DistinctSlots(idx),
			CandidateTeachers: space.DistinctTeachers(idx),
		})
	}
	for _, t := range c.Teachers() {
		idx := space.ForTeacher(t.ID)
		fr.Teachers = append(fr.Teachers, TeacherDiagnostic{
			Teacher:        t.ID,
			Name:           t.Name,
			Variables:      len(idx),
			CandidateSlots: space.DistinctSlots(idx),
			Existing:       c.TeacherBusyCount(t.ID),
		})
	}
	return fr
}

// WriteText renders the report for a terminal.
func (fr *FailureReport) WriteText(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("solver status: %s\n", fr.StatusName)
	ew.printf("variables: %d, constraints: %d\n", fr.Variables, fr.Constraints)
	ew.printf("\nrequests:\n")
	for _, r := range fr.Requests {
		mark := "ok"
		if r.Short() {
			mark = "SHORT"
		}
		ew.printf("  [%s] %s x %s: required %d / candidate slots %d / candidate teachers %d\n",
			mark, nameOr(r.StudentName, int(r.Student)), nameOr(r.SubjectName, int(r.Subject)),
			r.Required, r.CandidateSlots, r.CandidateTeachers)
	}
	ew.printf("\nteachers:\n")
	for _, t := range fr.Teachers {
		ew.printf("  %s: variables %d / candidate slots %d / existing %d\n",
			nameOr(t.Name, int(t.Teacher)), t.Variables, t.CandidateSlots, t.Existing)
	}
	ew.printf("\nconstraints:\n")
	for _, f := range fr.Flags {
		state := "off"
		if f.Activated {
			state = "on"
		}
		ew.printf("  [%s] %s\n", state, f.Code)
	}
	ew.printf("\nhints:\n")
	for i, h := range fr.Hints {
		ew.printf("  %d. %s\n", i+1, h)
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func nameOr(name string, id int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("#%d", id)
}
