// Package export writes the output tables of a run: the allocated lessons,
// the unallocated demand and the fulfillment summary.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/lessonalloc/core/report"
)

// Column headers of the output tables.
var (
	AllocatedHeader   = []string{"slot_id", "student_id", "teacher_id", "subject_id", "slot", "student", "teacher", "subject", "new"}
	UnallocatedHeader = []string{"student_id", "subject_id", "student", "subject", "requested", "placed", "deficit", "reason"}
	FulfillmentHeader = []string{"student_id", "subject_id", "student", "subject", "requested", "placed", "fulfillment_percent"}
)

// Summary is the JSON document written next to the tables.
type Summary struct {
	RunID       string                  `json:"run_id,omitempty"`
	Outcome     string                  `json:"outcome"`
	Status      string                  `json:"status"`
	Requested   int                     `json:"requested"`
	Placed      int                     `json:"placed"`
	NewLessons  int                     `json:"new_lessons"`
	Percent     float64                 `json:"fulfillment_percent"`
	Requests    []report.RequestOutcome `json:"requests"`
	Unallocated []report.RequestOutcome `json:"unallocated"`
}

// NewSummary builds the JSON summary of a reconciliation.
func NewSummary(runID, outcome, status string, rec *report.Reconciliation) Summary {
	s := Summary{
		RunID:      runID,
		Outcome:    outcome,
		Status:     status,
		Requested:  rec.Requested,
		Placed:     rec.Placed,
		NewLessons: rec.NewLessons(),
		Percent:    rec.Percent(),
		Requests:   rec.Requests,
	}
	s.Unallocated = rec.Unallocated()
	if s.Requests == nil {
		s.Requests = []report.RequestOutcome{}
	}
	if s.Unallocated == nil {
		s.Unallocated = []report.RequestOutcome{}
	}
	return s
}

// WriteJSON writes the summary to w in indented JSON format.
func WriteJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteAllocatedCSV writes the full schedule, existing lessons included.
func WriteAllocatedCSV(w io.Writer, lessons []report.Lesson) error {
	return writeCSV(w, AllocatedHeader, len(lessons), func(i int) []string {
		l := lessons[i]
		return []string{
			itoa(int(l.Slot)),
			itoa(int(l.Student)),
			itoa(int(l.Teacher)),
			itoa(int(l.Subject)),
			l.SlotLabel,
			l.StudentName,
			l.TeacherName,
			l.SubjectName,
			strconv.FormatBool(l.New),
		}
	})
}

// WriteUnallocatedCSV writes the requests left with a deficit.
func WriteUnallocatedCSV(w io.Writer, rows []report.RequestOutcome) error {
	return writeCSV(w, UnallocatedHeader, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			itoa(int(r.Student)),
			itoa(int(r.Subject)),
			r.StudentName,
			r.SubjectName,
			itoa(r.Requested),
			itoa(r.Placed),
			itoa(r.Deficit),
			string(r.Reason),
		}
	})
}

// WriteFulfillmentCSV writes one row per request with its fulfillment percentage.
func WriteFulfillmentCSV(w io.Writer, rows []report.RequestOutcome) error {
	return writeCSV(w, FulfillmentHeader, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			itoa(int(r.Student)),
			itoa(int(r.Subject)),
			r.StudentName,
			r.SubjectName,
			itoa(r.Requested),
			itoa(r.Placed),
			strconv.FormatFloat(r.Percent(), 'f', 1, 64),
		}
	})
}

func writeCSV(w io.Writer, header []string, n int, row func(int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(row(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func itoa(n int) string { return strconv.Itoa(n) }
