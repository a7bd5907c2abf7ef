// Package store reads the input tables of a run from a directory of CSV files
// and writes the output tables back. A missing input file is read as an empty
// table; the normaliser reports it.
package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kilianp07/lessonalloc/core/catalog"
	"github.com/kilianp07/lessonalloc/core/logger"
	"github.com/kilianp07/lessonalloc/core/report"
	"github.com/kilianp07/lessonalloc/pkg/export"
)

// ErrInputDir is returned when the input directory does not exist.
var ErrInputDir = errors.New("input directory not found")

// SummaryFile is written next to the output tables.
const SummaryFile = "fulfillment.json"

// Output is everything a successful run writes back.
type Output struct {
	Summary  export.Summary
	Schedule []report.Lesson
	Requests []report.RequestOutcome
}

// CSVStore is a table store backed by one CSV file per table.
type CSVStore struct {
	inputDir  string
	outputDir string
	log       logger.Logger
}

// NewCSVStore returns a store reading from inputDir and writing to outputDir.
// A nil logger discards output.
func NewCSVStore(inputDir, outputDir string, log logger.Logger) *CSVStore {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &CSVStore{inputDir: inputDir, outputDir: outputDir, log: log}
}

// Load reads the snapshot. The previous allocation table is looked up in the
// input directory so that an incremental run can be seeded by copying the
// last output there, or by pointing input and output at the same directory.
func (s *CSVStore) Load(ctx context.Context) (catalog.Snapshot, error) {
	var snap catalog.Snapshot
	info, err := os.Stat(s.inputDir)
	if err != nil || !info.IsDir() {
		return snap, fmt.Errorf("%w: %s", ErrInputDir, s.inputDir)
	}
	loaders := []struct {
		table string
		load  func(row)
	}{
		{catalog.TableSubjects, func(r row) {
			snap.Subjects = append(snap.Subjects, catalog.SubjectRecord{ID: r.int("id"), Name: r.str("subject_name")})
		}},
		{catalog.TableTimeRanges, func(r row) {
			snap.TimeRanges = append(snap.TimeRanges, catalog.TimeRangeRecord{ID: r.int("id"), Description: r.str("description")})
		}},
		{catalog.TableStudents, func(r row) {
			snap.Students = append(snap.Students, catalog.StudentRecord{
				ID:                 r.int("id"),
				Name:               r.str("student_name"),
				MaxContinuousSlots: r.optInt("max_continuous_slot"),
				MaxDailySlots:      r.optInt("max_daily_slot"),
			})
		}},
		{catalog.TableTeachers, func(r row) {
			snap.Teachers = append(snap.Teachers, catalog.TeacherRecord{
				ID:                       r.int("id"),
				Name:                     r.str("teacher_name"),
				MaxDailySlots:            r.optInt("max_daily_slot"),
				MaxContinuousVacantSlots: r.optInt("max_continuous_vacant_slot"),
			})
		}},
		{catalog.TableSlots, func(r row) {
			snap.Slots = append(snap.Slots, catalog.LessonSlotRecord{ID: r.int("id"), Date: r.str("date"), TimeRangeID: r.int("time_range_id")})
		}},
		{catalog.TableTeachable, func(r row) {
			snap.Teachable = append(snap.Teachable, catalog.TeachableRecord{TeacherID: r.int("teacher_id"), SubjectID: r.int("subject_id")})
		}},
		{catalog.TableRequests, func(r row) {
			rec := catalog.RequestRecord{StudentID: r.int("student_id"), SubjectID: r.int("subject_id"), Sessions: r.int("sessions")}
			for i := range rec.Desired {
				n := strconv.Itoa(i + 1)
				rec.Desired[i] = catalog.DesiredTeacherRecord{TeacherID: r.optInt("desired_teacher_" + n), MaxSlots: r.optInt("max_slot_" + n)}
			}
			snap.Requests = append(snap.Requests, rec)
		}},
		{catalog.TableStudentAvail, func(r row) {
			snap.StudentAvail = append(snap.StudentAvail, catalog.AvailabilityRecord{PersonID: r.int("student_id"), SlotID: r.int("slot_id")})
		}},
		{catalog.TableTeacherAvail, func(r row) {
			snap.TeacherAvail = append(snap.TeacherAvail, catalog.AvailabilityRecord{PersonID: r.int("teacher_id"), SlotID: r.int("slot_id")})
		}},
		{catalog.TableConstraints, func(r row) {
			snap.Constraints = append(snap.Constraints, catalog.ConstraintRecord{Code: r.str("code"), Activated: r.bool("activated"), Value: r.optFloat("value")})
		}},
		{catalog.TableAllocated, func(r row) {
			snap.Allocated = append(snap.Allocated, catalog.AllocationRecord{
				SlotID:    r.int("slot_id"),
				StudentID: r.int("student_id"),
				TeacherID: r.int("teacher_id"),
				SubjectID: r.int("subject_id"),
			})
		}},
	}
	for _, l := range loaders {
		if err := ctx.Err(); err != nil {
			return snap, err
		}
		n, err := s.readTable(l.table, l.load)
		if err != nil {
			return snap, fmt.Errorf("read %s: %w", l.table, err)
		}
		s.log.Debugw("table loaded", map[string]any{"table": l.table, "rows": n})
	}
	return snap, nil
}

func (s *CSVStore) readTable(table string, load func(row)) (int, error) {
	f, err := os.Open(filepath.Join(s.inputDir, table+".csv"))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()
	return readRows(f, table, s.log, load)
}

func readRows(r io.Reader, table string, log logger.Logger, load func(row)) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	n := 0
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if blank(rec) {
			continue
		}
		load(row{table: table, line: line, index: index, cells: rec, log: log})
		n++
	}
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// row gives typed access to the cells of one CSV record by column name.
type row struct {
	table string
	line  int
	index map[string]int
	cells []string
	log   logger.Logger
}

func (r row) str(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

// int returns 0 for empty or malformed cells; the normaliser rejects the
// record when the column is mandatory.
func (r row) int(col string) int {
	if v := r.optInt(col); v != nil {
		return *v
	}
	return 0
}

// optInt accepts integral floats such as "3.0" as exported by spreadsheets.
func (r row) optInt(col string) *int {
	f := r.optFloat(col)
	if f == nil {
		return nil
	}
	if *f != float64(int(*f)) {
		r.log.Warnf("%s line %d: %s=%v is not an integer", r.table, r.line, col, *f)
		return nil
	}
	v := int(*f)
	return &v
}

func (r row) optFloat(col string) *float64 {
	raw := r.str(col)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.log.Warnf("%s line %d: %s=%q is not a number", r.table, r.line, col, raw)
		return nil
	}
	return &f
}

func (r row) bool(col string) bool {
	switch strings.ToLower(r.str(col)) {
	case "true", "1", "yes", "y", "on":
		return true
	}
	return false
}

// Save regenerates the output tables and the JSON summary. Each file is
// written to a temporary name first and renamed into place.
func (s *CSVStore) Save(ctx context.Context, out Output) error {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	writers := []struct {
		name  string
		write func(io.Writer) error
	}{
		{catalog.TableAllocated + ".csv", func(w io.Writer) error { return export.WriteAllocatedCSV(w, out.Schedule) }},
		{catalog.TableUnallocated + ".csv", func(w io.Writer) error { return export.WriteUnallocatedCSV(w, out.Summary.Unallocated) }},
		{catalog.TableFulfillment + ".csv", func(w io.Writer) error { return export.WriteFulfillmentCSV(w, out.Requests) }},
		{SummaryFile, func(w io.Writer) error { return export.WriteJSON(w, out.Summary) }},
	}
	for _, w := range writers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.writeFile(w.name, w.write); err != nil {
			return fmt.Errorf("write %s: %w", w.name, err)
		}
	}
	s.log.Infof("wrote %d lessons to %s", len(out.Schedule), s.outputDir)
	return nil
}

func (s *CSVStore) writeFile(name string, write func(io.Writer) error) error {
	f, err := os.CreateTemp(s.outputDir, "."+name+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, filepath.Join(s.outputDir, name))
}
