// Package diag collects structured diagnostics produced while normalising
// input and building the allocation model. Collectors are returned alongside
// results so callers can inspect warnings without parsing log output.
package diag

import "fmt"

// Severity ranks a diagnostic.
type Severity int

const (
	Info Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "info"
}

// Code identifies the kind of diagnostic.
type Code string

const (
	TableEmpty          Code = "input.table_empty"
	RecordInvalid       Code = "input.record_invalid"
	UnknownReference    Code = "input.unknown_reference"
	DuplicateRequest    Code = "input.duplicate_request"
	TeacherNotCapable   Code = "candidate.teacher_not_capable"
	ConstraintNoValue   Code = "constraint.missing_value"
	VacancyUnenforcable Code = "vacancy.unenforceable"
)

// Diagnostic is a single finding. Fields carries the identifiers the finding
// refers to (teacher, student, date ...) so tests and tools can match on them.
type Diagnostic struct {
	Severity Severity          `json:"severity"`
	Code     Code              `json:"code"`
	Message  string            `json:"message"`
	Fields   map[string]string `json:"fields,omitempty"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Code, d.Message)
}

// Collector accumulates diagnostics in insertion order. A nil *Collector
// discards everything.
type Collector struct {
	items []Diagnostic
}

// New returns an empty collector.
func New() *Collector { return &Collector{} }

// Add records a diagnostic.
func (c *Collector) Add(d Diagnostic) {
	if c == nil {
		return
	}
	c.items = append(c.items, d)
}

// Warnf records a warning with a formatted message.
func (c *Collector) Warnf(code Code, fields map[string]string, format string, args ...any) {
	c.Add(Diagnostic{Severity: Warning, Code: code, Message: fmt.Sprintf(format, args...), Fields: fields})
}

// Infof records an informational diagnostic.
func (c *Collector) Infof(code Code, fields map[string]string, format string, args ...any) {
	c.Add(Diagnostic{Severity: Info, Code: code, Message: fmt.Sprintf(format, args...), Fields: fields})
}

// Items returns a copy of the collected diagnostics.
func (c *Collector) Items() []Diagnostic {
	if c == nil {
		return nil
	}
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// ByCode returns the diagnostics with the given code.
func (c *Collector) ByCode(code Code) []Diagnostic {
	if c == nil {
		return nil
	}
	var out []Diagnostic
	for _, d := range c.items {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// Warnings counts warning-level diagnostics.
func (c *Collector) Warnings() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, d := range c.items {
		if d.Severity == Warning {
			n++
		}
	}
	return n
}

// Len returns the number of collected diagnostics.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}
