package metrics

import (
	"context"
	"time"
)

// RunSummary is the headline of one allocation run.
type RunSummary struct {
	RunID       string
	Time        time.Time
	Outcome     string
	Status      string
	Requested   int
	Placed      int
	NewLessons  int
	Percent     float64
	Variables   int
	Constraints int
	Warnings    int
	Duration    time.Duration
}

// MetricsSink records allocation runs for observability purposes.
type MetricsSink interface {
	RecordRun(s RunSummary) error
}

// ConstraintRowsEvent carries the number of rows each constraint family
// contributed to the model of a run.
type ConstraintRowsEvent struct {
	RunID string
	Rows  map[string]int
	Time  time.Time
}

// ConstraintRecorder records constraint row counts.
type ConstraintRecorder interface {
	RecordConstraintRows(ev ConstraintRowsEvent) error
}

// RequestFulfillment is the outcome of one request row.
type RequestFulfillment struct {
	StudentID int
	SubjectID int
	Requested int
	Placed    int
	Reason    string
}

// FulfillmentEvent groups the request outcomes of a run.
type FulfillmentEvent struct {
	RunID    string
	Requests []RequestFulfillment
	Time     time.Time
}

// FulfillmentRecorder records per-request fulfillment.
type FulfillmentRecorder interface {
	RecordFulfillment(ev FulfillmentEvent) error
}

// Flusher is implemented by sinks that buffer until the run ends, such as a
// pushgateway exporter.
type Flusher interface {
	Flush(ctx context.Context) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunSummary) error                     { return nil }
func (NopSink) RecordConstraintRows(ConstraintRowsEvent) error { return nil }
func (NopSink) RecordFulfillment(FulfillmentEvent) error       { return nil }
