package metrics

import (
	"context"
	"errors"
)

// MultiSink fans run metrics out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the summary to all sinks, returning the first error encountered.
func (m *MultiSink) RecordRun(s RunSummary) error {
	for _, sink := range m.Sinks {
		if err := sink.RecordRun(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordConstraintRows forwards row counts when supported by the sink.
func (m *MultiSink) RecordConstraintRows(ev ConstraintRowsEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ConstraintRecorder); ok {
			if err := rec.RecordConstraintRows(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordFulfillment forwards request outcomes when supported by the sink.
func (m *MultiSink) RecordFulfillment(ev FulfillmentEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(FulfillmentRecorder); ok {
			if err := rec.RecordFulfillment(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes every buffering sink and joins their errors.
func (m *MultiSink) Flush(ctx context.Context) error {
	var errs []error
	for _, s := range m.Sinks {
		if f, ok := s.(Flusher); ok {
			if err := f.Flush(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
