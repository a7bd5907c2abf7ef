// Package runlog keeps a history of allocation runs. Each run appends one
// RunRecord; stores can be queried by time range and outcome.
package runlog

import (
	"context"
	"time"
)

// RunRecord summarises one allocation run.
type RunRecord struct {
	RunID       string         `json:"run_id"`
	Timestamp   time.Time      `json:"timestamp"`
	Outcome     string         `json:"outcome"`
	Status      string         `json:"status"`
	Variables   int            `json:"variables"`
	Constraints int            `json:"constraints"`
	Optional    map[string]int `json:"optional_constraints,omitempty"`
	Requested   int            `json:"requested"`
	Placed      int            `json:"placed"`
	NewLessons  int            `json:"new_lessons"`
	Percent     float64        `json:"fulfillment_percent"`
	Warnings    int            `json:"warnings"`
	DurationMS  int64          `json:"duration_ms"`
	InputDir    string         `json:"input_dir,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Query filters records. Zero fields match everything.
type Query struct {
	Start   time.Time
	End     time.Time
	Outcome string
	// Limit keeps the most recent records when positive.
	Limit int
}

// Match reports whether r passes the time and outcome filters.
func (q Query) Match(r RunRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Outcome != "" && r.Outcome != q.Outcome {
		return false
	}
	return true
}

func (q Query) trim(recs []RunRecord) []RunRecord {
	if q.Limit > 0 && len(recs) > q.Limit {
		return recs[len(recs)-q.Limit:]
	}
	return recs
}

// Store persists run records and supports querying.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q Query) ([]RunRecord, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, RunRecord) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]RunRecord, error) { return nil, nil }
func (NopStore) Close() error                                      { return nil }
