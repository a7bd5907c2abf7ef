// Package app wires the allocation engine to its collaborators: the table
// store, the run history, metrics sinks, the run notifier and monitoring.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/lessonalloc/app/plugins"
	"github.com/kilianp07/lessonalloc/config"
	"github.com/kilianp07/lessonalloc/core/allocation"
	"github.com/kilianp07/lessonalloc/core/catalog"
	"github.com/kilianp07/lessonalloc/core/diag"
	coremetrics "github.com/kilianp07/lessonalloc/core/metrics"
	coremon "github.com/kilianp07/lessonalloc/core/monitoring"
	coremqtt "github.com/kilianp07/lessonalloc/core/mqtt"
	"github.com/kilianp07/lessonalloc/core/report"
	"github.com/kilianp07/lessonalloc/core/runlog"
	"github.com/kilianp07/lessonalloc/infra/logger"
	_ "github.com/kilianp07/lessonalloc/infra/metrics"
	"github.com/kilianp07/lessonalloc/infra/mqtt"
	"github.com/kilianp07/lessonalloc/infra/store"
	"github.com/kilianp07/lessonalloc/pkg/export"
)

// Store reads the input snapshot and writes the output tables.
type Store interface {
	Load(ctx context.Context) (catalog.Snapshot, error)
	Save(ctx context.Context, out store.Output) error
}

// RunReport is what one Run produced.
type RunReport struct {
	RunID  string
	Result *allocation.Result
}

// Service orchestrates one allocation run: read once, solve, write once and
// report the run to the history, metrics and notifier.
type Service struct {
	store     Store
	engine    *allocation.Engine
	history   runlog.Store
	sink      coremetrics.MetricsSink
	publisher coremqtt.Publisher
	log       logger.Logger
	inputDir  string

	now   func() time.Time
	newID func() string
}

// Option overrides a collaborator built from configuration.
type Option func(*Service)

// WithStore replaces the CSV table store.
func WithStore(s Store) Option { return func(svc *Service) { svc.store = s } }

// WithHistory replaces the configured run history.
func WithHistory(h runlog.Store) Option { return func(svc *Service) { svc.history = h } }

// WithMetrics replaces the configured metrics sinks.
func WithMetrics(m coremetrics.MetricsSink) Option { return func(svc *Service) { svc.sink = m } }

// WithPublisher replaces the run notifier.
func WithPublisher(p coremqtt.Publisher) Option { return func(svc *Service) { svc.publisher = p } }

// WithClock sets the time source used for run timestamps.
func WithClock(now func() time.Time) Option { return func(svc *Service) { svc.now = now } }

// WithRunID sets the run identifier generator.
func WithRunID(gen func() string) Option { return func(svc *Service) { svc.newID = gen } }

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	log := logger.New("service")
	svc := &Service{
		engine:   allocation.NewEngine(cfg.Engine(), logger.New("engine")),
		log:      log,
		inputDir: cfg.Input.Dir,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(svc)
	}
	if svc.store == nil {
		svc.store = store.NewCSVStore(cfg.Input.Dir, cfg.Output.Dir, logger.New("store"))
	}
	if svc.history == nil {
		h, err := plugins.NewRunStore(cfg.RunLog)
		if err != nil {
			return nil, fmt.Errorf("run store: %w", err)
		}
		svc.history = h
	}
	if svc.sink == nil {
		sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		svc.sink = sink
	}
	if svc.publisher == nil {
		p, err := mqtt.New(cfg.MQTT)
		if err != nil {
			// A run must not depend on the broker being reachable.
			log.Warnf("mqtt notifier disabled: %v", err)
			p = coremqtt.NopPublisher{}
		}
		svc.publisher = p
	}
	return svc, nil
}

// Run executes one allocation. A run whose solver returned no usable
// solution yields the report together with an *allocation.SolveError.
func (s *Service) Run(ctx context.Context) (*RunReport, error) {
	defer coremon.Recover()
	rep := &RunReport{RunID: s.newID()}
	started := s.now()
	coremon.AddBreadcrumb("allocation", "run started", map[string]any{"run_id": rep.RunID})

	snap, err := s.store.Load(ctx)
	if err != nil {
		err = fmt.Errorf("load input: %w", err)
		s.recordError(ctx, rep.RunID, started, err)
		return nil, err
	}
	d := diag.New()
	cat := catalog.Normalize(snap, d)
	coremon.AddBreadcrumb("allocation", "input normalised", map[string]any{"diagnostics": d.Len()})

	res, err := s.engine.Run(ctx, cat, d)
	if err != nil {
		err = fmt.Errorf("run engine: %w", err)
		s.recordError(ctx, rep.RunID, started, err)
		return nil, err
	}
	rep.Result = res
	coremon.AddBreadcrumb("allocation", "solve finished", map[string]any{
		"status":    res.Status.String(),
		"variables": res.Stats.Variables,
	})

	if res.Reconciliation != nil {
		out := store.Output{
			Summary:  export.NewSummary(rep.RunID, res.Outcome.String(), res.Status.String(), res.Reconciliation),
			Schedule: res.Reconciliation.Schedule,
			Requests: res.Reconciliation.Requests,
		}
		if err := s.store.Save(ctx, out); err != nil {
			err = fmt.Errorf("write output: %w", err)
			s.recordError(ctx, rep.RunID, started, err)
			return rep, err
		}
	}

	rec := s.record(rep.RunID, started, res)
	s.appendHistory(ctx, rec)
	s.recordMetrics(ctx, rep.RunID, rec, res)
	s.notify(rec, res)

	if err := res.Err(); err != nil {
		coremon.CaptureException(err, map[string]string{"run_id": rep.RunID, "status": res.Status.String()})
		return rep, err
	}
	return rep, nil
}

// Inspect loads and normalises the input without solving.
func (s *Service) Inspect(ctx context.Context) (*report.InputCheck, []diag.Diagnostic, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load input: %w", err)
	}
	d := diag.New()
	cat := catalog.Normalize(snap, d)
	return report.Check(cat), d.Items(), nil
}

// History queries past runs.
func (s *Service) History(ctx context.Context, q runlog.Query) ([]runlog.RunRecord, error) {
	return s.history.Query(ctx, q)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.publisher.Close()
	return s.history.Close()
}

func (s *Service) record(runID string, started time.Time, res *allocation.Result) runlog.RunRecord {
	rec := runlog.RunRecord{
		RunID:       runID,
		Timestamp:   started,
		Outcome:     res.Outcome.String(),
		Status:      res.Status.String(),
		Variables:   res.Stats.Variables,
		Constraints: res.Stats.Constraints(),
		DurationMS:  res.Duration.Milliseconds(),
		InputDir:    s.inputDir,
	}
	if len(res.Stats.Optional) > 0 {
		rec.Optional = make(map[string]int, len(res.Stats.Optional))
		for code, n := range res.Stats.Optional {
			rec.Optional[string(code)] = n
		}
	}
	for _, item := range res.Diagnostics {
		if item.Severity == diag.Warning {
			rec.Warnings++
		}
	}
	if r := res.Reconciliation; r != nil {
		rec.Requested = r.Requested
		rec.Placed = r.Placed
		rec.NewLessons = r.NewLessons()
		rec.Percent = r.Percent()
	}
	if err := res.Err(); err != nil {
		rec.Error = err.Error()
	}
	return rec
}

func (s *Service) recordError(ctx context.Context, runID string, started time.Time, err error) {
	coremon.CaptureException(err, map[string]string{"run_id": runID})
	s.appendHistory(ctx, runlog.RunRecord{
		RunID:      runID,
		Timestamp:  started,
		Outcome:    allocation.Failed.String(),
		DurationMS: s.now().Sub(started).Milliseconds(),
		InputDir:   s.inputDir,
		Error:      err.Error(),
	})
}

func (s *Service) appendHistory(ctx context.Context, rec runlog.RunRecord) {
	if err := s.history.Append(ctx, rec); err != nil {
		s.log.Warnf("run history append: %v", err)
	}
}

func (s *Service) recordMetrics(ctx context.Context, runID string, rec runlog.RunRecord, res *allocation.Result) {
	summary := coremetrics.RunSummary{
		RunID:       runID,
		Time:        rec.Timestamp,
		Outcome:     rec.Outcome,
		Status:      rec.Status,
		Requested:   rec.Requested,
		Placed:      rec.Placed,
		NewLessons:  rec.NewLessons,
		Percent:     rec.Percent,
		Variables:   rec.Variables,
		Constraints: rec.Constraints,
		Warnings:    rec.Warnings,
		Duration:    res.Duration,
	}
	if err := s.sink.RecordRun(summary); err != nil {
		s.log.Warnf("metrics: %v", err)
	}
	if cr, ok := s.sink.(coremetrics.ConstraintRecorder); ok {
		rows := map[string]int{"base": res.Stats.BaseConstraints}
		for code, n := range rec.Optional {
			rows[code] = n
		}
		if err := cr.RecordConstraintRows(coremetrics.ConstraintRowsEvent{RunID: runID, Rows: rows, Time: rec.Timestamp}); err != nil {
			s.log.Warnf("metrics: %v", err)
		}
	}
	if fr, ok := s.sink.(coremetrics.FulfillmentRecorder); ok && res.Reconciliation != nil {
		reqs := make([]coremetrics.RequestFulfillment, len(res.Reconciliation.Requests))
		for i, r := range res.Reconciliation.Requests {
			reqs[i] = coremetrics.RequestFulfillment{
				StudentID: int(r.Student),
				SubjectID: int(r.Subject),
				Requested: r.Requested,
				Placed:    r.Placed,
				Reason:    string(r.Reason),
			}
		}
		if err := fr.RecordFulfillment(coremetrics.FulfillmentEvent{RunID: runID, Requests: reqs, Time: rec.Timestamp}); err != nil {
			s.log.Warnf("metrics: %v", err)
		}
	}
	if f, ok := s.sink.(coremetrics.Flusher); ok {
		if err := f.Flush(ctx); err != nil {
			s.log.Warnf("metrics flush: %v", err)
		}
	}
}

func (s *Service) notify(rec runlog.RunRecord, res *allocation.Result) {
	n := coremqtt.RunNotice{
		RunID:      rec.RunID,
		Timestamp:  rec.Timestamp,
		Outcome:    rec.Outcome,
		Status:     rec.Status,
		Requested:  rec.Requested,
		Placed:     rec.Placed,
		NewLessons: rec.NewLessons,
		Percent:    rec.Percent,
	}
	if res.Reconciliation != nil {
		for _, u := range res.Reconciliation.Unallocated() {
			n.Unallocated = append(n.Unallocated, coremqtt.Unallocated{
				StudentID: int(u.Student),
				SubjectID: int(u.Subject),
				Deficit:   u.Deficit,
				Reason:    string(u.Reason),
			})
		}
	}
	if err := s.publisher.PublishRun(n); err != nil {
		s.log.Warnf("notify: %v", err)
	}
}
