package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	coremetrics "github.com/kilianp07/lessonalloc/core/metrics"
)

// PromConfig configures the Prometheus sink. A run is a short lived batch
// job, so metrics are pushed to a pushgateway when PushURL is set.
type PromConfig struct {
	PushURL string `json:"push_url"`
	Job     string `json:"job"`
}

// PromSink records allocation runs in Prometheus metrics.
type PromSink struct {
	runs        *prometheus.CounterVec
	placed      prometheus.Gauge
	requested   prometheus.Gauge
	fulfillment prometheus.Gauge
	variables   prometheus.Gauge
	rows        *prometheus.GaugeVec
	duration    prometheus.Histogram

	gatherer prometheus.Gatherer
	cfg      PromConfig
}

// NewPromSink registers run metrics on the default Prometheus registerer.
func NewPromSink(cfg PromConfig) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer; the gatherer
// is only used for pushing.
func NewPromSinkWithRegistry(cfg PromConfig, reg prometheus.Registerer, g prometheus.Gatherer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	if cfg.Job == "" {
		cfg.Job = "lessonalloc"
	}
	s := &PromSink{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "allocation_runs_total",
			Help: "Total number of allocation runs by outcome and solver status",
		}, []string{"outcome", "status"}),
		placed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "allocation_sessions_placed",
			Help: "Sessions placed by the last run, existing lessons included",
		}),
		requested: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "allocation_sessions_requested",
			Help: "Sessions requested in the last run",
		}),
		fulfillment: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "allocation_fulfillment_percent",
			Help: "Aggregate fulfillment of the last run",
		}),
		variables: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "allocation_model_variables",
			Help: "Decision variables of the last model",
		}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "allocation_model_constraint_rows",
			Help: "Constraint rows of the last model by family",
		}, []string{"constraint"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "allocation_run_duration_seconds",
			Help:    "Wall clock time of an allocation run",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		gatherer: g,
		cfg:      cfg,
	}
	var err error
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.placed, err = register(reg, s.placed); err != nil {
		return nil, err
	}
	if s.requested, err = register(reg, s.requested); err != nil {
		return nil, err
	}
	if s.fulfillment, err = register(reg, s.fulfillment); err != nil {
		return nil, err
	}
	if s.variables, err = register(reg, s.variables); err != nil {
		return nil, err
	}
	if s.rows, err = register(reg, s.rows); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	return s, nil
}

// register reuses an already registered collector of the same description.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun updates the run counter and the last-run gauges.
func (s *PromSink) RecordRun(r coremetrics.RunSummary) error {
	s.runs.WithLabelValues(r.Outcome, r.Status).Inc()
	s.placed.Set(float64(r.Placed))
	s.requested.Set(float64(r.Requested))
	s.fulfillment.Set(r.Percent)
	s.variables.Set(float64(r.Variables))
	s.duration.Observe(r.Duration.Seconds())
	return nil
}

// RecordConstraintRows sets the row gauge per constraint family.
func (s *PromSink) RecordConstraintRows(ev coremetrics.ConstraintRowsEvent) error {
	s.rows.Reset()
	for code, n := range ev.Rows {
		s.rows.WithLabelValues(code).Set(float64(n))
	}
	return nil
}

// Flush pushes the gathered metrics to the pushgateway, if one is configured.
func (s *PromSink) Flush(ctx context.Context) error {
	if s.cfg.PushURL == "" {
		return nil
	}
	return push.New(s.cfg.PushURL, s.cfg.Job).Gatherer(s.gatherer).PushContext(ctx)
}
