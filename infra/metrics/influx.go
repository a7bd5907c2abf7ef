package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/lessonalloc/core/metrics"
	"github.com/kilianp07/lessonalloc/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket runs are written to.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes allocation runs to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes the run summary as one allocation_run point.
func (s *InfluxSink) RecordRun(r coremetrics.RunSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("allocation_run").
		AddTag("run_id", r.RunID).
		AddTag("outcome", r.Outcome).
		AddTag("status", r.Status).
		AddField("requested", r.Requested).
		AddField("placed", r.Placed).
		AddField("new_lessons", r.NewLessons).
		AddField("fulfillment_percent", round3(r.Percent)).
		AddField("variables", r.Variables).
		AddField("constraints", r.Constraints).
		AddField("warnings", r.Warnings).
		AddField("duration_ms", r.Duration.Milliseconds()).
		SetTime(r.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordConstraintRows writes one point per constraint family.
func (s *InfluxSink) RecordConstraintRows(ev coremetrics.ConstraintRowsEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(ev.Rows))
	for code, n := range ev.Rows {
		points = append(points, write.NewPointWithMeasurement("allocation_constraint_rows").
			AddTag("run_id", ev.RunID).
			AddTag("constraint", code).
			AddField("rows", n).
			SetTime(ev.Time))
	}
	if len(points) == 0 {
		return nil
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordFulfillment writes one point per request row.
func (s *InfluxSink) RecordFulfillment(ev coremetrics.FulfillmentEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range ev.Requests {
		p := write.NewPointWithMeasurement("request_fulfillment").
			AddTag("run_id", ev.RunID).
			AddTag("student_id", strconv.Itoa(r.StudentID)).
			AddTag("subject_id", strconv.Itoa(r.SubjectID)).
			AddField("requested", r.Requested).
			AddField("placed", r.Placed)
		if r.Reason != "" {
			p = p.AddTag("reason", r.Reason)
		}
		p = p.SetTime(ev.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
