// Package metrics defines the sinks allocation runs report to. A sink
// records at least the run summary; optional recorder interfaces cover the
// per-constraint row counts and per-request fulfillment. Sinks are created
// from configuration through NewMetricsSink, which returns a MultiSink when
// several are configured.
package metrics
