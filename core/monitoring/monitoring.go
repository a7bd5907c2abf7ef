package monitoring

import "time"

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	// AddBreadcrumb records a pipeline step attached to later captures.
	AddBreadcrumb(category, message string, data map[string]any)
	// RecoverPanic reports a recovered panic value.
	RecoverPanic(r any)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string)     {}
func (NopMonitor) AddBreadcrumb(string, string, map[string]any) {}
func (NopMonitor) RecoverPanic(any)                              {}
func (NopMonitor) Flush(time.Duration)                           {}

var current Monitor = NopMonitor{}

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if current != nil {
		current.CaptureException(err, tags)
	}
}

// AddBreadcrumb records a step of the current run.
func AddBreadcrumb(category, message string, data map[string]any) {
	if current != nil {
		current.AddBreadcrumb(category, message, data)
	}
}

// Recover reports a panic to the monitor and re-raises it. It must be
// deferred directly.
func Recover() {
	if r := recover(); r != nil {
		if current != nil {
			current.RecoverPanic(r)
		}
		panic(r)
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	if current != nil {
		current.Flush(d)
	}
}
