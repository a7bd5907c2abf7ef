package logger

import corelogger "github.com/kilianp07/lessonalloc/core/logger"

type Logger = corelogger.Logger

type NopLogger = corelogger.NopLogger

// New returns the zerolog-backed Logger for a component. Output follows the
// last Configure call.
func New(component string) Logger {
	return NewZerologLogger(component)
}
