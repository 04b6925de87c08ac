package logger

import corelogger "github.com/kilianp07/ptgbot/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.Nop

// New returns a Logger tagged with the given component. Output format is
// selected via APP_ENV and verbosity via LOG_LEVEL.
func New(component string) Logger {
	return NewZerologLogger(component)
}
