// Package log wraps slog with component-tagged loggers and the standard
// field names used across the dashboard.
package log

import (
	"log/slog"
	"os"
)

// Common field names for structured logging.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldTransaction = "transaction_id"
	FieldCategory    = "category"
	FieldAmount      = "amount"
	FieldBackend     = "backend"
)

// Standard component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStore     = "store"
	ComponentAnalysis  = "analysis"
	ComponentEvents    = "events"
	ComponentWorker    = "worker"
	ComponentExport    = "export"
	ComponentUI        = "ui"
	ComponentRateLimit = "rate_limit"
)

// Logger wraps slog.Logger with a component tag applied to every record.
type Logger struct {
	*slog.Logger
	component string
}

// New creates a component logger on top of the given handler. A nil handler
// falls back to a text handler on stdout at Info level.
func New(component string, handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{
		Logger:    slog.New(handler).With(FieldComponent, component),
		component: component,
	}
}

// WithComponent returns a logger tagged with a different component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger.With(FieldComponent, component),
		component: component,
	}
}

// With returns a logger carrying extra attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		component: l.component,
	}
}

// Component returns the logger's component name.
func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs the logger as the process default.
func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}
