package docstore

import (
	"context"
	"log/slog"
	"time"
)

// Operation names carried by LogEvent.Op and StoreError.Op.
const (
	OpOpen       = "open"
	OpLoad       = "load"
	OpDefault    = "default"
	OpQuarantine = "quarantine"
	OpRecover    = "recover"
	OpExhausted  = "exhausted"
	OpSave       = "save"
	OpDelete     = "delete"
	OpWatch      = "watch"
)

// LogEvent describes a store operation for logging.
type LogEvent struct {
	Op       string
	Name     string
	Path     string
	Duration time.Duration
	Err      error
	Detail   string
}

// Logger records store events.
type Logger interface {
	Log(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// Log implements Logger.
func (f LoggerFunc) Log(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) Log(LogEvent) {}

// SlogLogger writes events to logger. Failures are logged at error level,
// recovery steps at warn and routine loads and saves at debug.
func SlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return slogLogger{logger: logger}
}

type slogLogger struct {
	logger *slog.Logger
}

func (l slogLogger) Log(event LogEvent) {
	attrs := []slog.Attr{
		slog.String("op", event.Op),
		slog.String("name", event.Name),
	}
	if event.Path != "" {
		attrs = append(attrs, slog.String("path", event.Path))
	}
	if event.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", event.Duration))
	}
	if event.Err != nil {
		attrs = append(attrs, slog.Any("error", event.Err))
	}
	msg := "docstore " + event.Op
	if event.Detail != "" {
		msg += ": " + event.Detail
	}
	l.logger.LogAttrs(context.Background(), levelFor(event), msg, attrs...)
}

func levelFor(event LogEvent) slog.Level {
	switch {
	case event.Err != nil && (event.Op == OpSave || event.Op == OpDelete || event.Op == OpOpen):
		return slog.LevelError
	case event.Err != nil, event.Op == OpQuarantine, event.Op == OpRecover, event.Op == OpExhausted:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}
