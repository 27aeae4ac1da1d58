package kllvec

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with kllvec-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithK adds the accuracy parameter field to the logger.
func (l *Logger) WithK(k uint16) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithChannels adds the channel-count field to the logger.
func (l *Logger) WithChannels(d int) *Logger {
	return &Logger{
		Logger: l.Logger.With("channels", d),
	}
}

// LogUpdate logs a bulk update.
func (l *Logger) LogUpdate(ctx context.Context, records int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "update failed",
			"records", records,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "update completed",
			"records", records,
		)
	}
}

// LogMerge logs a container merge.
func (l *Logger) LogMerge(ctx context.Context, channels int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "merge failed",
			"channels", channels,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "merge completed",
			"channels", channels,
		)
	}
}

// LogSnapshot logs a snapshot save or load.
func (l *Logger) LogSnapshot(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot completed",
			"name", name,
		)
	}
}
