package factorec

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with factorec-specific context.
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
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
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
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithQueries adds a queries (query vector count) field to the logger.
func (l *Logger) WithQueries(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("queries", n),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithPartition adds a partition field to the logger.
func (l *Logger) WithPartition(p int) *Logger {
	return &Logger{
		Logger: l.Logger.With("partition", p),
	}
}

// LogScan logs the end of a scoring scan.
func (l *Logger) LogScan(ctx context.Context, stats ScanStats, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "scan failed",
			"scanned", stats.Scanned,
			"emitted", stats.Emitted,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "scan completed",
			"scanned", stats.Scanned,
			"emitted", stats.Emitted,
			"skipped", stats.Skipped(),
			"duration", duration,
		)
	}
}

// LogTopN logs a top-N selection.
func (l *Logger) LogTopN(ctx context.Context, n, partitions, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "top-n failed",
			"n", n,
			"partitions", partitions,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "top-n completed",
			"n", n,
			"partitions", partitions,
			"results", results,
		)
	}
}
