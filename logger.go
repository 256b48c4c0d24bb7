package cellgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with cellgo-specific context.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithCellID adds a cell token field to the logger (useful for tagging operations).
func (l *Logger) WithCellID(id CellID) *Logger {
	return &Logger{
		Logger: l.Logger.With("cell", id.Token()),
	}
}

// WithLevel adds a cell level field to the logger.
func (l *Logger) WithLevel(level int) *Logger {
	return &Logger{
		Logger: l.Logger.With("level", level),
	}
}

// WithMaxCells adds a max_cells field to the logger.
func (l *Logger) WithMaxCells(maxCells int) *Logger {
	return &Logger{
		Logger: l.Logger.With("max_cells", maxCells),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogCovering logs a covering operation.
func (l *Logger) LogCovering(ctx context.Context, maxCells, cellsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "covering failed",
			"max_cells", maxCells,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "covering completed",
			"max_cells", maxCells,
			"cells", cellsFound,
		)
	}
}

// LogIndexBuild logs a shape index build.
func (l *Logger) LogIndexBuild(ctx context.Context, shapes, edges int) {
	l.InfoContext(ctx, "index build completed",
		"shapes", shapes,
		"edges", edges,
	)
}

// LogShapeAdd logs a shape insertion.
func (l *Logger) LogShapeAdd(ctx context.Context, shapeID int32, numEdges int) {
	l.DebugContext(ctx, "shape added",
		"shape_id", shapeID,
		"edges", numEdges,
	)
}

// LogShapeRemove logs a shape removal.
func (l *Logger) LogShapeRemove(ctx context.Context, numEdges int) {
	l.DebugContext(ctx, "shape removed",
		"edges", numEdges,
	)
}

// LogContains logs a point containment query.
func (l *Logger) LogContains(ctx context.Context, contained bool) {
	l.DebugContext(ctx, "containment query completed",
		"contained", contained,
	)
}
