package cellgo

import (
	"log/slog"

	"github.com/hupe1980/cellgo/cell"
)

type options struct {
	maxCells         int
	minLevel         int
	maxLevel         int
	levelMod         int
	maxEdgesPerCell  int
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures CellGo constructor behavior.
type Option func(*options)

// WithMaxCells configures the approximate maximum number of cells produced
// by covering operations. The result may exceed this limit when the region
// intersects more than maxCells cells at MinLevel, or when MinLevel and
// LevelMod constraints force extra subdivision.
func WithMaxCells(maxCells int) Option {
	return func(o *options) {
		o.maxCells = maxCells
	}
}

// WithLevelRange configures the minimum and maximum cell levels used by
// covering operations. New reports an error if the range is invalid.
func WithLevelRange(minLevel, maxLevel int) Option {
	return func(o *options) {
		o.minLevel = minLevel
		o.maxLevel = maxLevel
	}
}

// WithLevelMod restricts covering output to levels where
// (level - minLevel) is a multiple of levelMod. Valid values are 1 to 3,
// which correspond to cell areas shrinking by factors of 4, 16 and 64
// per step.
func WithLevelMod(levelMod int) Option {
	return func(o *options) {
		o.levelMod = levelMod
	}
}

// WithMaxEdgesPerCell configures the shape index subdivision threshold.
// Index cells holding more than this many edges are split, except when a
// cell is mostly spanned by long edges.
func WithMaxEdgesPerCell(n int) Option {
	return func(o *options) {
		o.maxEdgesPerCell = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &cellgo.BasicMetricsCollector{}
//	cg := cellgo.New(cellgo.WithMetricsCollector(metrics))
//	// ... use cg ...
//	stats := metrics.GetStats()
//	fmt.Printf("Coverings: %d, Avg latency: %dns\n", stats.CoveringCount, stats.CoveringAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := cellgo.NewJSONLogger(slog.LevelInfo)
//	cg := cellgo.New(cellgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		maxCells:         8,
		minLevel:         0,
		maxLevel:         cell.MaxLevel,
		levelMod:         1,
		maxEdgesPerCell:  10,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
