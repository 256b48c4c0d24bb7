package cellgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    coveringCounter   prometheus.Counter
//	    coveringHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordCovering(cells int, duration time.Duration, err error) {
//	    p.coveringCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordCovering is called after each covering operation.
	// cells is the number of cells produced, duration is the total time
	// taken, err is nil if successful.
	RecordCovering(cells int, duration time.Duration, err error)

	// RecordIndexBuild is called after each shape index build.
	// shapes and edges describe the indexed geometry, duration is the
	// total time taken.
	RecordIndexBuild(shapes, edges int, duration time.Duration)

	// RecordShapeAdd is called after each shape insertion.
	RecordShapeAdd(duration time.Duration)

	// RecordShapeRemove is called after each shape removal.
	RecordShapeRemove(duration time.Duration)

	// RecordContains is called after each point containment query.
	RecordContains(duration time.Duration, contained bool)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCovering(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordIndexBuild(int, int, time.Duration) {}
func (NoopMetricsCollector) RecordShapeAdd(time.Duration)             {}
func (NoopMetricsCollector) RecordShapeRemove(time.Duration)          {}
func (NoopMetricsCollector) RecordContains(time.Duration, bool)       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	CoveringCount      atomic.Int64
	CoveringErrors     atomic.Int64
	CoveringCells      atomic.Int64
	CoveringTotalNanos atomic.Int64
	BuildCount         atomic.Int64
	BuildShapes        atomic.Int64
	BuildEdges         atomic.Int64
	BuildTotalNanos    atomic.Int64
	ShapeAddCount      atomic.Int64
	ShapeRemoveCount   atomic.Int64
	ContainsCount      atomic.Int64
	ContainsHits       atomic.Int64
}

// RecordCovering implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCovering(cells int, duration time.Duration, err error) {
	b.CoveringCount.Add(1)
	b.CoveringCells.Add(int64(cells))
	b.CoveringTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CoveringErrors.Add(1)
	}
}

// RecordIndexBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndexBuild(shapes, edges int, duration time.Duration) {
	b.BuildCount.Add(1)
	b.BuildShapes.Add(int64(shapes))
	b.BuildEdges.Add(int64(edges))
	b.BuildTotalNanos.Add(duration.Nanoseconds())
}

// RecordShapeAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordShapeAdd(duration time.Duration) {
	b.ShapeAddCount.Add(1)
}

// RecordShapeRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordShapeRemove(duration time.Duration) {
	b.ShapeRemoveCount.Add(1)
}

// RecordContains implements MetricsCollector.
func (b *BasicMetricsCollector) RecordContains(duration time.Duration, contained bool) {
	b.ContainsCount.Add(1)
	if contained {
		b.ContainsHits.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		CoveringCount:    b.CoveringCount.Load(),
		CoveringErrors:   b.CoveringErrors.Load(),
		CoveringCells:    b.CoveringCells.Load(),
		CoveringAvgNanos: b.getAvgCoveringNanos(),
		BuildCount:       b.BuildCount.Load(),
		BuildShapes:      b.BuildShapes.Load(),
		BuildEdges:       b.BuildEdges.Load(),
		BuildAvgNanos:    b.getAvgBuildNanos(),
		ShapeAddCount:    b.ShapeAddCount.Load(),
		ShapeRemoveCount: b.ShapeRemoveCount.Load(),
		ContainsCount:    b.ContainsCount.Load(),
		ContainsHits:     b.ContainsHits.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgCoveringNanos() int64 {
	count := b.CoveringCount.Load()
	if count == 0 {
		return 0
	}
	return b.CoveringTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgBuildNanos() int64 {
	count := b.BuildCount.Load()
	if count == 0 {
		return 0
	}
	return b.BuildTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	CoveringCount    int64
	CoveringErrors   int64
	CoveringCells    int64
	CoveringAvgNanos int64
	BuildCount       int64
	BuildShapes      int64
	BuildEdges       int64
	BuildAvgNanos    int64
	ShapeAddCount    int64
	ShapeRemoveCount int64
	ContainsCount    int64
	ContainsHits     int64
}
