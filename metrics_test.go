package cellgo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBasicMetricsCollector(t *testing.T) {
	m := &BasicMetricsCollector{}

	m.RecordCovering(5, 100*time.Nanosecond, nil)
	m.RecordCovering(3, 300*time.Nanosecond, ErrNilRegion)
	m.RecordIndexBuild(2, 40, 1*time.Microsecond)
	m.RecordShapeAdd(time.Nanosecond)
	m.RecordShapeAdd(time.Nanosecond)
	m.RecordShapeRemove(time.Nanosecond)
	m.RecordContains(time.Nanosecond, true)
	m.RecordContains(time.Nanosecond, false)

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats.CoveringCount)
	assert.Equal(t, int64(1), stats.CoveringErrors)
	assert.Equal(t, int64(8), stats.CoveringCells)
	assert.Equal(t, int64(200), stats.CoveringAvgNanos)
	assert.Equal(t, int64(1), stats.BuildCount)
	assert.Equal(t, int64(2), stats.BuildShapes)
	assert.Equal(t, int64(40), stats.BuildEdges)
	assert.Equal(t, int64(1000), stats.BuildAvgNanos)
	assert.Equal(t, int64(2), stats.ShapeAddCount)
	assert.Equal(t, int64(1), stats.ShapeRemoveCount)
	assert.Equal(t, int64(2), stats.ContainsCount)
	assert.Equal(t, int64(1), stats.ContainsHits)
}

func TestBasicMetricsCollectorEmpty(t *testing.T) {
	m := &BasicMetricsCollector{}
	stats := m.GetStats()

	assert.Zero(t, stats.CoveringCount)
	assert.Zero(t, stats.CoveringAvgNanos)
	assert.Zero(t, stats.BuildAvgNanos)
}
