package testutil

import (
	"testing"

	"github.com/golang/geo/s1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cellgo/cell"
)

func TestRNGDeterminism(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)

	for i := 0; i < 100; i++ {
		require.Equal(t, a.Uint64(), b.Uint64())
	}

	a.Reset()
	c := NewRNG(42)
	require.Equal(t, c.Uint64(), a.Uint64())
}

func TestRNGPoint(t *testing.T) {
	rng := NewRNG(1)

	for i := 0; i < 100; i++ {
		p := rng.Point()
		assert.InDelta(t, 1.0, p.Norm(), 1e-14, "points must be unit length")
	}
}

func TestRNGCellIDForLevel(t *testing.T) {
	rng := NewRNG(1)

	for level := 0; level <= cell.MaxLevel; level++ {
		id := rng.CellIDForLevel(level)
		require.True(t, id.IsValid())
		require.Equal(t, level, id.Level())
	}
}

func TestRNGCellUnion(t *testing.T) {
	rng := NewRNG(1)

	u := rng.CellUnion(10)
	assert.True(t, u.IsNormalized())
	assert.NotEmpty(t, u)
}

func TestRegularPoints(t *testing.T) {
	center := cell.PointFromCoords(0, 0, 1)
	radius := 10 * s1.Degree
	pts := RegularPoints(center, radius, 16)

	require.Len(t, pts, 16)
	for _, p := range pts {
		assert.InDelta(t, 1.0, p.Norm(), 1e-14)
		assert.InDelta(t, radius.Radians(), float64(center.Angle(p)), 1e-14)
	}
}

func TestSkewedInt(t *testing.T) {
	rng := NewRNG(1)

	for i := 0; i < 1000; i++ {
		v := rng.SkewedInt(10)
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, 1<<10)
	}
}
