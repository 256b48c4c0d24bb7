package cellgo

import (
	"context"
	"testing"

	"github.com/golang/geo/s1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cellgo/cell"
	"github.com/hupe1980/cellgo/coverer"
	"github.com/hupe1980/cellgo/shapeindex"
	"github.com/hupe1980/cellgo/testutil"
)

func makeLoopRegion(t *testing.T, center Point, radius s1.Angle) (*CellGo, *ShapeIndexRegion) {
	t.Helper()

	cg, err := New()
	require.NoError(t, err)

	cg.AddShape(context.Background(), shapeindex.LaxLoopFromPoints(
		testutil.RegularPoints(center, radius, 16)))
	cg.Build(context.Background())
	return cg, cg.Region()
}

func TestShapeIndexRegionEmpty(t *testing.T) {
	index := shapeindex.NewShapeIndex()
	region := NewShapeIndexRegion(index)

	assert.Empty(t, region.CellUnionBound())
	assert.False(t, region.ContainsPoint(cell.PointFromCoords(1, 0, 0)))

	target := cell.FromID(cell.FromFace(0))
	assert.False(t, region.IntersectsCell(target))
	assert.False(t, region.ContainsCell(target))
}

func TestShapeIndexRegionCellUnionBound(t *testing.T) {
	center := cell.PointFromCoords(1, 0.5, 0.5)
	cg, region := makeLoopRegion(t, center, 20*s1.Degree)

	bound := CellUnion(region.CellUnionBound())
	require.NotEmpty(t, bound)
	assert.LessOrEqual(t, len(bound), 6)

	bound.Normalize()

	// Every index cell must fall inside the bound.
	for it := cg.Index().Iterator(); !it.Done(); it.Next() {
		assert.True(t, bound.ContainsID(it.CellID()), "index cell %v outside bound", it.CellID())
	}
}

func TestShapeIndexRegionContainsPoint(t *testing.T) {
	center := cell.PointFromCoords(1, 0.5, 0.5)
	radius := 20 * s1.Degree
	_, region := makeLoopRegion(t, center, radius)

	assert.True(t, region.ContainsPoint(center))
	assert.False(t, region.ContainsPoint(cell.Point{Vector: center.Mul(-1)}))

	// For a regular loop, containment is equivalent to being within the
	// loop radius. Points within a degree of the boundary are skipped since
	// the polygon only approximates the circle there.
	rng := testutil.NewRNG(21)
	for i := 0; i < 1000; i++ {
		p := rng.Point()
		dist := s1.Angle(center.Angle(p))
		if dist > radius-s1.Degree && dist < radius+s1.Degree {
			continue
		}
		assert.Equal(t, dist < radius, region.ContainsPoint(p), "point %v at distance %v", p, dist)
	}
}

func TestShapeIndexRegionCellQueries(t *testing.T) {
	center := cell.PointFromCoords(1, 0.5, 0.5)
	_, region := makeLoopRegion(t, center, 20*s1.Degree)

	t.Run("DeepInterior", func(t *testing.T) {
		target := cell.FromID(cell.FromPoint(center).Parent(10))
		assert.True(t, region.IntersectsCell(target))
		assert.True(t, region.ContainsCell(target))
	})

	t.Run("Boundary", func(t *testing.T) {
		// A small cell on a loop vertex straddles the boundary.
		vertex := testutil.RegularPoints(center, 20*s1.Degree, 16)[0]
		target := cell.FromID(cell.FromPoint(vertex).Parent(10))
		assert.True(t, region.IntersectsCell(target))
		assert.False(t, region.ContainsCell(target))
	})

	t.Run("ContainingFace", func(t *testing.T) {
		// The face cell holding the whole loop intersects but is not
		// contained.
		target := cell.FromID(cell.FromPoint(center).Parent(0))
		assert.True(t, region.IntersectsCell(target))
		assert.False(t, region.ContainsCell(target))
	})

	t.Run("Antipode", func(t *testing.T) {
		antipode := cell.Point{Vector: center.Mul(-1)}
		target := cell.FromID(cell.FromPoint(antipode).Parent(5))
		assert.False(t, region.IntersectsCell(target))
		assert.False(t, region.ContainsCell(target))
	})
}

func TestShapeIndexRegionVisitIntersectingShapes(t *testing.T) {
	ctx := context.Background()

	cg, err := New()
	require.NoError(t, err)

	centerA := cell.PointFromCoords(1, 0, 0)
	centerB := cell.PointFromCoords(0, 0, 1)
	loopA := shapeindex.LaxLoopFromPoints(testutil.RegularPoints(centerA, 15*s1.Degree, 12))
	loopB := shapeindex.LaxLoopFromPoints(testutil.RegularPoints(centerB, 15*s1.Degree, 12))
	cg.AddShape(ctx, loopA)
	cg.AddShape(ctx, loopB)
	cg.Build(ctx)

	region := cg.Region()

	t.Run("InteriorCell", func(t *testing.T) {
		target := cell.FromID(cell.FromPoint(centerA).Parent(12))

		var visited []Shape
		ok := region.VisitIntersectingShapes(target, func(shape Shape, containsTarget bool) bool {
			visited = append(visited, shape)
			assert.True(t, containsTarget)
			return true
		})
		assert.True(t, ok)
		require.Len(t, visited, 1)
		assert.Equal(t, Shape(loopA), visited[0])
	})

	t.Run("SubdividedCell", func(t *testing.T) {
		// The face cell around loop A is subdivided into many index cells,
		// some of which carry edges, so the loop intersects but does not
		// contain it.
		target := cell.FromID(cell.FromPoint(centerA).Parent(0))

		var visited []Shape
		ok := region.VisitIntersectingShapes(target, func(shape Shape, containsTarget bool) bool {
			visited = append(visited, shape)
			assert.False(t, containsTarget)
			return true
		})
		assert.True(t, ok)
		require.Len(t, visited, 1)
		assert.Equal(t, Shape(loopA), visited[0])
	})

	t.Run("DisjointCell", func(t *testing.T) {
		antipode := cell.Point{Vector: centerA.Mul(-1)}
		target := cell.FromID(cell.FromPoint(antipode).Parent(8))

		calls := 0
		ok := region.VisitIntersectingShapes(target, func(Shape, bool) bool {
			calls++
			return true
		})
		assert.True(t, ok)
		assert.Zero(t, calls)
	})

	t.Run("EarlyTermination", func(t *testing.T) {
		target := cell.FromID(cell.FromPoint(centerA).Parent(12))

		ok := region.VisitIntersectingShapes(target, func(Shape, bool) bool {
			return false
		})
		assert.False(t, ok)
	})
}

func TestShapeIndexRegionAsCovererRegion(t *testing.T) {
	center := cell.PointFromCoords(0, 1, 0.3)
	cg, region := makeLoopRegion(t, center, 10*s1.Degree)

	rc := coverer.NewRegionCoverer()
	covering := rc.Covering(region)
	require.NotEmpty(t, covering)
	assert.LessOrEqual(t, len(covering), rc.MaxCells)

	// The covering must contain every index cell.
	for it := cg.Index().Iterator(); !it.Done(); it.Next() {
		assert.True(t, covering.ContainsID(it.CellID()))
	}
	assert.True(t, covering.ContainsPoint(center))
}
