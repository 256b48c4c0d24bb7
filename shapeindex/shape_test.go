package shapeindex

import (
	"testing"

	"github.com/golang/geo/s1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cellgo/cell"
	"github.com/hupe1980/cellgo/testutil"
)

func TestEdgeCmp(t *testing.T) {
	a := cell.PointFromCoords(1, 0, 0)
	b := cell.PointFromCoords(0, 1, 0)
	c := cell.PointFromCoords(0, 0, 1)

	tests := []struct {
		name     string
		x, y     Edge
		expected int
	}{
		{"Equal", Edge{a, b}, Edge{a, b}, 0},
		{"FirstVertexSmaller", Edge{a, c}, Edge{b, a}, -1},
		{"FirstVertexLarger", Edge{b, a}, Edge{a, c}, 1},
		{"SecondVertexBreaksTie", Edge{a, b}, Edge{a, c}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.x.Cmp(tt.y))
		})
	}
}

func TestPointVector(t *testing.T) {
	rng := testutil.NewRNG(17)

	points := make([]cell.Point, 10)
	for i := range points {
		points[i] = rng.Point()
	}
	shape := PointVector(points)

	assert.Equal(t, 10, shape.NumEdges())
	assert.Equal(t, 10, shape.NumChains())
	assert.Equal(t, 0, shape.Dimension())
	assert.False(t, shape.IsEmpty())
	assert.False(t, shape.IsFull())
	assert.False(t, shape.ReferencePoint().Contained)

	for i := 0; i < shape.NumEdges(); i++ {
		e := shape.Edge(i)
		assert.Equal(t, points[i], e.V0)
		assert.Equal(t, points[i], e.V1)
		assert.Equal(t, Chain{i, 1}, shape.Chain(i))
		assert.Equal(t, ChainPosition{i, 0}, shape.ChainPosition(i))
	}

	empty := PointVector(nil)
	assert.True(t, empty.IsEmpty())
	assert.False(t, empty.IsFull())
}

func TestEdgeVectorShape(t *testing.T) {
	a := cell.PointFromCoords(1, 0, 0)
	b := cell.PointFromCoords(0, 1, 0)
	c := cell.PointFromCoords(0, 0, 1)

	shape := EdgeVectorShapeFromPoints(a, b)
	shape.Add(b, c)

	assert.Equal(t, 2, shape.NumEdges())
	assert.Equal(t, 2, shape.NumChains())
	assert.Equal(t, 1, shape.Dimension())
	assert.False(t, shape.IsEmpty())
	assert.False(t, shape.IsFull())
	assert.False(t, shape.ReferencePoint().Contained)

	assert.Equal(t, Edge{a, b}, shape.Edge(0))
	assert.Equal(t, Edge{b, c}, shape.Edge(1))
	assert.Equal(t, shape.Edge(1), shape.ChainEdge(1, 0))
	assert.Equal(t, ChainPosition{0, 0}, shape.ChainPosition(0))
}

func TestLaxLoop(t *testing.T) {
	vertices := testutil.RegularPoints(cell.PointFromCoords(1, 0, 0), s1.Degree*10, 6)
	loop := LaxLoopFromPoints(vertices)

	require.Equal(t, 6, loop.NumEdges())
	assert.Equal(t, 1, loop.NumChains())
	assert.Equal(t, 2, loop.Dimension())
	assert.False(t, loop.IsEmpty())
	assert.False(t, loop.IsFull())
	assert.Equal(t, Chain{0, 6}, loop.Chain(0))

	for i := range vertices {
		assert.Equal(t, vertices[i], loop.Vertex(i))

		e := loop.Edge(i)
		assert.Equal(t, vertices[i], e.V0)
		assert.Equal(t, vertices[(i+1)%len(vertices)], e.V1)
		assert.Equal(t, e, loop.ChainEdge(0, i))
		assert.Equal(t, ChainPosition{0, i}, loop.ChainPosition(i))
	}
}

func TestLaxLoopEmpty(t *testing.T) {
	loop := LaxLoopFromPoints(nil)

	assert.Equal(t, 0, loop.NumEdges())
	assert.Equal(t, 0, loop.NumChains())
	assert.Equal(t, 2, loop.Dimension())
	assert.True(t, loop.IsEmpty())
	assert.False(t, loop.IsFull())
}

func TestReferencePointForShape(t *testing.T) {
	t.Run("LoopAwayFromOrigin", func(t *testing.T) {
		// A small loop far from the reference origin does not contain it.
		loop := LaxLoopFromPoints(testutil.RegularPoints(
			cell.PointFromCoords(1, 0, 0), s1.Degree*5, 8))
		ref := loop.ReferencePoint()
		assert.False(t, containsBruteForce(loop, cell.OriginPoint()))
		if ref.Point == cell.OriginPoint() {
			assert.False(t, ref.Contained)
		}
	})

	t.Run("NoEdges", func(t *testing.T) {
		loop := LaxLoopFromPoints(nil)
		ref := loop.ReferencePoint()
		assert.False(t, ref.Contained)
	})
}

func TestContainsBruteForce(t *testing.T) {
	center := cell.PointFromCoords(1, 0.5, 0.5)
	loop := LaxLoopFromPoints(testutil.RegularPoints(center, s1.Degree*20, 16))

	assert.True(t, containsBruteForce(loop, center))
	assert.False(t, containsBruteForce(loop, cell.Point{Vector: center.Mul(-1)}))
	assert.False(t, containsBruteForce(loop, cell.PointFromCoords(-1, 0, 0)))

	// Shapes without an interior never contain anything.
	line := EdgeVectorShapeFromPoints(center, cell.PointFromCoords(0, 1, 0))
	assert.False(t, containsBruteForce(line, center))
}

func TestContainsVertexQuery(t *testing.T) {
	target := cell.PointFromCoords(1, 1, 1)
	a := cell.PointFromCoords(1, 0, 0)
	b := cell.PointFromCoords(0, 1, 0)

	t.Run("MatchedEdgesCancel", func(t *testing.T) {
		q := NewContainsVertexQuery(target)
		q.AddEdge(a, 1)
		q.AddEdge(a, -1)
		assert.Equal(t, 0, q.ContainsVertex())
	})

	t.Run("UnmatchedEdgeDecides", func(t *testing.T) {
		q := NewContainsVertexQuery(target)
		q.AddEdge(a, 1)
		q.AddEdge(b, -1)
		got := q.ContainsVertex()
		assert.NotZero(t, got)

		// Reversing every edge flips the answer.
		r := NewContainsVertexQuery(target)
		r.AddEdge(a, -1)
		r.AddEdge(b, 1)
		assert.Equal(t, -got, r.ContainsVertex())
	})
}
