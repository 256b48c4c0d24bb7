package predicate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cellgo/cell"
)

func TestCrossingSign(t *testing.T) {
	tests := []struct {
		name       string
		a, b, c, d cell.Point
		expected   Crossing
	}{
		{
			"TwoRegularEdgesThatCross",
			cell.PointFromCoords(1, 2, 1),
			cell.PointFromCoords(1, -3, 0.5),
			cell.PointFromCoords(1, -0.5, -3),
			cell.PointFromCoords(0.1, 0.5, 3),
			Cross,
		},
		{
			"TwoRegularEdgesThatIntersectAntipodalPoints",
			cell.PointFromCoords(1, 2, 1),
			cell.PointFromCoords(1, -3, 0.5),
			cell.PointFromCoords(-1, 0.5, 3),
			cell.PointFromCoords(-0.1, -0.5, -3),
			DoNotCross,
		},
		{
			"TwoEdgesOnSameGreatCircleThatDoNotTouch",
			cell.PointFromCoords(0, 0, -1),
			cell.PointFromCoords(0, 1, 0),
			cell.PointFromCoords(0, 1, 1),
			cell.PointFromCoords(0, 0, 1),
			DoNotCross,
		},
		{
			"TwoEdgesThatShareAnEndpoint",
			cell.PointFromCoords(2, 3, 4),
			cell.PointFromCoords(-1, 2, 5),
			cell.PointFromCoords(7, -2, 3),
			cell.PointFromCoords(2, 3, 4),
			MaybeCross,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Test all four possible edge orientations.
			require.Equal(t, tt.expected, CrossingSign(tt.a, tt.b, tt.c, tt.d))
			require.Equal(t, tt.expected, CrossingSign(tt.b, tt.a, tt.c, tt.d))
			require.Equal(t, tt.expected, CrossingSign(tt.a, tt.b, tt.d, tt.c))
			require.Equal(t, tt.expected, CrossingSign(tt.b, tt.a, tt.d, tt.c))

			// Edge pairs are symmetric.
			require.Equal(t, tt.expected, CrossingSign(tt.c, tt.d, tt.a, tt.b))
		})
	}
}

func TestVertexCrossing(t *testing.T) {
	a := cell.PointFromCoords(1, 2, 1)
	b := cell.PointFromCoords(1, -3, 0.5)
	c := cell.PointFromCoords(1, -0.5, -3)

	t.Run("DegenerateEdges", func(t *testing.T) {
		assert.False(t, VertexCrossing(a, a, b, c))
		assert.False(t, VertexCrossing(a, b, c, c))
	})

	t.Run("NoSharedVertex", func(t *testing.T) {
		assert.False(t, VertexCrossing(a, b, c, cell.PointFromCoords(3, 1, 2)))
	})

	t.Run("AsymmetricRule", func(t *testing.T) {
		// For edges sharing exactly one vertex, exactly one of
		// VertexCrossing(AB, CD) and VertexCrossing(CD, AB) is true.
		d := cell.PointFromCoords(0.5, 1, -2)
		got := VertexCrossing(a, b, a, d)
		swapped := VertexCrossing(a, d, a, b)
		require.NotEqual(t, got, swapped)
	})
}

func TestEdgeOrVertexCrossingParity(t *testing.T) {
	// Walking from a fixed outside point to a query point must count an
	// odd number of crossings with a closed loop iff the query point is
	// inside the loop, regardless of whether the walk passes through loop
	// vertices.
	center := cell.PointFromCoords(1, 0.5, 0.5)
	loop := regularLoopForTest(center, 0.1, 16)
	outside := cell.PointFromCoords(-1, 0, 0)

	t.Run("CenterIsInside", func(t *testing.T) {
		assert.True(t, countCrossings(outside, center, loop)%2 == 1)
	})

	t.Run("AntipodeIsOutside", func(t *testing.T) {
		assert.True(t, countCrossings(outside, cell.PointFromCoords(0, 0, 1), loop)%2 == 0)
	})

	t.Run("WalkToVertex", func(t *testing.T) {
		// Targeting a loop vertex exercises the vertex-crossing rule. The
		// vertex has a definite containment state, so the parities of
		// walks from an inside point and from an outside point differ.
		fromOutside := countCrossings(outside, loop[3], loop) % 2
		fromInside := countCrossings(center, loop[3], loop) % 2
		assert.NotEqual(t, fromOutside, fromInside)
	})
}

func TestEdgeCrosserChain(t *testing.T) {
	// The chain interface must agree with the one-shot CrossingSign for
	// every edge of a polyline.
	a := cell.PointFromCoords(1, 1, 1)
	b := cell.PointFromCoords(-1, 1, 1)
	chain := []cell.Point{
		cell.PointFromCoords(0.5, -1, 1),
		cell.PointFromCoords(0.5, 1, 3),
		cell.PointFromCoords(0.5, 1, -1),
		cell.PointFromCoords(-0.5, 0, 1),
		b,
	}

	crosser := NewChainEdgeCrosser(a, b, chain[0])
	for i := 1; i < len(chain); i++ {
		want := CrossingSign(a, b, chain[i-1], chain[i])
		require.Equal(t, want, crosser.ChainCrossingSign(chain[i]), "edge %d", i)
	}

	// RestartAt resets the chain state.
	crosser.RestartAt(chain[0])
	require.Equal(t, CrossingSign(a, b, chain[0], chain[1]), crosser.CrossingSign(chain[0], chain[1]))
}

func TestEdgeOrVertexCrossingMatchesCrossingSign(t *testing.T) {
	tests := []struct {
		name       string
		a, b, c, d cell.Point
		expected   bool
	}{
		{
			"InteriorCrossing",
			cell.PointFromCoords(1, 2, 1),
			cell.PointFromCoords(1, -3, 0.5),
			cell.PointFromCoords(1, -0.5, -3),
			cell.PointFromCoords(0.1, 0.5, 3),
			true,
		},
		{
			"NoCrossing",
			cell.PointFromCoords(1, 2, 1),
			cell.PointFromCoords(1, -3, 0.5),
			cell.PointFromCoords(-1, 0.5, 3),
			cell.PointFromCoords(-0.1, -0.5, -3),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EdgeOrVertexCrossing(tt.a, tt.b, tt.c, tt.d))
		})
	}
}

func countCrossings(from, to cell.Point, loop []cell.Point) int {
	crossings := 0
	crosser := NewEdgeCrosser(from, to)
	prev := loop[len(loop)-1]
	for _, v := range loop {
		if crosser.EdgeOrVertexCrossing(prev, v) {
			crossings++
		}
		prev = v
	}
	return crossings
}

func regularLoopForTest(center cell.Point, radius float64, n int) []cell.Point {
	z := center.Vector
	x := z.Ortho()
	y := z.Cross(x)

	pts := make([]cell.Point, n)
	for i := range pts {
		angle := 2 * math.Pi * float64(i) / float64(n)
		p := x.Mul(radius * math.Cos(angle)).Add(y.Mul(radius * math.Sin(angle))).Add(z)
		pts[i] = cell.Point{Vector: p.Normalize()}
	}
	return pts
}
