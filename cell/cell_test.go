package cell

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellFaces(t *testing.T) {
	centerCounts := map[Point]int{}
	vertexCounts := map[Point]int{}

	for face := 0; face < NumFaces; face++ {
		id := FromFace(face)
		c := FromID(id)

		require.Equal(t, id, c.ID())
		assert.Equal(t, face, c.Face())
		assert.Equal(t, 0, c.Level())

		// Top-level faces have a full (u,v) bound.
		bound := c.BoundUV()
		assert.Equal(t, -1.0, bound.X.Lo)
		assert.Equal(t, 1.0, bound.X.Hi)
		assert.Equal(t, -1.0, bound.Y.Lo)
		assert.Equal(t, 1.0, bound.Y.Hi)

		for k := 0; k < 4; k++ {
			vertexCounts[c.Vertex(k)]++
			// Vertices are unit length and CCW around the center.
			assert.InDelta(t, 1.0, c.Vertex(k).Norm(), 1e-15)
		}
		centerCounts[c.Center()]++
	}

	// Each face center is unique, each cube vertex is shared by 3 faces.
	assert.Len(t, centerCounts, 6)
	for v, count := range vertexCounts {
		assert.Equal(t, 3, count, "vertex %v", v)
	}
}

func TestCellContainsPoint(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	t.Run("OwnCenterAndVertices", func(t *testing.T) {
		for i := 0; i < 300; i++ {
			id := FromFacePosLevel(rng.Intn(NumFaces), rng.Uint64()&(1<<PosBits-1), rng.Intn(MaxLevel+1))
			c := FromID(id)
			require.True(t, c.ContainsPoint(c.Center()))
			for k := 0; k < 4; k++ {
				require.True(t, c.ContainsPoint(c.Vertex(k)), "cell %v vertex %d", id, k)
			}
		}
	})

	t.Run("LeafFromPoint", func(t *testing.T) {
		for i := 0; i < 300; i++ {
			p := randomPointForTest(rng)
			require.True(t, FromPointCell(p).ContainsPoint(p))
		}
	})

	t.Run("DisjointFace", func(t *testing.T) {
		c := FromID(FromFace(0)) // +x face
		assert.False(t, c.ContainsPoint(PointFromCoords(-1, 0, 0)))
	})
}

func TestCellContainment(t *testing.T) {
	rng := rand.New(rand.NewSource(12))

	for i := 0; i < 300; i++ {
		id := FromFacePosLevel(rng.Intn(NumFaces), rng.Uint64()&(1<<PosBits-1), rng.Intn(MaxLevel))
		c := FromID(id)
		child := FromID(id.Child(rng.Intn(4)))

		require.True(t, c.ContainsCell(child))
		require.True(t, c.IntersectsCell(child))
		require.False(t, child.ContainsCell(c))

		// A cell center is contained by the cell's children union.
		require.True(t, c.ContainsPoint(child.Center()))
	}
}

func TestCellCellUnionBound(t *testing.T) {
	c := FromID(FromFace(2).Child(3))
	assert.Equal(t, []ID{c.ID()}, c.CellUnionBound())
}

func TestCellSizes(t *testing.T) {
	// Cell sizes halve in (s,t)-space with each level.
	for level := 0; level < MaxLevel; level++ {
		c := FromID(Begin(level))
		next := FromID(Begin(level + 1))
		assert.InDelta(t, c.SizeST()/2, next.SizeST(), 1e-15)
		assert.Equal(t, c.SizeIJ()/2, next.SizeIJ())
	}

	leaf := FromID(Begin(MaxLevel))
	assert.True(t, leaf.IsLeaf())
	assert.Equal(t, 1, leaf.SizeIJ())
}

func TestCellAverageArea(t *testing.T) {
	// The areas of all cells at a level sum to the area of the sphere.
	for _, level := range []int{0, 5, 15, MaxLevel} {
		c := FromID(Begin(level))
		total := c.AverageArea() * 6 * math.Pow(4, float64(level))
		assert.InDelta(t, 4*math.Pi, total, 1e-9*total)
	}
}

func randomPointForTest(rng *rand.Rand) Point {
	return PointFromCoords(
		2*rng.Float64()-1,
		2*rng.Float64()-1,
		2*rng.Float64()-1,
	)
}
