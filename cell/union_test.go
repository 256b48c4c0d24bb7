package cell

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnionNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    Union
		expected Union
	}{
		{
			"Empty",
			Union{},
			Union{},
		},
		{
			"SingleCell",
			Union{FromFace(1)},
			Union{FromFace(1)},
		},
		{
			"Unsorted",
			Union{FromFace(3), FromFace(0)},
			Union{FromFace(0), FromFace(3)},
		},
		{
			"Duplicates",
			Union{FromFace(2), FromFace(2)},
			Union{FromFace(2)},
		},
		{
			"ChildAbsorbedByParent",
			Union{FromFace(0), FromFace(0).Child(1).Child(2)},
			Union{FromFace(0)},
		},
		{
			"FourChildrenCollapse",
			Union{FromFace(4).Child(0), FromFace(4).Child(1), FromFace(4).Child(2), FromFace(4).Child(3)},
			Union{FromFace(4)},
		},
		{
			"NestedCollapse",
			Union{
				FromFace(1).Child(0).Child(0), FromFace(1).Child(0).Child(1),
				FromFace(1).Child(0).Child(2), FromFace(1).Child(0).Child(3),
				FromFace(1).Child(1), FromFace(1).Child(2), FromFace(1).Child(3),
			},
			Union{FromFace(1)},
		},
		{
			"ThreeSiblingsStay",
			Union{FromFace(5).Child(0), FromFace(5).Child(1), FromFace(5).Child(2)},
			Union{FromFace(5).Child(0), FromFace(5).Child(1), FromFace(5).Child(2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := append(Union{}, tt.input...)
			u.Normalize()
			require.Equal(t, tt.expected, u)
			assert.True(t, u.IsNormalized())
		})
	}
}

func TestUnionNormalizeRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(21))

	for i := 0; i < 100; i++ {
		var u Union
		n := 1 + rng.Intn(100)
		for len(u) < n {
			u = append(u, randomIDForTest(rng))
		}

		raw := append(Union(nil), u...)
		u.Normalize()
		require.True(t, u.IsValid())
		require.True(t, u.IsNormalized())

		// Normalization preserves the covered region.
		for _, id := range raw {
			require.True(t, u.ContainsID(id))
		}
	}
}

func TestUnionDenormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    Union
		minLevel int
		levelMod int
		expected int // number of output cells
	}{
		{"NoChange", Union{FromFace(0).Child(0)}, 0, 1, 1},
		{"SplitToMinLevel", Union{FromFace(0)}, 1, 1, 4},
		{"SplitTwoLevels", Union{FromFace(2)}, 2, 1, 16},
		{"LevelModRoundsUp", Union{FromFace(1).Child(0)}, 0, 2, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := append(Union{}, tt.input...)
			u.Denormalize(tt.minLevel, tt.levelMod)
			require.Len(t, u, tt.expected)
			for _, id := range u {
				assert.GreaterOrEqual(t, id.Level(), tt.minLevel)
				assert.Zero(t, (id.Level()-tt.minLevel)%tt.levelMod)
			}
		})
	}
}

func TestUnionContains(t *testing.T) {
	id := FromFacePosLevel(3, 0x12345678, 10)
	u := Union{id, FromFace(5)}
	u.Normalize()

	t.Run("IDs", func(t *testing.T) {
		assert.True(t, u.ContainsID(id))
		assert.True(t, u.ContainsID(id.Child(2).Child(1)))
		assert.True(t, u.ContainsID(FromFace(5).ChildBeginAtLevel(20)))
		assert.False(t, u.ContainsID(id.ImmediateParent()))
		assert.False(t, u.ContainsID(FromFace(0)))
	})

	t.Run("Cells", func(t *testing.T) {
		assert.True(t, u.ContainsCell(FromID(id.Child(0))))
		assert.False(t, u.ContainsCell(FromID(FromFace(2))))
	})

	t.Run("Points", func(t *testing.T) {
		assert.True(t, u.ContainsPoint(id.Point()))
		assert.True(t, u.ContainsPoint(FromFace(5).Point()))
	})

	t.Run("Unions", func(t *testing.T) {
		sub := Union{id.Child(0), id.Child(3)}
		assert.True(t, u.Contains(sub))
		assert.False(t, sub.Contains(u))
		assert.True(t, u.Intersects(sub))

		other := Union{FromFace(0)}
		assert.False(t, u.Contains(other))
		assert.False(t, u.Intersects(other))
	})
}

func TestUnionFromRange(t *testing.T) {
	t.Run("SingleFace", func(t *testing.T) {
		u := UnionFromRange(FromFace(1).RangeMin(), FromFace(1).RangeMax().Next())
		require.Equal(t, Union{FromFace(1)}, u)
	})

	t.Run("WholeSphere", func(t *testing.T) {
		u := UnionFromRange(Begin(MaxLevel), End(MaxLevel))
		require.Len(t, u, 6)
		for face, id := range u {
			assert.Equal(t, FromFace(face), id)
		}
	})

	t.Run("Random", func(t *testing.T) {
		rng := rand.New(rand.NewSource(22))
		for i := 0; i < 100; i++ {
			a := randomIDForTest(rng).RangeMin()
			b := randomIDForTest(rng).RangeMax().Next()
			if a > b {
				a, b = b.RangeMin(), a.RangeMax().Next()
			}
			u := UnionFromRange(a, b)
			require.True(t, u.IsNormalized())
			require.Equal(t, uint64(b)-uint64(a), 2*u.LeafCellsCovered())
		}
	})
}

func TestUnionIntersectionAndDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(23))

	for i := 0; i < 100; i++ {
		x := randomUnionForTest(rng, 10)
		y := randomUnionForTest(rng, 10)

		xi := UnionFromIntersection(x, y)
		require.True(t, xi.IsNormalized())
		for _, id := range xi {
			require.True(t, x.IntersectsID(id))
			require.True(t, y.IntersectsID(id))
		}

		xd := UnionFromDifference(x, y)
		require.True(t, xd.IsValid())
		for _, id := range xd {
			require.True(t, x.ContainsID(id))
			require.False(t, y.IntersectsID(id))
		}

		// Difference and intersection partition x.
		require.Equal(t, x.LeafCellsCovered(), xd.LeafCellsCovered()+xi.LeafCellsCovered())
	}
}

func TestUnionExpandAtLevel(t *testing.T) {
	id := FromFacePosLevel(2, 0x12345678, 12)
	u := Union{id}
	u.ExpandAtLevel(12)

	require.True(t, u.IsNormalized())
	assert.True(t, u.ContainsID(id))
	for _, nbr := range id.AllNeighbors(12) {
		assert.True(t, u.ContainsID(nbr), "missing neighbor %v", nbr)
	}
}

func TestUnionLeafCellsCovered(t *testing.T) {
	tests := []struct {
		name     string
		u        Union
		expected uint64
	}{
		{"Empty", Union{}, 0},
		{"OneLeaf", Union{Begin(MaxLevel)}, 1},
		{"OneFace", Union{FromFace(0)}, 1 << 60},
		{"WholeSphere", Union{FromFace(0), FromFace(1), FromFace(2), FromFace(3), FromFace(4), FromFace(5)}, 6 << 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.u.LeafCellsCovered())
		})
	}
}

func randomIDForTest(rng *rand.Rand) ID {
	return FromFacePosLevel(rng.Intn(NumFaces), rng.Uint64()&(1<<PosBits-1), rng.Intn(MaxLevel+1))
}

func randomUnionForTest(rng *rand.Rand, n int) Union {
	var u Union
	for len(u) < n {
		u = append(u, randomIDForTest(rng))
	}
	u.Normalize()
	return u
}
