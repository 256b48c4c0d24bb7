package cell

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSTUVConversions(t *testing.T) {
	t.Run("STToUVRoundTrip", func(t *testing.T) {
		rng := rand.New(rand.NewSource(51))
		for i := 0; i < 1000; i++ {
			s := rng.Float64()
			assert.InDelta(t, s, UVToST(STToUV(s)), 1e-15)
		}
	})

	t.Run("Endpoints", func(t *testing.T) {
		assert.Equal(t, -1.0, STToUV(0))
		assert.Equal(t, 0.0, STToUV(0.5))
		assert.Equal(t, 1.0, STToUV(1))
	})

	t.Run("Monotonic", func(t *testing.T) {
		prev := STToUV(0)
		for i := 1; i <= 100; i++ {
			u := STToUV(float64(i) / 100)
			require.Greater(t, u, prev)
			prev = u
		}
	})
}

func TestFaceUVToXYZRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(52))

	for face := 0; face < NumFaces; face++ {
		for i := 0; i < 100; i++ {
			u := 2*rng.Float64() - 1
			v := 2*rng.Float64() - 1
			p := Point{FaceUVToXYZ(face, u, v).Normalize()}

			gotU, gotV, ok := FaceXYZToUV(face, p)
			require.True(t, ok)
			assert.InDelta(t, u, gotU, 1e-14)
			assert.InDelta(t, v, gotV, 1e-14)

			gotFace, gotU, gotV := XYZToFaceUV(p.Vector)
			require.Equal(t, face, gotFace)
			assert.InDelta(t, u, gotU, 1e-14)
			assert.InDelta(t, v, gotV, 1e-14)
		}
	}
}

func TestFaceXYZToUVWrongFace(t *testing.T) {
	// Projecting onto the opposite face fails.
	p := PointFromCoords(1, 0, 0)
	_, _, ok := FaceXYZToUV(3, p) // -x face
	assert.False(t, ok)
}

func TestIJLevelToBoundUV(t *testing.T) {
	// The bound of a face-level cell is the full UV square.
	bound := IJLevelToBoundUV(0, 0, 0)
	assert.Equal(t, -1.0, bound.X.Lo)
	assert.Equal(t, 1.0, bound.X.Hi)

	// Leaf bounds nest within their parent bounds.
	rng := rand.New(rand.NewSource(53))
	for i := 0; i < 100; i++ {
		id := randomIDForTest(rng)
		if id.IsFace() {
			continue
		}
		_, ci, cj, _ := id.FaceIJOrientation()
		inner := IJLevelToBoundUV(ci, cj, id.Level())
		_, pi, pj, _ := id.ImmediateParent().FaceIJOrientation()
		outer := IJLevelToBoundUV(pi, pj, id.Level()-1)
		assert.True(t, outer.Contains(inner))
	}
}

func TestSiTiConversions(t *testing.T) {
	// STToSiTi and SiTiToST are exact inverses on the si/ti grid.
	rng := rand.New(rand.NewSource(54))
	for i := 0; i < 1000; i++ {
		si := rng.Uint64() & (2*MaxSize - 1)
		require.Equal(t, si, STToSiTi(SiTiToST(si)))
	}
}
