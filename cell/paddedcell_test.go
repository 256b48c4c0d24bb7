package cell

import (
	"math/rand"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/require"
)

func TestPaddedCellMatchesCell(t *testing.T) {
	// A padded cell with zero padding has the same bound as the cell, and
	// padding uniformly expands the bound.
	rng := rand.New(rand.NewSource(41))

	for i := 0; i < 300; i++ {
		id := randomIDForTest(rng)
		padding := rng.Float64() * 1e-14
		c := FromID(id)
		p := PaddedCellFromCellID(id, padding)

		require.Equal(t, c.BoundUV().ExpandedByMargin(padding), p.Bound())
		require.Equal(t, id, p.CellID())
		require.Equal(t, id.Level(), p.Level())
		require.Equal(t, padding, p.Padding())
		require.Equal(t, c.Center(), p.Center())

		if !id.IsLeaf() {
			// The middle rect straddles the center split lines, expanded
			// by the padding on each side.
			middle := p.Middle()
			u := STToUV(id.centerST().X)
			v := STToUV(id.centerST().Y)
			require.Equal(t, u-padding, middle.X.Lo)
			require.Equal(t, u+padding, middle.X.Hi)
			require.Equal(t, v-padding, middle.Y.Lo)
			require.Equal(t, v+padding, middle.Y.Hi)
		}
	}
}

func TestPaddedCellFromParentIJ(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 300; i++ {
		id := randomIDForTest(rng)
		if id.IsLeaf() {
			id = id.ImmediateParent()
		}
		padding := rng.Float64() * 1e-14
		parent := PaddedCellFromCellID(id, padding)

		pos := rng.Intn(4)
		pi, pj := parent.ChildIJ(pos)
		child := PaddedCellFromParentIJ(parent, pi, pj)

		require.Equal(t, id.Child(pos), child.CellID())
		require.Equal(t, PaddedCellFromCellID(id.Child(pos), padding).Bound(), child.Bound())
	}
}

func TestPaddedCellEntryExitVertices(t *testing.T) {
	rng := rand.New(rand.NewSource(43))

	for i := 0; i < 300; i++ {
		id := randomIDForTest(rng)

		// The entry and exit vertices must be the same irrespective of padding.
		unpadded := PaddedCellFromCellID(id, 0)
		padded := PaddedCellFromCellID(id, 0.1)
		require.Equal(t, unpadded.EntryVertex(), padded.EntryVertex())
		require.Equal(t, unpadded.ExitVertex(), padded.ExitVertex())

		// The exit vertex of one cell is the entry vertex of the next one
		// along the curve, even across face boundaries.
		require.Equal(t, unpadded.ExitVertex(), PaddedCellFromCellID(id.NextWrap(), 0).EntryVertex())

		// The entry and exit vertices of a cell are among the vertices of
		// the cell at the same level.
		c := FromID(id)
		found := 0
		for k := 0; k < 4; k++ {
			if c.Vertex(k) == unpadded.EntryVertex() || c.Vertex(k) == unpadded.ExitVertex() {
				found++
			}
		}
		require.Equal(t, 2, found)
	}
}

func TestPaddedCellShrinkToFit(t *testing.T) {
	rng := rand.New(rand.NewSource(44))

	for i := 0; i < 300; i++ {
		// Start with the desired result and work backwards.
		result := randomIDForTest(rng)
		resultUV := result.boundUV()
		sizeUV := resultUV.Size()

		// Find the biggest rectangle that fits in result after padding.
		maxPadding := 0.5 * minFloat64(sizeUV.X, sizeUV.Y)
		padding := maxPadding * rng.Float64()
		maxRect := resultUV.ExpandedByMargin(-padding)

		// Start from a random subset of the maximum rectangle.
		a := r2.Point{
			X: sampleInterval(rng, maxRect.X.Lo, maxRect.X.Hi),
			Y: sampleInterval(rng, maxRect.Y.Lo, maxRect.Y.Hi),
		}
		b := r2.Point{
			X: sampleInterval(rng, maxRect.X.Lo, maxRect.X.Hi),
			Y: sampleInterval(rng, maxRect.Y.Lo, maxRect.Y.Hi),
		}

		if !result.IsLeaf() {
			// If the result is not a leaf cell, we must ensure that no
			// child of the result also satisfies the conditions of
			// ShrinkToFit. We do this by ensuring that the rect intersects
			// at least two children of result (after padding).
			useY := rng.Intn(2) == 1
			center := result.centerST().X
			if useY {
				center = result.centerST().Y
			}
			center = STToUV(center)

			// Find the range of coordinates that are shared between child
			// cells along that axis.
			shared := r1Interval{center - padding, center + padding}
			if useY {
				shared.lo = maxFloat64(shared.lo, maxRect.Y.Lo)
				shared.hi = minFloat64(shared.hi, maxRect.Y.Hi)
				mid := sampleInterval(rng, shared.lo, shared.hi)
				a.Y = sampleInterval(rng, maxRect.Y.Lo, mid)
				b.Y = sampleInterval(rng, mid, maxRect.Y.Hi)
			} else {
				shared.lo = maxFloat64(shared.lo, maxRect.X.Lo)
				shared.hi = minFloat64(shared.hi, maxRect.X.Hi)
				mid := sampleInterval(rng, shared.lo, shared.hi)
				a.X = sampleInterval(rng, maxRect.X.Lo, mid)
				b.X = sampleInterval(rng, mid, maxRect.X.Hi)
			}
		}

		// Choose an arbitrary ancestor as the padded cell.
		initialID := result.Parent(rng.Intn(result.Level() + 1))
		pcell := PaddedCellFromCellID(initialID, padding)
		require.Equal(t, result, pcell.ShrinkToFit(r2.RectFromPoints(a, b)))
	}
}

type r1Interval struct{ lo, hi float64 }

func sampleInterval(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func minFloat64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
