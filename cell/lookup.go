package cell

// The following tables encode the traversal order of the Hilbert curve within
// a single subdivision step. A cell's curve orientation is a combination of
// two flags: swapMask exchanges the i- and j-axes, invertMask reverses the
// direction of each axis.
const (
	lookupBits = 4
	swapMask   = 0x01
	invertMask = 0x02
)

// ijToPos[orientation][ij] gives the curve position of the child with index
// (i,j) packed as 2*i+j, for a parent cell with the given orientation.
var ijToPos = [4][4]int{
	{0, 1, 3, 2}, // canonical order
	{0, 3, 1, 2}, // axes swapped
	{2, 3, 1, 0}, // bits inverted
	{2, 1, 3, 0}, // swapped & inverted
}

// posToIJ is the inverse of ijToPos.
var posToIJ = [4][4]int{
	{0, 1, 3, 2}, // canonical order:    (0,0), (0,1), (1,1), (1,0)
	{0, 2, 3, 1}, // axes swapped:       (0,0), (1,0), (1,1), (0,1)
	{3, 2, 0, 1}, // bits inverted:      (1,1), (1,0), (0,0), (0,1)
	{3, 1, 0, 2}, // swapped & inverted: (1,1), (0,1), (0,0), (1,0)
}

// posToOrientation gives the orientation modifier applied when descending
// into the child at the given curve position.
var posToOrientation = [4]int{swapMask, 0, 0, invertMask | swapMask}

// The lookup tables below consume 4 bits of i and 4 bits of j per round and
// produce 8 bits of curve position (and vice versa), replacing a bit-by-bit
// recursive construction of the curve. They are indexed by the packed value
// plus the 2 orientation bits.
var (
	lookupIJ  [1 << (2*lookupBits + 2)]int
	lookupPos [1 << (2*lookupBits + 2)]int
)

func init() {
	initLookupCell(0, 0, 0, 0, 0, 0)
	initLookupCell(0, 0, 0, swapMask, 0, swapMask)
	initLookupCell(0, 0, 0, invertMask, 0, invertMask)
	initLookupCell(0, 0, 0, swapMask|invertMask, 0, swapMask|invertMask)
}

// initLookupCell initializes the lookupIJ and lookupPos tables by recursively
// subdividing lookupBits levels of the Hilbert curve.
func initLookupCell(level, i, j, origOrientation, pos, orientation int) {
	if level == lookupBits {
		ij := (i << lookupBits) + j
		lookupPos[(ij<<2)+origOrientation] = (pos << 2) + orientation
		lookupIJ[(pos<<2)+origOrientation] = (ij << 2) + orientation
		return
	}

	level++
	i <<= 1
	j <<= 1
	pos <<= 2
	r := posToIJ[orientation]
	for idx := 0; idx < 4; idx++ {
		initLookupCell(level, i+(r[idx]>>1), j+(r[idx]&1), origOrientation,
			pos+idx, orientation^posToOrientation[idx])
	}
}
