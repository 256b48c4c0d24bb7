package cell

import (
	"fmt"
	"math"
	"math/bits"
	"sort"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// ID uniquely identifies a cell in the hierarchical decomposition of the
// unit sphere. Each ID is a 64-bit unsigned integer: the top 3 bits hold the
// face number, and the remaining 61 bits hold a position along a Hilbert
// space-filling curve on that face followed by a single terminating 1-bit
// whose position encodes the subdivision level. The zero value and
// SentinelID are invalid.
//
// Sequentially increasing IDs follow a continuous space-filling curve over
// the entire sphere, so cells that are close along the curve are close on
// the sphere. IDs are immutable values and may be freely shared.
type ID uint64

const (
	// FaceBits is the number of bits used to encode the face number.
	FaceBits = 3
	// NumFaces is the number of cube faces.
	NumFaces = 6
	// MaxLevel is the maximum subdivision level.
	MaxLevel = 30
	// PosBits is the number of bits used to encode the curve position.
	// The position includes the terminating 1-bit, hence the +1.
	PosBits = 2*MaxLevel + 1
	// MaxSize is the number of leaf cells along an edge of a face.
	MaxSize = 1 << MaxLevel

	wrapOffset = uint64(NumFaces) << PosBits
)

// SentinelID is an invalid ID guaranteed to be larger than any valid ID.
// It is useful as an iterator bound.
const SentinelID = ID(^uint64(0))

// FromFace returns the cell covering the entire given face (level 0).
func FromFace(face int) ID {
	return ID(uint64(face)<<PosBits + lsbForLevel(0))
}

// FromFacePosLevel returns a cell given its face, the curve position along
// the Hilbert curve on that face, and the level. The position may refer to
// any descendant of the returned cell; bits below the level are discarded.
func FromFacePosLevel(face int, pos uint64, level int) ID {
	return ID(uint64(face)<<PosBits + pos | 1).Parent(level)
}

// FromFaceIJ returns the leaf cell at the given (i,j)-coordinates of the
// given face, where i and j are in the range [0, MaxSize).
func FromFaceIJ(f, i, j int) ID {
	// Note that this value gets shifted one bit to the left at the end
	// of the function.
	n := uint64(f) << (PosBits - 1)

	// Alternating faces have opposite Hilbert curve orientations; this
	// is necessary in order for all faces to have a right-handed
	// coordinate system.
	bts := f & swapMask

	// Each lookup iteration maps 4 bits of "i" and "j" into 8 bits of the
	// Hilbert curve position. The lookup table transforms a 10-bit key of
	// the form "iiiijjjjoo" to a 10-bit value of the form "ppppppppoo",
	// where the letters [ijpo] denote bits of "i", "j", the Hilbert curve
	// position, and the Hilbert curve orientation respectively.
	for k := 7; k >= 0; k-- {
		mask := (1 << lookupBits) - 1
		bts += ((i >> uint(k*lookupBits)) & mask) << (lookupBits + 2)
		bts += ((j >> uint(k*lookupBits)) & mask) << 2
		bts = lookupPos[bts]
		n |= uint64(bts>>2) << (uint(k) * 2 * lookupBits)
		bts &= swapMask | invertMask
	}

	return ID(n*2 + 1)
}

// FromPoint returns the leaf cell containing the given point.
func FromPoint(p Point) ID {
	f, u, v := XYZToFaceUV(p.Vector)
	i := STToIJ(UVToST(u))
	j := STToIJ(UVToST(v))
	return FromFaceIJ(f, i, j)
}

// IsValid reports whether the ID is well formed: a valid face and exactly
// one terminating 1-bit in a legal position.
func (id ID) IsValid() bool {
	return id.Face() < NumFaces && (id.lsb()&0x1555555555555555 != 0)
}

// Face returns the cube face for this cell ID, in the range [0,5].
func (id ID) Face() int { return int(uint64(id) >> PosBits) }

// Pos returns the position along the Hilbert curve of this cell ID, in the
// range [0,2^PosBits-1].
func (id ID) Pos() uint64 { return uint64(id) & (^uint64(0) >> FaceBits) }

// Level returns the subdivision level of this cell ID, in the range
// [0, MaxLevel].
func (id ID) Level() int {
	return MaxLevel - bits.TrailingZeros64(uint64(id))>>1
}

// IsLeaf reports whether this cell ID is at the maximum level.
func (id ID) IsLeaf() bool { return uint64(id)&1 != 0 }

// IsFace reports whether this is a top-level (face) cell.
func (id ID) IsFace() bool { return uint64(id)&(lsbForLevel(0)-1) == 0 }

// lsb returns the least significant set bit.
func (id ID) lsb() uint64 { return uint64(id) & -uint64(id) }

// lsbForLevel returns the lowest-numbered bit that is on for cells at the
// given level.
func lsbForLevel(level int) uint64 { return 1 << uint(2*(MaxLevel-level)) }

// ChildPosition returns the child position (0..3) of this cell's ancestor at
// the given level relative to its parent. The argument must be in the range
// [1, id.Level()].
func (id ID) ChildPosition(level int) int {
	return int(uint64(id)>>uint(2*(MaxLevel-level)+1)) & 3
}

// Parent returns the cell at the given level, which must be no greater than
// the current level.
func (id ID) Parent(level int) ID {
	lsb := lsbForLevel(level)
	return ID((uint64(id) & -lsb) | lsb)
}

// ImmediateParent is cheaper than Parent, but requires that the cell is not
// a face cell.
func (id ID) ImmediateParent() ID {
	nlsb := id.lsb() << 2
	return ID((uint64(id) & -nlsb) | nlsb)
}

// Children returns the four immediate children of this cell in Hilbert curve
// order. If the cell is a leaf cell, it returns four identical cells that
// are not the children.
func (id ID) Children() [4]ID {
	var ch [4]ID
	lsb := id.lsb()
	ch[0] = ID(uint64(id) - lsb + lsb>>2)
	lsb >>= 1
	ch[1] = ID(uint64(ch[0]) + lsb)
	ch[2] = ID(uint64(ch[1]) + lsb)
	ch[3] = ID(uint64(ch[2]) + lsb)
	return ch
}

// Child returns the child at the given position in Hilbert curve order.
func (id ID) Child(pos int) ID {
	lsb := id.lsb() >> 2
	return ID(uint64(id) + uint64(2*pos+1-4)*lsb)
}

// ChildBegin returns the first child in a traversal of the children of this
// cell, in Hilbert curve order.
//
//	for ci := c.ChildBegin(); ci != c.ChildEnd(); ci = ci.Next() {
//	    ...
//	}
func (id ID) ChildBegin() ID {
	ol := id.lsb()
	return ID(uint64(id) - ol + ol>>2)
}

// ChildBeginAtLevel returns the first cell in a traversal of children at the
// given level, in Hilbert curve order. The given level must be no smaller
// than the cell's level.
func (id ID) ChildBeginAtLevel(level int) ID {
	return ID(uint64(id) - id.lsb() + lsbForLevel(level))
}

// ChildEnd returns the first cell after a traversal of the children of this
// cell in Hilbert curve order. The returned cell may be invalid.
func (id ID) ChildEnd() ID {
	ol := id.lsb()
	return ID(uint64(id) + ol + ol>>2)
}

// ChildEndAtLevel returns the first cell after the last child in a traversal
// of children at the given level, in Hilbert curve order. The returned cell
// may be invalid.
func (id ID) ChildEndAtLevel(level int) ID {
	return ID(uint64(id) + id.lsb() + lsbForLevel(level))
}

// RangeMin returns the minimum ID (inclusive) of the leaf cells contained
// within this cell.
func (id ID) RangeMin() ID { return ID(uint64(id) - (id.lsb() - 1)) }

// RangeMax returns the maximum ID (inclusive) of the leaf cells contained
// within this cell.
func (id ID) RangeMax() ID { return ID(uint64(id) + (id.lsb() - 1)) }

// Contains reports whether other is contained within this cell.
func (id ID) Contains(other ID) bool {
	return id.RangeMin() <= other && other <= id.RangeMax()
}

// Intersects reports whether other intersects this cell.
func (id ID) Intersects(other ID) bool {
	return other.RangeMin() <= id.RangeMax() && other.RangeMax() >= id.RangeMin()
}

// Next returns the next cell along the Hilbert curve at the same level. The
// result is invalid if this was the last cell on the sphere.
func (id ID) Next() ID { return ID(uint64(id) + id.lsb()<<1) }

// Prev returns the previous cell along the Hilbert curve at the same level.
// The result is invalid if this was the first cell on the sphere.
func (id ID) Prev() ID { return ID(uint64(id) - id.lsb()<<1) }

// NextWrap returns the next cell along the Hilbert curve, wrapping around
// from the last face to the first.
func (id ID) NextWrap() ID {
	n := id.Next()
	if uint64(n) < wrapOffset {
		return n
	}
	return ID(uint64(n) - wrapOffset)
}

// PrevWrap returns the previous cell along the Hilbert curve, wrapping
// around from the first face to the last.
func (id ID) PrevWrap() ID {
	p := id.Prev()
	if uint64(p) < wrapOffset {
		return p
	}
	return ID(uint64(p) + wrapOffset)
}

// Advance advances or retreats the indicated number of steps along the
// Hilbert curve at the current level, and returns the new position. The
// position is clamped between the first and one-past-the-last cells on the
// sphere; it never wraps.
func (id ID) Advance(steps int64) ID {
	if steps == 0 {
		return id
	}

	// We clamp the number of steps if necessary to ensure that we do not
	// advance past the End() or before the Begin() of this level. This can
	// be done using unsigned arithmetic on the shifted position.
	stepShift := uint(2*(MaxLevel-id.Level()) + 1)
	if steps < 0 {
		if minSteps := -int64(uint64(id) >> stepShift); steps < minSteps {
			steps = minSteps
		}
	} else {
		if maxSteps := int64((wrapOffset + id.lsb() - uint64(id)) >> stepShift); steps > maxSteps {
			steps = maxSteps
		}
	}
	return id + ID(steps)<<stepShift
}

// AdvanceWrap advances or retreats the indicated number of steps along the
// Hilbert curve at the current level, wrapping around the sphere as needed.
func (id ID) AdvanceWrap(steps int64) ID {
	if steps == 0 {
		return id
	}

	stepShift := uint(2*(MaxLevel-id.Level()) + 1)
	if steps < 0 {
		if minSteps := -int64(uint64(id) >> stepShift); steps < minSteps {
			wrap := int64(wrapOffset >> stepShift)
			steps %= wrap
			if steps < minSteps {
				steps += wrap
			}
		}
	} else {
		// Unlike Advance(), we don't want to return End(level).
		if maxSteps := int64((wrapOffset - uint64(id)) >> stepShift); steps > maxSteps {
			wrap := int64(wrapOffset >> stepShift)
			steps %= wrap
			if steps > maxSteps {
				steps -= wrap
			}
		}
	}
	return id + ID(steps)<<stepShift
}

// Distance returns the number of steps along the Hilbert curve from the
// first cell at this cell's level to this cell.
func (id ID) Distance() int64 {
	return int64(uint64(id) >> uint(2*(MaxLevel-id.Level())+1))
}

// Begin returns the first cell at the given level in a traversal of the
// whole sphere along the Hilbert curve.
func Begin(level int) ID { return FromFace(0).ChildBeginAtLevel(level) }

// End returns the cell one past the last cell at the given level in a
// traversal of the whole sphere. The returned cell is invalid.
func End(level int) ID { return FromFace(5).ChildEndAtLevel(level) }

// CommonAncestorLevel returns the level of the smallest common ancestor of
// this cell and other. It returns false if the two cells do not have a
// common ancestor, i.e. they are on different faces.
func (id ID) CommonAncestorLevel(other ID) (level int, ok bool) {
	b := uint64(id ^ other)
	if b < id.lsb() {
		b = id.lsb()
	}
	if b < other.lsb() {
		b = other.lsb()
	}

	msbPos := findMSBSetNonZero64(b)
	if msbPos > 60 {
		return 0, false
	}
	return (60 - msbPos) >> 1, true
}

// MaximumTile returns the largest cell with the same RangeMin such that
// RangeMax < limit.RangeMin. It returns limit if no such cell exists. This
// method can be used to generate a small set of cells covering a given
// range, by working from left to right:
//
//	for id := begin.MaximumTile(end); id != end; id = id.Next().MaximumTile(end) { ... }
func (id ID) MaximumTile(limit ID) ID {
	start := id.RangeMin()
	if start >= limit.RangeMin() {
		return limit
	}

	if id.RangeMax() >= limit {
		// The cell is too large, shrink it. Note that when generating coverings
		// of ID ranges, this loop usually executes only once. Also because
		// id.RangeMin() < limit.RangeMin(), we will always exit the loop by the
		// time we reach a leaf cell.
		for {
			id = id.Children()[0]
			if id.RangeMax() < limit {
				break
			}
		}
		return id
	}

	// The cell may be too small. Grow it if necessary. Note that generally
	// this loop only iterates once.
	for !id.IsFace() {
		parent := id.ImmediateParent()
		if parent.RangeMin() != start || parent.RangeMax() >= limit {
			break
		}
		id = parent
	}
	return id
}

// faceIJOrientation uses the lookup tables to unpack a cell ID into its face
// number, the (i,j)-coordinates of its lowest-numbered leaf cell, and its
// Hilbert curve orientation. It is the inverse of FromFaceIJ.
func (id ID) faceIJOrientation() (f, i, j, orientation int) {
	f = id.Face()
	orientation = f & swapMask
	nbits := MaxLevel - 7*lookupBits // first iteration

	// Each lookup iteration maps 8 bits of the Hilbert curve position into
	// 4 bits of "i" and "j".
	for k := 7; k >= 0; k-- {
		orientation += (int(uint64(id)>>uint(k*2*lookupBits+1)) & ((1 << uint(2*nbits)) - 1)) << 2
		orientation = lookupIJ[orientation]
		i += (orientation >> (lookupBits + 2)) << uint(k*lookupBits)
		j += (orientation >> 2 & ((1 << lookupBits) - 1)) << uint(k*lookupBits)
		orientation &= swapMask | invertMask
		nbits = lookupBits
	}

	// The position of a non-leaf cell at level "n" consists of a prefix of
	// 2*n bits that identifies the cell, followed by a suffix of
	// 2*(MaxLevel-n)+1 bits of the form 10*. If n < MaxLevel, the suffix of
	// a cell at the next level is either 01* or 11*, and in both cases the
	// curve orientation of that child differs from the parent by swapMask
	// whenever the terminating bit pattern has an odd number of inverted
	// axes. The net effect is captured by the mask test below.
	if id.lsb()&0x1111111111111110 != 0 {
		orientation ^= swapMask
	}

	return f, i, j, orientation
}

// FaceIJOrientation decomposes the cell into its face and the leaf-cell
// (i,j)-coordinates of its lowest corner, plus its Hilbert curve orientation.
func (id ID) FaceIJOrientation() (f, i, j, orientation int) {
	return id.faceIJOrientation()
}

// fromFaceIJWrap is like FromFaceIJ, but i and j are allowed to extend one
// position beyond the normal range; the resulting coordinates are projected
// onto whichever adjacent face holds them.
func fromFaceIJWrap(f, i, j int) ID {
	// Convert i and j to the coordinates of a leaf cell just beyond the
	// boundary of this face. This prevents 32-bit overflow in the case
	// of finding the neighbors of a face cell.
	i = clampInt(i, -1, MaxSize)
	j = clampInt(j, -1, MaxSize)

	// We want to wrap these coordinates onto the appropriate adjacent face.
	// The easiest way to do this is to convert the (i,j) coordinates to
	// (x,y,z)-(u,v) coordinates; the projection of this point onto the cube
	// automatically wraps to the correct face.
	//
	// The value of kScale below is chosen so that the (u,v) coordinates lie
	// slightly outside the face boundary, ensuring the point projects back
	// to an adjacent face rather than this one.
	const scale = 1.0 / MaxSize
	limit := math.Nextafter(1, 2)
	u := math.Max(-limit, math.Min(limit, scale*float64((i<<1)+1-MaxSize)))
	v := math.Max(-limit, math.Min(limit, scale*float64((j<<1)+1-MaxSize)))

	// Find the leaf cell coordinates on the adjacent face, and convert
	// them to a cell ID at the appropriate level.
	f, u, v = XYZToFaceUV(FaceUVToXYZ(f, u, v))
	return FromFaceIJ(f, STToIJ(0.5*(u+1)), STToIJ(0.5*(v+1)))
}

// fromFaceIJSame dispatches between FromFaceIJ and fromFaceIJWrap depending
// on whether the (i,j)-coordinates still lie on the same face.
func fromFaceIJSame(f, i, j int, sameFace bool) ID {
	if sameFace {
		return FromFaceIJ(f, i, j)
	}
	return fromFaceIJWrap(f, i, j)
}

// EdgeNeighbors returns the four cells that are adjacent across the cell's
// four edges. Edges 0, 1, 2, 3 are in the down, right, up, left directions
// in the face space. All neighbors are guaranteed to be distinct.
func (id ID) EdgeNeighbors() [4]ID {
	level := id.Level()
	size := SizeIJ(level)
	f, i, j, _ := id.faceIJOrientation()
	return [4]ID{
		fromFaceIJWrap(f, i, j-size).Parent(level),
		fromFaceIJWrap(f, i+size, j).Parent(level),
		fromFaceIJWrap(f, i, j+size).Parent(level),
		fromFaceIJWrap(f, i-size, j).Parent(level),
	}
}

// VertexNeighbors returns the neighboring cells at the given level (which
// must be no greater than the cell's level) that share the cell's vertex
// closest to the given cell center. Normally there are four neighbors, but
// at the eight cube vertices there are only three.
func (id ID) VertexNeighbors(level int) []ID {
	halfSize := SizeIJ(level + 1)
	size := halfSize << 1
	f, i, j, _ := id.faceIJOrientation()

	var isSameI, isSameJ bool
	var iOffset, jOffset int
	if i&halfSize != 0 {
		iOffset = size
		isSameI = (i + size) < MaxSize
	} else {
		iOffset = -size
		isSameI = (i - size) >= 0
	}
	if j&halfSize != 0 {
		jOffset = size
		isSameJ = (j + size) < MaxSize
	} else {
		jOffset = -size
		isSameJ = (j - size) >= 0
	}

	results := []ID{
		id.Parent(level),
		fromFaceIJSame(f, i+iOffset, j, isSameI).Parent(level),
		fromFaceIJSame(f, i, j+jOffset, isSameJ).Parent(level),
	}

	if isSameI || isSameJ {
		// If i- and j- edge neighbors are *both* on a different face, then this
		// vertex only has three neighbors (it is one of the 8 cube vertices).
		results = append(results, fromFaceIJSame(f, i+iOffset, j+jOffset, isSameI && isSameJ).Parent(level))
	}

	return results
}

// AllNeighbors returns all neighbors of this cell at the given level. Two
// cells X and Y are neighbors if their boundaries intersect but their
// interiors do not. In particular, two cells that intersect at a single
// point are neighbors. The given level must be no smaller than the cell's
// level. Neighbors may be returned multiple times if they span multiple
// cells at the cell's own level.
func (id ID) AllNeighbors(level int) []ID {
	var neighbors []ID

	face, i, j, _ := id.faceIJOrientation()

	// Find the coordinates of the lower left corner of the cell, normalized
	// to the level of this cell.
	size := SizeIJ(id.Level())
	i &= -size
	j &= -size

	nbrSize := SizeIJ(level)

	// We compute the top-bottom, left-right, and diagonal neighbors in one
	// pass. The loop test is at the end of the loop to avoid 32-bit overflow.
	for k := -nbrSize; ; k += nbrSize {
		var sameFace bool
		if k < 0 {
			sameFace = (j + k >= 0)
		} else if k >= size {
			sameFace = (j + k < MaxSize)
		} else {
			sameFace = true
			// Top and bottom neighbors.
			neighbors = append(neighbors,
				fromFaceIJSame(face, i+k, j-nbrSize, j-size >= 0).Parent(level),
				fromFaceIJSame(face, i+k, j+size, j+size < MaxSize).Parent(level))
		}

		// Left, right, and diagonal neighbors.
		neighbors = append(neighbors,
			fromFaceIJSame(face, i-nbrSize, j+k, sameFace && i-size >= 0).Parent(level),
			fromFaceIJSame(face, i+size, j+k, sameFace && i+size < MaxSize).Parent(level))

		if k >= size {
			break
		}
	}

	return neighbors
}

// faceSiTi returns the si-/ti-coordinates of the cell center. A cell center
// is always located precisely between leaf cell boundaries, which is why the
// (si,ti) grid has twice the leaf cell resolution.
func (id ID) faceSiTi() (face int, si, ti uint64) {
	face, i, j, _ := id.faceIJOrientation()
	delta := 0
	if id.IsLeaf() {
		delta = 1
	} else if (int64(i)^(int64(uint64(id))>>2))&1 != 0 {
		delta = 2
	}
	return face, uint64(2*i + delta), uint64(2*j + delta)
}

// rawPoint returns an unnormalized vector pointing at the center of the cell.
func (id ID) rawPoint() r3.Vector {
	face, si, ti := id.faceSiTi()
	return FaceUVToXYZ(face, STToUV(SiTiToST(si)), STToUV(SiTiToST(ti)))
}

// Point returns the center of the cell on the sphere.
func (id ID) Point() Point { return Point{id.rawPoint().Normalize()} }

// boundUV returns the bound of this cell in (u,v)-space.
func (id ID) boundUV() r2.Rect {
	_, i, j, _ := id.faceIJOrientation()
	return IJLevelToBoundUV(i, j, id.Level())
}

// centerST returns the center of the cell in (s,t)-space.
func (id ID) centerST() r2.Point {
	_, si, ti := id.faceSiTi()
	return r2.Point{X: SiTiToST(si), Y: SiTiToST(ti)}
}

// Token returns a hex-encoded version of the cell ID with the trailing
// zeros stripped, used as a compact textual form. The zero ID is encoded
// as "X" to avoid the empty string.
func (id ID) Token() string {
	s := strings.TrimRight(fmt.Sprintf("%016x", uint64(id)), "0")
	if len(s) == 0 {
		return "X"
	}
	return s
}

// FromToken returns the cell ID for the given hex-encoded token. Malformed
// tokens yield the zero ID rather than an error.
func FromToken(s string) ID {
	if len(s) > 16 {
		return ID(0)
	}
	n, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return ID(0)
	}
	// Equivalent to right-padding the token with zeros to 16 characters.
	return ID(n << (4 * uint(16-len(s))))
}

// String returns the path form "face/childdigit*", with one digit in the
// range 0..3 per level describing the child position along the Hilbert
// curve.
func (id ID) String() string {
	if !id.IsValid() {
		return "Invalid: " + strconv.FormatUint(uint64(id), 16)
	}
	var b strings.Builder
	b.WriteByte("012345"[id.Face()])
	b.WriteByte('/')
	for level := 1; level <= id.Level(); level++ {
		b.WriteByte("0123"[id.ChildPosition(level)])
	}
	return b.String()
}

// FromString returns the cell ID corresponding to the given path form as
// produced by String. Malformed paths yield the zero ID.
func FromString(s string) ID {
	if len(s) < 2 || s[1] != '/' || s[0] < '0' || s[0] > '5' {
		return ID(0)
	}
	if len(s) > 2+MaxLevel {
		return ID(0)
	}
	id := FromFace(int(s[0] - '0'))
	for _, c := range s[2:] {
		childPos := byte(c) - '0'
		if childPos > 3 {
			return ID(0)
		}
		id = id.Children()[childPos]
	}
	return id
}

// findMSBSetNonZero64 returns the index of the most significant set bit.
// The argument must be non-zero.
func findMSBSetNonZero64(x uint64) int {
	return bits.Len64(x) - 1
}

// sortIDs sorts the slice of IDs in place.
func sortIDs(ids []ID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
