package cell

import (
	"github.com/golang/geo/r2"
)

// Cell is an ID materialized together with useful per-cell geometric state:
// its face, level, Hilbert orientation and (u,v) bounding rectangle. Unlike
// IDs, Cells are intended to be constructed on demand and discarded, not
// persisted.
type Cell struct {
	face        int8
	level       int8
	orientation int8
	id          ID
	uv          r2.Rect
}

// FromID constructs a Cell corresponding to the given ID.
func FromID(id ID) Cell {
	c := Cell{id: id}
	f, i, j, o := id.faceIJOrientation()
	c.face = int8(f)
	c.level = int8(id.Level())
	c.orientation = int8(o)
	c.uv = IJLevelToBoundUV(i, j, int(c.level))
	return c
}

// FromPointCell constructs the leaf cell containing the given point.
func FromPointCell(p Point) Cell {
	return FromID(FromPoint(p))
}

// ID returns the ID of this cell.
func (c Cell) ID() ID { return c.id }

// Face returns the face this cell is on.
func (c Cell) Face() int { return int(c.face) }

// Level returns the level of this cell.
func (c Cell) Level() int { return int(c.level) }

// IsLeaf reports whether this cell is a leaf cell.
func (c Cell) IsLeaf() bool { return c.level == MaxLevel }

// SizeIJ returns the edge length of this cell in (i,j)-space.
func (c Cell) SizeIJ() int { return SizeIJ(int(c.level)) }

// SizeST returns the edge length of this cell in (s,t)-space.
func (c Cell) SizeST() float64 { return float64(c.SizeIJ()) / float64(MaxSize) }

// BoundUV returns the bound of this cell in (u,v)-space.
func (c Cell) BoundUV() r2.Rect { return c.uv }

// Center returns the direction vector corresponding to the center of the
// cell in (s,t)-space. The vector has unit length.
func (c Cell) Center() Point {
	return Point{c.id.rawPoint().Normalize()}
}

// Vertex returns the normalized k-th vertex of the cell (k = 0,1,2,3) in
// CCW order (lower left, lower right, upper right, upper left in the UV
// plane).
func (c Cell) Vertex(k int) Point {
	v := c.uv.Vertices()[k]
	return Point{FaceUVToXYZ(int(c.face), v.X, v.Y).Normalize()}
}

// CellUnionBound returns the cell itself as a one-element covering, which
// lets a Cell be used directly as a region to be covered.
func (c Cell) CellUnionBound() []ID {
	return []ID{c.id}
}

// ContainsCell reports whether this cell contains the other.
func (c Cell) ContainsCell(oc Cell) bool {
	return c.id.Contains(oc.id)
}

// IntersectsCell reports whether this cell intersects the other.
func (c Cell) IntersectsCell(oc Cell) bool {
	return c.id.Intersects(oc.id)
}

// ContainsPoint reports whether this cell contains the given point. Points
// on the cell boundary are considered contained by all cells whose (u,v)
// bound includes the projected point, so this is not an exact semi-open
// test. The point should be unit length.
func (c Cell) ContainsPoint(p Point) bool {
	var uv r2.Point
	var ok bool
	if uv.X, uv.Y, ok = FaceXYZToUV(int(c.face), p); !ok {
		return false
	}

	// Expand the (u,v) bound to ensure that
	//
	//	CellFromPoint(p).ContainsPoint(p)
	//
	// is always true. To do this, we need to account for the error when
	// converting from (u,v) coordinates to (s,t) coordinates. In the
	// normal case the total error is at most dblEpsilon.
	return c.uv.ExpandedByMargin(dblEpsilon).ContainsPoint(uv)
}

// AverageArea returns the average area of cells at this level on the unit
// sphere. This is accurate to within a factor of 1.7.
func (c Cell) AverageArea() float64 {
	return AvgAreaMetric.Value(int(c.level))
}

const dblEpsilon = 2.220446049250313e-16
