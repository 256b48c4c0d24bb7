package shapeindex

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/cellgo/cell"
	"github.com/hupe1980/cellgo/predicate"
)

// interiorTracker keeps track of which shapes in the index contain a
// particular point (the focus). Initially the focus is the start of the
// space-filling curve on the first face, and it is updated during the index
// build as the algorithm visits the cells in curve order. The focus point is
// moved by drawing a line segment from the previous focus to the new one and
// counting the shape edges that cross this segment.
type interiorTracker struct {
	isActive   bool
	a, b       cell.Point
	nextCellID cell.ID
	crosser    *predicate.EdgeCrosser

	// shapeIDs is the set of shape ids whose interior currently contains
	// the focus point, in a bitmap so that toggles and ordered iteration
	// stay cheap even with many shapes.
	shapeIDs *roaring.Bitmap

	// Shape ids saved by saveAndClearStateBefore. The state is never saved
	// recursively so we don't need to worry about maintaining a stack.
	savedIDs *roaring.Bitmap
}

// newInteriorTracker returns a new tracker with its focus at the start of
// the space-filling curve.
func newInteriorTracker() *interiorTracker {
	ft := &interiorTracker{
		isActive:   false,
		b:          trackerOrigin(),
		nextCellID: cell.FromFace(0).ChildBeginAtLevel(cell.MaxLevel),
		shapeIDs:   roaring.New(),
	}
	ft.drawTo(trackerOrigin())
	return ft
}

// trackerOrigin returns the initial focus point when the tracker is created
// (corresponding to the start of the space-filling curve).
func trackerOrigin() cell.Point {
	return cell.Point{Vector: cell.FaceUVToXYZ(0, -1, -1).Normalize()}
}

// addShape adds a shape whose interior should be tracked. containsFocus
// indicates whether the current focus point is inside the shape.
// Alternatively, if the focus point is in the process of being moved
// (via moveTo/drawTo), you can also specify containsFocus at the old focus
// point and call testEdge for every edge of the shape that might cross the
// current drawTo line.
func (t *interiorTracker) addShape(shapeID int32, containsFocus bool) {
	t.isActive = true
	if containsFocus {
		t.toggleShape(shapeID)
	}
}

// moveTo moves the focus point to the given point. This method should only
// be used when it is known that there are no edge crossings between the old
// and new focus locations; otherwise use drawTo.
func (t *interiorTracker) moveTo(b cell.Point) { t.b = b }

// drawTo moves the focus point to the given point. After this method is
// called, testEdge should be called with all edges that may cross the line
// segment between the old and new focus locations.
func (t *interiorTracker) drawTo(b cell.Point) {
	t.a = t.b
	t.b = b
	t.crosser = predicate.NewEdgeCrosser(t.a, t.b)
}

// testEdge checks if the given edge crosses the current edge, and if so,
// then toggles the state of the given shapeID.
func (t *interiorTracker) testEdge(shapeID int32, edge Edge) {
	if t.crosser.EdgeOrVertexCrossing(edge.V0, edge.V1) {
		t.toggleShape(shapeID)
	}
}

// setNextCellID is used to indicate that the last argument to moveTo or
// drawTo was the entry vertex of the given CellID, i.e. the tracker is
// positioned at the start of this cell. By using this method together with
// atCellID, the caller can avoid calling moveTo in cases where the exit
// vertex of the previous cell is the same as the entry vertex of the
// current cell.
func (t *interiorTracker) setNextCellID(nextCellID cell.ID) {
	t.nextCellID = nextCellID.RangeMin()
}

// atCellID reports if the focus is already at the entry vertex of the given
// CellID (provided that the caller calls setNextCellID as each cell is
// processed).
func (t *interiorTracker) atCellID(cellID cell.ID) bool {
	return cellID.RangeMin() == t.nextCellID
}

// toggleShape adds or removes the given shapeID from the set of IDs it is
// tracking.
func (t *interiorTracker) toggleShape(shapeID int32) {
	id := uint32(shapeID)
	if t.shapeIDs.Contains(id) {
		t.shapeIDs.Remove(id)
	} else {
		t.shapeIDs.Add(id)
	}
}

// containsShape reports whether the focus is currently inside the shape
// with the given id.
func (t *interiorTracker) containsShape(shapeID int32) bool {
	return t.shapeIDs.Contains(uint32(shapeID))
}

// containedShapeIDs returns the ids of all shapes whose interior currently
// contains the focus, in ascending order.
func (t *interiorTracker) containedShapeIDs() []uint32 {
	return t.shapeIDs.ToArray()
}

// saveAndClearStateBefore makes an internal copy of the state for shape ids
// below the given limit, and then clears the state for those shapes. This is
// used during incremental updates to track the state of added and removed
// shapes separately.
func (t *interiorTracker) saveAndClearStateBefore(limitShapeID int32) {
	t.savedIDs = t.shapeIDs.Clone()
	t.savedIDs.RemoveRange(uint64(limitShapeID), math.MaxUint32+1)
	t.shapeIDs.RemoveRange(0, uint64(limitShapeID))
}

// restoreStateBefore restores the state previously saved by
// saveAndClearStateBefore. This only affects the state for shape ids below
// limitShapeID.
func (t *interiorTracker) restoreStateBefore(limitShapeID int32) {
	t.shapeIDs.RemoveRange(0, uint64(limitShapeID))
	if t.savedIDs != nil {
		t.shapeIDs.Or(t.savedIDs)
		t.savedIDs = nil
	}
}
