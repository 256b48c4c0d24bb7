package cellgo

import (
	"github.com/hupe1980/cellgo/cell"
	"github.com/hupe1980/cellgo/edgeclip"
	"github.com/hupe1980/cellgo/predicate"
	"github.com/hupe1980/cellgo/shapeindex"
)

// ShapeIndexRegion wraps a shape index and implements the Region interface,
// which allows covering the indexed geometry with RegionCoverer.
//
// It also provides VisitIntersectingShapes to efficiently visit all shapes
// that intersect an arbitrary cell, not limited to cells in the index.
//
// This type is not safe for concurrent use.
type ShapeIndexRegion struct {
	index *shapeindex.ShapeIndex
	iter  *shapeindex.Iterator
}

// NewShapeIndexRegion creates a new ShapeIndexRegion for the given index.
func NewShapeIndexRegion(index *shapeindex.ShapeIndex) *ShapeIndexRegion {
	return &ShapeIndexRegion{
		index: index,
		iter:  shapeindex.NewIterator(index),
	}
}

// Index returns the underlying shape index.
func (s *ShapeIndexRegion) Index() *shapeindex.ShapeIndex {
	return s.index
}

// CellUnionBound returns a bounding cell union for the indexed geometry.
// It returns at most 4 cells, unless the index spans multiple faces in
// which case it may return up to 6 cells.
func (s *ShapeIndexRegion) CellUnionBound() []cell.ID {
	// We find the range of cells spanned by the index and choose a level
	// such that the entire index can be covered with just a few cells.
	// There are two cases:
	//
	//  - If the index intersects two or more faces, then for each
	//    intersected face we add one cell to the covering. Rather than
	//    adding the entire face, instead we add the smallest cell that
	//    covers the index cells within that face.
	//
	//  - If the index intersects only one face, we repeat this process for
	//    each of the four cells at the level just below the common
	//    ancestor. This extra step is cheap and produces much tighter
	//    coverings when the index occupies a small region near the center
	//    of a large cell.
	var cellIDs []cell.ID

	// Find the last cell ID in the index.
	s.iter.End()
	if !s.iter.Prev() {
		return cellIDs // Empty index.
	}
	lastIndexID := s.iter.CellID()
	s.iter.Begin()
	if s.iter.CellID() != lastIndexID {
		// The index has at least two cells. Choose a level such that the
		// entire index can be spanned with at most 6 cells (if the index
		// spans multiple faces) or 4 cells (if it spans a single face).
		level, ok := s.iter.CellID().CommonAncestorLevel(lastIndexID)
		if !ok {
			level = 0
		} else {
			level++
		}

		// For each cell C at the chosen level, compute the smallest cell
		// that covers the index cells within C.
		lastID := lastIndexID.Parent(level)
		for id := s.iter.CellID().Parent(level); id != lastID; id = id.Next() {
			// If the cell C does not contain any index cells, skip it.
			if id.RangeMax() < s.iter.CellID() {
				continue
			}

			// Find the range of index cells contained by C and then shrink
			// C so that it just covers those cells.
			first := s.iter.CellID()
			s.iter.Seek(id.RangeMax().Next())
			s.iter.Prev()
			cellIDs = s.coverRange(first, s.iter.CellID(), cellIDs)
			s.iter.Next()
		}
	}

	return s.coverRange(s.iter.CellID(), lastIndexID, cellIDs)
}

// coverRange appends the smallest cell ID that covers the inclusive cell
// range (first, last).
//
// This requires that first and last have a common ancestor.
func (s *ShapeIndexRegion) coverRange(first, last cell.ID, cellIDs []cell.ID) []cell.ID {
	// The range consists of a single index cell.
	if first == last {
		return append(cellIDs, first)
	}

	// Add the lowest common ancestor of the given range.
	level, ok := first.CommonAncestorLevel(last)
	if !ok {
		return append(cellIDs, cell.ID(0))
	}
	return append(cellIDs, first.Parent(level))
}

// IntersectsCell reports whether the indexed geometry might intersect the
// given cell. This is a fast, conservative check.
func (s *ShapeIndexRegion) IntersectsCell(target cell.Cell) bool {
	relation := s.iter.LocateCellID(target.ID())

	// If the target does not overlap any index cell, there is no intersection.
	if relation == shapeindex.Disjoint {
		return false
	}

	// If the target is subdivided into one or more index cells, then there
	// is an intersection to within the index error bound.
	if relation == shapeindex.Subdivided {
		return true
	}

	// Otherwise, the iterator points to an index cell containing the target.
	if s.iter.CellID() == target.ID() {
		return true
	}

	// Test whether any shape intersects the target cell or contains its center.
	indexCell := s.iter.IndexCell()
	for i := 0; i < indexCell.NumShapes(); i++ {
		clipped := indexCell.Shape(i)
		if s.anyEdgeIntersects(clipped, target) {
			return true
		}
		if s.contains(clipped, target.Center()) {
			return true
		}
	}
	return false
}

// ContainsCell reports whether the indexed geometry completely contains the
// given cell. It returns false if containment could not be determined.
//
// The implementation is conservative but not exact; if a shape just barely
// contains the given cell then it may return false.
func (s *ShapeIndexRegion) ContainsCell(target cell.Cell) bool {
	relation := s.iter.LocateCellID(target.ID())

	// If the relation is Disjoint, then the target is not contained.
	// Similarly if the relation is Subdivided then the target is not
	// contained, since index cells are subdivided only if they (nearly)
	// intersect too many edges.
	if relation != shapeindex.Indexed {
		return false
	}

	// Otherwise, the iterator points to an index cell containing the target.
	// If any shape contains the target cell, return true.
	indexCell := s.iter.IndexCell()
	for i := 0; i < indexCell.NumShapes(); i++ {
		clipped := indexCell.Shape(i)

		// The shape contains the target cell iff the shape contains the
		// cell center and none of its edges intersects the (padded) cell
		// interior.
		if s.iter.CellID() == target.ID() {
			if clipped.NumEdges() == 0 && clipped.ContainsCenter() {
				return true
			}
		} else {
			// It is faster to call anyEdgeIntersects before contains.
			if s.index.Shape(clipped.ShapeID()).Dimension() == 2 &&
				!s.anyEdgeIntersects(clipped, target) &&
				s.contains(clipped, target.Center()) {
				return true
			}
		}
	}
	return false
}

// ContainsPoint reports whether the given point is contained by any
// two-dimensional shape in the index. Boundaries are treated as being
// semi-open. Zero and one-dimensional shapes are ignored.
func (s *ShapeIndexRegion) ContainsPoint(p cell.Point) bool {
	if s.iter.LocatePoint(p) {
		indexCell := s.iter.IndexCell()
		for i := 0; i < indexCell.NumShapes(); i++ {
			if s.contains(indexCell.Shape(i), p) {
				return true
			}
		}
	}
	return false
}

// VisitIntersectingShapes visits all shapes that intersect the target cell,
// passing the shape and a flag indicating whether the cell is fully
// contained by the shape. Each shape is visited at most once.
//
// The visitor should return true to continue visiting intersecting shapes,
// or false to terminate the traversal early.
func (s *ShapeIndexRegion) VisitIntersectingShapes(target cell.Cell, visitor func(shape Shape, containsTarget bool) bool) bool {
	switch s.iter.LocateCellID(target.ID()) {
	case shapeindex.Disjoint:
		return true

	case shapeindex.Subdivided:
		// A shape contains the target cell iff it appears in at least one
		// cell, it contains the center of all cells, and it has no edges
		// in any cell. It is easier to track whether a shape does *not*
		// contain the target cell because boolean values default to false.
		shapeNotContains := make(map[int32]bool)
		max := target.ID().RangeMax()
		for ; !s.iter.Done() && s.iter.CellID() <= max; s.iter.Next() {
			indexCell := s.iter.IndexCell()
			for i := 0; i < indexCell.NumShapes(); i++ {
				clipped := indexCell.Shape(i)
				shapeNotContains[clipped.ShapeID()] = shapeNotContains[clipped.ShapeID()] ||
					clipped.NumEdges() > 0 || !clipped.ContainsCenter()
			}
		}
		for shapeID, notContains := range shapeNotContains {
			if !visitor(s.index.Shape(shapeID), !notContains) {
				return false
			}
		}
		return true

	case shapeindex.Indexed:
		indexCell := s.iter.IndexCell()
		for i := 0; i < indexCell.NumShapes(); i++ {
			clipped := indexCell.Shape(i)

			// The shape contains the target cell iff the shape contains
			// the cell center and none of its edges intersects the
			// (padded) cell interior.
			contains := false
			if s.iter.CellID() == target.ID() {
				contains = clipped.NumEdges() == 0 && clipped.ContainsCenter()
			} else {
				if !s.anyEdgeIntersects(clipped, target) {
					if !s.contains(clipped, target.Center()) {
						continue // Disjoint.
					}
					contains = true
				}
			}
			if !visitor(s.index.Shape(clipped.ShapeID()), contains) {
				return false
			}
		}
		return true
	}
	panic("unreachable")
}

// contains reports whether the clipped shape in the current index cell
// contains the point p.
//
// REQUIRES: s.iter.CellID() contains p.
func (s *ShapeIndexRegion) contains(clipped *shapeindex.ClippedShape, p cell.Point) bool {
	shape := s.index.Shape(clipped.ShapeID())
	if shape == nil || shape.Dimension() != 2 {
		return false
	}

	// Walk from the cell center to p, toggling containment at each
	// crossing of a clipped edge.
	inside := clipped.ContainsCenter()
	numEdges := clipped.NumEdges()
	if numEdges > 0 {
		center := s.iter.Center()
		crosser := predicate.NewEdgeCrosser(center, p)
		for i := 0; i < numEdges; i++ {
			edge := shape.Edge(clipped.Edge(i))
			inside = inside != crosser.EdgeOrVertexCrossing(edge.V0, edge.V1)
		}
	}
	return inside
}

// anyEdgeIntersects reports whether any edge of the clipped shape intersects
// the target cell. It may also return true if an edge is very close to the
// target; the maximum error is less than 10 * dblEpsilon radians.
func (s *ShapeIndexRegion) anyEdgeIntersects(clipped *shapeindex.ClippedShape, target cell.Cell) bool {
	maxError := edgeclip.FaceClipErrorUVCoord + edgeclip.IntersectsRectErrorUVDist
	bound := target.BoundUV().ExpandedByMargin(maxError)
	face := target.Face()
	shape := s.index.Shape(clipped.ShapeID())
	numEdges := clipped.NumEdges()

	for i := 0; i < numEdges; i++ {
		edge := shape.Edge(clipped.Edge(i))
		p0, p1, ok := edgeclip.ClipToPaddedFace(edge.V0, edge.V1, face, maxError)
		if ok && edgeclip.EdgeIntersectsRect(p0, p1, bound) {
			return true
		}
	}
	return false
}
