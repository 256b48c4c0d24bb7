package shapeindex

// ClippedShape represents the part of a shape that intersects a CellID. It
// consists of the set of edge IDs that intersect that cell and a boolean
// indicating whether the center of the cell is inside the shape (for shapes
// that have an interior).
//
// Note that the edges themselves are not clipped; we always use the original
// edges for intersection tests so that the results will be the same as the
// original shape.
type ClippedShape struct {
	// shapeID is the index of the shape this clipped shape is a part of.
	shapeID int32

	// containsCenter indicates if the center of the CellID this shape has been
	// clipped to falls inside this shape. This is false for shapes that do not
	// have an interior.
	containsCenter bool

	// edges is the ordered set of index original edge IDs. Edges are stored in
	// increasing order of edge ID.
	edges []int
}

// newClippedShape returns a new clipped shape for the given shapeID and
// number of expected edges.
func newClippedShape(id int32, numEdges int) *ClippedShape {
	return &ClippedShape{
		shapeID: id,
		edges:   make([]int, numEdges),
	}
}

// ShapeID returns the index of the shape this clipped shape belongs to.
func (c *ClippedShape) ShapeID() int32 { return c.shapeID }

// ContainsCenter reports whether the center of the CellID this shape was
// clipped to falls inside this shape.
func (c *ClippedShape) ContainsCenter() bool { return c.containsCenter }

// NumEdges returns the number of edges that intersect the CellID this shape
// was clipped to.
func (c *ClippedShape) NumEdges() int { return len(c.edges) }

// Edge returns the edge ID at the given offset.
func (c *ClippedShape) Edge(i int) int { return c.edges[i] }

// ContainsEdge reports if this clipped shape contains the given edge ID.
func (c *ClippedShape) ContainsEdge(id int) bool {
	// Linear search is fast because the number of edges per shape is typically
	// very small (less than 10).
	for _, e := range c.edges {
		if e == id {
			return true
		}
	}
	return false
}

// Cell stores the index contents for a particular CellID.
type Cell struct {
	shapes []*ClippedShape
}

// NewCell creates a new cell that is sized to hold the given number of
// shapes.
func NewCell(numShapes int) *Cell {
	return &Cell{
		shapes: make([]*ClippedShape, 0, numShapes),
	}
}

// NumEdges reports the total number of edges in all clipped shapes in this
// cell.
func (s *Cell) NumEdges() int {
	var e int
	for _, cs := range s.shapes {
		e += cs.NumEdges()
	}
	return e
}

// NumShapes reports the number of clipped shapes in this cell.
func (s *Cell) NumShapes() int { return len(s.shapes) }

// Shape returns the clipped shape at the given index. Shapes are kept sorted
// in increasing order of shape id.
func (s *Cell) Shape(i int) *ClippedShape { return s.shapes[i] }

// add adds the given clipped shape to this index cell.
func (s *Cell) add(c *ClippedShape) {
	// Both the original and incremental updates insert shapes in id order.
	s.shapes = append(s.shapes, c)
}

// FindByShapeID returns the clipped shape that contains the given shapeID,
// or nil if none of the clipped shapes contain it.
func (s *Cell) FindByShapeID(shapeID int32) *ClippedShape {
	// Linear search is fine because the number of shapes per cell is typically
	// very small (most often 1), and is large only for pathological inputs
	// (e.g. very deeply nested loops).
	for _, clipped := range s.shapes {
		if clipped.shapeID == shapeID {
			return clipped
		}
	}
	return nil
}
