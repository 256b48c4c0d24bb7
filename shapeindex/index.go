// Package shapeindex provides a spatial index of polygonal geometry on the
// unit sphere.
//
// The index is a map from cell ids to the set of shape edges intersecting
// each cell, organized so that point location and edge intersection queries
// only need to look at a small number of edges. Shapes are added and removed
// lazily; the index contents are (re)built in batches on the first query
// after a modification.
package shapeindex

import (
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"

	"github.com/hupe1980/cellgo/cell"
	"github.com/hupe1980/cellgo/edgeclip"
)

const (
	// cellPadding defines the total error when clipping an edge which comes
	// from two sources:
	// (1) Clipping the original spherical edge to a cube face (the face edge).
	//     The maximum error in this step is faceClipErrorUVCoord.
	// (2) Clipping the face edge to the u- or v-coordinate of a cell boundary.
	//     The maximum error in this step is edgeClipErrorUVCoord.
	// Finally, since we encounter the same errors when clipping query edges, we
	// double the total error so that we only need to pad edges during indexing
	// and not at query time.
	cellPadding = 2.0 * (edgeclip.FaceClipErrorUVCoord + edgeclip.EdgeClipErrorUVCoord)

	// cellSizeToLongEdgeRatio defines the cell size relative to the length of
	// an edge at which it is first considered to be long. Long edges do not
	// contribute toward the decision to subdivide a cell further. The size
	// and speed of the index are typically not very sensitive to this
	// parameter. Reasonable values range from 0.1 to 10, with smaller values
	// causing more aggressive subdivision of long edges grouped closely
	// together.
	cellSizeToLongEdgeRatio = 1.0

	// defaultMaxEdgesPerCell is the default maximum number of edges per
	// index cell; a cell with more (short) edges is subdivided.
	defaultMaxEdgesPerCell = 10
)

// The index is built lazily and can be in one of three states.
const (
	stale    int32 = iota // There are pending updates.
	updating              // Updates are currently being applied.
	fresh                 // There are no pending updates.
)

// CellRelation describes the possible relationships between a target cell
// and the cells of the index. If the target is an index cell or is
// contained by an index cell, it is Indexed. If the target is subdivided
// into one or more index cells, it is Subdivided. Otherwise it is Disjoint.
type CellRelation int

// The possible CellRelations for a ShapeIndex.
const (
	Indexed CellRelation = iota
	Subdivided
	Disjoint
)

// faceEdge represents an edge of a shape that has been clipped to a given
// cube face, and stores pointers back to the original edge data.
type faceEdge struct {
	shapeID     int32     // The ID of shape that this edge belongs to.
	edgeID      int       // Edge ID within that shape.
	maxLevel    int       // Not desirable to subdivide this edge beyond this level.
	hasInterior bool      // Belongs to a shape that has a dimension of 2.
	a, b        r2.Point  // The edge endpoints, clipped to a given face.
	edge        Edge      // The original edge.
}

// clippedEdge represents the portion of a faceEdge that has been clipped down
// to a smaller cell during the recursive subdivision. The endpoints are not
// clipped; instead we keep the bounding box of the clipped portion.
type clippedEdge struct {
	faceEdge *faceEdge // The original unclipped edge.
	bound    r2.Rect   // Bounding box for the clipped portion.
}

// removedShape represents a set of edges from the given shape that is queued
// for removal. The edges must be copied since the shape itself is no longer
// available by the time the removal is processed.
type removedShape struct {
	shapeID               int32
	hasInterior           bool
	containsTrackerOrigin bool
	edges                 []Edge
}

// Options configures a ShapeIndex.
type Options struct {
	// MaxEdgesPerCell is the maximum number of edges per index cell, not
	// counting long edges. Cells with more short edges are subdivided.
	MaxEdgesPerCell int

	// Logger is the structured logger used for build diagnostics.
	Logger *slog.Logger
}

// DefaultOptions returns the default configuration for a ShapeIndex.
func DefaultOptions() Options {
	return Options{
		MaxEdgesPerCell: defaultMaxEdgesPerCell,
		Logger:          slog.Default(),
	}
}

// Option modifies the default index configuration.
type Option func(*Options)

// WithMaxEdgesPerCell sets the maximum number of short edges per index cell.
func WithMaxEdgesPerCell(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxEdgesPerCell = n
		}
	}
}

// WithLogger sets the logger used for build diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// ShapeIndex indexes a set of Shapes, where a Shape is some collection of
// edges that optionally defines an interior. A ShapeIndex may contain any
// number of shapes, possibly of different dimensions (e.g. 10 points and 3
// polygons), and the shapes may be updated incrementally.
//
// The index is lazy: Add and Remove queue changes, and the index contents
// are updated in a batch by the first query (or an explicit call to Build).
//
// A ShapeIndex is safe for concurrent reads once it is fresh; concurrent
// mutation and reading requires external synchronization.
type ShapeIndex struct {
	// shapes is a map of shape ID to shape.
	shapes map[int32]Shape

	opts Options

	// nextID tracks the next ID to hand out. IDs are not reused when shapes
	// are removed.
	nextID int32

	// cellMap is a map from CellID to the set of clipped shapes that
	// intersect that cell. The cell ids cover a set of non-overlapping
	// regions on the sphere.
	cellMap map[cell.ID]*Cell

	// cells are the cell ids covered by the index, sorted in ascending order
	// and matching the keys of cellMap.
	cells []cell.ID

	// The current status of the index; accessed atomically.
	status int32

	// Additions and removals are queued and processed on the first subsequent
	// query. There are several reasons to do this:
	//
	//  - It is significantly more efficient to process updates in batches if
	//    the amount of entities added grows.
	//  - Often the index will never be queried, in which case we can save both
	//    the time and memory required to build it. Examples:
	//     + Shapes that are created simply to pass to some function.
	//     + Loops that are created when parsing geometry and then discarded.
	//
	// The notion of a lazy index is explained more fully in the comments in
	// applyUpdatesInternal.
	//
	// pendingAdditionsPos is the index of the first entry that has not been
	// processed via applyUpdatesInternal.
	pendingAdditionsPos int32

	// pendingRemovals is the set of shapes that have been removed but whose
	// edges have not yet been removed from the index.
	pendingRemovals []*removedShape

	// mu protects the update process from concurrent queries.
	mu sync.Mutex
}

// NewShapeIndex creates a new ShapeIndex.
func NewShapeIndex(optFns ...Option) *ShapeIndex {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &ShapeIndex{
		opts:    opts,
		shapes:  make(map[int32]Shape),
		cellMap: make(map[cell.ID]*Cell),
		cells:   nil,
		status:  fresh,
	}
}

// Iterator returns an iterator for this index, positioned at the first cell.
func (s *ShapeIndex) Iterator() *Iterator {
	s.maybeApplyUpdates()
	return NewIterator(s, IteratorBegin)
}

// Begin positions the iterator at the first cell in the index.
func (s *ShapeIndex) Begin() *Iterator {
	s.maybeApplyUpdates()
	return NewIterator(s, IteratorBegin)
}

// End positions the iterator at the last cell in the index. Mutating the
// index between this call and using the iterator invalidates the position.
func (s *ShapeIndex) End() *Iterator {
	s.maybeApplyUpdates()
	return NewIterator(s, IteratorEnd)
}

// Len reports the number of Shapes in this index.
func (s *ShapeIndex) Len() int {
	return len(s.shapes)
}

// Reset resets the index to its original state.
func (s *ShapeIndex) Reset() {
	s.shapes = make(map[int32]Shape)
	s.nextID = 0
	s.cellMap = make(map[cell.ID]*Cell)
	s.cells = nil
	s.pendingAdditionsPos = 0
	s.pendingRemovals = nil
	atomic.StoreInt32(&s.status, fresh)
}

// NumEdges returns the number of edges in this index.
func (s *ShapeIndex) NumEdges() int {
	numEdges := 0
	for _, shape := range s.shapes {
		numEdges += shape.NumEdges()
	}
	return numEdges
}

// Shape returns the shape with the given ID, or nil if the shape has been
// removed from the index.
func (s *ShapeIndex) Shape(id int32) Shape { return s.shapes[id] }

// idForShape returns the id of the given shape in this index, or -1 if it is
// not in the index.
func (s *ShapeIndex) idForShape(shape Shape) int32 {
	for k, v := range s.shapes {
		if v == shape {
			return k
		}
	}
	return -1
}

// Add adds the given shape to the index and returns the assigned ID.
func (s *ShapeIndex) Add(shape Shape) int32 {
	s.shapes[s.nextID] = shape
	s.nextID++
	atomic.StoreInt32(&s.status, stale)
	return s.nextID - 1
}

// Remove removes the given shape from the index.
func (s *ShapeIndex) Remove(shape Shape) {
	// The index updates itself lazily because it is much more efficient to
	// process additions and removals in batches.
	id := s.idForShape(shape)

	// If the shape wasn't found, it's already been removed or was not in the index.
	if s.shapes[id] == nil {
		return
	}

	// Remove the shape from the shapes map.
	delete(s.shapes, id)

	// We are removing a shape that has not yet been added to the index,
	// so there is nothing else to do.
	if id >= s.pendingAdditionsPos {
		return
	}

	numEdges := shape.NumEdges()
	removed := &removedShape{
		shapeID:               id,
		hasInterior:           shape.Dimension() == 2,
		containsTrackerOrigin: shape.Dimension() == 2 && containsBruteForce(shape, trackerOrigin()),
		edges:                 make([]Edge, 0, numEdges),
	}

	for e := 0; e < numEdges; e++ {
		removed.edges = append(removed.edges, shape.Edge(e))
	}

	s.pendingRemovals = append(s.pendingRemovals, removed)
	atomic.StoreInt32(&s.status, stale)
}

// Build triggers the update of the index. Calls to Add and Remove are normally
// queued and processed on the first subsequent query. This can be called to
// force the update, e.g. to avoid first-query latency.
func (s *ShapeIndex) Build() {
	s.maybeApplyUpdates()
}

// IsFresh reports if there are no pending updates that need to be applied.
// This can be useful to avoid building the index unnecessarily, or for
// choosing between two different algorithms depending on whether the index
// is available.
//
// The returned index status may be slightly out of date if the index was
// built in a different thread. This is fine for the intended use (as an
// efficiency hint), but it should not be used by internal methods.
func (s *ShapeIndex) IsFresh() bool {
	return atomic.LoadInt32(&s.status) == fresh
}

// isFirstUpdate reports if this is the first update to the index.
func (s *ShapeIndex) isFirstUpdate() bool {
	// Note that it is not sufficient to check whether cellMap is empty, since
	// entries are added to it during the update process.
	return s.pendingAdditionsPos == 0
}

// isShapeBeingRemoved reports if the shape with the given ID is currently slated for removal.
func (s *ShapeIndex) isShapeBeingRemoved(shapeID int32) bool {
	// All shape ids being removed fall below the index position of shapes being added.
	return shapeID < s.pendingAdditionsPos
}

// maybeApplyUpdates checks if the index pieces have changed, and if so, applies pending updates.
func (s *ShapeIndex) maybeApplyUpdates() {
	// The atomic load keeps the read path cheap; any thread that sees a fresh
	// status also sees the corresponding index updates.
	if atomic.LoadInt32(&s.status) != fresh {
		s.mu.Lock()
		atomic.StoreInt32(&s.status, updating)
		s.applyUpdatesInternal()
		atomic.StoreInt32(&s.status, fresh)
		s.mu.Unlock()
	}
}

// applyUpdatesInternal does the actual work of updating the index by applying
// all pending additions and removals. It does *not* update the indexes status.
func (s *ShapeIndex) applyUpdatesInternal() {
	t := newInteriorTracker()

	// allEdges maps a Face to a collection of faceEdges.
	allEdges := make([][]faceEdge, 6)

	for _, p := range s.pendingRemovals {
		s.removeShapeInternal(p, allEdges, t)
	}

	for id := s.pendingAdditionsPos; id < s.nextID; id++ {
		s.addShapeInternal(id, allEdges, t)
	}

	for face := 0; face < 6; face++ {
		s.updateFaceEdges(face, allEdges[face], t)
	}

	// Rebuild the sorted list of cell ids. During the update the list is kept
	// as a snapshot of the previous build so that the mid-update iterators can
	// locate the existing cells that need to be absorbed.
	s.cells = s.cells[:0]
	for id := range s.cellMap {
		s.cells = append(s.cells, id)
	}
	sort.Slice(s.cells, func(i, j int) bool { return s.cells[i] < s.cells[j] })

	s.opts.Logger.Debug("index update applied",
		slog.Int("shapes", len(s.shapes)),
		slog.Int("removals", len(s.pendingRemovals)),
		slog.Int("cells", len(s.cells)),
	)

	s.pendingRemovals = s.pendingRemovals[:0]
	s.pendingAdditionsPos = s.nextID
}

// addShapeInternal clips all edges of the given shape to the six cube faces,
// adds the clipped edges to allEdges, and starts tracking its
// interior if necessary.
func (s *ShapeIndex) addShapeInternal(shapeID int32, allEdges [][]faceEdge, t *interiorTracker) {
	shape, ok := s.shapes[shapeID]
	if !ok {
		// This shape has already been removed.
		return
	}

	faceEdge := faceEdge{
		shapeID:     shapeID,
		hasInterior: shape.Dimension() == 2,
	}

	if faceEdge.hasInterior {
		t.addShape(shapeID, containsBruteForce(shape, t.b))
	}

	numEdges := shape.NumEdges()
	for e := 0; e < numEdges; e++ {
		edge := shape.Edge(e)

		fe := faceEdge
		fe.edgeID = e
		fe.edge = edge
		fe.maxLevel = maxLevelForEdge(edge)
		s.addFaceEdge(fe, allEdges)
	}
}

// removeShapeInternal does the quasi-opposite of addShapeInternal: the edges
// of the removed shape are fed through the subdivision flagged as removals,
// so that every index cell containing them is found and rewritten.
func (s *ShapeIndex) removeShapeInternal(removed *removedShape, allEdges [][]faceEdge, t *interiorTracker) {
	faceEdge := faceEdge{
		shapeID:     removed.shapeID,
		edgeID:      -1, // Not used or needed for removed edges.
		hasInterior: removed.hasInterior,
	}

	if faceEdge.hasInterior {
		t.addShape(faceEdge.shapeID, removed.containsTrackerOrigin)
	}

	for _, edge := range removed.edges {
		fe := faceEdge
		fe.edge = edge
		fe.maxLevel = maxLevelForEdge(edge)
		s.addFaceEdge(fe, allEdges)
	}
}

// addFaceEdge adds the given faceEdge into the collection of all edges.
func (s *ShapeIndex) addFaceEdge(fe faceEdge, allEdges [][]faceEdge) {
	aFace := cell.FaceForPoint(fe.edge.V0.Vector)
	// See if both endpoints are on the same face, and are far enough from
	// the edge of the face that they don't intersect any (padded) adjacent face.
	if aFace == cell.FaceForPoint(fe.edge.V1.Vector) {
		x, y := cell.ValidFaceXYZToUV(aFace, fe.edge.V0.Vector)
		fe.a = r2.Point{X: x, Y: y}
		x, y = cell.ValidFaceXYZToUV(aFace, fe.edge.V1.Vector)
		fe.b = r2.Point{X: x, Y: y}

		maxUV := 1 - cellPadding
		if math.Abs(fe.a.X) <= maxUV && math.Abs(fe.a.Y) <= maxUV &&
			math.Abs(fe.b.X) <= maxUV && math.Abs(fe.b.Y) <= maxUV {
			allEdges[aFace] = append(allEdges[aFace], fe)
			return
		}
	}

	// Otherwise simply clip the edge to all six faces.
	for face := 0; face < 6; face++ {
		if aClip, bClip, intersects := edgeclip.ClipToPaddedFace(fe.edge.V0, fe.edge.V1, face, cellPadding); intersects {
			fe.a = aClip
			fe.b = bClip
			allEdges[face] = append(allEdges[face], fe)
		}
	}
}

// updateFaceEdges adds or removes the various edges from the index. An edge
// being added has a positive edge id, and an edge being removed has one
// set to -1.
func (s *ShapeIndex) updateFaceEdges(face int, faceEdges []faceEdge, t *interiorTracker) {
	numEdges := len(faceEdges)
	if numEdges == 0 && t.shapeIDs.IsEmpty() {
		return
	}

	// Create the initial clippedEdge for each faceEdge. Additionally, we also
	// create the initial clippedEdge vector that will be passed to updateEdges.
	clippedEdges := make([]*clippedEdge, 0, numEdges)
	bound := r2.EmptyRect()
	for e := 0; e < numEdges; e++ {
		clipped := &clippedEdge{
			faceEdge: &faceEdges[e],
		}
		clipped.bound = r2.RectFromPoints(faceEdges[e].a, faceEdges[e].b)
		clippedEdges = append(clippedEdges, clipped)
		bound = bound.AddRect(clipped.bound)
	}

	// Construct the initial face cell containing all the edges, and then update
	// all the edges in the index recursively.
	faceID := cell.FromFace(face)
	pcell := cell.PaddedCellFromCellID(faceID, cellPadding)

	disjointFromIndex := s.isFirstUpdate()
	if numEdges > 0 {
		shrunkID := s.shrinkToFit(pcell, bound)
		if shrunkID != pcell.CellID() {
			// All the edges are contained by some descendant of the face cell. We
			// can save a lot of work by starting directly with that cell, but if we
			// are in the interior of at least one shape then we need to create
			// index entries for the cells we are skipping over.
			s.skipCellRange(faceID.RangeMin(), shrunkID.RangeMin(), t, disjointFromIndex)
			pcell = cell.PaddedCellFromCellID(shrunkID, cellPadding)
			s.updateEdges(pcell, clippedEdges, t, disjointFromIndex)
			s.skipCellRange(shrunkID.RangeMax().Next(), faceID.RangeMax().Next(), t, disjointFromIndex)
			return
		}
	}

	// Otherwise (no edges, or no shrinking is possible), subdivide normally.
	s.updateEdges(pcell, clippedEdges, t, disjointFromIndex)
}

// shrinkToFit shrinks the PaddedCell to fit within the given bounds.
func (s *ShapeIndex) shrinkToFit(pcell *cell.PaddedCell, bound r2.Rect) cell.ID {
	shrunkID := pcell.ShrinkToFit(bound)

	if !s.isFirstUpdate() && shrunkID != pcell.CellID() {
		// Don't shrink any smaller than the existing index cells, since we need
		// to combine the new edges with those cells. Use an internal iterator
		// here since the index is in the middle of an update.
		iter := newIterator(s)
		if iter.LocateCellID(shrunkID) == Indexed {
			shrunkID = iter.CellID()
		}
	}
	return shrunkID
}

// skipCellRange skips over the cells in the given range, creating index cells
// if we are currently in the interior of at least one shape.
func (s *ShapeIndex) skipCellRange(begin, end cell.ID, t *interiorTracker, disjointFromIndex bool) {
	// If we aren't in the interior of a shape, then skipping over cells is easy.
	if t.shapeIDs.IsEmpty() {
		return
	}

	// Otherwise generate the list of cell ids that we need to visit, and create
	// an index entry for each one.
	for _, skipped := range cell.UnionFromRange(begin, end) {
		s.updateEdges(cell.PaddedCellFromCellID(skipped, cellPadding), nil, t, disjointFromIndex)
	}
}

// updateEdges adds or removes the given edges whose bounding boxes intersect a
// given cell. disjointFromIndex is an optimization hint indicating that cellMap
// does not contain any entries that overlap the given cell.
func (s *ShapeIndex) updateEdges(pcell *cell.PaddedCell, edges []*clippedEdge, t *interiorTracker, disjointFromIndex bool) {
	// This function is recursive with a maximum recursion depth of 30 (MaxLevel).

	// Incremental updates are handled as follows. All edges being added or
	// removed are combined together in edges, and all shapes with interiors
	// are tracked using tracker. We subdivide recursively as usual until we
	// encounter an existing index cell. At this point we absorb the index
	// cell as follows:
	//
	//   - Edges and shapes that are being removed are deleted from edges and
	//     tracker.
	//   - All remaining edges and shapes from the index cell are added to
	//     edges and tracker.
	//   - Continue subdividing recursively, creating new index cells as needed.
	//   - When the recursion gets back to the cell that was absorbed, we
	//     restore edges and tracker to their previous state.
	//
	// Note that the only reason that we include removed shapes in the recursive
	// subdivision process is so that we can find all of the index cells that
	// contain those shapes efficiently, without maintaining an explicit list of
	// index cells for each shape (which would be expensive in terms of memory).
	indexCellAbsorbed := false
	if !disjointFromIndex {
		// There may be existing index cells contained inside pcell. If we
		// encounter such a cell, we need to combine the edges being updated with
		// the existing cell contents by absorbing the cell.
		iter := newIterator(s)
		r := iter.LocateCellID(pcell.CellID())
		if r == Disjoint {
			disjointFromIndex = true
		} else if r == Indexed {
			// There is an index cell that is exactly equal to pcell or contains pcell.
			// Either way, we have to absorb the contents of the cell.
			edges = s.absorbIndexCell(pcell, iter, edges, t)
			indexCellAbsorbed = true
			disjointFromIndex = true
		}
	}

	// If there are existing index cells below us, then we need to keep
	// subdividing so that we can merge with those cells. Otherwise,
	// makeIndexCell checks if the number of edges is small enough, and creates
	// an index cell if possible (returning true when it does so).
	if !disjointFromIndex || !s.makeIndexCell(pcell, edges, t) {
		// There were too many edges so it was not possible to make a cell, so
		// the edges are propagated to the children (or, during incremental
		// updates, there are existing index cells below this one that must be
		// merged).
		var childEdges [2][2][]*clippedEdge // [i][j]

		// Compute the middle of the padded cell, defined as the rectangle in
		// (u,v)-space that belongs to all four (padded) children. By comparing
		// against the four boundaries of middle we can determine which children
		// each edge needs to be propagated to.
		middle := pcell.Middle()

		// Build up a vector of edges to be passed to each child cell.
		// The (i,j) directions are left (i=0), right (i=1), lower (j=0), and
		// upper (j=1). Note that the vast majority of edges are propagated to a
		// single child.
		for _, edge := range edges {
			if edge.bound.X.Hi <= middle.X.Lo {
				// Edge is entirely contained in the two left children.
				a, b := clipVAxis(edge, middle.Y)
				if a != nil {
					childEdges[0][0] = append(childEdges[0][0], a)
				}
				if b != nil {
					childEdges[0][1] = append(childEdges[0][1], b)
				}
			} else if edge.bound.X.Lo >= middle.X.Hi {
				// Edge is entirely contained in the two right children.
				a, b := clipVAxis(edge, middle.Y)
				if a != nil {
					childEdges[1][0] = append(childEdges[1][0], a)
				}
				if b != nil {
					childEdges[1][1] = append(childEdges[1][1], b)
				}
			} else if edge.bound.Y.Hi <= middle.Y.Lo {
				// Edge is entirely contained in the two lower children.
				if a := clipUBound(edge, 1, middle.X.Hi); a != nil {
					childEdges[0][0] = append(childEdges[0][0], a)
				}
				if b := clipUBound(edge, 0, middle.X.Lo); b != nil {
					childEdges[1][0] = append(childEdges[1][0], b)
				}
			} else if edge.bound.Y.Lo >= middle.Y.Hi {
				// Edge is entirely contained in the two upper children.
				if a := clipUBound(edge, 1, middle.X.Hi); a != nil {
					childEdges[0][1] = append(childEdges[0][1], a)
				}
				if b := clipUBound(edge, 0, middle.X.Lo); b != nil {
					childEdges[1][1] = append(childEdges[1][1], b)
				}
			} else {
				// The edges bounding box spans all four children. The edge
				// itself intersects either three or four padded children.
				left := clipUBound(edge, 1, middle.X.Hi)
				a, b := clipVAxis(left, middle.Y)
				if a != nil {
					childEdges[0][0] = append(childEdges[0][0], a)
				}
				if b != nil {
					childEdges[0][1] = append(childEdges[0][1], b)
				}
				right := clipUBound(edge, 0, middle.X.Lo)
				a, b = clipVAxis(right, middle.Y)
				if a != nil {
					childEdges[1][0] = append(childEdges[1][0], a)
				}
				if b != nil {
					childEdges[1][1] = append(childEdges[1][1], b)
				}
			}
		}

		// Now recursively update the edges in each child. We call the children in
		// increasing order of CellID so that when the index is first constructed,
		// all insertions into cellMap are at the end (which is much faster).
		for pos := 0; pos < 4; pos++ {
			i, j := pcell.ChildIJ(pos)
			if len(childEdges[i][j]) > 0 || !t.shapeIDs.IsEmpty() {
				s.updateEdges(cell.PaddedCellFromParentIJ(pcell, i, j), childEdges[i][j],
					t, disjointFromIndex)
			}
		}
	}

	if indexCellAbsorbed {
		// Restore the state for any edges being removed that we are tracking.
		t.restoreStateBefore(s.pendingAdditionsPos)
	}
}

// makeIndexCell builds an index cell from the given parameters and adds it to
// the index. If the cell has too many (short) edges and must be subdivided
// further, it returns false.
func (s *ShapeIndex) makeIndexCell(p *cell.PaddedCell, edges []*clippedEdge, t *interiorTracker) bool {
	// If the cell is empty, no index cell is needed. (In most cases empty cells
	// do not get to this point, but this can happen when the index is updated
	// incrementally.)
	if len(edges) == 0 && t.shapeIDs.IsEmpty() {
		return true
	}

	// Count the number of edges that have not reached their maximum level yet.
	// Return false if there are too many such edges.
	count := 0
	for _, ce := range edges {
		if p.Level() < ce.faceEdge.maxLevel {
			count++
		}

		if count > s.opts.MaxEdgesPerCell {
			return false
		}
	}

	// Shift the interior tracker focus point to the center of the current cell.
	if t.isActive && len(edges) != 0 {
		if !t.atCellID(p.CellID()) {
			t.moveTo(p.EntryVertex())
		}
		t.drawTo(p.Center())
		testAllEdges(edges, t)
	}

	// Allocate and fill a new index cell. To get the total number of shapes we
	// need to merge the shapes associated with the intersecting edges together
	// with the shapes that happen to contain the center of this cell.
	cshapeIDs := t.containedShapeIDs()
	numShapes := s.countShapes(edges, cshapeIDs)
	indexCell := NewCell(numShapes)

	// To fill the index cell we merge the two sources of shapes: edge shapes
	// (those that have at least one edge that intersects this cell), and
	// containing shapes (those that contain the cell center). We keep track
	// of the index of the next intersecting edge and the next containing shape
	// as we go along. Both sets of shape ids are already sorted.
	eNext := 0
	cNextIdx := 0
	for i := 0; i < numShapes; i++ {
		var clipped *ClippedShape
		// Advance to next value base + i
		eshapeID := s.nextID
		cshapeID := eshapeID // Sentinels

		if eNext != len(edges) {
			eshapeID = edges[eNext].faceEdge.shapeID
		}
		if cNextIdx < len(cshapeIDs) {
			cshapeID = int32(cshapeIDs[cNextIdx])
		}
		eBegin := eNext
		if cshapeID < eshapeID {
			// The entire cell is in the shape interior.
			clipped = newClippedShape(cshapeID, 0)
			clipped.containsCenter = true
			cNextIdx++
		} else {
			// Count the number of edges for this shape and allocate space for them.
			for eNext < len(edges) && edges[eNext].faceEdge.shapeID == eshapeID {
				eNext++
			}
			clipped = newClippedShape(eshapeID, eNext-eBegin)
			for e := eBegin; e < eNext; e++ {
				clipped.edges[e-eBegin] = edges[e].faceEdge.edgeID
			}
			if cshapeID == eshapeID {
				clipped.containsCenter = true
				cNextIdx++
			}
		}
		indexCell.add(clipped)
	}

	// Add this cell to the map.
	s.cellMap[p.CellID()] = indexCell

	// Shift the tracker focus point to the exit vertex of this cell.
	if t.isActive && len(edges) != 0 {
		t.drawTo(p.ExitVertex())
		testAllEdges(edges, t)
		t.setNextCellID(p.CellID().Next())
	}
	return true
}

// updateBound updates the specified endpoint of the given clipped edge and returns the
// resulting clipped edge.
func updateBound(edge *clippedEdge, uEnd int, u float64, vEnd int, v float64) *clippedEdge {
	c := &clippedEdge{faceEdge: edge.faceEdge}
	if uEnd == 0 {
		c.bound.X.Lo = u
		c.bound.X.Hi = edge.bound.X.Hi
	} else {
		c.bound.X.Lo = edge.bound.X.Lo
		c.bound.X.Hi = u
	}

	if vEnd == 0 {
		c.bound.Y.Lo = v
		c.bound.Y.Hi = edge.bound.Y.Hi
	} else {
		c.bound.Y.Lo = edge.bound.Y.Lo
		c.bound.Y.Hi = v
	}

	return c
}

// clipUBound clips the given endpoint (lo=0, hi=1) of the u-axis so that
// it does not extend past the given value of the given edge.
func clipUBound(edge *clippedEdge, uEnd int, u float64) *clippedEdge {
	// First check whether the edge actually requires any clipping. (Sometimes
	// this method is called when clipping is not necessary, e.g. when one edge
	// endpoint is in the overlap area between two padded child cells.)
	if uEnd == 0 {
		if edge.bound.X.Lo >= u {
			return edge
		}
	} else {
		if edge.bound.X.Hi <= u {
			return edge
		}
	}

	// We interpolate the new v-value from the endpoints of the original edge.
	// This has two advantages: (1) we don't need to store the clipped endpoints
	// at all, just their bounding box; and (2) it avoids the accumulation of
	// roundoff errors due to repeated interpolations. The result needs to be
	// clamped to ensure that it is in the appropriate range.
	mid := edgeclip.InterpolateFloat64(u, edge.faceEdge.a.X, edge.faceEdge.b.X, edge.faceEdge.a.Y, edge.faceEdge.b.Y)
	v := edge.bound.Y.ClampPoint(mid)

	// Determine which endpoint of the v-axis bound to update. If the edge
	// slope is positive we update the same endpoint, otherwise we update the
	// opposite endpoint.
	var vEnd int
	positiveSlope := (edge.faceEdge.a.X > edge.faceEdge.b.X) == (edge.faceEdge.a.Y > edge.faceEdge.b.Y)
	if (uEnd == 1) == positiveSlope {
		vEnd = 1
	}
	return updateBound(edge, uEnd, u, vEnd, v)
}

// clipVBound clips the given endpoint (lo=0, hi=1) of the v-axis so that
// it does not extend past the given value of the given edge.
func clipVBound(edge *clippedEdge, vEnd int, v float64) *clippedEdge {
	if vEnd == 0 {
		if edge.bound.Y.Lo >= v {
			return edge
		}
	} else {
		if edge.bound.Y.Hi <= v {
			return edge
		}
	}

	// We interpolate the new u-value from the endpoints of the original edge.
	mid := edgeclip.InterpolateFloat64(v, edge.faceEdge.a.Y, edge.faceEdge.b.Y, edge.faceEdge.a.X, edge.faceEdge.b.X)
	u := edge.bound.X.ClampPoint(mid)

	var uEnd int
	positiveSlope := (edge.faceEdge.a.X > edge.faceEdge.b.X) == (edge.faceEdge.a.Y > edge.faceEdge.b.Y)
	if (vEnd == 1) == positiveSlope {
		uEnd = 1
	}
	return updateBound(edge, uEnd, u, vEnd, v)
}

// clipVAxis returns the given edge clipped to within the boundaries of the
// middle interval along the v-axis, and adds the result to its children.
func clipVAxis(edge *clippedEdge, middle r1.Interval) (a, b *clippedEdge) {
	if edge.bound.Y.Hi <= middle.Lo {
		// Edge is entirely contained in the lower child.
		return edge, nil
	} else if edge.bound.Y.Lo >= middle.Hi {
		// Edge is entirely contained in the upper child.
		return nil, edge
	}
	return clipVBound(edge, 1, middle.Hi), clipVBound(edge, 0, middle.Lo)
}

// absorbIndexCell absorbs an index cell by transferring its contents to the
// edge list and/or the tracker, and then deletes this cell from the index.
// It returns the combined edge list. If edges includes any edges that are
// being removed, this method also updates their tracker state to correspond
// to the exit vertex of this cell.
func (s *ShapeIndex) absorbIndexCell(p *cell.PaddedCell, iter *Iterator, edges []*clippedEdge, t *interiorTracker) []*clippedEdge {
	// When we absorb a cell, we erase all the edges that are being removed.
	// However when we are finished with this cell, we want to restore the state
	// of those edges (since that is how we find all the index cells that need
	// to be updated). The edges themselves are restored automatically when
	// UpdateEdges returns from its recursive call, but the InteriorTracker
	// state needs to be restored explicitly.
	//
	// Here we first update the InteriorTracker state for removed edges to
	// correspond to the exit vertex of this cell, and then save the
	// InteriorTracker state. This state will be restored by UpdateEdges when
	// it is finished processing the contents of this cell.
	if t.isActive && len(edges) != 0 && s.isShapeBeingRemoved(edges[0].faceEdge.shapeID) {
		// We probably need to update the tracker. ("Probably" because
		// it's possible that all shapes being removed do not have interiors.)
		if !t.atCellID(p.CellID()) {
			t.moveTo(p.EntryVertex())
		}
		t.drawTo(p.ExitVertex())
		t.setNextCellID(p.CellID().Next())
		for _, edge := range edges {
			fe := edge.faceEdge
			if !s.isShapeBeingRemoved(fe.shapeID) {
				break // All shapes being removed come first.
			}
			if fe.hasInterior {
				t.testEdge(fe.shapeID, fe.edge)
			}
		}
	}

	// Save the state of the shapes being removed so that it can be restored when
	// we are finished processing this cell and its children. Below we not only
	// remove those edges but also add all the remaining edges of this index
	// cell.
	t.saveAndClearStateBefore(s.pendingAdditionsPos)

	// Create a faceEdge for each edge in this cell that isn't being removed.
	var faceEdges []*faceEdge
	trackerMoved := false

	indexCell := iter.IndexCell()
	for _, clipped := range indexCell.shapes {
		shapeID := clipped.shapeID
		shape := s.Shape(shapeID)
		if shape == nil {
			continue // This shape is being removed.
		}

		numClipped := clipped.NumEdges()

		// If this shape has an interior, start tracking whether we are inside the
		// shape. updateEdges wants to know whether the entry vertex of this
		// cell is inside the shape, but we only know whether the center of the
		// cell is inside the shape, so we need to test all the edges against the
		// line segment from the cell center to the entry vertex.
		edge := &faceEdge{
			shapeID:     shapeID,
			hasInterior: shape.Dimension() == 2,
		}

		if edge.hasInterior {
			t.addShape(shapeID, clipped.containsCenter)
			// There might not be any edges in this entire cell (i.e., it might be
			// in the interior of all shapes), so we delay updating the tracker
			// until we see the first edge.
			if !trackerMoved && numClipped > 0 {
				t.moveTo(p.Center())
				t.drawTo(p.EntryVertex())
				t.setNextCellID(p.CellID())
				trackerMoved = true
			}
		}
		for i := 0; i < numClipped; i++ {
			edgeID := clipped.edges[i]
			edge.edgeID = edgeID
			edge.edge = shape.Edge(edgeID)
			edge.maxLevel = maxLevelForEdge(edge.edge)
			if edge.hasInterior {
				t.testEdge(shapeID, edge.edge)
			}
			var ok bool
			edge.a, edge.b, ok = edgeclip.ClipToPaddedFace(edge.edge.V0, edge.edge.V1, p.CellID().Face(), cellPadding)
			if !ok {
				s.opts.Logger.Error("internal error: edge no longer clips to its index cell face",
					slog.String("cell", p.CellID().String()),
					slog.Int("shape", int(shapeID)),
					slog.Int("edge", edgeID),
				)
				continue
			}
			faceEdges = append(faceEdges, edge)
			edge = &faceEdge{
				shapeID:     shapeID,
				hasInterior: edge.hasInterior,
			}
		}
	}
	// Now create a clippedEdge for each faceEdge, and put them in "newEdges".
	var newEdges []*clippedEdge
	for _, faceEdge := range faceEdges {
		clipped := &clippedEdge{
			faceEdge: faceEdge,
			bound:    edgeclip.ClippedEdgeBound(faceEdge.a, faceEdge.b, p.Bound()),
		}
		newEdges = append(newEdges, clipped)
	}

	// Discard any edges from "edges" that are being removed, and append the
	// remainder to "newEdges" (This keeps the edges sorted by shape id.)
	for i, clipped := range edges {
		if !s.isShapeBeingRemoved(clipped.faceEdge.shapeID) {
			newEdges = append(newEdges, edges[i:]...)
			break
		}
	}

	// Delete this cell from the index and hand the combined edge list back to
	// the caller, which continues the subdivision with it.
	delete(s.cellMap, p.CellID())
	return newEdges
}

// testAllEdges calls the trackers testEdge on all edges from shapes that have
// interiors.
func testAllEdges(edges []*clippedEdge, t *interiorTracker) {
	for _, edge := range edges {
		if edge.faceEdge.hasInterior {
			t.testEdge(edge.faceEdge.shapeID, edge.faceEdge.edge)
		}
	}
}

// countShapes reports the number of distinct shapes that are either associated
// with the given edges, or that are currently stored in the interiorTracker.
func (s *ShapeIndex) countShapes(edges []*clippedEdge, shapeIDs []uint32) int {
	count := 0
	lastShapeID := int32(-1)

	// cNext is the next shapeID in the shapeIDs list.
	cNextIdx := 0
	for _, edge := range edges {
		if edge.faceEdge.shapeID == lastShapeID {
			continue
		}
		count++
		lastShapeID = edge.faceEdge.shapeID

		// Skip over any containing shapes up to and including this one,
		// updating count as appropriate.
		for ; cNextIdx < len(shapeIDs); cNextIdx++ {
			cNext := int32(shapeIDs[cNextIdx])
			if cNext > lastShapeID {
				break
			}
			if cNext < lastShapeID {
				count++
			}
		}
	}

	// Count any remaining containing shapes.
	count += len(shapeIDs) - cNextIdx
	return count
}

// maxLevelForEdge reports the maximum level for a given edge.
func maxLevelForEdge(edge Edge) int {
	// Compute the maximum cell size for which this edge is considered long.
	// The calculation does not need to be perfectly accurate, so we use Norm
	// rather than Angle for speed.
	cellSize := edge.V0.Sub(edge.V1.Vector).Norm() * cellSizeToLongEdgeRatio
	// Now return the first level encountered during subdivision where the
	// average cell size is at most cellSize.
	return cell.AvgEdgeMetric.MinLevel(cellSize)
}
