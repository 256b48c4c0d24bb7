package shapeindex

import (
	"sort"

	"github.com/hupe1980/cellgo/cell"
	"github.com/hupe1980/cellgo/predicate"
)

// Edge represents a geodesic edge consisting of two vertices. Zero-length
// edges are allowed, and can be used to represent points.
type Edge struct {
	V0, V1 cell.Point
}

// Cmp compares the two edges using the underlying Points Cmp method and
// returns
//
//	-1 if e <  other
//	 0 if e == other
//	+1 if e >  other
//
// The two edges are compared by first vertex, and then by the second vertex.
func (e Edge) Cmp(other Edge) int {
	if v0cmp := e.V0.Cmp(other.V0.Vector); v0cmp != 0 {
		return v0cmp
	}
	return e.V1.Cmp(other.V1.Vector)
}

// sortEdges sorts the slice of Edges in place.
func sortEdges(e []Edge) {
	sort.Sort(edges(e))
}

// edges implements the Sort interface for slices of Edge.
type edges []Edge

func (e edges) Len() int           { return len(e) }
func (e edges) Swap(i, j int)      { e[i], e[j] = e[j], e[i] }
func (e edges) Less(i, j int) bool { return e[i].Cmp(e[j]) == -1 }

// Chain represents a range of edge IDs corresponding to a chain of connected
// edges, specified as a (start, length) pair. The chain is defined to consist
// of edge IDs {start, start + 1, ..., start + length - 1}.
type Chain struct {
	Start, Length int
}

// ChainPosition represents the position of an edge within a given edge chain,
// specified as a (chainID, offset) pair.
type ChainPosition struct {
	ChainID, Offset int
}

// A ReferencePoint consists of a point and a boolean indicating whether the
// point is contained by a particular shape.
type ReferencePoint struct {
	Point     cell.Point
	Contained bool
}

// OriginReferencePoint returns a ReferencePoint with the origin point and the
// given value for contained.
func OriginReferencePoint(contained bool) ReferencePoint {
	return ReferencePoint{Point: cell.OriginPoint(), Contained: contained}
}

// Shape represents polygonal geometry in a flexible way. It is organized as a
// collection of edges that optionally defines an interior. All geometry
// represented by a given Shape must have the same dimension, which means that
// an Shape can represent either a set of points, a set of polylines, or a set
// of polygons.
//
// Shape is defined as an interface in order to give clients control over the
// underlying data representation. Sometimes an Shape does not have any data of
// its own, but instead wraps some other type.
//
// Shape operations are typically defined on a ShapeIndex rather than
// individual shapes. An ShapeIndex is simply a collection of Shapes,
// possibly of different dimensions (e.g. 10 points and 3 polygons), organized
// into a data structure for efficient edge access.
type Shape interface {
	// NumEdges returns the number of edges in this shape.
	NumEdges() int

	// Edge returns the edge for the given edge index.
	Edge(i int) Edge

	// ReferencePoint returns an arbitrary reference point for the shape. (The
	// containment boolean value must be false for shapes that do not have an
	// interior.)
	ReferencePoint() ReferencePoint

	// NumChains reports the number of contiguous edge chains in the shape.
	NumChains() int

	// Chain returns the i-th edge chain in the shape.
	Chain(chainID int) Chain

	// ChainEdge returns the j-th edge of the i-th edge chain.
	ChainEdge(chainID, offset int) Edge

	// ChainPosition finds the chain containing the given edge, and returns the
	// position of that edge as a ChainPosition(chainID, offset) pair.
	//
	//	shape.Chain(pos.chainID).start + pos.offset == edgeID
	//	shape.Chain(pos.chainID+1).start > edgeID
	//
	// where pos == shape.ChainPosition(edgeID).
	ChainPosition(edgeID int) ChainPosition

	// Dimension returns the dimension of the geometry represented by this shape,
	// either 0, 1 or 2:
	//
	//	0 - Point geometry. Each point is represented as a degenerate edge.
	//
	//	1 - Polyline geometry. Polyline edges may be degenerate. A shape may
	//	    represent any number of polylines. Polylines edges may intersect.
	//
	//	2 - Polygon geometry. Edges should be oriented such that the polygon
	//	    interior is always on the left. In theory the edges may be returned
	//	    in any order, but typically the edges are organized as a collection
	//	    of edge chains where each chain represents one polygon loop.
	//	    Polygons may have degeneracies (e.g., degenerate edges or sibling
	//	    pairs consisting of an edge and its corresponding reversed edge).
	//
	// This method allows degenerate geometry of different dimensions
	// to be distinguished, e.g. it allows a point to be distinguished from a
	// polyline or polygon that has been simplified to a single point.
	Dimension() int

	// IsEmpty reports whether the Shape contains no points. (Note that the full
	// polygon is represented as a chain with zero edges.)
	IsEmpty() bool

	// IsFull reports whether the Shape contains all points on the sphere.
	IsFull() bool
}

// defaultShapeIsEmpty reports whether this shape contains no points.
func defaultShapeIsEmpty(s Shape) bool {
	return s.NumEdges() == 0 && (s.Dimension() != 2 || s.NumChains() == 0)
}

// defaultShapeIsFull reports whether this shape contains all points on the sphere.
func defaultShapeIsFull(s Shape) bool {
	return s.NumEdges() == 0 && s.Dimension() == 2 && s.NumChains() > 0
}

// referencePointForShape is a helper function for implementing various Shapes
// ReferencePoint functions.
//
// Given a shape consisting of closed polygonal loops, the interior of the
// shape is defined as the region to the left of all edges (which must be
// oriented consistently). This function then chooses an arbitrary point and
// returns true if that point is contained by the shape.
//
// Unlike Loop and Polygon, this method allows duplicate vertices and
// edges, which requires some extra care with definitions. The rule that we
// apply is that an edge and its reverse edge cancel each other: the result
// is the same as if that edge pair were not present. Therefore shapes that
// consist only of degenerate loop(s) are either empty or full; by convention,
// the shape is considered full if and only if it contains an empty loop.
func referencePointForShape(shape Shape) ReferencePoint {
	if shape.NumEdges() == 0 {
		// A shape with no edges is defined to be full if and only if it
		// contains at least one chain.
		return OriginReferencePoint(shape.NumChains() > 0)
	}

	// Define a "matched" edge as one that can be paired with a corresponding
	// reversed edge. Matched edges can be ignored for the purposes of point
	// containment, since the turns they contribute cancel out. So we look for
	// a vertex with an unbalanced set of incident edges.
	edge := shape.Edge(0)

	if ref, ok := referencePointAtVertex(shape, edge.V0); ok {
		return ref
	}
	if ref, ok := referencePointAtVertex(shape, edge.V1); ok {
		return ref
	}

	// Any shape that does not have an unbalanced vertex is either empty or
	// full. In the usual case we can determine this by checking whether the
	// shape contains an arbitrary non-vertex point.
	m := make(map[cell.Point]bool, 2*shape.NumEdges())
	for e := 0; e < shape.NumEdges(); e++ {
		edge := shape.Edge(e)
		m[edge.V0] = true
		m[edge.V1] = true
	}
	for p := range m {
		if ref, ok := referencePointAtVertex(shape, p); ok {
			return ref
		}
	}

	// All vertices are balanced, so this polygon is either empty or full. By
	// convention it is defined to be full if it contains any chain with no
	// edges.
	for i := 0; i < shape.NumChains(); i++ {
		if shape.Chain(i).Length == 0 {
			return OriginReferencePoint(true)
		}
	}
	return OriginReferencePoint(false)
}

// referencePointAtVertex reports whether the given vertex is unbalanced, and
// if so, returns a ReferencePoint indicating if the vertex is contained.
func referencePointAtVertex(shape Shape, vTest cell.Point) (ReferencePoint, bool) {
	var ref ReferencePoint

	// Let P be an unbalanced vertex. Vertex P is defined to be inside the
	// region if the region contains a particular direction vector starting
	// from P, namely the direction p.Ortho(). This can be calculated using
	// ContainsVertexQuery.

	containsQuery := NewContainsVertexQuery(vTest)
	n := shape.NumEdges()
	for e := 0; e < n; e++ {
		edge := shape.Edge(e)
		if edge.V0 == vTest {
			containsQuery.AddEdge(edge.V1, 1)
		}
		if edge.V1 == vTest {
			containsQuery.AddEdge(edge.V0, -1)
		}
	}

	containsSign := containsQuery.ContainsVertex()
	if containsSign == 0 {
		return ref, false
	}

	ref.Point = vTest
	ref.Contained = containsSign > 0

	return ref, true
}

// ContainsVertexQuery is used to track the edges entering and leaving the
// given vertex of a polygon in order to be able to determine if the point is
// contained by the shape.
//
// Point containment is defined according to the semi-open boundary model,
// which means that if several polygons tile the region around a vertex,
// then exactly one of those polygons contains that vertex.
type ContainsVertexQuery struct {
	target  cell.Point
	edgeMap map[cell.Point]int
}

// NewContainsVertexQuery returns a new query for the given vertex whose
// containment will be determined.
func NewContainsVertexQuery(target cell.Point) *ContainsVertexQuery {
	return &ContainsVertexQuery{
		target:  target,
		edgeMap: make(map[cell.Point]int),
	}
}

// AddEdge adds the edge between target and v with the given direction.
// (+1 = outgoing, -1 = incoming, 0 = degenerate).
func (q *ContainsVertexQuery) AddEdge(v cell.Point, direction int) {
	q.edgeMap[v] += direction
}

// ContainsVertex reports a +1 if the target vertex is contained, -1 if it is
// not contained, and 0 if the incident edges consisted of matched sibling
// pairs only.
func (q *ContainsVertexQuery) ContainsVertex() int {
	// Find the unmatched edge that is immediately clockwise from Ortho(P).
	referenceDir := cell.Point{Vector: q.target.Ortho()}

	bestPoint := referenceDir
	bestDir := 0

	for k, v := range q.edgeMap {
		if v == 0 {
			continue // This is a "matched" edge.
		}
		if cell.OrderedCCW(referenceDir, bestPoint, k, q.target) {
			bestPoint = k
			bestDir = v
		}
	}
	return bestDir
}

// containsBruteForce reports whether the given shape contains the given
// point. Most clients should not use this method, since its running time is
// linear in the number of shape edges. It is still useful as a brute force
// check and in verification.
func containsBruteForce(shape Shape, point cell.Point) bool {
	if shape.Dimension() != 2 {
		return false
	}

	refPoint := shape.ReferencePoint()
	if refPoint.Point == point {
		return refPoint.Contained
	}

	crosser := predicate.NewEdgeCrosser(refPoint.Point, point)
	inside := refPoint.Contained
	for e := 0; e < shape.NumEdges(); e++ {
		edge := shape.Edge(e)
		inside = inside != crosser.EdgeOrVertexCrossing(edge.V0, edge.V1)
	}
	return inside
}
