package shapeindex

import (
	"github.com/hupe1980/cellgo/cell"
)

// PointVector is a Shape representing a set of Points. Each point is
// represented as a degenerate edge with the same starting and ending
// vertices.
//
// This type is useful for adding a collection of points to a ShapeIndex.
//
// Its methods are on *PointVector due to the larger size of the type.
type PointVector []cell.Point

// Compile-time interface checks.
var (
	_ Shape = (*PointVector)(nil)
	_ Shape = (*EdgeVectorShape)(nil)
	_ Shape = (*LaxLoop)(nil)
)

func (p *PointVector) NumEdges() int                     { return len(*p) }
func (p *PointVector) Edge(i int) Edge                   { return Edge{(*p)[i], (*p)[i]} }
func (p *PointVector) ReferencePoint() ReferencePoint    { return OriginReferencePoint(false) }
func (p *PointVector) NumChains() int                    { return len(*p) }
func (p *PointVector) Chain(i int) Chain                 { return Chain{i, 1} }
func (p *PointVector) ChainEdge(i, j int) Edge           { return Edge{(*p)[i], (*p)[i]} }
func (p *PointVector) ChainPosition(e int) ChainPosition { return ChainPosition{e, 0} }
func (p *PointVector) Dimension() int                    { return 0 }
func (p *PointVector) IsEmpty() bool                     { return defaultShapeIsEmpty(p) }
func (p *PointVector) IsFull() bool                      { return defaultShapeIsFull(p) }

// EdgeVectorShape is a Shape representing an arbitrary set of edges. It is
// used for testing, but it can also be useful if you have, say, a collection
// of polylines and don't care about memory efficiency (since this type would
// store most of the vertices twice).
type EdgeVectorShape struct {
	edges []Edge
}

// EdgeVectorShapeFromPoints returns an EdgeVectorShape of length 1 from the
// given points.
func EdgeVectorShapeFromPoints(a, b cell.Point) *EdgeVectorShape {
	e := &EdgeVectorShape{
		edges: []Edge{{a, b}},
	}
	return e
}

// Add adds the given edge to the shape.
func (e *EdgeVectorShape) Add(a, b cell.Point) {
	e.edges = append(e.edges, Edge{a, b})
}

func (e *EdgeVectorShape) NumEdges() int                     { return len(e.edges) }
func (e *EdgeVectorShape) Edge(id int) Edge                  { return e.edges[id] }
func (e *EdgeVectorShape) ReferencePoint() ReferencePoint    { return OriginReferencePoint(false) }
func (e *EdgeVectorShape) NumChains() int                    { return len(e.edges) }
func (e *EdgeVectorShape) Chain(chainID int) Chain           { return Chain{chainID, 1} }
func (e *EdgeVectorShape) ChainEdge(chainID, offset int) Edge {
	return e.edges[chainID]
}
func (e *EdgeVectorShape) ChainPosition(edgeID int) ChainPosition {
	return ChainPosition{edgeID, 0}
}
func (e *EdgeVectorShape) Dimension() int { return 1 }
func (e *EdgeVectorShape) IsEmpty() bool  { return defaultShapeIsEmpty(e) }
func (e *EdgeVectorShape) IsFull() bool   { return defaultShapeIsFull(e) }

// LaxLoop represents a closed loop of edges surrounding an interior
// region. It is similar to a traditional polygon loop, except that
// degeneracies are supported: the loop may contain duplicate vertices, and
// adjacent vertices may be identical.
//
// Loops must have at least three vertices to define an interior (although
// loops with fewer vertices can be used to represent degenerate geometry).
// The loop interior is on the left of each edge, so a loop whose vertices
// run counterclockwise around a region encloses that region.
type LaxLoop struct {
	numVertices int
	vertices    []cell.Point
}

// LaxLoopFromPoints creates a LaxLoop from the given points.
func LaxLoopFromPoints(vertices []cell.Point) *LaxLoop {
	l := &LaxLoop{
		numVertices: len(vertices),
		vertices:    make([]cell.Point, len(vertices)),
	}
	copy(l.vertices, vertices)
	return l
}

// Vertex returns the vertex for the given index.
func (l *LaxLoop) Vertex(i int) cell.Point { return l.vertices[i] }

func (l *LaxLoop) NumEdges() int { return l.numVertices }
func (l *LaxLoop) Edge(e int) Edge {
	e1 := e + 1
	if e1 == l.numVertices {
		e1 = 0
	}
	return Edge{l.vertices[e], l.vertices[e1]}
}
func (l *LaxLoop) Dimension() int                 { return 2 }
func (l *LaxLoop) ReferencePoint() ReferencePoint { return referencePointForShape(l) }
func (l *LaxLoop) NumChains() int {
	if l.numVertices == 0 {
		return 0
	}
	return 1
}
func (l *LaxLoop) Chain(i int) Chain { return Chain{0, l.numVertices} }
func (l *LaxLoop) ChainEdge(i, j int) Edge {
	var k int
	if j+1 != l.numVertices {
		k = j + 1
	}
	return Edge{l.vertices[j], l.vertices[k]}
}
func (l *LaxLoop) ChainPosition(e int) ChainPosition { return ChainPosition{0, e} }
func (l *LaxLoop) IsEmpty() bool                     { return defaultShapeIsEmpty(l) }
func (l *LaxLoop) IsFull() bool                      { return defaultShapeIsFull(l) }
