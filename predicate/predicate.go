// Package predicate provides sign and edge-crossing tests for edges on the
// unit sphere. The tests use plain floating-point arithmetic rather than
// exact or symbolically-perturbed evaluation; they are deterministic and
// conservative for the non-degenerate geometry handled by this module.
package predicate

import (
	"github.com/hupe1980/cellgo/cell"
)

// Crossing indicates how edges cross.
type Crossing int

const (
	// Cross means the edges cross at a point interior to both.
	Cross Crossing = iota
	// MaybeCross means two vertices from different edges are the same.
	MaybeCross
	// DoNotCross means the edges do not cross.
	DoNotCross
)

// CrossingSign reports whether the edge AB intersects the edge CD.
//
// If AB crosses CD at a point that is interior to both edges, Cross is
// returned. If any two vertices from different edges are the same it
// returns MaybeCross. Otherwise it returns DoNotCross.
//
// Properties of CrossingSign:
//
//	(1) CrossingSign(b,a,c,d) == CrossingSign(a,b,c,d)
//	(2) CrossingSign(c,d,a,b) == CrossingSign(a,b,c,d)
//	(3) CrossingSign(a,b,c,d) == MaybeCross if a==c, a==d, b==c, b==d
//	(3) CrossingSign(a,b,c,d) == DoNotCross or MaybeCross if a==b or c==d
func CrossingSign(a, b, c, d cell.Point) Crossing {
	crosser := NewChainEdgeCrosser(a, b, c)
	return crosser.ChainCrossingSign(d)
}

// VertexCrossing reports whether two edges "cross" in such a way that
// point-in-polygon containment tests can be implemented by counting the
// number of edge crossings.
//
// Given two edges AB and CD where at least two vertices are identical
// (i.e. CrossingSign(a,b,c,d) == MaybeCross), the basic rule is that a
// "crossing" occurs if AB is encountered after CD during a CCW sweep around
// the shared vertex starting from a fixed reference point.
//
// Note that according to this rule, if AB crosses CD then in general CD does
// not cross AB. However, this leads to the correct result when counting
// polygon edge crossings.
func VertexCrossing(a, b, c, d cell.Point) bool {
	// If A == B or C == D there is no intersection. We need to check this
	// case first in case 3 or more input points are identical.
	if a == b || c == d {
		return false
	}

	// If any other pair of vertices is equal, there is a crossing if and only
	// if OrderedCCW indicates that the edge AB is further CCW around the
	// shared vertex O (either A or B) than the edge CD, starting from an
	// arbitrary fixed reference point.
	switch {
	case a == d:
		return cell.OrderedCCW(cell.Point{Vector: a.Ortho()}, c, b, a)
	case b == c:
		return cell.OrderedCCW(cell.Point{Vector: b.Ortho()}, d, a, b)
	case a == c:
		return cell.OrderedCCW(cell.Point{Vector: a.Ortho()}, d, b, a)
	case b == d:
		return cell.OrderedCCW(cell.Point{Vector: b.Ortho()}, c, a, b)
	}

	return false
}

// EdgeOrVertexCrossing is a convenience function that calls CrossingSign to
// handle cases where all four vertices are distinct, and VertexCrossing to
// handle cases where two or more vertices are the same. This defines a
// crossing function such that point-in-polygon containment tests can be
// implemented by simply counting edge crossings.
func EdgeOrVertexCrossing(a, b, c, d cell.Point) bool {
	switch CrossingSign(a, b, c, d) {
	case DoNotCross:
		return false
	case Cross:
		return true
	default:
		return VertexCrossing(a, b, c, d)
	}
}

// EdgeCrosser allows edges to be efficiently tested for intersection with a
// given fixed edge AB. It is especially efficient when testing for
// intersection with an edge chain connecting vertices v0, v1, v2, ...
type EdgeCrosser struct {
	a   cell.Point
	b   cell.Point
	aXb cell.Point

	// State for CrossingSign(c, d)
	c   cell.Point // Previous vertex in the vertex chain.
	acb int        // The orientation of triangle ACB.
}

// NewEdgeCrosser returns an EdgeCrosser with the fixed edge AB.
func NewEdgeCrosser(a, b cell.Point) *EdgeCrosser {
	return &EdgeCrosser{
		a:   a,
		b:   b,
		aXb: cell.Point{Vector: a.Cross(b.Vector)},
	}
}

// NewChainEdgeCrosser is a convenience constructor that uses AB as the fixed
// edge and C as the first vertex of the vertex chain (equivalent to calling
// NewEdgeCrosser followed by RestartAt).
func NewChainEdgeCrosser(a, b, c cell.Point) *EdgeCrosser {
	e := NewEdgeCrosser(a, b)
	e.RestartAt(c)
	return e
}

// RestartAt sets the first vertex of the vertex chain to be c.
func (e *EdgeCrosser) RestartAt(c cell.Point) {
	e.c = c
	e.acb = -cell.SignValue(e.a, e.b, e.c)
}

// CrossingSign reports whether the edge AB intersects the edge CD. If any
// two vertices from different edges are the same, returns MaybeCross. If
// either edge is degenerate (A == B or C == D), returns either DoNotCross
// or MaybeCross.
//
// Properties are the same as the package-level CrossingSign.
func (e *EdgeCrosser) CrossingSign(c, d cell.Point) Crossing {
	if c != e.c {
		e.RestartAt(c)
	}
	return e.ChainCrossingSign(d)
}

// EdgeOrVertexCrossing reports whether if CrossingSign(c, d) > 0, or AB and
// CD share a vertex and VertexCrossing(a, b, c, d) is true.
//
// This method extends the concept of a "crossing" to the case where AB and
// CD have a vertex in common. The two edges may or may not cross, according
// to the rules defined in VertexCrossing above.
func (e *EdgeCrosser) EdgeOrVertexCrossing(c, d cell.Point) bool {
	// We need to copy e.c since it is clobbered by ChainCrossingSign.
	origC := e.c

	switch e.CrossingSign(c, d) {
	case DoNotCross:
		return false
	case Cross:
		return true
	}
	return VertexCrossing(e.a, e.b, origC, d)
}

// ChainCrossingSign is like CrossingSign, but uses the last vertex passed to
// one of the crossing methods (or RestartAt) as the first vertex of the
// current edge.
func (e *EdgeCrosser) ChainCrossingSign(d cell.Point) Crossing {
	// For there to be an edge crossing, the triangles ACB, CBD, BDA, DAC must
	// all be oriented the same way (CW or CCW). We keep the orientation of ACB
	// as part of our state. When each new point D arrives, we compute the
	// orientation of BDA and check whether it matches ACB. This checks whether
	// the points C and D are on opposite sides of the great circle through AB.
	bda := cell.SignValue(e.a, e.b, d)
	if e.acb == -bda && bda != 0 {
		// The most common case: triangles have opposite orientations. Save the
		// current vertex D as the next vertex C, and also save the orientation
		// of the new triangle ACB (which is opposite to the current triangle BDA).
		e.c = d
		e.acb = -bda
		return DoNotCross
	}
	return e.crossingSign(d, bda)
}

// crossingSign handles the slow path of ChainCrossingSign.
func (e *EdgeCrosser) crossingSign(d cell.Point, bda int) Crossing {
	// At this point, a very common situation is that A,B,C,D are four points
	// on a line such that AB does not overlap CD. (For example, this happens
	// when a line or curve is sampled finely, or when geometry is constructed
	// by computing the union of S2CellIds.) Most of the time, we can determine
	// that AB and CD do not intersect using the two outward-facing
	// tangents at A and B (parallel to AB) and testing whether AB and CD are on
	// opposite sides of the plane through these tangents.
	c := e.c
	defer func() {
		e.c = d
		e.acb = -bda
	}()

	// Shared vertices produce a MaybeCross result.
	if e.a == c || e.a == d || e.b == c || e.b == d {
		return MaybeCross
	}

	// Degenerate edges do not cross anything.
	if e.a == e.b || c == d {
		return DoNotCross
	}

	// C and D must be on opposite sides of the great circle AB.
	acb := -cell.SignValue(e.a, e.b, c)
	if acb != bda || acb == 0 {
		return DoNotCross
	}

	// A and B must be on opposite sides of the great circle CD, with the same
	// relative orientation as C and D around AB.
	cbd := -cell.SignValue(c, d, e.b)
	if cbd != acb {
		return DoNotCross
	}
	dac := cell.SignValue(c, d, e.a)
	if dac != acb {
		return DoNotCross
	}
	return Cross
}
