package cell

import (
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
)

// Point represents a point on the unit sphere as a normalized 3D vector.
// Fields should be treated as read-only; use one of the constructors to
// create new values.
type Point struct {
	r3.Vector
}

// PointFromCoords creates a new normalized point from coordinates.
//
// This always returns a valid point. If the given coordinates can not be
// normalized the origin point will be returned.
func PointFromCoords(x, y, z float64) Point {
	if x == 0 && y == 0 && z == 0 {
		return OriginPoint()
	}
	return Point{r3.Vector{X: x, Y: y, Z: z}.Normalize()}
}

// OriginPoint returns a unique "origin" on the sphere for operations that
// need a fixed reference point. In particular, this is the "point at
// infinity" used for point-in-polygon testing.
//
// It should *not* be a point that is commonly used in edge tests in order
// to avoid triggering code to handle degenerate cases (this rules out the
// north and south poles). It should also not be on the boundary of any
// low-level cell for the same reason.
func OriginPoint() Point {
	return Point{r3.Vector{X: -0.0099994664350250197, Y: 0.0025924542609324121, Z: 0.99994664350250195}}
}

// PointCross returns a Point that is orthogonal to both p and op. This is
// similar to p.Cross(op) (the true cross product) except that it does a
// better job of ensuring orthogonality when the Point is nearly parallel
// to op, it returns a non-zero result even when p == op or p == -op and
// the result is a Point.
//
// It satisfies the following properties (f == PointCross):
//
//	(1) f(p, op) != 0 for all p, op
//	(2) f(op,p) == -f(p,op) unless p == op or p == -op
//	(3) f(-p,op) == -f(p,op) unless p == op or p == -op
//	(4) f(p,-op) == -f(p,op) unless p == op or p == -op
func (p Point) PointCross(op Point) Point {
	v := p.Add(op.Vector).Cross(op.Sub(p.Vector))

	// Compare exactly to the 0 vector.
	if v == (r3.Vector{}) {
		// The only result that makes sense mathematically is to return zero, but
		// we find it more convenient to return an arbitrary orthogonal vector.
		return Point{p.Ortho()}
	}

	return Point{v}
}

// Angle returns the angle between p and op.
func (p Point) Angle(op Point) s1.Angle {
	return p.Vector.Angle(op.Vector)
}

// Sign returns true if the points A, B, C are strictly counterclockwise,
// and returns false if the points are clockwise or collinear (i.e. if they
// are all contained on some great circle).
//
// Due to numerical errors, situations may arise that are mathematically
// impossible, e.g. ABC may be considered strictly CCW while BCA is not.
// This implementation uses a plain floating-point determinant without the
// exact-arithmetic fallback of a fully robust predicate, which is
// sufficient for the non-degenerate inputs handled by this package.
func Sign(a, b, c Point) bool {
	// We compute the signed volume of the parallelepiped ABC. The usual
	// formula for this is (A ⨯ B) · C.
	return b.Cross(c.Vector).Dot(a.Vector) > 0
}

// SignValue returns a number indicating the ordering of the points:
// +1 if they are counterclockwise, -1 if they are clockwise, and 0 if any
// two points are identical or the determinant is exactly zero.
func SignValue(a, b, c Point) int {
	if a == b || b == c || c == a {
		return 0
	}
	det := b.Cross(c.Vector).Dot(a.Vector)
	switch {
	case det > 0:
		return 1
	case det < 0:
		return -1
	}
	return 0
}

// OrderedCCW returns true if the edges OA, OB, and OC are encountered in
// that order while sweeping CCW around the point O.
//
// You can think of this as testing whether A <= B <= C with respect to the
// CCW ordering around O that starts at A, or equivalently, whether B is
// contained in the range of angles (inclusive) that starts at A and extends
// counterclockwise to C.
//
// Properties:
//
//	(1) If OrderedCCW(a,b,c,o) && OrderedCCW(b,a,c,o), then a == b
//	(2) If OrderedCCW(a,b,c,o) && OrderedCCW(a,c,b,o), then b == c
//	(3) If OrderedCCW(a,b,c,o) && OrderedCCW(c,b,a,o), then a == b == c
//	(4) If a == b or b == c, then OrderedCCW(a,b,c,o) is true
//	(5) Otherwise if a == c, then OrderedCCW(a,b,c,o) is false
func OrderedCCW(a, b, c, o Point) bool {
	sum := 0
	if SignValue(b, o, a) >= 0 {
		sum++
	}
	if SignValue(c, o, b) >= 0 {
		sum++
	}
	if SignValue(a, o, c) > 0 {
		sum++
	}
	return sum >= 2
}
