package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/golang/geo/s1"

	"github.com/hupe1980/cellgo/cell"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Float64Range returns a pseudo-random number in [min,max).
func (r *RNG) Float64Range(min, max float64) float64 {
	return min + (max-min)*r.Float64()
}

// SkewedInt returns a number in [0, 2^maxLog-1] with bias toward smaller
// numbers. Useful for exercising both tiny and huge values of a parameter.
func (r *RNG) SkewedInt(maxLog int) int {
	base := r.Intn(maxLog + 1)
	return int(r.Uint64() & ((1 << uint(base)) - 1))
}

// Point returns a random unit-length point, approximately uniformly
// distributed over the sphere.
func (r *RNG) Point() cell.Point {
	return cell.PointFromCoords(
		r.Float64Range(-1, 1),
		r.Float64Range(-1, 1),
		r.Float64Range(-1, 1),
	)
}

// CellIDForLevel returns a random cell ID at the given level. The
// distribution is uniform over the space of cell IDs, but only
// approximately uniform over the surface of the sphere.
func (r *RNG) CellIDForLevel(level int) cell.ID {
	face := r.Intn(cell.NumFaces)
	pos := r.Uint64() & uint64((1<<cell.PosBits)-1)
	return cell.FromFacePosLevel(face, pos, level)
}

// CellID returns a random cell ID at a randomly chosen level.
func (r *RNG) CellID() cell.ID {
	return r.CellIDForLevel(r.Intn(cell.MaxLevel + 1))
}

// CellUnion returns a random normalized cell union with approximately
// the given number of cells.
func (r *RNG) CellUnion(n int) cell.Union {
	var u cell.Union
	for len(u) < n {
		u = append(u, r.CellID())
	}
	u.Normalize()
	return u
}

// RegularPoints generates numVertices vertices of a regular polygon
// inscribed in the circle of the given angular radius around the center.
// The vertices are returned in counterclockwise order when viewed from
// outside the sphere.
func RegularPoints(center cell.Point, radius s1.Angle, numVertices int) []cell.Point {
	// Construct a right-handed orthonormal frame with z = center.
	z := center.Vector
	x := z.Ortho()
	y := z.Cross(x)

	// Compute the planar radius and height of the circle of the given
	// angular radius around z.
	planarRadius := math.Sin(radius.Radians())
	height := math.Cos(radius.Radians())

	pts := make([]cell.Point, numVertices)
	radianStep := 2 * math.Pi / float64(numVertices)
	for i := range pts {
		angle := float64(i) * radianStep
		p := x.Mul(planarRadius * math.Cos(angle)).
			Add(y.Mul(planarRadius * math.Sin(angle))).
			Add(z.Mul(height))
		pts[i] = cell.Point{Vector: p.Normalize()}
	}
	return pts
}

// PointsApproxEqual reports whether the two points are within the given
// angular distance of each other.
func PointsApproxEqual(a, b cell.Point, epsilon float64) bool {
	return float64(a.Angle(b)) <= epsilon
}

