package cell

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// MaxSiTi is the maximum value of an si- or ti-coordinate. It is one shift
// more than MaxSize to allow cell centers to be exactly representable.
const MaxSiTi = MaxSize << 1

// STToUV converts an s- or t-value to the corresponding u- or v-value.
// This is a non-linear transformation from [0,1] to [-1,1] that attempts
// to make the cells at each level have roughly the same area. The quadratic
// transform used here is faster than the tangent projection and produces
// cells whose maximum aspect ratio stays below 1.5.
func STToUV(s float64) float64 {
	if s >= 0.5 {
		return (1 / 3.) * (4*s*s - 1)
	}
	return (1 / 3.) * (1 - 4*(1-s)*(1-s))
}

// UVToST is the inverse of STToUV. Note that it is not always true that
// UVToST(STToUV(x)) == x due to numerical errors.
func UVToST(u float64) float64 {
	if u >= 0 {
		return 0.5 * math.Sqrt(1+3*u)
	}
	return 1 - 0.5*math.Sqrt(1-3*u)
}

// IJToSTMin converts the i- or j-index of a leaf cell to the minimum
// corresponding s- or t-value contained by that cell. The argument must be
// in the range [0..2**30], i.e. up to one position beyond the normal range
// of valid leaf cell indices.
func IJToSTMin(i int) float64 {
	return float64(i) / float64(MaxSize)
}

// STToIJ converts a value in ST coordinates to a value in IJ coordinates.
func STToIJ(s float64) int {
	return clampInt(int(math.Floor(float64(MaxSize)*s)), 0, MaxSize-1)
}

// SiTiToST converts an si- or ti-value to the corresponding s- or t-value.
func SiTiToST(si uint64) float64 {
	if si > MaxSiTi {
		return 1
	}
	return float64(si) / float64(MaxSiTi)
}

// STToSiTi converts the s- or t-value to the nearest si- or ti-coordinate.
// The result may be outside the range of valid (si,ti)-values.
func STToSiTi(s float64) uint64 {
	if s < 0 {
		return uint64(MaxSiTi*s - 0.5)
	}
	return uint64(MaxSiTi*s + 0.5)
}

// faceSiTiToXYZ transforms the (si, ti) coordinates to a (not necessarily
// unit length) Point on the given face.
func faceSiTiToXYZ(face int, si, ti uint64) r3.Vector {
	return FaceUVToXYZ(face, STToUV(SiTiToST(si)), STToUV(SiTiToST(ti)))
}

// FaceForPoint returns the ID of the face containing the given direction
// vector. For points on the boundary between faces, the result is arbitrary
// but deterministic.
func FaceForPoint(r r3.Vector) int {
	f := r.LargestComponent()
	switch {
	case f == r3.XAxis && r.X < 0:
		f += 3
	case f == r3.YAxis && r.Y < 0:
		f += 3
	case f == r3.ZAxis && r.Z < 0:
		f += 3
	}
	return int(f)
}

// FaceUVToXYZ turns face and UV coordinates into an unnormalized 3 vector.
func FaceUVToXYZ(face int, u, v float64) r3.Vector {
	switch face {
	case 0:
		return r3.Vector{X: 1, Y: u, Z: v}
	case 1:
		return r3.Vector{X: -u, Y: 1, Z: v}
	case 2:
		return r3.Vector{X: -u, Y: -v, Z: 1}
	case 3:
		return r3.Vector{X: -1, Y: -v, Z: -u}
	case 4:
		return r3.Vector{X: v, Y: -1, Z: -u}
	default:
		return r3.Vector{X: v, Y: u, Z: -1}
	}
}

// FaceXYZToUV returns the u and v values (which may lie outside the range
// [-1,1]) if the dot product of the point p with the given face normal is
// positive.
func FaceXYZToUV(face int, p Point) (u, v float64, ok bool) {
	switch face {
	case 0:
		if p.X <= 0 {
			return 0, 0, false
		}
	case 1:
		if p.Y <= 0 {
			return 0, 0, false
		}
	case 2:
		if p.Z <= 0 {
			return 0, 0, false
		}
	case 3:
		if p.X >= 0 {
			return 0, 0, false
		}
	case 4:
		if p.Y >= 0 {
			return 0, 0, false
		}
	default:
		if p.Z >= 0 {
			return 0, 0, false
		}
	}
	u, v = ValidFaceXYZToUV(face, p.Vector)
	return u, v, true
}

// ValidFaceXYZToUV given a valid face for the given point (meaning that the
// dot product of the point and the face normal is positive), returns the
// corresponding u and v values, which may lie outside the range [-1,1].
func ValidFaceXYZToUV(face int, r r3.Vector) (float64, float64) {
	switch face {
	case 0:
		return r.Y / r.X, r.Z / r.X
	case 1:
		return -r.X / r.Y, r.Z / r.Y
	case 2:
		return -r.X / r.Z, -r.Y / r.Z
	case 3:
		return r.Z / r.X, r.Y / r.X
	case 4:
		return r.Z / r.Y, -r.X / r.Y
	}
	return -r.Y / r.Z, -r.X / r.Z
}

// XYZToFaceUV converts a direction vector (not necessarily unit length) to
// (face, u, v) coordinates.
func XYZToFaceUV(r r3.Vector) (f int, u, v float64) {
	f = FaceForPoint(r)
	u, v = ValidFaceXYZToUV(f, r)
	return f, u, v
}

// FaceXYZtoUVW transforms the given point P to the (u,v,w) coordinate frame
// of the given face where the w-axis represents the face normal.
func FaceXYZtoUVW(face int, p Point) Point {
	// The result coordinates are simply the dot products of P with the (u,v,w)
	// axes for the given face.
	switch face {
	case 0:
		return Point{r3.Vector{X: p.Y, Y: p.Z, Z: p.X}}
	case 1:
		return Point{r3.Vector{X: -p.X, Y: p.Z, Z: p.Y}}
	case 2:
		return Point{r3.Vector{X: -p.X, Y: -p.Y, Z: p.Z}}
	case 3:
		return Point{r3.Vector{X: -p.Z, Y: -p.Y, Z: -p.X}}
	case 4:
		return Point{r3.Vector{X: -p.Z, Y: p.X, Z: -p.Y}}
	default:
		return Point{r3.Vector{X: p.Y, Y: p.X, Z: -p.Z}}
	}
}

// SizeIJ returns the edge length of cells at the given level in (i,j)-space.
func SizeIJ(level int) int {
	return 1 << uint(MaxLevel-level)
}

// IJLevelToBoundUV returns the bound in (u,v)-space for the cell at the given
// level containing the leaf cell with the given (i,j)-coordinates.
func IJLevelToBoundUV(i, j, level int) r2.Rect {
	cellSize := SizeIJ(level)
	xLo := i & -cellSize
	yLo := j & -cellSize

	return r2.Rect{
		X: r1.Interval{Lo: STToUV(IJToSTMin(xLo)), Hi: STToUV(IJToSTMin(xLo + cellSize))},
		Y: r1.Interval{Lo: STToUV(IJToSTMin(yLo)), Hi: STToUV(IJToSTMin(yLo + cellSize))},
	}
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
