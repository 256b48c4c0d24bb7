package cell

import "math"

// A Metric is a measure for cells. It is used to describe the shape and size
// of cells: they vary in both area and aspect ratio as a function of level
// and position within a face.
type Metric struct {
	// Dim is either 1 or 2, for a 1D or 2D metric respectively.
	Dim int
	// Deriv is the scaling factor for the metric.
	Deriv float64
}

// Defined metrics, based on the quadratic projection used by STToUV.
// The minimum and maximum values apply over all cells at a level; the
// average is approximate.
var (
	// MinWidthMetric is a lower bound on the width of a cell at any level.
	MinWidthMetric = Metric{1, 2 * math.Sqrt2 / 3}
	// AvgWidthMetric is the average width of cells at any level.
	AvgWidthMetric = Metric{1, 1.434523672886099389}
	// MaxWidthMetric is an upper bound on the width of a cell at any level.
	MaxWidthMetric = Metric{1, 1.704897179199218452}

	// MinEdgeMetric is a lower bound on the edge length of cells at any level.
	MinEdgeMetric = Metric{1, 2 * math.Sqrt2 / 3}
	// AvgEdgeMetric is the average edge length of cells at any level.
	AvgEdgeMetric = Metric{1, 1.459213746386106062}
	// MaxEdgeMetric is an upper bound on the edge length of cells at any level.
	MaxEdgeMetric = Metric{1, 1.704897179199218452}

	// MinDiagMetric is a lower bound on the diagonal length of cells.
	MinDiagMetric = Metric{1, 8 * math.Sqrt2 / 9}
	// AvgDiagMetric is the average diagonal length of cells at any level.
	AvgDiagMetric = Metric{1, 2.060422738998471683}
	// MaxDiagMetric is an upper bound on the diagonal length of cells.
	MaxDiagMetric = Metric{1, 2.438654594434021032}

	// MinAreaMetric is a lower bound on the area of cells at any level.
	MinAreaMetric = Metric{2, 8 * math.Sqrt2 / 9}
	// AvgAreaMetric is the average area of cells at any level.
	AvgAreaMetric = Metric{2, 4 * math.Pi / 6}
	// MaxAreaMetric is an upper bound on the area of cells at any level.
	MaxAreaMetric = Metric{2, 2.635799256963161491}

	// MaxDiagAspect is the maximum ratio of the diagonal of a cell to its
	// shortest edge.
	MaxDiagAspect = math.Sqrt(3)
)

// Value returns the value of the metric at the given level.
func (m Metric) Value(level int) float64 {
	return math.Ldexp(m.Deriv, -m.Dim*level)
}

// MinLevel returns the minimum level such that the metric is at most
// the given value, or MaxLevel if there is no such level.
//
// For example, MinLevel(0.1) returns the minimum level such that all cell
// diagonal lengths are 0.1 or smaller. The returned value is always a valid
// level.
func (m Metric) MinLevel(val float64) int {
	if val <= 0 {
		return MaxLevel
	}

	// This code is equivalent to computing a floating-point "level" value and
	// rounding up. Frexp returns a fraction in the range [0.5,1) and the
	// corresponding exponent.
	_, level := math.Frexp(val / m.Deriv)
	level = clampInt(-((level - 1) >> uint(m.Dim-1)), 0, MaxLevel)
	return level
}

// MaxLevel returns the maximum level such that the metric is at least
// the given value, or zero if there is no such level.
//
// The returned value is always a valid level.
func (m Metric) MaxLevel(val float64) int {
	if val <= 0 {
		return MaxLevel
	}

	_, level := math.Frexp(m.Deriv / val)
	level = clampInt((level-1)>>uint(m.Dim-1), 0, MaxLevel)
	return level
}

// ClosestLevel returns the level at which the metric has approximately the
// given value. The return value is always a valid level.
//
// For example, AvgEdgeMetric.ClosestLevel(0.1) returns the level at which
// the average cell edge length is approximately 0.1.
func (m Metric) ClosestLevel(val float64) int {
	x := math.Sqrt2
	if m.Dim == 2 {
		x = 2
	}
	return m.MinLevel(x * val)
}
