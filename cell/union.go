package cell

import (
	"fmt"
	"sort"
	"strings"
)

// A Union is a collection of IDs representing a region of the sphere as a
// union of cells.
//
// A Union is normalized if it is sorted, non-overlapping and as compact as
// possible: no ID contains another, and no four cells share an immediate
// parent (they would have been replaced by it). Unions are left in an
// undefined state if the normalization invariant is required but violated;
// most operations either require or preserve normalized form as documented.
type Union []ID

// UnionFromRange creates a Union covering the half-open range of leaf cells
// [begin, end). If begin == end the resulting union is empty.
//
// A canonical path to construct such a range is
// UnionFromRange(c.RangeMin(), c.RangeMax().Next()) for some cell c. The
// resulting union is normalized.
func UnionFromRange(begin, end ID) Union {
	// We repeatedly add the largest cell we can.
	var u Union
	for id := begin.MaximumTile(end); id != end; id = id.Next().MaximumTile(end) {
		u = append(u, id)
	}
	return u
}

// UnionFromUnion creates a Union from the union of the given Unions.
func UnionFromUnion(unions ...Union) Union {
	var u Union
	for _, other := range unions {
		u = append(u, other...)
	}
	u.Normalize()
	return u
}

// UnionFromIntersection creates a Union from the intersection of the given
// Unions, which must be normalized.
func UnionFromIntersection(x, y Union) Union {
	var u Union

	// This is a fairly efficient calculation that uses binary search to skip
	// over sections of both input vectors. It takes constant time if all the
	// cells of x come before or after all the cells of y in ID order.
	var i, j int
	for i < len(x) && j < len(y) {
		iMin := x[i].RangeMin()
		jMin := y[j].RangeMin()
		if iMin > jMin {
			// Either j.Contains(i) or the two cells are disjoint.
			if x[i] <= y[j].RangeMax() {
				u = append(u, x[i])
				i++
			} else {
				// Advance j to the first cell possibly contained by x[i].
				j = sort.Search(len(y)-j-1, func(k int) bool { return y[j+1+k] >= iMin }) + j + 1
				// The previous cell y[j-1] may now contain x[i].
				if x[i] <= y[j-1].RangeMax() {
					j--
				}
			}
		} else if jMin > iMin {
			// Identical to the code above with i and j reversed.
			if y[j] <= x[i].RangeMax() {
				u = append(u, y[j])
				j++
			} else {
				i = sort.Search(len(x)-i-1, func(k int) bool { return x[i+1+k] >= jMin }) + i + 1
				if y[j] <= x[i-1].RangeMax() {
					i--
				}
			}
		} else {
			// i and j have the same RangeMin(), so one contains the other.
			if x[i] < y[j] {
				u = append(u, x[i])
				i++
			} else {
				u = append(u, y[j])
				j++
			}
		}
	}

	// The output is generated in sorted order.
	u.Normalize()
	return u
}

// UnionFromIntersectionWithID creates a Union from the intersection of a
// Union with the given ID. This can be useful for splitting a Union into
// chunks.
func UnionFromIntersectionWithID(x Union, id ID) Union {
	var u Union
	if x.ContainsID(id) {
		u = append(u, id)
		u.Normalize()
		return u
	}

	idMax := id.RangeMax()
	for i := x.lowerBound(id.RangeMin()); i < len(x) && x[i] <= idMax; i++ {
		u = append(u, x[i])
	}

	u.Normalize()
	return u
}

// UnionFromDifference creates a Union from the difference x - y of the given
// Unions, which must be normalized.
func UnionFromDifference(x, y Union) Union {
	var u Union
	for _, xid := range x {
		u.differenceInternal(xid, &y)
	}
	// The output is generated in sorted order, and there should not be any
	// cells that can be merged (provided the inputs were normalized).
	return u
}

func (u *Union) differenceInternal(id ID, other *Union) {
	if !other.IntersectsID(id) {
		*u = append(*u, id)
		return
	}
	if !other.ContainsID(id) {
		for _, child := range id.Children() {
			u.differenceInternal(child, other)
		}
	}
}

// IsValid reports whether the Union is valid, meaning that the IDs are
// valid and appear in sorted, non-overlapping order.
func (u Union) IsValid() bool {
	for i, id := range u {
		if !id.IsValid() {
			return false
		}
		if i > 0 && u[i-1].RangeMax() >= id.RangeMin() {
			return false
		}
	}
	return true
}

// IsNormalized reports whether the Union is valid and no four cells have a
// common parent.
func (u Union) IsNormalized() bool {
	for i, id := range u {
		if !id.IsValid() {
			return false
		}
		if i > 0 && u[i-1].RangeMax() >= id.RangeMin() {
			return false
		}
		if i >= 3 && areSiblings(u[i-3], u[i-2], u[i-1], id) {
			return false
		}
	}
	return true
}

// Normalize normalizes the Union in place.
func (u *Union) Normalize() {
	sortIDs(*u)

	output := make([]ID, 0, len(*u)) // the list of accepted cells
	for _, id := range *u {
		// The first two passes here either ignore this new candidate or remove
		// previously accepted cells that are covered by this candidate.

		// Ignore this cell if it is contained by the previous one.
		// We only need to check the last accepted cell. The ordering of the
		// IDs guarantees that if this cell is contained by an earlier cell,
		// it is also contained by the last accepted cell.
		if len(output) > 0 && output[len(output)-1].Contains(id) {
			continue
		}

		// Discard any previously accepted cells contained by this one.
		// This could be any contiguous trailing subsequence.
		for len(output) > 0 && id.Contains(output[len(output)-1]) {
			output = output[:len(output)-1]
		}

		// See if the last three cells plus this one can be collapsed into a
		// single parent cell.
		for len(output) >= 3 && areSiblings(output[len(output)-3], output[len(output)-2], output[len(output)-1], id) {
			// Replace four children by their parent cell.
			output = output[:len(output)-3]
			id = id.ImmediateParent()
		}
		output = append(output, id)
	}
	*u = output
}

// areSiblings reports whether the four cells have a common parent.
// The four cells must be distinct.
func areSiblings(a, b, c, d ID) bool {
	// A necessary (but not sufficient) condition is that the XOR of the
	// four cell IDs must be zero. This is also very fast to test.
	if (uint64(a) ^ uint64(b) ^ uint64(c)) != uint64(d) {
		return false
	}

	// Now we do a slightly more expensive but exact test. In fact, it is the
	// probability that this test is necessary is extremely low (about 1 in
	// 16 million) given that the XOR test already passed.
	mask := d.lsb() << 1
	mask = ^(mask + (mask << 1))
	idMasked := uint64(d) & mask
	return (uint64(a)&mask == idMasked &&
		uint64(b)&mask == idMasked &&
		uint64(c)&mask == idMasked &&
		!d.IsFace())
}

// Denormalize replaces this Union with an expanded version where any cell
// whose level is less than minLevel or where (level - minLevel) is not a
// multiple of levelMod is replaced by its children, until either both of
// these conditions are satisfied or the maximum level is reached.
func (u *Union) Denormalize(minLevel, levelMod int) {
	var denorm Union
	for _, id := range *u {
		level := id.Level()
		newLevel := level
		if newLevel < minLevel {
			newLevel = minLevel
		}
		if levelMod > 1 {
			// Round up so that (newLevel - minLevel) is a multiple of levelMod.
			// (Note that MaxLevel is a multiple of 1, 2, and 3.)
			newLevel += (MaxLevel - (newLevel - minLevel)) % levelMod
			if newLevel > MaxLevel {
				newLevel = level
			}
		}
		if newLevel == level {
			denorm = append(denorm, id)
		} else {
			end := id.ChildEndAtLevel(newLevel)
			for ci := id.ChildBeginAtLevel(newLevel); ci != end; ci = ci.Next() {
				denorm = append(denorm, ci)
			}
		}
	}
	*u = denorm
}

// lowerBound returns the index in the Union of the first ID >= the given ID.
func (u Union) lowerBound(id ID) int {
	return sort.Search(len(u), func(i int) bool { return u[i] >= id })
}

// IntersectsID reports whether this Union intersects the given ID.
// The Union must be normalized.
func (u Union) IntersectsID(id ID) bool {
	// Find index of array item that occurs directly after our probe cell:
	i := u.lowerBound(id)

	if i != len(u) && u[i].RangeMin() <= id.RangeMax() {
		return true
	}
	return i != 0 && u[i-1].RangeMax() >= id.RangeMin()
}

// ContainsID reports whether the Union contains the given ID. Containment
// is defined with respect to regions, e.g. a cell contains its 4 children.
// The Union must be normalized.
func (u Union) ContainsID(id ID) bool {
	i := u.lowerBound(id)

	if i != len(u) && u[i].RangeMin() <= id {
		return true
	}
	return i != 0 && u[i-1].RangeMax() >= id
}

// CellUnionBound returns the union itself, allowing a Union to be used
// directly as a region to be covered.
func (u Union) CellUnionBound() []ID {
	return u
}

// ContainsPoint reports whether the Union contains the given point. The
// Union must be normalized.
func (u Union) ContainsPoint(p Point) bool {
	return u.ContainsID(FromPoint(p))
}

// ContainsCell reports whether the Union contains the given cell.
func (u Union) ContainsCell(c Cell) bool {
	return u.ContainsID(c.ID())
}

// IntersectsCell reports whether the Union intersects the given cell.
func (u Union) IntersectsCell(c Cell) bool {
	return u.IntersectsID(c.ID())
}

// Contains reports whether this Union contains all of the cells of the
// given Union. Both must be normalized.
func (u Union) Contains(o Union) bool {
	for _, id := range o {
		if !u.ContainsID(id) {
			return false
		}
	}
	return true
}

// Intersects reports whether this Union intersects any of the cells of the
// given Union. Both must be normalized.
func (u Union) Intersects(o Union) bool {
	for _, id := range o {
		if u.IntersectsID(id) {
			return true
		}
	}
	return false
}

// ExpandAtLevel expands this Union by adding a rim of cells at the given
// level around its boundary. Each cell of the union that is smaller than
// the given level is first replaced by its ancestor at that level.
//
// This method does not attempt to restrict the expansion to cells that
// intersect the original union; use a RegionCoverer for tighter control.
func (u *Union) ExpandAtLevel(level int) {
	var output Union
	levelLsb := lsbForLevel(level)
	for i := len(*u) - 1; i >= 0; i-- {
		id := (*u)[i]
		if id.lsb() < levelLsb {
			id = id.Parent(level)
			// Optimization: skip over any cells contained by this one. This is
			// especially important when the orginal covering has many cells much
			// smaller than the desired level.
			for i > 0 && id.Contains((*u)[i-1]) {
				i--
			}
		}
		output = append(output, id)
		output = append(output, id.AllNeighbors(level)...)
	}
	sortIDs(output)

	*u = output
	u.Normalize()
}

// LeafCellsCovered reports the number of leaf cells covered by this Union.
// This will be no more than 6*2^60 for the whole sphere. The Union must be
// normalized.
func (u Union) LeafCellsCovered() uint64 {
	var numLeaves uint64
	for _, id := range u {
		numLeaves += 1 << uint64((MaxLevel-id.Level())<<1)
	}
	return numLeaves
}

// AverageArea returns the approximate average area of this Union.
func (u Union) AverageArea() float64 {
	return AvgAreaMetric.Value(MaxLevel) * float64(u.LeafCellsCovered())
}

// String returns a human readable form of the Union.
func (u Union) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, id := range u {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%v", id)
	}
	sb.WriteByte(']')
	return sb.String()
}
