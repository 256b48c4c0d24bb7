// Package coverer computes coverings: collections of cells that approximate
// arbitrary regions on the unit sphere.
package coverer

import (
	"container/heap"
	"sort"

	"github.com/hupe1980/cellgo/cell"
)

// Region represents a two-dimensional region on the unit sphere. The purpose
// of this interface is to allow complex regions to be approximated as simpler
// regions, built from cells.
type Region interface {
	// ContainsCell reports whether the region completely contains the given
	// cell.
	ContainsCell(c cell.Cell) bool

	// IntersectsCell reports whether the region intersects the given cell. A
	// conservative implementation may return true even when the intersection
	// is empty, but it must never return false when they do intersect.
	IntersectsCell(c cell.Cell) bool

	// CellUnionBound returns a small collection of cell ids whose union
	// covers the region. The cells are not sorted, may have redundancies
	// (such as cells that contain other cells), and may cover much more area
	// than necessary.
	//
	// This method is not intended for direct use by client code. Clients
	// should typically use Covering, which has options to control the size
	// and accuracy of the covering.
	CellUnionBound() []cell.ID
}

// RegionCoverer allows arbitrary regions to be approximated as unions of
// cells. This is useful for implementing various sorts of search and
// precomputation operations.
//
// Typical usage:
//
//	rc := &coverer.RegionCoverer{MaxLevel: 30, MaxCells: 5}
//	covering := rc.Covering(region)
//
// The result is a union of approximately at most 5 cells that is guaranteed
// to cover the given region.
//
// The approximation algorithm is not optimal but does a pretty good job in
// practice. The output does not always use the maximum number of cells
// allowed, both because this would not always yield a better approximation,
// and because MaxCells is a limit on how much work is done exploring the
// possible covering as well as a limit on the final output size.
//
// Because it is an approximation algorithm, one should not rely on the
// stability of the output. In particular, the output of the covering algorithm
// may change across different versions of the library.
type RegionCoverer struct {
	MinLevel int // the minimum cell level to be used.
	MaxLevel int // the maximum cell level to be used.
	LevelMod int // the LevelMod to be used.
	MaxCells int // the maximum desired number of cells in the approximation.
}

// NewRegionCoverer returns a region coverer with the appropriate defaults.
func NewRegionCoverer() *RegionCoverer {
	return &RegionCoverer{
		MinLevel: 0,
		MaxLevel: cell.MaxLevel,
		LevelMod: 1,
		MaxCells: 8,
	}
}

type coverer struct {
	minLevel         int // the minimum cell level to be used.
	maxLevel         int // the maximum cell level to be used.
	levelMod         int // the LevelMod to be used.
	maxCells         int // the maximum desired number of cells in the approximation.
	region           Region
	result           cell.Union
	pq               priorityQueue
	interiorCovering bool
}

type candidate struct {
	cell        cell.Cell
	terminal    bool         // Cell should not be expanded further.
	numChildren int          // Number of children that intersect the region.
	children    []*candidate // Actual size may be 0, 4, 16, or 64 elements.
	priority    int          // Priority of the candidate.
}

type priorityQueue []*candidate

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	// We want Pop to give us the highest, not lowest, priority so we use
	// greater than here.
	return pq[i].priority > pq[j].priority
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*candidate)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	item := (*pq)[len(*pq)-1]
	*pq = (*pq)[:len(*pq)-1]
	return item
}

func (pq *priorityQueue) Reset() {
	*pq = (*pq)[:0]
}

// newCandidate returns a new candidate for the given cell, or nil if the cell
// does not intersect the region being covered.
func (c *coverer) newCandidate(cc cell.Cell) *candidate {
	if !c.region.IntersectsCell(cc) {
		return nil
	}
	cand := &candidate{cell: cc}
	level := cc.Level()
	if level >= c.minLevel {
		if c.interiorCovering {
			if c.region.ContainsCell(cc) {
				cand.terminal = true
			} else if level+c.levelMod > c.maxLevel {
				return nil
			}
		} else if level+c.levelMod > c.maxLevel || c.region.ContainsCell(cc) {
			cand.terminal = true
		}
	}
	return cand
}

// expandChildren populates the children of the candidate by expanding the
// given number of levels from the given cell. Returns the number of children
// that were marked "terminal".
func (c *coverer) expandChildren(cand *candidate, cc cell.Cell, numLevels int) int {
	numLevels--
	var numTerminals int
	last := cc.ID().ChildEnd()
	for ci := cc.ID().ChildBegin(); ci != last; ci = ci.Next() {
		childCell := cell.FromID(ci)
		if numLevels > 0 {
			if c.region.IntersectsCell(childCell) {
				numTerminals += c.expandChildren(cand, childCell, numLevels)
			}
			continue
		}
		if child := c.newCandidate(childCell); child != nil {
			cand.children = append(cand.children, child)
			cand.numChildren++
			if child.terminal {
				numTerminals++
			}
		}
	}
	return numTerminals
}

// addCandidate adds the given candidate to the result if it is marked as
// "terminal", otherwise expands its children and inserts it into the priority
// queue. Passing an argument of nil does nothing.
func (c *coverer) addCandidate(cand *candidate) {
	if cand == nil {
		return
	}

	if cand.terminal {
		c.result = append(c.result, cand.cell.ID())
		return
	}

	// Expand one level at a time until we hit minLevel to ensure that we
	// don't skip over it.
	numLevels := c.levelMod
	level := cand.cell.Level()
	if level < c.minLevel {
		numLevels = 1
	}

	numTerminals := c.expandChildren(cand, cand.cell, numLevels)
	maxChildrenShift := uint(2 * c.levelMod)
	if cand.numChildren == 0 {
		return
	} else if !c.interiorCovering && numTerminals == 1<<maxChildrenShift && level >= c.minLevel {
		// Optimization: add the parent cell rather than all of its children.
		// We can't do this for interior coverings, since the children just
		// intersect the region, but may not be contained by it - we need to
		// subdivide them further.
		cand.terminal = true
		c.addCandidate(cand)
	} else {
		// We negate the priority so that smaller absolute priorities are
		// returned first. The heuristic is designed to refine the largest
		// cells first, since those are where we have the largest potential
		// gain. Among cells of the same size, we prefer the cells with the
		// smallest number of intersecting children. Finally, among cells with
		// equal numbers of children we prefer those with the smallest number
		// of children that cannot be refined further.
		cand.priority = -(((level<<maxChildrenShift)+cand.numChildren)<<maxChildrenShift + numTerminals)
		heap.Push(&c.pq, cand)
	}
}

// adjustLevel returns the reduced "level" so that it satisfies levelMod.
// Levels smaller than minLevel are not affected (since cells at these levels
// are eventually expanded).
func (c *coverer) adjustLevel(level int) int {
	if c.levelMod > 1 && level > c.minLevel {
		level -= (level - c.minLevel) % c.levelMod
	}
	return level
}

// adjustCellLevels ensures that all cells with level > minLevel also satisfy
// levelMod, by replacing them with an ancestor if necessary. Cell levels
// smaller than minLevel are not modified (see adjustLevel). The output is
// then normalized to ensure that no redundant cells are present.
func (c *coverer) adjustCellLevels(cells *cell.Union) {
	if c.levelMod == 1 {
		return
	}

	var out int
	for _, ci := range *cells {
		level := ci.Level()
		newLevel := c.adjustLevel(level)
		if newLevel != level {
			ci = ci.Parent(newLevel)
		}
		if out > 0 && (*cells)[out-1].Contains(ci) {
			continue
		}
		for out > 0 && ci.Contains((*cells)[out-1]) {
			out--
		}
		(*cells)[out] = ci
		out++
	}
	*cells = (*cells)[:out]
}

// initialCandidates computes a set of initial candidates that cover the given
// region.
func (c *coverer) initialCandidates() {
	// Optimization: start with a small (usually 4 cell) covering of the
	// region's bound.
	temp := &RegionCoverer{MaxLevel: c.maxLevel, LevelMod: 1, MaxCells: minInt(4, c.maxCells)}

	cells := temp.FastCovering(c.region)
	c.adjustCellLevels(&cells)
	for _, ci := range cells {
		c.addCandidate(c.newCandidate(cell.FromID(ci)))
	}
}

// coveringInternal generates a covering and stores it in result.
//
// Strategy: Start with the 6 faces of the cube. Discard any that do not
// intersect the shape. Then repeatedly choose the largest cell that
// intersects the shape and subdivide it.
//
// result contains the cells that will be part of the output, while pq
// contains cells that we may still subdivide further. Cells that are entirely
// contained within the region are immediately added to the output, while
// cells that do not intersect the region are immediately discarded. Therefore
// pq only contains cells that partially intersect the region. Candidates are
// prioritized first according to cell size (larger cells first), then by the
// number of intersecting children they have (fewest children first), and then
// by the number of fully contained children (fewest children first).
func (c *coverer) coveringInternal(region Region) {
	c.region = region

	c.initialCandidates()
	for c.pq.Len() > 0 && (!c.interiorCovering || len(c.result) < c.maxCells) {
		cand := heap.Pop(&c.pq).(*candidate)

		// For interior covering we keep subdividing no matter how many
		// children the candidate has. If we reach MaxCells before expanding
		// all children, we will just use some of them. For exterior covering
		// we cannot do this, because the result has to cover the whole
		// region, so all children have to be used. The candidate.numChildren
		// == 1 case takes care of the situation when we already have more
		// than MaxCells in the result (minLevel is too high). Subdividing a
		// candidate with one child does no harm in this case.
		if c.interiorCovering || cand.cell.Level() < c.minLevel || cand.numChildren == 1 ||
			len(c.result)+c.pq.Len()+cand.numChildren <= c.maxCells {
			// Expand this candidate into its children.
			for _, child := range cand.children {
				if !c.interiorCovering || len(c.result) < c.maxCells {
					c.addCandidate(child)
				}
			}
		} else {
			cand.terminal = true
			c.addCandidate(cand)
		}
	}

	c.pq.Reset()
	c.region = nil

	// Rather than just returning the raw list of cell ids, we construct a
	// cell union and then denormalize it. This has the effect of replacing
	// four child cells with their parent whenever this does not violate the
	// covering parameters specified (MinLevel, LevelMod, etc). This
	// significantly reduces the number of cells returned in many cases, and
	// it is cheap compared to computing the covering in the first place.
	c.result.Normalize()
	if c.minLevel > 0 || c.levelMod > 1 {
		c.result.Denormalize(c.minLevel, c.levelMod)
	}
}

// newCoverer returns an instance of coverer with the proper defaults.
func (rc *RegionCoverer) newCoverer() *coverer {
	return &coverer{
		minLevel: maxInt(0, minInt(cell.MaxLevel, rc.MinLevel)),
		maxLevel: maxInt(0, minInt(cell.MaxLevel, rc.MaxLevel)),
		levelMod: maxInt(1, minInt(3, rc.LevelMod)),
		maxCells: rc.MaxCells,
	}
}

// Covering returns a Union that covers the given region and satisfies the
// various restrictions.
func (rc *RegionCoverer) Covering(region Region) cell.Union {
	covering := rc.CellUnion(region)
	covering.Denormalize(maxInt(0, minInt(cell.MaxLevel, rc.MinLevel)), maxInt(1, minInt(3, rc.LevelMod)))
	return covering
}

// InteriorCovering returns a Union that is contained within the given region
// and satisfies the various restrictions.
func (rc *RegionCoverer) InteriorCovering(region Region) cell.Union {
	intCovering := rc.InteriorCellUnion(region)
	intCovering.Denormalize(maxInt(0, minInt(cell.MaxLevel, rc.MinLevel)), maxInt(1, minInt(3, rc.LevelMod)))
	return intCovering
}

// CellUnion returns a normalized Union that covers the given region and
// satisfies the restrictions except for MinLevel and LevelMod. These criteria
// cannot be satisfied using a cell union because cell unions are
// automatically normalized by replacing four child cells with their parent
// whenever possible. (Note that the list of cell ids computed by the covering
// itself does in fact satisfy all the given restrictions.)
func (rc *RegionCoverer) CellUnion(region Region) cell.Union {
	c := rc.newCoverer()
	c.coveringInternal(region)
	cu := c.result
	cu.Normalize()
	return cu
}

// InteriorCellUnion returns a normalized Union that is contained within the
// given region and satisfies the restrictions except for MinLevel and
// LevelMod.
func (rc *RegionCoverer) InteriorCellUnion(region Region) cell.Union {
	c := rc.newCoverer()
	c.interiorCovering = true
	c.coveringInternal(region)
	cu := c.result
	cu.Normalize()
	return cu
}

// FastCovering returns a Union that covers the given region similar to
// Covering, except that this method is much faster and the coverings are not
// as tight. All of the usual parameters are respected (MaxCells, MinLevel,
// MaxLevel, and LevelMod), except that the implementation makes no attempt
// to take advantage of large regions of the sphere or to generate tighter
// coverings when the number of cells is limited.
func (rc *RegionCoverer) FastCovering(region Region) cell.Union {
	c := rc.newCoverer()
	cu := cell.Union(region.CellUnionBound())
	c.normalizeCovering(&cu)
	return cu
}

// IsCanonical reports whether the given Union represents a valid covering
// that conforms to the current covering parameters. In particular:
//
//   - All cell ids must be valid.
//
//   - Cell ids must be sorted and non-overlapping.
//
//   - Cell id levels must satisfy MinLevel, MaxLevel, and LevelMod.
//
//   - If the covering has more than MaxCells, then it must not be possible
//     to replace any pair of adjacent cells by an ancestor without violating
//     the level restrictions.
func (rc *RegionCoverer) IsCanonical(covering cell.Union) bool {
	return rc.newCoverer().isCanonical(covering)
}

func (c *coverer) isCanonical(covering cell.Union) bool {
	trueMax := c.maxLevel
	if c.levelMod != 1 {
		trueMax = c.maxLevel - (c.maxLevel-c.minLevel)%c.levelMod
	}
	tooManyCells := len(covering) > c.maxCells

	prevID := cell.ID(0)
	for _, id := range covering {
		if !id.IsValid() {
			return false
		}

		// Check that the cell level is acceptable.
		level := id.Level()
		if level < c.minLevel || level > trueMax {
			return false
		}
		if c.levelMod > 1 && (level-c.minLevel)%c.levelMod != 0 {
			return false
		}

		if prevID != 0 {
			// Check that the cells are sorted and non-overlapping.
			if prevID.RangeMax() >= id.RangeMin() {
				return false
			}

			// If the covering has too many cells, check that no pair of
			// adjacent cells could be merged into a valid ancestor.
			if tooManyCells {
				if ancLevel, ok := id.CommonAncestorLevel(prevID); ok && c.adjustLevel(ancLevel) >= c.minLevel {
					return false
				}
			}
		}
		prevID = id
	}
	return true
}

// normalizeCovering normalizes the "covering" so that it conforms to the
// current covering parameters (MaxCells, MinLevel, MaxLevel, and LevelMod).
// This method makes no attempt to be optimal. In particular, if MinLevel > 0
// or LevelMod > 1 then it may return more than MaxCells cells when this is
// necessary to satisfy the other constraints.
func (c *coverer) normalizeCovering(covering *cell.Union) {
	// If any cells are too small, or don't satisfy levelMod, then replace
	// them with ancestors.
	if c.maxLevel < cell.MaxLevel || c.levelMod > 1 {
		for i, ci := range *covering {
			level := ci.Level()
			newLevel := c.adjustLevel(minInt(level, c.maxLevel))
			if newLevel != level {
				(*covering)[i] = ci.Parent(newLevel)
			}
		}
	}

	// Sort the cells and simplify them.
	covering.Normalize()

	// If there are still too many cells, then repeatedly replace two adjacent
	// cells in cell id order by their lowest common ancestor.
	for len(*covering) > c.maxCells {
		bestIndex := -1
		bestLevel := -1
		for i := 0; i+1 < len(*covering); i++ {
			level, ok := (*covering)[i].CommonAncestorLevel((*covering)[i+1])
			if !ok {
				continue
			}
			level = c.adjustLevel(level)
			if level > bestLevel {
				bestLevel = level
				bestIndex = i
			}
		}

		if bestLevel < c.minLevel {
			break
		}

		// Replace all cells contained by the new ancestor cell.
		id := (*covering)[bestIndex].Parent(bestLevel)
		*covering = replaceCellsWithAncestor(*covering, id)

		// Now repeat the same procedure.
	}

	// Make sure that the covering satisfies minLevel and levelMod, possibly
	// at the expense of satisfying MaxCells.
	if c.minLevel > 0 || c.levelMod > 1 {
		covering.Denormalize(c.minLevel, c.levelMod)
	}
}

// replaceCellsWithAncestor replaces all descendants of the given id in
// covering with id. This requires the covering to contain at least one
// descendant of id.
func replaceCellsWithAncestor(covering cell.Union, id cell.ID) cell.Union {
	begin := sort.Search(len(covering), func(i int) bool {
		return covering[i] > id.RangeMin()
	})
	end := sort.Search(len(covering), func(i int) bool {
		return covering[i] > id.RangeMax()
	})

	return append(append(covering[:begin], id), covering[end:]...)
}

// SimpleRegionCovering returns a set of cells at the given level that cover
// the connected region and a starting point on the boundary or inside the
// region. The cells are returned in arbitrary order.
//
// Note that this method is not faster than the regular Covering method for
// most region types, such as caps or polygons, and can even be much slower
// when the output consists of a large number of cells. Currently it can be
// useful only for certain types of regions such as thin strips.
func SimpleRegionCovering(region Region, start cell.Point, level int) []cell.ID {
	return FloodFillRegionCovering(region, cell.FromPoint(start).Parent(level))
}

// FloodFillRegionCovering returns all edge-connected cells at the same level
// as the given cell id that intersect the given region, in arbitrary order.
func FloodFillRegionCovering(region Region, start cell.ID) []cell.ID {
	var output []cell.ID
	all := map[cell.ID]bool{
		start: true,
	}
	frontier := []cell.ID{start}
	for len(frontier) > 0 {
		id := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		if !region.IntersectsCell(cell.FromID(id)) {
			continue
		}
		output = append(output, id)
		neighbors := id.EdgeNeighbors()
		for _, nbr := range neighbors {
			if !all[nbr] {
				all[nbr] = true
				frontier = append(frontier, nbr)
			}
		}
	}

	return output
}

func minInt(x, y int) int {
	if x < y {
		return x
	}
	return y
}

func maxInt(x, y int) int {
	if x > y {
		return x
	}
	return y
}
