package shapeindex

import (
	"sort"

	"github.com/hupe1980/cellgo/cell"
)

// IteratorPos defines the set of possible iterator starting positions. By
// default iterators are unpositioned, since this avoids an extra seek in this
// situation where one of the seek methods (such as Locate) is immediately
// called.
type IteratorPos int

const (
	// IteratorBegin specifies the iterator should be positioned at the beginning of the index.
	IteratorBegin IteratorPos = iota
	// IteratorEnd specifies the iterator should be positioned at the end of the index.
	IteratorEnd
)

// Iterator is an iterator that provides low-level access to the cells of the
// index. Cells are returned in increasing order of CellID.
//
//	for it := index.Iterator(); !it.Done(); it.Next() {
//		fmt.Print(it.CellID())
//	}
type Iterator struct {
	index    *ShapeIndex
	position int
	id       cell.ID
	cell     *Cell
}

// NewIterator creates a new iterator for the given index. If a starting
// position is specified, the iterator is positioned at the given spot.
func NewIterator(index *ShapeIndex, pos ...IteratorPos) *Iterator {
	s := &Iterator{
		index: index,
	}

	if len(pos) > 0 {
		if len(pos) > 1 {
			panic("too many iterator positions specified")
		}
		switch pos[0] {
		case IteratorBegin:
			s.Begin()
		case IteratorEnd:
			s.End()
		default:
			panic("unknown iterator position")
		}
	}
	return s
}

// newIterator returns an unpositioned iterator that does not trigger an
// index update. It is used internally while the index itself is being
// updated, where the public constructor would deadlock.
func newIterator(index *ShapeIndex) *Iterator {
	return &Iterator{
		index: index,
		id:    cell.SentinelID,
	}
}

func (s *Iterator) clone() *Iterator {
	return &Iterator{
		index:    s.index,
		position: s.position,
		id:       s.id,
		cell:     s.cell,
	}
}

// CellID returns the CellID of the current index cell.
// If s.Done() is true, a value larger than any valid CellID is returned.
func (s *Iterator) CellID() cell.ID {
	return s.id
}

// IndexCell returns the current index cell.
func (s *Iterator) IndexCell() *Cell {
	return s.cell
}

// Center returns the Point at the center of the current position of the iterator.
func (s *Iterator) Center() cell.Point {
	return s.CellID().Point()
}

// Begin positions the iterator at the beginning of the index.
func (s *Iterator) Begin() {
	s.position = 0
	s.refresh()
}

// Next positions the iterator at the next index cell.
func (s *Iterator) Next() {
	s.position++
	s.refresh()
}

// Prev advances the iterator to the previous cell in the index and returns true to
// indicate it was not yet at the beginning of the index. If the iterator is at the
// first cell the call does nothing and returns false.
func (s *Iterator) Prev() bool {
	if s.position <= 0 {
		return false
	}

	s.position--
	s.refresh()
	return true
}

// End positions the iterator at the end of the index.
func (s *Iterator) End() {
	s.position = len(s.index.cells)
	s.refresh()
}

// Done reports if the iterator is positioned at or after the last index cell.
func (s *Iterator) Done() bool {
	return s.id == cell.SentinelID
}

// refresh updates the stored internal iterator values.
func (s *Iterator) refresh() {
	if s.position < len(s.index.cells) {
		s.id = s.index.cells[s.position]
		s.cell = s.index.cellMap[s.CellID()]
	} else {
		s.id = cell.SentinelID
		s.cell = nil
	}
}

// Seek positions the iterator at the first cell whose ID >= target, or at the
// end of the index if no such cell exists.
func (s *Iterator) Seek(target cell.ID) { s.seek(target) }

func (s *Iterator) seek(target cell.ID) {
	s.position = sort.Search(len(s.index.cells), func(i int) bool {
		return s.index.cells[i] >= target
	})
	s.refresh()
}

// LocatePoint positions the iterator at the cell that contains the given Point.
// If no such cell exists, the iterator position is unspecified, and false is returned.
// The cell at the matched position is guaranteed to contain all edges that might
// intersect the line segment between target and the cells center.
func (s *Iterator) LocatePoint(p cell.Point) bool {
	// Let I = cellMap.LowerBound(T), where T is the leaf cell containing
	// point P. Then if T is contained by an index cell, then the
	// containing cell is either I or I'. We test for containment by comparing
	// the ranges of leaf cells spanned by T, I, and I'.
	target := cell.FromPoint(p)
	s.seek(target)
	if !s.Done() && s.CellID().RangeMin() <= target {
		return true
	}

	if s.Prev() && s.CellID().RangeMax() >= target {
		return true
	}
	return false
}

// LocateCellID attempts to position the iterator at the first matching index cell
// in the index that has some relation to the given CellID. Let T be the target CellID.
// If T is contained by (or equal to) some index cell I, then the iterator is positioned
// at I and returns Indexed. Otherwise if T contains one or more (smaller) index cells,
// then the iterator is positioned at the first such cell I and return Subdivided.
// Otherwise Disjoint is returned and the iterator position is undefined.
func (s *Iterator) LocateCellID(target cell.ID) CellRelation {
	// Let T be the target, let I = cellMap.LowerBound(T.RangeMin()), and let
	// I' be the predecessor of I. If T contains any index cells, then T
	// contains I. Similarly, if T is contained by an index cell, then the
	// containing cell is either I or I'. We test for containment by comparing
	// the ranges of leaf cells spanned by T, I, and I'.
	s.seek(target.RangeMin())
	if !s.Done() {
		if s.CellID() >= target && s.CellID().RangeMin() <= target {
			return Indexed
		}
		if s.CellID() <= target.RangeMax() {
			return Subdivided
		}
	}
	if s.Prev() && s.CellID().RangeMax() >= target {
		return Indexed
	}
	return Disjoint
}
