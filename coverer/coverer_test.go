package coverer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cellgo/cell"
	"github.com/hupe1980/cellgo/testutil"
)

// checkCovering verifies that the covering satisfies the level constraints of
// the given coverer and covers (or for interior coverings, is covered by) the
// region.
func checkCovering(t *testing.T, rc *RegionCoverer, region cell.Union, covering cell.Union, interior bool) {
	t.Helper()

	trueMax := rc.MaxLevel
	if rc.LevelMod != 1 {
		trueMax = rc.MaxLevel - (rc.MaxLevel-rc.MinLevel)%rc.LevelMod
	}

	for _, id := range covering {
		require.True(t, id.IsValid())
		level := id.Level()
		assert.GreaterOrEqual(t, level, rc.MinLevel)
		assert.LessOrEqual(t, level, trueMax)
		assert.Zero(t, (level-rc.MinLevel)%rc.LevelMod)
	}

	if interior {
		for _, id := range covering {
			assert.True(t, region.ContainsCell(cell.FromID(id)),
				"interior covering cell %v not contained by region", id)
		}
	} else {
		assert.True(t, covering.Contains(region), "covering does not cover the region")
		// Denormalization for MinLevel or LevelMod may exceed MaxCells in
		// ways that leave mergeable pairs, so only the unconstrained case
		// is guaranteed canonical.
		if rc.MinLevel == 0 && rc.LevelMod == 1 {
			assert.True(t, rc.IsCanonical(covering))
		}
	}
}

func TestCovererRandomCells(t *testing.T) {
	rng := testutil.NewRNG(1)

	// A cell covered at its own level with a single cell is itself.
	for i := 0; i < 1000; i++ {
		id := rng.CellID()
		rc := &RegionCoverer{MinLevel: id.Level(), MaxLevel: id.Level(), LevelMod: 1, MaxCells: 1}

		covering := rc.Covering(cell.FromID(id))
		require.Len(t, covering, 1)
		assert.Equal(t, id, covering[0])
	}
}

func TestCovererRandomUnions(t *testing.T) {
	rng := testutil.NewRNG(2)

	for i := 0; i < 200; i++ {
		// MinLevel is kept small so that denormalizing a coarse covering
		// stays cheap.
		rc := &RegionCoverer{
			MinLevel: rng.Intn(5),
			LevelMod: 1 + rng.Intn(3),
			MaxCells: 1 + rng.SkewedInt(10),
		}
		rc.MaxLevel = rc.MinLevel + rng.Intn(cell.MaxLevel-rc.MinLevel+1)

		region := rng.CellUnion(1 + rng.Intn(5))

		covering := rc.Covering(region)
		checkCovering(t, rc, region, covering, false)

		interior := rc.InteriorCovering(region)
		checkCovering(t, rc, region, interior, true)
	}
}

func TestCovererDefaultsAreCanonical(t *testing.T) {
	rng := testutil.NewRNG(3)
	rc := NewRegionCoverer()

	for i := 0; i < 100; i++ {
		region := rng.CellUnion(8)
		covering := rc.Covering(region)
		checkCovering(t, rc, region, covering, false)
		assert.LessOrEqual(t, len(covering), rc.MaxCells)
	}
}

func TestCovererInteriorCovering(t *testing.T) {
	// We construct the region the following way. Take a cell of level l and
	// remove one of its grandchildren. The restriction on the level is chosen
	// so that the best interior covering is the three immediate children plus
	// three grandchildren.
	const level = 12
	rng := testutil.NewRNG(4)

	smallID := cell.FromPoint(rng.Point()).Parent(level + 2)
	largeID := smallID.Parent(level)
	diff := cell.UnionFromDifference(cell.Union{largeID}, cell.Union{smallID})

	rc := &RegionCoverer{MaxCells: 3, MaxLevel: level + 3, MinLevel: level, LevelMod: 1}
	interior := rc.InteriorCellUnion(diff)
	require.Len(t, interior, 3)
	for _, id := range interior {
		assert.Equal(t, level+1, id.Level())
	}

	// Allowing more cells gets the finer grandchildren as well.
	rc.MaxCells = 12
	interior = rc.InteriorCellUnion(diff)
	checkCovering(t, rc, diff, interior, true)
	assert.Greater(t, len(interior), 3)
}

func TestCovererFastCovering(t *testing.T) {
	rng := testutil.NewRNG(5)
	rc := NewRegionCoverer()

	for i := 0; i < 100; i++ {
		region := rng.CellUnion(4)
		covering := rc.FastCovering(region)

		assert.True(t, covering.IsValid())
		assert.True(t, covering.Contains(region))
	}
}

func TestCovererIsCanonical(t *testing.T) {
	tests := []struct {
		name     string
		cells    []string
		rc       *RegionCoverer
		expected bool
	}{
		{"FaceCell", []string{"1/"}, NewRegionCoverer(), true},
		{"InvalidID", []string{"a/"}, NewRegionCoverer(), false},
		{"Unsorted", []string{"1/1", "1/3", "1/2"}, NewRegionCoverer(), false},
		{"Overlapping", []string{"1/2", "1/21"}, NewRegionCoverer(), false},
		{"MinLevelOK", []string{"1/31"}, &RegionCoverer{MinLevel: 2, MaxLevel: cell.MaxLevel, LevelMod: 1, MaxCells: 8}, true},
		{"MinLevelViolated", []string{"1/3"}, &RegionCoverer{MinLevel: 2, MaxLevel: cell.MaxLevel, LevelMod: 1, MaxCells: 8}, false},
		{"MaxLevelOK", []string{"1/31"}, &RegionCoverer{MinLevel: 0, MaxLevel: 2, LevelMod: 1, MaxCells: 8}, true},
		{"MaxLevelViolated", []string{"1/312"}, &RegionCoverer{MinLevel: 0, MaxLevel: 2, LevelMod: 1, MaxCells: 8}, false},
		{"LevelModOK", []string{"1/13", "1/31"}, &RegionCoverer{MinLevel: 0, MaxLevel: cell.MaxLevel, LevelMod: 2, MaxCells: 8}, true},
		{"LevelModViolated", []string{"1/13", "1/31", "1/331"}, &RegionCoverer{MinLevel: 0, MaxLevel: cell.MaxLevel, LevelMod: 2, MaxCells: 8}, false},
		{"MaxCellsWithinLimit", []string{"1/1", "1/3"}, &RegionCoverer{MinLevel: 0, MaxLevel: cell.MaxLevel, LevelMod: 1, MaxCells: 2}, true},
		{"MaxCellsUnmergeable", []string{"1/1", "2/"}, &RegionCoverer{MinLevel: 0, MaxLevel: cell.MaxLevel, LevelMod: 1, MaxCells: 1}, true},
		{"MaxCellsMergeable", []string{"1/1", "1/3"}, &RegionCoverer{MinLevel: 0, MaxLevel: cell.MaxLevel, LevelMod: 1, MaxCells: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var covering cell.Union
			for _, s := range tt.cells {
				covering = append(covering, cell.FromString(s))
			}
			assert.Equal(t, tt.expected, tt.rc.IsCanonical(covering))
		})
	}
}

func TestSimpleRegionCovering(t *testing.T) {
	rng := testutil.NewRNG(6)

	for i := 0; i < 20; i++ {
		const level = 8
		id := rng.CellIDForLevel(level)
		region := cell.Union{id}

		got := SimpleRegionCovering(region, id.Point(), level)
		require.Len(t, got, 1)
		assert.Equal(t, id, got[0])
	}
}

func TestFloodFillRegionCovering(t *testing.T) {
	// Flood filling a parent region starting at one child finds all four
	// children plus nothing else at that level.
	id := cell.FromString("2/13")
	region := cell.Union{id}

	got := FloodFillRegionCovering(region, id.ChildBegin())
	assert.Len(t, got, 4)

	u := cell.Union(got)
	u.Normalize()
	require.Len(t, u, 1)
	assert.Equal(t, id, u[0])
}
