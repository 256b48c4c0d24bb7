package cellgo

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/cellgo/cell"
	"github.com/hupe1980/cellgo/coverer"
	"github.com/hupe1980/cellgo/shapeindex"
)

// Aliases for the most commonly used types, so basic usage only needs the
// root package.
type (
	// CellID uniquely identifies a cell in the hierarchy.
	CellID = cell.ID

	// CellUnion is a normalized collection of cell IDs.
	CellUnion = cell.Union

	// Point is a point on the unit sphere.
	Point = cell.Point

	// Shape is a collection of edges that can be added to a shape index.
	Shape = shapeindex.Shape

	// Region is anything that can be approximated by a covering.
	Region = coverer.Region
)

// CellGo bundles a shape index and a region coverer behind a single facade
// with structured logging and metrics.
type CellGo struct {
	index   *shapeindex.ShapeIndex
	coverer *coverer.RegionCoverer
	metrics MetricsCollector
	logger  *Logger
}

// New creates a new CellGo instance.
//
// Example:
//
//	cg, err := cellgo.New(
//	    cellgo.WithMaxCells(16),
//	    cellgo.WithLevelRange(4, 20),
//	)
func New(optFns ...Option) (*CellGo, error) {
	opts := applyOptions(optFns)

	if opts.maxCells <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxCells, opts.maxCells)
	}
	if opts.minLevel < 0 || opts.maxLevel > cell.MaxLevel || opts.minLevel > opts.maxLevel {
		return nil, &ErrInvalidLevelRange{Min: opts.minLevel, Max: opts.maxLevel}
	}

	rc := coverer.NewRegionCoverer()
	rc.MinLevel = opts.minLevel
	rc.MaxLevel = opts.maxLevel
	rc.LevelMod = opts.levelMod
	rc.MaxCells = opts.maxCells

	return &CellGo{
		index: shapeindex.NewShapeIndex(
			shapeindex.WithMaxEdgesPerCell(opts.maxEdgesPerCell),
			shapeindex.WithLogger(opts.logger.Logger),
		),
		coverer: rc,
		metrics: opts.metricsCollector,
		logger:  opts.logger,
	}, nil
}

// Index returns the underlying shape index for advanced use, such as
// iterating index cells directly.
func (cg *CellGo) Index() *shapeindex.ShapeIndex {
	return cg.index
}

// AddShape adds the given shape to the index and returns its shape ID.
// The index is not rebuilt until the next query or an explicit Build.
func (cg *CellGo) AddShape(ctx context.Context, shape Shape) int32 {
	start := time.Now()
	id := cg.index.Add(shape)
	cg.metrics.RecordShapeAdd(time.Since(start))
	cg.logger.LogShapeAdd(ctx, id, shape.NumEdges())
	return id
}

// RemoveShape removes the given shape from the index. Removing a shape that
// is not in the index is a no-op.
func (cg *CellGo) RemoveShape(ctx context.Context, shape Shape) {
	start := time.Now()
	cg.index.Remove(shape)
	cg.metrics.RecordShapeRemove(time.Since(start))
	cg.logger.LogShapeRemove(ctx, shape.NumEdges())
}

// Build applies all pending index updates eagerly. Calling Build is
// optional; queries trigger a build automatically.
func (cg *CellGo) Build(ctx context.Context) {
	start := time.Now()
	cg.index.Build()
	cg.metrics.RecordIndexBuild(cg.index.Len(), cg.index.NumEdges(), time.Since(start))
	cg.logger.LogIndexBuild(ctx, cg.index.Len(), cg.index.NumEdges())
}

// ContainsPoint reports whether the given point is contained by any
// two-dimensional shape in the index.
func (cg *CellGo) ContainsPoint(ctx context.Context, p Point) bool {
	start := time.Now()
	contained := cg.Region().ContainsPoint(p)
	cg.metrics.RecordContains(time.Since(start), contained)
	cg.logger.LogContains(ctx, contained)
	return contained
}

// Region returns a Region view of the indexed geometry. The returned value
// is not safe for concurrent use; create one per goroutine.
func (cg *CellGo) Region() *ShapeIndexRegion {
	return NewShapeIndexRegion(cg.index)
}

// Covering approximates the given region as a union of cells, subject to
// the configured MaxCells, level range and level mod constraints.
func (cg *CellGo) Covering(ctx context.Context, region Region) (CellUnion, error) {
	start := time.Now()

	if region == nil {
		cg.metrics.RecordCovering(0, time.Since(start), ErrNilRegion)
		cg.logger.LogCovering(ctx, cg.coverer.MaxCells, 0, ErrNilRegion)
		return nil, ErrNilRegion
	}

	covering := cg.coverer.Covering(region)
	cg.metrics.RecordCovering(len(covering), time.Since(start), nil)
	cg.logger.LogCovering(ctx, cg.coverer.MaxCells, len(covering), nil)
	return covering, nil
}

// InteriorCovering approximates the region by cells entirely contained
// within it.
func (cg *CellGo) InteriorCovering(ctx context.Context, region Region) (CellUnion, error) {
	start := time.Now()

	if region == nil {
		cg.metrics.RecordCovering(0, time.Since(start), ErrNilRegion)
		return nil, ErrNilRegion
	}

	covering := cg.coverer.InteriorCovering(region)
	cg.metrics.RecordCovering(len(covering), time.Since(start), nil)
	cg.logger.LogCovering(ctx, cg.coverer.MaxCells, len(covering), nil)
	return covering, nil
}

// FastCovering returns a rough covering that satisfies only the level mod
// constraint. It is much faster than Covering and is suitable as a
// pre-filter before exact intersection tests.
func (cg *CellGo) FastCovering(region Region) CellUnion {
	return cg.coverer.FastCovering(region)
}

// CoveringTokens approximates the region and returns the covering as cell
// tokens, the form typically stored in databases and sent over the wire.
func (cg *CellGo) CoveringTokens(ctx context.Context, region Region) ([]string, error) {
	covering, err := cg.Covering(ctx, region)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, len(covering))
	for i, id := range covering {
		tokens[i] = id.Token()
	}
	return tokens, nil
}

// CoverAll computes coverings for multiple regions concurrently. Results
// are returned in input order. If the context is canceled, the first error
// encountered is returned.
func (cg *CellGo) CoverAll(ctx context.Context, regions []Region) ([]CellUnion, error) {
	coverings := make([]CellUnion, len(regions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, region := range regions {
		i, region := i, region
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			covering, err := cg.Covering(ctx, region)
			if err != nil {
				return fmt.Errorf("region %d: %w", i, err)
			}
			coverings[i] = covering
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return coverings, nil
}

// CellIDFromToken parses a cell token. Unlike cell.FromToken, malformed
// tokens are reported as errors instead of sentinel values.
func CellIDFromToken(token string) (CellID, error) {
	id := cell.FromToken(token)
	if !id.IsValid() {
		return 0, &ErrInvalidToken{Token: token}
	}
	return id, nil
}

// CellIDFromUint64 validates a raw 64-bit value as a cell ID.
func CellIDFromUint64(v uint64) (CellID, error) {
	id := cell.ID(v)
	if !id.IsValid() {
		return 0, &ErrInvalidCellID{ID: id}
	}
	return id, nil
}

// UnionFromTokens parses a list of cell tokens into a normalized CellUnion.
func UnionFromTokens(tokens []string) (CellUnion, error) {
	ids := make([]cell.ID, 0, len(tokens))
	for _, token := range tokens {
		id, err := CellIDFromToken(token)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	u := cell.Union(ids)
	u.Normalize()
	return u, nil
}
