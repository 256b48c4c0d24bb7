// Package cellgo provides a spherical-geometry spatial index for Go.
//
// Cellgo decomposes the unit sphere into a hierarchy of cells derived from
// a space-filling curve, and builds on that decomposition to index point,
// polyline and polygon geometry and to approximate arbitrary regions as
// unions of cells.
//
// # Quick Start
//
//	ctx := context.Background()
//	cg := cellgo.New()
//
//	// Index a polygon.
//	loop := shapeindex.LaxLoopFromPoints(vertices)
//	cg.AddShape(ctx, loop)
//
//	// Point-in-polygon query.
//	ok := cg.ContainsPoint(ctx, p)
//
//	// Approximate a region by at most 8 cells.
//	covering, _ := cg.Covering(ctx, region)
//
// # Cell Hierarchy
//
// The hierarchy starts with six top-level faces, each subdivided recursively
// through 30 levels. Every cell has a 64-bit ID that encodes its position
// along the space-filling curve, so sorted ID order is spatial order:
//
//	id := cell.FromPoint(p)
//	token := id.Token()          // compact string form
//	parent := id.Parent(10)      // coarser ancestor
//
// # Coverings
//
// RegionCoverer approximates any region implementing ContainsCell,
// IntersectsCell and CellUnionBound as a normalized union of cells, subject
// to MaxCells, level-range and level-mod constraints:
//
//	cg := cellgo.New(
//	    cellgo.WithMaxCells(16),
//	    cellgo.WithLevelRange(4, 20),
//	)
//	covering, _ := cg.Covering(ctx, region)
//
// # Shape Index
//
// ShapeIndex stores collections of shapes and answers containment and
// intersection queries in logarithmic time. Index construction is lazy:
// shapes are queued on Add and the index is built on first query, or
// eagerly via Build. Shapes may be added and removed incrementally.
//
// # Key Features
//
//   - 64-bit hierarchical cell IDs with exact token round-trips
//   - Lazily built, incrementally updatable shape index
//   - Region coverings with min/max level and cell-count control
//   - Index-backed region adapter for covering indexed geometry
//   - Structured logging and pluggable metrics collection
package cellgo
