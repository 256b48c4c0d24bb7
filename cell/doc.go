// Package cell implements the hierarchical decomposition of the unit sphere
// into quadrilateral cells, identified by 64-bit IDs ordered along a Hilbert
// space-filling curve.
//
// The sphere is projected onto the six faces of a circumscribed cube, and
// each face is recursively subdivided into four children up to 30 levels
// deep. An ID packs the face number and the Hilbert curve position of a
// cell into a single comparable integer, so that cells that are close on
// the sphere tend to be numerically close, and containment and intersection
// between cells reduce to interval comparisons.
//
// The package also provides Cell, a materialized cell with its (u,v)
// bounding rectangle, Union, a normalized collection of IDs representing a
// region, and Metric, size measures for cells at each level.
package cell
