// Package testutil provides shared helpers for tests and benchmarks.
//
// It includes a seeded, thread-safe random number generator with
// geometry-aware helpers (random points on the sphere, random cell IDs)
// and generators for regular loops used as polygon fixtures.
package testutil
