package cellgo

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMaxCells is returned when the configured maximum cell count
	// is not positive.
	ErrInvalidMaxCells = errors.New("max cells must be positive")

	// ErrNilRegion is returned when a nil region is passed to a covering
	// operation.
	ErrNilRegion = errors.New("region must not be nil")
)

// ErrInvalidToken indicates a malformed cell ID token.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidToken struct {
	Token string
	cause error
}

func (e *ErrInvalidToken) Error() string {
	return fmt.Sprintf("invalid cell token: %q", e.Token)
}

func (e *ErrInvalidToken) Unwrap() error { return e.cause }

// ErrInvalidCellID indicates a cell ID that does not satisfy the validity
// invariants (valid face and level bit set).
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidCellID struct {
	ID    CellID
	cause error
}

func (e *ErrInvalidCellID) Error() string {
	return fmt.Sprintf("invalid cell ID: %d", uint64(e.ID))
}

func (e *ErrInvalidCellID) Unwrap() error { return e.cause }

// ErrInvalidLevelRange indicates a covering level range outside [0, MaxLevel]
// or with min exceeding max.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidLevelRange struct {
	Min   int
	Max   int
	cause error
}

func (e *ErrInvalidLevelRange) Error() string {
	return fmt.Sprintf("invalid level range: [%d, %d]", e.Min, e.Max)
}

func (e *ErrInvalidLevelRange) Unwrap() error { return e.cause }
