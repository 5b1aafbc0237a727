// Package slot provides single-assignment storage cells used to carry one
// auxiliary value out of a transformation to the caller of the whole stack.
//
// A cell transitions Empty -> Occupied exactly once per logical call. The
// Equal variant relaxes the single-write rule to an idempotent re-store of a
// structurally equal value. Cells are not designed for concurrent writers:
// safe only in a single goroutine, NEVER share across goroutines.
package slot

import (
	"errors"
	"fmt"
)

var (
	ErrOccupied = errors.New("slot occupied")
	ErrConflict = errors.New("slot occupied with not-equal value")
	ErrEmpty    = errors.New("slot empty")
)

// Equatable lets a stored value define its own structural equality.
// Values that do not implement it are compared with ==, which requires them
// to be comparable.
type Equatable interface {
	Equals(i any) bool
}

// Slot is a single-assignment storage cell for one value.
type Slot interface {
	// Store writes the value. It fails if the cell already holds one,
	// except for the Equal variant's idempotent re-store.
	Store(val any) error
	// Value returns the held value, or ErrEmpty if never stored.
	Value() (any, error)
	// Occupied reports whether a value has been stored.
	Occupied() bool
	// Reset forces the cell back to empty. It breaks the single-assignment
	// guarantee relied upon elsewhere; call it only in exceptional
	// circumstances (e.g. debugging).
	Reset()
}

// Single is the strict single-assignment cell.
type Single struct {
	val      any
	occupied bool
}

var _ Slot = &Single{}

// New returns an empty single-assignment cell.
func New() *Single {
	return &Single{}
}

func (s *Single) Store(val any) error {
	if s.occupied {
		return fmt.Errorf("%w: second store", ErrOccupied)
	}
	s.val = val
	s.occupied = true
	return nil
}

func (s *Single) Value() (any, error) {
	if !s.occupied {
		return nil, ErrEmpty
	}
	return s.val, nil
}

func (s *Single) Occupied() bool { return s.occupied }

func (s *Single) Reset() {
	s.val = nil
	s.occupied = false
}

// Equal is a cell that tolerates re-storing a structurally equal value.
type Equal struct {
	cell Single
}

var _ Slot = &Equal{}

// NewEqual returns an empty equality-tolerant cell.
func NewEqual() *Equal {
	return &Equal{}
}

func (s *Equal) Store(val any) error {
	if err := s.cell.Store(val); err != nil {
		if equalValues(s.cell.val, val) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrConflict, val)
	}
	return nil
}

func (s *Equal) Value() (any, error) { return s.cell.Value() }

func (s *Equal) Occupied() bool { return s.cell.Occupied() }

func (s *Equal) Reset() { s.cell.Reset() }

// equalValues prefers the value's own Equals over ==. Falling through to ==
// requires both values to be comparable; that is a hard precondition on
// anything stored in a cell.
func equalValues(held, val any) bool {
	if eq, ok := held.(Equatable); ok {
		return eq.Equals(val)
	}
	return held == val
}
