// Package epoch provides opaque execution-context epoch values used to
// partition memoization entries across incompatible global execution states.
// Advancing the process-wide epoch hides every entry keyed under earlier
// epochs without touching the tables themselves.
package epoch

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Epoch is an opaque, comparable execution-context marker.
type Epoch struct {
	id uuid.UUID
}

// Zero is the epoch of a process that never advanced. It compares equal to
// itself across construction sites.
func Zero() Epoch {
	return Epoch{}
}

// New returns a fresh epoch unequal to every other epoch ever created.
func New() Epoch {
	return Epoch{id: uuid.New()}
}

func (e Epoch) String() string {
	return e.id.String()
}

var current atomic.Pointer[Epoch]

// Current returns the process-wide epoch.
func Current() Epoch {
	if p := current.Load(); p != nil {
		return *p
	}
	return Zero()
}

// Advance replaces the process-wide epoch with a fresh one and returns it.
// Call it after a global-state change that invalidates previously cached
// computations.
func Advance() Epoch {
	next := New()
	current.Store(&next)
	return next
}
