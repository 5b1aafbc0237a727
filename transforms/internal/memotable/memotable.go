// Package memotable provides a bounded, path-keyed memo table: values are
// stored under variable-length sequences of comparable keys, laid out as a
// trie of sync.Maps. When the table fills up it rotates generations, so the
// oldest entries fall away two generations later instead of growing without
// bound.
package memotable

import (
	"sync"
	"sync/atomic"
)

type Table[V any] struct {
	gens    [2]*sync.Map
	headIdx uint32
	size    atomic.Uint32
	maxSize uint32
}

// New returns an empty table that rotates after maxSize stores.
// Keys handed to Load/Store must be comparable; the callers canonicalize
// Stringers to their string form before reaching this package.
func New[V any](maxSize uint32) *Table[V] {
	if maxSize == 0 {
		panic("memotable: maxSize should be greater than 0")
	}
	return &Table[V]{
		gens:    [2]*sync.Map{{}, {}},
		maxSize: maxSize,
	}
}

// Load looks a key path up in the current generation, falling back to the
// previous one.
func (t *Table[V]) Load(path []any) (V, bool) {
	headIdx := t.headIdx
	m, k := t.traverse(t.gens[headIdx], path)
	v, ok := m.Load(k)
	if !ok {
		m, k = t.traverse(t.gens[1-headIdx], path)
		v, ok = m.Load(k)
		if !ok {
			var zero V
			return zero, false
		}
	}
	return v.(V), true
}

// Store writes a value under a key path, rotating generations if the
// current one is full.
func (t *Table[V]) Store(path []any, value V) {
	if swapped := t.size.CompareAndSwap(t.maxSize, 0); swapped {
		t.headIdx = 1 - t.headIdx
		t.gens[t.headIdx] = &sync.Map{}
	}
	m, k := t.traverse(t.gens[t.headIdx], path)
	m.Store(k, value)
	t.size.Add(1)
}

func (t *Table[V]) traverse(target *sync.Map, path []any) (*sync.Map, any) {
	length := len(path)
	if length == 0 {
		panic("memotable: empty key path")
	}

	for _, k := range path[:length-1] {
		v, _ := target.LoadOrStore(k, &sync.Map{})
		target = v.(*sync.Map)
	}
	return target, path[length-1]
}
