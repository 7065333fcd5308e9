package slicer

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// OffsetMap is a sorted, binary-searchable map keyed by byte offset. Unlike
// a plain map, iteration order matches key order, which the decompilation
// pipeline relies on to emit a scene's slices in ascending offset order.
type OffsetMap[K constraints.Ordered, V any] struct {
	entries []entry[K, V]
}

type entry[K constraints.Ordered, V any] struct {
	key K
	val V
}

// Set inserts or overwrites the value at key, preserving sort order.
func (m *OffsetMap[K, V]) Set(key K, val V) {
	i := m.search(key)
	if i < len(m.entries) && m.entries[i].key == key {
		m.entries[i].val = val
		return
	}
	m.entries = append(m.entries, entry[K, V]{})
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = entry[K, V]{key: key, val: val}
}

// Get returns the value at key and whether it was present.
func (m *OffsetMap[K, V]) Get(key K) (V, bool) {
	i := m.search(key)
	if i < len(m.entries) && m.entries[i].key == key {
		return m.entries[i].val, true
	}
	var zero V
	return zero, false
}

// Has reports whether key is present.
func (m *OffsetMap[K, V]) Has(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in ascending order.
func (m *OffsetMap[K, V]) Keys() []K {
	keys := make([]K, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.key
	}
	return keys
}

// Len returns the number of entries.
func (m *OffsetMap[K, V]) Len() int { return len(m.entries) }

// ForEach calls fn for every entry in ascending key order.
func (m *OffsetMap[K, V]) ForEach(fn func(key K, val V)) {
	for _, e := range m.entries {
		fn(e.key, e.val)
	}
}

func (m *OffsetMap[K, V]) search(key K) int {
	return sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].key >= key
	})
}
