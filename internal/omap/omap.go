// Package omap implements small ordered-map helpers backing
// ElementMap's two sorted collections: mappedNames (keyed by
// MappedName's byte ordering) and each type bucket's children (keyed by
// an int exclusive upper bound, with upper_bound lookup).
//
// Both are a sorted slice plus binary search via the standard library's
// sort.Search, rather than a tree or skip list: ElementMap's own
// save/restore ordering requirement (§5: "mappedNames must be iterated
// in sorted order on save") is satisfied for free by a sorted slice,
// insertions are dominated by the cost of the geometry operations that
// trigger them (not a hot loop needing O(log n) insert), and nothing in
// the reference pack offers a general ordered map over an arbitrary
// Less-comparable key: the pack's only tree-shaped containers
// (gaissmai-bart, MetaCubeX-bart) are IP-prefix tries keyed on 8-bit
// strides, not general orderings.
package omap

import "sort"

// Map is an ordered map keyed by a comparable, ordered K via a
// caller-supplied less function. Build one with [New]: the zero Map has
// no less function, so it panics once a lookup or insert has to compare
// keys.
type Map[K any, V any] struct {
	less func(a, b K) bool
	keys []K
	vals []V
}

// New returns an empty Map ordered by less.
func New[K any, V any](less func(a, b K) bool) *Map[K, V] {
	return &Map[K, V]{less: less}
}

func (m *Map[K, V]) search(key K) int {
	return sort.Search(len(m.keys), func(i int) bool {
		return !m.less(m.keys[i], key)
	})
}

func (m *Map[K, V]) equal(a, b K) bool {
	return !m.less(a, b) && !m.less(b, a)
}

// Get returns the value stored for key, if any.
func (m *Map[K, V]) Get(key K) (V, bool) {
	i := m.search(key)
	if i < len(m.keys) && m.equal(m.keys[i], key) {
		return m.vals[i], true
	}
	var zero V
	return zero, false
}

// Set inserts or overwrites the value for key.
func (m *Map[K, V]) Set(key K, val V) {
	i := m.search(key)
	if i < len(m.keys) && m.equal(m.keys[i], key) {
		m.vals[i] = val
		return
	}
	m.keys = append(m.keys, key)
	copy(m.keys[i+1:], m.keys[i:])
	m.keys[i] = key

	var zero V
	m.vals = append(m.vals, zero)
	copy(m.vals[i+1:], m.vals[i:])
	m.vals[i] = val
}

// Delete removes key, reporting whether it was present.
func (m *Map[K, V]) Delete(key K) bool {
	i := m.search(key)
	if i >= len(m.keys) || !m.equal(m.keys[i], key) {
		return false
	}
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.vals = append(m.vals[:i], m.vals[i+1:]...)
	return true
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	return len(m.keys)
}

// UpperBound returns the first entry whose key is strictly greater than
// key — the Go analogue of C++'s std::map::upper_bound — and reports
// whether one exists.
func (m *Map[K, V]) UpperBound(key K) (K, V, bool) {
	i := m.search(key)
	for i < len(m.keys) && m.equal(m.keys[i], key) {
		i++
	}
	if i >= len(m.keys) {
		var zk K
		var zv V
		return zk, zv, false
	}
	return m.keys[i], m.vals[i], true
}

// Range calls f for every entry in ascending key order. Range stops
// early if f returns false.
func (m *Map[K, V]) Range(f func(key K, val V) bool) {
	for i := range m.keys {
		if !f(m.keys[i], m.vals[i]) {
			return
		}
	}
}

// Keys returns a copy of the keys in ascending order.
func (m *Map[K, V]) Keys() []K {
	cp := make([]K, len(m.keys))
	copy(cp, m.keys)
	return cp
}
