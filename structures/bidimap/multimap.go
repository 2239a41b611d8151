package bidimap

import (
	"sync"

	"github.com/saylorsolutions/busx/structures/set"
	"github.com/saylorsolutions/busx/syncx"
)

// MultiMap is a generic, many-to-many, bidirectional, concurrency safe map between key and value.
// The keys and values are stored twice for each association between one key and one value, once for each related key and set.
// With many associations, this structure can result in a quadratic increase in memory usage, but lookups will remain O(1).
//
// Keys and values that lose their last association are removed entirely, so [MultiMap.HasKey] and [MultiMap.HasValue] reflect live associations only.
type MultiMap[K comparable, V comparable] struct {
	mux  sync.Mutex
	ktov map[K]set.Set[V]
	vtok map[V]set.Set[K]
}

// NewMulti creates a new [MultiMap] and initializes the internal maps.
// This isn't strictly required, because non-nil instances will be initialized upon first use anyway.
func NewMulti[K comparable, V comparable]() *MultiMap[K, V] {
	mm := new(MultiMap[K, V])
	syncx.LockFunc(&mm.mux, mm.init)
	return mm
}

// init must be called with the lock held.
func (m *MultiMap[K, V]) init() {
	if m.ktov == nil {
		m.ktov = map[K]set.Set[V]{}
	}
	if m.vtok == nil {
		m.vtok = map[V]set.Set[K]{}
	}
}

func (m *MultiMap[K, V]) locked(fn func()) {
	if m == nil {
		panic("nil MultiMap")
	}
	syncx.LockFunc(&m.mux, func() {
		m.init()
		fn()
	})
}

// Add associates key with value, reporting whether the association is new.
func (m *MultiMap[K, V]) Add(key K, value V) bool {
	var added bool
	m.locked(func() {
		if m.ktov[key].Has(value) {
			return
		}
		m.ktov[key] = m.ktov[key].Add(value)
		m.vtok[value] = m.vtok[value].Add(key)
		added = true
	})
	return added
}

func (m *MultiMap[K, V]) AddValues(key K, value V, others ...V) {
	m.locked(func() {
		for _, v := range append([]V{value}, others...) {
			m.ktov[key] = m.ktov[key].Add(v)
			m.vtok[v] = m.vtok[v].Add(key)
		}
	})
}

func (m *MultiMap[K, V]) AddKeys(value V, key K, others ...K) {
	m.locked(func() {
		for _, k := range append([]K{key}, others...) {
			m.vtok[value] = m.vtok[value].Add(k)
			m.ktov[k] = m.ktov[k].Add(value)
		}
	})
}

// Has reports whether key and value are associated.
func (m *MultiMap[K, V]) Has(key K, value V) bool {
	var has bool
	m.locked(func() {
		has = m.ktov[key].Has(value)
	})
	return has
}

// Remove removes a single association, reporting whether it existed.
func (m *MultiMap[K, V]) Remove(key K, value V) bool {
	var removed bool
	m.locked(func() {
		if !m.ktov[key].Has(value) {
			return
		}
		m.unlink(key, value)
		removed = true
	})
	return removed
}

// RemoveKey removes every association of key, returning the values it was associated with.
// The values will not be in a consistent order.
func (m *MultiMap[K, V]) RemoveKey(key K) []V {
	var values []V
	m.locked(func() {
		values = m.ktov[key].Slice()
		for _, v := range values {
			m.unlink(key, v)
		}
	})
	return values
}

// RemoveValue removes every association of value, returning the keys it was associated with.
// The keys will not be in a consistent order.
func (m *MultiMap[K, V]) RemoveValue(value V) []K {
	var keys []K
	m.locked(func() {
		keys = m.vtok[value].Slice()
		for _, k := range keys {
			m.unlink(k, value)
		}
	})
	return keys
}

func (m *MultiMap[K, V]) unlink(key K, value V) {
	if vals := m.ktov[key].Remove(value); len(vals) == 0 {
		delete(m.ktov, key)
	}
	if keys := m.vtok[value].Remove(key); len(keys) == 0 {
		delete(m.vtok, value)
	}
}

// Clear removes every association.
func (m *MultiMap[K, V]) Clear() {
	m.locked(func() {
		m.ktov = nil
		m.vtok = nil
		m.init()
	})
}

// KeyLen returns the number of keys with at least one association.
func (m *MultiMap[K, V]) KeyLen() int {
	var n int
	m.locked(func() {
		n = len(m.ktov)
	})
	return n
}

// GetValuesOk will return a slice of values associated with the key, if it exists.
func (m *MultiMap[K, V]) GetValuesOk(key K) ([]V, bool) {
	var vals []V
	m.locked(func() {
		vals = m.ktov[key].Slice()
	})
	return vals, len(vals) > 0
}

// GetValues will return a slice of values associated with the given key.
// The values will not be in a consistent order.
func (m *MultiMap[K, V]) GetValues(key K) []V {
	vs, _ := m.GetValuesOk(key)
	return vs
}

// GetValueSet will return a copy of the underlying value set associated with the given key.
func (m *MultiMap[K, V]) GetValueSet(key K) set.Set[V] {
	var vals set.Set[V]
	m.locked(func() {
		vals = m.ktov[key].Copy()
	})
	return vals
}

func (m *MultiMap[K, V]) HasValue(value V) bool {
	_, ok := m.GetKeysOk(value)
	return ok
}

// GetKeysOk will return a slice of keys associated with the value, if it exists.
func (m *MultiMap[K, V]) GetKeysOk(value V) ([]K, bool) {
	var keys []K
	m.locked(func() {
		keys = m.vtok[value].Slice()
	})
	return keys, len(keys) > 0
}

// GetKeys will return a slice of keys associated with the given value.
// The keys will not be in a consistent order.
func (m *MultiMap[K, V]) GetKeys(value V) []K {
	ks, _ := m.GetKeysOk(value)
	return ks
}

func (m *MultiMap[K, V]) HasKey(key K) bool {
	_, ok := m.GetValuesOk(key)
	return ok
}
