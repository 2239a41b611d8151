// Package set provides a map backed [Set] used for the association tables in this module.
package set

import (
	"iter"
	"maps"
	"slices"
)

// Set is an unordered collection of unique values.
// A nil Set is empty and may be read from, and the mutating methods return the Set to use afterward, like append.
type Set[T comparable] map[T]struct{}

// New creates a new [Set] from the given values.
// The returned [Set] will have no values if none are given.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts the given values, allocating the set if it's nil.
func (s Set[T]) Add(val T, others ...T) Set[T] {
	if s == nil {
		s = make(Set[T], 1+len(others))
	}
	s[val] = struct{}{}
	for _, v := range others {
		s[v] = struct{}{}
	}
	return s
}

// Remove deletes the given values.
// Removing from a nil set is a no-op that returns nil.
func (s Set[T]) Remove(val T, others ...T) Set[T] {
	delete(s, val)
	for _, v := range others {
		delete(s, v)
	}
	return s
}

func (s Set[T]) Has(val T) bool {
	_, ok := s[val]
	return ok
}

func (s Set[T]) Len() int {
	return len(s)
}

// All iterates the values in no particular order.
func (s Set[T]) All() iter.Seq[T] {
	return maps.Keys(s)
}

// Slice returns the values in no particular order, or nil if the set is empty.
func (s Set[T]) Slice() []T {
	if len(s) == 0 {
		return nil
	}
	return slices.AppendSeq(make([]T, 0, len(s)), s.All())
}

// Copy returns an independent copy of the set.
// The copy of an empty set is nil.
func (s Set[T]) Copy() Set[T] {
	if len(s) == 0 {
		return nil
	}
	return maps.Clone(s)
}
