// Package idset holds finite sets of owner identifiers. A nil *Set means
// "no constraint"; an empty non-nil set means "match nothing".
package idset

import "sort"

// Set is a finite set of identifiers
type Set struct {
	m map[string]struct{}
}

// New creates a set holding ids
func New(ids ...string) *Set {
	s := &Set{m: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.m[id] = struct{}{}
	}
	return s
}

// Empty returns an explicit empty set
func Empty() *Set {
	return New()
}

// Add inserts id
func (s *Set) Add(id string) {
	s.m[id] = struct{}{}
}

// Has reports membership
func (s *Set) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.m[id]
	return ok
}

// Len returns the number of ids
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.m)
}

// IsEmpty reports whether a non-nil set holds nothing
func (s *Set) IsEmpty() bool {
	return s != nil && len(s.m) == 0
}

// Sorted returns the ids in ascending order
func (s *Set) Sorted() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.m))
	for id := range s.m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clone copies the set
func (s *Set) Clone() *Set {
	if s == nil {
		return nil
	}
	out := &Set{m: make(map[string]struct{}, len(s.m))}
	for id := range s.m {
		out.m[id] = struct{}{}
	}
	return out
}

// Union returns a new set with the ids of both sets
func (s *Set) Union(other *Set) *Set {
	out := s.Clone()
	if out == nil {
		out = Empty()
	}
	if other != nil {
		for id := range other.m {
			out.m[id] = struct{}{}
		}
	}
	return out
}

// Intersect returns a new set with the ids present in both sets.
// A nil operand is treated as unconstrained.
func (s *Set) Intersect(other *Set) *Set {
	switch {
	case s == nil:
		return other.Clone()
	case other == nil:
		return s.Clone()
	}
	small, large := s, other
	if large.Len() < small.Len() {
		small, large = large, small
	}
	out := Empty()
	for id := range small.m {
		if _, ok := large.m[id]; ok {
			out.m[id] = struct{}{}
		}
	}
	return out
}

// Equal reports whether both sets hold the same ids; two nil sets are equal
func (s *Set) Equal(other *Set) bool {
	if s == nil || other == nil {
		return s == nil && other == nil
	}
	if len(s.m) != len(other.m) {
		return false
	}
	for id := range s.m {
		if _, ok := other.m[id]; !ok {
			return false
		}
	}
	return true
}
