package model

import "sort"

// Set is an unordered set of strings.
type Set map[string]struct{}

// NewSet builds a set from the non-empty values.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts v unless it is empty.
func (s Set) Add(v string) {
	if v == "" {
		return
	}
	s[v] = struct{}{}
}

// Has reports whether v is a member.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of members; nil sets are empty.
func (s Set) Len() int {
	return len(s)
}

// IntersectionSize counts members present in both sets.
func (s Set) IntersectionSize(other Set) int {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for v := range small {
		if large.Has(v) {
			n++
		}
	}
	return n
}

// Union returns a new set holding the members of both.
func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	for v := range s {
		out[v] = struct{}{}
	}
	for v := range other {
		out[v] = struct{}{}
	}
	return out
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
