// Package skiplist implements the ordered sparse set of 64-bit wire indices
// used by every Scope: a list of disjoint, non-adjacent, merged intervals
// kept sorted by first-index. "Skip list" names the role it plays (quickly
// skipping past already-accounted-for ranges of indices) rather than the
// classic probabilistic data structure; the representation here is a plain
// sorted slice of intervals searched with binary search, which is the
// idiomatic Go shape for this access pattern.
package skiplist

import (
	"math"
	"sort"
)

// Interval is an inclusive, closed range [First, Last] of set members.
type Interval struct {
	First uint64
	Last  uint64
}

// SkipList is an ordered set of uint64 keys represented as merged intervals.
// The zero value is an empty set ready to use.
type SkipList struct {
	ranges []Interval
}

// Len returns the number of disjoint intervals currently stored.
func (s *SkipList) Len() int { return len(s.ranges) }

// Intervals returns the merged intervals in ascending order. The returned
// slice is owned by the caller's copy, not aliased to internal state.
func (s *SkipList) Intervals() []Interval {
	out := make([]Interval, len(s.ranges))
	copy(out, s.ranges)
	return out
}

// adjacentBefore reports whether last+1 == n without wrapping uint64.
func adjacentBefore(last, n uint64) bool {
	return last != math.MaxUint64 && last+1 == n
}

// locate returns the index of the first interval whose Last is >= n. If no
// such interval exists, it returns len(s.ranges).
func (s *SkipList) locate(n uint64) int {
	return sort.Search(len(s.ranges), func(i int) bool {
		return s.ranges[i].Last >= n
	})
}

// Has reports whether n is a member of the set.
func (s *SkipList) Has(n uint64) bool {
	i := s.locate(n)
	return i < len(s.ranges) && s.ranges[i].First <= n
}

// HasOverlap reports whether any member lies within [first, last].
func (s *SkipList) HasOverlap(first, last uint64) bool {
	if first > last {
		return false
	}
	i := s.locate(first)
	return i < len(s.ranges) && s.ranges[i].First <= last
}

// HasAll reports whether every index in [first, last] is a member.
func (s *SkipList) HasAll(first, last uint64) bool {
	if first > last {
		return false
	}
	i := s.locate(first)
	return i < len(s.ranges) && s.ranges[i].First <= first && s.ranges[i].Last >= last
}

// Insert adds n to the set. It returns false if n was already a member.
func (s *SkipList) Insert(n uint64) bool {
	return s.InsertRange(n, n)
}

// InsertRange adds every index in [first, last] to the set, merging with
// adjacent intervals so adjacency collapses. It returns false if first > last
// or if any index in the range is already a member.
func (s *SkipList) InsertRange(first, last uint64) bool {
	if first > last {
		return false
	}
	if s.HasOverlap(first, last) {
		return false
	}

	i := s.locate(first)

	merged := Interval{First: first, Last: last}
	lo, hi := i, i-1

	if i > 0 && adjacentBefore(s.ranges[i-1].Last, merged.First) {
		merged.First = s.ranges[i-1].First
		lo = i - 1
	}
	if i < len(s.ranges) && adjacentBefore(merged.Last, s.ranges[i].First) {
		merged.Last = s.ranges[i].Last
		hi = i
	}

	out := make([]Interval, 0, len(s.ranges)-(hi-lo+1)+1)
	out = append(out, s.ranges[:lo]...)
	out = append(out, merged)
	out = append(out, s.ranges[hi+1:]...)
	s.ranges = out
	return true
}

// Remove drops n from the set. It returns false if n was not a member.
func (s *SkipList) Remove(n uint64) bool {
	return s.RemoveRange(n, n)
}

// RemoveRange drops every index in [first, last] from the set, splitting
// intervals as needed. It returns false if first > last or if any index in
// the range is not a member.
func (s *SkipList) RemoveRange(first, last uint64) bool {
	if first > last {
		return false
	}
	if !s.HasAll(first, last) {
		return false
	}

	i := s.locate(first)
	r := s.ranges[i]

	var out []Interval
	out = append(out, s.ranges[:i]...)
	if r.First < first {
		out = append(out, Interval{First: r.First, Last: first - 1})
	}
	if r.Last > last {
		out = append(out, Interval{First: last + 1, Last: r.Last})
	}
	out = append(out, s.ranges[i+1:]...)
	s.ranges = out
	return true
}

// ForRange invokes f(first, last) once for each maximal sub-interval of
// [first, last] that is present in the set, in ascending order.
func (s *SkipList) ForRange(first, last uint64, f func(first, last uint64)) {
	if first > last {
		return
	}
	i := s.locate(first)
	for ; i < len(s.ranges); i++ {
		r := s.ranges[i]
		if r.First > last {
			return
		}
		lo := r.First
		if lo < first {
			lo = first
		}
		hi := r.Last
		if hi > last {
			hi = last
		}
		f(lo, hi)
		if r.Last >= last {
			return
		}
	}
}
