// Package scope implements the per-type, per-call-frame wire-memory engine
// described in spec.md §4.B: a sorted list of disjoint wire Ranges plus the
// assigned/active SkipLists that track which indices hold a live value.
//
// Scope is generic over the backend's wire value representation V so that a
// field backend, a ring backend, and a plugin-defined wire type can each
// instantiate their own Scope[V] while sharing this one implementation; see
// internal/interpreter for how the interpreter erases V behind a common
// dispatch interface once it crosses a type boundary.
package scope

import (
	"zkir/internal/errors"
	"zkir/internal/skiplist"
)

// rangeDefaultSize is the initial allocation for a growable range created by
// assigning a single wire outside any existing allocation. It must be > 1 so
// the 1.5x growth factor below actually grows.
const rangeDefaultSize = 4

// Error wraps one of the scope error codes from spec.md §7 as a Go error.
type Error struct {
	Code string
}

func (e *Error) Error() string { return errors.GetErrorDescription(e.Code) }

func scopeErr(code string) *Error { return &Error{Code: code} }

var (
	errAlreadyExists     = scopeErr(errors.ErrorAlreadyExists)
	errNotAssigned       = scopeErr(errors.ErrorNotAssigned)
	errDeleted           = scopeErr(errors.ErrorDeleted)
	errOutOfMem          = scopeErr(errors.ErrorOutOfMem)
	errCannotDeleteRemap = scopeErr(errors.ErrorCannotDeleteRemap)
	errUnmatchedDelete   = scopeErr(errors.ErrorUnmatchedDelete)
	errDiscontiguous     = scopeErr(errors.ErrorDiscontiguous)
	errInvalidRange      = scopeErr(errors.ErrorInvalidRange)
)

// maxUint64 avoids importing math just for one constant in overflow checks.
const maxUint64 = ^uint64(0)

// Range owns a contiguous allocation of backend wire values for indices
// [Offset, Offset+len(Slots)).
type Range[V any] struct {
	Offset uint64
	Slots  []V

	// NewRange marks an allocation made by an explicit @new directive; its
	// extent is immutable once created (spec.md §3 invariant 5).
	NewRange bool
	// Remapped marks a range borrowed from the caller via map_outputs /
	// map_inputs; the callee may write into it but never frees it.
	Remapped bool
	// CanGrow marks an implicit range created lazily by assign(); it may be
	// extended in place as later assigns land just past its end.
	CanGrow bool
}

// Last returns the inclusive last index covered by this range.
func (r *Range[V]) Last() uint64 { return r.Offset + uint64(len(r.Slots)) - 1 }

func (r *Range[V]) contains(wire uint64) bool {
	return wire >= r.Offset && wire <= r.Last()
}

func (r *Range[V]) covers(first, last uint64) bool {
	return first >= r.Offset && last <= r.Last()
}

// Scope holds, for one declared type and one call frame, the sorted Ranges
// backing every wire the frame has touched, plus assigned/active bookkeeping.
type Scope[V any] struct {
	ranges []*Range[V]

	// Assigned records every index ever written in this scope. Active is
	// the subset that has not since been deleted (spec.md §3 invariant 2).
	Assigned skiplist.SkipList
	Active   skiplist.SkipList

	// FirstLocal is the watermark below which indices are remapped from the
	// caller and may not be deleted or reassigned.
	FirstLocal uint64
}

// New creates an empty scope for a fresh call frame.
func New[V any]() *Scope[V] { return &Scope[V]{} }

// locate returns the index into s.ranges of the range that contains wire, or
// the index at which a new range covering wire would be inserted, and
// whether an exact containing range was found.
func (s *Scope[V]) locate(wire uint64) (idx int, found bool) {
	lo, hi := 0, len(s.ranges)
	for lo < hi {
		mid := (lo + hi) / 2
		if s.ranges[mid].Last() < wire {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(s.ranges) && s.ranges[lo].contains(wire) {
		return lo, true
	}
	return lo, false
}

// rangeAt returns the range containing wire, or nil.
func (s *Scope[V]) rangeAt(wire uint64) *Range[V] {
	idx, found := s.locate(wire)
	if !found {
		return nil
	}
	return s.ranges[idx]
}

// extentOverlaps reports whether [first,last] intersects any existing range.
func (s *Scope[V]) extentOverlaps(first, last uint64) bool {
	idx, _ := s.locate(first)
	if idx < len(s.ranges) && s.ranges[idx].Offset <= last {
		return true
	}
	if idx > 0 && s.ranges[idx-1].Last() >= first {
		return true
	}
	return false
}

// insertRangeAt inserts r into s.ranges keeping the slice sorted by offset.
func (s *Scope[V]) insertRangeAt(r *Range[V]) {
	idx, _ := s.locate(r.Offset)
	s.ranges = append(s.ranges, nil)
	copy(s.ranges[idx+1:], s.ranges[idx:])
	s.ranges[idx] = r
}

func (s *Scope[V]) removeRangeAt(idx int) {
	s.ranges = append(s.ranges[:idx], s.ranges[idx+1:]...)
}

// NewRangeAlloc allocates a fresh, explicitly-sized Range flagged NewRange,
// for a @new directive. It fails with AlreadyExists if [first,last] overlaps
// any existing range (remapped or otherwise) or lies below FirstLocal.
func (s *Scope[V]) NewRangeAlloc(first, last uint64) ([]V, error) {
	if first > last {
		return nil, errInvalidRange
	}
	if first < s.FirstLocal {
		return nil, errAlreadyExists
	}
	if s.extentOverlaps(first, last) {
		return nil, errAlreadyExists
	}
	if s.Assigned.HasOverlap(first, last) {
		return nil, errAlreadyExists
	}

	length := last - first + 1
	if length == 0 {
		// length computed as last-first+1 wrapped to 0: first=0,last=maxUint64.
		return nil, errOutOfMem
	}

	r := &Range[V]{Offset: first, Slots: make([]V, length), NewRange: true}
	s.insertRangeAt(r)
	return r.Slots, nil
}

// Assign implements spec.md §4.B's assign() policy: reuse an existing
// range's slot if the wire falls inside one, grow an adjacent growable range
// by up to 1.5x if that would cover the wire without colliding with the
// next range, or otherwise allocate a fresh growable range.
func (s *Scope[V]) Assign(wire uint64) (*V, error) {
	if s.Active.Has(wire) {
		return nil, errAlreadyExists
	}

	if idx, found := s.locate(wire); found {
		r := s.ranges[idx]
		s.Assigned.Insert(wire)
		s.Active.Insert(wire)
		return &r.Slots[wire-r.Offset], nil
	} else if r := s.growableBefore(wire); r != nil {
		if err := s.growRange(r, wire); err != nil {
			return nil, err
		}
		s.Assigned.Insert(wire)
		s.Active.Insert(wire)
		return &r.Slots[wire-r.Offset], nil
	}

	length := uint64(rangeDefaultSize)
	canGrow := true
	if maxUint64-length < wire {
		length = 1
		canGrow = false
	}
	// Cap against the next range so the fresh allocation doesn't overlap it.
	if idx, _ := s.locate(wire); idx < len(s.ranges) {
		next := s.ranges[idx]
		if wire+length > next.Offset {
			length = next.Offset - wire
			canGrow = false
		}
	}

	r := &Range[V]{Offset: wire, Slots: make([]V, length), CanGrow: canGrow}
	s.insertRangeAt(r)
	s.Assigned.Insert(wire)
	s.Active.Insert(wire)
	return &r.Slots[0], nil
}

// growableBefore returns the growable range immediately preceding wire, if
// extending it (by at most 1.5x) could reach wire without colliding with the
// following range.
func (s *Scope[V]) growableBefore(wire uint64) *Range[V] {
	idx, _ := s.locate(wire)
	if idx == 0 {
		return nil
	}
	r := s.ranges[idx-1]
	if !r.CanGrow || wire <= r.Last() {
		return nil
	}
	growth := uint64(len(r.Slots)) + uint64(len(r.Slots))>>1
	growthLast := r.Offset + growth
	if growthLast < r.Offset { // overflow
		growthLast = maxUint64
	}
	if wire > growthLast {
		return nil
	}
	if idx < len(s.ranges) && growthLast >= s.ranges[idx].Offset {
		growthLast = s.ranges[idx].Offset - 1
	}
	if wire > growthLast {
		return nil
	}
	return r
}

func (s *Scope[V]) growRange(r *Range[V], wire uint64) error {
	idx, _ := s.locate(r.Offset)
	newLen := wire - r.Offset + 1
	if idx+1 < len(s.ranges) && s.ranges[idx+1].Offset-r.Offset <= newLen {
		newLen = s.ranges[idx+1].Offset - r.Offset
		r.CanGrow = false
	}
	grown := make([]V, newLen)
	copy(grown, r.Slots)
	r.Slots = grown
	return nil
}

// Retrieve returns the live slot at wire, or an error if it was never
// assigned or has since been deleted.
func (s *Scope[V]) Retrieve(wire uint64) (*V, error) {
	if !s.Active.Has(wire) {
		if s.Assigned.Has(wire) {
			return nil, errDeleted
		}
		return nil, errNotAssigned
	}
	r := s.rangeAt(wire)
	return &r.Slots[wire-r.Offset], nil
}

// FindInputs returns the live slots for [first,last], requiring the whole
// range be active and backed by a single NewRange or Remapped range (or be a
// single-wire read of any range kind).
func (s *Scope[V]) FindInputs(first, last uint64) ([]V, error) {
	if first > last {
		return nil, errInvalidRange
	}
	if !s.Active.HasAll(first, last) {
		if s.Assigned.HasAll(first, last) {
			return nil, errDeleted
		}
		return nil, errNotAssigned
	}
	r := s.rangeAt(first)
	if r == nil || !r.covers(first, last) {
		return nil, errDiscontiguous
	}
	if first == last || r.NewRange || r.Remapped {
		return r.Slots[first-r.Offset : last-r.Offset+1], nil
	}
	return nil, errDiscontiguous
}

// FindOutputs returns writable slots for [first,last]. If the range already
// fits inside a single NewRange/Remapped range, that slice is reused;
// otherwise a fresh NewRange allocation is made (as in NewRangeAlloc).
// It does not mark assigned/active; the caller does so once values are
// constructed.
func (s *Scope[V]) FindOutputs(first, last uint64) ([]V, error) {
	if first > last {
		return nil, errInvalidRange
	}
	if s.Assigned.HasOverlap(first, last) {
		return nil, errAlreadyExists
	}
	if r := s.rangeAt(first); r != nil && (r.NewRange || r.Remapped) && r.covers(first, last) {
		return r.Slots[first-r.Offset : last-r.Offset+1], nil
	}
	return s.NewRangeAlloc(first, last)
}

// MarkAssigned records [first,last] as assigned and active, for use after a
// caller of FindOutputs has constructed the values.
func (s *Scope[V]) MarkAssigned(first, last uint64) {
	s.Assigned.InsertRange(first, last)
	s.Active.InsertRange(first, last)
}

// MapOutputs appends a Remapped range at FirstLocal pointing at caller
// memory (extern) and advances FirstLocal past it. Neither Assigned nor
// Active is updated; the callee is expected to write them via MarkAssigned.
func (s *Scope[V]) MapOutputs(extern []V) uint64 {
	first := s.FirstLocal
	r := &Range[V]{Offset: first, Slots: extern, Remapped: true}
	s.insertRangeAt(r)
	s.FirstLocal += uint64(len(extern))
	return first
}

// MapInputs is MapOutputs plus marking the new indices assigned and active.
func (s *Scope[V]) MapInputs(extern []V) uint64 {
	first := s.MapOutputs(extern)
	if len(extern) > 0 {
		last := first + uint64(len(extern)) - 1
		s.Assigned.InsertRange(first, last)
		s.Active.InsertRange(first, last)
	}
	return first
}

// DeleteRange deletes [first,last], which must be fully active and not below
// FirstLocal. destroy, if non-nil, is invoked once per deleted wire index
// before it is dropped from Active, in ascending order. A delete that spans
// an entire NewRange removes that Range; a delete within a growable range
// only clears the bookkeeping bits and disables further growth; attempting
// to delete part (but not all) of a NewRange fails with UnmatchedDelete.
func (s *Scope[V]) DeleteRange(first, last uint64, destroy func(wire uint64)) error {
	if first > last {
		return errInvalidRange
	}
	if first < s.FirstLocal {
		return errCannotDeleteRemap
	}
	if !s.Active.HasAll(first, last) {
		if s.Assigned.HasAll(first, last) {
			return errDeleted
		}
		return errNotAssigned
	}

	cursor := first
	for cursor <= last {
		idx, found := s.locate(cursor)
		if !found {
			return errNotAssigned
		}
		r := s.ranges[idx]

		var segLast uint64
		if r.NewRange {
			if first != r.Offset || last != r.Last() {
				return errUnmatchedDelete
			}
			segLast = last
		} else {
			segLast = r.Last()
			if segLast > last {
				segLast = last
			}
		}

		if destroy != nil {
			for w := cursor; w <= segLast; w++ {
				destroy(w)
			}
		}
		s.Active.RemoveRange(cursor, segLast)

		if r.NewRange {
			s.removeRangeAt(idx)
		} else {
			r.CanGrow = false
			if !s.Active.HasOverlap(r.Offset, r.Last()) {
				s.removeRangeAt(idx)
			}
		}

		if segLast == maxUint64 {
			break
		}
		cursor = segLast + 1
	}
	return nil
}

// Teardown invokes destroy once per active, non-remapped wire in this scope,
// in ascending order, as happens when a call frame's scope is popped.
func (s *Scope[V]) Teardown(destroy func(wire uint64)) {
	if destroy == nil {
		return
	}
	for _, r := range s.ranges {
		if r.Remapped {
			continue
		}
		s.Active.ForRange(r.Offset, r.Last(), func(first, last uint64) {
			for w := first; w <= last; w++ {
				destroy(w)
			}
		})
	}
}

// Ranges returns the current sorted ranges, for diagnostics and tests.
func (s *Scope[V]) Ranges() []*Range[V] {
	out := make([]*Range[V], len(s.ranges))
	copy(out, s.ranges)
	return out
}
