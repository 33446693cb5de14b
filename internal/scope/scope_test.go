package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRangeRejectsOverlap(t *testing.T) {
	s := New[int]()
	_, err := s.NewRangeAlloc(10, 19)
	require.NoError(t, err)

	_, err = s.NewRangeAlloc(15, 24)
	assert.Equal(t, errAlreadyExists, err)

	_, err = s.NewRangeAlloc(20, 29)
	assert.NoError(t, err)
}

func TestNewRangeRejectsInvertedBounds(t *testing.T) {
	s := New[int]()
	_, err := s.NewRangeAlloc(9, 3)
	assert.Equal(t, errInvalidRange, err)
}

func TestNewRangeBelowFirstLocalIsRejected(t *testing.T) {
	s := New[int]()
	s.FirstLocal = 8
	_, err := s.NewRangeAlloc(0, 7)
	assert.Equal(t, errAlreadyExists, err)
}

func TestNewRangeRejectsReallocatingAnAssignedThenDeletedExtent(t *testing.T) {
	s := New[int]()
	_, err := s.NewRangeAlloc(0, 2)
	require.NoError(t, err)
	s.MarkAssigned(0, 2)
	require.NoError(t, s.DeleteRange(0, 2, nil))

	_, err = s.NewRangeAlloc(0, 2)
	assert.Equal(t, errAlreadyExists, err)
}

func TestAssignReusesExistingRangeSlot(t *testing.T) {
	s := New[int]()
	slots, err := s.NewRangeAlloc(0, 3)
	require.NoError(t, err)
	slots[2] = 42

	v, err := s.Assign(2)
	require.NoError(t, err)
	assert.Equal(t, 42, *v)
	assert.True(t, s.Active.Has(2))
}

func TestAssignAllocatesDefaultGrowableRangeOutsideAnyRange(t *testing.T) {
	s := New[int]()
	v, err := s.Assign(100)
	require.NoError(t, err)
	*v = 7

	r := s.rangeAt(100)
	require.NotNil(t, r)
	assert.True(t, r.CanGrow)
	assert.Equal(t, uint64(100), r.Offset)
	assert.Equal(t, rangeDefaultSize, len(r.Slots))
}

func TestAssignGrowsAnAdjacentGrowableRangeInPlace(t *testing.T) {
	s := New[int]()
	_, err := s.Assign(0)
	require.NoError(t, err)
	r := s.rangeAt(0)
	require.Len(t, r.Slots, rangeDefaultSize)

	_, err = s.Assign(rangeDefaultSize)
	require.NoError(t, err)

	assert.Same(t, r, s.rangeAt(0))
	assert.Greater(t, len(r.Slots), rangeDefaultSize)
	assert.True(t, s.Active.Has(rangeDefaultSize))
}

func TestAssignGrowthStopsAtNextRange(t *testing.T) {
	s := New[int]()
	_, err := s.Assign(0)
	require.NoError(t, err)
	_, err = s.NewRangeAlloc(5, 9)
	require.NoError(t, err)

	_, err = s.Assign(4)
	require.NoError(t, err)

	r := s.rangeAt(0)
	assert.Equal(t, uint64(4), r.Last())
	assert.False(t, r.CanGrow)
}

func TestAssignTwiceOnSameWireFails(t *testing.T) {
	s := New[int]()
	_, err := s.Assign(5)
	require.NoError(t, err)
	_, err = s.Assign(5)
	assert.Equal(t, errAlreadyExists, err)
}

func TestRetrieveDistinguishesUnassignedFromDeleted(t *testing.T) {
	s := New[int]()
	_, err := s.Retrieve(3)
	assert.Equal(t, errNotAssigned, err)

	_, err = s.Assign(3)
	require.NoError(t, err)
	_, err = s.Retrieve(3)
	assert.NoError(t, err)

	require.NoError(t, s.DeleteRange(3, 3, nil))
	_, err = s.Retrieve(3)
	assert.Equal(t, errDeleted, err)
}

func TestFindInputsRejectsDiscontiguousSpan(t *testing.T) {
	s := New[int]()
	_, err := s.NewRangeAlloc(0, 3)
	require.NoError(t, err)
	_, err = s.NewRangeAlloc(4, 7)
	require.NoError(t, err)
	s.MarkAssigned(0, 7)

	_, err = s.FindInputs(0, 7)
	assert.Equal(t, errDiscontiguous, err)

	vals, err := s.FindInputs(0, 3)
	assert.NoError(t, err)
	assert.Len(t, vals, 4)
}

func TestFindInputsOnSingleWireNeverDiscontiguous(t *testing.T) {
	s := New[int]()
	_, err := s.Assign(0)
	require.NoError(t, err)
	_, err = s.FindInputs(0, 0)
	assert.NoError(t, err)
}

func TestFindOutputsReusesNewRangeThenAllocatesFresh(t *testing.T) {
	s := New[int]()
	slots, err := s.NewRangeAlloc(0, 3)
	require.NoError(t, err)
	assert.Len(t, slots, 4)

	out, err := s.FindOutputs(0, 3)
	require.NoError(t, err)
	assert.Len(t, out, 4)

	_, err = s.FindOutputs(10, 12)
	require.NoError(t, err)
	assert.NotNil(t, s.rangeAt(10))
}

func TestMapOutputsAdvancesFirstLocalAndSkipsActive(t *testing.T) {
	s := New[int]()
	extern := make([]int, 3)
	first := s.MapOutputs(extern)
	assert.Equal(t, uint64(0), first)
	assert.Equal(t, uint64(3), s.FirstLocal)
	assert.False(t, s.Active.Has(0))

	_, err := s.NewRangeAlloc(0, 2)
	assert.Equal(t, errAlreadyExists, err, "remapped extent blocks a new_range")
}

func TestMapInputsMarksActive(t *testing.T) {
	s := New[int]()
	extern := []int{1, 2, 3}
	first := s.MapInputs(extern)
	assert.True(t, s.Active.HasAll(first, first+2))
}

func TestDeleteRangeRequiresExactMatchForNewRange(t *testing.T) {
	s := New[int]()
	_, err := s.NewRangeAlloc(0, 9)
	require.NoError(t, err)
	s.MarkAssigned(0, 9)

	err = s.DeleteRange(0, 4, nil)
	assert.Equal(t, errUnmatchedDelete, err)

	err = s.DeleteRange(0, 9, nil)
	assert.NoError(t, err)
	assert.Nil(t, s.rangeAt(0))
}

func TestDeleteRangePartiallyShrinksGrowableRangeFromTheRight(t *testing.T) {
	s := New[int]()
	_, err := s.Assign(0)
	require.NoError(t, err)
	for w := uint64(1); w < rangeDefaultSize; w++ {
		_, err := s.Assign(w)
		require.NoError(t, err)
	}
	r := s.rangeAt(0)
	require.True(t, r.CanGrow)

	err = s.DeleteRange(2, rangeDefaultSize-1, nil)
	require.NoError(t, err)
	assert.False(t, r.CanGrow)
	assert.True(t, s.Active.Has(0))
	assert.False(t, s.Active.Has(2))
}

func TestDeleteRangeBelowFirstLocalIsRejected(t *testing.T) {
	s := New[int]()
	s.MapInputs([]int{1, 2})
	err := s.DeleteRange(0, 1, nil)
	assert.Equal(t, errCannotDeleteRemap, err)
}

func TestDeleteRangeInvokesDestroyInAscendingOrder(t *testing.T) {
	s := New[int]()
	_, err := s.NewRangeAlloc(0, 2)
	require.NoError(t, err)
	s.MarkAssigned(0, 2)

	var seen []uint64
	require.NoError(t, s.DeleteRange(0, 2, func(w uint64) { seen = append(seen, w) }))
	assert.Equal(t, []uint64{0, 1, 2}, seen)
}

func TestTeardownSkipsRemappedRanges(t *testing.T) {
	s := New[int]()
	s.MapInputs([]int{1, 2})
	_, err := s.NewRangeAlloc(2, 3)
	require.NoError(t, err)
	s.MarkAssigned(2, 3)

	var seen []uint64
	s.Teardown(func(w uint64) { seen = append(seen, w) })
	assert.Equal(t, []uint64{2, 3}, seen)
}

func TestNotAssignedWinsOverDeletedWhenNeverWritten(t *testing.T) {
	s := New[int]()
	err := s.DeleteRange(0, 0, nil)
	assert.Equal(t, errNotAssigned, err)
}
