package heapalloc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapkit/memlab/heapalloc"
	"github.com/heapkit/memlab/heaptest"
	"github.com/heapkit/memlab/memstatus"
)

// spec.md §4.5.4: the returned payload address is a multiple of align,
// and the payload is at least size bytes.
func TestAlignedAllocate_PayloadIsAligned(t *testing.T) {
	h := newHeap(t, 64<<20)

	for _, align := range []int{8, 16, 64, 256} {
		p, payload, err := h.AlignedAllocate(100, align)
		require.NoError(t, err)
		require.NotEqual(t, heapalloc.NullPtr, p)
		require.GreaterOrEqual(t, len(payload), 100)

		payloadAddr := int(p) + 8 // header width
		require.Zero(t, payloadAddr%align, "align=%d payloadAddr=%d", align, payloadAddr)
	}

	heaptest.CheckInvariants(t, h)
}

// An align that isn't a power of two, or is below the minimum header
// width, is rejected without touching the heap.
func TestAlignedAllocate_RejectsBadAlignment(t *testing.T) {
	h := newHeap(t, 64<<20)
	t.Cleanup(memstatus.Reset)

	for _, align := range []int{0, 1, 4, 3, 17, 100} {
		p, payload, err := h.AlignedAllocate(64, align)
		require.ErrorIs(t, err, heapalloc.ErrInvalidArgument)
		require.Equal(t, heapalloc.NullPtr, p)
		require.Nil(t, payload)
		require.Equal(t, memstatus.EINVAL, memstatus.Get())
	}
}

// size<=0 is a no-op null return, with no status change, per the same
// convention as Allocate.
func TestAlignedAllocate_NonPositiveSizeReturnsNull(t *testing.T) {
	h := newHeap(t, 64<<20)

	p, payload, err := h.AlignedAllocate(0, 64)
	require.NoError(t, err)
	require.Equal(t, heapalloc.NullPtr, p)
	require.Nil(t, payload)
}

// The oversize-and-trim construction must still leave a block that
// Release can safely return to the free list or quick list.
func TestAlignedAllocate_ResultIsReleasable(t *testing.T) {
	h := newHeap(t, 64<<20)

	p, payload, err := h.AlignedAllocate(500, 128)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(payload), 500)

	h.Release(p)
	heaptest.CheckInvariants(t, h)
}
