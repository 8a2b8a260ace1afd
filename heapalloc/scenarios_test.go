package heapalloc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapkit/memlab/block"
	"github.com/heapkit/memlab/heapalloc"
	"github.com/heapkit/memlab/heaptest"
	"github.com/heapkit/memlab/memstatus"
	"github.com/heapkit/memlab/pages"
)

const pageSz = 4096

func newHeap(t *testing.T, maxBytes int) *heapalloc.Heap {
	t.Helper()
	t.Cleanup(memstatus.Reset)
	src := pages.NewSim(pageSz, maxBytes)
	h, err := heapalloc.New(heapalloc.Config{Source: src})
	require.NoError(t, err)
	return h
}

func soleFreeBlockSize(t *testing.T, h *heapalloc.Heap) uint64 {
	t.Helper()
	var found uint64
	n := 0
	for _, snap := range h.FreeListHeads() {
		for _, off := range snap.Offsets {
			n++
			found = block.ReadHeader(h.Bytes(), off).Size
		}
	}
	require.Equal(t, 1, n, "expected exactly one free block")
	return found
}

// Scenario 1, spec.md §8.
func TestScenario1_SmallAllocSplitsHeapBlock(t *testing.T) {
	h := newHeap(t, 64<<20)

	p, payload, err := h.Allocate(1)
	require.NoError(t, err)
	require.NotEqual(t, heapalloc.NullPtr, p)
	require.NotNil(t, payload)

	hdr := block.ReadHeader(h.Bytes(), int(p))
	require.Equal(t, uint64(32), hdr.Size)
	require.True(t, hdr.ThisAllocated)

	free := h.FreeListHeads()
	require.Equal(t, 1, free[7].Len, "the 4024-byte leftover belongs in class 7")
	require.Equal(t, uint64(4024), soleFreeBlockSize(t, h))
	require.Equal(t, memstatus.OK, memstatus.Get())

	heaptest.CheckInvariants(t, h)
}

// Scenario 2, spec.md §8.
func TestScenario2_AllocExactlyConsumesFirstFreeBlock(t *testing.T) {
	h := newHeap(t, 64<<20)

	p, payload, err := h.Allocate(4048)
	require.NoError(t, err)
	require.NotNil(t, payload)

	hdr := block.ReadHeader(h.Bytes(), int(p))
	require.Equal(t, uint64(4056), hdr.Size)

	for _, snap := range h.FreeListHeads() {
		require.Zero(t, snap.Len)
	}
	require.Equal(t, memstatus.OK, memstatus.Get())

	heaptest.CheckInvariants(t, h)
}

// Scenario 3, spec.md §8: exhaustion leaves the heap valid and untouched
// beyond the pages already grown.
func TestScenario3_ExhaustionReportsENOMEMAndLeavesHeapValid(t *testing.T) {
	h := newHeap(t, 21*pageSz) // grows to exactly free=85976 then fails

	p, payload, err := h.Allocate(86100)
	require.Error(t, err)
	require.Equal(t, heapalloc.NullPtr, p)
	require.Nil(t, payload)
	require.Equal(t, memstatus.ENOMEM, memstatus.Get())

	require.Equal(t, uint64(85976), soleFreeBlockSize(t, h))

	heaptest.CheckInvariants(t, h)
}

// Scenario 4, spec.md §8: quick-list admission on release.
func TestScenario4_ReleaseAdmitsToQuickList(t *testing.T) {
	h := newHeap(t, 64<<20)

	_, _, err := h.Allocate(8)
	require.NoError(t, err)
	b, _, err := h.Allocate(32)
	require.NoError(t, err)
	_, _, err = h.Allocate(1)
	require.NoError(t, err)

	h.Release(b)

	quick := h.QuickLists()
	totalQuick := 0
	for _, q := range quick {
		if q.Len > 0 {
			require.Equal(t, 1, q.Len)
			totalQuick += q.Len
		}
	}
	require.Equal(t, 1, totalQuick)

	require.Equal(t, uint64(3952), soleFreeBlockSize(t, h))

	heaptest.CheckInvariants(t, h)
}

// Scenario 5, spec.md §8: release in a=...,c=...,b=... order drives a full
// four-case coalesce (both predecessor and successor free).
func TestScenario5_ReleaseOrderDrivesFullCoalesce(t *testing.T) {
	h := newHeap(t, 64<<20)

	a, _, err := h.Allocate(200)
	require.NoError(t, err)
	b, _, err := h.Allocate(300)
	require.NoError(t, err)
	c, _, err := h.Allocate(400)
	require.NoError(t, err)
	_, _, err = h.Allocate(500)
	require.NoError(t, err)

	h.Release(a)
	h.Release(c)
	h.Release(b)

	var sizes []uint64
	for _, snap := range h.FreeListHeads() {
		for _, off := range snap.Offsets {
			sizes = append(sizes, block.ReadHeader(h.Bytes(), off).Size)
		}
	}
	require.ElementsMatch(t, []uint64{928, 2616}, sizes)

	heaptest.CheckInvariants(t, h)
}

// Scenario 6, spec.md §8: resize-to-larger grows, copies, and releases the
// old block (which lands in the quick list).
func TestScenario6_ResizeGrowsCopiesAndQuickListsOldBlock(t *testing.T) {
	h := newHeap(t, 64<<20)

	x, _, err := h.Allocate(4)
	require.NoError(t, err)
	_, _, err = h.Allocate(10)
	require.NoError(t, err)

	x2, payload, err := h.Resize(x, 80)
	require.NoError(t, err)
	require.Len(t, payload, 80)

	hdr := block.ReadHeader(h.Bytes(), int(x2))
	require.Equal(t, uint64(88), hdr.Size)

	quick := h.QuickLists()
	totalQuick := 0
	for _, q := range quick {
		totalQuick += q.Len
	}
	require.Equal(t, 1, totalQuick)

	require.Equal(t, uint64(3904), soleFreeBlockSize(t, h))

	heaptest.CheckInvariants(t, h)
}
