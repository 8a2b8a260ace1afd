package heapalloc

// FreeListSnapshot is a harness-facing view of one segregated free list:
// the class index, its length, and the offsets it currently holds in
// traversal order starting at Head. Grounded on spec.md §6's
// "free_list_heads[NUM_FREE_LISTS]" inspection requirement.
type FreeListSnapshot struct {
	Class   int
	Len     int
	Offsets []int
}

// FreeListHeads walks every segregated free list and returns a snapshot
// of each, for use by heaptest.Auditor and similar harnesses.
func (h *Heap) FreeListHeads() []FreeListSnapshot {
	data := h.data()
	out := make([]FreeListSnapshot, h.freeLists.NumClasses())
	for sc := 0; sc < h.freeLists.NumClasses(); sc++ {
		l := h.freeLists.List(sc)
		snap := FreeListSnapshot{Class: sc, Len: l.Len}
		if l.Head != -1 {
			cur := l.Head
			for {
				snap.Offsets = append(snap.Offsets, cur)
				cur = nextFreeLink(data, cur)
				if cur == l.Head {
					break
				}
			}
		}
		out[sc] = snap
	}
	return out
}

// nextFreeLink re-derives the Next pointer of a free block the same way
// freelist.List does internally; duplicated here rather than exported
// from freelist, since only a harness needs to walk a list externally.
func nextFreeLink(data []byte, off int) int {
	return int(int64(le64(data, off+8)))
}

func le64(data []byte, off int) uint64 {
	return uint64(data[off]) | uint64(data[off+1])<<8 | uint64(data[off+2])<<16 | uint64(data[off+3])<<24 |
		uint64(data[off+4])<<32 | uint64(data[off+5])<<40 | uint64(data[off+6])<<48 | uint64(data[off+7])<<56
}

// QuickListSnapshot is a harness-facing view of one quick list.
type QuickListSnapshot struct {
	Class int
	Len   int
}

// QuickLists returns the length of every quick list, for heaptest.Auditor.
func (h *Heap) QuickLists() []QuickListSnapshot {
	out := make([]QuickListSnapshot, h.quickLists.NumLists())
	for sc := 0; sc < h.quickLists.NumLists(); sc++ {
		l := h.quickLists.List(sc)
		out[sc] = QuickListSnapshot{Class: sc, Len: l.Len}
	}
	return out
}

// PrologueOffset and EpilogueOffset expose the heap's sentinel locations,
// for heaptest.Auditor to walk the block chain from end to end.
func (h *Heap) PrologueOffset() int { return h.prologueOff }
func (h *Heap) EpilogueOffset() int { return h.epilogueOff }

// Bytes exposes the heap's backing buffer directly. Intended for test and
// diagnostic code (heaptest.Auditor); production callers should use the
// []byte payload slices returned by Allocate/Resize/AlignedAllocate.
func (h *Heap) Bytes() []byte { return h.data() }

// NumFreeLists, NumQuickLists and QuickListMax expose the configured table
// sizes; heaptest.Auditor reads QuickListMax to bound quick-list lengths.
func (h *Heap) NumFreeLists() int  { return h.cfg.NumFreeLists }
func (h *Heap) NumQuickLists() int { return h.cfg.NumQuickLists }
func (h *Heap) QuickListMax() int  { return h.cfg.QuickListMax }
