package heapalloc

import (
	"fmt"
	"os"

	"github.com/heapkit/memlab/block"
	"github.com/heapkit/memlab/freelist"
	"github.com/heapkit/memlab/quicklist"
)

func fmtLogf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "heapalloc: "+format+"\n", args...)
}

// initHeap lays down the prologue, a single free block spanning the rest
// of the first page, and the epilogue, per spec.md §4.1.
func (h *Heap) initHeap() error {
	pageStart, ok := h.src.Grow()
	if !ok {
		return ErrNoSpace
	}
	data := h.data()

	block.WriteHeader(data, pageStart, block.Header{
		Size: block.MinSize, ThisAllocated: true, PrevAllocated: true,
	})
	h.prologueOff = pageStart

	freeOff := pageStart + block.MinSize
	freeSize := uint64(h.src.PageSize()) - block.MinSize - block.HeaderSize
	epiOff := freeOff + int(freeSize)

	block.WriteHeader(data, epiOff, block.Header{
		Size: block.HeaderSize, ThisAllocated: true, PrevAllocated: false,
	})
	h.epilogueOff = epiOff

	h.freeBlock(data, freeOff, freeSize, true)
	h.initialized = true
	if logAlloc {
		debugLogf("init: page=%d free=%d..%d epilogue=%d", pageStart, freeOff, epiOff, epiOff)
	}
	return nil
}

// growOnePage requests one additional page from the page source, folding
// the old epilogue into a new free block and coalescing it with whatever
// preceded it, per spec.md §4.1 ("Subsequent growth").
func (h *Heap) growOnePage() bool {
	data := h.data()
	oldEpi := h.epilogueOff
	oldEpiHdr := block.ReadHeader(data, oldEpi)

	_, ok := h.src.Grow()
	if !ok {
		return false
	}
	data = h.data()

	// The new free block reclaims the old epilogue's 8 bytes (reusing its
	// location as its own header) and extends across the whole newly
	// added page; the new epilogue then carves its 8 bytes back out of
	// the far end. Net size is exactly one page.
	newFreeOff := oldEpi
	newFreeSize := uint64(h.src.PageSize())
	newEpiOff := newFreeOff + int(newFreeSize)

	// The new epilogue must be in place before freeBlock's forward-merge
	// check runs, since that check reads whatever header sits right after
	// the new free span.
	block.WriteHeader(data, newEpiOff, block.Header{
		Size: block.HeaderSize, ThisAllocated: true, PrevAllocated: false,
	})
	h.epilogueOff = newEpiOff
	h.stats.GrowCalls++

	h.freeBlock(data, newFreeOff, newFreeSize, oldEpiHdr.PrevAllocated)
	if logAlloc {
		debugLogf("grow: new page, epilogue now at %d", newEpiOff)
	}
	return true
}

// allocateBlock finds (growing the heap as needed) and removes a free
// block of at least `need` bytes, splits off any excess above
// block.MinSize, and returns the resulting allocated block's offset and
// actual size.
func (h *Heap) allocateBlock(need uint64) (int, uint64, error) {
	startSC := freelist.ClassOf(need, h.cfg.NumFreeLists)
	for {
		data := h.data()
		if off, sc, ok := h.freeLists.SearchFrom(data, startSC, need); ok {
			h.freeLists.Remove(data, sc, off)
			off2, size2 := h.splitAndAllocate(data, off, need)
			return off2, size2, nil
		}
		if !h.growOnePage() {
			return 0, 0, ErrNoSpace
		}
	}
}

// splitAndAllocate marks the block at off allocated. If the excess over
// need is at least block.MinSize, it splits off a trailing free block
// (splinter avoidance keeps it whole otherwise), per spec.md §4.5.1 step 4.
func (h *Heap) splitAndAllocate(data []byte, off int, need uint64) (int, uint64) {
	hdr := block.ReadHeader(data, off)
	bs := hdr.Size
	rem := bs - need

	if rem < block.MinSize {
		block.WriteHeader(data, off, block.Header{
			Size: bs, ThisAllocated: true, PrevAllocated: hdr.PrevAllocated,
		})
		h.fixNextPrevAllocated(data, off, bs, true)
		return off, bs
	}

	block.WriteHeader(data, off, block.Header{
		Size: need, ThisAllocated: true, PrevAllocated: hdr.PrevAllocated,
	})
	tailOff := off + int(need)
	h.freeBlock(data, tailOff, rem, true)
	h.stats.SplitCount++
	return off, need
}

// coalesce merges the free span [off, off+size) with its physically
// adjacent neighbors wherever they are themselves free, removing any
// merged neighbor from its free list. It does not write the merged
// block's own header/footer; the caller does that via freeBlock.
func (h *Heap) coalesce(data []byte, off int, size uint64, prevAllocated bool) (int, uint64, bool) {
	if !prevAllocated {
		prevFooter := block.PrevFooter(data, off)
		prevOff := off - int(prevFooter.Size)
		sc := freelist.ClassOf(prevFooter.Size, h.cfg.NumFreeLists)
		h.freeLists.Remove(data, sc, prevOff)
		size += prevFooter.Size
		off = prevOff
		prevAllocated = prevFooter.PrevAllocated
		h.stats.CoalesceBackward++
	}

	next := off + int(size)
	if next+block.HeaderSize <= len(data) {
		nh := block.ReadHeader(data, next)
		if !nh.ThisAllocated {
			sc := freelist.ClassOf(nh.Size, h.cfg.NumFreeLists)
			h.freeLists.Remove(data, sc, next)
			size += nh.Size
			h.stats.CoalesceForward++
		}
	}

	return off, size, prevAllocated
}

// freeBlock coalesces the span [off, off+size) with its free neighbors,
// writes the resulting free block's header and footer, propagates
// PREV_ALLOCATED=0 to its physical successor, and inserts it into the
// matching free list. Every path that creates a free block (release,
// heap growth, splitting, aligned carving) goes through this.
func (h *Heap) freeBlock(data []byte, off int, size uint64, prevAllocated bool) {
	finalOff, finalSize, finalPrev := h.coalesce(data, off, size, prevAllocated)
	hdr := block.Header{Size: finalSize, ThisAllocated: false, PrevAllocated: finalPrev}
	block.WriteHeader(data, finalOff, hdr)
	block.WriteFooter(data, finalOff, hdr)
	h.fixNextPrevAllocated(data, finalOff, finalSize, false)
	sc := freelist.ClassOf(finalSize, h.cfg.NumFreeLists)
	h.freeLists.Insert(data, sc, finalOff)
}

// fixNextPrevAllocated updates the PREV_ALLOCATED bit of the block
// physically following [off, off+size) to reflect whether [off, off+size)
// is now allocated. If that successor is itself free, its footer (which
// must mirror its header) is rewritten too.
func (h *Heap) fixNextPrevAllocated(data []byte, off int, size uint64, allocated bool) {
	next := off + int(size)
	if next+block.HeaderSize > len(data) {
		return
	}
	nh := block.ReadHeader(data, next)
	nh.PrevAllocated = allocated
	block.WriteHeader(data, next, nh)
	if !nh.ThisAllocated && !nh.InQuickList {
		block.WriteFooter(data, next, nh)
	}
}

// releaseBlock implements the shared tail of Release and Resize(0):
// quick-list admission (flushing at capacity) for eligible sizes,
// otherwise release-to-free-list with coalescing.
func (h *Heap) releaseBlock(data []byte, off int, hdr block.Header) {
	if sc, ok := quicklist.ClassOf(hdr.Size, h.cfg.NumQuickLists); ok {
		if h.quickLists.Full(sc) {
			h.flushQuickList(data, sc)
			// The flush may have freed this block's predecessor, which
			// cleared PREV_ALLOCATED in this block's header on the heap.
			hdr = block.ReadHeader(data, off)
		}
		hdr.InQuickList = true
		hdr.ThisAllocated = true
		block.WriteHeader(data, off, hdr)
		h.quickLists.Push(data, sc, off)
		h.stats.QuickAdmits++
		return
	}
	h.freeBlock(data, off, hdr.Size, hdr.PrevAllocated)
	h.stats.FreeCalls++
}

// flushQuickList drains quick list sc, converting every block on it back
// into a proper (coalesced) free-list entry, per spec.md §4.4.
func (h *Heap) flushQuickList(data []byte, sc int) {
	offs := h.quickLists.Drain(data, sc)
	for _, qoff := range offs {
		qh := block.ReadHeader(data, qoff)
		h.freeBlock(data, qoff, qh.Size, qh.PrevAllocated)
	}
	h.stats.QuickFlushes++
}

// validatePtr runs the full Release validation chain from spec.md §4.5.2.
// It never aborts; the caller decides what aborting means for its entry
// point (panic for Release, a returned EINVAL for Resize).
func (h *Heap) validatePtr(data []byte, p Ptr) (int, block.Header, error) {
	off := int(p)

	if p == NullPtr {
		return 0, block.Header{}, &CorruptionError{Reason: "null pointer", Offset: off}
	}
	if off%8 != 0 {
		return 0, block.Header{}, &CorruptionError{Reason: "misaligned pointer", Offset: off}
	}
	if off < h.prologueOff+block.MinSize || off+block.HeaderSize > h.epilogueOff {
		return 0, block.Header{}, &CorruptionError{Reason: "pointer outside heap bounds", Offset: off}
	}

	hdr := block.ReadHeader(data, off)
	if hdr.Size < block.MinSize || hdr.Size%8 != 0 {
		return 0, block.Header{}, &CorruptionError{Reason: "invalid block size", Offset: off}
	}
	if off+int(hdr.Size) > h.epilogueOff+block.HeaderSize {
		return 0, block.Header{}, &CorruptionError{Reason: "block footer past heap end", Offset: off}
	}
	if !hdr.ThisAllocated || hdr.InQuickList {
		return 0, block.Header{}, &CorruptionError{Reason: "double release", Offset: off}
	}
	if !hdr.PrevAllocated {
		prevFooter := block.PrevFooter(data, off)
		if prevFooter.ThisAllocated {
			return 0, block.Header{}, &CorruptionError{Reason: "PREV_ALLOCATED inconsistent with predecessor", Offset: off}
		}
	}

	return off, hdr, nil
}

func (h *Heap) abort(err error) {
	panic(err)
}
