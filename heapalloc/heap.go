package heapalloc

import (
	"os"

	"github.com/heapkit/memlab/block"
	"github.com/heapkit/memlab/freelist"
	"github.com/heapkit/memlab/memstatus"
	"github.com/heapkit/memlab/pages"
	"github.com/heapkit/memlab/quicklist"
)

// debugAlloc is a compile-time verbose-logging switch. logAlloc is its
// runtime counterpart, toggled by an environment variable. This mirrors
// the teacher's debugAlloc/logAlloc pair in hive/alloc/fastalloc.go.
const debugAlloc = false

var logAlloc = os.Getenv("MEMLAB_LOG_ALLOC") != ""

// Ptr is a client-visible pointer: the offset of a block's header within
// the heap's backing buffer. This mirrors the teacher's CellRef (a typed
// relative offset standing in for a raw pointer, hive/alloc/types.go),
// generalized from "offset relative to an HBIN" to "offset within the
// whole heap".
type Ptr int

// NullPtr is the invalid/absent pointer value.
const NullPtr Ptr = -1

// Heap is the allocator engine: heap manager + block layout + free-list
// engine + quick-list cache + allocation policy, per spec.md §2.
type Heap struct {
	cfg Config
	src pages.Source

	freeLists  *freelist.Table
	quickLists *quicklist.Table

	prologueOff int // offset of the 32-byte prologue, or -1 before init
	epilogueOff int // offset of the 8-byte epilogue header
	initialized bool

	stats Stats
}

// New creates a Heap against the given configuration. The heap is not
// grown until the first Allocate call, per spec.md §4.1.
func New(cfg Config) (*Heap, error) {
	if cfg.Source == nil {
		return nil, ErrNoSource
	}
	cfg = cfg.withDefaults()

	return &Heap{
		cfg:         cfg,
		src:         cfg.Source,
		freeLists:   freelist.NewTable(cfg.NumFreeLists),
		quickLists:  quicklist.NewTable(cfg.NumQuickLists, cfg.QuickListMax),
		prologueOff: -1,
		epilogueOff: -1,
	}, nil
}

func (h *Heap) data() []byte { return h.src.Bytes() }

func payloadSlice(data []byte, off int, size uint64) []byte {
	return data[off+block.HeaderSize : off+int(size)]
}

// adjustSize computes adj = max(MinSize, round_up(size+HeaderSize, 8)),
// the total block size (including header) needed to satisfy a client
// request of the given payload size. Spec.md §4.5.1 step 2.
func adjustSize(size int) uint64 {
	s := uint64(size) + block.HeaderSize
	s = (s + 7) &^ 7
	if s < block.MinSize {
		s = block.MinSize
	}
	return s
}

func roundUp(x, align int) int {
	return (x + align - 1) &^ (align - 1)
}

// Allocate implements spec.md §4.5.1.
func (h *Heap) Allocate(size int) (Ptr, []byte, error) {
	if size <= 0 {
		return NullPtr, nil, nil
	}
	if !h.initialized {
		if err := h.initHeap(); err != nil {
			memstatus.Set(memstatus.ENOMEM)
			return NullPtr, nil, ErrNoSpace
		}
	}

	need := adjustSize(size)
	h.stats.AllocCalls++

	if sc, ok := quicklist.ClassOf(need, h.cfg.NumQuickLists); ok {
		data := h.data()
		if off, popped := h.quickLists.Pop(data, sc); popped {
			hdr := block.ReadHeader(data, off)
			hdr.InQuickList = false
			hdr.ThisAllocated = true
			block.WriteHeader(data, off, hdr)
			h.stats.QuickHits++
			if logAlloc {
				debugLogf("quick-list hit: size=%d off=%d", need, off)
			}
			return Ptr(off), payloadSlice(data, off, hdr.Size), nil
		}
	}

	off, blockSize, err := h.allocateBlock(need)
	if err != nil {
		memstatus.Set(memstatus.ENOMEM)
		return NullPtr, nil, err
	}
	return Ptr(off), payloadSlice(h.data(), off, blockSize), nil
}

// Release implements spec.md §4.5.2. Any validation failure aborts the
// process (spec.md §7 mode 3) rather than returning an error.
func (h *Heap) Release(p Ptr) {
	data := h.data()
	off, hdr, err := h.validatePtr(data, p)
	if err != nil {
		h.abort(err)
		return
	}
	h.releaseBlock(data, off, hdr)
}

// Resize implements spec.md §4.5.3.
func (h *Heap) Resize(p Ptr, newSize int) (Ptr, []byte, error) {
	data := h.data()
	off, hdr, err := h.validatePtr(data, p)
	if err != nil {
		memstatus.Set(memstatus.EINVAL)
		return NullPtr, nil, ErrInvalidArgument
	}

	if newSize <= 0 {
		h.releaseBlock(data, off, hdr)
		return NullPtr, nil, nil
	}

	need := adjustSize(newSize)

	switch {
	case need > hdr.Size:
		newPtr, newPayload, aerr := h.Allocate(newSize)
		if aerr != nil {
			return NullPtr, nil, aerr
		}
		oldPayload := data[off+block.HeaderSize : off+int(hdr.Size)]
		copy(newPayload, oldPayload)
		h.releaseBlock(h.data(), off, hdr)
		return newPtr, newPayload, nil

	case need < hdr.Size:
		rem := hdr.Size - need
		if rem >= block.MinSize {
			newHdr := block.Header{Size: need, ThisAllocated: true, PrevAllocated: hdr.PrevAllocated}
			block.WriteHeader(data, off, newHdr)
			tailOff := off + int(need)
			h.freeBlock(data, tailOff, rem, true)
			h.stats.SplitCount++
			return Ptr(off), payloadSlice(h.data(), off, need), nil
		}
		return Ptr(off), payloadSlice(data, off, hdr.Size), nil

	default:
		return Ptr(off), payloadSlice(data, off, hdr.Size), nil
	}
}

// AlignedAllocate implements spec.md §4.5.4: the standard
// oversize-and-trim construction.
func (h *Heap) AlignedAllocate(size int, align int) (Ptr, []byte, error) {
	if align < 8 || align&(align-1) != 0 {
		memstatus.Set(memstatus.EINVAL)
		return NullPtr, nil, ErrInvalidArgument
	}
	if size <= 0 {
		return NullPtr, nil, nil
	}
	if !h.initialized {
		if err := h.initHeap(); err != nil {
			memstatus.Set(memstatus.ENOMEM)
			return NullPtr, nil, ErrNoSpace
		}
	}

	bigSize := uint64(size) + uint64(align) + block.MinSize + block.HeaderSize
	bigSize = (bigSize + 7) &^ 7

	rawOff, rawSize, err := h.allocateBlock(bigSize)
	if err != nil {
		memstatus.Set(memstatus.ENOMEM)
		return NullPtr, nil, err
	}
	data := h.data()
	rawHdr := block.ReadHeader(data, rawOff)

	payloadStart := rawOff + block.HeaderSize
	candidate := roundUp(payloadStart, align) - block.HeaderSize
	newOff := candidate
	for newOff != rawOff && newOff-rawOff < block.MinSize {
		newOff += align
	}
	gap := newOff - rawOff
	remSize := rawSize - uint64(gap)

	prevAllocatedForNew := rawHdr.PrevAllocated
	if gap > 0 {
		// Stake out the remaining region as allocated *before* freeing
		// the prefix, so the prefix's forward-coalesce check (and any
		// later PREV_ALLOCATED fixup) sees a well-formed neighbor
		// instead of uninitialized bytes.
		block.WriteHeader(data, newOff, block.Header{
			Size: remSize, ThisAllocated: true, PrevAllocated: false,
		})
		h.freeBlock(data, rawOff, uint64(gap), rawHdr.PrevAllocated)
		h.stats.SplitCount++
		prevAllocatedForNew = false
	}

	finalNeed := adjustSize(size)
	trailingRem := remSize - finalNeed
	if trailingRem >= block.MinSize {
		block.WriteHeader(data, newOff, block.Header{
			Size: finalNeed, ThisAllocated: true, PrevAllocated: prevAllocatedForNew,
		})
		tailOff := newOff + int(finalNeed)
		h.freeBlock(data, tailOff, trailingRem, true)
		h.stats.SplitCount++
		return Ptr(newOff), payloadSlice(h.data(), newOff, finalNeed), nil
	}

	block.WriteHeader(data, newOff, block.Header{
		Size: remSize, ThisAllocated: true, PrevAllocated: prevAllocatedForNew,
	})
	h.fixNextPrevAllocated(data, newOff, remSize, true)
	return Ptr(newOff), payloadSlice(data, newOff, remSize), nil
}

func debugLogf(format string, args ...any) {
	if debugAlloc || logAlloc {
		fmtLogf(format, args...)
	}
}
