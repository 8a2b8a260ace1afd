// Package quicklist implements the quick-list cache from spec.md §4.4: a
// fixed array of singly-linked LIFO caches, one per exact small size,
// that bypass coalescing for fast reuse of hot, repeated allocation sizes.
package quicklist

import (
	"encoding/binary"

	"github.com/heapkit/memlab/block"
)

const none = -1

// List is one quick list: all blocks on it have exactly size
// 32 + 8*index bytes (spec.md §3).
type List struct {
	First int // offset of head block, or none if empty
	Len   int
}

// Table is the full array of NUM_QUICK_LISTS quick lists.
type Table struct {
	lists []List
	max   int // QUICK_LIST_MAX: capacity before a push triggers a flush
}

// NewTable creates a Table with numLists quick lists, each admitting up
// to max blocks before flushing.
func NewTable(numLists, max int) *Table {
	lists := make([]List, numLists)
	for i := range lists {
		lists[i] = List{First: none}
	}
	return &Table{lists: lists, max: max}
}

// NumLists returns the number of quick lists.
func (t *Table) NumLists() int { return len(t.lists) }

// Max returns QUICK_LIST_MAX.
func (t *Table) Max() int { return t.max }

// List returns quick list i, for inspection by a harness.
func (t *Table) List(i int) List { return t.lists[i] }

// ClassOf returns the quick-list index for an exact block size, and
// whether that size is admissible to any quick list at all (spec.md §3:
// "quick-list i holds blocks of exactly size 32 + 8*i").
func ClassOf(size uint64, numLists int) (int, bool) {
	if size < block.MinSize {
		return 0, false
	}
	delta := size - block.MinSize
	if delta%8 != 0 {
		return 0, false
	}
	idx := int(delta / 8)
	if idx < 0 || idx >= numLists {
		return 0, false
	}
	return idx, true
}

func nextOffset(blockOff int) int { return blockOff + block.HeaderSize }

func readNext(data []byte, off int) int {
	return int(int64(binary.LittleEndian.Uint64(data[off : off+8])))
}

func writeNext(data []byte, off int, v int) {
	binary.LittleEndian.PutUint64(data[off:off+8], uint64(int64(v)))
}

// Full reports whether quick list sc is at capacity.
func (t *Table) Full(sc int) bool {
	return t.lists[sc].Len >= t.max
}

// Push admits a block at the head of quick list sc (LIFO). The caller
// must have already marked the block ThisAllocated+InQuickList in its
// header, per spec.md §4.4.
func (t *Table) Push(data []byte, sc, off int) {
	l := &t.lists[sc]
	writeNext(data, nextOffset(off), l.First)
	l.First = off
	l.Len++
}

// Pop removes and returns the head of quick list sc.
func (t *Table) Pop(data []byte, sc int) (int, bool) {
	l := &t.lists[sc]
	if l.First == none {
		return 0, false
	}
	off := l.First
	l.First = readNext(data, nextOffset(off))
	l.Len--
	return off, true
}

// Drain removes and returns every block currently on quick list sc, in
// LIFO order, leaving the list empty. Used for the flush-at-capacity
// path in spec.md §4.4: the caller converts each returned offset back
// into a proper free block and inserts it into the main free list.
func (t *Table) Drain(data []byte, sc int) []int {
	l := &t.lists[sc]
	offs := make([]int, 0, l.Len)
	cur := l.First
	for cur != none {
		offs = append(offs, cur)
		cur = readNext(data, nextOffset(cur))
	}
	l.First = none
	l.Len = 0
	return offs
}
