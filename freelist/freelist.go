// Package freelist implements the segregated free-list engine from
// spec.md §4.3: a fixed array of size-class-indexed circular
// doubly-linked lists of free blocks, searched first-fit within a class
// and in increasing class order across classes.
package freelist

import (
	"encoding/binary"

	"github.com/heapkit/memlab/block"
)

// none marks "no neighbor" / "wraps to the list itself" — the classic
// sentinel role, collapsed into the List's own head/tail bookkeeping
// rather than a dummy heap block, since Go's explicit empty check serves
// the same null-guard purpose the sentinel node exists for in C.
const none = -1

// List is one segregated free list: a circular doubly-linked list of
// free, non-quick-listed blocks of a given size class. Head and Tail are
// the external inspection surface mentioned in spec.md §6
// ("free_list_heads[NUM_FREE_LISTS]"); a test harness walks a List by
// following Next/Prev links starting at Head.
type List struct {
	Head int // offset of first free block, or none if empty
	Tail int // offset of last free block, or none if empty
	Len  int
}

func newList() List { return List{Head: none, Tail: none} }

// Table is the full array of NUM_FREE_LISTS segregated lists.
type Table struct {
	lists []List
}

// NewTable creates a Table with numClasses segregated lists, all empty.
func NewTable(numClasses int) *Table {
	lists := make([]List, numClasses)
	for i := range lists {
		lists[i] = newList()
	}
	return &Table{lists: lists}
}

// NumClasses returns the number of segregated lists.
func (t *Table) NumClasses() int { return len(t.lists) }

// List returns the list for size class i, for inspection by a harness.
func (t *Table) List(i int) List { return t.lists[i] }

// ClassOf returns the size-class index for a block of the given size,
// per spec.md §3/§4.3: index 0 holds exactly MinSize; index i (1 <= i <
// numClasses-1) holds sizes in (M*2^(i-1), M*2^i]; the last index holds
// everything larger.
func ClassOf(size uint64, numClasses int) int {
	const m = uint64(block.MinSize)
	if size <= m {
		return 0
	}
	for i := 1; i <= numClasses-2; i++ {
		if size <= m<<uint(i) {
			return i
		}
	}
	return numClasses - 1
}

// linkOffsets returns the byte offsets, within a free block's body, of
// its Next and Prev pointers. They occupy the first two words after the
// header, matching spec.md §3 ("the free-block body ... holds two
// intrusive doubly-linked-list pointers").
func linkOffsets(blockOff int) (nextOff, prevOff int) {
	return blockOff + block.HeaderSize, blockOff + 2*block.HeaderSize
}

func readLink(data []byte, off int) int {
	v := int64(binary.LittleEndian.Uint64(data[off : off+8]))
	return int(v)
}

func writeLink(data []byte, off int, v int) {
	binary.LittleEndian.PutUint64(data[off:off+8], uint64(int64(v)))
}

func (l *List) next(data []byte, off int) int {
	n, _ := linkOffsets(off)
	return readLink(data, n)
}

func (l *List) prev(data []byte, off int) int {
	_, p := linkOffsets(off)
	return readLink(data, p)
}

func (l *List) setNext(data []byte, off, v int) {
	n, _ := linkOffsets(off)
	writeLink(data, n, v)
}

func (l *List) setPrev(data []byte, off, v int) {
	_, p := linkOffsets(off)
	writeLink(data, p, v)
}

// Insert head-inserts a free block into size class sc (LIFO reuse, per
// spec.md §4.3).
func (t *Table) Insert(data []byte, sc, off int) {
	l := &t.lists[sc]
	if l.Head == none {
		l.Head, l.Tail = off, off
		l.setNext(data, off, off)
		l.setPrev(data, off, off)
	} else {
		l.setNext(data, off, l.Head)
		l.setPrev(data, off, l.Tail)
		l.setNext(data, l.Tail, off)
		l.setPrev(data, l.Head, off)
		l.Head = off
	}
	l.Len++
}

// Remove splices a free block out of size class sc and clears its link
// fields, per spec.md §4.3.
func (t *Table) Remove(data []byte, sc, off int) {
	l := &t.lists[sc]
	if l.Head == off && l.Tail == off {
		l.Head, l.Tail = none, none
	} else {
		p, n := l.prev(data, off), l.next(data, off)
		l.setNext(data, p, n)
		l.setPrev(data, n, p)
		if l.Head == off {
			l.Head = n
		}
		if l.Tail == off {
			l.Tail = p
		}
	}
	l.setNext(data, off, none)
	l.setPrev(data, off, none)
	l.Len--
}

// Search scans size class sc head-to-tail for the first block whose size
// is >= need (first-fit within the class, per spec.md §4.3). Returns the
// block offset and true on a hit.
func (t *Table) Search(data []byte, sc int, need uint64) (int, bool) {
	l := &t.lists[sc]
	if l.Head == none {
		return 0, false
	}
	cur := l.Head
	for {
		h := block.ReadHeader(data, cur)
		if h.Size >= need {
			return cur, true
		}
		cur = l.next(data, cur)
		if cur == l.Head {
			break
		}
	}
	return 0, false
}

// SearchFrom performs a segregated first-fit search: starting at size
// class startSC, scan each list in increasing class order, returning the
// first block found anywhere whose size satisfies need.
func (t *Table) SearchFrom(data []byte, startSC int, need uint64) (off int, sc int, found bool) {
	for sc := startSC; sc < len(t.lists); sc++ {
		if off, ok := t.Search(data, sc, need); ok {
			return off, sc, true
		}
	}
	return 0, 0, false
}
