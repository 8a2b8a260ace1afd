// Package pages implements the page-grow primitive the heap manager grows
// against: grow_page()/heap_start()/heap_end() from spec.md §6, generalized
// behind a Source interface so production code can back it with real OS
// pages while tests back it with a fast, portable simulation of the same
// contract.
package pages

// Source is the page-grow primitive. A Source reserves a maximum heap
// region up front (so "maximum heap size fixed by the underlying grow
// primitive" is a real, enforced ceiling) and commits it one page at a
// time as Grow is called.
type Source interface {
	// Grow commits one additional page and returns its start offset.
	// ok is false if the reservation is exhausted.
	Grow() (pageStart int, ok bool)

	// Bytes returns the committed region as a byte slice. Growing the
	// source may return a different slice header than a previous call
	// (the underlying array does not necessarily move, but callers must
	// always re-fetch Bytes() after a Grow rather than caching it).
	Bytes() []byte

	// Start returns the fixed start offset of the heap (0).
	Start() int

	// End returns the current committed end offset (== len(Bytes())).
	End() int

	// PageSize returns the page size used for each Grow call.
	PageSize() int
}
