// Package heapalloc implements the heap manager (spec.md §4.1) and
// allocation policy (spec.md §4.5) on top of the pages, block, freelist,
// and quicklist packages: a segregated-fits, quick-list-backed,
// boundary-tag-coalescing allocator.
//
// # Usage
//
//	src := pages.NewSim(4096, 16<<20)
//	h, err := heapalloc.New(heapalloc.Config{Source: src})
//	if err != nil {
//	    // ...
//	}
//
//	p, payload, err := h.Allocate(64)
//	if err != nil {
//	    // ENOMEM: memstatus.Get() == memstatus.ENOMEM
//	}
//	copy(payload, []byte("hello"))
//
//	h.Release(p)
//
// Allocator instances are not safe for concurrent use (spec.md §5);
// callers must synchronize externally.
package heapalloc
