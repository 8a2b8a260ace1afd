package heapalloc

import "github.com/heapkit/memlab/pages"

// Config bundles the allocator's tunables. Grounded on the teacher's
// SizeClassConfig / DefaultConfig pattern (hive/alloc/size_classes.go):
// named, explicit configuration instead of bare package constants.
type Config struct {
	// Source is the page-grow primitive to grow the heap from. Required.
	Source pages.Source

	// NumFreeLists is the number of segregated free lists
	// (NUM_FREE_LISTS in spec.md §6). Zero means DefaultNumFreeLists.
	NumFreeLists int

	// NumQuickLists is the number of quick lists (NUM_QUICK_LISTS in
	// spec.md §6). Zero means DefaultNumQuickLists.
	NumQuickLists int

	// QuickListMax is the per-quick-list capacity before a flush
	// (QUICK_LIST_MAX in spec.md §6). Zero means DefaultQuickListMax.
	QuickListMax int
}

// Defaults from spec.md §6 ("e.g., ...").
const (
	DefaultNumFreeLists  = 10
	DefaultNumQuickLists = 20
	DefaultQuickListMax  = 5
	DefaultPageSize      = 4096
)

func (c Config) withDefaults() Config {
	if c.NumFreeLists == 0 {
		c.NumFreeLists = DefaultNumFreeLists
	}
	if c.NumQuickLists == 0 {
		c.NumQuickLists = DefaultNumQuickLists
	}
	if c.QuickListMax == 0 {
		c.QuickListMax = DefaultQuickListMax
	}
	return c
}
