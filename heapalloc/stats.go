package heapalloc

import "fmt"

// Stats tracks allocator activity, grounded on the teacher's
// allocatorStats / PrintStats (hive/alloc/fastalloc.go): plain counters
// read back out for diagnostics, not wired into the hot path's decisions.
type Stats struct {
	AllocCalls       uint64
	FreeCalls        uint64
	QuickHits        uint64
	QuickAdmits      uint64
	QuickFlushes     uint64
	SplitCount       uint64
	GrowCalls        uint64
	CoalesceForward  uint64
	CoalesceBackward uint64
}

// Stats returns a snapshot of the allocator's running counters.
func (h *Heap) Stats() Stats { return h.stats }

// String renders a short efficiency report, in the spirit of the
// teacher's GetEfficiencyStats.
func (s Stats) String() string {
	return fmt.Sprintf(
		"alloc=%d free=%d quick_hit=%d quick_admit=%d quick_flush=%d split=%d grow=%d coalesce_fwd=%d coalesce_bwd=%d",
		s.AllocCalls, s.FreeCalls, s.QuickHits, s.QuickAdmits, s.QuickFlushes,
		s.SplitCount, s.GrowCalls, s.CoalesceForward, s.CoalesceBackward,
	)
}
