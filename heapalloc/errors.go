package heapalloc

import (
	"errors"
	"strconv"
)

var (
	// ErrNoSource is returned by New when Config.Source is nil.
	ErrNoSource = errors.New("heapalloc: Config.Source is required")

	// ErrNoSpace indicates that no free block large enough was found and
	// growing the page source failed. memstatus is set to ENOMEM
	// alongside this error.
	ErrNoSpace = errors.New("heapalloc: no free block large enough and heap growth failed")

	// ErrInvalidArgument indicates a malformed pointer passed to Resize,
	// or a bad alignment passed to AlignedAllocate. memstatus is set to
	// EINVAL alongside this error.
	ErrInvalidArgument = errors.New("heapalloc: invalid argument")
)

// CorruptionError describes why Release aborted. Per spec.md §7, an
// invalid release is a programming error: the default behavior is to
// panic with one of these rather than return it, but it is exported so
// that a recover() call (e.g. from a fuzzing harness) can inspect what
// went wrong.
type CorruptionError struct {
	Reason string // which invariant check failed
	Offset int    // the offending header offset, if known
}

func (e *CorruptionError) Error() string {
	return "heapalloc: corrupt release at offset " + strconv.Itoa(e.Offset) + ": " + e.Reason
}
