//go:build windows

package pages

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// WindowsSource is the production page-grow primitive on Windows: it
// reserves the maximum heap with VirtualAlloc(MEM_RESERVE) and commits
// pages one at a time with VirtualAlloc(MEM_COMMIT), mirroring the
// teacher's platform-specific raw memory calls in
// hive/dirty/flush_windows.go (there: FlushViewOfFile; here: VirtualAlloc).
type WindowsSource struct {
	base      uintptr
	pageSize  int
	committed int
	maxSize   int
}

// NewWindowsSource reserves maxSize bytes (rounded up to a multiple of
// pageSize) of address space with no pages committed.
func NewWindowsSource(pageSize, maxSize int) (*WindowsSource, error) {
	if pageSize <= 0 {
		pageSize = 4096
	}
	numPages := (maxSize + pageSize - 1) / pageSize
	if numPages < 1 {
		numPages = 1
	}
	total := numPages * pageSize

	addr, err := windows.VirtualAlloc(0, uintptr(total), windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil {
		return nil, err
	}

	return &WindowsSource{base: addr, pageSize: pageSize, maxSize: total}, nil
}

// Grow commits the next page as read/write.
func (s *WindowsSource) Grow() (int, bool) {
	start := s.committed
	if start+s.pageSize > s.maxSize {
		return 0, false
	}
	addr := s.base + uintptr(start)
	if _, err := windows.VirtualAlloc(addr, uintptr(s.pageSize), windows.MEM_COMMIT, windows.PAGE_READWRITE); err != nil {
		return 0, false
	}
	s.committed += s.pageSize
	return start, true
}

func (s *WindowsSource) Bytes() []byte {
	if s.committed == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(s.base)), s.committed)
}

func (s *WindowsSource) Start() int    { return 0 }
func (s *WindowsSource) End() int      { return s.committed }
func (s *WindowsSource) PageSize() int { return s.pageSize }

// Close releases the entire reservation.
func (s *WindowsSource) Close() error {
	return windows.VirtualFree(s.base, 0, windows.MEM_RELEASE)
}

// NewProductionSource opens the platform page source for this build
// (mirrors the teacher's pattern of a same-named constructor resolved by
// build tag per OS, e.g. hive/dirty's platform-specific flush entry
// points), so callers outside package pages never branch on GOOS.
func NewProductionSource(pageSize, maxSize int) (Source, error) {
	return NewWindowsSource(pageSize, maxSize)
}
