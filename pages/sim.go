package pages

// SimSource is a portable, in-process simulation of the page-grow
// primitive. It reserves maxSize bytes of capacity up front (so heap
// exhaustion is reachable and deterministic) and "commits" pages by
// extending the slice's length, never its backing array. This is the
// Source used by every test in this module so allocator behavior never
// depends on host OS paging.
type SimSource struct {
	buf      []byte
	pageSize int
	maxSize  int
}

// NewSim creates a simulated page source with the given page size and
// maximum heap size. maxSize is rounded up to a multiple of pageSize (at
// least one page); a non-positive pageSize means 4096.
func NewSim(pageSize, maxSize int) *SimSource {
	if pageSize <= 0 {
		pageSize = 4096
	}
	pages := (maxSize + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	return &SimSource{
		buf:      make([]byte, 0, pages*pageSize),
		pageSize: pageSize,
		maxSize:  pages * pageSize,
	}
}

func (s *SimSource) Grow() (int, bool) {
	start := len(s.buf)
	if start+s.pageSize > cap(s.buf) {
		return 0, false
	}
	s.buf = s.buf[:start+s.pageSize]
	return start, true
}

func (s *SimSource) Bytes() []byte { return s.buf }
func (s *SimSource) Start() int    { return 0 }
func (s *SimSource) End() int      { return len(s.buf) }
func (s *SimSource) PageSize() int { return s.pageSize }
