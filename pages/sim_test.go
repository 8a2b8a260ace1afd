package pages

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimSourceGrowsPageAtATime(t *testing.T) {
	s := NewSim(4096, 3*4096)

	off, ok := s.Grow()
	require.True(t, ok)
	require.Equal(t, 0, off)
	require.Equal(t, 4096, s.End())

	off, ok = s.Grow()
	require.True(t, ok)
	require.Equal(t, 4096, off)
	require.Equal(t, 8192, s.End())
}

func TestSimSourceExhausts(t *testing.T) {
	s := NewSim(4096, 2*4096)

	_, ok := s.Grow()
	require.True(t, ok)
	_, ok = s.Grow()
	require.True(t, ok)
	_, ok = s.Grow()
	require.False(t, ok, "growth beyond the reserved maximum must fail")
}

func TestSimSourceBytesReflectsCommitted(t *testing.T) {
	s := NewSim(4096, 2*4096)
	require.Empty(t, s.Bytes())

	_, _ = s.Grow()
	require.Len(t, s.Bytes(), 4096)
}
