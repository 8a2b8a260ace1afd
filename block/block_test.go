package block_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapkit/memlab/block"
)

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	cases := []block.Header{
		{Size: 32, ThisAllocated: false, PrevAllocated: false, InQuickList: false},
		{Size: 64, ThisAllocated: true, PrevAllocated: false, InQuickList: false},
		{Size: 128, ThisAllocated: true, PrevAllocated: true, InQuickList: true},
		{Size: 1 << 20, ThisAllocated: false, PrevAllocated: true, InQuickList: false},
	}
	for _, h := range cases {
		got := block.Decode(h.Encode())
		require.Equal(t, h, got)
	}
}

func TestFlagBitsDoNotLeakIntoSize(t *testing.T) {
	h := block.Header{Size: 40, ThisAllocated: true, PrevAllocated: true, InQuickList: true}
	raw := h.Encode()
	require.Equal(t, uint64(40|0x7), raw)
}

func TestWriteReadHeaderAndFooter(t *testing.T) {
	data := make([]byte, 256)
	h := block.Header{Size: 48, ThisAllocated: false, PrevAllocated: true}
	block.WriteHeader(data, 32, h)
	block.WriteFooter(data, 32, h)

	require.Equal(t, h, block.ReadHeader(data, 32))
	require.Equal(t, h, block.ReadHeader(data, block.FooterOffset(32, 48)))
	require.Equal(t, h, block.PrevFooter(data, 32+48))
}

func TestAlign8(t *testing.T) {
	require.Equal(t, 0, block.Align8(0))
	require.Equal(t, 8, block.Align8(1))
	require.Equal(t, 8, block.Align8(8))
	require.Equal(t, 16, block.Align8(9))
}
