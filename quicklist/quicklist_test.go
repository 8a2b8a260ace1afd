package quicklist_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapkit/memlab/block"
	"github.com/heapkit/memlab/quicklist"
)

func TestClassOfExactSizesOnly(t *testing.T) {
	sc, ok := quicklist.ClassOf(32, 20)
	require.True(t, ok)
	require.Equal(t, 0, sc)

	sc, ok = quicklist.ClassOf(40, 20)
	require.True(t, ok)
	require.Equal(t, 1, sc)

	_, ok = quicklist.ClassOf(35, 20)
	require.False(t, ok, "sizes not of the form 32+8i are not quick-listable")

	_, ok = quicklist.ClassOf(16, 20)
	require.False(t, ok, "sizes below MinSize are not quick-listable")

	_, ok = quicklist.ClassOf(32+8*20, 20)
	require.False(t, ok, "sizes past the configured table width are not quick-listable")
}

func TestPushPopLIFO(t *testing.T) {
	data := make([]byte, 4096)
	tbl := quicklist.NewTable(20, 5)

	tbl.Push(data, 0, 100)
	tbl.Push(data, 0, 200)
	tbl.Push(data, 0, 300)

	off, ok := tbl.Pop(data, 0)
	require.True(t, ok)
	require.Equal(t, 300, off)

	off, ok = tbl.Pop(data, 0)
	require.True(t, ok)
	require.Equal(t, 200, off)

	require.Equal(t, 1, tbl.List(0).Len)
}

func TestPopEmptyReturnsFalse(t *testing.T) {
	data := make([]byte, 4096)
	tbl := quicklist.NewTable(20, 5)
	_, ok := tbl.Pop(data, 0)
	require.False(t, ok)
}

func TestFullAtMax(t *testing.T) {
	data := make([]byte, 4096)
	tbl := quicklist.NewTable(20, 2)

	require.False(t, tbl.Full(0))
	tbl.Push(data, 0, 100)
	require.False(t, tbl.Full(0))
	tbl.Push(data, 0, 200)
	require.True(t, tbl.Full(0))
}

func TestDrainEmptiesListAndPreservesLIFOOrder(t *testing.T) {
	data := make([]byte, 4096)
	tbl := quicklist.NewTable(20, 5)

	tbl.Push(data, 0, 100)
	tbl.Push(data, 0, 200)
	tbl.Push(data, 0, 300)

	offs := tbl.Drain(data, 0)
	require.Equal(t, []int{300, 200, 100}, offs)
	require.Equal(t, 0, tbl.List(0).Len)

	_, ok := tbl.Pop(data, 0)
	require.False(t, ok)
}

func TestClassOfAgreesWithBlockMinSize(t *testing.T) {
	sc, ok := quicklist.ClassOf(block.MinSize, 20)
	require.True(t, ok)
	require.Equal(t, 0, sc)
}
