package memstatus_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapkit/memlab/memstatus"
)

func TestSetGetReset(t *testing.T) {
	t.Cleanup(memstatus.Reset)

	require.Equal(t, memstatus.OK, memstatus.Get())

	memstatus.Set(memstatus.ENOMEM)
	require.Equal(t, memstatus.ENOMEM, memstatus.Get())

	memstatus.Set(memstatus.EINVAL)
	require.Equal(t, memstatus.EINVAL, memstatus.Get())

	memstatus.Reset()
	require.Equal(t, memstatus.OK, memstatus.Get())
}

func TestStringNames(t *testing.T) {
	require.Equal(t, "OK", memstatus.OK.String())
	require.Equal(t, "ENOMEM", memstatus.ENOMEM.String())
	require.Equal(t, "EINVAL", memstatus.EINVAL.String())
}
