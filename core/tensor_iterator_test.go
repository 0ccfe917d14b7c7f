package core

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestTensorIterator(t *testing.T) {
	tensor := FromFlatDataAndDimensions(iota32(24), 2, 3, 4)
	it := NewTensorIterator(tensor)
	require.Equal(t, int64(24), it.NumWorkloads())
	for w := int64(0); w < 24; w++ {
		require.Equal(t, unsafe.Add(tensor.DataPtr(), int(w*4)), it.GetPtr(w))
		require.Equal(t, float32(w), *(*float32)(it.GetPtr(w)))
	}
	require.Nil(t, it.GetPtr(-1))
	require.Nil(t, it.GetPtr(24))
}

func TestTensorIteratorScalar(t *testing.T) {
	scalar := FromScalar(int32(5))
	it := NewTensorIterator(scalar)
	require.Equal(t, int64(1), it.NumWorkloads())
	require.Equal(t, int32(5), *(*int32)(it.GetPtr(0)))
	require.Nil(t, it.GetPtr(1))
}
