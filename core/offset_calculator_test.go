package core

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/Padarn/Open3D/pkg/core/dtypes"
	"github.com/Padarn/Open3D/types/shapes"
)

func TestOffsetCalculator(t *testing.T) {
	// Shape {3, 4} with dimension 0 varying fastest; operand 0 is contiguous
	// in that ordering, operand 1 is a broadcast with stride 0 on axis 1.
	oc := NewOffsetCalculator(S(3, 4), []shapes.SizeVector{S(1, 3), S(1, 0)})
	require.Equal(t, int64(2), oc.NumDims())
	require.Equal(t, int64(2), oc.NumArgs())

	offsets := oc.Get(0)
	require.Equal(t, int64(0), offsets[0])
	require.Equal(t, int64(0), offsets[1])

	// linearIdx 7 decodes as (1, 2): axis 0 digit 1, axis 1 digit 2.
	offsets = oc.Get(7)
	require.Equal(t, int64(1*1+2*3), offsets[0])
	require.Equal(t, int64(1), offsets[1])

	offsets = oc.Get(11)
	require.Equal(t, int64(2+3*3), offsets[0])
	require.Equal(t, int64(2), offsets[1])
}

func TestOffsetCalculatorMatchesIndexer(t *testing.T) {
	// The calculator with axis-reversed shape and strides must agree with
	// the Indexer's most-significant-first decode.
	in := FromFlatDataAndDimensions(iota32(12), 1, 3, 4)
	out := Empty(S(2, 3, 4), dtypes.Float32)
	ind := NewIndexer([]*Tensor{in}, out, DtypePolicyAllSame, nil)

	ndims := ind.NumDims()
	reversed := func(v shapes.SizeVector) shapes.SizeVector {
		r := make(shapes.SizeVector, len(v))
		for i := range v {
			r[i] = v[len(v)-1-i]
		}
		return r
	}
	inStrides := make(shapes.SizeVector, ndims)
	outStrides := make(shapes.SizeVector, ndims)
	for i := int64(0); i < ndims; i++ {
		inStrides[i] = ind.GetInput(0).ByteStride(i)
		outStrides[i] = ind.GetOutput(0).ByteStride(i)
	}
	oc := NewOffsetCalculator(reversed(ind.MasterShape()),
		[]shapes.SizeVector{reversed(inStrides), reversed(outStrides)})

	inBase := ind.GetInput(0).DataPtr()
	outBase := ind.GetOutput(0).DataPtr()
	for w := int64(0); w < ind.NumWorkloads(); w++ {
		offsets := oc.Get(w)
		require.Equal(t, ind.GetInputPtr(0, w), unsafe.Add(inBase, int(offsets[0])), "workload %d", w)
		require.Equal(t, ind.GetOutputPtr(w), unsafe.Add(outBase, int(offsets[1])), "workload %d", w)
	}
}

func TestOffsetCalculatorValidation(t *testing.T) {
	tooMany := make(shapes.SizeVector, MaxDims+1)
	for i := range tooMany {
		tooMany[i] = 1
	}
	require.Panics(t, func() { NewOffsetCalculator(tooMany, nil) })
	require.Panics(t, func() {
		NewOffsetCalculator(S(2, 3), []shapes.SizeVector{S(1)})
	})
	require.Panics(t, func() {
		args := make([]shapes.SizeVector, MaxOffsetArgs+1)
		for i := range args {
			args[i] = S(1)
		}
		NewOffsetCalculator(S(2), args)
	})
}
