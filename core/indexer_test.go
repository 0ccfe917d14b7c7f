package core

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Padarn/Open3D/pkg/core/dtypes"
	"github.com/Padarn/Open3D/types/shapes"
)

func TestTensorRef(t *testing.T) {
	tensor := FromFlatDataAndDimensions(iota32(24), 2, 3, 4)
	ref := NewTensorRef(tensor)
	require.Equal(t, int64(3), ref.NumDims())
	require.Equal(t, int64(4), ref.DtypeByteSize())
	require.Equal(t, int64(3), ref.Shape(1))
	// Strides are in bytes.
	require.Equal(t, int64(48), ref.ByteStride(0))
	require.Equal(t, int64(16), ref.ByteStride(1))
	require.Equal(t, int64(4), ref.ByteStride(2))

	other := NewTensorRef(tensor)
	require.True(t, ref.Equal(&other))

	other.Permute(S(2, 0, 1))
	require.False(t, ref.Equal(&other))
	require.Equal(t, int64(4), other.Shape(0))
	require.Equal(t, int64(4), other.ByteStride(0))
	require.Equal(t, int64(48), other.ByteStride(1))

	require.Panics(t, func() { other.Permute(S(0, 1)) })
	require.Panics(t, func() { other.Permute(S(0, 0, 1)) })
}

func TestIndexerBroadcast(t *testing.T) {
	lhs := FromFlatDataAndDimensions(iota32(4), 4, 1)
	rhs := FromFlatDataAndDimensions(iota32(3), 1, 3)
	out := Empty(S(4, 3), dtypes.Float32)

	ind := NewIndexer([]*Tensor{lhs, rhs}, out, DtypePolicyAllSame, nil)
	require.Equal(t, int64(12), ind.NumWorkloads())
	require.Equal(t, int64(12), ind.NumOutputElements())
	require.Equal(t, int64(2), ind.NumDims())
	require.Equal(t, S(4, 3), ind.MasterShape())
	require.Equal(t, int64(0), ind.NumReductionDims())

	// Workload 5 is coordinate (1, 2).
	require.Equal(t, float32(1), *(*float32)(ind.GetInputPtr(0, 5)))
	require.Equal(t, float32(2), *(*float32)(ind.GetInputPtr(1, 5)))
	require.Equal(t, unsafe.Add(out.DataPtr(), 5*4), ind.GetOutputPtr(5))

	// The broadcast axis reads the same element across the row.
	require.Equal(t, ind.GetInputPtr(0, 3), ind.GetInputPtr(0, 5))
	require.NotEqual(t, ind.GetInputPtr(1, 3), ind.GetInputPtr(1, 5))

	// Negative workload indices resolve to nil.
	require.Nil(t, ind.GetInputPtr(0, -1))
	require.Nil(t, ind.GetOutputPtr(-1))
	// Out-of-range tensor indices too.
	require.Nil(t, ind.GetInputPtr(2, 0))
	require.Nil(t, ind.GetOutputPtrAt(1, 0))
}

func TestIndexerBroadcastRankExpansion(t *testing.T) {
	// A vector broadcast against a matrix gains a leading size-1 axis.
	vec := FromFlatDataAndDimensions(iota32(3), 3)
	out := Empty(S(4, 3), dtypes.Float32)

	ind := NewIndexer([]*Tensor{vec}, out, DtypePolicyAllSame, nil)
	require.Equal(t, int64(12), ind.NumWorkloads())
	for w := int64(0); w < 12; w++ {
		require.Equal(t, float32(w%3), *(*float32)(ind.GetInputPtr(0, w)), "workload %d", w)
	}
}

func TestIndexerStridedInput(t *testing.T) {
	// A permuted, non-contiguous input must resolve to the same addresses a
	// coordinate walk over the original storage does.
	base := FromFlatDataAndDimensions(iota32(60), 4, 5, 3)
	input := base.Permute(S(2, 0, 1)) // shape {3, 4, 5}
	out := Empty(S(3, 4, 5), dtypes.Float32)

	ind := NewIndexer([]*Tensor{input}, out, DtypePolicyAllSame, nil)
	require.Equal(t, int64(60), ind.NumWorkloads())

	strides := input.Strides()
	w := int64(0)
	for coord := range shapes.Iter(S(3, 4, 5)) {
		offset := int64(0)
		for i, c := range coord {
			offset += c * strides[i]
		}
		want := unsafe.Add(input.DataPtr(), int(offset*4))
		require.Equal(t, want, ind.GetInputPtr(0, w), "workload %d coord %s", w, coord)
		w++
	}
}

func TestIndexerReduction(t *testing.T) {
	src := FromFlatDataAndDimensions(iota32(12), 4, 3)
	dst := Empty(S(4, 1), dtypes.Float32)

	ind := NewIndexer([]*Tensor{src}, dst, DtypePolicyAllSame, S(1))
	require.Equal(t, int64(12), ind.NumWorkloads())
	require.Equal(t, int64(4), ind.NumOutputElements())
	require.Equal(t, int64(1), ind.NumReductionDims())
	require.Equal(t, int64(2), ind.NumDims())
	// Reduction dimensions come first.
	require.True(t, ind.IsReductionDim(0))
	require.False(t, ind.IsReductionDim(1))
	require.Equal(t, S(3, 4), ind.MasterShape())

	// Workloads reducing into the same cell share the output address.
	require.Equal(t, ind.GetOutputPtr(1), ind.GetOutputPtr(5))
	require.Equal(t, ind.GetOutputPtr(1), ind.GetOutputPtr(9))
	require.NotEqual(t, ind.GetOutputPtr(1), ind.GetOutputPtr(2))

	// Each input element is visited exactly once.
	seen := map[unsafe.Pointer]bool{}
	for w := int64(0); w < 12; w++ {
		seen[ind.GetInputPtr(0, w)] = true
	}
	require.Len(t, seen, 12)

	require.False(t, ind.ShouldAccumulate())
	require.True(t, ind.IsFinalOutput())
}

func TestIndexerReductionKeepdimRequired(t *testing.T) {
	src := FromFlatDataAndDimensions(iota32(12), 4, 3)
	// Output missing the kept size-1 axis is rejected.
	dst := Empty(S(4), dtypes.Float32)
	require.Panics(t, func() {
		NewIndexer([]*Tensor{src}, dst, DtypePolicyAllSame, S(1))
	})
}

func TestIndexerRejectsBroadcastWithReduction(t *testing.T) {
	lhs := FromFlatDataAndDimensions(iota32(12), 4, 3)
	rhs := FromFlatDataAndDimensions(iota32(3), 1, 3)
	dst := Empty(S(4, 1), dtypes.Float32)
	require.Panics(t, func() {
		NewIndexer([]*Tensor{lhs, rhs}, dst, DtypePolicyAllSame, S(1))
	})
}

func TestIndexerDtypePolicies(t *testing.T) {
	f32 := FromFlatDataAndDimensions(iota32(3), 3)
	i32 := FromFlatDataAndDimensions([]int32{1, 2, 3}, 3)
	outF32 := Empty(S(3), dtypes.Float32)
	outBool := Empty(S(3), dtypes.Bool)

	require.Panics(t, func() {
		NewIndexer([]*Tensor{f32, i32}, outF32, DtypePolicyAllSame, nil)
	})
	require.Panics(t, func() {
		NewIndexer([]*Tensor{f32}, outBool, DtypePolicyAllSame, nil)
	})
	require.Panics(t, func() {
		NewIndexer([]*Tensor{f32, i32}, outBool, DtypePolicyInputSameOutputBool, nil)
	})
	require.Panics(t, func() {
		NewIndexer([]*Tensor{f32, f32}, outF32, DtypePolicyInputSameOutputBool, nil)
	})

	// None skips the check entirely, InputSame ignores outputs.
	require.NotPanics(t, func() {
		NewIndexer([]*Tensor{f32, i32}, outBool, DtypePolicyNone, nil)
	})
	require.NotPanics(t, func() {
		NewIndexer([]*Tensor{f32, f32}, outBool, DtypePolicyInputSame, nil)
	})
	require.NotPanics(t, func() {
		NewIndexer([]*Tensor{f32, f32}, outBool, DtypePolicyInputSameOutputBool, nil)
	})
}

func TestIndexerShapeMismatch(t *testing.T) {
	lhs := FromFlatDataAndDimensions(iota32(8), 4, 2)
	out := Empty(S(4, 3), dtypes.Float32)
	require.Panics(t, func() {
		NewIndexer([]*Tensor{lhs}, out, DtypePolicyAllSame, nil)
	})
	require.Panics(t, func() {
		NewIndexerMultiOutput([]*Tensor{out}, []*Tensor{out, Empty(S(3, 4), dtypes.Float32)},
			DtypePolicyAllSame, nil)
	})
	require.Panics(t, func() {
		NewIndexerMultiOutput(nil, []*Tensor{out}, DtypePolicyAllSame, nil)
	})
}

func TestCoalesceDimensions(t *testing.T) {
	// Fully contiguous same-shape tensors collapse into a single dimension.
	in := FromFlatDataAndDimensions(iota32(24), 2, 3, 4)
	out := Empty(S(2, 3, 4), dtypes.Float32)
	ind := NewIndexer([]*Tensor{in}, out, DtypePolicyAllSame, nil)
	require.Equal(t, int64(1), ind.NumDims())
	require.Equal(t, S(24), ind.MasterShape())

	// Addresses are unchanged by coalescing: still a plain linear walk.
	for w := int64(0); w < 24; w++ {
		require.Equal(t, unsafe.Add(in.DataPtr(), int(w*4)), ind.GetInputPtr(0, w))
	}

	// Coalescing is idempotent.
	ind.CoalesceDimensions()
	require.Equal(t, int64(1), ind.NumDims())
	require.Equal(t, int64(24), ind.NumWorkloads())
}

func TestCoalesceDimensionsPartial(t *testing.T) {
	// A broadcast input blocks merging across the broadcast axis but the two
	// trailing contiguous axes still merge.
	in := FromFlatDataAndDimensions(iota32(12), 1, 3, 4)
	out := Empty(S(2, 3, 4), dtypes.Float32)
	ind := NewIndexer([]*Tensor{in}, out, DtypePolicyAllSame, nil)
	require.Equal(t, int64(2), ind.NumDims())
	require.Equal(t, S(2, 12), ind.MasterShape())
	require.Equal(t, int64(24), ind.NumWorkloads())

	// The input repeats over the leading output axis.
	require.Equal(t, ind.GetInputPtr(0, 0), ind.GetInputPtr(0, 12))
}

func TestIndexerReductionFullCollapse(t *testing.T) {
	// Reducing every axis of a contiguous tensor coalesces to one dimension
	// aliasing a single output cell.
	src := FromFlatDataAndDimensions(iota32(12), 4, 3)
	dst := Empty(S(1, 1), dtypes.Float32)
	ind := NewIndexer([]*Tensor{src}, dst, DtypePolicyAllSame, S(0, 1))
	require.Equal(t, int64(1), ind.NumDims())
	require.Equal(t, int64(12), ind.NumWorkloads())
	require.Equal(t, int64(1), ind.NumOutputElements())
	for w := int64(0); w < 12; w++ {
		require.Equal(t, dst.DataPtr(), ind.GetOutputPtr(w))
	}
}

func TestShrinkDim(t *testing.T) {
	in := FromFlatDataAndDimensions(iota32(24), 4, 6)
	out := Empty(S(4, 6), dtypes.Float32)
	ind := NewIndexer([]*Tensor{in}, out, DtypePolicyAllSame, nil)
	// Contiguous, so it coalesced to {24}; shrink to the middle third.
	require.Equal(t, int64(1), ind.NumDims())
	ind.ShrinkDim(0, 8, 8)
	require.Equal(t, int64(8), ind.NumWorkloads())
	for w := int64(0); w < 8; w++ {
		require.Equal(t, unsafe.Add(in.DataPtr(), int((8+w)*4)), ind.GetInputPtr(0, w))
		require.Equal(t, unsafe.Add(out.DataPtr(), int((8+w)*4)), ind.GetOutputPtr(w))
	}

	require.Panics(t, func() { ind.ShrinkDim(1, 0, 1) })
	require.Panics(t, func() { ind.ShrinkDim(0, 0, 0) })
	require.Panics(t, func() { ind.ShrinkDim(0, 4, 8) })
}

func TestShrinkDimToOneCoalesces(t *testing.T) {
	lhs := FromFlatDataAndDimensions(iota32(12), 4, 3)
	out := Empty(S(4, 3), dtypes.Float32)
	rhs := FromFlatDataAndDimensions(iota32(4), 4, 1)
	ind := NewIndexer([]*Tensor{lhs, rhs}, out, DtypePolicyAllSame, nil)
	require.Equal(t, int64(2), ind.NumDims())

	ind.ShrinkDim(1, 1, 1)
	// The size-1 axis merges away.
	require.Equal(t, int64(1), ind.NumDims())
	require.Equal(t, int64(4), ind.NumWorkloads())
	for w := int64(0); w < 4; w++ {
		require.Equal(t, unsafe.Add(lhs.DataPtr(), int((w*3+1)*4)), ind.GetInputPtr(0, w))
		require.Equal(t, unsafe.Add(rhs.DataPtr(), int(w*4)), ind.GetInputPtr(1, w))
	}
}

func TestSplitLargestDim(t *testing.T) {
	in := FromFlatDataAndDimensions(iota32(8), 8)
	out := Empty(S(8), dtypes.Float32)
	ind := NewIndexer([]*Tensor{in}, out, DtypePolicyAllSame, nil)

	first := ind.SplitLargestDim()
	require.Equal(t, int64(4), first.NumWorkloads())
	require.Equal(t, int64(4), ind.NumWorkloads())
	require.Equal(t, in.DataPtr(), first.GetInputPtr(0, 0))
	require.Equal(t, unsafe.Add(in.DataPtr(), 4*4), ind.GetInputPtr(0, 0))

	// Elementwise splits stay final and never accumulate.
	require.True(t, first.IsFinalOutput())
	require.True(t, ind.IsFinalOutput())
	require.False(t, ind.ShouldAccumulate())
}

func TestSplitLargestDimReduction(t *testing.T) {
	src := FromFlatDataAndDimensions(iota32(8), 8)
	dst := Empty(S(1), dtypes.Float32)
	ind := NewIndexer([]*Tensor{src}, dst, DtypePolicyAllSame, S(0))

	first := ind.SplitLargestDim()
	// Both halves write the same accumulator cell.
	require.Equal(t, first.GetOutputPtr(0), ind.GetOutputPtr(0))
	require.False(t, first.IsFinalOutput())
	require.True(t, ind.IsFinalOutput())
	require.False(t, first.ShouldAccumulate())
	require.True(t, ind.ShouldAccumulate())
}

func TestSplitLargestDimExhausted(t *testing.T) {
	in := FromScalar(float32(1))
	out := Empty(S(), dtypes.Float32)
	ind := NewIndexer([]*Tensor{in}, out, DtypePolicyAllSame, nil)
	require.Panics(t, func() { ind.SplitLargestDim() })
}

func TestGetPerOutputIndexer(t *testing.T) {
	src := FromFlatDataAndDimensions(iota32(12), 4, 3)
	dst := Empty(S(4, 1), dtypes.Float32)
	ind := NewIndexer([]*Tensor{src}, dst, DtypePolicyAllSame, S(1))

	for outputIdx := int64(0); outputIdx < 4; outputIdx++ {
		sub := ind.GetPerOutputIndexer(outputIdx)
		require.Equal(t, int64(3), sub.NumWorkloads(), "output %d", outputIdx)
		require.Equal(t, unsafe.Add(dst.DataPtr(), int(outputIdx*4)), sub.GetOutputPtr(0))
		for i := int64(0); i < 3; i++ {
			want := unsafe.Add(src.DataPtr(), int((outputIdx*3+i)*4))
			require.Equal(t, want, sub.GetInputPtr(0, i), "output %d elem %d", outputIdx, i)
		}
	}

	require.Panics(t, func() { ind.GetPerOutputIndexer(4) })
	require.Panics(t, func() { ind.GetPerOutputIndexer(-1) })
}

func TestGetWorkload2DIdx(t *testing.T) {
	// A broadcast input keeps the two axes from coalescing.
	in := FromFlatDataAndDimensions(iota32(3), 1, 3)
	out := Empty(S(2, 3), dtypes.Float32)
	ind := NewIndexer([]*Tensor{in}, out, DtypePolicyAllSame, nil)
	require.Equal(t, int64(2), ind.NumDims())

	x, y := ind.GetWorkload2DIdx(5)
	require.Equal(t, int64(2), x)
	require.Equal(t, int64(1), y)
	x, y = ind.GetWorkload2DIdx(0)
	require.Equal(t, int64(0), x)
	require.Equal(t, int64(0), y)
}

func TestCanUse32BitIndexing(t *testing.T) {
	in := FromFlatDataAndDimensions(iota32(24), 2, 3, 4)
	out := Empty(S(2, 3, 4), dtypes.Float32)
	ind := NewIndexer([]*Tensor{in}, out, DtypePolicyAllSame, nil)
	require.True(t, ind.CanUse32BitIndexing())
	require.True(t, ind.canIndexUnder(24*4+1))
	require.False(t, ind.canIndexUnder(23))
}

func TestGetInputOutputAccessors(t *testing.T) {
	in := FromFlatDataAndDimensions(iota32(6), 2, 3)
	out := Empty(S(2, 3), dtypes.Float32)
	ind := NewIndexer([]*Tensor{in}, out, DtypePolicyAllSame, nil)
	require.Equal(t, int64(1), ind.NumInputs())
	require.Equal(t, int64(1), ind.NumOutputs())
	require.Equal(t, in.DataPtr(), ind.GetInput(0).DataPtr())
	require.Equal(t, out.DataPtr(), ind.GetOutput(0).DataPtr())
	require.Panics(t, func() { ind.GetInput(1) })
	require.Panics(t, func() { ind.GetOutput(-1) })
	assert.Contains(t, ind.String(), "workloads=6")
}
