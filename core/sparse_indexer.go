package core

import (
	"unsafe"

	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"

	"github.com/Padarn/Open3D/pkg/core/dtypes"
	"github.com/Padarn/Open3D/types/shapes"
)

// SparseTensorList describes a set of hashed blocks: NumEntries key/value
// pointer pairs, each value a dense block of ElementShape elements of Dtype.
// When Interleaved is true KeyValuePtrs alternates key0, value0, key1,
// value1, ...; otherwise all keys come first, then all values.
type SparseTensorList struct {
	KeyValuePtrs []unsafe.Pointer
	NumEntries   int64
	Interleaved  bool
	Dtype        dtypes.DType
	ElementShape shapes.SizeVector
}

// SparseIndexer addresses elements inside the value blocks of a
// SparseTensorList. The workload index space is
// NumEntries * ElementShape.NumElements(), entry index varying slowest.
type SparseIndexer struct {
	list      SparseTensorList
	strides   shapes.SizeVector
	elemSize  int64
	byteSize  int64
	numInputs int64
	inputs    [MaxInputs]TensorRef
}

// NewSparseIndexer builds an indexer over the sparse blocks, optionally
// carrying dense side inputs addressed through GetInputPtrFrom2D.
func NewSparseIndexer(list SparseTensorList, inputTensors []*Tensor) *SparseIndexer {
	if len(inputTensors) > MaxInputs {
		exceptions.Panicf("sparse indexer supports at most %d inputs, got %d", MaxInputs, len(inputTensors))
	}
	si := &SparseIndexer{
		list:      list,
		elemSize:  list.ElementShape.NumElements(),
		byteSize:  int64(list.Dtype.Size()),
		numInputs: int64(len(inputTensors)),
	}
	si.strides = make(shapes.SizeVector, list.ElementShape.NumDims())
	stride := int64(1)
	for i := list.ElementShape.NumDims() - 1; i >= 0; i-- {
		si.strides[i] = stride
		if list.ElementShape[i] > 1 {
			stride *= list.ElementShape[i]
		}
	}
	for i, t := range inputTensors {
		si.inputs[i] = NewTensorRef(t)
	}
	klog.V(1).Infof("sparse indexer: %d entries of %s %s, %d dense inputs",
		list.NumEntries, list.ElementShape, list.Dtype, si.numInputs)
	return si
}

// NumWorkloads returns entries times elements per block.
func (si *SparseIndexer) NumWorkloads() int64 {
	return si.list.NumEntries * si.elemSize
}

// GetSparseWorkloadIdx splits a workload index into the entry index and the
// element index within that entry's block.
func (si *SparseIndexer) GetSparseWorkloadIdx(workloadIdx int64) (entryIdx, elemIdx int64) {
	return workloadIdx / si.elemSize, workloadIdx % si.elemSize
}

// GetWorkloadValue3DIdx decodes an element index into (x, y, z) coordinates
// of the block, x varying fastest. The element shape must have at least 3
// dimensions, the last three being (z, y, x).
func (si *SparseIndexer) GetWorkloadValue3DIdx(elemIdx int64) (x, y, z int64) {
	ndims := si.list.ElementShape.NumDims()
	if ndims < 3 {
		exceptions.Panicf("3D decode requires element shape with >= 3 dimensions, have %s", si.list.ElementShape)
	}
	z = elemIdx / si.strides[ndims-3]
	elemIdx = elemIdx % si.strides[ndims-3]
	y = elemIdx / si.strides[ndims-2]
	x = elemIdx % si.strides[ndims-2]
	return x, y, z
}

// GetWorkloadKeyPtr returns the key pointer of an entry.
func (si *SparseIndexer) GetWorkloadKeyPtr(entryIdx int64) unsafe.Pointer {
	if si.list.Interleaved {
		return si.list.KeyValuePtrs[entryIdx*2]
	}
	return si.list.KeyValuePtrs[entryIdx]
}

// GetWorkloadValuePtr returns the address of one element inside an entry's
// value block.
func (si *SparseIndexer) GetWorkloadValuePtr(entryIdx, elemIdx int64) unsafe.Pointer {
	var base unsafe.Pointer
	if si.list.Interleaved {
		base = si.list.KeyValuePtrs[entryIdx*2+1]
	} else {
		base = si.list.KeyValuePtrs[si.list.NumEntries+entryIdx]
	}
	return unsafe.Add(base, int(elemIdx*si.byteSize))
}

// GetInputPtrFrom2D resolves (u, v) in the last two axes of dense input
// tensorIdx, u varying fastest; coordinates outside the tensor's bounds
// resolve to nil so kernels can probe neighborhoods without their own
// bounds checks.
func (si *SparseIndexer) GetInputPtrFrom2D(tensorIdx, u, v int64) unsafe.Pointer {
	if tensorIdx < 0 || tensorIdx >= si.numInputs {
		return nil
	}
	ref := &si.inputs[tensorIdx]
	ndims := ref.ndims
	if ndims < 2 {
		return nil
	}
	if u < 0 || u >= ref.shape[ndims-1] || v < 0 || v >= ref.shape[ndims-2] {
		return nil
	}
	offset := v*ref.byteStrides[ndims-2] + u*ref.byteStrides[ndims-1]
	return unsafe.Add(ref.dataPtr, int(offset))
}
