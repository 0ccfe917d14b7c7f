package core

import (
	"unsafe"
)

// TensorIterator addresses the elements of a single tensor without the
// broadcast/reduction machinery of Indexer. The byte-stride ladder must be
// strictly decreasing towards the innermost dimension, which holds for any
// contiguous or sliced-but-not-permuted layout.
type TensorIterator struct {
	input TensorRef
	ndims int64
}

// NewTensorIterator snapshots t's layout.
func NewTensorIterator(t *Tensor) *TensorIterator {
	return &TensorIterator{
		input: NewTensorRef(t),
		ndims: t.NumDims(),
	}
}

// NumWorkloads returns the number of elements of the underlying tensor.
func (it *TensorIterator) NumWorkloads() int64 {
	n := int64(1)
	for i := int64(0); i < it.ndims; i++ {
		n *= it.input.shape[i]
	}
	return n
}

// GetPtr resolves the address of element workloadIdx in row-major element
// order; indices outside [0, NumWorkloads()) resolve to nil.
func (it *TensorIterator) GetPtr(workloadIdx int64) unsafe.Pointer {
	if workloadIdx < 0 || workloadIdx >= it.NumWorkloads() {
		return nil
	}
	offset := int64(0)
	remaining := workloadIdx * it.input.dtypeByteSize
	for i := int64(0); i < it.ndims; i++ {
		stride := it.input.byteStrides[i]
		offset += remaining / stride * stride
		remaining = remaining % stride
	}
	return unsafe.Add(it.input.dataPtr, int(offset))
}
