// Package core implements the tensor indexing engine: a unified iteration
// space over N input and M output tensors of arbitrary shape and stride,
// expressing broadcasting and reduction through zero-stride addressing
// instead of materialization.
//
// The center of the package is Indexer (see indexer.go). Tensor is the thin
// strided view the Indexer consumes: shape, per-axis element strides, dtype,
// raw data pointer and a device tag. It does not manage device memory and it
// does not own any layout decision past construction.
//
// Configuration errors (rank over MaxDims, dtype policy violations, invalid
// permutations or ranges) panic via github.com/gomlx/exceptions; degenerate
// data (zero extents, zero workloads) is always valid and yields nothing to
// do.
package core

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/Padarn/Open3D/pkg/core/dtypes"
	"github.com/Padarn/Open3D/types/shapes"
)

// Tensor is a strided view over a flat typed slice.
//
// Views created with Permute, Transpose or Slice share the underlying
// storage. Strides are in element units; they may be zero or negative.
type Tensor struct {
	flat       any            // full underlying typed slice, element type matches dtype
	basePtr    unsafe.Pointer // start of flat's storage
	byteOffset int64          // view offset relative to basePtr
	shape      shapes.SizeVector
	strides    shapes.SizeVector
	dtype      dtypes.DType
	device     Device
}

// slicePtr returns the data pointer of a non-empty slice value, nil otherwise.
func slicePtr(v reflect.Value) unsafe.Pointer {
	if v.Len() == 0 {
		return nil
	}
	return v.UnsafePointer()
}

// FromFlatDataAndDimensions creates a contiguous CPU tensor sharing the given
// flat data. The product of dimensions must match len(data).
func FromFlatDataAndDimensions[T dtypes.Supported](data []T, dimensions ...int64) *Tensor {
	shape := shapes.NewSizeVector(dimensions...)
	if shape.NumElements() != int64(len(data)) {
		exceptions.Panicf("FromFlatDataAndDimensions(%s): data has %d elements, shape requires %d",
			shape, len(data), shape.NumElements())
	}
	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = unsafe.Pointer(&data[0])
	}
	return &Tensor{
		flat:    data,
		basePtr: ptr,
		shape:   shape,
		strides: shapes.DefaultStrides(shape),
		dtype:   dtypes.FromGenericsType[T](),
		device:  CPU0,
	}
}

// FromScalar creates a 0-dimensional tensor holding one value.
func FromScalar[T dtypes.Supported](value T) *Tensor {
	return FromFlatDataAndDimensions([]T{value})
}

// Empty allocates a contiguous zero-initialized CPU tensor.
func Empty(shape shapes.SizeVector, dtype dtypes.DType) *Tensor {
	n := shape.NumElements()
	flat := reflect.MakeSlice(reflect.SliceOf(dtype.GoType()), int(n), int(n))
	return &Tensor{
		flat:    flat.Interface(),
		basePtr: slicePtr(flat),
		shape:   shape.Clone(),
		strides: shapes.DefaultStrides(shape),
		dtype:   dtype,
		device:  CPU0,
	}
}

// NewTensorView wraps flat (a slice of a supported element type) with an
// explicit shape and element strides. Unlike the constructors above this one
// returns an error instead of panicking: it is the entry point for views
// assembled from external metadata.
func NewTensorView(flat any, shape, strides shapes.SizeVector, device Device) (*Tensor, error) {
	v := reflect.ValueOf(flat)
	if v.Kind() != reflect.Slice {
		return nil, errors.Errorf("NewTensorView: flat data must be a slice, got %T", flat)
	}
	dtype := dtypes.FromGoType(v.Type().Elem())
	if dtype == dtypes.InvalidDType {
		return nil, errors.Errorf("NewTensorView: unsupported element type %s", v.Type().Elem())
	}
	if shape.NumDims() != strides.NumDims() {
		return nil, errors.Errorf("NewTensorView: shape %s and strides %s have different ranks", shape, strides)
	}
	if shape.NumElements() > 0 {
		// Every addressable element must fall inside the slice.
		minOffset, maxOffset := int64(0), int64(0)
		for i := range shape {
			span := (shape[i] - 1) * strides[i]
			if span >= 0 {
				maxOffset += span
			} else {
				minOffset += span
			}
		}
		if minOffset < 0 || maxOffset >= int64(v.Len()) {
			return nil, errors.Errorf("NewTensorView: shape %s with strides %s addresses [%d, %d], outside of %d elements",
				shape, strides, minOffset, maxOffset, v.Len())
		}
	}
	return &Tensor{
		flat:    flat,
		basePtr: slicePtr(v),
		shape:   shape.Clone(),
		strides: strides.Clone(),
		dtype:   dtype,
		device:  device,
	}, nil
}

// FlatData returns the full underlying storage of t as a typed slice,
// ignoring any view offset. It panics when T doesn't match t's dtype.
func FlatData[T dtypes.Supported](t *Tensor) []T {
	data, ok := t.flat.([]T)
	if !ok {
		exceptions.Panicf("FlatData[%T] is incompatible with tensor dtype %s", *new(T), t.dtype)
	}
	return data
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() shapes.SizeVector { return t.shape.Clone() }

// Strides returns a copy of the per-axis strides, in element units.
func (t *Tensor) Strides() shapes.SizeVector { return t.strides.Clone() }

// DType returns the element type.
func (t *Tensor) DType() dtypes.DType { return t.dtype }

// Device returns the location tag.
func (t *Tensor) Device() Device { return t.device }

// NumDims returns the number of axes.
func (t *Tensor) NumDims() int64 { return t.shape.NumDims() }

// NumElements returns the number of addressable elements of the view.
func (t *Tensor) NumElements() int64 { return t.shape.NumElements() }

// GetShape returns the extent of one axis; negative axes count from the end.
func (t *Tensor) GetShape(dim int64) int64 {
	return t.shape[shapes.WrapDim(dim, t.NumDims())]
}

// GetStride returns the element stride of one axis; negative axes count from
// the end.
func (t *Tensor) GetStride(dim int64) int64 {
	return t.strides[shapes.WrapDim(dim, t.NumDims())]
}

// DataPtr returns the address of the view's first element.
func (t *Tensor) DataPtr() unsafe.Pointer {
	return unsafe.Add(t.basePtr, int(t.byteOffset))
}

// IsContiguous reports whether the view is row-major contiguous.
func (t *Tensor) IsContiguous() bool {
	return t.strides.Equal(shapes.DefaultStrides(t.shape))
}

// Permute returns a view with axes reordered so that axis i of the result is
// axis dims[i] of t. dims must be a permutation of [0, NumDims()).
func (t *Tensor) Permute(dims shapes.SizeVector) *Tensor {
	numDims := t.NumDims()
	if !shapes.IsPermutation(dims, numDims) {
		exceptions.Panicf("Permute(%s): not a permutation of [0, %d)", dims, numDims)
	}
	view := *t
	view.shape = make(shapes.SizeVector, numDims)
	view.strides = make(shapes.SizeVector, numDims)
	for i, dim := range dims {
		dim = shapes.WrapDim(dim, numDims)
		view.shape[i] = t.shape[dim]
		view.strides[i] = t.strides[dim]
	}
	return &view
}

// Transpose returns a view with two axes swapped.
func (t *Tensor) Transpose(dim0, dim1 int64) *Tensor {
	numDims := t.NumDims()
	dim0 = shapes.WrapDim(dim0, numDims)
	dim1 = shapes.WrapDim(dim1, numDims)
	dims := make(shapes.SizeVector, numDims)
	for i := range dims {
		dims[i] = int64(i)
	}
	dims[dim0], dims[dim1] = dim1, dim0
	return t.Permute(dims)
}

// Slice returns a view restricted to [start, stop) along dim.
func (t *Tensor) Slice(dim, start, stop int64) *Tensor {
	dim = shapes.WrapDim(dim, t.NumDims())
	if start < 0 || stop > t.shape[dim] || start >= stop {
		exceptions.Panicf("Slice: invalid range [%d, %d) for axis %d with extent %d",
			start, stop, dim, t.shape[dim])
	}
	view := *t
	view.shape = t.shape.Clone()
	view.strides = t.strides.Clone()
	view.shape[dim] = stop - start
	view.byteOffset += start * t.strides[dim] * int64(t.dtype.Size())
	return &view
}

// String implements fmt.Stringer with shape and dtype, e.g. "(Float32){4, 3}".
func (t *Tensor) String() string {
	return fmt.Sprintf("(%s)%s", t.dtype, t.shape)
}
