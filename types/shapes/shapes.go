// Package shapes defines SizeVector and the shape/stride utilities shared by
// the tensor view and the indexing machinery.
//
// A SizeVector holds per-axis values as int64 -- extents when describing a
// shape, element counts when describing strides. Axis 0 is the most
// significant (row-major convention): for shape [2 3], axis 0 has extent 2.
//
// ## Glossary
//
//   - Rank / NumDims: number of axes of a shape.
//   - Broadcasting: matching two shapes from the trailing axis backwards,
//     where an extent of 1 stretches to the other shape's extent.
//   - Reduction shape: the shape left after collapsing a set of axes; with
//     keepdim the collapsed axes stay with extent 1.
//
// Functions here panic (with github.com/gomlx/exceptions) on caller misuse:
// shape mismatches are configuration errors and are reported at the call
// site, never deferred.
package shapes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
)

// SizeVector is a vector of int64, used for shapes, strides and axis lists.
type SizeVector []int64

// NewSizeVector returns a SizeVector with the given entries.
func NewSizeVector(values ...int64) SizeVector {
	return SizeVector(values)
}

// NumDims returns the number of axes.
func (sv SizeVector) NumDims() int64 {
	return int64(len(sv))
}

// NumElements returns the product of all entries -- the element count when
// sv is a shape. An empty SizeVector is a scalar shape and yields 1; any
// zero extent yields 0.
func (sv SizeVector) NumElements() int64 {
	n := int64(1)
	for _, d := range sv {
		n *= d
	}
	return n
}

// Clone returns a copy of the SizeVector.
func (sv SizeVector) Clone() SizeVector {
	return slices.Clone(sv)
}

// Equal compares entry-wise.
func (sv SizeVector) Equal(other SizeVector) bool {
	return slices.Equal(sv, other)
}

// String implements fmt.Stringer, printing "{2, 3}" style.
func (sv SizeVector) String() string {
	parts := make([]string, len(sv))
	for i, d := range sv {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// DefaultStrides returns the row-major contiguous strides of shape, in
// element units. The stride of the last axis is 1, and each preceding axis
// strides over the product of the extents after it.
func DefaultStrides(shape SizeVector) SizeVector {
	strides := make(SizeVector, len(shape))
	stride := int64(1)
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

// WrapDim converts dim to a canonical axis in [0, numDims), accepting
// negative values counted from the end. It panics when dim falls outside
// [-numDims, numDims).
func WrapDim(dim, numDims int64) int64 {
	if dim < -numDims || dim >= numDims {
		exceptions.Panicf("axis %d out of range for %d dimensions", dim, numDims)
	}
	if dim < 0 {
		dim += numDims
	}
	return dim
}

// IsPermutation reports whether dims is a permutation of [0, numDims).
// Negative axes are accepted (counted from the end); duplicates, axes out of
// range, or a wrong length make it false.
func IsPermutation(dims SizeVector, numDims int64) bool {
	if dims.NumDims() != numDims {
		return false
	}
	seen := make([]bool, numDims)
	for _, dim := range dims {
		if dim < -numDims || dim >= numDims {
			return false
		}
		if dim < 0 {
			dim += numDims
		}
		if seen[dim] {
			return false
		}
		seen[dim] = true
	}
	return true
}

// CanBeBroadcastedToShape reports whether src can be broadcast to dst:
// matching from the trailing axis backwards, each src extent must equal the
// dst extent or be 1, and src cannot have more axes than dst.
func CanBeBroadcastedToShape(src, dst SizeVector) bool {
	if len(src) > len(dst) {
		return false
	}
	omitted := len(dst) - len(src)
	for i := len(src) - 1; i >= 0; i-- {
		if src[i] != dst[omitted+i] && src[i] != 1 {
			return false
		}
	}
	return true
}

// BroadcastedShape returns the shape resulting from broadcasting a against
// b, or an ok=false when the shapes are incompatible.
func BroadcastedShape(a, b SizeVector) (shape SizeVector, ok bool) {
	if len(b) > len(a) {
		a, b = b, a
	}
	shape = a.Clone()
	omitted := len(a) - len(b)
	for i := len(b) - 1; i >= 0; i-- {
		switch {
		case b[i] == shape[omitted+i] || b[i] == 1:
			// Keep a's extent.
		case shape[omitted+i] == 1:
			shape[omitted+i] = b[i]
		default:
			return nil, false
		}
	}
	return shape, true
}

// ReductionShape returns the shape left after reducing src over the given
// axes. With keepdim the reduced axes keep extent 1, otherwise they are
// dropped. Axes may be negative; duplicate axes (also after wrapping) panic.
func ReductionShape(src SizeVector, dims SizeVector, keepdim bool) SizeVector {
	numDims := src.NumDims()
	reduced := make([]bool, numDims)
	for _, dim := range dims {
		dim = WrapDim(dim, numDims)
		if reduced[dim] {
			exceptions.Panicf("duplicate reduction axis %d for shape %s", dim, src)
		}
		reduced[dim] = true
	}
	out := make(SizeVector, 0, numDims)
	for i, d := range src {
		if reduced[i] {
			if keepdim {
				out = append(out, 1)
			}
			continue
		}
		out = append(out, d)
	}
	return out
}
