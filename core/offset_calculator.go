package core

import (
	"github.com/gomlx/exceptions"

	"github.com/Padarn/Open3D/types/shapes"
)

// MaxOffsetArgs is the maximum number of operand stride sets an
// OffsetCalculator can carry.
const MaxOffsetArgs = MaxInputs + MaxOutputs

// OffsetCalculator converts a linear index into per-operand element offsets
// for several operands over one shared iteration shape. Unlike Indexer it
// decodes dimension 0 fastest and works in element units, which matches
// kernels that lay their operand strides out that way.
//
// Dimensions beyond the given rank are padded with extent 1 and stride 0, so
// Get is branch-free over MaxDims.
type OffsetCalculator struct {
	dims    int64
	nargs   int64
	sizes   [MaxDims]int64
	strides [MaxDims][MaxOffsetArgs]int64
}

// NewOffsetCalculator builds a calculator for an iteration shape and one
// stride vector per operand. Every stride vector must have the same rank as
// sizes.
func NewOffsetCalculator(sizes shapes.SizeVector, strides []shapes.SizeVector) *OffsetCalculator {
	dims := sizes.NumDims()
	if dims > MaxDims {
		exceptions.Panicf("iteration shape has too many dimensions: %d > %d", dims, MaxDims)
	}
	nargs := int64(len(strides))
	if nargs > MaxOffsetArgs {
		exceptions.Panicf("too many operands: %d > %d", nargs, MaxOffsetArgs)
	}
	oc := &OffsetCalculator{dims: dims, nargs: nargs}
	for i := int64(0); i < MaxDims; i++ {
		if i < dims {
			oc.sizes[i] = sizes[i]
		} else {
			oc.sizes[i] = 1
		}
		for arg := int64(0); arg < nargs; arg++ {
			if i < dims {
				if strides[arg].NumDims() != dims {
					exceptions.Panicf("operand %d stride rank %d does not match shape rank %d",
						arg, strides[arg].NumDims(), dims)
				}
				oc.strides[i][arg] = strides[arg][i]
			} else {
				oc.strides[i][arg] = 0
			}
		}
	}
	return oc
}

// NumDims returns the rank of the iteration shape.
func (oc *OffsetCalculator) NumDims() int64 { return oc.dims }

// NumArgs returns the number of operands.
func (oc *OffsetCalculator) NumArgs() int64 { return oc.nargs }

// Get decodes linearIdx, dimension 0 varying fastest, and returns the
// element offset of each operand. Entries past NumArgs are zero.
func (oc *OffsetCalculator) Get(linearIdx int64) [MaxOffsetArgs]int64 {
	var offsets [MaxOffsetArgs]int64
	for dim := int64(0); dim < MaxDims; dim++ {
		if dim == oc.dims {
			break
		}
		digit := linearIdx % oc.sizes[dim]
		linearIdx = linearIdx / oc.sizes[dim]
		for arg := int64(0); arg < oc.nargs; arg++ {
			offsets[arg] += digit * oc.strides[dim][arg]
		}
	}
	return offsets
}
