package core

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/gomlx/exceptions"

	"github.com/Padarn/Open3D/pkg/core/dtypes"
	"github.com/Padarn/Open3D/types/shapes"
)

const (
	// MaxDims is the maximum number of dimensions of a TensorRef.
	MaxDims = 10

	// MaxInputs is the maximum number of inputs of an op.
	// MaxInputs shall be >= MaxDims to support advanced indexing.
	MaxInputs = 10

	// MaxOutputs is the maximum number of outputs of an op. This number can be
	// increased when necessary.
	MaxOutputs = 7
)

// TensorRef is a minimal, trivially copyable description of one tensor's
// memory: base pointer, element width, and per-axis extent and byte stride.
// It holds no ownership; entries at axes >= NumDims() are zero.
//
// A TensorRef is a snapshot taken at construction: if the underlying
// tensor's layout changes afterwards the ref is stale.
type TensorRef struct {
	dataPtr       unsafe.Pointer
	ndims         int64
	dtypeByteSize int64
	shape         [MaxDims]int64
	byteStrides   [MaxDims]int64
}

// NewTensorRef copies the addressing metadata out of a live tensor.
// Strides are converted to bytes so pointer arithmetic stays dtype-agnostic.
func NewTensorRef(t *Tensor) TensorRef {
	if t.NumDims() > MaxDims {
		exceptions.Panicf("tensor has too many dimensions: %d > %d", t.NumDims(), MaxDims)
	}
	ref := TensorRef{
		dataPtr:       t.DataPtr(),
		ndims:         t.NumDims(),
		dtypeByteSize: int64(t.DType().Size()),
	}
	for i := int64(0); i < ref.ndims; i++ {
		ref.shape[i] = t.GetShape(i)
		ref.byteStrides[i] = t.GetStride(i) * ref.dtypeByteSize
	}
	return ref
}

// DataPtr returns the ref's base address.
func (ref *TensorRef) DataPtr() unsafe.Pointer { return ref.dataPtr }

// NumDims returns the number of active dimensions.
func (ref *TensorRef) NumDims() int64 { return ref.ndims }

// DtypeByteSize returns the element width in bytes.
func (ref *TensorRef) DtypeByteSize() int64 { return ref.dtypeByteSize }

// Shape returns the extent at dim.
func (ref *TensorRef) Shape(dim int64) int64 { return ref.shape[dim] }

// ByteStride returns the byte stride at dim.
func (ref *TensorRef) ByteStride(dim int64) int64 { return ref.byteStrides[dim] }

// Permute reorders shape and strides in place so that axis i becomes the old
// axis dims[i]. dims must have length NumDims() and be a permutation of
// [0, NumDims()); anything else panics, nothing is silently truncated.
func (ref *TensorRef) Permute(dims shapes.SizeVector) {
	if dims.NumDims() != ref.ndims {
		exceptions.Panicf("number of dimensions mismatch: %d != %d", dims.NumDims(), ref.ndims)
	}
	if !shapes.IsPermutation(dims, ref.ndims) {
		exceptions.Panicf("permute dims %s must be a permutation of [0, %d)", dims, ref.ndims)
	}
	var newShape, newByteStrides [MaxDims]int64
	for i := int64(0); i < ref.ndims; i++ {
		old := shapes.WrapDim(dims[i], ref.ndims)
		newShape[i] = ref.shape[old]
		newByteStrides[i] = ref.byteStrides[old]
	}
	ref.shape = newShape
	ref.byteStrides = newByteStrides
}

// Equal compares pointer, dims, element width and every active shape/stride
// entry.
func (ref *TensorRef) Equal(other *TensorRef) bool {
	if ref.dataPtr != other.dataPtr || ref.ndims != other.ndims ||
		ref.dtypeByteSize != other.dtypeByteSize {
		return false
	}
	for i := int64(0); i < ref.ndims; i++ {
		if ref.shape[i] != other.shape[i] || ref.byteStrides[i] != other.byteStrides[i] {
			return false
		}
	}
	return true
}

// DtypePolicy controls the dtype validation step at Indexer construction.
type DtypePolicy int32

//go:generate go tool enumer -type=DtypePolicy -trimprefix=DtypePolicy -output=gen_dtypepolicy_enumer.go indexer.go

const (
	// DtypePolicyNone performs no check. The op inspects dtypes itself,
	// e.g. a copy kernel with type casting.
	DtypePolicyNone DtypePolicy = iota

	// DtypePolicyAllSame requires all inputs and outputs to share one dtype.
	DtypePolicyAllSame

	// DtypePolicyInputSame requires all inputs to share one dtype; outputs
	// may differ.
	DtypePolicyInputSame

	// DtypePolicyInputSameOutputBool requires all inputs to share one dtype
	// and all outputs to be Bool, e.g. comparison ops.
	DtypePolicyInputSameOutputBool
)

// Indexer maps a linear workload index to per-tensor memory addresses for
// elementwise ops with broadcasting and for reductions.
//
// The master shape is the unified iteration space: the output shape for
// broadcasting ops, the input shape for reduction ops. Mixing broadcasting
// and reduction in one Indexer is not supported and is rejected at
// construction.
//
// Once constructed an Indexer holds no mutable shared state; the address
// resolution methods are pure functions of the workload index and safe to
// call concurrently. The explicit narrowing calls (ShrinkDim,
// SplitLargestDim, GetPerOutputIndexer) are the only mutating operations and
// must be sequenced by the caller.
type Indexer struct {
	numInputs  int64
	numOutputs int64

	inputs  [MaxInputs]TensorRef
	outputs [MaxOutputs]TensorRef

	// masterShape is the iteration shape; the product of its active entries
	// equals NumWorkloads.
	masterShape [MaxDims]int64

	// masterStrides are the default strides of masterShape, used only as the
	// divisor ladder decoding a linear workload index into coordinates.
	masterStrides [MaxDims]int64

	ndims int64

	// finalOutput is whether this indexer writes the actual output, as
	// opposed to a partial result that is accumulated further. Only relevant
	// for split reductions.
	finalOutput bool

	// accumulate is whether the kernel should accumulate into the output
	// instead of overwriting it. Only relevant for split reductions.
	accumulate bool
}

// NewIndexer builds an Indexer over the inputs and a single output.
// reductionDims may be nil for elementwise/broadcasting ops.
//
// Configuration errors (too many tensors or dimensions, dtype policy
// violations, reduction/output shape mismatch) panic.
func NewIndexer(inputTensors []*Tensor, outputTensor *Tensor, dtypePolicy DtypePolicy, reductionDims shapes.SizeVector) *Indexer {
	return NewIndexerMultiOutput(inputTensors, []*Tensor{outputTensor}, dtypePolicy, reductionDims)
}

// NewIndexerMultiOutput is NewIndexer for ops with several outputs. All
// outputs must share one shape; use GetPerOutputIndexer to narrow to the
// inputs feeding a single output.
func NewIndexerMultiOutput(inputTensors []*Tensor, outputTensors []*Tensor, dtypePolicy DtypePolicy, reductionDims shapes.SizeVector) *Indexer {
	if len(inputTensors) < 1 || len(inputTensors) > MaxInputs {
		exceptions.Panicf("indexer requires 1 to %d inputs, got %d", MaxInputs, len(inputTensors))
	}
	if len(outputTensors) < 1 || len(outputTensors) > MaxOutputs {
		exceptions.Panicf("indexer requires 1 to %d outputs, got %d", MaxOutputs, len(outputTensors))
	}
	checkDtypePolicy(inputTensors, outputTensors, dtypePolicy)

	ind := &Indexer{
		numInputs:   int64(len(inputTensors)),
		numOutputs:  int64(len(outputTensors)),
		finalOutput: true,
	}
	for i, t := range inputTensors {
		ind.inputs[i] = NewTensorRef(t)
	}
	for i, t := range outputTensors {
		ind.outputs[i] = NewTensorRef(t)
	}

	if len(reductionDims) > 0 {
		// Reduction: iterate the input shape; reduced output axes alias one
		// accumulator cell via stride 0. Only keepdim outputs are supported.
		if ind.numOutputs != 1 {
			exceptions.Panicf("reduction ops support exactly 1 output, got %d", ind.numOutputs)
		}
		inShape := inputTensors[0].Shape()
		for _, t := range inputTensors[1:] {
			// Requiring identical input shapes also keeps reduction from
			// being mixed with broadcasting.
			if !t.Shape().Equal(inShape) {
				exceptions.Panicf("reduction cannot be mixed with broadcasting: input shapes %s != %s",
					t.Shape(), inShape)
			}
		}
		keptShape := shapes.ReductionShape(inShape, reductionDims, true)
		if !outputTensors[0].Shape().Equal(keptShape) {
			exceptions.Panicf("reduction dimensions mismatch: input shape %s, reduction dims %s, output shape %s (want %s)",
				inShape, reductionDims, outputTensors[0].Shape(), keptShape)
		}
		ind.ndims = ind.inputs[0].ndims
		reductionRestride(&ind.outputs[0], ind.ndims, ind.inputs[0].shape[:])
		for i := int64(0); i < ind.ndims; i++ {
			ind.masterShape[i] = ind.inputs[0].shape[i]
		}
		ind.reorderDimensions(reductionDims)
	} else {
		// Broadcasting: iterate the output shape; every input is restrided
		// so omitted or size-1 axes read one value via stride 0.
		outShape := outputTensors[0].Shape()
		for _, t := range outputTensors[1:] {
			if !t.Shape().Equal(outShape) {
				exceptions.Panicf("all outputs must share one shape: %s != %s", t.Shape(), outShape)
			}
		}
		for _, t := range inputTensors {
			if !shapes.CanBeBroadcastedToShape(t.Shape(), outShape) {
				exceptions.Panicf("input shape %s cannot be broadcast to output shape %s", t.Shape(), outShape)
			}
		}
		ind.ndims = ind.outputs[0].ndims
		for i := int64(0); i < ind.ndims; i++ {
			ind.masterShape[i] = ind.outputs[0].shape[i]
		}
		for i := int64(0); i < ind.numInputs; i++ {
			broadcastRestride(&ind.inputs[i], ind.ndims, ind.masterShape[:])
		}
	}

	ind.CoalesceDimensions()
	return ind
}

func checkDtypePolicy(inputTensors, outputTensors []*Tensor, dtypePolicy DtypePolicy) {
	checkInputsSame := func() dtypes.DType {
		dtype := inputTensors[0].DType()
		for _, t := range inputTensors[1:] {
			if t.DType() != dtype {
				exceptions.Panicf("dtype mismatch: input dtype %s != %s", t.DType(), dtype)
			}
		}
		return dtype
	}
	switch dtypePolicy {
	case DtypePolicyNone:
	case DtypePolicyAllSame:
		dtype := checkInputsSame()
		for _, t := range outputTensors {
			if t.DType() != dtype {
				exceptions.Panicf("dtype mismatch: output dtype %s != %s", t.DType(), dtype)
			}
		}
	case DtypePolicyInputSame:
		checkInputsSame()
	case DtypePolicyInputSameOutputBool:
		checkInputsSame()
		for _, t := range outputTensors {
			if t.DType() != dtypes.Bool {
				exceptions.Panicf("dtype mismatch: output dtype %s, want %s", t.DType(), dtypes.Bool)
			}
		}
	default:
		exceptions.Panicf("unknown dtype policy %d", dtypePolicy)
	}
}

// broadcastRestride reshapes src to dstNumDims axes: omitted leading axes get
// extent 1 and stride 0, and axes where src has extent 1 against a larger
// destination extent get stride 0, so every coordinate along them resolves
// to the same address.
//
// [Before]                 omitted  broadcast  no broadcast
//
//	src.shape:         [    2,  1,         1,  3]
//	src.byteStrides:   [    3,  3,         3,  1]
//	dst shape:         [ 2, 2,  2,         1,  3]
//
// [After]
//
//	src.shape:         [ 1, 2,  1,         1,  3]
//	src.byteStrides:   [ 0, 3,  0,         3,  1]
func broadcastRestride(src *TensorRef, dstNumDims int64, dstShape []int64) {
	srcNumDims := src.ndims

	// Shift existing axes right, filling omitted leading axes.
	omitted := dstNumDims - srcNumDims
	for i := srcNumDims - 1; i >= 0; i-- {
		src.shape[omitted+i] = src.shape[i]
		src.byteStrides[omitted+i] = src.byteStrides[i]
	}
	for i := int64(0); i < omitted; i++ {
		src.shape[i] = 1
		src.byteStrides[i] = 0
	}
	src.ndims = dstNumDims

	for i := int64(0); i < dstNumDims; i++ {
		// src extent > 1 against dst extent 1 is fine: the axis is never
		// iterated past 0.
		if src.shape[i] == 1 && dstShape[i] != 1 {
			src.byteStrides[i] = 0
		}
	}
}

// reductionRestride is symmetrical to broadcastRestride: reduced output axes
// (kept with extent 1 against a larger input extent) get stride 0, so all
// workloads along them alias the same accumulator cell.
func reductionRestride(dst *TensorRef, srcNumDims int64, srcShape []int64) {
	if dst.ndims != srcNumDims {
		exceptions.Panicf("reduction output has %d dimensions, input has %d", dst.ndims, srcNumDims)
	}
	for i := int64(0); i < dst.ndims; i++ {
		if dst.shape[i] == 1 && srcShape[i] != 1 {
			dst.byteStrides[i] = 0
		}
	}
}

// reorderDimensions permutes all refs and the master shape so reduction
// dimensions come first, stable otherwise, matching the decode order used by
// address resolution.
func (ind *Indexer) reorderDimensions(reductionDims shapes.SizeVector) {
	isReduction := make([]bool, ind.ndims)
	for _, dim := range reductionDims {
		isReduction[shapes.WrapDim(dim, ind.ndims)] = true
	}
	perm := make(shapes.SizeVector, 0, ind.ndims)
	for dim := int64(0); dim < ind.ndims; dim++ {
		if isReduction[dim] {
			perm = append(perm, dim)
		}
	}
	for dim := int64(0); dim < ind.ndims; dim++ {
		if !isReduction[dim] {
			perm = append(perm, dim)
		}
	}

	for i := int64(0); i < ind.numInputs; i++ {
		ind.inputs[i].Permute(perm)
	}
	for i := int64(0); i < ind.numOutputs; i++ {
		ind.outputs[i].Permute(perm)
	}
	var newMasterShape [MaxDims]int64
	for i, dim := range perm {
		newMasterShape[i] = ind.masterShape[dim]
	}
	ind.masterShape = newMasterShape
}

// updateMasterStrides recomputes the divisor ladder from masterShape.
// Extents of 0 or 1 keep the running stride, so the ladder never contains
// zeros and the decode loop never divides by zero.
func (ind *Indexer) updateMasterStrides() {
	stride := int64(1)
	for i := ind.ndims - 1; i >= 0; i-- {
		ind.masterStrides[i] = stride
		if ind.masterShape[i] > 1 {
			stride *= ind.masterShape[i]
		}
	}
}

// CoalesceDimensions merges adjacent dimensions when either has extent 1 or
// when the pair is jointly contiguous for every input and output ref
// (shape[n+1]*stride[n+1] == stride[n] for all of them simultaneously). It
// shrinks the decode loop without changing any resolved address, and is
// idempotent.
func (ind *Indexer) CoalesceDimensions() {
	if ind.ndims <= 1 {
		ind.updateMasterStrides()
		return
	}

	// dim varies slower than fast; fast absorbs dim when compatible.
	canCoalesce := func(dim, fast int64) bool {
		shape0, shape1 := ind.masterShape[dim], ind.masterShape[fast]
		if shape0 == 1 || shape1 == 1 {
			return true
		}
		for i := int64(0); i < ind.numInputs; i++ {
			if shape1*ind.inputs[i].byteStrides[fast] != ind.inputs[i].byteStrides[dim] {
				return false
			}
		}
		for i := int64(0); i < ind.numOutputs; i++ {
			if shape1*ind.outputs[i].byteStrides[fast] != ind.outputs[i].byteStrides[dim] {
				return false
			}
		}
		return true
	}

	// replaceStride copies every ref's stride at src into dst.
	replaceStride := func(dst, src int64) {
		for i := int64(0); i < ind.numInputs; i++ {
			ind.inputs[i].byteStrides[dst] = ind.inputs[i].byteStrides[src]
		}
		for i := int64(0); i < ind.numOutputs; i++ {
			ind.outputs[i].byteStrides[dst] = ind.outputs[i].byteStrides[src]
		}
	}

	// Walk from the innermost dimension outwards, compacting towards the
	// tail; the merged block keeps the faster dimension's stride.
	prev := ind.ndims - 1
	for dim := ind.ndims - 2; dim >= 0; dim-- {
		if canCoalesce(dim, prev) {
			if ind.masterShape[prev] == 1 {
				replaceStride(prev, dim)
			}
			ind.masterShape[prev] *= ind.masterShape[dim]
		} else {
			prev--
			if prev != dim {
				replaceStride(prev, dim)
				ind.masterShape[prev] = ind.masterShape[dim]
			}
		}
	}

	// Shift the surviving dimensions to the front and zero the tail.
	newNumDims := ind.ndims - prev
	for i := int64(0); i < newNumDims; i++ {
		ind.masterShape[i] = ind.masterShape[i+prev]
		replaceStride(i, i+prev)
	}
	for i := newNumDims; i < ind.ndims; i++ {
		ind.masterShape[i] = 0
		for j := int64(0); j < ind.numInputs; j++ {
			ind.inputs[j].byteStrides[i] = 0
		}
		for j := int64(0); j < ind.numOutputs; j++ {
			ind.outputs[j].byteStrides[i] = 0
		}
	}
	ind.ndims = newNumDims
	for i := int64(0); i < ind.numInputs; i++ {
		ind.inputs[i].ndims = newNumDims
	}
	for i := int64(0); i < ind.numOutputs; i++ {
		ind.outputs[i].ndims = newNumDims
	}
	ind.updateMasterStrides()
}

// NumDims returns the number of dimensions of the iteration space.
func (ind *Indexer) NumDims() int64 { return ind.ndims }

// NumInputs returns the number of input refs.
func (ind *Indexer) NumInputs() int64 { return ind.numInputs }

// NumOutputs returns the number of output refs.
func (ind *Indexer) NumOutputs() int64 { return ind.numOutputs }

// MasterShape returns a copy of the active iteration shape.
func (ind *Indexer) MasterShape() shapes.SizeVector {
	return shapes.SizeVector(ind.masterShape[:ind.ndims]).Clone()
}

// MasterStrides returns a copy of the decode ladder of MasterShape. These
// are not memory strides.
func (ind *Indexer) MasterStrides() shapes.SizeVector {
	return shapes.SizeVector(ind.masterStrides[:ind.ndims]).Clone()
}

// NumWorkloads returns the total number of workloads: the product of the
// master shape, so the number of output elements for broadcasting ops and
// the number of input elements for reduction ops. Zero-sized tensors yield
// zero workloads.
func (ind *Indexer) NumWorkloads() int64 {
	n := int64(1)
	for i := int64(0); i < ind.ndims; i++ {
		n *= ind.masterShape[i]
	}
	return n
}

// NumOutputElements returns the number of distinct output cells: the master
// shape with reduction dimensions (output stride 0) counted as 1.
func (ind *Indexer) NumOutputElements() int64 {
	n := int64(1)
	for i := int64(0); i < ind.ndims; i++ {
		if ind.outputs[0].byteStrides[i] != 0 || ind.masterShape[i] == 0 {
			n *= ind.masterShape[i]
		}
	}
	return n
}

// IsReductionDim returns whether dim is a reduced dimension. All outputs
// share reduction dims and reduced strides are always 0, so output 0 is
// representative.
func (ind *Indexer) IsReductionDim(dim int64) bool {
	return ind.outputs[0].byteStrides[dim] == 0 && ind.masterShape[dim] > 1
}

// NumReductionDims returns the number of reduced dimensions.
func (ind *Indexer) NumReductionDims() int64 {
	count := int64(0)
	for dim := int64(0); dim < ind.ndims; dim++ {
		if ind.IsReductionDim(dim) {
			count++
		}
	}
	return count
}

// ShouldAccumulate is whether the kernel should accumulate into the output
// rather than overwrite it; set when a reduction dimension has been split.
func (ind *Indexer) ShouldAccumulate() bool { return ind.accumulate }

// IsFinalOutput is whether this indexer produces the final output, as
// opposed to a partial result accumulated further.
func (ind *Indexer) IsFinalOutput() bool { return ind.finalOutput }

// GetInput returns the i-th input ref; out-of-range indices panic.
func (ind *Indexer) GetInput(i int64) *TensorRef {
	if i < 0 || i >= ind.numInputs {
		exceptions.Panicf("input index %d out of range [0, %d)", i, ind.numInputs)
	}
	return &ind.inputs[i]
}

// GetOutput returns the i-th output ref; out-of-range indices panic.
func (ind *Indexer) GetOutput(i int64) *TensorRef {
	if i < 0 || i >= ind.numOutputs {
		exceptions.Panicf("output index %d out of range [0, %d)", i, ind.numOutputs)
	}
	return &ind.outputs[i]
}

// GetInputPtr resolves the address of input inputIdx for one workload.
// An out-of-range inputIdx or a negative workloadIdx resolves to nil.
func (ind *Indexer) GetInputPtr(inputIdx, workloadIdx int64) unsafe.Pointer {
	if inputIdx < 0 || inputIdx >= ind.numInputs {
		return nil
	}
	return ind.getWorkloadDataPtr(&ind.inputs[inputIdx], workloadIdx)
}

// GetOutputPtr resolves the address of output 0 for one workload.
func (ind *Indexer) GetOutputPtr(workloadIdx int64) unsafe.Pointer {
	return ind.getWorkloadDataPtr(&ind.outputs[0], workloadIdx)
}

// GetOutputPtrAt resolves the address of output outputIdx for one workload.
func (ind *Indexer) GetOutputPtrAt(outputIdx, workloadIdx int64) unsafe.Pointer {
	if outputIdx < 0 || outputIdx >= ind.numOutputs {
		return nil
	}
	return ind.getWorkloadDataPtr(&ind.outputs[outputIdx], workloadIdx)
}

// GetWorkload2DIdx decodes a workload index into (x, y) for images stored as
// (*, H, W); y is the row. Requires at least 2 dimensions.
func (ind *Indexer) GetWorkload2DIdx(workloadIdx int64) (x, y int64) {
	if ind.ndims < 2 {
		exceptions.Panicf("2D workload decode requires >= 2 dimensions, have %d", ind.ndims)
	}
	y = workloadIdx / ind.masterStrides[ind.ndims-2]
	x = workloadIdx % ind.masterStrides[ind.ndims-2]
	return x, y
}

// getWorkloadDataPtr decodes workloadIdx against the master strides
// (mixed-radix, most significant dimension first) and accumulates each
// coordinate times the ref's own byte stride; zero-stride broadcast or
// reduction axes contribute nothing regardless of the coordinate.
//
// A negative workloadIdx is the documented no-op sentinel and resolves to
// nil. This happens e.g. for the output of a 0-sized reduction, where a
// caller-side guard produces workloadIdx < 0 instead of an address.
func (ind *Indexer) getWorkloadDataPtr(ref *TensorRef, workloadIdx int64) unsafe.Pointer {
	if workloadIdx < 0 {
		return nil
	}
	offset := int64(0)
	for i := int64(0); i < ind.ndims; i++ {
		offset += workloadIdx / ind.masterStrides[i] * ref.byteStrides[i]
		workloadIdx = workloadIdx % ind.masterStrides[i]
	}
	return unsafe.Add(ref.dataPtr, int(offset))
}

// maxByteSpan returns the largest byte offset (exclusive) reachable in any
// input or output.
func (ind *Indexer) maxByteSpan() int64 {
	span := int64(0)
	forEachRef := func(ref *TensorRef) {
		maxOffset := int64(1)
		for dim := int64(0); dim < ind.ndims; dim++ {
			if ind.masterShape[dim] == 0 {
				return
			}
			maxOffset += (ind.masterShape[dim] - 1) * ref.byteStrides[dim]
		}
		if maxOffset > span {
			span = maxOffset
		}
	}
	for i := int64(0); i < ind.numInputs; i++ {
		forEachRef(&ind.inputs[i])
	}
	for i := int64(0); i < ind.numOutputs; i++ {
		forEachRef(&ind.outputs[i])
	}
	return span
}

// canIndexUnder reports whether the workload count and every reachable byte
// offset fit within limit.
func (ind *Indexer) canIndexUnder(limit int64) bool {
	return ind.NumWorkloads() <= limit && ind.maxByteSpan() <= limit
}

// CanUse32BitIndexing returns true iff the maximum offsets in bytes are
// smaller than 2^31 - 1, as required by accelerator address computations
// done in 32-bit registers.
func (ind *Indexer) CanUse32BitIndexing() bool {
	return ind.canIndexUnder(math.MaxInt32)
}

// clone returns a deep copy; all state is held in value arrays.
func (ind *Indexer) clone() *Indexer {
	c := *ind
	return &c
}

// SplitLargestDim bisects the dimension with the largest extent-times-stride
// span: the returned indexer iterates the first half, the receiver is
// narrowed to the second half. Splitting a reduction dimension marks the
// receiver as accumulating and the returned half as non-final.
//
// Panics when no dimension with extent >= 2 exists: such an indexer cannot
// be narrowed any further.
func (ind *Indexer) SplitLargestDim() *Indexer {
	if ind.ndims == 0 {
		exceptions.Panicf("cannot split a 0-dimensional indexer")
	}
	maxExtent := int64(-1)
	dimToSplit := int64(-1)
	for dim := ind.ndims - 1; dim >= 0; dim-- {
		size := ind.masterShape[dim]
		if size < 2 {
			continue
		}
		for i := int64(0); i < ind.numInputs; i++ {
			if extent := (size - 1) * ind.inputs[i].byteStrides[dim]; extent > maxExtent {
				maxExtent = extent
				dimToSplit = dim
			}
		}
		for i := int64(0); i < ind.numOutputs; i++ {
			if extent := (size - 1) * ind.outputs[i].byteStrides[dim]; extent > maxExtent {
				maxExtent = extent
				dimToSplit = dim
			}
		}
	}
	if dimToSplit == -1 {
		exceptions.Panicf("cannot split indexer with master shape %s: no dimension has extent >= 2",
			ind.MasterShape())
	}

	overlaps := ind.IsReductionDim(dimToSplit)
	firstSize := ind.masterShape[dimToSplit] / 2
	secondSize := ind.masterShape[dimToSplit] - firstSize

	first := ind.clone()
	first.ShrinkDim(dimToSplit, 0, firstSize)
	first.finalOutput = first.finalOutput && !overlaps

	ind.ShrinkDim(dimToSplit, firstSize, secondSize)
	ind.accumulate = ind.accumulate || overlaps

	return first
}

// ShrinkDim restricts iteration along dim to [start, start+size), mutating
// the indexer in place: the master extent shrinks and every ref's base
// pointer advances by start times its stride. No wraparound: start and size
// must fall inside the prior extent.
func (ind *Indexer) ShrinkDim(dim, start, size int64) {
	if dim < 0 || dim >= ind.ndims {
		exceptions.Panicf("shrink dimension %d out of range [0, %d)", dim, ind.ndims)
	}
	if start < 0 || size <= 0 || start+size > ind.masterShape[dim] {
		exceptions.Panicf("invalid shrink range [%d, %d) for dimension %d with extent %d",
			start, start+size, dim, ind.masterShape[dim])
	}
	for i := int64(0); i < ind.numInputs; i++ {
		ind.inputs[i].dataPtr = unsafe.Add(ind.inputs[i].dataPtr, int(start*ind.inputs[i].byteStrides[dim]))
	}
	for i := int64(0); i < ind.numOutputs; i++ {
		ind.outputs[i].dataPtr = unsafe.Add(ind.outputs[i].dataPtr, int(start*ind.outputs[i].byteStrides[dim]))
	}
	ind.masterShape[dim] = size
	ind.updateMasterStrides()
	if size == 1 {
		ind.CoalesceDimensions()
	}
}

// GetPerOutputIndexer returns a sub-indexer that iterates all inputs feeding
// the single output cell outputIdx: non-reduction dimensions are pinned to
// that cell's coordinates, reduction dimensions stay fully iterated.
func (ind *Indexer) GetPerOutputIndexer(outputIdx int64) *Indexer {
	if outputIdx < 0 || outputIdx >= ind.NumOutputElements() {
		exceptions.Panicf("output element index %d out of range [0, %d)", outputIdx, ind.NumOutputElements())
	}

	// The output-cell space is the master shape with reduction dims
	// collapsed to 1; decode outputIdx against its default strides.
	var outputShape, outputStrides, outputCoords [MaxDims]int64
	for dim := int64(0); dim < ind.ndims; dim++ {
		if ind.IsReductionDim(dim) {
			outputShape[dim] = 1
		} else {
			outputShape[dim] = ind.masterShape[dim]
		}
	}
	stride := int64(1)
	for dim := ind.ndims - 1; dim >= 0; dim-- {
		outputStrides[dim] = stride
		if outputShape[dim] > 1 {
			stride *= outputShape[dim]
		}
	}
	remaining := outputIdx
	for dim := int64(0); dim < ind.ndims; dim++ {
		outputCoords[dim] = remaining / outputStrides[dim]
		remaining = remaining % outputStrides[dim]
	}

	sub := ind.clone()
	for dim := int64(0); dim < ind.ndims; dim++ {
		for i := int64(0); i < sub.numInputs; i++ {
			sub.inputs[i].dataPtr = unsafe.Add(sub.inputs[i].dataPtr,
				int(sub.inputs[i].byteStrides[dim]*outputCoords[dim]))
		}
		for i := int64(0); i < sub.numOutputs; i++ {
			sub.outputs[i].dataPtr = unsafe.Add(sub.outputs[i].dataPtr,
				int(sub.outputs[i].byteStrides[dim]*outputCoords[dim]))
		}
		if !ind.IsReductionDim(dim) {
			for i := int64(0); i < sub.numInputs; i++ {
				sub.inputs[i].shape[dim] = 1
			}
			for i := int64(0); i < sub.numOutputs; i++ {
				sub.outputs[i].shape[dim] = 1
			}
			sub.masterShape[dim] = 1
		}
	}
	sub.updateMasterStrides()
	return sub
}

// String implements fmt.Stringer with the iteration shape and tensor counts.
func (ind *Indexer) String() string {
	return fmt.Sprintf("Indexer(shape=%s, inputs=%d, outputs=%d, workloads=%d)",
		ind.MasterShape(), ind.numInputs, ind.numOutputs, ind.NumWorkloads())
}
