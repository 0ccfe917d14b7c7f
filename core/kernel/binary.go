package kernel

import (
	"github.com/gomlx/exceptions"
	"golang.org/x/exp/constraints"

	"github.com/Padarn/Open3D/core"
	"github.com/Padarn/Open3D/pkg/core/dtypes"
)

type binaryOpKind int

const (
	opAdd binaryOpKind = iota
	opSub
	opMul
	opDiv
)

// Add writes lhs + rhs into dst elementwise, with broadcasting.
func Add(lhs, rhs, dst *core.Tensor) error {
	return exceptions.TryCatch[error](func() { binaryDispatch(lhs, rhs, dst, opAdd) })
}

// Sub writes lhs - rhs into dst elementwise, with broadcasting.
func Sub(lhs, rhs, dst *core.Tensor) error {
	return exceptions.TryCatch[error](func() { binaryDispatch(lhs, rhs, dst, opSub) })
}

// Mul writes lhs * rhs into dst elementwise, with broadcasting.
func Mul(lhs, rhs, dst *core.Tensor) error {
	return exceptions.TryCatch[error](func() { binaryDispatch(lhs, rhs, dst, opMul) })
}

// Div writes lhs / rhs into dst elementwise, with broadcasting. Integer
// division by zero panics as in plain Go.
func Div(lhs, rhs, dst *core.Tensor) error {
	return exceptions.TryCatch[error](func() { binaryDispatch(lhs, rhs, dst, opDiv) })
}

// binaryDispatch builds the broadcast indexer over both operands and
// instantiates the arithmetic loop for their dtype. Half floats run through
// float32 arithmetic.
func binaryDispatch(lhs, rhs, dst *core.Tensor, kind binaryOpKind) {
	ind := core.NewIndexer([]*core.Tensor{lhs, rhs}, dst, core.DtypePolicyAllSame, nil)
	switch lhs.DType() {
	case dtypes.Int8:
		binaryLoop[int8](ind, kind)
	case dtypes.Int16:
		binaryLoop[int16](ind, kind)
	case dtypes.Int32:
		binaryLoop[int32](ind, kind)
	case dtypes.Int64:
		binaryLoop[int64](ind, kind)
	case dtypes.Uint8:
		binaryLoop[uint8](ind, kind)
	case dtypes.Uint16:
		binaryLoop[uint16](ind, kind)
	case dtypes.Uint32:
		binaryLoop[uint32](ind, kind)
	case dtypes.Uint64:
		binaryLoop[uint64](ind, kind)
	case dtypes.Float32:
		binaryLoop[float32](ind, kind)
	case dtypes.Float64:
		binaryLoop[float64](ind, kind)
	case dtypes.Float16, dtypes.BFloat16:
		binaryLoopHalf(ind, lhs.DType(), kind)
	default:
		exceptions.Panicf("unsupported dtype %s for binary op", lhs.DType())
	}
}

func binaryLoop[T dtypes.Number](ind *core.Indexer, kind binaryOpKind) {
	switch kind {
	case opAdd:
		binaryApply(ind, func(a, b T) T { return a + b })
	case opSub:
		binaryApply(ind, func(a, b T) T { return a - b })
	case opMul:
		binaryApply(ind, func(a, b T) T { return a * b })
	case opDiv:
		binaryApply(ind, func(a, b T) T { return a / b })
	}
}

func binaryLoopHalf(ind *core.Indexer, dtype dtypes.DType, kind binaryOpKind) {
	var fn func(a, b float32) float32
	switch kind {
	case opAdd:
		fn = func(a, b float32) float32 { return a + b }
	case opSub:
		fn = func(a, b float32) float32 { return a - b }
	case opMul:
		fn = func(a, b float32) float32 { return a * b }
	case opDiv:
		fn = func(a, b float32) float32 { return a / b }
	}
	Default().Run(ind.NumWorkloads(), func(workloadIdx int64) {
		a := loadAs[float32](ind.GetInputPtr(0, workloadIdx), dtype)
		b := loadAs[float32](ind.GetInputPtr(1, workloadIdx), dtype)
		storeFrom(ind.GetOutputPtr(workloadIdx), dtype, fn(a, b))
	})
}

func binaryApply[T dtypes.Number](ind *core.Indexer, fn func(a, b T) T) {
	Default().Run(ind.NumWorkloads(), func(workloadIdx int64) {
		a := (*T)(ind.GetInputPtr(0, workloadIdx))
		b := (*T)(ind.GetInputPtr(1, workloadIdx))
		out := (*T)(ind.GetOutputPtr(workloadIdx))
		*out = fn(*a, *b)
	})
}

type compareOpKind int

const (
	opGe compareOpKind = iota
	opGt
	opLe
	opLt
	opEq
	opNe
)

// Ge writes lhs >= rhs into the Bool tensor dst, with broadcasting.
func Ge(lhs, rhs, dst *core.Tensor) error {
	return exceptions.TryCatch[error](func() { compareDispatch(lhs, rhs, dst, opGe) })
}

// Gt writes lhs > rhs into the Bool tensor dst, with broadcasting.
func Gt(lhs, rhs, dst *core.Tensor) error {
	return exceptions.TryCatch[error](func() { compareDispatch(lhs, rhs, dst, opGt) })
}

// Le writes lhs <= rhs into the Bool tensor dst, with broadcasting.
func Le(lhs, rhs, dst *core.Tensor) error {
	return exceptions.TryCatch[error](func() { compareDispatch(lhs, rhs, dst, opLe) })
}

// Lt writes lhs < rhs into the Bool tensor dst, with broadcasting.
func Lt(lhs, rhs, dst *core.Tensor) error {
	return exceptions.TryCatch[error](func() { compareDispatch(lhs, rhs, dst, opLt) })
}

// Eq writes lhs == rhs into the Bool tensor dst, with broadcasting.
func Eq(lhs, rhs, dst *core.Tensor) error {
	return exceptions.TryCatch[error](func() { compareDispatch(lhs, rhs, dst, opEq) })
}

// Ne writes lhs != rhs into the Bool tensor dst, with broadcasting.
func Ne(lhs, rhs, dst *core.Tensor) error {
	return exceptions.TryCatch[error](func() { compareDispatch(lhs, rhs, dst, opNe) })
}

func compareDispatch(lhs, rhs, dst *core.Tensor, kind compareOpKind) {
	ind := core.NewIndexer([]*core.Tensor{lhs, rhs}, dst, core.DtypePolicyInputSameOutputBool, nil)
	switch lhs.DType() {
	case dtypes.Int8:
		compareLoop[int8](ind, kind)
	case dtypes.Int16:
		compareLoop[int16](ind, kind)
	case dtypes.Int32:
		compareLoop[int32](ind, kind)
	case dtypes.Int64:
		compareLoop[int64](ind, kind)
	case dtypes.Uint8:
		compareLoop[uint8](ind, kind)
	case dtypes.Uint16:
		compareLoop[uint16](ind, kind)
	case dtypes.Uint32:
		compareLoop[uint32](ind, kind)
	case dtypes.Uint64:
		compareLoop[uint64](ind, kind)
	case dtypes.Float32:
		compareLoop[float32](ind, kind)
	case dtypes.Float64:
		compareLoop[float64](ind, kind)
	case dtypes.Float16, dtypes.BFloat16:
		dtype := lhs.DType()
		compareApplyLoaded(ind, kind, func(ind *core.Indexer, workloadIdx int64) (float32, float32) {
			return loadAs[float32](ind.GetInputPtr(0, workloadIdx), dtype),
				loadAs[float32](ind.GetInputPtr(1, workloadIdx), dtype)
		})
	default:
		exceptions.Panicf("unsupported dtype %s for comparison op", lhs.DType())
	}
}

func compareLoop[T constraints.Ordered](ind *core.Indexer, kind compareOpKind) {
	compareApplyLoaded(ind, kind, func(ind *core.Indexer, workloadIdx int64) (T, T) {
		return *(*T)(ind.GetInputPtr(0, workloadIdx)), *(*T)(ind.GetInputPtr(1, workloadIdx))
	})
}

func compareApplyLoaded[T constraints.Ordered](ind *core.Indexer, kind compareOpKind, load func(ind *core.Indexer, workloadIdx int64) (T, T)) {
	var fn func(a, b T) bool
	switch kind {
	case opGe:
		fn = func(a, b T) bool { return a >= b }
	case opGt:
		fn = func(a, b T) bool { return a > b }
	case opLe:
		fn = func(a, b T) bool { return a <= b }
	case opLt:
		fn = func(a, b T) bool { return a < b }
	case opEq:
		fn = func(a, b T) bool { return a == b }
	case opNe:
		fn = func(a, b T) bool { return a != b }
	}
	Default().Run(ind.NumWorkloads(), func(workloadIdx int64) {
		a, b := load(ind, workloadIdx)
		*(*bool)(ind.GetOutputPtr(workloadIdx)) = fn(a, b)
	})
}
