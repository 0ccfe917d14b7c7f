package kernel

import (
	"github.com/gomlx/exceptions"

	"github.com/Padarn/Open3D/core"
	"github.com/Padarn/Open3D/pkg/core/dtypes"
	"github.com/Padarn/Open3D/types/shapes"
)

type reduceOpKind int

const (
	opSum reduceOpKind = iota
	opProd
	opMin
	opMax
)

// Sum reduces src over dims into dst. dst must have the keepdim shape:
// reduced axes present with extent 1. Empty reductions yield 0.
func Sum(src, dst *core.Tensor, dims shapes.SizeVector) error {
	return exceptions.TryCatch[error](func() { reduceDispatch(src, dst, dims, opSum) })
}

// Prod reduces src over dims into dst by multiplication. Empty reductions
// yield 1.
func Prod(src, dst *core.Tensor, dims shapes.SizeVector) error {
	return exceptions.TryCatch[error](func() { reduceDispatch(src, dst, dims, opProd) })
}

// Min reduces src over dims into dst, taking the smallest element. Empty
// reductions panic.
func Min(src, dst *core.Tensor, dims shapes.SizeVector) error {
	return exceptions.TryCatch[error](func() { reduceDispatch(src, dst, dims, opMin) })
}

// Max reduces src over dims into dst, taking the largest element. Empty
// reductions panic.
func Max(src, dst *core.Tensor, dims shapes.SizeVector) error {
	return exceptions.TryCatch[error](func() { reduceDispatch(src, dst, dims, opMax) })
}

func reduceDispatch(src, dst *core.Tensor, dims shapes.SizeVector, kind reduceOpKind) {
	if src.NumElements() == 0 {
		switch kind {
		case opSum:
			storeIdentity(dst, 0)
		case opProd:
			storeIdentity(dst, 1)
		default:
			exceptions.Panicf("cannot min/max-reduce over zero elements")
		}
		return
	}
	ind := core.NewIndexer([]*core.Tensor{src}, dst, core.DtypePolicyAllSame, dims)
	switch src.DType() {
	case dtypes.Int8:
		reduceLoop[int8](ind, kind)
	case dtypes.Int16:
		reduceLoop[int16](ind, kind)
	case dtypes.Int32:
		reduceLoop[int32](ind, kind)
	case dtypes.Int64:
		reduceLoop[int64](ind, kind)
	case dtypes.Uint8:
		reduceLoop[uint8](ind, kind)
	case dtypes.Uint16:
		reduceLoop[uint16](ind, kind)
	case dtypes.Uint32:
		reduceLoop[uint32](ind, kind)
	case dtypes.Uint64:
		reduceLoop[uint64](ind, kind)
	case dtypes.Float32:
		reduceLoop[float32](ind, kind)
	case dtypes.Float64:
		reduceLoop[float64](ind, kind)
	default:
		exceptions.Panicf("unsupported dtype %s for reduction op", src.DType())
	}
}

func storeIdentity(dst *core.Tensor, identity float64) {
	if err := Fill(dst, identity); err != nil {
		panic(err)
	}
}

// reduceLoop parallelizes over distinct output cells. Each worker owns its
// cell's accumulator, so reduction axes never race even though every
// workload along them aliases one output address.
func reduceLoop[T dtypes.Number](ind *core.Indexer, kind reduceOpKind) {
	var identity T
	var fn func(acc, v T) T
	switch kind {
	case opSum:
		identity = 0
		fn = func(acc, v T) T { return acc + v }
	case opProd:
		identity = 1
		fn = func(acc, v T) T { return acc * v }
	case opMin:
		fn = func(acc, v T) T {
			if v < acc {
				return v
			}
			return acc
		}
	case opMax:
		fn = func(acc, v T) T {
			if v > acc {
				return v
			}
			return acc
		}
	}
	firstIsInit := kind == opMin || kind == opMax

	Default().Run(ind.NumOutputElements(), func(outputIdx int64) {
		sub := ind.GetPerOutputIndexer(outputIdx)
		n := sub.NumWorkloads()
		acc := identity
		start := int64(0)
		if firstIsInit {
			acc = *(*T)(sub.GetInputPtr(0, 0))
			start = 1
		}
		for i := start; i < n; i++ {
			acc = fn(acc, *(*T)(sub.GetInputPtr(0, i)))
		}
		if sub.ShouldAccumulate() {
			acc = fn(acc, *(*T)(sub.GetOutputPtr(0)))
		}
		*(*T)(sub.GetOutputPtr(0)) = acc
	})
}
