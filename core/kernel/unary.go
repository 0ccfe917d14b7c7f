package kernel

import (
	"math"

	"github.com/gomlx/exceptions"
	"github.com/x448/float16"

	"github.com/Padarn/Open3D/core"
	"github.com/Padarn/Open3D/pkg/core/dtypes"
	"github.com/Padarn/Open3D/pkg/core/dtypes/bfloat16"
)

// Neg writes -src into dst elementwise. Unsigned dtypes are rejected.
func Neg(src, dst *core.Tensor) error {
	return exceptions.TryCatch[error](func() {
		if src.DType().IsUnsigned() {
			exceptions.Panicf("cannot negate unsigned dtype %s", src.DType())
		}
		unaryDispatch(src, dst, "Neg",
			func(v int64) int64 { return -v },
			func(v float64) float64 { return -v })
	})
}

// Abs writes |src| into dst elementwise. Unsigned inputs copy through.
func Abs(src, dst *core.Tensor) error {
	if src.DType().IsUnsigned() {
		return Copy(src, dst)
	}
	return exceptions.TryCatch[error](func() {
		unaryDispatch(src, dst, "Abs",
			func(v int64) int64 {
				if v < 0 {
					return -v
				}
				return v
			},
			math.Abs)
	})
}

// Sqrt writes the square root of src into dst elementwise. Float dtypes
// only.
func Sqrt(src, dst *core.Tensor) error {
	return exceptions.TryCatch[error](func() {
		if !src.DType().IsFloat() {
			exceptions.Panicf("unsupported dtype %s for Sqrt", src.DType())
		}
		unaryDispatch(src, dst, "Sqrt", nil, math.Sqrt)
	})
}

// unaryDispatch runs intFn or floatFn per element depending on src's dtype
// family. Half floats run floatFn through float32.
func unaryDispatch(src, dst *core.Tensor, opName string, intFn func(int64) int64, floatFn func(float64) float64) {
	ind := core.NewIndexer([]*core.Tensor{src}, dst, core.DtypePolicyAllSame, nil)
	switch src.DType() {
	case dtypes.Int8:
		unaryLoopInt[int8](ind, intFn)
	case dtypes.Int16:
		unaryLoopInt[int16](ind, intFn)
	case dtypes.Int32:
		unaryLoopInt[int32](ind, intFn)
	case dtypes.Int64:
		unaryLoopInt[int64](ind, intFn)
	case dtypes.Uint8:
		unaryLoopInt[uint8](ind, intFn)
	case dtypes.Uint16:
		unaryLoopInt[uint16](ind, intFn)
	case dtypes.Uint32:
		unaryLoopInt[uint32](ind, intFn)
	case dtypes.Uint64:
		unaryLoopInt[uint64](ind, intFn)
	case dtypes.Float32:
		unaryLoopFloat[float32](ind, floatFn)
	case dtypes.Float64:
		unaryLoopFloat[float64](ind, floatFn)
	case dtypes.Float16:
		Default().Run(ind.NumWorkloads(), func(workloadIdx int64) {
			in := (*float16.Float16)(ind.GetInputPtr(0, workloadIdx))
			out := (*float16.Float16)(ind.GetOutputPtr(workloadIdx))
			*out = float16.Fromfloat32(float32(floatFn(float64(in.Float32()))))
		})
	case dtypes.BFloat16:
		Default().Run(ind.NumWorkloads(), func(workloadIdx int64) {
			in := (*bfloat16.BFloat16)(ind.GetInputPtr(0, workloadIdx))
			out := (*bfloat16.BFloat16)(ind.GetOutputPtr(workloadIdx))
			*out = bfloat16.FromFloat32(float32(floatFn(float64(in.Float32()))))
		})
	default:
		exceptions.Panicf("unsupported dtype %s for %s", src.DType(), opName)
	}
}

func unaryLoopInt[T dtypes.GoInteger](ind *core.Indexer, fn func(int64) int64) {
	Default().Run(ind.NumWorkloads(), func(workloadIdx int64) {
		in := (*T)(ind.GetInputPtr(0, workloadIdx))
		out := (*T)(ind.GetOutputPtr(workloadIdx))
		*out = T(fn(int64(*in)))
	})
}

func unaryLoopFloat[T dtypes.GoFloat](ind *core.Indexer, fn func(float64) float64) {
	Default().Run(ind.NumWorkloads(), func(workloadIdx int64) {
		in := (*T)(ind.GetInputPtr(0, workloadIdx))
		out := (*T)(ind.GetOutputPtr(workloadIdx))
		*out = T(fn(float64(*in)))
	})
}
