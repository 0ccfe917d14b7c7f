package kernel

import (
	"unsafe"

	"github.com/gomlx/exceptions"
	"github.com/x448/float16"

	"github.com/Padarn/Open3D/pkg/core/dtypes"
	"github.com/Padarn/Open3D/pkg/core/dtypes/bfloat16"
)

// loadAs reads the scalar at ptr, whose storage type is dt, converted to D.
// Bool loads as 0/1. Half floats widen through float32.
func loadAs[D dtypes.Number](ptr unsafe.Pointer, dt dtypes.DType) D {
	switch dt {
	case dtypes.Bool:
		if *(*bool)(ptr) {
			return 1
		}
		return 0
	case dtypes.Uint8:
		return D(*(*uint8)(ptr))
	case dtypes.Uint16:
		return D(*(*uint16)(ptr))
	case dtypes.Uint32:
		return D(*(*uint32)(ptr))
	case dtypes.Uint64:
		return D(*(*uint64)(ptr))
	case dtypes.Int8:
		return D(*(*int8)(ptr))
	case dtypes.Int16:
		return D(*(*int16)(ptr))
	case dtypes.Int32:
		return D(*(*int32)(ptr))
	case dtypes.Int64:
		return D(*(*int64)(ptr))
	case dtypes.Float16:
		return D((*(*float16.Float16)(ptr)).Float32())
	case dtypes.BFloat16:
		return D((*(*bfloat16.BFloat16)(ptr)).Float32())
	case dtypes.Float32:
		return D(*(*float32)(ptr))
	case dtypes.Float64:
		return D(*(*float64)(ptr))
	default:
		exceptions.Panicf("cannot load scalar of dtype %s", dt)
	}
	return 0
}

// storeFrom writes value into ptr, whose storage type is dt. Bool stores
// value != 0.
func storeFrom[S dtypes.Number](ptr unsafe.Pointer, dt dtypes.DType, value S) {
	switch dt {
	case dtypes.Bool:
		*(*bool)(ptr) = value != 0
	case dtypes.Uint8:
		*(*uint8)(ptr) = uint8(value)
	case dtypes.Uint16:
		*(*uint16)(ptr) = uint16(value)
	case dtypes.Uint32:
		*(*uint32)(ptr) = uint32(value)
	case dtypes.Uint64:
		*(*uint64)(ptr) = uint64(value)
	case dtypes.Int8:
		*(*int8)(ptr) = int8(value)
	case dtypes.Int16:
		*(*int16)(ptr) = int16(value)
	case dtypes.Int32:
		*(*int32)(ptr) = int32(value)
	case dtypes.Int64:
		*(*int64)(ptr) = int64(value)
	case dtypes.Float16:
		*(*float16.Float16)(ptr) = float16.Fromfloat32(float32(value))
	case dtypes.BFloat16:
		*(*bfloat16.BFloat16)(ptr) = bfloat16.FromFloat32(float32(value))
	case dtypes.Float32:
		*(*float32)(ptr) = float32(value)
	case dtypes.Float64:
		*(*float64)(ptr) = float64(value)
	default:
		exceptions.Panicf("cannot store scalar of dtype %s", dt)
	}
}

// copyElement copies byteSize bytes from src to dst. Sizes are 1, 2, 4 or 8.
func copyElement(dst, src unsafe.Pointer, byteSize int64) {
	switch byteSize {
	case 1:
		*(*uint8)(dst) = *(*uint8)(src)
	case 2:
		*(*uint16)(dst) = *(*uint16)(src)
	case 4:
		*(*uint32)(dst) = *(*uint32)(src)
	case 8:
		*(*uint64)(dst) = *(*uint64)(src)
	default:
		exceptions.Panicf("unsupported element byte size %d", byteSize)
	}
}
