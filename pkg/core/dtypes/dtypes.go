// Package dtypes defines the DType enum of element types understood by the
// tensor core, with converters to and from Go types and constraint
// interfaces to be used with generics.
//
// The indexing machinery itself is dtype-agnostic and only consumes
// DType.Size (the element width in bytes); the kernels use the Go-type
// mapping. Float16 support uses github.com/x448/float16, bfloat16 the local
// bfloat16 subpackage.
package dtypes

import (
	"reflect"
	"strconv"

	"github.com/Padarn/Open3D/pkg/core/dtypes/bfloat16"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// panicf panics with the formatted description.
//
// It is only used for "bugs in the code" -- when parameters don't follow the
// specifications. The same way nil-pointer panics should never happen.
func panicf(format string, args ...any) {
	panic(errors.Errorf(format, args...))
}

// DType is an enum of the supported element types.
type DType int32

//go:generate go tool enumer -type=DType -output=gen_dtype_enumer.go dtypes.go

const (
	// InvalidDType is the zero value of DType and is not a valid type.
	InvalidDType DType = iota

	// Bool elements take one byte each.
	Bool

	Uint8
	Uint16
	Uint32
	Uint64

	Int8
	Int16
	Int32
	Int64

	// Float16 is IEEE 754 half precision, see github.com/x448/float16.
	Float16
	// BFloat16 is the truncated 16-bit version of float32.
	BFloat16

	Float32
	Float64
)

// Supported lists the Go types with a corresponding DType.
type Supported interface {
	bool | uint8 | uint16 | uint32 | uint64 | int8 | int16 | int32 | int64 |
		float16.Float16 | bfloat16.BFloat16 | float32 | float64
}

// Number is the constraint on Go types over which Go arithmetic operators
// work directly -- so excluding bool and the 16-bit float representations.
type Number interface {
	uint8 | uint16 | uint32 | uint64 | int8 | int16 | int32 | int64 |
		float32 | float64
}

// GoInteger constrains to the native Go fixed-width integer types.
type GoInteger interface {
	uint8 | uint16 | uint32 | uint64 | int8 | int16 | int32 | int64
}

// GoFloat constrains to the native Go float types.
type GoFloat interface {
	float32 | float64
}

// Size returns the number of bytes of one element of the given DType.
// It panics on InvalidDType and unknown values.
func (dtype DType) Size() int {
	switch dtype {
	case Bool, Uint8, Int8:
		return 1
	case Uint16, Int16, Float16, BFloat16:
		return 2
	case Uint32, Int32, Float32:
		return 4
	case Uint64, Int64, Float64:
		return 8
	}
	panicf("DType %s has no defined size", dtype)
	return 0
}

// Bits returns the size of the DType in bits.
func (dtype DType) Bits() int {
	return dtype.Size() * 8
}

// Memory returns the number of bytes of one element, as an uintptr.
func (dtype DType) Memory() uintptr {
	return uintptr(dtype.Size())
}

var dtypeToGoType = map[DType]reflect.Type{
	Bool:     reflect.TypeOf(false),
	Uint8:    reflect.TypeOf(uint8(0)),
	Uint16:   reflect.TypeOf(uint16(0)),
	Uint32:   reflect.TypeOf(uint32(0)),
	Uint64:   reflect.TypeOf(uint64(0)),
	Int8:     reflect.TypeOf(int8(0)),
	Int16:    reflect.TypeOf(int16(0)),
	Int32:    reflect.TypeOf(int32(0)),
	Int64:    reflect.TypeOf(int64(0)),
	Float16:  reflect.TypeOf(float16.Float16(0)),
	BFloat16: reflect.TypeOf(bfloat16.BFloat16(0)),
	Float32:  reflect.TypeOf(float32(0)),
	Float64:  reflect.TypeOf(float64(0)),
}

// GoType returns the Go type corresponding to the DType.
// It panics for DType values without a Go counterpart.
func (dtype DType) GoType() reflect.Type {
	t, found := dtypeToGoType[dtype]
	if !found {
		panicf("DType %s has no corresponding Go type", dtype)
	}
	return t
}

// FromGoType returns the DType of the given reflect.Type, or InvalidDType if
// the type is not supported.
func FromGoType(t reflect.Type) DType {
	for dtype, goType := range dtypeToGoType {
		if goType == t {
			return dtype
		}
	}
	if t.Kind() == reflect.Int {
		// Platform-sized int maps to its fixed-width equivalent.
		switch strconv.IntSize {
		case 32:
			return Int32
		case 64:
			return Int64
		}
	}
	return InvalidDType
}

// FromGenericsType returns the DType of the Go type parameter.
func FromGenericsType[T Supported]() DType {
	var t T
	return FromAny(t)
}

// FromAny returns the DType of value's dynamic type, or InvalidDType.
func FromAny(value any) DType {
	return FromGoType(reflect.TypeOf(value))
}

// IsFloat returns whether the DType is a floating point type, including the
// 16-bit representations.
func (dtype DType) IsFloat() bool {
	return dtype == Float16 || dtype == BFloat16 || dtype == Float32 || dtype == Float64
}

// IsInt returns whether the DType is a signed or unsigned integer type.
func (dtype DType) IsInt() bool {
	switch dtype {
	case Uint8, Uint16, Uint32, Uint64, Int8, Int16, Int32, Int64:
		return true
	}
	return false
}

// IsUnsigned returns whether the DType is an unsigned integer type.
func (dtype DType) IsUnsigned() bool {
	switch dtype {
	case Uint8, Uint16, Uint32, Uint64:
		return true
	}
	return false
}

// IsSupported returns whether the DType maps to a supported element type.
func (dtype DType) IsSupported() bool {
	_, found := dtypeToGoType[dtype]
	return found
}
