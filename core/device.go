package core

import "fmt"

// DeviceType enumerates the kinds of memory locations a Tensor can live on.
type DeviceType int32

//go:generate go tool enumer -type=DeviceType -trimprefix=DeviceType -output=gen_devicetype_enumer.go device.go

const (
	DeviceTypeCPU DeviceType = iota
	DeviceTypeCUDA
)

// Device tags where a Tensor's memory lives, e.g. "CPU:0".
//
// The indexing core is location-agnostic -- it only does pointer arithmetic
// -- but the tag travels with the view so an execution layer can select the
// matching launch path.
type Device struct {
	Type  DeviceType
	Index int32
}

// CPU0 is the default device of tensors created by this package.
var CPU0 = Device{Type: DeviceTypeCPU, Index: 0}

// String implements fmt.Stringer.
func (d Device) String() string {
	return fmt.Sprintf("%s:%d", d.Type, d.Index)
}
