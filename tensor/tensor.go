// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/convbench/internal/tensor"

// DataType represents the element type of a tensor.
type DataType = tensor.DataType

// Supported element types.
const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
	Float16 = tensor.Float16
)

// Device represents the compute device a backend runs on.
type Device = tensor.Device

// Supported devices.
const (
	CPU    = tensor.CPU
	WebGPU = tensor.WebGPU
)

// Shape represents the logical dimensions of a tensor.
type Shape = tensor.Shape

// Layout is the physical memory arrangement of a tensor's elements.
type Layout = tensor.Layout

// Supported layouts.
const (
	LayoutAny      = tensor.LayoutAny
	LayoutX        = tensor.LayoutX
	LayoutNCHW     = tensor.LayoutNCHW
	LayoutNHWC     = tensor.LayoutNHWC
	LayoutOIHW     = tensor.LayoutOIHW
	LayoutOHWI     = tensor.LayoutOHWI
	LayoutNChw8c   = tensor.LayoutNChw8c
	LayoutOIhw8i8o = tensor.LayoutOIhw8i8o
)

// Descriptor describes the shape, element type and layout of a tensor.
type Descriptor = tensor.Descriptor

// Memory is element storage for one concrete descriptor.
type Memory = tensor.Memory

// Algorithm is a convolution algorithm hint.
type Algorithm = tensor.Algorithm

// Algorithm hints.
const (
	AlgorithmAuto     = tensor.AlgorithmAuto
	AlgorithmDirect   = tensor.AlgorithmDirect
	AlgorithmWinograd = tensor.AlgorithmWinograd
)

// ConvParams holds 2D convolution parameters.
type ConvParams = tensor.ConvParams

// ConvDesc is a convolution request; descriptors may use LayoutAny.
type ConvDesc = tensor.ConvDesc

// ConvPrimitive is a convolution resolved by a backend.
type ConvPrimitive = tensor.ConvPrimitive

// Backend resolves and executes convolutions and reorders.
//
// Implementations:
//   - backend/cpu: pure Go reference backend
//   - backend/webgpu: WebGPU compute shaders (Windows)
type Backend = tensor.Backend

// Error kinds. Test with errors.Is.
var (
	ErrInvalidShape             = tensor.ErrInvalidShape
	ErrUnsupportedConfiguration = tensor.ErrUnsupportedConfiguration
	ErrEmptyPlan                = tensor.ErrEmptyPlan
	ErrInvalidIterations        = tensor.ErrInvalidIterations
	ErrBackendExecution         = tensor.ErrBackendExecution
	ErrBackendUnavailable       = tensor.ErrBackendUnavailable
)

// NewDescriptor validates and creates a descriptor.
func NewDescriptor(shape Shape, dtype DataType, layout Layout) (Descriptor, error) {
	return tensor.NewDescriptor(shape, dtype, layout)
}

// MustDescriptor is like NewDescriptor but panics on error.
func MustDescriptor(shape Shape, dtype DataType, layout Layout) Descriptor {
	return tensor.MustDescriptor(shape, dtype, layout)
}

// NewMemory allocates zeroed storage for desc.
func NewMemory(desc Descriptor) (*Memory, error) {
	return tensor.NewMemory(desc)
}

// Reorder copies src into dst, converting layout and element type.
func Reorder(src, dst *Memory) error {
	return tensor.Reorder(src, dst)
}

// DefaultConvParams returns stride 1, no padding and the auto algorithm.
func DefaultConvParams() ConvParams {
	return tensor.DefaultConvParams()
}

// ParseLayout parses a layout tag such as "nchw" or "nChw8c".
func ParseLayout(s string) (Layout, error) {
	return tensor.ParseLayout(s)
}

// ParseDataType parses names such as "f32" or "float16".
func ParseDataType(s string) (DataType, error) {
	return tensor.ParseDataType(s)
}

// ParseAlgorithm parses "auto", "direct" or "winograd".
func ParseAlgorithm(s string) (Algorithm, error) {
	return tensor.ParseAlgorithm(s)
}
