// Package cpu implements the reference CPU backend in pure Go.
package cpu

import (
	"fmt"

	"github.com/born-ml/convbench/internal/parallel"
	"github.com/born-ml/convbench/internal/tensor"
)

// Verify that CPUBackend implements tensor.Backend.
var _ tensor.Backend = (*CPUBackend)(nil)

// CPUBackend executes reorders and convolutions synchronously on the host.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a new CPU backend using all available cores.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with explicit parallelism settings.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// ResolveConvolution picks concrete layouts for every LayoutAny descriptor.
//
//   - direct: plain nchw / oihw
//   - winograd: packed nChw8c / OIhw8i8o; needs a float32 3x3 kernel with unit stride
//   - auto: packed when both channel counts are multiples of 8, plain otherwise
//
// Requested concrete layouts are kept as they are and an open destination
// follows the resolved source layout. The winograd hint selects
// the packed layouts and is executed by the packed direct kernel.
func (cpu *CPUBackend) ResolveConvolution(desc tensor.ConvDesc) (*tensor.ConvPrimitive, error) {
	dstShape, err := tensor.ConvOutputShape(desc.Src, desc.Weights, desc.Bias, desc.Params)
	if err != nil {
		return nil, err
	}
	if !desc.Dst.IsZero() && !desc.Dst.Shape().Equal(dstShape) {
		return nil, fmt.Errorf("%w: cpu: destination shape %v, want %v",
			tensor.ErrUnsupportedConfiguration, desc.Dst.Shape(), dstShape)
	}

	algo := desc.Params.Algorithm
	packed := false
	switch algo {
	case tensor.AlgorithmDirect:
	case tensor.AlgorithmWinograd:
		if err := checkWinograd(desc); err != nil {
			return nil, err
		}
		packed = true
	case tensor.AlgorithmAuto:
		packed = desc.Src.Dim(1)%8 == 0 && desc.Weights.Dim(0)%8 == 0
		algo = tensor.AlgorithmDirect
	}

	srcLayout, weightsLayout := tensor.LayoutNCHW, tensor.LayoutOIHW
	if packed {
		srcLayout, weightsLayout = tensor.LayoutNChw8c, tensor.LayoutOIhw8i8o
	}

	dstReq := desc.Dst
	if dstReq.IsZero() {
		if dstReq, err = tensor.NewDescriptor(dstShape, desc.Src.DType(), tensor.LayoutAny); err != nil {
			return nil, err
		}
	}

	prim := &tensor.ConvPrimitive{Bias: desc.Bias, Params: desc.Params, Algorithm: algo}
	if prim.Src, err = tensor.ResolveLayout(desc.Src, srcLayout); err != nil {
		return nil, err
	}
	if prim.Weights, err = tensor.ResolveLayout(desc.Weights, weightsLayout); err != nil {
		return nil, err
	}
	if prim.Dst, err = tensor.ResolveLayout(dstReq, prim.Src.Layout()); err != nil {
		return nil, err
	}
	for _, d := range []tensor.Descriptor{prim.Src, prim.Weights, prim.Dst} {
		if d.Rank() != 4 {
			return nil, fmt.Errorf("%w: cpu: %s is not a rank-4 layout", tensor.ErrUnsupportedConfiguration, d)
		}
	}
	return prim, nil
}

// checkWinograd enforces the shapes a Winograd F(2x2, 3x3) kernel accepts.
func checkWinograd(desc tensor.ConvDesc) error {
	kh, kw := desc.Weights.Dim(2), desc.Weights.Dim(3)
	s := desc.Params.Stride
	if kh != 3 || kw != 3 || s[0] != 1 || s[1] != 1 {
		return fmt.Errorf("%w: winograd requires a 3x3 kernel with stride 1, got %dx%d stride %v",
			tensor.ErrUnsupportedConfiguration, kh, kw, s)
	}
	if desc.Src.DType() != tensor.Float32 {
		return fmt.Errorf("%w: winograd requires float32, got %s",
			tensor.ErrUnsupportedConfiguration, desc.Src.DType())
	}
	return nil
}

// Reorder copies src into dst in dst's layout.
func (cpu *CPUBackend) Reorder(src, dst *tensor.Memory) error {
	return tensor.Reorder(src, dst)
}

// Convolve runs the convolution synchronously.
func (cpu *CPUBackend) Convolve(prim *tensor.ConvPrimitive, src, weights, bias, dst *tensor.Memory) error {
	if err := prim.CheckBinding(src, weights, bias, dst); err != nil {
		return err
	}

	sl, wl, dl := prim.Src.Layout(), prim.Weights.Layout(), prim.Dst.Layout()
	f32 := prim.Src.DType() == tensor.Float32
	switch {
	case f32 && sl == tensor.LayoutNCHW && wl == tensor.LayoutOIHW && dl == tensor.LayoutNCHW:
		return cpu.conv2dIm2col(prim, src, weights, bias, dst)
	case f32 && sl == tensor.LayoutNChw8c && wl == tensor.LayoutOIhw8i8o && dl == tensor.LayoutNChw8c:
		return cpu.conv2dPacked(prim, src, weights, bias, dst)
	default:
		return cpu.conv2dGeneric(prim, src, weights, bias, dst)
	}
}

// Wait returns immediately; every CPU call is synchronous.
func (cpu *CPUBackend) Wait() error {
	return nil
}
