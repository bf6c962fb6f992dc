// Package webgpu implements the accelerated backend on WebGPU compute shaders.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
package webgpu

import (
	"encoding/binary"
	"fmt"

	"github.com/born-ml/convbench/internal/tensor"
)

// Preferred layouts of the convolution shader: channel-last activations and
// weights, so the innermost shader loop reads contiguous channels.
const (
	activationLayout = tensor.LayoutNHWC
	weightsLayout    = tensor.LayoutOHWI
)

// resolveConvolution validates a request against what the shader supports and
// fills in the preferred layouts.
func resolveConvolution(desc tensor.ConvDesc) (*tensor.ConvPrimitive, error) {
	dstShape, err := tensor.ConvOutputShape(desc.Src, desc.Weights, desc.Bias, desc.Params)
	if err != nil {
		return nil, err
	}
	if dt := desc.Src.DType(); dt != tensor.Float32 {
		return nil, fmt.Errorf("%w: webgpu: only float32 is supported, got %s", tensor.ErrUnsupportedConfiguration, dt)
	}
	if desc.Params.Algorithm == tensor.AlgorithmWinograd {
		return nil, fmt.Errorf("%w: webgpu: winograd algorithm is not available", tensor.ErrUnsupportedConfiguration)
	}

	dstReq := desc.Dst
	if dstReq.IsZero() {
		if dstReq, err = tensor.NewDescriptor(dstShape, tensor.Float32, tensor.LayoutAny); err != nil {
			return nil, err
		}
	} else if !dstReq.Shape().Equal(dstShape) {
		return nil, fmt.Errorf("%w: webgpu: destination shape %v, want %v",
			tensor.ErrUnsupportedConfiguration, dstReq.Shape(), dstShape)
	}

	prim := &tensor.ConvPrimitive{Bias: desc.Bias, Params: desc.Params, Algorithm: tensor.AlgorithmDirect}
	if prim.Src, err = tensor.ResolveLayout(desc.Src, activationLayout); err != nil {
		return nil, err
	}
	if prim.Weights, err = tensor.ResolveLayout(desc.Weights, weightsLayout); err != nil {
		return nil, err
	}
	if prim.Dst, err = tensor.ResolveLayout(dstReq, activationLayout); err != nil {
		return nil, err
	}

	if prim.Src.Layout() != activationLayout || prim.Dst.Layout() != activationLayout || prim.Weights.Layout() != weightsLayout {
		return nil, fmt.Errorf("%w: webgpu: shader needs %s/%s/%s, got %s/%s/%s",
			tensor.ErrUnsupportedConfiguration,
			activationLayout, weightsLayout, activationLayout,
			prim.Src.Layout(), prim.Weights.Layout(), prim.Dst.Layout())
	}
	if prim.HasBias() && prim.Bias.Layout() != tensor.LayoutX {
		return nil, fmt.Errorf("%w: webgpu: bias must be %s, got %s",
			tensor.ErrUnsupportedConfiguration, tensor.LayoutX, prim.Bias.Layout())
	}
	return prim, nil
}

// convParams is the uniform block of the convolution shader.
// Field order matches the WGSL Params struct.
type convParams struct {
	N, C, H, W       uint32
	O, KH, KW        uint32
	OH, OW           uint32
	StrideH, StrideW uint32
	PadT, PadL       uint32
	HasBias          uint32
	Total            uint32
	RowStride        uint32 // invocations per dispatch row
}

// convParamsSize is the uniform buffer size in bytes (16 u32).
const convParamsSize = 64

// newConvParams fills the uniform block. Dimensions are validated positive
// and fit the shader's u32 indexing.
//
//nolint:gosec // G115: int -> uint32 conversions of validated dimensions
func newConvParams(prim *tensor.ConvPrimitive) convParams {
	s, w, d := prim.Src, prim.Weights, prim.Dst
	p := convParams{
		N: uint32(s.Dim(0)), C: uint32(s.Dim(1)), H: uint32(s.Dim(2)), W: uint32(s.Dim(3)),
		O: uint32(w.Dim(0)), KH: uint32(w.Dim(2)), KW: uint32(w.Dim(3)),
		OH: uint32(d.Dim(2)), OW: uint32(d.Dim(3)),
		StrideH: uint32(prim.Params.Stride[0]), StrideW: uint32(prim.Params.Stride[1]),
		PadT: uint32(prim.Params.PadL[0]), PadL: uint32(prim.Params.PadL[1]),
		Total: uint32(d.NumElements()),
	}
	if prim.HasBias() {
		p.HasBias = 1
	}
	return p
}

// bytes encodes the params little-endian, padded to convParamsSize.
func (p convParams) bytes() []byte {
	fields := []uint32{
		p.N, p.C, p.H, p.W, p.O, p.KH, p.KW, p.OH, p.OW,
		p.StrideH, p.StrideW, p.PadT, p.PadL, p.HasBias, p.Total, p.RowStride,
	}
	out := make([]byte, convParamsSize)
	for i, f := range fields {
		binary.LittleEndian.PutUint32(out[i*4:], f)
	}
	return out
}

// maxWorkgroupsPerDim is the WebGPU limit on workgroups in one dispatch dimension.
const maxWorkgroupsPerDim = 65535

// dispatchSize splits total invocations into a 2D grid of workgroups.
func dispatchSize(total, groupSize int) (x, y uint32) {
	groups := (total + groupSize - 1) / groupSize
	if groups == 0 {
		return 0, 0
	}
	gx := min(groups, maxWorkgroupsPerDim)
	gy := (groups + gx - 1) / gx
	//nolint:gosec // G115: both bounded by maxWorkgroupsPerDim
	return uint32(gx), uint32(gy)
}
