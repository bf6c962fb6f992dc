package cpu

import (
	"github.com/born-ml/convbench/internal/parallel"
	"github.com/born-ml/convbench/internal/tensor"
)

// maxColElements bounds the im2col scratch buffer of one band (4 MiB of float32).
const maxColElements = 1 << 20

// convGeometry holds the dimensions of one convolution.
type convGeometry struct {
	N, CIn, H, W     int
	COut, KH, KW     int
	HOut, WOut       int
	StrideH, StrideW int
	PadT, PadL       int
}

func geometry(prim *tensor.ConvPrimitive) convGeometry {
	s, w, d := prim.Src, prim.Weights, prim.Dst
	return convGeometry{
		N: s.Dim(0), CIn: s.Dim(1), H: s.Dim(2), W: s.Dim(3),
		COut: w.Dim(0), KH: w.Dim(2), KW: w.Dim(3),
		HOut: d.Dim(2), WOut: d.Dim(3),
		StrideH: prim.Params.Stride[0], StrideW: prim.Params.Stride[1],
		PadT: prim.Params.PadL[0], PadL: prim.Params.PadL[1],
	}
}

// conv2dIm2col performs a plain nchw/oihw float32 convolution using im2col.
//
// Algorithm:
//  1. Split every image into bands of output rows so the column buffer stays bounded
//  2. Im2col: transform the band's input patches into [rows * W_out, C_in * K_h * K_w]
//  3. Multiply each kernel row [C_in * K_h * K_w] with every column row
//  4. Write [C_out, rows * W_out] straight into the nchw destination plane
//
// Bottom/right padding only affects the output size, so the patch extraction
// uses the top/left padding alone.
func (cpu *CPUBackend) conv2dIm2col(prim *tensor.ConvPrimitive, src, weights, bias, dst *tensor.Memory) error {
	g := geometry(prim)
	inputData := src.AsFloat32()
	kernelData := weights.AsFloat32()
	outputData := dst.AsFloat32()
	var biasData []float32
	if bias != nil {
		biasData = bias.AsFloat32()
	}

	colWidth := g.CIn * g.KH * g.KW
	rowsPerBand := max(1, min(g.HOut, maxColElements/max(1, g.WOut*colWidth)))
	bands := (g.HOut + rowsPerBand - 1) / rowsPerBand

	return parallel.For(g.N*bands, func(k int) error {
		n, band := k/bands, k%bands
		r0 := band * rowsPerBand
		r1 := min(r0+rowsPerBand, g.HOut)
		colHeight := (r1 - r0) * g.WOut

		colBuf := make([]float32, colHeight*colWidth)
		im2colFloat32(colBuf, inputData, g, n, r0, r1)

		outPlane := g.HOut * g.WOut
		for oc := 0; oc < g.COut; oc++ {
			kernelRow := kernelData[oc*colWidth : (oc+1)*colWidth]
			b := float32(0)
			if biasData != nil {
				b = biasData[oc]
			}
			out := outputData[(n*g.COut+oc)*outPlane+r0*g.WOut:]
			for j := 0; j < colHeight; j++ {
				col := colBuf[j*colWidth : (j+1)*colWidth]
				sum := b
				for i, kv := range kernelRow {
					sum += kv * col[i]
				}
				out[j] = sum
			}
		}
		return nil
	}, cpu.parallel)
}

// im2colFloat32 transforms output rows [r0, r1) of image n into column form.
//
// Each row of colBuf corresponds to one output position.
// Each column corresponds to one kernel weight.
func im2colFloat32(colBuf, inputData []float32, g convGeometry, n, r0, r1 int) {
	colWidth := g.CIn * g.KH * g.KW
	colIdx := 0

	for outH := r0; outH < r1; outH++ {
		for outW := 0; outW < g.WOut; outW++ {
			// Top-left corner in input space
			hStart := outH*g.StrideH - g.PadT
			wStart := outW*g.StrideW - g.PadL
			bufIdx := colIdx * colWidth

			for c := 0; c < g.CIn; c++ {
				for kh := 0; kh < g.KH; kh++ {
					for kw := 0; kw < g.KW; kw++ {
						h := hStart + kh
						w := wStart + kw

						if h >= 0 && h < g.H && w >= 0 && w < g.W {
							colBuf[bufIdx] = inputData[((n*g.CIn+c)*g.H+h)*g.W+w]
						} else {
							colBuf[bufIdx] = 0.0 // padding
						}
						bufIdx++
					}
				}
			}
			colIdx++
		}
	}
}
