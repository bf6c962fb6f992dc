package cpu

import (
	"github.com/born-ml/convbench/internal/parallel"
	"github.com/born-ml/convbench/internal/tensor"
)

const block = 8

// conv2dPacked performs a float32 convolution on packed layouts:
// src and dst in nChw8c, weights in OIhw8i8o.
//
// Each output pixel accumulates one block of 8 output channels at a time.
// Block padding in src and weights is zero, so padded lanes need no masking.
// Work is split over (image, output channel block, output row).
func (cpu *CPUBackend) conv2dPacked(prim *tensor.ConvPrimitive, src, weights, bias, dst *tensor.Memory) error {
	g := geometry(prim)
	inputData := src.AsFloat32()
	kernelData := weights.AsFloat32()
	outputData := dst.AsFloat32()
	var biasData []float32
	if bias != nil {
		biasData = bias.AsFloat32()
	}

	icb := (g.CIn + block - 1) / block
	ocb := (g.COut + block - 1) / block

	return parallel.For(g.N*ocb*g.HOut, func(k int) error {
		oy := k % g.HOut
		ob := (k / g.HOut) % ocb
		n := k / (g.HOut * ocb)

		var biasBlock [block]float32
		for j := 0; j < block; j++ {
			if oc := ob*block + j; biasData != nil && oc < g.COut {
				biasBlock[j] = biasData[oc]
			}
		}

		out := outputData[((n*ocb+ob)*g.HOut+oy)*g.WOut*block:]
		for ox := 0; ox < g.WOut; ox++ {
			acc := biasBlock
			for ib := 0; ib < icb; ib++ {
				for ky := 0; ky < g.KH; ky++ {
					iy := oy*g.StrideH - g.PadT + ky
					if iy < 0 || iy >= g.H {
						continue
					}
					for kx := 0; kx < g.KW; kx++ {
						ix := ox*g.StrideW - g.PadL + kx
						if ix < 0 || ix >= g.W {
							continue
						}
						s := inputData[(((n*icb+ib)*g.H+iy)*g.W+ix)*block:]
						w := kernelData[(((ob*icb+ib)*g.KH+ky)*g.KW+kx)*block*block:]
						for i := 0; i < block; i++ {
							sv := s[i]
							wr := w[i*block : (i+1)*block]
							for j := range acc {
								acc[j] += sv * wr[j]
							}
						}
					}
				}
			}
			copy(out[ox*block:(ox+1)*block], acc[:])
		}
		return nil
	}, cpu.parallel)
}
