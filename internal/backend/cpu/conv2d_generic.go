package cpu

import (
	"github.com/born-ml/convbench/internal/parallel"
	"github.com/born-ml/convbench/internal/tensor"
)

// conv2dGeneric is a direct convolution that addresses every element through
// the descriptors, so it handles any rank-4 layout and any element type.
// Accumulation happens in float64.
func (cpu *CPUBackend) conv2dGeneric(prim *tensor.ConvPrimitive, src, weights, bias, dst *tensor.Memory) error {
	g := geometry(prim)
	sd, wd, dd := prim.Src, prim.Weights, prim.Dst

	if dd.Layout().Blocked() {
		dst.Zero()
	}

	parallel.ForBatch(g.N, g.COut, func(n, oc int) {
		b := 0.0
		if bias != nil {
			b = bias.At(oc)
		}
		for oy := 0; oy < g.HOut; oy++ {
			for ox := 0; ox < g.WOut; ox++ {
				sum := b
				for ic := 0; ic < g.CIn; ic++ {
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
							sum += src.At(sd.Offset(n, ic, iy, ix)) * weights.At(wd.Offset(oc, ic, ky, kx))
						}
					}
				}
				dst.Set(dd.Offset(n, oc, oy, ox), sum)
			}
		}
	}, cpu.parallel)
	return nil
}
