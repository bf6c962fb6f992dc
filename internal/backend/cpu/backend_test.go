package cpu

import (
	"math/rand/v2"
	"testing"

	"github.com/born-ml/convbench/internal/parallel"
	"github.com/born-ml/convbench/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anyDesc(shape tensor.Shape) tensor.Descriptor {
	return tensor.MustDescriptor(shape, tensor.Float32, tensor.LayoutAny)
}

// newFilled allocates a buffer and fills it from values in logical order.
func newFilled(t *testing.T, shape tensor.Shape, dtype tensor.DataType, layout tensor.Layout, values []float32) *tensor.Memory {
	t.Helper()
	m, err := tensor.NewMemory(tensor.MustDescriptor(shape, dtype, layout))
	require.NoError(t, err)
	if values != nil {
		require.NoError(t, m.FillFloat32(values))
	}
	return m
}

func randomValues(n int, seed uint64) []float32 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]float32, n)
	for i := range out {
		out[i] = rng.Float32()*2 - 1
	}
	return out
}

// convolve resolves a convolution for the buffers' own layouts and runs it.
func convolve(t *testing.T, b tensor.Backend, p tensor.ConvParams, src, weights, bias *tensor.Memory) *tensor.Memory {
	t.Helper()
	desc := tensor.ConvDesc{Src: src.Descriptor(), Weights: weights.Descriptor(), Params: p}
	if bias != nil {
		desc.Bias = bias.Descriptor()
	}
	prim, err := b.ResolveConvolution(desc)
	require.NoError(t, err)

	dst, err := tensor.NewMemory(prim.Dst)
	require.NoError(t, err)
	require.NoError(t, b.Convolve(prim, src, weights, bias, dst))
	require.NoError(t, b.Wait())
	return dst
}

func TestCPUBackend_New(t *testing.T) {
	b := New()
	assert.Equal(t, "CPU", b.Name())
	assert.Equal(t, tensor.CPU, b.Device())
	assert.NoError(t, b.Wait())
}

func TestCPUBackend_ResolveDirect(t *testing.T) {
	b := New()
	p := tensor.DefaultConvParams()
	p.Algorithm = tensor.AlgorithmDirect

	prim, err := b.ResolveConvolution(tensor.ConvDesc{
		Src:     anyDesc(tensor.Shape{1, 16, 8, 8}),
		Weights: anyDesc(tensor.Shape{16, 16, 3, 3}),
		Params:  p,
	})
	require.NoError(t, err)
	assert.Equal(t, tensor.LayoutNCHW, prim.Src.Layout())
	assert.Equal(t, tensor.LayoutOIHW, prim.Weights.Layout())
	assert.Equal(t, tensor.LayoutNCHW, prim.Dst.Layout())
	assert.Equal(t, tensor.Shape{1, 16, 6, 6}, prim.Dst.Shape())
	assert.Equal(t, tensor.AlgorithmDirect, prim.Algorithm)
	assert.False(t, prim.HasBias())
}

func TestCPUBackend_ResolveAuto(t *testing.T) {
	b := New()

	tests := []struct {
		name       string
		ic, oc     int
		wantSrc    tensor.Layout
		wantWeight tensor.Layout
	}{
		{"channels multiple of 8", 8, 16, tensor.LayoutNChw8c, tensor.LayoutOIhw8i8o},
		{"odd input channels", 3, 16, tensor.LayoutNCHW, tensor.LayoutOIHW},
		{"odd output channels", 8, 5, tensor.LayoutNCHW, tensor.LayoutOIHW},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prim, err := b.ResolveConvolution(tensor.ConvDesc{
				Src:     anyDesc(tensor.Shape{1, tt.ic, 5, 5}),
				Weights: anyDesc(tensor.Shape{tt.oc, tt.ic, 3, 3}),
				Params:  tensor.DefaultConvParams(),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantSrc, prim.Src.Layout())
			assert.Equal(t, tt.wantWeight, prim.Weights.Layout())
			assert.Equal(t, tt.wantSrc, prim.Dst.Layout())
			assert.Equal(t, tensor.AlgorithmDirect, prim.Algorithm)
		})
	}
}

func TestCPUBackend_ResolveKeepsConcreteLayouts(t *testing.T) {
	b := New()
	src := tensor.MustDescriptor(tensor.Shape{1, 8, 5, 5}, tensor.Float32, tensor.LayoutNHWC)
	weights := tensor.MustDescriptor(tensor.Shape{8, 8, 3, 3}, tensor.Float32, tensor.LayoutOHWI)

	prim, err := b.ResolveConvolution(tensor.ConvDesc{Src: src, Weights: weights, Params: tensor.DefaultConvParams()})
	require.NoError(t, err)
	assert.True(t, prim.Src.Equal(src))
	assert.True(t, prim.Weights.Equal(weights))
}

func TestCPUBackend_ResolveWinograd(t *testing.T) {
	b := New()
	winograd := tensor.DefaultConvParams()
	winograd.Algorithm = tensor.AlgorithmWinograd

	prim, err := b.ResolveConvolution(tensor.ConvDesc{
		Src:     anyDesc(tensor.Shape{1, 4, 6, 6}),
		Weights: anyDesc(tensor.Shape{4, 4, 3, 3}),
		Params:  winograd,
	})
	require.NoError(t, err)
	assert.Equal(t, tensor.AlgorithmWinograd, prim.Algorithm)
	assert.Equal(t, tensor.LayoutNChw8c, prim.Src.Layout())
	assert.Equal(t, tensor.LayoutOIhw8i8o, prim.Weights.Layout())

	t.Run("kernel not 3x3", func(t *testing.T) {
		_, err := b.ResolveConvolution(tensor.ConvDesc{
			Src:     anyDesc(tensor.Shape{1, 4, 6, 6}),
			Weights: anyDesc(tensor.Shape{4, 4, 5, 5}),
			Params:  winograd,
		})
		assert.ErrorIs(t, err, tensor.ErrUnsupportedConfiguration)
	})

	t.Run("strided", func(t *testing.T) {
		p := winograd
		p.Stride = [2]int{2, 2}
		_, err := b.ResolveConvolution(tensor.ConvDesc{
			Src:     anyDesc(tensor.Shape{1, 4, 6, 6}),
			Weights: anyDesc(tensor.Shape{4, 4, 3, 3}),
			Params:  p,
		})
		assert.ErrorIs(t, err, tensor.ErrUnsupportedConfiguration)
	})

	t.Run("float64", func(t *testing.T) {
		_, err := b.ResolveConvolution(tensor.ConvDesc{
			Src:     tensor.MustDescriptor(tensor.Shape{1, 4, 6, 6}, tensor.Float64, tensor.LayoutAny),
			Weights: tensor.MustDescriptor(tensor.Shape{4, 4, 3, 3}, tensor.Float64, tensor.LayoutAny),
			Params:  winograd,
		})
		assert.ErrorIs(t, err, tensor.ErrUnsupportedConfiguration)
	})
}

func TestCPUBackend_ResolveRejects(t *testing.T) {
	b := New()

	t.Run("channel mismatch", func(t *testing.T) {
		_, err := b.ResolveConvolution(tensor.ConvDesc{
			Src:     anyDesc(tensor.Shape{1, 3, 6, 6}),
			Weights: anyDesc(tensor.Shape{4, 4, 3, 3}),
			Params:  tensor.DefaultConvParams(),
		})
		assert.ErrorIs(t, err, tensor.ErrUnsupportedConfiguration)
	})

	t.Run("wrong destination shape", func(t *testing.T) {
		_, err := b.ResolveConvolution(tensor.ConvDesc{
			Src:     anyDesc(tensor.Shape{1, 4, 6, 6}),
			Weights: anyDesc(tensor.Shape{4, 4, 3, 3}),
			Dst:     anyDesc(tensor.Shape{1, 4, 6, 6}),
			Params:  tensor.DefaultConvParams(),
		})
		assert.ErrorIs(t, err, tensor.ErrUnsupportedConfiguration)
	})

	t.Run("kernel larger than input", func(t *testing.T) {
		_, err := b.ResolveConvolution(tensor.ConvDesc{
			Src:     anyDesc(tensor.Shape{1, 4, 2, 2}),
			Weights: anyDesc(tensor.Shape{4, 4, 3, 3}),
			Params:  tensor.DefaultConvParams(),
		})
		assert.ErrorIs(t, err, tensor.ErrUnsupportedConfiguration)
	})
}

func TestCPUBackend_ConvolveChecksBinding(t *testing.T) {
	b := New()
	src := newFilled(t, tensor.Shape{1, 1, 3, 3}, tensor.Float32, tensor.LayoutNCHW, nil)
	weights := newFilled(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.LayoutOIHW, nil)

	prim, err := b.ResolveConvolution(tensor.ConvDesc{
		Src:     src.Descriptor(),
		Weights: weights.Descriptor(),
		Params:  tensor.DefaultConvParams(),
	})
	require.NoError(t, err)

	wrongDst := newFilled(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.LayoutNHWC, nil)
	err = b.Convolve(prim, src, weights, nil, wrongDst)
	assert.ErrorIs(t, err, tensor.ErrUnsupportedConfiguration)

	dst := newFilled(t, tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.LayoutNCHW, nil)
	bias := newFilled(t, tensor.Shape{1}, tensor.Float32, tensor.LayoutX, nil)
	err = b.Convolve(prim, src, weights, bias, dst)
	assert.ErrorIs(t, err, tensor.ErrUnsupportedConfiguration, "bias bound to a primitive without bias")
}

func TestCPUBackend_Reorder(t *testing.T) {
	b := New()
	values := randomValues(2*3*4*5, 7)
	src := newFilled(t, tensor.Shape{2, 3, 4, 5}, tensor.Float32, tensor.LayoutNCHW, values)
	dst := newFilled(t, tensor.Shape{2, 3, 4, 5}, tensor.Float32, tensor.LayoutNChw8c, nil)

	require.NoError(t, b.Reorder(src, dst))
	assert.Equal(t, values, dst.ReadFloat32())
}

func TestCPUBackend_SequentialMatchesParallel(t *testing.T) {
	p := tensor.DefaultConvParams()
	p.PadL, p.PadR = [2]int{1, 1}, [2]int{1, 1}

	src := newFilled(t, tensor.Shape{2, 3, 9, 7}, tensor.Float32, tensor.LayoutNCHW, randomValues(2*3*9*7, 1))
	weights := newFilled(t, tensor.Shape{4, 3, 3, 3}, tensor.Float32, tensor.LayoutOIHW, randomValues(4*3*3*3, 2))

	par := convolve(t, New(), p, src, weights, nil)
	seq := convolve(t, NewWithConfig(parallel.Sequential()), p, src, weights, nil)
	assert.Equal(t, seq.ReadFloat32(), par.ReadFloat32())
}

func BenchmarkCPU_Conv2D(b *testing.B) {
	for _, layout := range []tensor.Layout{tensor.LayoutNCHW, tensor.LayoutNChw8c} {
		b.Run(layout.String(), func(b *testing.B) {
			backend := New()
			weightsLayout := tensor.LayoutOIHW
			if layout == tensor.LayoutNChw8c {
				weightsLayout = tensor.LayoutOIhw8i8o
			}
			src, _ := tensor.NewMemory(tensor.MustDescriptor(tensor.Shape{1, 16, 64, 64}, tensor.Float32, layout))
			weights, _ := tensor.NewMemory(tensor.MustDescriptor(tensor.Shape{16, 16, 3, 3}, tensor.Float32, weightsLayout))
			prim, err := backend.ResolveConvolution(tensor.ConvDesc{
				Src:     src.Descriptor(),
				Weights: weights.Descriptor(),
				Params:  tensor.DefaultConvParams(),
			})
			if err != nil {
				b.Fatal(err)
			}
			dst, _ := tensor.NewMemory(prim.Dst)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := backend.Convolve(prim, src, weights, nil, dst); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
