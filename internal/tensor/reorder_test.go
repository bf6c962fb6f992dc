package tensor

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomValues(n int, seed uint64) []float32 {
	rng := rand.New(rand.NewPCG(seed, 0))
	out := make([]float32, n)
	for i := range out {
		out[i] = rng.Float32()*2 - 1
	}
	return out
}

func newFilledMemory(t *testing.T, shape Shape, dtype DataType, layout Layout, values []float32) *Memory {
	t.Helper()
	m, err := NewMemory(MustDescriptor(shape, dtype, layout))
	require.NoError(t, err)
	if values != nil {
		require.NoError(t, m.FillFloat32(values))
	}
	return m
}

var activationLayouts = []Layout{LayoutNCHW, LayoutNHWC, LayoutNChw8c}

var weightsLayouts = []Layout{LayoutOIHW, LayoutOHWI, LayoutOIhw8i8o}

func TestReorder_RoundTrip(t *testing.T) {
	shape := Shape{2, 11, 3, 4}
	values := randomValues(shape.NumElements(), 1)

	for _, group := range [][]Layout{activationLayouts, weightsLayouts} {
		for _, from := range group {
			for _, to := range group {
				t.Run(from.String()+"->"+to.String(), func(t *testing.T) {
					src := newFilledMemory(t, shape, Float32, from, values)
					mid := newFilledMemory(t, shape, Float32, to, nil)
					back := newFilledMemory(t, shape, Float32, from, nil)

					require.NoError(t, Reorder(src, mid))
					assert.Equal(t, values, mid.ReadFloat32())

					require.NoError(t, Reorder(mid, back))
					assert.Equal(t, src.Data(), back.Data())
				})
			}
		}
	}
}

func TestReorder_Float16(t *testing.T) {
	shape := Shape{1, 9, 2, 2}
	values := []float32{}
	for i := 0; i < shape.NumElements(); i++ {
		// Exactly representable in float16.
		values = append(values, float32(i)*0.25-4)
	}

	src := newFilledMemory(t, shape, Float16, LayoutNCHW, values)
	packed := newFilledMemory(t, shape, Float16, LayoutNChw8c, nil)
	require.NoError(t, Reorder(src, packed))
	assert.Equal(t, values, packed.ReadFloat32())

	back := newFilledMemory(t, shape, Float16, LayoutNHWC, nil)
	require.NoError(t, Reorder(packed, back))
	assert.Equal(t, values, back.ReadFloat32())
}

func TestReorder_ConvertsDType(t *testing.T) {
	shape := Shape{1, 3, 2, 2}
	values := randomValues(shape.NumElements(), 2)

	src := newFilledMemory(t, shape, Float32, LayoutNCHW, values)
	dst := newFilledMemory(t, shape, Float64, LayoutNHWC, nil)
	require.NoError(t, Reorder(src, dst))
	assert.Equal(t, values, dst.ReadFloat32())

	bias := newFilledMemory(t, Shape{3}, Float32, LayoutX, []float32{1, 2, 3})
	bias64 := newFilledMemory(t, Shape{3}, Float64, LayoutX, nil)
	require.NoError(t, Reorder(bias, bias64))
	assert.Equal(t, []float32{1, 2, 3}, bias64.ReadFloat32())
}

func TestReorder_ZeroesBlockPadding(t *testing.T) {
	shape := Shape{1, 3, 2, 2}
	src := newFilledMemory(t, shape, Float32, LayoutNCHW, randomValues(12, 3))
	dst := newFilledMemory(t, shape, Float32, LayoutNChw8c, nil)

	// Dirty the padding lanes first.
	for i := range dst.AsFloat32() {
		dst.AsFloat32()[i] = 42
	}
	require.NoError(t, Reorder(src, dst))

	data := dst.AsFloat32()
	for px := 0; px < 4; px++ {
		for lane := 3; lane < 8; lane++ {
			assert.Zero(t, data[px*8+lane], "pixel %d lane %d", px, lane)
		}
	}
}

func TestReorder_ShapeMismatch(t *testing.T) {
	src := newFilledMemory(t, Shape{1, 3, 2, 2}, Float32, LayoutNCHW, nil)
	dst := newFilledMemory(t, Shape{1, 3, 2, 3}, Float32, LayoutNCHW, nil)
	assert.ErrorIs(t, Reorder(src, dst), ErrUnsupportedConfiguration)
}
