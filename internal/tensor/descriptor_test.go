package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDescriptor(t *testing.T) {
	d, err := NewDescriptor(Shape{1, 2, 4, 4}, Float32, LayoutNCHW)
	require.NoError(t, err)

	assert.Equal(t, Shape{1, 2, 4, 4}, d.Shape())
	assert.Equal(t, Float32, d.DType())
	assert.Equal(t, LayoutNCHW, d.Layout())
	assert.Equal(t, 4, d.Rank())
	assert.Equal(t, 32, d.NumElements())
	assert.Equal(t, 128, d.ByteSize())
	assert.False(t, d.IsZero())
	assert.Equal(t, "float32:nchw[1 2 4 4]", d.String())
}

func TestNewDescriptor_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		shape  Shape
		layout Layout
	}{
		{"empty shape", Shape{}, LayoutAny},
		{"zero dimension", Shape{1, 0, 4, 4}, LayoutNCHW},
		{"negative dimension", Shape{1, 2, -4, 4}, LayoutNCHW},
		{"rank 2 bias", Shape{2, 2}, LayoutX},
		{"rank 3 activation", Shape{2, 4, 4}, LayoutNCHW},
		{"rank 1 weights", Shape{8}, LayoutOIhw8i8o},
		{"element count overflows", Shape{math.MaxInt / 2, 3, 1, 1}, LayoutNCHW},
		{"byte size overflows", Shape{2, math.MaxInt / 4, 1, 1}, LayoutNCHW},
		{"padded size overflows", Shape{1, math.MaxInt - 2, 1, 1}, LayoutNChw8c},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDescriptor(tt.shape, Float32, tt.layout)
			assert.ErrorIs(t, err, ErrInvalidShape)
		})
	}
}

func TestDescriptor_Immutable(t *testing.T) {
	shape := Shape{1, 2, 3, 3}
	d := MustDescriptor(shape, Float32, LayoutNCHW)

	shape[0] = 7
	d.Shape()[1] = 9
	assert.Equal(t, Shape{1, 2, 3, 3}, d.Shape())
}

func TestDescriptor_Equal(t *testing.T) {
	base := MustDescriptor(Shape{1, 2, 3, 3}, Float32, LayoutNCHW)

	assert.True(t, base.Equal(MustDescriptor(Shape{1, 2, 3, 3}, Float32, LayoutNCHW)))
	assert.False(t, base.Equal(MustDescriptor(Shape{1, 2, 3, 3}, Float32, LayoutNHWC)), "layout differs")
	assert.False(t, base.Equal(MustDescriptor(Shape{1, 2, 3, 3}, Float64, LayoutNCHW)), "dtype differs")
	assert.False(t, base.Equal(MustDescriptor(Shape{1, 2, 3, 4}, Float32, LayoutNCHW)), "shape differs")
}

func TestDescriptor_WithLayout(t *testing.T) {
	d := MustDescriptor(Shape{2, 3, 4, 5}, Float16, LayoutAny)

	packed, err := d.WithLayout(LayoutNChw8c)
	require.NoError(t, err)
	assert.Equal(t, LayoutNChw8c, packed.Layout())
	assert.Equal(t, Float16, packed.DType())
	assert.Equal(t, d.Shape(), packed.Shape())

	_, err = d.WithLayout(LayoutX)
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestDescriptor_PhysicalElements(t *testing.T) {
	tests := []struct {
		layout Layout
		shape  Shape
		want   int
	}{
		{LayoutNCHW, Shape{2, 3, 4, 5}, 120},
		{LayoutNHWC, Shape{2, 3, 4, 5}, 120},
		{LayoutNChw8c, Shape{2, 3, 4, 5}, 2 * 8 * 4 * 5},
		{LayoutNChw8c, Shape{1, 16, 2, 2}, 64},
		{LayoutOIhw8i8o, Shape{10, 3, 3, 3}, 16 * 8 * 9},
		{LayoutX, Shape{7}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.layout.String(), func(t *testing.T) {
			d := MustDescriptor(tt.shape, Float32, tt.layout)
			assert.Equal(t, tt.want, d.PhysicalElements())
			assert.Equal(t, tt.want*4, d.ByteSize())
		})
	}
}

func TestDescriptor_OffsetIsBijective(t *testing.T) {
	shape := Shape{3, 10, 2, 3}
	for _, l := range []Layout{LayoutNCHW, LayoutNHWC, LayoutOIHW, LayoutOHWI, LayoutNChw8c, LayoutOIhw8i8o} {
		t.Run(l.String(), func(t *testing.T) {
			d := MustDescriptor(shape, Float32, l)
			seen := make(map[int]bool)
			for i0 := 0; i0 < 3; i0++ {
				for i1 := 0; i1 < 10; i1++ {
					for i2 := 0; i2 < 2; i2++ {
						for i3 := 0; i3 < 3; i3++ {
							off := d.Offset(i0, i1, i2, i3)
							require.GreaterOrEqual(t, off, 0)
							require.Less(t, off, d.PhysicalElements())
							require.False(t, seen[off], "offset %d used twice", off)
							seen[off] = true
						}
					}
				}
			}
			assert.Len(t, seen, shape.NumElements())
		})
	}
}

func TestDescriptor_OffsetNHWC(t *testing.T) {
	d := MustDescriptor(Shape{1, 3, 2, 2}, Float32, LayoutNHWC)
	// Channels are innermost.
	assert.Equal(t, 0, d.Offset(0, 0, 0, 0))
	assert.Equal(t, 1, d.Offset(0, 1, 0, 0))
	assert.Equal(t, 3, d.Offset(0, 0, 0, 1))
	assert.Equal(t, 6, d.Offset(0, 0, 1, 0))
}

func TestParseLayout(t *testing.T) {
	for _, l := range []Layout{LayoutAny, LayoutX, LayoutNCHW, LayoutNHWC, LayoutOIHW, LayoutOHWI, LayoutNChw8c, LayoutOIhw8i8o} {
		got, err := ParseLayout(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}

	got, err := ParseLayout("NCHW")
	require.NoError(t, err)
	assert.Equal(t, LayoutNCHW, got)

	_, err = ParseLayout("chwn")
	assert.Error(t, err)
}

func TestParseDataType(t *testing.T) {
	tests := map[string]DataType{
		"f32":     Float32,
		"float32": Float32,
		"F64":     Float64,
		"half":    Float16,
	}
	for in, want := range tests {
		got, err := ParseDataType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDataType("int8")
	assert.Error(t, err)
}
