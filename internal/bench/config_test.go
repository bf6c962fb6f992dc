package bench

import (
	"testing"

	"github.com/born-ml/convbench/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 100, cfg.Iterations)
	assert.Equal(t, tensor.LayoutNCHW, cfg.Layout)

	p := cfg.Params()
	assert.Equal(t, 478, p.OutputSize(0, cfg.InHeight, cfg.KernelHeight))
	assert.Equal(t, 268, p.OutputSize(1, cfg.InWidth, cfg.KernelWidth))
}

func TestConfig_NewTensors(t *testing.T) {
	cfg := smallConfig()
	ts, err := cfg.NewTensors()
	require.NoError(t, err)

	assert.Equal(t, "float32:nchw[1 2 4 4]", ts.Src.Descriptor().String())
	assert.Equal(t, "float32:oihw[2 2 2 2]", ts.Weights.Descriptor().String())
	assert.Equal(t, "float32:x[2]", ts.Bias.Descriptor().String())
	assert.Equal(t, "float32:nchw[1 2 3 3]", ts.Dst.Descriptor().String())

	for _, v := range ts.Src.ReadFloat32() {
		assert.GreaterOrEqual(t, v, float32(-1))
		assert.Less(t, v, float32(1))
	}
	for _, v := range ts.Dst.ReadFloat32() {
		assert.Zero(t, v)
	}
}

func TestConfig_NewTensorsDeterministic(t *testing.T) {
	a, err := smallConfig().NewTensors()
	require.NoError(t, err)
	b, err := smallConfig().NewTensors()
	require.NoError(t, err)
	assert.Equal(t, a.Src.Data(), b.Src.Data())
	assert.Equal(t, a.Weights.Data(), b.Weights.Data())

	other := smallConfig()
	other.Seed = 99
	c, err := other.NewTensors()
	require.NoError(t, err)
	assert.NotEqual(t, a.Src.Data(), c.Src.Data())
}

func TestConfig_NewTensorsLayouts(t *testing.T) {
	cfg := smallConfig()
	cfg.Layout = tensor.LayoutNHWC
	cfg.DType = tensor.Float16
	cfg.Bias = false

	ts, err := cfg.NewTensors()
	require.NoError(t, err)
	assert.Equal(t, tensor.LayoutNHWC, ts.Src.Descriptor().Layout())
	assert.Equal(t, tensor.LayoutOHWI, ts.Weights.Descriptor().Layout())
	assert.Equal(t, tensor.Float16, ts.Dst.Descriptor().DType())
	assert.Nil(t, ts.Bias)
}

func TestConfig_NewTensorsRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"kernel larger than input", func(c *Config) { c.KernelHeight = 9 }, tensor.ErrUnsupportedConfiguration},
		{"zero stride", func(c *Config) { c.Stride = 0 }, tensor.ErrUnsupportedConfiguration},
		{"weights layout as activation", func(c *Config) { c.Layout = tensor.LayoutOIHW }, tensor.ErrUnsupportedConfiguration},
		{"zero batch", func(c *Config) { c.Batch = 0 }, tensor.ErrInvalidShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallConfig()
			tt.mutate(&cfg)
			_, err := cfg.NewTensors()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
