package bench

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/convbench/internal/tensor"
)

// Config describes one benchmark: problem size, parameters and user layouts.
type Config struct {
	Batch, InChannels, InHeight, InWidth   int
	OutChannels, KernelHeight, KernelWidth int
	Stride, Padding                        int

	Algorithm tensor.Algorithm
	DType     tensor.DataType
	Layout    tensor.Layout // user layout for src/dst; weights use the matching weights layout
	Bias      bool

	Iterations     int
	PrepackWeights bool
	Seed           uint64
}

// DefaultConfig returns the stock problem: a 3x3 convolution from 48 to 64
// channels over a 480x270 image, timed over 100 passes.
func DefaultConfig() Config {
	return Config{
		Batch:        1,
		InChannels:   48,
		InHeight:     480,
		InWidth:      270,
		OutChannels:  64,
		KernelHeight: 3,
		KernelWidth:  3,
		Stride:       1,
		Padding:      0,
		Algorithm:    tensor.AlgorithmAuto,
		DType:        tensor.Float32,
		Layout:       tensor.LayoutNCHW,
		Bias:         true,
		Iterations:   100,
		Seed:         1,
	}
}

// Params returns the convolution parameters (symmetric padding).
func (c Config) Params() tensor.ConvParams {
	return tensor.ConvParams{
		Stride:    [2]int{c.Stride, c.Stride},
		PadL:      [2]int{c.Padding, c.Padding},
		PadR:      [2]int{c.Padding, c.Padding},
		Algorithm: c.Algorithm,
	}
}

// Tensors is the set of user buffers for one benchmark.
type Tensors struct {
	Src, Weights, Bias, Dst *tensor.Memory
}

// NewTensors allocates the user buffers described by c and fills src,
// weights and bias with uniform values in [-1, 1).
func (c Config) NewTensors() (*Tensors, error) {
	weightsLayout, err := WeightsLayoutFor(c.Layout)
	if err != nil {
		return nil, err
	}

	p := c.Params()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	oh := p.OutputSize(0, c.InHeight, c.KernelHeight)
	ow := p.OutputSize(1, c.InWidth, c.KernelWidth)
	if oh < 1 || ow < 1 {
		return nil, fmt.Errorf("%w: output spatial size %dx%d", tensor.ErrUnsupportedConfiguration, oh, ow)
	}

	rng := rand.New(rand.NewPCG(c.Seed, c.Seed^0x9e3779b97f4a7c15))
	alloc := func(shape tensor.Shape, layout tensor.Layout, fill bool) (*tensor.Memory, error) {
		d, err := tensor.NewDescriptor(shape, c.DType, layout)
		if err != nil {
			return nil, err
		}
		m, err := tensor.NewMemory(d)
		if err != nil {
			return nil, err
		}
		if fill {
			values := make([]float32, d.NumElements())
			for i := range values {
				values[i] = rng.Float32()*2 - 1
			}
			if err := m.FillFloat32(values); err != nil {
				return nil, err
			}
		}
		return m, nil
	}

	var t Tensors
	if t.Src, err = alloc(tensor.Shape{c.Batch, c.InChannels, c.InHeight, c.InWidth}, c.Layout, true); err != nil {
		return nil, fmt.Errorf("src: %w", err)
	}
	if t.Weights, err = alloc(tensor.Shape{c.OutChannels, c.InChannels, c.KernelHeight, c.KernelWidth}, weightsLayout, true); err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}
	if c.Bias {
		if t.Bias, err = alloc(tensor.Shape{c.OutChannels}, tensor.LayoutX, true); err != nil {
			return nil, fmt.Errorf("bias: %w", err)
		}
	}
	if t.Dst, err = alloc(tensor.Shape{c.Batch, c.OutChannels, oh, ow}, c.Layout, false); err != nil {
		return nil, fmt.Errorf("dst: %w", err)
	}
	return &t, nil
}

// WeightsLayoutFor pairs an activation layout with its weights layout. Any
// other layout fails with ErrUnsupportedConfiguration.
func WeightsLayoutFor(l tensor.Layout) (tensor.Layout, error) {
	switch l {
	case tensor.LayoutNCHW:
		return tensor.LayoutOIHW, nil
	case tensor.LayoutNHWC:
		return tensor.LayoutOHWI, nil
	case tensor.LayoutNChw8c:
		return tensor.LayoutOIhw8i8o, nil
	default:
		return tensor.LayoutAny, fmt.Errorf("%w: %s is not an activation layout", tensor.ErrUnsupportedConfiguration, l)
	}
}
