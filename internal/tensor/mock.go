package tensor

import "fmt"

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a simple backend for testing.
// It prefers configurable layouts, counts every call, and computes
// convolutions naively for correctness checks.
type MockBackend struct {
	SrcLayout     Layout
	WeightsLayout Layout
	DstLayout     Layout

	// Fail makes the named call ("resolve", "reorder", "convolve", "wait") fail.
	Fail string

	Resolves     int
	Reorders     int
	Convolutions int
	Waits        int
}

// NewMockBackend creates a MockBackend preferring plain NCHW/OIHW layouts.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		SrcLayout:     LayoutNCHW,
		WeightsLayout: LayoutOIHW,
		DstLayout:     LayoutNCHW,
	}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return CPU
}

// ResolveConvolution resolves LayoutAny descriptors to the configured layouts.
func (m *MockBackend) ResolveConvolution(desc ConvDesc) (*ConvPrimitive, error) {
	m.Resolves++
	if m.Fail == "resolve" {
		return nil, fmt.Errorf("%w: mock resolve failure", ErrUnsupportedConfiguration)
	}
	outShape, err := ConvOutputShape(desc.Src, desc.Weights, desc.Bias, desc.Params)
	if err != nil {
		return nil, err
	}
	requestedDst := desc.Dst
	if requestedDst.IsZero() {
		if requestedDst, err = NewDescriptor(outShape, desc.Src.DType(), LayoutAny); err != nil {
			return nil, err
		}
	}

	src, err := ResolveLayout(desc.Src, m.SrcLayout)
	if err != nil {
		return nil, err
	}
	weights, err := ResolveLayout(desc.Weights, m.WeightsLayout)
	if err != nil {
		return nil, err
	}
	dst, err := ResolveLayout(requestedDst, m.DstLayout)
	if err != nil {
		return nil, err
	}

	algo := desc.Params.Algorithm
	if algo == AlgorithmAuto {
		algo = AlgorithmDirect
	}
	return &ConvPrimitive{
		Src:       src,
		Weights:   weights,
		Bias:      desc.Bias,
		Dst:       dst,
		Params:    desc.Params,
		Algorithm: algo,
	}, nil
}

// Reorder copies src into dst.
func (m *MockBackend) Reorder(src, dst *Memory) error {
	m.Reorders++
	if m.Fail == "reorder" {
		return fmt.Errorf("%w: mock reorder failure", ErrBackendExecution)
	}
	return Reorder(src, dst)
}

// Convolve computes the convolution with a naive direct loop.
func (m *MockBackend) Convolve(prim *ConvPrimitive, src, weights, bias, dst *Memory) error {
	m.Convolutions++
	if m.Fail == "convolve" {
		return fmt.Errorf("%w: mock convolve failure", ErrBackendExecution)
	}
	if err := prim.CheckBinding(src, weights, bias, dst); err != nil {
		return err
	}

	sd, wd, dd := prim.Src, prim.Weights, prim.Dst
	n, c, h, w := sd.shape.dims4()
	o, _, kh, kw := wd.shape.dims4()
	oh, ow := dd.Dim(2), dd.Dim(3)
	p := prim.Params

	for in := 0; in < n; in++ {
		for oc := 0; oc < o; oc++ {
			for y := 0; y < oh; y++ {
				for x := 0; x < ow; x++ {
					sum := 0.0
					if bias != nil {
						sum = bias.At(oc)
					}
					for ic := 0; ic < c; ic++ {
						for ky := 0; ky < kh; ky++ {
							iy := y*p.Stride[0] - p.PadL[0] + ky
							if iy < 0 || iy >= h {
								continue
							}
							for kx := 0; kx < kw; kx++ {
								ix := x*p.Stride[1] - p.PadL[1] + kx
								if ix < 0 || ix >= w {
									continue
								}
								sum += src.At(sd.Offset(in, ic, iy, ix)) * weights.At(wd.Offset(oc, ic, ky, kx))
							}
						}
					}
					dst.Set(dd.Offset(in, oc, y, x), sum)
				}
			}
		}
	}
	return nil
}

// Wait counts the call; the mock runs synchronously.
func (m *MockBackend) Wait() error {
	m.Waits++
	if m.Fail == "wait" {
		return fmt.Errorf("%w: mock wait failure", ErrBackendExecution)
	}
	return nil
}
