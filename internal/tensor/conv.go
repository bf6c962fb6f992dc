package tensor

import (
	"fmt"
	"strings"
)

// Algorithm is a convolution algorithm hint.
type Algorithm int

// Algorithm hints.
const (
	AlgorithmAuto Algorithm = iota
	AlgorithmDirect
	AlgorithmWinograd
)

// String returns the algorithm name.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmAuto:
		return "auto"
	case AlgorithmDirect:
		return "direct"
	case AlgorithmWinograd:
		return "winograd"
	default:
		return "unknown"
	}
}

// ParseAlgorithm parses "auto", "direct" or "winograd".
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return AlgorithmAuto, nil
	case "direct":
		return AlgorithmDirect, nil
	case "winograd":
		return AlgorithmWinograd, nil
	default:
		return AlgorithmAuto, fmt.Errorf("unknown algorithm %q", s)
	}
}

// ConvParams holds 2D convolution parameters. Pairs are (height, width).
type ConvParams struct {
	Stride    [2]int
	PadL      [2]int // top, left
	PadR      [2]int // bottom, right
	Algorithm Algorithm
}

// DefaultConvParams returns stride 1, no padding and the auto algorithm.
func DefaultConvParams() ConvParams {
	return ConvParams{Stride: [2]int{1, 1}}
}

// Validate rejects non-positive strides and negative padding.
func (p ConvParams) Validate() error {
	for i := 0; i < 2; i++ {
		if p.Stride[i] < 1 {
			return fmt.Errorf("%w: stride %v must be >= 1", ErrUnsupportedConfiguration, p.Stride)
		}
		if p.PadL[i] < 0 || p.PadR[i] < 0 {
			return fmt.Errorf("%w: negative padding l=%v r=%v", ErrUnsupportedConfiguration, p.PadL, p.PadR)
		}
	}
	if p.Algorithm < AlgorithmAuto || p.Algorithm > AlgorithmWinograd {
		return fmt.Errorf("%w: unknown algorithm %d", ErrUnsupportedConfiguration, int(p.Algorithm))
	}
	return nil
}

// OutputSize returns floor((in + padL + padR - kernel) / stride) + 1 for axis (0=h, 1=w).
// The result may be <= 0 for unrealizable configurations.
func (p ConvParams) OutputSize(axis, in, kernel int) int {
	span := in + p.PadL[axis] + p.PadR[axis] - kernel
	s := p.Stride[axis]
	if span < 0 {
		// floor division for negative spans
		return -((-span + s - 1) / s) + 1
	}
	return span/s + 1
}

// ConvOutputShape checks a convolution over src [N,C,H,W], weights [O,C,KH,KW]
// and an optional bias [O], and returns the destination shape [N,O,OH,OW].
//
// A bias of rank other than 1 is ErrInvalidShape; every other failure is
// ErrUnsupportedConfiguration.
func ConvOutputShape(src, weights, bias Descriptor, p ConvParams) (Shape, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if src.Rank() != 4 || weights.Rank() != 4 {
		return nil, fmt.Errorf("%w: src and weights must be rank 4, got %v and %v",
			ErrUnsupportedConfiguration, src.shape, weights.shape)
	}
	if src.DType() != weights.DType() {
		return nil, fmt.Errorf("%w: src %s and weights %s differ in type",
			ErrUnsupportedConfiguration, src.DType(), weights.DType())
	}

	n, c, h, w := src.shape.dims4()
	o, ci, kh, kw := weights.shape.dims4()
	if c != ci {
		return nil, fmt.Errorf("%w: input channels %d != weights input channels %d",
			ErrUnsupportedConfiguration, c, ci)
	}
	if !bias.IsZero() {
		if bias.Rank() != 1 {
			return nil, fmt.Errorf("%w: bias must be rank 1, got shape %v", ErrInvalidShape, bias.shape)
		}
		if bias.Dim(0) != o {
			return nil, fmt.Errorf("%w: bias shape %v, want [%d]", ErrUnsupportedConfiguration, bias.shape, o)
		}
		if bias.DType() != src.DType() {
			return nil, fmt.Errorf("%w: bias type %s, want %s", ErrUnsupportedConfiguration, bias.DType(), src.DType())
		}
	}

	oh := p.OutputSize(0, h, kh)
	ow := p.OutputSize(1, w, kw)
	if oh < 1 || ow < 1 {
		return nil, fmt.Errorf("%w: output spatial size %dx%d (input %dx%d, kernel %dx%d, stride %v, pad %v/%v)",
			ErrUnsupportedConfiguration, oh, ow, h, w, kh, kw, p.Stride, p.PadL, p.PadR)
	}
	return Shape{n, o, oh, ow}, nil
}

// ConvDesc is a convolution request. Descriptors may use LayoutAny to let
// the backend choose. A zero Bias means no bias.
type ConvDesc struct {
	Src     Descriptor
	Weights Descriptor
	Bias    Descriptor
	Dst     Descriptor
	Params  ConvParams
}

// ConvPrimitive is a convolution resolved by a backend: every descriptor is
// concrete and the algorithm is fixed.
type ConvPrimitive struct {
	Src       Descriptor
	Weights   Descriptor
	Bias      Descriptor
	Dst       Descriptor
	Params    ConvParams
	Algorithm Algorithm
}

// HasBias reports whether the primitive consumes a bias.
func (p *ConvPrimitive) HasBias() bool {
	return !p.Bias.IsZero()
}

// CheckBinding verifies that the buffers match the primitive's descriptors.
func (p *ConvPrimitive) CheckBinding(src, weights, bias, dst *Memory) error {
	check := func(role string, want Descriptor, m *Memory) error {
		if m == nil {
			return fmt.Errorf("%w: %s buffer is nil", ErrUnsupportedConfiguration, role)
		}
		if !m.Descriptor().Equal(want) {
			return fmt.Errorf("%w: %s buffer is %s, primitive expects %s",
				ErrUnsupportedConfiguration, role, m.Descriptor(), want)
		}
		return nil
	}
	if err := check("src", p.Src, src); err != nil {
		return err
	}
	if err := check("weights", p.Weights, weights); err != nil {
		return err
	}
	if err := check("dst", p.Dst, dst); err != nil {
		return err
	}
	if p.HasBias() {
		return check("bias", p.Bias, bias)
	}
	if bias != nil {
		return fmt.Errorf("%w: bias bound to a primitive without bias", ErrUnsupportedConfiguration)
	}
	return nil
}

// ResolveLayout returns requested if it is concrete, otherwise a descriptor
// with the same shape and type in the preferred layout.
func ResolveLayout(requested Descriptor, preferred Layout) (Descriptor, error) {
	if requested.Layout() != LayoutAny {
		return requested, nil
	}
	return requested.WithLayout(preferred)
}
