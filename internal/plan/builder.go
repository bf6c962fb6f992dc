package plan

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/born-ml/convbench/internal/tensor"
)

// Option configures Build.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	prepack bool
}

// WithLogger logs negotiation decisions at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPrepackedWeights reorders the weights once while building instead of
// adding the weights reorder to every pass.
func WithPrepackedWeights() Option {
	return func(o *options) {
		o.prepack = true
	}
}

// Build negotiates layouts with b and assembles the plan for one convolution.
//
// bias may be nil. The plan's Output is dst: either dst is reordered into at
// the end of every pass, or it aliases the backend's output buffer when the
// backend already produces the requested layout.
//
// Shape and parameter problems fail before anything is allocated or sent to
// the backend: a bias that is not rank 1 with ErrInvalidShape, everything
// else with ErrUnsupportedConfiguration.
func Build(b tensor.Backend, params tensor.ConvParams, src, weights, bias, dst *tensor.Memory, opts ...Option) (*Plan, error) {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	if src == nil || weights == nil || dst == nil {
		return nil, fmt.Errorf("%w: src, weights and dst buffers are required", tensor.ErrUnsupportedConfiguration)
	}
	var biasDesc tensor.Descriptor
	if bias != nil {
		biasDesc = bias.Descriptor()
	}

	dstShape, err := tensor.ConvOutputShape(src.Descriptor(), weights.Descriptor(), biasDesc, params)
	if err != nil {
		return nil, err
	}
	userDst := dst.Descriptor()
	if !userDst.Shape().Equal(dstShape) || userDst.DType() != src.Descriptor().DType() {
		return nil, fmt.Errorf("%w: destination is %s, convolution produces %s%v",
			tensor.ErrUnsupportedConfiguration, userDst, src.Descriptor().DType(), []int(dstShape))
	}

	req, err := anyRequest(src, weights, dst, biasDesc, params)
	if err != nil {
		return nil, err
	}
	prim, err := b.ResolveConvolution(req)
	if err != nil {
		if errors.Is(err, tensor.ErrUnsupportedConfiguration) {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		return nil, fmt.Errorf("%w: %s: %w", tensor.ErrUnsupportedConfiguration, b.Name(), err)
	}
	if !prim.Dst.Shape().Equal(dstShape) {
		return nil, fmt.Errorf("%w: %s resolved destination %s, want shape %v",
			tensor.ErrUnsupportedConfiguration, b.Name(), prim.Dst, dstShape)
	}
	o.logger.Debug("convolution resolved",
		"backend", b.Name(),
		"algorithm", prim.Algorithm.String(),
		"src", prim.Src.String(),
		"weights", prim.Weights.String(),
		"dst", prim.Dst.String())

	p := &Plan{Backend: b, Primitive: prim}

	convSrc, err := p.bindInput("src", src, prim.Src, o)
	if err != nil {
		return nil, err
	}

	var convWeights *tensor.Memory
	if o.prepack {
		convWeights, err = prepack(b, weights, prim.Weights, o)
	} else {
		convWeights, err = p.bindInput("weights", weights, prim.Weights, o)
	}
	if err != nil {
		return nil, err
	}

	convDst, err := tensor.NewMemory(prim.Dst)
	if err != nil {
		return nil, err
	}

	p.Steps = append(p.Steps, &Convolve{
		Primitive: prim,
		Src:       convSrc,
		Weights:   convWeights,
		Bias:      bias,
		Dst:       convDst,
	})

	d := Negotiate(userDst, prim.Dst)
	o.logger.Debug("negotiated", "role", "dst", "user", userDst.String(), "reorder", d.NeedsConversion())
	if d.NeedsConversion() {
		p.Steps = append(p.Steps, &Reorder{Src: convDst, Dst: dst})
	} else if err := dst.Share(convDst); err != nil {
		return nil, err
	}
	p.Output = dst

	return p, nil
}

// bindInput returns the buffer the convolution reads for one input role,
// appending a reorder step if the user layout is not the backend's.
func (p *Plan) bindInput(role string, user *tensor.Memory, preferred tensor.Descriptor, o options) (*tensor.Memory, error) {
	d := Negotiate(user.Descriptor(), preferred)
	o.logger.Debug("negotiated", "role", role, "user", user.Descriptor().String(),
		"backend", preferred.String(), "reorder", d.NeedsConversion())
	if !d.NeedsConversion() {
		return user, nil
	}

	converted, err := tensor.NewMemory(d.Target())
	if err != nil {
		return nil, err
	}
	p.Steps = append(p.Steps, &Reorder{Src: user, Dst: converted})
	return converted, nil
}

// prepack converts the weights once, outside the plan.
func prepack(b tensor.Backend, weights *tensor.Memory, preferred tensor.Descriptor, o options) (*tensor.Memory, error) {
	d := Negotiate(weights.Descriptor(), preferred)
	o.logger.Debug("negotiated", "role", "weights", "user", weights.Descriptor().String(),
		"backend", preferred.String(), "reorder", d.NeedsConversion(), "prepacked", true)
	if !d.NeedsConversion() {
		return weights, nil
	}

	packed, err := tensor.NewMemory(d.Target())
	if err != nil {
		return nil, err
	}
	if err := b.Reorder(weights, packed); err != nil {
		return nil, fmt.Errorf("%w: prepacking weights: %w", tensor.ErrBackendExecution, err)
	}
	if err := b.Wait(); err != nil {
		return nil, fmt.Errorf("%w: prepacking weights: %w", tensor.ErrBackendExecution, err)
	}
	return packed, nil
}

// anyRequest builds a convolution request that leaves every layout except
// the bias to the backend.
func anyRequest(src, weights, dst *tensor.Memory, bias tensor.Descriptor, params tensor.ConvParams) (tensor.ConvDesc, error) {
	s, err := src.Descriptor().WithLayout(tensor.LayoutAny)
	if err != nil {
		return tensor.ConvDesc{}, err
	}
	w, err := weights.Descriptor().WithLayout(tensor.LayoutAny)
	if err != nil {
		return tensor.ConvDesc{}, err
	}
	d, err := dst.Descriptor().WithLayout(tensor.LayoutAny)
	if err != nil {
		return tensor.ConvDesc{}, err
	}
	return tensor.ConvDesc{Src: s, Weights: w, Bias: bias, Dst: d, Params: params}, nil
}
