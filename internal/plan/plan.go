package plan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/born-ml/convbench/internal/tensor"
)

// Plan is an ordered list of steps bound to one backend.
// Steps run in append order; data dependencies follow from that order.
type Plan struct {
	Backend   tensor.Backend
	Steps     []Step
	Primitive *tensor.ConvPrimitive

	// Output holds the result in the user's requested layout after a pass.
	Output *tensor.Memory
}

// Len returns the number of steps.
func (p *Plan) Len() int {
	return len(p.Steps)
}

// Execute runs every step once, in order. It does not wait for the backend.
func (p *Plan) Execute() error {
	if len(p.Steps) == 0 {
		return tensor.ErrEmptyPlan
	}
	for i, s := range p.Steps {
		var err error
		switch s := s.(type) {
		case *Reorder:
			err = p.Backend.Reorder(s.Src, s.Dst)
		case *Convolve:
			err = p.Backend.Convolve(s.Primitive, s.Src, s.Weights, s.Bias, s.Dst)
		default:
			panic(fmt.Sprintf("plan: unknown step type %T", s))
		}
		if err != nil {
			return wrapStepError(i, s, err)
		}
	}
	return nil
}

// Describe returns one line per step.
func (p *Plan) Describe() string {
	var sb strings.Builder
	for i, s := range p.Steps {
		fmt.Fprintf(&sb, "%d: %s\n", i, s)
	}
	return sb.String()
}

// Kinds returns the kind of every step, in order.
func (p *Plan) Kinds() []string {
	kinds := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		kinds[i] = s.Kind()
	}
	return kinds
}

func wrapStepError(i int, s Step, err error) error {
	if errors.Is(err, tensor.ErrBackendExecution) ||
		errors.Is(err, tensor.ErrUnsupportedConfiguration) ||
		errors.Is(err, tensor.ErrInvalidShape) {
		return fmt.Errorf("step %d (%s): %w", i, s.Kind(), err)
	}
	return fmt.Errorf("%w: step %d (%s): %w", tensor.ErrBackendExecution, i, s.Kind(), err)
}
