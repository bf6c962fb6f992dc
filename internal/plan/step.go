// Package plan negotiates memory layouts with a backend and assembles the
// ordered list of steps that make up one convolution pass.
package plan

import (
	"fmt"

	"github.com/born-ml/convbench/internal/tensor"
)

// Step is one execution step of a plan: a *Reorder or a *Convolve.
type Step interface {
	// Kind returns "reorder" or "convolve".
	Kind() string
	String() string
	step()
}

// Reorder copies Src into Dst in Dst's layout.
type Reorder struct {
	Src *tensor.Memory
	Dst *tensor.Memory
}

// Convolve runs the resolved primitive. Bias is nil when the primitive has none.
type Convolve struct {
	Primitive *tensor.ConvPrimitive
	Src       *tensor.Memory
	Weights   *tensor.Memory
	Bias      *tensor.Memory
	Dst       *tensor.Memory
}

func (*Reorder) step()  {}
func (*Convolve) step() {}

// Kind returns "reorder".
func (*Reorder) Kind() string { return "reorder" }

// Kind returns "convolve".
func (*Convolve) Kind() string { return "convolve" }

func (r *Reorder) String() string {
	return fmt.Sprintf("reorder %s -> %s", r.Src.Descriptor(), r.Dst.Descriptor())
}

func (c *Convolve) String() string {
	p := c.Primitive
	bias := "none"
	if c.Bias != nil {
		bias = c.Bias.Descriptor().String()
	}
	return fmt.Sprintf("convolve[%s stride=%v pad=%v/%v] src=%s weights=%s bias=%s dst=%s",
		p.Algorithm, p.Params.Stride, p.Params.PadL, p.Params.PadR,
		c.Src.Descriptor(), c.Weights.Descriptor(), bias, c.Dst.Descriptor())
}
