package plan

import "github.com/born-ml/convbench/internal/tensor"

// Decision is the outcome of negotiating one tensor role.
type Decision struct {
	target  tensor.Descriptor
	convert bool
}

// NeedsConversion reports whether the user buffer must be reordered.
func (d Decision) NeedsConversion() bool {
	return d.convert
}

// Target returns the descriptor to convert to. It is the zero Descriptor
// when no conversion is needed.
func (d Decision) Target() tensor.Descriptor {
	return d.target
}

// Negotiate decides whether a buffer described by user can be consumed
// directly by a backend that prefers preferred.
func Negotiate(user, preferred tensor.Descriptor) Decision {
	if user.Equal(preferred) {
		return Decision{}
	}
	return Decision{target: preferred, convert: true}
}
