package webgpu

import "github.com/born-ml/convbench/internal/tensor"

// pendingReads is the set of host buffers whose device copy holds a result
// that has not been read back yet. A buffer written by several passes is
// read once, in the order it was first added.
type pendingReads struct {
	order []*tensor.Memory
	seen  map[*tensor.Memory]struct{}
}

// add marks dst as waiting for a read-back.
func (p *pendingReads) add(dst *tensor.Memory) {
	if p.seen == nil {
		p.seen = make(map[*tensor.Memory]struct{})
	}
	if _, ok := p.seen[dst]; ok {
		return
	}
	p.seen[dst] = struct{}{}
	p.order = append(p.order, dst)
}

// size returns the number of distinct buffers waiting.
func (p *pendingReads) size() int {
	return len(p.order)
}

// drain returns the waiting buffers and empties the set.
func (p *pendingReads) drain() []*tensor.Memory {
	out := p.order
	p.order = nil
	clear(p.seen)
	return out
}
