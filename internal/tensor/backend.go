package tensor

// Backend is the compute backend contract the harness drives.
//
// Implementations:
//   - CPU: pure Go reference kernels (internal/backend/cpu)
//   - WebGPU: WGSL compute shaders via go-webgpu (internal/backend/webgpu)
type Backend interface {
	// ResolveConvolution turns a request whose descriptors may use LayoutAny
	// into a primitive with concrete layouts. It fails with
	// ErrUnsupportedConfiguration if the backend can't realize the request.
	ResolveConvolution(desc ConvDesc) (*ConvPrimitive, error)

	// Reorder copies src into dst, converting the layout.
	Reorder(src, dst *Memory) error

	// Convolve runs prim on the bound buffers. bias is nil when prim has no bias.
	// Execution may be asynchronous; results are only guaranteed after Wait.
	Convolve(prim *ConvPrimitive, src, weights, bias, dst *Memory) error

	// Wait blocks until all queued work has finished.
	Wait() error

	// Metadata
	Name() string
	Device() Device
}
