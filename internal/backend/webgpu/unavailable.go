//go:build !windows

package webgpu

import (
	"fmt"

	"github.com/born-ml/convbench/internal/tensor"
)

// Verify that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// errUnavailable is returned by every entry point on this platform.
var errUnavailable = fmt.Errorf("%w: webgpu: not supported on this platform", tensor.ErrBackendUnavailable)

// Backend is a placeholder on platforms without the WebGPU bindings.
// New never returns one.
type Backend struct{}

// New always fails on this platform.
func New() (*Backend, error) {
	return nil, errUnavailable
}

// IsAvailable reports false on this platform.
func IsAvailable() bool {
	return false
}

// Release is a no-op.
func (b *Backend) Release() {}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "WebGPU"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// ResolveConvolution validates the request like the real backend would.
func (b *Backend) ResolveConvolution(desc tensor.ConvDesc) (*tensor.ConvPrimitive, error) {
	return resolveConvolution(desc)
}

// Reorder fails on this platform.
func (b *Backend) Reorder(_, _ *tensor.Memory) error {
	return errUnavailable
}

// Convolve fails on this platform.
func (b *Backend) Convolve(_ *tensor.ConvPrimitive, _, _, _, _ *tensor.Memory) error {
	return errUnavailable
}

// Wait fails on this platform.
func (b *Backend) Wait() error {
	return errUnavailable
}
