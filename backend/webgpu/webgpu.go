// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the accelerated backend on WebGPU compute shaders.
//
// The native bindings are available on Windows. On other platforms New
// returns an error wrapping tensor.ErrBackendUnavailable.
//
// Example:
//
//	import (
//	    "github.com/born-ml/convbench/backend/cpu"
//	    "github.com/born-ml/convbench/backend/webgpu"
//	    "github.com/born-ml/convbench/tensor"
//	)
//
//	func main() {
//	    var backend tensor.Backend = cpu.New()
//	    if gpu, err := webgpu.New(); err == nil {
//	        defer gpu.Release()
//	        backend = gpu
//	    }
//	}
package webgpu

import (
	internalwebgpu "github.com/born-ml/convbench/internal/backend/webgpu"
	"github.com/born-ml/convbench/tensor"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new WebGPU backend.
//
// Call Release() when done to free GPU resources.
// Returns an error if WebGPU initialization fails (e.g., no compatible GPU).
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
