// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/convbench/internal/backend/cpu"
	"github.com/born-ml/convbench/internal/parallel"
	"github.com/born-ml/convbench/tensor"
)

// Backend represents the CPU backend implementation.
//
// It is the reference backend: every call runs synchronously on the host.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend using all available cores.
//
// Example:
//
//	import (
//	    "github.com/born-ml/convbench/backend/cpu"
//	    "github.com/born-ml/convbench/bench"
//	)
//
//	func main() {
//	    res, err := bench.Benchmark(cpu.New(), bench.DefaultConfig(), nil)
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewSequential creates a CPU backend that runs every kernel on the calling
// goroutine.
func NewSequential() *Backend {
	return internalcpu.NewWithConfig(parallel.Sequential())
}
