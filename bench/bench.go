// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package bench times one convolution on a backend.
//
// Example:
//
//	import (
//	    "fmt"
//
//	    "github.com/born-ml/convbench/backend/cpu"
//	    "github.com/born-ml/convbench/bench"
//	)
//
//	func main() {
//	    cfg := bench.DefaultConfig()
//	    cfg.Iterations = 10
//	    res, err := bench.Benchmark(cpu.New(), cfg, nil)
//	    if err != nil {
//	        panic(err)
//	    }
//	    fmt.Println(res) // Use time: ... ms per iteration.
//	}
package bench

import (
	"log/slog"

	"github.com/born-ml/convbench/internal/bench"
	"github.com/born-ml/convbench/tensor"
)

// Config describes one benchmark: problem size, parameters and user layouts.
type Config = bench.Config

// Result is the measurement of one run.
type Result = bench.Result

// DefaultConfig returns a 3x3 convolution from 48 to 64 channels over a
// 480x270 image, timed over 100 passes.
func DefaultConfig() Config {
	return bench.DefaultConfig()
}

// WeightsLayoutFor returns the weights layout paired with activation layout l
// (nchw, nhwc or nchw8c), or ErrUnsupportedConfiguration.
func WeightsLayoutFor(l tensor.Layout) (tensor.Layout, error) {
	return bench.WeightsLayoutFor(l)
}

// Benchmark allocates the buffers described by cfg, builds the plan on b and
// times cfg.Iterations passes. A nil logger discards output.
func Benchmark(b tensor.Backend, cfg Config, logger *slog.Logger) (Result, error) {
	return bench.Benchmark(b, cfg, logger)
}
