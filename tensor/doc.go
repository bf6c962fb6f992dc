// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides tensor descriptors, memory buffers and the backend
// contract of the convolution benchmark.
//
// # Overview
//
// A Descriptor is an immutable (shape, element type, layout) triple. A Memory
// is storage sized for one concrete descriptor. Backends resolve convolution
// requests into primitives, reorder buffers between layouts and run
// convolutions.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/convbench/backend/cpu"
//	    "github.com/born-ml/convbench/tensor"
//	)
//
//	func main() {
//	    src, _ := tensor.NewMemory(tensor.MustDescriptor(tensor.Shape{1, 3, 8, 8}, tensor.Float32, tensor.LayoutNCHW))
//	    packed, _ := tensor.NewMemory(tensor.MustDescriptor(tensor.Shape{1, 3, 8, 8}, tensor.Float32, tensor.LayoutNChw8c))
//	    _ = cpu.New().Reorder(src, packed)
//	}
//
// # Layouts
//
// Rank-4 layouts index logical dimensions in the order (N, C, H, W) for
// activations and (O, I, H, W) for weights; only the physical placement
// differs:
//   - nchw, oihw: plain row-major
//   - nhwc, ohwi: channels innermost
//   - nChw8c, OIhw8i8o: channels blocked by 8, zero padded
//
// LayoutAny lets a backend pick and can't be allocated.
package tensor
