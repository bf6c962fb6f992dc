// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go reference backend.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Im2col algorithm for plain nchw/oihw float32 convolutions
//   - A blocked kernel for nChw8c/OIhw8i8o float32 convolutions
//   - A layout-generic direct kernel for every other layout and float16/float64
//
// # Layout choice
//
// With the auto hint the backend prefers the packed layouts when both channel
// counts are multiples of 8 and the plain ones otherwise. The direct hint
// always selects plain layouts; the winograd hint selects the packed ones and
// accepts only float32 3x3 kernels with unit stride.
package cpu
