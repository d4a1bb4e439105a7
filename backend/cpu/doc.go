// Copyright 2025 Primer ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend for tensor operations.
//
// # Overview
//
// The backend implements every kernel in plain Go, no CGO:
//   - Im2col matrix multiplication for convolutions
//   - A worker pool that splits the hot loops across cores
//   - Forward and backward kernels side by side, so wrapping the
//     backend with autodiff is all training needs
//
// # Basic Usage
//
//	import (
//	    "github.com/primer-ml/primer/backend/cpu"
//	    "github.com/primer-ml/primer/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//	    _ = z
//	}
package cpu
