// Copyright 2025 Primer ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/primer-ml/primer/internal/tensor"

// Backend is the compute interface every backend implements. Backends
// operate on RawTensor so the generic Tensor layer stays type-only.
//
// Implementations:
//   - backend/cpu: pure Go kernels with a worker pool for the hot loops
//   - autodiff: decorator that wraps any backend and records a tape
//
// Example:
//
//	import (
//	    "github.com/primer-ml/primer/backend/cpu"
//	    "github.com/primer-ml/primer/tensor"
//	)
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y) // dispatches to backend.Add
type Backend = tensor.Backend
