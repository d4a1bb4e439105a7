// Copyright 2025 Primer ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for the Primer ML
// framework.
//
// # Overview
//
// Tensors are the fundamental data structure in Primer. This package
// provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting
//   - Copy-on-write buffers shared across views
//   - A Backend interface the CPU kernels implement
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
//
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	    z := x.Add(y)
//	    result := x.MatMul(y.T())
//	}
//
// # Supported Data Types
//
// The DType constraint covers the types the lessons need:
//   - float32, float64 (model parameters, activations)
//   - int32, int64 (labels, token ids)
//
// # Broadcasting
//
// Element-wise operations follow NumPy broadcasting rules:
//
//	a := tensor.Zeros[float32](tensor.Shape{3, 1}, backend) // (3, 1)
//	b := tensor.Ones[float32](tensor.Shape{3, 4}, backend)  // (3, 4)
//	c := a.Add(b)                                           // (3, 4)
//
// # Training
//
// Wrapping a backend with autodiff.New records every operation on a
// gradient tape, making the same tensor API differentiable:
//
//	backend := autodiff.New(cpu.New())
//	backend.GetTape().StartRecording()
//	loss := criterion.Forward(model.Forward(x), labels)
//	autodiff.Backward(loss, backend)
package tensor
