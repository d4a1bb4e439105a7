// Copyright 2025 Primer ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// The package wraps any tensor backend with a decorator that records
// operations on a gradient tape, then replays the tape backwards to
// compute gradients.
//
// Example:
//
//	import (
//	    "github.com/primer-ml/primer/autodiff"
//	    "github.com/primer-ml/primer/backend/cpu"
//	    "github.com/primer-ml/primer/tensor"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//	    backend.GetTape().StartRecording()
//
//	    x := tensor.Ones[float32](tensor.Shape{2, 2}, backend)
//	    y := x.Mul(x)
//
//	    grads := autodiff.Backward(y, backend)
//	    _ = grads[x.Raw()] // dy/dx
//	}
package autodiff

import (
	"github.com/primer-ml/primer/internal/autodiff"
	"github.com/primer-ml/primer/internal/tensor"
)

// Backend is the autodiff decorator around a compute backend.
type Backend[B tensor.Backend] = autodiff.Backend[B]

// New wraps a backend with gradient recording.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// Tape records operations for the reverse pass.
type Tape = autodiff.Tape

// NewTape creates an empty gradient tape.
func NewTape() *Tape {
	return autodiff.NewTape()
}

// BackwardCapable is the constraint for backends that can run a
// backward pass: a tensor backend exposing its tape.
type BackwardCapable = autodiff.BackwardCapable

// Backward runs backpropagation from t and returns the gradient of
// every tensor the tape touched, keyed by raw tensor.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}
