// Copyright 2025 Primer ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/primer-ml/primer/internal/backend/cpu"
	"github.com/primer-ml/primer/internal/parallel"
	"github.com/primer-ml/primer/tensor"
)

// Backend is the CPU backend implementation.
type Backend = internalcpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// PoolConfig controls how the backend splits kernel loops across
// goroutines.
type PoolConfig = parallel.Config

// New creates a CPU backend with a worker pool sized from the CPU count.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
func New() *Backend {
	return internalcpu.New()
}

// NewWithPool creates a CPU backend with an explicit worker pool
// configuration, for benchmarks and tests that want single-threaded
// kernels.
func NewWithPool(pool PoolConfig) *Backend {
	return internalcpu.NewWithPool(pool)
}
