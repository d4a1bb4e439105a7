package cpu

import (
	"fmt"

	"github.com/primer-ml/primer/internal/parallel"
	"github.com/primer-ml/primer/internal/tensor"
)

// MatMul multiplies two 2D tensors: (M, K) @ (K, N) -> (M, N).
// Rows of the result are computed independently, so the outer loop is
// split across the worker pool.
func (c *Backend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: need 2D tensors, got %dD and %dD", len(aShape), len(bShape)))
	}

	m, k := aShape[0], aShape[1]
	if bShape[0] != k {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, bShape[0], bShape[1]))
	}
	n := bShape[1]

	out := mustRaw("matmul", tensor.Shape{m, n}, a.DType(), c.device)

	switch a.DType() {
	case tensor.Float32:
		matmulEval[float32](out, a, b, m, k, n, c.pool)
	case tensor.Float64:
		matmulEval[float64](out, a, b, m, k, n, c.pool)
	case tensor.Int32:
		matmulEval[int32](out, a, b, m, k, n, c.pool)
	case tensor.Int64:
		matmulEval[int64](out, a, b, m, k, n, c.pool)
	}
	return out
}

// matmulEval uses the i-k-j loop order so the inner loop walks both the
// output row and the b row contiguously.
func matmulEval[T tensor.DType](out, a, b *tensor.RawTensor, m, k, n int, pool parallel.Config) {
	dst, x, y := view[T](out), view[T](a), view[T](b)

	parallel.For(m, func(i int) {
		outRow := dst[i*n : (i+1)*n]
		for p, xv := range x[i*k : (i+1)*k] {
			if xv == 0 {
				continue
			}
			yRow := y[p*n : (p+1)*n]
			for j, yv := range yRow {
				outRow[j] += xv * yv
			}
		}
	}, pool)
}
