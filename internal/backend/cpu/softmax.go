package cpu

import (
	"fmt"
	"math"

	"github.com/primer-ml/primer/internal/tensor"
)

// Softmax normalizes values along dim into a probability distribution:
// softmax(x)_i = exp(x_i - max(x)) / sum_j exp(x_j - max(x)).
// The max subtraction keeps exp from overflowing for large logits.
func (c *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("softmax: dim %d out of range for shape %v", dim, shape))
	}

	out := mustRaw("softmax", shape, x.DType(), c.device)

	switch x.DType() {
	case tensor.Float32:
		softmaxEval[float32](out, x, dim)
	case tensor.Float64:
		softmaxEval[float64](out, x, dim)
	default:
		panic(fmt.Sprintf("softmax: unsupported dtype %s", x.DType()))
	}
	return out
}

func softmaxEval[T tensor.DType](out, x *tensor.RawTensor, dim int) {
	dst, src := view[T](out), view[T](x)
	outer, size, inner := lineDims(x.Shape(), dim)

	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*size*inner + i

			maxVal := src[base]
			for k := 1; k < size; k++ {
				if v := src[base+k*inner]; v > maxVal {
					maxVal = v
				}
			}

			var sum float64
			for k := 0; k < size; k++ {
				e := math.Exp(float64(src[base+k*inner] - maxVal))
				dst[base+k*inner] = T(e)
				sum += e
			}

			inv := T(1.0 / sum)
			for k := 0; k < size; k++ {
				dst[base+k*inner] *= inv
			}
		}
	}
}

// lineDims splits a shape at dim into (outer, size, inner) loop bounds.
// Elements of one line along dim sit inner apart in flat memory.
func lineDims(shape tensor.Shape, dim int) (outer, size, inner int) {
	outer, inner = 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, shape[dim], inner
}
