package cpu

import (
	"fmt"

	"github.com/primer-ml/primer/internal/tensor"
)

// Sum reduces all elements to a single-element tensor of shape [1].
func (c *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	out := mustRaw("sum", tensor.Shape{1}, x.DType(), c.device)

	switch x.DType() {
	case tensor.Float32:
		sumAll[float32](out, x)
	case tensor.Float64:
		sumAll[float64](out, x)
	case tensor.Int32:
		sumAll[int32](out, x)
	case tensor.Int64:
		sumAll[int64](out, x)
	}
	return out
}

func sumAll[T tensor.DType](out, x *tensor.RawTensor) {
	var sum T
	for _, v := range view[T](x) {
		sum += v
	}
	view[T](out)[0] = sum
}

// SumDim sums along dim. With keepDim the reduced dimension stays as
// size 1, otherwise it is removed from the shape. Negative dims count
// from the end.
func (c *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	if dim < 0 {
		dim += len(x.Shape())
	}
	out := c.reduceDst("sum_dim", x, dim, keepDim, x.DType())

	switch x.DType() {
	case tensor.Float32:
		sumDimEval[float32](out, x, dim)
	case tensor.Float64:
		sumDimEval[float64](out, x, dim)
	case tensor.Int32:
		sumDimEval[int32](out, x, dim)
	case tensor.Int64:
		sumDimEval[int64](out, x, dim)
	}
	return out
}

func sumDimEval[T tensor.DType](out, x *tensor.RawTensor, dim int) {
	dst, src := view[T](out), view[T](x)
	outer, size, inner := lineDims(x.Shape(), dim)

	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*size*inner + i
			var sum T
			for k := 0; k < size; k++ {
				sum += src[base+k*inner]
			}
			dst[o*inner+i] = sum
		}
	}
}

// MeanDim averages along dim. Float tensors only.
func (c *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	if !x.DType().IsFloat() {
		panic(fmt.Sprintf("mean_dim: unsupported dtype %s", x.DType()))
	}
	if dim < 0 {
		dim += len(x.Shape())
	}

	out := c.SumDim(x, dim, keepDim)
	size := x.Shape()[dim]

	// SumDim's result is private to us, so dividing in place is safe.
	switch x.DType() {
	case tensor.Float32:
		inv := float32(1) / float32(size)
		data := view[float32](out)
		for i := range data {
			data[i] *= inv
		}
	case tensor.Float64:
		inv := float64(1) / float64(size)
		data := view[float64](out)
		for i := range data {
			data[i] *= inv
		}
	}
	return out
}

// Argmax returns the index of the maximum along dim as an Int32 tensor.
// The reduced dimension is removed from the shape.
func (c *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if dim < 0 {
		dim += len(x.Shape())
	}
	out := c.reduceDst("argmax", x, dim, false, tensor.Int32)

	switch x.DType() {
	case tensor.Float32:
		argmaxEval[float32](out, x, dim)
	case tensor.Float64:
		argmaxEval[float64](out, x, dim)
	case tensor.Int32:
		argmaxEval[int32](out, x, dim)
	case tensor.Int64:
		argmaxEval[int64](out, x, dim)
	}
	return out
}

func argmaxEval[T tensor.DType](out, x *tensor.RawTensor, dim int) {
	dst, src := view[int32](out), view[T](x)
	outer, size, inner := lineDims(x.Shape(), dim)

	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*size*inner + i

			best := int32(0)
			bestVal := src[base]
			for k := 1; k < size; k++ {
				if v := src[base+k*inner]; v > bestVal {
					bestVal = v
					best = int32(k)
				}
			}
			dst[o*inner+i] = best
		}
	}
}

// reduceDst allocates the output tensor for a reduction along dim.
func (c *Backend) reduceDst(op string, x *tensor.RawTensor, dim int, keepDim bool, dtype tensor.DataType) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("%s: dim %d out of range for shape %v", op, dim, shape))
	}

	outShape := make(tensor.Shape, 0, len(shape))
	for i, d := range shape {
		switch {
		case i != dim:
			outShape = append(outShape, d)
		case keepDim:
			outShape = append(outShape, 1)
		}
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}
	return mustRaw(op, outShape, dtype, c.device)
}
