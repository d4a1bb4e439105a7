package cpu

import (
	"github.com/primer-ml/primer/internal/tensor"
)

// unaryDst picks the output buffer for an element-wise unary op: x itself
// when it holds the only buffer reference, a fresh tensor otherwise.
func (c *Backend) unaryDst(op string, x *tensor.RawTensor) *tensor.RawTensor {
	if x.IsUnique() {
		return x
	}
	return mustRaw(op, x.Shape(), x.DType(), c.device)
}

// unaryEval applies f to every element. dst may alias src.
func unaryEval[T tensor.DType](dst, src *tensor.RawTensor, f func(T) T) {
	d, s := view[T](dst), view[T](src)
	for i := range d {
		d[i] = f(s[i])
	}
}

// AddScalar adds a scalar to every element. The scalar is truncated for
// integer tensors.
func (c *Backend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	out := c.unaryDst("add_scalar", x)
	switch x.DType() {
	case tensor.Float32:
		s := float32(scalar)
		unaryEval(out, x, func(v float32) float32 { return v + s })
	case tensor.Float64:
		unaryEval(out, x, func(v float64) float64 { return v + scalar })
	case tensor.Int32:
		s := int32(scalar)
		unaryEval(out, x, func(v int32) int32 { return v + s })
	case tensor.Int64:
		s := int64(scalar)
		unaryEval(out, x, func(v int64) int64 { return v + s })
	}
	return out
}

// MulScalar multiplies every element by a scalar. The scalar is truncated
// for integer tensors.
func (c *Backend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	out := c.unaryDst("mul_scalar", x)
	switch x.DType() {
	case tensor.Float32:
		s := float32(scalar)
		unaryEval(out, x, func(v float32) float32 { return v * s })
	case tensor.Float64:
		unaryEval(out, x, func(v float64) float64 { return v * scalar })
	case tensor.Int32:
		s := int32(scalar)
		unaryEval(out, x, func(v int32) int32 { return v * s })
	case tensor.Int64:
		s := int64(scalar)
		unaryEval(out, x, func(v int64) int64 { return v * s })
	}
	return out
}
