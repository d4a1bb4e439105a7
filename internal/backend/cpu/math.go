package cpu

import (
	"fmt"
	"math"

	"github.com/primer-ml/primer/internal/tensor"
)

// Exp applies e^x element-wise. Float tensors only.
func (c *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	out := c.unaryDst("exp", x)
	switch x.DType() {
	case tensor.Float32:
		unaryEval(out, x, func(v float32) float32 { return float32(math.Exp(float64(v))) })
	case tensor.Float64:
		unaryEval(out, x, math.Exp)
	default:
		panic(fmt.Sprintf("exp: unsupported dtype %s", x.DType()))
	}
	return out
}

// Log applies the natural logarithm element-wise. Float tensors only.
func (c *Backend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	out := c.unaryDst("log", x)
	switch x.DType() {
	case tensor.Float32:
		unaryEval(out, x, func(v float32) float32 { return float32(math.Log(float64(v))) })
	case tensor.Float64:
		unaryEval(out, x, math.Log)
	default:
		panic(fmt.Sprintf("log: unsupported dtype %s", x.DType()))
	}
	return out
}
