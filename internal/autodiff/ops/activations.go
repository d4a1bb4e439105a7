package ops

import (
	"math"

	"github.com/primer-ml/primer/internal/tensor"
)

// ReLU computes max(0, x) into a fresh tensor.
func ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return applyUnary(x, "relu", func(v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	})
}

// Sigmoid computes 1 / (1 + e^-x) into a fresh tensor.
func Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return applyUnary(x, "sigmoid", func(v float64) float64 {
		return 1 / (1 + math.Exp(-v))
	})
}

// Tanh computes the hyperbolic tangent into a fresh tensor.
func Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return applyUnary(x, "tanh", math.Tanh)
}

// ReLUOp records output = max(0, x).
//
// The gradient passes through where the input was positive and is zero
// elsewhere. The subgradient at exactly zero is taken as zero.
type ReLUOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReLUOp creates a ReLUOp.
func NewReLUOp(x, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{input: x, output: output}
}

// Backward masks the gradient by the sign of the input.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grad := applyBinary(outputGrad, op.input, "relu backward", func(g, v float64) float64 {
		if v > 0 {
			return g
		}
		return 0
	})
	return []*tensor.RawTensor{grad}
}

// Inputs returns [x].
func (op *ReLUOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns max(0, x).
func (op *ReLUOp) Output() *tensor.RawTensor { return op.output }

// SigmoidOp records output = σ(x).
//
// σ'(x) = σ(x)(1 - σ(x)), expressed from the cached output.
type SigmoidOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSigmoidOp creates a SigmoidOp.
func NewSigmoidOp(x, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{input: x, output: output}
}

// Backward computes grad * σ * (1 - σ).
func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grad := applyBinary(outputGrad, op.output, "sigmoid backward", func(g, s float64) float64 {
		return g * s * (1 - s)
	})
	return []*tensor.RawTensor{grad}
}

// Inputs returns [x].
func (op *SigmoidOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns σ(x).
func (op *SigmoidOp) Output() *tensor.RawTensor { return op.output }

// TanhOp records output = tanh(x).
//
// tanh'(x) = 1 - tanh²(x), expressed from the cached output.
type TanhOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewTanhOp creates a TanhOp.
func NewTanhOp(x, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{input: x, output: output}
}

// Backward computes grad * (1 - tanh²).
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grad := applyBinary(outputGrad, op.output, "tanh backward", func(g, th float64) float64 {
		return g * (1 - th*th)
	})
	return []*tensor.RawTensor{grad}
}

// Inputs returns [x].
func (op *TanhOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns tanh(x).
func (op *TanhOp) Output() *tensor.RawTensor { return op.output }
