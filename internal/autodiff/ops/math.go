package ops

import "github.com/primer-ml/primer/internal/tensor"

// ExpOp records output = e^x.
//
// The derivative of e^x is e^x, so the backward pass reuses the cached
// forward output instead of recomputing the exponential.
type ExpOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewExpOp creates an ExpOp.
func NewExpOp(x, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{input: x, output: output}
}

// Backward computes grad * e^x from the cached output.
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	defer pin(outputGrad)()
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

// Inputs returns [x].
func (op *ExpOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns e^x.
func (op *ExpOp) Output() *tensor.RawTensor { return op.output }

// LogOp records output = ln(x).
//
// d(ln x)/dx = 1/x. Inputs must be positive for the forward pass to be
// meaningful; the backward pass inherits that requirement.
type LogOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewLogOp creates a LogOp.
func NewLogOp(x, output *tensor.RawTensor) *LogOp {
	return &LogOp{input: x, output: output}
}

// Backward computes grad / x.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	defer pin(outputGrad)()
	return []*tensor.RawTensor{backend.Div(outputGrad, op.input)}
}

// Inputs returns [x].
func (op *LogOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns ln(x).
func (op *LogOp) Output() *tensor.RawTensor { return op.output }
