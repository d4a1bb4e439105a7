package ops

import "github.com/primer-ml/primer/internal/tensor"

// SoftmaxOp records output = softmax(x) along dim.
//
// The softmax Jacobian contracts with the chain rule to
//
//	dL/dx_j = s_j * (dL/ds_j - Σ_i dL/ds_i * s_i)
//
// where s is the cached forward output and the sum runs along dim.
type SoftmaxOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	dim    int
}

// NewSoftmaxOp creates a SoftmaxOp. dim must already be normalized to a
// non-negative axis.
func NewSoftmaxOp(x, output *tensor.RawTensor, dim int) *SoftmaxOp {
	return &SoftmaxOp{input: x, output: output, dim: dim}
}

// Backward computes s * (grad - Σ grad*s) along the recorded dim.
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	s := op.output
	defer pin(outputGrad, s)()

	weighted := backend.Mul(outputGrad, s)
	inner := backend.SumDim(weighted, op.dim, true)
	shifted := backend.Sub(outputGrad, inner)
	return []*tensor.RawTensor{backend.Mul(s, shifted)}
}

// Inputs returns [x].
func (op *SoftmaxOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns softmax(x).
func (op *SoftmaxOp) Output() *tensor.RawTensor { return op.output }
