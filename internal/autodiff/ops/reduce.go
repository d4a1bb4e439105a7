package ops

import "github.com/primer-ml/primer/internal/tensor"

// SumOp records output = Σx over all elements.
//
// Every element contributed with weight 1, so the scalar gradient
// broadcasts back over the whole input shape.
type SumOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSumOp creates a SumOp.
func NewSumOp(x, output *tensor.RawTensor) *SumOp {
	return &SumOp{input: x, output: output}
}

// Backward broadcasts the scalar gradient over the input shape.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	zeros := mustRaw(op.input.Shape(), outputGrad.DType(), outputGrad.Device())
	return []*tensor.RawTensor{backend.Add(zeros, outputGrad)}
}

// Inputs returns [x].
func (op *SumOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the single-element sum.
func (op *SumOp) Output() *tensor.RawTensor { return op.output }

// SumDimOp records output = Σx along one dimension.
type SumDimOp struct {
	input   *tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

// NewSumDimOp creates a SumDimOp. dim must already be normalized to a
// non-negative axis.
func NewSumDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{input: x, output: output, dim: dim, keepDim: keepDim}
}

// Backward broadcasts the gradient back over the reduced dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		expandTo(outputGrad, op.input.Shape(), op.dim, op.keepDim, backend),
	}
}

// Inputs returns [x].
func (op *SumDimOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the reduced tensor.
func (op *SumDimOp) Output() *tensor.RawTensor { return op.output }

// MeanDimOp records output = mean(x) along one dimension.
//
// The mean divides by the dimension size n, so each input element receives
// grad/n.
type MeanDimOp struct {
	input   *tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

// NewMeanDimOp creates a MeanDimOp. dim must already be normalized to a
// non-negative axis.
func NewMeanDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *MeanDimOp {
	return &MeanDimOp{input: x, output: output, dim: dim, keepDim: keepDim}
}

// Backward broadcasts grad/n back over the reduced dimension.
func (op *MeanDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	expanded := expandTo(outputGrad, op.input.Shape(), op.dim, op.keepDim, backend)
	n := op.input.Shape()[op.dim]
	return []*tensor.RawTensor{backend.MulScalar(expanded, 1/float64(n))}
}

// Inputs returns [x].
func (op *MeanDimOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the reduced tensor.
func (op *MeanDimOp) Output() *tensor.RawTensor { return op.output }
