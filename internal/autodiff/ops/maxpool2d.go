package ops

import "github.com/primer-ml/primer/internal/tensor"

// MaxPool2DOp records output = MaxPool2D(input, kernelSize, stride).
//
// The backend's forward pass already knows which element won each window,
// so the op stores those flat indices and the backward pass is a pure
// scatter: each output gradient lands on its window's argmax position.
type MaxPool2DOp struct {
	input      *tensor.RawTensor
	output     *tensor.RawTensor
	maxIndices []int
}

// NewMaxPool2DOp creates a MaxPool2DOp from the forward pass results.
func NewMaxPool2DOp(input, output *tensor.RawTensor, maxIndices []int) *MaxPool2DOp {
	return &MaxPool2DOp{input: input, output: output, maxIndices: maxIndices}
}

// Backward routes gradients to the recorded argmax positions.
func (op *MaxPool2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		backend.MaxPool2DBackward(outputGrad, op.maxIndices, op.input.Shape()),
	}
}

// Inputs returns [input].
func (op *MaxPool2DOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the pooled tensor.
func (op *MaxPool2DOp) Output() *tensor.RawTensor { return op.output }
