package ops

import "github.com/primer-ml/primer/internal/tensor"

// Conv2DOp records output = Conv2D(input, kernel, stride, padding).
//
// Both gradients are full convolution passes, so the op only orchestrates:
// the backend's Conv2DInputBackward and Conv2DKernelBackward kernels do
// the actual work.
type Conv2DOp struct {
	input   *tensor.RawTensor
	kernel  *tensor.RawTensor
	output  *tensor.RawTensor
	stride  int
	padding int
}

// NewConv2DOp creates a Conv2DOp.
func NewConv2DOp(input, kernel, output *tensor.RawTensor, stride, padding int) *Conv2DOp {
	return &Conv2DOp{
		input:   input,
		kernel:  kernel,
		output:  output,
		stride:  stride,
		padding: padding,
	}
}

// Backward delegates both gradient convolutions to the backend.
func (op *Conv2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inputGrad := backend.Conv2DInputBackward(outputGrad, op.kernel, op.stride, op.padding, op.input.Shape())
	kernelGrad := backend.Conv2DKernelBackward(outputGrad, op.input, op.stride, op.padding, op.kernel.Shape())
	return []*tensor.RawTensor{inputGrad, kernelGrad}
}

// Inputs returns [input, kernel].
func (op *Conv2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input, op.kernel}
}

// Output returns the convolution result.
func (op *Conv2DOp) Output() *tensor.RawTensor { return op.output }
