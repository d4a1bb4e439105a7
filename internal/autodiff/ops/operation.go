// Package ops holds the differentiable operations recorded on the gradient
// tape. Each operation keeps the raw tensors of its forward pass and knows
// how to turn the gradient of its output into gradients of its inputs.
//
// Backward passes compose backend primitives wherever the chain rule allows
// it; only operations whose derivative has no primitive form (activations,
// embedding scatter, fused losses) carry their own kernels.
package ops

import "github.com/primer-ml/primer/internal/tensor"

// Operation is one recorded step of the forward computation.
type Operation interface {
	// Backward converts the gradient of the output into gradients of the
	// inputs, one per input and in input order. The backend is the same
	// one that ran the forward pass, with recording disabled.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the forward pass input tensors.
	Inputs() []*tensor.RawTensor

	// Output returns the forward pass output tensor.
	Output() *tensor.RawTensor
}

// MultiOutputOperation is an operation with more than one output, such as
// Chunk. The tape gathers gradients for every output before calling
// BackwardMulti, substituting zeros for outputs no gradient reached.
type MultiOutputOperation interface {
	Operation

	// Outputs returns all output tensors in production order.
	Outputs() []*tensor.RawTensor

	// BackwardMulti converts per-output gradients into input gradients.
	BackwardMulti(outputGrads []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor
}
