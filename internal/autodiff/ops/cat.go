package ops

import "github.com/primer-ml/primer/internal/tensor"

// CatOp records output = cat(inputs, dim).
//
// The backward pass slices the gradient back into per-input pieces. The
// inputs may have different extents along dim, so the split is done with
// byte runs rather than the backend's equal-parts Chunk.
type CatOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	dim    int
}

// NewCatOp creates a CatOp. dim must already be normalized to a
// non-negative axis.
func NewCatOp(inputs []*tensor.RawTensor, output *tensor.RawTensor, dim int) *CatOp {
	held := make([]*tensor.RawTensor, len(inputs))
	copy(held, inputs)
	return &CatOp{inputs: held, output: output, dim: dim}
}

// Backward splits the output gradient along dim by input extents.
func (op *CatOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	outShape := outputGrad.Shape()

	outer := 1
	for i := 0; i < op.dim; i++ {
		outer *= outShape[i]
	}
	inner := outputGrad.DType().Size()
	for i := op.dim + 1; i < len(outShape); i++ {
		inner *= outShape[i]
	}
	rowBytes := outShape[op.dim] * inner

	src := outputGrad.Data()
	grads := make([]*tensor.RawTensor, len(op.inputs))
	offset := 0
	for i, in := range op.inputs {
		grad := mustRaw(in.Shape(), outputGrad.DType(), outputGrad.Device())
		dst := grad.Data()
		run := in.Shape()[op.dim] * inner
		for o := 0; o < outer; o++ {
			srcOff := o*rowBytes + offset
			copy(dst[o*run:(o+1)*run], src[srcOff:srcOff+run])
		}
		offset += run
		grads[i] = grad
	}
	return grads
}

// Inputs returns the concatenated tensors.
func (op *CatOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the concatenation result.
func (op *CatOp) Output() *tensor.RawTensor { return op.output }
