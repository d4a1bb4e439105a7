// Package autodiff adds reverse-mode automatic differentiation on top of
// any tensor backend.
//
// Backend is a decorator: it forwards every operation to the wrapped
// backend and, while the tape is recording, stores an ops.Operation that
// knows how to push gradients back through that call. Tape.Backward then
// walks the recorded operations in reverse and accumulates gradients per
// tensor with the chain rule.
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//
//	x, _ := tensor.FromSlice([]float32{2}, tensor.Shape{1}, backend)
//	y := x.Mul(x)
//
//	grads := autodiff.Backward(y, backend)
//	dx := grads[x.Raw()] // dy/dx = 2x = 4
package autodiff

import (
	"github.com/primer-ml/primer/internal/autodiff/ops"
	"github.com/primer-ml/primer/internal/tensor"
)

// Backend wraps a tensor backend and records differentiable operations on
// a gradient tape.
//
// Every input handed to the wrapped backend is first forced non-unique for
// the duration of the call. The CPU backend reuses a uniquely held operand
// buffer for its result; a tensor sitting on the tape must keep its forward
// value until Backward has read it, so the decorator never lets the inner
// backend take that shortcut.
type Backend[B tensor.Backend] struct {
	inner B
	tape  *Tape
}

// New wraps the given backend with gradient recording.
func New[B tensor.Backend](backend B) *Backend[B] {
	return &Backend[B]{inner: backend, tape: NewTape()}
}

// Tape returns the gradient tape for recording control and backward passes.
func (b *Backend[B]) Tape() *Tape {
	return b.tape
}

// Inner returns the wrapped backend.
func (b *Backend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *Backend[B]) Name() string {
	return "autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *Backend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// NoGrad runs fn with recording suspended and restores the previous state
// afterwards. Evaluation passes run inside it so the tape only ever holds
// the training forward pass. Calls nest safely.
func (b *Backend[B]) NoGrad(fn func()) {
	was := b.tape.recording
	b.tape.recording = false
	defer func() { b.tape.recording = was }()
	fn()
}

// Add performs element-wise addition and records the operation.
func (b *Backend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()

	out := b.inner.Add(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewAddOp(x, y, out))
	}
	return out
}

// Sub performs element-wise subtraction and records the operation.
func (b *Backend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()

	out := b.inner.Sub(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSubOp(x, y, out))
	}
	return out
}

// Mul performs element-wise multiplication and records the operation.
func (b *Backend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()

	out := b.inner.Mul(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMulOp(x, y, out))
	}
	return out
}

// Div performs element-wise division and records the operation.
func (b *Backend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()

	out := b.inner.Div(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewDivOp(x, y, out))
	}
	return out
}

// AddScalar adds a scalar to every element and records the operation.
func (b *Backend[B]) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	out := b.inner.AddScalar(x, scalar)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewAddScalarOp(x, out))
	}
	return out
}

// MulScalar multiplies every element by a scalar and records the operation.
func (b *Backend[B]) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	out := b.inner.MulScalar(x, scalar)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMulScalarOp(x, out, scalar))
	}
	return out
}

// Exp computes the element-wise exponential and records the operation.
func (b *Backend[B]) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	out := b.inner.Exp(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewExpOp(x, out))
	}
	return out
}

// Log computes the element-wise natural logarithm and records the operation.
func (b *Backend[B]) Log(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	out := b.inner.Log(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewLogOp(x, out))
	}
	return out
}

// MatMul performs matrix multiplication and records the operation.
func (b *Backend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()

	out := b.inner.MatMul(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMatMulOp(x, y, out))
	}
	return out
}

// Conv2D performs 2D convolution and records the operation. Gradients flow
// back to both the input and the kernel.
func (b *Backend[B]) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	defer input.ForceNonUnique()()
	defer kernel.ForceNonUnique()()

	out := b.inner.Conv2D(input, kernel, stride, padding)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewConv2DOp(input, kernel, out, stride, padding))
	}
	return out
}

// Conv2DInputBackward computes the convolution gradient with respect to the
// input. It is a building block for Conv2DOp's backward pass and is not
// recorded.
func (b *Backend[B]) Conv2DInputBackward(grad, kernel *tensor.RawTensor, stride, padding int, inputShape tensor.Shape) *tensor.RawTensor {
	return b.inner.Conv2DInputBackward(grad, kernel, stride, padding, inputShape)
}

// Conv2DKernelBackward computes the convolution gradient with respect to
// the kernel. Not recorded.
func (b *Backend[B]) Conv2DKernelBackward(grad, input *tensor.RawTensor, stride, padding int, kernelShape tensor.Shape) *tensor.RawTensor {
	return b.inner.Conv2DKernelBackward(grad, input, stride, padding, kernelShape)
}

// MaxPool2D performs 2D max pooling and records the operation. The argmax
// indices computed by the forward pass are stored on the tape so the
// backward pass routes gradients without re-scanning the input.
func (b *Backend[B]) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) (*tensor.RawTensor, []int) {
	defer input.ForceNonUnique()()

	out, indices := b.inner.MaxPool2D(input, kernelSize, stride)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMaxPool2DOp(input, out, indices))
	}
	return out, indices
}

// MaxPool2DBackward scatters pooled gradients back to the recorded argmax
// positions. Not recorded.
func (b *Backend[B]) MaxPool2DBackward(grad *tensor.RawTensor, maxIndices []int, inputShape tensor.Shape) *tensor.RawTensor {
	return b.inner.MaxPool2DBackward(grad, maxIndices, inputShape)
}

// Reshape changes a tensor's shape and records the operation.
//
// Reshape looks like a no-op for gradients, but skipping it would strand
// them: the backward pass would compute a gradient for the reshaped tensor
// while the optimizer looks up the original parameter. ReshapeOp carries
// the gradient back to the tensor the parameter actually owns.
func (b *Backend[B]) Reshape(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	out := b.inner.Reshape(x, newShape)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReshapeOp(x, out))
	}
	return out
}

// Transpose permutes tensor axes and records the operation.
//
// The recorded operation needs the explicit permutation to invert it during
// the backward pass, so the default reverse-all-axes case is expanded here
// before recording.
func (b *Backend[B]) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	if len(axes) == 0 {
		ndim := len(x.Shape())
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}

	out := b.inner.Transpose(x, axes...)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewTransposeOp(x, out, axes))
	}
	return out
}

// Unsqueeze inserts a size-1 dimension and records it as a reshape.
func (b *Backend[B]) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	out := b.inner.Unsqueeze(x, dim)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReshapeOp(x, out))
	}
	return out
}

// Squeeze removes a size-1 dimension and records it as a reshape.
func (b *Backend[B]) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	out := b.inner.Squeeze(x, dim)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReshapeOp(x, out))
	}
	return out
}

// Cat concatenates tensors along dim and records the operation. The
// backward pass splits the gradient back into per-input slices.
func (b *Backend[B]) Cat(inputs []*tensor.RawTensor, dim int) *tensor.RawTensor {
	for _, t := range inputs {
		defer t.ForceNonUnique()()
	}
	if dim < 0 && len(inputs) > 0 {
		dim += len(inputs[0].Shape())
	}

	out := b.inner.Cat(inputs, dim)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewCatOp(inputs, out, dim))
	}
	return out
}

// Chunk splits a tensor into n equal parts along dim and records a
// multi-output operation. During the backward pass the tape gathers the
// gradient of every part before the chunks are concatenated back together.
func (b *Backend[B]) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	defer x.ForceNonUnique()()
	if dim < 0 {
		dim += len(x.Shape())
	}

	outs := b.inner.Chunk(x, n, dim)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewChunkOp(x, outs, dim))
	}
	return outs
}

// Softmax applies softmax along dim and records the operation.
func (b *Backend[B]) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	if dim < 0 {
		dim += len(x.Shape())
	}

	out := b.inner.Softmax(x, dim)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSoftmaxOp(x, out, dim))
	}
	return out
}

// Sum reduces a tensor to a single-element total and records the operation.
func (b *Backend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	out := b.inner.Sum(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSumOp(x, out))
	}
	return out
}

// SumDim sums along one dimension and records the operation.
func (b *Backend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	if dim < 0 {
		dim += len(x.Shape())
	}

	out := b.inner.SumDim(x, dim, keepDim)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSumDimOp(x, out, dim, keepDim))
	}
	return out
}

// MeanDim averages along one dimension and records the operation.
func (b *Backend[B]) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	if dim < 0 {
		dim += len(x.Shape())
	}

	out := b.inner.MeanDim(x, dim, keepDim)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMeanDimOp(x, out, dim, keepDim))
	}
	return out
}

// Argmax returns index positions of maxima. Argmax has no useful gradient,
// so the call passes through unrecorded.
func (b *Backend[B]) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Argmax(x, dim)
}

// Embedding gathers rows of weight by integer index and records the
// operation. Gradients flow to the weight table only; the indices are not
// differentiable.
func (b *Backend[B]) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	defer weight.ForceNonUnique()()

	out := b.inner.Embedding(weight, indices)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewEmbeddingOp(weight, indices, out))
	}
	return out
}

// ReLU applies max(0, x) and records the operation. The forward kernel
// lives in the ops package; plain backends stay inference-only and the
// layers in nn require an autodiff-wrapped backend for activations.
func (b *Backend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	out := ops.ReLU(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReLUOp(x, out))
	}
	return out
}

// Sigmoid applies 1/(1+exp(-x)) and records the operation.
func (b *Backend[B]) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	out := ops.Sigmoid(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSigmoidOp(x, out))
	}
	return out
}

// Tanh applies the hyperbolic tangent and records the operation.
func (b *Backend[B]) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	out := ops.Tanh(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewTanhOp(x, out))
	}
	return out
}

// CrossEntropy computes the fused softmax cross-entropy loss over logits
// [batch, classes] against int32 class indices [batch], and records the
// operation. The result is a single-element mean loss.
func (b *Backend[B]) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	out := ops.CrossEntropyForward(logits, targets, b.Device())
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewCrossEntropyOp(logits, targets, out))
	}
	return out
}
