package tensor

// Backend is the compute interface every backend must implement. Backends
// operate on RawTensor so the generic Tensor layer stays type-only.
//
// Forward and backward kernels live side by side in the interface: the
// autodiff layer drives the *Backward methods during the reverse pass, so
// any backend usable for training must supply both directions.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar operations.
	AddScalar(x *RawTensor, scalar float64) *RawTensor
	MulScalar(x *RawTensor, scalar float64) *RawTensor

	// Element-wise math.
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor

	// Matrix multiplication for 2D tensors: [M, K] @ [K, N] -> [M, N].
	MatMul(a, b *RawTensor) *RawTensor

	// Convolution and pooling over NCHW tensors.
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor
	Conv2DInputBackward(grad, kernel *RawTensor, stride, padding int, inputShape Shape) *RawTensor
	Conv2DKernelBackward(grad, input *RawTensor, stride, padding int, kernelShape Shape) *RawTensor

	// MaxPool2D returns the pooled tensor together with the flat index of
	// each window's maximum, which MaxPool2DBackward uses to route gradients.
	MaxPool2D(input *RawTensor, kernelSize, stride int) (*RawTensor, []int)
	MaxPool2DBackward(grad *RawTensor, maxIndices []int, inputShape Shape) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Unsqueeze(x *RawTensor, dim int) *RawTensor
	Squeeze(x *RawTensor, dim int) *RawTensor

	// Manipulation operations.
	Cat(tensors []*RawTensor, dim int) *RawTensor
	Chunk(x *RawTensor, n, dim int) []*RawTensor

	// Softmax along a dimension.
	Softmax(x *RawTensor, dim int) *RawTensor

	// Reductions.
	Sum(x *RawTensor) *RawTensor
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	Argmax(x *RawTensor, dim int) *RawTensor

	// Embedding looks up rows of weight by integer indices.
	Embedding(weight, indices *RawTensor) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
