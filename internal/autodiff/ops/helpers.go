package ops

import (
	"fmt"

	"github.com/primer-ml/primer/internal/tensor"
)

// floats constrains local kernels to the differentiable dtypes.
type floats interface{ float32 | float64 }

// mustRaw allocates a zero-filled tensor. Gradient shapes come from
// recorded tensors, so a failure here is a programming error.
func mustRaw(shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.RawTensor {
	out, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("ops: %v", err))
	}
	return out
}

// pin guards tensors for the duration of a backward computation. Backends
// may write a binary result into the first operand when its buffer is
// unique; recorded tensors and incoming gradients must keep their values,
// so backward passes pin whatever they feed back into the backend.
// Callers defer the returned func.
func pin(ts ...*tensor.RawTensor) func() {
	restores := make([]func(), len(ts))
	for i, t := range ts {
		restores[i] = t.ForceNonUnique()
	}
	return func() {
		for _, restore := range restores {
			restore()
		}
	}
}

// reduceBroadcast sums grad down to the target shape, undoing the
// broadcasting of the forward pass. Broadcasting aligns shapes from the
// right: extra leading gradient dimensions are summed away, and size-1
// target dimensions are summed with keepDim.
func reduceBroadcast(grad *tensor.RawTensor, target tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(target) {
		// Clone so gradient accumulation never aliases a live tensor.
		return grad.Clone()
	}
	if len(target) == 0 {
		return backend.Reshape(backend.Sum(grad), target)
	}

	result := grad
	for len(result.Shape()) > len(target) {
		result = backend.SumDim(result, 0, false)
	}
	shape := result.Shape()
	for i := range target {
		if target[i] == 1 && shape[i] > 1 {
			result = backend.SumDim(result, i, true)
		}
	}
	if !result.Shape().Equal(target) {
		result = backend.Reshape(result, target)
	}
	return result
}

// expandTo broadcasts a reduced gradient back over the dimension that a
// reduction collapsed. Adding to zeros leans on the backend's broadcasting
// instead of a dedicated expand kernel.
func expandTo(grad *tensor.RawTensor, target tensor.Shape, dim int, keepDim bool, backend tensor.Backend) *tensor.RawTensor {
	g := grad
	if !keepDim {
		kept := target.Clone()
		kept[dim] = 1
		g = backend.Reshape(g, kept)
	}
	zeros := mustRaw(target, grad.DType(), grad.Device())
	return backend.Add(zeros, g)
}

// applyUnary evaluates f element-wise into a fresh tensor. Activation
// kernels route through float64 like the backend's math ops, keeping one
// closure per operation instead of one per dtype.
func applyUnary(x *tensor.RawTensor, op string, f func(float64) float64) *tensor.RawTensor {
	out := mustRaw(x.Shape(), x.DType(), x.Device())
	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), out.AsFloat32()
		for i, v := range src {
			dst[i] = float32(f(float64(v)))
		}
	case tensor.Float64:
		src, dst := x.AsFloat64(), out.AsFloat64()
		for i, v := range src {
			dst[i] = f(v)
		}
	default:
		panic(op + ": requires a float tensor")
	}
	return out
}

// applyBinary evaluates f over two same-shape tensors into a fresh tensor.
func applyBinary(a, b *tensor.RawTensor, op string, f func(float64, float64) float64) *tensor.RawTensor {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("%s: shape mismatch %v vs %v", op, a.Shape(), b.Shape()))
	}

	out := mustRaw(a.Shape(), a.DType(), a.Device())
	switch a.DType() {
	case tensor.Float32:
		x, y, dst := a.AsFloat32(), b.AsFloat32(), out.AsFloat32()
		for i := range dst {
			dst[i] = float32(f(float64(x[i]), float64(y[i])))
		}
	case tensor.Float64:
		x, y, dst := a.AsFloat64(), b.AsFloat64(), out.AsFloat64()
		for i := range dst {
			dst[i] = f(x[i], y[i])
		}
	default:
		panic(op + ": requires a float tensor")
	}
	return out
}
