package cpu

import (
	"fmt"

	"github.com/primer-ml/primer/internal/tensor"
)

// binaryPlan carries the shared setup for an element-wise binary op.
type binaryPlan struct {
	out      *tensor.RawTensor
	outShape tensor.Shape
	expanded bool
}

// planBinary validates operands and picks the output buffer. When no
// broadcasting is needed and a holds the only reference to its buffer,
// the op may write into a directly.
func (c *Backend) planBinary(op string, a, b *tensor.RawTensor) binaryPlan {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch: %s vs %s", op, a.DType(), b.DType()))
	}

	outShape, expanded, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}

	if !expanded && a.Shape().Equal(outShape) && a.IsUnique() {
		return binaryPlan{out: a, outShape: outShape}
	}
	return binaryPlan{
		out:      mustRaw(op, outShape, a.DType(), c.device),
		outShape: outShape,
		expanded: expanded,
	}
}

// binaryEval runs f element-wise. The in-place case aliases dst and a;
// each index is read before it is written, so aliasing is safe.
func binaryEval[T tensor.DType](plan binaryPlan, a, b *tensor.RawTensor, f func(T, T) T) {
	dst := view[T](plan.out)

	if !plan.expanded {
		x, y := view[T](a), view[T](b)
		for i := range dst {
			dst[i] = f(x[i], y[i])
		}
		return
	}

	x, y := view[T](a), view[T](b)
	outStrides := plan.outShape.Strides()
	xStrides := broadcastStrides(a.Shape(), plan.outShape)
	yStrides := broadcastStrides(b.Shape(), plan.outShape)
	for i := range dst {
		dst[i] = f(x[flatIndex(i, outStrides, xStrides)], y[flatIndex(i, outStrides, yStrides)])
	}
}

// Add performs element-wise addition with broadcasting.
func (c *Backend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	plan := c.planBinary("add", a, b)
	switch a.DType() {
	case tensor.Float32:
		binaryEval(plan, a, b, func(x, y float32) float32 { return x + y })
	case tensor.Float64:
		binaryEval(plan, a, b, func(x, y float64) float64 { return x + y })
	case tensor.Int32:
		binaryEval(plan, a, b, func(x, y int32) int32 { return x + y })
	case tensor.Int64:
		binaryEval(plan, a, b, func(x, y int64) int64 { return x + y })
	}
	return plan.out
}

// Sub performs element-wise subtraction with broadcasting.
func (c *Backend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	plan := c.planBinary("sub", a, b)
	switch a.DType() {
	case tensor.Float32:
		binaryEval(plan, a, b, func(x, y float32) float32 { return x - y })
	case tensor.Float64:
		binaryEval(plan, a, b, func(x, y float64) float64 { return x - y })
	case tensor.Int32:
		binaryEval(plan, a, b, func(x, y int32) int32 { return x - y })
	case tensor.Int64:
		binaryEval(plan, a, b, func(x, y int64) int64 { return x - y })
	}
	return plan.out
}

// Mul performs element-wise multiplication with broadcasting.
func (c *Backend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	plan := c.planBinary("mul", a, b)
	switch a.DType() {
	case tensor.Float32:
		binaryEval(plan, a, b, func(x, y float32) float32 { return x * y })
	case tensor.Float64:
		binaryEval(plan, a, b, func(x, y float64) float64 { return x * y })
	case tensor.Int32:
		binaryEval(plan, a, b, func(x, y int32) int32 { return x * y })
	case tensor.Int64:
		binaryEval(plan, a, b, func(x, y int64) int64 { return x * y })
	}
	return plan.out
}

// Div performs element-wise division with broadcasting.
func (c *Backend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	plan := c.planBinary("div", a, b)
	switch a.DType() {
	case tensor.Float32:
		binaryEval(plan, a, b, func(x, y float32) float32 { return x / y })
	case tensor.Float64:
		binaryEval(plan, a, b, func(x, y float64) float64 { return x / y })
	case tensor.Int32:
		binaryEval(plan, a, b, func(x, y int32) int32 { return x / y })
	case tensor.Int64:
		binaryEval(plan, a, b, func(x, y int64) int64 { return x / y })
	}
	return plan.out
}

// broadcastStrides maps inShape onto outShape: broadcast dimensions and
// padded leading dimensions get stride 0, so advancing the output index
// along them rereads the same input element.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	strides := make([]int, outDim)
	offset := outDim - len(inShape)
	origStrides := inShape.Strides()

	for i := 0; i < outDim; i++ {
		inIdx := i - offset
		switch {
		case inIdx < 0:
			strides[i] = 0
		case inShape[inIdx] == 1:
			strides[i] = 0
		default:
			strides[i] = origStrides[inIdx]
		}
	}
	return strides
}

// flatIndex translates a flat output index into a flat input index using
// broadcast-adjusted strides.
func flatIndex(outIdx int, outStrides, inStrides []int) int {
	flat := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		flat += coord * inStrides[i]
	}
	return flat
}
