package cpu

import (
	"fmt"

	"github.com/primer-ml/primer/internal/tensor"
)

// Reshape returns a view of t under newShape. Tensors are contiguous,
// so no data moves.
func (c *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: cannot view %v as %v", t.Shape(), newShape))
	}
	return t.WithShape(newShape)
}

// Transpose permutes dimensions. Empty axes reverse all dimensions.
// The result is a fresh contiguous tensor.
func (c *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: %d axes for %dD tensor", len(axes), ndim))
	}

	seen := make([]bool, ndim)
	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("transpose: axis %d out of range for %dD tensor", ax, ndim))
		}
		if seen[ax] {
			panic(fmt.Sprintf("transpose: duplicate axis %d", ax))
		}
		seen[ax] = true
		newShape[i] = shape[ax]
	}

	out := mustRaw("transpose", newShape, t.DType(), t.Device())

	// Walking the output in order and gathering from the permuted input
	// strides keeps writes sequential.
	inStrides := shape.Strides()
	srcStrides := make([]int, ndim)
	for i, ax := range axes {
		srcStrides[i] = inStrides[ax]
	}
	outStrides := newShape.Strides()

	elemSize := t.DType().Size()
	dst, src := out.Data(), t.Data()
	for i := 0; i < out.NumElements(); i++ {
		j := flatIndex(i, outStrides, srcStrides)
		copy(dst[i*elemSize:(i+1)*elemSize], src[j*elemSize:(j+1)*elemSize])
	}
	return out
}

// Unsqueeze inserts a dimension of size 1 at dim.
func (c *Backend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 || dim > len(shape) {
		panic(fmt.Sprintf("unsqueeze: dim %d out of range for shape %v", dim, shape))
	}

	newShape := make(tensor.Shape, 0, len(shape)+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)
	return x.WithShape(newShape)
}

// Squeeze removes the dimension at dim, which must have size 1.
func (c *Backend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("squeeze: dim %d out of range for shape %v", dim, shape))
	}
	if shape[dim] != 1 {
		panic(fmt.Sprintf("squeeze: dimension %d has size %d, want 1", dim, shape[dim]))
	}

	newShape := make(tensor.Shape, 0, len(shape)-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)
	return x.WithShape(newShape)
}

// Cat concatenates tensors along dim. All inputs must agree on dtype and
// on every dimension except dim. Rows are moved as raw byte runs, so one
// implementation covers every dtype.
func (c *Backend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}

	shape := tensors[0].Shape()
	ndim := len(shape)
	dtype := tensors[0].DType()
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("cat: dim %d out of range for %dD tensor", dim, ndim))
	}

	total := 0
	for i, t := range tensors {
		tShape := t.Shape()
		if len(tShape) != ndim {
			panic(fmt.Sprintf("cat: tensor %d is %dD, want %dD", i, len(tShape), ndim))
		}
		if t.DType() != dtype {
			panic(fmt.Sprintf("cat: tensor %d has dtype %s, want %s", i, t.DType(), dtype))
		}
		for d := 0; d < ndim; d++ {
			if d == dim {
				total += tShape[d]
			} else if tShape[d] != shape[d] {
				panic(fmt.Sprintf("cat: tensor %d dimension %d is %d, want %d", i, d, tShape[d], shape[d]))
			}
		}
	}

	outShape := shape.Clone()
	outShape[dim] = total
	out := mustRaw("cat", outShape, dtype, c.device)

	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	inner := dtype.Size()
	for i := dim + 1; i < ndim; i++ {
		inner *= shape[i]
	}

	dst := out.Data()
	rowBytes := total * inner
	for o := 0; o < outer; o++ {
		offset := o * rowBytes
		for _, t := range tensors {
			run := t.Shape()[dim] * inner
			copy(dst[offset:offset+run], t.Data()[o*run:(o+1)*run])
			offset += run
		}
	}
	return out
}

// Chunk splits x into n equal parts along dim. The dimension size must
// be divisible by n.
func (c *Backend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("chunk: dim %d out of range for %dD tensor", dim, ndim))
	}
	if n <= 0 || shape[dim]%n != 0 {
		panic(fmt.Sprintf("chunk: cannot split dimension of size %d into %d parts", shape[dim], n))
	}

	partShape := shape.Clone()
	partShape[dim] = shape[dim] / n

	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	inner := x.DType().Size()
	for i := dim + 1; i < ndim; i++ {
		inner *= shape[i]
	}
	run := partShape[dim] * inner
	rowBytes := shape[dim] * inner

	src := x.Data()
	parts := make([]*tensor.RawTensor, n)
	for p := range parts {
		part := mustRaw("chunk", partShape, x.DType(), c.device)
		dst := part.Data()
		for o := 0; o < outer; o++ {
			srcOff := o*rowBytes + p*run
			copy(dst[o*run:(o+1)*run], src[srcOff:srcOff+run])
		}
		parts[p] = part
	}
	return parts
}
