package cpu

import (
	"fmt"

	"github.com/primer-ml/primer/internal/tensor"
)

// MaxPool2D slides a kernelSize x kernelSize window over each channel
// plane and keeps the maximum of every window.
//
// Input shape:  [N, C, H, W]
// Output shape: [N, C, (H-kernelSize)/stride+1, (W-kernelSize)/stride+1]
//
// The second return value holds the flat input index of each window's
// maximum. The backward pass routes gradients through those positions,
// so recording them here saves recomputing the argmax later.
func (c *Backend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) (*tensor.RawTensor, []int) {
	inShape := input.Shape()
	if len(inShape) != 4 {
		panic(fmt.Sprintf("maxpool2d: input must be 4D [N,C,H,W], got %dD", len(inShape)))
	}

	n, ch, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	hOut := (h-kernelSize)/stride + 1
	wOut := (w-kernelSize)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("maxpool2d: output would be %dx%d, check kernel size and stride", hOut, wOut))
	}

	out := mustRaw("maxpool2d", tensor.Shape{n, ch, hOut, wOut}, input.DType(), c.device)
	indices := make([]int, n*ch*hOut*wOut)

	switch input.DType() {
	case tensor.Float32:
		maxPool2DEval[float32](out, input, indices, n, ch, h, w, hOut, wOut, kernelSize, stride)
	case tensor.Float64:
		maxPool2DEval[float64](out, input, indices, n, ch, h, w, hOut, wOut, kernelSize, stride)
	default:
		panic(fmt.Sprintf("maxpool2d: unsupported dtype %s", input.DType()))
	}
	return out, indices
}

func maxPool2DEval[T tensor.DType](out, input *tensor.RawTensor, indices []int, n, ch, h, w, hOut, wOut, kernelSize, stride int) {
	dst, in := view[T](out), view[T](input)

	outIdx := 0
	for batch := 0; batch < n; batch++ {
		for c := 0; c < ch; c++ {
			planeOffset := (batch*ch + c) * h * w
			plane := in[planeOffset : planeOffset+h*w]

			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					hStart, wStart := oh*stride, ow*stride

					// First window element seeds the running max, so no
					// sentinel minimum is needed.
					maxPos := hStart*w + wStart
					maxVal := plane[maxPos]
					for kh := 0; kh < kernelSize; kh++ {
						row := plane[(hStart+kh)*w+wStart : (hStart+kh)*w+wStart+kernelSize]
						for kw, v := range row {
							if v > maxVal {
								maxVal = v
								maxPos = (hStart+kh)*w + wStart + kw
							}
						}
					}

					dst[outIdx] = maxVal
					indices[outIdx] = planeOffset + maxPos
					outIdx++
				}
			}
		}
	}
}

// MaxPool2DBackward routes each output gradient to the input position
// that won its pooling window; every other position gets zero.
func (c *Backend) MaxPool2DBackward(grad *tensor.RawTensor, maxIndices []int, inputShape tensor.Shape) *tensor.RawTensor {
	if len(maxIndices) != grad.NumElements() {
		panic(fmt.Sprintf("maxpool2d_backward: %d indices for %d gradients", len(maxIndices), grad.NumElements()))
	}

	inputGrad := mustRaw("maxpool2d_backward", inputShape, grad.DType(), c.device)

	switch grad.DType() {
	case tensor.Float32:
		maxPool2DBackwardEval[float32](inputGrad, grad, maxIndices)
	case tensor.Float64:
		maxPool2DBackwardEval[float64](inputGrad, grad, maxIndices)
	default:
		panic(fmt.Sprintf("maxpool2d_backward: unsupported dtype %s", grad.DType()))
	}
	return inputGrad
}

func maxPool2DBackwardEval[T tensor.DType](inputGrad, grad *tensor.RawTensor, maxIndices []int) {
	dst, gr := view[T](inputGrad), view[T](grad)
	for i, pos := range maxIndices {
		// Windows overlap when stride < kernelSize, so accumulate.
		dst[pos] += gr[i]
	}
}
