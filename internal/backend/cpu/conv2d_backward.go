package cpu

import (
	"fmt"

	"github.com/primer-ml/primer/internal/parallel"
	"github.com/primer-ml/primer/internal/tensor"
)

// Conv2DInputBackward computes the convolution gradient with respect to
// the input (a transposed convolution of the output gradient with the
// kernel). Each (batch, in channel) gradient plane is independent, so the
// outer loop runs on the worker pool.
func (c *Backend) Conv2DInputBackward(grad, kernel *tensor.RawTensor, stride, padding int, inputShape tensor.Shape) *tensor.RawTensor {
	kShape, gShape := kernel.Shape(), grad.Shape()

	g := convGeom{
		n: inputShape[0], cIn: inputShape[1], h: inputShape[2], w: inputShape[3],
		cOut: kShape[0], kH: kShape[2], kW: kShape[3],
		hOut: gShape[2], wOut: gShape[3],
		stride: stride, padding: padding,
	}

	inputGrad := mustRaw("conv2d_input_backward", inputShape, grad.DType(), c.device)

	switch grad.DType() {
	case tensor.Float32:
		conv2dInputBackwardEval[float32](inputGrad, grad, kernel, g, c.pool)
	case tensor.Float64:
		conv2dInputBackwardEval[float64](inputGrad, grad, kernel, g, c.pool)
	default:
		panic(fmt.Sprintf("conv2d_input_backward: unsupported dtype %s", grad.DType()))
	}
	return inputGrad
}

// conv2dInputBackwardEval gathers, for each input position, the
// contributions of every output position whose window covered it.
func conv2dInputBackwardEval[T tensor.DType](inputGrad, grad, kernel *tensor.RawTensor, g convGeom, pool parallel.Config) {
	dst, gr, kern := view[T](inputGrad), view[T](grad), view[T](kernel)

	parallel.ForBatch(g.n, g.cIn, func(batch, ci int) {
		dstPlane := dst[(batch*g.cIn+ci)*g.h*g.w : (batch*g.cIn+ci+1)*g.h*g.w]
		gradBatch := gr[batch*g.cOut*g.hOut*g.wOut : (batch+1)*g.cOut*g.hOut*g.wOut]

		for co := 0; co < g.cOut; co++ {
			gradPlane := gradBatch[co*g.hOut*g.wOut : (co+1)*g.hOut*g.wOut]
			kernPlane := kern[(co*g.cIn+ci)*g.kH*g.kW : (co*g.cIn+ci+1)*g.kH*g.kW]

			for oh := 0; oh < g.hOut; oh++ {
				hStart := oh*g.stride - g.padding
				for ow := 0; ow < g.wOut; ow++ {
					wStart := ow*g.stride - g.padding
					gv := gradPlane[oh*g.wOut+ow]
					if gv == 0 {
						continue
					}

					for kh := 0; kh < g.kH; kh++ {
						hPos := hStart + kh
						if hPos < 0 || hPos >= g.h {
							continue
						}
						for kw := 0; kw < g.kW; kw++ {
							wPos := wStart + kw
							if wPos < 0 || wPos >= g.w {
								continue
							}
							dstPlane[hPos*g.w+wPos] += gv * kernPlane[kh*g.kW+kw]
						}
					}
				}
			}
		}
	}, pool)
}

// Conv2DKernelBackward computes the convolution gradient with respect to
// the kernel: a correlation of the input with the output gradient,
// accumulated over the batch. Each (out channel, in channel) gradient
// plane is independent.
func (c *Backend) Conv2DKernelBackward(grad, input *tensor.RawTensor, stride, padding int, kernelShape tensor.Shape) *tensor.RawTensor {
	inShape, gShape := input.Shape(), grad.Shape()

	g := convGeom{
		n: inShape[0], cIn: inShape[1], h: inShape[2], w: inShape[3],
		cOut: kernelShape[0], kH: kernelShape[2], kW: kernelShape[3],
		hOut: gShape[2], wOut: gShape[3],
		stride: stride, padding: padding,
	}

	kernelGrad := mustRaw("conv2d_kernel_backward", kernelShape, grad.DType(), c.device)

	switch grad.DType() {
	case tensor.Float32:
		conv2dKernelBackwardEval[float32](kernelGrad, grad, input, g, c.pool)
	case tensor.Float64:
		conv2dKernelBackwardEval[float64](kernelGrad, grad, input, g, c.pool)
	default:
		panic(fmt.Sprintf("conv2d_kernel_backward: unsupported dtype %s", grad.DType()))
	}
	return kernelGrad
}

func conv2dKernelBackwardEval[T tensor.DType](kernelGrad, grad, input *tensor.RawTensor, g convGeom, pool parallel.Config) {
	dst, gr, in := view[T](kernelGrad), view[T](grad), view[T](input)

	parallel.ForBatch(g.cOut, g.cIn, func(co, ci int) {
		dstPlane := dst[(co*g.cIn+ci)*g.kH*g.kW : (co*g.cIn+ci+1)*g.kH*g.kW]

		for kh := 0; kh < g.kH; kh++ {
			for kw := 0; kw < g.kW; kw++ {
				var sum T
				for batch := 0; batch < g.n; batch++ {
					inPlane := in[(batch*g.cIn+ci)*g.h*g.w : (batch*g.cIn+ci+1)*g.h*g.w]
					gradPlane := gr[(batch*g.cOut+co)*g.hOut*g.wOut : (batch*g.cOut+co+1)*g.hOut*g.wOut]

					for oh := 0; oh < g.hOut; oh++ {
						hPos := oh*g.stride - g.padding + kh
						if hPos < 0 || hPos >= g.h {
							continue
						}
						for ow := 0; ow < g.wOut; ow++ {
							wPos := ow*g.stride - g.padding + kw
							if wPos < 0 || wPos >= g.w {
								continue
							}
							sum += gradPlane[oh*g.wOut+ow] * inPlane[hPos*g.w+wPos]
						}
					}
				}
				dstPlane[kh*g.kW+kw] = sum
			}
		}
	}, pool)
}
