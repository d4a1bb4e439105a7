package cpu

import (
	"fmt"

	"github.com/primer-ml/primer/internal/parallel"
	"github.com/primer-ml/primer/internal/tensor"
)

// Conv2D performs 2D convolution over NCHW tensors.
//
// Input shape:  [N, C_in, H, W]
// Kernel shape: [C_out, C_in, K_h, K_w]
// Output shape: [N, C_out, H_out, W_out] where
// H_out = (H + 2*padding - K_h)/stride + 1 and likewise for W_out.
//
// The (batch, out channel) planes are independent, so they are computed
// in parallel across the worker pool.
func (c *Backend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inShape, kShape := input.Shape(), kernel.Shape()
	if len(inShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inShape)))
	}
	if len(kShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kShape)))
	}

	n, cIn, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	cOut, kH, kW := kShape[0], kShape[2], kShape[3]
	if kShape[1] != cIn {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", cIn, kShape[1]))
	}

	hOut := (h+2*padding-kH)/stride + 1
	wOut := (w+2*padding-kW)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("conv2d: output would be %dx%d, check stride and padding", hOut, wOut))
	}

	out := mustRaw("conv2d", tensor.Shape{n, cOut, hOut, wOut}, input.DType(), c.device)

	geom := convGeom{
		n: n, cIn: cIn, h: h, w: w,
		cOut: cOut, kH: kH, kW: kW,
		hOut: hOut, wOut: wOut,
		stride: stride, padding: padding,
	}

	switch input.DType() {
	case tensor.Float32:
		conv2dEval[float32](out, input, kernel, geom, c.pool)
	case tensor.Float64:
		conv2dEval[float64](out, input, kernel, geom, c.pool)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}
	return out
}

// convGeom bundles the loop bounds shared by the convolution kernels.
type convGeom struct {
	n, cIn, h, w    int
	cOut, kH, kW    int
	hOut, wOut      int
	stride, padding int
}

// conv2dEval computes one output plane per (batch, out channel) pair.
func conv2dEval[T tensor.DType](out, input, kernel *tensor.RawTensor, g convGeom, pool parallel.Config) {
	dst, in, kern := view[T](out), view[T](input), view[T](kernel)

	parallel.ForBatch(g.n, g.cOut, func(batch, co int) {
		inBatch := in[batch*g.cIn*g.h*g.w : (batch+1)*g.cIn*g.h*g.w]
		kernCo := kern[co*g.cIn*g.kH*g.kW : (co+1)*g.cIn*g.kH*g.kW]
		outPlane := dst[(batch*g.cOut+co)*g.hOut*g.wOut : (batch*g.cOut+co+1)*g.hOut*g.wOut]

		for oh := 0; oh < g.hOut; oh++ {
			hStart := oh*g.stride - g.padding
			for ow := 0; ow < g.wOut; ow++ {
				wStart := ow*g.stride - g.padding

				var sum T
				for ci := 0; ci < g.cIn; ci++ {
					inPlane := inBatch[ci*g.h*g.w : (ci+1)*g.h*g.w]
					kernPlane := kernCo[ci*g.kH*g.kW : (ci+1)*g.kH*g.kW]
					for kh := 0; kh < g.kH; kh++ {
						hPos := hStart + kh
						if hPos < 0 || hPos >= g.h {
							continue
						}
						inRow := inPlane[hPos*g.w : (hPos+1)*g.w]
						kernRow := kernPlane[kh*g.kW : (kh+1)*g.kW]
						for kw := 0; kw < g.kW; kw++ {
							wPos := wStart + kw
							if wPos < 0 || wPos >= g.w {
								continue
							}
							sum += inRow[wPos] * kernRow[kw]
						}
					}
				}
				outPlane[oh*g.wOut+ow] = sum
			}
		}
	}, pool)
}
