package nn

import (
	"fmt"

	"github.com/primer-ml/primer/internal/tensor"
)

// Conv2D is a 2D convolution over NCHW input.
//
// The kernel has shape [outChannels, inChannels, kernelH, kernelW]. A
// single stride and padding apply to both spatial dimensions.
type Conv2D[B tensor.Backend] struct {
	weight  *Parameter[B]
	bias    *Parameter[B]
	backend B

	inChannels  int
	outChannels int
	kernelH     int
	kernelW     int
	stride      int
	padding     int
}

// NewConv2D creates a convolution layer. The kernel is initialized with
// Xavier uniform using the receptive-field fan sizes; the bias, when
// enabled, starts at zero.
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelH, kernelW, stride, padding int, useBias bool, backend B) *Conv2D[B] {
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channels in=%d out=%d", inChannels, outChannels))
	}
	if kernelH <= 0 || kernelW <= 0 {
		panic(fmt.Sprintf("conv2d: invalid kernel size %dx%d", kernelH, kernelW))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid padding %d", padding))
	}

	fanIn := inChannels * kernelH * kernelW
	fanOut := outChannels * kernelH * kernelW
	weight := Xavier(fanIn, fanOut, tensor.Shape{outChannels, inChannels, kernelH, kernelW}, backend)

	c := &Conv2D[B]{
		weight:      NewParameter("weight", weight),
		backend:     backend,
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelH:     kernelH,
		kernelW:     kernelW,
		stride:      stride,
		padding:     padding,
	}
	if useBias {
		c.bias = NewParameter("bias", Zeros(tensor.Shape{outChannels}, backend))
	}
	return c
}

// Forward convolves a [batch, inChannels, H, W] input.
func (c *Conv2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("conv2d: expected 4D input [batch, channels, h, w], got %v", shape))
	}
	if shape[1] != c.inChannels {
		panic(fmt.Sprintf("conv2d: expected %d input channels, got %d", c.inChannels, shape[1]))
	}

	raw := c.backend.Conv2D(input.Raw(), c.weight.Tensor().Raw(), c.stride, c.padding)
	out := tensor.New[float32, B](raw, c.backend)
	if c.bias != nil {
		out = out.Add(c.bias.Tensor().Reshape(1, c.outChannels, 1, 1))
	}
	return out
}

// Parameters returns the kernel and, when enabled, the bias.
func (c *Conv2D[B]) Parameters() []*Parameter[B] {
	params := []*Parameter[B]{c.weight}
	if c.bias != nil {
		params = append(params, c.bias)
	}
	return params
}

// StateDict exposes the kernel and bias for checkpointing.
func (c *Conv2D[B]) StateDict() map[string]*tensor.RawTensor {
	state := map[string]*tensor.RawTensor{"weight": c.weight.Tensor().Raw()}
	if c.bias != nil {
		state["bias"] = c.bias.Tensor().Raw()
	}
	return state
}

// LoadStateDict copies checkpoint data into the layer's tensors.
func (c *Conv2D[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	if err := loadParam(state, "weight", c.weight.Tensor()); err != nil {
		return err
	}
	if c.bias != nil {
		return loadParam(state, "bias", c.bias.Tensor())
	}
	return nil
}

// OutputSize returns the spatial output size for an input of h by w.
func (c *Conv2D[B]) OutputSize(h, w int) (int, int) {
	outH := (h+2*c.padding-c.kernelH)/c.stride + 1
	outW := (w+2*c.padding-c.kernelW)/c.stride + 1
	return outH, outW
}

// Weight returns the kernel parameter.
func (c *Conv2D[B]) Weight() *Parameter[B] { return c.weight }

// Bias returns the bias parameter, nil when disabled.
func (c *Conv2D[B]) Bias() *Parameter[B] { return c.bias }

// String describes the layer.
func (c *Conv2D[B]) String() string {
	return fmt.Sprintf("Conv2D(in=%d, out=%d, kernel=%dx%d, stride=%d, padding=%d)",
		c.inChannels, c.outChannels, c.kernelH, c.kernelW, c.stride, c.padding)
}
