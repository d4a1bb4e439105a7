package nn

import (
	"github.com/primer-ml/primer/internal/tensor"
)

// Parameter is a named trainable tensor with a slot for its gradient.
// Weights and biases of layers are Parameters; the optimizer walks them
// and looks their gradients up in the tape's result map by raw identity.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
	grad   *tensor.Tensor[float32, B]
}

// NewParameter wraps an initialized tensor as a trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the parameter name ("weight", "bias", ...).
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Grad returns the stored gradient, nil before the first backward pass.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SetGrad stores a gradient, typically pulled out of a tape result map.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// ZeroGrad drops the stored gradient before the next iteration.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}
