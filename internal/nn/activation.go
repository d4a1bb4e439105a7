package nn

import (
	"github.com/primer-ml/primer/internal/tensor"
)

// ReLUBackend is implemented by backends that can apply a rectified
// linear unit. The autodiff decorator provides it; plain backends do not.
type ReLUBackend interface {
	ReLU(x *tensor.RawTensor) *tensor.RawTensor
}

// SigmoidBackend is implemented by backends that can apply the logistic
// function.
type SigmoidBackend interface {
	Sigmoid(x *tensor.RawTensor) *tensor.RawTensor
}

// TanhBackend is implemented by backends that can apply the hyperbolic
// tangent.
type TanhBackend interface {
	Tanh(x *tensor.RawTensor) *tensor.RawTensor
}

// ReLU applies max(0, x) element-wise. It has no parameters.
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies the activation.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	rb, ok := any(backend).(ReLUBackend)
	if !ok {
		panic("nn: backend does not implement ReLU, wrap it with autodiff.New")
	}
	return tensor.New[float32, B](rb.ReLU(input.Raw()), backend)
}

// Parameters returns nil; the activation is stateless.
func (r *ReLU[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns nil; there is nothing to checkpoint.
func (r *ReLU[B]) StateDict() map[string]*tensor.RawTensor { return nil }

// LoadStateDict is a no-op.
func (r *ReLU[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// Sigmoid applies 1/(1+e^-x) element-wise. It has no parameters.
type Sigmoid[B tensor.Backend] struct{}

// NewSigmoid creates a Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{}
}

// Forward applies the activation.
func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	sb, ok := any(backend).(SigmoidBackend)
	if !ok {
		panic("nn: backend does not implement Sigmoid, wrap it with autodiff.New")
	}
	return tensor.New[float32, B](sb.Sigmoid(input.Raw()), backend)
}

// Parameters returns nil; the activation is stateless.
func (s *Sigmoid[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns nil; there is nothing to checkpoint.
func (s *Sigmoid[B]) StateDict() map[string]*tensor.RawTensor { return nil }

// LoadStateDict is a no-op.
func (s *Sigmoid[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// Tanh applies the hyperbolic tangent element-wise. It has no parameters.
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies the activation.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	tb, ok := any(backend).(TanhBackend)
	if !ok {
		panic("nn: backend does not implement Tanh, wrap it with autodiff.New")
	}
	return tensor.New[float32, B](tb.Tanh(input.Raw()), backend)
}

// Parameters returns nil; the activation is stateless.
func (t *Tanh[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns nil; there is nothing to checkpoint.
func (t *Tanh[B]) StateDict() map[string]*tensor.RawTensor { return nil }

// LoadStateDict is a no-op.
func (t *Tanh[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }
