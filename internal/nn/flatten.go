package nn

import (
	"fmt"

	"github.com/primer-ml/primer/internal/tensor"
)

// Flatten collapses all dimensions after the batch dimension, turning
// [batch, d1, d2, ...] into [batch, d1*d2*...]. The usual bridge between
// a convolutional stack and a fully connected head.
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a Flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{}
}

// Forward reshapes the input. Reshape is a view, so this costs nothing.
func (f *Flatten[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("flatten: expected at least 2D input, got %v", shape))
	}

	features := 1
	for _, dim := range shape[1:] {
		features *= dim
	}
	return input.Reshape(shape[0], features)
}

// Parameters returns nil; the module is stateless.
func (f *Flatten[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns nil; there is nothing to checkpoint.
func (f *Flatten[B]) StateDict() map[string]*tensor.RawTensor { return nil }

// LoadStateDict is a no-op.
func (f *Flatten[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }
