package nn

import (
	"fmt"

	"github.com/primer-ml/primer/internal/tensor"
)

// MSELoss computes the mean squared error between predictions and
// targets.
type MSELoss[B tensor.Backend] struct{}

// NewMSELoss creates the loss.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return &MSELoss[B]{}
}

// Forward returns mean((pred - target)²) as a scalar tensor. The whole
// computation is built from tape ops, including the final mean, so the
// 1/n factor is part of the recorded graph and gradients come out scaled
// correctly.
func (m *MSELoss[B]) Forward(pred, target *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !pred.Shape().Equal(target.Shape()) {
		panic(fmt.Sprintf("mse: shape mismatch %v vs %v", pred.Shape(), target.Shape()))
	}

	n := pred.Shape().NumElements()
	diff := pred.Sub(target)
	return diff.Mul(diff).Sum().MulScalar(float32(1) / float32(n))
}
