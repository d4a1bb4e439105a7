// Package optim implements gradient-descent optimizers.
//
// Optimizers walk a model's parameters and look up each one's gradient in
// the map returned by autodiff.Backward, updating parameter data in
// place:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001}, backend)
//	for epoch := 0; epoch < epochs; epoch++ {
//	    backend.Tape().Clear()
//	    loss := criterion.Forward(model.Forward(x), y)
//	    grads := autodiff.Backward(loss, backend)
//	    optimizer.Step(grads)
//	    optimizer.ZeroGrad()
//	}
package optim

import (
	"github.com/primer-ml/primer/internal/nn"
	"github.com/primer-ml/primer/internal/tensor"
)

// Optimizer updates parameters from a gradient map.
type Optimizer interface {
	// Step applies one update using the gradients from a backward pass.
	// Parameters absent from the map are skipped.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears the stored gradient of every parameter.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32

	// StateDict exposes internal buffers (momenta, timesteps) for
	// checkpointing.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores internal buffers from a checkpoint.
	LoadStateDict(state map[string]*tensor.RawTensor) error
}

// getGradient looks up the gradient recorded for a parameter, nil when
// the parameter did not participate in the forward pass.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}
