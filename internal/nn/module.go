// Package nn provides the building blocks for small neural networks:
// layers, activations, losses and containers, all generic over the compute
// backend.
//
// Modules compose the way PyTorch's nn.Module does, adapted to Go
// generics:
//
//	model := nn.NewSequential[B](
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(128, 10, backend),
//	)
//
// Layers hold float32 parameters. Training requires a backend wrapped by
// the autodiff decorator; plain backends run forward passes only and the
// activation modules will say so when asked for more.
package nn

import (
	"fmt"

	"github.com/primer-ml/primer/internal/tensor"
)

// Module is the interface every network component implements.
//
// StateDict exposes parameters by name for checkpointing; stateless
// modules return nil. LoadStateDict is its inverse and validates shapes
// and dtypes before copying data in place, so loaded weights land in the
// tensors the optimizer and tape already reference.
type Module[B tensor.Backend] interface {
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	Parameters() []*Parameter[B]
	StateDict() map[string]*tensor.RawTensor
	LoadStateDict(state map[string]*tensor.RawTensor) error
}

// loadParam copies state[key] into dst after validating presence, shape
// and dtype. Data is copied rather than swapped: the receiving tensor's
// identity must survive because optimizers and tapes key off it.
func loadParam[B tensor.Backend](state map[string]*tensor.RawTensor, key string, dst *tensor.Tensor[float32, B]) error {
	src, ok := state[key]
	if !ok {
		return fmt.Errorf("missing %q in state dict", key)
	}
	if !src.Shape().Equal(dst.Shape()) {
		return fmt.Errorf("%s shape mismatch: state has %v, module wants %v", key, src.Shape(), dst.Shape())
	}
	if src.DType() != tensor.Float32 {
		return fmt.Errorf("%s dtype mismatch: state has %s, module wants float32", key, src.DType())
	}
	copy(dst.Data(), src.AsFloat32())
	return nil
}
