package autodiff

import (
	"fmt"

	"github.com/primer-ml/primer/internal/tensor"
)

// BackwardCapable is the interface trained code works against: a full
// tensor backend that also exposes a gradient tape. The autodiff Backend
// decorator is the implementation.
type BackwardCapable interface {
	tensor.Backend
	GetTape() *Tape
}

// GetTape returns the gradient tape, satisfying BackwardCapable.
func (b *Backend[B]) GetTape() *Tape {
	return b.tape
}

// Backward computes gradients of t with respect to everything it was
// computed from, seeding with a ones tensor of t's shape. For the usual
// scalar loss this is dL/dL = 1.
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	loss := ... // forward pass through backend
//	grads := autodiff.Backward(loss, backend)
//	g := grads[w.Raw()]
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	if dt := t.DType(); dt != tensor.Float32 && dt != tensor.Float64 {
		panic(fmt.Sprintf("autodiff: cannot differentiate %s tensors", dt))
	}

	tape := backend.GetTape()
	if tape.NumOps() == 0 {
		panic("autodiff: no operations recorded, call Tape().StartRecording() before the forward pass")
	}

	outputGrad := tensor.Ones[T, B](t.Shape(), backend).Raw()
	return tape.Backward(t.Raw(), outputGrad, backend)
}
