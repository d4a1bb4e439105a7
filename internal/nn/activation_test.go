package nn_test

import (
	"testing"

	"github.com/primer-ml/primer/internal/backend/cpu"
	"github.com/primer-ml/primer/internal/nn"
	"github.com/primer-ml/primer/internal/tensor"
)

func TestReLUModule(t *testing.T) {
	backend := newBackend()
	relu := nn.NewReLU[adBackend]()

	x := fromSlice(t, tensor.Shape{2, 2}, []float32{-1, 2, -3, 4}, backend)
	out := relu.Forward(x)

	wantClose(t, out.Data(), []float32{0, 2, 0, 4}, 0)
	if relu.Parameters() != nil {
		t.Error("ReLU should have no parameters")
	}
}

func TestSigmoidModule(t *testing.T) {
	backend := newBackend()
	sigmoid := nn.NewSigmoid[adBackend]()

	x := fromSlice(t, tensor.Shape{3}, []float32{0, 2, -2}, backend)
	out := sigmoid.Forward(x)

	wantClose(t, out.Data(), []float32{0.5, 0.8807971, 0.11920292}, 1e-6)
}

func TestTanhModule(t *testing.T) {
	backend := newBackend()
	tanh := nn.NewTanh[adBackend]()

	x := fromSlice(t, tensor.Shape{3}, []float32{0, 1, -1}, backend)
	out := tanh.Forward(x)

	wantClose(t, out.Data(), []float32{0, 0.7615942, -0.7615942}, 1e-6)
}

func TestActivationRequiresCapableBackend(t *testing.T) {
	// The raw cpu backend has no ReLU; the module must say so rather
	// than silently pass data through.
	backend := cpu.New()
	relu := nn.NewReLU[*cpu.Backend]()

	x, err := tensor.FromSlice[float32]([]float32{1, -1}, tensor.Shape{2}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for backend without ReLU")
		}
	}()
	relu.Forward(x)
}
