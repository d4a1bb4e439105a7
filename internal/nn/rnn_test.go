package nn_test

import (
	"math"
	"testing"

	"github.com/primer-ml/primer/internal/autodiff"
	"github.com/primer-ml/primer/internal/nn"
	"github.com/primer-ml/primer/internal/tensor"
)

func TestRNNForwardShape(t *testing.T) {
	backend := newBackend()
	rnn := nn.NewRNN(4, 5, backend)

	x := tensor.Randn[float32](tensor.Shape{2, 3, 4}, backend)
	out := rnn.Forward(x)

	if !out.Shape().Equal(tensor.Shape{2, 5}) {
		t.Fatalf("expected shape [2 5], got %v", out.Shape())
	}
}

func TestRNNKnownValues(t *testing.T) {
	backend := newBackend()
	rnn := nn.NewRNN(2, 2, backend)

	// Identity input and recurrent weights reduce the cell to
	// h_t = tanh(x_t + h_{t-1}).
	copy(rnn.Parameters()[0].Tensor().Data(), []float32{1, 0, 0, 1})
	copy(rnn.Parameters()[1].Tensor().Data(), []float32{1, 0, 0, 1})
	copy(rnn.Parameters()[2].Tensor().Data(), []float32{0, 0})

	x := fromSlice(t, tensor.Shape{1, 2, 2}, []float32{0.5, -0.25, 0.1, 0.2}, backend)
	out := rnn.Forward(x)

	h1a := math.Tanh(0.5)
	h1b := math.Tanh(-0.25)
	want := []float32{
		float32(math.Tanh(0.1 + h1a)),
		float32(math.Tanh(0.2 + h1b)),
	}
	wantClose(t, out.Data(), want, 1e-5)
}

func TestRNNForwardSequence(t *testing.T) {
	backend := newBackend()
	rnn := nn.NewRNN(3, 4, backend)

	x := tensor.Randn[float32](tensor.Shape{2, 5, 3}, backend)
	states := rnn.ForwardSequence(x)

	if len(states) != 5 {
		t.Fatalf("expected 5 states, got %d", len(states))
	}
	for i, s := range states {
		if !s.Shape().Equal(tensor.Shape{2, 4}) {
			t.Errorf("state %d: expected shape [2 4], got %v", i, s.Shape())
		}
	}
	wantClose(t, rnn.Forward(x).Data(), states[4].Data(), 0)
}

func TestRNNGradientsReachAllWeights(t *testing.T) {
	backend := newBackend()
	rnn := nn.NewRNN(2, 3, backend)
	setDeterministic(rnn.Parameters())

	x := fromSlice(t, tensor.Shape{1, 3, 2}, []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}, backend)

	backend.Tape().StartRecording()
	defer backend.Tape().StopRecording()

	loss := rnn.Forward(x).Sum()
	grads := autodiff.Backward(loss, backend)

	for _, p := range rnn.Parameters() {
		g := grads[p.Tensor().Raw()]
		if g == nil {
			t.Fatalf("no gradient for %q", p.Name())
		}
		if !g.Shape().Equal(p.Tensor().Shape()) {
			t.Errorf("%q gradient shape %v, want %v", p.Name(), g.Shape(), p.Tensor().Shape())
		}
	}

	// The recurrent weight only matters from the second step on; with
	// three steps its gradient must be nonzero.
	hh := grads[rnn.Parameters()[1].Tensor().Raw()].AsFloat32()
	var norm float64
	for _, v := range hh {
		norm += float64(v * v)
	}
	if norm == 0 {
		t.Error("recurrent weight gradient is all zeros across 3 steps")
	}

	if grads[x.Raw()] == nil {
		t.Error("no gradient for the input sequence")
	}
}

func TestRNNInputValidation(t *testing.T) {
	backend := newBackend()
	rnn := nn.NewRNN(3, 2, backend)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for 2D input")
		}
	}()
	rnn.Forward(fromSlice(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6}, backend))
}

func TestRNNStateDictRoundTrip(t *testing.T) {
	backend := newBackend()
	src := nn.NewRNN(3, 4, backend)
	dst := nn.NewRNN(3, 4, backend)

	if err := dst.LoadStateDict(src.StateDict()); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}

	x := tensor.Randn[float32](tensor.Shape{2, 4, 3}, backend)
	wantClose(t, dst.Forward(x).Data(), src.Forward(x).Data(), 0)
}
