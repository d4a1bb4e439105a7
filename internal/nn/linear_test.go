package nn_test

import (
	"math"
	"testing"

	"github.com/primer-ml/primer/internal/autodiff"
	"github.com/primer-ml/primer/internal/nn"
	"github.com/primer-ml/primer/internal/tensor"
)

func TestLinearForward(t *testing.T) {
	backend := newBackend()
	layer := nn.NewLinear(2, 3, backend)

	copy(layer.Weight().Tensor().Data(), []float32{1, 0, 0, 1, 1, 1})
	copy(layer.Bias().Tensor().Data(), []float32{0.5, -0.5, 0})

	x := fromSlice(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4}, backend)
	out := layer.Forward(x)

	if !out.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("expected shape [2 3], got %v", out.Shape())
	}
	wantClose(t, out.Data(), []float32{1.5, 1.5, 3, 3.5, 3.5, 7}, 1e-6)
}

func TestLinearXavierInit(t *testing.T) {
	backend := newBackend()
	layer := nn.NewLinear(64, 32, backend)

	bound := math.Sqrt(6.0 / (64 + 32))
	for i, v := range layer.Weight().Tensor().Data() {
		if math.Abs(float64(v)) > bound {
			t.Fatalf("weight %d = %v outside Xavier bound %v", i, v, bound)
		}
	}
	for i, v := range layer.Bias().Tensor().Data() {
		if v != 0 {
			t.Fatalf("bias %d = %v, want 0", i, v)
		}
	}
}

func TestLinearInputValidation(t *testing.T) {
	backend := newBackend()
	layer := nn.NewLinear(3, 2, backend)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for mismatched input features")
		}
	}()
	layer.Forward(fromSlice(t, tensor.Shape{1, 4}, []float32{1, 2, 3, 4}, backend))
}

func TestLinearGradients(t *testing.T) {
	backend := newBackend()
	layer := nn.NewLinear(2, 2, backend)

	copy(layer.Weight().Tensor().Data(), []float32{1, 2, 3, 4})
	copy(layer.Bias().Tensor().Data(), []float32{0, 0})

	x := fromSlice(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4}, backend)

	backend.Tape().StartRecording()
	defer backend.Tape().StopRecording()

	loss := layer.Forward(x).Sum()
	grads := autodiff.Backward(loss, backend)

	// d(sum)/dW[o][k] = sum over batch of x[i][k], the same for each o.
	wGrad := grads[layer.Weight().Tensor().Raw()]
	if wGrad == nil {
		t.Fatal("no gradient for weight")
	}
	wantClose(t, wGrad.AsFloat32(), []float32{4, 6, 4, 6}, 1e-5)

	// d(sum)/db[o] = batch size.
	bGrad := grads[layer.Bias().Tensor().Raw()]
	if bGrad == nil {
		t.Fatal("no gradient for bias")
	}
	wantClose(t, bGrad.AsFloat32(), []float32{2, 2}, 1e-5)
}

func TestLinearStateDictRoundTrip(t *testing.T) {
	backend := newBackend()
	src := nn.NewLinear(3, 2, backend)
	dst := nn.NewLinear(3, 2, backend)

	state := src.StateDict()
	if err := dst.LoadStateDict(state); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}

	wantClose(t, dst.Weight().Tensor().Data(), src.Weight().Tensor().Data(), 0)
	wantClose(t, dst.Bias().Tensor().Data(), src.Bias().Tensor().Data(), 0)
}

func TestLinearLoadStateDictValidates(t *testing.T) {
	backend := newBackend()
	layer := nn.NewLinear(3, 2, backend)

	if err := layer.LoadStateDict(map[string]*tensor.RawTensor{}); err == nil {
		t.Error("expected error for missing weight")
	}

	wrong := nn.NewLinear(4, 2, backend)
	if err := layer.LoadStateDict(wrong.StateDict()); err == nil {
		t.Error("expected error for mismatched weight shape")
	}
}
