package nn_test

import (
	"testing"

	"github.com/primer-ml/primer/internal/autodiff"
	"github.com/primer-ml/primer/internal/nn"
	"github.com/primer-ml/primer/internal/tensor"
)

func TestMSELossValue(t *testing.T) {
	backend := newBackend()
	criterion := nn.NewMSELoss[adBackend]()

	pred := fromSlice(t, tensor.Shape{3}, []float32{1, 2, 3}, backend)
	target := fromSlice(t, tensor.Shape{3}, []float32{0, 2, 5}, backend)

	loss := criterion.Forward(pred, target)
	if !loss.Shape().Equal(tensor.Shape{1}) {
		t.Fatalf("expected scalar loss, got shape %v", loss.Shape())
	}
	wantClose(t, loss.Data(), []float32{5.0 / 3.0}, 1e-6)
}

func TestMSELossGradient(t *testing.T) {
	backend := newBackend()
	criterion := nn.NewMSELoss[adBackend]()

	pred := fromSlice(t, tensor.Shape{3}, []float32{1, 2, 3}, backend)
	target := fromSlice(t, tensor.Shape{3}, []float32{0, 2, 5}, backend)

	backend.Tape().StartRecording()
	defer backend.Tape().StopRecording()

	loss := criterion.Forward(pred, target)
	grads := autodiff.Backward(loss, backend)

	// d/dpred mean((p-t)²) = 2(p-t)/n, with the 1/n on the tape.
	grad := grads[pred.Raw()]
	if grad == nil {
		t.Fatal("no gradient for predictions")
	}
	wantClose(t, grad.AsFloat32(), []float32{2.0 / 3.0, 0, -4.0 / 3.0}, 1e-6)
}

func TestMSELossShapeMismatch(t *testing.T) {
	backend := newBackend()
	criterion := nn.NewMSELoss[adBackend]()

	defer func() {
		if recover() == nil {
			t.Error("expected panic for mismatched shapes")
		}
	}()
	criterion.Forward(
		fromSlice(t, tensor.Shape{2}, []float32{1, 2}, backend),
		fromSlice(t, tensor.Shape{3}, []float32{1, 2, 3}, backend),
	)
}
