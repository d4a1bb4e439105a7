package nn_test

import (
	"math"
	"testing"

	"github.com/primer-ml/primer/internal/autodiff"
	"github.com/primer-ml/primer/internal/backend/cpu"
	"github.com/primer-ml/primer/internal/nn"
	"github.com/primer-ml/primer/internal/tensor"
)

type adBackend = *autodiff.Backend[*cpu.Backend]

func newBackend() adBackend {
	return autodiff.New(cpu.New())
}

func fromSlice[B tensor.Backend](t *testing.T, shape tensor.Shape, data []float32, backend B) *tensor.Tensor[float32, B] {
	t.Helper()
	out, err := tensor.FromSlice[float32](data, shape, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return out
}

func indexTensor[B tensor.Backend](t *testing.T, shape tensor.Shape, data []int32, backend B) *tensor.Tensor[int32, B] {
	t.Helper()
	out, err := tensor.FromSlice[int32](data, shape, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return out
}

func wantClose(t *testing.T, got, want []float32, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if math.Abs(float64(got[i]-want[i])) > tol {
			t.Errorf("element %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

// setDeterministic overwrites every parameter with 0.5*sin(i) for a
// running index i, so training tests never depend on the random init.
func setDeterministic[B tensor.Backend](params []*nn.Parameter[B]) {
	idx := 0
	for _, p := range params {
		data := p.Tensor().Data()
		for i := range data {
			data[i] = float32(0.5 * math.Sin(float64(idx)))
			idx++
		}
	}
}

// sgdStep applies one plain gradient-descent update straight from a tape
// result map.
func sgdStep[B tensor.Backend](t *testing.T, params []*nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor, lr float32) {
	t.Helper()
	for _, p := range params {
		g, ok := grads[p.Tensor().Raw()]
		if !ok {
			t.Fatalf("no gradient for parameter %q", p.Name())
		}
		data := p.Tensor().Data()
		gd := g.AsFloat32()
		for i := range data {
			data[i] -= lr * gd[i]
		}
	}
}

func TestTrainXOR(t *testing.T) {
	backend := newBackend()

	model := nn.NewSequential[adBackend](
		nn.NewLinear(2, 8, backend),
		nn.NewTanh[adBackend](),
		nn.NewLinear(8, 2, backend),
	)
	setDeterministic(model.Parameters())

	x := fromSlice(t, tensor.Shape{4, 2}, []float32{0, 0, 0, 1, 1, 0, 1, 1}, backend)
	y := indexTensor(t, tensor.Shape{4}, []int32{0, 1, 1, 0}, backend)
	criterion := nn.NewCrossEntropyLoss(backend)

	backend.Tape().StartRecording()

	var first, last float32
	for epoch := 0; epoch < 600; epoch++ {
		backend.Tape().Clear()

		logits := model.Forward(x)
		loss := criterion.Forward(logits, y)
		last = loss.Data()[0]
		if epoch == 0 {
			first = last
		}

		grads := autodiff.Backward(loss, backend)
		sgdStep(t, model.Parameters(), grads, 0.5)
	}
	backend.Tape().Clear()
	backend.Tape().StopRecording()

	if last >= first {
		t.Fatalf("loss did not decrease: first %v, last %v", first, last)
	}
	if last > 0.05 {
		t.Errorf("expected converged loss below 0.05, got %v", last)
	}

	logits := model.Forward(x)
	if acc := nn.Accuracy(logits, y); acc != 1.0 {
		t.Errorf("expected perfect accuracy on XOR, got %v", acc)
	}
}

func TestTrainLinearRegression(t *testing.T) {
	backend := newBackend()

	layer := nn.NewLinear(1, 1, backend)
	layer.Weight().Tensor().Data()[0] = 0
	layer.Bias().Tensor().Data()[0] = 0

	// y = 2x + 1 over five points; convex, so plain gradient descent
	// with a small enough step must land on the exact solution.
	x := fromSlice(t, tensor.Shape{5, 1}, []float32{0, 0.25, 0.5, 0.75, 1}, backend)
	y := fromSlice(t, tensor.Shape{5, 1}, []float32{1, 1.5, 2, 2.5, 3}, backend)
	criterion := nn.NewMSELoss[adBackend]()

	backend.Tape().StartRecording()
	for epoch := 0; epoch < 600; epoch++ {
		backend.Tape().Clear()

		pred := layer.Forward(x)
		loss := criterion.Forward(pred, y)
		grads := autodiff.Backward(loss, backend)
		sgdStep(t, layer.Parameters(), grads, 0.3)
	}
	backend.Tape().Clear()
	backend.Tape().StopRecording()

	weight := layer.Weight().Tensor().Data()[0]
	bias := layer.Bias().Tensor().Data()[0]
	if math.Abs(float64(weight-2)) > 1e-2 {
		t.Errorf("expected weight near 2, got %v", weight)
	}
	if math.Abs(float64(bias-1)) > 1e-2 {
		t.Errorf("expected bias near 1, got %v", bias)
	}
}
