package optim_test

import (
	"math"
	"testing"

	"github.com/primer-ml/primer/internal/autodiff"
	"github.com/primer-ml/primer/internal/backend/cpu"
	"github.com/primer-ml/primer/internal/nn"
	"github.com/primer-ml/primer/internal/optim"
	"github.com/primer-ml/primer/internal/tensor"
)

type adBackend = *autodiff.Backend[*cpu.Backend]

var (
	_ optim.Optimizer = (*optim.SGD[*cpu.Backend])(nil)
	_ optim.Optimizer = (*optim.Adam[*cpu.Backend])(nil)
)

func newParam(t *testing.T, backend *cpu.Backend, name string, data []float32) *nn.Parameter[*cpu.Backend] {
	t.Helper()
	tt, err := tensor.FromSlice[float32](data, tensor.Shape{len(data)}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return nn.NewParameter(name, tt)
}

func gradFor(t *testing.T, param *nn.Parameter[*cpu.Backend], data []float32) map[*tensor.RawTensor]*tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(param.Tensor().Shape(), tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return map[*tensor.RawTensor]*tensor.RawTensor{param.Tensor().Raw(): raw}
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

func TestSGDStep(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, "weight", []float32{1, 2})
	sgd := optim.NewSGD([]*nn.Parameter[*cpu.Backend]{param}, optim.SGDConfig{LR: 0.1}, backend)

	sgd.Step(gradFor(t, param, []float32{1, -2}))
	wantClose(t, param.Tensor().Data(), []float32{0.9, 2.2}, 1e-6)
}

func TestSGDDefaultLR(t *testing.T) {
	backend := cpu.New()
	sgd := optim.NewSGD(nil, optim.SGDConfig{}, backend)
	if sgd.GetLR() != 0.01 {
		t.Errorf("default LR %v, want 0.01", sgd.GetLR())
	}
}

func TestSGDMomentum(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, "weight", []float32{0})
	sgd := optim.NewSGD([]*nn.Parameter[*cpu.Backend]{param}, optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)

	// Constant gradient 1: v1 = 1, v2 = 1.9, so the parameter moves
	// 0.1 then 0.19.
	sgd.Step(gradFor(t, param, []float32{1}))
	wantClose(t, param.Tensor().Data(), []float32{-0.1}, 1e-6)

	sgd.Step(gradFor(t, param, []float32{1}))
	wantClose(t, param.Tensor().Data(), []float32{-0.29}, 1e-6)
}

func TestSGDSkipsParamsWithoutGrad(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, "weight", []float32{5})
	sgd := optim.NewSGD([]*nn.Parameter[*cpu.Backend]{param}, optim.SGDConfig{LR: 0.1}, backend)

	sgd.Step(map[*tensor.RawTensor]*tensor.RawTensor{})
	wantClose(t, param.Tensor().Data(), []float32{5}, 0)
}

func TestSGDStateDictRoundTrip(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, "weight", []float32{0, 0})
	src := optim.NewSGD([]*nn.Parameter[*cpu.Backend]{param}, optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)
	src.Step(gradFor(t, param, []float32{1, 2}))

	dst := optim.NewSGD([]*nn.Parameter[*cpu.Backend]{param}, optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)
	if err := dst.LoadStateDict(src.StateDict()); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}

	// Both must now produce identical updates.
	before := make([]float32, 2)
	copy(before, param.Tensor().Data())
	dst.Step(gradFor(t, param, []float32{1, 2}))
	// v was {1, 2}; next v = {1.9, 3.8}; delta = -0.1*v.
	want := []float32{before[0] - 0.19, before[1] - 0.38}
	wantClose(t, param.Tensor().Data(), want, 1e-6)
}

func TestSGDPlainStateDictEmpty(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, "weight", []float32{1})
	sgd := optim.NewSGD([]*nn.Parameter[*cpu.Backend]{param}, optim.SGDConfig{LR: 0.1}, backend)

	if state := sgd.StateDict(); len(state) != 0 {
		t.Errorf("plain SGD should export no state, got %d entries", len(state))
	}
}

func TestAdamDefaults(t *testing.T) {
	backend := cpu.New()
	adam := optim.NewAdam(nil, optim.AdamConfig{}, backend)
	if adam.GetLR() != 0.001 {
		t.Errorf("default LR %v, want 0.001", adam.GetLR())
	}
}

func TestAdamFirstStepMagnitude(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, "weight", []float32{1})
	adam := optim.NewAdam([]*nn.Parameter[*cpu.Backend]{param}, optim.AdamConfig{LR: 0.001}, backend)

	// With bias correction the first update has magnitude lr no matter
	// how large the gradient is.
	adam.Step(gradFor(t, param, []float32{100}))
	wantClose(t, param.Tensor().Data(), []float32{1 - 0.001}, 1e-6)

	if adam.Timestep() != 1 {
		t.Errorf("timestep %d, want 1", adam.Timestep())
	}
}

func TestAdamConvergesOnQuadratic(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, "weight", []float32{0})
	adam := optim.NewAdam([]*nn.Parameter[*cpu.Backend]{param}, optim.AdamConfig{LR: 0.1}, backend)

	// Minimize (p-3)² with hand-computed gradients.
	for i := 0; i < 2000; i++ {
		p := param.Tensor().Data()[0]
		adam.Step(gradFor(t, param, []float32{2 * (p - 3)}))
	}
	wantClose(t, param.Tensor().Data(), []float32{3}, 0.05)
}

func TestAdamStateDictRoundTrip(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, "weight", []float32{0})
	src := optim.NewAdam([]*nn.Parameter[*cpu.Backend]{param}, optim.AdamConfig{LR: 0.01}, backend)
	for i := 0; i < 5; i++ {
		src.Step(gradFor(t, param, []float32{1}))
	}

	dst := optim.NewAdam([]*nn.Parameter[*cpu.Backend]{param}, optim.AdamConfig{LR: 0.01}, backend)
	if err := dst.LoadStateDict(src.StateDict()); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}

	if dst.Timestep() != 5 {
		t.Errorf("restored timestep %d, want 5", dst.Timestep())
	}

	state := src.StateDict()
	if _, ok := state["m.0"]; !ok {
		t.Error("missing first moment in state dict")
	}
	if _, ok := state["v.0"]; !ok {
		t.Error("missing second moment in state dict")
	}
	if _, ok := state["t"]; !ok {
		t.Error("missing timestep in state dict")
	}
}

func TestAdamLoadStateDictValidatesShapes(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, "weight", []float32{0, 0})
	adam := optim.NewAdam([]*nn.Parameter[*cpu.Backend]{param}, optim.AdamConfig{}, backend)

	bad, err := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	if err := adam.LoadStateDict(map[string]*tensor.RawTensor{"m.0": bad}); err == nil {
		t.Error("expected error for mismatched moment shape")
	}
}

func TestTrainThroughOptimizer(t *testing.T) {
	backend := autodiff.New(cpu.New())

	layer := nn.NewLinear(1, 1, backend)
	layer.Weight().Tensor().Data()[0] = 0
	layer.Bias().Tensor().Data()[0] = 0

	x, err := tensor.FromSlice[float32]([]float32{0, 0.25, 0.5, 0.75, 1}, tensor.Shape{5, 1}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	y, err := tensor.FromSlice[float32]([]float32{1, 1.5, 2, 2.5, 3}, tensor.Shape{5, 1}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	criterion := nn.NewMSELoss[adBackend]()
	sgd := optim.NewSGD(layer.Parameters(), optim.SGDConfig{LR: 0.05, Momentum: 0.9}, backend)

	backend.Tape().StartRecording()
	for epoch := 0; epoch < 600; epoch++ {
		backend.Tape().Clear()
		loss := criterion.Forward(layer.Forward(x), y)
		grads := autodiff.Backward(loss, backend)
		sgd.Step(grads)
		sgd.ZeroGrad()
	}
	backend.Tape().Clear()
	backend.Tape().StopRecording()

	weight := layer.Weight().Tensor().Data()[0]
	bias := layer.Bias().Tensor().Data()[0]
	if math.Abs(float64(weight-2)) > 0.05 {
		t.Errorf("expected weight near 2, got %v", weight)
	}
	if math.Abs(float64(bias-1)) > 0.05 {
		t.Errorf("expected bias near 1, got %v", bias)
	}
}
