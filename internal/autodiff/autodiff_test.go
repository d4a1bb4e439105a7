package autodiff_test

import (
	"math"
	"testing"

	"github.com/primer-ml/primer/internal/autodiff"
	"github.com/primer-ml/primer/internal/backend/cpu"
	"github.com/primer-ml/primer/internal/tensor"
)

func fromSlice(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw(%v): %v", shape, err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func wantClose(t *testing.T, got *tensor.RawTensor, want []float32) {
	t.Helper()
	data := got.AsFloat32()
	if len(data) != len(want) {
		t.Fatalf("got %d elements, want %d", len(data), len(want))
	}
	for i := range want {
		if math.Abs(float64(data[i]-want[i])) > 1e-4 {
			t.Fatalf("element %d = %v, want %v (full: %v)", i, data[i], want[i], data)
		}
	}
}

func TestBackendName(t *testing.T) {
	backend := autodiff.New(cpu.New())
	if got := backend.Name(); got != "autodiff(cpu)" {
		t.Errorf("Name() = %q, want %q", got, "autodiff(cpu)")
	}
}

func TestBackendDevice(t *testing.T) {
	backend := autodiff.New(cpu.New())
	if backend.Device() != tensor.CPU {
		t.Errorf("Device() = %v, want CPU", backend.Device())
	}
}

func TestBackendInner(t *testing.T) {
	inner := cpu.New()
	backend := autodiff.New(inner)
	if backend.Inner() != inner {
		t.Error("Inner() should return the wrapped backend")
	}
}

func TestTapeRecordingToggle(t *testing.T) {
	tape := autodiff.NewTape()

	if tape.IsRecording() {
		t.Error("a fresh tape should not be recording")
	}
	tape.StartRecording()
	if !tape.IsRecording() {
		t.Error("tape should record after StartRecording")
	}
	tape.StopRecording()
	if tape.IsRecording() {
		t.Error("tape should stop after StopRecording")
	}
}

func TestTapeClearKeepsRecordingState(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()

	x := fromSlice(t, tensor.Shape{2}, []float32{1, 2})
	backend.Add(x, x)

	if tape.NumOps() == 0 {
		t.Fatal("Add should have been recorded")
	}

	tape.Clear()
	if tape.NumOps() != 0 {
		t.Errorf("NumOps() = %d after Clear, want 0", tape.NumOps())
	}
	if !tape.IsRecording() {
		t.Error("Clear should not touch the recording flag")
	}
}

func TestOpsRecordedOnlyWhileRecording(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := fromSlice(t, tensor.Shape{2}, []float32{1, 2})

	backend.Add(x, x)
	if got := backend.Tape().NumOps(); got != 0 {
		t.Fatalf("NumOps() = %d before StartRecording, want 0", got)
	}

	backend.Tape().StartRecording()
	backend.Add(x, x)
	backend.Mul(x, x)
	if got := backend.Tape().NumOps(); got != 2 {
		t.Errorf("NumOps() = %d, want 2", got)
	}
}

func TestNoGrad(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()
	x := fromSlice(t, tensor.Shape{2}, []float32{1, 2})

	backend.NoGrad(func() {
		backend.Add(x, x)
		backend.Mul(x, x)
	})

	if got := backend.Tape().NumOps(); got != 0 {
		t.Errorf("NumOps() = %d after NoGrad block, want 0", got)
	}
	if !backend.Tape().IsRecording() {
		t.Error("NoGrad should restore the recording state")
	}
}

func TestNoGradNested(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	backend.NoGrad(func() {
		backend.NoGrad(func() {
			if backend.Tape().IsRecording() {
				t.Error("recording should be off inside nested NoGrad")
			}
		})
		if backend.Tape().IsRecording() {
			t.Error("inner NoGrad should restore the suspended state, not re-enable it")
		}
	})

	if !backend.Tape().IsRecording() {
		t.Error("outer NoGrad should restore recording")
	}
}

func TestBackwardAddition(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := fromSlice(t, tensor.Shape{2}, []float32{1, 2})
	y := fromSlice(t, tensor.Shape{2}, []float32{3, 4})
	z := backend.Add(x, y)

	seed := fromSlice(t, tensor.Shape{2}, []float32{1, 1})
	grads := backend.Tape().Backward(z, seed, backend)

	wantClose(t, grads[x], []float32{1, 1})
	wantClose(t, grads[y], []float32{1, 1})
}

func TestBackwardMultiplication(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := fromSlice(t, tensor.Shape{2}, []float32{2, 3})
	y := fromSlice(t, tensor.Shape{2}, []float32{4, 5})
	z := backend.Mul(x, y)

	seed := fromSlice(t, tensor.Shape{2}, []float32{1, 1})
	grads := backend.Tape().Backward(z, seed, backend)

	wantClose(t, grads[x], []float32{4, 5})
	wantClose(t, grads[y], []float32{2, 3})
}

func TestBackwardChainRule(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	// y = (x + 2) * 3, dy/dx = 3.
	x := fromSlice(t, tensor.Shape{2}, []float32{1, 5})
	y := backend.MulScalar(backend.AddScalar(x, 2), 3)

	wantClose(t, y, []float32{9, 21})

	seed := fromSlice(t, tensor.Shape{2}, []float32{1, 1})
	grads := backend.Tape().Backward(y, seed, backend)

	wantClose(t, grads[x], []float32{3, 3})
}

func TestBackwardGradientAccumulation(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	// y = x * x: both factors are the same tensor, so the two partial
	// gradients accumulate to 2x.
	x := fromSlice(t, tensor.Shape{3}, []float32{2, 3, 4})
	y := backend.Mul(x, x)

	seed := fromSlice(t, tensor.Shape{3}, []float32{1, 1, 1})
	grads := backend.Tape().Backward(y, seed, backend)

	wantClose(t, grads[x], []float32{4, 6, 8})
}

func TestBackwardSeedSurvives(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := fromSlice(t, tensor.Shape{2}, []float32{2, 3})
	y := backend.Mul(x, x)

	seed := fromSlice(t, tensor.Shape{2}, []float32{1, 1})
	backend.Tape().Backward(y, seed, backend)

	wantClose(t, seed, []float32{1, 1})
}

func TestBackwardFromIntermediate(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := fromSlice(t, tensor.Shape{2}, []float32{2, 3})
	y := backend.Mul(x, x)
	z := backend.AddScalar(y, 100)

	// Seeding at y must ignore the later AddScalar entirely.
	seed := fromSlice(t, tensor.Shape{2}, []float32{1, 1})
	grads := backend.Tape().Backward(y, seed, backend)

	wantClose(t, grads[x], []float32{4, 6})
	if _, ok := grads[z]; ok {
		t.Error("tensors downstream of the seed should not appear in the gradient map")
	}
}

func TestBackwardSkipsUnrelatedBranch(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := fromSlice(t, tensor.Shape{2}, []float32{1, 2})
	u := fromSlice(t, tensor.Shape{2}, []float32{5, 6})
	y := backend.Mul(x, x)
	backend.Mul(u, u)

	seed := fromSlice(t, tensor.Shape{2}, []float32{1, 1})
	grads := backend.Tape().Backward(y, seed, backend)

	if _, ok := grads[u]; ok {
		t.Error("a branch the seed does not depend on should receive no gradient")
	}
	wantClose(t, grads[x], []float32{2, 4})
}

func TestBackwardEmptyTape(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := fromSlice(t, tensor.Shape{1}, []float32{1})

	grads := backend.Tape().Backward(x, x, backend)
	if len(grads) != 0 {
		t.Errorf("empty tape produced %d gradients, want 0", len(grads))
	}
}

func TestBackwardHelper(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice([]float32{2, 3}, tensor.Shape{2}, backend)
	if err != nil {
		t.Fatal(err)
	}
	y := x.Mul(x)

	grads := autodiff.Backward(y, backend)
	wantClose(t, grads[x.Raw()], []float32{4, 6})
}

func TestBackwardHelperPanicsWithoutOps(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x, err := tensor.FromSlice([]float32{1}, tensor.Shape{1}, backend)
	if err != nil {
		t.Fatal(err)
	}

	defer func() {
		if recover() == nil {
			t.Error("Backward on an empty tape should panic")
		}
	}()
	autodiff.Backward(x, backend)
}

func TestBackwardThroughLinearLayer(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	// y = relu(x @ wT + b), then loss = sum(y).
	x := fromSlice(t, tensor.Shape{1, 2}, []float32{1, 2})
	w := fromSlice(t, tensor.Shape{2, 2}, []float32{1, 0, -1, 1})
	bias := fromSlice(t, tensor.Shape{2}, []float32{0.5, -10})

	h := backend.Add(backend.MatMul(x, backend.Transpose(w, 1, 0)), bias)
	y := backend.ReLU(h)
	loss := backend.Sum(y)

	seed := fromSlice(t, tensor.Shape{1}, []float32{1})
	grads := backend.Tape().Backward(loss, seed, backend)

	// h = [1*1+2*0+0.5, 1*-1+2*1-10] = [1.5, -9], so only the first unit
	// is active and only its row of w gets gradient.
	wantClose(t, loss, []float32{1.5})
	wantClose(t, grads[w], []float32{1, 2, 0, 0})
	wantClose(t, grads[bias], []float32{1, 0})
	wantClose(t, grads[x], []float32{1, 0})
}

func TestBackwardThroughChunk(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	// Split x, use only the first half. The unused half's gradient is
	// zero-filled so the joint Cat in the backward pass still lines up.
	x := fromSlice(t, tensor.Shape{2, 4}, []float32{1, 2, 3, 4, 5, 6, 7, 8})
	parts := backend.Chunk(x, 2, 1)
	y := backend.MulScalar(parts[0], 10)

	seed := fromSlice(t, tensor.Shape{2, 2}, []float32{1, 1, 1, 1})
	grads := backend.Tape().Backward(y, seed, backend)

	wantClose(t, grads[x], []float32{10, 10, 0, 0, 10, 10, 0, 0})
}

func TestBackwardThroughSoftmaxCrossEntropy(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	logits := fromSlice(t, tensor.Shape{1, 2}, []float32{0, 0})
	targets, err := tensor.NewRaw(tensor.Shape{1}, tensor.Int32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	targets.AsInt32()[0] = 1

	loss := backend.CrossEntropy(logits, targets)

	seed := fromSlice(t, tensor.Shape{1}, []float32{1})
	grads := backend.Tape().Backward(loss, seed, backend)

	wantClose(t, loss, []float32{float32(math.Log(2))})
	wantClose(t, grads[logits], []float32{0.5, -0.5})
}

func TestBackwardRestoresRecording(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := fromSlice(t, tensor.Shape{1}, []float32{3})
	y := backend.Mul(x, x)

	seed := fromSlice(t, tensor.Shape{1}, []float32{1})
	numOps := backend.Tape().NumOps()
	backend.Tape().Backward(y, seed, backend)

	if !backend.Tape().IsRecording() {
		t.Error("Backward should restore the recording flag")
	}
	if backend.Tape().NumOps() != numOps {
		t.Errorf("Backward recorded %d extra ops onto the tape", backend.Tape().NumOps()-numOps)
	}
}

func TestForwardValuesSurviveLaterOps(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	// Feed the same tensor through two ops. If the backend were allowed
	// its in-place shortcut, the second op would clobber the first op's
	// recorded input and the gradients below would come out wrong.
	x := fromSlice(t, tensor.Shape{2}, []float32{0.5, 1})
	y := backend.Exp(x)
	z := backend.Mul(y, y)
	_ = backend.AddScalar(y, 5)

	wantClose(t, x, []float32{0.5, 1})

	seed := fromSlice(t, tensor.Shape{2}, []float32{1, 1})
	grads := backend.Tape().Backward(z, seed, backend)

	// dz/dx = 2 * exp(x) * exp(x) = 2 exp(2x).
	wantClose(t, grads[x], []float32{
		float32(2 * math.Exp(1)),
		float32(2 * math.Exp(2)),
	})
}

func TestDetachBreaksGradientChain(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a, err := tensor.FromSlice([]float32{2, 3}, tensor.Shape{2}, backend)
	if err != nil {
		t.Fatal(err)
	}
	b, err := tensor.FromSlice([]float32{4, 5}, tensor.Shape{2}, backend)
	if err != nil {
		t.Fatal(err)
	}

	c := a.Mul(b)
	d := c.Detach().Add(a)

	grads := autodiff.Backward(d, backend)

	if _, ok := grads[b.Raw()]; ok {
		t.Error("gradient flowed through a detached tensor")
	}
	// a only contributes through the Add, not through the detached Mul.
	wantClose(t, grads[a.Raw()], []float32{1, 1})
}
