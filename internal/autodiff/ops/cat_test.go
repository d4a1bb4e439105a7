package ops_test

import (
	"testing"

	"github.com/primer-ml/primer/internal/autodiff/ops"
	"github.com/primer-ml/primer/internal/backend/cpu"
	"github.com/primer-ml/primer/internal/tensor"
)

func TestCatOpBackwardDim0(t *testing.T) {
	backend := cpu.New()
	a := raw(t, tensor.Shape{1, 3}, []float32{1, 2, 3})
	b := raw(t, tensor.Shape{2, 3}, []float32{4, 5, 6, 7, 8, 9})
	out := backend.Cat([]*tensor.RawTensor{a, b}, 0)

	op := ops.NewCatOp([]*tensor.RawTensor{a, b}, out, 0)
	grads := op.Backward(raw(t, tensor.Shape{3, 3}, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}), backend)

	if len(grads) != 2 {
		t.Fatalf("got %d gradients, want 2", len(grads))
	}
	wantClose(t, grads[0], []float32{1, 2, 3})
	wantClose(t, grads[1], []float32{4, 5, 6, 7, 8, 9})
}

func TestCatOpBackwardInnerDim(t *testing.T) {
	backend := cpu.New()
	a := raw(t, tensor.Shape{2, 1}, []float32{1, 4})
	b := raw(t, tensor.Shape{2, 2}, []float32{2, 3, 5, 6})
	out := backend.Cat([]*tensor.RawTensor{a, b}, 1)

	// Interleaved layout: rows of the output mix slices of both inputs,
	// so the backward pass has to unpick each row rather than split once.
	op := ops.NewCatOp([]*tensor.RawTensor{a, b}, out, 1)
	grads := op.Backward(raw(t, tensor.Shape{2, 3}, []float32{10, 20, 30, 40, 50, 60}), backend)

	wantClose(t, grads[0], []float32{10, 40})
	wantClose(t, grads[1], []float32{20, 30, 50, 60})

	if !grads[0].Shape().Equal(tensor.Shape{2, 1}) {
		t.Errorf("grads[0] shape = %v, want [2 1]", grads[0].Shape())
	}
	if !grads[1].Shape().Equal(tensor.Shape{2, 2}) {
		t.Errorf("grads[1] shape = %v, want [2 2]", grads[1].Shape())
	}
}

func TestCatOpBackwardThreeInputs(t *testing.T) {
	backend := cpu.New()
	parts := []*tensor.RawTensor{
		raw(t, tensor.Shape{1, 2}, []float32{1, 2}),
		raw(t, tensor.Shape{1, 2}, []float32{3, 4}),
		raw(t, tensor.Shape{1, 2}, []float32{5, 6}),
	}
	out := backend.Cat(parts, 0)

	op := ops.NewCatOp(parts, out, 0)
	grads := op.Backward(raw(t, tensor.Shape{3, 2}, []float32{1, 2, 3, 4, 5, 6}), backend)

	wantClose(t, grads[0], []float32{1, 2})
	wantClose(t, grads[1], []float32{3, 4})
	wantClose(t, grads[2], []float32{5, 6})
}
