package ops_test

import (
	"testing"

	"github.com/primer-ml/primer/internal/autodiff/ops"
	"github.com/primer-ml/primer/internal/backend/cpu"
	"github.com/primer-ml/primer/internal/tensor"
)

func TestReshapeOpBackward(t *testing.T) {
	backend := cpu.New()
	x := raw(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	out := backend.Reshape(x, tensor.Shape{3, 2})

	op := ops.NewReshapeOp(x, out)
	grads := op.Backward(raw(t, tensor.Shape{3, 2}, []float32{1, 2, 3, 4, 5, 6}), backend)

	if !grads[0].Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("gradient shape = %v, want [2 3]", grads[0].Shape())
	}
	wantClose(t, grads[0], []float32{1, 2, 3, 4, 5, 6})
}

func TestTransposeOpBackward(t *testing.T) {
	backend := cpu.New()
	x := raw(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	out := backend.Transpose(x, 1, 0)

	op := ops.NewTransposeOp(x, out, []int{1, 0})
	grads := op.Backward(raw(t, tensor.Shape{3, 2}, []float32{10, 40, 20, 50, 30, 60}), backend)

	if !grads[0].Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("gradient shape = %v, want [2 3]", grads[0].Shape())
	}
	wantClose(t, grads[0], []float32{10, 20, 30, 40, 50, 60})
}

func TestTransposeOpBackwardThreeAxes(t *testing.T) {
	backend := cpu.New()
	x := raw(t, tensor.Shape{2, 3, 4}, make([]float32, 24))
	axes := []int{2, 0, 1}
	out := backend.Transpose(x, axes...)

	gradData := make([]float32, 24)
	for i := range gradData {
		gradData[i] = float32(i)
	}
	grad := raw(t, out.Shape(), gradData)

	op := ops.NewTransposeOp(x, out, axes)
	grads := op.Backward(grad, backend)

	if !grads[0].Shape().Equal(tensor.Shape{2, 3, 4}) {
		t.Fatalf("gradient shape = %v, want [2 3 4]", grads[0].Shape())
	}
	// The inverse permutation of (2,0,1) is (1,2,0); applying it to the
	// gradient must land every element back at its source position.
	want := backend.Transpose(grad, 1, 2, 0)
	wantClose(t, grads[0], want.AsFloat32())
}
