package cpu

import (
	"testing"

	"github.com/primer-ml/primer/internal/tensor"
)

func TestMaxPool2D(t *testing.T) {
	b := New()
	input := newFloat32(t, tensor.Shape{1, 1, 4, 4}, []float32{
		1, 3, 2, 4,
		5, 7, 6, 8,
		9, 11, 10, 12,
		13, 15, 14, 16,
	})

	out, indices := b.MaxPool2D(input, 2, 2)
	if !out.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("shape = %v, want [1 1 2 2]", out.Shape())
	}
	wantFloat32(t, out, []float32{7, 8, 15, 16})

	wantIdx := []int{5, 7, 13, 15}
	for i, want := range wantIdx {
		if indices[i] != want {
			t.Errorf("indices[%d] = %d, want %d", i, indices[i], want)
		}
	}
}

func TestMaxPool2DAllNegative(t *testing.T) {
	b := New()
	input := newFloat32(t, tensor.Shape{1, 1, 2, 2}, []float32{-4, -3, -2, -1})

	out, indices := b.MaxPool2D(input, 2, 2)
	wantFloat32(t, out, []float32{-1})
	if indices[0] != 3 {
		t.Errorf("indices[0] = %d, want 3", indices[0])
	}
}

func TestMaxPool2DBackward(t *testing.T) {
	b := New()
	input := newFloat32(t, tensor.Shape{1, 1, 4, 4}, []float32{
		1, 3, 2, 4,
		5, 7, 6, 8,
		9, 11, 10, 12,
		13, 15, 14, 16,
	})
	_, indices := b.MaxPool2D(input, 2, 2)

	grad := newFloat32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 2, 3, 4})
	dInput := b.MaxPool2DBackward(grad, indices, input.Shape())
	if !dInput.Shape().Equal(input.Shape()) {
		t.Fatalf("shape = %v, want %v", dInput.Shape(), input.Shape())
	}
	wantFloat32(t, dInput, []float32{
		0, 0, 0, 0,
		0, 1, 0, 2,
		0, 0, 0, 0,
		0, 3, 0, 4,
	})
}

func TestMaxPool2DBackwardOverlapAccumulates(t *testing.T) {
	b := New()
	// stride 1 windows all share the center maximum.
	input := newFloat32(t, tensor.Shape{1, 1, 3, 3}, []float32{
		1, 2, 3,
		4, 9, 6,
		7, 8, 5,
	})

	out, indices := b.MaxPool2D(input, 2, 1)
	wantFloat32(t, out, []float32{9, 9, 9, 9})

	grad := newFloat32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 1, 1, 1})
	dInput := b.MaxPool2DBackward(grad, indices, input.Shape())
	wantFloat32(t, dInput, []float32{
		0, 0, 0,
		0, 4, 0,
		0, 0, 0,
	})
}

func TestMaxPool2DBatchChannels(t *testing.T) {
	b := New()
	input := newFloat32(t, tensor.Shape{1, 2, 2, 2}, []float32{
		1, 2, 3, 4, // channel 0
		8, 7, 6, 5, // channel 1
	})

	out, indices := b.MaxPool2D(input, 2, 2)
	if !out.Shape().Equal(tensor.Shape{1, 2, 1, 1}) {
		t.Fatalf("shape = %v, want [1 2 1 1]", out.Shape())
	}
	wantFloat32(t, out, []float32{4, 8})
	if indices[0] != 3 || indices[1] != 4 {
		t.Errorf("indices = %v, want [3 4]", indices)
	}
}
