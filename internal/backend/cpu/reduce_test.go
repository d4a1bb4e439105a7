package cpu

import (
	"testing"

	"github.com/primer-ml/primer/internal/tensor"
)

func TestSum(t *testing.T) {
	b := New()
	x := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	out := b.Sum(x)
	if !out.Shape().Equal(tensor.Shape{1}) {
		t.Fatalf("shape = %v, want [1]", out.Shape())
	}
	wantFloat32(t, out, []float32{21})
}

func TestSumDim(t *testing.T) {
	b := New()
	x := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	rows := b.SumDim(x, 1, false)
	if !rows.Shape().Equal(tensor.Shape{2}) {
		t.Fatalf("shape = %v, want [2]", rows.Shape())
	}
	wantFloat32(t, rows, []float32{6, 15})

	cols := b.SumDim(x, 0, false)
	if !cols.Shape().Equal(tensor.Shape{3}) {
		t.Fatalf("shape = %v, want [3]", cols.Shape())
	}
	wantFloat32(t, cols, []float32{5, 7, 9})
}

func TestSumDimKeepDim(t *testing.T) {
	b := New()
	x := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	out := b.SumDim(x, 1, true)
	if !out.Shape().Equal(tensor.Shape{2, 1}) {
		t.Fatalf("shape = %v, want [2 1]", out.Shape())
	}
	wantFloat32(t, out, []float32{6, 15})
}

func TestSumDim1DCollapsesToScalar(t *testing.T) {
	b := New()
	x := newFloat32(t, tensor.Shape{4}, []float32{1, 2, 3, 4})

	out := b.SumDim(x, 0, false)
	if !out.Shape().Equal(tensor.Shape{1}) {
		t.Fatalf("shape = %v, want [1]", out.Shape())
	}
	wantFloat32(t, out, []float32{10})
}

func TestSumDimNegativeDim(t *testing.T) {
	b := New()
	x := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	wantFloat32(t, b.SumDim(x, -1, false), []float32{6, 15})
}

func TestSumDimMiddleAxis(t *testing.T) {
	b := New()
	data := make([]float32, 2*3*2)
	for i := range data {
		data[i] = float32(i)
	}
	x := newFloat32(t, tensor.Shape{2, 3, 2}, data)

	out := b.SumDim(x, 1, false)
	if !out.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("shape = %v, want [2 2]", out.Shape())
	}
	// Sum over the middle axis: {0+2+4, 1+3+5, 6+8+10, 7+9+11}.
	wantFloat32(t, out, []float32{6, 9, 24, 27})
}

func TestMeanDim(t *testing.T) {
	b := New()
	x := newFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	out := b.MeanDim(x, 1, false)
	wantFloat32(t, out, []float32{2, 5})
}

func TestMeanDimIntPanics(t *testing.T) {
	b := New()
	x, _ := tensor.NewRaw(tensor.Shape{4}, tensor.Int32, tensor.CPU)

	defer func() {
		if recover() == nil {
			t.Error("MeanDim on integer tensor should panic")
		}
	}()
	b.MeanDim(x, 0, false)
}

func TestArgmax(t *testing.T) {
	b := New()
	x := newFloat32(t, tensor.Shape{2, 4}, []float32{
		1, 9, 3, 2,
		5, 0, 7, 6,
	})

	out := b.Argmax(x, 1)
	if out.DType() != tensor.Int32 {
		t.Fatalf("dtype = %v, want Int32", out.DType())
	}
	if !out.Shape().Equal(tensor.Shape{2}) {
		t.Fatalf("shape = %v, want [2]", out.Shape())
	}
	got := out.AsInt32()
	for i, want := range []int32{1, 2} {
		if got[i] != want {
			t.Errorf("argmax[%d] = %d, want %d", i, got[i], want)
		}
	}
}

func TestArgmaxTieTakesFirst(t *testing.T) {
	b := New()
	x := newFloat32(t, tensor.Shape{1, 3}, []float32{5, 5, 5})

	got := b.Argmax(x, 1).AsInt32()
	if got[0] != 0 {
		t.Errorf("argmax on ties = %d, want 0", got[0])
	}
}

func TestSumInt64(t *testing.T) {
	b := New()
	x, _ := tensor.NewRaw(tensor.Shape{3}, tensor.Int64, tensor.CPU)
	copy(x.AsInt64(), []int64{10, 20, 30})

	out := b.Sum(x)
	if got := out.AsInt64()[0]; got != 60 {
		t.Errorf("sum = %d, want 60", got)
	}
}
