package dataset_test

import (
	"math"
	"testing"

	"github.com/primer-ml/primer/internal/dataset"
)

func TestMakeBlobs(t *testing.T) {
	x, y := dataset.MakeBlobs(300, nil, 0.5, 42)

	rows, cols := x.Dims()
	if rows != 300 || cols != 2 {
		t.Fatalf("X is %dx%d, want 300x2", rows, cols)
	}
	if len(y) != 300 {
		t.Fatalf("len(y) = %d, want 300", len(y))
	}
	for i, c := range y {
		if c != i%3 {
			t.Fatalf("y[%d] = %d, want round-robin %d", i, c, i%3)
		}
	}

	// Per-cluster means land near the generating centers.
	centers := [][]float64{{0, 0}, {6, 6}, {0, 7}}
	sums := make([][]float64, 3)
	counts := make([]int, 3)
	for i := range sums {
		sums[i] = make([]float64, 2)
	}
	for i := 0; i < rows; i++ {
		c := y[i]
		sums[c][0] += x.At(i, 0)
		sums[c][1] += x.At(i, 1)
		counts[c]++
	}
	for c := 0; c < 3; c++ {
		for j := 0; j < 2; j++ {
			mean := sums[c][j] / float64(counts[c])
			if math.Abs(mean-centers[c][j]) > 0.3 {
				t.Errorf("cluster %d mean[%d] = %v, want near %v", c, j, mean, centers[c][j])
			}
		}
	}
}

func TestMakeBlobsDeterministic(t *testing.T) {
	a, _ := dataset.MakeBlobs(50, nil, 0.5, 7)
	b, _ := dataset.MakeBlobs(50, nil, 0.5, 7)
	rows, cols := a.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if a.At(i, j) != b.At(i, j) {
				t.Fatal("same seed produced different blobs")
			}
		}
	}
}

func TestMakeBlobsCustomCenters(t *testing.T) {
	centers := [][]float64{{-10, 0, 0}, {10, 0, 0}}
	x, y := dataset.MakeBlobs(40, centers, 0.1, 1)
	_, cols := x.Dims()
	if cols != 3 {
		t.Fatalf("cols = %d, want 3", cols)
	}
	for i := 0; i < 40; i++ {
		want := -10.0
		if y[i] == 1 {
			want = 10.0
		}
		if math.Abs(x.At(i, 0)-want) > 1 {
			t.Errorf("point %d first coordinate %v, want near %v", i, x.At(i, 0), want)
		}
	}
}
