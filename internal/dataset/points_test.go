package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/primer-ml/primer/internal/dataset"
)

func writePoints(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "points.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestLoadPointsCSV(t *testing.T) {
	path := writePoints(t, "1.0,2.0\n3.5,-4.0\n0,7\n")

	x, err := dataset.LoadPointsCSV(path)
	if err != nil {
		t.Fatalf("LoadPointsCSV failed: %v", err)
	}

	rows, cols := x.Dims()
	if rows != 3 || cols != 2 {
		t.Fatalf("dims = (%d, %d), want (3, 2)", rows, cols)
	}
	if got := x.At(1, 1); got != -4.0 {
		t.Errorf("x[1][1] = %v, want -4.0", got)
	}
}

func TestLoadPointsCSVSkipsHeader(t *testing.T) {
	path := writePoints(t, "x,y\n1,2\n3,4\n")

	x, err := dataset.LoadPointsCSV(path)
	if err != nil {
		t.Fatalf("LoadPointsCSV failed: %v", err)
	}
	rows, _ := x.Dims()
	if rows != 2 {
		t.Errorf("rows = %d, want 2 after header skip", rows)
	}
	if got := x.At(0, 0); got != 1.0 {
		t.Errorf("x[0][0] = %v, want 1.0", got)
	}
}

func TestLoadPointsCSVRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"ragged rows":      "1,2\n3,4,5\n",
		"non-numeric cell": "1,2\n3,oops\n",
		"header only":      "x,y\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := dataset.LoadPointsCSV(writePoints(t, content)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadPointsCSVMissingFile(t *testing.T) {
	if _, err := dataset.LoadPointsCSV(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
