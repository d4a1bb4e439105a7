package dataset

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func writeMNISTCSV(t *testing.T, header bool, rows []struct {
	label  int
	pixels []int
}) string {
	t.Helper()
	var sb strings.Builder
	if header {
		sb.WriteString("label")
		for i := 0; i < MNISTImageSize; i++ {
			sb.WriteString(",pixel" + strconv.Itoa(i))
		}
		sb.WriteString("\n")
	}
	for _, row := range rows {
		sb.WriteString(strconv.Itoa(row.label))
		for i := 0; i < MNISTImageSize; i++ {
			v := 0
			if i < len(row.pixels) {
				v = row.pixels[i]
			}
			sb.WriteString("," + strconv.Itoa(v))
		}
		sb.WriteString("\n")
	}
	path := filepath.Join(t.TempDir(), "mnist.csv")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestLoadMNISTCSV(t *testing.T) {
	path := writeMNISTCSV(t, true, []struct {
		label  int
		pixels []int
	}{
		{5, []int{0, 255, 128}},
		{0, []int{10}},
	})

	data, err := LoadMNISTCSV(path, 0)
	if err != nil {
		t.Fatalf("LoadMNISTCSV failed: %v", err)
	}
	if data.NumSamples() != 2 {
		t.Fatalf("NumSamples = %d, want 2", data.NumSamples())
	}
	if data.Labels[0] != 5 || data.Labels[1] != 0 {
		t.Errorf("labels = %v, want [5 0]", data.Labels)
	}
	if data.Features[0][1] != 1.0 {
		t.Errorf("pixel 255 normalized to %v, want 1", data.Features[0][1])
	}
	if got, want := data.Features[0][2], float32(128)/255.0; got != want {
		t.Errorf("pixel 128 normalized to %v, want %v", got, want)
	}
}

func TestLoadMNISTCSVWithoutHeader(t *testing.T) {
	path := writeMNISTCSV(t, false, []struct {
		label  int
		pixels []int
	}{
		{3, nil},
	})
	data, err := LoadMNISTCSV(path, 0)
	if err != nil {
		t.Fatalf("LoadMNISTCSV failed: %v", err)
	}
	if data.NumSamples() != 1 || data.Labels[0] != 3 {
		t.Errorf("headerless first row not loaded as data: %v", data.Labels)
	}
}

func TestLoadMNISTCSVMaxSamples(t *testing.T) {
	path := writeMNISTCSV(t, true, []struct {
		label  int
		pixels []int
	}{
		{1, nil}, {2, nil}, {3, nil},
	})
	data, err := LoadMNISTCSV(path, 2)
	if err != nil {
		t.Fatalf("LoadMNISTCSV failed: %v", err)
	}
	if data.NumSamples() != 2 {
		t.Errorf("NumSamples = %d, want 2", data.NumSamples())
	}
}

func TestLoadMNISTCSVRejectsBadLabel(t *testing.T) {
	path := writeMNISTCSV(t, false, []struct {
		label  int
		pixels []int
	}{
		{12, nil},
	})
	if _, err := LoadMNISTCSV(path, 0); err == nil {
		t.Error("expected error for out-of-range label")
	}
}

func TestSyntheticMNIST(t *testing.T) {
	data := SyntheticMNIST(25, 42)
	if data.NumSamples() != 25 {
		t.Fatalf("NumSamples = %d, want 25", data.NumSamples())
	}
	if data.FeatureDim() != MNISTImageSize {
		t.Fatalf("FeatureDim = %d, want %d", data.FeatureDim(), MNISTImageSize)
	}
	for i, label := range data.Labels {
		if int(label) != i%MNISTNumClasses {
			t.Fatalf("label %d = %d, want %d", i, label, i%MNISTNumClasses)
		}
	}
	for i, img := range data.Features {
		for j, v := range img {
			if v < 0 || v > 1 {
				t.Fatalf("pixel (%d, %d) = %v outside [0, 1]", i, j, v)
			}
		}
	}
}

func TestSyntheticMNISTDeterministic(t *testing.T) {
	a := SyntheticMNIST(10, 7)
	b := SyntheticMNIST(10, 7)
	for i := range a.Features {
		for j := range a.Features[i] {
			if a.Features[i][j] != b.Features[i][j] {
				t.Fatalf("same seed produced different pixel at (%d, %d)", i, j)
			}
		}
	}
	c := SyntheticMNIST(10, 8)
	same := true
	for j := range a.Features[0] {
		if a.Features[0][j] != c.Features[0][j] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical noise")
	}
}
