package dataset

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Dataset is an in-memory supervised dataset with fixed-width float
// features and integer class labels.
type Dataset struct {
	Features [][]float32
	Labels   []int32
}

// New builds a Dataset after checking that features and labels line up
// and that every row has the same width.
func New(features [][]float32, labels []int32) (*Dataset, error) {
	if len(features) != len(labels) {
		return nil, fmt.Errorf("features and labels length mismatch: %d != %d", len(features), len(labels))
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	width := len(features[0])
	for i, row := range features {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), width)
		}
	}
	return &Dataset{Features: features, Labels: labels}, nil
}

// NumSamples returns the total number of samples in the dataset.
func (d *Dataset) NumSamples() int {
	return len(d.Features)
}

// FeatureDim returns the number of features per sample.
func (d *Dataset) FeatureDim() int {
	if len(d.Features) == 0 {
		return 0
	}
	return len(d.Features[0])
}

// Split partitions the dataset into train and validation sets. The
// split is positional; shuffle at batching time instead of here so the
// two halves stay disjoint across epochs.
func (d *Dataset) Split(validationRatio float32) (train, validation *Dataset) {
	splitIdx := int(float32(d.NumSamples()) * (1.0 - validationRatio))
	if splitIdx < 0 {
		splitIdx = 0
	}
	if splitIdx > d.NumSamples() {
		splitIdx = d.NumSamples()
	}
	train = &Dataset{Features: d.Features[:splitIdx], Labels: d.Labels[:splitIdx]}
	validation = &Dataset{Features: d.Features[splitIdx:], Labels: d.Labels[splitIdx:]}
	return train, validation
}

// TrainTestSplit shuffles row indices with the given seed and splits a
// matrix dataset for the tree and clustering lessons.
func TrainTestSplit(x *mat.Dense, y []int, testRatio float64, seed int64) (xTrain, xTest *mat.Dense, yTrain, yTest []int, err error) {
	rows, cols := x.Dims()
	if rows != len(y) {
		return nil, nil, nil, nil, fmt.Errorf("x rows and y length mismatch: %d != %d", rows, len(y))
	}
	if testRatio < 0 || testRatio >= 1 {
		return nil, nil, nil, nil, fmt.Errorf("test ratio %v out of range [0, 1)", testRatio)
	}

	indices := make([]int, rows)
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	for i := rows - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		indices[i], indices[j] = indices[j], indices[i]
	}

	numTest := int(float64(rows) * testRatio)
	numTrain := rows - numTest

	xTrain = mat.NewDense(numTrain, cols, nil)
	yTrain = make([]int, numTrain)
	for i := 0; i < numTrain; i++ {
		xTrain.SetRow(i, x.RawRowView(indices[i]))
		yTrain[i] = y[indices[i]]
	}

	if numTest == 0 {
		return xTrain, nil, yTrain, nil, nil
	}
	xTest = mat.NewDense(numTest, cols, nil)
	yTest = make([]int, numTest)
	for i := 0; i < numTest; i++ {
		xTest.SetRow(i, x.RawRowView(indices[numTrain+i]))
		yTest[i] = y[indices[numTrain+i]]
	}
	return xTrain, xTest, yTrain, yTest, nil
}
