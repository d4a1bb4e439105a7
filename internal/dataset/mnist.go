package dataset

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
)

// MNIST dimensions.
const (
	MNISTImageRows  = 28
	MNISTImageCols  = 28
	MNISTImageSize  = MNISTImageRows * MNISTImageCols
	MNISTNumClasses = 10
)

// File names inside an MNIST data directory, as distributed upstream.
const (
	mnistTrainImages = "train-images-idx3-ubyte"
	mnistTrainLabels = "train-labels-idx1-ubyte"
	mnistTestImages  = "t10k-images-idx3-ubyte"
	mnistTestLabels  = "t10k-labels-idx1-ubyte"
)

// LoadMNISTIDX loads MNIST from the official IDX binary files in
// dataDir: train-images-idx3-ubyte and train-labels-idx1-ubyte for the
// training set, the t10k pair for the test set. Pixels are normalized
// to [0, 1]. maxSamples of 0 loads everything.
func LoadMNISTIDX(dataDir string, train bool, maxSamples int) (*Dataset, error) {
	imageFile := filepath.Join(dataDir, mnistTestImages)
	labelFile := filepath.Join(dataDir, mnistTestLabels)
	if train {
		imageFile = filepath.Join(dataDir, mnistTrainImages)
		labelFile = filepath.Join(dataDir, mnistTrainLabels)
	}

	imagesRaw, rows, cols, err := readIDXImages(imageFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}
	if rows != MNISTImageRows || cols != MNISTImageCols {
		return nil, fmt.Errorf("unexpected image size %dx%d, want %dx%d", rows, cols, MNISTImageRows, MNISTImageCols)
	}
	labelsRaw, err := readIDXLabels(labelFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	if len(imagesRaw) != len(labelsRaw) {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", len(imagesRaw), len(labelsRaw))
	}

	numSamples := len(imagesRaw)
	if maxSamples > 0 && numSamples > maxSamples {
		numSamples = maxSamples
	}

	features := make([][]float32, numSamples)
	labels := make([]int32, numSamples)
	for i := 0; i < numSamples; i++ {
		features[i] = make([]float32, MNISTImageSize)
		for j, pixel := range imagesRaw[i] {
			features[i][j] = float32(pixel) / 255.0
		}
		labels[i] = int32(labelsRaw[i])
	}
	return &Dataset{Features: features, Labels: labels}, nil
}

// LoadMNISTCSV loads MNIST from a Kaggle-style CSV file:
//
//	label,pixel0,pixel1,...,pixel783
//	5,0,0,12,...,0
//
// A header row is detected by its non-numeric first field and skipped.
// Pixels are normalized to [0, 1]. maxSamples of 0 loads everything.
func LoadMNISTCSV(filename string, maxSamples int) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) > 0 {
		if _, err := strconv.Atoi(records[0][0]); err != nil {
			records = records[1:]
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file has no data rows")
	}

	numSamples := len(records)
	if maxSamples > 0 && numSamples > maxSamples {
		numSamples = maxSamples
		records = records[:numSamples]
	}

	features := make([][]float32, numSamples)
	labels := make([]int32, numSamples)
	for i, record := range records {
		if len(record) != MNISTImageSize+1 {
			return nil, fmt.Errorf("invalid record length at row %d: got %d, want %d", i+1, len(record), MNISTImageSize+1)
		}
		label, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("invalid label at row %d: %w", i+1, err)
		}
		if label < 0 || label >= MNISTNumClasses {
			return nil, fmt.Errorf("label out of range [0, %d] at row %d: %d", MNISTNumClasses-1, i+1, label)
		}
		labels[i] = int32(label)

		features[i] = make([]float32, MNISTImageSize)
		for j := 0; j < MNISTImageSize; j++ {
			pixel, err := strconv.Atoi(record[j+1])
			if err != nil {
				return nil, fmt.Errorf("invalid pixel at row %d, column %d: %w", i+1, j+1, err)
			}
			features[i][j] = float32(pixel) / 255.0
		}
	}
	return &Dataset{Features: features, Labels: labels}, nil
}

// SyntheticMNIST generates a stand-in digit dataset so the CNN lesson
// runs without any downloaded files. Each class gets a distinct bright
// band and bar placed by the class index, with seeded noise on top; the
// patterns are trivially separable but exercise the full pipeline.
func SyntheticMNIST(numSamples int, seed int64) *Dataset {
	rng := rand.New(rand.NewSource(seed))
	features := make([][]float32, numSamples)
	labels := make([]int32, numSamples)

	for i := 0; i < numSamples; i++ {
		class := i % MNISTNumClasses
		labels[i] = int32(class)
		img := make([]float32, MNISTImageSize)

		// Horizontal band: rows 2c..2c+5, columns 4..23.
		bandTop := class * 2
		for row := bandTop; row < bandTop+6 && row < MNISTImageRows; row++ {
			for col := 4; col < 24; col++ {
				img[row*MNISTImageCols+col] = 0.8
			}
		}
		// Vertical bar: column 4+2c, rows 2..25.
		barCol := 4 + class*2
		for row := 2; row < 26; row++ {
			img[row*MNISTImageCols+barCol] = 0.9
		}
		for j := range img {
			v := img[j] + float32(rng.NormFloat64())*0.05
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			img[j] = v
		}
		features[i] = img
	}
	return &Dataset{Features: features, Labels: labels}
}
