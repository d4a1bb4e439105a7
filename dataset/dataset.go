// Copyright 2025 Primer ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dataset provides the data loading side of the lessons:
// feature/label datasets, mini-batching onto a backend, the embedded
// Iris table, MNIST loaders with a synthetic fallback, a small
// sentiment corpus, and generators for clustering demos.
//
// Example:
//
//	data := dataset.SyntheticMNIST(512, 42)
//	train, val := data.Split(0.2)
//	batches, err := dataset.CreateBatches(train, 32, true, 42, backend)
package dataset

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/primer-ml/primer/internal/dataset"
	"github.com/primer-ml/primer/internal/tensor"
)

// Dataset is an in-memory feature/label table.
type Dataset = dataset.Dataset

// New creates a dataset from features and labels of equal length.
func New(features [][]float32, labels []int32) (*Dataset, error) {
	return dataset.New(features, labels)
}

// TrainTestSplit shuffles rows with a seeded source and splits the
// matrix and labels into train and test portions.
func TrainTestSplit(x *mat.Dense, y []int, testRatio float64, seed int64) (xTrain, xTest *mat.Dense, yTrain, yTest []int, err error) {
	return dataset.TrainTestSplit(x, y, testRatio, seed)
}

// Batching

// Batch is one mini-batch of float features and int class labels.
type Batch[B tensor.Backend] = dataset.Batch[B]

// TokenBatch is one mini-batch of token-id sequences and class labels.
type TokenBatch[B tensor.Backend] = dataset.TokenBatch[B]

// CreateBatches splits a dataset into mini-batches materialized on the
// backend. The last batch may be smaller.
func CreateBatches[B tensor.Backend](d *Dataset, batchSize int, shuffle bool, seed int64, backend B) ([]*Batch[B], error) {
	return dataset.CreateBatches(d, batchSize, shuffle, seed, backend)
}

// CreateTokenBatches batches encoded text sequences. All sequences must
// already be padded to the same length.
func CreateTokenBatches[B tensor.Backend](sequences [][]int32, labels []int32, batchSize int, shuffle bool, seed int64, backend B) ([]*TokenBatch[B], error) {
	return dataset.CreateTokenBatches(sequences, labels, batchSize, shuffle, seed, backend)
}

// MNIST

// MNIST dataset dimensions.
const (
	MNISTImageRows  = dataset.MNISTImageRows
	MNISTImageCols  = dataset.MNISTImageCols
	MNISTImageSize  = dataset.MNISTImageSize
	MNISTNumClasses = dataset.MNISTNumClasses
)

// LoadMNISTIDX loads the train or test split from IDX files in dataDir.
// maxSamples 0 loads everything.
func LoadMNISTIDX(dataDir string, train bool, maxSamples int) (*Dataset, error) {
	return dataset.LoadMNISTIDX(dataDir, train, maxSamples)
}

// LoadMNISTCSV loads label-first CSV rows of 784 pixel values.
func LoadMNISTCSV(filename string, maxSamples int) (*Dataset, error) {
	return dataset.LoadMNISTCSV(filename, maxSamples)
}

// SyntheticMNIST generates a deterministic stand-in for MNIST: ten
// distinguishable 28x28 patterns with per-sample noise, so the CNN
// lesson runs without downloads.
func SyntheticMNIST(numSamples int, seed int64) *Dataset {
	return dataset.SyntheticMNIST(numSamples, seed)
}

// Downloads

// Download fetches url into dest, creating parent directories and
// decompressing .gz files transparently.
func Download(ctx context.Context, url, dest string) error {
	return dataset.Download(ctx, url, dest)
}

// DownloadAll fetches a map of filename to URL into destDir, skipping
// files that already exist.
func DownloadAll(ctx context.Context, destDir string, files map[string]string) error {
	return dataset.DownloadAll(ctx, destDir, files)
}

// DownloadMNIST fetches the four MNIST IDX files into dataDir.
func DownloadMNIST(ctx context.Context, dataDir string) error {
	return dataset.DownloadMNIST(ctx, dataDir)
}

// Text

// TextExample is one labeled text.
type TextExample = dataset.TextExample

// TextDataset is an in-memory labeled text collection.
type TextDataset = dataset.TextDataset

// LoadSentimentTSV loads tab-separated "text<TAB>label" lines.
func LoadSentimentTSV(filename string) (*TextDataset, error) {
	return dataset.LoadSentimentTSV(filename)
}

// LoadSentimentCSV loads two-column text,label CSV records.
func LoadSentimentCSV(filename string) (*TextDataset, error) {
	return dataset.LoadSentimentCSV(filename)
}

// SentimentCorpus returns the built-in labeled corpus the sentiment
// lesson trains on when no data file is configured.
func SentimentCorpus() *TextDataset {
	return dataset.SentimentCorpus()
}

// Classic tables and generators

// IrisData is the embedded Iris table as a gonum matrix plus class
// indices and names.
type IrisData = dataset.IrisData

// LoadIris parses the embedded 150-flower Iris CSV.
func LoadIris() (*IrisData, error) {
	return dataset.LoadIris()
}

// MakeBlobs samples points from Gaussian clusters around the given
// centers (nil means three well-separated 2-D clusters) and returns the
// generating cluster index per point.
func MakeBlobs(numSamples int, centers [][]float64, stddev float64, seed int64) (*mat.Dense, []int) {
	return dataset.MakeBlobs(numSamples, centers, stddev, seed)
}

// LoadPointsCSV reads unlabeled numeric CSV rows into a matrix,
// skipping a header row when the first cell is not a number.
func LoadPointsCSV(filename string) (*mat.Dense, error) {
	return dataset.LoadPointsCSV(filename)
}
