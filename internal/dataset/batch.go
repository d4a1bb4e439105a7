package dataset

import (
	"fmt"
	"math/rand"

	"github.com/primer-ml/primer/internal/tensor"
)

// Batch is one mini-batch of float features and int class labels,
// already materialized on a backend.
type Batch[B tensor.Backend] struct {
	Features *tensor.Tensor[float32, B] // [batch, featureDim]
	Labels   *tensor.Tensor[int32, B]   // [batch]
	Size     int
}

// TokenBatch is one mini-batch of token-id sequences for the embedding
// layers, plus class labels.
type TokenBatch[B tensor.Backend] struct {
	Tokens *tensor.Tensor[int32, B] // [batch, seqLen]
	Labels *tensor.Tensor[int32, B] // [batch]
	Size   int
}

// shuffledIndices returns 0..n-1, Fisher-Yates shuffled with a seeded
// source when shuffle is set.
func shuffledIndices(n int, shuffle bool, seed int64) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if shuffle {
		rng := rand.New(rand.NewSource(seed))
		for i := n - 1; i > 0; i-- {
			j := rng.Intn(i + 1)
			indices[i], indices[j] = indices[j], indices[i]
		}
	}
	return indices
}

// CreateBatches splits a dataset into mini-batches. The last batch may
// be smaller when the sample count does not divide evenly. With shuffle
// set, samples are drawn in a seeded random order; pass a fresh seed
// per epoch to reshuffle.
func CreateBatches[B tensor.Backend](d *Dataset, batchSize int, shuffle bool, seed int64, backend B) ([]*Batch[B], error) {
	numSamples := d.NumSamples()
	if numSamples != len(d.Labels) {
		return nil, fmt.Errorf("features and labels length mismatch: %d != %d", numSamples, len(d.Labels))
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	featureDim := d.FeatureDim()
	indices := shuffledIndices(numSamples, shuffle, seed)

	numBatches := (numSamples + batchSize - 1) / batchSize
	batches := make([]*Batch[B], 0, numBatches)

	for start := 0; start < numSamples; start += batchSize {
		end := start + batchSize
		if end > numSamples {
			end = numSamples
		}
		size := end - start

		featuresRaw, err := tensor.NewRaw(tensor.Shape{size, featureDim}, tensor.Float32, backend.Device())
		if err != nil {
			return nil, fmt.Errorf("failed to create features tensor: %w", err)
		}
		labelsRaw, err := tensor.NewRaw(tensor.Shape{size}, tensor.Int32, backend.Device())
		if err != nil {
			return nil, fmt.Errorf("failed to create labels tensor: %w", err)
		}

		featuresData := featuresRaw.AsFloat32()
		labelsData := labelsRaw.AsInt32()
		for i := start; i < end; i++ {
			idx := indices[i]
			copy(featuresData[(i-start)*featureDim:(i-start+1)*featureDim], d.Features[idx])
			labelsData[i-start] = d.Labels[idx]
		}

		batches = append(batches, &Batch[B]{
			Features: tensor.New[float32, B](featuresRaw, backend),
			Labels:   tensor.New[int32, B](labelsRaw, backend),
			Size:     size,
		})
	}
	return batches, nil
}

// CreateTokenBatches batches encoded text sequences. All sequences must
// already be padded or truncated to the same length.
func CreateTokenBatches[B tensor.Backend](sequences [][]int32, labels []int32, batchSize int, shuffle bool, seed int64, backend B) ([]*TokenBatch[B], error) {
	numSamples := len(sequences)
	if numSamples != len(labels) {
		return nil, fmt.Errorf("sequences and labels length mismatch: %d != %d", numSamples, len(labels))
	}
	if numSamples == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	seqLen := len(sequences[0])
	for i, seq := range sequences {
		if len(seq) != seqLen {
			return nil, fmt.Errorf("sequence %d has length %d, want %d", i, len(seq), seqLen)
		}
	}
	indices := shuffledIndices(numSamples, shuffle, seed)

	numBatches := (numSamples + batchSize - 1) / batchSize
	batches := make([]*TokenBatch[B], 0, numBatches)

	for start := 0; start < numSamples; start += batchSize {
		end := start + batchSize
		if end > numSamples {
			end = numSamples
		}
		size := end - start

		tokensRaw, err := tensor.NewRaw(tensor.Shape{size, seqLen}, tensor.Int32, backend.Device())
		if err != nil {
			return nil, fmt.Errorf("failed to create tokens tensor: %w", err)
		}
		labelsRaw, err := tensor.NewRaw(tensor.Shape{size}, tensor.Int32, backend.Device())
		if err != nil {
			return nil, fmt.Errorf("failed to create labels tensor: %w", err)
		}

		tokensData := tokensRaw.AsInt32()
		labelsData := labelsRaw.AsInt32()
		for i := start; i < end; i++ {
			idx := indices[i]
			copy(tokensData[(i-start)*seqLen:(i-start+1)*seqLen], sequences[idx])
			labelsData[i-start] = labels[idx]
		}

		batches = append(batches, &TokenBatch[B]{
			Tokens: tensor.New[int32, B](tokensRaw, backend),
			Labels: tensor.New[int32, B](labelsRaw, backend),
			Size:   size,
		})
	}
	return batches, nil
}
