package nn

import (
	"fmt"
	"math/rand"

	"github.com/primer-ml/primer/internal/tensor"
)

// Embedding maps integer token ids to dense vectors by indexing a
// [numEmbeddings, embeddingDim] table.
//
// Its Forward takes an int32 index tensor rather than a float32 one, so
// Embedding satisfies everything of Module except Forward; models wire it
// in by hand ahead of their float32 stack.
type Embedding[B tensor.Backend] struct {
	weight  *Parameter[B]
	backend B

	numEmbeddings int
	embeddingDim  int
}

// NewEmbedding creates an embedding table initialized from N(0, 1).
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, backend B) *Embedding[B] {
	if numEmbeddings <= 0 || embeddingDim <= 0 {
		panic(fmt.Sprintf("embedding: invalid dimensions %dx%d", numEmbeddings, embeddingDim))
	}

	raw, err := tensor.NewRaw(tensor.Shape{numEmbeddings, embeddingDim}, tensor.Float32, backend.Device())
	if err != nil {
		panic(err)
	}
	data := raw.AsFloat32()
	for i := range data {
		data[i] = float32(rand.NormFloat64())
	}

	return &Embedding[B]{
		weight:        NewParameter("weight", tensor.New[float32, B](raw, backend)),
		backend:       backend,
		numEmbeddings: numEmbeddings,
		embeddingDim:  embeddingDim,
	}
}

// NewEmbeddingWithWeight creates an embedding layer around an existing
// [numEmbeddings, embeddingDim] table, for pretrained vectors.
func NewEmbeddingWithWeight[B tensor.Backend](weight *tensor.Tensor[float32, B], backend B) *Embedding[B] {
	shape := weight.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("embedding: expected 2D weight [vocab, dim], got %v", shape))
	}
	return &Embedding[B]{
		weight:        NewParameter("weight", weight),
		backend:       backend,
		numEmbeddings: shape[0],
		embeddingDim:  shape[1],
	}
}

// Forward looks up the vectors for an index tensor of any shape, returning
// a tensor with a trailing embeddingDim axis: [batch, seq] indices become
// [batch, seq, embeddingDim] vectors.
func (e *Embedding[B]) Forward(indices *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	raw := e.backend.Embedding(e.weight.Tensor().Raw(), indices.Raw())
	return tensor.New[float32, B](raw, e.backend)
}

// Parameters returns the embedding table.
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.weight}
}

// StateDict exposes the table for checkpointing.
func (e *Embedding[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{"weight": e.weight.Tensor().Raw()}
}

// LoadStateDict copies checkpoint data into the table.
func (e *Embedding[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	return loadParam(state, "weight", e.weight.Tensor())
}

// Weight returns the table parameter.
func (e *Embedding[B]) Weight() *Parameter[B] { return e.weight }

// NumEmbeddings returns the vocabulary size.
func (e *Embedding[B]) NumEmbeddings() int { return e.numEmbeddings }

// EmbeddingDim returns the vector width.
func (e *Embedding[B]) EmbeddingDim() int { return e.embeddingDim }

// String describes the layer.
func (e *Embedding[B]) String() string {
	return fmt.Sprintf("Embedding(vocab=%d, dim=%d)", e.numEmbeddings, e.embeddingDim)
}
