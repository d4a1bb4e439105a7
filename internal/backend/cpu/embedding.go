package cpu

import (
	"fmt"

	"github.com/primer-ml/primer/internal/tensor"
)

// Embedding looks up rows of weight by integer index.
//
// weight:  [numEmbeddings, embeddingDim]
// indices: any shape of int32 indices
// output:  [...indices shape, embeddingDim]
//
// Rows are copied as raw byte runs, so the weight dtype only affects the
// row width.
func (c *Backend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	if indices.DType() != tensor.Int32 {
		panic(fmt.Sprintf("embedding: indices must be int32, got %s", indices.DType()))
	}
	weightShape := weight.Shape()
	if len(weightShape) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D, got shape %v", weightShape))
	}

	numEmbeddings, embeddingDim := weightShape[0], weightShape[1]

	indicesShape := indices.Shape()
	outShape := make(tensor.Shape, len(indicesShape)+1)
	copy(outShape, indicesShape)
	outShape[len(outShape)-1] = embeddingDim

	out := mustRaw("embedding", outShape, weight.DType(), c.device)

	rowBytes := embeddingDim * weight.DType().Size()
	dst, src := out.Data(), weight.Data()
	for i, idx := range indices.AsInt32() {
		if idx < 0 || int(idx) >= numEmbeddings {
			panic(fmt.Sprintf("embedding: index %d out of range [0, %d)", idx, numEmbeddings))
		}
		copy(dst[i*rowBytes:(i+1)*rowBytes], src[int(idx)*rowBytes:(int(idx)+1)*rowBytes])
	}
	return out
}
