package ops

import (
	"fmt"

	"github.com/primer-ml/primer/internal/tensor"
)

// EmbeddingOp records output = weight[indices].
//
// Backward is a scatter-add: the gradient of each looked-up row
// accumulates onto its weight row, so an index that appears several times
// in a batch collects the sum of its occurrences' gradients. Indices are
// integers and receive no gradient.
type EmbeddingOp struct {
	weight  *tensor.RawTensor
	indices *tensor.RawTensor
	output  *tensor.RawTensor
}

// NewEmbeddingOp creates an EmbeddingOp.
func NewEmbeddingOp(weight, indices, output *tensor.RawTensor) *EmbeddingOp {
	return &EmbeddingOp{weight: weight, indices: indices, output: output}
}

// Backward scatter-adds row gradients onto the weight rows.
func (op *EmbeddingOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	gradWeight := mustRaw(op.weight.Shape(), op.weight.DType(), op.weight.Device())

	switch op.weight.DType() {
	case tensor.Float32:
		scatterRows(gradWeight.AsFloat32(), outputGrad.AsFloat32(), op.indices.AsInt32(), op.weight.Shape())
	case tensor.Float64:
		scatterRows(gradWeight.AsFloat64(), outputGrad.AsFloat64(), op.indices.AsInt32(), op.weight.Shape())
	default:
		panic("embedding backward: requires a float weight tensor")
	}
	return []*tensor.RawTensor{gradWeight}
}

func scatterRows[T floats](dst, grad []T, indices []int32, weightShape tensor.Shape) {
	rows, dim := weightShape[0], weightShape[1]
	for i, idx := range indices {
		if idx < 0 || int(idx) >= rows {
			panic(fmt.Sprintf("embedding backward: index %d out of range [0, %d)", idx, rows))
		}
		row := dst[int(idx)*dim : (int(idx)+1)*dim]
		src := grad[i*dim : (i+1)*dim]
		for j, g := range src {
			row[j] += g
		}
	}
}

// Inputs returns [weight]; the integer indices carry no gradient.
func (op *EmbeddingOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.weight} }

// Output returns the looked-up embeddings.
func (op *EmbeddingOp) Output() *tensor.RawTensor { return op.output }
