package ops

import "github.com/primer-ml/primer/internal/tensor"

// ChunkOp records outputs = chunk(x, n, dim), the inverse of Cat.
//
// Chunk is the tape's only multi-output operation: the backward pass needs
// the gradients of every part before it can concatenate them back into the
// input gradient. Parts whose gradient never materialized contribute zeros,
// which the tape fills in before calling BackwardMulti.
type ChunkOp struct {
	input   *tensor.RawTensor
	outputs []*tensor.RawTensor
	dim     int
}

// NewChunkOp creates a ChunkOp. dim must already be normalized to a
// non-negative axis.
func NewChunkOp(input *tensor.RawTensor, outputs []*tensor.RawTensor, dim int) *ChunkOp {
	held := make([]*tensor.RawTensor, len(outputs))
	copy(held, outputs)
	return &ChunkOp{input: input, outputs: held, dim: dim}
}

// Backward exists to satisfy the Operation interface. The tape detects
// multi-output operations and always calls BackwardMulti instead.
func (op *ChunkOp) Backward(_ *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	panic("chunk: backward needs every part's gradient, use BackwardMulti")
}

// BackwardMulti concatenates the part gradients back along dim.
func (op *ChunkOp) BackwardMulti(outputGrads []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Cat(outputGrads, op.dim)}
}

// Inputs returns [x].
func (op *ChunkOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the first part, satisfying the single-output interface.
func (op *ChunkOp) Output() *tensor.RawTensor { return op.outputs[0] }

// Outputs returns all parts in order.
func (op *ChunkOp) Outputs() []*tensor.RawTensor { return op.outputs }
