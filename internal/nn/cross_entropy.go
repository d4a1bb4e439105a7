package nn

import (
	"fmt"
	"math"

	"github.com/primer-ml/primer/internal/tensor"
)

// CrossEntropyBackend is implemented by backends with a fused softmax
// cross-entropy. The autodiff decorator provides it and records the op;
// without it the loss is computed directly and cannot backpropagate.
type CrossEntropyBackend interface {
	CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor
}

// CrossEntropyLoss computes softmax cross-entropy between raw logits and
// integer class targets, averaged over the batch.
type CrossEntropyLoss[B tensor.Backend] struct {
	backend B
}

// NewCrossEntropyLoss creates the loss.
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{backend: backend}
}

// Forward computes the scalar loss for [batch, classes] logits and
// [batch] targets. With an autodiff backend the fused op lands on the
// tape; otherwise a direct log-sum-exp evaluation is used, good for
// validation passes on a plain backend.
func (c *CrossEntropyLoss[B]) Forward(logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	if ce, ok := any(c.backend).(CrossEntropyBackend); ok {
		return tensor.New[float32, B](ce.CrossEntropy(logits.Raw(), targets.Raw()), c.backend)
	}
	return c.eval(logits, targets)
}

// eval computes mean(logsumexp(row) - row[target]) straight from the
// data, shifted by the row max for stability.
func (c *CrossEntropyLoss[B]) eval(logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("cross entropy: expected 2D logits [batch, classes], got %v", shape))
	}
	batch, classes := shape[0], shape[1]

	data := logits.Data()
	idx := targets.Data()
	if len(idx) != batch {
		panic(fmt.Sprintf("cross entropy: %d targets for batch of %d", len(idx), batch))
	}

	var total float64
	for i := 0; i < batch; i++ {
		row := data[i*classes : (i+1)*classes]
		target := int(idx[i])
		if target < 0 || target >= classes {
			panic(fmt.Sprintf("cross entropy: target %d out of range [0, %d)", target, classes))
		}

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sumExp float64
		for _, v := range row {
			sumExp += math.Exp(float64(v - maxVal))
		}
		total += math.Log(sumExp) + float64(maxVal) - float64(row[target])
	}

	out := Zeros(tensor.Shape{1}, c.backend)
	out.Data()[0] = float32(total / float64(batch))
	return out
}

// Accuracy returns the fraction of rows whose argmax matches the target
// class.
func Accuracy[B tensor.Backend](logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) float64 {
	predictions := logits.Argmax(1).Data()
	labels := targets.Data()
	if len(predictions) != len(labels) {
		panic(fmt.Sprintf("accuracy: %d predictions vs %d labels", len(predictions), len(labels)))
	}
	if len(labels) == 0 {
		return 0
	}

	correct := 0
	for i, p := range predictions {
		if p == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(labels))
}
