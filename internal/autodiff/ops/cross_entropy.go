package ops

import (
	"fmt"
	"math"

	"github.com/primer-ml/primer/internal/tensor"
)

// CrossEntropyOp records the fused softmax + negative log-likelihood loss
// for classification:
//
//	loss = mean_b(-log_softmax(logits[b])[targets[b]])
//
// Fusing the two keeps the forward pass stable through the log-sum-exp
// trick and collapses the backward pass to
//
//	dL/dlogits[b,i] = (softmax(logits[b])[i] - onehot(targets[b])[i]) / batch
//
// which is why every framework pairs softmax with cross-entropy.
//
// Logits are [batch, classes], targets are int32 class indices [batch],
// and the output is a single-element mean loss.
type CrossEntropyOp struct {
	logits  *tensor.RawTensor
	targets *tensor.RawTensor
	output  *tensor.RawTensor
}

// NewCrossEntropyOp creates a CrossEntropyOp.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{logits: logits, targets: targets, output: output}
}

// Backward computes (softmax - onehot)/batch, scaled by the upstream
// gradient.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.logits.Shape()
	grad := mustRaw(shape, op.logits.DType(), op.logits.Device())
	targets := op.targets.AsInt32()

	switch op.logits.DType() {
	case tensor.Float32:
		scale := float64(outputGrad.AsFloat32()[0]) / float64(shape[0])
		ceBackward(grad.AsFloat32(), op.logits.AsFloat32(), targets, shape[1], scale)
	case tensor.Float64:
		scale := outputGrad.AsFloat64()[0] / float64(shape[0])
		ceBackward(grad.AsFloat64(), op.logits.AsFloat64(), targets, shape[1], scale)
	default:
		panic("cross_entropy backward: requires float logits")
	}
	return []*tensor.RawTensor{grad}
}

// Inputs returns [logits]; the integer targets carry no gradient.
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.logits} }

// Output returns the mean loss.
func (op *CrossEntropyOp) Output() *tensor.RawTensor { return op.output }

// CrossEntropyForward computes the mean negative log-likelihood of the
// target classes. The per-row log-softmax goes through log-sum-exp so
// large logits cannot overflow.
func CrossEntropyForward(logits, targets *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("cross_entropy: logits must be [batch, classes], got %v", shape))
	}
	tShape := targets.Shape()
	if len(tShape) != 1 || tShape[0] != shape[0] {
		panic(fmt.Sprintf("cross_entropy: targets must be [%d], got %v", shape[0], tShape))
	}
	if targets.DType() != tensor.Int32 {
		panic(fmt.Sprintf("cross_entropy: targets must be int32, got %s", targets.DType()))
	}

	out := mustRaw(tensor.Shape{1}, logits.DType(), device)
	switch logits.DType() {
	case tensor.Float32:
		out.AsFloat32()[0] = float32(ceForward(logits.AsFloat32(), targets.AsInt32(), shape[1]))
	case tensor.Float64:
		out.AsFloat64()[0] = ceForward(logits.AsFloat64(), targets.AsInt32(), shape[1])
	default:
		panic("cross_entropy: requires float logits")
	}
	return out
}

func ceForward[T floats](logits []T, targets []int32, classes int) float64 {
	total := 0.0
	for b, t := range targets {
		if t < 0 || int(t) >= classes {
			panic(fmt.Sprintf("cross_entropy: target %d out of range [0, %d)", t, classes))
		}
		row := logits[b*classes : (b+1)*classes]

		maxVal := float64(row[0])
		for _, v := range row[1:] {
			if float64(v) > maxVal {
				maxVal = float64(v)
			}
		}
		sumExp := 0.0
		for _, v := range row {
			sumExp += math.Exp(float64(v) - maxVal)
		}
		total -= float64(row[t]) - maxVal - math.Log(sumExp)
	}
	return total / float64(len(targets))
}

func ceBackward[T floats](grad, logits []T, targets []int32, classes int, scale float64) {
	for b, t := range targets {
		row := logits[b*classes : (b+1)*classes]
		dst := grad[b*classes : (b+1)*classes]

		maxVal := float64(row[0])
		for _, v := range row[1:] {
			if float64(v) > maxVal {
				maxVal = float64(v)
			}
		}
		sumExp := 0.0
		for _, v := range row {
			sumExp += math.Exp(float64(v) - maxVal)
		}
		for i, v := range row {
			p := math.Exp(float64(v)-maxVal) / sumExp
			if i == int(t) {
				p -= 1
			}
			dst[i] = T(p * scale)
		}
	}
}
