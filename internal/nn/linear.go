package nn

import (
	"fmt"

	"github.com/primer-ml/primer/internal/tensor"
)

// Linear is a fully connected layer computing y = x·Wᵀ + b.
//
// The weight has shape [outFeatures, inFeatures] and is initialized with
// Xavier uniform; the bias has shape [outFeatures] and starts at zero.
type Linear[B tensor.Backend] struct {
	weight  *Parameter[B]
	bias    *Parameter[B]
	backend B

	inFeatures  int
	outFeatures int
}

// NewLinear creates a fully connected layer.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("linear: invalid dimensions %dx%d", inFeatures, outFeatures))
	}

	weight := Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, backend)
	bias := Zeros(tensor.Shape{outFeatures}, backend)

	return &Linear[B]{
		weight:      NewParameter("weight", weight),
		bias:        NewParameter("bias", bias),
		backend:     backend,
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
	}
}

// Forward computes x·Wᵀ + b for a batch of row vectors [batch, inFeatures].
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("linear: expected 2D input [batch, features], got %v", shape))
	}
	if shape[1] != l.inFeatures {
		panic(fmt.Sprintf("linear: expected %d input features, got %d", l.inFeatures, shape[1]))
	}

	out := input.MatMul(l.weight.Tensor().T())
	return out.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
}

// Parameters returns the weight and bias.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

// StateDict exposes the weight and bias for checkpointing.
func (l *Linear[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight": l.weight.Tensor().Raw(),
		"bias":   l.bias.Tensor().Raw(),
	}
}

// LoadStateDict copies checkpoint data into the layer's tensors.
func (l *Linear[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	if err := loadParam(state, "weight", l.weight.Tensor()); err != nil {
		return err
	}
	return loadParam(state, "bias", l.bias.Tensor())
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] { return l.weight }

// Bias returns the bias parameter.
func (l *Linear[B]) Bias() *Parameter[B] { return l.bias }

// InFeatures returns the input width.
func (l *Linear[B]) InFeatures() int { return l.inFeatures }

// OutFeatures returns the output width.
func (l *Linear[B]) OutFeatures() int { return l.outFeatures }

// String describes the layer.
func (l *Linear[B]) String() string {
	return fmt.Sprintf("Linear(in=%d, out=%d)", l.inFeatures, l.outFeatures)
}
