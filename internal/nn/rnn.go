package nn

import (
	"fmt"

	"github.com/primer-ml/primer/internal/tensor"
)

// RNN is a single-layer Elman recurrent network.
//
// Each timestep computes h_t = tanh(x_t·Wihᵀ + h_{t-1}·Whhᵀ + b) with
// Wih of shape [hidden, input] and Whh of shape [hidden, hidden]. The
// hidden state starts at zero for every Forward call.
type RNN[B tensor.Backend] struct {
	weightIH *Parameter[B]
	weightHH *Parameter[B]
	bias     *Parameter[B]
	backend  B

	inputSize  int
	hiddenSize int
}

// NewRNN creates an Elman RNN layer with Xavier-initialized weights and
// zero bias.
func NewRNN[B tensor.Backend](inputSize, hiddenSize int, backend B) *RNN[B] {
	if inputSize <= 0 || hiddenSize <= 0 {
		panic(fmt.Sprintf("rnn: invalid dimensions in=%d hidden=%d", inputSize, hiddenSize))
	}

	return &RNN[B]{
		weightIH:   NewParameter("weight_ih", Xavier(inputSize, hiddenSize, tensor.Shape{hiddenSize, inputSize}, backend)),
		weightHH:   NewParameter("weight_hh", Xavier(hiddenSize, hiddenSize, tensor.Shape{hiddenSize, hiddenSize}, backend)),
		bias:       NewParameter("bias", Zeros(tensor.Shape{hiddenSize}, backend)),
		backend:    backend,
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
	}
}

// Forward consumes a [batch, seq, features] sequence and returns the
// final hidden state [batch, hidden]. The whole unrolled computation goes
// through tape ops, so gradients reach every timestep.
func (r *RNN[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	states := r.ForwardSequence(input)
	return states[len(states)-1]
}

// ForwardSequence returns the hidden state after every timestep, earliest
// first.
func (r *RNN[B]) ForwardSequence(input *tensor.Tensor[float32, B]) []*tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("rnn: expected 3D input [batch, seq, features], got %v", shape))
	}
	if shape[2] != r.inputSize {
		panic(fmt.Sprintf("rnn: expected %d input features, got %d", r.inputSize, shape[2]))
	}
	batch, seq := shape[0], shape[1]

	tb, ok := any(r.backend).(TanhBackend)
	if !ok {
		panic("rnn: backend does not implement Tanh, wrap it with autodiff.New")
	}

	wihT := r.weightIH.Tensor().T()
	whhT := r.weightHH.Tensor().T()
	bias := r.bias.Tensor().Reshape(1, r.hiddenSize)

	hidden := Zeros(tensor.Shape{batch, r.hiddenSize}, r.backend)
	states := make([]*tensor.Tensor[float32, B], 0, seq)
	for _, step := range input.Chunk(seq, 1) {
		xt := step.Reshape(batch, r.inputSize)
		pre := xt.MatMul(wihT).Add(hidden.MatMul(whhT)).Add(bias)
		hidden = tensor.New[float32, B](tb.Tanh(pre.Raw()), r.backend)
		states = append(states, hidden)
	}
	return states
}

// Parameters returns the input weights, recurrent weights and bias.
func (r *RNN[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{r.weightIH, r.weightHH, r.bias}
}

// StateDict exposes the weights for checkpointing.
func (r *RNN[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight_ih": r.weightIH.Tensor().Raw(),
		"weight_hh": r.weightHH.Tensor().Raw(),
		"bias":      r.bias.Tensor().Raw(),
	}
}

// LoadStateDict copies checkpoint data into the layer's tensors.
func (r *RNN[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	if err := loadParam(state, "weight_ih", r.weightIH.Tensor()); err != nil {
		return err
	}
	if err := loadParam(state, "weight_hh", r.weightHH.Tensor()); err != nil {
		return err
	}
	return loadParam(state, "bias", r.bias.Tensor())
}

// InputSize returns the per-timestep feature width.
func (r *RNN[B]) InputSize() int { return r.inputSize }

// HiddenSize returns the hidden state width.
func (r *RNN[B]) HiddenSize() int { return r.hiddenSize }

// String describes the layer.
func (r *RNN[B]) String() string {
	return fmt.Sprintf("RNN(in=%d, hidden=%d)", r.inputSize, r.hiddenSize)
}
