package nn

import (
	"fmt"

	"github.com/primer-ml/primer/internal/tensor"
)

// LSTM is a single-layer long short-term memory network with fused gate
// weights.
//
// Wih has shape [4*hidden, input] and Whh [4*hidden, hidden]; one matmul
// per timestep produces all four gate pre-activations, which are chunked
// into input, forget, cell and output gates:
//
//	i, f, g, o = chunk(x_t·Wihᵀ + h_{t-1}·Whhᵀ + b, 4)
//	c_t = σ(f)*c_{t-1} + σ(i)*tanh(g)
//	h_t = σ(o)*tanh(c_t)
//
// Hidden and cell state start at zero for every Forward call.
type LSTM[B tensor.Backend] struct {
	weightIH *Parameter[B]
	weightHH *Parameter[B]
	bias     *Parameter[B]
	backend  B

	inputSize  int
	hiddenSize int
}

// NewLSTM creates an LSTM layer with Xavier-initialized weights and zero
// bias.
func NewLSTM[B tensor.Backend](inputSize, hiddenSize int, backend B) *LSTM[B] {
	if inputSize <= 0 || hiddenSize <= 0 {
		panic(fmt.Sprintf("lstm: invalid dimensions in=%d hidden=%d", inputSize, hiddenSize))
	}

	return &LSTM[B]{
		weightIH:   NewParameter("weight_ih", Xavier(inputSize, hiddenSize, tensor.Shape{4 * hiddenSize, inputSize}, backend)),
		weightHH:   NewParameter("weight_hh", Xavier(hiddenSize, hiddenSize, tensor.Shape{4 * hiddenSize, hiddenSize}, backend)),
		bias:       NewParameter("bias", Zeros(tensor.Shape{4 * hiddenSize}, backend)),
		backend:    backend,
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
	}
}

// Forward consumes a [batch, seq, features] sequence and returns the
// final hidden state [batch, hidden].
func (l *LSTM[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("lstm: expected 3D input [batch, seq, features], got %v", shape))
	}
	if shape[2] != l.inputSize {
		panic(fmt.Sprintf("lstm: expected %d input features, got %d", l.inputSize, shape[2]))
	}
	batch, seq := shape[0], shape[1]

	sb, okS := any(l.backend).(SigmoidBackend)
	tb, okT := any(l.backend).(TanhBackend)
	if !okS || !okT {
		panic("lstm: backend does not implement Sigmoid and Tanh, wrap it with autodiff.New")
	}

	wihT := l.weightIH.Tensor().T()
	whhT := l.weightHH.Tensor().T()
	bias := l.bias.Tensor().Reshape(1, 4*l.hiddenSize)

	hidden := Zeros(tensor.Shape{batch, l.hiddenSize}, l.backend)
	cell := Zeros(tensor.Shape{batch, l.hiddenSize}, l.backend)

	for _, step := range input.Chunk(seq, 1) {
		xt := step.Reshape(batch, l.inputSize)
		gates := xt.MatMul(wihT).Add(hidden.MatMul(whhT)).Add(bias)

		parts := gates.Chunk(4, 1)
		it := tensor.New[float32, B](sb.Sigmoid(parts[0].Raw()), l.backend)
		ft := tensor.New[float32, B](sb.Sigmoid(parts[1].Raw()), l.backend)
		gt := tensor.New[float32, B](tb.Tanh(parts[2].Raw()), l.backend)
		ot := tensor.New[float32, B](sb.Sigmoid(parts[3].Raw()), l.backend)

		cell = ft.Mul(cell).Add(it.Mul(gt))
		hidden = ot.Mul(tensor.New[float32, B](tb.Tanh(cell.Raw()), l.backend))
	}
	return hidden
}

// Parameters returns the input weights, recurrent weights and bias.
func (l *LSTM[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weightIH, l.weightHH, l.bias}
}

// StateDict exposes the weights for checkpointing.
func (l *LSTM[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight_ih": l.weightIH.Tensor().Raw(),
		"weight_hh": l.weightHH.Tensor().Raw(),
		"bias":      l.bias.Tensor().Raw(),
	}
}

// LoadStateDict copies checkpoint data into the layer's tensors.
func (l *LSTM[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	if err := loadParam(state, "weight_ih", l.weightIH.Tensor()); err != nil {
		return err
	}
	if err := loadParam(state, "weight_hh", l.weightHH.Tensor()); err != nil {
		return err
	}
	return loadParam(state, "bias", l.bias.Tensor())
}

// InputSize returns the per-timestep feature width.
func (l *LSTM[B]) InputSize() int { return l.inputSize }

// HiddenSize returns the hidden state width.
func (l *LSTM[B]) HiddenSize() int { return l.hiddenSize }

// String describes the layer.
func (l *LSTM[B]) String() string {
	return fmt.Sprintf("LSTM(in=%d, hidden=%d)", l.inputSize, l.hiddenSize)
}
