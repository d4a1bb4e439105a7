package lesson

import (
	"context"
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/primer-ml/primer/internal/config"
)

// XORNet is a two-layer perceptron with hand-derived gradients, the one
// piece of the repo that computes backpropagation by hand instead of
// through the autodiff tape. Working through these thirty lines is the
// point of the first lesson; every later model trusts the tape to do the
// same chain rule at scale.
//
// Forward: hidden = σ(x·W1 + b1), out = σ(hidden·w2 + b2).
// Backward: δout = (target - out)·out·(1-out), then
// δhidden_j = δout·w2_j·h_j·(1-h_j), with plain SGD updates.
type XORNet struct {
	hiddenSize int

	w1 []float32 // [2*hidden], input i to hidden j at i*hidden+j
	b1 []float32 // [hidden]
	w2 []float32 // [hidden]
	b2 float32
}

// NewXORNet creates a net with weights drawn uniformly from [-1, 1).
func NewXORNet(hiddenSize int, seed int64) *XORNet {
	rng := rand.New(rand.NewSource(seed))

	n := &XORNet{
		hiddenSize: hiddenSize,
		w1:         make([]float32, 2*hiddenSize),
		b1:         make([]float32, hiddenSize),
		w2:         make([]float32, hiddenSize),
	}
	for i := range n.w1 {
		n.w1[i] = float32(rng.Float64()*2 - 1)
	}
	for i := range n.b1 {
		n.b1[i] = float32(rng.Float64()*2 - 1)
	}
	for i := range n.w2 {
		n.w2[i] = float32(rng.Float64()*2 - 1)
	}
	n.b2 = float32(rng.Float64()*2 - 1)
	return n
}

// XORData returns the 4-point dataset: inputs and their XOR labels.
func XORData() (inputs [][]float32, targets []float32) {
	inputs = [][]float32{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	targets = []float32{0, 1, 1, 0}
	return inputs, targets
}

func sigmoid32(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}

func (n *XORNet) forward(x []float32) (hidden []float32, out float32) {
	hidden = make([]float32, n.hiddenSize)
	for j := 0; j < n.hiddenSize; j++ {
		hidden[j] = sigmoid32(x[0]*n.w1[j] + x[1]*n.w1[n.hiddenSize+j] + n.b1[j])
	}

	sum := n.b2
	for j, h := range hidden {
		sum += h * n.w2[j]
	}
	return hidden, sigmoid32(sum)
}

// Predict runs the forward pass for one two-feature input.
func (n *XORNet) Predict(x []float32) float32 {
	_, out := n.forward(x)
	return out
}

// TrainStep runs forward, manual backward, and an SGD update for one
// sample, returning the squared error before the update.
func (n *XORNet) TrainStep(x []float32, target, lr float32) float32 {
	hidden, out := n.forward(x)

	err := target - out
	deltaOut := err * out * (1 - out)

	deltaHidden := make([]float32, n.hiddenSize)
	for j, h := range hidden {
		deltaHidden[j] = deltaOut * n.w2[j] * h * (1 - h)
	}

	for j, h := range hidden {
		n.w2[j] += lr * deltaOut * h
	}
	n.b2 += lr * deltaOut

	for j, d := range deltaHidden {
		n.w1[j] += lr * d * x[0]
		n.w1[n.hiddenSize+j] += lr * d * x[1]
		n.b1[j] += lr * d
	}
	return err * err
}

// TrainEpoch runs one pass of per-sample updates over the dataset and
// returns the mean squared error.
func (n *XORNet) TrainEpoch(inputs [][]float32, targets []float32, lr float32) float32 {
	var total float32
	for i, x := range inputs {
		total += n.TrainStep(x, targets[i], lr)
	}
	return total / float32(len(inputs))
}

// RunXOR trains the hand-written perceptron on the 4-point XOR dataset.
func RunXOR(ctx context.Context, cfg *config.Config, logger *zap.Logger, rec Recorder) (map[string]float64, error) {
	inputs, targets := XORData()
	net := NewXORNet(cfg.XOR.HiddenSize, cfg.Seed)
	lr := float32(cfg.LR)

	logger.Info("Training XOR perceptron",
		zap.Int("hidden_size", cfg.XOR.HiddenSize),
		zap.Int("epochs", cfg.Epochs),
		zap.Float64("lr", cfg.LR))

	reportEvery := cfg.Epochs / 10
	if reportEvery < 1 {
		reportEvery = 1
	}

	var loss float32
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loss = net.TrainEpoch(inputs, targets, lr)
		if epoch%reportEvery == 0 || epoch == cfg.Epochs {
			rec.Record(epoch, "train_loss", float64(loss))
			logger.Debug("Epoch finished",
				zap.Int("epoch", epoch),
				zap.Float64("loss", float64(loss)))
		}
	}

	correct := 0
	for i, x := range inputs {
		pred := net.Predict(x)
		if (pred > 0.5) == (targets[i] > 0.5) {
			correct++
		}
		logger.Debug("Truth table row",
			zap.Float32("a", x[0]),
			zap.Float32("b", x[1]),
			zap.Float32("prediction", pred),
			zap.Float32("target", targets[i]))
	}
	accuracy := float64(correct) / float64(len(inputs))

	logger.Info("XOR training complete",
		zap.Float64("loss", float64(loss)),
		zap.Float64("accuracy", accuracy))

	return map[string]float64{
		"train_loss": float64(loss),
		"accuracy":   accuracy,
	}, nil
}
