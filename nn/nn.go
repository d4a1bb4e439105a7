// Copyright 2025 Primer ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/primer-ml/primer/internal/nn"
	"github.com/primer-ml/primer/internal/tensor"
)

// Module is the common interface for all neural network layers:
// Forward, Parameters, and state-dict round-tripping.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter is a named trainable tensor.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Containers

// Sequential chains modules, feeding each one's output to the next.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a sequential container.
//
// Example:
//
//	model := nn.NewSequential[*B](
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[*B](),
//	    nn.NewLinear(128, 10, backend),
//	)
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Layers

// Linear is a fully connected layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a linear layer with Xavier-initialized weights.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// Conv2D is a 2-D convolutional layer over NCHW tensors.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a convolutional layer.
//
// Example:
//
//	// in_channels=1, out_channels=8, kernel=3x3, stride=1, padding=1
//	conv := nn.NewConv2D(1, 8, 3, 3, 1, 1, true, backend)
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelH, kernelW, stride, padding int, useBias bool, backend B) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding, useBias, backend)
}

// MaxPool2D is a 2-D max pooling layer.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// NewMaxPool2D creates a max pooling layer.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int, backend B) *MaxPool2D[B] {
	return nn.NewMaxPool2D(kernelSize, stride, backend)
}

// Flatten collapses all dimensions after the batch dimension.
type Flatten[B tensor.Backend] = nn.Flatten[B]

// NewFlatten creates a flatten layer.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return nn.NewFlatten[B]()
}

// Embedding maps integer token ids to dense vectors.
//
// Embedding is not a Module: its Forward takes an int32 index tensor
// rather than the float tensor the Module interface fixes.
type Embedding[B tensor.Backend] = nn.Embedding[B]

// NewEmbedding creates an embedding table initialized from N(0, 1).
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, backend B) *Embedding[B] {
	return nn.NewEmbedding(numEmbeddings, embeddingDim, backend)
}

// NewEmbeddingWithWeight creates an embedding table around an existing
// [numEmbeddings, embeddingDim] weight tensor.
func NewEmbeddingWithWeight[B tensor.Backend](weight *tensor.Tensor[float32, B], backend B) *Embedding[B] {
	return nn.NewEmbeddingWithWeight(weight, backend)
}

// RNN is a single-layer Elman RNN with tanh hidden activation.
type RNN[B tensor.Backend] = nn.RNN[B]

// NewRNN creates an RNN cell. Forward consumes [batch, seq, features]
// and returns the final hidden state [batch, hidden].
func NewRNN[B tensor.Backend](inputSize, hiddenSize int, backend B) *RNN[B] {
	return nn.NewRNN(inputSize, hiddenSize, backend)
}

// LSTM is a single-layer LSTM.
type LSTM[B tensor.Backend] = nn.LSTM[B]

// NewLSTM creates an LSTM cell with the same Forward contract as RNN.
func NewLSTM[B tensor.Backend](inputSize, hiddenSize int, backend B) *LSTM[B] {
	return nn.NewLSTM(inputSize, hiddenSize, backend)
}

// Activations

// ReLU applies max(0, x) element-wise.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Sigmoid applies 1/(1+exp(-x)) element-wise.
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a sigmoid activation.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// Tanh applies the hyperbolic tangent element-wise.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a tanh activation.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// Losses and metrics

// CrossEntropyLoss combines softmax and negative log-likelihood over
// integer class targets.
type CrossEntropyLoss[B tensor.Backend] = nn.CrossEntropyLoss[B]

// NewCrossEntropyLoss creates a cross-entropy criterion.
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return nn.NewCrossEntropyLoss(backend)
}

// MSELoss is mean squared error.
type MSELoss[B tensor.Backend] = nn.MSELoss[B]

// NewMSELoss creates an MSE criterion.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return nn.NewMSELoss[B]()
}

// Accuracy computes the fraction of rows where the argmax of logits
// equals the target class.
func Accuracy[B tensor.Backend](logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) float64 {
	return nn.Accuracy(logits, targets)
}

// Checkpoints

// Checkpoint is a full training snapshot: model weights, optimizer
// buffers, and where training stood when it was taken.
type Checkpoint[B tensor.Backend] = nn.Checkpoint[B]

// OptimizerState is the slice of an optimizer that checkpoints need.
type OptimizerState = nn.OptimizerState

// SaveCheckpoint writes model and optimizer state to a .primer file.
func SaveCheckpoint[B tensor.Backend](path string, model Module[B], optimizer OptimizerState, epoch int) error {
	return nn.SaveCheckpoint(path, model, optimizer, epoch)
}

// LoadCheckpoint restores a checkpoint into a pre-built model and
// optimizer of the same architecture.
func LoadCheckpoint[B tensor.Backend](path string, backend B, model Module[B], optimizer OptimizerState) (*Checkpoint[B], error) {
	return nn.LoadCheckpoint(path, backend, model, optimizer)
}
