// Package train runs the fit/evaluate loop the classifier lessons share.
//
// Every lesson pairs a model with cross-entropy and an optimizer, walks
// batches for a number of epochs, and reports per-epoch metrics. Trainer
// owns that loop, including the tape lifecycle around each step:
//
//	trainer := &train.Trainer[float32, adBackend]{
//	    Model:     model,
//	    Criterion: nn.NewCrossEntropyLoss[adBackend](backend),
//	    Optimizer: optimizer,
//	    Backend:   backend,
//	}
//	final, err := trainer.Fit(ctx, trainBatches, valBatches, epochs)
package train

import (
	"context"
	"fmt"
	"math"

	"github.com/primer-ml/primer/internal/autodiff"
	"github.com/primer-ml/primer/internal/dataset"
	"github.com/primer-ml/primer/internal/nn"
	"github.com/primer-ml/primer/internal/optim"
	"github.com/primer-ml/primer/internal/tensor"
)

// Model is the forward surface the loop needs. nn modules satisfy it with
// I = float32; token models (embedding front ends) with I = int32.
type Model[I tensor.DType, B tensor.Backend] interface {
	Forward(inputs *tensor.Tensor[I, B]) *tensor.Tensor[float32, B]
}

// Batch pairs one batch of model inputs with its integer class labels.
type Batch[I tensor.DType, B tensor.Backend] struct {
	Inputs *tensor.Tensor[I, B]
	Labels *tensor.Tensor[int32, B]
	Size   int
}

// FromFeatureBatches adapts dataset feature batches to the loop's view.
func FromFeatureBatches[B tensor.Backend](batches []*dataset.Batch[B]) []Batch[float32, B] {
	out := make([]Batch[float32, B], len(batches))
	for i, b := range batches {
		out[i] = Batch[float32, B]{Inputs: b.Features, Labels: b.Labels, Size: b.Size}
	}
	return out
}

// FromTokenBatches adapts dataset token batches to the loop's view.
func FromTokenBatches[B tensor.Backend](batches []*dataset.TokenBatch[B]) []Batch[int32, B] {
	out := make([]Batch[int32, B], len(batches))
	for i, b := range batches {
		out[i] = Batch[int32, B]{Inputs: b.Tokens, Labels: b.Labels, Size: b.Size}
	}
	return out
}

// EpochStats carries one epoch's metrics. Epoch counts from 1; Step is
// the cumulative optimizer step count, one per training batch.
type EpochStats struct {
	Epoch     int
	Step      int64
	TrainLoss float64
	TrainAcc  float64
	ValLoss   float64
	ValAcc    float64
}

// Trainer runs classifier training over an autodiff backend.
type Trainer[I tensor.DType, B autodiff.BackwardCapable] struct {
	Model     Model[I, B]
	Criterion *nn.CrossEntropyLoss[B]
	Optimizer optim.Optimizer
	Backend   B

	// OnEpoch, when non-nil, receives each epoch's metrics as they land.
	OnEpoch func(EpochStats)

	step int64
}

// Fit trains for the given number of epochs, evaluating on valBatches
// after each one (skipped when valBatches is empty), and returns the last
// epoch's stats. Cancellation is honored between epochs: the context
// error comes back along with the stats of the epochs that did finish.
func (t *Trainer[I, B]) Fit(ctx context.Context, trainBatches, valBatches []Batch[I, B], epochs int) (EpochStats, error) {
	if epochs <= 0 {
		return EpochStats{}, fmt.Errorf("train: epochs must be positive, got %d", epochs)
	}
	if len(trainBatches) == 0 {
		return EpochStats{}, fmt.Errorf("train: no training batches")
	}

	t.Backend.GetTape().StartRecording()

	var last EpochStats
	for epoch := 1; epoch <= epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return last, err
		}

		trainLoss, trainAcc := t.trainEpoch(trainBatches)
		stats := EpochStats{
			Epoch:     epoch,
			Step:      t.step,
			TrainLoss: trainLoss,
			TrainAcc:  trainAcc,
		}
		if len(valBatches) > 0 {
			stats.ValLoss, stats.ValAcc = t.Evaluate(valBatches)
		}

		if t.OnEpoch != nil {
			t.OnEpoch(stats)
		}
		last = stats
	}
	return last, nil
}

// trainEpoch runs one pass over the batches: forward, backward, optimizer
// step, tape cleared after each batch. Returns the mean batch loss and
// the sample-weighted accuracy.
func (t *Trainer[I, B]) trainEpoch(batches []Batch[I, B]) (avgLoss, accuracy float64) {
	var totalLoss float64
	var correct, samples int

	for _, batch := range batches {
		t.Optimizer.ZeroGrad()

		logits := t.Model.Forward(batch.Inputs)
		loss := t.Criterion.Forward(logits, batch.Labels)
		totalLoss += float64(loss.Data()[0])

		grads := autodiff.Backward(loss, t.Backend)
		t.Optimizer.Step(grads)
		t.step++

		acc := nn.Accuracy(logits, batch.Labels)
		correct += int(math.Round(acc * float64(batch.Size)))
		samples += batch.Size

		t.Backend.GetTape().Clear()
	}

	return totalLoss / float64(len(batches)), float64(correct) / float64(samples)
}

// Evaluate runs a forward-only pass with recording suspended and returns
// the mean batch loss and sample-weighted accuracy.
func (t *Trainer[I, B]) Evaluate(batches []Batch[I, B]) (avgLoss, accuracy float64) {
	if len(batches) == 0 {
		return 0, 0
	}

	tape := t.Backend.GetTape()
	wasRecording := tape.IsRecording()
	tape.StopRecording()
	defer func() {
		if wasRecording {
			tape.StartRecording()
		}
	}()

	var totalLoss float64
	var correct, samples int
	for _, batch := range batches {
		logits := t.Model.Forward(batch.Inputs)
		loss := t.Criterion.Forward(logits, batch.Labels)
		totalLoss += float64(loss.Data()[0])

		acc := nn.Accuracy(logits, batch.Labels)
		correct += int(math.Round(acc * float64(batch.Size)))
		samples += batch.Size
	}

	return totalLoss / float64(len(batches)), float64(correct) / float64(samples)
}

// Steps returns the number of optimizer steps taken so far.
func (t *Trainer[I, B]) Steps() int64 {
	return t.step
}
