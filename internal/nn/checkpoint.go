package nn

import (
	"fmt"
	"strings"
	"time"

	"github.com/primer-ml/primer/internal/serialization"
	"github.com/primer-ml/primer/internal/tensor"
)

// OptimizerState is the slice of an optimizer that checkpoints need.
// Declared here rather than importing optim so the dependency points one
// way; every optimizer in the optim package satisfies it.
type OptimizerState interface {
	StateDict() map[string]*tensor.RawTensor
	LoadStateDict(state map[string]*tensor.RawTensor) error
	GetLR() float32
}

// optimizerPrefix separates optimizer tensors from model tensors inside
// a checkpoint file.
const optimizerPrefix = "optimizer."

// Checkpoint is a full training snapshot: model weights, optimizer
// buffers and where training stood when it was taken.
type Checkpoint[B tensor.Backend] struct {
	Model     Module[B]
	Optimizer OptimizerState
	Epoch     int
	Step      int64
	Loss      float64
	Metadata  map[string]any
	CreatedAt time.Time
}

// Save writes the checkpoint to a .primer file. Optimizer tensors are
// stored under the "optimizer." prefix next to the model tensors.
func (c *Checkpoint[B]) Save(path string) error {
	combined := make(map[string]*tensor.RawTensor)
	for name, raw := range c.Model.StateDict() {
		combined[name] = raw
	}
	if c.Optimizer != nil {
		for name, raw := range c.Optimizer.StateDict() {
			combined[optimizerPrefix+name] = raw
		}
	}

	header := serialization.Header{
		ModelType: "Checkpoint",
		CheckpointMeta: &serialization.CheckpointMeta{
			Epoch:        c.Epoch,
			Step:         c.Step,
			Loss:         c.Loss,
			TrainingMeta: c.Metadata,
		},
	}
	if c.Optimizer != nil {
		header.CheckpointMeta.OptimizerType = fmt.Sprintf("%T", c.Optimizer)
		header.CheckpointMeta.OptimizerConfig = map[string]any{"lr": c.Optimizer.GetLR()}
	}

	writer, err := serialization.NewWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	defer writer.Close()

	if err := writer.WriteStateDictWithHeader(combined, header); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return writer.Close()
}

// LoadCheckpoint restores a checkpoint into a pre-built model and
// optimizer. Both must have the same architecture and configuration as
// when the checkpoint was saved; tensors are validated by name and shape
// as they load. A nil optimizer skips the optimizer state.
func LoadCheckpoint[B tensor.Backend](path string, backend B, model Module[B], optimizer OptimizerState) (*Checkpoint[B], error) {
	reader, err := serialization.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint: %w", err)
	}
	defer reader.Close()

	header := reader.Header()
	if header.CheckpointMeta == nil {
		return nil, fmt.Errorf("%s is not a checkpoint file", path)
	}

	state, err := reader.ReadStateDict(backend)
	if err != nil {
		return nil, fmt.Errorf("failed to read state dict: %w", err)
	}

	modelState := make(map[string]*tensor.RawTensor)
	optimizerState := make(map[string]*tensor.RawTensor)
	for name, raw := range state {
		if rest, ok := strings.CutPrefix(name, optimizerPrefix); ok {
			optimizerState[rest] = raw
		} else {
			modelState[name] = raw
		}
	}

	if err := model.LoadStateDict(modelState); err != nil {
		return nil, fmt.Errorf("failed to load model state: %w", err)
	}
	if optimizer != nil {
		if err := optimizer.LoadStateDict(optimizerState); err != nil {
			return nil, fmt.Errorf("failed to load optimizer state: %w", err)
		}
	}

	return &Checkpoint[B]{
		Model:     model,
		Optimizer: optimizer,
		Epoch:     header.CheckpointMeta.Epoch,
		Step:      header.CheckpointMeta.Step,
		Loss:      header.CheckpointMeta.Loss,
		Metadata:  header.CheckpointMeta.TrainingMeta,
		CreatedAt: header.CreatedAt,
	}, nil
}

// SaveCheckpoint writes a checkpoint in one call.
func SaveCheckpoint[B tensor.Backend](path string, model Module[B], optimizer OptimizerState, epoch int) error {
	c := &Checkpoint[B]{
		Model:     model,
		Optimizer: optimizer,
		Epoch:     epoch,
		CreatedAt: time.Now().UTC(),
	}
	return c.Save(path)
}
