package lesson

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/primer-ml/primer/internal/autodiff"
	"github.com/primer-ml/primer/internal/backend/cpu"
	"github.com/primer-ml/primer/internal/config"
	"github.com/primer-ml/primer/internal/dataset"
	"github.com/primer-ml/primer/internal/nn"
	"github.com/primer-ml/primer/internal/optim"
	"github.com/primer-ml/primer/internal/tensor"
	"github.com/primer-ml/primer/internal/train"
)

// adBackend is the backend every network lesson trains on: the CPU
// kernels wrapped with gradient recording.
type adBackend = *autodiff.Backend[*cpu.Backend]

// defaultSyntheticSamples sizes the generated dataset when no sample cap
// is configured.
const defaultSyntheticSamples = 512

// cnn pairs the convolutional stack with the [batch, 784] to
// [batch, 1, 28, 28] reshape the batch loader leaves to the model.
type cnn struct {
	net *nn.Sequential[adBackend]
}

// newCNN builds the lesson's classifier: two conv/pool stages that take
// 28x28 down to 16 channels of 7x7, then a single linear readout.
func newCNN(backend adBackend) *cnn {
	return &cnn{net: nn.NewSequential[adBackend](
		nn.NewConv2D(1, 8, 3, 3, 1, 1, true, backend),
		nn.NewReLU[adBackend](),
		nn.NewMaxPool2D(2, 2, backend),
		nn.NewConv2D(8, 16, 3, 3, 1, 1, true, backend),
		nn.NewReLU[adBackend](),
		nn.NewMaxPool2D(2, 2, backend),
		nn.NewFlatten[adBackend](),
		nn.NewLinear(16*7*7, dataset.MNISTNumClasses, backend),
	)}
}

func (c *cnn) Forward(x *tensor.Tensor[float32, adBackend]) *tensor.Tensor[float32, adBackend] {
	batch := x.Shape()[0]
	return c.net.Forward(x.Reshape(batch, 1, dataset.MNISTImageRows, dataset.MNISTImageCols))
}

// loadMNIST resolves the lesson's data source in config order: CSV file,
// synthetic patterns, IDX files (optionally downloaded first).
func loadMNIST(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*dataset.Dataset, error) {
	mc := cfg.MNIST
	switch {
	case mc.CSVPath != "":
		logger.Info("Loading MNIST from CSV", zap.String("path", mc.CSVPath))
		return dataset.LoadMNISTCSV(mc.CSVPath, mc.MaxSamples)
	case mc.Synthetic:
		samples := mc.MaxSamples
		if samples <= 0 {
			samples = defaultSyntheticSamples
		}
		logger.Info("Generating synthetic MNIST", zap.Int("samples", samples))
		return dataset.SyntheticMNIST(samples, cfg.Seed), nil
	default:
		if mc.Download {
			logger.Info("Downloading MNIST", zap.String("dir", mc.DataDir))
			if err := dataset.DownloadMNIST(ctx, mc.DataDir); err != nil {
				return nil, fmt.Errorf("failed to download MNIST: %w", err)
			}
		}
		logger.Info("Loading MNIST IDX files", zap.String("dir", mc.DataDir))
		return dataset.LoadMNISTIDX(mc.DataDir, true, mc.MaxSamples)
	}
}

// RunMNIST trains the convolutional classifier.
func RunMNIST(ctx context.Context, cfg *config.Config, logger *zap.Logger, rec Recorder) (map[string]float64, error) {
	data, err := loadMNIST(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	trainData, valData := data.Split(cfg.MNIST.ValRatio)
	logger.Info("Dataset ready",
		zap.Int("train_samples", trainData.NumSamples()),
		zap.Int("val_samples", valData.NumSamples()))

	backend := autodiff.New(cpu.New())
	model := newCNN(backend)
	optimizer := optim.NewAdam(model.net.Parameters(), optim.AdamConfig{
		LR: float32(cfg.LR),
	}, backend)

	trainBatches, err := dataset.CreateBatches(trainData, cfg.BatchSize, true, cfg.Seed, backend)
	if err != nil {
		return nil, fmt.Errorf("failed to batch training data: %w", err)
	}
	valBatches, err := dataset.CreateBatches(valData, 256, false, cfg.Seed, backend)
	if err != nil {
		return nil, fmt.Errorf("failed to batch validation data: %w", err)
	}

	trainer := &train.Trainer[float32, adBackend]{
		Model:     model,
		Criterion: nn.NewCrossEntropyLoss[adBackend](backend),
		Optimizer: optimizer,
		Backend:   backend,
		OnEpoch: func(s train.EpochStats) {
			rec.Record(s.Epoch, "train_loss", s.TrainLoss)
			rec.Record(s.Epoch, "train_acc", s.TrainAcc)
			rec.Record(s.Epoch, "val_loss", s.ValLoss)
			rec.Record(s.Epoch, "val_acc", s.ValAcc)
			logger.Info("Epoch finished",
				zap.Int("epoch", s.Epoch),
				zap.Float64("train_loss", s.TrainLoss),
				zap.Float64("train_acc", s.TrainAcc),
				zap.Float64("val_acc", s.ValAcc))
		},
	}

	final, err := trainer.Fit(ctx, train.FromFeatureBatches(trainBatches), train.FromFeatureBatches(valBatches), cfg.Epochs)
	if err != nil {
		return nil, err
	}

	if path := cfg.MNIST.Checkpoint; path != "" {
		ckpt := &nn.Checkpoint[adBackend]{
			Model:     model.net,
			Optimizer: optimizer,
			Epoch:     final.Epoch,
			Step:      final.Step,
			Loss:      final.TrainLoss,
			Metadata:  map[string]any{"dataset": "mnist"},
			CreatedAt: time.Now().UTC(),
		}
		if err := ckpt.Save(path); err != nil {
			return nil, fmt.Errorf("failed to save checkpoint: %w", err)
		}
		logger.Info("Checkpoint saved", zap.String("path", path))
	}

	logger.Info("MNIST training complete",
		zap.Float64("val_acc", final.ValAcc),
		zap.Float64("val_loss", final.ValLoss))

	return map[string]float64{
		"train_loss": final.TrainLoss,
		"train_acc":  final.TrainAcc,
		"val_loss":   final.ValLoss,
		"val_acc":    final.ValAcc,
	}, nil
}
