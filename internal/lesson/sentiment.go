package lesson

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/primer-ml/primer/internal/autodiff"
	"github.com/primer-ml/primer/internal/backend/cpu"
	"github.com/primer-ml/primer/internal/config"
	"github.com/primer-ml/primer/internal/dataset"
	"github.com/primer-ml/primer/internal/nn"
	"github.com/primer-ml/primer/internal/optim"
	"github.com/primer-ml/primer/internal/tensor"
	"github.com/primer-ml/primer/internal/textenc"
	"github.com/primer-ml/primer/internal/train"
)

// sentimentClasses is the label space: 0 negative, 1 positive.
const sentimentClasses = 2

// tiktokenEncoding is the BPE table used when the lesson runs with the
// subword encoder.
const tiktokenEncoding = "cl100k_base"

// sentimentNet reads token ids through an embedding table, runs the
// embedded sequence through a recurrent cell, and classifies the final
// hidden state. Exactly one of lstm or rnn is set.
type sentimentNet struct {
	embedding *nn.Embedding[adBackend]
	lstm      *nn.LSTM[adBackend]
	rnn       *nn.RNN[adBackend]
	head      *nn.Linear[adBackend]
}

func newSentimentNet(vocabSize, embedDim, hiddenSize int, cell string, backend adBackend) *sentimentNet {
	net := &sentimentNet{
		embedding: nn.NewEmbedding(vocabSize, embedDim, backend),
		head:      nn.NewLinear(hiddenSize, sentimentClasses, backend),
	}
	if cell == "rnn" {
		net.rnn = nn.NewRNN(embedDim, hiddenSize, backend)
	} else {
		net.lstm = nn.NewLSTM(embedDim, hiddenSize, backend)
	}
	return net
}

func (n *sentimentNet) Forward(tokens *tensor.Tensor[int32, adBackend]) *tensor.Tensor[float32, adBackend] {
	embedded := n.embedding.Forward(tokens)
	var hidden *tensor.Tensor[float32, adBackend]
	if n.rnn != nil {
		hidden = n.rnn.Forward(embedded)
	} else {
		hidden = n.lstm.Forward(embedded)
	}
	return n.head.Forward(hidden)
}

func (n *sentimentNet) Parameters() []*nn.Parameter[adBackend] {
	params := n.embedding.Parameters()
	if n.rnn != nil {
		params = append(params, n.rnn.Parameters()...)
	} else {
		params = append(params, n.lstm.Parameters()...)
	}
	return append(params, n.head.Parameters()...)
}

// loadSentimentData reads the configured file, or falls back to the
// built-in corpus when no path is set.
func loadSentimentData(cfg *config.Config, logger *zap.Logger) (*dataset.TextDataset, error) {
	path := cfg.Sentiment.DataPath
	if path == "" {
		logger.Info("Using built-in sentiment corpus")
		return dataset.SentimentCorpus(), nil
	}
	logger.Info("Loading sentiment data", zap.String("path", path))
	if strings.HasSuffix(path, ".tsv") {
		return dataset.LoadSentimentTSV(path)
	}
	return dataset.LoadSentimentCSV(path)
}

// newSentimentEncoder builds the token encoder. The word-level
// vocabulary is fit on training texts only, so validation tokens the
// model never saw map to the unknown id.
func newSentimentEncoder(cfg *config.Config, trainTexts []string) (textenc.Encoder, error) {
	switch cfg.Sentiment.Encoder {
	case "tiktoken":
		return textenc.NewTiktokenEncoder(tiktokenEncoding)
	default:
		return textenc.BuildVocabulary(trainTexts, cfg.Sentiment.VocabSize), nil
	}
}

// RunSentiment trains the recurrent sentiment classifier.
func RunSentiment(ctx context.Context, cfg *config.Config, logger *zap.Logger, rec Recorder) (map[string]float64, error) {
	sc := cfg.Sentiment

	data, err := loadSentimentData(cfg, logger)
	if err != nil {
		return nil, err
	}
	trainData, valData := data.Split(sc.ValRatio)
	logger.Info("Dataset ready",
		zap.Int("train_samples", trainData.NumSamples()),
		zap.Int("val_samples", valData.NumSamples()))

	enc, err := newSentimentEncoder(cfg, trainData.Texts())
	if err != nil {
		return nil, err
	}
	logger.Info("Encoder ready",
		zap.String("encoder", sc.Encoder),
		zap.Int("vocab_size", enc.VocabSize()))

	trainSeqs, err := textenc.EncodeBatch(enc, trainData.Texts(), sc.SeqLen)
	if err != nil {
		return nil, fmt.Errorf("failed to encode training texts: %w", err)
	}
	valSeqs, err := textenc.EncodeBatch(enc, valData.Texts(), sc.SeqLen)
	if err != nil {
		return nil, fmt.Errorf("failed to encode validation texts: %w", err)
	}

	backend := autodiff.New(cpu.New())
	model := newSentimentNet(enc.VocabSize(), sc.EmbedDim, sc.HiddenSize, sc.Cell, backend)
	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{
		LR: float32(cfg.LR),
	}, backend)
	logger.Info("Model ready",
		zap.String("cell", sc.Cell),
		zap.Int("embed_dim", sc.EmbedDim),
		zap.Int("hidden_size", sc.HiddenSize))

	trainBatches, err := dataset.CreateTokenBatches(trainSeqs, trainData.Labels(), cfg.BatchSize, true, cfg.Seed, backend)
	if err != nil {
		return nil, fmt.Errorf("failed to batch training data: %w", err)
	}
	valBatches, err := dataset.CreateTokenBatches(valSeqs, valData.Labels(), cfg.BatchSize, false, cfg.Seed, backend)
	if err != nil {
		return nil, fmt.Errorf("failed to batch validation data: %w", err)
	}

	trainer := &train.Trainer[int32, adBackend]{
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

	final, err := trainer.Fit(ctx, train.FromTokenBatches(trainBatches), train.FromTokenBatches(valBatches), cfg.Epochs)
	if err != nil {
		return nil, err
	}

	logger.Info("Sentiment training complete",
		zap.Float64("train_acc", final.TrainAcc),
		zap.Float64("val_acc", final.ValAcc))

	return map[string]float64{
		"train_loss": final.TrainLoss,
		"train_acc":  final.TrainAcc,
		"val_loss":   final.ValLoss,
		"val_acc":    final.ValAcc,
	}, nil
}
