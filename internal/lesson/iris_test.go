package lesson

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/primer-ml/primer/internal/config"
)

func TestRunIris(t *testing.T) {
	cfg := config.DefaultConfig(config.LessonIris)
	rec := &captureRecorder{}

	metrics, err := RunIris(context.Background(), cfg, zap.NewNop(), rec)
	if err != nil {
		t.Fatalf("RunIris: %v", err)
	}

	if metrics["train_acc"] < 0.9 {
		t.Errorf("train_acc = %v, want >= 0.9", metrics["train_acc"])
	}
	if metrics["test_acc"] < 0.85 {
		t.Errorf("test_acc = %v, want >= 0.85", metrics["test_acc"])
	}
	if d := metrics["depth"]; d < 1 || d > float64(cfg.Iris.MaxDepth) {
		t.Errorf("depth = %v, want within [1, %d]", d, cfg.Iris.MaxDepth)
	}

	recorded := make(map[string]bool)
	for _, name := range rec.names {
		recorded[name] = true
	}
	if !recorded["train_acc"] || !recorded["test_acc"] {
		t.Errorf("recorded metrics = %v, want train_acc and test_acc", rec.names)
	}
}

func TestRunIrisHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := config.DefaultConfig(config.LessonIris)
	_, err := RunIris(ctx, cfg, zap.NewNop(), NopRecorder{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
