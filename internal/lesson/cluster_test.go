package lesson

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/primer-ml/primer/internal/config"
)

func TestRunClusterBlobs(t *testing.T) {
	cfg := config.DefaultConfig(config.LessonCluster)
	rec := &captureRecorder{}

	metrics, err := RunCluster(context.Background(), cfg, zap.NewNop(), rec)
	if err != nil {
		t.Fatalf("RunCluster: %v", err)
	}

	if metrics["purity"] < 0.95 {
		t.Errorf("purity = %v, want >= 0.95", metrics["purity"])
	}
	if got, want := metrics["merges"], float64(cfg.Cluster.Samples-1); got != want {
		t.Errorf("merges = %v, want %v", got, want)
	}
	if metrics["clusters"] != float64(cfg.Cluster.Clusters) {
		t.Errorf("clusters = %v, want %d", metrics["clusters"], cfg.Cluster.Clusters)
	}
	if metrics["max_merge_distance"] <= 0 {
		t.Errorf("max_merge_distance = %v, want > 0", metrics["max_merge_distance"])
	}
	if len(rec.names) != 1 || rec.names[0] != "purity" {
		t.Errorf("recorded metrics = %v, want only purity", rec.names)
	}
}

func TestRunClusterCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.csv")
	if err := os.WriteFile(path, []byte("0,0\n0.1,0\n5,5\n5.1,5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig(config.LessonCluster)
	cfg.Cluster.CSVPath = path
	cfg.Cluster.Clusters = 2

	metrics, err := RunCluster(context.Background(), cfg, zap.NewNop(), NopRecorder{})
	if err != nil {
		t.Fatalf("RunCluster: %v", err)
	}
	if _, ok := metrics["purity"]; ok {
		t.Errorf("purity reported for CSV input with no ground truth: %v", metrics)
	}
	if metrics["merges"] != 3 {
		t.Errorf("merges = %v, want 3", metrics["merges"])
	}
	if metrics["clusters"] != 2 {
		t.Errorf("clusters = %v, want 2", metrics["clusters"])
	}
}

func TestRunClusterBadLinkage(t *testing.T) {
	cfg := config.DefaultConfig(config.LessonCluster)
	cfg.Cluster.Linkage = "centroid"

	if _, err := RunCluster(context.Background(), cfg, zap.NewNop(), NopRecorder{}); err == nil {
		t.Fatal("expected error for unknown linkage")
	}
}

func TestRunClusterHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := config.DefaultConfig(config.LessonCluster)
	_, err := RunCluster(ctx, cfg, zap.NewNop(), NopRecorder{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
