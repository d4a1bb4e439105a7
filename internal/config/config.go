// Package config defines the YAML experiment configuration the CLI runs
// lessons from. A config names one lesson plus the knobs it trains with;
// DefaultConfig gives each lesson a runnable default so `primer run xor`
// works without a file.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/primer-ml/primer/internal/cluster"
)

// Lesson names, the keys the runner registry and CLI accept.
const (
	LessonXOR       = "xor"
	LessonMNIST     = "mnist"
	LessonSentiment = "sentiment"
	LessonIris      = "iris"
	LessonCluster   = "cluster"
)

// Lessons lists every runnable lesson in teaching order.
func Lessons() []string {
	return []string{LessonXOR, LessonMNIST, LessonSentiment, LessonIris, LessonCluster}
}

// Config holds one experiment: the lesson to run and its knobs. The
// top-level training fields apply to the network lessons; the tree and
// clustering lessons read only their own sections.
type Config struct {
	Lesson    string  `yaml:"lesson"`
	Seed      int64   `yaml:"seed"`
	Epochs    int     `yaml:"epochs"`
	BatchSize int     `yaml:"batch_size"`
	LR        float64 `yaml:"lr"`

	XOR       XORConfig       `yaml:"xor"`
	MNIST     MNISTConfig     `yaml:"mnist"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Iris      IrisConfig      `yaml:"iris"`
	Cluster   ClusterConfig   `yaml:"cluster"`
}

// XORConfig configures the hand-written perceptron lesson.
type XORConfig struct {
	HiddenSize int `yaml:"hidden_size"`
}

// MNISTConfig configures the CNN lesson's data source and checkpointing.
type MNISTConfig struct {
	// DataDir holds the four IDX files when Synthetic is false.
	DataDir string `yaml:"data_dir"`
	// CSVPath, when set, loads MNIST from a Kaggle-style CSV instead.
	CSVPath string `yaml:"csv_path"`
	// Synthetic generates embedded digit patterns, no files needed.
	Synthetic bool `yaml:"synthetic"`
	// Download fetches the IDX files into DataDir before loading.
	Download   bool    `yaml:"download"`
	MaxSamples int     `yaml:"max_samples"`
	ValRatio   float32 `yaml:"val_ratio"`
	// Checkpoint, when set, saves model and optimizer state there
	// after training.
	Checkpoint string `yaml:"checkpoint"`
}

// SentimentConfig configures the recurrent text lesson.
type SentimentConfig struct {
	// DataPath points at a label<TAB>text file; empty uses the
	// embedded review corpus.
	DataPath string `yaml:"data_path"`
	// Encoder is "vocab" or "tiktoken".
	Encoder string `yaml:"encoder"`
	// Cell is "lstm" or "rnn".
	Cell       string  `yaml:"cell"`
	VocabSize  int     `yaml:"vocab_size"`
	SeqLen     int     `yaml:"seq_len"`
	EmbedDim   int     `yaml:"embed_dim"`
	HiddenSize int     `yaml:"hidden_size"`
	ValRatio   float32 `yaml:"val_ratio"`
}

// IrisConfig configures the decision-tree lesson.
type IrisConfig struct {
	MaxDepth            int     `yaml:"max_depth"`
	MinSamplesSplit     int     `yaml:"min_samples_split"`
	MinImpurityDecrease float64 `yaml:"min_impurity_decrease"`
	TestRatio           float64 `yaml:"test_ratio"`
}

// ClusterConfig configures the hierarchical-clustering lesson.
type ClusterConfig struct {
	Linkage  string `yaml:"linkage"`
	Clusters int    `yaml:"clusters"`
	// CSVPath, when set, clusters points from a CSV instead of
	// generated blobs.
	CSVPath string  `yaml:"csv_path"`
	Samples int     `yaml:"samples"`
	Stddev  float64 `yaml:"stddev"`
}

// DefaultConfig returns a runnable configuration for the given lesson.
// The lesson name is not validated here; Validate reports unknown names.
func DefaultConfig(lesson string) *Config {
	cfg := &Config{
		Lesson: lesson,
		Seed:   42,
		XOR: XORConfig{
			HiddenSize: 4,
		},
		MNIST: MNISTConfig{
			DataDir:   "./data",
			Synthetic: true,
			ValRatio:  0.2,
		},
		Sentiment: SentimentConfig{
			Encoder:    "vocab",
			Cell:       "lstm",
			VocabSize:  200,
			SeqLen:     12,
			EmbedDim:   16,
			HiddenSize: 32,
			ValRatio:   0.25,
		},
		Iris: IrisConfig{
			MaxDepth:        3,
			MinSamplesSplit: 2,
			TestRatio:       0.3,
		},
		Cluster: ClusterConfig{
			Linkage:  "ward",
			Clusters: 3,
			Samples:  60,
			Stddev:   0.5,
		},
	}

	switch lesson {
	case LessonXOR:
		cfg.Epochs = 5000
		cfg.BatchSize = 4
		cfg.LR = 0.5
	case LessonMNIST:
		cfg.Epochs = 3
		cfg.BatchSize = 32
		cfg.LR = 0.001
	case LessonSentiment:
		cfg.Epochs = 12
		cfg.BatchSize = 8
		cfg.LR = 0.01
	}
	return cfg
}

// Load reads a YAML config. Defaults are applied per lesson before the
// file's values land on top, so a config only needs the fields it wants
// to change (plus the lesson name).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// First pass just reads the lesson so the right defaults underlay
	// the second.
	var probe struct {
		Lesson string `yaml:"lesson"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := DefaultConfig(probe.Lesson)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config for the lesson it names.
func (c *Config) Validate() error {
	switch c.Lesson {
	case LessonXOR, LessonMNIST, LessonSentiment:
		if c.Epochs <= 0 {
			return fmt.Errorf("config: epochs must be positive, got %d", c.Epochs)
		}
		if c.BatchSize <= 0 {
			return fmt.Errorf("config: batch_size must be positive, got %d", c.BatchSize)
		}
		if c.LR <= 0 {
			return fmt.Errorf("config: lr must be positive, got %g", c.LR)
		}
	case LessonIris, LessonCluster:
	default:
		return fmt.Errorf("config: unknown lesson %q, valid lessons: %s",
			c.Lesson, strings.Join(Lessons(), ", "))
	}

	switch c.Lesson {
	case LessonXOR:
		if c.XOR.HiddenSize <= 0 {
			return fmt.Errorf("config: xor.hidden_size must be positive, got %d", c.XOR.HiddenSize)
		}
	case LessonMNIST:
		if err := validateRatio("mnist.val_ratio", c.MNIST.ValRatio); err != nil {
			return err
		}
		if c.MNIST.MaxSamples < 0 {
			return fmt.Errorf("config: mnist.max_samples cannot be negative, got %d", c.MNIST.MaxSamples)
		}
	case LessonSentiment:
		s := c.Sentiment
		if s.Encoder != "vocab" && s.Encoder != "tiktoken" {
			return fmt.Errorf("config: sentiment.encoder must be vocab or tiktoken, got %q", s.Encoder)
		}
		if s.Cell != "lstm" && s.Cell != "rnn" {
			return fmt.Errorf("config: sentiment.cell must be lstm or rnn, got %q", s.Cell)
		}
		if s.VocabSize <= 3 {
			return fmt.Errorf("config: sentiment.vocab_size must exceed the 3 reserved ids, got %d", s.VocabSize)
		}
		if s.SeqLen < 2 {
			return fmt.Errorf("config: sentiment.seq_len must be at least 2, got %d", s.SeqLen)
		}
		if s.EmbedDim <= 0 || s.HiddenSize <= 0 {
			return fmt.Errorf("config: sentiment embed_dim and hidden_size must be positive")
		}
		if err := validateRatio("sentiment.val_ratio", s.ValRatio); err != nil {
			return err
		}
	case LessonIris:
		if c.Iris.MaxDepth < 0 {
			return fmt.Errorf("config: iris.max_depth cannot be negative, got %d", c.Iris.MaxDepth)
		}
		if c.Iris.TestRatio <= 0 || c.Iris.TestRatio >= 1 {
			return fmt.Errorf("config: iris.test_ratio must be in (0, 1), got %g", c.Iris.TestRatio)
		}
	case LessonCluster:
		if _, err := cluster.ParseLinkage(c.Cluster.Linkage); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if c.Cluster.Clusters < 1 {
			return fmt.Errorf("config: cluster.clusters must be at least 1, got %d", c.Cluster.Clusters)
		}
		if c.Cluster.CSVPath == "" {
			if c.Cluster.Samples < c.Cluster.Clusters {
				return fmt.Errorf("config: cluster.samples %d cannot seat %d clusters",
					c.Cluster.Samples, c.Cluster.Clusters)
			}
			if c.Cluster.Stddev <= 0 {
				return fmt.Errorf("config: cluster.stddev must be positive, got %g", c.Cluster.Stddev)
			}
		}
	}
	return nil
}

func validateRatio(name string, v float32) error {
	if v <= 0 || v >= 1 {
		return fmt.Errorf("config: %s must be in (0, 1), got %g", name, v)
	}
	return nil
}

// Snapshot flattens the config into the generic map the experiment store
// records with a run. Only the active lesson's section is included.
func (c *Config) Snapshot() map[string]any {
	snap := map[string]any{
		"lesson": c.Lesson,
		"seed":   c.Seed,
	}
	switch c.Lesson {
	case LessonXOR, LessonMNIST, LessonSentiment:
		snap["epochs"] = c.Epochs
		snap["batch_size"] = c.BatchSize
		snap["lr"] = c.LR
	}
	switch c.Lesson {
	case LessonXOR:
		snap["hidden_size"] = c.XOR.HiddenSize
	case LessonMNIST:
		snap["synthetic"] = c.MNIST.Synthetic
		snap["max_samples"] = c.MNIST.MaxSamples
		snap["val_ratio"] = c.MNIST.ValRatio
	case LessonSentiment:
		snap["encoder"] = c.Sentiment.Encoder
		snap["cell"] = c.Sentiment.Cell
		snap["vocab_size"] = c.Sentiment.VocabSize
		snap["seq_len"] = c.Sentiment.SeqLen
	case LessonIris:
		snap["max_depth"] = c.Iris.MaxDepth
		snap["test_ratio"] = c.Iris.TestRatio
	case LessonCluster:
		snap["linkage"] = c.Cluster.Linkage
		snap["clusters"] = c.Cluster.Clusters
		snap["samples"] = c.Cluster.Samples
	}
	return snap
}
