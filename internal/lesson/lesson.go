// Package lesson holds the config-driven form of the five teaching
// programs under examples/. The examples stay linear and chatty for
// reading; these runners do the same work behind a uniform signature so
// the CLI can execute any lesson, log through zap, and stream metrics
// into the experiment store.
package lesson

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/primer-ml/primer/internal/config"
)

// Recorder receives per-epoch metrics as a lesson produces them. The CLI
// binds one to the experiment store; NopRecorder drops everything.
type Recorder interface {
	Record(epoch int, name string, value float64)
}

// NopRecorder discards recorded metrics.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(int, string, float64) {}

// Runner executes one lesson and returns its final metrics.
type Runner func(ctx context.Context, cfg *config.Config, logger *zap.Logger, rec Recorder) (map[string]float64, error)

var runners = map[string]Runner{
	config.LessonXOR:       RunXOR,
	config.LessonMNIST:     RunMNIST,
	config.LessonSentiment: RunSentiment,
	config.LessonIris:      RunIris,
	config.LessonCluster:   RunCluster,
}

// Get returns the runner registered for a lesson name.
func Get(name string) (Runner, error) {
	runner, ok := runners[name]
	if !ok {
		return nil, fmt.Errorf("lesson: unknown lesson %q, valid lessons: %s",
			name, strings.Join(config.Lessons(), ", "))
	}
	return runner, nil
}
