package lesson

import (
	"context"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/primer-ml/primer/internal/config"
)

// fillDeterministic replaces the random init with 0.5*sin(k) over the
// weights in declaration order, so trajectories are exactly repeatable.
func fillDeterministic(n *XORNet) {
	k := 0
	next := func() float32 {
		v := float32(0.5 * math.Sin(float64(k)))
		k++
		return v
	}
	for i := range n.w1 {
		n.w1[i] = next()
	}
	for i := range n.b1 {
		n.b1[i] = next()
	}
	for i := range n.w2 {
		n.w2[i] = next()
	}
	n.b2 = next()
}

type captureRecorder struct {
	epochs []int
	names  []string
	values []float64
}

func (c *captureRecorder) Record(epoch int, name string, value float64) {
	c.epochs = append(c.epochs, epoch)
	c.names = append(c.names, name)
	c.values = append(c.values, value)
}

func TestXORNetLearnsTruthTable(t *testing.T) {
	net := NewXORNet(4, 0)
	fillDeterministic(net)

	inputs, targets := XORData()
	var loss float32
	for epoch := 0; epoch < 3000; epoch++ {
		loss = net.TrainEpoch(inputs, targets, 0.5)
	}

	if loss >= 0.01 {
		t.Errorf("final loss %.5f, want < 0.01", loss)
	}
	for i, x := range inputs {
		pred := net.Predict(x)
		if targets[i] == 1 && pred <= 0.9 {
			t.Errorf("XOR(%v, %v) = %.4f, want > 0.9", x[0], x[1], pred)
		}
		if targets[i] == 0 && pred >= 0.1 {
			t.Errorf("XOR(%v, %v) = %.4f, want < 0.1", x[0], x[1], pred)
		}
	}
}

func TestTrainStepReducesError(t *testing.T) {
	net := NewXORNet(4, 0)
	fillDeterministic(net)

	x := []float32{0, 1}
	target := float32(1)

	before := target - net.Predict(x)
	net.TrainStep(x, target, 0.5)
	after := target - net.Predict(x)

	if after*after >= before*before {
		t.Errorf("squared error went from %.5f to %.5f, want a decrease",
			before*before, after*after)
	}
}

func TestNewXORNetIsSeeded(t *testing.T) {
	a := NewXORNet(4, 7)
	b := NewXORNet(4, 7)
	c := NewXORNet(4, 8)

	for i := range a.w1 {
		if a.w1[i] != b.w1[i] {
			t.Fatal("same seed produced different weights")
		}
	}
	same := true
	for i := range a.w1 {
		if a.w1[i] != c.w1[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical weights")
	}
}

func TestRunXOR(t *testing.T) {
	cfg := config.DefaultConfig(config.LessonXOR)
	rec := &captureRecorder{}

	metrics, err := RunXOR(context.Background(), cfg, zap.NewNop(), rec)
	if err != nil {
		t.Fatalf("RunXOR failed: %v", err)
	}

	if metrics["accuracy"] != 1.0 {
		t.Errorf("accuracy = %.2f, want 1.0", metrics["accuracy"])
	}
	if metrics["train_loss"] >= 0.05 {
		t.Errorf("train_loss = %.4f, want < 0.05", metrics["train_loss"])
	}
	if len(rec.epochs) < 10 {
		t.Errorf("expected at least 10 recorded losses, got %d", len(rec.epochs))
	}
	if rec.epochs[len(rec.epochs)-1] != cfg.Epochs {
		t.Errorf("last recorded epoch %d, want %d", rec.epochs[len(rec.epochs)-1], cfg.Epochs)
	}
}

func TestRunXORHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := config.DefaultConfig(config.LessonXOR)
	_, err := RunXOR(ctx, cfg, zap.NewNop(), NopRecorder{})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
