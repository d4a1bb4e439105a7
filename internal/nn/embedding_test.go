package nn_test

import (
	"testing"

	"github.com/primer-ml/primer/internal/autodiff"
	"github.com/primer-ml/primer/internal/nn"
	"github.com/primer-ml/primer/internal/tensor"
)

func TestEmbeddingForward(t *testing.T) {
	backend := newBackend()
	table := fromSlice(t, tensor.Shape{4, 3}, []float32{
		0, 1, 2,
		10, 11, 12,
		20, 21, 22,
		30, 31, 32,
	}, backend)
	emb := nn.NewEmbeddingWithWeight(table, backend)

	indices := indexTensor(t, tensor.Shape{2}, []int32{2, 0}, backend)
	out := emb.Forward(indices)

	if !out.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("expected shape [2 3], got %v", out.Shape())
	}
	wantClose(t, out.Data(), []float32{20, 21, 22, 0, 1, 2}, 0)
}

func TestEmbeddingBatchedIndices(t *testing.T) {
	backend := newBackend()
	table := fromSlice(t, tensor.Shape{3, 2}, []float32{0, 1, 10, 11, 20, 21}, backend)
	emb := nn.NewEmbeddingWithWeight(table, backend)

	indices := indexTensor(t, tensor.Shape{2, 2}, []int32{0, 2, 1, 1}, backend)
	out := emb.Forward(indices)

	if !out.Shape().Equal(tensor.Shape{2, 2, 2}) {
		t.Fatalf("expected shape [2 2 2], got %v", out.Shape())
	}
	wantClose(t, out.Data(), []float32{0, 1, 20, 21, 10, 11, 10, 11}, 0)
}

func TestEmbeddingGradientScattersToRows(t *testing.T) {
	backend := newBackend()
	table := fromSlice(t, tensor.Shape{4, 2}, []float32{0, 0, 0, 0, 0, 0, 0, 0}, backend)
	emb := nn.NewEmbeddingWithWeight(table, backend)

	indices := indexTensor(t, tensor.Shape{3}, []int32{1, 1, 3}, backend)

	backend.Tape().StartRecording()
	defer backend.Tape().StopRecording()

	loss := emb.Forward(indices).Sum()
	grads := autodiff.Backward(loss, backend)

	grad := grads[emb.Weight().Tensor().Raw()]
	if grad == nil {
		t.Fatal("no gradient for embedding table")
	}
	// Token 1 looked up twice, token 3 once, tokens 0 and 2 never.
	wantClose(t, grad.AsFloat32(), []float32{0, 0, 2, 2, 0, 0, 1, 1}, 0)
}

func TestEmbeddingInitDistribution(t *testing.T) {
	backend := newBackend()
	emb := nn.NewEmbedding(64, 16, backend)

	var sum float64
	data := emb.Weight().Tensor().Data()
	for _, v := range data {
		sum += float64(v)
	}
	mean := sum / float64(len(data))
	// N(0,1) over 1024 samples: the mean stays well inside ±0.3.
	if mean > 0.3 || mean < -0.3 {
		t.Errorf("suspicious init mean %v for unit normal", mean)
	}
}

func TestEmbeddingStateDictRoundTrip(t *testing.T) {
	backend := newBackend()
	src := nn.NewEmbedding(5, 4, backend)
	dst := nn.NewEmbedding(5, 4, backend)

	if err := dst.LoadStateDict(src.StateDict()); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}
	wantClose(t, dst.Weight().Tensor().Data(), src.Weight().Tensor().Data(), 0)
}
