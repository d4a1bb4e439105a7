package nn

import (
	"fmt"

	"github.com/primer-ml/primer/internal/tensor"
)

// MaxPool2D downsamples NCHW input by taking the maximum over square
// windows. It has no parameters.
type MaxPool2D[B tensor.Backend] struct {
	kernelSize int
	stride     int
	backend    B
}

// NewMaxPool2D creates a pooling layer. A stride of 0 defaults to the
// kernel size, giving non-overlapping windows.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int, backend B) *MaxPool2D[B] {
	if kernelSize <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel size %d", kernelSize))
	}
	if stride < 0 {
		panic(fmt.Sprintf("maxpool2d: invalid stride %d", stride))
	}
	if stride == 0 {
		stride = kernelSize
	}
	return &MaxPool2D[B]{kernelSize: kernelSize, stride: stride, backend: backend}
}

// Forward pools a [batch, channels, H, W] input. The argmax indices the
// backend computes alongside the output stay inside the tape; callers
// only see the pooled tensor.
func (m *MaxPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4D input [batch, channels, h, w], got %v", shape))
	}

	raw, _ := m.backend.MaxPool2D(input.Raw(), m.kernelSize, m.stride)
	return tensor.New[float32, B](raw, m.backend)
}

// Parameters returns nil; pooling is stateless.
func (m *MaxPool2D[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns nil; there is nothing to checkpoint.
func (m *MaxPool2D[B]) StateDict() map[string]*tensor.RawTensor { return nil }

// LoadStateDict is a no-op.
func (m *MaxPool2D[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// OutputSize returns the spatial output size for an input of h by w.
func (m *MaxPool2D[B]) OutputSize(h, w int) (int, int) {
	return (h-m.kernelSize)/m.stride + 1, (w-m.kernelSize)/m.stride + 1
}

// String describes the layer.
func (m *MaxPool2D[B]) String() string {
	return fmt.Sprintf("MaxPool2D(kernel=%d, stride=%d)", m.kernelSize, m.stride)
}
