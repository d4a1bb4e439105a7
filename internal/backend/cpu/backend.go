// Package cpu implements the pure Go CPU backend.
//
// Kernels are written as generic functions over the element type, so each
// algorithm exists once and is instantiated per dtype. Loops that dominate
// training time (matmul, convolution) are split across cores with the
// parallel package.
package cpu

import (
	"fmt"

	"github.com/primer-ml/primer/internal/parallel"
	"github.com/primer-ml/primer/internal/tensor"
)

// Backend executes tensor operations on the CPU.
type Backend struct {
	device tensor.Device
	pool   parallel.Config
}

// New creates a CPU backend with the default worker pool.
func New() *Backend {
	return NewWithPool(parallel.DefaultConfig())
}

// NewWithPool creates a CPU backend with an explicit pool configuration.
// Pass parallel.Sequential() for single-threaded execution.
func NewWithPool(pool parallel.Config) *Backend {
	return &Backend{device: tensor.CPU, pool: pool}
}

// Name returns the backend name.
func (c *Backend) Name() string {
	return "cpu"
}

// Device returns the compute device.
func (c *Backend) Device() tensor.Device {
	return c.device
}

// mustRaw allocates an output tensor or panics with the op name.
func mustRaw(op string, shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.RawTensor {
	out, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	return out
}

// view returns the typed slice backing r. The caller guarantees T matches
// r's dtype; the As* accessors enforce it at runtime.
func view[T tensor.DType](r *tensor.RawTensor) []T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(r.AsFloat32()).([]T)
	case float64:
		return any(r.AsFloat64()).([]T)
	case int32:
		return any(r.AsInt32()).([]T)
	case int64:
		return any(r.AsInt64()).([]T)
	default:
		panic("cpu: unsupported element type")
	}
}
