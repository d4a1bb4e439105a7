package serialization

import (
	"fmt"
	"sort"

	"github.com/primer-ml/primer/internal/tensor"
)

// validateTensors checks the tensor table against the data section before
// any tensor is materialized: offsets and sizes in bounds, sizes matching
// shape and dtype, no two tensors sharing bytes.
func validateTensors(tensors []TensorMeta, dataSize int64) error {
	for _, meta := range tensors {
		if meta.Offset < 0 || meta.Size < 0 {
			return fmt.Errorf("tensor %q: negative offset or size: %w", meta.Name, ErrOutOfBounds)
		}
		if meta.Offset+meta.Size > dataSize {
			return fmt.Errorf("tensor %q: [%d, %d) in %d-byte section: %w",
				meta.Name, meta.Offset, meta.Offset+meta.Size, dataSize, ErrOutOfBounds)
		}

		dtype, ok := stringToDtype(meta.DType)
		if !ok {
			return fmt.Errorf("tensor %q: unsupported dtype %q", meta.Name, meta.DType)
		}
		shape := tensor.Shape(meta.Shape)
		if err := shape.Validate(); err != nil {
			return fmt.Errorf("tensor %q: %w", meta.Name, err)
		}
		if want := int64(shape.NumElements() * dtype.Size()); want != meta.Size {
			return fmt.Errorf("tensor %q: size %d for shape %v %s, want %d: %w",
				meta.Name, meta.Size, meta.Shape, meta.DType, want, ErrSizeMismatch)
		}
	}

	// Overlap check over the offset-sorted table.
	sorted := make([]TensorMeta, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Offset+prev.Size > cur.Offset {
			return fmt.Errorf("tensors %q and %q: %w", prev.Name, cur.Name, ErrOffsetOverlap)
		}
	}
	return nil
}
