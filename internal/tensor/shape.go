package tensor

import "fmt"

// Shape holds the dimensions of a tensor, outermost first.
type Shape []int

// NumElements returns the total number of elements.
// A zero-length shape is a scalar with one element.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that every dimension is positive.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("dimension %d is %d, must be > 0", i, dim)
		}
	}
	return nil
}

// Equal reports whether two shapes match exactly.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// Strides computes row-major strides: strides[i] is the number of
// elements skipped when index i advances by one.
func (s Shape) Strides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}
	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// BroadcastShapes applies NumPy broadcasting rules to a pair of shapes.
// Dimensions are compared right to left; they are compatible when equal
// or when one of them is 1. Missing leading dimensions count as 1.
//
// Returns the broadcast result, whether any expansion is required, and
// an error when the shapes are incompatible.
//
// Examples:
//
//	(4, 1) + (4, 3) → (4, 3), true, nil
//	(4, 3) + (4, 3) → (4, 3), false, nil
//	(4, 2) + (4, 3) → nil, false, error
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	n := max(len(a), len(b))
	result := make(Shape, n)
	expanded := false

	for i := 0; i < n; i++ {
		ai, bi := len(a)-1-i, len(b)-1-i

		aDim, bDim := 1, 1
		if ai >= 0 {
			aDim = a[ai]
		}
		if bi >= 0 {
			bDim = b[bi]
		}

		switch {
		case aDim == bDim:
			result[n-1-i] = aDim
		case aDim == 1:
			result[n-1-i] = bDim
			expanded = true
		case bDim == 1:
			result[n-1-i] = aDim
			expanded = true
		default:
			return nil, false, fmt.Errorf("cannot broadcast %v with %v: dimension %d (%d vs %d)",
				a, b, n-1-i, aDim, bDim)
		}
	}

	return result, expanded, nil
}
