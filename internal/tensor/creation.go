package tensor

import (
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	b := cpu.New()
//	t := tensor.Zeros[float32](tensor.Shape{3, 4}, b)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err)
	}
	// Fresh buffers are already zeroed.
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, T(1), b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a tensor sampled from the standard normal distribution
// using the shared math/rand source. Float types only.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	requireFloat[T]("Randn")
	data := t.Data()
	for i := range data {
		data[i] = T(rand.NormFloat64()) //nolint:gosec // statistical sampling, not security
	}
	return t
}

// RandnFrom is Randn with an explicit source, for reproducible runs.
func RandnFrom[T DType, B Backend](rng *rand.Rand, shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	requireFloat[T]("RandnFrom")
	data := t.Data()
	for i := range data {
		data[i] = T(rng.NormFloat64())
	}
	return t
}

// Rand creates a tensor with values uniform in [0, 1). Float types only.
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	requireFloat[T]("Rand")
	data := t.Data()
	for i := range data {
		data[i] = T(rand.Float64()) //nolint:gosec // statistical sampling, not security
	}
	return t
}

// RandFrom is Rand with an explicit source, for reproducible runs.
func RandFrom[T DType, B Backend](rng *rand.Rand, shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	requireFloat[T]("RandFrom")
	data := t.Data()
	for i := range data {
		data[i] = T(rng.Float64())
	}
	return t
}

// Arange creates a 1D tensor with values start, start+1, ..., end-1.
func Arange[T DType, B Backend](start, end T, b B) *Tensor[T, B] {
	n := int(float64(end) - float64(start))
	if n <= 0 {
		panic("Arange: end must be greater than start")
	}

	t := Zeros[T, B](Shape{n}, b)
	data := t.Data()
	for i := range data {
		data[i] = start + T(i)
	}
	return t
}

// Eye creates an n by n identity matrix.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	t := Zeros[T, B](Shape{n, n}, b)
	for i := 0; i < n; i++ {
		t.Set(T(1), i, i)
	}
	return t
}

func requireFloat[T DType](op string) {
	var dummy T
	if !inferDataType(dummy).IsFloat() {
		panic(op + " supports float32 and float64 only")
	}
}
