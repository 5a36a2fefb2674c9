package tensor

import "fmt"

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, backend B) *Tensor[T, B] {
	raw := MustNewRaw(shape, DataTypeOf[T](), backend.Device())
	return New[T](raw, backend)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, backend B) *Tensor[T, B] {
	return Full[T](shape, 1, backend)
}

// Full creates a tensor filled with a constant value.
func Full[T DType, B Backend](shape Shape, value T, backend B) *Tensor[T, B] {
	raw := MustNewRaw(shape, DataTypeOf[T](), backend.Device())
	fillRaw(raw, float64(value))
	return New[T](raw, backend)
}

// FromSlice creates a tensor from a flat slice in row-major order.
// The slice is copied.
func FromSlice[T DType, B Backend](data []T, shape Shape, backend B) *Tensor[T, B] {
	if len(data) != shape.NumElements() {
		panic(fmt.Sprintf("tensor: FromSlice got %d elements for shape %v (%d elements)",
			len(data), shape, shape.NumElements()))
	}
	raw := MustNewRaw(shape, DataTypeOf[T](), backend.Device())
	switch DataTypeOf[T]() {
	case Float64:
		copy(raw.AsFloat64(), any(data).([]float64))
	default:
		copy(raw.AsFloat32(), any(data).([]float32))
	}
	return New[T](raw, backend)
}

func fillRaw(raw *RawTensor, value float64) {
	switch raw.DType() {
	case Float64:
		data := raw.AsFloat64()
		for i := range data {
			data[i] = value
		}
	default:
		data := raw.AsFloat32()
		v := float32(value)
		for i := range data {
			data[i] = v
		}
	}
}

// OnesRaw allocates a RawTensor of ones, used to seed backward passes.
func OnesRaw(shape Shape, dtype DataType, device Device) *RawTensor {
	raw := MustNewRaw(shape, dtype, device)
	fillRaw(raw, 1)
	return raw
}
