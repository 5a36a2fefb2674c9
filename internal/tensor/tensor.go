// Package tensor implements the dense and sparse tensor types shared by
// every layer of the library.
//
// The split mirrors the backend architecture: RawTensor is the untyped
// buffer+metadata representation that Backend implementations operate
// on, while Tensor[T, B] is the typed, ergonomic view used by the nn and
// optim packages. Sparse carries the rotation operators.
package tensor

import "fmt"

// Tensor is a typed tensor bound to a backend.
//
// T is the element type (float32 for network weights and activations).
// B is the backend the tensor computes on; when B is the autodiff
// decorator, every method call is recorded for reverse-mode
// differentiation.
//
// Tensors are cheap handles: copying a Tensor copies a pointer to the
// underlying RawTensor, not the buffer.
type Tensor[T DType, B Backend] struct {
	raw     *RawTensor
	backend B
}

// New wraps a RawTensor in a typed Tensor.
// Panics if the raw dtype does not match T.
func New[T DType, B Backend](raw *RawTensor, backend B) *Tensor[T, B] {
	if want := DataTypeOf[T](); raw.DType() != want {
		panic(fmt.Sprintf("tensor: dtype mismatch, raw is %s but T is %s", raw.DType(), want))
	}
	return &Tensor[T, B]{raw: raw, backend: backend}
}

// Raw returns the underlying RawTensor.
func (t *Tensor[T, B]) Raw() *RawTensor {
	return t.raw
}

// Backend returns the backend this tensor is bound to.
func (t *Tensor[T, B]) Backend() B {
	return t.backend
}

// Shape returns the tensor shape.
func (t *Tensor[T, B]) Shape() Shape {
	return t.raw.Shape()
}

// NumElements returns the number of elements.
func (t *Tensor[T, B]) NumElements() int {
	return t.raw.NumElements()
}

// DType returns the runtime data type tag.
func (t *Tensor[T, B]) DType() DataType {
	return t.raw.DType()
}

// Data returns the elements as a typed slice aliasing the buffer.
func (t *Tensor[T, B]) Data() []T {
	switch DataTypeOf[T]() {
	case Float64:
		return any(t.raw.AsFloat64()).([]T)
	default:
		return any(t.raw.AsFloat32()).([]T)
	}
}

// At returns the element at the given multi-index.
func (t *Tensor[T, B]) At(index ...int) T {
	return T(t.raw.At(index...))
}

// Clone returns a deep copy sharing nothing with the receiver.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return New[T](t.raw.Clone(), t.backend)
}

// wrap binds a backend result to the receiver's type and backend.
func (t *Tensor[T, B]) wrap(raw *RawTensor) *Tensor[T, B] {
	return &Tensor[T, B]{raw: raw, backend: t.backend}
}
