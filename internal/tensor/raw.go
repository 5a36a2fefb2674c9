package tensor

import (
	"fmt"
	"unsafe"
)

// RawTensor is the untyped tensor representation shared by all backends.
//
// It owns a contiguous row-major byte buffer plus shape/stride/dtype
// metadata. RawTensor carries no compile-time element type; the typed
// view lives in Tensor[T, B]. Backends consume and produce RawTensors.
//
// Operations never mutate their inputs: every backend op allocates a
// fresh output buffer, which keeps recorded computation graphs valid.
type RawTensor struct {
	shape   Shape
	strides []int
	dtype   DataType
	device  Device
	data    []byte
}

// NewRaw allocates a zeroed RawTensor with the given shape and dtype.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if !shape.IsValid() {
		return nil, fmt.Errorf("invalid shape %v: dimensions must be positive", shape)
	}
	if dtype.Size() == 0 {
		return nil, fmt.Errorf("invalid dtype %v", dtype)
	}

	return &RawTensor{
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
		dtype:   dtype,
		device:  device,
		data:    make([]byte, shape.NumElements()*dtype.Size()),
	}, nil
}

// MustNewRaw is NewRaw that panics on error, for call sites where the
// shape is already validated.
func MustNewRaw(shape Shape, dtype DataType, device Device) *RawTensor {
	raw, err := NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("tensor: %v", err))
	}
	return raw
}

// Shape returns the tensor shape. The returned slice must not be mutated.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the row-major strides in elements.
func (r *RawTensor) Strides() []int {
	return r.strides
}

// DType returns the element data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the device holding the buffer.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// Bytes returns the raw backing buffer.
func (r *RawTensor) Bytes() []byte {
	return r.data
}

// AsFloat32 reinterprets the buffer as []float32.
// Panics if the dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor: AsFloat32 on %s tensor", r.dtype))
	}
	if len(r.data) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsFloat64 reinterprets the buffer as []float64.
// Panics if the dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor: AsFloat64 on %s tensor", r.dtype))
	}
	if len(r.data) == 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// At returns the element at the given multi-index as float64,
// regardless of the underlying dtype. Intended for tests and debugging,
// not for inner loops.
func (r *RawTensor) At(index ...int) float64 {
	if len(index) != len(r.shape) {
		panic(fmt.Sprintf("tensor: At with %d indices on %dD tensor", len(index), len(r.shape)))
	}
	flat := 0
	for i, idx := range index {
		if idx < 0 || idx >= r.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for axis %d with size %d", idx, i, r.shape[i]))
		}
		flat += idx * r.strides[i]
	}
	if r.dtype == Float64 {
		return r.AsFloat64()[flat]
	}
	return float64(r.AsFloat32()[flat])
}

// Clone returns a deep copy of the tensor.
func (r *RawTensor) Clone() *RawTensor {
	out := MustNewRaw(r.shape, r.dtype, r.device)
	copy(out.data, r.data)
	return out
}

// WithShape returns a view-copy of the tensor with a new shape.
// The element count must match.
func (r *RawTensor) WithShape(shape Shape) *RawTensor {
	if shape.NumElements() != r.NumElements() {
		panic(fmt.Sprintf("tensor: cannot reshape %v (%d elements) to %v (%d elements)",
			r.shape, r.NumElements(), shape, shape.NumElements()))
	}
	out := r.Clone()
	out.shape = shape.Clone()
	out.strides = shape.ComputeStrides()
	return out
}
