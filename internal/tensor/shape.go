package tensor

import (
	"fmt"
	"strings"
)

// Shape represents the dimensions of a tensor.
// Shape{2, 8, 16, 5, 5} is a 5D tensor with axes 2×8×16×5×5.
type Shape []int

// NumElements returns the total number of elements.
// An empty shape is a scalar and has one element.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// NumDims returns the number of dimensions.
func (s Shape) NumDims() int {
	return len(s)
}

// Equal reports whether two shapes have identical dimensions.
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

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// IsValid reports whether every dimension is strictly positive.
func (s Shape) IsValid() bool {
	for _, dim := range s {
		if dim <= 0 {
			return false
		}
	}
	return true
}

// ComputeStrides returns the row-major (C-order) strides for the shape.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	stride := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= s[i]
	}
	return strides
}

// String formats the shape as "[2, 3, 4]".
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, dim := range s {
		parts[i] = fmt.Sprint(dim)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// BroadcastShapes computes the broadcast result shape of a and b following
// NumPy rules: shapes are aligned from the right, and each axis pair must
// be equal or contain a 1.
func BroadcastShapes(a, b Shape) (Shape, error) {
	ndims := len(a)
	if len(b) > ndims {
		ndims = len(b)
	}

	out := make(Shape, ndims)
	for i := 0; i < ndims; i++ {
		da, db := 1, 1
		if idx := len(a) - ndims + i; idx >= 0 {
			da = a[idx]
		}
		if idx := len(b) - ndims + i; idx >= 0 {
			db = b[idx]
		}

		switch {
		case da == db:
			out[i] = da
		case da == 1:
			out[i] = db
		case db == 1:
			out[i] = da
		default:
			return nil, fmt.Errorf("shapes %v and %v are not broadcastable", a, b)
		}
	}
	return out, nil
}
