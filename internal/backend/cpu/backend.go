// Package cpu implements the pure-Go CPU backend.
//
// Every operation allocates its output and leaves inputs untouched.
// Element-wise ops are written twice, once per float width, with the
// dtype switch at the top; the inner loops then run on plain slices.
// Dense matrix products go through gonum's BLAS implementations.
package cpu

import (
	"fmt"

	"github.com/roto-ml/roto/internal/tensor"
)

// Backend is the CPU compute backend.
type Backend struct{}

// New creates a CPU backend.
func New() *Backend {
	return &Backend{}
}

// Name returns "cpu".
func (b *Backend) Name() string {
	return "cpu"
}

// Device returns tensor.CPU.
func (b *Backend) Device() tensor.Device {
	return tensor.CPU
}

// Add returns a + b with broadcasting.
func (b *Backend) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	return binaryOp("add", x, y,
		func(a, b float32) float32 { return a + b },
		func(a, b float64) float64 { return a + b })
}

// Sub returns a - b with broadcasting.
func (b *Backend) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	return binaryOp("sub", x, y,
		func(a, b float32) float32 { return a - b },
		func(a, b float64) float64 { return a - b })
}

// Mul returns the element-wise product with broadcasting.
func (b *Backend) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	return binaryOp("mul", x, y,
		func(a, b float32) float32 { return a * b },
		func(a, b float64) float64 { return a * b })
}

// Div returns the element-wise quotient with broadcasting.
func (b *Backend) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	return binaryOp("div", x, y,
		func(a, b float32) float32 { return a / b },
		func(a, b float64) float64 { return a / b })
}

// AddScalar returns t + scalar.
func (b *Backend) AddScalar(t *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return unaryOp(t,
		func(v float32) float32 { return v + float32(scalar) },
		func(v float64) float64 { return v + scalar })
}

// MulScalar returns t * scalar.
func (b *Backend) MulScalar(t *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return unaryOp(t,
		func(v float32) float32 { return v * float32(scalar) },
		func(v float64) float64 { return v * scalar })
}

// binaryOp applies a binary element-wise function with broadcasting.
func binaryOp(
	name string,
	x, y *tensor.RawTensor,
	f32 func(a, b float32) float32,
	f64 func(a, b float64) float64,
) *tensor.RawTensor {
	if x.DType() != y.DType() {
		panic(fmt.Sprintf("cpu: %s dtype mismatch %s vs %s", name, x.DType(), y.DType()))
	}

	outShape, err := tensor.BroadcastShapes(x.Shape(), y.Shape())
	if err != nil {
		panic(fmt.Sprintf("cpu: %s: %v", name, err))
	}
	out := tensor.MustNewRaw(outShape, x.DType(), x.Device())

	// Fast path: identical shapes, single flat loop.
	if x.Shape().Equal(y.Shape()) {
		switch x.DType() {
		case tensor.Float32:
			a, b, o := x.AsFloat32(), y.AsFloat32(), out.AsFloat32()
			for i := range o {
				o[i] = f32(a[i], b[i])
			}
		case tensor.Float64:
			a, b, o := x.AsFloat64(), y.AsFloat64(), out.AsFloat64()
			for i := range o {
				o[i] = f64(a[i], b[i])
			}
		}
		return out
	}

	// General broadcast path: walk the output index space and map each
	// coordinate back into both operands.
	xIdx := broadcastIndexer(x.Shape(), outShape)
	yIdx := broadcastIndexer(y.Shape(), outShape)

	switch x.DType() {
	case tensor.Float32:
		a, b, o := x.AsFloat32(), y.AsFloat32(), out.AsFloat32()
		for i := range o {
			o[i] = f32(a[xIdx(i)], b[yIdx(i)])
		}
	case tensor.Float64:
		a, b, o := x.AsFloat64(), y.AsFloat64(), out.AsFloat64()
		for i := range o {
			o[i] = f64(a[xIdx(i)], b[yIdx(i)])
		}
	}
	return out
}

// broadcastIndexer returns a function mapping a flat output index to the
// flat index of the (possibly smaller) operand under broadcasting.
func broadcastIndexer(in, out tensor.Shape) func(int) int {
	if in.Equal(out) {
		return func(i int) int { return i }
	}

	outStrides := out.ComputeStrides()
	inStrides := in.ComputeStrides()
	offset := len(out) - len(in)

	return func(flat int) int {
		idx := 0
		for d := 0; d < len(out); d++ {
			coord := flat / outStrides[d] % out[d]
			if d < offset {
				continue
			}
			if in[d-offset] == 1 {
				continue
			}
			idx += coord * inStrides[d-offset]
		}
		return idx
	}
}

// unaryOp applies a unary element-wise function.
func unaryOp(
	t *tensor.RawTensor,
	f32 func(float32) float32,
	f64 func(float64) float64,
) *tensor.RawTensor {
	out := tensor.MustNewRaw(t.Shape(), t.DType(), t.Device())
	switch t.DType() {
	case tensor.Float32:
		in, o := t.AsFloat32(), out.AsFloat32()
		for i := range o {
			o[i] = f32(in[i])
		}
	case tensor.Float64:
		in, o := t.AsFloat64(), out.AsFloat64()
		for i := range o {
			o[i] = f64(in[i])
		}
	}
	return out
}
