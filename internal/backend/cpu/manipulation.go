package cpu

import (
	"fmt"

	"github.com/roto-ml/roto/internal/tensor"
)

// Reshape returns a copy of t with a new shape. Element count must match.
func (b *Backend) Reshape(t *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	return t.WithShape(shape)
}

// Transpose permutes the axes of t. With no axes given it reverses them.
func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("cpu: transpose got %d axes for %dD tensor", len(axes), ndim))
	}
	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("cpu: transpose axes %v are not a permutation of 0..%d", axes, ndim-1))
		}
		seen[ax] = true
	}

	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		outShape[i] = shape[ax]
	}
	out := tensor.MustNewRaw(outShape, t.DType(), t.Device())

	inStrides := t.Strides()
	outStrides := outShape.ComputeStrides()
	n := t.NumElements()

	// For every output element, decompose its flat index into output
	// coordinates and gather from the permuted input coordinate.
	srcIndex := func(flat int) int {
		src := 0
		for d := 0; d < ndim; d++ {
			coord := flat / outStrides[d] % outShape[d]
			src += coord * inStrides[axes[d]]
		}
		return src
	}

	switch t.DType() {
	case tensor.Float32:
		in, o := t.AsFloat32(), out.AsFloat32()
		for i := 0; i < n; i++ {
			o[i] = in[srcIndex(i)]
		}
	case tensor.Float64:
		in, o := t.AsFloat64(), out.AsFloat64()
		for i := 0; i < n; i++ {
			o[i] = in[srcIndex(i)]
		}
	}
	return out
}

// Cat concatenates tensors along dim. All other dimensions must agree.
func (b *Backend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cpu: cat of zero tensors")
	}
	first := tensors[0]
	ndim := len(first.Shape())
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("cpu: cat dim %d out of range for %dD tensors", dim, ndim))
	}

	outShape := first.Shape().Clone()
	for _, t := range tensors[1:] {
		s := t.Shape()
		if len(s) != ndim {
			panic(fmt.Sprintf("cpu: cat rank mismatch %v vs %v", first.Shape(), s))
		}
		for d := 0; d < ndim; d++ {
			if d != dim && s[d] != outShape[d] {
				panic(fmt.Sprintf("cpu: cat shape mismatch at axis %d: %v vs %v", d, first.Shape(), s))
			}
		}
		outShape[dim] += s[dim]
	}
	if t := first; t.DType() != tensor.Float32 && t.DType() != tensor.Float64 {
		panic(fmt.Sprintf("cpu: cat unsupported dtype %s", t.DType()))
	}

	out := tensor.MustNewRaw(outShape, first.DType(), first.Device())

	// View each tensor as [outer, catDim*inner] blocks and interleave.
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= outShape[d]
	}
	inner := 1
	for d := dim + 1; d < ndim; d++ {
		inner *= outShape[d]
	}

	elemSize := first.DType().Size()
	outRow := outShape[dim] * inner * elemSize
	offset := 0
	for _, t := range tensors {
		rowBytes := t.Shape()[dim] * inner * elemSize
		src := t.Bytes()
		dst := out.Bytes()
		for o := 0; o < outer; o++ {
			copy(dst[o*outRow+offset:o*outRow+offset+rowBytes], src[o*rowBytes:(o+1)*rowBytes])
		}
		offset += rowBytes
	}
	return out
}
