package cpu

import (
	"fmt"

	"github.com/roto-ml/roto/internal/tensor"
)

// Sum reduces all elements to a shape-[1] tensor.
func (b *Backend) Sum(t *tensor.RawTensor) *tensor.RawTensor {
	out := tensor.MustNewRaw(tensor.Shape{1}, t.DType(), t.Device())
	switch t.DType() {
	case tensor.Float32:
		var sum float32
		for _, v := range t.AsFloat32() {
			sum += v
		}
		out.AsFloat32()[0] = sum
	case tensor.Float64:
		var sum float64
		for _, v := range t.AsFloat64() {
			sum += v
		}
		out.AsFloat64()[0] = sum
	}
	return out
}

// SumDim sums along one dimension.
func (b *Backend) SumDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return reduceDim(t, dim, keepDim, reduceSum)
}

// MeanDim averages along one dimension.
func (b *Backend) MeanDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	out := reduceDim(t, dim, keepDim, reduceSum)
	inv := 1 / float64(t.Shape()[normalizeDim(dim, len(t.Shape()))])
	switch out.DType() {
	case tensor.Float32:
		data := out.AsFloat32()
		f := float32(inv)
		for i := range data {
			data[i] *= f
		}
	case tensor.Float64:
		data := out.AsFloat64()
		for i := range data {
			data[i] *= inv
		}
	}
	return out
}

// MaxDim takes the maximum along one dimension.
func (b *Backend) MaxDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return reduceDim(t, dim, keepDim, reduceMax)
}

type reduceKind uint8

const (
	reduceSum reduceKind = iota
	reduceMax
)

func normalizeDim(dim, ndim int) int {
	if dim < 0 {
		dim += ndim
	}
	return dim
}

// reduceDim walks the tensor as [outer, dimSize, inner] and folds the
// middle axis.
func reduceDim(t *tensor.RawTensor, dim int, keepDim bool, kind reduceKind) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)
	dim = normalizeDim(dim, ndim)
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("cpu: reduce dim %d out of range for shape %v", dim, shape))
	}

	outer, inner := 1, 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	for d := dim + 1; d < ndim; d++ {
		inner *= shape[d]
	}
	dimSize := shape[dim]

	outShape := make(tensor.Shape, 0, ndim)
	for d := 0; d < ndim; d++ {
		switch {
		case d != dim:
			outShape = append(outShape, shape[d])
		case keepDim:
			outShape = append(outShape, 1)
		}
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}
	out := tensor.MustNewRaw(outShape, t.DType(), t.Device())

	switch t.DType() {
	case tensor.Float32:
		in, o := t.AsFloat32(), out.AsFloat32()
		for oIdx := 0; oIdx < outer; oIdx++ {
			for iIdx := 0; iIdx < inner; iIdx++ {
				base := oIdx*dimSize*inner + iIdx
				acc := in[base]
				if kind == reduceMax {
					for k := 1; k < dimSize; k++ {
						if v := in[base+k*inner]; v > acc {
							acc = v
						}
					}
				} else {
					for k := 1; k < dimSize; k++ {
						acc += in[base+k*inner]
					}
				}
				o[oIdx*inner+iIdx] = acc
			}
		}
	case tensor.Float64:
		in, o := t.AsFloat64(), out.AsFloat64()
		for oIdx := 0; oIdx < outer; oIdx++ {
			for iIdx := 0; iIdx < inner; iIdx++ {
				base := oIdx*dimSize*inner + iIdx
				acc := in[base]
				if kind == reduceMax {
					for k := 1; k < dimSize; k++ {
						if v := in[base+k*inner]; v > acc {
							acc = v
						}
					}
				} else {
					for k := 1; k < dimSize; k++ {
						acc += in[base+k*inner]
					}
				}
				o[oIdx*inner+iIdx] = acc
			}
		}
	}
	return out
}
