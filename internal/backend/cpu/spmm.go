package cpu

import (
	"fmt"

	"github.com/roto-ml/roto/internal/tensor"
)

// SpMM returns m @ dense where m is a COO sparse matrix and dense is a
// 2D tensor.
//
// The workload is the kernel-rotation expansion: m has a handful of
// interpolation weights per output row, so a scatter over the stored
// entries beats building anything denser. Entry order does not matter
// for the result; accumulation is plain addition.
func (bk *Backend) SpMM(m *tensor.Sparse, dense *tensor.RawTensor) *tensor.RawTensor {
	dShape := dense.Shape()
	if len(dShape) != 2 {
		panic(fmt.Sprintf("cpu: spmm needs a 2D dense operand, got %v", dShape))
	}
	numRows, numCols := m.Dims()
	if dShape[0] != numCols {
		panic(fmt.Sprintf("cpu: spmm dims mismatch, sparse is %dx%d but dense is %v",
			numRows, numCols, dShape))
	}

	n := dShape[1]
	out := tensor.MustNewRaw(tensor.Shape{numRows, n}, dense.DType(), dense.Device())

	switch dense.DType() {
	case tensor.Float32:
		d, o := dense.AsFloat32(), out.AsFloat32()
		for i := 0; i < m.NNZ(); i++ {
			row, col, val := m.Entry(i)
			v := float32(val)
			src := d[col*n : col*n+n]
			dst := o[row*n : row*n+n]
			for j := range dst {
				dst[j] += v * src[j]
			}
		}
	case tensor.Float64:
		d, o := dense.AsFloat64(), out.AsFloat64()
		for i := 0; i < m.NNZ(); i++ {
			row, col, val := m.Entry(i)
			src := d[col*n : col*n+n]
			dst := o[row*n : row*n+n]
			for j := range dst {
				dst[j] += val * src[j]
			}
		}
	}
	return out
}
