package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/roto-ml/roto/internal/tensor"
)

// MatMul returns the matrix product a @ b for 2D tensors.
// Delegates to gonum's BLAS GEMM at the matching precision.
func (bk *Backend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("cpu: matmul needs 2D operands, got %v @ %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("cpu: matmul inner dims mismatch %v @ %v", aShape, bShape))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("cpu: matmul dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	m, k, n := aShape[0], aShape[1], bShape[1]
	out := tensor.MustNewRaw(tensor.Shape{m, n}, a.DType(), a.Device())

	switch a.DType() {
	case tensor.Float32:
		ga := blas32.General{Rows: m, Cols: k, Stride: k, Data: a.AsFloat32()}
		gb := blas32.General{Rows: k, Cols: n, Stride: n, Data: b.AsFloat32()}
		gc := blas32.General{Rows: m, Cols: n, Stride: n, Data: out.AsFloat32()}
		blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, ga, gb, 0, gc)
	case tensor.Float64:
		ga := blas64.General{Rows: m, Cols: k, Stride: k, Data: a.AsFloat64()}
		gb := blas64.General{Rows: k, Cols: n, Stride: n, Data: b.AsFloat64()}
		gc := blas64.General{Rows: m, Cols: n, Stride: n, Data: out.AsFloat64()}
		blas64.Gemm(blas.NoTrans, blas.NoTrans, 1, ga, gb, 0, gc)
	}
	return out
}
