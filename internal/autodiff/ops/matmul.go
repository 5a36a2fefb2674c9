package ops

import "github.com/roto-ml/roto/internal/tensor"

// MatMulOp: output = a @ b for 2D operands.
//
// Backward:
//
//	grad_a = grad @ bᵀ
//	grad_b = aᵀ @ grad
type MatMulOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewMatMulOp records a @ b = output.
func NewMatMulOp(a, b, output *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{inputs: []*tensor.RawTensor{a, b}, output: output}
}

func (op *MatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	gradA := backend.MatMul(outputGrad, backend.Transpose(b))
	gradB := backend.MatMul(backend.Transpose(a), outputGrad)
	return []*tensor.RawTensor{gradA, gradB}
}

func (op *MatMulOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *MatMulOp) Output() *tensor.RawTensor  { return op.output }

// SpMMOp: output = M @ x where M is a constant sparse matrix (a
// rotation operator). M carries no gradient; grad_x = Mᵀ @ grad.
type SpMMOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	matrix *tensor.Sparse
}

// NewSpMMOp records M @ x = output.
func NewSpMMOp(m *tensor.Sparse, x, output *tensor.RawTensor) *SpMMOp {
	return &SpMMOp{inputs: []*tensor.RawTensor{x}, output: output, matrix: m}
}

func (op *SpMMOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.SpMM(op.matrix.T(), outputGrad)}
}

func (op *SpMMOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *SpMMOp) Output() *tensor.RawTensor  { return op.output }
