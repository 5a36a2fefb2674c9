package ops

import "github.com/roto-ml/roto/internal/tensor"

// AddScalarOp: output = t + c. The constant carries no gradient.
type AddScalarOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewAddScalarOp records t + c = output.
func NewAddScalarOp(t, output *tensor.RawTensor) *AddScalarOp {
	return &AddScalarOp{inputs: []*tensor.RawTensor{t}, output: output}
}

func (op *AddScalarOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{outputGrad}
}

func (op *AddScalarOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *AddScalarOp) Output() *tensor.RawTensor  { return op.output }

// MulScalarOp: output = t * c.
type MulScalarOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	scalar float64
}

// NewMulScalarOp records t * c = output.
func NewMulScalarOp(t, output *tensor.RawTensor, scalar float64) *MulScalarOp {
	return &MulScalarOp{inputs: []*tensor.RawTensor{t}, output: output, scalar: scalar}
}

func (op *MulScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MulScalar(outputGrad, op.scalar)}
}

func (op *MulScalarOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *MulScalarOp) Output() *tensor.RawTensor  { return op.output }
