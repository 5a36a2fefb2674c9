package ops

import "github.com/roto-ml/roto/internal/tensor"

// LeakyReLUOp: output = x for x >= 0, slope*x otherwise.
// The derivative is 1 on the positive side and slope on the negative
// side; the decision is taken on the forward input, not the output.
type LeakyReLUOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	slope  float64
}

// NewLeakyReLUOp records LeakyReLU(x, slope) = output.
func NewLeakyReLUOp(x, output *tensor.RawTensor, slope float64) *LeakyReLUOp {
	return &LeakyReLUOp{inputs: []*tensor.RawTensor{x}, output: output, slope: slope}
}

func (op *LeakyReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	grad := tensor.MustNewRaw(x.Shape(), x.DType(), x.Device())

	switch x.DType() {
	case tensor.Float32:
		in, g, o := x.AsFloat32(), outputGrad.AsFloat32(), grad.AsFloat32()
		slope := float32(op.slope)
		for i := range o {
			if in[i] >= 0 {
				o[i] = g[i]
			} else {
				o[i] = slope * g[i]
			}
		}
	case tensor.Float64:
		in, g, o := x.AsFloat64(), outputGrad.AsFloat64(), grad.AsFloat64()
		for i := range o {
			if in[i] >= 0 {
				o[i] = g[i]
			} else {
				o[i] = op.slope * g[i]
			}
		}
	}
	return []*tensor.RawTensor{grad}
}

func (op *LeakyReLUOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *LeakyReLUOp) Output() *tensor.RawTensor  { return op.output }

// SigmoidOp: output = σ(x). grad_x = grad * σ(x) * (1 - σ(x)),
// computed from the saved output.
type SigmoidOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSigmoidOp records σ(x) = output.
func NewSigmoidOp(x, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{inputs: []*tensor.RawTensor{x}, output: output}
}

func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	y := op.output
	oneMinus := backend.AddScalar(backend.MulScalar(y, -1), 1)
	return []*tensor.RawTensor{backend.Mul(outputGrad, backend.Mul(y, oneMinus))}
}

func (op *SigmoidOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *SigmoidOp) Output() *tensor.RawTensor  { return op.output }

// RsqrtOp: output = x^(-1/2). grad_x = -0.5 * output³ * grad.
type RsqrtOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewRsqrtOp records rsqrt(x) = output.
func NewRsqrtOp(x, output *tensor.RawTensor) *RsqrtOp {
	return &RsqrtOp{inputs: []*tensor.RawTensor{x}, output: output}
}

func (op *RsqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	y := op.output
	cube := backend.Mul(backend.Mul(y, y), y)
	return []*tensor.RawTensor{backend.MulScalar(backend.Mul(outputGrad, cube), -0.5)}
}

func (op *RsqrtOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *RsqrtOp) Output() *tensor.RawTensor  { return op.output }
