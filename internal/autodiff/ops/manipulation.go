package ops

import "github.com/roto-ml/roto/internal/tensor"

// ReshapeOp: output = reshape(x). Reshape moves no data, so backward is
// a reshape of the gradient back to the input shape.
type ReshapeOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewReshapeOp records reshape(x) = output.
func NewReshapeOp(x, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{inputs: []*tensor.RawTensor{x}, output: output}
}

func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.inputs[0].Shape())}
}

func (op *ReshapeOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *ReshapeOp) Output() *tensor.RawTensor  { return op.output }

// TransposeOp: output = transpose(x, axes). Backward applies the
// inverse permutation to the gradient.
type TransposeOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	axes   []int
}

// NewTransposeOp records transpose(x, axes) = output. An empty axes
// slice means reversed axes, matching the backend.
func NewTransposeOp(x, output *tensor.RawTensor, axes []int) *TransposeOp {
	if len(axes) == 0 {
		ndim := len(x.Shape())
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	return &TransposeOp{inputs: []*tensor.RawTensor{x}, output: output, axes: axes}
}

func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}

func (op *TransposeOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *TransposeOp) Output() *tensor.RawTensor  { return op.output }

// CatOp: output = cat(inputs, dim). Backward slices the gradient back
// into per-input segments along the concatenation axis.
type CatOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	dim    int
}

// NewCatOp records cat(inputs, dim) = output.
func NewCatOp(inputs []*tensor.RawTensor, output *tensor.RawTensor, dim int) *CatOp {
	return &CatOp{inputs: inputs, output: output, dim: dim}
}

func (op *CatOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	outShape := op.output.Shape()
	ndim := len(outShape)

	outer := 1
	for d := 0; d < op.dim; d++ {
		outer *= outShape[d]
	}
	inner := 1
	for d := op.dim + 1; d < ndim; d++ {
		inner *= outShape[d]
	}

	elemSize := outputGrad.DType().Size()
	gradRow := outShape[op.dim] * inner * elemSize
	src := outputGrad.Bytes()

	grads := make([]*tensor.RawTensor, len(op.inputs))
	offset := 0
	for i, in := range op.inputs {
		g := tensor.MustNewRaw(in.Shape(), outputGrad.DType(), outputGrad.Device())
		rowBytes := in.Shape()[op.dim] * inner * elemSize
		dst := g.Bytes()
		for o := 0; o < outer; o++ {
			copy(dst[o*rowBytes:(o+1)*rowBytes], src[o*gradRow+offset:o*gradRow+offset+rowBytes])
		}
		offset += rowBytes
		grads[i] = g
	}
	return grads
}

func (op *CatOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *CatOp) Output() *tensor.RawTensor  { return op.output }
