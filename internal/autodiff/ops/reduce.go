package ops

import (
	"math"

	"github.com/roto-ml/roto/internal/tensor"
)

// SumOp: output = sum of all elements, shape [1].
// Backward broadcasts the scalar gradient over the input shape.
type SumOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSumOp records sum(x) = output.
func NewSumOp(x, output *tensor.RawTensor) *SumOp {
	return &SumOp{inputs: []*tensor.RawTensor{x}, output: output}
}

func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{broadcastGrad(outputGrad, op.inputs[0].Shape(), backend)}
}

func (op *SumOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *SumOp) Output() *tensor.RawTensor  { return op.output }

// SumDimOp: output = sum(x, dim).
type SumDimOp struct {
	inputs  []*tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

// NewSumDimOp records sum(x, dim, keepDim) = output.
func NewSumDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{
		inputs:  []*tensor.RawTensor{x},
		output:  output,
		dim:     normalizeDim(dim, len(x.Shape())),
		keepDim: keepDim,
	}
}

func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := outputGrad
	if !op.keepDim {
		grad = unsqueeze(grad, op.dim, backend)
	}
	return []*tensor.RawTensor{broadcastGrad(grad, op.inputs[0].Shape(), backend)}
}

func (op *SumDimOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *SumDimOp) Output() *tensor.RawTensor  { return op.output }

// MeanDimOp: output = mean(x, dim). Like SumDimOp with the gradient
// scaled by 1/dimSize.
type MeanDimOp struct {
	inputs  []*tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
	dimSize int
}

// NewMeanDimOp records mean(x, dim, keepDim) = output.
func NewMeanDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *MeanDimOp {
	actual := normalizeDim(dim, len(x.Shape()))
	return &MeanDimOp{
		inputs:  []*tensor.RawTensor{x},
		output:  output,
		dim:     actual,
		keepDim: keepDim,
		dimSize: x.Shape()[actual],
	}
}

func (op *MeanDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := outputGrad
	if !op.keepDim {
		grad = unsqueeze(grad, op.dim, backend)
	}
	grad = broadcastGrad(grad, op.inputs[0].Shape(), backend)
	return []*tensor.RawTensor{backend.MulScalar(grad, 1/float64(op.dimSize))}
}

func (op *MeanDimOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *MeanDimOp) Output() *tensor.RawTensor  { return op.output }

// MaxDimOp: output = max(x, dim). The orientation-pooling step of the
// equivariant blocks runs through this op.
//
// Backward routes each output gradient to the single input element that
// held the maximum; ties go to the lowest index, matching the forward
// reduction. The winning indices are located once at record time.
type MaxDimOp struct {
	inputs  []*tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
	argmax  []int
}

// NewMaxDimOp records max(x, dim, keepDim) = output.
func NewMaxDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *MaxDimOp {
	actual := normalizeDim(dim, len(x.Shape()))
	return &MaxDimOp{
		inputs:  []*tensor.RawTensor{x},
		output:  output,
		dim:     actual,
		keepDim: keepDim,
		argmax:  argMaxAlongDim(x, actual),
	}
}

func (op *MaxDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	shape := x.Shape()

	outer, inner := 1, 1
	for d := 0; d < op.dim; d++ {
		outer *= shape[d]
	}
	for d := op.dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}
	dimSize := shape[op.dim]

	grad := tensor.MustNewRaw(shape, x.DType(), x.Device())

	switch x.DType() {
	case tensor.Float32:
		g, o := outputGrad.AsFloat32(), grad.AsFloat32()
		for lane, win := range op.argmax {
			oIdx, iIdx := lane/inner, lane%inner
			o[(oIdx*dimSize+win)*inner+iIdx] += g[lane]
		}
	case tensor.Float64:
		g, o := outputGrad.AsFloat64(), grad.AsFloat64()
		for lane, win := range op.argmax {
			oIdx, iIdx := lane/inner, lane%inner
			o[(oIdx*dimSize+win)*inner+iIdx] += g[lane]
		}
	}
	return []*tensor.RawTensor{grad}
}

func (op *MaxDimOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *MaxDimOp) Output() *tensor.RawTensor  { return op.output }

func normalizeDim(dim, ndim int) int {
	if dim < 0 {
		dim += ndim
	}
	return dim
}

// argMaxAlongDim finds, for every (outer, inner) lane, the index along
// dim holding the maximum, first occurrence winning.
func argMaxAlongDim(t *tensor.RawTensor, dim int) []int {
	shape := t.Shape()
	outer, inner := 1, 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}
	dimSize := shape[dim]

	at := func(i int) float64 {
		if t.DType() == tensor.Float64 {
			return t.AsFloat64()[i]
		}
		return float64(t.AsFloat32()[i])
	}

	argmax := make([]int, outer*inner)
	for oIdx := 0; oIdx < outer; oIdx++ {
		for iIdx := 0; iIdx < inner; iIdx++ {
			best, bestVal := 0, math.Inf(-1)
			for k := 0; k < dimSize; k++ {
				if v := at((oIdx*dimSize+k)*inner + iIdx); v > bestVal {
					best, bestVal = k, v
				}
			}
			argmax[oIdx*inner+iIdx] = best
		}
	}
	return argmax
}
