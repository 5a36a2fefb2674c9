package ops

import "github.com/roto-ml/roto/internal/tensor"

// Conv2DOp: output = conv2d(input, kernel, stride, padding).
//
// Backward delegates to the backend's dedicated convolution adjoints:
// the input gradient is the transposed convolution of the output
// gradient with the kernel, and the kernel gradient is the correlation
// of the input with the output gradient.
type Conv2DOp struct {
	inputs  []*tensor.RawTensor // [input, kernel]
	output  *tensor.RawTensor
	stride  [2]int
	padding [2]int
}

// NewConv2DOp records conv2d(input, kernel) = output.
func NewConv2DOp(input, kernel, output *tensor.RawTensor, stride, padding [2]int) *Conv2DOp {
	return &Conv2DOp{
		inputs:  []*tensor.RawTensor{input, kernel},
		output:  output,
		stride:  stride,
		padding: padding,
	}
}

func (op *Conv2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	input, kernel := op.inputs[0], op.inputs[1]
	gradInput := backend.Conv2DInputBackward(outputGrad, kernel, op.stride, op.padding, input.Shape())
	gradKernel := backend.Conv2DKernelBackward(outputGrad, input, op.stride, op.padding, kernel.Shape())
	return []*tensor.RawTensor{gradInput, gradKernel}
}

func (op *Conv2DOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *Conv2DOp) Output() *tensor.RawTensor  { return op.output }

// MaxPool2DOp: output = maxpool2d(input, kernel, stride).
type MaxPool2DOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	kernel [2]int
	stride [2]int
}

// NewMaxPool2DOp records maxpool2d(input) = output.
func NewMaxPool2DOp(input, output *tensor.RawTensor, kernel, stride [2]int) *MaxPool2DOp {
	return &MaxPool2DOp{
		inputs: []*tensor.RawTensor{input},
		output: output,
		kernel: kernel,
		stride: stride,
	}
}

func (op *MaxPool2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		backend.MaxPool2DBackward(outputGrad, op.inputs[0], op.kernel, op.stride),
	}
}

func (op *MaxPool2DOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *MaxPool2DOp) Output() *tensor.RawTensor  { return op.output }

// Upsample2DOp: output = upsample2d(input, scale, mode).
type Upsample2DOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	scale  int
	mode   tensor.UpsampleMode
}

// NewUpsample2DOp records upsample2d(input) = output.
func NewUpsample2DOp(input, output *tensor.RawTensor, scale int, mode tensor.UpsampleMode) *Upsample2DOp {
	return &Upsample2DOp{
		inputs: []*tensor.RawTensor{input},
		output: output,
		scale:  scale,
		mode:   mode,
	}
}

func (op *Upsample2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		backend.Upsample2DBackward(outputGrad, op.scale, op.mode, op.inputs[0].Shape()),
	}
}

func (op *Upsample2DOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *Upsample2DOp) Output() *tensor.RawTensor  { return op.output }
