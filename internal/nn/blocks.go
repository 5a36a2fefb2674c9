package nn

import (
	"fmt"

	"github.com/roto-ml/roto/internal/tensor"
)

// ConvBlock is conv -> batch norm -> leaky ReLU at stride 1 with same
// padding. The hourglass uses it for the skip projections.
type ConvBlock[B tensor.Backend] struct {
	conv *Conv2D[B]
	norm *BatchNorm2D[B]
	act  *LeakyReLU[B]
}

// NewConvBlock creates a stride-1 convolution block.
func NewConvBlock[B tensor.Backend](inChannels, outChannels, kernelSize int, backend B) *ConvBlock[B] {
	return &ConvBlock[B]{
		conv: NewConv2D(inChannels, outChannels, kernelSize, 1, SamePadding(kernelSize), backend),
		norm: NewBatchNorm2D[B](outChannels, backend),
		act:  NewLeakyReLU[B](0.2),
	}
}

func (b *ConvBlock[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return b.act.Forward(b.norm.Forward(b.conv.Forward(input)))
}

func (b *ConvBlock[B]) Parameters() []*Parameter[B] {
	return append(b.conv.Parameters(), b.norm.Parameters()...)
}

func (b *ConvBlock[B]) SetTraining(training bool) {
	b.norm.SetTraining(training)
}

func (b *ConvBlock[B]) StateDict() map[string]*tensor.Tensor[float32, B] {
	state := make(map[string]*tensor.Tensor[float32, B])
	prefixedState(state, "conv", b.conv.StateDict())
	prefixedState(state, "norm", b.norm.StateDict())
	return state
}

func (b *ConvBlock[B]) LoadStateDict(state map[string]*tensor.Tensor[float32, B]) error {
	if err := b.conv.LoadStateDict(subState(state, "conv")); err != nil {
		return err
	}
	return b.norm.LoadStateDict(subState(state, "norm"))
}

// EncoderBlock halves the spatial resolution on the way down the
// hourglass: two conv+norm+activation stages, downsampling either by a
// stride-2 first convolution or by a trailing 2x2 max pool when the
// pooling variant is selected.
type EncoderBlock[B tensor.Backend] struct {
	conv1 *Conv2D[B]
	norm1 *BatchNorm2D[B]
	conv2 *Conv2D[B]
	norm2 *BatchNorm2D[B]
	act   *LeakyReLU[B]
	pool  *MaxPool2D[B]
}

// NewEncoderBlock creates a downsampling block. With pooling false the
// first convolution runs at stride 2; with pooling true both
// convolutions run at stride 1 and a 2x2 max pool finishes the block.
func NewEncoderBlock[B tensor.Backend](inChannels, outChannels, kernelSize int, pooling bool, backend B) *EncoderBlock[B] {
	stride := 2
	var pool *MaxPool2D[B]
	if pooling {
		stride = 1
		pool = NewMaxPool2D[B](2)
	}
	return &EncoderBlock[B]{
		conv1: NewConv2D(inChannels, outChannels, kernelSize, stride, SamePadding(kernelSize), backend),
		norm1: NewBatchNorm2D[B](outChannels, backend),
		conv2: NewConv2D(outChannels, outChannels, kernelSize, 1, SamePadding(kernelSize), backend),
		norm2: NewBatchNorm2D[B](outChannels, backend),
		act:   NewLeakyReLU[B](0.2),
		pool:  pool,
	}
}

func (b *EncoderBlock[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := b.act.Forward(b.norm1.Forward(b.conv1.Forward(input)))
	x = b.act.Forward(b.norm2.Forward(b.conv2.Forward(x)))
	if b.pool != nil {
		x = b.pool.Forward(x)
	}
	return x
}

func (b *EncoderBlock[B]) Parameters() []*Parameter[B] {
	params := append(b.conv1.Parameters(), b.norm1.Parameters()...)
	params = append(params, b.conv2.Parameters()...)
	return append(params, b.norm2.Parameters()...)
}

func (b *EncoderBlock[B]) SetTraining(training bool) {
	b.norm1.SetTraining(training)
	b.norm2.SetTraining(training)
}

func (b *EncoderBlock[B]) StateDict() map[string]*tensor.Tensor[float32, B] {
	state := make(map[string]*tensor.Tensor[float32, B])
	prefixedState(state, "conv1", b.conv1.StateDict())
	prefixedState(state, "norm1", b.norm1.StateDict())
	prefixedState(state, "conv2", b.conv2.StateDict())
	prefixedState(state, "norm2", b.norm2.StateDict())
	return state
}

func (b *EncoderBlock[B]) LoadStateDict(state map[string]*tensor.Tensor[float32, B]) error {
	if err := b.conv1.LoadStateDict(subState(state, "conv1")); err != nil {
		return err
	}
	if err := b.norm1.LoadStateDict(subState(state, "norm1")); err != nil {
		return err
	}
	if err := b.conv2.LoadStateDict(subState(state, "conv2")); err != nil {
		return err
	}
	return b.norm2.LoadStateDict(subState(state, "norm2"))
}

// DecoderBlock doubles the spatial resolution on the way back up. The
// optional skip feature is concatenated along the channel axis before
// upsampling, so inChannels must already count the skip width when a
// skip is used.
type DecoderBlock[B tensor.Backend] struct {
	up      *Upsample2D[B]
	normIn  *BatchNorm2D[B]
	conv1   *Conv2D[B]
	norm1   *BatchNorm2D[B]
	conv1x1 *Conv2D[B]
	norm2   *BatchNorm2D[B]
	act     *LeakyReLU[B]
}

// NewDecoderBlock creates an upsampling block. With need1x1 a 1x1
// projection stage follows the main convolution.
func NewDecoderBlock[B tensor.Backend](inChannels, outChannels, kernelSize int, mode tensor.UpsampleMode, need1x1 bool, backend B) *DecoderBlock[B] {
	var conv1x1 *Conv2D[B]
	var norm2 *BatchNorm2D[B]
	if need1x1 {
		conv1x1 = NewConv2D(outChannels, outChannels, 1, 1, 0, backend)
		norm2 = NewBatchNorm2D[B](outChannels, backend)
	}
	return &DecoderBlock[B]{
		up:      NewUpsample2D[B](2, mode),
		normIn:  NewBatchNorm2D[B](inChannels, backend),
		conv1:   NewConv2D(inChannels, outChannels, kernelSize, 1, SamePadding(kernelSize), backend),
		norm1:   NewBatchNorm2D[B](outChannels, backend),
		conv1x1: conv1x1,
		norm2:   norm2,
		act:     NewLeakyReLU[B](0.2),
	}
}

// Forward decodes one scale. Pass skip as nil when the scale has no
// skip path.
func (b *DecoderBlock[B]) Forward(input, skip *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := input
	if skip != nil {
		x = tensor.Cat([]*tensor.Tensor[float32, B]{x, skip}, 1)
	}
	shapeCheck(x.Shape()[1] == b.normIn.Features(), "decoder block input channels",
		fmt.Sprint(b.normIn.Features()), fmt.Sprint(x.Shape()[1]))

	x = b.up.Forward(x)
	x = b.normIn.Forward(x)
	x = b.act.Forward(b.norm1.Forward(b.conv1.Forward(x)))
	if b.conv1x1 != nil {
		x = b.act.Forward(b.norm2.Forward(b.conv1x1.Forward(x)))
	}
	return x
}

func (b *DecoderBlock[B]) Parameters() []*Parameter[B] {
	params := append(b.normIn.Parameters(), b.conv1.Parameters()...)
	params = append(params, b.norm1.Parameters()...)
	if b.conv1x1 != nil {
		params = append(params, b.conv1x1.Parameters()...)
		params = append(params, b.norm2.Parameters()...)
	}
	return params
}

func (b *DecoderBlock[B]) SetTraining(training bool) {
	b.normIn.SetTraining(training)
	b.norm1.SetTraining(training)
	if b.norm2 != nil {
		b.norm2.SetTraining(training)
	}
}

func (b *DecoderBlock[B]) StateDict() map[string]*tensor.Tensor[float32, B] {
	state := make(map[string]*tensor.Tensor[float32, B])
	prefixedState(state, "norm_in", b.normIn.StateDict())
	prefixedState(state, "conv1", b.conv1.StateDict())
	prefixedState(state, "norm1", b.norm1.StateDict())
	if b.conv1x1 != nil {
		prefixedState(state, "conv1x1", b.conv1x1.StateDict())
		prefixedState(state, "norm2", b.norm2.StateDict())
	}
	return state
}

func (b *DecoderBlock[B]) LoadStateDict(state map[string]*tensor.Tensor[float32, B]) error {
	if err := b.normIn.LoadStateDict(subState(state, "norm_in")); err != nil {
		return err
	}
	if err := b.conv1.LoadStateDict(subState(state, "conv1")); err != nil {
		return err
	}
	if err := b.norm1.LoadStateDict(subState(state, "norm1")); err != nil {
		return err
	}
	if b.conv1x1 != nil {
		if err := b.conv1x1.LoadStateDict(subState(state, "conv1x1")); err != nil {
			return err
		}
		return b.norm2.LoadStateDict(subState(state, "norm2"))
	}
	return nil
}
