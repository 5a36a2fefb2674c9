package nn

import (
	"github.com/roto-ml/roto/internal/tensor"
)

// RotoEncoderBlock is the rotation-equivariant downsampling block:
// lifting convolution, group convolution, orientation max pooling, and
// a 2x2 spatial max pool, with batch normalization and leaky ReLU
// between the stages. The normalization after each convolution is a
// single layer over the merged orientation-and-channel axis, shared
// between the lifting and group stages; a second layer normalizes the
// plain channel axis after orientation pooling.
//
// The convolutions run at stride 1 with same padding, so only the
// final pool changes the spatial size.
type RotoEncoderBlock[B tensor.Backend] struct {
	orientations int
	outChannels  int

	lifting *LiftingConv2D[B]
	gconv   *GroupConv2D[B]
	norm    *BatchNorm2D[B]
	norm2   *BatchNorm2D[B]
	act     *LeakyReLU[B]
	omax    *OrientationMaxPool[B]
	pool    *MaxPool2D[B]
}

// NewRotoEncoderBlock creates an equivariant encoder block.
func NewRotoEncoderBlock[B tensor.Backend](
	inChannels, outChannels, kernelSize, orientations int,
	periodicity float64,
	diskMask bool,
	backend B,
) (*RotoEncoderBlock[B], error) {
	lifting, err := NewLiftingConv2D(inChannels, outChannels, kernelSize, orientations,
		1, SamePadding(kernelSize), periodicity, diskMask, backend)
	if err != nil {
		return nil, err
	}
	gconv, err := NewGroupConv2D(outChannels, outChannels, kernelSize, orientations,
		1, SamePadding(kernelSize), periodicity, diskMask, backend)
	if err != nil {
		return nil, err
	}
	return &RotoEncoderBlock[B]{
		orientations: orientations,
		outChannels:  outChannels,
		lifting:      lifting,
		gconv:        gconv,
		norm:         NewBatchNorm2D[B](outChannels*orientations, backend),
		norm2:        NewBatchNorm2D[B](outChannels, backend),
		act:          NewLeakyReLU[B](0.2),
		omax:         NewOrientationMaxPool[B](),
		pool:         NewMaxPool2D[B](2),
	}, nil
}

// normalizeSE2N folds the orientation axis into channels, applies the
// shared norm and activation, and unfolds again.
func (b *RotoEncoderBlock[B]) normalizeSE2N(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	merged := x.Reshape(shape[0], shape[1]*shape[2], shape[3], shape[4])
	merged = b.act.Forward(b.norm.Forward(merged))
	return merged.Reshape(shape[0], b.orientations, b.outChannels, shape[3], shape[4])
}

// Forward maps a plain feature map to a downsampled plain feature map.
func (b *RotoEncoderBlock[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := b.normalizeSE2N(b.lifting.Forward(input))
	x = b.normalizeSE2N(b.gconv.Forward(x))
	z2 := b.act.Forward(b.omax.Forward(x))
	z2 = b.pool.Forward(z2)
	return b.act.Forward(b.norm2.Forward(z2))
}

func (b *RotoEncoderBlock[B]) Parameters() []*Parameter[B] {
	params := append(b.lifting.Parameters(), b.gconv.Parameters()...)
	params = append(params, b.norm.Parameters()...)
	return append(params, b.norm2.Parameters()...)
}

func (b *RotoEncoderBlock[B]) SetTraining(training bool) {
	b.norm.SetTraining(training)
	b.norm2.SetTraining(training)
}

func (b *RotoEncoderBlock[B]) StateDict() map[string]*tensor.Tensor[float32, B] {
	state := make(map[string]*tensor.Tensor[float32, B])
	prefixedState(state, "lifting", b.lifting.StateDict())
	prefixedState(state, "gconv", b.gconv.StateDict())
	prefixedState(state, "norm", b.norm.StateDict())
	prefixedState(state, "norm2", b.norm2.StateDict())
	return state
}

func (b *RotoEncoderBlock[B]) LoadStateDict(state map[string]*tensor.Tensor[float32, B]) error {
	if err := b.lifting.LoadStateDict(subState(state, "lifting")); err != nil {
		return err
	}
	if err := b.gconv.LoadStateDict(subState(state, "gconv")); err != nil {
		return err
	}
	if err := b.norm.LoadStateDict(subState(state, "norm")); err != nil {
		return err
	}
	return b.norm2.LoadStateDict(subState(state, "norm2"))
}

// RotoDecoderBlock is the rotation-equivariant upsampling block. The
// optional skip feature is concatenated along the channel axis before
// upsampling; inChannels must already count the skip width when a skip
// is used. The stage layout matches RotoEncoderBlock except that a x2
// upsample opens the block and no spatial pool closes it.
type RotoDecoderBlock[B tensor.Backend] struct {
	orientations int
	outChannels  int

	up      *Upsample2D[B]
	lifting *LiftingConv2D[B]
	gconv   *GroupConv2D[B]
	norm    *BatchNorm2D[B]
	norm2   *BatchNorm2D[B]
	act     *LeakyReLU[B]
	omax    *OrientationMaxPool[B]
}

// NewRotoDecoderBlock creates an equivariant decoder block.
func NewRotoDecoderBlock[B tensor.Backend](
	inChannels, outChannels, kernelSize, orientations int,
	mode tensor.UpsampleMode,
	periodicity float64,
	diskMask bool,
	backend B,
) (*RotoDecoderBlock[B], error) {
	lifting, err := NewLiftingConv2D(inChannels, outChannels, kernelSize, orientations,
		1, SamePadding(kernelSize), periodicity, diskMask, backend)
	if err != nil {
		return nil, err
	}
	gconv, err := NewGroupConv2D(outChannels, outChannels, kernelSize, orientations,
		1, SamePadding(kernelSize), periodicity, diskMask, backend)
	if err != nil {
		return nil, err
	}
	return &RotoDecoderBlock[B]{
		orientations: orientations,
		outChannels:  outChannels,
		up:           NewUpsample2D[B](2, mode),
		lifting:      lifting,
		gconv:        gconv,
		norm:         NewBatchNorm2D[B](outChannels*orientations, backend),
		norm2:        NewBatchNorm2D[B](outChannels, backend),
		act:          NewLeakyReLU[B](0.2),
		omax:         NewOrientationMaxPool[B](),
	}, nil
}

func (b *RotoDecoderBlock[B]) normalizeSE2N(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	merged := x.Reshape(shape[0], shape[1]*shape[2], shape[3], shape[4])
	merged = b.act.Forward(b.norm.Forward(merged))
	return merged.Reshape(shape[0], b.orientations, b.outChannels, shape[3], shape[4])
}

// Forward decodes one scale. Pass skip as nil when the scale has no
// skip path.
func (b *RotoDecoderBlock[B]) Forward(input, skip *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := input
	if skip != nil {
		x = tensor.Cat([]*tensor.Tensor[float32, B]{x, skip}, 1)
	}
	x = b.up.Forward(x)
	x = b.normalizeSE2N(b.lifting.Forward(x))
	x = b.normalizeSE2N(b.gconv.Forward(x))
	z2 := b.omax.Forward(x)
	return b.act.Forward(b.norm2.Forward(z2))
}

func (b *RotoDecoderBlock[B]) Parameters() []*Parameter[B] {
	params := append(b.lifting.Parameters(), b.gconv.Parameters()...)
	params = append(params, b.norm.Parameters()...)
	return append(params, b.norm2.Parameters()...)
}

func (b *RotoDecoderBlock[B]) SetTraining(training bool) {
	b.norm.SetTraining(training)
	b.norm2.SetTraining(training)
}

func (b *RotoDecoderBlock[B]) StateDict() map[string]*tensor.Tensor[float32, B] {
	state := make(map[string]*tensor.Tensor[float32, B])
	prefixedState(state, "lifting", b.lifting.StateDict())
	prefixedState(state, "gconv", b.gconv.StateDict())
	prefixedState(state, "norm", b.norm.StateDict())
	prefixedState(state, "norm2", b.norm2.StateDict())
	return state
}

func (b *RotoDecoderBlock[B]) LoadStateDict(state map[string]*tensor.Tensor[float32, B]) error {
	if err := b.lifting.LoadStateDict(subState(state, "lifting")); err != nil {
		return err
	}
	if err := b.gconv.LoadStateDict(subState(state, "gconv")); err != nil {
		return err
	}
	if err := b.norm.LoadStateDict(subState(state, "norm")); err != nil {
		return err
	}
	return b.norm2.LoadStateDict(subState(state, "norm2"))
}
