// Copyright 2025 The Roto Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public neural network API: the rotation-
// equivariant lifting and group convolutions, the equivariant encoder
// and decoder blocks, plain convolution blocks, and the hourglass
// assembly.
package nn

import (
	"github.com/roto-ml/roto/internal/nn"
	"github.com/roto-ml/roto/internal/tensor"
)

// Module is the common interface of all network components.
type Module[B tensor.Backend] = nn.Module[B]

// StateModule is a module whose state can be checkpointed.
type StateModule[B tensor.Backend] = nn.StateModule[B]

// Parameter is a named trainable tensor.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// ShapeMismatchError reports a forward-time mismatch between an input
// tensor and a layer's configured axes.
type ShapeMismatchError = nn.ShapeMismatchError

// SeedInit reseeds the weight initializer, for reproducible models.
func SeedInit(seed uint64) {
	nn.SeedInit(seed)
}

// Convolutions

// Conv2D is a plain 2D convolution layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a 2D convolution with He-normal weights.
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, backend B) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelSize, stride, padding, backend)
}

// SamePadding returns the padding that preserves spatial size at
// stride 1 for an odd kernel.
func SamePadding(kernelSize int) int {
	return nn.SamePadding(kernelSize)
}

// LiftingConv2D lifts plain feature maps into orientation-indexed
// SE2N maps.
type LiftingConv2D[B tensor.Backend] = nn.LiftingConv2D[B]

// NewLiftingConv2D creates a lifting convolution with N orientations
// spread over periodicity radians.
func NewLiftingConv2D[B tensor.Backend](
	inChannels, outChannels, kernelSize, orientations int,
	stride, padding int,
	periodicity float64,
	diskMask bool,
	backend B,
) (*LiftingConv2D[B], error) {
	return nn.NewLiftingConv2D(inChannels, outChannels, kernelSize, orientations,
		stride, padding, periodicity, diskMask, backend)
}

// GroupConv2D convolves SE2N maps with orientation-aware kernels.
type GroupConv2D[B tensor.Backend] = nn.GroupConv2D[B]

// NewGroupConv2D creates a group convolution with N orientations.
func NewGroupConv2D[B tensor.Backend](
	inChannels, outChannels, kernelSize, orientations int,
	stride, padding int,
	periodicity float64,
	diskMask bool,
	backend B,
) (*GroupConv2D[B], error) {
	return nn.NewGroupConv2D(inChannels, outChannels, kernelSize, orientations,
		stride, padding, periodicity, diskMask, backend)
}

// Activations and pooling

// LeakyReLU is the leaky rectifier activation.
type LeakyReLU[B tensor.Backend] = nn.LeakyReLU[B]

// NewLeakyReLU creates a leaky ReLU with the given negative slope.
func NewLeakyReLU[B tensor.Backend](negativeSlope float64) *LeakyReLU[B] {
	return nn.NewLeakyReLU[B](negativeSlope)
}

// Sigmoid is the logistic activation.
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a sigmoid activation.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// MaxPool2D is square spatial max pooling with stride equal to the
// window size.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// NewMaxPool2D creates a max pooling layer.
func NewMaxPool2D[B tensor.Backend](kernel int) *MaxPool2D[B] {
	return nn.NewMaxPool2D[B](kernel)
}

// Upsample2D is integer-factor spatial upsampling.
type Upsample2D[B tensor.Backend] = nn.Upsample2D[B]

// NewUpsample2D creates an upsampling layer.
func NewUpsample2D[B tensor.Backend](scale int, mode tensor.UpsampleMode) *Upsample2D[B] {
	return nn.NewUpsample2D[B](scale, mode)
}

// OrientationMaxPool reduces the orientation axis of an SE2N map by
// element-wise maximum, producing a rotation-invariant plain map.
type OrientationMaxPool[B tensor.Backend] = nn.OrientationMaxPool[B]

// NewOrientationMaxPool creates an orientation pooling layer.
func NewOrientationMaxPool[B tensor.Backend]() *OrientationMaxPool[B] {
	return nn.NewOrientationMaxPool[B]()
}

// BatchNorm2D is batch normalization over the channel axis of NCHW
// feature maps.
type BatchNorm2D[B tensor.Backend] = nn.BatchNorm2D[B]

// NewBatchNorm2D creates a batch normalization layer.
func NewBatchNorm2D[B tensor.Backend](features int, backend B) *BatchNorm2D[B] {
	return nn.NewBatchNorm2D[B](features, backend)
}

// Blocks

// ConvBlock is conv -> norm -> activation at stride 1.
type ConvBlock[B tensor.Backend] = nn.ConvBlock[B]

// NewConvBlock creates a plain convolution block.
func NewConvBlock[B tensor.Backend](inChannels, outChannels, kernelSize int, backend B) *ConvBlock[B] {
	return nn.NewConvBlock(inChannels, outChannels, kernelSize, backend)
}

// EncoderBlock is the plain downsampling block.
type EncoderBlock[B tensor.Backend] = nn.EncoderBlock[B]

// NewEncoderBlock creates a plain encoder block.
func NewEncoderBlock[B tensor.Backend](inChannels, outChannels, kernelSize int, pooling bool, backend B) *EncoderBlock[B] {
	return nn.NewEncoderBlock(inChannels, outChannels, kernelSize, pooling, backend)
}

// DecoderBlock is the plain upsampling block.
type DecoderBlock[B tensor.Backend] = nn.DecoderBlock[B]

// NewDecoderBlock creates a plain decoder block.
func NewDecoderBlock[B tensor.Backend](inChannels, outChannels, kernelSize int, mode tensor.UpsampleMode, need1x1 bool, backend B) *DecoderBlock[B] {
	return nn.NewDecoderBlock(inChannels, outChannels, kernelSize, mode, need1x1, backend)
}

// RotoEncoderBlock is the rotation-equivariant downsampling block.
type RotoEncoderBlock[B tensor.Backend] = nn.RotoEncoderBlock[B]

// NewRotoEncoderBlock creates an equivariant encoder block.
func NewRotoEncoderBlock[B tensor.Backend](
	inChannels, outChannels, kernelSize, orientations int,
	periodicity float64,
	diskMask bool,
	backend B,
) (*RotoEncoderBlock[B], error) {
	return nn.NewRotoEncoderBlock(inChannels, outChannels, kernelSize, orientations,
		periodicity, diskMask, backend)
}

// RotoDecoderBlock is the rotation-equivariant upsampling block.
type RotoDecoderBlock[B tensor.Backend] = nn.RotoDecoderBlock[B]

// NewRotoDecoderBlock creates an equivariant decoder block.
func NewRotoDecoderBlock[B tensor.Backend](
	inChannels, outChannels, kernelSize, orientations int,
	mode tensor.UpsampleMode,
	periodicity float64,
	diskMask bool,
	backend B,
) (*RotoDecoderBlock[B], error) {
	return nn.NewRotoDecoderBlock(inChannels, outChannels, kernelSize, orientations,
		mode, periodicity, diskMask, backend)
}

// Hourglass assembly

// HourglassConfig configures the encoder/decoder assembly.
type HourglassConfig = nn.HourglassConfig

// DefaultHourglassConfig returns the five-scale image restoration
// configuration.
func DefaultHourglassConfig() HourglassConfig {
	return nn.DefaultHourglassConfig()
}

// Hourglass is the symmetric encoder/decoder network.
type Hourglass[B tensor.Backend] = nn.Hourglass[B]

// NewHourglass builds the assembly from a configuration.
func NewHourglass[B tensor.Backend](config HourglassConfig, backend B) (*Hourglass[B], error) {
	return nn.NewHourglass(config, backend)
}

// Losses

// MSELoss is the mean squared error criterion.
type MSELoss[B tensor.Backend] = nn.MSELoss[B]

// NewMSELoss creates a mean squared error criterion.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return nn.NewMSELoss[B]()
}

// L1Loss is the mean absolute error criterion.
type L1Loss[B tensor.Backend] = nn.L1Loss[B]

// NewL1Loss creates a mean absolute error criterion.
func NewL1Loss[B tensor.Backend]() *L1Loss[B] {
	return nn.NewL1Loss[B]()
}

// Checkpoints

// SaveCheckpoint writes a module's state to a .roto file.
func SaveCheckpoint[B tensor.Backend](module StateModule[B], path, modelType string, metadata map[string]string) error {
	return nn.SaveCheckpoint(module, path, modelType, metadata)
}

// LoadCheckpoint restores a module's state from a .roto file.
func LoadCheckpoint[B tensor.Backend](module StateModule[B], path string, backend B) error {
	return nn.LoadCheckpoint(module, path, backend)
}
