package nn

import "github.com/roto-ml/roto/internal/tensor"

// MaxPool2D halves (or more generally divides) spatial resolution by
// taking window maxima.
type MaxPool2D[B tensor.Backend] struct {
	kernel int
	stride int
}

// NewMaxPool2D creates a pooling layer with a square window. Stride
// equals the window size, the non-overlapping case used everywhere in
// the encoder path.
func NewMaxPool2D[B tensor.Backend](kernel int) *MaxPool2D[B] {
	return &MaxPool2D[B]{kernel: kernel, stride: kernel}
}

// Forward applies the pooling.
func (m *MaxPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shapeCheck(len(input.Shape()) == 4, "maxpool2d input rank", "[N, C, H, W]", input.Shape().String())
	return input.MaxPool2D([2]int{m.kernel, m.kernel}, [2]int{m.stride, m.stride})
}

// Parameters returns nil.
func (m *MaxPool2D[B]) Parameters() []*Parameter[B] {
	return nil
}

// Upsample2D scales spatial resolution up by an integer factor with
// nearest or bilinear interpolation.
type Upsample2D[B tensor.Backend] struct {
	scale int
	mode  tensor.UpsampleMode
}

// NewUpsample2D creates an upsampling layer.
func NewUpsample2D[B tensor.Backend](scale int, mode tensor.UpsampleMode) *Upsample2D[B] {
	return &Upsample2D[B]{scale: scale, mode: mode}
}

// Forward applies the upsampling.
func (u *Upsample2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shapeCheck(len(input.Shape()) == 4, "upsample2d input rank", "[N, C, H, W]", input.Shape().String())
	return input.Upsample2D(u.scale, u.mode)
}

// Parameters returns nil.
func (u *Upsample2D[B]) Parameters() []*Parameter[B] {
	return nil
}

// OrientationMaxPool projects an SE2N feature map back to Z2 by taking
// the element-wise maximum over the orientation axis. The preceding
// group convolutions are equivariant; this reduction is what makes the
// block output invariant to input rotation.
type OrientationMaxPool[B tensor.Backend] struct{}

// NewOrientationMaxPool creates the orientation-pooling layer.
func NewOrientationMaxPool[B tensor.Backend]() *OrientationMaxPool[B] {
	return &OrientationMaxPool[B]{}
}

// Forward reduces [batch, N, C, H, W] to [batch, C, H, W].
func (o *OrientationMaxPool[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shapeCheck(len(input.Shape()) == 5, "orientation pool input rank",
		"[N, orientations, C, H, W]", input.Shape().String())
	return input.MaxDim(1, false)
}

// Parameters returns nil.
func (o *OrientationMaxPool[B]) Parameters() []*Parameter[B] {
	return nil
}
