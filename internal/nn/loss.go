package nn

import (
	"github.com/roto-ml/roto/internal/tensor"
)

// MSELoss is the mean squared error over all elements.
type MSELoss[B tensor.Backend] struct{}

// NewMSELoss creates a mean squared error criterion.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return &MSELoss[B]{}
}

// Forward returns the scalar mean of (prediction - target)^2.
func (l *MSELoss[B]) Forward(prediction, target *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shapeCheck(prediction.Shape().Equal(target.Shape()), "mse loss shapes",
		prediction.Shape().String(), target.Shape().String())
	diff := prediction.Sub(target)
	return diff.Mul(diff).Mean()
}

// L1Loss is the mean absolute error over all elements. The absolute
// value is built from two leaky ReLU passes so the loss stays inside
// the gradient graph.
type L1Loss[B tensor.Backend] struct{}

// NewL1Loss creates a mean absolute error criterion.
func NewL1Loss[B tensor.Backend]() *L1Loss[B] {
	return &L1Loss[B]{}
}

// Forward returns the scalar mean of |prediction - target|.
func (l *L1Loss[B]) Forward(prediction, target *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shapeCheck(prediction.Shape().Equal(target.Shape()), "l1 loss shapes",
		prediction.Shape().String(), target.Shape().String())
	diff := prediction.Sub(target)
	// |x| = relu(x) + relu(-x) with slope 0.
	abs := diff.LeakyReLU(0).Add(diff.MulScalar(-1).LeakyReLU(0))
	return abs.Mean()
}
