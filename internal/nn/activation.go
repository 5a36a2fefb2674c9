package nn

import "github.com/roto-ml/roto/internal/tensor"

// LeakyReLU applies max(x, slope·x). The blocks use slope 0.2.
type LeakyReLU[B tensor.Backend] struct {
	slope float64
}

// NewLeakyReLU creates a leaky rectifier with the given negative slope.
func NewLeakyReLU[B tensor.Backend](negativeSlope float64) *LeakyReLU[B] {
	return &LeakyReLU[B]{slope: negativeSlope}
}

// Forward applies the nonlinearity.
func (l *LeakyReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.LeakyReLU(l.slope)
}

// Parameters returns nil; the activation is parameter-free.
func (l *LeakyReLU[B]) Parameters() []*Parameter[B] {
	return nil
}

// Sigmoid applies the logistic function, used as the saturating output
// nonlinearity of the hourglass.
type Sigmoid[B tensor.Backend] struct{}

// NewSigmoid creates a sigmoid activation.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{}
}

// Forward applies the nonlinearity.
func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Sigmoid()
}

// Parameters returns nil.
func (s *Sigmoid[B]) Parameters() []*Parameter[B] {
	return nil
}
