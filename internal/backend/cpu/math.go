package cpu

import (
	"math"

	"github.com/roto-ml/roto/internal/tensor"
)

// Rsqrt returns 1/sqrt(x) element-wise.
func (b *Backend) Rsqrt(t *tensor.RawTensor) *tensor.RawTensor {
	return unaryOp(t,
		func(v float32) float32 { return float32(1 / math.Sqrt(float64(v))) },
		func(v float64) float64 { return 1 / math.Sqrt(v) })
}

// LeakyReLU returns x for x >= 0 and negativeSlope*x otherwise.
func (b *Backend) LeakyReLU(t *tensor.RawTensor, negativeSlope float64) *tensor.RawTensor {
	slope32 := float32(negativeSlope)
	return unaryOp(t,
		func(v float32) float32 {
			if v >= 0 {
				return v
			}
			return slope32 * v
		},
		func(v float64) float64 {
			if v >= 0 {
				return v
			}
			return negativeSlope * v
		})
}

// Sigmoid returns 1/(1+exp(-x)) element-wise.
func (b *Backend) Sigmoid(t *tensor.RawTensor) *tensor.RawTensor {
	return unaryOp(t,
		func(v float32) float32 { return float32(1 / (1 + math.Exp(-float64(v)))) },
		func(v float64) float64 { return 1 / (1 + math.Exp(-v)) })
}
