// Package autodiff provides reverse-mode automatic differentiation as a
// backend decorator.
//
// Backend[B] wraps any tensor.Backend, forwards every operation to it,
// and records the call on a GradientTape. Layers and tensors stay
// oblivious: building a model against the decorated backend is all it
// takes to make the whole forward pass differentiable.
//
//	inner := cpu.New()
//	ad := autodiff.New(inner)
//	model := nn.NewHourglass(cfg, ad)
//	loss := nn.MSELoss(model.Forward(x), target)
//	grads := ad.Backward(loss.Raw())
package autodiff

import (
	"github.com/roto-ml/roto/internal/autodiff/ops"
	"github.com/roto-ml/roto/internal/tensor"
)

// Backend decorates an inner backend with gradient recording.
type Backend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New wraps inner with a fresh gradient tape.
func New[B tensor.Backend](inner B) *Backend[B] {
	return &Backend[B]{inner: inner, tape: NewGradientTape()}
}

// Inner returns the wrapped backend.
func (ad *Backend[B]) Inner() B {
	return ad.inner
}

// Tape returns the gradient tape.
func (ad *Backend[B]) Tape() *GradientTape {
	return ad.tape
}

// Backward differentiates loss with respect to everything on the tape,
// then clears the tape for the next step. The backward arithmetic runs
// on the inner backend so it is not itself recorded.
func (ad *Backend[B]) Backward(loss *tensor.RawTensor) *Gradients {
	grads := ad.tape.Backward(loss, ad.inner)
	ad.tape.Reset()
	return grads
}

// Name returns the decorated backend name, e.g. "autodiff(cpu)".
func (ad *Backend[B]) Name() string {
	return "autodiff(" + ad.inner.Name() + ")"
}

// Device returns the inner backend's device.
func (ad *Backend[B]) Device() tensor.Device {
	return ad.inner.Device()
}

// Add records a + b.
func (ad *Backend[B]) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.Add(a, b)
	ad.tape.Record(ops.NewAddOp(a, b, out))
	return out
}

// Sub records a - b.
func (ad *Backend[B]) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.Sub(a, b)
	ad.tape.Record(ops.NewSubOp(a, b, out))
	return out
}

// Mul records a * b.
func (ad *Backend[B]) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.Mul(a, b)
	ad.tape.Record(ops.NewMulOp(a, b, out))
	return out
}

// Div records a / b.
func (ad *Backend[B]) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.Div(a, b)
	ad.tape.Record(ops.NewDivOp(a, b, out))
	return out
}

// AddScalar records t + scalar.
func (ad *Backend[B]) AddScalar(t *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	out := ad.inner.AddScalar(t, scalar)
	ad.tape.Record(ops.NewAddScalarOp(t, out))
	return out
}

// MulScalar records t * scalar.
func (ad *Backend[B]) MulScalar(t *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	out := ad.inner.MulScalar(t, scalar)
	ad.tape.Record(ops.NewMulScalarOp(t, out, scalar))
	return out
}

// Rsqrt records 1/sqrt(t).
func (ad *Backend[B]) Rsqrt(t *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.Rsqrt(t)
	ad.tape.Record(ops.NewRsqrtOp(t, out))
	return out
}

// LeakyReLU records the leaky rectifier.
func (ad *Backend[B]) LeakyReLU(t *tensor.RawTensor, negativeSlope float64) *tensor.RawTensor {
	out := ad.inner.LeakyReLU(t, negativeSlope)
	ad.tape.Record(ops.NewLeakyReLUOp(t, out, negativeSlope))
	return out
}

// Sigmoid records the logistic function.
func (ad *Backend[B]) Sigmoid(t *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.Sigmoid(t)
	ad.tape.Record(ops.NewSigmoidOp(t, out))
	return out
}

// MatMul records a @ b.
func (ad *Backend[B]) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.MatMul(a, b)
	ad.tape.Record(ops.NewMatMulOp(a, b, out))
	return out
}

// SpMM records m @ dense. The sparse operand is treated as a constant.
func (ad *Backend[B]) SpMM(m *tensor.Sparse, dense *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.SpMM(m, dense)
	ad.tape.Record(ops.NewSpMMOp(m, dense, out))
	return out
}

// Reshape records a reshape.
func (ad *Backend[B]) Reshape(t *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	out := ad.inner.Reshape(t, shape)
	ad.tape.Record(ops.NewReshapeOp(t, out))
	return out
}

// Transpose records an axis permutation.
func (ad *Backend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	out := ad.inner.Transpose(t, axes...)
	ad.tape.Record(ops.NewTransposeOp(t, out, axes))
	return out
}

// Cat records a concatenation.
func (ad *Backend[B]) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	out := ad.inner.Cat(tensors, dim)
	ad.tape.Record(ops.NewCatOp(tensors, out, dim))
	return out
}

// Sum records a full reduction.
func (ad *Backend[B]) Sum(t *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.Sum(t)
	ad.tape.Record(ops.NewSumOp(t, out))
	return out
}

// SumDim records a one-axis sum.
func (ad *Backend[B]) SumDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	out := ad.inner.SumDim(t, dim, keepDim)
	ad.tape.Record(ops.NewSumDimOp(t, out, dim, keepDim))
	return out
}

// MeanDim records a one-axis mean.
func (ad *Backend[B]) MeanDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	out := ad.inner.MeanDim(t, dim, keepDim)
	ad.tape.Record(ops.NewMeanDimOp(t, out, dim, keepDim))
	return out
}

// MaxDim records a one-axis max.
func (ad *Backend[B]) MaxDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	out := ad.inner.MaxDim(t, dim, keepDim)
	ad.tape.Record(ops.NewMaxDimOp(t, out, dim, keepDim))
	return out
}

// Conv2D records a 2D convolution.
func (ad *Backend[B]) Conv2D(input, kernel *tensor.RawTensor, stride, padding [2]int) *tensor.RawTensor {
	out := ad.inner.Conv2D(input, kernel, stride, padding)
	ad.tape.Record(ops.NewConv2DOp(input, kernel, out, stride, padding))
	return out
}

// Conv2DInputBackward passes through without recording; it only runs
// inside backward formulas.
func (ad *Backend[B]) Conv2DInputBackward(outputGrad, kernel *tensor.RawTensor, stride, padding [2]int, inputShape tensor.Shape) *tensor.RawTensor {
	return ad.inner.Conv2DInputBackward(outputGrad, kernel, stride, padding, inputShape)
}

// Conv2DKernelBackward passes through without recording.
func (ad *Backend[B]) Conv2DKernelBackward(outputGrad, input *tensor.RawTensor, stride, padding [2]int, kernelShape tensor.Shape) *tensor.RawTensor {
	return ad.inner.Conv2DKernelBackward(outputGrad, input, stride, padding, kernelShape)
}

// MaxPool2D records a spatial max pool.
func (ad *Backend[B]) MaxPool2D(t *tensor.RawTensor, kernel, stride [2]int) *tensor.RawTensor {
	out := ad.inner.MaxPool2D(t, kernel, stride)
	ad.tape.Record(ops.NewMaxPool2DOp(t, out, kernel, stride))
	return out
}

// MaxPool2DBackward passes through without recording.
func (ad *Backend[B]) MaxPool2DBackward(outputGrad, input *tensor.RawTensor, kernel, stride [2]int) *tensor.RawTensor {
	return ad.inner.MaxPool2DBackward(outputGrad, input, kernel, stride)
}

// Upsample2D records a spatial upsample.
func (ad *Backend[B]) Upsample2D(t *tensor.RawTensor, scale int, mode tensor.UpsampleMode) *tensor.RawTensor {
	out := ad.inner.Upsample2D(t, scale, mode)
	ad.tape.Record(ops.NewUpsample2DOp(t, out, scale, mode))
	return out
}

// Upsample2DBackward passes through without recording.
func (ad *Backend[B]) Upsample2DBackward(outputGrad *tensor.RawTensor, scale int, mode tensor.UpsampleMode, inputShape tensor.Shape) *tensor.RawTensor {
	return ad.inner.Upsample2DBackward(outputGrad, scale, mode, inputShape)
}
