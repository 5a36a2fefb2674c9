package nn

import (
	"fmt"

	"github.com/roto-ml/roto/internal/tensor"
)

// BatchNorm2D normalizes each channel of an NCHW tensor over the
// (batch, height, width) axes.
//
// In the equivariant blocks one instance normalizes the merged
// orientation·channel axis after each group convolution, and a second
// instance normalizes the plain channel axis after orientation pooling.
//
// Training mode normalizes with batch statistics and maintains
// exponential running estimates; evaluation mode normalizes with the
// stored estimates. The running buffers live outside the gradient
// graph and update in place.
type BatchNorm2D[B tensor.Backend] struct {
	features int
	eps      float64
	momentum float64
	training bool

	gamma *Parameter[B]
	beta  *Parameter[B]

	runningMean *tensor.Tensor[float32, B]
	runningVar  *tensor.Tensor[float32, B]

	backend B
}

// NewBatchNorm2D creates a batch normalization layer over the given
// number of channels, with scale one, shift zero, eps 1e-5 and running
// momentum 0.1. Layers start in training mode.
func NewBatchNorm2D[B tensor.Backend](features int, backend B) *BatchNorm2D[B] {
	if features <= 0 {
		panic(fmt.Sprintf("batchnorm2d: invalid feature count %d", features))
	}
	return &BatchNorm2D[B]{
		features:    features,
		eps:         1e-5,
		momentum:    0.1,
		training:    true,
		gamma:       NewParameter("batchnorm2d.weight", Ones(tensor.Shape{features}, backend)),
		beta:        NewParameter("batchnorm2d.bias", Zeros(tensor.Shape{features}, backend)),
		runningMean: Zeros(tensor.Shape{features}, backend),
		runningVar:  Ones(tensor.Shape{features}, backend),
		backend:     backend,
	}
}

// SetTraining switches between batch statistics and running estimates.
func (bn *BatchNorm2D[B]) SetTraining(training bool) {
	bn.training = training
}

// Features returns the normalized channel count.
func (bn *BatchNorm2D[B]) Features() int {
	return bn.features
}

// Forward normalizes the input.
func (bn *BatchNorm2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	shapeCheck(len(shape) == 4, "batchnorm2d input rank", "[N, C, H, W]", shape.String())
	shapeCheck(shape[1] == bn.features, "batchnorm2d channels",
		fmt.Sprint(bn.features), fmt.Sprint(shape[1]))

	batch, c, h, w := shape[0], shape[1], shape[2], shape[3]
	lanes := batch * h * w

	// Channel-major view [C, N·H·W] turns the per-channel statistics
	// into one-axis reductions.
	xt := input.Transpose(1, 0, 2, 3).Reshape(c, lanes)

	var norm *tensor.Tensor[float32, B]
	if bn.training {
		mean := xt.MeanDim(1, true)
		diff := xt.Sub(mean)
		variance := diff.Mul(diff).MeanDim(1, true)
		norm = diff.Mul(variance.AddScalar(bn.eps).Rsqrt())
		bn.updateRunning(mean, variance, lanes)
	} else {
		mean := bn.runningMean.Reshape(c, 1)
		invStd := bn.runningVar.Reshape(c, 1).AddScalar(bn.eps).Rsqrt()
		norm = xt.Sub(mean).Mul(invStd)
	}

	out := norm.Mul(bn.gamma.Tensor().Reshape(c, 1)).Add(bn.beta.Tensor().Reshape(c, 1))
	return out.Reshape(c, batch, h, w).Transpose(1, 0, 2, 3)
}

// updateRunning folds the batch statistics into the running estimates,
// bypassing the gradient graph. The variance estimate is debiased with
// the usual n/(n-1) factor before storage.
func (bn *BatchNorm2D[B]) updateRunning(mean, variance *tensor.Tensor[float32, B], lanes int) {
	unbias := 1.0
	if lanes > 1 {
		unbias = float64(lanes) / float64(lanes-1)
	}

	m := float32(bn.momentum)
	rm, rv := bn.runningMean.Data(), bn.runningVar.Data()
	bm, bv := mean.Data(), variance.Data()
	for i := range rm {
		rm[i] = (1-m)*rm[i] + m*bm[i]
		rv[i] = (1-m)*rv[i] + m*bv[i]*float32(unbias)
	}
}

// Parameters returns the scale and shift.
func (bn *BatchNorm2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{bn.gamma, bn.beta}
}

// StateDict returns parameters and running statistics.
func (bn *BatchNorm2D[B]) StateDict() map[string]*tensor.Tensor[float32, B] {
	return map[string]*tensor.Tensor[float32, B]{
		"weight":       bn.gamma.Tensor(),
		"bias":         bn.beta.Tensor(),
		"running_mean": bn.runningMean,
		"running_var":  bn.runningVar,
	}
}

// LoadStateDict restores parameters and running statistics.
func (bn *BatchNorm2D[B]) LoadStateDict(state map[string]*tensor.Tensor[float32, B]) error {
	if v, ok := state["weight"]; ok {
		if err := bn.gamma.Set(v); err != nil {
			return err
		}
	}
	if v, ok := state["bias"]; ok {
		if err := bn.beta.Set(v); err != nil {
			return err
		}
	}
	if v, ok := state["running_mean"]; ok {
		copy(bn.runningMean.Data(), v.Data())
	}
	if v, ok := state["running_var"]; ok {
		copy(bn.runningVar.Data(), v.Data())
	}
	return nil
}
