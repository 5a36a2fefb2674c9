// Package optim implements the gradient-descent optimizers used to fit
// the network parameters: SGD with momentum and Adam.
//
// Step consumes the gradient map produced by the autodiff backend's
// Backward and updates parameter data in place, outside the gradient
// graph:
//
//	output := model.Forward(input)
//	loss := criterion.Forward(output, target)
//	grads := backend.Backward(loss.Raw())
//	optimizer.Step(grads.Map())
package optim

import (
	"github.com/roto-ml/roto/internal/nn"
	"github.com/roto-ml/roto/internal/tensor"
)

// Optimizer is the interface shared by all optimization algorithms.
type Optimizer interface {
	// Step applies one update from a gradient map keyed by parameter
	// raw tensor. Parameters absent from the map are left unchanged.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// GetLR returns the current learning rate.
	GetLR() float32

	// SetLR updates the learning rate, for scheduling.
	SetLR(lr float32)
}

// gradientFor looks up a parameter's gradient.
func gradientFor[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}
