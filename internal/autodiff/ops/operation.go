// Package ops defines the differentiable operations recorded on the
// gradient tape.
//
// Each operation captures the raw tensors involved in one forward call
// and knows how to turn a gradient at its output into gradients at its
// inputs. Operations never own buffers beyond those references: the
// backend allocated them during the forward pass and the tape keeps
// them alive until backward runs.
package ops

import "github.com/roto-ml/roto/internal/tensor"

// Operation is one recorded node of the computation graph.
type Operation interface {
	// Backward maps the gradient at the output to gradients at the
	// inputs, in the same order as Inputs(). The backend performs any
	// tensor arithmetic needed.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the forward-pass input tensors.
	Inputs() []*tensor.RawTensor

	// Output returns the forward-pass output tensor.
	Output() *tensor.RawTensor
}
