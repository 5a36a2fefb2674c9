// Package nn implements the neural network layers: the rotation-
// equivariant lifting and group convolutions, the equivariant encoder
// and decoder blocks built from them, plain convolution blocks, and
// the hourglass assembly tying them together.
//
// Every layer is generic over the backend; constructing a model against
// the autodiff decorator makes it trainable. Shape validation happens
// at the top of each Forward and fails by panicking with a typed
// *ShapeMismatchError; configuration errors are returned from
// constructors.
package nn

import "github.com/roto-ml/roto/internal/tensor"

// Module is the base interface for all network components.
type Module[B tensor.Backend] interface {
	// Forward computes the module output for one input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters, including those of
	// nested modules. Parameter-free modules return nil.
	Parameters() []*Parameter[B]
}

// StateModule is implemented by modules whose state can be checkpointed.
// The state dict covers trainable parameters plus persistent buffers
// such as batch-norm running statistics.
type StateModule[B tensor.Backend] interface {
	// StateDict returns the module state keyed by hierarchical names.
	StateDict() map[string]*tensor.Tensor[float32, B]

	// LoadStateDict restores state previously captured by StateDict.
	// Unknown keys are ignored; missing keys leave current values.
	LoadStateDict(state map[string]*tensor.Tensor[float32, B]) error
}

// prefixedState copies src entries into dst under "prefix.key" names.
func prefixedState[B tensor.Backend](dst map[string]*tensor.Tensor[float32, B], prefix string, src map[string]*tensor.Tensor[float32, B]) {
	for k, v := range src {
		dst[prefix+"."+k] = v
	}
}

// subState extracts the "prefix.key" entries of src into a new map
// keyed by "key".
func subState[B tensor.Backend](src map[string]*tensor.Tensor[float32, B], prefix string) map[string]*tensor.Tensor[float32, B] {
	out := make(map[string]*tensor.Tensor[float32, B])
	for k, v := range src {
		if len(k) > len(prefix)+1 && k[:len(prefix)] == prefix && k[len(prefix)] == '.' {
			out[k[len(prefix)+1:]] = v
		}
	}
	return out
}
