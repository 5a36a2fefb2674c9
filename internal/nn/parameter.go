package nn

import "github.com/roto-ml/roto/internal/tensor"

// Parameter is a named trainable tensor.
//
// The optimizer looks gradients up by the identity of the underlying
// RawTensor, so a parameter's raw buffer must stay stable across
// forward passes; updates happen in place through Data().
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
}

// NewParameter wraps a tensor as a trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter value.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Raw returns the underlying RawTensor, the optimizer's gradient key.
func (p *Parameter[B]) Raw() *tensor.RawTensor {
	return p.tensor.Raw()
}

// Data returns the elements for in-place updates.
func (p *Parameter[B]) Data() []float32 {
	return p.tensor.Data()
}

// Set copies src into the parameter, keeping the raw buffer identity.
func (p *Parameter[B]) Set(src *tensor.Tensor[float32, B]) error {
	if !p.tensor.Shape().Equal(src.Shape()) {
		return &ShapeMismatchError{
			Op:   "parameter " + p.name,
			Want: p.tensor.Shape().String(),
			Got:  src.Shape().String(),
		}
	}
	copy(p.Data(), src.Data())
	return nil
}
