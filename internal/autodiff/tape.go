package autodiff

import (
	"sync"

	"github.com/roto-ml/roto/internal/autodiff/ops"
	"github.com/roto-ml/roto/internal/tensor"
)

// GradientTape records operations in execution order and replays them
// in reverse to compute gradients.
//
// Recording is append-only and guarded by a mutex so independent
// forward passes can share a backend; backward itself assumes the
// single-writer discipline of a training step.
type GradientTape struct {
	mu         sync.Mutex
	operations []ops.Operation
}

// NewGradientTape creates an empty tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{}
}

// Record appends one operation to the tape.
func (t *GradientTape) Record(op ops.Operation) {
	t.mu.Lock()
	t.operations = append(t.operations, op)
	t.mu.Unlock()
}

// Len returns the number of recorded operations.
func (t *GradientTape) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.operations)
}

// Reset discards all recorded operations.
func (t *GradientTape) Reset() {
	t.mu.Lock()
	t.operations = nil
	t.mu.Unlock()
}

// Backward runs reverse-mode differentiation from loss, which must be
// the output of a recorded operation. The backend performs the tensor
// arithmetic of the backward formulas (and must not be the recording
// decorator itself, or backward would grow the tape it walks).
//
// Returns the gradient of loss with respect to every tensor reached by
// the reverse sweep, keyed by tensor identity.
func (t *GradientTape) Backward(loss *tensor.RawTensor, backend tensor.Backend) *Gradients {
	t.mu.Lock()
	recorded := make([]ops.Operation, len(t.operations))
	copy(recorded, t.operations)
	t.mu.Unlock()

	grads := map[*tensor.RawTensor]*tensor.RawTensor{
		loss: tensor.OnesRaw(loss.Shape(), loss.DType(), loss.Device()),
	}

	// Operations were recorded in execution order, so a single reverse
	// sweep sees every output gradient before its producers need it.
	for i := len(recorded) - 1; i >= 0; i-- {
		op := recorded[i]
		outputGrad, ok := grads[op.Output()]
		if !ok {
			continue // not on any path to the loss
		}

		inputGrads := op.Backward(outputGrad, backend)
		for j, input := range op.Inputs() {
			g := inputGrads[j]
			if g == nil {
				continue
			}
			if existing, ok := grads[input]; ok {
				grads[input] = backend.Add(existing, g)
			} else {
				grads[input] = g
			}
		}
	}

	return &Gradients{grads: grads}
}

// Gradients holds the result of a backward pass.
type Gradients struct {
	grads map[*tensor.RawTensor]*tensor.RawTensor
}

// Get returns the gradient for t, or nil if t was not reached.
func (g *Gradients) Get(t *tensor.RawTensor) *tensor.RawTensor {
	return g.grads[t]
}

// Map exposes the full gradient map, keyed by tensor identity.
func (g *Gradients) Map() map[*tensor.RawTensor]*tensor.RawTensor {
	return g.grads
}
