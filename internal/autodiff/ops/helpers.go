package ops

import "github.com/roto-ml/roto/internal/tensor"

// reduceBroadcast folds a gradient back down to the shape of an operand
// that was broadcast during the forward pass: leading broadcast axes
// are summed away and size-1 axes are summed with keepDim.
//
// Example: a[C,1] * b[C,M] -> out[C,M]; grad_a = sum(grad_out, dim=1,
// keepDim) with shape [C,1].
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()
	if gradShape.Equal(targetShape) {
		return grad
	}

	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = backend.SumDim(result, 0, false)
	}
	for d := 0; d < len(targetShape); d++ {
		if targetShape[d] == 1 && result.Shape()[d] > 1 {
			result = backend.SumDim(result, d, true)
		}
	}
	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}
	return result
}

// broadcastGrad expands a reduced gradient back to the input shape by
// adding it to a zero tensor of that shape, reusing the backend's
// broadcasting rules.
func broadcastGrad(grad *tensor.RawTensor, shape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	zeros := tensor.MustNewRaw(shape, grad.DType(), grad.Device())
	return backend.Add(zeros, grad)
}

// unsqueeze reinserts a size-1 axis at dim, used when a reduction ran
// with keepDim=false and the gradient needs the axis back for
// broadcasting.
func unsqueeze(grad *tensor.RawTensor, dim int, backend tensor.Backend) *tensor.RawTensor {
	shape := grad.Shape()
	out := make(tensor.Shape, 0, len(shape)+1)
	out = append(out, shape[:dim]...)
	out = append(out, 1)
	out = append(out, shape[dim:]...)
	return backend.Reshape(grad, out)
}

// negate returns -grad.
func negate(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	return backend.MulScalar(grad, -1)
}
