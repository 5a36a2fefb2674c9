package tensor

// Tensor-level operation methods. Each one dispatches to the bound
// backend; with the autodiff decorator installed the call is recorded
// on the gradient tape as a side effect.

// Add returns t + other (broadcasting).
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Add(t.raw, other.raw))
}

// Sub returns t - other (broadcasting).
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Sub(t.raw, other.raw))
}

// Mul returns the element-wise product t * other (broadcasting).
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Mul(t.raw, other.raw))
}

// Div returns the element-wise quotient t / other (broadcasting).
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.Div(t.raw, other.raw))
}

// AddScalar returns t + scalar.
func (t *Tensor[T, B]) AddScalar(scalar float64) *Tensor[T, B] {
	return t.wrap(t.backend.AddScalar(t.raw, scalar))
}

// MulScalar returns t * scalar.
func (t *Tensor[T, B]) MulScalar(scalar float64) *Tensor[T, B] {
	return t.wrap(t.backend.MulScalar(t.raw, scalar))
}

// Rsqrt returns 1/sqrt(t) element-wise.
func (t *Tensor[T, B]) Rsqrt() *Tensor[T, B] {
	return t.wrap(t.backend.Rsqrt(t.raw))
}

// LeakyReLU returns max(x, negativeSlope*x) element-wise.
func (t *Tensor[T, B]) LeakyReLU(negativeSlope float64) *Tensor[T, B] {
	return t.wrap(t.backend.LeakyReLU(t.raw, negativeSlope))
}

// Sigmoid returns 1/(1+exp(-x)) element-wise.
func (t *Tensor[T, B]) Sigmoid() *Tensor[T, B] {
	return t.wrap(t.backend.Sigmoid(t.raw))
}

// MatMul returns the matrix product t @ other for 2D tensors.
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return t.wrap(t.backend.MatMul(t.raw, other.raw))
}

// SpMM returns m @ t where m is a sparse matrix and t is a 2D tensor.
func (t *Tensor[T, B]) SpMM(m *Sparse) *Tensor[T, B] {
	return t.wrap(t.backend.SpMM(m, t.raw))
}

// Reshape returns a tensor with the same elements and a new shape.
func (t *Tensor[T, B]) Reshape(shape ...int) *Tensor[T, B] {
	return t.wrap(t.backend.Reshape(t.raw, Shape(shape)))
}

// Transpose permutes the tensor axes. With no arguments it reverses
// them (the usual 2D transpose).
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return t.wrap(t.backend.Transpose(t.raw, axes...))
}

// Cat concatenates tensors along the given dimension.
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	raws := make([]*RawTensor, len(tensors))
	for i, tt := range tensors {
		raws[i] = tt.raw
	}
	first := tensors[0]
	return first.wrap(first.backend.Cat(raws, dim))
}

// Sum reduces all elements to a scalar tensor of shape [1].
func (t *Tensor[T, B]) Sum() *Tensor[T, B] {
	return t.wrap(t.backend.Sum(t.raw))
}

// Mean reduces all elements to their arithmetic mean, shape [1].
func (t *Tensor[T, B]) Mean() *Tensor[T, B] {
	return t.Sum().MulScalar(1 / float64(t.NumElements()))
}

// SumDim sums along one dimension.
func (t *Tensor[T, B]) SumDim(dim int, keepDim bool) *Tensor[T, B] {
	return t.wrap(t.backend.SumDim(t.raw, dim, keepDim))
}

// MeanDim averages along one dimension.
func (t *Tensor[T, B]) MeanDim(dim int, keepDim bool) *Tensor[T, B] {
	return t.wrap(t.backend.MeanDim(t.raw, dim, keepDim))
}

// MaxDim takes the element-wise maximum along one dimension.
func (t *Tensor[T, B]) MaxDim(dim int, keepDim bool) *Tensor[T, B] {
	return t.wrap(t.backend.MaxDim(t.raw, dim, keepDim))
}

// Conv2D performs a 2D cross-correlation with an NCHW input and an
// [outC, inC, kH, kW] kernel.
func (t *Tensor[T, B]) Conv2D(kernel *Tensor[T, B], stride, padding [2]int) *Tensor[T, B] {
	return t.wrap(t.backend.Conv2D(t.raw, kernel.raw, stride, padding))
}

// MaxPool2D applies spatial max pooling over the last two axes.
func (t *Tensor[T, B]) MaxPool2D(kernel, stride [2]int) *Tensor[T, B] {
	return t.wrap(t.backend.MaxPool2D(t.raw, kernel, stride))
}

// Upsample2D scales the last two axes by an integer factor.
func (t *Tensor[T, B]) Upsample2D(scale int, mode UpsampleMode) *Tensor[T, B] {
	return t.wrap(t.backend.Upsample2D(t.raw, scale, mode))
}
