package tensor

// UpsampleMode selects the interpolation used by Upsample2D.
type UpsampleMode string

const (
	// UpsampleNearest repeats each pixel scale×scale times.
	UpsampleNearest UpsampleMode = "nearest"
	// UpsampleBilinear interpolates linearly between the four nearest
	// source pixels (half-pixel centers, no corner alignment).
	UpsampleBilinear UpsampleMode = "bilinear"
)

// Backend is the compute interface every device implementation satisfies.
//
// All operations are pure with respect to their inputs: they allocate and
// return new RawTensors. Shape errors are programmer errors and panic.
//
// Binary element-wise operations broadcast following NumPy rules.
// Conv2D takes stride and padding as [height, width] pairs; the kernel
// layout is [outChannels, inChannels, kernelH, kernelW] and inputs are
// NCHW. Bias is not part of Conv2D; layers add it as a broadcast Add so
// that its gradient falls out of the generic broadcast-reduction path.
//
// The decorator in internal/autodiff wraps any Backend and records each
// call on a gradient tape, which is why the backward primitives
// (Conv2DInputBackward, MaxPool2DBackward, ...) are part of this
// interface: the tape replays them device-side during reverse mode.
type Backend interface {
	// Name returns a short backend identifier, e.g. "cpu".
	Name() string
	// Device returns the device this backend computes on.
	Device() Device

	// Element-wise arithmetic (broadcasting).
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar arithmetic.
	AddScalar(t *RawTensor, scalar float64) *RawTensor
	MulScalar(t *RawTensor, scalar float64) *RawTensor

	// Element-wise math.
	Rsqrt(t *RawTensor) *RawTensor
	LeakyReLU(t *RawTensor, negativeSlope float64) *RawTensor
	Sigmoid(t *RawTensor) *RawTensor

	// Linear algebra.
	MatMul(a, b *RawTensor) *RawTensor
	SpMM(m *Sparse, dense *RawTensor) *RawTensor

	// Shape manipulation.
	Reshape(t *RawTensor, shape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Cat(tensors []*RawTensor, dim int) *RawTensor

	// Reductions.
	Sum(t *RawTensor) *RawTensor
	SumDim(t *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(t *RawTensor, dim int, keepDim bool) *RawTensor
	MaxDim(t *RawTensor, dim int, keepDim bool) *RawTensor

	// Neural network primitives.
	Conv2D(input, kernel *RawTensor, stride, padding [2]int) *RawTensor
	Conv2DInputBackward(outputGrad, kernel *RawTensor, stride, padding [2]int, inputShape Shape) *RawTensor
	Conv2DKernelBackward(outputGrad, input *RawTensor, stride, padding [2]int, kernelShape Shape) *RawTensor
	MaxPool2D(t *RawTensor, kernel, stride [2]int) *RawTensor
	MaxPool2DBackward(outputGrad, input *RawTensor, kernel, stride [2]int) *RawTensor
	Upsample2D(t *RawTensor, scale int, mode UpsampleMode) *RawTensor
	Upsample2DBackward(outputGrad *RawTensor, scale int, mode UpsampleMode, inputShape Shape) *RawTensor
}
