package nn

import (
	"fmt"

	"github.com/roto-ml/roto/internal/rotation"
	"github.com/roto-ml/roto/internal/tensor"
)

// LiftingConv2D is the lifting convolution from Z2 to SE2N.
//
// It stores one ordinary 2D kernel [outC, inC, k, k]. On every forward
// pass the kernel is expanded into its N rotated copies through the
// sparse rotation operator, the copies are merged into the output-
// channel axis of a single 2D convolution, and the result is split
// back into an orientation-indexed feature map:
//
//	input  [batch, inC, H, W]
//	output [batch, N, outC, H', W']
//
// Orientation index k of the output corresponds to the kernel rotated
// by angle k·periodicity/N; the ordering is the rotation operator's.
// The expansion runs inside the gradient graph, so the kernel receives
// the accumulated gradient of all N copies.
type LiftingConv2D[B tensor.Backend] struct {
	inChannels   int
	outChannels  int
	kernelSize   int
	orientations int
	stride       int
	padding      int

	operator *rotation.Operator
	weight   *Parameter[B]
	bias     *Parameter[B]

	backend B
}

// NewLiftingConv2D creates a lifting convolution. The rotation operator
// for (kernelSize, orientations, periodicity, diskMask) is taken from
// the shared cache; the kernel is He-normal initialized with
// fanIn = inChannels·kernelSize².
func NewLiftingConv2D[B tensor.Backend](
	inChannels, outChannels, kernelSize, orientations int,
	stride, padding int,
	periodicity float64,
	diskMask bool,
	backend B,
) (*LiftingConv2D[B], error) {
	if inChannels <= 0 || outChannels <= 0 {
		return nil, fmt.Errorf("lifting conv: invalid channels in=%d out=%d", inChannels, outChannels)
	}
	if stride <= 0 || padding < 0 {
		return nil, fmt.Errorf("lifting conv: invalid stride %d or padding %d", stride, padding)
	}

	op, err := rotation.Cached(kernelSize, kernelSize, orientations, periodicity, diskMask)
	if err != nil {
		return nil, err
	}

	fanIn := inChannels * kernelSize * kernelSize
	weight := HeNormal(fanIn, tensor.Shape{outChannels, inChannels, kernelSize, kernelSize}, backend)

	return &LiftingConv2D[B]{
		inChannels:   inChannels,
		outChannels:  outChannels,
		kernelSize:   kernelSize,
		orientations: orientations,
		stride:       stride,
		padding:      padding,
		operator:     op,
		weight:       NewParameter("lifting.weight", weight),
		bias:         NewParameter("lifting.bias", Zeros(tensor.Shape{outChannels}, backend)),
		backend:      backend,
	}, nil
}

// Orientations returns the configured rotation count.
func (l *LiftingConv2D[B]) Orientations() int {
	return l.orientations
}

// RotatedKernels expands the current kernel into its N rotated copies,
// shaped [N, outC, inC, k, k]. This is the derived stack the forward
// pass convolves with; it is recomputed from the live weights on every
// call.
func (l *LiftingConv2D[B]) RotatedKernels() *tensor.Tensor[float32, B] {
	n, outC, inC, k := l.orientations, l.outChannels, l.inChannels, l.kernelSize

	// [outC, inC, k, k] -> [k·k, inC·outC], columns inC-major, so the
	// rotated stack reshapes cleanly below.
	flat := l.weight.Tensor().
		Transpose(1, 0, 2, 3).
		Reshape(inC*outC, k*k).
		Transpose()

	// [N·k·k, inC·outC]: every row block is one rotated copy.
	rotated := flat.SpMM(l.operator.Matrix)

	return rotated.
		Reshape(n, k, k, inC, outC).
		Transpose(0, 4, 3, 1, 2)
}

// Forward lifts a Z2 feature map into SE2N.
func (l *LiftingConv2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	shapeCheck(len(shape) == 4, "lifting conv input rank", "[N, C, H, W]", shape.String())
	shapeCheck(shape[1] == l.inChannels, "lifting conv input channels",
		fmt.Sprint(l.inChannels), fmt.Sprint(shape[1]))

	n, outC := l.orientations, l.outChannels

	// Merge orientation into the output-channel axis and convolve once.
	filters := l.RotatedKernels().Reshape(n*outC, l.inChannels, l.kernelSize, l.kernelSize)
	out := input.Conv2D(filters, [2]int{l.stride, l.stride}, [2]int{l.padding, l.padding})

	outShape := out.Shape()
	se2n := out.Reshape(outShape[0], n, outC, outShape[2], outShape[3])
	return se2n.Add(l.bias.Tensor().Reshape(1, 1, outC, 1, 1))
}

// Parameters returns the kernel and bias.
func (l *LiftingConv2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

// StateDict returns the layer state.
func (l *LiftingConv2D[B]) StateDict() map[string]*tensor.Tensor[float32, B] {
	return map[string]*tensor.Tensor[float32, B]{
		"weight": l.weight.Tensor(),
		"bias":   l.bias.Tensor(),
	}
}

// LoadStateDict restores the layer state.
func (l *LiftingConv2D[B]) LoadStateDict(state map[string]*tensor.Tensor[float32, B]) error {
	if w, ok := state["weight"]; ok {
		if err := l.weight.Set(w); err != nil {
			return err
		}
	}
	if b, ok := state["bias"]; ok {
		if err := l.bias.Set(b); err != nil {
			return err
		}
	}
	return nil
}
