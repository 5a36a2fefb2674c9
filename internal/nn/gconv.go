package nn

import (
	"fmt"

	"github.com/roto-ml/roto/internal/rotation"
	"github.com/roto-ml/roto/internal/tensor"
)

// GroupConv2D is the group convolution on SE2N feature maps.
//
// The kernel carries its own orientation axis, [N, outC, inC, k, k].
// For output orientation s, the layer convolves the input with the
// kernel stack rotated planarly by s steps and rolled by s along its
// orientation axis. Both transforms are fused into one sparse group
// operator applied to the flattened kernel, so the whole layer is a
// single 2D convolution:
//
//	input  [batch, N, inC, H, W]
//	output [batch, N, outC, H', W']
type GroupConv2D[B tensor.Backend] struct {
	inChannels   int
	outChannels  int
	kernelSize   int
	orientations int
	stride       int
	padding      int

	operator *rotation.GroupOperator
	weight   *Parameter[B]
	bias     *Parameter[B]

	backend B
}

// NewGroupConv2D creates a group convolution. The group rotation
// operator is taken from the shared cache; the kernel is He-normal
// initialized with fanIn = N·inChannels·kernelSize².
func NewGroupConv2D[B tensor.Backend](
	inChannels, outChannels, kernelSize, orientations int,
	stride, padding int,
	periodicity float64,
	diskMask bool,
	backend B,
) (*GroupConv2D[B], error) {
	if inChannels <= 0 || outChannels <= 0 {
		return nil, fmt.Errorf("group conv: invalid channels in=%d out=%d", inChannels, outChannels)
	}
	if stride <= 0 || padding < 0 {
		return nil, fmt.Errorf("group conv: invalid stride %d or padding %d", stride, padding)
	}

	op, err := rotation.CachedGroup(kernelSize, kernelSize, orientations, periodicity, diskMask)
	if err != nil {
		return nil, err
	}

	fanIn := inChannels * kernelSize * kernelSize
	weight := HeNormal(fanIn, tensor.Shape{orientations, outChannels, inChannels, kernelSize, kernelSize}, backend)

	return &GroupConv2D[B]{
		inChannels:   inChannels,
		outChannels:  outChannels,
		kernelSize:   kernelSize,
		orientations: orientations,
		stride:       stride,
		padding:      padding,
		operator:     op,
		weight:       NewParameter("gconv.weight", weight),
		bias:         NewParameter("gconv.bias", Zeros(tensor.Shape{outChannels}, backend)),
		backend:      backend,
	}, nil
}

// Orientations returns the configured rotation count.
func (g *GroupConv2D[B]) Orientations() int {
	return g.orientations
}

// TransformedKernels expands the kernel into the N rotated-and-rolled
// stacks, shaped [N, outC, N, inC, k, k]; index s selects the stack
// used for output orientation s.
func (g *GroupConv2D[B]) TransformedKernels() *tensor.Tensor[float32, B] {
	n, outC, inC, k := g.orientations, g.outChannels, g.inChannels, g.kernelSize

	// [N, outC, inC, k, k] -> [N·k·k, inC·outC], row order matching the
	// group operator's (orientation, y, x) layout.
	flat := g.weight.Tensor().
		Transpose(0, 3, 4, 2, 1).
		Reshape(n*k*k, inC*outC)

	// [N·N·k·k, inC·outC]: outer block s holds the full stack for
	// output orientation s, already rolled.
	transformed := flat.SpMM(g.operator.Matrix)

	return transformed.
		Reshape(n, n, k, k, inC, outC).
		Transpose(0, 5, 1, 4, 2, 3)
}

// Forward applies the group convolution to an SE2N feature map.
func (g *GroupConv2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	shapeCheck(len(shape) == 5, "group conv input rank", "[N, O, C, H, W]", shape.String())
	shapeCheck(shape[1] == g.orientations, "group conv input orientations",
		fmt.Sprint(g.orientations), fmt.Sprint(shape[1]))
	shapeCheck(shape[2] == g.inChannels, "group conv input channels",
		fmt.Sprint(g.inChannels), fmt.Sprint(shape[2]))

	n, outC := g.orientations, g.outChannels
	batch, height, width := shape[0], shape[3], shape[4]

	// Fold orientation into channels on both sides of the convolution.
	filters := g.TransformedKernels().Reshape(n*outC, n*g.inChannels, g.kernelSize, g.kernelSize)
	merged := input.Reshape(batch, n*g.inChannels, height, width)
	out := merged.Conv2D(filters, [2]int{g.stride, g.stride}, [2]int{g.padding, g.padding})

	outShape := out.Shape()
	se2n := out.Reshape(outShape[0], n, outC, outShape[2], outShape[3])
	return se2n.Add(g.bias.Tensor().Reshape(1, 1, outC, 1, 1))
}

// Parameters returns the kernel and bias.
func (g *GroupConv2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{g.weight, g.bias}
}

// StateDict returns the layer state.
func (g *GroupConv2D[B]) StateDict() map[string]*tensor.Tensor[float32, B] {
	return map[string]*tensor.Tensor[float32, B]{
		"weight": g.weight.Tensor(),
		"bias":   g.bias.Tensor(),
	}
}

// LoadStateDict restores the layer state.
func (g *GroupConv2D[B]) LoadStateDict(state map[string]*tensor.Tensor[float32, B]) error {
	if w, ok := state["weight"]; ok {
		if err := g.weight.Set(w); err != nil {
			return err
		}
	}
	if b, ok := state["bias"]; ok {
		if err := g.bias.Set(b); err != nil {
			return err
		}
	}
	return nil
}
