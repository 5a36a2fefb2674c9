package nn

import (
	"fmt"

	"github.com/roto-ml/roto/internal/tensor"
)

// Conv2D is a plain (non-equivariant) 2D convolutional layer.
//
// Input:  [batch, inChannels, H, W]
// Weight: [outChannels, inChannels, k, k]
// Output: [batch, outChannels, H', W']
//
// Bias is added as a broadcast [1, outChannels, 1, 1] term after the
// convolution.
type Conv2D[B tensor.Backend] struct {
	inChannels  int
	outChannels int
	kernelSize  int
	stride      int
	padding     int

	weight *Parameter[B]
	bias   *Parameter[B]

	backend B
}

// NewConv2D creates a convolutional layer with He-normal weights and a
// zero bias.
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, backend B) *Conv2D[B] {
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channels in=%d out=%d", inChannels, outChannels))
	}
	if kernelSize <= 0 {
		panic(fmt.Sprintf("conv2d: invalid kernel size %d", kernelSize))
	}
	if stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d or padding %d", stride, padding))
	}

	fanIn := inChannels * kernelSize * kernelSize
	weight := HeNormal(fanIn, tensor.Shape{outChannels, inChannels, kernelSize, kernelSize}, backend)

	return &Conv2D[B]{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  kernelSize,
		stride:      stride,
		padding:     padding,
		weight:      NewParameter("conv2d.weight", weight),
		bias:        NewParameter("conv2d.bias", Zeros(tensor.Shape{outChannels}, backend)),
		backend:     backend,
	}
}

// SamePadding returns the padding that keeps spatial size at stride 1
// for an odd kernel.
func SamePadding(kernelSize int) int {
	return (kernelSize - 1) / 2
}

// Forward applies the convolution.
func (c *Conv2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	shapeCheck(len(shape) == 4, "conv2d input rank", "[N, C, H, W]", shape.String())
	shapeCheck(shape[1] == c.inChannels, "conv2d input channels",
		fmt.Sprint(c.inChannels), fmt.Sprint(shape[1]))

	out := input.Conv2D(c.weight.Tensor(),
		[2]int{c.stride, c.stride}, [2]int{c.padding, c.padding})
	return out.Add(c.bias.Tensor().Reshape(1, c.outChannels, 1, 1))
}

// Parameters returns the weight and bias.
func (c *Conv2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{c.weight, c.bias}
}

// StateDict returns the layer state.
func (c *Conv2D[B]) StateDict() map[string]*tensor.Tensor[float32, B] {
	return map[string]*tensor.Tensor[float32, B]{
		"weight": c.weight.Tensor(),
		"bias":   c.bias.Tensor(),
	}
}

// LoadStateDict restores the layer state.
func (c *Conv2D[B]) LoadStateDict(state map[string]*tensor.Tensor[float32, B]) error {
	if w, ok := state["weight"]; ok {
		if err := c.weight.Set(w); err != nil {
			return err
		}
	}
	if b, ok := state["bias"]; ok {
		if err := c.bias.Set(b); err != nil {
			return err
		}
	}
	return nil
}
