package cpu

import (
	"fmt"
	"math"

	"github.com/roto-ml/roto/internal/parallel"
	"github.com/roto-ml/roto/internal/tensor"
)

// axisTap is one interpolation tap on a single axis: a source index and
// its weight. Nearest mode has one tap per output position, bilinear up
// to two.
type axisTap struct {
	index  int
	weight float64
}

// upsampleTaps builds the per-output-position taps for one spatial axis.
// Bilinear sampling uses half-pixel centers: src = (dst+0.5)/scale - 0.5,
// with edge taps clamped, matching the usual image-resize convention.
func upsampleTaps(inSize, scale int, mode tensor.UpsampleMode) [][]axisTap {
	outSize := inSize * scale
	taps := make([][]axisTap, outSize)

	for o := 0; o < outSize; o++ {
		switch mode {
		case tensor.UpsampleNearest:
			taps[o] = []axisTap{{index: o / scale, weight: 1}}
		case tensor.UpsampleBilinear:
			src := (float64(o)+0.5)/float64(scale) - 0.5
			i0 := int(math.Floor(src))
			frac := src - float64(i0)
			i1 := i0 + 1
			if i0 < 0 {
				i0 = 0
			}
			if i1 > inSize-1 {
				i1 = inSize - 1
			}
			if i0 == i1 {
				taps[o] = []axisTap{{index: i0, weight: 1}}
			} else {
				taps[o] = []axisTap{
					{index: i0, weight: 1 - frac},
					{index: i1, weight: frac},
				}
			}
		default:
			panic(fmt.Sprintf("cpu: unknown upsample mode %q", mode))
		}
	}
	return taps
}

// Upsample2D scales the spatial axes of an NCHW tensor by an integer
// factor using the given interpolation mode.
func (b *Backend) Upsample2D(t *tensor.RawTensor, scale int, mode tensor.UpsampleMode) *tensor.RawTensor {
	shape := t.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("cpu: upsample2d needs 4D input, got %v", shape))
	}
	if scale <= 0 {
		panic(fmt.Sprintf("cpu: upsample2d invalid scale %d", scale))
	}

	batch, ch, h, w := shape[0], shape[1], shape[2], shape[3]
	outH, outW := h*scale, w*scale
	yTaps := upsampleTaps(h, scale, mode)
	xTaps := upsampleTaps(w, scale, mode)

	out := tensor.MustNewRaw(tensor.Shape{batch, ch, outH, outW}, t.DType(), t.Device())

	gather := func(get func(int) float64, set func(int, float64)) {
		parallel.ForEachPlane(batch*ch, func(plane int) {
			inBase := plane * h * w
			outBase := plane * outH * outW
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					var acc float64
					for _, ty := range yTaps[oy] {
						for _, tx := range xTaps[ox] {
							acc += ty.weight * tx.weight * get(inBase+ty.index*w+tx.index)
						}
					}
					set(outBase+oy*outW+ox, acc)
				}
			}
		})
	}

	switch t.DType() {
	case tensor.Float32:
		in, o := t.AsFloat32(), out.AsFloat32()
		gather(
			func(i int) float64 { return float64(in[i]) },
			func(i int, v float64) { o[i] = float32(v) },
		)
	case tensor.Float64:
		in, o := t.AsFloat64(), out.AsFloat64()
		gather(
			func(i int) float64 { return in[i] },
			func(i int, v float64) { o[i] = v },
		)
	}
	return out
}

// Upsample2DBackward is the adjoint of Upsample2D: output gradients are
// scattered back through the same interpolation taps.
func (b *Backend) Upsample2DBackward(outputGrad *tensor.RawTensor, scale int, mode tensor.UpsampleMode, inputShape tensor.Shape) *tensor.RawTensor {
	gShape := outputGrad.Shape()
	if len(gShape) != 4 || len(inputShape) != 4 {
		panic(fmt.Sprintf("cpu: upsample2d backward needs 4D shapes, got %v and %v", gShape, inputShape))
	}

	batch, ch, h, w := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	outH, outW := gShape[2], gShape[3]
	yTaps := upsampleTaps(h, scale, mode)
	xTaps := upsampleTaps(w, scale, mode)

	out := tensor.MustNewRaw(inputShape, outputGrad.DType(), outputGrad.Device())

	scatter := func(get func(int) float64, add func(int, float64)) {
		parallel.ForEachPlane(batch*ch, func(plane int) {
			inBase := plane * h * w
			outBase := plane * outH * outW
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					g := get(outBase + oy*outW + ox)
					for _, ty := range yTaps[oy] {
						for _, tx := range xTaps[ox] {
							add(inBase+ty.index*w+tx.index, ty.weight*tx.weight*g)
						}
					}
				}
			}
		})
	}

	switch outputGrad.DType() {
	case tensor.Float32:
		g, o := outputGrad.AsFloat32(), out.AsFloat32()
		scatter(
			func(i int) float64 { return float64(g[i]) },
			func(i int, v float64) { o[i] += float32(v) },
		)
	case tensor.Float64:
		g, o := outputGrad.AsFloat64(), out.AsFloat64()
		scatter(
			func(i int) float64 { return g[i] },
			func(i int, v float64) { o[i] += v },
		)
	}
	return out
}
