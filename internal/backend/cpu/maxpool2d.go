package cpu

import (
	"fmt"
	"math"

	"github.com/roto-ml/roto/internal/parallel"
	"github.com/roto-ml/roto/internal/tensor"
)

// MaxPool2D applies spatial max pooling to an NCHW tensor.
// Windows that would read past the input edge are truncated.
func (b *Backend) MaxPool2D(t *tensor.RawTensor, kernel, stride [2]int) *tensor.RawTensor {
	shape := t.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("cpu: maxpool2d needs 4D input, got %v", shape))
	}
	if kernel[0] <= 0 || kernel[1] <= 0 || stride[0] <= 0 || stride[1] <= 0 {
		panic(fmt.Sprintf("cpu: maxpool2d invalid kernel %v or stride %v", kernel, stride))
	}

	batch, ch, h, w := shape[0], shape[1], shape[2], shape[3]
	outH := (h-kernel[0])/stride[0] + 1
	outW := (w-kernel[1])/stride[1] + 1
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("cpu: maxpool2d output would be empty for input %v, kernel %v", shape, kernel))
	}

	out := tensor.MustNewRaw(tensor.Shape{batch, ch, outH, outW}, t.DType(), t.Device())

	forEachWindow := func(get func(int) float64, set func(int, float64)) {
		parallel.ForEachPlane(batch*ch, func(plane int) {
			inBase := plane * h * w
			outBase := plane * outH * outW
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					best := math.Inf(-1)
					for ky := 0; ky < kernel[0]; ky++ {
						iy := oy*stride[0] + ky
						for kx := 0; kx < kernel[1]; kx++ {
							ix := ox*stride[1] + kx
							if v := get(inBase + iy*w + ix); v > best {
								best = v
							}
						}
					}
					set(outBase+oy*outW+ox, best)
				}
			}
		})
	}

	switch t.DType() {
	case tensor.Float32:
		in, o := t.AsFloat32(), out.AsFloat32()
		forEachWindow(
			func(i int) float64 { return float64(in[i]) },
			func(i int, v float64) { o[i] = float32(v) },
		)
	case tensor.Float64:
		in, o := t.AsFloat64(), out.AsFloat64()
		forEachWindow(
			func(i int) float64 { return in[i] },
			func(i int, v float64) { o[i] = v },
		)
	}
	return out
}

// MaxPool2DBackward routes each output gradient to the input position
// that won its pooling window. Ties go to the first (row-major) winner,
// matching the forward pass.
func (b *Backend) MaxPool2DBackward(outputGrad, input *tensor.RawTensor, kernel, stride [2]int) *tensor.RawTensor {
	inShape := input.Shape()
	gShape := outputGrad.Shape()
	if len(inShape) != 4 || len(gShape) != 4 {
		panic(fmt.Sprintf("cpu: maxpool2d backward needs 4D tensors, got %v and %v", inShape, gShape))
	}

	batch, ch, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	outH, outW := gShape[2], gShape[3]

	out := tensor.MustNewRaw(inShape, input.DType(), input.Device())

	forEachWindow := func(get func(int) float64, gget func(int) float64, add func(int, float64)) {
		parallel.ForEachPlane(batch*ch, func(plane int) {
			inBase := plane * h * w
			outBase := plane * outH * outW
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					best := math.Inf(-1)
					bestIdx := -1
					for ky := 0; ky < kernel[0]; ky++ {
						iy := oy*stride[0] + ky
						for kx := 0; kx < kernel[1]; kx++ {
							ix := ox*stride[1] + kx
							if v := get(inBase + iy*w + ix); v > best {
								best = v
								bestIdx = inBase + iy*w + ix
							}
						}
					}
					add(bestIdx, gget(outBase+oy*outW+ox))
				}
			}
		})
	}

	switch input.DType() {
	case tensor.Float32:
		in, g, o := input.AsFloat32(), outputGrad.AsFloat32(), out.AsFloat32()
		forEachWindow(
			func(i int) float64 { return float64(in[i]) },
			func(i int) float64 { return float64(g[i]) },
			func(i int, v float64) { o[i] += float32(v) },
		)
	case tensor.Float64:
		in, g, o := input.AsFloat64(), outputGrad.AsFloat64(), out.AsFloat64()
		forEachWindow(
			func(i int) float64 { return in[i] },
			func(i int) float64 { return g[i] },
			func(i int, v float64) { o[i] += v },
		)
	}
	return out
}
