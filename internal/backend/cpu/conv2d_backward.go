package cpu

import (
	"fmt"

	"github.com/roto-ml/roto/internal/parallel"
	"github.com/roto-ml/roto/internal/tensor"
)

// Conv2DInputBackward computes the gradient of Conv2D with respect to
// its input: every output gradient is scattered back through the kernel
// taps it was accumulated from. Parallel over batch entries so scatter
// targets never overlap between workers.
func (b *Backend) Conv2DInputBackward(
	outputGrad, kernel *tensor.RawTensor,
	stride, padding [2]int,
	inputShape tensor.Shape,
) *tensor.RawTensor {
	gShape, kShape := outputGrad.Shape(), kernel.Shape()
	if len(gShape) != 4 || len(kShape) != 4 || len(inputShape) != 4 {
		panic(fmt.Sprintf("cpu: conv2d input backward needs 4D shapes, got %v, %v, %v",
			gShape, kShape, inputShape))
	}

	batch, inC, h, w := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	outC, kh, kw := kShape[0], kShape[2], kShape[3]
	outH, outW := gShape[2], gShape[3]

	out := tensor.MustNewRaw(inputShape, outputGrad.DType(), outputGrad.Device())

	scatter := func(get func(int) float64, kget func(int) float64, add func(int, float64)) {
		parallel.ForEachPlane(batch, func(n int) {
			for oc := 0; oc < outC; oc++ {
				gBase := (n*outC + oc) * outH * outW
				kBase := oc * inC * kh * kw
				for oy := 0; oy < outH; oy++ {
					iy0 := oy*stride[0] - padding[0]
					for ox := 0; ox < outW; ox++ {
						ix0 := ox*stride[1] - padding[1]
						g := get(gBase + oy*outW + ox)
						if g == 0 {
							continue
						}
						for ic := 0; ic < inC; ic++ {
							inBase := (n*inC + ic) * h * w
							for ky := 0; ky < kh; ky++ {
								iy := iy0 + ky
								if iy < 0 || iy >= h {
									continue
								}
								for kx := 0; kx < kw; kx++ {
									ix := ix0 + kx
									if ix < 0 || ix >= w {
										continue
									}
									add(inBase+iy*w+ix, g*kget(kBase+(ic*kh+ky)*kw+kx))
								}
							}
						}
					}
				}
			}
		})
	}

	switch outputGrad.DType() {
	case tensor.Float32:
		g, k, o := outputGrad.AsFloat32(), kernel.AsFloat32(), out.AsFloat32()
		scatter(
			func(i int) float64 { return float64(g[i]) },
			func(i int) float64 { return float64(k[i]) },
			func(i int, v float64) { o[i] += float32(v) },
		)
	case tensor.Float64:
		g, k, o := outputGrad.AsFloat64(), kernel.AsFloat64(), out.AsFloat64()
		scatter(
			func(i int) float64 { return g[i] },
			func(i int) float64 { return k[i] },
			func(i int, v float64) { o[i] += v },
		)
	}
	return out
}

// Conv2DKernelBackward computes the gradient of Conv2D with respect to
// its kernel. Parallel over output channels; each worker owns a
// disjoint slice of the kernel gradient.
func (b *Backend) Conv2DKernelBackward(
	outputGrad, input *tensor.RawTensor,
	stride, padding [2]int,
	kernelShape tensor.Shape,
) *tensor.RawTensor {
	gShape, inShape := outputGrad.Shape(), input.Shape()
	if len(gShape) != 4 || len(inShape) != 4 || len(kernelShape) != 4 {
		panic(fmt.Sprintf("cpu: conv2d kernel backward needs 4D shapes, got %v, %v, %v",
			gShape, inShape, kernelShape))
	}

	batch, inC, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	outC, kh, kw := kernelShape[0], kernelShape[2], kernelShape[3]
	outH, outW := gShape[2], gShape[3]

	out := tensor.MustNewRaw(kernelShape, outputGrad.DType(), outputGrad.Device())

	accumulate := func(get func(int) float64, iget func(int) float64, add func(int, float64)) {
		parallel.ForEachPlane(outC, func(oc int) {
			kBase := oc * inC * kh * kw
			for n := 0; n < batch; n++ {
				gBase := (n*outC + oc) * outH * outW
				for oy := 0; oy < outH; oy++ {
					iy0 := oy*stride[0] - padding[0]
					for ox := 0; ox < outW; ox++ {
						ix0 := ox*stride[1] - padding[1]
						g := get(gBase + oy*outW + ox)
						if g == 0 {
							continue
						}
						for ic := 0; ic < inC; ic++ {
							inBase := (n*inC + ic) * h * w
							for ky := 0; ky < kh; ky++ {
								iy := iy0 + ky
								if iy < 0 || iy >= h {
									continue
								}
								for kx := 0; kx < kw; kx++ {
									ix := ix0 + kx
									if ix < 0 || ix >= w {
										continue
									}
									add(kBase+(ic*kh+ky)*kw+kx, g*iget(inBase+iy*w+ix))
								}
							}
						}
					}
				}
			}
		})
	}

	switch outputGrad.DType() {
	case tensor.Float32:
		g, in, o := outputGrad.AsFloat32(), input.AsFloat32(), out.AsFloat32()
		accumulate(
			func(i int) float64 { return float64(g[i]) },
			func(i int) float64 { return float64(in[i]) },
			func(i int, v float64) { o[i] += float32(v) },
		)
	case tensor.Float64:
		g, in, o := outputGrad.AsFloat64(), input.AsFloat64(), out.AsFloat64()
		accumulate(
			func(i int) float64 { return g[i] },
			func(i int) float64 { return in[i] },
			func(i int, v float64) { o[i] += v },
		)
	}
	return out
}
