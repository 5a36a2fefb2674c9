package cpu

import (
	"fmt"

	"github.com/roto-ml/roto/internal/parallel"
	"github.com/roto-ml/roto/internal/tensor"
)

// Conv2D performs a strided, zero-padded 2D cross-correlation.
//
// Input:  [batch, inC, H, W]
// Kernel: [outC, inC, kH, kW]
// Output: [batch, outC, (H+2p-kH)/s+1, (W+2p-kW)/s+1]
//
// The group-convolution layers issue their expanded kernel stacks
// through this single primitive with orientation merged into the
// channel axes, so this loop is the hot path of every forward pass.
// Work fans out over (batch, outC) pairs.
func (b *Backend) Conv2D(input, kernel *tensor.RawTensor, stride, padding [2]int) *tensor.RawTensor {
	inShape, kShape := input.Shape(), kernel.Shape()
	if len(inShape) != 4 || len(kShape) != 4 {
		panic(fmt.Sprintf("cpu: conv2d needs 4D input and kernel, got %v and %v", inShape, kShape))
	}
	if inShape[1] != kShape[1] {
		panic(fmt.Sprintf("cpu: conv2d channel mismatch, input has %d but kernel expects %d",
			inShape[1], kShape[1]))
	}
	if stride[0] <= 0 || stride[1] <= 0 {
		panic(fmt.Sprintf("cpu: conv2d invalid stride %v", stride))
	}

	batch, inC, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	outC, kh, kw := kShape[0], kShape[2], kShape[3]
	outH := (h+2*padding[0]-kh)/stride[0] + 1
	outW := (w+2*padding[1]-kw)/stride[1] + 1
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("cpu: conv2d output would be empty for input %v, kernel %v, stride %v, padding %v",
			inShape, kShape, stride, padding))
	}

	out := tensor.MustNewRaw(tensor.Shape{batch, outC, outH, outW}, input.DType(), input.Device())

	switch input.DType() {
	case tensor.Float32:
		conv2dFloat32(input.AsFloat32(), kernel.AsFloat32(), out.AsFloat32(),
			batch, inC, h, w, outC, kh, kw, outH, outW, stride, padding)
	case tensor.Float64:
		conv2dFloat64(input.AsFloat64(), kernel.AsFloat64(), out.AsFloat64(),
			batch, inC, h, w, outC, kh, kw, outH, outW, stride, padding)
	}
	return out
}

func conv2dFloat32(in, kern, out []float32,
	batch, inC, h, w, outC, kh, kw, outH, outW int,
	stride, padding [2]int,
) {
	parallel.ForEachPlane(batch*outC, func(job int) {
		n, oc := job/outC, job%outC
		inBase := n * inC * h * w
		kBase := oc * inC * kh * kw
		outBase := (n*outC + oc) * outH * outW

		for oy := 0; oy < outH; oy++ {
			iy0 := oy*stride[0] - padding[0]
			for ox := 0; ox < outW; ox++ {
				ix0 := ox*stride[1] - padding[1]
				var acc float32
				for ic := 0; ic < inC; ic++ {
					plane := in[inBase+ic*h*w : inBase+(ic+1)*h*w]
					kplane := kern[kBase+ic*kh*kw : kBase+(ic+1)*kh*kw]
					for ky := 0; ky < kh; ky++ {
						iy := iy0 + ky
						if iy < 0 || iy >= h {
							continue
						}
						row := plane[iy*w : (iy+1)*w]
						krow := kplane[ky*kw : (ky+1)*kw]
						for kx := 0; kx < kw; kx++ {
							ix := ix0 + kx
							if ix < 0 || ix >= w {
								continue
							}
							acc += row[ix] * krow[kx]
						}
					}
				}
				out[outBase+oy*outW+ox] = acc
			}
		}
	})
}

func conv2dFloat64(in, kern, out []float64,
	batch, inC, h, w, outC, kh, kw, outH, outW int,
	stride, padding [2]int,
) {
	parallel.ForEachPlane(batch*outC, func(job int) {
		n, oc := job/outC, job%outC
		inBase := n * inC * h * w
		kBase := oc * inC * kh * kw
		outBase := (n*outC + oc) * outH * outW

		for oy := 0; oy < outH; oy++ {
			iy0 := oy*stride[0] - padding[0]
			for ox := 0; ox < outW; ox++ {
				ix0 := ox*stride[1] - padding[1]
				var acc float64
				for ic := 0; ic < inC; ic++ {
					plane := in[inBase+ic*h*w : inBase+(ic+1)*h*w]
					kplane := kern[kBase+ic*kh*kw : kBase+(ic+1)*kh*kw]
					for ky := 0; ky < kh; ky++ {
						iy := iy0 + ky
						if iy < 0 || iy >= h {
							continue
						}
						row := plane[iy*w : (iy+1)*w]
						krow := kplane[ky*kw : (ky+1)*kw]
						for kx := 0; kx < kw; kx++ {
							ix := ix0 + kx
							if ix < 0 || ix >= w {
								continue
							}
							acc += row[ix] * krow[kx]
						}
					}
				}
				out[outBase+oy*outW+ox] = acc
			}
		}
	})
}
