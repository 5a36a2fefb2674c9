package nn

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/roto-ml/roto/internal/tensor"
)

// initSource seeds weight initialization. Reseedable for reproducible
// tests via SeedInit; not a security boundary.
var initSource = rand.NewSource(uint64(1))

// SeedInit reseeds the weight-initialization RNG.
func SeedInit(seed uint64) {
	initSource = rand.NewSource(seed)
}

// HeNormal initializes a weight tensor from N(0, 2/fanIn), the scaling
// that keeps activation variance stable through rectifier layers. The
// group-convolution kernels use fanIn = channelsIn·kernelH·kernelW
// regardless of their orientation axis: each rotated copy reuses the
// same taps, so the per-filter fan-in is unchanged by the rotation
// stack.
func HeNormal[B tensor.Backend](fanIn int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	dist := distuv.Normal{
		Mu:    0,
		Sigma: math.Sqrt(2 / float64(fanIn)),
		Src:   initSource,
	}

	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = float32(dist.Rand())
	}
	return t
}

// Zeros creates a zero tensor, the usual bias initialization.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// Ones creates a tensor of ones, the usual scale initialization for
// normalization layers.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Ones[float32](shape, backend)
}
