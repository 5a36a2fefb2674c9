// Package rotation builds the sparse operators that rotate convolution
// kernels by N discrete angles.
//
// An operator is a sparse matrix that left-multiplies a flattened
// kernel (one column per channel pair) and yields the flattened stack
// of its N rotated copies. Rotation is resampling: every pixel of a
// rotated copy takes its value from the bilinear interpolation of the
// source kernel at the inverse-rotated coordinate. Construction is pure
// geometry, fully deterministic for a given argument tuple.
//
// Two operator kinds exist. Build produces the planar operator used by
// the lifting convolution. BuildGroup additionally folds in the
// orientation roll required when rotating an orientation-indexed
// (SE2N) kernel: rotating such a kernel by angle index s both rotates
// every stored plane in-plane and cyclically relabels the orientation
// axis by s.
package rotation

import (
	"errors"
	"fmt"
	"math"

	"github.com/roto-ml/roto/internal/tensor"
)

// Construction errors.
var (
	// ErrInvalidShape reports a non-positive kernel extent.
	ErrInvalidShape = errors.New("rotation: kernel height and width must be positive")
	// ErrInvalidOrientationCount reports a non-positive rotation count.
	ErrInvalidOrientationCount = errors.New("rotation: orientation count must be positive")
)

// FullTurn is the default periodicity: N angles spread over 2π.
const FullTurn = 2 * math.Pi

// HalfTurn spreads the N angles over π, for kernels with point symmetry.
const HalfTurn = math.Pi

// snapEps collapses near-integer sample coordinates to the exact grid
// point, so that angles like 90° produce pure permutations instead of
// permutations polluted by ~1e-16 interpolation residue.
const snapEps = 1e-9

// Operator is a planar rotation operator.
//
// Matrix has shape [Orientations·Height·Width, Height·Width]; row
// k·H·W + y·W + x holds the interpolation weights producing pixel
// (y, x) of the copy rotated by angle index k. Immutable once built.
type Operator struct {
	Matrix       *tensor.Sparse
	Orientations int
	Height       int
	Width        int
	Periodicity  float64
	DiskMask     bool
}

// GroupOperator rotates orientation-indexed kernels.
//
// Matrix has shape [N·N·Height·Width, N·Height·Width]. The row index
// decomposes as ((s·N + θ)·H + y)·W + x: pixel (y, x) of the θ-th
// orientation plane of the copy rotated by angle index s. Its weights
// read from source plane (θ−s) mod N, rotated in-plane by angle s:
// the planar rotation and the orientation roll folded into one matrix.
type GroupOperator struct {
	Matrix       *tensor.Sparse
	Orientations int
	Height       int
	Width        int
	Periodicity  float64
	DiskMask     bool
}

// Build constructs the planar rotation operator for an h×w kernel grid
// and the given number of orientations. Angle k covers
// k·periodicity/orientations for k in [0, orientations).
//
// When diskMask is set, rows whose target pixel lies outside the disk
// of radius min(h,w)/2 around the kernel center are left empty, so the
// rotated kernels carry no square-corner artifacts.
func Build(height, width, orientations int, periodicity float64, diskMask bool) (*Operator, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidShape, height, width)
	}
	if orientations <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOrientationCount, orientations)
	}

	var rows, cols []int
	var vals []float64

	emit := func(row, col int, val float64) {
		rows = append(rows, row)
		cols = append(cols, col)
		vals = append(vals, val)
	}

	for k := 0; k < orientations; k++ {
		theta := float64(k) * periodicity / float64(orientations)
		rowBase := k * height * width
		forEachTap(height, width, theta, diskMask, func(pixel, source int, weight float64) {
			emit(rowBase+pixel, source, weight)
		})
	}

	matrix, err := tensor.NewSparse(orientations*height*width, height*width, rows, cols, vals)
	if err != nil {
		return nil, fmt.Errorf("rotation: %w", err)
	}
	return &Operator{
		Matrix:       matrix,
		Orientations: orientations,
		Height:       height,
		Width:        width,
		Periodicity:  periodicity,
		DiskMask:     diskMask,
	}, nil
}

// BuildGroup constructs the rotate-and-roll operator for SE2N kernels.
//
// Multiplying by a kernel flattened to [N·H·W, channels] (orientation-
// major rows) yields all N rotated copies at once, each with its
// orientation axis already rolled. The column block for source plane
// (θ−s) mod N reuses the planar weights of angle index s.
func BuildGroup(height, width, orientations int, periodicity float64, diskMask bool) (*GroupOperator, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidShape, height, width)
	}
	if orientations <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOrientationCount, orientations)
	}

	n := orientations
	hw := height * width

	var rows, cols []int
	var vals []float64

	for s := 0; s < n; s++ {
		theta := float64(s) * periodicity / float64(n)
		for out := 0; out < n; out++ {
			src := ((out - s) % n + n) % n
			rowBase := (s*n + out) * hw
			colBase := src * hw
			forEachTap(height, width, theta, diskMask, func(pixel, source int, weight float64) {
				rows = append(rows, rowBase+pixel)
				cols = append(cols, colBase+source)
				vals = append(vals, weight)
			})
		}
	}

	matrix, err := tensor.NewSparse(n*n*hw, n*hw, rows, cols, vals)
	if err != nil {
		return nil, fmt.Errorf("rotation: %w", err)
	}
	return &GroupOperator{
		Matrix:       matrix,
		Orientations: n,
		Height:       height,
		Width:        width,
		Periodicity:  periodicity,
		DiskMask:     diskMask,
	}, nil
}

// forEachTap visits the bilinear interpolation taps of one rotated
// plane, in a fixed deterministic order: target pixels row-major, then
// the four surrounding source pixels top-left, top-right, bottom-left,
// bottom-right. Taps with zero weight or a source outside the grid are
// dropped, as are whole pixels masked out by the disk.
func forEachTap(height, width int, theta float64, diskMask bool, visit func(pixel, source int, weight float64)) {
	cy := float64(height-1) / 2
	cx := float64(width-1) / 2
	maskRadius := math.Min(float64(height), float64(width)) / 2
	sin, cos := math.Sin(theta), math.Cos(theta)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dy := float64(y) - cy
			dx := float64(x) - cx
			if diskMask && math.Hypot(dx, dy) > maskRadius {
				continue
			}

			// Pre-image of (y, x) under the rotation.
			sx := snap(cos*dx + sin*dy + cx)
			sy := snap(-sin*dx + cos*dy + cy)

			x0 := int(math.Floor(sx))
			y0 := int(math.Floor(sy))
			fx := sx - float64(x0)
			fy := sy - float64(y0)

			pixel := y*width + x
			taps := [4]struct {
				y, x int
				w    float64
			}{
				{y0, x0, (1 - fy) * (1 - fx)},
				{y0, x0 + 1, (1 - fy) * fx},
				{y0 + 1, x0, fy * (1 - fx)},
				{y0 + 1, x0 + 1, fy * fx},
			}
			for _, tap := range taps {
				if tap.w == 0 || tap.y < 0 || tap.y >= height || tap.x < 0 || tap.x >= width {
					continue
				}
				visit(pixel, tap.y*width+tap.x, tap.w)
			}
		}
	}
}

// snap rounds v to the nearest integer when it is within snapEps of it.
func snap(v float64) float64 {
	if r := math.Round(v); math.Abs(v-r) < snapEps {
		return r
	}
	return v
}

// RollMatrix returns the n×n cyclic permutation matrix that advances an
// orientation vector by shift positions: (Rv)[b] = v[(b−shift) mod n].
// BuildGroup folds this roll into its operator; the explicit matrix is
// exposed for verification and for callers staging the two steps
// separately.
func RollMatrix(n, shift int) *tensor.Sparse {
	rows := make([]int, n)
	cols := make([]int, n)
	vals := make([]float64, n)
	for b := 0; b < n; b++ {
		rows[b] = b
		cols[b] = ((b-shift)%n + n) % n
		vals[b] = 1
	}
	m, err := tensor.NewSparse(n, n, rows, cols, vals)
	if err != nil {
		panic(fmt.Sprintf("rotation: roll matrix: %v", err))
	}
	return m
}
