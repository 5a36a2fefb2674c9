package cpu_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/roto-ml/roto/internal/backend/cpu"
	"github.com/roto-ml/roto/internal/tensor"
)

func TestSpMMKnownValues(t *testing.T) {
	backend := cpu.New()

	// [[2, 0, 0], [0, 0, 3], [0, 1, 0]]
	sparse, err := tensor.NewSparse(3, 3,
		[]int{0, 1, 2}, []int{0, 2, 1}, []float64{2, 3, 1})
	if err != nil {
		t.Fatal(err)
	}

	dense := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2}, backend)

	got := dense.SpMM(sparse)
	if !got.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("shape = %v, want [3, 2]", got.Shape())
	}
	want := []float32{2, 4, 15, 18, 3, 4}
	if !almostEqual(got.Data(), want, 1e-6) {
		t.Errorf("got %v, want %v", got.Data(), want)
	}
}

func TestSpMMDuplicateEntriesAccumulate(t *testing.T) {
	backend := cpu.New()

	sparse, err := tensor.NewSparse(2, 2,
		[]int{0, 0}, []int{0, 0}, []float64{1, 2})
	if err != nil {
		t.Fatal(err)
	}

	dense := tensor.FromSlice([]float32{10, 20}, tensor.Shape{2, 1}, backend)
	got := dense.SpMM(sparse).Data()
	want := []float32{30, 0}
	if !almostEqual(got, want, 0) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// Cross-check a random-ish sparse multiply against the dense product
// computed by gonum.
func TestSpMMMatchesDenseProduct(t *testing.T) {
	backend := cpu.New()

	const rows, inner, colsOut = 6, 5, 4
	sparseRows := []int{0, 0, 1, 2, 3, 3, 4, 5, 5, 5}
	sparseCols := []int{0, 4, 2, 1, 0, 3, 4, 1, 2, 3}
	sparseVals := []float64{0.5, -1, 2, 1.5, -0.25, 1, 3, 0.75, -2, 1.25}

	sparse, err := tensor.NewSparse(rows, inner, sparseRows, sparseCols, sparseVals)
	if err != nil {
		t.Fatal(err)
	}

	denseData := make([]float64, inner*colsOut)
	for i := range denseData {
		denseData[i] = float64(i%7) - 3
	}
	dense := tensor.FromSlice(denseData, tensor.Shape{inner, colsOut}, backend)

	got := dense.SpMM(sparse)

	left := mat.NewDense(rows, inner, nil)
	for i := range sparseRows {
		left.Set(sparseRows[i], sparseCols[i], left.At(sparseRows[i], sparseCols[i])+sparseVals[i])
	}
	right := mat.NewDense(inner, colsOut, denseData)
	var product mat.Dense
	product.Mul(left, right)

	for r := 0; r < rows; r++ {
		for c := 0; c < colsOut; c++ {
			if diff := math.Abs(got.At(r, c) - product.At(r, c)); diff > 1e-12 {
				t.Errorf("(%d, %d): got %v, want %v", r, c, got.At(r, c), product.At(r, c))
			}
		}
	}
}

// The rotation operators rely on the transpose sharing entries for the
// backward pass.
func TestSparseTranspose(t *testing.T) {
	sparse, err := tensor.NewSparse(2, 3,
		[]int{0, 1}, []int{2, 0}, []float64{5, 7})
	if err != nil {
		t.Fatal(err)
	}

	tr := sparse.T()
	numRows, numCols := tr.Dims()
	if numRows != 3 || numCols != 2 {
		t.Fatalf("transpose dims = %dx%d, want 3x2", numRows, numCols)
	}
	row, col, val := tr.Entry(0)
	if row != 2 || col != 0 || val != 5 {
		t.Errorf("entry 0 = (%d, %d, %v), want (2, 0, 5)", row, col, val)
	}
}
