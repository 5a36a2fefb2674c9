package tensor

import "fmt"

// Sparse is a sparse matrix in COO (coordinate) form.
//
// It is the carrier for rotation operators: a matrix with a handful of
// interpolation weights per row, left-multiplied against flattened
// kernel stacks. Values are kept in float64; SpMM converts on the fly
// to the dense operand's precision.
//
// A Sparse is immutable after construction and safe for concurrent
// reads, which is what allows operator caching across forward passes.
type Sparse struct {
	rows    []int
	cols    []int
	vals    []float64
	numRows int
	numCols int
}

// NewSparse builds a COO sparse matrix from parallel index/value slices.
// The slices are retained, not copied.
func NewSparse(numRows, numCols int, rows, cols []int, vals []float64) (*Sparse, error) {
	if numRows <= 0 || numCols <= 0 {
		return nil, fmt.Errorf("invalid sparse dims %dx%d", numRows, numCols)
	}
	if len(rows) != len(cols) || len(rows) != len(vals) {
		return nil, fmt.Errorf("mismatched COO slices: %d rows, %d cols, %d vals",
			len(rows), len(cols), len(vals))
	}
	for i := range rows {
		if rows[i] < 0 || rows[i] >= numRows || cols[i] < 0 || cols[i] >= numCols {
			return nil, fmt.Errorf("COO entry %d at (%d, %d) outside %dx%d",
				i, rows[i], cols[i], numRows, numCols)
		}
	}

	return &Sparse{
		rows:    rows,
		cols:    cols,
		vals:    vals,
		numRows: numRows,
		numCols: numCols,
	}, nil
}

// Dims returns the matrix dimensions (rows, cols).
func (s *Sparse) Dims() (int, int) {
	return s.numRows, s.numCols
}

// NNZ returns the number of stored entries.
func (s *Sparse) NNZ() int {
	return len(s.vals)
}

// Entry returns the i-th stored (row, col, value) triple.
func (s *Sparse) Entry(i int) (int, int, float64) {
	return s.rows[i], s.cols[i], s.vals[i]
}

// T returns the transpose. The entry order is preserved, only the
// coordinates swap, so the transpose shares no semantics with row
// ordering. Used by reverse-mode SpMM.
func (s *Sparse) T() *Sparse {
	return &Sparse{
		rows:    s.cols,
		cols:    s.rows,
		vals:    s.vals,
		numRows: s.numCols,
		numCols: s.numRows,
	}
}

// Dense materializes the matrix as a float64 RawTensor, mainly for
// tests and debugging. Duplicate coordinates accumulate.
func (s *Sparse) Dense() *RawTensor {
	out := MustNewRaw(Shape{s.numRows, s.numCols}, Float64, CPU)
	data := out.AsFloat64()
	for i := range s.vals {
		data[s.rows[i]*s.numCols+s.cols[i]] += s.vals[i]
	}
	return out
}
