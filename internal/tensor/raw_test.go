package tensor

import "testing"

func TestNewRaw(t *testing.T) {
	raw, err := NewRaw(Shape{2, 3}, Float32, CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	if !raw.Shape().Equal(Shape{2, 3}) {
		t.Errorf("shape = %v, want [2, 3]", raw.Shape())
	}
	if got := len(raw.Bytes()); got != 6*4 {
		t.Errorf("buffer size = %d, want 24", got)
	}
	for _, v := range raw.AsFloat32() {
		if v != 0 {
			t.Fatal("new tensor not zeroed")
		}
	}
}

func TestNewRawInvalidShape(t *testing.T) {
	if _, err := NewRaw(Shape{2, 0}, Float32, CPU); err == nil {
		t.Error("expected error for zero dimension")
	}
	if _, err := NewRaw(Shape{-1}, Float64, CPU); err == nil {
		t.Error("expected error for negative dimension")
	}
}

func TestRawAt(t *testing.T) {
	raw := MustNewRaw(Shape{2, 3}, Float32, CPU)
	copy(raw.AsFloat32(), []float32{1, 2, 3, 4, 5, 6})

	if got := raw.At(1, 2); got != 6 {
		t.Errorf("At(1, 2) = %v, want 6", got)
	}
	if got := raw.At(0, 1); got != 2 {
		t.Errorf("At(0, 1) = %v, want 2", got)
	}
}

func TestRawCloneIsIndependent(t *testing.T) {
	raw := MustNewRaw(Shape{3}, Float32, CPU)
	copy(raw.AsFloat32(), []float32{1, 2, 3})

	clone := raw.Clone()
	clone.AsFloat32()[0] = 99
	if raw.AsFloat32()[0] != 1 {
		t.Error("mutating the clone changed the original")
	}
}

func TestWithShape(t *testing.T) {
	raw := MustNewRaw(Shape{2, 3}, Float32, CPU)
	copy(raw.AsFloat32(), []float32{1, 2, 3, 4, 5, 6})

	reshaped := raw.WithShape(Shape{3, 2})
	if !reshaped.Shape().Equal(Shape{3, 2}) {
		t.Errorf("shape = %v, want [3, 2]", reshaped.Shape())
	}
	if got := reshaped.At(2, 1); got != 6 {
		t.Errorf("element order changed by reshape: At(2, 1) = %v, want 6", got)
	}
}

func TestWithShapeWrongCountPanics(t *testing.T) {
	raw := MustNewRaw(Shape{2, 3}, Float32, CPU)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for element count mismatch")
		}
	}()
	raw.WithShape(Shape{4})
}

func TestAsFloat32WrongDTypePanics(t *testing.T) {
	raw := MustNewRaw(Shape{2}, Float64, CPU)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for dtype mismatch")
		}
	}()
	raw.AsFloat32()
}

func TestSparseDenseRoundTrip(t *testing.T) {
	s, err := NewSparse(2, 3, []int{0, 1, 1}, []int{0, 1, 2}, []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("NewSparse: %v", err)
	}

	if rows, cols := s.Dims(); rows != 2 || cols != 3 {
		t.Errorf("dims = %dx%d, want 2x3", rows, cols)
	}
	if s.NNZ() != 3 {
		t.Errorf("nnz = %d, want 3", s.NNZ())
	}

	dense := s.Dense()
	want := []float64{1, 0, 0, 0, 2, 3}
	for i, w := range want {
		if got := dense.AsFloat64()[i]; got != w {
			t.Errorf("dense[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestNewSparseValidation(t *testing.T) {
	if _, err := NewSparse(0, 3, nil, nil, nil); err == nil {
		t.Error("expected error for zero rows")
	}
	if _, err := NewSparse(2, 2, []int{0}, []int{0, 1}, []float64{1, 2}); err == nil {
		t.Error("expected error for mismatched index lengths")
	}
	if _, err := NewSparse(2, 2, []int{5}, []int{0}, []float64{1}); err == nil {
		t.Error("expected error for out-of-range row index")
	}
}
