package cpu_test

import (
	"math"
	"testing"

	"github.com/roto-ml/roto/internal/backend/cpu"
	"github.com/roto-ml/roto/internal/tensor"
)

func almostEqual(a, b []float32, eps float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		diff := a[i] - b[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > eps {
			return false
		}
	}
	return true
}

func TestAddSameShape(t *testing.T) {
	backend := cpu.New()
	a := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	b := tensor.FromSlice([]float32{10, 20, 30, 40}, tensor.Shape{2, 2}, backend)

	got := a.Add(b).Data()
	want := []float32{11, 22, 33, 44}
	if !almostEqual(got, want, 0) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestAddBroadcast(t *testing.T) {
	backend := cpu.New()
	a := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	bias := tensor.FromSlice([]float32{10, 20, 30}, tensor.Shape{3}, backend)

	got := a.Add(bias).Data()
	want := []float32{11, 22, 33, 14, 25, 36}
	if !almostEqual(got, want, 0) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBroadcastAgainstSizeOneAxis(t *testing.T) {
	backend := cpu.New()
	a := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	col := tensor.FromSlice([]float32{10, 100}, tensor.Shape{2, 1}, backend)

	got := a.Mul(col).Data()
	want := []float32{10, 20, 300, 400}
	if !almostEqual(got, want, 0) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSubDivScalars(t *testing.T) {
	backend := cpu.New()
	a := tensor.FromSlice([]float32{2, 4, 8}, tensor.Shape{3}, backend)
	b := tensor.FromSlice([]float32{1, 2, 2}, tensor.Shape{3}, backend)

	if got, want := a.Sub(b).Data(), []float32{1, 2, 6}; !almostEqual(got, want, 0) {
		t.Errorf("Sub: got %v, want %v", got, want)
	}
	if got, want := a.Div(b).Data(), []float32{2, 2, 4}; !almostEqual(got, want, 0) {
		t.Errorf("Div: got %v, want %v", got, want)
	}
	if got, want := a.AddScalar(1).Data(), []float32{3, 5, 9}; !almostEqual(got, want, 0) {
		t.Errorf("AddScalar: got %v, want %v", got, want)
	}
	if got, want := a.MulScalar(0.5).Data(), []float32{1, 2, 4}; !almostEqual(got, want, 0) {
		t.Errorf("MulScalar: got %v, want %v", got, want)
	}
}

func TestLeakyReLU(t *testing.T) {
	backend := cpu.New()
	x := tensor.FromSlice([]float32{-2, -0.5, 0, 1, 3}, tensor.Shape{5}, backend)

	got := x.LeakyReLU(0.2).Data()
	want := []float32{-0.4, -0.1, 0, 1, 3}
	if !almostEqual(got, want, 1e-6) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSigmoid(t *testing.T) {
	backend := cpu.New()
	x := tensor.FromSlice([]float32{0, 2, -2}, tensor.Shape{3}, backend)

	got := x.Sigmoid().Data()
	want := []float32{
		0.5,
		float32(1 / (1 + math.Exp(-2))),
		float32(1 / (1 + math.Exp(2))),
	}
	if !almostEqual(got, want, 1e-6) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRsqrt(t *testing.T) {
	backend := cpu.New()
	x := tensor.FromSlice([]float32{1, 4, 16}, tensor.Shape{3}, backend)

	got := x.Rsqrt().Data()
	want := []float32{1, 0.5, 0.25}
	if !almostEqual(got, want, 1e-6) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMatMul(t *testing.T) {
	backend := cpu.New()
	a := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	b := tensor.FromSlice([]float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2}, backend)

	got := a.MatMul(b)
	if !got.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("shape = %v, want [2, 2]", got.Shape())
	}
	want := []float32{58, 64, 139, 154}
	if !almostEqual(got.Data(), want, 1e-5) {
		t.Errorf("got %v, want %v", got.Data(), want)
	}
}

func TestMatMulFloat64(t *testing.T) {
	backend := cpu.New()
	a := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	b := tensor.FromSlice([]float64{5, 6, 7, 8}, tensor.Shape{2, 2}, backend)

	got := a.MatMul(b).Data()
	want := []float64{19, 22, 43, 50}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}
