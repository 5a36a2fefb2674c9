package nn

import (
	"math"
	"testing"

	"github.com/roto-ml/roto/internal/autodiff"
	"github.com/roto-ml/roto/internal/backend/cpu"
	"github.com/roto-ml/roto/internal/tensor"
)

func TestMSELoss(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loss := NewMSELoss[*autodiff.Backend[*cpu.Backend]]()

	pred := Zeros(tensor.Shape{4}, backend)
	copy(pred.Data(), []float32{1, 2, 3, 4})
	target := Zeros(tensor.Shape{4}, backend)
	copy(target.Data(), []float32{1, 2, 3, 6})

	// Only the last element differs: (4-6)² / 4 = 1.
	got := loss.Forward(pred, target)
	if !got.Shape().Equal(tensor.Shape{1}) {
		t.Fatalf("loss shape = %v, want [1]", got.Shape())
	}
	if v := got.Data()[0]; math.Abs(float64(v-1)) > 1e-6 {
		t.Errorf("loss = %v, want 1", v)
	}
}

func TestMSELossZeroAtTarget(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loss := NewMSELoss[*autodiff.Backend[*cpu.Backend]]()

	pred := Ones(tensor.Shape{2, 3}, backend)
	if v := loss.Forward(pred, pred).Data()[0]; v != 0 {
		t.Errorf("loss at target = %v, want 0", v)
	}
}

func TestMSELossGradient(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loss := NewMSELoss[*autodiff.Backend[*cpu.Backend]]()

	pred := Zeros(tensor.Shape{2}, backend)
	copy(pred.Data(), []float32{3, 1})
	target := Zeros(tensor.Shape{2}, backend)
	copy(target.Data(), []float32{1, 1})

	out := loss.Forward(pred, target)
	grads := backend.Backward(out.Raw())

	// d/dp mean((p-t)²) = 2(p-t)/n.
	g := grads.Get(pred.Raw())
	if g == nil {
		t.Fatal("no gradient for prediction")
	}
	want := []float32{2, 0}
	for i, w := range want {
		if got := g.AsFloat32()[i]; math.Abs(float64(got-w)) > 1e-6 {
			t.Errorf("grad %d = %v, want %v", i, got, w)
		}
	}
}

func TestL1Loss(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loss := NewL1Loss[*autodiff.Backend[*cpu.Backend]]()

	pred := Zeros(tensor.Shape{4}, backend)
	copy(pred.Data(), []float32{1, -2, 3, 0})
	target := Zeros(tensor.Shape{4}, backend)
	copy(target.Data(), []float32{0, 2, 3, -4})

	// |diff| = [1, 4, 0, 4], mean = 2.25.
	if v := loss.Forward(pred, target).Data()[0]; math.Abs(float64(v-2.25)) > 1e-6 {
		t.Errorf("loss = %v, want 2.25", v)
	}
}

func TestLossShapeMismatchPanics(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loss := NewMSELoss[*autodiff.Backend[*cpu.Backend]]()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for mismatched shapes")
		}
	}()
	loss.Forward(Ones(tensor.Shape{2}, backend), Ones(tensor.Shape{3}, backend))
}
