package nn

import (
	"math"
	"testing"

	"github.com/roto-ml/roto/internal/autodiff"
	"github.com/roto-ml/roto/internal/backend/cpu"
	"github.com/roto-ml/roto/internal/tensor"
)

func TestBatchNormTrainingNormalizes(t *testing.T) {
	backend := autodiff.New(cpu.New())
	bn := NewBatchNorm2D(1, backend)

	input := Zeros(tensor.Shape{1, 1, 2, 2}, backend)
	copy(input.Data(), []float32{1, 2, 3, 4})

	output := bn.Forward(input)

	// mean = 2.5, var = 1.25, so the channel normalizes to
	// (x - 2.5)/sqrt(1.25) with gamma 1 and beta 0.
	want := []float32{-1.3416, -0.4472, 0.4472, 1.3416}
	for i, w := range want {
		if got := output.Data()[i]; math.Abs(float64(got-w)) > 0.001 {
			t.Errorf("element %d: got %v, want %v", i, got, w)
		}
	}
}

func TestBatchNormPerChannelStatistics(t *testing.T) {
	backend := autodiff.New(cpu.New())
	bn := NewBatchNorm2D(2, backend)

	// Channel 0 and channel 1 carry different scales; each must be
	// normalized independently.
	input := Zeros(tensor.Shape{1, 2, 1, 2}, backend)
	copy(input.Data(), []float32{1, 3, 100, 300})

	output := bn.Forward(input)

	// Both channels normalize to [-1, 1].
	want := []float32{-1, 1, -1, 1}
	for i, w := range want {
		if got := output.Data()[i]; math.Abs(float64(got-w)) > 0.001 {
			t.Errorf("element %d: got %v, want %v", i, got, w)
		}
	}
}

func TestBatchNormRunningStatistics(t *testing.T) {
	backend := autodiff.New(cpu.New())
	bn := NewBatchNorm2D(1, backend)

	input := Zeros(tensor.Shape{1, 1, 2, 2}, backend)
	copy(input.Data(), []float32{1, 2, 3, 4})
	bn.Forward(input)

	// running_mean = 0.9*0 + 0.1*2.5, running_var folds in the
	// debiased batch variance 1.25 * 4/3.
	state := bn.StateDict()
	if got := state["running_mean"].Data()[0]; math.Abs(float64(got-0.25)) > 1e-5 {
		t.Errorf("running mean = %v, want 0.25", got)
	}
	wantVar := 0.9 + 0.1*1.25*4.0/3.0
	if got := state["running_var"].Data()[0]; math.Abs(float64(got)-wantVar) > 1e-5 {
		t.Errorf("running var = %v, want %v", got, wantVar)
	}
}

func TestBatchNormEvalUsesRunningEstimates(t *testing.T) {
	backend := autodiff.New(cpu.New())
	bn := NewBatchNorm2D(1, backend)
	bn.SetTraining(false)

	// Fresh running estimates are mean 0, variance 1, so evaluation
	// mode is (near) identity regardless of batch statistics.
	input := Zeros(tensor.Shape{1, 1, 2, 2}, backend)
	copy(input.Data(), []float32{10, 20, 30, 40})

	output := bn.Forward(input)
	for i, v := range input.Data() {
		if got := output.Data()[i]; math.Abs(float64(got-v)) > 0.01 {
			t.Errorf("element %d: got %v, want %v", i, got, v)
		}
	}
}

func TestBatchNormStateRoundTrip(t *testing.T) {
	backend := autodiff.New(cpu.New())
	bn := NewBatchNorm2D(2, backend)

	input := Zeros(tensor.Shape{1, 2, 2, 2}, backend)
	for i := range input.Data() {
		input.Data()[i] = float32(i)
	}
	bn.Forward(input)

	other := NewBatchNorm2D(2, backend)
	if err := other.LoadStateDict(bn.StateDict()); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}

	bn.SetTraining(false)
	other.SetTraining(false)
	a, b := bn.Forward(input).Data(), other.Forward(input).Data()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("restored layer diverges at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestBatchNormChannelMismatchPanics(t *testing.T) {
	backend := autodiff.New(cpu.New())
	bn := NewBatchNorm2D(3, backend)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for wrong channel count")
		}
		if _, ok := r.(*ShapeMismatchError); !ok {
			t.Fatalf("panic value = %T, want *ShapeMismatchError", r)
		}
	}()
	bn.Forward(Ones(tensor.Shape{1, 2, 2, 2}, backend))
}
