package nn

import (
	"math"
	"testing"

	"github.com/roto-ml/roto/internal/autodiff"
	"github.com/roto-ml/roto/internal/backend/cpu"
	"github.com/roto-ml/roto/internal/rotation"
	"github.com/roto-ml/roto/internal/tensor"
)

func checkFinite(t *testing.T, name string, data []float32) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("%s: non-finite value %v at index %d", name, v, i)
		}
	}
}

func TestConvBlockShape(t *testing.T) {
	backend := autodiff.New(cpu.New())
	block := NewConvBlock(3, 8, 3, backend)

	output := block.Forward(Ones(tensor.Shape{2, 3, 8, 8}, backend))
	want := tensor.Shape{2, 8, 8, 8}
	if !output.Shape().Equal(want) {
		t.Errorf("output shape = %v, want %v", output.Shape(), want)
	}
}

func TestEncoderBlockStrideDownsamples(t *testing.T) {
	backend := autodiff.New(cpu.New())
	block := NewEncoderBlock(4, 8, 3, false, backend)

	output := block.Forward(Ones(tensor.Shape{1, 4, 16, 16}, backend))
	want := tensor.Shape{1, 8, 8, 8}
	if !output.Shape().Equal(want) {
		t.Errorf("output shape = %v, want %v", output.Shape(), want)
	}
}

func TestEncoderBlockPoolingDownsamples(t *testing.T) {
	backend := autodiff.New(cpu.New())
	block := NewEncoderBlock(4, 8, 3, true, backend)

	output := block.Forward(Ones(tensor.Shape{1, 4, 16, 16}, backend))
	want := tensor.Shape{1, 8, 8, 8}
	if !output.Shape().Equal(want) {
		t.Errorf("output shape = %v, want %v", output.Shape(), want)
	}
}

func TestDecoderBlockUpsamples(t *testing.T) {
	backend := autodiff.New(cpu.New())
	block := NewDecoderBlock(8, 4, 3, tensor.UpsampleBilinear, true, backend)

	output := block.Forward(Ones(tensor.Shape{1, 8, 4, 4}, backend), nil)
	want := tensor.Shape{1, 4, 8, 8}
	if !output.Shape().Equal(want) {
		t.Errorf("output shape = %v, want %v", output.Shape(), want)
	}
}

func TestDecoderBlockWithSkip(t *testing.T) {
	backend := autodiff.New(cpu.New())
	// 8 input channels = 6 from below + 2 skip.
	block := NewDecoderBlock(8, 4, 3, tensor.UpsampleNearest, false, backend)

	input := Ones(tensor.Shape{1, 6, 4, 4}, backend)
	skip := Ones(tensor.Shape{1, 2, 4, 4}, backend)
	output := block.Forward(input, skip)
	want := tensor.Shape{1, 4, 8, 8}
	if !output.Shape().Equal(want) {
		t.Errorf("output shape = %v, want %v", output.Shape(), want)
	}
}

func TestDecoderBlockChannelMismatchPanics(t *testing.T) {
	backend := autodiff.New(cpu.New())
	block := NewDecoderBlock(8, 4, 3, tensor.UpsampleNearest, false, backend)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic when skip width is missing from input channels")
		}
		if _, ok := r.(*ShapeMismatchError); !ok {
			t.Fatalf("panic value = %T, want *ShapeMismatchError", r)
		}
	}()
	block.Forward(Ones(tensor.Shape{1, 6, 4, 4}, backend), nil)
}

func TestRotoEncoderBlockShape(t *testing.T) {
	backend := autodiff.New(cpu.New())
	block, err := NewRotoEncoderBlock(2, 4, 3, 4, rotation.FullTurn, true, backend)
	if err != nil {
		t.Fatalf("NewRotoEncoderBlock: %v", err)
	}

	output := block.Forward(Ones(tensor.Shape{1, 2, 16, 16}, backend))
	want := tensor.Shape{1, 4, 8, 8}
	if !output.Shape().Equal(want) {
		t.Errorf("output shape = %v, want %v", output.Shape(), want)
	}
	checkFinite(t, "roto encoder output", output.Data())
}

// Zero input exercises the variance floor in the normalization layers:
// the block must produce finite values, not divide by zero.
func TestRotoEncoderBlockZeroInput(t *testing.T) {
	backend := autodiff.New(cpu.New())
	block, err := NewRotoEncoderBlock(1, 3, 3, 4, rotation.FullTurn, false, backend)
	if err != nil {
		t.Fatalf("NewRotoEncoderBlock: %v", err)
	}

	output := block.Forward(Zeros(tensor.Shape{1, 1, 8, 8}, backend))
	checkFinite(t, "roto encoder zero input", output.Data())
}

func TestRotoDecoderBlockShape(t *testing.T) {
	backend := autodiff.New(cpu.New())
	block, err := NewRotoDecoderBlock(4, 2, 3, 4, tensor.UpsampleBilinear, rotation.FullTurn, true, backend)
	if err != nil {
		t.Fatalf("NewRotoDecoderBlock: %v", err)
	}

	output := block.Forward(Ones(tensor.Shape{1, 4, 4, 4}, backend), nil)
	want := tensor.Shape{1, 2, 8, 8}
	if !output.Shape().Equal(want) {
		t.Errorf("output shape = %v, want %v", output.Shape(), want)
	}
	checkFinite(t, "roto decoder output", output.Data())
}

func TestRotoDecoderBlockWithSkip(t *testing.T) {
	backend := autodiff.New(cpu.New())
	// 6 input channels = 4 from below + 2 skip.
	block, err := NewRotoDecoderBlock(6, 2, 3, 4, tensor.UpsampleNearest, rotation.FullTurn, false, backend)
	if err != nil {
		t.Fatalf("NewRotoDecoderBlock: %v", err)
	}

	input := Ones(tensor.Shape{1, 4, 4, 4}, backend)
	skip := Ones(tensor.Shape{1, 2, 4, 4}, backend)
	output := block.Forward(input, skip)
	want := tensor.Shape{1, 2, 8, 8}
	if !output.Shape().Equal(want) {
		t.Errorf("output shape = %v, want %v", output.Shape(), want)
	}
}

func TestBlockStateDictRoundTrip(t *testing.T) {
	backend := autodiff.New(cpu.New())
	block, err := NewRotoEncoderBlock(1, 2, 3, 4, rotation.FullTurn, false, backend)
	if err != nil {
		t.Fatalf("NewRotoEncoderBlock: %v", err)
	}
	other, err := NewRotoEncoderBlock(1, 2, 3, 4, rotation.FullTurn, false, backend)
	if err != nil {
		t.Fatalf("NewRotoEncoderBlock: %v", err)
	}

	if err := other.LoadStateDict(block.StateDict()); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}

	block.SetTraining(false)
	other.SetTraining(false)
	input := Ones(tensor.Shape{1, 1, 8, 8}, backend)
	a, b := block.Forward(input).Data(), other.Forward(input).Data()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("restored block diverges at %d: %v vs %v", i, a[i], b[i])
		}
	}
}
