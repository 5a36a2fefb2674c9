package nn

import (
	"testing"

	"github.com/roto-ml/roto/internal/autodiff"
	"github.com/roto-ml/roto/internal/backend/cpu"
	"github.com/roto-ml/roto/internal/rotation"
	"github.com/roto-ml/roto/internal/tensor"
)

func testHourglassConfig() HourglassConfig {
	return HourglassConfig{
		InputDepth:      2,
		OutputDepth:     1,
		NumScales:       3,
		NumChannelsDown: []int{4},
		NumChannelsUp:   []int{4},
		NumChannelsSkip: []int{2},
		FilterSizeDown:  3,
		FilterSizeUp:    3,
		FilterSizeSkip:  1,
		UpsampleMode:    tensor.UpsampleBilinear,
		Need1x1Up:       true,
		NeedSigmoid:     true,
		Orientations:    4,
		RotoScale:       1,
		RotoKernelSize:  3,
		Periodicity:     rotation.FullTurn,
		DiskMask:        false,
	}
}

func TestHourglassForwardShape(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model, err := NewHourglass(testHourglassConfig(), backend)
	if err != nil {
		t.Fatalf("NewHourglass: %v", err)
	}

	input := Ones(tensor.Shape{1, 2, 16, 16}, backend)
	output := model.Forward(input)

	want := tensor.Shape{1, 1, 16, 16}
	if !output.Shape().Equal(want) {
		t.Fatalf("output shape = %v, want %v", output.Shape(), want)
	}

	// The sigmoid head keeps every value in (0, 1).
	for i, v := range output.Data() {
		if v <= 0 || v >= 1 {
			t.Fatalf("output %d = %v, outside (0, 1)", i, v)
		}
	}
}

func TestHourglassWithoutSkips(t *testing.T) {
	backend := autodiff.New(cpu.New())
	config := testHourglassConfig()
	config.NumChannelsSkip = []int{0}
	config.NeedSigmoid = false

	model, err := NewHourglass(config, backend)
	if err != nil {
		t.Fatalf("NewHourglass: %v", err)
	}

	output := model.Forward(Ones(tensor.Shape{1, 2, 16, 16}, backend))
	if !output.Shape().Equal(tensor.Shape{1, 1, 16, 16}) {
		t.Errorf("output shape = %v, want [1, 1, 16, 16]", output.Shape())
	}
}

func TestHourglassConfigBroadcast(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model, err := NewHourglass(testHourglassConfig(), backend)
	if err != nil {
		t.Fatalf("NewHourglass: %v", err)
	}

	config := model.Config()
	if len(config.NumChannelsDown) != 3 || len(config.NumChannelsUp) != 3 || len(config.NumChannelsSkip) != 3 {
		t.Errorf("channel lists not broadcast to every scale: %v %v %v",
			config.NumChannelsDown, config.NumChannelsUp, config.NumChannelsSkip)
	}
	for i, w := range config.NumChannelsSkip {
		if w != 2 {
			t.Errorf("skip width at scale %d = %d, want 2", i, w)
		}
	}
}

func TestHourglassConfigErrors(t *testing.T) {
	backend := autodiff.New(cpu.New())

	config := testHourglassConfig()
	config.NumChannelsDown = []int{4, 8}
	if _, err := NewHourglass(config, backend); err == nil {
		t.Error("expected error for channel list length mismatch")
	}

	config = testHourglassConfig()
	config.RotoScale = 3
	if _, err := NewHourglass(config, backend); err == nil {
		t.Error("expected error for equivariant scale out of range")
	}

	config = testHourglassConfig()
	config.NumScales = 0
	if _, err := NewHourglass(config, backend); err == nil {
		t.Error("expected error for zero scales")
	}

	config = testHourglassConfig()
	config.Orientations = 0
	if _, err := NewHourglass(config, backend); err == nil {
		t.Error("expected error for zero orientations")
	}
}

func TestHourglassInputChannelMismatchPanics(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model, err := NewHourglass(testHourglassConfig(), backend)
	if err != nil {
		t.Fatalf("NewHourglass: %v", err)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for wrong input depth")
		}
		if _, ok := r.(*ShapeMismatchError); !ok {
			t.Fatalf("panic value = %T, want *ShapeMismatchError", r)
		}
	}()
	model.Forward(Ones(tensor.Shape{1, 3, 16, 16}, backend))
}

func TestHourglassParameters(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model, err := NewHourglass(testHourglassConfig(), backend)
	if err != nil {
		t.Fatalf("NewHourglass: %v", err)
	}

	params := model.Parameters()
	if len(params) == 0 {
		t.Fatal("no parameters collected")
	}
	seen := make(map[*Parameter[*autodiff.Backend[*cpu.Backend]]]bool)
	for _, p := range params {
		if seen[p] {
			t.Fatalf("parameter %q collected twice", p.Name())
		}
		seen[p] = true
	}
}

func TestHourglassStateDictRoundTrip(t *testing.T) {
	backend := autodiff.New(cpu.New())

	model, err := NewHourglass(testHourglassConfig(), backend)
	if err != nil {
		t.Fatalf("NewHourglass: %v", err)
	}
	other, err := NewHourglass(testHourglassConfig(), backend)
	if err != nil {
		t.Fatalf("NewHourglass: %v", err)
	}

	if err := other.LoadStateDict(model.StateDict()); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}

	model.SetTraining(false)
	other.SetTraining(false)

	input := Zeros(tensor.Shape{1, 2, 16, 16}, backend)
	for i := range input.Data() {
		input.Data()[i] = float32(i%17) / 17
	}
	a, b := model.Forward(input).Data(), other.Forward(input).Data()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("restored model diverges at %d: %v vs %v", i, a[i], b[i])
		}
	}
}
