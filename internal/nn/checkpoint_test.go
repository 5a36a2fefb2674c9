package nn

import (
	"path/filepath"
	"testing"

	"github.com/roto-ml/roto/internal/autodiff"
	"github.com/roto-ml/roto/internal/backend/cpu"
	"github.com/roto-ml/roto/internal/tensor"
)

func TestCheckpointRoundTrip(t *testing.T) {
	backend := autodiff.New(cpu.New())
	path := filepath.Join(t.TempDir(), "model.roto")

	model, err := NewHourglass(testHourglassConfig(), backend)
	if err != nil {
		t.Fatalf("NewHourglass: %v", err)
	}
	if err := SaveCheckpoint[*autodiff.Backend[*cpu.Backend]](model, path, "hourglass", map[string]string{
		"experiment": "roundtrip",
	}); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	restored, err := NewHourglass(testHourglassConfig(), backend)
	if err != nil {
		t.Fatalf("NewHourglass: %v", err)
	}
	if err := LoadCheckpoint(restored, path, backend); err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}

	model.SetTraining(false)
	restored.SetTraining(false)

	input := Zeros(tensor.Shape{1, 2, 16, 16}, backend)
	for i := range input.Data() {
		input.Data()[i] = float32(i%13) / 13
	}
	a, b := model.Forward(input).Data(), restored.Forward(input).Data()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("restored model diverges at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestCheckpointSmallModule(t *testing.T) {
	backend := autodiff.New(cpu.New())
	path := filepath.Join(t.TempDir(), "block.roto")

	block := NewConvBlock(2, 4, 3, backend)
	if err := SaveCheckpoint[*autodiff.Backend[*cpu.Backend]](block, path, "convblock", nil); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	restored := NewConvBlock(2, 4, 3, backend)
	if err := LoadCheckpoint(restored, path, backend); err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}

	a := block.StateDict()
	b := restored.StateDict()
	if len(a) != len(b) {
		t.Fatalf("state dict size mismatch: %d vs %d", len(a), len(b))
	}
	for name, ta := range a {
		tb, ok := b[name]
		if !ok {
			t.Fatalf("restored state missing %q", name)
		}
		for i := range ta.Data() {
			if ta.Data()[i] != tb.Data()[i] {
				t.Fatalf("%s differs at %d", name, i)
			}
		}
	}
}

func TestLoadCheckpointMissingFile(t *testing.T) {
	backend := autodiff.New(cpu.New())
	block := NewConvBlock(2, 4, 3, backend)

	path := filepath.Join(t.TempDir(), "missing.roto")
	if err := LoadCheckpoint(block, path, backend); err == nil {
		t.Error("expected error for missing checkpoint file")
	}
}

func TestLoadCheckpointShapeMismatch(t *testing.T) {
	backend := autodiff.New(cpu.New())
	path := filepath.Join(t.TempDir(), "block.roto")

	block := NewConvBlock(2, 4, 3, backend)
	if err := SaveCheckpoint[*autodiff.Backend[*cpu.Backend]](block, path, "convblock", nil); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	// A block with different widths must reject the stored weights.
	other := NewConvBlock(2, 8, 3, backend)
	if err := LoadCheckpoint(other, path, backend); err == nil {
		t.Error("expected error when checkpoint shapes do not match the module")
	}
}
