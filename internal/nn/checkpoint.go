package nn

import (
	"fmt"

	"github.com/roto-ml/roto/internal/serialization"
	"github.com/roto-ml/roto/internal/tensor"
)

// SaveCheckpoint writes a module's full state, parameters and
// persistent buffers, to a .roto file at path.
func SaveCheckpoint[B tensor.Backend](module StateModule[B], path, modelType string, metadata map[string]string) error {
	state := module.StateDict()
	raw := make(map[string]*tensor.RawTensor, len(state))
	for name, t := range state {
		raw[name] = t.Raw()
	}

	writer, err := serialization.NewWriter(path)
	if err != nil {
		return err
	}
	if err := writer.WriteStateDict(raw, modelType, metadata); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

// LoadCheckpoint restores a module's state from a .roto file. The
// module must already have the architecture the checkpoint was saved
// from; shapes are verified by the module's LoadStateDict.
func LoadCheckpoint[B tensor.Backend](module StateModule[B], path string, backend B) error {
	reader, err := serialization.NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	rawState, err := reader.ReadStateDict()
	if err != nil {
		return err
	}

	state := make(map[string]*tensor.Tensor[float32, B], len(rawState))
	for name, raw := range rawState {
		if raw.DType() != tensor.Float32 {
			return fmt.Errorf("checkpoint tensor %s: unexpected dtype %s", name, raw.DType())
		}
		state[name] = tensor.New[float32](raw, backend)
	}
	return module.LoadStateDict(state)
}
