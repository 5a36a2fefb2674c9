// Package serialization implements the .roto checkpoint format: a
// fixed preamble, a JSON header describing the stored tensors, and an
// aligned data section holding their raw bytes, protected by a SHA-256
// checksum.
package serialization

import (
	"time"

	"github.com/roto-ml/roto/internal/tensor"
)

// Format constants.
const (
	MagicBytes    = "ROTO"
	FormatVersion = 1
	DataAlignment = 64 // tensor data starts on a 64-byte boundary

	// preambleSize is magic + version + flags + header length.
	preambleSize = 4 + 4 + 4 + 8

	// maxHeaderSize bounds the JSON header a reader will accept.
	maxHeaderSize = 16 * 1024 * 1024
)

// Data type names used in headers.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
)

// Header is the JSON header of a .roto file.
type Header struct {
	FormatVersion  int               `json:"format_version"`
	LibraryVersion string            `json:"library_version"`
	ModelType      string            `json:"model_type"`
	CreatedAt      time.Time         `json:"created_at"`
	Checksum       string            `json:"checksum"` // hex SHA-256 of the data section
	Tensors        []TensorMeta      `json:"tensors"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// TensorMeta describes one stored tensor.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`
}

func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	default:
		return "unknown"
	}
}

func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	default:
		return 0, false
	}
}
