package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/roto-ml/roto/internal/tensor"
)

const libraryVersion = "0.1.0"

// Writer writes .roto checkpoint files.
type Writer struct {
	file   *os.File
	closed bool
}

// NewWriter creates a checkpoint file, truncating any existing file at
// the path.
func NewWriter(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create checkpoint: %w", err)
	}
	return &Writer{file: file}, nil
}

// WriteStateDict writes a state dictionary. Tensors are laid out in
// sorted name order so identical state always produces an identical
// file.
func (w *Writer) WriteStateDict(state map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	if w.closed {
		return ErrWriterClosed
	}

	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)

	header := Header{
		FormatVersion:  FormatVersion,
		LibraryVersion: libraryVersion,
		ModelType:      modelType,
		CreatedAt:      time.Now().UTC(),
		Tensors:        make([]TensorMeta, 0, len(state)),
		Metadata:       metadata,
	}

	digest := sha256.New()
	var offset int64
	for _, name := range names {
		raw := state[name]
		size := int64(len(raw.Bytes()))
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  []int(raw.Shape()),
			Offset: offset,
			Size:   size,
		})
		digest.Write(raw.Bytes())
		offset += size
	}
	header.Checksum = hex.EncodeToString(digest.Sum(nil))

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}

	if _, err := w.file.WriteString(MagicBytes); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := binary.Write(w.file, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	if err := binary.Write(w.file, binary.LittleEndian, uint32(0)); err != nil {
		return fmt.Errorf("write flags: %w", err)
	}
	if err := binary.Write(w.file, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("write header size: %w", err)
	}
	if _, err := w.file.Write(headerJSON); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	pos := int64(preambleSize) + int64(len(headerJSON))
	if padding := (DataAlignment - pos%DataAlignment) % DataAlignment; padding > 0 {
		if _, err := w.file.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("write padding: %w", err)
		}
	}

	for _, name := range names {
		if _, err := w.file.Write(state[name].Bytes()); err != nil {
			return fmt.Errorf("write tensor %s: %w", name, err)
		}
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}
