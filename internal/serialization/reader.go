package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/roto-ml/roto/internal/tensor"
)

// Reader reads .roto checkpoint files. The header is parsed and the
// data-section checksum verified at open time.
type Reader struct {
	file       *os.File
	header     Header
	dataOffset int64
	closed     bool
}

// NewReader opens a checkpoint file.
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	r := &Reader{file: file}
	if err := r.parseHeader(); err != nil {
		_ = file.Close()
		return nil, err
	}
	if err := r.verifyChecksum(); err != nil {
		_ = file.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) parseHeader() error {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r.file, magic); err != nil {
		return fmt.Errorf("read magic: %w", err)
	}
	if string(magic) != MagicBytes {
		return ErrInvalidMagic
	}

	var version, flags uint32
	if err := binary.Read(r.file, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	if version != FormatVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, version, FormatVersion)
	}
	if err := binary.Read(r.file, binary.LittleEndian, &flags); err != nil {
		return fmt.Errorf("read flags: %w", err)
	}

	var headerSize uint64
	if err := binary.Read(r.file, binary.LittleEndian, &headerSize); err != nil {
		return fmt.Errorf("read header size: %w", err)
	}
	if headerSize > maxHeaderSize {
		return ErrHeaderTooLarge
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r.file, headerJSON); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(headerJSON, &r.header); err != nil {
		return fmt.Errorf("parse header: %w", err)
	}

	pos := int64(preambleSize) + int64(headerSize)
	r.dataOffset = pos + (DataAlignment-pos%DataAlignment)%DataAlignment
	return nil
}

func (r *Reader) verifyChecksum() error {
	if _, err := r.file.Seek(r.dataOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seek data section: %w", err)
	}
	digest := sha256.New()
	if _, err := io.Copy(digest, r.file); err != nil {
		return fmt.Errorf("hash data section: %w", err)
	}
	if hex.EncodeToString(digest.Sum(nil)) != r.header.Checksum {
		return ErrChecksumMismatch
	}
	return nil
}

// Header returns the parsed file header.
func (r *Reader) Header() Header {
	return r.header
}

// TensorNames lists the stored tensors in file order.
func (r *Reader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i, meta := range r.header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// LoadTensor reads one tensor by name.
func (r *Reader) LoadTensor(name string) (*tensor.RawTensor, error) {
	if r.closed {
		return nil, ErrReaderClosed
	}
	for _, meta := range r.header.Tensors {
		if meta.Name != name {
			continue
		}
		dtype, ok := stringToDtype(meta.DType)
		if !ok {
			return nil, fmt.Errorf("tensor %s: unsupported dtype %q", name, meta.DType)
		}
		raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), dtype, tensor.CPU)
		if err != nil {
			return nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		if int64(len(raw.Bytes())) != meta.Size {
			return nil, fmt.Errorf("tensor %s: size %d does not match shape %v", name, meta.Size, meta.Shape)
		}
		if _, err := r.file.Seek(r.dataOffset+meta.Offset, io.SeekStart); err != nil {
			return nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		if _, err := io.ReadFull(r.file, raw.Bytes()); err != nil {
			return nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
}

// ReadStateDict reads every stored tensor.
func (r *Reader) ReadStateDict() (map[string]*tensor.RawTensor, error) {
	if r.closed {
		return nil, ErrReaderClosed
	}
	state := make(map[string]*tensor.RawTensor, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		raw, err := r.LoadTensor(meta.Name)
		if err != nil {
			return nil, err
		}
		state[meta.Name] = raw
	}
	return state, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}
