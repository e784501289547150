package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sightline-ml/sightline/internal/tensor"
)

// maxHeaderSize bounds the JSON header to guard against corrupt files.
const maxHeaderSize = 64 << 20

// ReadFrom reads a state dictionary from an io.Reader in .sght format.
//
// Returns the tensors keyed by name and the parsed header.
func ReadFrom(reader io.Reader) (map[string]*tensor.RawTensor, *Header, error) {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(reader, magic); err != nil {
		return nil, nil, fmt.Errorf("failed to read magic bytes: %w", err)
	}
	if string(magic) != MagicBytes {
		return nil, nil, fmt.Errorf("invalid magic bytes %q: not a .sght file", magic)
	}

	var version uint32
	if err := binary.Read(reader, binary.LittleEndian, &version); err != nil {
		return nil, nil, fmt.Errorf("failed to read version: %w", err)
	}
	if version != FormatVersion {
		return nil, nil, fmt.Errorf("unsupported format version %d", version)
	}

	var flags uint32
	if err := binary.Read(reader, binary.LittleEndian, &flags); err != nil {
		return nil, nil, fmt.Errorf("failed to read flags: %w", err)
	}

	var headerSize uint64
	if err := binary.Read(reader, binary.LittleEndian, &headerSize); err != nil {
		return nil, nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > maxHeaderSize {
		return nil, nil, fmt.Errorf("header size %d exceeds limit", headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(reader, headerJSON); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, nil, fmt.Errorf("failed to parse header: %w", err)
	}

	// Skip padding up to the alignment boundary.
	currentPos := int64(4+4+4+8) + int64(headerSize)
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	if padding > 0 {
		if _, err := io.CopyN(io.Discard, reader, padding); err != nil {
			return nil, nil, fmt.Errorf("failed to skip padding: %w", err)
		}
	}

	stateDict := make(map[string]*tensor.RawTensor, len(header.Tensors))
	var dataPos int64
	for _, meta := range header.Tensors {
		dtype, ok := stringToDtype(meta.DType)
		if !ok {
			return nil, nil, fmt.Errorf("tensor %s: unsupported dtype %q", meta.Name, meta.DType)
		}

		if meta.Offset != dataPos {
			return nil, nil, fmt.Errorf("tensor %s: offset %d does not match position %d (tensors must be contiguous)",
				meta.Name, meta.Offset, dataPos)
		}

		raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), dtype, tensor.CPU)
		if err != nil {
			return nil, nil, fmt.Errorf("tensor %s: %w", meta.Name, err)
		}

		if int64(raw.ByteSize()) != meta.Size {
			return nil, nil, fmt.Errorf("tensor %s: size %d does not match shape %v", meta.Name, meta.Size, meta.Shape)
		}

		if _, err := io.ReadFull(reader, raw.Data()); err != nil {
			return nil, nil, fmt.Errorf("tensor %s: failed to read data: %w", meta.Name, err)
		}

		stateDict[meta.Name] = raw
		dataPos += meta.Size
	}

	return stateDict, &header, nil
}

// LoadFile reads a state dictionary from a .sght file.
func LoadFile(path string) (map[string]*tensor.RawTensor, *Header, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadFrom(file)
}
