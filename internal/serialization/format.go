// Package serialization implements the .sght checkpoint format.
//
// A .sght file holds a model's state dictionary: a JSON header describing
// each tensor (name, dtype, shape, offset) followed by 64-byte-aligned raw
// tensor data in little-endian layout.
//
// File layout:
//
//	0x00  magic "SGHT" (4 bytes)
//	0x04  format version (uint32 LE)
//	0x08  flags (uint32 LE)
//	0x0C  header size (uint64 LE)
//	0x14  JSON header
//	....  zero padding to a 64-byte boundary
//	....  tensor data
package serialization

import (
	"time"

	"github.com/sightline-ml/sightline/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "SGHT"
	FormatVersion   = 1
	HeaderAlignment = 64 // Align tensor data to 64 bytes
)

// Data type string constants for serialization.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
)

// Flags for the .sght format.
const (
	FlagHasMetadata uint32 = 1 << 0 // bit 0: custom metadata included
)

// Header represents the JSON header in a .sght file.
type Header struct {
	FormatVersion    int               `json:"format_version"`    // Version of the .sght format
	SightlineVersion string            `json:"sightline_version"` // Version of Sightline that created this file
	ModelType        string            `json:"model_type"`        // Type of model (e.g., "ChestNet")
	CreatedAt        time.Time         `json:"created_at"`        // When the file was created
	Tensors          []TensorMeta      `json:"tensors"`           // Tensor metadata
	Metadata         map[string]string `json:"metadata"`          // Custom metadata
}

// TensorMeta describes a tensor in the .sght file.
type TensorMeta struct {
	Name   string `json:"name"`   // Tensor name (e.g., "features.0.weight")
	DType  string `json:"dtype"`  // Data type ("float32" or "float64")
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset in the data section (bytes)
	Size   int64  `json:"size"`   // Size in bytes
}

// dtypeToString converts tensor.DataType to its string representation.
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

// stringToDtype converts a string representation to tensor.DataType.
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
