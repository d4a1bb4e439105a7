package serialization

import (
	"time"

	"github.com/primer-ml/primer/internal/tensor"
)

// Format constants.
const (
	MagicBytes    = "PRMR"
	FormatVersion = 1
	FileExtension = ".primer"

	// DataAlignment pads the header so tensor data starts on a 64-byte
	// boundary.
	DataAlignment = 64

	// MaxHeaderSize bounds the JSON header a reader will accept.
	MaxHeaderSize = 16 * 1024 * 1024
)

// Header flags.
const (
	FlagHasMetadata   uint32 = 1 << 0
	FlagHasCheckpoint uint32 = 1 << 1
)

// Data type names used in headers.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeInt32   = "int32"
	DTypeInt64   = "int64"
)

// Header is the JSON metadata block of a .primer file.
type Header struct {
	FormatVersion  int               `json:"format_version"`
	PrimerVersion  string            `json:"primer_version"`
	ModelType      string            `json:"model_type"`
	CreatedAt      time.Time         `json:"created_at"`
	Tensors        []TensorMeta      `json:"tensors"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Checksum       string            `json:"checksum"`
	CheckpointMeta *CheckpointMeta   `json:"checkpoint,omitempty"`
}

// CheckpointMeta records training state alongside the tensors.
type CheckpointMeta struct {
	Epoch           int            `json:"epoch"`
	Step            int64          `json:"step"`
	Loss            float64        `json:"loss"`
	OptimizerType   string         `json:"optimizer_type,omitempty"`
	OptimizerConfig map[string]any `json:"optimizer_config,omitempty"`
	TrainingMeta    map[string]any `json:"training_meta,omitempty"`
}

// TensorMeta locates one tensor inside the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"`
	Size   int64  `json:"size"`
}

func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	case tensor.Int32:
		return DTypeInt32
	case tensor.Int64:
		return DTypeInt64
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
	case DTypeInt32:
		return tensor.Int32, true
	case DTypeInt64:
		return tensor.Int64, true
	default:
		return 0, false
	}
}
