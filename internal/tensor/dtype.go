// Package tensor provides tensor descriptors, memory buffers and the compute
// backend contract used by the convolution benchmark harness.
package tensor

import (
	"fmt"
	"strings"
)

// DataType represents the element type of a tensor.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
	Float16
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	case Float16:
		return 2
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Float16:
		return "float16"
	default:
		return "unknown"
	}
}

func (dt DataType) valid() bool {
	return dt == Float32 || dt == Float64 || dt == Float16
}

// ParseDataType parses names such as "f32", "float16" or "f64".
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(s) {
	case "f32", "float32":
		return Float32, nil
	case "f64", "float64":
		return Float64, nil
	case "f16", "float16", "half":
		return Float16, nil
	default:
		return 0, fmt.Errorf("unknown data type %q", s)
	}
}
