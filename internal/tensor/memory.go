package tensor

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/x448/float16"
)

// Device represents the compute device a backend runs on.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// Memory is a buffer of element storage for one concrete descriptor.
// It is sized to the descriptor's physical element count and owned by
// the scope that created it.
type Memory struct {
	desc Descriptor
	data []byte
}

// NewMemory allocates zeroed storage for desc.
// Descriptors with LayoutAny can't be allocated.
func NewMemory(desc Descriptor) (*Memory, error) {
	if desc.IsZero() {
		return nil, fmt.Errorf("%w: zero descriptor", ErrInvalidShape)
	}
	if desc.Layout() == LayoutAny {
		return nil, fmt.Errorf("%w: cannot allocate %s, layout is unresolved", ErrInvalidShape, desc)
	}
	return &Memory{
		desc: desc,
		data: make([]byte, desc.ByteSize()),
	}, nil
}

// Descriptor returns the memory descriptor.
func (m *Memory) Descriptor() Descriptor {
	return m.desc
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory.
func (m *Memory) Data() []byte {
	return m.data
}

// Len returns the number of stored elements, block padding included.
func (m *Memory) Len() int {
	return m.desc.PhysicalElements()
}

// Zero clears the buffer.
func (m *Memory) Zero() {
	clear(m.data)
}

// Share makes m alias the storage of other. Both must be layout-compatible.
func (m *Memory) Share(other *Memory) error {
	if !m.desc.Equal(other.desc) {
		return fmt.Errorf("%w: cannot alias %s to %s", ErrUnsupportedConfiguration, m.desc, other.desc)
	}
	m.data = other.data
	return nil
}

// SameStorage reports whether m and other share one backing array.
func (m *Memory) SameStorage(other *Memory) bool {
	if len(m.data) == 0 || len(other.data) == 0 {
		return len(m.data) == len(other.data)
	}
	return &m.data[0] == &other.data[0]
}

// AsFloat32 interprets the data as []float32.
// Panics if the dtype is not Float32.
func (m *Memory) AsFloat32() []float32 {
	if m.desc.dtype != Float32 {
		panic(fmt.Sprintf("memory dtype is %s, not float32", m.desc.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by Len()
	return unsafe.Slice((*float32)(unsafe.Pointer(&m.data[0])), m.Len())
}

// At returns the element at physical offset i as float64.
func (m *Memory) At(i int) float64 {
	switch m.desc.dtype {
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(m.data[i*4:])))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(m.data[i*8:]))
	case Float16:
		return float64(float16.Frombits(binary.LittleEndian.Uint16(m.data[i*2:])).Float32())
	default:
		panic("unknown data type")
	}
}

// Set stores v at physical offset i, rounding to the element type.
func (m *Memory) Set(i int, v float64) {
	switch m.desc.dtype {
	case Float32:
		binary.LittleEndian.PutUint32(m.data[i*4:], math.Float32bits(float32(v)))
	case Float64:
		binary.LittleEndian.PutUint64(m.data[i*8:], math.Float64bits(v))
	case Float16:
		binary.LittleEndian.PutUint16(m.data[i*2:], float16.Fromfloat32(float32(v)).Bits())
	default:
		panic("unknown data type")
	}
}

// FillFloat32 writes values given in canonical logical order
// (row-major over the logical shape) into the buffer's physical layout.
func (m *Memory) FillFloat32(values []float32) error {
	if len(values) != m.desc.NumElements() {
		return fmt.Errorf("%w: %s requires %d values, got %d",
			ErrInvalidShape, m.desc, m.desc.NumElements(), len(values))
	}
	m.forEachLogical(func(logical, physical int) {
		m.Set(physical, float64(values[logical]))
	})
	return nil
}

// ReadFloat32 returns the buffer contents in canonical logical order.
func (m *Memory) ReadFloat32() []float32 {
	out := make([]float32, m.desc.NumElements())
	m.forEachLogical(func(logical, physical int) {
		out[logical] = float32(m.At(physical))
	})
	return out
}

// forEachLogical visits every logical element in row-major order together
// with its physical offset.
func (m *Memory) forEachLogical(fn func(logical, physical int)) {
	d := m.desc
	if d.Rank() != 4 {
		for i := 0; i < d.NumElements(); i++ {
			fn(i, i)
		}
		return
	}

	d0, d1, d2, d3 := d.shape.dims4()
	logical := 0
	for i0 := 0; i0 < d0; i0++ {
		for i1 := 0; i1 < d1; i1++ {
			for i2 := 0; i2 < d2; i2++ {
				for i3 := 0; i3 < d3; i3++ {
					fn(logical, d.Offset(i0, i1, i2, i3))
					logical++
				}
			}
		}
	}
}
