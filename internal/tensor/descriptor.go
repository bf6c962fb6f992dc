package tensor

import "fmt"

// Descriptor describes the shape, element type and memory layout of a tensor.
// Descriptors are immutable values; the zero value is not valid.
type Descriptor struct {
	shape  Shape
	dtype  DataType
	layout Layout
}

// NewDescriptor validates and creates a descriptor.
//
// It fails with ErrInvalidShape if any dimension is <= 0, if the rank
// does not match the rank required by the layout, or if the padded storage
// size does not fit in an int.
func NewDescriptor(shape Shape, dtype DataType, layout Layout) (Descriptor, error) {
	if err := shape.Validate(); err != nil {
		return Descriptor{}, err
	}
	if !dtype.valid() {
		return Descriptor{}, fmt.Errorf("%w: unknown data type %d", ErrInvalidShape, int(dtype))
	}
	if !layout.valid() {
		return Descriptor{}, fmt.Errorf("%w: unknown layout %d", ErrInvalidShape, int(layout))
	}
	if r := layout.Rank(); r != 0 && len(shape) != r {
		return Descriptor{}, fmt.Errorf("%w: layout %s requires rank %d, got shape %v",
			ErrInvalidShape, layout, r, shape)
	}
	if _, ok := layout.storageBytes(shape, dtype); !ok {
		return Descriptor{}, fmt.Errorf("%w: storage for %v in %s overflows int", ErrInvalidShape, []int(shape), layout)
	}
	return Descriptor{shape: shape.Clone(), dtype: dtype, layout: layout}, nil
}

// MustDescriptor is like NewDescriptor but panics on error.
// Intended for constants in tests and examples.
func MustDescriptor(shape Shape, dtype DataType, layout Layout) Descriptor {
	d, err := NewDescriptor(shape, dtype, layout)
	if err != nil {
		panic(err)
	}
	return d
}

// Shape returns a copy of the logical shape.
func (d Descriptor) Shape() Shape {
	return d.shape.Clone()
}

// Dim returns logical dimension i.
func (d Descriptor) Dim(i int) int {
	return d.shape[i]
}

// DType returns the element type.
func (d Descriptor) DType() DataType {
	return d.dtype
}

// Layout returns the layout tag.
func (d Descriptor) Layout() Layout {
	return d.layout
}

// Rank returns the number of dimensions.
func (d Descriptor) Rank() int {
	return len(d.shape)
}

// IsZero reports whether d is the zero Descriptor.
func (d Descriptor) IsZero() bool {
	return d.shape == nil
}

// NumElements returns the number of logical elements.
func (d Descriptor) NumElements() int {
	return d.shape.NumElements()
}

// PhysicalElements returns the number of stored elements, block padding included.
func (d Descriptor) PhysicalElements() int {
	return d.layout.physicalElements(d.shape)
}

// ByteSize returns the storage size in bytes.
func (d Descriptor) ByteSize() int {
	return d.PhysicalElements() * d.dtype.Size()
}

// Offset maps a logical rank-4 index to a physical element offset.
// Panics for descriptors that are not rank 4 or whose layout is Any.
func (d Descriptor) Offset(i0, i1, i2, i3 int) int {
	return d.layout.offset4(d.shape, i0, i1, i2, i3)
}

// Equal reports whether d and other are layout-compatible: same shape,
// same element type and same physical layout.
func (d Descriptor) Equal(other Descriptor) bool {
	return d.dtype == other.dtype && d.layout == other.layout && d.shape.Equal(other.shape)
}

// WithLayout returns a descriptor with the same shape and type but a different layout.
func (d Descriptor) WithLayout(l Layout) (Descriptor, error) {
	return NewDescriptor(d.shape, d.dtype, l)
}

// String returns a compact description such as "float32:nchw[1 2 4 4]".
func (d Descriptor) String() string {
	return fmt.Sprintf("%s:%s%v", d.dtype, d.layout, []int(d.shape))
}
