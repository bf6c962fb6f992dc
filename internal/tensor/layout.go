package tensor

import (
	"fmt"
	"math"
	"strings"
)

// Layout is the physical memory arrangement of a tensor's elements.
//
// Rank-4 layouts always index logical dimensions in the order
// (dim0, dim1, height, width): (N, C, H, W) for activations and
// (O, I, H, W) for weights. Only the physical placement differs.
type Layout int

// Supported layouts.
const (
	// LayoutAny lets a backend pick the layout. It can't be allocated.
	LayoutAny Layout = iota
	// LayoutX is a plain 1-D layout (bias).
	LayoutX
	LayoutNCHW
	LayoutNHWC
	LayoutOIHW
	LayoutOHWI
	// LayoutNChw8c blocks channels by 8, zero padded to a multiple of 8.
	LayoutNChw8c
	// LayoutOIhw8i8o blocks both input and output channels by 8.
	LayoutOIhw8i8o
)

// blockSize is the channel block width of the packed layouts.
const blockSize = 8

// String returns the conventional layout tag.
func (l Layout) String() string {
	switch l {
	case LayoutAny:
		return "any"
	case LayoutX:
		return "x"
	case LayoutNCHW:
		return "nchw"
	case LayoutNHWC:
		return "nhwc"
	case LayoutOIHW:
		return "oihw"
	case LayoutOHWI:
		return "ohwi"
	case LayoutNChw8c:
		return "nChw8c"
	case LayoutOIhw8i8o:
		return "OIhw8i8o"
	default:
		return "unknown"
	}
}

// Rank returns the rank a descriptor with this layout must have,
// or 0 if any rank is accepted.
func (l Layout) Rank() int {
	switch l {
	case LayoutX:
		return 1
	case LayoutNCHW, LayoutNHWC, LayoutOIHW, LayoutOHWI, LayoutNChw8c, LayoutOIhw8i8o:
		return 4
	default:
		return 0
	}
}

// Blocked reports whether the layout is a packed, backend-opaque format.
func (l Layout) Blocked() bool {
	return l == LayoutNChw8c || l == LayoutOIhw8i8o
}

func (l Layout) valid() bool {
	return l >= LayoutAny && l <= LayoutOIhw8i8o
}

// ParseLayout parses a layout tag. Matching is case-insensitive.
func ParseLayout(s string) (Layout, error) {
	for l := LayoutAny; l <= LayoutOIhw8i8o; l++ {
		if strings.EqualFold(s, l.String()) {
			return l, nil
		}
	}
	return LayoutAny, fmt.Errorf("unknown layout %q", s)
}

// physicalElements returns the number of stored elements for shape s,
// including block padding.
func (l Layout) physicalElements(s Shape) int {
	switch l {
	case LayoutNChw8c:
		a, b, h, w := s.dims4()
		return a * roundUp(b, blockSize) * h * w
	case LayoutOIhw8i8o:
		a, b, h, w := s.dims4()
		return roundUp(a, blockSize) * roundUp(b, blockSize) * h * w
	default:
		return s.NumElements()
	}
}

// storageBytes is the byte size of shape s stored in l, with overflow
// detection. s must already be valid for l.
func (l Layout) storageBytes(s Shape, dt DataType) (int, bool) {
	dims := s.Clone()
	var blocked []int
	switch l {
	case LayoutNChw8c:
		blocked = []int{1}
	case LayoutOIhw8i8o:
		blocked = []int{0, 1}
	}
	for _, i := range blocked {
		if dims[i] > math.MaxInt-blockSize {
			return 0, false
		}
		dims[i] = roundUp(dims[i], blockSize)
	}
	return checkedProduct(append(dims, dt.Size())...)
}

// offset4 maps a logical rank-4 index to a physical element offset.
func (l Layout) offset4(s Shape, i0, i1, i2, i3 int) int {
	_, d1, d2, d3 := s.dims4()
	switch l {
	case LayoutNCHW, LayoutOIHW:
		return ((i0*d1+i1)*d2+i2)*d3 + i3
	case LayoutNHWC, LayoutOHWI:
		return ((i0*d2+i2)*d3+i3)*d1 + i1
	case LayoutNChw8c:
		cb := roundUp(d1, blockSize) / blockSize
		return (((i0*cb+i1/blockSize)*d2+i2)*d3+i3)*blockSize + i1%blockSize
	case LayoutOIhw8i8o:
		ib := roundUp(d1, blockSize) / blockSize
		base := ((i0/blockSize*ib+i1/blockSize)*d2+i2)*d3 + i3
		return base*blockSize*blockSize + (i1%blockSize)*blockSize + i0%blockSize
	default:
		panic(fmt.Sprintf("tensor: layout %s has no rank-4 addressing", l))
	}
}
