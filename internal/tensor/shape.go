package tensor

import (
	"fmt"
	"math"
)

// Shape represents the logical dimensions of a tensor.
type Shape []int

// NumElements returns the total number of logical elements.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that the shape is non-empty, every dimension is > 0 and
// the element count fits in an int.
func (s Shape) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: empty shape", ErrInvalidShape)
	}
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("%w: dimension %d is %d (must be > 0)", ErrInvalidShape, i, dim)
		}
	}
	if _, ok := checkedProduct(s...); !ok {
		return fmt.Errorf("%w: element count of %v overflows int", ErrInvalidShape, []int(s))
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// dims4 returns the four dimensions of a rank-4 shape.
func (s Shape) dims4() (a, b, h, w int) {
	return s[0], s[1], s[2], s[3]
}

// roundUp rounds n up to the next multiple of block.
func roundUp(n, block int) int {
	return (n + block - 1) / block * block
}

// checkedProduct multiplies positive factors, reporting false on overflow.
func checkedProduct(factors ...int) (int, bool) {
	n := 1
	for _, f := range factors {
		if f > math.MaxInt/n {
			return 0, false
		}
		n *= f
	}
	return n, true
}
