package tensor

import "fmt"

// Reorder copies src into dst, converting the physical layout and, if needed,
// the element type. Logical values are preserved; block padding in dst is zeroed.
func Reorder(src, dst *Memory) error {
	sd, dd := src.Descriptor(), dst.Descriptor()
	if !sd.shape.Equal(dd.shape) {
		return fmt.Errorf("%w: reorder shape mismatch %s -> %s", ErrUnsupportedConfiguration, sd, dd)
	}

	if sd.Equal(dd) {
		copy(dst.data, src.data)
		return nil
	}

	if sd.Rank() != 4 {
		// Rank-1 tensors only differ in element type.
		for i := 0; i < sd.NumElements(); i++ {
			dst.Set(i, src.At(i))
		}
		return nil
	}

	if dd.Layout().Blocked() {
		dst.Zero()
	}

	d0, d1, d2, d3 := sd.shape.dims4()
	sameType := sd.dtype == dd.dtype
	size := sd.dtype.Size()
	for i0 := 0; i0 < d0; i0++ {
		for i1 := 0; i1 < d1; i1++ {
			for i2 := 0; i2 < d2; i2++ {
				for i3 := 0; i3 < d3; i3++ {
					so := sd.Offset(i0, i1, i2, i3)
					do := dd.Offset(i0, i1, i2, i3)
					if sameType {
						copy(dst.data[do*size:(do+1)*size], src.data[so*size:(so+1)*size])
					} else {
						dst.Set(do, src.At(so))
					}
				}
			}
		}
	}
	return nil
}
