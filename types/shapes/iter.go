package shapes

import "iter"

// Iter iterates over all coordinates of shape in row-major order (the last
// axis changes fastest). To avoid allocating per step, the yielded slice is
// owned by Iter: don't retain or mutate it inside the loop.
//
// A scalar shape yields one empty coordinate; a shape with a zero extent
// yields nothing.
func Iter(shape SizeVector) iter.Seq[SizeVector] {
	return func(yield func(SizeVector) bool) {
		numDims := len(shape)
		if numDims == 0 {
			_ = yield(SizeVector{})
			return
		}
		for _, d := range shape {
			if d <= 0 {
				return
			}
		}

		coords := make(SizeVector, numDims)
		for {
			if !yield(coords) {
				return
			}

			// Increment coordinates with carry-over, last axis first.
			axis := numDims - 1
			for ; axis >= 0; axis-- {
				coords[axis]++
				if coords[axis] < shape[axis] {
					break
				}
				coords[axis] = 0
			}
			if axis < 0 {
				return
			}
		}
	}
}
