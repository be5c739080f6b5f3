// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import "iter"

// Iter iterates over all possible indices of the given shape, in row-major order
// (the last axis changes fastest). It yields the flat index and the multi-dimensional indices.
//
// To avoid allocating the slice of indices, the yielded indices is owned by the Iter() method:
// don't change it inside the loop.
func (s Shape) Iter() iter.Seq2[int, []int] {
	return func(yield func(int, []int) bool) {
		if !s.Ok() {
			return
		}

		rank := s.Rank()
		if rank == 0 {
			// Valid scalar: yield one empty index slice.
			_ = yield(0, make([]int, 0))
			return
		}
		for _, dimSize := range s.Dimensions {
			if dimSize <= 0 {
				// Empty array: nothing to iterate.
				return
			}
		}

		currentIndices := make([]int, rank)
		flatIdx := 0
		for {
			if !yield(flatIdx, currentIndices) {
				return
			}
			flatIdx++

			// Increment currentIndices to the next set of coordinates, with carry-over.
			axis := rank - 1
			for ; axis >= 0; axis-- {
				currentIndices[axis]++
				if currentIndices[axis] < s.Dimensions[axis] {
					break
				}
				currentIndices[axis] = 0
			}
			if axis < 0 {
				return
			}
		}
	}
}
