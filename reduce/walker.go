// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package reduce

// walkOuter enumerates the outer combinations with linear index in [start, end), in row-major order
// (leftmost outer axis varies slowest), and calls visit with the input base offset and the flat output
// offset of each combination.
//
// With no outer axes there is exactly one combination, with both offsets 0.
//
// Ranges are independent: they can be walked concurrently, since each output offset is visited by
// exactly one linear index.
func (p *partition) walkOuter(start, end int, visit func(inputBase, outputFlat int)) {
	if start >= end {
		return
	}
	numAxes := len(p.outer)
	if numAxes == 0 {
		visit(0, 0)
		return
	}

	// Decode the starting coordinates.
	indices := make([]int, numAxes)
	var inputBase, outputFlat int
	remaining := start
	for ii := numAxes - 1; ii >= 0; ii-- {
		span := &p.outer[ii]
		indices[ii] = remaining % span.Extent
		remaining /= span.Extent
		inputBase += indices[ii] * span.Stride
		outputFlat += indices[ii] * span.OutputStride
	}

	for linear := start; ; {
		visit(inputBase, outputFlat)
		linear++
		if linear >= end {
			return
		}

		// Odometer increment with carry-over, updating offsets incrementally.
		for ii := numAxes - 1; ii >= 0; ii-- {
			span := &p.outer[ii]
			indices[ii]++
			inputBase += span.Stride
			outputFlat += span.OutputStride
			if indices[ii] < span.Extent {
				break
			}
			inputBase -= indices[ii] * span.Stride
			outputFlat -= indices[ii] * span.OutputStride
			indices[ii] = 0
		}
	}
}
