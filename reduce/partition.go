// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package reduce

import (
	"fmt"

	"github.com/gomlx/axisreduce/types"
	"github.com/gomlx/axisreduce/types/shapes"
)

// axisSpan describes one input axis taking part in the traversal.
type axisSpan struct {
	Axis   int
	Extent int

	// Stride in the input buffer, always derived from the input shape.
	Stride int

	// OutputStride in the output buffer. Only set for outer (kept) axes.
	OutputStride int
}

// partition splits the input axes into the outer (kept) and inner (reduced) groups, and caches
// everything the traversal needs. It is built once per ResolveShape and is read-only afterwards, so
// it can be shared by parallel workers.
type partition struct {
	inputDims, outputDims []int

	// outer and inner axes, both in ascending axis order.
	outer, inner []axisSpan

	// numOuter is the number of outer combinations (== output size), groupSize the number of
	// elements folded into each output slot.
	numOuter, groupSize int

	// innerOffsets holds the offset of each element of a group relative to the group's input base, in
	// row-major order over the inner axes. It is nil if the group is contiguous, in which case the
	// offsets are simply 0..groupSize-1.
	innerOffsets []int

	// reduceAll is set when there are no outer axes: a single group spans the whole input.
	reduceAll bool
}

// newPartition splits the input axes given the canonical reduced axes and the output dimensions.
//
// If the output has the same rank as the input (keepDims, or an identity reduction), each outer axis maps
// to the output axis in the same position. Otherwise, outer axes map to the output axes in order.
func newPartition(inputDims, axes, outputDims []int) *partition {
	p := &partition{
		inputDims:  inputDims,
		outputDims: outputDims,
		numOuter:   1,
		groupSize:  1,
	}
	inputStrides := shapes.StridesFor(inputDims)
	outputStrides := shapes.StridesFor(outputDims)
	sameRank := len(outputDims) == len(inputDims)
	reducedSet := types.SetWith(axes...)
	for axis, dim := range inputDims {
		span := axisSpan{Axis: axis, Extent: dim, Stride: inputStrides[axis]}
		if reducedSet.Has(axis) {
			p.inner = append(p.inner, span)
			p.groupSize *= dim
			continue
		}
		if sameRank {
			span.OutputStride = outputStrides[axis]
		} else {
			span.OutputStride = outputStrides[len(p.outer)]
		}
		p.outer = append(p.outer, span)
		p.numOuter *= dim
	}
	p.reduceAll = len(p.outer) == 0
	if !p.innerIsContiguous() {
		p.innerOffsets = innerOffsetsFor(p.inner, p.groupSize)
	}
	return p
}

// innerIsContiguous returns whether the inner axes are exactly the trailing axes of the input,
// in which case each group occupies a contiguous region of the input.
func (p *partition) innerIsContiguous() bool {
	rank := len(p.inputDims)
	for ii, span := range p.inner {
		if span.Axis != rank-len(p.inner)+ii {
			return false
		}
	}
	return true
}

// innerOffsetsFor enumerates the relative offsets of all the elements of a group, with an odometer over
// the inner axes (last axis changes fastest).
//
// With no inner axes the group has exactly one element at offset 0.
func innerOffsetsFor(inner []axisSpan, groupSize int) []int {
	offsets := make([]int, 0, groupSize)
	if groupSize == 0 {
		return offsets
	}
	indices := make([]int, len(inner))
	offset := 0
	for {
		offsets = append(offsets, offset)
		axis := len(inner) - 1
		for ; axis >= 0; axis-- {
			indices[axis]++
			offset += inner[axis].Stride
			if indices[axis] < inner[axis].Extent {
				break
			}
			offset -= indices[axis] * inner[axis].Stride
			indices[axis] = 0
		}
		if axis < 0 {
			return offsets
		}
	}
}

// innerOffset returns the offset of the ii-th element of a group, relative to the group's input base.
func (p *partition) innerOffset(ii int) int {
	if p.innerOffsets == nil {
		return ii
	}
	return p.innerOffsets[ii]
}

// groupPosition converts a flat input offset to the row-major position of the element within its group.
func (p *partition) groupPosition(inputOffset int) int {
	position := 0
	for _, span := range p.inner {
		position = position*span.Extent + (inputOffset/span.Stride)%span.Extent
	}
	return position
}

// String implements fmt.Stringer, for debugging.
func (p *partition) String() string {
	outerAxes := make([]int, len(p.outer))
	for ii, span := range p.outer {
		outerAxes[ii] = span.Axis
	}
	innerAxes := make([]int, len(p.inner))
	for ii, span := range p.inner {
		innerAxes[ii] = span.Axis
	}
	return fmt.Sprintf("partition{outer=%v inner=%v numOuter=%d groupSize=%d contiguous=%v}",
		outerAxes, innerAxes, p.numOuter, p.groupSize, p.innerOffsets == nil)
}
