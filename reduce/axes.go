// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package reduce

import (
	"slices"

	"github.com/gomlx/axisreduce/types"
	"github.com/pkg/errors"
)

// ResolveAxes canonicalizes the user given axes against an input of the given rank:
// negative axes count from the end (-1 is the last axis), the result is sorted and deduplicated.
//
// It returns ErrInvalidAxisCount if more axes than rank are given (counted before deduplication),
// and ErrInvalidAxis if any axis falls outside [0, rank) after resolving negative values.
//
// An empty list of axes returns an empty (non-nil) list.
func ResolveAxes(rank int, rawAxes []int) ([]int, error) {
	if len(rawAxes) > rank {
		return nil, errors.Wrapf(ErrInvalidAxisCount, "%d axes %v given for an input of rank %d", len(rawAxes), rawAxes, rank)
	}
	axesSet := types.MakeSet[int](len(rawAxes))
	for _, rawAxis := range rawAxes {
		axis := rawAxis
		if axis < 0 {
			axis += rank
		}
		if axis < 0 || axis >= rank {
			return nil, errors.Wrapf(ErrInvalidAxis, "axis %d is out of range for an input of rank %d, it must be in [%d, %d)",
				rawAxis, rank, -rank, rank)
		}
		axesSet.Insert(axis)
	}
	return types.SortedKeys(axesSet), nil
}

// OutputDimensions returns the dimensions of the output of a reduction of an input with the given dimensions
// over the canonical axes (see ResolveAxes).
//
// An empty list of axes, or one that covers every axis, means "reduce everything":
//
//   - keepDims=true: all dimensions collapse to 1, and the rank is preserved.
//   - keepDims=false: the output is a scalar (rank 0).
//
// Otherwise, the reduced axes are either kept with dimension 1 (keepDims=true), or removed.
func OutputDimensions(inputDims []int, axes []int, keepDims bool) []int {
	rank := len(inputDims)
	reduceAll := len(axes) == 0 || len(axes) == rank
	switch {
	case keepDims && !reduceAll:
		outputDims := slices.Clone(inputDims)
		for _, axis := range axes {
			outputDims[axis] = 1
		}
		return outputDims

	case keepDims && reduceAll:
		outputDims := make([]int, rank)
		for axis := range outputDims {
			outputDims[axis] = 1
		}
		return outputDims

	case !keepDims && !reduceAll:
		// Remove from the last to the first, so earlier removals don't shift the later axes.
		outputDims := slices.Clone(inputDims)
		for ii := len(axes) - 1; ii >= 0; ii-- {
			outputDims = slices.Delete(outputDims, axes[ii], axes[ii]+1)
		}
		return outputDims

	default:
		return []int{}
	}
}
