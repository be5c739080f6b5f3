// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package shapes defines Shape and associated tools.
//
// Shape represents the shape (rank, dimensions and DType) of a dense, row-major, contiguous
// array handed to the reduction engine. DType indicates the type of the unit element of
// the array, and it uses the enumeration defined in github.com/gomlx/gopjrt/dtypes.
//
// Go float16 support uses github.com/x448/float16 implementation,
// and bfloat16 uses a simple implementation in github.com/gomlx/gopjrt/dtypes/bfloat16.
//
// ## Glossary
//
//   - Rank: number of axes (dimensions) of an array.
//   - Axis: is the index of a dimension on a multidimensional array. Sometimes used
//     interchangeably with Dimension, but here we try to refer to a dimension index as "axis"
//     (plural axes), and its size as its dimension (or extent).
//   - Dimension: the size of a multi-dimensions array in one of its axes.
//   - Stride: number of flat elements to skip to advance one unit along an axis, in row-major layout.
//   - Scalar: is a shape where there are no axes (or dimensions), only a single value
//     of the associated DType.
//
// Example: The multi-dimensional array `[][]int32{{0, 1, 2}, {3, 4, 5}}` flattened
// would have shape `(Int32)[2 3]`. We say it has rank 2 (so 2 axes), axis 0 has
// dimension 2, and axis 1 has dimension 3. This shape could be created with
// `shapes.Make(dtypes.Int32, 2, 3)`, and its strides are `[3 1]`.
package shapes

import (
	"fmt"
	"math"
	"math/bits"
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// Shape represents the shape of a flat row-major array.
//
// Use Make to create a new shape. See example in package shapes documentation.
type Shape struct {
	DType      dtypes.DType
	Dimensions []int
}

// Make returns a Shape structure filled with the values given.
//
// Dimensions can be 0 (an empty array), but it panics if any dimension is negative.
// Use FromDimensions for a version that returns an error instead.
func Make(dtype dtypes.DType, dimensions ...int) Shape {
	s, err := FromDimensions(dtype, dimensions...)
	if err != nil {
		exceptions.Panicf("shapes.Make(%s, %v): %v", dtype, dimensions, err)
	}
	return s
}

// FromDimensions is like Make, but returns an error if any of the dimensions is negative, or if the
// number of elements or bytes of the shape doesn't fit an int.
//
// Zero dimensions don't take part in the overflow check, since strides are still products of the other
// dimensions.
func FromDimensions(dtype dtypes.DType, dimensions ...int) (Shape, error) {
	s := Shape{Dimensions: slices.Clone(dimensions), DType: dtype}
	product := uint64(1)
	for axis, dim := range dimensions {
		if dim < 0 {
			return Invalid(), errors.Errorf("cannot create a shape with a negative dimension %d for axis %d", dim, axis)
		}
		if dim == 0 {
			continue
		}
		hi, lo := bits.Mul64(product, uint64(dim))
		if hi != 0 || lo > math.MaxInt {
			return Invalid(), errors.Errorf("number of elements of shape dimensions %v overflows an int", dimensions)
		}
		product = lo
	}
	if dtype == dtypes.InvalidDType {
		return s, nil
	}
	if elementSize := uint64(dtype.Size()); elementSize > 1 && product > math.MaxInt/elementSize {
		return Invalid(), errors.Errorf("shape %s overflows the size in bytes", s)
	}
	return s, nil
}

// Scalar returns a scalar Shape for the given dtype.
func Scalar(dtype dtypes.DType) Shape {
	return Shape{DType: dtype}
}

// Invalid returns an invalid shape.
//
// Invalid().Ok() == false.
func Invalid() Shape {
	return Shape{DType: dtypes.InvalidDType}
}

// Ok returns whether this is a valid Shape. A "zero" shape, that is just instantiating it with Shape{} will be invalid.
func (s Shape) Ok() bool { return s.DType != dtypes.InvalidDType }

// Rank of the shape, that is, the number of dimensions.
func (s Shape) Rank() int { return len(s.Dimensions) }

// IsScalar returns whether the shape represents a scalar, that is there are no dimensions (rank==0).
func (s Shape) IsScalar() bool { return s.Ok() && s.Rank() == 0 }

// Dim returns the dimension of the given axis. axis can take negative numbers, in which
// case it counts as starting from the end -- so axis=-1 refers to the last axis.
// Like with a slice indexing, it panics for an out-of-bound axis.
func (s Shape) Dim(axis int) int {
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += s.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= s.Rank() {
		exceptions.Panicf("Shape.Dim(%d) out-of-bounds for rank %d (shape=%s)", axis, s.Rank(), s)
	}
	return s.Dimensions[adjustedAxis]
}

// String implements stringer, pretty-prints the shape.
func (s Shape) String() string {
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	return fmt.Sprintf("(%s)%v", s.DType, s.Dimensions)
}

// Size returns the number of elements of DType are needed for this shape. It's the product of all dimensions.
func (s Shape) Size() (size int) {
	size = 1
	for _, d := range s.Dimensions {
		size *= d
	}
	return
}

// Memory returns the memory used to store an array of the given shape, the same as the size in bytes.
func (s Shape) Memory() uintptr {
	return s.DType.Memory() * uintptr(s.Size())
}

// Strides returns the row-major strides of each axis: the stride of axis i is the product
// of the dimensions of axes i+1 to rank-1. A scalar has no strides.
func (s Shape) Strides() []int {
	return StridesFor(s.Dimensions)
}

// StridesFor returns the row-major strides for the given dimensions.
// See Shape.Strides.
func StridesFor(dimensions []int) []int {
	strides := make([]int, len(dimensions))
	stride := 1
	for axis := len(dimensions) - 1; axis >= 0; axis-- {
		strides[axis] = stride
		stride *= dimensions[axis]
	}
	return strides
}

// Equal compares two shapes for equality: dtype and dimensions are compared.
func (s Shape) Equal(s2 Shape) bool {
	if s.DType != s2.DType {
		return false
	}
	return s.EqualDimensions(s2)
}

// EqualDimensions compares two shapes for equality of dimensions. Dtypes can be different.
func (s Shape) EqualDimensions(s2 Shape) bool {
	if s.Rank() != s2.Rank() {
		return false
	}
	return slices.Equal(s.Dimensions, s2.Dimensions)
}

// Clone returns a new deep copy of the shape.
func (s Shape) Clone() (s2 Shape) {
	s2.DType = s.DType
	s2.Dimensions = slices.Clone(s.Dimensions)
	return
}
