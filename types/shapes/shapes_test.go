package shapes

import (
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestShape(t *testing.T) {
	invalidShape := Invalid()
	require.False(t, invalidShape.Ok())

	shape0 := Make(dtypes.Float64)
	require.True(t, shape0.Ok())
	require.True(t, shape0.IsScalar())
	require.Equal(t, 0, shape0.Rank())
	require.Len(t, shape0.Dimensions, 0)
	require.Equal(t, 1, shape0.Size())
	require.Equal(t, 8, int(shape0.Memory()))
	require.Empty(t, shape0.Strides())
	require.True(t, shape0.Equal(Scalar(dtypes.Float64)))

	shape1 := Make(dtypes.Float32, 4, 3, 2)
	require.True(t, shape1.Ok())
	require.False(t, shape1.IsScalar())
	require.Equal(t, 3, shape1.Rank())
	require.Equal(t, 4*3*2, shape1.Size())
	require.Equal(t, 4*4*3*2, int(shape1.Memory()))
	require.Equal(t, "(Float32)[4 3 2]", shape1.String())

	// Empty arrays are valid.
	shape2 := Make(dtypes.Int32, 3, 0)
	require.Equal(t, 0, shape2.Size())

	require.Panics(t, func() { _ = Make(dtypes.Float32, 2, -1) })
	_, err := FromDimensions(dtypes.Float32, -3)
	require.Error(t, err)

	// Element count or byte size that don't fit an int.
	_, err = FromDimensions(dtypes.Float32, 1<<32, 1<<32)
	require.ErrorContains(t, err, "overflows")
	_, err = FromDimensions(dtypes.Float32, 0, 1<<32, 1<<32)
	require.ErrorContains(t, err, "overflows")
	_, err = FromDimensions(dtypes.Float64, 1<<61)
	require.ErrorContains(t, err, "overflows")
	shape3, err := FromDimensions(dtypes.Uint8, 1<<31, 1<<31)
	require.NoError(t, err)
	require.Equal(t, 1<<62, shape3.Size())
	_, err = FromDimensions(dtypes.InvalidDType, 1<<40, 1<<20)
	require.NoError(t, err)
}

func TestStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, Make(dtypes.Float32, 2, 3, 4).Strides())
	assert.Equal(t, []int{1}, Make(dtypes.Float32, 7).Strides())
	assert.Equal(t, []int{4, 4, 1}, StridesFor([]int{2, 1, 4}))
}

func TestDim(t *testing.T) {
	shape := Make(dtypes.Float32, 4, 3, 2)
	require.Equal(t, 4, shape.Dim(0))
	require.Equal(t, 2, shape.Dim(2))
	require.Equal(t, 4, shape.Dim(-3))
	require.Equal(t, 2, shape.Dim(-1))
	require.Panics(t, func() { _ = shape.Dim(3) })
	require.Panics(t, func() { _ = shape.Dim(-4) })
}

func TestEqualAndClone(t *testing.T) {
	s := Make(dtypes.Float32, 2, 3)
	s2 := s.Clone()
	s2.Dimensions[0] = 5
	assert.Equal(t, 2, s.Dimensions[0])
	assert.False(t, s.Equal(s2))
	assert.True(t, s.EqualDimensions(Make(dtypes.Int64, 2, 3)))
	assert.False(t, s.Equal(Make(dtypes.Int64, 2, 3)))
}

func TestCheck(t *testing.T) {
	s := Make(dtypes.Float32, 2, 3)
	require.NoError(t, s.Check(dtypes.Float32, 2, 3))
	require.NoError(t, s.CheckDims(UncheckedAxis, 3))
	require.Error(t, s.Check(dtypes.Float64, 2, 3))
	require.Error(t, s.CheckDims(2))
	require.Error(t, s.CheckDims(2, 4))

	// Dim panics on an out-of-bounds axis.
	require.NotNil(t, exceptions.Try(func() { s.Dim(2) }))
	require.Nil(t, exceptions.Try(func() { s.Dim(-2) }))
}

func TestFlatBuffers(t *testing.T) {
	for _, dtype := range SupportedDTypes {
		flat, err := MakeFlat(dtype, 3)
		require.NoErrorf(t, err, "dtype %s", dtype)
		assert.Equal(t, dtype, DTypeOfFlat(flat))
		assert.Equal(t, 3, FlatLen(flat))
	}
	assert.Equal(t, dtypes.Float16, DTypeOfFlat([]float16.Float16{}))
	assert.Equal(t, dtypes.BFloat16, DTypeOfFlat([]bfloat16.BFloat16{}))
	assert.Equal(t, dtypes.InvalidDType, DTypeOfFlat([]string{"a"}))
	assert.Equal(t, -1, FlatLen(3))

	_, err := MakeFlat(dtypes.Bool, 2)
	require.Error(t, err)
	flat, err := MakeFlatFor(Make(dtypes.Float64, 2, 3))
	require.NoError(t, err)
	assert.Len(t, flat, 6)
}
