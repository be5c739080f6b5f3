package shapes

import (
	"slices"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"
)

func TestShape_Iter(t *testing.T) {
	// Version 1: there is only one value to iterate:
	shape := Make(dtypes.F32, 1, 1, 1, 1)
	collect := make([][]int, 0, shape.Size())
	for _, indices := range shape.Iter() {
		collect = append(collect, slices.Clone(indices))
	}
	require.Equal(t, [][]int{{0, 0, 0, 0}}, collect)

	// Version 2: all axes have dim > 1; flat indices must match the strides.
	shape = Make(dtypes.F64, 3, 2)
	collect = make([][]int, 0, shape.Size())
	strides := shape.Strides()
	for flatIdx, indices := range shape.Iter() {
		require.Equal(t, flatIdx, indices[0]*strides[0]+indices[1]*strides[1])
		collect = append(collect, slices.Clone(indices))
	}
	want := [][]int{
		{0, 0},
		{0, 1},
		{1, 0},
		{1, 1},
		{2, 0},
		{2, 1},
	}
	require.Equal(t, want, collect)

	// Version 3: with only 2 axes with dim > 1.
	shape = Make(dtypes.BFloat16, 3, 1, 2, 1)
	collect = make([][]int, 0, shape.Size())
	for _, indices := range shape.Iter() {
		collect = append(collect, slices.Clone(indices))
	}
	want = [][]int{
		{0, 0, 0, 0},
		{0, 0, 1, 0},
		{1, 0, 0, 0},
		{1, 0, 1, 0},
		{2, 0, 0, 0},
		{2, 0, 1, 0},
	}
	require.Equal(t, want, collect)

	// Scalar yields once, empty arrays never.
	count := 0
	for range Scalar(dtypes.Int32).Iter() {
		count++
	}
	require.Equal(t, 1, count)
	for range Make(dtypes.Int32, 2, 0).Iter() {
		t.Fatal("empty shape should not yield")
	}
}
