package xslices

import (
	"flag"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIotaAndProduct(t *testing.T) {
	assert.Equal(t, []float32{3, 4, 5}, Iota(float32(3), 3))
	assert.Equal(t, 24, Product([]int{2, 3, 4}))
	assert.Equal(t, 1, Product([]int{}))
	assert.Equal(t, 0, Product([]int{2, 0, 4}))
}

func TestMap(t *testing.T) {
	out := Map([]int{0, 1, 2}, func(v int) int32 { return int32(v + 1) })
	assert.Equal(t, []int32{1, 2, 3}, out)
}

func TestParseInts(t *testing.T) {
	got, err := ParseInts(" 0, -1,2 ")
	require.NoError(t, err)
	assert.Equal(t, []int{0, -1, 2}, got)
	assert.Equal(t, "0,-1,2", FormatInts(got))

	got, err = ParseInts("")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = ParseInts("1,x")
	require.Error(t, err)
}

func TestSliceFlag(t *testing.T) {
	axesPtr := Flag("test_axes", []int{2, 3}, "axes flag test", strconv.Atoi)
	assert.Equal(t, []int{2, 3}, *axesPtr)
	require.NoError(t, flag.Set("test_axes", "0, -1"))
	assert.Equal(t, []int{0, -1}, *axesPtr)
	axesFlag := flag.Lookup("test_axes")
	require.NotNil(t, axesFlag)
	assert.Equal(t, "2,3", axesFlag.DefValue)
	require.NoError(t, flag.Set("test_axes", ""))
	assert.Empty(t, *axesPtr)
}
