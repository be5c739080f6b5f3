package main

import (
	"testing"

	"github.com/gomlx/axisreduce/internal/npy"
	"github.com/gomlx/axisreduce/reduce"
	"github.com/gomlx/axisreduce/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIotaArray(t *testing.T) {
	array, err := iotaArray("2,3")
	require.NoError(t, err)
	require.NoError(t, array.Shape.Check(dtypes.Float32, 2, 3))
	assert.Equal(t, []float32{0, 1, 2, 3, 4, 5}, array.Flat)

	_, err = iotaArray("2,x")
	require.Error(t, err)
	_, err = iotaArray("2,-1")
	require.Error(t, err)
}

func TestSelectArray(t *testing.T) {
	x := &npy.Array{Shape: shapes.Make(dtypes.Int32, 1), Flat: []int32{1}}
	y := &npy.Array{Shape: shapes.Make(dtypes.Int32, 1), Flat: []int32{2}}
	got, err := selectArray(map[string]*npy.Array{"x": x}, "")
	require.NoError(t, err)
	assert.Same(t, x, got)

	_, err = selectArray(map[string]*npy.Array{"x": x, "y": y}, "")
	require.Error(t, err)
	got, err = selectArray(map[string]*npy.Array{"x": x, "y": y}, "y")
	require.NoError(t, err)
	assert.Same(t, y, got)
	_, err = selectArray(map[string]*npy.Array{"x": x}, "z")
	require.Error(t, err)
}

func TestFormatOffset(t *testing.T) {
	assert.Equal(t, "[1 2 3]", formatOffset(12+8+3, []int{2, 3, 4}))
	assert.Equal(t, "-", formatOffset(-1, []int{2, 3, 4}))
}

func TestConfigFromFlags(t *testing.T) {
	defer func(config, kind string, axes []int, keepDims bool, parallelism int) {
		*flagConfig, *flagKind, *flagAxes, *flagKeepDims, *flagParallelism = config, kind, axes, keepDims, parallelism
	}(*flagConfig, *flagKind, *flagAxes, *flagKeepDims, *flagParallelism)

	*flagConfig, *flagKind, *flagAxes, *flagKeepDims, *flagParallelism = "", "mean", []int{0, -1}, true, 2
	cfg, err := configFromFlags()
	require.NoError(t, err)
	assert.Equal(t, reduce.KindMean, cfg.Kind)
	assert.Equal(t, []int{0, -1}, cfg.Axes)
	assert.True(t, cfg.KeepDims)
	require.NotNil(t, cfg.Parallelism)
	assert.Equal(t, 2, *cfg.Parallelism)

	// -config takes precedence.
	*flagConfig = "min:axes=1:parallelism=0"
	cfg, err = configFromFlags()
	require.NoError(t, err)
	assert.Equal(t, reduce.KindMin, cfg.Kind)
	assert.Equal(t, []int{1}, cfg.Axes)
	assert.False(t, cfg.KeepDims)
	assert.Equal(t, 0, *cfg.Parallelism)

	*flagConfig, *flagKind = "", "sum"
	_, err = configFromFlags()
	require.True(t, errors.Is(err, reduce.ErrInvalidKind), "got error %+v", err)
}
