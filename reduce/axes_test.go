package reduce

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAxes(t *testing.T) {
	axes, err := ResolveAxes(3, []int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, axes)

	// Negative axes and duplicates.
	axes, err = ResolveAxes(3, []int{-1, 2, 0})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, axes)

	axes, err = ResolveAxes(3, nil)
	require.NoError(t, err)
	assert.NotNil(t, axes)
	assert.Empty(t, axes)

	// The count is checked before removing duplicates.
	_, err = ResolveAxes(3, []int{0, 0, 1, 1})
	require.True(t, errors.Is(err, ErrInvalidAxisCount), "got error %+v", err)

	_, err = ResolveAxes(2, []int{5})
	require.True(t, errors.Is(err, ErrInvalidAxis), "got error %+v", err)
	_, err = ResolveAxes(2, []int{-3})
	require.True(t, errors.Is(err, ErrInvalidAxis), "got error %+v", err)
	_, err = ResolveAxes(2, []int{-2, 1})
	require.NoError(t, err)
}

func TestOutputDimensions(t *testing.T) {
	dims := []int{2, 3, 4}
	assert.Equal(t, []int{2, 4}, OutputDimensions(dims, []int{1}, false))
	assert.Equal(t, []int{2, 1, 4}, OutputDimensions(dims, []int{1}, true))
	assert.Equal(t, []int{3}, OutputDimensions(dims, []int{0, 2}, false))
	assert.Equal(t, []int{1, 3, 1}, OutputDimensions(dims, []int{0, 2}, true))

	// Reduce everything: empty list or all axes.
	assert.Equal(t, []int{}, OutputDimensions(dims, []int{}, false))
	assert.Equal(t, []int{}, OutputDimensions(dims, []int{0, 1, 2}, false))
	assert.Equal(t, []int{1, 1, 1}, OutputDimensions(dims, []int{}, true))
	assert.Equal(t, []int{1, 1, 1}, OutputDimensions(dims, []int{0, 1, 2}, true))

	// Input dimensions are not modified.
	assert.Equal(t, []int{2, 3, 4}, dims)
}
