package reduce

import (
	"runtime"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig("mean:axes=1,-1:keepdims:parallelism=0")
	require.NoError(t, err)
	assert.Equal(t, KindMean, cfg.Kind)
	assert.Equal(t, []int{1, -1}, cfg.Axes)
	assert.True(t, cfg.KeepDims)
	assert.False(t, cfg.NoopWithEmptyAxes)
	require.NotNil(t, cfg.Parallelism)
	assert.Equal(t, 0, *cfg.Parallelism)
	assert.Equal(t, "mean:axes=1,-1:keepdims:parallelism=0", cfg.String())

	cfg, err = ParseConfig("MAX")
	require.NoError(t, err)
	assert.Equal(t, Config{Kind: KindMax}, cfg)
	assert.Equal(t, "max", cfg.String())

	cfg, err = ParseConfig("min:axes=:noop_empty:keepdims=false")
	require.NoError(t, err)
	assert.Equal(t, []int{}, cfg.Axes)
	assert.True(t, cfg.NoopWithEmptyAxes)
	assert.False(t, cfg.KeepDims)

	for _, bad := range []string{"", "invalid", "sum", "max:axes=a", "max:bogus", "max:keepdims=maybe", "max:parallelism=x"} {
		_, err = ParseConfig(bad)
		assert.Truef(t, errors.Is(err, ErrInvalidConfig), "ParseConfig(%q) returned error %+v", bad, err)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	parallelism := -1
	for _, cfg := range []Config{
		{Kind: KindMin},
		{Kind: KindMax, Axes: []int{0, 2}, KeepDims: true},
		{Kind: KindMean, Axes: []int{}, NoopWithEmptyAxes: true, Parallelism: &parallelism},
	} {
		parsed, err := ParseConfig(cfg.String())
		require.NoError(t, err)
		assert.Equal(t, cfg, parsed)
	}
}

func TestNewFromConfig(t *testing.T) {
	parallelism := 3
	e, err := NewFromConfig(Config{Kind: KindMean, Axes: []int{-1}, Parallelism: &parallelism})
	require.NoError(t, err)
	assert.Equal(t, StateConfigured, e.State())
	assert.Equal(t, 3, e.Parallelism())

	_, err = NewFromConfig(Config{Kind: Kind(17)})
	require.True(t, errors.Is(err, ErrInvalidKind), "got error %+v", err)
}

func TestDefaultParallelism(t *testing.T) {
	t.Setenv(ParallelismEnvVar, "3")
	assert.Equal(t, 3, DefaultParallelism())
	assert.Equal(t, 3, New().Parallelism())
	assert.Equal(t, 0, New(WithParallelism(0)).Parallelism())

	t.Setenv(ParallelismEnvVar, "-1")
	assert.Equal(t, -1, DefaultParallelism())

	t.Setenv(ParallelismEnvVar, "many")
	assert.Equal(t, runtime.NumCPU(), DefaultParallelism())

	t.Setenv(ParallelismEnvVar, "")
	assert.Equal(t, runtime.NumCPU(), DefaultParallelism())
}

func TestKind(t *testing.T) {
	assert.Equal(t, "mean", KindMean.String())
	kind, err := KindString("Min")
	require.NoError(t, err)
	assert.Equal(t, KindMin, kind)
	assert.Equal(t, []string{"invalid", "max", "min", "mean"}, KindStrings())
	assert.False(t, Kind(17).IsAKind())

	text, err := KindMax.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "max", string(text))
	require.NoError(t, kind.UnmarshalText([]byte("mean")))
	assert.Equal(t, KindMean, kind)
}
