package csvarray

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "a,b\n1,2\n3,4.5\n-5,6\n"

func TestRead(t *testing.T) {
	table, err := Read(strings.NewReader(sample), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, table.Columns)
	require.NoError(t, table.Shape.Check(dtypes.Float64, 3, 2))
	assert.Equal(t, []float64{1, 2, 3, 4.5, -5, 6}, table.Flat)

	table, err = Read(strings.NewReader(sample), Options{Columns: []string{"b"}})
	require.NoError(t, err)
	require.NoError(t, table.Shape.CheckDims(3, 1))
	assert.Equal(t, []float64{2, 4.5, 6}, table.Flat)

	table, err = Read(strings.NewReader("1;2;3\n4;5;6\n"), Options{NoHeader: true, Delimiter: ';'})
	require.NoError(t, err)
	require.NoError(t, table.Shape.CheckDims(2, 3))
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, table.Flat)

	_, err = Read(strings.NewReader(sample), Options{Columns: []string{"missing"}})
	require.Error(t, err)
}

func TestReadNonNumeric(t *testing.T) {
	table, err := Read(strings.NewReader("x,y\n1,foo\n2,3\n"), Options{})
	require.NoError(t, err)
	require.Len(t, table.Flat, 4)
	assert.Equal(t, 1.0, table.Flat[0])
	assert.True(t, math.IsNaN(table.Flat[1]))
	assert.Equal(t, 3.0, table.Flat[3])
}

func TestReadFile(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(filePath, []byte(sample), 0o644))
	table, err := ReadFile(filePath, Options{})
	require.NoError(t, err)
	assert.Equal(t, 6, table.Shape.Size())

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"), Options{})
	require.Error(t, err)
}
