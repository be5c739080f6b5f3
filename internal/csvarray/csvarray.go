// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package csvarray loads numeric CSV files as rank-2 (rows x columns) float64 arrays.
package csvarray

import (
	"io"
	"math"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/gomlx/axisreduce/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Options for Read and ReadFile.
type Options struct {
	// NoHeader indicates the first line holds values, not column names.
	NoHeader bool

	// Columns to load, in order. If empty, all columns are loaded.
	Columns []string

	// Delimiter between values, ',' if zero.
	Delimiter rune
}

// Table is a CSV file loaded as a row-major float64 array of shape (rows, columns).
// Values that can't be parsed as numbers are NaN.
type Table struct {
	Columns []string
	Shape   shapes.Shape
	Flat    []float64
}

// ReadFile loads the CSV file in filePath.
func ReadFile(filePath string, opts Options) (*Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open CSV file %q", filePath)
	}
	defer func() { _ = file.Close() }()
	table, err := Read(file, opts)
	if err != nil {
		return nil, errors.WithMessagef(err, "loading %q", filePath)
	}
	return table, nil
}

// Read loads a CSV from r.
func Read(r io.Reader, opts Options) (*Table, error) {
	loadOptions := []dataframe.LoadOption{
		dataframe.HasHeader(!opts.NoHeader),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.Float),
	}
	if opts.Delimiter != 0 {
		loadOptions = append(loadOptions, dataframe.WithDelimiter(opts.Delimiter))
	}
	df := dataframe.ReadCSV(r, loadOptions...)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "failed to parse CSV")
	}
	if len(opts.Columns) > 0 {
		df = df.Select(opts.Columns)
		if df.Err != nil {
			return nil, errors.Wrapf(df.Err, "failed to select columns %q", opts.Columns)
		}
	}

	numRows, numCols := df.Nrow(), df.Ncol()
	table := &Table{
		Columns: df.Names(),
		Shape:   shapes.Make(dtypes.Float64, numRows, numCols),
		Flat:    make([]float64, numRows*numCols),
	}
	for col, name := range table.Columns {
		numNaN := 0
		for row, value := range df.Col(name).Float() {
			table.Flat[row*numCols+col] = value
			if math.IsNaN(value) {
				numNaN++
			}
		}
		if numNaN > 0 {
			klog.Warningf("CSV column %q has %d non-numeric values, loaded as NaN", name, numNaN)
		}
	}
	return table, nil
}
