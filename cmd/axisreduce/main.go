// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// axisreduce reduces an N-dimensional array, loaded from a .npy/.npz or .csv file (or generated), over a
// set of axes, and prints a summary of the reduction.
//
// Examples:
//
//	axisreduce -iota=2,3,4 -kind=mean -axes=1 -print
//	axisreduce -input=x.npy -config="max:axes=0,-1:keepdims" -output=y.npy
//	axisreduce -csv=data.csv -kind=mean -axes=0 -print
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomlx/axisreduce/internal/csvarray"
	"github.com/gomlx/axisreduce/internal/fsutil"
	"github.com/gomlx/axisreduce/internal/npy"
	"github.com/gomlx/axisreduce/reduce"
	"github.com/gomlx/axisreduce/types/shapes"
	"github.com/gomlx/axisreduce/types/xslices"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagInput      = flag.String("input", "", "Input array in .npy or .npz format.")
	flagArray      = flag.String("array", "", "Name of the array to reduce, if -input is a .npz file with more than one array.")
	flagCSV        = flag.String("csv", "", "Input array from a CSV file with a header: it is loaded as a (rows, columns) float64 array.")
	flagCSVColumns = flag.String("csv_columns", "", "Comma-separated list of columns to load from the -csv file. Default is all.")
	flagIota       = flag.String("iota", "", "Generate the input as a float32 array with the given comma-separated dimensions, "+
		"with values 0, 1, ..., N-1.")

	flagConfig = flag.String("config", "", "Reduction configuration formatted as "+
		"\"<kind>[:axes=<a0>,<a1>,...][:keepdims][:noop_empty][:parallelism=<n>]\". "+
		"If set, it takes precedence over -kind, -axes, -keepdims and -noop_empty.")
	flagKind = flag.String("kind", "max", fmt.Sprintf("Kind of reduction, one of %q.",
		reduce.KindStrings()[1:]))
	flagAxes = xslices.Flag("axes", nil, "Comma-separated list of axes to reduce, negative values count from "+
		"the end. Default is all axes.", strconv.Atoi)
	flagKeepDims    = flag.Bool("keepdims", false, "Keep the reduced axes in the output, with dimension 1.")
	flagNoopEmpty   = flag.Bool("noop_empty", false, "If no axes are given, output the input unchanged instead of reducing all axes.")
	flagParallelism = flag.Int("parallelism", reduce.DefaultParallelism(), "Maximum number of goroutines used by the "+
		"reduction, 0 for sequential, -1 for unlimited. Default is read from $"+reduce.ParallelismEnvVar+".")

	flagOutput = flag.String("output", "", "Save the reduced array in .npy format.")
	flagForce  = flag.Bool("force", false, "Overwrite the -output file if it already exists.")
	flagBench  = flag.Int("bench", 0, "If > 0, run the reduction this number of times and report the average time.")
	flagPrint  = flag.Bool("print", false, "Print the values of the reduced array.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if flag.NArg() > 0 {
		klog.Errorf("Unexpected arguments %q. See 'axisreduce -help'.", flag.Args())
		os.Exit(1)
	}
	if termenv.NewOutput(os.Stdout).EnvColorProfile() == termenv.Ascii {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	cfg, err := configFromFlags()
	if err != nil {
		klog.Fatalf("Invalid reduction configuration: %+v", err)
	}
	*flagInput = must.M1(fsutil.ExpandPath(*flagInput))
	*flagCSV = must.M1(fsutil.ExpandPath(*flagCSV))
	outputPath, err := fsutil.CheckOutput(*flagOutput, *flagForce)
	if err != nil {
		klog.Fatalf("Invalid -output: %v", err)
	}
	input := must.M1(loadInput())
	e := must.M1(reduce.NewFromConfig(cfg))
	outputShape, err := e.ResolveShape(input.Shape)
	if err != nil {
		klog.Fatalf("Cannot reduce %s with %s: %v", input.Shape, cfg, err)
	}
	output := must.M1(shapes.MakeFlatFor(outputShape))

	start := time.Now()
	must.M(e.Forward(input.Flat, output))
	elapsed := time.Since(start)
	if *flagBench > 0 {
		elapsed = must.M1(bench(e, input.Flat, output, *flagBench))
	}

	printSummary(e, cfg, input, elapsed)
	if *flagPrint {
		printValues(e, output)
	}
	if outputPath != "" {
		must.M(npy.WriteFile(outputPath, &npy.Array{Shape: outputShape, Flat: output}))
		klog.V(1).Infof("Saved output %s to %q", outputShape, outputPath)
	}
}

// configFromFlags returns the reduction configuration from -config or, if not set, from the individual flags.
func configFromFlags() (cfg reduce.Config, err error) {
	if *flagConfig != "" {
		cfg, err = reduce.ParseConfig(*flagConfig)
		if err != nil {
			return
		}
	} else {
		cfg.Kind, err = reduce.KindString(*flagKind)
		if err != nil || cfg.Kind == reduce.KindInvalid {
			return cfg, errors.Wrapf(reduce.ErrInvalidKind, "-kind=%q, valid values are %q", *flagKind, reduce.KindStrings()[1:])
		}
		cfg.Axes = *flagAxes
		cfg.KeepDims = *flagKeepDims
		cfg.NoopWithEmptyAxes = *flagNoopEmpty
	}
	if cfg.Parallelism == nil {
		parallelism := *flagParallelism
		cfg.Parallelism = &parallelism
	}
	return cfg, nil
}

// loadInput loads the input array from exactly one of -input, -csv or -iota.
func loadInput() (*npy.Array, error) {
	numSources := 0
	for _, source := range []string{*flagInput, *flagCSV, *flagIota} {
		if source != "" {
			numSources++
		}
	}
	if numSources != 1 {
		return nil, errors.New("exactly one of -input, -csv or -iota must be given")
	}

	switch {
	case *flagIota != "":
		return iotaArray(*flagIota)

	case *flagCSV != "":
		var opts csvarray.Options
		if *flagCSVColumns != "" {
			opts.Columns = strings.Split(*flagCSVColumns, ",")
		}
		table, err := csvarray.ReadFile(*flagCSV, opts)
		if err != nil {
			return nil, err
		}
		klog.V(1).Infof("Loaded columns %q from %q", table.Columns, *flagCSV)
		return &npy.Array{Shape: table.Shape, Flat: table.Flat}, nil

	case strings.HasSuffix(*flagInput, ".npz"):
		arrays, err := npy.ReadNpzFile(*flagInput)
		if err != nil {
			return nil, err
		}
		return selectArray(arrays, *flagArray)

	default:
		return npy.ReadFile(*flagInput)
	}
}

// selectArray picks the array with the given name, or the only array if name is empty.
func selectArray(arrays map[string]*npy.Array, name string) (*npy.Array, error) {
	if name == "" {
		if len(arrays) != 1 {
			return nil, errors.Errorf("-array must select one of the arrays %q", npy.Names(arrays))
		}
		for _, array := range arrays {
			return array, nil
		}
	}
	array, found := arrays[name]
	if !found {
		return nil, errors.Errorf("array %q not found, available arrays: %q", name, npy.Names(arrays))
	}
	return array, nil
}

// iotaArray creates a float32 array with the given dimensions and values 0, 1, ..., N-1.
func iotaArray(dimsStr string) (*npy.Array, error) {
	dims, err := xslices.ParseInts(dimsStr)
	if err != nil {
		return nil, errors.WithMessage(err, "-iota")
	}
	shape, err := shapes.FromDimensions(dtypes.Float32, dims...)
	if err != nil {
		return nil, errors.WithMessage(err, "-iota")
	}
	flat := make([]float32, shape.Size())
	for ii := range flat {
		flat[ii] = float32(ii)
	}
	return &npy.Array{Shape: shape, Flat: flat}, nil
}
