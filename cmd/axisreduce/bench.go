// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"time"

	"github.com/gomlx/axisreduce/reduce"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
)

// bench runs Forward numRuns times, displaying a progress bar, and returns the average time per call.
func bench(e *reduce.Engine, input, output any, numRuns int) (time.Duration, error) {
	bar := progressbar.NewOptions(numRuns,
		progressbar.OptionSetDescription("Forward"),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("calls"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
	var total time.Duration
	for range numRuns {
		start := time.Now()
		if err := e.Forward(input, output); err != nil {
			return 0, errors.WithMessage(err, "benchmark")
		}
		total += time.Since(start)
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	return total / time.Duration(numRuns), nil
}
