// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package reduce implements reductions (Max, Min and Mean) of N-dimensional arrays over an arbitrary set
// of axes, optionally keeping the reduced axes with dimension 1.
//
// Arrays are flat Go slices in row-major order, described by a shapes.Shape. The Engine splits the input
// axes into "outer" axes (kept, they index the output) and "inner" axes (reduced), and folds each group
// of inner elements into one output slot:
//
//	input (2, 3, 4), axes [1]       ->  output (2, 4)
//	input (2, 3, 4), axes [1], keep ->  output (2, 1, 4)
//	input (2, 3, 4), axes []        ->  output () scalar
//
// See Engine for the stateful API (Configure, ResolveShape, Forward), and Run for a one-shot reduction.
package reduce
