// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package reduce

import "github.com/pkg/errors"

// Errors returned by the Engine. They are always wrapped with context, use errors.Is to test for them.
//
// None of them is transient: the Engine never retries nor logs them, it's up to the caller to decide what to do.
var (
	// ErrInvalidAxis is returned when an axis, after resolving negative values, is outside [0, rank).
	ErrInvalidAxis = errors.New("invalid axis")

	// ErrInvalidAxisCount is returned when more axes are given than the input has dimensions.
	ErrInvalidAxisCount = errors.New("invalid number of axes")

	// ErrShapeMismatch is returned by Forward when a buffer disagrees with the last resolved shape.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrNotReady is returned when an operation is called out of order, e.g. Forward before ResolveShape.
	ErrNotReady = errors.New("reduce engine not ready")

	// ErrUnimplemented is returned by the gradient (backward) path, which is not implemented.
	ErrUnimplemented = errors.New("not implemented")

	// ErrInvalidKind is returned when configuring an Engine with an unknown reduction Kind.
	ErrInvalidKind = errors.New("invalid reduction kind")

	// ErrInvalidShape is returned by ResolveShape for inputs that can't be reduced (scalars or negative dimensions).
	ErrInvalidShape = errors.New("invalid input shape")

	// ErrAlreadyConfigured is returned if Configure is called more than once on the same Engine.
	ErrAlreadyConfigured = errors.New("reduce engine already configured")

	// ErrUnsupportedDType is returned by Forward for buffers of an element type it doesn't handle.
	ErrUnsupportedDType = errors.New("unsupported dtype")

	// ErrInvalidConfig is returned by ParseConfig for malformed configuration strings.
	ErrInvalidConfig = errors.New("invalid reduce configuration")
)
