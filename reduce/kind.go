// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package reduce

// Kind of reduction performed by the Engine.
type Kind int

//go:generate go tool enumer -type=Kind -trimprefix=Kind -transform=snake -values -text -output=gen_kind_enumer.go kind.go

const (
	// KindInvalid is the zero value, and it is rejected by Configure.
	KindInvalid Kind = iota

	// KindMax takes the maximum of the reduced elements. It also records the flat input offset of the
	// winning element of each output slot, see Engine.LastArgmax.
	KindMax

	// KindMin takes the minimum of the reduced elements.
	KindMin

	// KindMean takes the arithmetic mean of the reduced elements.
	KindMean
)
