// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package reduce

import (
	"math"
	"math/bits"

	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/x448/float16"
	"golang.org/x/exp/constraints"
)

// sumMode selects how foldMean accumulates a group.
type sumMode int

const (
	sumFloat    sumMode = iota // float64 sum.
	sumSigned                  // Exact 128-bit two's complement sum of the values sign-extended to 64 bits.
	sumUnsigned                // Exact 128-bit sum of the values zero-extended to 64 bits.
)

// elementOps is the strategy with the few element operations the accumulator needs for one element type.
type elementOps[T any] struct {
	greater, less func(a, b T) bool
	toFloat       func(v T) float64
	fromFloat     func(v float64) T

	// toBits and fromBits convert integers to and from their 64-bit two's complement representation.
	// They are only set for integer types.
	toBits   func(v T) uint64
	fromBits func(v uint64) T

	// lowest and highest are the results of Max and Min over an empty group.
	lowest, highest T
	sum             sumMode
}

func floatOps[T constraints.Float](lowest, highest T) elementOps[T] {
	return elementOps[T]{
		greater:   func(a, b T) bool { return a > b },
		less:      func(a, b T) bool { return a < b },
		toFloat:   func(v T) float64 { return float64(v) },
		fromFloat: func(v float64) T { return T(v) },
		lowest:    lowest,
		highest:   highest,
		sum:       sumFloat,
	}
}

func signedOps[T constraints.Signed](lowest, highest T) elementOps[T] {
	return elementOps[T]{
		greater:  func(a, b T) bool { return a > b },
		less:     func(a, b T) bool { return a < b },
		toFloat:  func(v T) float64 { return float64(v) },
		toBits:   func(v T) uint64 { return uint64(int64(v)) },
		fromBits: func(v uint64) T { return T(int64(v)) },
		lowest:   lowest,
		highest:  highest,
		sum:      sumSigned,
	}
}

func unsignedOps[T constraints.Unsigned](highest T) elementOps[T] {
	return elementOps[T]{
		greater:  func(a, b T) bool { return a > b },
		less:     func(a, b T) bool { return a < b },
		toFloat:  func(v T) float64 { return float64(v) },
		toBits:   func(v T) uint64 { return uint64(v) },
		fromBits: func(v uint64) T { return T(v) },
		lowest:   0,
		highest:  highest,
		sum:      sumUnsigned,
	}
}

var (
	opsInt8    = signedOps[int8](math.MinInt8, math.MaxInt8)
	opsInt16   = signedOps[int16](math.MinInt16, math.MaxInt16)
	opsInt32   = signedOps[int32](math.MinInt32, math.MaxInt32)
	opsInt64   = signedOps[int64](math.MinInt64, math.MaxInt64)
	opsUint8   = unsignedOps[uint8](math.MaxUint8)
	opsUint16  = unsignedOps[uint16](math.MaxUint16)
	opsUint32  = unsignedOps[uint32](math.MaxUint32)
	opsUint64  = unsignedOps[uint64](math.MaxUint64)
	opsFloat32 = floatOps[float32](float32(math.Inf(-1)), float32(math.Inf(1)))
	opsFloat64 = floatOps[float64](math.Inf(-1), math.Inf(1))

	// Half-precision types are compared and accumulated as float32/float64.
	opsFloat16 = elementOps[float16.Float16]{
		greater:   func(a, b float16.Float16) bool { return a.Float32() > b.Float32() },
		less:      func(a, b float16.Float16) bool { return a.Float32() < b.Float32() },
		toFloat:   func(v float16.Float16) float64 { return float64(v.Float32()) },
		fromFloat: func(v float64) float16.Float16 { return float16.Fromfloat32(float32(v)) },
		lowest:    float16.Inf(-1),
		highest:   float16.Inf(1),
		sum:       sumFloat,
	}
	opsBFloat16 = elementOps[bfloat16.BFloat16]{
		greater:   func(a, b bfloat16.BFloat16) bool { return a.Float32() > b.Float32() },
		less:      func(a, b bfloat16.BFloat16) bool { return a.Float32() < b.Float32() },
		toFloat:   func(v bfloat16.BFloat16) float64 { return float64(v.Float32()) },
		fromFloat: func(v float64) bfloat16.BFloat16 { return bfloat16.FromFloat32(float32(v)) },
		lowest:    bfloat16.FromFloat32(float32(math.Inf(-1))),
		highest:   bfloat16.FromFloat32(float32(math.Inf(1))),
		sum:       sumFloat,
	}
)

// accumulator folds the groups of one forward call. Each call to reduceGroup creates the per-slot state
// fresh (it lives in local variables) and writes exactly one output slot.
type accumulator[T any] struct {
	kind   Kind
	ops    elementOps[T]
	part   *partition
	input  []T
	output []T

	// argmax receives the flat input offset of the winner of each slot, for KindMax only.
	argmax []int
}

// reduceGroup folds the group starting at inputBase into output[outputFlat].
func (acc *accumulator[T]) reduceGroup(inputBase, outputFlat int) {
	switch acc.kind {
	case KindMax:
		value, offset := acc.foldExtreme(inputBase, acc.ops.greater, acc.ops.lowest)
		acc.output[outputFlat] = value
		if acc.argmax != nil {
			acc.argmax[outputFlat] = offset
		}
	case KindMin:
		acc.output[outputFlat], _ = acc.foldExtreme(inputBase, acc.ops.less, acc.ops.highest)
	case KindMean:
		acc.output[outputFlat] = acc.foldMean(inputBase)
	}
}

// foldExtreme returns the element of the group for which better(element, best) never held against a later
// element: the first visited element wins ties. For an empty group it returns emptyValue and offset -1.
//
// NaNs never compare as better, so a NaN only survives if it is the first element of the group.
func (acc *accumulator[T]) foldExtreme(inputBase int, better func(a, b T) bool, emptyValue T) (best T, bestOffset int) {
	groupSize := acc.part.groupSize
	if groupSize == 0 {
		return emptyValue, -1
	}
	input := acc.input
	bestOffset = inputBase + acc.part.innerOffset(0)
	best = input[bestOffset]
	if acc.part.innerOffsets == nil {
		for offset := inputBase + 1; offset < inputBase+groupSize; offset++ {
			if better(input[offset], best) {
				best, bestOffset = input[offset], offset
			}
		}
		return
	}
	for _, relative := range acc.part.innerOffsets[1:] {
		offset := inputBase + relative
		if better(input[offset], best) {
			best, bestOffset = input[offset], offset
		}
	}
	return
}

// foldMean returns the average of the group, dividing once by the group size at the end.
// Float types are summed in float64. Integer types are summed exactly and the quotient is truncated
// toward zero, so the result always lies between the group's minimum and maximum.
// For an empty group it returns NaN for float types and 0 for integers.
func (acc *accumulator[T]) foldMean(inputBase int) T {
	groupSize := acc.part.groupSize
	if groupSize == 0 {
		if acc.ops.sum == sumFloat {
			return acc.ops.fromFloat(math.NaN())
		}
		var zero T
		return zero
	}
	if acc.ops.sum != sumFloat {
		return acc.foldIntegerMean(inputBase)
	}
	input := acc.input
	var sum float64
	if acc.part.innerOffsets == nil {
		for _, value := range input[inputBase : inputBase+groupSize] {
			sum += acc.ops.toFloat(value)
		}
	} else {
		for _, relative := range acc.part.innerOffsets {
			sum += acc.ops.toFloat(input[inputBase+relative])
		}
	}
	return acc.ops.fromFloat(sum / float64(groupSize))
}

// foldIntegerMean sums the non-empty group into a 128-bit (hi, lo) pair and divides it by the group size.
//
// Each value is below 2^64 in magnitude, so the magnitude of the sum is below groupSize*2^64, which
// keeps hi < groupSize as bits.Div64 requires.
func (acc *accumulator[T]) foldIntegerMean(inputBase int) T {
	signed := acc.ops.sum == sumSigned
	var hi, lo uint64
	add := func(value T) {
		v := acc.ops.toBits(value)
		var carry uint64
		lo, carry = bits.Add64(lo, v, 0)
		hi += carry
		if signed && int64(v) < 0 {
			hi-- // Sign extension of v into the high word.
		}
	}
	input := acc.input
	groupSize := acc.part.groupSize
	if acc.part.innerOffsets == nil {
		for _, value := range input[inputBase : inputBase+groupSize] {
			add(value)
		}
	} else {
		for _, relative := range acc.part.innerOffsets {
			add(input[inputBase+relative])
		}
	}

	negative := signed && int64(hi) < 0
	if negative {
		var borrow uint64
		lo, borrow = bits.Sub64(0, lo, 0)
		hi, _ = bits.Sub64(0, hi, borrow)
	}
	quotient, _ := bits.Div64(hi, lo, uint64(groupSize))
	if negative {
		quotient = -quotient
	}
	return acc.ops.fromBits(quotient)
}
