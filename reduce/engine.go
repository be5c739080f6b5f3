// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package reduce

import (
	"fmt"
	"slices"

	"github.com/gomlx/axisreduce/internal/workerspool"
	"github.com/gomlx/axisreduce/types/shapes"
	"github.com/gomlx/axisreduce/types/xslices"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/pkg/errors"
	"github.com/x448/float16"
	"k8s.io/klog/v2"
)

// State of an Engine. Engines move from StateUnconfigured to StateConfigured (Configure) and then to
// StateShapeResolved (ResolveShape). Only a ShapeResolved engine can run Forward.
type State int

const (
	StateUnconfigured State = iota
	StateConfigured
	StateShapeResolved
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "Unconfigured"
	case StateConfigured:
		return "Configured"
	case StateShapeResolved:
		return "ShapeResolved"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// DefaultMinChunkSize is the default minimum number of input elements each parallel chunk of a Forward
// call must fold. Smaller reductions run sequentially.
const DefaultMinChunkSize = 32 * 1024

// Engine reduces N-dimensional arrays, stored as flat row-major Go slices, over a set of axes.
//
// Usage:
//
//	e := reduce.New()
//	err := e.Configure([]int{1}, false, reduce.KindMean)
//	outputShape, err := e.ResolveShape(shapes.Make(dtypes.Float32, 2, 3, 4))
//	output := make([]float32, outputShape.Size())
//	err = e.Forward(input, output)
//
// ResolveShape can be called again, at any time, for a new input shape: the cached traversal metadata is
// always rebuilt.
//
// An Engine is not safe for concurrent use, but Forward itself may use several goroutines internally.
type Engine struct {
	state             State
	kind              Kind
	keepDims          bool
	noopWithEmptyAxes bool

	// rawAxes as given by Configure, and axes as canonicalized by the last ResolveShape.
	rawAxes, axes []int

	inputShape, outputShape shapes.Shape
	part                    *partition

	pool         *workerspool.Pool
	minChunkSize int

	// argmax of the last successful Forward of a KindMax reduction.
	argmax []int
}

// Option for New.
type Option func(e *Engine)

// WithParallelism sets the maximum number of goroutines used by Forward: 0 disables parallelism and -1 makes
// it unlimited. The default is given by DefaultParallelism.
func WithParallelism(parallelism int) Option {
	return func(e *Engine) {
		e.pool = workerspool.NewWithParallelism(parallelism)
	}
}

// WithWorkersPool makes the Engine share the given pool of workers, typically with other engines.
func WithWorkersPool(pool *workerspool.Pool) Option {
	return func(e *Engine) {
		e.pool = pool
	}
}

// WithMinChunkSize sets the minimum number of input elements folded by each parallel chunk.
// Values <= 0 are replaced by 1.
func WithMinChunkSize(size int) Option {
	return func(e *Engine) {
		e.minChunkSize = max(size, 1)
	}
}

// New creates an unconfigured Engine. Call Configure (or ConfigureWith) next.
func New(opts ...Option) *Engine {
	e := &Engine{
		inputShape:   shapes.Invalid(),
		outputShape:  shapes.Invalid(),
		minChunkSize: DefaultMinChunkSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.pool == nil {
		e.pool = workerspool.NewWithParallelism(DefaultParallelism())
	}
	return e
}

// NewFromConfig creates an Engine configured with cfg. Options are applied before cfg.Parallelism.
func NewFromConfig(cfg Config, opts ...Option) (*Engine, error) {
	e := New(opts...)
	if err := e.ConfigureWith(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

// Configure sets the axes to reduce, whether to keep the reduced axes (with dimension 1), and the kind of
// reduction.
//
// Axes can be negative (counting from the end) or repeated: they are validated and canonicalized only
// once the input rank is known, in ResolveShape. An empty list of axes means reducing all axes.
//
// It can only be called once per Engine, the second call returns ErrAlreadyConfigured.
func (e *Engine) Configure(rawAxes []int, keepDims bool, kind Kind) error {
	return e.ConfigureWith(Config{Kind: kind, Axes: rawAxes, KeepDims: keepDims})
}

// ConfigureWith is like Configure, but takes all parameters from cfg.
func (e *Engine) ConfigureWith(cfg Config) error {
	if e.state != StateUnconfigured {
		return errors.Wrapf(ErrAlreadyConfigured, "engine is in state %s", e.state)
	}
	if cfg.Kind == KindInvalid || !cfg.Kind.IsAKind() {
		return errors.Wrapf(ErrInvalidKind, "kind %s", cfg.Kind)
	}
	if cfg.Parallelism != nil {
		e.pool = workerspool.NewWithParallelism(*cfg.Parallelism)
	}
	e.kind = cfg.Kind
	e.keepDims = cfg.KeepDims
	e.noopWithEmptyAxes = cfg.NoopWithEmptyAxes
	e.rawAxes = slices.Clone(cfg.Axes)
	e.state = StateConfigured
	klog.V(1).Infof("reduce: configured %s", e)
	return nil
}

// ResolveShape validates the configured axes against the input shape, and returns the output shape.
// The output has the same dtype as the input.
//
// It can be called repeatedly with different shapes: each call rebuilds the traversal metadata. If it fails,
// the engine drops back to StateConfigured, and Forward is not possible until a successful ResolveShape.
//
// The input shape dtype may be dtypes.InvalidDType, in which case Forward accepts buffers of any
// supported dtype.
func (e *Engine) ResolveShape(input shapes.Shape) (shapes.Shape, error) {
	if e.state == StateUnconfigured {
		return shapes.Invalid(), errors.Wrap(ErrNotReady, "ResolveShape called before Configure")
	}
	e.dropResolved()
	rank := input.Rank()
	if rank == 0 {
		return shapes.Invalid(), errors.Wrapf(ErrInvalidShape, "cannot reduce scalar shape %s", input)
	}
	if _, err := shapes.FromDimensions(input.DType, input.Dimensions...); err != nil {
		return shapes.Invalid(), errors.Wrapf(ErrInvalidShape, "%v", err)
	}
	axes, err := ResolveAxes(rank, e.rawAxes)
	if err != nil {
		return shapes.Invalid(), errors.WithMessagef(err, "resolving axes for input shape %s", input)
	}

	inputDims := slices.Clone(input.Dimensions)
	var outputDims []int
	if len(axes) == 0 && e.noopWithEmptyAxes {
		// Identity reduction: every axis is an outer axis.
		outputDims = slices.Clone(inputDims)
	} else {
		if len(axes) == 0 {
			axes = xslices.Iota(0, rank)
		}
		outputDims = OutputDimensions(inputDims, axes, e.keepDims)
	}

	e.axes = axes
	e.inputShape = shapes.Shape{DType: input.DType, Dimensions: inputDims}
	e.outputShape = shapes.Shape{DType: input.DType, Dimensions: outputDims}
	e.part = newPartition(inputDims, axes, outputDims)
	e.state = StateShapeResolved
	klog.V(1).Infof("reduce: resolved %s -> %s, %s", e.inputShape, e.outputShape, e.part)
	return e.outputShape.Clone(), nil
}

// dropResolved discards the metadata of the last resolved shape, returning to StateConfigured.
func (e *Engine) dropResolved() {
	e.axes = nil
	e.inputShape = shapes.Invalid()
	e.outputShape = shapes.Invalid()
	e.part = nil
	e.argmax = nil
	if e.state == StateShapeResolved {
		e.state = StateConfigured
	}
}

// Forward reduces input into output. Both must be flat slices of the same element type, with the sizes
// of the last resolved input and output shapes.
//
// For KindMax it also records the argmax of each output slot, see LastArgmax.
func (e *Engine) Forward(input, output any) error {
	if e.state != StateShapeResolved {
		return errors.Wrapf(ErrNotReady, "Forward called in state %s, ResolveShape must succeed first", e.state)
	}
	dtype := shapes.DTypeOfFlat(input)
	if dtype == dtypes.InvalidDType {
		return errors.Wrapf(ErrUnsupportedDType, "input buffer of type %T", input)
	}
	if outputDType := shapes.DTypeOfFlat(output); outputDType != dtype {
		return errors.Wrapf(ErrShapeMismatch, "output buffer of type %T doesn't match input buffer of type %T", output, input)
	}
	if e.inputShape.DType != dtypes.InvalidDType && e.inputShape.DType != dtype {
		return errors.Wrapf(ErrShapeMismatch, "input buffer dtype %s doesn't match resolved shape %s", dtype, e.inputShape)
	}
	if got, want := shapes.FlatLen(input), e.inputShape.Size(); got != want {
		return errors.Wrapf(ErrShapeMismatch, "input buffer has %d elements, resolved shape %s requires %d", got, e.inputShape, want)
	}
	if got, want := shapes.FlatLen(output), e.outputShape.Size(); got != want {
		return errors.Wrapf(ErrShapeMismatch, "output buffer has %d elements, resolved shape %s requires %d", got, e.outputShape, want)
	}

	var argmax []int
	if e.kind == KindMax {
		argmax = make([]int, e.part.numOuter)
	}
	switch flat := input.(type) {
	case []int8:
		forward(e, opsInt8, flat, output.([]int8), argmax)
	case []int16:
		forward(e, opsInt16, flat, output.([]int16), argmax)
	case []int32:
		forward(e, opsInt32, flat, output.([]int32), argmax)
	case []int64:
		forward(e, opsInt64, flat, output.([]int64), argmax)
	case []uint8:
		forward(e, opsUint8, flat, output.([]uint8), argmax)
	case []uint16:
		forward(e, opsUint16, flat, output.([]uint16), argmax)
	case []uint32:
		forward(e, opsUint32, flat, output.([]uint32), argmax)
	case []uint64:
		forward(e, opsUint64, flat, output.([]uint64), argmax)
	case []float32:
		forward(e, opsFloat32, flat, output.([]float32), argmax)
	case []float64:
		forward(e, opsFloat64, flat, output.([]float64), argmax)
	case []float16.Float16:
		forward(e, opsFloat16, flat, output.([]float16.Float16), argmax)
	case []bfloat16.BFloat16:
		forward(e, opsBFloat16, flat, output.([]bfloat16.BFloat16), argmax)
	default:
		return errors.Wrapf(ErrUnsupportedDType, "input buffer of type %T", input)
	}
	e.argmax = argmax
	return nil
}

// forward runs the reduction for one element type.
func forward[T any](e *Engine, ops elementOps[T], input, output []T, argmax []int) {
	part := e.part
	acc := &accumulator[T]{
		kind:   e.kind,
		ops:    ops,
		part:   part,
		input:  input,
		output: output,
		argmax: argmax,
	}
	if part.reduceAll {
		acc.reduceGroup(0, 0)
		return
	}
	minRange := 1
	if part.groupSize > 0 {
		minRange = max(1, e.minChunkSize/part.groupSize)
	}
	e.pool.ParallelFor(part.numOuter, minRange, func(start, end int) {
		part.walkOuter(start, end, acc.reduceGroup)
	})
}

// Backward would compute the gradient of the reduction. It is not implemented and always returns
// ErrUnimplemented.
func (e *Engine) Backward(outputGrad, inputGrad any) error {
	return errors.Wrapf(ErrUnimplemented, "Backward of %s reduction", e.kind)
}

// LastArgmax returns, for each output slot of the last successful Forward of a KindMax reduction, the flat
// offset in the input buffer of the maximum element. Ties are won by the first element in row-major
// order. For slots folding zero elements the offset is -1.
//
// It returns nil for other kinds, or if there was no successful Forward since the last ResolveShape.
func (e *Engine) LastArgmax() []int {
	return e.argmax
}

// ArgmaxGroupPositions returns the same winners as LastArgmax, but expressed as the row-major position of the
// element within its reduced group (the reduced axes only, in ascending axis order).
func (e *Engine) ArgmaxGroupPositions() []int {
	if e.argmax == nil {
		return nil
	}
	positions := make([]int, len(e.argmax))
	for ii, offset := range e.argmax {
		if offset < 0 {
			positions[ii] = -1
			continue
		}
		positions[ii] = e.part.groupPosition(offset)
	}
	return positions
}

// State returns the current state of the engine.
func (e *Engine) State() State { return e.state }

// Kind of reduction configured.
func (e *Engine) Kind() Kind { return e.kind }

// KeepDims returns whether reduced axes are kept with dimension 1.
func (e *Engine) KeepDims() bool { return e.keepDims }

// Axes returns the canonical axes resolved by the last successful ResolveShape, or the raw configured
// axes if no shape is resolved.
func (e *Engine) Axes() []int {
	if e.state == StateShapeResolved {
		return slices.Clone(e.axes)
	}
	return slices.Clone(e.rawAxes)
}

// InputShape returns the last resolved input shape, or an invalid shape.
func (e *Engine) InputShape() shapes.Shape { return e.inputShape.Clone() }

// OutputShape returns the last resolved output shape, or an invalid shape.
func (e *Engine) OutputShape() shapes.Shape { return e.outputShape.Clone() }

// Parallelism returns the maximum parallelism of the engine's pool of workers.
func (e *Engine) Parallelism() int { return e.pool.MaxParallelism() }

// String implements fmt.Stringer.
func (e *Engine) String() string {
	switch e.state {
	case StateUnconfigured:
		return "Engine{Unconfigured}"
	case StateConfigured:
		return fmt.Sprintf("Engine{%s, axes=%v, keepDims=%v}", e.kind, e.rawAxes, e.keepDims)
	default:
		return fmt.Sprintf("Engine{%s, axes=%v, keepDims=%v, %s -> %s}", e.kind, e.axes, e.keepDims, e.inputShape, e.outputShape)
	}
}

// Run is a convenience one-shot reduction: it creates an Engine configured with cfg, resolves inputShape,
// allocates the output buffer and runs Forward.
func Run(input any, inputShape shapes.Shape, cfg Config) (output any, outputShape shapes.Shape, err error) {
	e, err := NewFromConfig(cfg)
	if err != nil {
		return nil, shapes.Invalid(), err
	}
	if inputShape.DType == dtypes.InvalidDType {
		inputShape = shapes.Shape{DType: shapes.DTypeOfFlat(input), Dimensions: inputShape.Dimensions}
	}
	outputShape, err = e.ResolveShape(inputShape)
	if err != nil {
		return nil, shapes.Invalid(), err
	}
	output, err = shapes.MakeFlatFor(outputShape)
	if err != nil {
		return nil, shapes.Invalid(), errors.Wrapf(ErrUnsupportedDType, "allocating output for %s: %v", outputShape, err)
	}
	if err = e.Forward(input, output); err != nil {
		return nil, shapes.Invalid(), err
	}
	return output, outputShape, nil
}
