// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"reflect"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// SupportedDTypes lists the dtypes a flat buffer can hold, in the order they are listed in
// the dtypes enumeration.
var SupportedDTypes = []dtypes.DType{
	dtypes.Int8, dtypes.Int16, dtypes.Int32, dtypes.Int64,
	dtypes.Uint8, dtypes.Uint16, dtypes.Uint32, dtypes.Uint64,
	dtypes.Float16, dtypes.Float32, dtypes.Float64, dtypes.BFloat16,
}

// DTypeOfFlat returns the dtype of the elements of a flat buffer (a Go slice).
// It returns dtypes.InvalidDType if flat is not a slice of a supported type.
func DTypeOfFlat(flat any) dtypes.DType {
	switch flat.(type) {
	case []int8:
		return dtypes.Int8
	case []int16:
		return dtypes.Int16
	case []int32:
		return dtypes.Int32
	case []int64:
		return dtypes.Int64
	case []uint8:
		return dtypes.Uint8
	case []uint16:
		return dtypes.Uint16
	case []uint32:
		return dtypes.Uint32
	case []uint64:
		return dtypes.Uint64
	case []float16.Float16:
		return dtypes.Float16
	case []float32:
		return dtypes.Float32
	case []float64:
		return dtypes.Float64
	case []bfloat16.BFloat16:
		return dtypes.BFloat16
	}
	return dtypes.InvalidDType
}

// FlatLen returns the number of elements in a flat buffer, or -1 if it is not a slice.
func FlatLen(flat any) int {
	v := reflect.ValueOf(flat)
	if v.Kind() != reflect.Slice {
		return -1
	}
	return v.Len()
}

// MakeFlat allocates a flat buffer (a Go slice) for the given dtype and number of elements.
func MakeFlat(dtype dtypes.DType, size int) (any, error) {
	if size < 0 {
		return nil, errors.Errorf("cannot allocate flat buffer of negative size %d", size)
	}
	switch dtype {
	case dtypes.Int8:
		return make([]int8, size), nil
	case dtypes.Int16:
		return make([]int16, size), nil
	case dtypes.Int32:
		return make([]int32, size), nil
	case dtypes.Int64:
		return make([]int64, size), nil
	case dtypes.Uint8:
		return make([]uint8, size), nil
	case dtypes.Uint16:
		return make([]uint16, size), nil
	case dtypes.Uint32:
		return make([]uint32, size), nil
	case dtypes.Uint64:
		return make([]uint64, size), nil
	case dtypes.Float16:
		return make([]float16.Float16, size), nil
	case dtypes.Float32:
		return make([]float32, size), nil
	case dtypes.Float64:
		return make([]float64, size), nil
	case dtypes.BFloat16:
		return make([]bfloat16.BFloat16, size), nil
	}
	return nil, errors.Errorf("dtype %s not supported for flat buffers", dtype)
}

// MakeFlatFor allocates a flat buffer for the given shape.
func MakeFlatFor(shape Shape) (any, error) {
	return MakeFlat(shape.DType, shape.Size())
}
