// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"reflect"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/axisreduce/internal/npy"
	"github.com/gomlx/axisreduce/reduce"
	"github.com/gomlx/axisreduce/types/shapes"
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Faint(false).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Faint(true).
			PaddingLeft(1).PaddingRight(1)
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 0, 4)
)

// maxPrintedValues limits the number of rows printed by -print.
const maxPrintedValues = 1000

// newPlainTable returns a table with alternating row styles. The first column is right-aligned, the others
// are left-aligned.
func newPlainTable() *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if row == lgtable.HeaderRow {
				return headerRowStyle
			}
			if row%2 == 0 {
				s = oddRowStyle
			} else {
				s = evenRowStyle
			}
			if col == 0 {
				s = s.Align(lipgloss.Right)
			} else {
				s = s.Align(lipgloss.Left)
			}
			return
		})
}

func printSummary(e *reduce.Engine, cfg reduce.Config, input *npy.Array, elapsed time.Duration) {
	inputShape, outputShape := e.InputShape(), e.OutputShape()
	fmt.Println(titleStyle.Render("Reduction"))
	table := newPlainTable()
	table.Row("config", cfg.String())
	table.Row("kind", e.Kind().String())
	table.Row("axes", fmt.Sprintf("%v", e.Axes()))
	table.Row("input", inputShape.String())
	table.Row("output", outputShape.String())
	table.Row("input elements", humanize.Comma(int64(inputShape.Size())))
	table.Row("output elements", humanize.Comma(int64(outputShape.Size())))
	table.Row("input bytes", humanize.Bytes(uint64(inputShape.Memory())))
	table.Row("output bytes", humanize.Bytes(uint64(outputShape.Memory())))
	table.Row("parallelism", fmt.Sprintf("%d", e.Parallelism()))
	table.Row("time", elapsed.String())
	if seconds := elapsed.Seconds(); seconds > 0 {
		throughput := float64(input.Shape.Size()) / seconds
		table.Row("throughput", humanize.SIWithDigits(throughput, 2, "elements/s"))
	}
	fmt.Println(table.Render())
}

// printValues prints the output values with their indices, and the argmax for Max reductions.
func printValues(e *reduce.Engine, output any) {
	outputShape := e.OutputShape()
	argmax := e.LastArgmax()
	inputDims := e.InputShape().Dimensions
	fmt.Println(titleStyle.Render("Values"))
	table := newPlainTable()
	if argmax != nil {
		table.Headers("Index", "Value", "Argmax")
	} else {
		table.Headers("Index", "Value")
	}
	values := reflect.ValueOf(output)
	for flatIdx, indices := range outputShape.Iter() {
		if flatIdx >= maxPrintedValues {
			table.Row("...", fmt.Sprintf("(%s more)", humanize.Comma(int64(outputShape.Size()-flatIdx))))
			break
		}
		row := []string{fmt.Sprintf("%v", indices), fmt.Sprintf("%v", values.Index(flatIdx).Interface())}
		if argmax != nil {
			row = append(row, formatOffset(argmax[flatIdx], inputDims))
		}
		table.Row(row...)
	}
	fmt.Println(table.Render())
}

// formatOffset converts a flat input offset to its indices.
func formatOffset(offset int, dims []int) string {
	if offset < 0 {
		return "-"
	}
	strides := shapes.StridesFor(dims)
	indices := make([]int, len(dims))
	for axis, stride := range strides {
		indices[axis] = offset / stride
		offset %= stride
	}
	return fmt.Sprintf("%v", indices)
}
