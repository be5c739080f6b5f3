// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package npy reads and writes flat arrays in NumPy's .npy and .npz file formats.
package npy

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/gomlx/axisreduce/types/shapes"
	"github.com/gomlx/axisreduce/types/xslices"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Array is a flat row-major buffer (a Go slice, see shapes.DTypeOfFlat) and its shape.
type Array struct {
	Shape shapes.Shape
	Flat  any
}

// NewArray returns an Array after checking that flat matches shape.
func NewArray(shape shapes.Shape, flat any) (*Array, error) {
	if dtype := shapes.DTypeOfFlat(flat); dtype != shape.DType {
		return nil, errors.Errorf("flat buffer of type %T doesn't match shape %s", flat, shape)
	}
	if shapes.FlatLen(flat) != shape.Size() {
		return nil, errors.Errorf("flat buffer has %d elements, shape %s requires %d", shapes.FlatLen(flat), shape, shape.Size())
	}
	return &Array{Shape: shape, Flat: flat}, nil
}

const magic = "\x93NUMPY"

var (
	reDescr   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	reFortran = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	reShape   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// ReadFile reads a .npy file.
func ReadFile(filePath string) (*Array, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open .npy file %q", filePath)
	}
	defer func() { _ = file.Close() }()
	array, err := Read(bufio.NewReader(file))
	if err != nil {
		return nil, errors.WithMessagef(err, "reading %q", filePath)
	}
	return array, nil
}

// Read reads an array in .npy format from r.
//
// Both little and big-endian data are accepted, as well as Fortran (column-major) order, which is converted
// to row-major.
func Read(r io.Reader) (*Array, error) {
	preamble := make([]byte, len(magic)+2)
	if _, err := io.ReadFull(r, preamble); err != nil {
		return nil, errors.Wrap(err, "failed to read magic string and version")
	}
	if string(preamble[:len(magic)]) != magic {
		return nil, errors.New("invalid .npy file format: magic string mismatch")
	}
	major, minor := preamble[len(magic)], preamble[len(magic)+1]

	var headerLen int
	switch {
	case major == 1:
		var lenBytes [2]byte
		if _, err := io.ReadFull(r, lenBytes[:]); err != nil {
			return nil, errors.Wrap(err, "failed to read header length (v1.0)")
		}
		headerLen = int(binary.LittleEndian.Uint16(lenBytes[:]))
	case major >= 2:
		var lenBytes [4]byte
		if _, err := io.ReadFull(r, lenBytes[:]); err != nil {
			return nil, errors.Wrap(err, "failed to read header length (v2.0+)")
		}
		headerLen = int(binary.LittleEndian.Uint32(lenBytes[:]))
	default:
		return nil, errors.Errorf("unsupported .npy version: %d.%d", major, minor)
	}

	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, errors.Wrap(err, "failed to read header")
	}
	descr, dims, fortranOrder, err := parseHeader(string(headerBytes))
	if err != nil {
		return nil, err
	}
	dtype, byteOrder, err := dtypeFromDescr(descr)
	if err != nil {
		return nil, err
	}
	shape, err := shapes.FromDimensions(dtype, dims...)
	if err != nil {
		return nil, errors.WithMessage(err, "invalid shape in .npy header")
	}

	// The buffer grows as data arrives, so a header claiming more data than the stream holds fails
	// without allocating the full size upfront.
	var dataBuf bytes.Buffer
	if n, err := io.CopyN(&dataBuf, r, int64(shape.Memory())); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s array data (expected %d bytes, got %d)", shape, shape.Memory(), n)
	}
	data := dataBuf.Bytes()
	if fortranOrder && shape.Rank() > 1 {
		klog.V(1).Infof("npy: converting %s from Fortran order", shape)
		data = fortranToRowMajor(int(dtype.Size()), shape.Dimensions, data)
	}
	flat, err := shapes.MakeFlatFor(shape)
	if err != nil {
		return nil, err
	}
	if err = binary.Read(bytes.NewReader(data), byteOrder, flat); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s data", shape)
	}
	return &Array{Shape: shape, Flat: flat}, nil
}

// fortranToRowMajor reorders the elements of a column-major buffer into row-major order.
func fortranToRowMajor(elementSize int, dims []int, fortranData []byte) []byte {
	data := make([]byte, len(fortranData))
	fortranStrides := make([]int, len(dims))
	stride := 1
	for axis, dim := range dims {
		fortranStrides[axis] = stride
		stride *= dim
	}
	shape := shapes.Shape{DType: dtypes.Uint8, Dimensions: dims}
	for flatIdx, indices := range shape.Iter() {
		fortranIdx := 0
		for axis, idx := range indices {
			fortranIdx += idx * fortranStrides[axis]
		}
		copy(data[flatIdx*elementSize:(flatIdx+1)*elementSize], fortranData[fortranIdx*elementSize:(fortranIdx+1)*elementSize])
	}
	return data
}

// parseHeader extracts the dtype descriptor, the shape and the order from a .npy header, something like
// "{'descr': '<f4', 'fortran_order': False, 'shape': (1, 2, 3), }".
func parseHeader(header string) (descr string, dims []int, fortranOrder bool, err error) {
	m := reDescr.FindStringSubmatch(header)
	if len(m) < 2 {
		err = errors.Errorf("could not find 'descr' in .npy header %q", header)
		return
	}
	descr = m[1]

	m = reFortran.FindStringSubmatch(header)
	if len(m) < 2 {
		err = errors.Errorf("could not find 'fortran_order' in .npy header %q", header)
		return
	}
	fortranOrder = m[1] == "True"

	m = reShape.FindStringSubmatch(header)
	if len(m) < 2 {
		err = errors.Errorf("could not find 'shape' in .npy header %q", header)
		return
	}
	// Drop the trailing comma of 1D tuples, like "(10,)".
	shapeStr := strings.TrimSuffix(strings.TrimSpace(m[1]), ",")
	dims, err = xslices.ParseInts(shapeStr)
	if err != nil {
		err = errors.WithMessagef(err, "invalid shape in .npy header %q", header)
	}
	return
}

// dtypeFromDescr converts a NumPy dtype descriptor (e.g. "<f4") to a dtype and its byte order.
func dtypeFromDescr(descr string) (dtypes.DType, binary.ByteOrder, error) {
	var byteOrder binary.ByteOrder = binary.LittleEndian
	code := descr
	if len(code) > 0 {
		switch code[0] {
		case '<', '|', '=':
			code = code[1:]
		case '>':
			byteOrder = binary.BigEndian
			code = code[1:]
		}
	}
	for dtype, npyCode := range npyCodes {
		if npyCode == code {
			return dtype, byteOrder, nil
		}
	}
	return dtypes.InvalidDType, nil, errors.Errorf("unsupported NumPy dtype %q", descr)
}

var npyCodes = map[dtypes.DType]string{
	dtypes.Int8:    "i1",
	dtypes.Int16:   "i2",
	dtypes.Int32:   "i4",
	dtypes.Int64:   "i8",
	dtypes.Uint8:   "u1",
	dtypes.Uint16:  "u2",
	dtypes.Uint32:  "u4",
	dtypes.Uint64:  "u8",
	dtypes.Float16: "f2",
	dtypes.Float32: "f4",
	dtypes.Float64: "f8",
}

// headerFor returns the .npy header (without the preamble) for shape, padded with spaces and terminated
// by a newline so that the data starts at a multiple of 64 bytes.
func headerFor(shape shapes.Shape) (string, error) {
	code, found := npyCodes[shape.DType]
	if !found {
		return "", errors.Errorf("dtype %s has no standard .npy representation", shape.DType)
	}
	descr := "<" + code
	if shape.DType.Size() == 1 {
		descr = "|" + code
	}
	var shapeTuple string
	switch shape.Rank() {
	case 0:
		shapeTuple = "()"
	case 1:
		shapeTuple = fmt.Sprintf("(%d,)", shape.Dimensions[0])
	default:
		shapeTuple = "(" + strings.Join(xslices.Map(shape.Dimensions, strconv.Itoa), ", ") + ")"
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", descr, shapeTuple)
	const preambleLen = len(magic) + 2 + 2
	padding := 64 - (preambleLen+len(header)+1)%64
	if padding == 64 {
		padding = 0
	}
	return header + strings.Repeat(" ", padding) + "\n", nil
}

// Write serializes the array to w in .npy format (version 1.0, little-endian, row-major).
func Write(w io.Writer, array *Array) error {
	header, err := headerFor(array.Shape)
	if err != nil {
		return err
	}
	if len(header) > 0xFFFF {
		return errors.Errorf("header for shape %s is too long", array.Shape)
	}
	preamble := []byte(magic + "\x01\x00")
	preamble = binary.LittleEndian.AppendUint16(preamble, uint16(len(header)))
	if _, err = w.Write(preamble); err != nil {
		return errors.Wrap(err, "failed to write .npy preamble")
	}
	if _, err = io.WriteString(w, header); err != nil {
		return errors.Wrap(err, "failed to write .npy header")
	}
	if err = binary.Write(w, binary.LittleEndian, array.Flat); err != nil {
		return errors.Wrapf(err, "failed to write %s data", array.Shape)
	}
	return nil
}

// WriteFile writes the array to a .npy file.
func WriteFile(filePath string, array *Array) error {
	file, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to create .npy file %q", filePath)
	}
	writer := bufio.NewWriter(file)
	if err = Write(writer, array); err != nil {
		_ = file.Close()
		return errors.WithMessagef(err, "writing %q", filePath)
	}
	if err = writer.Flush(); err != nil {
		_ = file.Close()
		return errors.Wrapf(err, "writing %q", filePath)
	}
	return errors.Wrapf(file.Close(), "closing %q", filePath)
}

// ReadNpzFile reads all the arrays of a .npz file, keyed by name (the file names without ".npy").
func ReadNpzFile(filePath string) (map[string]*Array, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open .npz file %q", filePath)
	}
	defer func() { _ = file.Close() }()
	info, err := file.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat .npz file %q", filePath)
	}
	return ReadNpz(file, info.Size())
}

// ReadNpz reads the arrays of a .npz archive. Entries that are not .npy files are skipped.
func ReadNpz(r io.ReaderAt, size int64) (map[string]*Array, error) {
	zipReader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open .npz archive")
	}
	arrays := make(map[string]*Array, len(zipReader.File))
	for _, f := range zipReader.File {
		cleanPath := path.Clean(f.Name)
		if path.IsAbs(cleanPath) || strings.HasPrefix(cleanPath, "..") {
			return nil, errors.Errorf("invalid path in .npz archive: %q (normalized to %q)", f.Name, cleanPath)
		}
		if !strings.HasSuffix(f.Name, ".npy") {
			klog.V(1).Infof("npy: skipping %q in .npz archive", f.Name)
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open %q within .npz", f.Name)
		}
		array, err := Read(rc)
		_ = rc.Close()
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to read array %q from .npz", f.Name)
		}
		arrays[strings.TrimSuffix(f.Name, ".npy")] = array
	}
	return arrays, nil
}

// WriteNpz writes the arrays to w as a .npz archive, in sorted name order.
func WriteNpz(w io.Writer, arrays map[string]*Array) error {
	zipWriter := zip.NewWriter(w)
	for _, name := range Names(arrays) {
		fileWriter, err := zipWriter.Create(name + ".npy")
		if err != nil {
			return errors.Wrapf(err, "failed to create %q in .npz archive", name+".npy")
		}
		if err = Write(fileWriter, arrays[name]); err != nil {
			return errors.WithMessagef(err, "failed to write array %q to .npz archive", name)
		}
	}
	return errors.Wrap(zipWriter.Close(), "failed to close .npz archive")
}

// Names returns the sorted names of the arrays, as read by ReadNpz.
func Names(arrays map[string]*Array) []string {
	names := make([]string, 0, len(arrays))
	for name := range arrays {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
