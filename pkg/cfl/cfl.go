// Package cfl reads and writes arrays in the BART cfl format.
//
// An array is stored as two files sharing a base name: <base>.hdr holds the
// dimensions as text and <base>.cfl holds the samples as little-endian
// interleaved float32 real/imaginary pairs in column-major order (the first
// dimension varies fastest). Axis i of a models.Array maps to dimension i of
// the header; conversion between the two memory orders happens on load and save.
package cfl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"kspacedown/internal/models"
)

// headerDims is the number of dimensions BART writes to every header
const headerDims = 16

// ReadHeader parses <base>.hdr and returns every dimension listed in it
func ReadHeader(base string) ([]int, error) {
	f, err := os.Open(base + ".hdr")
	if err != nil {
		return nil, fmt.Errorf("error opening header: %w", err)
	}
	defer f.Close()

	return parseHeader(f)
}

func parseHeader(r io.Reader) ([]int, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "# Dimensions" {
			continue
		}
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			return nil, fmt.Errorf("empty dimensions line")
		}
		dims := make([]int, len(fields))
		for i, field := range fields {
			d, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("invalid dimension %q: %w", field, err)
			}
			if d < 0 {
				return nil, fmt.Errorf("negative dimension %d", d)
			}
			dims[i] = d
		}
		return dims, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}
	return nil, fmt.Errorf("header has no dimensions section")
}

// ReadComplex loads <base>.hdr/<base>.cfl as a complex array of the given rank.
// Header dimensions beyond rank must be 1.
func ReadComplex(base string, rank int) (*models.ComplexArray, error) {
	return readArray(base, rank, func(v complex64) complex128 {
		return complex128(v)
	})
}

// ReadReal loads a cfl array keeping only the real part of every sample.
// BART stores trajectories this way.
func ReadReal(base string, rank int) (*models.RealArray, error) {
	return readArray(base, rank, func(v complex64) float64 {
		return float64(real(v))
	})
}

// WriteComplex saves a complex array as <base>.hdr/<base>.cfl
func WriteComplex(base string, a *models.ComplexArray) error {
	return writeArray(base, a, func(v complex128) complex64 {
		return complex64(v)
	})
}

// WriteReal saves a real array as a cfl array with zero imaginary parts
func WriteReal(base string, a *models.RealArray) error {
	return writeArray(base, a, func(v float64) complex64 {
		return complex(float32(v), 0)
	})
}

func readArray[T models.Element](base string, rank int, convert func(complex64) T) (*models.Array[T], error) {
	dims, err := ReadHeader(base)
	if err != nil {
		return nil, err
	}
	shape, err := trimDims(dims, rank)
	if err != nil {
		return nil, fmt.Errorf("%s.hdr: %w", base, err)
	}

	f, err := os.Open(base + ".cfl")
	if err != nil {
		return nil, fmt.Errorf("error opening data: %w", err)
	}
	defer f.Close()

	out := models.NewArray[T](shape...)
	raw := make([]complex64, out.Len())
	br := bufio.NewReader(f)
	if err := binary.Read(br, binary.LittleEndian, raw); err != nil {
		return nil, fmt.Errorf("error reading %d samples from %s.cfl: %w", len(raw), base, err)
	}
	if _, err := br.ReadByte(); err != io.EOF {
		if err != nil {
			return nil, fmt.Errorf("error reading %s.cfl: %w", base, err)
		}
		return nil, fmt.Errorf("%s.cfl holds more data than the %v header describes", base, shape)
	}

	colStrides := columnMajorStrides(shape)
	forEachIndex(shape, func(rowOff int, idx []int) {
		out.Data[rowOff] = convert(raw[dot(idx, colStrides)])
	})
	return out, nil
}

func writeArray[T models.Element](base string, a *models.Array[T], convert func(T) complex64) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("cannot write %s: %w", base, err)
	}
	if a.Rank() > headerDims {
		return fmt.Errorf("cannot write %s: rank %d exceeds %d dimensions", base, a.Rank(), headerDims)
	}

	raw := make([]complex64, a.Len())
	colStrides := columnMajorStrides(a.Shape)
	forEachIndex(a.Shape, func(rowOff int, idx []int) {
		raw[dot(idx, colStrides)] = convert(a.Data[rowOff])
	})

	if err := writeHeader(base, a.Shape); err != nil {
		return err
	}

	f, err := os.Create(base + ".cfl")
	if err != nil {
		return fmt.Errorf("error creating data file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, raw); err != nil {
		f.Close()
		return fmt.Errorf("error writing %s.cfl: %w", base, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("error writing %s.cfl: %w", base, err)
	}
	return f.Close()
}

func writeHeader(base string, shape []int) error {
	var sb strings.Builder
	sb.WriteString("# Dimensions\n")
	for i := 0; i < headerDims; i++ {
		d := 1
		if i < len(shape) {
			d = shape[i]
		}
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(d))
	}
	sb.WriteByte('\n')

	if err := os.WriteFile(base+".hdr", []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}
	return nil
}

// trimDims reduces a header dimension list to rank axes. Missing trailing
// dimensions count as 1; extra ones must be 1.
func trimDims(dims []int, rank int) ([]int, error) {
	shape := make([]int, rank)
	for i := range shape {
		shape[i] = 1
		if i < len(dims) {
			shape[i] = dims[i]
		}
	}
	for i := rank; i < len(dims); i++ {
		if dims[i] != 1 {
			return nil, fmt.Errorf("dimension %d has extent %d, want rank %d array", i, dims[i], rank)
		}
	}
	return shape, nil
}

func columnMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	step := 1
	for i, d := range shape {
		strides[i] = step
		step *= d
	}
	return strides
}

// forEachIndex visits every multi-index of shape in row-major order
func forEachIndex(shape []int, fn func(rowOff int, idx []int)) {
	n := 1
	for _, d := range shape {
		n *= d
	}
	idx := make([]int, len(shape))
	for off := 0; off < n; off++ {
		fn(off, idx)
		for ax := len(shape) - 1; ax >= 0; ax-- {
			idx[ax]++
			if idx[ax] < shape[ax] {
				break
			}
			idx[ax] = 0
		}
	}
}

func dot(a, b []int) int {
	s := 0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
