package models

import (
	"fmt"
)

// Element is the set of numeric types an Array can hold.
// K-space samples, density weights and coil maps are complex, trajectories are real.
type Element interface {
	~float64 | ~complex128
}

// Array is a dense N-dimensional array stored in row-major order
// (the last axis varies fastest).
type Array[T Element] struct {
	// Shape holds the extent of every axis
	Shape []int

	// Data is the flat element storage, len(Data) == product of Shape
	Data []T
}

// ComplexArray holds complex-valued data such as k-space or coil maps
type ComplexArray = Array[complex128]

// RealArray holds real-valued data such as sample trajectories
type RealArray = Array[float64]

// NewArray allocates a zero-filled array with the given shape
func NewArray[T Element](shape ...int) *Array[T] {
	s := make([]int, len(shape))
	copy(s, shape)
	return &Array[T]{
		Shape: s,
		Data:  make([]T, numElements(s)),
	}
}

// FromData wraps data in an array of the given shape. The slice is not copied.
func FromData[T Element](data []T, shape ...int) (*Array[T], error) {
	for i, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("negative extent %d on axis %d", d, i)
		}
	}
	if n := numElements(shape); n != len(data) {
		return nil, fmt.Errorf("shape %v needs %d elements, got %d", shape, n, len(data))
	}
	s := make([]int, len(shape))
	copy(s, shape)
	return &Array[T]{Shape: s, Data: data}, nil
}

// Rank returns the number of axes
func (a *Array[T]) Rank() int {
	return len(a.Shape)
}

// Dim returns the extent of the given axis
func (a *Array[T]) Dim(axis int) int {
	return a.Shape[axis]
}

// Len returns the total number of elements
func (a *Array[T]) Len() int {
	return len(a.Data)
}

// Strides returns the row-major element stride of each axis
func (a *Array[T]) Strides() []int {
	strides := make([]int, len(a.Shape))
	step := 1
	for i := len(a.Shape) - 1; i >= 0; i-- {
		strides[i] = step
		step *= a.Shape[i]
	}
	return strides
}

// Offset converts a multi-index into a flat index into Data.
// It panics when the index has the wrong rank or is out of range, like a slice access.
func (a *Array[T]) Offset(idx ...int) int {
	if len(idx) != len(a.Shape) {
		panic(fmt.Sprintf("models: index of rank %d into array of rank %d", len(idx), len(a.Shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= a.Shape[i] {
			panic(fmt.Sprintf("models: index %d out of range [0,%d) on axis %d", v, a.Shape[i], i))
		}
		off = off*a.Shape[i] + v
	}
	return off
}

// At returns the element at the given multi-index
func (a *Array[T]) At(idx ...int) T {
	return a.Data[a.Offset(idx...)]
}

// Set stores v at the given multi-index
func (a *Array[T]) Set(v T, idx ...int) {
	a.Data[a.Offset(idx...)] = v
}

// Clone returns a deep copy
func (a *Array[T]) Clone() *Array[T] {
	c := NewArray[T](a.Shape...)
	copy(c.Data, a.Data)
	return c
}

// SameShape reports whether both arrays have identical shapes
func (a *Array[T]) SameShape(b *Array[T]) bool {
	if len(a.Shape) != len(b.Shape) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	return true
}

// Equal reports whether both arrays have the same shape and elements
func (a *Array[T]) Equal(b *Array[T]) bool {
	if !a.SameShape(b) || len(a.Data) != len(b.Data) {
		return false
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			return false
		}
	}
	return true
}

// Validate checks that the storage length agrees with the shape
func (a *Array[T]) Validate() error {
	for i, d := range a.Shape {
		if d < 0 {
			return fmt.Errorf("negative extent %d on axis %d", d, i)
		}
	}
	if n := numElements(a.Shape); n != len(a.Data) {
		return fmt.Errorf("shape %v needs %d elements, got %d", a.Shape, n, len(a.Data))
	}
	return nil
}

func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
