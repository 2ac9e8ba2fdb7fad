package downsample

import (
	"fmt"

	"kspacedown/internal/models"
)

// Stride keeps every step-th element of the given axis, starting at index 0.
// The result extent along axis is ceil(n/step); all other axes are copied unchanged.
func Stride[T models.Element](a *models.Array[T], axis, step int) (*models.Array[T], error) {
	if axis < 0 || axis >= a.Rank() {
		return nil, fmt.Errorf("axis %d out of range for rank %d", axis, a.Rank())
	}
	if step < 1 {
		return nil, fmt.Errorf("%w: step %d", ErrInvalidFactor, step)
	}
	n := a.Dim(axis)
	return selectAxis(a, axis, 0, n, step, ceilDiv(n, step)), nil
}

// Crop keeps the half-open range [start, stop) of the given axis
func Crop[T models.Element](a *models.Array[T], axis, start, stop int) (*models.Array[T], error) {
	if axis < 0 || axis >= a.Rank() {
		return nil, fmt.Errorf("axis %d out of range for rank %d", axis, a.Rank())
	}
	if start < 0 || stop > a.Dim(axis) || start > stop {
		return nil, fmt.Errorf("crop range [%d,%d) invalid for extent %d", start, stop, a.Dim(axis))
	}
	return selectAxis(a, axis, start, stop, 1, stop-start), nil
}

// selectAxis copies count indices start, start+step, ... of axis into a new array.
// The array is viewed as [outer, n, inner] so whole inner blocks move with copy().
func selectAxis[T models.Element](a *models.Array[T], axis, start, stop, step, count int) *models.Array[T] {
	shape := make([]int, a.Rank())
	copy(shape, a.Shape)
	shape[axis] = count
	out := models.NewArray[T](shape...)

	outer := 1
	for _, d := range a.Shape[:axis] {
		outer *= d
	}
	inner := 1
	for _, d := range a.Shape[axis+1:] {
		inner *= d
	}
	n := a.Dim(axis)

	dst := 0
	for o := 0; o < outer; o++ {
		base := o * n * inner
		for k := start; k < stop; k += step {
			src := base + k*inner
			copy(out.Data[dst:dst+inner], a.Data[src:src+inner])
			dst += inner
		}
	}
	return out
}

// ceilDiv returns ceil(n/d) for n >= 0 and d >= 1 without overflowing
func ceilDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n-1)/d + 1
}
