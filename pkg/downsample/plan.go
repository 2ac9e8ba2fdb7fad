package downsample

import (
	"fmt"
)

// Plan describes the extents produced by downsampling with a given factor.
//
// The sample axis shrinks to ceil(Samples/Factor) while the coil maps lose
// SideCrop pixels on each border. The two resulting extents are computed
// independently and do not always agree (for example 7 samples with factor 2
// gives 4 samples but a 5x5 coil map); Matched reports whether they do.
type Plan struct {
	Factor int

	// Samples is the original sample-axis extent
	Samples int

	// Side is the original spatial extent of the coil maps
	Side int

	// SampleExtent is the sample-axis extent after striding
	SampleExtent int

	// SideCrop is the number of pixels removed from each spatial border
	SideCrop int

	// CropExtent is the spatial extent of the coil maps after cropping
	CropExtent int
}

// NewPlan computes the downsampling extents for the given sample count,
// coil map side and factor.
func NewPlan(samples, side, factor int) (Plan, error) {
	if factor < 1 {
		return Plan{}, fmt.Errorf("%w: %d (must be a positive integer)", ErrInvalidFactor, factor)
	}
	if samples < 0 || side < 0 {
		return Plan{}, fmt.Errorf("%w: negative extent (samples=%d, side=%d)", ErrShapeMismatch, samples, side)
	}

	p := Plan{
		Factor:       factor,
		Samples:      samples,
		Side:         side,
		SampleExtent: ceilDiv(samples, factor),
		SideCrop:     SideCrop(side, factor),
	}
	p.CropExtent = side - 2*p.SideCrop

	if p.SampleExtent <= 0 {
		return p, fmt.Errorf("%w: sample axis of extent %d leaves no samples", ErrDegenerateCrop, samples)
	}
	if p.CropExtent <= 0 {
		return p, fmt.Errorf("%w: coil map side %d cropped by %d per border leaves %d",
			ErrDegenerateCrop, side, p.SideCrop, p.CropExtent)
	}
	return p, nil
}

// Matched reports whether the strided sample extent equals the cropped coil map side
func (p Plan) Matched() bool {
	return p.SampleExtent == p.CropExtent
}

// SideCrop returns floor(side * (1 - 1/factor) / 2), the number of pixels
// removed from each border of a coil map of the given side.
// It is computed as (side - ceil(side/factor)) / 2, which is exact and
// cannot overflow for any factor.
func SideCrop(side, factor int) int {
	if factor < 1 || side <= 0 {
		return 0
	}
	return (side - ceilDiv(side, factor)) / 2
}
