package downsample

import "errors"

// Input errors reported by Frequency. They are returned wrapped with detail;
// test for them with errors.Is.
var (
	// ErrShapeMismatch reports arrays whose ranks or shared extents disagree,
	// or a coil profile whose spatial grid is not square.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidFactor reports a downsampling factor below 1
	ErrInvalidFactor = errors.New("invalid downsampling factor")

	// ErrDegenerateCrop reports a downsampling that would leave an empty axis
	ErrDegenerateCrop = errors.New("degenerate crop")
)
