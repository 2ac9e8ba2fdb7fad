package models

// Axes of the k-space, trajectory and density-compensation arrays.
// Trajectory and DCF arrays have no coil axis, so their spoke axis is 2.
const (
	AxisVolume = 0
	AxisSample = 1
	AxisCoil   = 2
	AxisSpoke  = 3

	AxisTrajectorySpoke = 2
)

// Axes of the coil sensitivity profile
const (
	AxisRow     = 0
	AxisColumn  = 1
	AxisCoilMap = 2
)

// Ranks of the four acquisition arrays
const (
	KSpaceRank      = 4
	TrajectoryRank  = 3
	DCFRank         = 3
	CoilProfileRank = 3
)

// Acquisition bundles a radial acquisition with its sampling metadata and
// the coil sensitivity maps used to reconstruct it.
//
// Dimension names follow [Nv, NS, NC, NSp] = [volumes, samples, coils, spokes].
type Acquisition struct {
	// KSpace is the measured signal, shape [Nv, NS, NC, NSp]
	KSpace *ComplexArray

	// Samples holds the star (radial) sampling locations, shape [Nv, NS, NSp]
	Samples *RealArray

	// SqrtDCF is the square root of the density compensation factor, shape [Nv, NS, NSp]
	SqrtDCF *ComplexArray

	// CoilProfile holds one spatial sensitivity map per coil, shape [NS, NS, NC]
	CoilProfile *ComplexArray
}

// Clone returns a deep copy of all four arrays
func (a Acquisition) Clone() Acquisition {
	return Acquisition{
		KSpace:      a.KSpace.Clone(),
		Samples:     a.Samples.Clone(),
		SqrtDCF:     a.SqrtDCF.Clone(),
		CoilProfile: a.CoilProfile.Clone(),
	}
}
