package runner

import (
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"kspacedown/internal/models"
)

// Metrics summarizes how much of the acquisition survives downsampling
type Metrics struct {
	// KSpaceEnergyRatio is sum|k'|^2 / sum|k|^2. Keeping every f-th sample of
	// a roughly uniform signal retains about 1/f of the energy.
	KSpaceEnergyRatio float64

	// CoilEnergyRatio is the fraction of coil map energy inside the cropped field of view
	CoilEnergyRatio float64

	// CoilMeanMagnitude and CoilStdDev describe |coil| over the cropped profile
	CoilMeanMagnitude float64
	CoilStdDev        float64

	// SampleExtent and CropExtent are the output sample count and coil map side
	SampleExtent int
	CropExtent   int

	// ExtentsMatched reports whether the two extents above agree
	ExtentsMatched bool
}

func computeMetrics(in, out models.Acquisition) Metrics {
	m := Metrics{
		KSpaceEnergyRatio: ratio(energy(out.KSpace.Data), energy(in.KSpace.Data)),
		CoilEnergyRatio:   ratio(energy(out.CoilProfile.Data), energy(in.CoilProfile.Data)),
		SampleExtent:      out.KSpace.Dim(models.AxisSample),
		CropExtent:        out.CoilProfile.Dim(models.AxisRow),
	}
	m.ExtentsMatched = m.SampleExtent == m.CropExtent

	switch mags := magnitudes(out.CoilProfile.Data); {
	case len(mags) > 1:
		m.CoilMeanMagnitude, m.CoilStdDev = stat.MeanStdDev(mags, nil)
	case len(mags) == 1:
		m.CoilMeanMagnitude = mags[0]
	}
	return m
}

func magnitudes(data []complex128) []float64 {
	mags := make([]float64, len(data))
	for i, z := range data {
		mags[i] = cmplx.Abs(z)
	}
	return mags
}

func energy(data []complex128) float64 {
	power := magnitudes(data)
	floats.Mul(power, power)
	return floats.Sum(power)
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
