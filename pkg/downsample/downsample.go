// Package downsample reduces radial k-space acquisitions in the frequency domain.
//
// Keeping every f-th readout sample shrinks the field of view of the
// reconstructed image by f, so the coil sensitivity maps are center-cropped
// to the matching spatial extent.
package downsample

import (
	"fmt"

	"kspacedown/internal/models"
)

// Frequency downsamples an acquisition along the readout (sample) axis.
//
// A nil factor returns acq unchanged. Otherwise k-space, trajectory and
// sqrt-DCF keep sample indices 0, f, 2f, ... and every coil map is cropped by
// SideCrop(NS, f) pixels on each spatial border; the coil axis is untouched.
// The returned arrays are new; acq is never modified.
func Frequency(acq models.Acquisition, factor *int) (models.Acquisition, error) {
	if factor == nil {
		return acq, nil
	}

	f := *factor
	if f < 1 {
		return models.Acquisition{}, fmt.Errorf("%w: %d (must be a positive integer)", ErrInvalidFactor, f)
	}

	if err := Validate(acq); err != nil {
		return models.Acquisition{}, err
	}

	plan, err := NewPlan(acq.KSpace.Dim(models.AxisSample), acq.CoilProfile.Dim(models.AxisRow), f)
	if err != nil {
		return models.Acquisition{}, err
	}

	var out models.Acquisition
	if out.KSpace, err = Stride(acq.KSpace, models.AxisSample, f); err != nil {
		return models.Acquisition{}, fmt.Errorf("striding k-space: %w", err)
	}
	if out.Samples, err = Stride(acq.Samples, models.AxisSample, f); err != nil {
		return models.Acquisition{}, fmt.Errorf("striding trajectory: %w", err)
	}
	if out.SqrtDCF, err = Stride(acq.SqrtDCF, models.AxisSample, f); err != nil {
		return models.Acquisition{}, fmt.Errorf("striding sqrt dcf: %w", err)
	}
	if out.CoilProfile, err = CropCenter(acq.CoilProfile, plan.SideCrop); err != nil {
		return models.Acquisition{}, fmt.Errorf("cropping coil profile: %w", err)
	}

	return out, nil
}

// CropCenter removes side pixels from both ends of the row and column axes
// of a coil profile, leaving the coil axis alone.
func CropCenter(coil *models.ComplexArray, side int) (*models.ComplexArray, error) {
	rows, err := Crop(coil, models.AxisRow, side, coil.Dim(models.AxisRow)-side)
	if err != nil {
		return nil, err
	}
	return Crop(rows, models.AxisColumn, side, coil.Dim(models.AxisColumn)-side)
}

// Validate checks that the four arrays of an acquisition have the expected
// ranks and agree on their shared extents.
func Validate(acq models.Acquisition) error {
	if acq.KSpace == nil || acq.Samples == nil || acq.SqrtDCF == nil || acq.CoilProfile == nil {
		return fmt.Errorf("%w: acquisition is missing an array", ErrShapeMismatch)
	}

	checks := []struct {
		name string
		rank int
		got  int
		err  error
	}{
		{"k-space", models.KSpaceRank, acq.KSpace.Rank(), acq.KSpace.Validate()},
		{"trajectory", models.TrajectoryRank, acq.Samples.Rank(), acq.Samples.Validate()},
		{"sqrt dcf", models.DCFRank, acq.SqrtDCF.Rank(), acq.SqrtDCF.Validate()},
		{"coil profile", models.CoilProfileRank, acq.CoilProfile.Rank(), acq.CoilProfile.Validate()},
	}
	for _, c := range checks {
		if c.got != c.rank {
			return fmt.Errorf("%w: %s has rank %d, want %d", ErrShapeMismatch, c.name, c.got, c.rank)
		}
		if c.err != nil {
			return fmt.Errorf("%w: %s: %v", ErrShapeMismatch, c.name, c.err)
		}
	}

	k, s, d := acq.KSpace, acq.Samples, acq.SqrtDCF
	if k.Dim(models.AxisSample) != s.Dim(models.AxisSample) || k.Dim(models.AxisSample) != d.Dim(models.AxisSample) {
		return fmt.Errorf("%w: sample extents differ (k-space %d, trajectory %d, sqrt dcf %d)",
			ErrShapeMismatch, k.Dim(models.AxisSample), s.Dim(models.AxisSample), d.Dim(models.AxisSample))
	}
	if k.Dim(models.AxisVolume) != s.Dim(models.AxisVolume) || k.Dim(models.AxisVolume) != d.Dim(models.AxisVolume) {
		return fmt.Errorf("%w: volume extents differ (k-space %d, trajectory %d, sqrt dcf %d)",
			ErrShapeMismatch, k.Dim(models.AxisVolume), s.Dim(models.AxisVolume), d.Dim(models.AxisVolume))
	}
	if k.Dim(models.AxisSpoke) != s.Dim(models.AxisTrajectorySpoke) || k.Dim(models.AxisSpoke) != d.Dim(models.AxisTrajectorySpoke) {
		return fmt.Errorf("%w: spoke extents differ (k-space %d, trajectory %d, sqrt dcf %d)",
			ErrShapeMismatch, k.Dim(models.AxisSpoke), s.Dim(models.AxisTrajectorySpoke), d.Dim(models.AxisTrajectorySpoke))
	}

	c := acq.CoilProfile
	if c.Dim(models.AxisRow) != c.Dim(models.AxisColumn) {
		return fmt.Errorf("%w: coil profile is %dx%d, want a square grid",
			ErrShapeMismatch, c.Dim(models.AxisRow), c.Dim(models.AxisColumn))
	}
	if c.Dim(models.AxisCoilMap) != k.Dim(models.AxisCoil) {
		return fmt.Errorf("%w: coil profile has %d coils, k-space has %d",
			ErrShapeMismatch, c.Dim(models.AxisCoilMap), k.Dim(models.AxisCoil))
	}

	return nil
}
