package downsample

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kspacedown/internal/models"
)

// newAcquisition builds an acquisition whose elements encode their own indices,
// so a value read from an output reveals which input element it came from.
func newAcquisition(nv, ns, nc, nsp int) models.Acquisition {
	acq := models.Acquisition{
		KSpace:      models.NewArray[complex128](nv, ns, nc, nsp),
		Samples:     models.NewArray[float64](nv, ns, nsp),
		SqrtDCF:     models.NewArray[complex128](nv, ns, nsp),
		CoilProfile: models.NewArray[complex128](ns, ns, nc),
	}
	for v := 0; v < nv; v++ {
		for s := 0; s < ns; s++ {
			for p := 0; p < nsp; p++ {
				for c := 0; c < nc; c++ {
					acq.KSpace.Set(complex(float64(s), float64(v*1000+c*100+p)), v, s, c, p)
				}
				acq.Samples.Set(float64(v*1000+s*10+p), v, s, p)
				acq.SqrtDCF.Set(complex(float64(s), -float64(v*1000+p)), v, s, p)
			}
		}
	}
	for r := 0; r < ns; r++ {
		for col := 0; col < ns; col++ {
			for c := 0; c < nc; c++ {
				acq.CoilProfile.Set(complex(float64(r), float64(col*10+c)), r, col, c)
			}
		}
	}
	return acq
}

func factorOf(f int) *int {
	return &f
}

// TestFrequencyNilFactorIsIdentity checks that no factor returns the inputs themselves
func TestFrequencyNilFactorIsIdentity(t *testing.T) {
	acq := newAcquisition(2, 6, 3, 4)

	out, err := Frequency(acq, nil)
	require.NoError(t, err)

	assert.Same(t, acq.KSpace, out.KSpace)
	assert.Same(t, acq.Samples, out.Samples)
	assert.Same(t, acq.SqrtDCF, out.SqrtDCF)
	assert.Same(t, acq.CoilProfile, out.CoilProfile)
}

// TestFrequencyNilFactorSkipsValidation keeps the identity path as permissive as a plain pass-through
func TestFrequencyNilFactorSkipsValidation(t *testing.T) {
	acq := newAcquisition(1, 4, 2, 2)
	acq.Samples = models.NewArray[float64](1, 5, 2)

	_, err := Frequency(acq, nil)
	assert.NoError(t, err)
}

func TestFrequencyFactorOneCopies(t *testing.T) {
	acq := newAcquisition(2, 7, 2, 3)

	out, err := Frequency(acq, factorOf(1))
	require.NoError(t, err)

	assert.True(t, acq.KSpace.Equal(out.KSpace))
	assert.True(t, acq.Samples.Equal(out.Samples))
	assert.True(t, acq.SqrtDCF.Equal(out.SqrtDCF))
	assert.True(t, acq.CoilProfile.Equal(out.CoilProfile))
	assert.NotSame(t, acq.KSpace, out.KSpace)
}

// TestFrequencyConcreteScenario covers the [1, 8, 2, 4] k-space and [8, 8, 2] coil profile case
func TestFrequencyConcreteScenario(t *testing.T) {
	acq := newAcquisition(1, 8, 2, 4)

	out, err := Frequency(acq, factorOf(2))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 4, 2, 4}, out.KSpace.Shape)
	assert.Equal(t, []int{1, 4, 4}, out.Samples.Shape)
	assert.Equal(t, []int{1, 4, 4}, out.SqrtDCF.Shape)
	assert.Equal(t, []int{4, 4, 2}, out.CoilProfile.Shape)

	for i, want := range []float64{0, 2, 4, 6} {
		for c := 0; c < 2; c++ {
			for p := 0; p < 4; p++ {
				assert.Equal(t, want, real(out.KSpace.At(0, i, c, p)))
			}
		}
	}

	for r := 0; r < 4; r++ {
		for col := 0; col < 4; col++ {
			for c := 0; c < 2; c++ {
				assert.Equal(t, acq.CoilProfile.At(r+2, col+2, c), out.CoilProfile.At(r, col, c))
			}
		}
	}
}

// TestFrequencyProperties sweeps sample counts and factors and checks
// striding, cropping and axis invariance element by element.
func TestFrequencyProperties(t *testing.T) {
	const nv, nc, nsp = 2, 3, 2

	for ns := 1; ns <= 17; ns++ {
		for f := 1; f <= 6; f++ {
			t.Run(fmt.Sprintf("NS=%d/f=%d", ns, f), func(t *testing.T) {
				acq := newAcquisition(nv, ns, nc, nsp)
				out, err := Frequency(acq, factorOf(f))
				require.NoError(t, err)

				extent := (ns + f - 1) / f
				side := ns * (f - 1) / (2 * f)
				crop := ns - 2*side

				require.Equal(t, []int{nv, extent, nc, nsp}, out.KSpace.Shape)
				require.Equal(t, []int{nv, extent, nsp}, out.Samples.Shape)
				require.Equal(t, []int{nv, extent, nsp}, out.SqrtDCF.Shape)
				require.Equal(t, []int{crop, crop, nc}, out.CoilProfile.Shape)

				for v := 0; v < nv; v++ {
					for i := 0; i < extent; i++ {
						for p := 0; p < nsp; p++ {
							for c := 0; c < nc; c++ {
								assert.Equal(t, acq.KSpace.At(v, i*f, c, p), out.KSpace.At(v, i, c, p))
							}
							assert.Equal(t, acq.Samples.At(v, i*f, p), out.Samples.At(v, i, p))
							assert.Equal(t, acq.SqrtDCF.At(v, i*f, p), out.SqrtDCF.At(v, i, p))
						}
					}
				}

				for r := 0; r < crop; r++ {
					for col := 0; col < crop; col++ {
						for c := 0; c < nc; c++ {
							assert.Equal(t, acq.CoilProfile.At(r+side, col+side, c), out.CoilProfile.At(r, col, c))
						}
					}
				}
			})
		}
	}
}

func TestFrequencyDoesNotMutateInputs(t *testing.T) {
	acq := newAcquisition(1, 9, 2, 3)
	before := acq.Clone()

	_, err := Frequency(acq, factorOf(3))
	require.NoError(t, err)

	assert.True(t, before.KSpace.Equal(acq.KSpace))
	assert.True(t, before.Samples.Equal(acq.Samples))
	assert.True(t, before.SqrtDCF.Equal(acq.SqrtDCF))
	assert.True(t, before.CoilProfile.Equal(acq.CoilProfile))
}

func TestFrequencyHugeFactor(t *testing.T) {
	for _, f := range []int{1 << 56, math.MaxInt} {
		acq := newAcquisition(1, 8, 2, 3)

		out, err := Frequency(acq, factorOf(f))
		require.NoError(t, err, "factor %d", f)

		assert.Equal(t, []int{1, 1, 2, 3}, out.KSpace.Shape)
		assert.Equal(t, []int{1, 1, 3}, out.Samples.Shape)
		assert.Equal(t, []int{2, 2, 2}, out.CoilProfile.Shape)
		assert.Equal(t, acq.KSpace.At(0, 0, 1, 2), out.KSpace.At(0, 0, 1, 2))
		assert.Equal(t, acq.CoilProfile.At(3, 4, 1), out.CoilProfile.At(0, 1, 1))
	}
}

func TestFrequencyInvalidFactor(t *testing.T) {
	for _, f := range []int{0, -1, -4} {
		_, err := Frequency(newAcquisition(1, 4, 1, 1), factorOf(f))
		assert.ErrorIs(t, err, ErrInvalidFactor, "factor %d", f)
	}
}

func TestFrequencyShapeMismatch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Acquisition)
	}{
		{"trajectory samples", func(a *models.Acquisition) { a.Samples = models.NewArray[float64](1, 5, 2) }},
		{"dcf samples", func(a *models.Acquisition) { a.SqrtDCF = models.NewArray[complex128](1, 3, 2) }},
		{"trajectory volumes", func(a *models.Acquisition) { a.Samples = models.NewArray[float64](2, 4, 2) }},
		{"dcf spokes", func(a *models.Acquisition) { a.SqrtDCF = models.NewArray[complex128](1, 4, 3) }},
		{"non-square coil", func(a *models.Acquisition) { a.CoilProfile = models.NewArray[complex128](4, 6, 2) }},
		{"coil count", func(a *models.Acquisition) { a.CoilProfile = models.NewArray[complex128](4, 4, 3) }},
		{"k-space rank", func(a *models.Acquisition) { a.KSpace = models.NewArray[complex128](1, 4, 2) }},
		{"short storage", func(a *models.Acquisition) { a.KSpace.Data = a.KSpace.Data[:3] }},
		{"missing array", func(a *models.Acquisition) { a.SqrtDCF = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acq := newAcquisition(1, 4, 2, 2)
			tt.mutate(&acq)

			_, err := Frequency(acq, factorOf(2))
			assert.ErrorIs(t, err, ErrShapeMismatch)
		})
	}
}

func TestFrequencyDegenerateCrop(t *testing.T) {
	acq := newAcquisition(1, 0, 1, 1)

	_, err := Frequency(acq, factorOf(2))
	assert.True(t, errors.Is(err, ErrDegenerateCrop), "got %v", err)
}

func TestStrideAndCropErrors(t *testing.T) {
	a := models.NewArray[float64](3, 4)

	_, err := Stride(a, 2, 1)
	assert.Error(t, err)

	_, err = Stride(a, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidFactor)

	_, err = Crop(a, 1, 3, 2)
	assert.Error(t, err)

	_, err = Crop(a, 1, 0, 5)
	assert.Error(t, err)
}

func TestStrideLastAxis(t *testing.T) {
	a, err := models.FromData([]float64{0, 1, 2, 3, 4, 10, 11, 12, 13, 14}, 2, 5)
	require.NoError(t, err)

	out, err := Stride(a, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 3}, out.Shape)
	assert.Equal(t, []float64{0, 2, 4, 10, 12, 14}, out.Data)
}

func TestCropCenter(t *testing.T) {
	acq := newAcquisition(1, 6, 2, 1)

	out, err := CropCenter(acq.CoilProfile, 0)
	require.NoError(t, err)
	assert.True(t, acq.CoilProfile.Equal(out))

	out, err = CropCenter(acq.CoilProfile, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2}, out.Shape)
	assert.Equal(t, acq.CoilProfile.At(3, 2, 1), out.At(1, 0, 1))

	_, err = CropCenter(acq.CoilProfile, 4)
	assert.Error(t, err)
}
