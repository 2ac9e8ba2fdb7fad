package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"kspacedown/internal/models"
)

// Viewer renders the coil sensitivity maps of a coil profile as grayscale images.
// Magnitudes are normalized by the largest magnitude across all coils, so
// maps of different coils stay comparable.
type Viewer struct {
	// magnitudes holds |coil| in the profile's [row, column, coil] layout
	magnitudes []float64

	// dimensions of the profile
	rows  int
	cols  int
	coils int

	// peak is the largest magnitude in the profile
	peak float64
}

// NewViewer creates a viewer for a coil profile of shape [NS, NS, NC]
func NewViewer(profile *models.ComplexArray) (*Viewer, error) {
	if profile.Rank() != models.CoilProfileRank {
		return nil, fmt.Errorf("coil profile has rank %d, want %d", profile.Rank(), models.CoilProfileRank)
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	v := &Viewer{
		magnitudes: make([]float64, profile.Len()),
		rows:       profile.Dim(models.AxisRow),
		cols:       profile.Dim(models.AxisColumn),
		coils:      profile.Dim(models.AxisCoilMap),
	}
	for i, z := range profile.Data {
		v.magnitudes[i] = cmplx.Abs(z)
	}
	if len(v.magnitudes) > 0 {
		v.peak = floats.Max(v.magnitudes)
	}
	return v, nil
}

// NumCoils returns the number of coil maps in the profile
func (v *Viewer) NumCoils() int {
	return v.coils
}

// ExtractCoil renders the magnitude map of one coil
func (v *Viewer) ExtractCoil(coil int) (image.Image, error) {
	if coil < 0 || coil >= v.coils {
		return nil, fmt.Errorf("coil %d out of range [0,%d)", coil, v.coils)
	}

	img := image.NewGray16(image.Rect(0, 0, v.cols, v.rows))
	for y := 0; y < v.rows; y++ {
		for x := 0; x < v.cols; x++ {
			m := v.magnitudes[(y*v.cols+x)*v.coils+coil]
			var value uint16
			if v.peak > 0 {
				value = uint16(math.Round(math.Max(0, math.Min(1, m/v.peak)) * 65535))
			}
			img.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	return img, nil
}

// SaveImage saves an extracted map as a PNG image
func (v *Viewer) SaveImage(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// SaveCoilSequence renders every coil map into outputDir as coil_NNN.png
func (v *Viewer) SaveCoilSequence(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for c := 0; c < v.coils; c++ {
		img, err := v.ExtractCoil(c)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("coil_%03d.png", c))
		if err := v.SaveImage(img, filename); err != nil {
			return fmt.Errorf("failed to save coil %d: %w", c, err)
		}
	}

	return nil
}
