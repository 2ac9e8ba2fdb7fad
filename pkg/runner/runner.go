package runner

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sourcegraph/conc/pool"

	"kspacedown/internal/models"
	"kspacedown/pkg/cfl"
	"kspacedown/pkg/downsample"
	"kspacedown/pkg/visualization"
)

// Params holds the parameters of a downsampling run
type Params struct {
	// InputDir is the directory containing the four input arrays as BART cfl pairs
	InputDir string

	// Base names of the input arrays, without the .hdr/.cfl extension.
	// The outputs are written under the same names.
	KSpaceName      string
	SamplesName     string
	SqrtDCFName     string
	CoilProfileName string

	// OutputDir is where the downsampled arrays are written
	OutputDir string

	// Factor is the frequency-domain downsampling factor; nil copies the inputs unchanged
	Factor *int

	// NumCores bounds how many arrays are read or written concurrently
	NumCores int

	// SavePreviews writes coil map magnitude images before and after cropping
	SavePreviews bool

	// PreviewDir receives the preview images in "original" and "cropped" subdirectories
	PreviewDir string

	// Verbose enables step-by-step logging
	Verbose bool
}

// Runner loads an acquisition, downsamples it and writes the result
type Runner struct {
	params *Params

	// input and output hold the acquisition before and after downsampling
	input  models.Acquisition
	output models.Acquisition

	// plan is set when a factor was given
	plan *downsample.Plan

	metrics Metrics
}

// NewRunner creates a new runner with the provided parameters
func NewRunner(params *Params) *Runner {
	return &Runner{params: params}
}

// Process runs load, downsample, save and metric computation in order.
// Results of a previous run are cleared first.
func (r *Runner) Process() error {
	r.input = models.Acquisition{}
	r.output = models.Acquisition{}
	r.plan = nil
	r.metrics = Metrics{}

	r.logf("Step 1: Loading acquisition from %s...", r.params.InputDir)
	acq, err := r.load()
	if err != nil {
		return fmt.Errorf("failed to load acquisition: %w", err)
	}
	r.input = acq
	r.logf("k-space %v, trajectory %v, sqrt dcf %v, coil profile %v",
		acq.KSpace.Shape, acq.Samples.Shape, acq.SqrtDCF.Shape, acq.CoilProfile.Shape)

	r.logf("Step 2: Downsampling...")
	if r.params.Factor == nil {
		r.logf("No factor given, copying arrays unchanged")
	} else {
		plan, err := downsample.NewPlan(acq.KSpace.Dim(models.AxisSample), acq.CoilProfile.Dim(models.AxisRow), *r.params.Factor)
		if err != nil {
			return fmt.Errorf("failed to plan downsampling: %w", err)
		}
		r.plan = &plan
		r.logf("Factor %d: %d samples -> %d, coil maps %d -> %d (crop %d per border)",
			plan.Factor, plan.Samples, plan.SampleExtent, plan.Side, plan.CropExtent, plan.SideCrop)
		if !plan.Matched() {
			log.Printf("Warning: downsampled sample extent %d differs from cropped coil map extent %d",
				plan.SampleExtent, plan.CropExtent)
		}
	}

	out, err := downsample.Frequency(acq, r.params.Factor)
	if err != nil {
		return fmt.Errorf("failed to downsample: %w", err)
	}
	r.output = out

	r.logf("Step 3: Saving downsampled arrays to %s...", r.params.OutputDir)
	if err := r.save(); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	if r.params.SavePreviews {
		r.logf("Saving coil map previews to %s...", r.params.PreviewDir)
		if err := r.savePreviews(); err != nil {
			log.Printf("Warning: Failed to save previews: %v", err)
		}
	}

	r.logf("Step 4: Computing metrics...")
	r.metrics = computeMetrics(r.input, r.output)

	return nil
}

// GetMetrics returns the metrics of the last successful run
func (r *Runner) GetMetrics() Metrics {
	return r.metrics
}

// GetResult returns the downsampled acquisition of the last successful run
func (r *Runner) GetResult() models.Acquisition {
	return r.output
}

// GetPlan returns the downsampling plan, or nil when no factor was given
func (r *Runner) GetPlan() *downsample.Plan {
	return r.plan
}

func (r *Runner) workers() int {
	if r.params.NumCores < 1 {
		return 1
	}
	return r.params.NumCores
}

// load reads the four input arrays concurrently
func (r *Runner) load() (models.Acquisition, error) {
	var acq models.Acquisition
	in := func(name string) string { return filepath.Join(r.params.InputDir, name) }

	p := pool.New().WithErrors().WithMaxGoroutines(r.workers())
	p.Go(func() (err error) {
		acq.KSpace, err = cfl.ReadComplex(in(r.params.KSpaceName), models.KSpaceRank)
		return wrap("k-space", err)
	})
	p.Go(func() (err error) {
		acq.Samples, err = cfl.ReadReal(in(r.params.SamplesName), models.TrajectoryRank)
		return wrap("trajectory", err)
	})
	p.Go(func() (err error) {
		acq.SqrtDCF, err = cfl.ReadComplex(in(r.params.SqrtDCFName), models.DCFRank)
		return wrap("sqrt dcf", err)
	})
	p.Go(func() (err error) {
		acq.CoilProfile, err = cfl.ReadComplex(in(r.params.CoilProfileName), models.CoilProfileRank)
		return wrap("coil profile", err)
	})

	if err := p.Wait(); err != nil {
		return models.Acquisition{}, err
	}
	return acq, nil
}

// save writes the four output arrays concurrently
func (r *Runner) save() error {
	if err := os.MkdirAll(r.params.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	out := func(name string) string { return filepath.Join(r.params.OutputDir, name) }

	p := pool.New().WithErrors().WithMaxGoroutines(r.workers())
	p.Go(func() error {
		return wrap("k-space", cfl.WriteComplex(out(r.params.KSpaceName), r.output.KSpace))
	})
	p.Go(func() error {
		return wrap("trajectory", cfl.WriteReal(out(r.params.SamplesName), r.output.Samples))
	})
	p.Go(func() error {
		return wrap("sqrt dcf", cfl.WriteComplex(out(r.params.SqrtDCFName), r.output.SqrtDCF))
	})
	p.Go(func() error {
		return wrap("coil profile", cfl.WriteComplex(out(r.params.CoilProfileName), r.output.CoilProfile))
	})
	return p.Wait()
}

func (r *Runner) savePreviews() error {
	stages := []struct {
		dir     string
		profile *models.ComplexArray
	}{
		{"original", r.input.CoilProfile},
		{"cropped", r.output.CoilProfile},
	}
	for _, s := range stages {
		viewer, err := visualization.NewViewer(s.profile)
		if err != nil {
			return fmt.Errorf("%s coil profile: %w", s.dir, err)
		}
		if err := viewer.SaveCoilSequence(filepath.Join(r.params.PreviewDir, s.dir)); err != nil {
			return fmt.Errorf("%s coil profile: %w", s.dir, err)
		}
	}
	return nil
}

func (r *Runner) logf(format string, args ...any) {
	if r.params.Verbose {
		log.Printf(format, args...)
	}
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}
