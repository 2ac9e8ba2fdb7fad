package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"kspacedown/pkg/config"
	"kspacedown/pkg/runner"
)

// factorFlag is an int flag that remembers whether it was set,
// so an absent -factor stays distinct from an explicit value.
type factorFlag struct {
	value *int
}

func (f *factorFlag) String() string {
	if f.value == nil {
		return ""
	}
	return strconv.Itoa(*f.value)
}

func (f *factorFlag) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("factor must be an integer: %w", err)
	}
	if v < 1 {
		return fmt.Errorf("factor must be a positive integer, got %d", v)
	}
	f.value = &v
	return nil
}

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "kspacedown.yaml", "YAML configuration file (defaults are used if it does not exist)")
	inputDir := flag.String("input", "", "Directory containing the kspace, samples, sqrt_dcf and coil_profile cfl arrays")
	outputDir := flag.String("output", "", "Directory to write the downsampled arrays to")
	var factor factorFlag
	flag.Var(&factor, "factor", "Frequency-domain downsampling factor (omit to copy the arrays unchanged)")
	numCores := flag.Int("cores", 0, "Number of arrays to load or save concurrently (default from config)")
	savePreviews := flag.Bool("previews", false, "Save coil map magnitude previews before and after cropping")
	previewDir := flag.String("preview-dir", "", "Directory for preview images (default <output>/previews)")
	writeConfig := flag.String("write-config", "", "Write a default configuration file to this path and exit")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *writeConfig)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Command line flags override the config file
	setFlags := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	if setFlags["input"] {
		cfg.Input.Dir = *inputDir
	}
	if setFlags["output"] {
		cfg.Output.Dir = *outputDir
	}
	if setFlags["factor"] {
		cfg.Downsample.Factor = factor.value
	}
	if setFlags["cores"] {
		cfg.Processing.NumCores = *numCores
	}
	if setFlags["previews"] {
		cfg.Output.SavePreviews = *savePreviews
	}
	if setFlags["preview-dir"] {
		cfg.Output.PreviewDir = *previewDir
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	previewPath := cfg.Output.PreviewDir
	if !filepath.IsAbs(previewPath) {
		previewPath = filepath.Join(cfg.Output.Dir, previewPath)
	}

	params := &runner.Params{
		InputDir:        cfg.Input.Dir,
		KSpaceName:      cfg.Input.KSpace,
		SamplesName:     cfg.Input.Samples,
		SqrtDCFName:     cfg.Input.SqrtDCF,
		CoilProfileName: cfg.Input.CoilProfile,
		OutputDir:       cfg.Output.Dir,
		Factor:          cfg.Downsample.Factor,
		NumCores:        cfg.Processing.NumCores,
		SavePreviews:    cfg.Output.SavePreviews,
		PreviewDir:      previewPath,
		Verbose:         cfg.Output.Verbose,
	}

	r := runner.NewRunner(params)

	startTime := time.Now()
	if err := r.Process(); err != nil {
		log.Fatalf("Downsampling failed: %v", err)
	}
	processingTime := time.Since(startTime)

	metrics := r.GetMetrics()
	fmt.Printf("\nDownsampling completed in %.3f seconds\n", processingTime.Seconds())
	fmt.Printf("Output arrays saved to: %s\n\n", cfg.Output.Dir)

	fmt.Println("Metrics:")
	fmt.Printf("- K-space energy retained: %.4f\n", metrics.KSpaceEnergyRatio)
	fmt.Printf("- Coil map energy retained: %.4f\n", metrics.CoilEnergyRatio)
	fmt.Printf("- Coil magnitude mean/std: %.4f / %.4f\n", metrics.CoilMeanMagnitude, metrics.CoilStdDev)
	fmt.Printf("- Sample extent: %d, coil map extent: %d\n", metrics.SampleExtent, metrics.CropExtent)
	if !metrics.ExtentsMatched {
		fmt.Println("- Note: sample and coil map extents differ for this size and factor")
	}
}
