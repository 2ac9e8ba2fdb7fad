// Package config provides configuration loading and management for kspacedown.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Input locations. Each array is a BART cfl pair <Dir>/<name>.hdr and <Dir>/<name>.cfl
	Input struct {
		// Dir is the directory holding the input arrays
		Dir string `yaml:"dir"`

		KSpace      string `yaml:"kspace"`
		Samples     string `yaml:"samples"`
		SqrtDCF     string `yaml:"sqrtDcf"`
		CoilProfile string `yaml:"coilProfile"`
	} `yaml:"input"`

	// Downsampling parameters
	Downsample struct {
		// Factor is the frequency-domain downsampling factor.
		// Leaving it unset copies the inputs unchanged.
		Factor *int `yaml:"factor,omitempty"`
	} `yaml:"downsample"`

	// Processing parameters
	Processing struct {
		// NumCores limits how many arrays are loaded or saved concurrently
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Dir is the directory the downsampled arrays are written to
		Dir string `yaml:"dir"`

		// SavePreviews writes coil map magnitude images before and after cropping
		SavePreviews bool `yaml:"savePreviews"`

		// PreviewDir is the directory for preview images, relative to Dir when not absolute
		PreviewDir string `yaml:"previewDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Input.Dir = "."
	cfg.Input.KSpace = "kspace"
	cfg.Input.Samples = "samples"
	cfg.Input.SqrtDCF = "sqrt_dcf"
	cfg.Input.CoilProfile = "coil_profile"

	cfg.Processing.NumCores = runtime.NumCPU()

	cfg.Output.Dir = "downsampled"
	cfg.Output.SavePreviews = false
	cfg.Output.PreviewDir = "previews"
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	if c.Downsample.Factor != nil && *c.Downsample.Factor < 1 {
		return fmt.Errorf("downsample.factor must be a positive integer, got %d", *c.Downsample.Factor)
	}
	if c.Processing.NumCores < 1 {
		return fmt.Errorf("processing.numCores must be at least 1, got %d", c.Processing.NumCores)
	}
	names := map[string]string{
		"input.kspace":      c.Input.KSpace,
		"input.samples":     c.Input.Samples,
		"input.sqrtDcf":     c.Input.SqrtDCF,
		"input.coilProfile": c.Input.CoilProfile,
		"output.dir":        c.Output.Dir,
	}
	for key, v := range names {
		if v == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
