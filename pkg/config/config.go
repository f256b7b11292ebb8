// Package config provides configuration loading and management for meshseg.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"meshseg/pkg/filter"
	"meshseg/pkg/matrix"
	"meshseg/pkg/segmentation"
	"meshseg/pkg/volume"
)

// ErrInvalid is wrapped by Validate for every rejected value.
var ErrInvalid = errors.New("config: invalid value")

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for parallel processing
		NumCores int `yaml:"numCores"`

		// MedianRadius is the radius of the denoising median filter in voxels
		MedianRadius int `yaml:"medianRadius"`

		// WindowMax is the upper bound of the rescaled intensity range
		WindowMax float64 `yaml:"windowMax"`

		// ContrastFactor is +1 for dark structures and -1 for bright ones
		ContrastFactor float64 `yaml:"contrastFactor"`
	} `yaml:"processing"`

	// Gradient field sampling parameters
	Sampling struct {
		Normalize        bool    `yaml:"normalize"`
		SuppressOutliers bool    `yaml:"suppressOutliers"`
		OutlierFraction  float64 `yaml:"outlierFraction"`
	} `yaml:"sampling"`

	// Linear algebra parameters
	Linalg struct {
		// PinvTolerance is the singular value cutoff for local fits
		PinvTolerance float64 `yaml:"pinvTolerance"`
	} `yaml:"linalg"`

	// Phantom used by the self-check
	Phantom struct {
		Size   int     `yaml:"size"`
		Radius float64 `yaml:"radius"`
		Stacks int     `yaml:"stacks"`
		Slices int     `yaml:"slices"`
	} `yaml:"phantom"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// STLFile receives the rasterized surface; empty disables export
		STLFile string `yaml:"stlFile"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumCores = runtime.NumCPU()
	cfg.Processing.MedianRadius = filter.DefaultMedianRadius
	cfg.Processing.WindowMax = 1000
	cfg.Processing.ContrastFactor = 1

	cfg.Sampling.Normalize = true
	cfg.Sampling.SuppressOutliers = true
	cfg.Sampling.OutlierFraction = volume.DefaultOutlierFraction

	cfg.Linalg.PinvTolerance = matrix.DefaultTolerance

	cfg.Phantom.Size = 32
	cfg.Phantom.Radius = 10
	cfg.Phantom.Stacks = 24
	cfg.Phantom.Slices = 48

	cfg.Output.Verbose = true
	cfg.Output.STLFile = ""

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
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
		return nil, err
	}
	return cfg, nil
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

// Validate reports the first out-of-range value.
func (c *Config) Validate() error {
	switch {
	case c.Processing.NumCores < 0:
		return fmt.Errorf("processing.numCores %d: %w", c.Processing.NumCores, ErrInvalid)
	case c.Processing.MedianRadius < 0:
		return fmt.Errorf("processing.medianRadius %d: %w", c.Processing.MedianRadius, ErrInvalid)
	case !(c.Processing.WindowMax > 0):
		return fmt.Errorf("processing.windowMax %g: %w", c.Processing.WindowMax, ErrInvalid)
	case c.Processing.ContrastFactor != 1 && c.Processing.ContrastFactor != -1:
		return fmt.Errorf("processing.contrastFactor %g must be 1 or -1: %w", c.Processing.ContrastFactor, ErrInvalid)
	case !(c.Sampling.OutlierFraction > 0 && c.Sampling.OutlierFraction <= 1):
		return fmt.Errorf("sampling.outlierFraction %g: %w", c.Sampling.OutlierFraction, ErrInvalid)
	case !(c.Linalg.PinvTolerance >= 0):
		return fmt.Errorf("linalg.pinvTolerance %g: %w", c.Linalg.PinvTolerance, ErrInvalid)
	case c.Phantom.Size < 4:
		return fmt.Errorf("phantom.size %d: %w", c.Phantom.Size, ErrInvalid)
	case !(c.Phantom.Radius > 0) || 2*c.Phantom.Radius >= float64(c.Phantom.Size-1):
		return fmt.Errorf("phantom.radius %g does not fit a grid of %d: %w", c.Phantom.Radius, c.Phantom.Size, ErrInvalid)
	case c.Phantom.Stacks < 2 || c.Phantom.Slices < 3:
		return fmt.Errorf("phantom tessellation %dx%d: %w", c.Phantom.Stacks, c.Phantom.Slices, ErrInvalid)
	}
	return nil
}

// Params maps the configuration onto segmentation parameters.
func (c *Config) Params() *segmentation.Params {
	p := segmentation.DefaultParams()
	if c.Processing.NumCores > 0 {
		p.NumCores = c.Processing.NumCores
	}
	p.MedianRadius = c.Processing.MedianRadius
	p.OutputWindow = filter.Window{Min: 0, Max: c.Processing.WindowMax}
	p.ContrastFactor = c.Processing.ContrastFactor
	p.Normalize = c.Sampling.Normalize
	p.SuppressOutliers = c.Sampling.SuppressOutliers
	p.OutlierFraction = c.Sampling.OutlierFraction
	p.PinvTolerance = c.Linalg.PinvTolerance
	p.OutputFile = c.Output.STLFile
	p.Verbose = c.Output.Verbose
	return p
}
