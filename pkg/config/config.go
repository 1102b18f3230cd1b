// Package config provides configuration loading and management for spanmidline.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"spanmidline/internal/models"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Atlas holds the fixed landmark frame used by the atlas variant
	Atlas models.LandmarkFrame `yaml:"atlas"`

	// Region selection parameters
	Region struct {
		// ThresholdDivisor turns the frame width into the region threshold
		ThresholdDivisor float64 `yaml:"thresholdDivisor"`

		// HullRadius is the number of closing passes applied to the region
		HullRadius int `yaml:"hullRadius"`

		// MinComponentVoxels is the smallest component kept by the atlas variant
		MinComponentVoxels int `yaml:"minComponentVoxels"`
	} `yaml:"region"`

	// Processing parameters
	Processing struct {
		// Workers bounds how many subjects a batch runs at once
		Workers int `yaml:"workers"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// SaveSnapshot writes a QC image next to the results
		SaveSnapshot bool `yaml:"saveSnapshot"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// mouse atlas frame
	cfg.Atlas = models.LandmarkFrame{
		XCenter:    7.42662,
		XLeft:      2.49401,
		XRight:     12.3626,
		YAnterior:  11.8,
		YPosterior: 3.15,
		ZCenter:    8.10,
		ZSuperior:  11.0,
		ZInferior:  5.2,
	}

	cfg.Region.ThresholdDivisor = 658
	cfg.Region.HullRadius = 1
	cfg.Region.MinComponentVoxels = 9

	cfg.Processing.Workers = runtime.NumCPU()

	cfg.Output.SaveSnapshot = false
	cfg.Output.Verbose = true

	return cfg
}

// Validate checks values that would make a run meaningless
func (c *Config) Validate() error {
	if c.Region.ThresholdDivisor <= 0 {
		return fmt.Errorf("region.thresholdDivisor must be positive, got %g", c.Region.ThresholdDivisor)
	}
	if c.Region.HullRadius < 0 {
		return fmt.Errorf("region.hullRadius must not be negative, got %d", c.Region.HullRadius)
	}
	if c.Region.MinComponentVoxels < 0 {
		return fmt.Errorf("region.minComponentVoxels must not be negative, got %d", c.Region.MinComponentVoxels)
	}
	if c.Processing.Workers < 1 {
		return fmt.Errorf("processing.workers must be at least 1, got %d", c.Processing.Workers)
	}
	return nil
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
	return SaveConfig(DefaultConfig(), configPath)
}
