// Package config loads engine tuning parameters from JSON. The schema is
// shared between startup configuration and the monitor's runtime settings
// endpoint, so partial files are safe: omitted fields keep their defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical engine defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/engine.defaults.json"

// EngineConfig represents the tunable parameters of the risk engine:
// Monte-Carlo sampling, quadrature refinement, and sweep execution.
type EngineConfig struct {
	// Monte-Carlo params
	SampleCount *int    `json:"sample_count,omitempty"`
	Seed        *uint64 `json:"seed,omitempty"`

	// Quadrature params
	Tolerance *float64 `json:"tolerance,omitempty"`
	PPFBound  *float64 `json:"ppf_bound,omitempty"`
	BaseOrder *int     `json:"base_order,omitempty"`
	MaxOrder  *int     `json:"max_order,omitempty"`

	// Sweep params
	SweepWorkers *int `json:"sweep_workers,omitempty"`
}

// EmptyEngineConfig returns an EngineConfig with all fields set to nil.
// Use LoadEngineConfig to load actual values from a defaults file.
func EmptyEngineConfig() *EngineConfig {
	return &EngineConfig{}
}

// LoadEngineConfig loads an EngineConfig from a JSON file. The file must
// have a .json extension and stay under the max file size.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyEngineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical engine defaults from
// DefaultConfigPath, searching the current directory and common parent
// directories. Panics if the file cannot be loaded; intended for test
// setup.
func MustLoadDefaultConfig() *EngineConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadEngineConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are usable by the engine.
func (c *EngineConfig) Validate() error {
	if c.SampleCount != nil && *c.SampleCount <= 0 {
		return fmt.Errorf("sample_count must be positive, got %d", *c.SampleCount)
	}
	if c.Tolerance != nil && *c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %g", *c.Tolerance)
	}
	if c.PPFBound != nil {
		if *c.PPFBound <= 0 || *c.PPFBound >= 0.5 {
			return fmt.Errorf("ppf_bound must be in (0, 0.5), got %g", *c.PPFBound)
		}
	}
	if c.BaseOrder != nil && *c.BaseOrder < 2 {
		return fmt.Errorf("base_order must be at least 2, got %d", *c.BaseOrder)
	}
	if c.MaxOrder != nil && c.BaseOrder != nil && *c.MaxOrder < *c.BaseOrder {
		return fmt.Errorf("max_order %d below base_order %d", *c.MaxOrder, *c.BaseOrder)
	}
	if c.SweepWorkers != nil && *c.SweepWorkers <= 0 {
		return fmt.Errorf("sweep_workers must be positive, got %d", *c.SweepWorkers)
	}
	return nil
}

// GetSampleCount returns the sample_count value or the default.
func (c *EngineConfig) GetSampleCount() int {
	if c.SampleCount == nil {
		return 50_000_000
	}
	return *c.SampleCount
}

// GetSeed returns the seed value or the default.
func (c *EngineConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return 1
	}
	return *c.Seed
}

// GetTolerance returns the tolerance value or the default.
func (c *EngineConfig) GetTolerance() float64 {
	if c.Tolerance == nil {
		return 1e-6
	}
	return *c.Tolerance
}

// GetPPFBound returns the ppf_bound value or the default.
func (c *EngineConfig) GetPPFBound() float64 {
	if c.PPFBound == nil {
		return 1e-12
	}
	return *c.PPFBound
}

// GetBaseOrder returns the base_order value or the default.
func (c *EngineConfig) GetBaseOrder() int {
	if c.BaseOrder == nil {
		return 15
	}
	return *c.BaseOrder
}

// GetMaxOrder returns the max_order value or the default.
func (c *EngineConfig) GetMaxOrder() int {
	if c.MaxOrder == nil {
		return 511
	}
	return *c.MaxOrder
}

// GetSweepWorkers returns the sweep_workers value or the default.
func (c *EngineConfig) GetSweepWorkers() int {
	if c.SweepWorkers == nil {
		return 4
	}
	return *c.SweepWorkers
}
