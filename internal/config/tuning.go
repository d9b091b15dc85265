// Package config loads the simulation tuning parameters from JSON. Fields
// are pointers so that a partial config file only overrides what it names;
// the Get* accessors supply defaults for everything else, which keeps one
// schema usable for both startup configuration and runtime updates over the
// API.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TuningConfig is the root configuration for the solver, checker and
// simulation driver.
type TuningConfig struct {
	// Solver params
	Dimension *int     `json:"dimension,omitempty"`
	Method    *string  `json:"method,omitempty"` // "geometric", "least-squares", "hybrid"
	Tolerance *float64 `json:"tolerance,omitempty"`

	// Occlusion checker params
	ZScoreThreshold *float64 `json:"zscore_threshold,omitempty"`
	MinSpread       *float64 `json:"min_spread,omitempty"`
	MinConfidence   *float64 `json:"min_confidence,omitempty"`

	// Reposition heuristic params
	RepositionEnabled *bool    `json:"reposition_enabled,omitempty"`
	RingStep          *float64 `json:"ring_step,omitempty"`
	MaxSearchRadius   *float64 `json:"max_search_radius,omitempty"`
	RingSamples       *int     `json:"ring_samples,omitempty"`
	FallbackStep      *float64 `json:"fallback_step,omitempty"`

	// Simulation params
	NoiseSigma    *float64 `json:"noise_sigma,omitempty"`
	NLOSInflation *float64 `json:"nlos_inflation,omitempty"`
	Trajectory    *string  `json:"trajectory,omitempty"` // "random-walk" or "circular"
	StepSize      *float64 `json:"step_size,omitempty"`
	OrbitRadius   *float64 `json:"orbit_radius,omitempty"`
	Seed          *int64   `json:"seed,omitempty"`
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted
// from the file retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &TuningConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *TuningConfig) Validate() error {
	if c.Dimension != nil && *c.Dimension != 2 && *c.Dimension != 3 {
		return fmt.Errorf("dimension must be 2 or 3, got %d", *c.Dimension)
	}
	if c.Method != nil {
		switch *c.Method {
		case "geometric", "least-squares", "hybrid":
		default:
			return fmt.Errorf("unknown method %q", *c.Method)
		}
	}
	if c.Tolerance != nil && *c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %f", *c.Tolerance)
	}
	if c.ZScoreThreshold != nil && *c.ZScoreThreshold <= 0 {
		return fmt.Errorf("zscore_threshold must be positive, got %f", *c.ZScoreThreshold)
	}
	if c.MinConfidence != nil && (*c.MinConfidence < 0 || *c.MinConfidence > 1) {
		return fmt.Errorf("min_confidence must be between 0 and 1, got %f", *c.MinConfidence)
	}
	if c.NoiseSigma != nil && *c.NoiseSigma < 0 {
		return fmt.Errorf("noise_sigma must be non-negative, got %f", *c.NoiseSigma)
	}
	if c.Trajectory != nil {
		switch *c.Trajectory {
		case "random-walk", "circular":
		default:
			return fmt.Errorf("unknown trajectory %q", *c.Trajectory)
		}
	}
	if c.RingSamples != nil && *c.RingSamples < 1 {
		return fmt.Errorf("ring_samples must be at least 1, got %d", *c.RingSamples)
	}
	return nil
}

// GetDimension returns the dimension or the default (2).
func (c *TuningConfig) GetDimension() int {
	if c.Dimension == nil {
		return 2
	}
	return *c.Dimension
}

// GetMethod returns the solver method or the default ("hybrid").
func (c *TuningConfig) GetMethod() string {
	if c.Method == nil {
		return "hybrid"
	}
	return *c.Method
}

// GetTolerance returns the tolerance or the default (0.5).
func (c *TuningConfig) GetTolerance() float64 {
	if c.Tolerance == nil {
		return 0.5
	}
	return *c.Tolerance
}

// GetZScoreThreshold returns the zscore_threshold value or the default (5.0).
func (c *TuningConfig) GetZScoreThreshold() float64 {
	if c.ZScoreThreshold == nil {
		return 5.0
	}
	return *c.ZScoreThreshold
}

// GetMinSpread returns the min_spread value or the default (0.5).
func (c *TuningConfig) GetMinSpread() float64 {
	if c.MinSpread == nil {
		return 0.5
	}
	return *c.MinSpread
}

// GetMinConfidence returns the min_confidence value or the default (0.2).
func (c *TuningConfig) GetMinConfidence() float64 {
	if c.MinConfidence == nil {
		return 0.2
	}
	return *c.MinConfidence
}

// GetRepositionEnabled returns the reposition_enabled value or the default (true).
func (c *TuningConfig) GetRepositionEnabled() bool {
	if c.RepositionEnabled == nil {
		return true
	}
	return *c.RepositionEnabled
}

// GetRingStep returns the ring_step value or the default (1.0).
func (c *TuningConfig) GetRingStep() float64 {
	if c.RingStep == nil {
		return 1.0
	}
	return *c.RingStep
}

// GetMaxSearchRadius returns the max_search_radius value or the default (6.0).
func (c *TuningConfig) GetMaxSearchRadius() float64 {
	if c.MaxSearchRadius == nil {
		return 6.0
	}
	return *c.MaxSearchRadius
}

// GetRingSamples returns the ring_samples value or the default (12).
func (c *TuningConfig) GetRingSamples() int {
	if c.RingSamples == nil {
		return 12
	}
	return *c.RingSamples
}

// GetFallbackStep returns the fallback_step value or the default (2.0).
func (c *TuningConfig) GetFallbackStep() float64 {
	if c.FallbackStep == nil {
		return 2.0
	}
	return *c.FallbackStep
}

// GetNoiseSigma returns the noise_sigma value or the default (0.1).
func (c *TuningConfig) GetNoiseSigma() float64 {
	if c.NoiseSigma == nil {
		return 0.1
	}
	return *c.NoiseSigma
}

// GetNLOSInflation returns the nlos_inflation value or the default (5.0).
func (c *TuningConfig) GetNLOSInflation() float64 {
	if c.NLOSInflation == nil {
		return 5.0
	}
	return *c.NLOSInflation
}

// GetTrajectory returns the trajectory value or the default ("random-walk").
func (c *TuningConfig) GetTrajectory() string {
	if c.Trajectory == nil {
		return "random-walk"
	}
	return *c.Trajectory
}

// GetStepSize returns the step_size value or the default (0.25).
func (c *TuningConfig) GetStepSize() float64 {
	if c.StepSize == nil {
		return 0.25
	}
	return *c.StepSize
}

// GetOrbitRadius returns the orbit_radius value or the default (3.0).
func (c *TuningConfig) GetOrbitRadius() float64 {
	if c.OrbitRadius == nil {
		return 3.0
	}
	return *c.OrbitRadius
}

// GetSeed returns the seed value or the default (1).
func (c *TuningConfig) GetSeed() int64 {
	if c.Seed == nil {
		return 1
	}
	return *c.Seed
}
