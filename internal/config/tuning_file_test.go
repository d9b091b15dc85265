package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTuningConfig_FullFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.json")
	contents := `{
		"dimension": 3,
		"method": "least-squares",
		"tolerance": 0.25,
		"zscore_threshold": 4.0,
		"min_spread": 0.75,
		"min_confidence": 0.3,
		"reposition_enabled": false,
		"ring_step": 0.5,
		"max_search_radius": 10.0,
		"ring_samples": 24,
		"fallback_step": 1.5,
		"noise_sigma": 0.05,
		"nlos_inflation": 3.0,
		"trajectory": "circular",
		"step_size": 0.1,
		"orbit_radius": 4.0,
		"seed": 99
	}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.GetDimension())
	assert.Equal(t, "least-squares", cfg.GetMethod())
	assert.Equal(t, 0.25, cfg.GetTolerance())
	assert.Equal(t, 4.0, cfg.GetZScoreThreshold())
	assert.Equal(t, 0.75, cfg.GetMinSpread())
	assert.Equal(t, 0.3, cfg.GetMinConfidence())
	assert.False(t, cfg.GetRepositionEnabled())
	assert.Equal(t, 0.5, cfg.GetRingStep())
	assert.Equal(t, 10.0, cfg.GetMaxSearchRadius())
	assert.Equal(t, 24, cfg.GetRingSamples())
	assert.Equal(t, 1.5, cfg.GetFallbackStep())
	assert.Equal(t, 0.05, cfg.GetNoiseSigma())
	assert.Equal(t, 3.0, cfg.GetNLOSInflation())
	assert.Equal(t, "circular", cfg.GetTrajectory())
	assert.Equal(t, 0.1, cfg.GetStepSize())
	assert.Equal(t, 4.0, cfg.GetOrbitRadius())
	assert.Equal(t, int64(99), cfg.GetSeed())
}

func TestLoadTuningConfig_MissingFile(t *testing.T) {
	_, err := LoadTuningConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
