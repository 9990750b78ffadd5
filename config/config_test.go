package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), r)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robot.yaml")
	body := `
dry_run: true
min_pulse: 200
calibration:
  coxa1:
    pulse_a: 400
    pulse_b: 300
    angle_a: 0
    angle_b: 45
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	r, err := Load(path)
	require.NoError(t, err)

	assert.True(t, r.DryRun)
	assert.Equal(t, 200, r.MinPulse)
	assert.Equal(t, 580, r.MaxPulse)

	// The overridden joint changed; the other seventeen kept defaults.
	assert.Equal(t, 400, r.Calibration["coxa1"].PulseA)
	assert.Equal(t, 353, r.Calibration["coxa2"].PulseA)
	assert.Len(t, r.Calibration, 18)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robot.yaml")
	body := `
min_pulse: 600
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_pulse")
}

func TestValidateCatchesDegenerateCalibration(t *testing.T) {
	r := Default()
	cal := r.Calibration["tibia4"]
	cal.AngleB = cal.AngleA
	r.Calibration["tibia4"] = cal

	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tibia4")
}
