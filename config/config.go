// Package config loads the robot description file: servo calibration,
// channel wiring, pulse limits, and the bus the PWM chips sit on. The file
// is YAML; anything left out falls back to the values the robot shipped
// with. Calibration is consumed read-only by the rest of the system.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spydeee/hexapod/servos"
)

var jointKinds = []string{"coxa", "femur", "tibia"}

// Robot models the robot description file.
type Robot struct {

	// Linux I2C device file for the bus both PWM chips share.
	BusPath string `yaml:"bus_path"`

	// Chip addresses. Legs 1-3 are on the right chip, 4-6 on the left
	// (viewed from the rear).
	AddrRight uint16 `yaml:"addr_right"`
	AddrLeft  uint16 `yaml:"addr_left"`

	// PWM frequency in Hz. Pulse values below are counts of 1/4096 of this
	// period.
	PWMFrequency float64 `yaml:"pwm_frequency"`

	// Absolute pulse limits for servo travel. Commands mapping outside
	// this range are dropped, never sent.
	MinPulse int `yaml:"min_pulse"`
	MaxPulse int `yaml:"max_pulse"`

	// Run the full pipeline but never touch the hardware.
	DryRun bool `yaml:"dry_run"`

	// Two-point calibration per joint, keyed like "femur3".
	Calibration map[string]servos.Calibration `yaml:"calibration"`

	// PWM channel per joint on its chip.
	Channels map[string]int `yaml:"channels"`
}

// Default returns the configuration the robot was built and calibrated
// with.
func Default() Robot {
	return Robot{
		BusPath:      "/dev/i2c-1",
		AddrRight:    0x40,
		AddrLeft:     0x41,
		PWMFrequency: 60,
		MinPulse:     170,
		MaxPulse:     580,

		Calibration: map[string]servos.Calibration{
			"coxa1":  {PulseA: 376, PulseB: 255, AngleA: 0, AngleB: 45},
			"coxa2":  {PulseA: 353, PulseB: 255, AngleA: 0, AngleB: 40},
			"coxa3":  {PulseA: 365, PulseB: 255, AngleA: 0, AngleB: 43},
			"coxa4":  {PulseA: 360, PulseB: 455, AngleA: 0, AngleB: 29},
			"coxa5":  {PulseA: 401, PulseB: 475, AngleA: 0, AngleB: 25},
			"coxa6":  {PulseA: 365, PulseB: 475, AngleA: 0, AngleB: 35},
			"femur1": {PulseA: 369, PulseB: 575, AngleA: 0, AngleB: 75},
			"femur2": {PulseA: 351, PulseB: 568, AngleA: 0, AngleB: 77},
			"femur3": {PulseA: 386, PulseB: 192, AngleA: 0, AngleB: 73},
			"femur4": {PulseA: 392, PulseB: 580, AngleA: 0, AngleB: 67},
			"femur5": {PulseA: 380, PulseB: 180, AngleA: 0, AngleB: 75},
			"femur6": {PulseA: 382, PulseB: 170, AngleA: 0, AngleB: 69},
			"tibia1": {PulseA: 340, PulseB: 582, AngleA: 0, AngleB: 75},
			"tibia2": {PulseA: 340, PulseB: 180, AngleA: 0, AngleB: 75},
			"tibia3": {PulseA: 359, PulseB: 180, AngleA: 0, AngleB: 75},
			"tibia4": {PulseA: 380, PulseB: 582, AngleA: 0, AngleB: 75},
			"tibia5": {PulseA: 347, PulseB: 582, AngleA: 0, AngleB: 75},
			"tibia6": {PulseA: 367, PulseB: 180, AngleA: 0, AngleB: 75},
		},

		Channels: map[string]int{
			"coxa1": 0, "coxa2": 3, "coxa3": 11,
			"coxa4": 4, "coxa5": 12, "coxa6": 15,
			"femur1": 1, "femur2": 4, "femur3": 12,
			"femur4": 3, "femur5": 11, "femur6": 14,
			"tibia1": 2, "tibia2": 5, "tibia3": 13,
			"tibia4": 2, "tibia5": 10, "tibia6": 13,
		},
	}
}

// Load reads the robot file at path, layered over the defaults. An empty
// path or a missing file yields the defaults unchanged.
func Load(path string) (Robot, error) {
	r := Default()
	if path == "" {
		return r, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return r, nil
		}
		return r, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := r.Validate(); err != nil {
		return r, fmt.Errorf("config: %s: %w", path, err)
	}

	return r, nil
}

// Validate checks that the configuration describes a complete robot.
func (r Robot) Validate() error {
	if r.PWMFrequency <= 0 {
		return fmt.Errorf("pwm_frequency must be positive")
	}
	if r.MinPulse >= r.MaxPulse {
		return fmt.Errorf("min_pulse %d must be below max_pulse %d", r.MinPulse, r.MaxPulse)
	}
	if r.MinPulse < 0 || r.MaxPulse > 4095 {
		return fmt.Errorf("pulse bounds %d..%d outside 12-bit range", r.MinPulse, r.MaxPulse)
	}
	if !r.DryRun && r.BusPath == "" {
		return fmt.Errorf("bus_path is required")
	}

	for _, kind := range jointKinds {
		for leg := 1; leg <= 6; leg++ {
			joint := servos.JointID(kind, leg)

			cal, ok := r.Calibration[joint]
			if !ok {
				return fmt.Errorf("missing calibration for %s", joint)
			}
			if cal.AngleA == cal.AngleB {
				return fmt.Errorf("calibration for %s has equal reference angles", joint)
			}

			channel, ok := r.Channels[joint]
			if !ok {
				return fmt.Errorf("missing channel for %s", joint)
			}
			if channel < 0 || channel > 15 {
				return fmt.Errorf("channel %d for %s outside 0..15", channel, joint)
			}
		}
	}

	return nil
}
