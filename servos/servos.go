// Package servos maps joint angles onto bounded pulse commands for the PWM
// devices driving the leg servos. It owns the angle-to-pulse calibration,
// the hardware range policy, and the record of what each servo was last
// successfully told to do.
package servos

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "servos",
})

// ErrPulseRange is returned when an angle maps to a pulse outside the
// configured hardware bounds. The command is logged and dropped, never
// sent; callers should treat this as a warning, not a transport failure.
var ErrPulseRange = errors.New("pulse out of range")

// Device is a PWM chip channel sink. pulse is in device counts.
type Device interface {
	SetPulse(channel int, pulse int) error
}

// Calibration holds two measured (pulse, angle) reference points for one
// servo. The pulse for any angle follows by linear interpolation or
// extrapolation; hobby servos are linear enough for this over their range.
type Calibration struct {
	PulseA int     `yaml:"pulse_a"`
	PulseB int     `yaml:"pulse_b"`
	AngleA float64 `yaml:"angle_a"`
	AngleB float64 `yaml:"angle_b"`
}

// Mapper converts joint angles to pulses and routes them to the correct
// device. Legs 1-3 are wired to the right-side chip, legs 4-6 to the left.
type Mapper struct {
	right Device
	left  Device

	calibration map[string]Calibration
	channels    map[string]int
	minPulse    int
	maxPulse    int

	// When set, the full pipeline runs (mapping, bounds check, bookkeeping)
	// but nothing is sent to the devices. Used for offline validation.
	dryRun bool

	mu      sync.Mutex
	applied map[string]float64
}

// NewMapper builds a mapper over the two PWM devices. The calibration and
// channel maps are keyed by joint ID and consumed read-only.
func NewMapper(right, left Device, calibration map[string]Calibration, channels map[string]int, minPulse, maxPulse int, dryRun bool) *Mapper {
	return &Mapper{
		right:       right,
		left:        left,
		calibration: calibration,
		channels:    channels,
		minPulse:    minPulse,
		maxPulse:    maxPulse,
		dryRun:      dryRun,
		applied:     map[string]float64{},
	}
}

// JointID returns the key for one joint of one leg, e.g. "femur3".
func JointID(kind string, leg int) string {
	return kind + strconv.Itoa(leg)
}

// Apply converts the angle to a pulse and sends it to the servo. If the
// pulse falls outside the hardware bounds the command is dropped with
// ErrPulseRange, and the last applied angle is left as it was: it must
// keep describing what the servo actually did last.
func (m *Mapper) Apply(joint string, angle float64) error {
	cal, ok := m.calibration[joint]
	if !ok {
		return fmt.Errorf("servo %s: no calibration", joint)
	}

	pulse := pulseFromAngle(cal, angle)
	if pulse < m.minPulse || pulse > m.maxPulse {
		log.Warnf("servo %s told to go to an out of range pulse: %d (angle %0.2f)", joint, pulse, angle)
		return fmt.Errorf("servo %s: pulse %d: %w", joint, pulse, ErrPulseRange)
	}

	if !m.dryRun {
		channel, ok := m.channels[joint]
		if !ok {
			return fmt.Errorf("servo %s: no channel", joint)
		}

		err := m.device(joint).SetPulse(channel, pulse)
		if err != nil {
			return fmt.Errorf("servo %s: %w", joint, err)
		}
	}

	m.mu.Lock()
	m.applied[joint] = angle
	m.mu.Unlock()

	return nil
}

// Applied returns the angle last successfully applied to the joint.
func (m *Mapper) Applied(joint string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	angle, ok := m.applied[joint]
	return angle, ok
}

func (m *Mapper) device(joint string) Device {
	if legOf(joint) >= 4 {
		return m.left
	}
	return m.right
}

// legOf extracts the leg number from a joint ID like "tibia6".
func legOf(joint string) int {
	if joint == "" {
		return 0
	}
	n, err := strconv.Atoi(joint[len(joint)-1:])
	if err != nil {
		return 0
	}
	return n
}

func pulseFromAngle(cal Calibration, angle float64) int {
	slope := float64(cal.PulseB-cal.PulseA) / (cal.AngleB - cal.AngleA)
	intercept := float64(cal.PulseA) - slope*cal.AngleA
	return int(math.Round(slope*angle + intercept))
}
