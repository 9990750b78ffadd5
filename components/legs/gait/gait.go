// Package gait tracks where each leg is in its stride cycle. Each leg has a
// phase angle which advances every tick; the coxa sweep angle is a sine of
// that phase. While the phase is inside the power-stroke window the foot is
// on the floor pushing; when it leaves the window the leg is locked with the
// femur lifted, the phase jumps half a cycle so the next power stroke starts
// at floor contact, and a timer unlocks the leg once the coxa has had time
// to swing back.
package gait

import (
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spydeee/hexapod/utils"
)

const numLegs = 6

var log = logrus.WithFields(logrus.Fields{
	"pkg": "gait",
})

// Stroke classifies a leg's phase: pushing on the floor, or lifted and
// repositioning.
type Stroke int

const (
	PowerStroke Stroke = iota
	ReturnStroke
)

func (s Stroke) String() string {
	if s == PowerStroke {
		return "power"
	}
	return "return"
}

// Config holds the stride parameters. All angles in degrees.
type Config struct {

	// Degrees the phase moves per tick.
	StepAngle float64

	// Half of the total coxa sweep.
	SweepAngle float64

	// How long a leg stays locked after the end of its power stroke, i.e.
	// how long the coxa needs to swing back across the full sweep.
	UnlockDelay time.Duration

	// Initial phase per leg. Staggered seeds realize the tripod gait.
	Seeds [numLegs]float64
}

// Step is the outcome of advancing one leg by one tick.
type Step struct {

	// Phase after the advance (and the half-cycle jump, if the leg just
	// locked), normalized to [0,360).
	Phase float64

	// The coxa sweep angle for this phase.
	Coxa float64

	// True if the leg is locked. On the tick which locked the leg the
	// caller must pin the femur to the lift angle; afterwards it should
	// skip the leg entirely until the unlock fires.
	Locked bool
}

// Machine holds the per-leg stride state. Legs are numbered 1 to 6. All
// state is guarded per leg, because unlock timers fire on their own
// goroutines while the tick loop is running.
type Machine struct {
	cfg  Config
	legs [numLegs]*legState

	// Called (off the tick goroutine) when a leg unlocks, so the owner can
	// run the one extra step that puts the foot back on the floor.
	onUnlock func(leg int)
}

type legState struct {
	mu     sync.Mutex
	phase  float64
	locked bool

	// Lock generation. Bumped every time the leg locks; an unlock timer
	// carrying a stale generation is ignored, so a timer from a previous
	// lock can never release a later one early.
	gen uint64
}

func New(cfg Config, onUnlock func(leg int)) *Machine {
	m := &Machine{
		cfg:      cfg,
		onUnlock: onUnlock,
	}

	for i := range m.legs {
		m.legs[i] = &legState{phase: normalize(cfg.Seeds[i])}
	}

	return m
}

// Advance moves one leg's phase by one step in the given direction (+1 or
// -1) and returns the resulting step. If the advance carried the leg out of
// its power stroke, the leg locks, an unlock is scheduled, and the phase
// jumps half a cycle.
func (m *Machine) Advance(leg int, direction int) Step {
	ls := m.leg(leg)
	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.phase = normalize(ls.phase + float64(direction)*m.cfg.StepAngle)

	if Classify(ls.phase, direction) == ReturnStroke {
		ls.locked = true
		ls.gen++
		m.scheduleUnlock(leg, ls.gen)

		// Jump to the far side of the cycle so that when the leg unlocks
		// and touches down, it is at the start of its next power stroke.
		ls.phase = normalize(ls.phase + float64(direction)*180)

		log.Debugf("leg %d locked, phase jumped to %0.1f", leg, ls.phase)
	}

	return Step{
		Phase:  ls.phase,
		Coxa:   m.cfg.SweepAngle * math.Sin(utils.Rad(ls.phase)),
		Locked: ls.locked,
	}
}

// Classify reports whether a phase angle is in the power stroke or the
// return stroke. Walking forwards the power stroke is [90,270]; walking
// backwards it is the complementary window, endpoints included, so the
// foot spends the same 181 degrees on the floor either way.
func Classify(phase float64, direction int) Stroke {
	if direction >= 0 {
		if phase >= 90 && phase <= 270 {
			return PowerStroke
		}
		return ReturnStroke
	}

	if phase <= 90 || phase >= 270 {
		return PowerStroke
	}
	return ReturnStroke
}

// Locked reports whether a leg is currently locked for repositioning.
func (m *Machine) Locked(leg int) bool {
	ls := m.leg(leg)
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.locked
}

// Phase returns a leg's current phase angle.
func (m *Machine) Phase(leg int) float64 {
	ls := m.leg(leg)
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.phase
}

func (m *Machine) leg(leg int) *legState {
	return m.legs[leg-1]
}

func normalize(phase float64) float64 {
	phase = math.Mod(phase, 360)
	if phase < 0 {
		phase += 360
	}
	return phase
}
