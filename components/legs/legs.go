// Package legs is the motion controller: it turns a commanded walk speed
// into joint angles for all six legs, one tick at a time. Each tick every
// unlocked leg advances its stride phase, derives a coxa sweep angle, and
// resolves femur/tibia through the IK cache; locked legs are skipped until
// their deferred unlock puts them back on the floor.
package legs

import (
	"errors"
	"math"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/spydeee/hexapod"
	"github.com/spydeee/hexapod/components/legs/gait"
	"github.com/spydeee/hexapod/kinematics"
	"github.com/spydeee/hexapod/servos"
)

const (
	// Mechanical parameters in cm, between rotational points.
	femurLen = 8.0
	tibiaLen = 12.5

	// Standing pose. The lift offset is added to the femur while a leg is
	// repositioning, to keep the foot clear of the floor.
	standFemurAngle = 20.0
	standTibiaAngle = -10.0
	standCoxaAngle  = 0.0
	liftOffset      = 20.0

	// Half of the total coxa sweep per stride.
	sweepAngle = 22.0

	// Steps in one full stride cycle, and the resulting phase step.
	walkResolution = 60
	stepAngle      = 360.0 / walkResolution

	// Servo speed in deg/sec (60 degrees in 0.35s at 6V, padded). The
	// unlock delay and the minimum tick interval derive from this.
	servoMaxSpeed = 60.0 / 0.35

	// Structural coxa offset magnitude for the four asymmetric legs.
	coxaOffset = 20.0

	// Base interval between walk ticks; the speed-dependent multiplier
	// scales it.
	stepTimeInterval = time.Millisecond

	// Upper multiplier bound, so the slowest walk is still a walk.
	maxScale = 80

	// Sleep for one idle tick when the commanded speed is zero.
	idleInterval = 100 * time.Millisecond
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "legs",
})

// Legs is the walking component.
type Legs struct {
	mapper  *servos.Mapper
	cache   *kinematics.Cache
	machine *gait.Machine
	legs    [6]*Leg

	// Direction of the last Walk call. Read by unlock callbacks, which run
	// on timer goroutines.
	lastDirection atomic.Int32

	// Pause between the phases of the stand sequence.
	standPause time.Duration
}

// New creates the walking component on top of the given servo mapper.
func New(mapper *servos.Mapper) *Legs {
	model := kinematics.Model{FemurLen: femurLen, TibiaLen: tibiaLen}
	solver := kinematics.NewSolver(model, standFemurAngle, standTibiaAngle)

	l := &Legs{
		mapper:     mapper,
		cache:      kinematics.NewCache(solver),
		standPause: 400 * time.Millisecond,
		legs: [6]*Leg{
			newLeg(1, -coxaOffset),
			newLeg(2, 0),
			newLeg(3, +coxaOffset),
			newLeg(4, +coxaOffset),
			newLeg(5, 0),
			newLeg(6, -coxaOffset),
		},
	}

	l.machine = gait.New(gait.Config{
		StepAngle:   stepAngle,
		SweepAngle:  sweepAngle,
		UnlockDelay: unlockDelay(),
		Seeds:       [6]float64{150, 210, 90, 180, 120, 240},
	}, l.reposition)

	return l
}

// unlockDelay is how long a leg needs to swing its coxa back across the
// full sweep, which is how long it stays locked after a power stroke.
func unlockDelay() time.Duration {
	seconds := 2 * sweepAngle / servoMaxSpeed
	return time.Duration(seconds * float64(time.Second))
}

// Boot pre-warms the IK cache across the power-stroke domain of every leg,
// then stands the robot up.
func (l *Legs) Boot() error {
	offsets := make([]float64, 0, len(l.legs))
	for _, leg := range l.legs {
		offsets = append(offsets, leg.Offset)
	}
	l.cache.Warm(offsets, sweepAngle, stepAngle)

	return l.Stand()
}

// Tick walks at the speed currently commanded on the shared state.
func (l *Legs) Tick(now time.Time, state *hexapod.State) error {
	if state.Shutdown {
		return nil
	}
	return l.Walk(state.WalkSpeed)
}

// Stand runs the fixed stand-up sequence: coxas centered with femurs
// lifted, then tibias to the standing angle, then femurs lowered. Purely
// timed, no feedback.
func (l *Legs) Stand() error {
	log.Info("standing up")

	for _, leg := range l.legs {
		if err := l.apply(leg.Coxa, standCoxaAngle); err != nil {
			return err
		}
		if err := l.apply(leg.Femur, standFemurAngle+liftOffset); err != nil {
			return err
		}
	}
	time.Sleep(l.standPause)

	for _, leg := range l.legs {
		if err := l.apply(leg.Tibia, standTibiaAngle); err != nil {
			return err
		}
	}
	time.Sleep(l.standPause)

	for _, leg := range l.legs {
		if err := l.apply(leg.Femur, standFemurAngle); err != nil {
			return err
		}
	}
	time.Sleep(l.standPause)

	return nil
}

// Walk advances every unlocked leg by one tick at the given speed, then
// sleeps for the speed-dependent interval. The sign of speed gives the
// direction; zero idles. Legs are always visited in index order so a tick
// is reproducible.
func (l *Legs) Walk(speed float64) error {
	speed = clamp(speed, -1, 1)
	dir := direction(speed)
	l.lastDirection.Store(int32(dir))

	if dir == 0 {
		time.Sleep(idleInterval)
		return nil
	}

	for _, leg := range l.legs {
		if l.machine.Locked(leg.Index) {
			continue
		}
		if err := l.step(leg, dir); err != nil {
			// Fail safe: stop advancing phases rather than walking the
			// computed state away from wherever the hardware stopped.
			return err
		}
	}

	time.Sleep(stepTimeInterval * time.Duration(stepIntervalMultiplier(speed)))
	return nil
}

// step advances one leg's phase and emits its three joint commands.
// Kinematics failures hold the leg's previous angles for this tick and are
// not fatal; transport failures are.
func (l *Legs) step(leg *Leg, dir int) error {
	st := l.machine.Advance(leg.Index, dir)

	femur, tibia, err := l.cache.GetOrCompute(st.Coxa + leg.Offset)
	if err != nil {
		log.Warnf("leg %d: holding previous angles: %s", leg.Index, err)
		return nil
	}

	// While the leg is repositioning the femur stays pinned at the lift
	// angle; coxa and tibia still follow IK so the foot comes down at the
	// right spot.
	if st.Locked {
		femur = standFemurAngle + liftOffset
	}

	if err := l.apply(leg.Coxa, st.Coxa); err != nil {
		return err
	}
	if err := l.apply(leg.Femur, femur); err != nil {
		return err
	}
	return l.apply(leg.Tibia, tibia)
}

// apply sends one joint command. Out-of-range pulses have already been
// logged and dropped by the mapper and don't stop the walk.
func (l *Legs) apply(joint string, angle float64) error {
	err := l.mapper.Apply(joint, angle)
	if errors.Is(err, servos.ErrPulseRange) {
		return nil
	}
	return err
}

// reposition is called by the gait machine when a leg's unlock timer
// fires: one extra step cycle, off the main tick cadence, to put the foot
// back on the floor.
func (l *Legs) reposition(index int) {
	dir := int(l.lastDirection.Load())
	if dir == 0 {
		return
	}

	leg := l.legs[index-1]
	if err := l.step(leg, dir); err != nil {
		log.Errorf("leg %d: reposition: %s", index, err)
	}
}

// stepIntervalMultiplier maps |speed| inversely onto the tick interval
// multiplier. Full speed is clamped to a floor derived from how fast the
// servos can physically sweep; idle speed is clamped to a ceiling so the
// robot keeps a reasonable minimum pace.
func stepIntervalMultiplier(speed float64) int {
	lockTime := 2 * sweepAngle / servoMaxSpeed
	minInterval := lockTime / walkResolution
	minScale := int(minInterval/stepTimeInterval.Seconds()) + 5

	scale := int((1 - math.Abs(speed)) * maxScale)
	if scale > maxScale {
		scale = maxScale
	}
	if scale < minScale {
		scale = minScale
	}
	return scale
}

func direction(speed float64) int {
	if speed < 0 {
		return -1
	}
	if speed > 0 {
		return 1
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
