package kinematics

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/spydeee/hexapod/utils"
)

var (
	// ErrUnconverged is returned when the root-finder exhausts its iteration
	// budget without landing on a femur angle.
	ErrUnconverged = errors.New("femur angle did not converge")

	// ErrUnreachable is returned when the requested stance cannot be reached
	// by the leg (the tibia equation leaves the acos domain).
	ErrUnreachable = errors.New("geometry unreachable")
)

const (
	maxIterations = 50

	// Residual tolerance for the femur equation, in cm².
	residualTol = 1e-9

	// Step tolerance, in radians. If Newton moves less than this we are done
	// even if the residual check hasn't tripped yet.
	stepTol = 1e-12
)

// Solver finds the femur and tibia angles which keep the body height
// constant and the foot on its travel line while the coxa sweeps. The
// height and stance width are fixed at construction from the standing
// pose, on the assumption that the body does not move vertically mid-walk.
type Solver struct {
	model  Model
	height float64
	stance float64

	// Standing femur angle, in radians. The default seed for every solve.
	seed float64

	mu sync.Mutex

	// The femur angle of the most recent converged solve, in radians. Used
	// as a fallback seed when the standing-pose seed diverges.
	lastConverged float64
}

// NewSolver derives the session constants from the standing pose and
// returns a solver for it.
func NewSolver(m Model, standFemurAngle, standTibiaAngle float64) *Solver {
	seed := utils.Rad(standFemurAngle)

	return &Solver{
		model:         m,
		height:        m.RobotHeight(standFemurAngle, standTibiaAngle),
		stance:        m.StanceWidth(standFemurAngle, standTibiaAngle),
		seed:          seed,
		lastConverged: seed,
	}
}

// Height returns the body height derived from the standing pose.
func (s *Solver) Height() float64 {
	return s.height
}

// StanceWidth returns the stance width derived from the standing pose.
func (s *Solver) StanceWidth() float64 {
	return s.stance
}

// Solve returns the femur and tibia angles (in degrees) for the given
// effective coxa angle, such that the body height stays constant and the
// tibia tip stays on the line parallel to the direction of travel. The
// solve is deterministic: the same input always produces the same output.
func (s *Solver) Solve(coxaAngle float64) (float64, float64, error) {
	c := cosd(coxaAngle)
	if math.Abs(c) < 1e-6 {
		return 0, 0, fmt.Errorf("coxa=%0.3f: %w", coxaAngle, ErrUnreachable)
	}

	// The horizontal reach needed so the tibia tip lands on the line
	// coinciding with the other tibia tips. This is what prevents the feet
	// from slipping as the coxa sweeps.
	d := s.stance / c

	femurRad, err := s.newton(d, s.seed)
	if err != nil {
		// Retry once from the last converged angle, which is usually much
		// closer to the root than the standing pose when the sweep is wide.
		s.mu.Lock()
		retrySeed := s.lastConverged
		s.mu.Unlock()

		femurRad, err = s.newton(d, retrySeed)
		if err != nil {
			return 0, 0, fmt.Errorf("coxa=%0.3f: %w", coxaAngle, err)
		}
	}

	// The tibia angle follows exactly from the femur angle.
	arg := (s.height + s.model.FemurLen*math.Sin(femurRad)) / s.model.TibiaLen
	if arg < -1 || arg > 1 {
		return 0, 0, fmt.Errorf("coxa=%0.3f acos(%0.4f): %w", coxaAngle, arg, ErrUnreachable)
	}
	tibiaRad := math.Acos(arg) - femurRad

	s.mu.Lock()
	s.lastConverged = femurRad
	s.mu.Unlock()

	return utils.Deg(femurRad), utils.Deg(tibiaRad), nil
}

// newton runs a bounded Newton iteration on the femur equation
//
//	f(x) = (height + femurLen·sin x)² + (d − femurLen·cos x)² − tibiaLen²
//
// where x is the femur angle in radians and d the required reach.
func (s *Solver) newton(d, seed float64) (float64, error) {
	fl := s.model.FemurLen
	tl := s.model.TibiaLen

	residual := func(x float64) float64 {
		p := s.height + fl*math.Sin(x)
		q := d - fl*math.Cos(x)
		return p*p + q*q - tl*tl
	}

	x := seed
	for i := 0; i < maxIterations; i++ {
		fx := residual(x)
		if math.Abs(fx) < residualTol {
			return x, nil
		}

		sin, cos := math.Sincos(x)
		p := s.height + fl*sin
		q := d - fl*cos

		dfx := 2*p*fl*cos + 2*q*fl*sin
		if dfx == 0 {
			break
		}

		step := fx / dfx
		x -= step

		// Flat spot: the iteration has stalled somewhere that isn't a root.
		if math.Abs(step) < stepTol && math.Abs(residual(x)) >= residualTol {
			break
		}
	}

	return 0, ErrUnconverged
}
