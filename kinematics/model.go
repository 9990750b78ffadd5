// Package kinematics relates the femur and tibia angles of a leg to the
// stance geometry of the body: how high the chassis sits, and how far out
// the foot touches the floor. It also solves the inverse problem, finding
// the femur and tibia angles which keep both constant while the coxa sweeps
// through a stride.
//
// All angles are in degrees, all lengths in centimeters. Femur zero is
// parallel to the floor, positive downwards-rotating; tibia zero is at a
// right angle to the femur.
package kinematics

import (
	"math"

	"github.com/spydeee/hexapod/utils"
)

// Model holds the segment lengths of one leg, measured between rotational
// points. All six legs share the same geometry.
type Model struct {
	FemurLen float64
	TibiaLen float64
}

// RobotHeight returns the vertical distance from the floor (tibia tip) to
// the femur/coxa pivot point for the given pose.
func (m Model) RobotHeight(femurAngle, tibiaAngle float64) float64 {
	return m.TibiaLen*cosd(femurAngle+tibiaAngle) - m.FemurLen*sind(femurAngle)
}

// StanceWidth returns the horizontal distance (along the floor) from the
// tibia tip to the femur pivot point.
func (m Model) StanceWidth(femurAngle, tibiaAngle float64) float64 {
	return m.FemurLen*cosd(femurAngle) + m.TibiaLen*sind(femurAngle+tibiaAngle)
}

// TibiaIntersectWidth returns the horizontal distance from the femur pivot
// point to the point where the tibia line intersects the femur plane.
func (m Model) TibiaIntersectWidth(femurAngle, tibiaAngle float64) float64 {
	return m.FemurLen*cosd(femurAngle) + m.FemurLen*sind(femurAngle)*tand(femurAngle+tibiaAngle)
}

func sind(degrees float64) float64 {
	return math.Sin(utils.Rad(degrees))
}

func cosd(degrees float64) float64 {
	return math.Cos(utils.Rad(degrees))
}

func tand(degrees float64) float64 {
	return math.Tan(utils.Rad(degrees))
}
