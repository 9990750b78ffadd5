package legs

import (
	"github.com/spydeee/hexapod/servos"
)

// Leg is the static description of one leg: its index, the joint IDs its
// commands route to, and the coxa offset its IK runs through.
//
// Leg 1 is the rear right leg, numbering increasing counter-clockwise seen
// from above. Only legs 2 and 5 have their tibia in line with the femur
// pivot; the other four are structurally offset, and the offset below
// folds that into the coxa angle the solver sees.
type Leg struct {
	Index int

	// Structural coxa offset in degrees, applied only inside IK.
	Offset float64

	Coxa  string
	Femur string
	Tibia string
}

func newLeg(index int, offset float64) *Leg {
	return &Leg{
		Index:  index,
		Offset: offset,
		Coxa:   servos.JointID("coxa", index),
		Femur:  servos.JointID("femur", index),
		Tibia:  servos.JointID("tibia", index),
	}
}
