package kinematics

import (
	"math"
	"testing"
)

type poseEg struct {
	femur     float64
	tibia     float64
	height    float64
	stance    float64
	intersect float64
}

func TestModel(t *testing.T) {
	m := Model{FemurLen: 8.0, TibiaLen: 12.5}

	data := []poseEg{
		// Standing pose. Note that the tibia intersect collapses to exactly
		// femurLen·cos(tibia)/cos(femur+tibia) = 8.0 here.
		poseEg{20, -10, 9.573942, 9.688141, 8.000000},
		poseEg{0, 0, 12.5, 8.0, 8.0},
		poseEg{30, 0, 6.825318, 13.178172, 9.237604},
	}

	for i, eg := range data {
		h := m.RobotHeight(eg.femur, eg.tibia)
		if math.Abs(h-eg.height) > 0.0001 {
			t.Errorf("Example #%d: RobotHeight got %0.6f, expected %0.6f", i+1, h, eg.height)
		}

		w := m.StanceWidth(eg.femur, eg.tibia)
		if math.Abs(w-eg.stance) > 0.0001 {
			t.Errorf("Example #%d: StanceWidth got %0.6f, expected %0.6f", i+1, w, eg.stance)
		}

		x := m.TibiaIntersectWidth(eg.femur, eg.tibia)
		if math.Abs(x-eg.intersect) > 0.0001 {
			t.Errorf("Example #%d: TibiaIntersectWidth got %0.6f, expected %0.6f", i+1, x, eg.intersect)
		}
	}
}
