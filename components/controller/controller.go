// Package controller maps a Sixaxis gamepad onto the shared state: the
// left stick commands the walk speed, START shuts the robot down.
package controller

import (
	"io"
	"math"
	"time"

	"github.com/adammck/sixaxis"
	"github.com/sirupsen/logrus"

	"github.com/spydeee/hexapod"
)

const (

	// Stick values inside this fraction of full scale read as zero, so a
	// drifting stick doesn't creep the robot forwards.
	deadZone = 0.08
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "controller",
})

type Controller struct {
	sa    *sixaxis.SA
	start Latch
}

func New(r io.Reader) *Controller {
	return &Controller{
		sa: sixaxis.New(r),
	}
}

func (c *Controller) Boot() error {
	go c.sa.Run()
	return nil
}

func (c *Controller) Tick(now time.Time, state *hexapod.State) error {

	// Forward on the stick is negative Y.
	speed := float64(-c.sa.LeftStick.Y) / 127.0
	if math.Abs(speed) < deadZone {
		speed = 0
	}
	if speed > 1 {
		speed = 1
	}
	if speed < -1 {
		speed = -1
	}
	state.WalkSpeed = speed

	if c.start.Run(c.sa.Start) {
		log.Info("pressed START, shutting down")
		state.Shutdown = true
	}

	return nil
}
