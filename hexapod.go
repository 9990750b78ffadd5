package hexapod

import (
	"fmt"
	"time"
)

// State is shared between all components, and is passed to each on every
// tick. Components mutate it to communicate; the input controller writes
// WalkSpeed, the legs read it.
type State struct {

	// The commanded walking speed, from -1 (full speed backwards) to +1
	// (full speed forwards). Zero means stand still.
	WalkSpeed float64

	// Components can set this to true to indicate that the hex should shut
	// down at the end of the current tick.
	Shutdown bool
}

// Component is anything which can be attached to the hexapod and receive
// ticks from the main loop.
type Component interface {
	Boot() error
	Tick(now time.Time, state *State) error
}

type Hexapod struct {
	Components []Component
	State      State
}

// New creates an empty Hexapod. Components must be added before booting.
func New() *Hexapod {
	return &Hexapod{
		Components: []Component{},
	}
}

// Add registers a component to receive ticks every frame.
func (h *Hexapod) Add(c Component) {
	h.Components = append(h.Components, c)
}

// Boot calls Boot on each component.
func (h *Hexapod) Boot() error {
	for _, c := range h.Components {
		err := c.Boot()
		if err != nil {
			return fmt.Errorf("boot: %w", err)
		}
	}

	return nil
}

// Tick calls Tick on each component, in the order they were added. An error
// from any component aborts the tick; the caller should treat that as fatal,
// since ticking on would let the computed state drift away from the actual
// pose of the robot.
func (h *Hexapod) Tick(now time.Time) error {
	for _, c := range h.Components {
		err := c.Tick(now, &h.State)
		if err != nil {
			return fmt.Errorf("tick: %w", err)
		}
	}

	return nil
}
