// Package pca9685 drives the NXP PCA9685 16-channel PWM chip, which the
// leg servos hang off in two banks of nine. Only the small slice of the
// chip we need is implemented: frequency setup and per-channel pulse width.
package pca9685

import (
	"fmt"
	"math"
	"time"

	"tinygo.org/x/drivers"
)

const (
	regMode1    = 0x00
	regPrescale = 0xFE
	regLED0OnL  = 0x06

	mode1Sleep   = 0x10
	mode1AutoInc = 0x20
	mode1Restart = 0x80

	// Internal oscillator frequency, per datasheet.
	oscClock = 25000000.0

	numChannels = 16
	maxPulse    = 4095
)

// Device is one PCA9685 on an I2C bus.
type Device struct {
	bus  drivers.I2C
	addr uint16
}

func New(bus drivers.I2C, addr uint16) *Device {
	return &Device{
		bus:  bus,
		addr: addr,
	}
}

// Configure sets the PWM frequency for all channels. The prescaler can
// only be written while the chip sleeps, so this glitches the outputs;
// call it once at boot, before any servo is commanded.
func (d *Device) Configure(freqHz float64) error {
	if freqHz <= 0 {
		return fmt.Errorf("pca9685: invalid frequency %0.1f", freqHz)
	}
	prescale := byte(math.Round(oscClock/(4096*freqHz)) - 1)

	if err := d.write(regMode1, mode1Sleep); err != nil {
		return fmt.Errorf("pca9685: sleep: %w", err)
	}
	if err := d.write(regPrescale, prescale); err != nil {
		return fmt.Errorf("pca9685: prescale: %w", err)
	}
	if err := d.write(regMode1, mode1AutoInc); err != nil {
		return fmt.Errorf("pca9685: wake: %w", err)
	}

	// The oscillator needs 500us to stabilize before restart.
	time.Sleep(time.Millisecond)

	if err := d.write(regMode1, mode1AutoInc|mode1Restart); err != nil {
		return fmt.Errorf("pca9685: restart: %w", err)
	}

	return nil
}

// SetPulse sets the high time of one channel, in 12-bit counts of the PWM
// period. The pulse always starts at count 0.
func (d *Device) SetPulse(channel, pulse int) error {
	if channel < 0 || channel >= numChannels {
		return fmt.Errorf("pca9685: invalid channel %d", channel)
	}
	if pulse < 0 || pulse > maxPulse {
		return fmt.Errorf("pca9685: invalid pulse %d", pulse)
	}

	reg := byte(regLED0OnL + 4*channel)
	buf := []byte{reg, 0x00, 0x00, byte(pulse), byte(pulse >> 8)}
	if err := d.bus.Tx(d.addr, buf, nil); err != nil {
		return fmt.Errorf("pca9685: channel %d: %w", channel, err)
	}

	return nil
}

func (d *Device) write(reg, value byte) error {
	return d.bus.Tx(d.addr, []byte{reg, value}, nil)
}
