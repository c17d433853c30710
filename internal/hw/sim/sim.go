// Package sim provides in-memory stand-ins for the peripheral drivers.
package sim

import (
	"sync"

	"github.com/phuonglab/marionette-firmware/internal/hw"
)

type padState struct {
	level bool
	dir   hw.Direction
	sense hw.Sense
}

// GPIO is a thread-safe in-memory pad driver.
type GPIO struct {
	mu   sync.Mutex
	pads [hw.NumPorts][hw.NumPins]padState
}

// NewGPIO returns a simulator with every pad at its power-on default:
// input, floating, low.
func NewGPIO() *GPIO {
	return &GPIO{}
}

func checkPad(port hw.Port, pin hw.Pin) error {
	if port < hw.PortA || int(port) >= hw.NumPorts || pin < 0 || int(pin) >= hw.NumPins {
		return hw.ErrBadPad
	}
	return nil
}

func (g *GPIO) ReadPad(port hw.Port, pin hw.Pin) (bool, error) {
	if err := checkPad(port, pin); err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pads[port][pin].level, nil
}

func (g *GPIO) SetPad(port hw.Port, pin hw.Pin) error {
	if err := checkPad(port, pin); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pads[port][pin].level = true
	return nil
}

func (g *GPIO) ClearPad(port hw.Port, pin hw.Pin) error {
	if err := checkPad(port, pin); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pads[port][pin].level = false
	return nil
}

func (g *GPIO) ConfigurePad(port hw.Port, pin hw.Pin, dir hw.Direction, sense hw.Sense) error {
	if err := checkPad(port, pin); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pads[port][pin].dir = dir
	g.pads[port][pin].sense = sense
	return nil
}

func (g *GPIO) ResetPads() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pads = [hw.NumPorts][hw.NumPins]padState{}
	return nil
}

// PadConfig reports a pad's simulated configuration, for tests.
func (g *GPIO) PadConfig(port hw.Port, pin hw.Pin) (hw.Direction, hw.Sense) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.pads[port][pin]
	return p.dir, p.sense
}

// DAC is a thread-safe in-memory converter driver recording the last code
// written to each output.
type DAC struct {
	mu       sync.Mutex
	internal uint16
	external [hw.NumExternalChannels]uint16
}

// NewDAC returns a simulator with all outputs at zero.
func NewDAC() *DAC {
	return &DAC{}
}

func (d *DAC) WriteInternal(value uint16) error {
	if value > hw.DACMaxValue {
		return hw.ErrBadValue
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.internal = value
	return nil
}

func (d *DAC) WriteExternal(channel uint8, value uint16) error {
	if int(channel) >= hw.NumExternalChannels {
		return hw.ErrBadChannel
	}
	if value > hw.DACMaxValue {
		return hw.ErrBadValue
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.external[channel] = value
	return nil
}

func (d *DAC) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.internal = 0
	d.external = [hw.NumExternalChannels]uint16{}
	return nil
}

// Internal reports the internal converter's last code, for tests.
func (d *DAC) Internal() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.internal
}

// External reports an external channel's last code, for tests.
func (d *DAC) External(channel uint8) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.external[channel]
}
