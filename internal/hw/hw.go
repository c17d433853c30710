// Package hw defines the peripheral driver interfaces the Fetch modules
// dispatch into. Physical register access lives behind these interfaces;
// the sim subpackage provides in-memory implementations for tests and for
// running the daemon without hardware.
package hw

import "errors"

// Port identifies one GPIO port.
type Port int

const (
	PortA Port = iota
	PortB
	PortC
	PortD
	PortE
	PortF
	PortG
	PortH
	PortI

	NumPorts = int(PortI) + 1
)

// Pin identifies one pad within a port.
type Pin int

// NumPins is the number of pads per port.
const NumPins = 16

// Direction configures a pad as input or output.
type Direction int

const (
	Input Direction = iota
	Output
)

// Sense configures a pad's pull/analog mode.
type Sense int

const (
	Floating Sense = iota
	PullUp
	PullDown
	Analog
)

// ErrBadPad is returned for a port/pin outside the device's range.
var ErrBadPad = errors.New("no such pad")

// GPIO is the pad driver consumed by the gpio command module.
type GPIO interface {
	// ReadPad samples the pad's logic level.
	ReadPad(port Port, pin Pin) (bool, error)

	// SetPad drives the pad high.
	SetPad(port Port, pin Pin) error

	// ClearPad drives the pad low.
	ClearPad(port Port, pin Pin) error

	// ConfigurePad sets the pad's direction and sense.
	ConfigurePad(port Port, pin Pin, dir Direction, sense Sense) error

	// ResetPads returns every pad to its power-on default.
	ResetPads() error
}

// DACMaxValue is the converters' full-scale code (12 bit).
const DACMaxValue = 0x0FFF

// NumExternalChannels is the external SPI converter's channel count.
const NumExternalChannels = 4

// ErrBadChannel is returned for an out-of-range converter channel.
var ErrBadChannel = errors.New("no such channel")

// ErrBadValue is returned for a code beyond the converter's full scale.
var ErrBadValue = errors.New("value out of range")

// DAC is the converter driver consumed by the dac command module. The
// external converter frames its own SPI transfers; callers only see
// channel/value pairs.
type DAC interface {
	// WriteInternal loads the on-chip converter output.
	WriteInternal(value uint16) error

	// WriteExternal loads one channel of the external SPI converter.
	WriteExternal(channel uint8, value uint16) error

	// Reset drives every output to zero.
	Reset() error
}
