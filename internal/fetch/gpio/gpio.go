// Package gpio implements the Fetch gpio command module.
package gpio

import (
	"github.com/phuonglab/marionette-firmware/internal/fetch"
	"github.com/phuonglab/marionette-firmware/internal/hw"
	"github.com/phuonglab/marionette-firmware/internal/msg"
)

// Terminal sets for the gpio grammar positions. Index order mirrors the hw
// enumerations so a matched index converts directly.
var (
	portNames = []string{
		"porta", "portb", "portc", "portd", "porte",
		"portf", "portg", "porth", "porti",
	}
	pinNames = []string{
		"pin0", "pin1", "pin2", "pin3", "pin4", "pin5", "pin6", "pin7",
		"pin8", "pin9", "pin10", "pin11", "pin12", "pin13", "pin14", "pin15",
	}
	directionNames = []string{"input", "output"}
	senseNames     = []string{"floating", "pullup", "pulldown", "analog"}

	directions = []hw.Direction{hw.Input, hw.Output}
	senses     = []hw.Sense{hw.Floating, hw.PullUp, hw.PullDown, hw.Analog}
)

type module struct {
	drv hw.GPIO
	tbl fetch.Table
}

// NewModule binds the gpio command table to a pad driver. It also
// contributes the root-level resetpins command.
func NewModule(drv hw.GPIO) fetch.Module {
	m := &module{drv: drv}
	m.tbl = fetch.Table{
		{Name: "help", Help: "GPIO command help", Handler: m.helpCmd},
		{Name: "get", Help: "Read a pad\nUsage: gpio:get:<port>:<pin>", Handler: m.getCmd},
		{Name: "set", Help: "Drive a pad high\nUsage: gpio:set:<port>:<pin>", Handler: m.setCmd},
		{Name: "clear", Help: "Drive a pad low\nUsage: gpio:clear:<port>:<pin>", Handler: m.clearCmd},
		{Name: "config", Help: "Configure a pad\nUsage: gpio:config:<port>:<pin>:<direction>:<sense>", Handler: m.configCmd},
	}
	return fetch.Module{
		Name:  "gpio",
		Help:  "GPIO pad commands",
		Table: m.tbl,
		Root: fetch.Table{
			{Name: "resetpins", Help: "Reset all GPIO pads to their default state", Handler: m.resetPinsCmd},
		},
	}
}

// portPin resolves the PORT and PIN path slots, emitting a diagnostic for
// the first slot that fails to match.
func portPin(st *msg.Stream, path []string) (hw.Port, hw.Pin, bool) {
	pi := fetch.TokenMatch(portNames, path[fetch.TokPort])
	if pi == fetch.NoMatch {
		st.Error("invalid port: %s", path[fetch.TokPort])
		return 0, 0, false
	}
	ni := fetch.TokenMatch(pinNames, path[fetch.TokPin])
	if ni == fetch.NoMatch {
		st.Error("invalid pin: %s", path[fetch.TokPin])
		return 0, 0, false
	}
	return hw.Port(pi), hw.Pin(ni), true
}

func (m *module) helpCmd(st *msg.Stream, path []string, args []string) bool {
	if !fetch.InputCheck(st, path, fetch.TokSubcmd0, args, 0) {
		return false
	}
	st.Info("Fetch GPIO Help:")
	fetch.DisplayHelp(st, m.tbl)
	return true
}

func (m *module) getCmd(st *msg.Stream, path []string, args []string) bool {
	if !fetch.InputCheck(st, path, fetch.TokPin, args, 0) {
		return false
	}
	port, pin, ok := portPin(st, path)
	if !ok {
		return false
	}
	level, err := m.drv.ReadPad(port, pin)
	if err != nil {
		st.Error("read pad: %s", err)
		return false
	}
	st.Bool("state", level)
	return true
}

func (m *module) setCmd(st *msg.Stream, path []string, args []string) bool {
	if !fetch.InputCheck(st, path, fetch.TokPin, args, 0) {
		return false
	}
	port, pin, ok := portPin(st, path)
	if !ok {
		return false
	}
	if err := m.drv.SetPad(port, pin); err != nil {
		st.Error("set pad: %s", err)
		return false
	}
	return true
}

func (m *module) clearCmd(st *msg.Stream, path []string, args []string) bool {
	if !fetch.InputCheck(st, path, fetch.TokPin, args, 0) {
		return false
	}
	port, pin, ok := portPin(st, path)
	if !ok {
		return false
	}
	if err := m.drv.ClearPad(port, pin); err != nil {
		st.Error("clear pad: %s", err)
		return false
	}
	return true
}

func (m *module) configCmd(st *msg.Stream, path []string, args []string) bool {
	if !fetch.InputCheck(st, path, fetch.TokSense, args, 0) {
		return false
	}
	di := fetch.TokenMatch(directionNames, path[fetch.TokDirection])
	if di == fetch.NoMatch {
		st.Error("invalid direction: %s", path[fetch.TokDirection])
		return false
	}
	si := fetch.TokenMatch(senseNames, path[fetch.TokSense])
	if si == fetch.NoMatch {
		st.Error("invalid sense: %s", path[fetch.TokSense])
		return false
	}
	port, pin, ok := portPin(st, path)
	if !ok {
		return false
	}
	if err := m.drv.ConfigurePad(port, pin, directions[di], senses[si]); err != nil {
		st.Error("configure pad: %s", err)
		return false
	}
	return true
}

func (m *module) resetPinsCmd(st *msg.Stream, path []string, args []string) bool {
	if !fetch.InputCheck(st, path, fetch.TokCmd, args, 0) {
		return false
	}
	if err := m.drv.ResetPads(); err != nil {
		st.Error("reset pads: %s", err)
		return false
	}
	return true
}
