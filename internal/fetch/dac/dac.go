// Package dac implements the Fetch dac command module. Channels 0-3 route
// to the external SPI converter, channel 4 to the internal one.
package dac

import (
	"strconv"

	"github.com/phuonglab/marionette-firmware/internal/fetch"
	"github.com/phuonglab/marionette-firmware/internal/hw"
	"github.com/phuonglab/marionette-firmware/internal/msg"
)

// internalChannel is the channel number mapped to the on-chip converter.
const internalChannel = hw.NumExternalChannels

type module struct {
	drv hw.DAC
	tbl fetch.Table
}

// NewModule binds the dac command table to a converter driver.
func NewModule(drv hw.DAC) fetch.Module {
	m := &module{drv: drv}
	m.tbl = fetch.Table{
		{Name: "help", Help: "DAC command help", Handler: m.helpCmd},
		{Name: "write", Help: "Write a value to a DAC channel\nUsage: dac:write(<channel>, <value>)", Handler: m.writeCmd},
		{Name: "reset", Help: "Reset all DAC outputs to 0v", Handler: m.resetCmd},
	}
	return fetch.Module{
		Name:  "dac",
		Help:  "DAC converter commands",
		Table: m.tbl,
	}
}

// parseNumber parses a decimal, hex (0x) or octal (0) argument and rejects
// trailing non-numeric characters.
func parseNumber(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 0, 32)
	return v, err == nil
}

func (m *module) helpCmd(st *msg.Stream, path []string, args []string) bool {
	if !fetch.InputCheck(st, path, fetch.TokSubcmd0, args, 0) {
		return false
	}
	st.Info("Fetch DAC Help:")
	fetch.DisplayHelp(st, m.tbl)
	return true
}

func (m *module) writeCmd(st *msg.Stream, path []string, args []string) bool {
	if !fetch.InputCheck(st, path, fetch.TokSubcmd0, args, 2) {
		return false
	}

	channel, ok := parseNumber(args[0])
	if !ok {
		st.Error("invalid channel")
		return false
	}
	value, ok := parseNumber(args[1])
	if !ok {
		st.Error("invalid value")
		return false
	}
	if value < 0 || value > hw.DACMaxValue {
		st.Error("invalid value")
		return false
	}

	switch {
	case channel >= 0 && channel < hw.NumExternalChannels:
		if err := m.drv.WriteExternal(uint8(channel), uint16(value)); err != nil {
			st.Error("dac write: %s", err)
			return false
		}
		return true
	case channel == internalChannel:
		if err := m.drv.WriteInternal(uint16(value)); err != nil {
			st.Error("dac write: %s", err)
			return false
		}
		return true
	default:
		st.Error("invalid channel")
		return false
	}
}

func (m *module) resetCmd(st *msg.Stream, path []string, args []string) bool {
	if !fetch.InputCheck(st, path, fetch.TokSubcmd0, args, 0) {
		return false
	}
	if err := m.drv.Reset(); err != nil {
		st.Error("dac reset: %s", err)
		return false
	}
	return true
}
