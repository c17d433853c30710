package dac

import (
	"bytes"
	"strings"
	"testing"

	"github.com/phuonglab/marionette-firmware/internal/fetch"
	"github.com/phuonglab/marionette-firmware/internal/hw/sim"
	"github.com/phuonglab/marionette-firmware/internal/msg"
)

func setup(t *testing.T) (*fetch.Engine, *sim.DAC, *msg.Stream, *bytes.Buffer) {
	t.Helper()
	drv := sim.NewDAC()
	engine := fetch.NewEngine("test", NewModule(drv))
	var buf bytes.Buffer
	return engine, drv, msg.NewStream(&buf, msg.NewGate(msg.ScopeLine)), &buf
}

func TestWriteInternalChannel(t *testing.T) {
	engine, drv, st, buf := setup(t)

	if !engine.Execute(st, "dac:write(4,2048)") {
		t.Fatal("dac:write should succeed")
	}
	if got := drv.Internal(); got != 2048 {
		t.Fatalf("internal converter = %d, want 2048", got)
	}
	if !strings.HasSuffix(buf.String(), "END:OK\r\n") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestWriteExternalChannels(t *testing.T) {
	engine, drv, st, _ := setup(t)

	for ch := 0; ch < 4; ch++ {
		line := "dac:write(" + string(rune('0'+ch)) + ",100)"
		if !engine.Execute(st, line) {
			t.Fatalf("%s should succeed", line)
		}
		if got := drv.External(uint8(ch)); got != 100 {
			t.Fatalf("external channel %d = %d, want 100", ch, got)
		}
	}
}

func TestWriteHexValue(t *testing.T) {
	engine, drv, st, _ := setup(t)

	// strtol-style base detection: 0x prefix parses as hex.
	if !engine.Execute(st, "dac:write(4,0xfff)") {
		t.Fatal("hex value should parse")
	}
	if got := drv.Internal(); got != 0xfff {
		t.Fatalf("internal converter = %d, want %d", got, 0xfff)
	}
}

func TestWriteChannelOutOfRange(t *testing.T) {
	engine, drv, st, buf := setup(t)

	if engine.Execute(st, "dac:write(9,100)") {
		t.Fatal("channel 9 should fail")
	}
	got := buf.String()
	if !strings.Contains(got, "E:invalid channel\r\n") {
		t.Fatalf("missing diagnostic, got %q", got)
	}
	if !strings.HasSuffix(got, "END:ERROR\r\n") {
		t.Fatalf("got %q", got)
	}
	if drv.Internal() != 0 {
		t.Fatal("failed write must not reach the converter")
	}
}

func TestWriteValueOutOfRange(t *testing.T) {
	engine, _, st, buf := setup(t)

	if engine.Execute(st, "dac:write(4,4096)") {
		t.Fatal("value beyond full scale should fail")
	}
	if !strings.Contains(buf.String(), "E:invalid value\r\n") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestWriteMalformedArguments(t *testing.T) {
	tests := []struct {
		name string
		line string
		diag string
	}{
		{"trailing garbage on channel", "dac:write(4x,100)", "E:invalid channel"},
		{"trailing garbage on value", "dac:write(4,100zz)", "E:invalid value"},
		{"negative value", "dac:write(4,-1)", "E:invalid value"},
		{"wrong arity", "dac:write(4)", "E:invalid number of arguments, expected 2 got 1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine, drv, st, buf := setup(t)
			if engine.Execute(st, tc.line) {
				t.Fatalf("%s should fail", tc.line)
			}
			if !strings.Contains(buf.String(), tc.diag) {
				t.Fatalf("missing %q in %q", tc.diag, buf.String())
			}
			if drv.Internal() != 0 {
				t.Fatal("failed write must not reach the converter")
			}
		})
	}
}

func TestReset(t *testing.T) {
	engine, drv, st, _ := setup(t)

	if !engine.Execute(st, "dac:write(4,1000)") {
		t.Fatal("write should succeed")
	}
	if !engine.Execute(st, "dac:write(2,500)") {
		t.Fatal("write should succeed")
	}
	if !engine.Execute(st, "dac:reset") {
		t.Fatal("reset should succeed")
	}
	if drv.Internal() != 0 || drv.External(2) != 0 {
		t.Fatal("reset must zero every output")
	}
}

func TestHelp(t *testing.T) {
	engine, _, st, buf := setup(t)

	if !engine.Execute(st, "dac:help") {
		t.Fatal("dac:help should succeed")
	}
	got := buf.String()
	if !strings.Contains(got, "#:Fetch DAC Help:\r\n") {
		t.Fatalf("missing header, got %q", got)
	}
	if !strings.Contains(got, "#:  Usage: dac:write(<channel>, <value>)\r\n") {
		t.Fatalf("usage continuation line missing, got %q", got)
	}
}
