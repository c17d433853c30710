package msg

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

// syncBuffer makes bytes.Buffer safe for the concurrency tests below. The
// gate is what keeps whole lines atomic; this only keeps the buffer itself
// coherent.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestStream() (*Stream, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewStream(&buf, NewGate(ScopeLine)), &buf
}

func TestTransactionFraming(t *testing.T) {
	st, buf := newTestStream()

	st.Begin()
	st.Info("hello")
	st.End(true)

	want := "BEGIN:\r\n#:hello\r\nEND:OK\r\n"
	if got := buf.String(); got != want {
		t.Fatalf("framing mismatch:\ngot  %q\nwant %q", got, want)
	}
}

func TestEndErrorVerdict(t *testing.T) {
	st, buf := newTestStream()

	st.Begin()
	st.Error("invalid channel")
	st.End(false)

	want := "BEGIN:\r\nE:invalid channel\r\nEND:ERROR\r\n"
	if got := buf.String(); got != want {
		t.Fatalf("framing mismatch:\ngot  %q\nwant %q", got, want)
	}
}

func TestNeedsNewlineFromTemplate(t *testing.T) {
	st, buf := newTestStream()

	// Template already ends in a terminator: no second one appended.
	st.Info("already terminated\r\n")
	if got := buf.String(); got != "#:already terminated\r\n" {
		t.Fatalf("got %q", got)
	}

	buf.Reset()

	// The decision is made from the template, not the rendered output. A
	// rendered argument ending in \n still gets a terminator appended.
	st.Info("%s", "value\n")
	if got := buf.String(); got != "#:value\n\r\n" {
		t.Fatalf("template quirk not preserved, got %q", got)
	}
}

func TestTypedScalars(t *testing.T) {
	st, buf := newTestStream()

	st.Bool("ready", true)
	st.Bool("fault", false)
	st.String("name", "marionette %s", "v1")

	want := "B:ready:true\r\nB:fault:false\r\nS:name:marionette v1\r\n"
	if got := buf.String(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestTypedArrays(t *testing.T) {
	tests := []struct {
		name string
		emit func(st *Stream)
		want string
	}{
		{"string array", func(st *Stream) { st.StringArray("cmds", []string{"help", "write", "reset"}) },
			"SA:cmds:help,write,reset\r\n"},
		{"string array no trailing comma", func(st *Stream) { st.StringArray("one", []string{"solo"}) },
			"SA:one:solo\r\n"},
		{"float array", func(st *Stream) { st.Float64Array("volts", []float64{1.5, 0}) },
			"F:volts:1.500000,0.000000\r\n"},
		{"int8", func(st *Stream) { st.Int8Array("t", []int8{-1, 127}) }, "S8:t:-1,127\r\n"},
		{"uint8", func(st *Stream) { st.Uint8Array("t", []uint8{0, 255}) }, "U8:t:0,255\r\n"},
		{"int16", func(st *Stream) { st.Int16Array("t", []int16{-300, 300}) }, "S16:t:-300,300\r\n"},
		{"uint16", func(st *Stream) { st.Uint16Array("t", []uint16{2048}) }, "U16:t:2048\r\n"},
		{"int32", func(st *Stream) { st.Int32Array("t", []int32{-70000}) }, "S32:t:-70000\r\n"},
		{"uint32", func(st *Stream) { st.Uint32Array("t", []uint32{4000000000}) }, "U32:t:4000000000\r\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st, buf := newTestStream()
			tc.emit(st)
			if got := buf.String(); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestHexArraysFixedWidth(t *testing.T) {
	st, buf := newTestStream()

	st.HexUint8Array("b", []uint8{0x0, 0xAB})
	st.HexUint16Array("w", []uint16{0xF, 0xBEEF})
	st.HexUint32Array("d", []uint32{0x1, 0xDEADBEEF})

	want := "H8:b:00,AB\r\nH16:w:000F,BEEF\r\nH32:d:00000001,DEADBEEF\r\n"
	if got := buf.String(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestDebugRecordShape(t *testing.T) {
	st, buf := newTestStream()

	st.Debug("probe %d", 7)

	got := buf.String()
	if !strings.HasPrefix(got, "?:stream_test.go:") {
		t.Fatalf("debug record missing caller file: %q", got)
	}
	if !strings.HasSuffix(got, ":probe 7\r\n") {
		t.Fatalf("debug record missing payload: %q", got)
	}
}

// TestLineGateAtomicity hammers one gate from many goroutines and checks
// that every emitted line arrives intact, even though whole transactions may
// interleave under ScopeLine.
func TestLineGateAtomicity(t *testing.T) {
	var buf syncBuffer
	gate := NewGate(ScopeLine)

	const workers = 8
	const rounds = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			st := NewStream(&buf, gate)
			for i := 0; i < rounds; i++ {
				st.Begin()
				st.Uint16Array("sample", []uint16{uint16(w), uint16(i)})
				st.End(true)
			}
		}(w)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\r\n"), "\r\n")
	var begins, ends int
	for _, line := range lines {
		switch {
		case line == "BEGIN:":
			begins++
		case line == "END:OK":
			ends++
		case strings.HasPrefix(line, "U16:sample:"):
			// payload must be exactly two comma-separated values
			if n := strings.Count(strings.TrimPrefix(line, "U16:sample:"), ","); n != 1 {
				t.Fatalf("corrupted data line: %q", line)
			}
		default:
			t.Fatalf("corrupted line: %q", line)
		}
	}
	if begins != workers*rounds || ends != workers*rounds {
		t.Fatalf("expected %d BEGIN/END pairs, got %d/%d", workers*rounds, begins, ends)
	}
}

// TestTransactionGateContiguity verifies that ScopeTransaction keeps each
// BEGIN..END block contiguous under concurrency.
func TestTransactionGateContiguity(t *testing.T) {
	var buf syncBuffer
	gate := NewGate(ScopeTransaction)

	const workers = 8
	const rounds = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			st := NewStream(&buf, gate)
			for i := 0; i < rounds; i++ {
				st.Begin()
				st.Info("worker %d", w)
				st.Info("round %d", i)
				st.End(true)
			}
		}(w)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\r\n"), "\r\n")
	inTx := false
	body := 0
	for _, line := range lines {
		switch {
		case line == "BEGIN:":
			if inTx {
				t.Fatal("nested BEGIN: transaction not contiguous")
			}
			inTx = true
			body = 0
		case line == "END:OK":
			if !inTx {
				t.Fatal("END without BEGIN")
			}
			if body != 2 {
				t.Fatalf("transaction body split: %d lines", body)
			}
			inTx = false
		default:
			if !inTx {
				t.Fatalf("data line outside transaction: %q", line)
			}
			body++
		}
	}
	if inTx {
		t.Fatal("unterminated transaction")
	}
}

func TestGateScopeFallback(t *testing.T) {
	g := NewGate(Scope("bogus"))
	if g.Scope() != ScopeLine {
		t.Fatalf("invalid scope should fall back to line, got %q", g.Scope())
	}
}
