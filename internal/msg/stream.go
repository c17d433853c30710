// Package msg implements the structured message protocol spoken on the
// instrument's output channel: BEGIN/END framed transactions carrying typed,
// CRLF-terminated single-line records. Every emission goes through a shared
// Gate so concurrent producers never corrupt a line.
package msg

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strconv"
)

const crlf = "\r\n"

// Stream emits protocol records to one output channel. Streams writing to
// the same physical channel must share a Gate. With ScopeTransaction only
// the goroutine that called Begin may emit until it calls End.
type Stream struct {
	w    io.Writer
	gate *Gate
}

// NewStream binds a writer to a gate.
func NewStream(w io.Writer, gate *Gate) *Stream {
	return &Stream{w: w, gate: gate}
}

// needsNewline decides from the format template, not the rendered output,
// whether a terminator must be appended. Inherited wire-compat quirk: a
// template ending in a literal escape is trusted even if the rendered
// arguments change the final character.
func needsNewline(format string) bool {
	if format == "" {
		return true
	}
	last := format[len(format)-1]
	return last != '\n' && last != '\r'
}

// emit writes one already-rendered line under the gate. Under
// ScopeTransaction the caller holds the gate between Begin and End, so the
// write goes straight through.
func (s *Stream) emit(line []byte) {
	if s.gate.scope == ScopeLine {
		s.gate.mu.Lock()
		defer s.gate.mu.Unlock()
	}
	// Write errors have no in-band report path; a dead channel is detected
	// by the session reader.
	_, _ = s.w.Write(line)
}

// Begin opens a transaction.
func (s *Stream) Begin() {
	if s.gate.scope == ScopeTransaction {
		s.gate.mu.Lock()
		_, _ = s.w.Write([]byte("BEGIN:" + crlf))
		return
	}
	s.emit([]byte("BEGIN:" + crlf))
}

// End closes a transaction with its verdict.
func (s *Stream) End(ok bool) {
	verdict := "END:ERROR" + crlf
	if ok {
		verdict = "END:OK" + crlf
	}
	if s.gate.scope == ScopeTransaction {
		_, _ = s.w.Write([]byte(verdict))
		s.gate.mu.Unlock()
		return
	}
	s.emit([]byte(verdict))
}

func (s *Stream) tagged(prefix, format string, args ...any) {
	var buf bytes.Buffer
	buf.WriteString(prefix)
	fmt.Fprintf(&buf, format, args...)
	if needsNewline(format) {
		buf.WriteString(crlf)
	}
	s.emit(buf.Bytes())
}

// Info emits an informational record.
func (s *Stream) Info(format string, args ...any) {
	s.tagged("#:", format, args...)
}

// Warning emits a warning record.
func (s *Stream) Warning(format string, args ...any) {
	s.tagged("W:", format, args...)
}

// Error emits an error record.
func (s *Stream) Error(format string, args ...any) {
	s.tagged("E:", format, args...)
}

// Debug emits a debug record tagged with the caller's file, line and
// function.
func (s *Stream) Debug(format string, args ...any) {
	file, line, fn := "?", 0, "?"
	if pc, f, l, ok := runtime.Caller(1); ok {
		file, line = filepath.Base(f), l
		if d := runtime.FuncForPC(pc); d != nil {
			fn = filepath.Base(d.Name())
		}
	}
	s.tagged(fmt.Sprintf("?:%s:%d:%s:", file, line, fn), format, args...)
}

// Bool emits a named boolean record.
func (s *Stream) Bool(name string, v bool) {
	if v {
		s.emit([]byte("B:" + name + ":true" + crlf))
		return
	}
	s.emit([]byte("B:" + name + ":false" + crlf))
}

// String emits a named string record.
func (s *Stream) String(name, format string, args ...any) {
	s.tagged("S:"+name+":", format, args...)
}

// StringArray emits a named comma-separated string array record.
func (s *Stream) StringArray(name string, vals []string) {
	var buf bytes.Buffer
	buf.WriteString("SA:" + name + ":")
	for i, v := range vals {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(v)
	}
	buf.WriteString(crlf)
	s.emit(buf.Bytes())
}

// Float64Array emits a named float array record.
func (s *Stream) Float64Array(name string, vals []float64) {
	var buf bytes.Buffer
	buf.WriteString("F:" + name + ":")
	for i, v := range vals {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%f", v)
	}
	buf.WriteString(crlf)
	s.emit(buf.Bytes())
}

type integer interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32
}

func appendDecimal[T integer](buf *bytes.Buffer, prefix string, vals []T) {
	buf.WriteString(prefix)
	for i, v := range vals {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	}
	buf.WriteString(crlf)
}

// Int8Array emits an S8 record.
func (s *Stream) Int8Array(name string, vals []int8) {
	var buf bytes.Buffer
	appendDecimal(&buf, "S8:"+name+":", vals)
	s.emit(buf.Bytes())
}

// Uint8Array emits a U8 record.
func (s *Stream) Uint8Array(name string, vals []uint8) {
	var buf bytes.Buffer
	appendDecimal(&buf, "U8:"+name+":", vals)
	s.emit(buf.Bytes())
}

// Int16Array emits an S16 record.
func (s *Stream) Int16Array(name string, vals []int16) {
	var buf bytes.Buffer
	appendDecimal(&buf, "S16:"+name+":", vals)
	s.emit(buf.Bytes())
}

// Uint16Array emits a U16 record.
func (s *Stream) Uint16Array(name string, vals []uint16) {
	var buf bytes.Buffer
	appendDecimal(&buf, "U16:"+name+":", vals)
	s.emit(buf.Bytes())
}

// Int32Array emits an S32 record.
func (s *Stream) Int32Array(name string, vals []int32) {
	var buf bytes.Buffer
	appendDecimal(&buf, "S32:"+name+":", vals)
	s.emit(buf.Bytes())
}

// Uint32Array emits a U32 record.
func (s *Stream) Uint32Array(name string, vals []uint32) {
	var buf bytes.Buffer
	appendDecimal(&buf, "U32:"+name+":", vals)
	s.emit(buf.Bytes())
}

func appendHex[T integer](buf *bytes.Buffer, prefix string, width int, vals []T) {
	buf.WriteString(prefix)
	for i, v := range vals {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(buf, "%0*X", width, int64(v))
	}
	buf.WriteString(crlf)
}

// HexUint8Array emits an H8 record, two uppercase hex digits per element.
func (s *Stream) HexUint8Array(name string, vals []uint8) {
	var buf bytes.Buffer
	appendHex(&buf, "H8:"+name+":", 2, vals)
	s.emit(buf.Bytes())
}

// HexUint16Array emits an H16 record, four uppercase hex digits per element.
func (s *Stream) HexUint16Array(name string, vals []uint16) {
	var buf bytes.Buffer
	appendHex(&buf, "H16:"+name+":", 4, vals)
	s.emit(buf.Bytes())
}

// HexUint32Array emits an H32 record, eight uppercase hex digits per element.
func (s *Stream) HexUint32Array(name string, vals []uint32) {
	var buf bytes.Buffer
	appendHex(&buf, "H32:"+name+":", 8, vals)
	s.emit(buf.Bytes())
}
