// Package session runs interactive command sessions over TCP. Each
// connection gets its own goroutine and its own protocol stream; all
// streams share one output gate, so concurrent sessions exercise the same
// serialization rules as concurrent producers on a serial channel.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phuonglab/marionette-firmware/internal/fetch"
	"github.com/phuonglab/marionette-firmware/internal/log"
	"github.com/phuonglab/marionette-firmware/internal/msg"
)

const prompt = "fetch> "

// Recorder receives one record per dispatched command line. The audit
// store satisfies it; a nil Recorder disables recording.
type Recorder interface {
	Record(ctx context.Context, sessionID, line string, ok bool, duration time.Duration) error
}

// Config carries the session server settings.
type Config struct {
	Listen        string
	Prompt        bool
	MaxLineLength int
}

// Server accepts TCP connections and runs one command session per
// connection.
type Server struct {
	cfg      Config
	engine   *fetch.Engine
	gate     *msg.Gate
	recorder Recorder
	logger   *slog.Logger

	ln net.Listener
	wg sync.WaitGroup
}

// New creates a session server. recorder may be nil.
func New(cfg Config, engine *fetch.Engine, gate *msg.Gate, recorder Recorder) *Server {
	if cfg.MaxLineLength <= 0 {
		cfg.MaxLineLength = 1024
	}
	return &Server{
		cfg:      cfg,
		engine:   engine,
		gate:     gate,
		recorder: recorder,
		logger:   log.WithComponent("session"),
	}
}

// Start binds the listener and launches the accept loop. It returns once
// the server is accepting connections.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Listen, err)
	}
	s.ln = ln
	s.logger.Info("session server listening", "addr", ln.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop(ctx)
	return nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Shutdown stops accepting connections and waits for active sessions to
// finish their current line.
func (s *Server) Shutdown() error {
	err := s.ln.Close()
	s.wg.Wait()
	s.logger.Info("session server stopped")
	return err
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			// Listener closed on shutdown.
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	id := uuid.NewString()
	logger := log.WithSession(id)
	logger.Info("session opened", "remote", conn.RemoteAddr().String())
	defer logger.Info("session closed")

	st := msg.NewStream(conn, s.gate)
	showPrompt := s.cfg.Prompt
	reader := bufio.NewReader(conn)

	if showPrompt {
		_, _ = io.WriteString(conn, prompt)
	}
	for {
		raw, tooLong, err := readLine(reader, s.cfg.MaxLineLength)
		if err != nil {
			if err != io.EOF {
				logger.Warn("session read failed", "error", err)
			}
			return
		}

		if tooLong {
			// The overflow is discarded; only this line fails, not the session.
			st.Begin()
			st.Error("line too long, limit %d bytes", s.cfg.MaxLineLength)
			st.End(false)
		} else {
			line := strings.TrimSpace(raw)
			switch line {
			case "+prompt":
				showPrompt = true
			case "+noprompt":
				showPrompt = false
			case "":
				// nothing to dispatch
			default:
				start := time.Now()
				ok := s.engine.Execute(st, line)
				if s.recorder != nil {
					if err := s.recorder.Record(ctx, id, line, ok, time.Since(start)); err != nil {
						logger.Warn("audit record failed", "error", err)
					}
				}
				logger.Debug("command dispatched", "line", line, "ok", ok)
			}
		}

		if showPrompt {
			_, _ = io.WriteString(conn, prompt)
		}
	}
}

// readLine assembles one newline-terminated line, reading through any bytes
// past max and flagging the line instead of failing the stream.
func readLine(r *bufio.Reader, max int) (line string, tooLong bool, err error) {
	var b []byte
	for {
		chunk, rerr := r.ReadSlice('\n')
		switch {
		case tooLong:
			// discarding the remainder of an oversized line
		case len(b)+len(chunk) > max:
			tooLong = true
			b = nil
		default:
			b = append(b, chunk...)
		}
		if rerr == bufio.ErrBufferFull {
			continue
		}
		if rerr != nil {
			return "", tooLong, rerr
		}
		return string(b), tooLong, nil
	}
}
