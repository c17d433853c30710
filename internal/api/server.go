// Package api exposes a read-only HTTP status surface for the daemon:
// health, the registered command tables, and the recent audit trail.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phuonglab/marionette-firmware/internal/audit"
	"github.com/phuonglab/marionette-firmware/internal/fetch"
	"github.com/phuonglab/marionette-firmware/internal/log"
)

// AuditReader is the slice of the audit store the API consumes. A nil
// reader disables the audit endpoint.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]audit.Entry, error)
}

// Config carries the API server settings.
type Config struct {
	Listen string
}

// Server is the HTTP status server.
type Server struct {
	cfg     Config
	engine  *fetch.Engine
	auditor AuditReader
	logger  *slog.Logger
	server  *http.Server
	started time.Time
}

// New creates the API server. auditor may be nil.
func New(cfg Config, engine *fetch.Engine, auditor AuditReader) *Server {
	return &Server{
		cfg:     cfg,
		engine:  engine,
		auditor: auditor,
		logger:  log.WithComponent("api"),
		started: time.Now(),
	}
}

// Start runs the HTTP server until ctx is cancelled (blocking).
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("api server starting", "listen", s.cfg.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("api server error: %w", err)
	}
}

// Routes builds the router. Exposed for httptest use.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/modules", s.handleModules)
		r.Get("/commands", s.handleCommands)
		r.Get("/audit/recent", s.handleAuditRecent)
	})
	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        s.engine.Version(),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	})
}

func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	mods := s.engine.Modules()
	out := make([]map[string]string, 0, len(mods))
	for _, m := range mods {
		out = append(out, map[string]string{"name": m.Name, "help": m.Help})
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"modules": out})
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("module")
	mods := s.engine.Modules()

	if filter != "" {
		// Module names match case-insensitively, like the command language.
		for _, m := range mods {
			if strings.EqualFold(m.Name, filter) {
				s.respondJSON(w, http.StatusOK, map[string]any{"modules": []fetch.ModuleSummary{m}})
				return
			}
		}
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("module %q not found", filter))
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"modules": mods})
}

func (s *Server) handleAuditRecent(w http.ResponseWriter, r *http.Request) {
	if s.auditor == nil {
		s.respondError(w, http.StatusServiceUnavailable, "audit log disabled")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			s.respondError(w, http.StatusBadRequest, "limit must be 1..1000")
			return
		}
		limit = n
	}

	entries, err := s.auditor.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("audit query failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "audit query failed")
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
