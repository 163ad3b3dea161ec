// Package health serves the engine's liveness and readiness endpoints on a
// port separate from the read API.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fixitpro/fixit-engine/internal/logger"
)

const (
	defaultAddr         = ":8081"
	defaultCheckTimeout = 3 * time.Second
)

// Checker reports whether one engine dependency is usable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to Checker.
type CheckFunc func(ctx context.Context) error

// Check calls f.
func (f CheckFunc) Check(ctx context.Context) error {
	return f(ctx)
}

// Report is the body of every endpoint. /live fills only status and service.
type Report struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp string            `json:"timestamp,omitempty"`
	Version   string            `json:"version,omitempty"`
	Commit    string            `json:"commit,omitempty"`
	Refresh   string            `json:"refresh,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Config holds the health server settings. Addr defaults to :8081 and
// StatusLine, when set, reports the last refresh outcome on /health.
type Config struct {
	ServiceName  string
	Version      string
	Commit       string
	Addr         string
	Logger       *logrus.Logger
	Checks       map[string]Checker
	StatusLine   func() string
	CheckTimeout time.Duration
}

// Server answers /health, /live and /ready.
type Server struct {
	cfg    Config
	logger *logrus.Logger
	ready  atomic.Bool
	server *http.Server
}

// NewServer creates a health server. It reports not ready until SetReady(true).
func NewServer(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = defaultCheckTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Server{cfg: cfg, logger: log}
}

// SetReady flips the readiness gate checked before the registered checks.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Handler returns the endpoint mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/live", s.handleLive)
	mux.HandleFunc("/ready", s.handleReady)
	return mux
}

// Start binds the listen address, so a taken port fails here, then serves in
// the background until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.logger.WithFields(logrus.Fields{
		"addr":    ln.Addr().String(),
		"service": s.cfg.ServiceName,
	}).Info("Health server starting")

	srv := s.server
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("Health server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			s.logger.WithError(err).Warn("Health server shutdown error")
		}
	}()
	return nil
}

// Shutdown stops a started server. It is a no-op before Start.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rep := Report{
		Status:    "ok",
		Service:   s.cfg.ServiceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.cfg.Version,
		Commit:    s.cfg.Commit,
	}
	if s.cfg.StatusLine != nil {
		rep.Refresh = s.cfg.StatusLine()
	}
	s.write(w, http.StatusOK, rep)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	s.write(w, http.StatusOK, Report{Status: "ok", Service: s.cfg.ServiceName})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	rep := Report{Status: "ok", Service: s.cfg.ServiceName, Checks: map[string]string{"service": "ok"}}
	if !s.ready.Load() {
		rep.Status = "not_ready"
		rep.Checks["service"] = "not_ready"
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.CheckTimeout)
	defer cancel()
	for name, c := range s.cfg.Checks {
		if err := c.Check(ctx); err != nil {
			rep.Status = "not_ready"
			rep.Checks[name] = "error: " + err.Error()
			continue
		}
		rep.Checks[name] = "ok"
	}

	code := http.StatusOK
	if rep.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	s.write(w, code, rep)
}

func (s *Server) write(w http.ResponseWriter, code int, rep Report) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(rep); err != nil {
		s.logger.WithError(err).Debug("Failed to write health report")
	}
}
