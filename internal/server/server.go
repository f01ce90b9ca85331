// Package server serves the page under test from a local directory so a
// capture run does not depend on a separately started web server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bobmcallan/splashcheck/internal/common"
	"github.com/bobmcallan/splashcheck/internal/config"
)

// Server is a static file server for a single site directory.
type Server struct {
	root     string
	addr     string
	router   chi.Router
	server   *http.Server
	listener net.Listener
	logger   *common.Logger
	done     chan error

	stopOnce sync.Once
	stopErr  error
}

// New creates a server for cfg.Dir. The directory must exist.
func New(cfg config.ServeConfig, logger *common.Logger) (*Server, error) {
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("site dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("site dir %s is not a directory", cfg.Dir)
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	s := &Server{
		root:   cfg.Dir,
		addr:   cfg.Addr,
		logger: logger,
	}
	s.router = s.setupRoutes()
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

func (s *Server) setupRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	// Every capture must see the current build, not a cached one.
	r.Use(middleware.NoCache)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	r.Handle("/*", http.FileServer(http.Dir(s.root)))
	return r
}

// Start binds the listener and serves in the background. It returns once
// the address is bound, so URL is valid immediately afterwards.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = ln
	s.done = make(chan error, 1)

	s.logger.Info().
		Str("dir", s.root).
		Str("url", s.URL()).
		Msg("site server starting")

	go func() {
		err := s.server.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()
	return nil
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	if s.listener == nil {
		return "http://" + s.addr
	}
	return "http://" + s.listener.Addr().String()
}

// Shutdown gracefully stops the server. Later calls return the first result.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	s.stopOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			s.stopErr = fmt.Errorf("site server shutdown failed: %w", err)
			return
		}
		if err := <-s.done; err != nil {
			s.stopErr = fmt.Errorf("site server: %w", err)
			return
		}
		s.logger.Info().Msg("site server stopped")
	})
	return s.stopErr
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}
