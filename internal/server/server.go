// Package server exposes a running engine over HTTP: graph inspection,
// history control, deferred graph edits, a websocket telemetry stream and
// Prometheus metrics.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-modsynth/synth/engine"
)

// Defaults for the control loop.
const (
	DefaultPollInterval      = 20 * time.Millisecond
	DefaultTelemetryInterval = 50 * time.Millisecond
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGatherer serves metrics from g at /metrics. Without it the route is
// not registered.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithPollInterval sets how often Run polls the engine.
func WithPollInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.pollEvery = d
		}
	}
}

// WithTelemetryInterval sets how often the websocket stream sends telemetry.
func WithTelemetryInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.telemetryEvery = d
		}
	}
}

// Server is the HTTP front end of an engine. It acts as the engine's
// control thread: every engine call other than Process is made under mu.
type Server struct {
	mu     sync.Mutex
	engine *engine.Engine

	router         *chi.Mux
	logger         *slog.Logger
	gatherer       prometheus.Gatherer
	pollEvery      time.Duration
	telemetryEvery time.Duration
}

// New returns a server for e.
func New(e *engine.Engine, opts ...Option) *Server {
	s := &Server{
		engine:         e,
		router:         chi.NewRouter(),
		logger:         slog.Default(),
		pollEvery:      DefaultPollInterval,
		telemetryEvery: DefaultTelemetryInterval,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/kinds", s.handleKinds)
	r.Get("/graph", s.handleGraph)
	r.Get("/nodes/{id}/modulations", s.handleModulations)
	r.Put("/nodes/{id}/params/{param}", s.handleSetParam)
	r.Get("/telemetry", s.handleTelemetry)
	r.Post("/undo", s.handleUndo)
	r.Post("/redo", s.handleRedo)
	r.Post("/capture", s.handleCapture)
	r.Post("/requests/chain", s.handleChain)
	r.Get("/ws", s.handleStream)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Do runs fn with exclusive access to the engine's control API.
func (s *Server) Do(fn func(e *engine.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(s.engine)
}

// Poll runs one engine poll under the control lock.
func (s *Server) Poll() engine.PollStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.engine.Poll()
}

// Run serves on addr and polls the engine until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting", slog.String("addr", addr))

		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(s.pollEvery)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s.Poll()
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()

		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
