// Package httpserver is the agent's control surface: metrics, health
// probes, and a small JSON API over the ledger and cycle coordinator.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/internal/cycle"
	"github.com/mselser95/polymarket-agent/pkg/healthprobe"
	"github.com/mselser95/polymarket-agent/pkg/types"
)

// CycleTrigger starts cycles and reports the last outcome.
type CycleTrigger interface {
	RunCycle(ctx context.Context) (*cycle.Summary, error)
	LastSummary() *cycle.Summary
}

// LedgerReader exposes the tracked orders and positions.
type LedgerReader interface {
	Orders() []types.Order
	Positions() []types.Position
}

// Halter reports whether order submission is halted.
type Halter interface {
	Halted() bool
}

// LogSource serves the retained log lines.
type LogSource interface {
	Lines() []string
}

// Server provides HTTP endpoints for metrics, health checks, and the
// agent API.
type Server struct {
	server        *http.Server
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
}

// Config holds server configuration.
type Config struct {
	Port          string
	Logger        *zap.Logger
	HealthChecker *healthprobe.HealthChecker
	Cycles        CycleTrigger
	Ledger        LedgerReader
	Submitter     Halter
	Logs          LogSource
}

// New creates a new HTTP server.
func New(cfg *Config) *Server {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Probes and metrics
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.HealthChecker.Health())
	r.Get("/ready", cfg.HealthChecker.Ready())

	// Agent API
	h := newHandler(cfg)
	r.Route("/api", func(r chi.Router) {
		r.Post("/cycle", h.triggerCycle)
		r.Get("/status", h.status)
		r.Get("/orders", h.orders)
		r.Get("/positions", h.positions)
		r.Get("/logs", h.logsHandler)
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		server:        server,
		logger:        cfg.Logger,
		healthChecker: cfg.HealthChecker,
	}
}

// Start starts the HTTP server.
// This is a blocking call that returns when the server stops or encounters an error.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}
