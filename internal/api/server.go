// Package api serves the journal over HTTP as JSON.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"trading-journal/internal/accounts"
	"trading-journal/internal/analytics"
	"trading-journal/internal/currency"
	"trading-journal/internal/journal"
	"trading-journal/internal/observability"
	"trading-journal/internal/portfolio"
	"trading-journal/internal/resilience"
)

// Services are the domain services the API exposes.
type Services struct {
	Accounts  *accounts.Service
	Trades    *journal.Manager
	Daily     *journal.DailyUpdater
	Analytics *analytics.Service
	Platforms *portfolio.Platforms
	Ledger    *portfolio.Ledger
	Currency  *currency.Converter
	Metrics   *observability.Metrics
	Health    *resilience.HealthMonitor
}

// Config holds HTTP server settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the default server settings.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server routes requests to the domain services.
type Server struct {
	svc    Services
	logger zerolog.Logger
	mux    *http.ServeMux
}

// NewServer creates a server and registers its routes.
func NewServer(svc Services, logger zerolog.Logger) *Server {
	s := &Server{
		svc:    svc,
		logger: logger.With().Str("component", "api").Logger(),
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", s.svc.Metrics.Handler())

	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)

	s.mux.Handle("GET /api/user/profile", s.authenticated(s.handleGetProfile))
	s.mux.Handle("PATCH /api/user/profile", s.authenticated(s.handleUpdateProfile))

	s.mux.Handle("GET /api/trades", s.authenticated(s.handleListTrades))
	s.mux.Handle("POST /api/trades", s.authenticated(s.handleOpenTrade))
	s.mux.Handle("PATCH /api/trades", s.authenticated(s.handleCloseTrade))
	s.mux.Handle("DELETE /api/trades", s.authenticated(s.handleDeleteTrade))

	s.mux.Handle("GET /api/daily-summary", s.authenticated(s.handleDailySummary))
	s.mux.Handle("GET /api/analytics", s.authenticated(s.handleAnalytics))

	s.mux.Handle("GET /api/platforms", s.authenticated(s.handleListPlatforms))
	s.mux.Handle("POST /api/platforms", s.authenticated(s.handleCreatePlatform))
	s.mux.Handle("PATCH /api/platforms", s.authenticated(s.handleUpdatePlatform))
	s.mux.Handle("DELETE /api/platforms", s.authenticated(s.handleDeletePlatform))

	s.mux.Handle("GET /api/networth", s.authenticated(s.handleNetWorth))
	s.mux.Handle("POST /api/networth", s.authenticated(s.handleRecordTransaction))
	s.mux.Handle("DELETE /api/networth", s.authenticated(s.handleDeleteTransaction))

	s.mux.HandleFunc("GET /api/currency", s.handleRates)
	s.mux.HandleFunc("POST /api/currency", s.handleConvertMany)
}

// Handler returns the routed handler wrapped in request logging and metrics.
func (s *Server) Handler() http.Handler {
	return s.instrument(s.mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg Config) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", cfg.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.svc.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	report := s.svc.Health.Check(r.Context())
	status := http.StatusOK
	if report.Status == resilience.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}
