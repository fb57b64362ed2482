package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/ppiankov/truthcore/internal/model"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PassphraseHeader carries the shared passphrase on gated routes
const PassphraseHeader = "X-TruthCore-Passphrase"

// Scorer scores a single request
type Scorer interface {
	Score(ctx context.Context, req model.ScoreRequest) (*model.Report, error)
}

// Server is the REST boundary in front of the scoring pipeline
type Server struct {
	router     *mux.Router
	scorer     Scorer
	config     model.ServerConfig
	logger     *slog.Logger
	now        func() time.Time
	maxBody    int64
	scoreLimit time.Duration
}

// New creates a server and registers its routes
func New(scorer Scorer, cfg model.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:     mux.NewRouter(),
		scorer:     scorer,
		config:     cfg,
		logger:     logger,
		now:        time.Now,
		maxBody:    1 << 20,
		scoreLimit: 60 * time.Second,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/api/v1/health", s.Health).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/score", s.ScoreClaim).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/feedback", s.Feedback).Methods(http.MethodPost)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.authMiddleware)
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	if s.config.Passphrase == "" {
		s.logger.Warn("server passphrase not set, API is open")
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("TruthCore API listening", "addr", s.config.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
