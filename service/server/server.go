package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/txbff/service/config"
	"github.com/brojonat/txbff/service/metrics"
	"github.com/brojonat/txbff/service/transactions"
	"github.com/brojonat/txbff/service/upstream"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the HTTP server for the transactions endpoint.
type Server struct {
	addr         string
	cfg          *config.Config
	upstream     *upstream.Client
	placeholders transactions.Placeholders
	metrics      *metrics.Metrics
	logger       *slog.Logger
	server       *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The metrics is optional - if nil, the metrics endpoint won't be available.
func New(addr string, cfg *config.Config, upstreamClient *upstream.Client, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:         addr,
		cfg:          cfg,
		upstream:     upstreamClient,
		placeholders: transactions.NewRandomPlaceholders(),
		metrics:      m,
		logger:       logger,
	}
}

// Handler builds the routed handler, including CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// No method in the pattern: the handler answers non-GET requests itself.
	mux.Handle("/api/transactions", metrics.Instrument(s.metrics, "/api/transactions",
		handleTransactions(s.cfg, s.upstream, s.placeholders, s.metrics, s.logger),
	))

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return corsMiddleware(mux)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	if s.metrics != nil {
		s.logger.Info("Prometheus metrics endpoint enabled")
	}
	if s.cfg.UpstreamURL == "" {
		s.logger.Warn("upstream URL not configured, transaction requests will fail", "env", config.UpstreamURLEnv)
	}

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers to all responses and answers browser preflight
// requests. A plain OPTIONS request without Access-Control-Request-Method is
// passed through, so /api/transactions still answers it with 405.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
