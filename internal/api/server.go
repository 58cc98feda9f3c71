// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/trendsim/trendsim/internal/api/handler"
	"github.com/trendsim/trendsim/internal/api/middleware"
	"github.com/trendsim/trendsim/internal/metrics"
)

// Server is the trendsim HTTP API server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string
}

// Deps are the handlers the server routes to.
type Deps struct {
	Backtest *handler.BacktestHandler
	Strategy *handler.StrategyHandler
	Results  *handler.ResultHandler
	Metrics  *metrics.Registry
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(cfg Config, deps Deps, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
	}
	s.setupRoutes(cfg, deps)

	var root http.Handler = mux
	if deps.Metrics != nil {
		root = metrics.HTTPMiddleware(deps.Metrics)(root)
	}
	root = metrics.LoggingMiddleware(logger)(root)
	s.httpServer.Handler = root

	return s
}

func (s *Server) setupRoutes(cfg Config, deps Deps) {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	if deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, promhttp.HandlerFor(
			deps.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	auth := middleware.APIKeyAuth(cfg.APIKey)
	api := http.NewServeMux()

	if deps.Backtest != nil {
		api.HandleFunc("POST /api/v1/backtests", deps.Backtest.Create)
		api.HandleFunc("POST /api/v1/optimizations", deps.Backtest.Optimize)
		api.HandleFunc("POST /api/v1/comparisons", deps.Backtest.Compare)
		api.HandleFunc("GET /api/v1/jobs", deps.Backtest.ListJobs)
		api.HandleFunc("GET /api/v1/jobs/{id}", deps.Backtest.GetJob)
	}
	if deps.Strategy != nil {
		api.HandleFunc("GET /api/v1/strategies", deps.Strategy.List)
		api.HandleFunc("POST /api/v1/strategies", deps.Strategy.Create)
		api.HandleFunc("POST /api/v1/strategies/validate", deps.Strategy.Validate)
		api.HandleFunc("GET /api/v1/strategies/{id}", deps.Strategy.Get)
		api.HandleFunc("PUT /api/v1/strategies/{id}", deps.Strategy.Update)
		api.HandleFunc("DELETE /api/v1/strategies/{id}", deps.Strategy.Delete)
	}
	if deps.Results != nil {
		api.HandleFunc("GET /api/v1/results/{strategy}", deps.Results.List)
		api.HandleFunc("GET /api/v1/results/{strategy}/{id}", deps.Results.Get)
	}

	s.mux.Handle("/api/", auth(api))
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
