// Package http provides the operator API server and its middleware stack.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"

	"github.com/allisson/outreach/internal/config"
	drafthttp "github.com/allisson/outreach/internal/draft/http"
	"github.com/allisson/outreach/internal/metrics"
)

// Server represents the operator API HTTP server.
type Server struct {
	server       *http.Server
	logger       *slog.Logger
	shuttingDown atomic.Bool
}

// NewServer creates a new API server with the full middleware stack and the
// draft queue routes registered.
func NewServer(
	cfg *config.Config,
	logger *slog.Logger,
	draftHandler *drafthttp.DraftHandler,
	meterProvider metric.MeterProvider,
) *Server {
	gin.SetMode(cfg.GetGinMode())

	s := &Server{logger: logger}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))

	if meterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(meterProvider, cfg.MetricsNamespace))
	}

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", HealthHandler)
	router.GET("/ready", ReadinessHandler(s))

	v1 := router.Group("/v1")
	if cfg.RateLimitEnabled {
		v1.Use(RateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, logger))
	}

	v1.POST("/campaigns", draftHandler.CreateCampaignHandler)
	v1.POST("/drafts", draftHandler.CreateDraftHandler)
	v1.GET("/drafts", draftHandler.ListDraftsHandler)
	v1.GET("/drafts/:id", draftHandler.GetDraftHandler)
	v1.POST("/drafts/:id/approve", draftHandler.ApproveDraftHandler)
	v1.POST("/drafts/:id/cancel", draftHandler.CancelDraftHandler)
	v1.GET("/drafts/:id/deliveries", draftHandler.ListDraftDeliveriesHandler)
	v1.GET("/deliveries", draftHandler.ListDeliveriesHandler)
	v1.GET("/queue/stats", draftHandler.QueueStatsHandler)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the API server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	s.shuttingDown.Store(true)
	return s.server.Shutdown(ctx)
}
