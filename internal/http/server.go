// Package http provides the API and metrics servers and their middleware.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cardHTTP "github.com/dario/cardvault/internal/card/http"
	"github.com/dario/cardvault/internal/config"
	"github.com/dario/cardvault/internal/httputil"
	"github.com/dario/cardvault/internal/metrics"
)

// Server represents the API server.
type Server struct {
	listener
	db     *sql.DB
	router *gin.Engine
}

// NewServer creates a new API server. db is pinged by the readiness endpoint and may be nil.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		listener: newListener("http server", host, port, logger),
		db:       db,
	}
}

// SetupRouter builds the gin router with the card routes. ctx bounds the background work
// of the rate limiter. metricsProvider may be nil when metrics are disabled.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	vaultHandler *cardHTTP.VaultHandler,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()
	router.Use(gin.CustomRecovery(s.recoveryHandler))
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	var cardMiddleware []gin.HandlerFunc
	if cfg.RateLimitEnabled {
		cardMiddleware = append(cardMiddleware,
			RateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger),
		)
	}
	vaultHandler.RegisterRoutes(router.Group("/api"), cardMiddleware...)

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start serves the API until Shutdown is called. SetupRouter must run first.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router is not configured")
	}
	return s.serve(s.router)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}

	if s.db == nil {
		components["database"] = "error"
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn("readiness check failed", slog.Any("error", err))
			components["database"] = "error"
		}
	}

	if components["database"] != "ok" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}

func (s *Server) recoveryHandler(c *gin.Context, recovered any) {
	httputil.HandleErrorGin(c, fmt.Errorf("panic recovered: %v", recovered), s.logger)
}
