package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dario/cardvault/internal/httputil"
	"github.com/dario/cardvault/internal/metrics"
)

// MetricsServer serves the Prometheus scrape endpoint on its own port, away from the card
// routes.
type MetricsServer struct {
	listener
	router *gin.Engine
}

// NewMetricsServer creates a new MetricsServer exposing GET /metrics.
func NewMetricsServer(
	host string,
	port int,
	logger *slog.Logger,
	metricsProvider *metrics.Provider,
) *MetricsServer {
	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		httputil.HandleErrorGin(c, fmt.Errorf("panic recovered: %v", recovered), logger)
	}))
	router.Use(CustomLoggerMiddleware(logger))

	if metricsProvider != nil {
		router.GET("/metrics", gin.WrapH(metricsProvider.Handler()))
	}

	return &MetricsServer{
		listener: newListener("metrics server", host, port, logger),
		router:   router,
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *MetricsServer) GetHandler() http.Handler {
	return s.router
}

// Start serves the scrape endpoint until Shutdown is called.
func (s *MetricsServer) Start(ctx context.Context) error {
	return s.serve(s.router)
}

// Shutdown gracefully shuts down the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.shutdown(ctx)
}
