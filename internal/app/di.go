// Package app provides the dependency injection container that assembles the card vault.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	cardHTTP "github.com/dario/cardvault/internal/card/http"
	cardRepository "github.com/dario/cardvault/internal/card/repository"
	cardUseCase "github.com/dario/cardvault/internal/card/usecase"
	"github.com/dario/cardvault/internal/config"
	cryptoService "github.com/dario/cardvault/internal/crypto/service"
	"github.com/dario/cardvault/internal/database"
	"github.com/dario/cardvault/internal/http"
	"github.com/dario/cardvault/internal/metrics"
	"github.com/dario/cardvault/internal/telemetry"
)

// serviceName is reported on spans.
const serviceName = "card-vault"

// Container holds all application dependencies and provides methods to access them.
// Components are created on first access.
type Container struct {
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	queryDB         *sql.DB
	metricsProvider *metrics.Provider
	tracerProvider  *sdktrace.TracerProvider
	telemetry       *telemetry.Telemetry

	// Crypto
	kmsService    cryptoService.KMSService
	encryptionKey string
	cipher        cryptoService.Cipher

	// Card
	dialect        cardRepository.Dialect
	cardRepository cardUseCase.CardRepository
	vaultUseCase   cardUseCase.VaultUseCase
	vaultHandler   *cardHTTP.VaultHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	queryDBInit         sync.Once
	metricsProviderInit sync.Once
	tracerProviderInit  sync.Once
	telemetryInit       sync.Once
	kmsServiceInit      sync.Once
	encryptionKeyInit   sync.Once
	cipherInit          sync.Once
	dialectInit         sync.Once
	cardRepositoryInit  sync.Once
	vaultUseCaseInit    sync.Once
	vaultHandlerInit    sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the JSON logger configured with the log level of the configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: c.config.SlogLevel(),
		}))
	})
	return c.logger
}

// DB returns the write-path pool. The server must answer a ping before it is handed out.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// QueryDB returns the read-replica pool. It is opened without a ping so that an unreachable
// replica is reported by the health check instead of preventing startup.
func (c *Container) QueryDB() (*sql.DB, error) {
	var err error
	c.queryDBInit.Do(func() {
		c.queryDB, err = database.Open(c.databaseConfig(c.config.DBQueryConnectionString))
		if err != nil {
			c.initErrors["queryDB"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["queryDB"]; exists {
		return nil, storedErr
	}
	return c.queryDB, nil
}

// MetricsProvider returns the Prometheus-backed meter provider, or nil when metrics are
// disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// TracerProvider returns the SDK tracer provider.
func (c *Container) TracerProvider() *sdktrace.TracerProvider {
	c.tracerProviderInit.Do(func() {
		c.tracerProvider = telemetry.NewTracerProvider(serviceName)
	})
	return c.tracerProvider
}

// Telemetry returns the store telemetry registry.
func (c *Container) Telemetry() (*telemetry.Telemetry, error) {
	var err error
	c.telemetryInit.Do(func() {
		c.telemetry, err = c.initTelemetry()
		if err != nil {
			c.initErrors["telemetry"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["telemetry"]; exists {
		return nil, storedErr
	}
	return c.telemetry, nil
}

// HTTPServer returns the API server with its router configured. ctx bounds the background
// work of the router middleware.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer(ctx)
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown releases every initialized resource. It is safe to call when nothing was
// initialized.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.tracerProvider != nil {
		if err := c.tracerProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if c.queryDB != nil {
		if err := c.queryDB.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("query database close: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}

func (c *Container) databaseConfig(connectionString string) database.Config {
	return database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   connectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	}
}

func (c *Container) initDB() (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, c.databaseConfig(c.config.DBConnectionString))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func (c *Container) initTelemetry() (*telemetry.Telemetry, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for telemetry: %w", err)
	}

	if provider == nil {
		return telemetry.New(metricnoop.NewMeterProvider(), c.TracerProvider(), c.config.MetricsNamespace)
	}
	return telemetry.New(provider.MeterProvider(), c.TracerProvider(), c.config.MetricsNamespace)
}

func (c *Container) initHTTPServer(ctx context.Context) (*http.Server, error) {
	queryDB, err := c.QueryDB()
	if err != nil {
		return nil, fmt.Errorf("failed to get query database for http server: %w", err)
	}

	handler, err := c.VaultHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get vault handler for http server: %w", err)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(queryDB, c.config.ServerHost, c.config.ServerPort, c.Logger())
	server.SetupRouter(ctx, c.config, handler, provider)
	return server, nil
}

func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	if provider == nil {
		return nil, nil
	}

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}
