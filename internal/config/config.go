// Package config provides application configuration through environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"
	"github.com/joho/godotenv"

	cryptoDomain "github.com/dario/cardvault/internal/crypto/domain"
	customValidation "github.com/dario/cardvault/internal/validation"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds all application configuration.
type Config struct {
	// ServerHost is the host address the server will bind to.
	ServerHost string
	// ServerPort is the port number the server will listen on.
	ServerPort int

	// DBDriver is the database driver to use ("postgres" or "mysql").
	DBDriver string
	// DBConnectionString targets the write path (store and lookup procedures).
	DBConnectionString string
	// DBQueryConnectionString targets the read replica used by the health probe.
	DBQueryConnectionString string
	// DBMaxOpenConnections is the maximum number of open connections per pool.
	DBMaxOpenConnections int
	// DBMaxIdleConnections is the maximum number of idle connections per pool.
	DBMaxIdleConnections int
	// DBConnMaxLifetime is the maximum amount of time a connection may be reused.
	DBConnMaxLifetime time.Duration

	// EncryptionKey is the secret card fields are encrypted with. When KMSKeyURI is set it
	// holds the base64 KMS ciphertext of that secret.
	EncryptionKey string
	// EncryptionAlgorithm is "aes-gcm" or "chacha20-poly1305".
	EncryptionAlgorithm string
	// KMSKeyURI is the gocloud.dev secrets URI used to unwrap EncryptionKey.
	KMSKeyURI string

	// CardStoreProcedure is the write procedure.
	CardStoreProcedure string
	// CardLookupProcedure is the by-id read procedure.
	CardLookupProcedure string
	// CardLookupParameterNames is the comma-separated, ordered list of formal parameter
	// names tried against CardLookupProcedure.
	CardLookupParameterNames string

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// RateLimitEnabled indicates whether per-IP rate limiting of card endpoints is enabled.
	RateLimitEnabled bool
	// RateLimitRequestsPerSec is the number of requests allowed per second per client IP.
	RateLimitRequestsPerSec float64
	// RateLimitBurst is the burst size per client IP.
	RateLimitBurst int

	// CORSEnabled indicates whether CORS is enabled.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins for CORS.
	CORSAllowOrigins string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the prefix of every metric name.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	loadDotEnv()

	return &Config{
		// Server configuration
		ServerHost: env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort: env.GetInt("SERVER_PORT", 10010),

		// Database configuration
		DBDriver:                env.GetString("DB_DRIVER", DriverPostgres),
		DBConnectionString:      env.GetString("DB_CONNECTION_STRING", ""),
		DBQueryConnectionString: env.GetString("DB_QUERY_CONNECTION_STRING", ""),
		DBMaxOpenConnections:    env.GetInt("DB_MAX_OPEN_CONNECTIONS", 25),
		DBMaxIdleConnections:    env.GetInt("DB_MAX_IDLE_CONNECTIONS", 5),
		DBConnMaxLifetime:       env.GetDuration("DB_CONN_MAX_LIFETIME", 5, time.Minute),

		// Encryption
		EncryptionKey:       env.GetString("ENCRYPTION_KEY", ""),
		EncryptionAlgorithm: env.GetString("ENCRYPTION_ALGORITHM", string(cryptoDomain.AESGCM)),
		KMSKeyURI:           env.GetString("KMS_KEY_URI", ""),

		// Store procedures
		CardStoreProcedure:       env.GetString("CARD_STORE_PROCEDURE", "dario_card_storage"),
		CardLookupProcedure:      env.GetString("CARD_LOOKUP_PROCEDURE", "dario_card_by_id_data"),
		CardLookupParameterNames: env.GetString("CARD_LOOKUP_PARAMETER_NAMES", "p_Id,Id,p_CardId"),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Rate Limiting
		RateLimitEnabled:        env.GetBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 50.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 100),

		// CORS
		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "card_vault"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// Validate reports every missing or malformed setting. The encryption key and both
// connection strings are mandatory.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.ServerPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.DBDriver, validation.Required, validation.In(DriverPostgres, DriverMySQL)),
		validation.Field(&c.DBConnectionString, validation.Required, customValidation.NotBlank),
		validation.Field(&c.DBQueryConnectionString, validation.Required, customValidation.NotBlank),
		validation.Field(&c.EncryptionKey,
			validation.Required,
			customValidation.NotBlank,
			validation.When(c.KMSKeyURI != "", customValidation.Base64),
		),
		validation.Field(&c.EncryptionAlgorithm,
			validation.Required,
			validation.In(string(cryptoDomain.AESGCM), string(cryptoDomain.ChaCha20)),
		),
		validation.Field(&c.CardStoreProcedure, validation.Required, customValidation.Identifier),
		validation.Field(&c.CardLookupProcedure, validation.Required, customValidation.Identifier),
		validation.Field(&c.CardLookupParameterNames, customValidation.IdentifierList),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.MetricsPort, validation.When(c.MetricsEnabled, validation.Min(1), validation.Max(65535))),
	)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LookupParameterNames returns the probing candidates in priority order.
func (c *Config) LookupParameterNames() []string {
	return customValidation.SplitList(c.CardLookupParameterNames)
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	if c.LogLevel == "debug" {
		return "debug"
	}
	return "release"
}

// loadDotEnv searches for a .env file from the working directory up to the root and loads
// the first one found. Variables already set in the environment win.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}

	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
