package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/dario/cardvault/internal/config"
)

// RunMigrations applies every pending migration for driver. The card table and the store
// and lookup procedures live under migrations/postgresql and migrations/mysql.
func RunMigrations(logger *slog.Logger, driver, connectionString string) error {
	logger.Info("running database migrations", slog.String("driver", driver))

	sourceURL, databaseURL, err := migrationTarget(driver, connectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("migrations completed successfully")
	return nil
}

// migrationTarget maps the runtime connection string onto the URL form the migrate drivers
// expect. MySQL DSNs gain the mysql:// scheme and multiStatements.
func migrationTarget(driver, connectionString string) (string, string, error) {
	switch driver {
	case config.DriverPostgres:
		u, err := url.Parse(connectionString)
		if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			return "", "", errors.New("postgres migrations require a postgres:// connection URL")
		}
		return "file://migrations/postgresql", connectionString, nil
	case config.DriverMySQL:
		cfg, err := mysql.ParseDSN(connectionString)
		if err != nil {
			return "", "", fmt.Errorf("invalid mysql connection string: %w", err)
		}
		cfg.MultiStatements = true
		return "file://migrations/mysql", "mysql://" + cfg.FormatDSN(), nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

func closeMigrate(m *migrate.Migrate, logger *slog.Logger) {
	sourceErr, databaseErr := m.Close()
	if sourceErr != nil || databaseErr != nil {
		logger.Error("failed to close the migrate",
			slog.Any("source_error", sourceErr),
			slog.Any("database_error", databaseErr),
		)
	}
}
