package app

import (
	"fmt"

	cardHTTP "github.com/dario/cardvault/internal/card/http"
	cardRepository "github.com/dario/cardvault/internal/card/repository"
	cardUseCase "github.com/dario/cardvault/internal/card/usecase"
	"github.com/dario/cardvault/internal/metrics"
	"github.com/dario/cardvault/internal/telemetry"
)

// Dialect returns the store dialect of the configured driver.
func (c *Container) Dialect() (cardRepository.Dialect, error) {
	var err error
	c.dialectInit.Do(func() {
		c.dialect, err = cardRepository.NewDialect(c.config.DBDriver)
		if err != nil {
			c.initErrors["dialect"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["dialect"]; exists {
		return nil, storedErr
	}
	return c.dialect, nil
}

// CardRepository returns the card repository backed by the write and query targets.
func (c *Container) CardRepository() (cardUseCase.CardRepository, error) {
	var err error
	c.cardRepositoryInit.Do(func() {
		c.cardRepository, err = c.initCardRepository()
		if err != nil {
			c.initErrors["cardRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cardRepository"]; exists {
		return nil, storedErr
	}
	return c.cardRepository, nil
}

// VaultUseCase returns the vault use case, wrapped with operation metrics when enabled.
func (c *Container) VaultUseCase() (cardUseCase.VaultUseCase, error) {
	var err error
	c.vaultUseCaseInit.Do(func() {
		c.vaultUseCase, err = c.initVaultUseCase()
		if err != nil {
			c.initErrors["vaultUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["vaultUseCase"]; exists {
		return nil, storedErr
	}
	return c.vaultUseCase, nil
}

// VaultHandler returns the card HTTP handler.
func (c *Container) VaultHandler() (*cardHTTP.VaultHandler, error) {
	var err error
	c.vaultHandlerInit.Do(func() {
		c.vaultHandler, err = c.initVaultHandler()
		if err != nil {
			c.initErrors["vaultHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["vaultHandler"]; exists {
		return nil, storedErr
	}
	return c.vaultHandler, nil
}

func (c *Container) initCardRepository() (cardUseCase.CardRepository, error) {
	dialect, err := c.Dialect()
	if err != nil {
		return nil, fmt.Errorf("failed to get dialect for card repository: %w", err)
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for card repository: %w", err)
	}

	queryDB, err := c.QueryDB()
	if err != nil {
		return nil, fmt.Errorf("failed to get query database for card repository: %w", err)
	}

	tel, err := c.Telemetry()
	if err != nil {
		return nil, fmt.Errorf("failed to get telemetry for card repository: %w", err)
	}

	write := cardRepository.NewGateway(db, dialect, tel,
		telemetry.ParseTarget(c.config.DBDriver, c.config.DBConnectionString))
	query := cardRepository.NewGateway(queryDB, dialect, tel,
		telemetry.ParseTarget(c.config.DBDriver, c.config.DBQueryConnectionString))

	return cardRepository.NewCardRepository(write, query, cardRepository.Procedures{
		Store:                c.config.CardStoreProcedure,
		Lookup:               c.config.CardLookupProcedure,
		LookupParameterNames: c.config.LookupParameterNames(),
	}), nil
}

func (c *Container) initVaultUseCase() (cardUseCase.VaultUseCase, error) {
	repo, err := c.CardRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get card repository for vault use case: %w", err)
	}

	cipher, err := c.Cipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get cipher for vault use case: %w", err)
	}

	key, err := c.EncryptionKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get encryption key for vault use case: %w", err)
	}

	tel, err := c.Telemetry()
	if err != nil {
		return nil, fmt.Errorf("failed to get telemetry for vault use case: %w", err)
	}

	useCase := cardUseCase.NewVaultUseCase(repo, cipher, key, tel, c.Logger())

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for vault use case: %w", err)
	}
	if provider == nil {
		return useCase, nil
	}

	operationMetrics, err := metrics.NewOperationMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation metrics: %w", err)
	}
	return cardUseCase.NewVaultUseCaseWithMetrics(useCase, operationMetrics), nil
}

func (c *Container) initVaultHandler() (*cardHTTP.VaultHandler, error) {
	useCase, err := c.VaultUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get vault use case for vault handler: %w", err)
	}
	return cardHTTP.NewVaultHandler(useCase, c.Logger()), nil
}
