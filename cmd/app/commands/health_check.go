package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	cardUseCase "github.com/dario/cardvault/internal/card/usecase"
)

// RunHealthCheck probes the backing store once and writes the envelope as JSON. A failed
// envelope is returned as an error so the process exits non-zero.
func RunHealthCheck(
	ctx context.Context,
	vaultUseCase cardUseCase.VaultUseCase,
	logger *slog.Logger,
	writer io.Writer,
) error {
	response := vaultUseCase.HealthCheck(ctx)

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return fmt.Errorf("failed to write health check result: %w", err)
	}

	if !response.OK() {
		logger.Error("health check failed", slog.Int("status_code", response.StatusCode))
		return fmt.Errorf("health check failed: %s", response.Message)
	}

	logger.Info("health check passed")
	return nil
}
