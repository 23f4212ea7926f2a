package usecase

import (
	"context"
	"time"

	"github.com/dario/cardvault/internal/card/domain"
	"github.com/dario/cardvault/internal/metrics"
)

// vaultUseCaseWithMetrics decorates VaultUseCase with operation metrics. An operation
// counts as an error whenever its envelope is not successful.
type vaultUseCaseWithMetrics struct {
	next    VaultUseCase
	metrics metrics.OperationMetrics
}

// NewVaultUseCaseWithMetrics wraps a VaultUseCase with metrics recording.
func NewVaultUseCaseWithMetrics(useCase VaultUseCase, m metrics.OperationMetrics) VaultUseCase {
	return &vaultUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (v *vaultUseCaseWithMetrics) Store(
	ctx context.Context,
	req domain.VaultRequest,
) domain.Response[domain.Summary] {
	start := time.Now()
	response := v.next.Store(ctx, req)
	v.record(ctx, OperationStore, start, response.OK())
	return response
}

func (v *vaultUseCaseWithMetrics) GetByID(ctx context.Context, cardID int64) domain.Response[domain.Card] {
	start := time.Now()
	response := v.next.GetByID(ctx, cardID)
	v.record(ctx, OperationGetByID, start, response.OK())
	return response
}

func (v *vaultUseCaseWithMetrics) GetDecryptedByID(ctx context.Context, cardID int64) domain.Response[domain.Card] {
	start := time.Now()
	response := v.next.GetDecryptedByID(ctx, cardID)
	v.record(ctx, OperationGetDecryptedByID, start, response.OK())
	return response
}

func (v *vaultUseCaseWithMetrics) HealthCheck(ctx context.Context) domain.Response[bool] {
	start := time.Now()
	response := v.next.HealthCheck(ctx)
	v.record(ctx, OperationHealthCheck, start, response.OK())
	return response
}

func (v *vaultUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, ok bool) {
	status := metrics.StatusSuccess
	if !ok {
		status = metrics.StatusError
	}

	v.metrics.RecordOperation(ctx, operation, status)
	v.metrics.RecordDuration(ctx, operation, time.Since(start), status)
}
