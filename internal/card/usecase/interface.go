// Package usecase implements the card vault operations. Each operation validates its input,
// derives and encrypts card fields, calls the backing store through a CardRepository and
// always answers with a domain.Response envelope. Store failures never escape as errors.
package usecase

import (
	"context"

	"github.com/dario/cardvault/internal/card/domain"
)

// Operation names used for metrics, spans and logs.
const (
	OperationStore            = "store"
	OperationGetByID          = "get_by_id"
	OperationGetDecryptedByID = "get_decrypted_by_id"
	OperationHealthCheck      = "health_check"
)

// CardRepository defines the backing-store operations of the vault.
type CardRepository interface {
	// Store persists the derived and encrypted fields and returns the assigned card id.
	Store(ctx context.Context, in domain.StoreInput) (int64, error)
	// GetByID returns the stored record with its ciphertext fields untouched.
	GetByID(ctx context.Context, cardID int64) (*domain.Card, error)
	// Ping runs the health probe against the query target.
	Ping(ctx context.Context) (bool, error)
}

// VaultUseCase defines the public vault operations.
type VaultUseCase interface {
	Store(ctx context.Context, req domain.VaultRequest) domain.Response[domain.Summary]
	GetByID(ctx context.Context, cardID int64) domain.Response[domain.Card]
	// GetDecryptedByID returns the record with Pan and Expiry in cleartext. The response
	// must never be logged.
	GetDecryptedByID(ctx context.Context, cardID int64) domain.Response[domain.Card]
	HealthCheck(ctx context.Context) domain.Response[bool]
}
