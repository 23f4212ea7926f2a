package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dario/cardvault/internal/card/domain"
)

// MockVaultUseCase is a mock implementation of usecase.VaultUseCase.
type MockVaultUseCase struct {
	mock.Mock
}

// Store mocks the Store method.
func (m *MockVaultUseCase) Store(ctx context.Context, req domain.VaultRequest) domain.Response[domain.Summary] {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Response[domain.Summary])
}

// GetByID mocks the GetByID method.
func (m *MockVaultUseCase) GetByID(ctx context.Context, cardID int64) domain.Response[domain.Card] {
	args := m.Called(ctx, cardID)
	return args.Get(0).(domain.Response[domain.Card])
}

// GetDecryptedByID mocks the GetDecryptedByID method.
func (m *MockVaultUseCase) GetDecryptedByID(ctx context.Context, cardID int64) domain.Response[domain.Card] {
	args := m.Called(ctx, cardID)
	return args.Get(0).(domain.Response[domain.Card])
}

// HealthCheck mocks the HealthCheck method.
func (m *MockVaultUseCase) HealthCheck(ctx context.Context) domain.Response[bool] {
	args := m.Called(ctx)
	return args.Get(0).(domain.Response[bool])
}
