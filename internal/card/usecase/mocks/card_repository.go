// Package mocks provides testify mocks for the card use case dependencies.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dario/cardvault/internal/card/domain"
)

// MockCardRepository is a mock implementation of usecase.CardRepository.
type MockCardRepository struct {
	mock.Mock
}

// Store mocks the Store method.
func (m *MockCardRepository) Store(ctx context.Context, in domain.StoreInput) (int64, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(int64), args.Error(1)
}

// GetByID mocks the GetByID method.
func (m *MockCardRepository) GetByID(ctx context.Context, cardID int64) (*domain.Card, error) {
	args := m.Called(ctx, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Card), args.Error(1)
}

// Ping mocks the Ping method.
func (m *MockCardRepository) Ping(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}
