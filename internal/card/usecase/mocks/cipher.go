package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockCipher is a mock implementation of service.Cipher.
type MockCipher struct {
	mock.Mock
}

// Encrypt mocks the Encrypt method.
func (m *MockCipher) Encrypt(plaintext, key string) (string, error) {
	args := m.Called(plaintext, key)
	return args.String(0), args.Error(1)
}

// Decrypt mocks the Decrypt method.
func (m *MockCipher) Decrypt(ciphertext, key string) (string, error) {
	args := m.Called(ciphertext, key)
	return args.String(0), args.Error(1)
}

// Hash mocks the Hash method.
func (m *MockCipher) Hash(pan, key string) (string, error) {
	args := m.Called(pan, key)
	return args.String(0), args.Error(1)
}
