package service

import (
	"crypto/aes"
	"crypto/cipher"

	"golang.org/x/crypto/chacha20poly1305"

	cryptoDomain "github.com/dario/cardvault/internal/crypto/domain"
)

// AEADManagerService builds the AEAD of each supported algorithm from a derived card key.
type AEADManagerService struct{}

// NewAEADManager creates a new AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher returns the AEAD for alg. Both algorithms use 12-byte nonces and 16-byte
// tags. Returns ErrInvalidKeySize unless key is KeySize bytes and ErrUnsupportedAlgorithm
// for anything else than AES-256-GCM or ChaCha20-Poly1305.
func (am *AEADManagerService) CreateCipher(key []byte, alg cryptoDomain.Algorithm) (cipher.AEAD, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	switch alg {
	case cryptoDomain.AESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case cryptoDomain.ChaCha20:
		return chacha20poly1305.New(key)
	default:
		return nil, cryptoDomain.ErrUnsupportedAlgorithm
	}
}
