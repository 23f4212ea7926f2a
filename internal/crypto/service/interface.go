// Package service implements the cryptographic capabilities the card vault relies on:
// authenticated encryption of card fields, the PAN dedup hash and KMS unwrapping of the
// configured encryption key.
package service

import (
	"crypto/cipher"

	cryptoDomain "github.com/dario/cardvault/internal/crypto/domain"
)

// AEADManager builds the AEAD that seals card fields for an algorithm.
type AEADManager interface {
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (cipher.AEAD, error)
}

// Cipher is the capability the vault uses to protect card fields. Ciphertexts are opaque
// printable strings suitable for NVARCHAR/TEXT columns.
type Cipher interface {
	// Encrypt seals plaintext under key.
	Encrypt(plaintext, key string) (string, error)

	// Decrypt opens a ciphertext produced by Encrypt with the same key.
	Decrypt(ciphertext, key string) (string, error)

	// Hash returns the deterministic dedup digest of pan keyed by key.
	Hash(pan, key string) (string, error)
}
