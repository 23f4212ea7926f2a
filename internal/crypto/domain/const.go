// Package domain holds the algorithm identifiers and errors shared by the card cipher.
package domain

import "fmt"

// Algorithm identifies the AEAD construction used to seal card fields.
type Algorithm string

const (
	// AESGCM is AES-256 in Galois/Counter Mode.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is ChaCha20-Poly1305, preferred on hosts without AES-NI.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// KeySize is the length in bytes of every derived card key.
const KeySize = 32

// ParseAlgorithm converts a configuration value into an Algorithm.
func ParseAlgorithm(value string) (Algorithm, error) {
	switch Algorithm(value) {
	case AESGCM, ChaCha20:
		return Algorithm(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, value)
	}
}
