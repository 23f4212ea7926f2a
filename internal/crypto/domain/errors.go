package domain

import (
	"github.com/dario/cardvault/internal/errors"
)

var (
	// ErrUnsupportedAlgorithm indicates the configured algorithm is unknown.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates derived key material is not KeySize bytes long.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrEmptyKey indicates an encryption or decryption call without a key.
	ErrEmptyKey = errors.Wrap(errors.ErrInvalidInput, "encryption key is empty")

	// ErrDecryptionFailed hides the reason a ciphertext could not be opened.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")
)
