package service

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	cryptoDomain "github.com/dario/cardvault/internal/crypto/domain"
)

var keyDerivationInfo = []byte("cardvault/card-fields/v1")

// CardCipher implements Cipher on top of an AEAD. The configured secret is stretched to a
// 32-byte key with HKDF-SHA256 and each ciphertext is base64(nonce || sealed).
type CardCipher struct {
	manager AEADManager
	alg     cryptoDomain.Algorithm
}

// NewCardCipher creates a CardCipher sealing with alg.
func NewCardCipher(manager AEADManager, alg cryptoDomain.Algorithm) *CardCipher {
	return &CardCipher{
		manager: manager,
		alg:     alg,
	}
}

// Encrypt seals plaintext under key.
func (c *CardCipher) Encrypt(plaintext, key string) (string, error) {
	aead, err := c.aead(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	blob := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt opens a value produced by Encrypt. Any malformed or tampered input yields
// ErrDecryptionFailed.
func (c *CardCipher) Decrypt(ciphertext, key string) (string, error) {
	aead, err := c.aead(key)
	if err != nil {
		return "", err
	}

	blob, err := base64.StdEncoding.DecodeString(ciphertext)
	nonceSize := aead.NonceSize()
	if err != nil || len(blob) < nonceSize+aead.Overhead() {
		return "", cryptoDomain.ErrDecryptionFailed
	}

	plaintext, err := aead.Open(nil, blob[:nonceSize], blob[nonceSize:], nil)
	if err != nil {
		return "", cryptoDomain.ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// Hash returns the keyed dedup digest of pan. See HashPAN.
func (c *CardCipher) Hash(pan, key string) (string, error) {
	return HashPAN(pan, key)
}

func (c *CardCipher) aead(key string) (cipher.AEAD, error) {
	if key == "" {
		return nil, cryptoDomain.ErrEmptyKey
	}

	derived, err := DeriveKey(key)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(derived)

	return c.manager.CreateCipher(derived, c.alg)
}

// DeriveKey stretches secret into the KeySize-byte field encryption key with HKDF-SHA256.
func DeriveKey(secret string) ([]byte, error) {
	return deriveKey(secret, keyDerivationInfo)
}

func deriveKey(secret string, info []byte) ([]byte, error) {
	key := make([]byte, cryptoDomain.KeySize)
	reader := hkdf.New(sha256.New, []byte(secret), nil, info)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive %s key: %w", info, err)
	}
	return key, nil
}
