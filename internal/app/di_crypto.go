package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	cryptoDomain "github.com/dario/cardvault/internal/crypto/domain"
	cryptoService "github.com/dario/cardvault/internal/crypto/service"
)

// KMSService returns the KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// EncryptionKey returns the secret card fields are encrypted with. When a KMS key URI is
// configured the configured value is unwrapped first.
func (c *Container) EncryptionKey() (string, error) {
	var err error
	c.encryptionKeyInit.Do(func() {
		c.encryptionKey, err = c.initEncryptionKey()
		if err != nil {
			c.initErrors["encryptionKey"] = err
		}
	})
	if err != nil {
		return "", err
	}
	if storedErr, exists := c.initErrors["encryptionKey"]; exists {
		return "", storedErr
	}
	return c.encryptionKey, nil
}

// Cipher returns the card cipher for the configured algorithm.
func (c *Container) Cipher() (cryptoService.Cipher, error) {
	var err error
	c.cipherInit.Do(func() {
		c.cipher, err = c.initCipher()
		if err != nil {
			c.initErrors["cipher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cipher"]; exists {
		return nil, storedErr
	}
	return c.cipher, nil
}

func (c *Container) initEncryptionKey() (string, error) {
	if c.config.EncryptionKey == "" {
		return "", fmt.Errorf("encryption key is not configured")
	}
	if c.config.KMSKeyURI == "" {
		return c.config.EncryptionKey, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	key, err := c.KMSService().UnwrapKey(ctx, c.config.KMSKeyURI, c.config.EncryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to unwrap encryption key: %w", err)
	}
	c.Logger().Info("encryption key unwrapped", "kms_provider", kmsProvider(c.config.KMSKeyURI))
	return key, nil
}

func (c *Container) initCipher() (cryptoService.Cipher, error) {
	alg, err := cryptoDomain.ParseAlgorithm(c.config.EncryptionAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cryptoService.NewCardCipher(cryptoService.NewAEADManager(), alg), nil
}

// kmsProvider returns the URI scheme, which names the provider without exposing the key path.
func kmsProvider(keyURI string) string {
	scheme, _, found := strings.Cut(keyURI, "://")
	if !found || scheme == "" {
		return "unknown"
	}
	return scheme
}
