package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/dario/cardvault/internal/crypto/domain"
	cryptoService "github.com/dario/cardvault/internal/crypto/service"
)

// encryptionKeySize is the number of random bytes behind a generated key.
const encryptionKeySize = 32

// RunCreateEncryptionKey prints a fresh base64 encryption key. When kmsKeyURI is set the
// key is wrapped with the KMS and the output carries the ciphertext plus KMS_KEY_URI.
//
// Output format:
//   - ENCRYPTION_KEY="<base64 key or base64 KMS ciphertext>"
//   - KMS_KEY_URI="<uri>" (KMS mode only)
func RunCreateEncryptionKey(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	kmsKeyURI string,
) error {
	raw := make([]byte, encryptionKeySize)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("failed to generate encryption key: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	cryptoDomain.Zero(raw)

	if kmsKeyURI == "" {
		logger.Warn("encryption key generated without KMS wrapping")
		_, err := fmt.Fprintf(writer, "ENCRYPTION_KEY=\"%s\"\n", encoded)
		return err
	}

	wrapped, err := kmsService.WrapKey(ctx, kmsKeyURI, []byte(encoded))
	if err != nil {
		return fmt.Errorf("failed to wrap encryption key with KMS: %w", err)
	}

	logger.Info("encryption key generated and wrapped with KMS")
	_, err = fmt.Fprintf(writer,
		"# Copy these environment variables to your .env file or secrets manager\n"+
			"ENCRYPTION_KEY=\"%s\"\nKMS_KEY_URI=\"%s\"\n",
		wrapped, kmsKeyURI,
	)
	return err
}
