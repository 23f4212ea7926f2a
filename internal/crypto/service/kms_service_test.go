package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"gocloud.dev/secrets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateLocalSecretsURI generates a base64key:// URI for testing.
func generateLocalSecretsURI(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return "base64key://" + base64.URLEncoding.EncodeToString(key)
}

func TestKMSService_OpenKeeper(t *testing.T) {
	ctx := context.Background()
	kmsService := NewKMSService()

	t.Run("Success_LocalSecrets", func(t *testing.T) {
		keeper, err := kmsService.OpenKeeper(ctx, generateLocalSecretsURI(t))
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, keeper.Close())
		}()

		_, ok := keeper.(*secrets.Keeper)
		assert.True(t, ok, "keeper should be *secrets.Keeper")
	})

	t.Run("Error_InvalidURI", func(t *testing.T) {
		keeper, err := kmsService.OpenKeeper(ctx, "invalid://uri")
		assert.Error(t, err)
		assert.Nil(t, keeper)
		assert.Contains(t, err.Error(), "failed to open KMS keeper")
	})
}

func TestKMSService_WrapUnwrap(t *testing.T) {
	ctx := context.Background()
	kmsService := NewKMSService()
	keyURI := generateLocalSecretsURI(t)

	t.Run("Success_RoundTrip", func(t *testing.T) {
		wrapped, err := kmsService.WrapKey(ctx, keyURI, []byte("card-encryption-secret"))
		require.NoError(t, err)
		assert.NotContains(t, wrapped, "card-encryption-secret")

		unwrapped, err := kmsService.UnwrapKey(ctx, keyURI, wrapped)
		require.NoError(t, err)
		assert.Equal(t, "card-encryption-secret", unwrapped)
	})

	t.Run("Error_WrongKMSKey", func(t *testing.T) {
		wrapped, err := kmsService.WrapKey(ctx, keyURI, []byte("card-encryption-secret"))
		require.NoError(t, err)

		_, err = kmsService.UnwrapKey(ctx, generateLocalSecretsURI(t), wrapped)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unwrap encryption key")
	})

	t.Run("Error_NotBase64", func(t *testing.T) {
		_, err := kmsService.UnwrapKey(ctx, keyURI, "%%%")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not valid base64")
	})
}
