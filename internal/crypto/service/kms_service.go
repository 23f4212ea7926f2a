package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"gocloud.dev/secrets"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// Keeper is the subset of *secrets.Keeper used to wrap and unwrap the card encryption key.
type Keeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// KMSService wraps the card encryption key with an external KMS.
type KMSService interface {
	// OpenKeeper opens a keeper for keyURI (gcpkms://, awskms://, azurekeyvault://,
	// hashivault://, base64key://).
	OpenKeeper(ctx context.Context, keyURI string) (Keeper, error)

	// WrapKey encrypts key with the KMS and returns base64 ciphertext.
	WrapKey(ctx context.Context, keyURI string, key []byte) (string, error)

	// UnwrapKey decodes and decrypts a value produced by WrapKey.
	UnwrapKey(ctx context.Context, keyURI, wrapped string) (string, error)
}

type kmsService struct{}

// NewKMSService creates a new KMS service instance.
func NewKMSService() KMSService {
	return &kmsService{}
}

// OpenKeeper opens a secrets.Keeper for keyURI.
func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (Keeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

// WrapKey encrypts key under the KMS key at keyURI.
func (k *kmsService) WrapKey(ctx context.Context, keyURI string, key []byte) (string, error) {
	keeper, err := k.OpenKeeper(ctx, keyURI)
	if err != nil {
		return "", err
	}
	defer func() { _ = keeper.Close() }()

	ciphertext, err := keeper.Encrypt(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to wrap encryption key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// UnwrapKey returns the plaintext encryption key held in wrapped.
func (k *kmsService) UnwrapKey(ctx context.Context, keyURI, wrapped string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return "", fmt.Errorf("wrapped encryption key is not valid base64: %w", err)
	}

	keeper, err := k.OpenKeeper(ctx, keyURI)
	if err != nil {
		return "", err
	}
	defer func() { _ = keeper.Close() }()

	plaintext, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to unwrap encryption key: %w", err)
	}
	return string(plaintext), nil
}
