package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	cryptoDomain "github.com/dario/cardvault/internal/crypto/domain"
)

var hashKeyDerivationInfo = []byte("cardvault/pan-dedup/v1")

// HashPAN returns the hex HMAC-SHA256 of pan under a key derived from secret. The HMAC key
// comes from its own HKDF label, so it never equals the field encryption key.
func HashPAN(pan, secret string) (string, error) {
	if secret == "" {
		return "", cryptoDomain.ErrEmptyKey
	}

	key, err := deriveKey(secret, hashKeyDerivationInfo)
	if err != nil {
		return "", err
	}
	defer cryptoDomain.Zero(key)

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(pan))
	return hex.EncodeToString(mac.Sum(nil)), nil
}
