package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm("aes-gcm")
	assert.NoError(t, err)
	assert.Equal(t, AESGCM, alg)

	alg, err = ParseAlgorithm("chacha20-poly1305")
	assert.NoError(t, err)
	assert.Equal(t, ChaCha20, alg)

	_, err = ParseAlgorithm("rot13")
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}
