package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dario/cardvault/internal/card/domain"
	"github.com/dario/cardvault/internal/card/usecase/mocks"
)

func TestRunHealthCheck(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("healthy", func(t *testing.T) {
		useCase := &mocks.MockVaultUseCase{}
		response := domain.NewFailure[bool]()
		response.Succeed(true)
		useCase.On("HealthCheck", ctx).Return(response)

		var out bytes.Buffer
		err := RunHealthCheck(ctx, useCase, logger, &out)
		require.NoError(t, err)

		var decoded domain.Response[bool]
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
		assert.False(t, decoded.IsError)
		assert.Equal(t, 0, decoded.StatusCode)
		assert.True(t, decoded.Item)
		useCase.AssertExpectations(t)
	})

	t.Run("unreachable store", func(t *testing.T) {
		useCase := &mocks.MockVaultUseCase{}
		response := domain.NewFailure[bool]()
		response.Fail("connection refused")
		useCase.On("HealthCheck", ctx).Return(response)

		var out bytes.Buffer
		err := RunHealthCheck(ctx, useCase, logger, &out)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
		assert.Contains(t, out.String(), `"statusCode": 84`)
		useCase.AssertExpectations(t)
	})
}
