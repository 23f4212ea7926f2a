package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationMetrics(t *testing.T) {
	provider, err := NewProvider()
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	om, err := NewOperationMetrics(provider.MeterProvider(), "card_vault")
	require.NoError(t, err)

	ctx := context.Background()
	om.RecordOperation(ctx, "store", StatusSuccess)
	om.RecordOperation(ctx, "store", StatusSuccess)
	om.RecordOperation(ctx, "get_by_id", StatusError)
	om.RecordDuration(ctx, "store", 25*time.Millisecond, StatusSuccess)

	output := scrape(t, provider)

	assertMetricLine(t, output, "card_vault_operations_total", `operation="store"[^}]*status="success"`, "2")
	assertMetricLine(t, output, "card_vault_operations_total", `operation="get_by_id"[^}]*status="error"`, "1")
	assertMetricLine(t, output, "card_vault_operation_duration_seconds_count", `operation="store"`, "1")
}
