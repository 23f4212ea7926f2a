package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

type recorder struct {
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
}

func newTestTelemetry(t *testing.T) (*Telemetry, *recorder) {
	t.Helper()

	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()

	tel, err := New(
		sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)),
		"card_vault",
	)
	require.NoError(t, err)

	return tel, &recorder{spans: spans, reader: reader}
}

func (r *recorder) sum(t *testing.T, name string) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, r.reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			data, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range data.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func (r *recorder) histogramCount(t *testing.T, name string) uint64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, r.reader.Collect(context.Background(), &rm))

	var total uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			data, ok := m.Data.(metricdata.Histogram[float64])
			require.True(t, ok)
			for _, dp := range data.DataPoints {
				total += dp.Count
				assert.Equal(t, DurationBuckets, dp.Bounds)
			}
		}
	}
	return total
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTelemetry_Run(t *testing.T) {
	t.Run("Success_RecordsRequestAndDuration", func(t *testing.T) {
		tel, rec := newTestTelemetry(t)

		err := tel.Run(context.Background(), Call{
			Operation: "store",
			Stage:     StageExecute,
			Procedure: "dario_card_storage",
			Target:    Target{Address: "db-primary", Port: 5432},
		}, func(ctx context.Context) error {
			assert.True(t, trace.SpanContextFromContext(ctx).IsValid())
			return nil
		})
		require.NoError(t, err)

		assert.Equal(t, int64(1), rec.sum(t, "card_vault_store_requests"))
		assert.Equal(t, int64(0), rec.sum(t, "card_vault_store_errors"))
		assert.Equal(t, uint64(1), rec.histogramCount(t, "card_vault_store_duration"))

		spans := rec.spans.Ended()
		require.Len(t, spans, 1)
		span := spans[0]
		assert.Equal(t, "card.store.execute", span.Name())
		assert.Equal(t, trace.SpanKindClient, span.SpanKind())
		assert.Equal(t, codes.Ok, span.Status().Code)

		proc, ok := spanAttr(span, "db.stored_procedure.name")
		require.True(t, ok)
		assert.Equal(t, "dario_card_storage", proc.AsString())

		addr, ok := spanAttr(span, "server.address")
		require.True(t, ok)
		assert.Equal(t, "db-primary", addr.AsString())

		port, ok := spanAttr(span, "server.port")
		require.True(t, ok)
		assert.Equal(t, int64(5432), port.AsInt64())

		outcome, ok := spanAttr(span, "outcome")
		require.True(t, ok)
		assert.Equal(t, "ok", outcome.AsString())
	})

	t.Run("Failure_IncrementsErrorCounter", func(t *testing.T) {
		tel, rec := newTestTelemetry(t)
		boom := errors.New("connection reset")

		err := tel.Run(context.Background(), Call{
			Operation: "get_by_id",
			Stage:     StageCursorOpen,
			Attempt:   2,
		}, func(ctx context.Context) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)

		assert.Equal(t, int64(1), rec.sum(t, "card_vault_store_requests"))
		assert.Equal(t, int64(1), rec.sum(t, "card_vault_store_errors"))
		assert.Equal(t, uint64(1), rec.histogramCount(t, "card_vault_store_duration"))

		spans := rec.spans.Ended()
		require.Len(t, spans, 1)
		span := spans[0]
		assert.Equal(t, "card.get_by_id.cursor_open", span.Name())
		assert.Equal(t, codes.Error, span.Status().Code)
		assert.Equal(t, "connection reset", span.Status().Description)
		require.NotEmpty(t, span.Events())
		assert.Equal(t, "exception", span.Events()[0].Name)

		attempt, ok := spanAttr(span, "attempt")
		require.True(t, ok)
		assert.Equal(t, int64(2), attempt.AsInt64())
	})

	t.Run("Operation_IsInternalSpan", func(t *testing.T) {
		tel, rec := newTestTelemetry(t)

		require.NoError(t, tel.Run(context.Background(), Call{Operation: "health_check"}, func(ctx context.Context) error {
			return nil
		}))

		spans := rec.spans.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, "card.health_check", spans[0].Name())
		assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())

		stage, ok := spanAttr(spans[0], "db.stage")
		require.True(t, ok)
		assert.Equal(t, "operation", stage.AsString())

		_, ok = spanAttr(spans[0], "attempt")
		assert.False(t, ok)
	})

	t.Run("QueryText_IsNotTaggedAsProcedure", func(t *testing.T) {
		tel, rec := newTestTelemetry(t)

		require.NoError(t, tel.Run(context.Background(), Call{
			Operation: "health_check",
			Stage:     StageQuery,
			Procedure: "SELECT 1",
		}, func(ctx context.Context) error {
			return nil
		}))

		spans := rec.spans.Ended()
		require.Len(t, spans, 1)
		_, ok := spanAttr(spans[0], "db.stored_procedure.name")
		assert.False(t, ok)
	})

	t.Run("Panic_RecordedAndRepanicked", func(t *testing.T) {
		tel, rec := newTestTelemetry(t)

		assert.PanicsWithValue(t, "driver exploded", func() {
			_ = tel.Run(context.Background(), Call{Operation: "store", Stage: StageExecute}, func(ctx context.Context) error {
				panic("driver exploded")
			})
		})

		assert.Equal(t, int64(1), rec.sum(t, "card_vault_store_errors"))
		assert.Equal(t, uint64(1), rec.histogramCount(t, "card_vault_store_duration"))
		require.Len(t, rec.spans.Ended(), 1)
		assert.Equal(t, codes.Error, rec.spans.Ended()[0].Status().Code)
	})
}

func TestObserve(t *testing.T) {
	tel, rec := newTestTelemetry(t)

	value, err := Observe(context.Background(), tel, Call{Operation: "health_check", Stage: StageQuery},
		func(ctx context.Context) (int, error) {
			return 1, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 1, value)
	assert.Equal(t, int64(1), rec.sum(t, "card_vault_store_requests"))
}

func TestNewNoop(t *testing.T) {
	tel := NewNoop()
	require.NotNil(t, tel)

	called := false
	err := tel.Run(context.Background(), Call{Operation: "store"}, func(ctx context.Context) error {
		called = true
		assert.False(t, trace.SpanFromContext(ctx).IsRecording())
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestOperationContext(t *testing.T) {
	tel := NewNoop()

	assert.Equal(t, "unknown", OperationFromContext(context.Background()))

	err := tel.Run(context.Background(), Call{Operation: "get_decrypted_by_id"}, func(ctx context.Context) error {
		assert.Equal(t, "get_decrypted_by_id", OperationFromContext(ctx))

		return tel.Run(ctx, Call{Operation: "ignored", Stage: StageExecute}, func(ctx context.Context) error {
			assert.Equal(t, "get_decrypted_by_id", OperationFromContext(ctx))
			return nil
		})
	})
	require.NoError(t, err)
}
