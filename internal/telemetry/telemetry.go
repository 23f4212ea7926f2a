// Package telemetry instruments every backing-store interaction of the vault with a request
// counter, an error counter, a duration histogram in milliseconds and a trace span.
//
// A single Telemetry value is created at process start and shared by all operations. It
// never records card data: only operation and stage names, procedure identifiers, attempt
// numbers and the resolved server address.
package telemetry

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// InstrumentationName is the meter and tracer scope used by the vault.
const InstrumentationName = "github.com/dario/cardvault"

// Stage names a step of a store interaction.
type Stage string

const (
	StageOperation  Stage = "operation"
	StageExecute    Stage = "execute"
	StageCursorOpen Stage = "cursor_open"
	StageCursorRead Stage = "cursor_read"
	StageQuery      Stage = "query"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// DurationBuckets are the histogram boundaries in milliseconds.
var DurationBuckets = []float64{5, 10, 20, 50, 100, 200, 300, 500, 750, 1000, 1500, 2000, 3000, 5000}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$#.]*$`)

// Call describes one instrumented unit of work.
type Call struct {
	// Operation is the public vault operation, e.g. "store" or "get_by_id".
	Operation string
	// Stage is the step within the operation.
	Stage Stage
	// Procedure is tagged only when it is a plain identifier.
	Procedure string
	// Attempt is the 1-based probing attempt; zero omits the tag.
	Attempt int
	// Target is the resolved server of the connection.
	Target Target
}

// Telemetry holds the process-wide instruments.
type Telemetry struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
}

// New creates the instruments on meterProvider and the tracer on tracerProvider. The
// namespace prefixes every metric name (e.g. "card_vault").
func New(meterProvider metric.MeterProvider, tracerProvider trace.TracerProvider, namespace string) (*Telemetry, error) {
	meter := meterProvider.Meter(InstrumentationName)

	requests, err := meter.Int64Counter(
		fmt.Sprintf("%s_store_requests", namespace),
		metric.WithDescription("Number of backing-store interactions"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	errorCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_store_errors", namespace),
		metric.WithDescription("Number of failed backing-store interactions"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create error counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		fmt.Sprintf("%s_store_duration", namespace),
		metric.WithDescription("Duration of backing-store interactions"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(DurationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &Telemetry{
		tracer:   tracerProvider.Tracer(InstrumentationName),
		requests: requests,
		errors:   errorCounter,
		duration: duration,
	}, nil
}

// NewNoop returns a Telemetry that records neither metrics nor spans.
func NewNoop() *Telemetry {
	t, _ := New(metricnoop.NewMeterProvider(), tracenoop.NewTracerProvider(), "noop")
	return t
}

type operationKey struct{}

// ContextWithOperation records the public operation a store call belongs to.
func ContextWithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationKey{}, operation)
}

// OperationFromContext returns the operation recorded by ContextWithOperation or "unknown".
func OperationFromContext(ctx context.Context) string {
	if operation, ok := ctx.Value(operationKey{}).(string); ok && operation != "" {
		return operation
	}
	return "unknown"
}

// Run executes fn inside a span for call. Operation-stage calls also record call.Operation
// on the context handed to fn, so nested store calls inherit it. The request counter is incremented before fn
// runs, the error counter exactly when fn fails, and the duration is recorded on every
// exit path.
func (t *Telemetry) Run(ctx context.Context, call Call, fn func(ctx context.Context) error) (err error) {
	metricAttrs := call.metricAttributes()
	ctx, span := t.tracer.Start(ctx, call.spanName(),
		trace.WithSpanKind(call.spanKind()),
		trace.WithAttributes(call.spanAttributes()...),
	)
	if call.Stage == "" || call.Stage == StageOperation {
		ctx = ContextWithOperation(ctx, call.Operation)
	}
	start := time.Now()
	t.requests.Add(ctx, 1, metric.WithAttributes(metricAttrs...))

	defer func() {
		recovered := recover()
		if recovered != nil {
			err = fmt.Errorf("panic in %s: %v", call.spanName(), recovered)
		}

		outcome := outcomeOK
		if err != nil {
			outcome = outcomeError
			t.errors.Add(ctx, 1, metric.WithAttributes(metricAttrs...))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.SetAttributes(attribute.String("outcome", outcome))

		elapsed := float64(time.Since(start)) / float64(time.Millisecond)
		t.duration.Record(ctx, elapsed,
			metric.WithAttributes(append(metricAttrs, attribute.String("outcome", outcome))...),
		)
		span.End()

		if recovered != nil {
			panic(recovered)
		}
	}()

	return fn(ctx)
}

// Observe is Run for functions that produce a value.
func Observe[T any](ctx context.Context, t *Telemetry, call Call, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := t.Run(ctx, call, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}

func (c Call) spanName() string {
	if c.Stage == "" || c.Stage == StageOperation {
		return "card." + c.Operation
	}
	return "card." + c.Operation + "." + string(c.Stage)
}

func (c Call) spanKind() trace.SpanKind {
	if c.Stage == "" || c.Stage == StageOperation {
		return trace.SpanKindInternal
	}
	return trace.SpanKindClient
}

func (c Call) metricAttributes() []attribute.KeyValue {
	stage := c.Stage
	if stage == "" {
		stage = StageOperation
	}
	attrs := []attribute.KeyValue{
		attribute.String("operation", c.Operation),
		attribute.String("db.stage", string(stage)),
	}
	if c.Attempt > 0 {
		attrs = append(attrs, attribute.Int("attempt", c.Attempt))
	}
	return attrs
}

func (c Call) spanAttributes() []attribute.KeyValue {
	attrs := c.metricAttributes()
	if c.Procedure != "" && identifierPattern.MatchString(c.Procedure) {
		attrs = append(attrs, attribute.String("db.stored_procedure.name", c.Procedure))
	}
	if c.Target.Address != "" {
		attrs = append(attrs, attribute.String("server.address", c.Target.Address))
	}
	if c.Target.Port > 0 {
		attrs = append(attrs, attribute.Int("server.port", c.Target.Port))
	}
	return attrs
}
