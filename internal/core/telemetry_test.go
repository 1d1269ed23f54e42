// AngelaMos | 2026
// telemetry_test.go

package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/carterperez-dev/estate-market/internal/config"
)

func TestSampleRatio(t *testing.T) {
	assert.Equal(t, 0.25, SampleRatio(0.25))
	assert.Equal(t, 1.0, SampleRatio(1))
	assert.Equal(t, defaultSampleRatio, SampleRatio(0))
	assert.Equal(t, defaultSampleRatio, SampleRatio(-1))
	assert.Equal(t, defaultSampleRatio, SampleRatio(3))
}

func TestNewTelemetryRequiresEndpoint(t *testing.T) {
	tel, err := NewTelemetry(context.Background(), config.OtelConfig{Enabled: true}, config.AppConfig{})
	assert.Error(t, err)
	assert.Nil(t, tel)

	// a nil Telemetry shuts down cleanly
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestStartSpanRecordsErrors(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := StartSpan(context.Background(), "user.approve",
		attribute.String("user.id", "u-1"),
	)
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	SetSpanError(ctx, errors.New("store unavailable"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "user.approve", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "store unavailable", spans[0].Status.Description)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
}

func TestTraceIDFromContextWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestRateLimitedError(t *testing.T) {
	err := RateLimitedError(30)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 429, err.StatusCode)
	assert.Equal(t, CodeRateLimited, err.Code)
	assert.Contains(t, err.Message, "30 seconds")
}
