package tracing

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracer_Disabled(t *testing.T) {
	cfg := DefaultConfig("storefront-test")

	shutdown, err := InitTracer(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracer_Enabled(t *testing.T) {
	cfg := Config{
		ServiceName:    "storefront-test",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		OTLPEndpoint:   "127.0.0.1:0",
		SampleRate:     1.0,
		Enabled:        true,
	}

	shutdown, err := InitTracer(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok, "expected an SDK tracer provider")

	if err := shutdown(context.Background()); err != nil {
		t.Logf("shutdown returned (unreachable endpoint): %v", err)
	}
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1.0).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.5).Description(), "TraceIDRatioBased")
}

func TestStartClientSpan_InjectsTraceparent(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, err := InitTracer(context.Background(), DefaultConfig("storefront-test"))
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, "http://backend.local/api/products", http.NoBody)
	require.NoError(t, err)

	_, span := StartClientSpan(context.Background(), req, "GET /api/products")
	EndSpan(span, http.StatusServiceUnavailable, nil)

	assert.NotEmpty(t, req.Header.Get("traceparent"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "GET /api/products", ended[0].Name())
	assert.Equal(t, "Error", ended[0].Status().Code.String())
}

func TestEndSpan_RecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	EndSpan(span, 0, errors.New("connection refused"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "connection refused", ended[0].Status().Description)
	assert.Len(t, ended[0].Events(), 1)
}
