package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func setupExporter(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })
	return exporter
}

func TestIDsFromContext(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
	assert.Empty(t, SpanIDFromContext(context.Background()))

	setupExporter(t)
	ctx, span := StartSpan(context.Background(), "test")
	defer span.End()

	assert.Len(t, TraceIDFromContext(ctx), 32)
	assert.Len(t, SpanIDFromContext(ctx), 16)
}

func TestSetSpanAttributes(t *testing.T) {
	exporter := setupExporter(t)

	ctx, span := StartSpan(context.Background(), "attrs")
	SetSpanAttributes(ctx, attribute.Int("text.length", 42))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	found := false
	for _, kv := range spans[0].Attributes {
		if kv.Key == "text.length" && kv.Value.AsInt64() == 42 {
			found = true
		}
	}
	assert.True(t, found, "text.length attribute not recorded")
}

func TestHTTPMiddlewareCreatesServerSpan(t *testing.T) {
	exporter := setupExporter(t)

	var traceID string
	handler := HTTPMiddleware("wordwise")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = TraceIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, traceID)
	require.NotEmpty(t, exporter.GetSpans())
}
