package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func TestMiddleware_CreatesSpan(t *testing.T) {
	recorder := installRecorder(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "GET /health" {
		t.Errorf("expected span name 'GET /health', got %q", spans[0].Name())
	}
	if rr.Header().Get("X-Trace-Id") == "" {
		t.Error("expected X-Trace-Id header")
	}

	found := false
	for _, kv := range spans[0].Attributes() {
		if kv.Key == "http.status_code" && kv.Value.AsInt64() == 200 {
			found = true
		}
	}
	if !found {
		t.Error("expected http.status_code=200 attribute")
	}
}

func TestMiddleware_ServerErrorMarksSpan(t *testing.T) {
	recorder := installRecorder(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status().Code)
	}
}

func TestStartSpan_EndSpan(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartSpan(context.Background(), "selection.round", attribute.Int("round", 2))
	EndSpan(span, errors.New("oracle unavailable"))

	_, ok := StartSpan(context.Background(), "ok")
	EndSpan(ok, nil)

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("expected error status on failed span")
	}
	if len(spans[0].Events()) == 0 {
		t.Errorf("expected recorded error event")
	}
	if spans[1].Status().Code == codes.Error {
		t.Errorf("expected successful span not to be marked as error")
	}
}
