package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := logger
	t.Cleanup(func() { logger = prev })

	var buf bytes.Buffer
	logger = zerolog.New(&buf)
	return &buf
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{0x01},
		SpanID:  trace.SpanID{0x02},
	})
	if !sc.IsValid() {
		t.Fatal("Expected a valid span context")
	}
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestEventHelpersWriteThroughPackageLogger(t *testing.T) {
	buf := captureLogger(t)

	Info(context.Background()).Str("key", "value").Msg("info line")
	Error(context.Background()).Msg("error line")
	Warn(context.Background()).Msg("warn line")
	Debug(context.Background()).Msg("debug line")

	out := buf.String()
	for _, want := range []string{"info line", "error line", "warn line", "debug line"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got %s", want, out)
		}
	}
}

func TestWithContextEnrichesTraceIDs(t *testing.T) {
	buf := captureLogger(t)
	ctx := spanContext(t)

	Info(ctx).Msg("traced line")

	out := buf.String()
	if !strings.Contains(out, "trace_id") || !strings.Contains(out, "span_id") {
		t.Errorf("Expected trace and span ids in output, got %s", out)
	}
}

func TestWithContextWithoutSpanStaysBare(t *testing.T) {
	buf := captureLogger(t)

	Info(context.Background()).Msg("plain line")

	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("Expected no trace id without an active span, got %s", buf.String())
	}
}
