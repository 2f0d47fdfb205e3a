package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"reda-store/internal/config"
)

func TestWithContextAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Setup(config.LoggerConfig{Level: "debug", Format: "json"}, "test-svc")

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	WithFields(ctx, map[string]interface{}{"bill_no": "REDA-20261019-00001"}).Info("sale committed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sale committed", entry["message"])
	assert.Equal(t, "info", entry["severity"])
	assert.Equal(t, "test-svc", entry["service.name"])
	assert.Equal(t, traceID.String(), entry["trace_id"])
	assert.Equal(t, "REDA-20261019-00001", entry["bill_no"])
}

func TestWithContextWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Setup(config.LoggerConfig{Level: "info"}, "")

	Infof(context.Background(), "hello %s", "store")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello store", entry["message"])
	assert.NotContains(t, entry, "trace_id")
}
