package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rahul/opsagent/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type fixedBackend struct {
	out json.RawMessage
	err error
}

func (f fixedBackend) GenerateStructured(context.Context, string, string) (json.RawMessage, error) {
	return f.out, f.err
}

func TestInstrumented(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	ok := NewInstrumented(fixedBackend{out: json.RawMessage(`{}`)}, "groq", nil, nil, metrics, tp)
	bad := NewInstrumented(fixedBackend{err: errors.New("rate limited")}, "groq", nil, nil, metrics, tp)

	out, err := ok.GenerateStructured(WithPurpose(context.Background(), "plan"), "u", "s")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))

	_, err = bad.GenerateStructured(WithPurpose(context.Background(), "verify"), "u", "s")
	require.EqualError(t, err, "rate limited")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LLMCalls.WithLabelValues("groq", "plan", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LLMCalls.WithLabelValues("groq", "verify", "false")))

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "llm.generate", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("llm.purpose", "plan"))
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
