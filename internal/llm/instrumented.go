package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/rahul/opsagent/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type purposeKey struct{}

// WithPurpose labels completion calls made with ctx, e.g. "plan" or "verify".
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

func purposeFrom(ctx context.Context) string {
	if p, ok := ctx.Value(purposeKey{}).(string); ok && p != "" {
		return p
	}
	return "unknown"
}

// Instrumented wraps a Backend with logging, metrics and tracing.
type Instrumented struct {
	next     Backend
	provider string
	log      *slog.Logger
	events   *observability.EventLogger
	metrics  *observability.Metrics
	tracer   trace.Tracer
}

func NewInstrumented(next Backend, provider string, log *slog.Logger, events *observability.EventLogger, metrics *observability.Metrics, tp trace.TracerProvider) *Instrumented {
	if log == nil {
		log = observability.Discard()
	}
	return &Instrumented{
		next:     next,
		provider: provider,
		log:      log,
		events:   events,
		metrics:  metrics,
		tracer:   observability.Tracer(tp),
	}
}

func (i *Instrumented) GenerateStructured(ctx context.Context, userPrompt, systemPrompt string) (json.RawMessage, error) {
	purpose := purposeFrom(ctx)
	ctx, span := i.tracer.Start(ctx, "llm.generate", trace.WithAttributes(
		attribute.String("llm.provider", i.provider),
		attribute.String("llm.purpose", purpose),
	))

	start := time.Now()
	out, err := i.next.GenerateStructured(ctx, userPrompt, systemPrompt)
	elapsed := time.Since(start)

	i.metrics.ObserveLLM(i.provider, purpose, err == nil, elapsed)
	i.events.LogLLM(i.provider, purpose, systemPrompt, userPrompt, string(out), err)
	if err != nil {
		i.log.Warn("structured completion failed", "provider", i.provider, "purpose", purpose, "error", err)
	} else {
		i.log.Debug("structured completion", "provider", i.provider, "purpose", purpose, "duration", elapsed)
	}

	observability.EndSpan(span, err)
	return out, err
}
