package agent

import (
	"context"
	"log/slog"

	"github.com/rahul/opsagent/internal/observability"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry bundles the optional observability sinks shared by the stages.
// The zero value discards everything.
type Telemetry struct {
	Logger         *slog.Logger
	Events         *observability.EventLogger
	Metrics        *observability.Metrics
	TracerProvider trace.TracerProvider
}

func (t Telemetry) logger() *slog.Logger {
	if t.Logger == nil {
		return observability.Discard()
	}
	return t.Logger
}

func (t Telemetry) tracer() trace.Tracer {
	return observability.Tracer(t.TracerProvider)
}

type runIDKey struct{}

func withRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run id of the task being processed with ctx, if any.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
