package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rahul/opsagent/internal/tools"
	"github.com/stretchr/testify/require"
)

// scriptedBackend answers planner and verifier prompts with fixed output.
type scriptedBackend struct {
	plan      string
	planErr   error
	verify    string
	verifyErr error

	mu          sync.Mutex
	planCalls   int
	verifyCalls int
	lastUser    string
}

func (b *scriptedBackend) GenerateStructured(_ context.Context, user, system string) (json.RawMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastUser = user
	if strings.Contains(system, "verification agent") {
		b.verifyCalls++
		if b.verifyErr != nil {
			return nil, b.verifyErr
		}
		return json.RawMessage(b.verify), nil
	}
	b.planCalls++
	if b.planErr != nil {
		return nil, b.planErr
	}
	return json.RawMessage(b.plan), nil
}

// fakeTool is a capability with scripted behaviour and call accounting.
type fakeTool struct {
	name  tools.Action
	desc  string
	fn    func(ctx context.Context, params map[string]any) (any, error)
	calls atomic.Int32
}

func (f *fakeTool) Name() tools.Action { return f.name }

func (f *fakeTool) Description() string {
	if f.desc != "" {
		return f.desc
	}
	return "fake " + string(f.name)
}

func (f *fakeTool) Parameters() map[string]any { return map[string]any{"type": "object"} }

func (f *fakeTool) Invoke(ctx context.Context, params map[string]any) (any, error) {
	f.calls.Add(1)
	if f.fn == nil {
		return map[string]any{"ok": true}, nil
	}
	return f.fn(ctx, params)
}

func echoTool(name tools.Action) *fakeTool {
	return &fakeTool{name: name, fn: func(_ context.Context, params map[string]any) (any, error) {
		return params, nil
	}}
}

func failingTool(name tools.Action, msg string) *fakeTool {
	return &fakeTool{name: name, fn: func(context.Context, map[string]any) (any, error) {
		return nil, errors.New(msg)
	}}
}

func sleepyTool(name tools.Action, d time.Duration) *fakeTool {
	return &fakeTool{name: name, fn: func(ctx context.Context, params map[string]any) (any, error) {
		select {
		case <-time.After(d):
			return params, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}}
}

func newTestRegistry(t *testing.T, caps ...tools.Capability) *tools.Registry {
	t.Helper()
	reg, err := tools.NewRegistry(caps...)
	require.NoError(t, err)
	return reg
}

func newTestPrompts(t *testing.T) *PromptManager {
	t.Helper()
	pm, err := NewPromptManager("")
	require.NoError(t, err)
	return pm
}

const highConfidence = `{"is_complete": true, "missing_items": [], "summary": "All good", "confidence": "high"}`
