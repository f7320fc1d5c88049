// Package llm adapts chat-completion providers into a structured (JSON
// object) completion backend used by the planner and the verifier.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
)

var (
	ErrNotJSON       = errors.New("response is not a JSON object")
	ErrEmptyResponse = errors.New("empty response from model")
)

// Backend produces one JSON object for a system/user prompt pair.
type Backend interface {
	GenerateStructured(ctx context.Context, userPrompt, systemPrompt string) (json.RawMessage, error)
}

// LangChainBackend is a Backend over any langchaingo chat model.
type LangChainBackend struct {
	model       llms.Model
	provider    string
	temperature float64
	timeout     time.Duration
}

type Option func(*LangChainBackend)

func WithTemperature(t float64) Option {
	return func(b *LangChainBackend) { b.temperature = t }
}

// WithTimeout bounds each GenerateStructured call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(b *LangChainBackend) { b.timeout = d }
}

func NewLangChainBackend(provider string, model llms.Model, opts ...Option) *LangChainBackend {
	b := &LangChainBackend{
		model:       model,
		provider:    provider,
		temperature: 0.3,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Provider returns the provider name the backend was built for.
func (b *LangChainBackend) Provider() string {
	return b.provider
}

func (b *LangChainBackend) GenerateStructured(ctx context.Context, userPrompt, systemPrompt string) (json.RawMessage, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(userPrompt)},
		},
	}

	resp, err := b.model.GenerateContent(ctx, messages,
		llms.WithTemperature(b.temperature),
		llms.WithJSONMode(),
	)
	if err != nil {
		return nil, fmt.Errorf("%s completion: %w", b.provider, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	return ExtractJSON(resp.Choices[0].Content)
}

var jsonBlockRE = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractJSON returns the JSON object contained in text, stripping a
// surrounding markdown code fence if the model added one. A response that is
// already a valid object is returned unchanged, even when its string values
// contain fences.
func ExtractJSON(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyResponse
	}
	if isObject(trimmed) {
		return json.RawMessage(trimmed), nil
	}
	if m := jsonBlockRE.FindStringSubmatch(trimmed); len(m) > 1 {
		trimmed = strings.TrimSpace(m[1])
	}
	if !isObject(trimmed) {
		return nil, fmt.Errorf("%w: %.120q", ErrNotJSON, trimmed)
	}
	return json.RawMessage(trimmed), nil
}

func isObject(s string) bool {
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}
