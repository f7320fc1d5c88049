package llm

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rahul/opsagent/pkg/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// New resolves the configured provider and returns a backend for it.
// Returns config.ErrNoProvider when nothing is enabled.
func New(cfg *config.Config) (*LangChainBackend, error) {
	name, p, err := cfg.GetDefaultProvider()
	if err != nil {
		return nil, err
	}

	model, err := newModel(name, p, &http.Client{Timeout: cfg.LLM.Timeout})
	if err != nil {
		return nil, fmt.Errorf("initializing %s: %w", name, err)
	}

	return NewLangChainBackend(name, model,
		WithTemperature(cfg.LLM.Temperature),
		WithTimeout(cfg.LLM.Timeout),
	), nil
}

func newModel(name string, p config.ProviderConfig, client *http.Client) (llms.Model, error) {
	switch name {
	case "ollama":
		opts := []ollama.Option{
			ollama.WithModel(p.Model),
			ollama.WithFormat("json"),
			ollama.WithHTTPClient(client),
		}
		if p.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(p.BaseURL))
		}
		return ollama.New(opts...)
	case "openai", "openrouter", "groq", "gemini":
		if p.APIKey == "" {
			return nil, fmt.Errorf("missing API key (set %s)", config.ProviderEnv(name))
		}
		opts := []openai.Option{
			openai.WithToken(p.APIKey),
			openai.WithModel(p.Model),
			openai.WithHTTPClient(client),
		}
		if p.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(strings.TrimSuffix(p.BaseURL, "/")))
		}
		return openai.New(opts...)
	default:
		return nil, fmt.Errorf("provider %s not supported", name)
	}
}
