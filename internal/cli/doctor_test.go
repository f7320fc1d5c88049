package cli

import (
	"bytes"
	"testing"

	"github.com/rahul/opsagent/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctor_NothingConfigured(t *testing.T) {
	var buf bytes.Buffer
	err := runDoctor(&buf, config.Default())

	assert.ErrorIs(t, err, errSetupIncomplete)
	out := buf.String()
	assert.Contains(t, out, "no LLM provider configured")
	assert.Contains(t, out, "OPENWEATHER_API_KEY): missing")
	assert.Contains(t, out, "Setup incomplete")
}

func TestDoctor_Ready(t *testing.T) {
	cfg := config.Default()
	p := cfg.Providers["groq"]
	p.APIKey = "gsk-test"
	p.Enabled = true
	cfg.Providers["groq"] = p
	cfg.Tools.Weather.APIKey = "weather-key"

	var buf bytes.Buffer
	require.NoError(t, runDoctor(&buf, cfg))

	out := buf.String()
	assert.Contains(t, out, "groq (GROQ_API_KEY): configured")
	assert.Contains(t, out, "using groq")
	assert.Contains(t, out, "GITHUB_TOKEN): not configured")
	assert.Contains(t, out, "All checks passed.")
}

func TestDoctor_WeatherKeyRequired(t *testing.T) {
	cfg := config.Default()
	p := cfg.Providers["ollama"]
	p.Enabled = true
	cfg.Providers["ollama"] = p

	var buf bytes.Buffer
	assert.ErrorIs(t, runDoctor(&buf, cfg), errSetupIncomplete)
	assert.Contains(t, buf.String(), "using ollama")
}
