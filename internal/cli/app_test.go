package cli

import (
	"context"
	"io"
	"testing"

	"github.com/rahul/opsagent/internal/agent"
	"github.com/rahul/opsagent/internal/tools"
	"github.com/rahul/opsagent/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp_WiresEveryTool(t *testing.T) {
	cfg := config.Default()
	p := cfg.Providers["ollama"]
	p.Enabled = true
	cfg.Providers["ollama"] = p
	cfg.Tools.Disabled = []string{"weather_forecast"}

	a, err := newApp(cfg, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "ollama", a.provider)
	assert.NotContains(t, a.toolNames(), string(tools.ActionWeatherForecast))
	assert.Len(t, a.toolNames(), len(tools.Actions)-1)

	// A blank task fails in planning without reaching the backend.
	_, err = a.orch.ProcessTask(context.Background(), "   ")
	var se *agent.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, agent.StagePlanning, se.Stage)

	families, err := a.registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewApp_NoProvider(t *testing.T) {
	_, err := newApp(config.Default(), io.Discard)
	assert.ErrorIs(t, err, config.ErrNoProvider)
}

func TestNewApp_BadPolicy(t *testing.T) {
	cfg := config.Default()
	p := cfg.Providers["ollama"]
	p.Enabled = true
	cfg.Providers["ollama"] = p
	cfg.Policy.DeniedArguments = []config.ArgumentRule{{Pattern: "("}}

	_, err := newApp(cfg, io.Discard)
	assert.Error(t, err)
}
