package agent

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rahul/opsagent/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePlan(t *testing.T) {
	backend := &scriptedBackend{plan: `{
		"task_summary": "Weather in Paris",
		"steps": [
			{"step_number": 1, "action": "weather_current", "parameters": {"city": "Paris"}, "reasoning": "need weather"}
		]
	}`}
	reg := newTestRegistry(t, echoTool("github_search"), echoTool("weather_current"))
	p := NewPlanner(backend, reg, newTestPrompts(t), Telemetry{})

	plan, err := p.CreatePlan(context.Background(), "What's the weather in Paris?")
	require.NoError(t, err)

	assert.Equal(t, "Weather in Paris", plan.TaskSummary)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, Step{
		StepNumber: 1,
		Action:     "weather_current",
		Parameters: map[string]any{"city": "Paris"},
		Reasoning:  "need weather",
	}, plan.Steps[0])
	assert.Equal(t, 1, backend.planCalls)
	assert.Contains(t, backend.lastUser, "Task: What's the weather in Paris?")
}

func TestCreatePlan_Failures(t *testing.T) {
	cause := errors.New("connection refused")
	tests := []struct {
		name    string
		backend *scriptedBackend
		is      error
	}{
		{"backend error", &scriptedBackend{planErr: cause}, cause},
		{"not json", &scriptedBackend{planErr: llm.ErrNotJSON}, llm.ErrNotJSON},
		{"missing steps", &scriptedBackend{plan: `{"task_summary": "x"}`}, nil},
		{"null steps", &scriptedBackend{plan: `{"task_summary": "x", "steps": null}`}, nil},
		{"wrong shape", &scriptedBackend{plan: `{"steps": "weather"}`}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlanner(tt.backend, newTestRegistry(t), newTestPrompts(t), Telemetry{})
			plan, err := p.CreatePlan(context.Background(), "task")
			require.Error(t, err)
			assert.Nil(t, plan)

			var pge *PlanGenerationError
			assert.ErrorAs(t, err, &pge)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestDecodePlan_Normalizes(t *testing.T) {
	plan, err := decodePlan([]byte(`{
		"task_summary": "s",
		"steps": [
			{"action": " github_search ", "parameters": {"query": "go"}},
			{"step_number": "7", "action": "weather_current"},
			{"step_number": -2, "action": "weather_forecast", "parameters": null}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, plan.Steps, 3)

	assert.Equal(t, 1, plan.Steps[0].StepNumber)
	assert.Equal(t, "github_search", plan.Steps[0].Action)
	assert.Equal(t, 7, plan.Steps[1].StepNumber)
	assert.Equal(t, 3, plan.Steps[2].StepNumber)
	assert.NotNil(t, plan.Steps[1].Parameters)
	assert.NotNil(t, plan.Steps[2].Parameters)
}

func TestStepNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"integer", 3.0, 3},
		{"numeric string", " 12 ", 12},
		{"zero", 0.0, 0},
		{"fraction", 1.5, 0},
		{"huge", 1e300, 0},
		{"above int32", float64(math.MaxInt32) + 1, 0},
		{"max int32", float64(math.MaxInt32), math.MaxInt32},
		{"infinite", math.Inf(1), 0},
		{"nan", math.NaN(), 0},
		{"huge string", "99999999999999999999", 0},
		{"word", "first", 0},
		{"missing", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stepNumber(tt.in))
		})
	}
}

func TestDecodePlan_HugeStepNumberFallsBackToPosition(t *testing.T) {
	plan, err := decodePlan([]byte(`{"task_summary": "s", "steps": [
		{"step_number": 1e300, "action": "github_search"},
		{"step_number": 2, "action": "github_info"}
	]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Steps[0].StepNumber)
	assert.Equal(t, 2, plan.Steps[1].StepNumber)
}

func TestDecodePlan_EmptySteps(t *testing.T) {
	plan, err := decodePlan([]byte(`{"task_summary": "nothing to do", "steps": []}`))
	require.NoError(t, err)
	assert.Empty(t, plan.Steps)
}
