package gateway

import (
	"context"
	"sync"

	"github.com/rahul/opsagent/internal/agent"
)

type fakeProcessor struct {
	result *agent.FinalResult
	err    error

	mu       sync.Mutex
	tasks    []string
	observed bool
}

func (f *fakeProcessor) ProcessTask(_ context.Context, task string, opts ...agent.RunOption) (*agent.FinalResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
	f.observed = len(opts) > 0
	return f.result, f.err
}

func (f *fakeProcessor) seen() ([]string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tasks...), f.observed
}

func sampleResult() *agent.FinalResult {
	return &agent.FinalResult{
		Task:   "weather in Paris and London",
		Status: agent.StatusPartialSuccess,
		Verification: agent.Verification{
			IsComplete:   false,
			MissingItems: []string{"London weather"},
			Summary:      "Paris is 18°C; London lookup failed.",
			Confidence:   agent.ConfidenceMedium,
		},
		Data:   []agent.StepData{{Step: 1, Action: "weather_current", Data: map[string]any{"city": "Paris"}}},
		Errors: []agent.StepFailure{{Step: 2, Action: "weather_current", Error: "city not found"}},
	}
}
