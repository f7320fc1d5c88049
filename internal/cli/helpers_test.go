package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/rahul/opsagent/internal/agent"
	"github.com/spf13/cobra"
)

type fakeProcessor struct {
	result *agent.FinalResult
	err    error

	mu    sync.Mutex
	tasks []string
}

func (f *fakeProcessor) ProcessTask(_ context.Context, task string, _ ...agent.RunOption) (*agent.FinalResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
	return f.result, f.err
}

// scriptedPrompter replays lines, then reports EOF.
type scriptedPrompter struct {
	lines   []string
	history []string
}

func (p *scriptedPrompter) Prompt(string) (string, error) {
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

func (p *scriptedPrompter) AppendHistory(item string) {
	p.history = append(p.history, item)
}

func testCommand(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetContext(context.Background())
	return cmd, &out
}

func sampleResult() *agent.FinalResult {
	return &agent.FinalResult{
		Task:   "Get information about the tensorflow/tensorflow repository",
		Status: agent.StatusSuccess,
		Verification: agent.Verification{
			IsComplete:   true,
			MissingItems: []string{},
			Summary:      "tensorflow/tensorflow has 180k stars.",
			Confidence:   agent.ConfidenceHigh,
		},
		Data: []agent.StepData{{Step: 1, Action: "github_info", Data: map[string]any{"full_name": "tensorflow/tensorflow"}}},
	}
}

var errBackendDown = errors.New("backend down")
