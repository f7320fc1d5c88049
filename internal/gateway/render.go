package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rahul/opsagent/internal/agent"
)

// RenderText formats a task outcome as plain text for chat replies.
func RenderText(result *agent.FinalResult, err error) string {
	var sb strings.Builder
	if err != nil {
		var se *agent.StageError
		if errors.As(err, &se) {
			fmt.Fprintf(&sb, "Task failed during %s: %s", se.Stage, se.Message)
		} else {
			fmt.Fprintf(&sb, "Task failed: %v", err)
		}
		return sb.String()
	}

	v := result.Verification
	fmt.Fprintf(&sb, "%s (%s confidence)\n", statusLabel(result.Status), v.Confidence)
	if v.Summary != "" {
		fmt.Fprintf(&sb, "\n%s\n", v.Summary)
	}
	if len(v.MissingItems) > 0 {
		fmt.Fprintf(&sb, "\nMissing: %s\n", strings.Join(v.MissingItems, ", "))
	}
	for _, f := range result.Errors {
		fmt.Fprintf(&sb, "\nStep %d (%s) failed: %s", f.Step, f.Action, f.Error)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func statusLabel(s agent.TaskStatus) string {
	switch s {
	case agent.StatusSuccess:
		return "Done"
	case agent.StatusPartialSuccess:
		return "Partially done"
	default:
		return string(s)
	}
}

// resultPayload returns the value reported to API callers for an outcome:
// the FinalResult, or the StageError describing the failed stage.
func resultPayload(result *agent.FinalResult, err error) any {
	if err == nil {
		return result
	}
	var se *agent.StageError
	if errors.As(err, &se) {
		return se
	}
	return map[string]any{"status": agent.StatusError, "error": err.Error()}
}

// RenderJSON returns the indented JSON payload for an outcome.
func RenderJSON(result *agent.FinalResult, err error) ([]byte, error) {
	return json.MarshalIndent(resultPayload(result, err), "", "  ")
}
