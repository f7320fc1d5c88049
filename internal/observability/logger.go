package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypePlan         EventType = "plan"
	EventTypeStep         EventType = "step"
	EventTypeVerification EventType = "verification"
	EventTypeStage        EventType = "stage"
	EventTypeLLM          EventType = "llm"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// EventLogger emits pipeline events through slog. LLM events are also
// appended to a JSONL transcript when a path is configured.
type EventLogger struct {
	log        *slog.Logger
	llmLogPath string
	maxSize    int64

	mu sync.Mutex
}

func NewEventLogger(log *slog.Logger, llmLogPath string) *EventLogger {
	if log == nil {
		log = Discard()
	}
	return &EventLogger{
		log:        log,
		llmLogPath: llmLogPath,
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

// Log emits evt. A nil EventLogger is a no-op.
func (l *EventLogger) Log(evt Event) {
	if l == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	level := slog.LevelInfo
	if evt.Type == EventTypeLLM {
		level = slog.LevelDebug
	}
	l.log.Log(context.Background(), level, "event",
		"type", string(evt.Type),
		"run_id", evt.RunID,
		"data", evt.Data,
	)

	if evt.Type == EventTypeLLM && l.llmLogPath != "" {
		data, err := json.Marshal(evt)
		if err != nil {
			l.log.Warn("failed to marshal llm event", "error", err)
			return
		}
		l.writeToFile(data)
	}
}

func (l *EventLogger) writeToFile(data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0o755); err != nil {
		l.log.Warn("failed to create log directory", "error", err)
		return
	}

	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		l.log.Warn("failed to open llm log file", "error", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		l.log.Warn("failed to write llm log file", "error", err)
	}
}

func (l *EventLogger) rotateLogs() {
	// keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

func (l *EventLogger) LogPlan(runID, summary string, steps int) {
	l.Log(Event{
		Type:  EventTypePlan,
		RunID: runID,
		Data: map[string]any{
			"task_summary": summary,
			"steps":        steps,
		},
	})
}

func (l *EventLogger) LogStep(runID string, step int, action, status string, elapsed time.Duration) {
	l.Log(Event{
		Type:  EventTypeStep,
		RunID: runID,
		Data: map[string]any{
			"step":        step,
			"action":      action,
			"status":      status,
			"duration_ms": elapsed.Milliseconds(),
		},
	})
}

func (l *EventLogger) LogVerification(runID string, complete bool, confidence string, fallback bool) {
	l.Log(Event{
		Type:  EventTypeVerification,
		RunID: runID,
		Data: map[string]any{
			"is_complete": complete,
			"confidence":  confidence,
			"fallback":    fallback,
		},
	})
}

func (l *EventLogger) LogStage(runID, stage, status string, err error) {
	data := map[string]any{
		"stage":  stage,
		"status": status,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	l.Log(Event{
		Type:  EventTypeStage,
		RunID: runID,
		Data:  data,
	})
}

func (l *EventLogger) LogLLM(provider, purpose, systemPrompt, userPrompt, response string, err error) {
	data := map[string]any{
		"provider": provider,
		"purpose":  purpose,
		"prompt": map[string]string{
			"system": systemPrompt,
			"user":   userPrompt,
		},
		"response": response,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	l.Log(Event{
		Type: EventTypeLLM,
		Data: data,
	})
}
