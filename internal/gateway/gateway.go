// Package gateway exposes the orchestrator to remote callers: an HTTP API
// and chat bots.
package gateway

import (
	"context"

	"github.com/rahul/opsagent/internal/agent"
)

// TaskProcessor is the orchestration entry point served by the gateways.
type TaskProcessor interface {
	ProcessTask(ctx context.Context, task string, opts ...agent.RunOption) (*agent.FinalResult, error)
}

// Messenger defines the interface for chat gateways.
type Messenger interface {
	// Start begins the message listening loop and blocks until ctx is done
	// or the update stream ends.
	Start(ctx context.Context) error
	// Send sends a message to a specific chat
	Send(chatID string, text string) error
	// Stop gracefully shuts down the gateway
	Stop() error
}
