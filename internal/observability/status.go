package observability

import (
	"sync"
	"time"
)

// Stage names a pipeline stage for status reporting.
type Stage string

const (
	StagePlanning  Stage = "planning"
	StageExecuting Stage = "executing"
	StageVerifying Stage = "verifying"
)

// StatusBoard counts tasks currently inside each stage.
type StatusBoard struct {
	mu           sync.RWMutex
	inflight     map[Stage]int
	lastActivity time.Time
}

func NewStatusBoard() *StatusBoard {
	return &StatusBoard{
		inflight:     make(map[Stage]int),
		lastActivity: time.Now(),
	}
}

// Enter records a task entering stage and returns the matching leave func.
// A nil board returns a no-op.
func (b *StatusBoard) Enter(stage Stage) func() {
	if b == nil {
		return func() {}
	}
	b.mu.Lock()
	b.inflight[stage]++
	b.lastActivity = time.Now()
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.inflight[stage]--
			b.lastActivity = time.Now()
			b.mu.Unlock()
		})
	}
}

// Snapshot returns a copy of the in-flight counts and the last activity time.
func (b *StatusBoard) Snapshot() (map[Stage]int, time.Time) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := map[Stage]int{
		StagePlanning:  b.inflight[StagePlanning],
		StageExecuting: b.inflight[StageExecuting],
		StageVerifying: b.inflight[StageVerifying],
	}
	return out, b.lastActivity
}
