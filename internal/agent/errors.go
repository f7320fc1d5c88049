package agent

import (
	"fmt"
)

// Stage identifies the pipeline stage that failed.
type Stage string

const (
	StagePlanning     Stage = "planning"
	StageExecution    Stage = "execution"
	StageVerification Stage = "verification"
)

// StageError is returned by ProcessTask when a stage cannot complete. It
// serializes to the same shape callers receive over the HTTP API.
type StageError struct {
	Status           TaskStatus       `json:"status"`
	Stage            Stage            `json:"stage"`
	Message          string           `json:"error"`
	Plan             *Plan            `json:"plan,omitempty"`
	ExecutionResults *ExecutionResult `json:"execution_results,omitempty"`

	Err error `json:"-"`
}

func newStageError(stage Stage, err error) *StageError {
	return &StageError{
		Status:  StatusError,
		Stage:   stage,
		Message: err.Error(),
		Err:     err,
	}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// PlanGenerationError wraps any failure to obtain a usable plan.
type PlanGenerationError struct {
	Err error
}

func (e *PlanGenerationError) Error() string {
	return "plan generation failed: " + e.Err.Error()
}

func (e *PlanGenerationError) Unwrap() error {
	return e.Err
}
