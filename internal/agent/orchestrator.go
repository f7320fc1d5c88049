package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rahul/opsagent/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrEmptyTask is the cause of the planning failure for a blank task.
var ErrEmptyTask = errors.New("task is empty")

// Observer receives stage progress for one ProcessTask call. The result
// passed to StageFinished is the stage output: *Plan, *ExecutionResult or
// *FinalResult.
type Observer interface {
	StageStarted(stage Stage)
	StageFinished(stage Stage, result any, err error)
}

type noopObserver struct{}

func (noopObserver) StageStarted(Stage) {}
func (noopObserver) StageFinished(Stage, any, error) {}

type runOptions struct {
	observer Observer
}

type RunOption func(*runOptions)

func WithObserver(o Observer) RunOption {
	return func(r *runOptions) {
		if o != nil {
			r.observer = o
		}
	}
}

var boardStages = map[Stage]observability.Stage{
	StagePlanning:     observability.StagePlanning,
	StageExecution:    observability.StageExecuting,
	StageVerification: observability.StageVerifying,
}

// Orchestrator runs planning, execution and verification in sequence for
// one task.
type Orchestrator struct {
	planner  *Planner
	executor *PlanExecutor
	verifier *Verifier
	status   *observability.StatusBoard
	tel      Telemetry
}

func NewOrchestrator(planner *Planner, executor *PlanExecutor, verifier *Verifier, status *observability.StatusBoard, tel Telemetry) *Orchestrator {
	return &Orchestrator{
		planner:  planner,
		executor: executor,
		verifier: verifier,
		status:   status,
		tel:      tel,
	}
}

// ProcessTask returns the verified result for task. Stage failures are
// returned as *StageError; no other error type is returned.
func (o *Orchestrator) ProcessTask(ctx context.Context, task string, opts ...RunOption) (*FinalResult, error) {
	ro := runOptions{observer: noopObserver{}}
	for _, opt := range opts {
		opt(&ro)
	}

	runID := uuid.NewString()
	ctx = withRunID(ctx, runID)
	ctx, span := o.tel.tracer().Start(ctx, "task", trace.WithAttributes(attribute.String("run_id", runID)))

	log := o.tel.logger().With("run_id", runID)
	log.Info("processing task", "task", task)
	start := time.Now()

	result, err := o.process(ctx, task, ro.observer)

	status := string(StatusError)
	if result != nil {
		status = string(result.Status)
	}
	o.tel.Metrics.ObserveTask(status)
	span.SetAttributes(attribute.String("task.status", status))
	observability.EndSpan(span, err)

	if err != nil {
		log.Error("task failed", "error", err, "duration", time.Since(start))
		return nil, err
	}
	log.Info("task finished", "status", status, "steps", len(result.Data)+len(result.Errors), "duration", time.Since(start))
	return result, nil
}

func (o *Orchestrator) process(ctx context.Context, task string, obs Observer) (*FinalResult, error) {
	plan, err := runStage(ctx, o, obs, StagePlanning, func(ctx context.Context) (*Plan, error) {
		if strings.TrimSpace(task) == "" {
			return nil, &PlanGenerationError{Err: ErrEmptyTask}
		}
		return o.planner.CreatePlan(ctx, task)
	})
	if err != nil {
		return nil, newStageError(StagePlanning, err)
	}

	exec, err := runStage(ctx, o, obs, StageExecution, func(ctx context.Context) (*ExecutionResult, error) {
		return o.executor.ExecutePlan(ctx, plan)
	})
	if err != nil {
		se := newStageError(StageExecution, err)
		se.Plan = plan
		return nil, se
	}

	final, err := runStage(ctx, o, obs, StageVerification, func(ctx context.Context) (*FinalResult, error) {
		return o.verifier.VerifyAndFormat(ctx, task, exec)
	})
	if err != nil {
		se := newStageError(StageVerification, err)
		se.ExecutionResults = exec
		return nil, se
	}
	return final, nil
}

// runStage wraps one stage with status tracking, a span, metrics and
// observer callbacks. A panic inside the stage is reported as its error.
func runStage[T any](ctx context.Context, o *Orchestrator, obs Observer, stage Stage, fn func(context.Context) (T, error)) (out T, err error) {
	leave := o.status.Enter(boardStages[stage])
	defer leave()

	obs.StageStarted(stage)
	ctx, span := o.tel.tracer().Start(ctx, "stage."+string(stage))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
		o.tel.Metrics.ObserveStage(string(stage), time.Since(start), err != nil)
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.tel.Events.LogStage(RunID(ctx), string(stage), status, err)
		observability.EndSpan(span, err)
		obs.StageFinished(stage, out, err)
	}()

	return fn(ctx)
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("internal error: %v", e.value)
}
