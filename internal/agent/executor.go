package agent

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rahul/opsagent/internal/governance"
	"github.com/rahul/opsagent/internal/observability"
	"github.com/rahul/opsagent/internal/tools"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// StepExecutor runs a single step against the registry. It never returns
// an error: every failure is recorded in the StepResult.
type StepExecutor struct {
	registry *tools.Registry
	policy   governance.PolicyEngine
	timeout  time.Duration
	tel      Telemetry
}

func NewStepExecutor(registry *tools.Registry, timeout time.Duration, tel Telemetry) *StepExecutor {
	return &StepExecutor{
		registry: registry,
		timeout:  timeout,
		tel:      tel,
	}
}

// SetPolicy installs a policy consulted before every capability call. A
// denied step fails without invoking the capability.
func (e *StepExecutor) SetPolicy(p governance.PolicyEngine) {
	e.policy = p
}

func (e *StepExecutor) ExecuteStep(ctx context.Context, step Step) StepResult {
	res := StepResult{
		StepNumber: step.StepNumber,
		Action:     step.Action,
		Reasoning:  step.Reasoning,
	}

	capability, ok := e.registry.Resolve(step.Action)
	if !ok {
		res.Status = StepError
		res.Error = "Unknown tool: " + step.Action
		e.record(ctx, res, 0)
		return res
	}
	if reason, denied := e.denied(ctx, step); denied {
		res.Status = StepError
		res.Error = "Step blocked by policy: " + reason
		e.record(ctx, res, 0)
		return res
	}

	ctx, span := e.tel.tracer().Start(ctx, "step."+step.Action)
	span.SetAttributes(attribute.Int("step.number", step.StepNumber))

	start := time.Now()
	data, err := e.invoke(ctx, capability, step.Parameters)
	elapsed := time.Since(start)

	if err != nil {
		res.Status = StepError
		res.Error = err.Error()
	} else {
		res.Status = StepSuccess
		res.Data = data
	}
	observability.EndSpan(span, err)
	e.record(ctx, res, elapsed)
	return res
}

func (e *StepExecutor) denied(ctx context.Context, step Step) (string, bool) {
	if e.policy == nil {
		return "", false
	}
	res, err := e.policy.Evaluate(ctx, governance.Request{Action: step.Action, Parameters: step.Parameters})
	if err != nil {
		return err.Error(), true
	}
	return res.Reason, !res.Allowed()
}

func (e *StepExecutor) invoke(parent context.Context, c tools.Capability, params map[string]any) (data any, err error) {
	ctx := parent
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, e.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			e.tel.logger().Error("capability panicked", "action", c.Name(), "panic", r, "stack", string(debug.Stack()))
			data, err = nil, fmt.Errorf("%s panicked: %v", c.Name(), r)
		}
	}()

	if params == nil {
		params = map[string]any{}
	}
	data, err = c.Invoke(ctx, params)
	switch {
	case err == nil:
	case parent.Err() != nil:
		err = fmt.Errorf("step cancelled: %w", err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		err = fmt.Errorf("step timed out after %s: %w", e.timeout, err)
	}
	return data, err
}

func (e *StepExecutor) record(ctx context.Context, res StepResult, elapsed time.Duration) {
	e.tel.Metrics.ObserveStep(res.Action, string(res.Status), elapsed)
	e.tel.Events.LogStep(RunID(ctx), res.StepNumber, res.Action, string(res.Status), elapsed)
	if res.Status == StepError {
		e.tel.logger().Warn("step failed",
			"run_id", RunID(ctx),
			"step", res.StepNumber,
			"action", res.Action,
			"error", res.Error,
		)
	}
}

// PlanExecutor runs every step of a plan, up to concurrency at a time.
type PlanExecutor struct {
	steps       *StepExecutor
	concurrency int
}

func NewPlanExecutor(steps *StepExecutor, concurrency int) *PlanExecutor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &PlanExecutor{steps: steps, concurrency: concurrency}
}

// ExecutePlan attempts all steps regardless of failures. Results keep plan
// order whatever order the steps complete in.
func (p *PlanExecutor) ExecutePlan(ctx context.Context, plan *Plan) (*ExecutionResult, error) {
	if plan == nil {
		return nil, errors.New("nil plan")
	}

	results := make([]StepResult, len(plan.Steps))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, step := range plan.Steps {
		g.Go(func() error {
			results[i] = p.steps.ExecuteStep(ctx, step)
			return nil
		})
	}
	_ = g.Wait()

	return &ExecutionResult{
		TaskSummary:   plan.TaskSummary,
		StepsExecuted: results,
		Errors:        []string{},
	}, nil
}
