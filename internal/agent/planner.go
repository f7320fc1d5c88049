package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rahul/opsagent/internal/llm"
	"github.com/rahul/opsagent/internal/tools"
)

// Planner turns a natural-language task into a Plan using the structured
// completion backend.
type Planner struct {
	backend  llm.Backend
	registry *tools.Registry
	prompts  *PromptManager
	tel      Telemetry
}

func NewPlanner(backend llm.Backend, registry *tools.Registry, prompts *PromptManager, tel Telemetry) *Planner {
	return &Planner{
		backend:  backend,
		registry: registry,
		prompts:  prompts,
		tel:      tel,
	}
}

// CreatePlan asks the backend for a plan. Every failure is returned as a
// *PlanGenerationError.
func (p *Planner) CreatePlan(ctx context.Context, task string) (*Plan, error) {
	caps := p.registry.Capabilities()
	lines := make([]toolLine, 0, len(caps))
	for _, c := range caps {
		lines = append(lines, toolLine{Name: string(c.Name()), Description: c.Description()})
	}

	system, err := p.prompts.PlannerSystem(lines)
	if err != nil {
		return nil, &PlanGenerationError{Err: err}
	}
	user, err := p.prompts.PlannerUser(task)
	if err != nil {
		return nil, &PlanGenerationError{Err: err}
	}

	raw, err := p.backend.GenerateStructured(llm.WithPurpose(ctx, "plan"), user, system)
	if err != nil {
		return nil, &PlanGenerationError{Err: err}
	}

	plan, err := decodePlan(raw)
	if err != nil {
		return nil, &PlanGenerationError{Err: err}
	}

	p.tel.Events.LogPlan(RunID(ctx), plan.TaskSummary, len(plan.Steps))
	return plan, nil
}

type rawStep struct {
	StepNumber any            `json:"step_number"`
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
	Reasoning  string         `json:"reasoning"`
}

// decodePlan validates the backend output. A missing step number is
// replaced by the step's 1-based position.
func decodePlan(raw json.RawMessage) (*Plan, error) {
	var doc struct {
		TaskSummary string    `json:"task_summary"`
		Steps       []rawStep `json:"steps"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	if doc.Steps == nil {
		return nil, fmt.Errorf("decoding plan: missing steps")
	}

	plan := &Plan{
		TaskSummary: doc.TaskSummary,
		Steps:       make([]Step, 0, len(doc.Steps)),
	}
	for i, rs := range doc.Steps {
		n := stepNumber(rs.StepNumber)
		if n <= 0 {
			n = i + 1
		}
		params := rs.Parameters
		if params == nil {
			params = map[string]any{}
		}
		plan.Steps = append(plan.Steps, Step{
			StepNumber: n,
			Action:     strings.TrimSpace(rs.Action),
			Parameters: params,
			Reasoning:  rs.Reasoning,
		})
	}
	return plan, nil
}

// stepNumber reads a planner-supplied step number. Anything that is not a
// whole number in 1..MaxInt32 yields 0 so the caller falls back to position.
func stepNumber(v any) int {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 32)
		if err != nil {
			return 0
		}
		f = float64(n)
	default:
		return 0
	}
	if math.IsNaN(f) || f < 1 || f > math.MaxInt32 || f != math.Trunc(f) {
		return 0
	}
	return int(f)
}
