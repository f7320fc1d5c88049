package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rahul/opsagent/internal/llm"
)

const (
	summaryWithErrors = "Verification completed with errors"
	summarySuccess    = "Task executed successfully"
)

// Verifier reconciles step results into the FinalResult. The backend only
// contributes the assessment; status and partitions are computed locally.
type Verifier struct {
	backend llm.Backend
	prompts *PromptManager
	tel     Telemetry
}

func NewVerifier(backend llm.Backend, prompts *PromptManager, tel Telemetry) *Verifier {
	return &Verifier{
		backend: backend,
		prompts: prompts,
		tel:     tel,
	}
}

// VerifyAndFormat never fails because of the backend: when the assessment
// cannot be obtained a low-confidence fallback is used.
func (v *Verifier) VerifyAndFormat(ctx context.Context, task string, exec *ExecutionResult) (*FinalResult, error) {
	if exec == nil {
		return nil, errors.New("nil execution result")
	}

	data := make([]StepData, 0, len(exec.StepsExecuted))
	var failures []StepFailure
	for _, r := range exec.StepsExecuted {
		if r.Status == StepSuccess {
			data = append(data, StepData{Step: r.StepNumber, Action: r.Action, Data: r.Data})
			continue
		}
		failures = append(failures, StepFailure{Step: r.StepNumber, Action: r.Action, Error: r.Error})
	}

	verification, err := v.assess(ctx, task, data, failures)
	fallback := err != nil
	if fallback {
		v.tel.logger().Warn("verification fell back to local assessment", "run_id", RunID(ctx), "error", err)
		v.tel.Metrics.ObserveVerificationFallback()
		verification = fallbackVerification(len(failures) > 0)
	}
	v.tel.Events.LogVerification(RunID(ctx), verification.IsComplete, string(verification.Confidence), fallback)

	status := StatusSuccess
	if len(failures) > 0 {
		status = StatusPartialSuccess
	}
	return &FinalResult{
		Task:         task,
		Status:       status,
		Verification: verification,
		Data:         data,
		Errors:       failures,
	}, nil
}

func (v *Verifier) assess(ctx context.Context, task string, data []StepData, failures []StepFailure) (Verification, error) {
	system, err := v.prompts.VerifierSystem()
	if err != nil {
		return Verification{}, err
	}
	errs := failures
	if errs == nil {
		errs = []StepFailure{}
	}
	user, err := v.prompts.VerifierUser(task, indentJSON(data), indentJSON(errs))
	if err != nil {
		return Verification{}, err
	}

	raw, err := v.backend.GenerateStructured(llm.WithPurpose(ctx, "verify"), user, system)
	if err != nil {
		return Verification{}, err
	}
	return decodeVerification(raw)
}

func decodeVerification(raw json.RawMessage) (Verification, error) {
	var doc struct {
		IsComplete   *bool    `json:"is_complete"`
		MissingItems []string `json:"missing_items"`
		Summary      string   `json:"summary"`
		Confidence   string   `json:"confidence"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Verification{}, fmt.Errorf("decoding verification: %w", err)
	}
	if doc.IsComplete == nil {
		return Verification{}, errors.New("decoding verification: missing is_complete")
	}
	confidence := Confidence(strings.ToLower(strings.TrimSpace(doc.Confidence)))
	if !confidence.Valid() {
		return Verification{}, fmt.Errorf("decoding verification: invalid confidence %q", doc.Confidence)
	}
	if doc.MissingItems == nil {
		doc.MissingItems = []string{}
	}
	return Verification{
		IsComplete:   *doc.IsComplete,
		MissingItems: doc.MissingItems,
		Summary:      doc.Summary,
		Confidence:   confidence,
	}, nil
}

func fallbackVerification(hasErrors bool) Verification {
	summary := summarySuccess
	if hasErrors {
		summary = summaryWithErrors
	}
	return Verification{
		IsComplete:   !hasErrors,
		MissingItems: []string{},
		Summary:      summary,
		Confidence:   ConfidenceLow,
	}
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}
