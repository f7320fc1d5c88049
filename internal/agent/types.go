package agent

// Step is one capability invocation proposed by the planner.
type Step struct {
	StepNumber int            `json:"step_number"`
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
	Reasoning  string         `json:"reasoning"`
}

// Plan is the planner output. Steps are executed in slice order.
type Plan struct {
	TaskSummary string `json:"task_summary"`
	Steps       []Step `json:"steps"`
}

type StepStatus string

const (
	StepSuccess StepStatus = "success"
	StepError   StepStatus = "error"
)

// StepResult is the outcome of one step. Data is set on success, Error on
// failure.
type StepResult struct {
	StepNumber int        `json:"step_number"`
	Action     string     `json:"action"`
	Reasoning  string     `json:"reasoning"`
	Status     StepStatus `json:"status"`
	Data       any        `json:"data"`
	Error      string     `json:"error,omitempty"`
}

// ExecutionResult holds one StepResult per plan step, in plan order.
type ExecutionResult struct {
	TaskSummary   string       `json:"task_summary"`
	StepsExecuted []StepResult `json:"steps_executed"`
	Errors        []string     `json:"errors"`
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

type Verification struct {
	IsComplete   bool       `json:"is_complete"`
	MissingItems []string   `json:"missing_items"`
	Summary      string     `json:"summary"`
	Confidence   Confidence `json:"confidence"`
}

type TaskStatus string

const (
	StatusSuccess        TaskStatus = "success"
	StatusPartialSuccess TaskStatus = "partial_success"
	StatusError          TaskStatus = "error"
)

type StepData struct {
	Step   int    `json:"step"`
	Action string `json:"action"`
	Data   any    `json:"data"`
}

type StepFailure struct {
	Step   int    `json:"step"`
	Action string `json:"action"`
	Error  string `json:"error"`
}

// FinalResult is the user-facing answer for a task. Errors is nil (JSON
// null) when every step succeeded.
type FinalResult struct {
	Task         string        `json:"task"`
	Status       TaskStatus    `json:"status"`
	Verification Verification  `json:"verification"`
	Data         []StepData    `json:"data"`
	Errors       []StepFailure `json:"errors"`
}
