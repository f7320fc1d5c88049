package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rahul/opsagent/internal/agent"
	"github.com/rahul/opsagent/internal/gateway"
)

var (
	brandPrimary = lipgloss.Color("#7C3AED")
	brandAccent  = lipgloss.Color("#10B981")
	brandWarning = lipgloss.Color("#F59E0B")
	brandError   = lipgloss.Color("#EF4444")
	textMuted    = lipgloss.Color("#6B7280")

	titleStyle   = lipgloss.NewStyle().Foreground(brandPrimary).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(brandAccent).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(brandWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(brandError).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(textMuted)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(brandPrimary).
			Padding(0, 1)
)

var stageLabels = map[agent.Stage]string{
	agent.StagePlanning:     "PLANNER: creating execution plan",
	agent.StageExecution:    "EXECUTOR: running plan steps",
	agent.StageVerification: "VERIFIER: validating results",
}

// stagePrinter reports stage progress to the terminal.
type stagePrinter struct {
	w io.Writer
}

func (p *stagePrinter) StageStarted(stage agent.Stage) {
	fmt.Fprintln(p.w, titleStyle.Render(stageLabels[stage]+"..."))
}

func (p *stagePrinter) StageFinished(stage agent.Stage, result any, err error) {
	if err != nil {
		fmt.Fprintf(p.w, "%s %s\n\n", errorStyle.Render("✗"), err)
		return
	}
	switch r := result.(type) {
	case *agent.Plan:
		fmt.Fprintf(p.w, "%s plan created with %d steps\n", successStyle.Render("✓"), len(r.Steps))
		for _, s := range r.Steps {
			fmt.Fprintf(p.w, "  %d. %s %s\n", s.StepNumber, s.Action, dimStyle.Render(s.Reasoning))
		}
		fmt.Fprintln(p.w)
	case *agent.ExecutionResult:
		fmt.Fprintf(p.w, "%s executed %d steps\n\n", successStyle.Render("✓"), len(r.StepsExecuted))
	default:
		fmt.Fprintf(p.w, "%s verification complete\n\n", successStyle.Render("✓"))
	}
}

// printResult writes a task outcome, as indented JSON when asJSON is set.
func printResult(w io.Writer, result *agent.FinalResult, err error, asJSON bool) error {
	var se *agent.StageError
	if err != nil && !errors.As(err, &se) {
		return err
	}
	if asJSON {
		data, mErr := gateway.RenderJSON(result, err)
		if mErr != nil {
			return mErr
		}
		fmt.Fprintln(w, string(data))
		return nil
	}
	if se != nil {
		fmt.Fprintf(w, "%s %s\n", errorStyle.Render("Task failed during "+string(se.Stage)+":"), se.Message)
		return nil
	}
	fmt.Fprintln(w, renderPretty(result))
	return nil
}

func renderPretty(r *agent.FinalResult) string {
	var sb strings.Builder
	v := r.Verification

	status := successStyle.Render(string(r.Status))
	if r.Status != agent.StatusSuccess {
		status = warningStyle.Render(string(r.Status))
	}
	fmt.Fprintf(&sb, "%s %s  %s\n", titleStyle.Render("Task:"), r.Task, dimStyle.Render("confidence "+string(v.Confidence)))
	fmt.Fprintf(&sb, "%s %s\n", titleStyle.Render("Status:"), status)
	if v.Summary != "" {
		fmt.Fprintf(&sb, "\n%s\n", v.Summary)
	}
	if len(v.MissingItems) > 0 {
		fmt.Fprintf(&sb, "\n%s\n", warningStyle.Render("Missing:"))
		for _, m := range v.MissingItems {
			fmt.Fprintf(&sb, "  - %s\n", m)
		}
	}
	for _, d := range r.Data {
		data, err := json.MarshalIndent(d.Data, "", "  ")
		if err != nil {
			data = []byte(fmt.Sprint(d.Data))
		}
		fmt.Fprintf(&sb, "\n%s\n%s\n", titleStyle.Render(fmt.Sprintf("Step %d: %s", d.Step, d.Action)), data)
	}
	for _, f := range r.Errors {
		fmt.Fprintf(&sb, "\n%s %s\n", errorStyle.Render(fmt.Sprintf("Step %d: %s failed:", f.Step, f.Action)), f.Error)
	}
	return boxStyle.Render(strings.TrimRight(sb.String(), "\n"))
}
