package agent

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed prompts/*.md
var defaultPrompts embed.FS

const (
	promptPlannerSystem  = "planner_system.md"
	promptPlannerUser    = "planner_user.md"
	promptVerifierSystem = "verifier_system.md"
	promptVerifierUser   = "verifier_user.md"
)

var promptNames = []string{
	promptPlannerSystem,
	promptPlannerUser,
	promptVerifierSystem,
	promptVerifierUser,
}

// PromptManager renders the planner and verifier prompts. A file with the
// same name in Directory replaces the built-in template.
type PromptManager struct {
	Directory string
	templates map[string]*template.Template
}

func NewPromptManager(dir string) (*PromptManager, error) {
	pm := &PromptManager{
		Directory: dir,
		templates: make(map[string]*template.Template, len(promptNames)),
	}
	for _, name := range promptNames {
		text, err := pm.load(name)
		if err != nil {
			return nil, err
		}
		tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parsing prompt %s: %w", name, err)
		}
		pm.templates[name] = tmpl
	}
	return pm, nil
}

func (pm *PromptManager) load(name string) (string, error) {
	if pm.Directory != "" {
		data, err := os.ReadFile(filepath.Join(pm.Directory, name))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to read prompt %s: %w", name, err)
		}
	}
	data, err := defaultPrompts.ReadFile("prompts/" + name)
	if err != nil {
		return "", fmt.Errorf("failed to read built-in prompt %s: %w", name, err)
	}
	return string(data), nil
}

func (pm *PromptManager) render(name string, data any) (string, error) {
	tmpl, ok := pm.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %s", name)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering prompt %s: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

type toolLine struct {
	Name        string
	Description string
}

func (pm *PromptManager) PlannerSystem(tools []toolLine) (string, error) {
	return pm.render(promptPlannerSystem, struct{ Tools []toolLine }{tools})
}

func (pm *PromptManager) PlannerUser(task string) (string, error) {
	return pm.render(promptPlannerUser, struct{ Task string }{task})
}

func (pm *PromptManager) VerifierSystem() (string, error) {
	return pm.render(promptVerifierSystem, nil)
}

func (pm *PromptManager) VerifierUser(task, data, errs string) (string, error) {
	return pm.render(promptVerifierUser, struct{ Task, Data, Errors string }{task, data, errs})
}
