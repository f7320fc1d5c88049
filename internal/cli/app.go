package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rahul/opsagent/internal/agent"
	"github.com/rahul/opsagent/internal/governance"
	"github.com/rahul/opsagent/internal/llm"
	"github.com/rahul/opsagent/internal/observability"
	"github.com/rahul/opsagent/internal/tools"
	"github.com/rahul/opsagent/pkg/config"
)

// app is the fully wired orchestrator with its supporting services.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	status   *observability.StatusBoard
	tools    *tools.Registry
	orch     *agent.Orchestrator
	provider string
}

func newApp(cfg *config.Config, logOut io.Writer) (*app, error) {
	log := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format, logOut)
	events := observability.NewEventLogger(log, cfg.Logging.LLMLogPath)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	backend, err := llm.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("llm backend: %w", err)
	}
	instrumented := llm.NewInstrumented(backend, backend.Provider(), log, events, metrics, nil)

	prompts, err := agent.NewPromptManager(cfg.App.PromptsDir)
	if err != nil {
		return nil, err
	}
	toolReg, err := tools.NewDefaultRegistry(cfg.Tools, cfg.Policy)
	if err != nil {
		return nil, err
	}

	policy, err := governance.FromConfig(cfg.Policy)
	if err != nil {
		return nil, err
	}

	tel := agent.Telemetry{Logger: log, Events: events, Metrics: metrics}
	steps := agent.NewStepExecutor(toolReg, cfg.Executor.StepTimeout, tel)
	steps.SetPolicy(policy)

	status := observability.NewStatusBoard()
	orch := agent.NewOrchestrator(
		agent.NewPlanner(instrumented, toolReg, prompts, tel),
		agent.NewPlanExecutor(steps, cfg.Executor.Concurrency),
		agent.NewVerifier(instrumented, prompts, tel),
		status,
		tel,
	)

	log.Debug("orchestrator ready", "provider", backend.Provider(), "tools", len(toolReg.Capabilities()))
	return &app{
		cfg:      cfg,
		log:      log,
		registry: registry,
		status:   status,
		tools:    toolReg,
		orch:     orch,
		provider: backend.Provider(),
	}, nil
}

func (a *app) toolNames() []string {
	caps := a.tools.Capabilities()
	names := make([]string, 0, len(caps))
	for _, c := range caps {
		names = append(names, string(c.Name()))
	}
	return names
}
