package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/rahul/opsagent/internal/agent"
	"github.com/rahul/opsagent/internal/governance"
	"github.com/rahul/opsagent/internal/llm"
	"github.com/rahul/opsagent/pkg/config"
	"github.com/spf13/cobra"
)

var errSetupIncomplete = errors.New("setup incomplete")

func newDoctorCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check LLM provider and API key configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			return runDoctor(cmd.OutOrStdout(), cfg)
		},
	}
}

func runDoctor(w io.Writer, cfg *config.Config) error {
	ok := true
	okMark := successStyle.Render("✓")
	offMark := dimStyle.Render("○")
	badMark := errorStyle.Render("✗")

	fmt.Fprintln(w, titleStyle.Render("LLM providers (need at least one):"))
	anyProvider := false
	for _, name := range config.ProviderOrder {
		p := cfg.Providers[name]
		env := config.ProviderEnv(name)
		if p.Enabled {
			anyProvider = true
			fmt.Fprintf(w, "  %s %s (%s): configured, model %s\n", okMark, name, env, p.Model)
		} else {
			fmt.Fprintf(w, "  %s %s (%s): not configured\n", offMark, name, env)
		}
	}
	if !anyProvider {
		ok = false
		fmt.Fprintf(w, "  %s no LLM provider configured\n", badMark)
	} else if backend, err := llm.New(cfg); err != nil {
		ok = false
		fmt.Fprintf(w, "  %s %v\n", badMark, err)
	} else {
		fmt.Fprintf(w, "  %s using %s\n", okMark, backend.Provider())
	}

	fmt.Fprintln(w, titleStyle.Render("\nRequired APIs:"))
	if cfg.Tools.Weather.APIKey != "" {
		fmt.Fprintf(w, "  %s OpenWeather API key (OPENWEATHER_API_KEY): configured\n", okMark)
	} else {
		ok = false
		fmt.Fprintf(w, "  %s OpenWeather API key (OPENWEATHER_API_KEY): missing\n", badMark)
	}

	fmt.Fprintln(w, titleStyle.Render("\nOptional:"))
	if cfg.Tools.GitHub.Token != "" {
		fmt.Fprintf(w, "  %s GitHub token (GITHUB_TOKEN): configured\n", okMark)
	} else {
		fmt.Fprintf(w, "  %s GitHub token (GITHUB_TOKEN): not configured, unauthenticated rate limits apply\n", offMark)
	}
	if _, enabled := cfg.GetTelegramConfig(); enabled {
		fmt.Fprintf(w, "  %s Telegram bot (TELEGRAM_BOT_TOKEN): configured\n", okMark)
	} else {
		fmt.Fprintf(w, "  %s Telegram bot (TELEGRAM_BOT_TOKEN): not configured\n", offMark)
	}

	fmt.Fprintln(w, titleStyle.Render("\nPolicy:"))
	if _, err := governance.FromConfig(cfg.Policy); err != nil {
		ok = false
		fmt.Fprintf(w, "  %s %v\n", badMark, err)
	} else if cfg.Policy.AllowPrivateHosts {
		fmt.Fprintf(w, "  %s web_page may fetch private network URLs\n", offMark)
	} else {
		fmt.Fprintf(w, "  %s web_page is limited to public hosts\n", okMark)
	}

	fmt.Fprintln(w, titleStyle.Render("\nPrompts:"))
	if _, err := agent.NewPromptManager(cfg.App.PromptsDir); err != nil {
		ok = false
		fmt.Fprintf(w, "  %s %v\n", badMark, err)
	} else {
		fmt.Fprintf(w, "  %s planner and verifier templates parse\n", okMark)
	}

	fmt.Fprintln(w)
	if !ok {
		fmt.Fprintln(w, errorStyle.Render("Setup incomplete. Fix the items marked ✗ above."))
		return errSetupIncomplete
	}
	fmt.Fprintln(w, successStyle.Render("All checks passed."))
	return nil
}
