package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/rahul/opsagent/internal/agent"
	"github.com/rahul/opsagent/internal/gateway"
	"github.com/spf13/cobra"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var asJSON, verbose bool
	cmd := &cobra.Command{
		Use:   "run <task...>",
		Short: "Run a single task and print the result",
		Example: `  opsagent run "Get information about the tensorflow/tensorflow repository"
  opsagent run --json weather in London`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runTask(cmd, a.orch, strings.Join(args, " "), asJSON, verbose)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print stage progress")
	return cmd
}

func runTask(cmd *cobra.Command, p gateway.TaskProcessor, task string, asJSON, verbose bool) error {
	out := cmd.OutOrStdout()
	var opts []agent.RunOption
	if verbose {
		printHeader(out, task)
		opts = append(opts, agent.WithObserver(&stagePrinter{w: out}))
	}
	result, err := p.ProcessTask(cmd.Context(), task, opts...)
	return printResult(out, result, err, asJSON)
}

func printHeader(w io.Writer, task string) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\n%s %s\n%s\n\n", rule, titleStyle.Render("TASK:"), task, rule)
}
