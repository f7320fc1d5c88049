package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/rahul/opsagent/internal/gateway"
	"github.com/rahul/opsagent/internal/observability"
	"github.com/spf13/cobra"
)

var exampleTasks = []string{
	"Find the top 3 Python repositories on GitHub and get the current weather in San Francisco",
	"Search for machine learning repositories and tell me the weather in London",
	"Get information about the tensorflow/tensorflow repository",
}

var errInvalidChoice = errors.New("invalid task number")

// resolveInput maps a REPL line to a task. quit is true for quit, exit or q.
// A number selects one of the example tasks.
func resolveInput(line string) (task string, quit bool, err error) {
	line = strings.TrimSpace(line)
	switch strings.ToLower(line) {
	case "quit", "exit", "q":
		return "", true, nil
	}
	if n, convErr := strconv.Atoi(line); convErr == nil {
		if n < 1 || n > len(exampleTasks) {
			return "", false, errInvalidChoice
		}
		return exampleTasks[n-1], false, nil
	}
	return line, false, nil
}

func historyPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "opsagent", "repl_history")
}

func newReplCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive task loop with example tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			line := liner.NewLiner()
			defer line.Close()
			line.SetCtrlCAborts(true)

			hist := historyPath()
			if f, err := os.Open(hist); err == nil {
				line.ReadHistory(f)
				f.Close()
			}
			defer saveHistory(line, hist)

			return repl(cmd, a.orch, line)
		},
	}
}

type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

func repl(cmd *cobra.Command, p gateway.TaskProcessor, in prompter) error {
	out := cmd.OutOrStdout()
	observability.PrintBanner(out, "AI Operations Assistant", "Plan, execute and verify tasks")
	printExamples(out)

	for {
		input, err := in.Prompt("Enter task number or custom task: ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out, "\nGoodbye!")
				return nil
			}
			return err
		}
		task, quit, err := resolveInput(input)
		if quit {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render(err.Error()))
			continue
		}
		if task == "" {
			continue
		}
		in.AppendHistory(input)

		if err := runTask(cmd, p, task, false, true); err != nil {
			fmt.Fprintf(out, "\n%s %v\n\n", errorStyle.Render("Error:"), err)
		}
		if cmd.Context().Err() != nil {
			return nil
		}
		fmt.Fprintf(out, "\n%s\n\n", dimStyle.Render("Want to try another task? (or 'quit' to exit)"))
	}
}

func printExamples(w io.Writer) {
	fmt.Fprintln(w, titleStyle.Render("Example tasks:"))
	for i, t := range exampleTasks {
		fmt.Fprintf(w, "%d. %s\n", i+1, t)
	}
	fmt.Fprintln(w, dimStyle.Render("\nOr enter your own task (or 'quit' to exit)\n"))
}

func saveHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
