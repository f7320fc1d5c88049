// Package cli implements the opsagent command line.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rahul/opsagent/pkg/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "opsagent",
		Short: "Plan, execute and verify natural-language operations tasks",
		Long: `opsagent turns a natural-language task into a plan of tool calls
(GitHub, weather, web), runs the plan and verifies the collected results
before answering.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default is ./"+config.DefaultPath+")")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(
		newRunCmd(opts),
		newReplCmd(opts),
		newServeCmd(opts),
		newTelegramCmd(opts),
		newToolsCmd(opts),
		newDoctorCmd(opts),
	)
	return root
}

// Execute runs the CLI until completion or SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
