package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/rahul/opsagent/internal/gateway"
	"github.com/rahul/opsagent/internal/observability"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP task API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}
			a, err := newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			srv := gateway.NewServer(a.orch, a.toolNames(), a.status, a.registry, a.log, gateway.ServerConfig{
				Address:         cfg.Server.Address,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
			})
			observability.PrintBanner(cmd.OutOrStdout(), "AI Operations Assistant API", "listening on "+cfg.Server.Address)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			a.log.Info("shutting down API server")
			if err := srv.Shutdown(context.Background()); err != nil {
				return err
			}
			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.address)")
	return cmd
}
