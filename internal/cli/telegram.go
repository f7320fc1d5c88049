package cli

import (
	"errors"

	"github.com/rahul/opsagent/internal/gateway"
	"github.com/spf13/cobra"
)

func newTelegramCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "telegram",
		Short: "Answer tasks sent to the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			tg, ok := cfg.GetTelegramConfig()
			if !ok {
				return errors.New("telegram gateway is not enabled or token is missing (set TELEGRAM_BOT_TOKEN)")
			}
			a, err := newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var bot gateway.Messenger
			bot, err = gateway.NewTelegramGateway(tg.Token, a.orch, a.log)
			if err != nil {
				return err
			}
			defer bot.Stop()

			a.log.Info("telegram gateway started")
			return bot.Start(cmd.Context())
		},
	}
}
