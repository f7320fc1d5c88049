package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rahul/opsagent/internal/observability"
)

// Telegram rejects longer messages.
const maxTelegramMessage = 4096

type telegramBot interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	StopReceivingUpdates()
}

// TelegramGateway treats every incoming text message as a task and replies
// with the rendered result.
type TelegramGateway struct {
	bot       telegramBot
	processor TaskProcessor
	log       *slog.Logger
}

func NewTelegramGateway(token string, processor TaskProcessor, log *slog.Logger) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	if log == nil {
		log = observability.Discard()
	}
	log.Info("telegram bot authorized", "account", bot.Self.UserName)
	return newTelegramGateway(bot, processor, log), nil
}

func newTelegramGateway(bot telegramBot, processor TaskProcessor, log *slog.Logger) *TelegramGateway {
	return &TelegramGateway{bot: bot, processor: processor, log: log}
}

func (tg *TelegramGateway) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := tg.bot.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			tg.handleUpdate(ctx, update)
		}
	}
}

func (tg *TelegramGateway) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" || msg.IsCommand() && msg.Command() == "start" {
		tg.reply(msg.Chat.ID, "Send me a task, e.g. \"What's the weather in Paris?\"")
		return
	}

	var from string
	if msg.From != nil {
		from = msg.From.UserName
	}
	tg.log.Info("telegram task", "from", from, "chat_id", msg.Chat.ID)

	result, err := tg.processor.ProcessTask(ctx, text)
	tg.reply(msg.Chat.ID, RenderText(result, err))
}

func (tg *TelegramGateway) reply(chatID int64, text string) {
	if _, err := tg.bot.Send(tgbotapi.NewMessage(chatID, clip(text, maxTelegramMessage))); err != nil {
		tg.log.Warn("telegram send failed", "chat_id", chatID, "error", err)
	}
}

func (tg *TelegramGateway) Send(chatID string, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid chat ID: %s", chatID)
	}
	_, err = tg.bot.Send(tgbotapi.NewMessage(id, clip(text, maxTelegramMessage)))
	return err
}

func (tg *TelegramGateway) Stop() error {
	tg.bot.StopReceivingUpdates()
	return nil
}

// clip shortens s to at most n UTF-16 code units, the unit Telegram uses
// for its message length limit.
func clip(s string, n int) string {
	if utf16Len(s) <= n {
		return s
	}
	units := 0
	for i, r := range s {
		w := runeUnits(r)
		if units+w > n-1 {
			return s[:i] + "…"
		}
		units += w
	}
	return s
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

func runeUnits(r rune) int {
	if w := utf16.RuneLen(r); w > 0 {
		return w
	}
	return 1
}
