package gateway

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rahul/opsagent/internal/agent"
	"github.com/rahul/opsagent/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBot struct {
	updates chan tgbotapi.Update

	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	stopped bool
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.updates
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) StopReceivingUpdates() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
}

func (b *fakeBot) messages() []tgbotapi.MessageConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), b.sent...)
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{UserName: "alice"},
	}}
}

func TestTelegramGateway_RepliesWithResult(t *testing.T) {
	bot := &fakeBot{updates: make(chan tgbotapi.Update, 3)}
	proc := &fakeProcessor{result: sampleResult()}
	tg := newTelegramGateway(bot, proc, observability.Discard())

	bot.updates <- tgbotapi.Update{} // no message
	bot.updates <- textUpdate(42, "weather in Paris and London")
	close(bot.updates)

	require.NoError(t, tg.Start(context.Background()))

	tasks, _ := proc.seen()
	assert.Equal(t, []string{"weather in Paris and London"}, tasks)

	sent := bot.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(42), sent[0].ChatID)
	assert.Contains(t, sent[0].Text, "Partially done (medium confidence)")
	assert.Contains(t, sent[0].Text, "Step 2 (weather_current) failed: city not found")
}

func TestTelegramGateway_StageError(t *testing.T) {
	bot := &fakeBot{updates: make(chan tgbotapi.Update, 1)}
	se := &agent.StageError{Status: agent.StatusError, Stage: agent.StagePlanning, Message: "plan generation failed: timeout"}
	tg := newTelegramGateway(bot, &fakeProcessor{err: se}, observability.Discard())

	tg.handleUpdate(context.Background(), textUpdate(7, "anything"))

	sent := bot.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Task failed during planning: plan generation failed: timeout", sent[0].Text)
}

func TestTelegramGateway_StopsOnContext(t *testing.T) {
	bot := &fakeBot{updates: make(chan tgbotapi.Update)}
	tg := newTelegramGateway(bot, &fakeProcessor{}, observability.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tg.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("gateway did not stop")
	}
	require.NoError(t, tg.Stop())
	assert.True(t, bot.stopped)
}

func TestTelegramGateway_Send(t *testing.T) {
	bot := &fakeBot{}
	tg := newTelegramGateway(bot, &fakeProcessor{}, observability.Discard())

	require.NoError(t, tg.Send("123", strings.Repeat("a", 5000)))
	assert.Error(t, tg.Send("abc", "hi"))

	sent := bot.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(123), sent[0].ChatID)
	assert.Equal(t, maxTelegramMessage, utf16Len(sent[0].Text))
}

func TestClip_CountsUTF16Units(t *testing.T) {
	emoji := strings.Repeat("🚀", 3000) // 6000 UTF-16 units, 3000 runes
	out := clip(emoji, maxTelegramMessage)

	assert.LessOrEqual(t, utf16Len(out), maxTelegramMessage)
	assert.True(t, strings.HasSuffix(out, "…"))
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, strings.Repeat("🚀", 2047)+"…", out)

	assert.Equal(t, "short", clip("short", maxTelegramMessage))
	assert.Equal(t, strings.Repeat("🚀", 2048), clip(strings.Repeat("🚀", 2048), maxTelegramMessage))
}
