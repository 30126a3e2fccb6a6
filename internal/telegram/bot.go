package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MaxMessageLength is Telegram's limit for one message.
const MaxMessageLength = 4096

// Bot long-polls Telegram for commands and delivers replies and alerts.
type Bot struct {
	api     *tgbotapi.BotAPI
	handler *Handler
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewBot connects to Telegram with token.
func NewBot(token string, handler *Handler) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}
	logger := slog.Default().With("component", "telegram")
	logger.Info("Telegram bot connected", "username", api.Self.UserName)

	return &Bot{api: api, handler: handler, logger: logger}, nil
}

// Run processes updates until ctx is cancelled. Each command is handled in
// its own goroutine so a slow scan does not hold up other chats.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			b.logger.Info("Telegram bot stopped")
			return

		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return
			}
			msg := update.Message
			if msg == nil || !msg.IsCommand() {
				continue
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handle(ctx, msg)
			}()
		}
	}
}

func (b *Bot) handle(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	reply := b.handler.Handle(ctx, chatID, msg.Command(), msg.CommandArguments())
	if err := b.Send(ctx, chatID, reply); err != nil {
		b.logger.Error("Sending reply", "chat", chatID, "command", msg.Command(), "error", err)
	}
}

// Send delivers Markdown text to a chat, split into as many messages as
// the length limit requires.
func (b *Bot) Send(ctx context.Context, chatID int64, text string) error {
	for _, part := range SplitMessage(text, MaxMessageLength) {
		if err := ctx.Err(); err != nil {
			return err
		}
		m := tgbotapi.NewMessage(chatID, part)
		m.ParseMode = tgbotapi.ModeMarkdown
		m.DisableWebPagePreview = true
		if _, err := b.api.Send(m); err != nil {
			return fmt.Errorf("sending to chat %d: %w", chatID, err)
		}
	}
	return nil
}

// SplitMessage cuts text into chunks of at most limit runes, breaking on
// line boundaries where it can.
func SplitMessage(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if limit <= 0 || len([]rune(text)) <= limit {
		return []string{text}
	}

	var (
		parts []string
		cur   strings.Builder
		size  int
	)
	flush := func() {
		if size > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			size = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		r := []rune(line)
		if size+len(r) > limit {
			flush()
		}
		// a single line longer than the limit is hard-cut
		for len(r) > limit {
			parts = append(parts, string(r[:limit]))
			r = r[limit:]
		}
		cur.WriteString(string(r))
		size += len(r)
	}
	flush()
	return parts
}
