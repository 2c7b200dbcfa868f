package notifier

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MessageSender is satisfied by *tgbotapi.BotAPI.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink posts a result summary to an administrator chat or channel.
type TelegramSink struct {
	bot    MessageSender
	chatID int64
}

func NewTelegramSink(bot MessageSender, chatID int64) *TelegramSink {
	return &TelegramSink{bot: bot, chatID: chatID}
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Send(ctx context.Context, e Export) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.bot.Send(tgbotapi.NewMessage(s.chatID, summary(e))); err != nil {
		return fmt.Errorf("telegram send to %d: %w", s.chatID, err)
	}
	return nil
}

func summary(e Export) string {
	var b strings.Builder
	b.WriteString("📊 New test result\n\n")
	fmt.Fprintf(&b, "👤 %s\n", orDash(e.Name))
	fmt.Fprintf(&b, "📱 %s\n", orDash(e.Phone))
	if e.Username != "" {
		fmt.Fprintf(&b, "🔗 @%s\n", e.Username)
	}
	fmt.Fprintf(&b, "\n📝 %s\nScore: %d", e.CategoryName, e.Score)
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
