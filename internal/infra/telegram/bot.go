package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/model"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/infra/httpclient"
)

// Notifier posts review alerts to a moderator chat. It backs the
// moderation engine's flagged-content hook.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewNotifier(token string, chatID int64) (*Notifier, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("telegram review chat id is required")
	}

	api, err := tgbotapi.NewBotAPIWithClient(strings.TrimSpace(token), tgbotapi.APIEndpoint, httpclient.New(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return &Notifier{api: api, chatID: chatID}, nil
}

func (n *Notifier) NotifyFlagged(ctx context.Context, record model.ModerationRecord) error {
	if n == nil || n.api == nil {
		return fmt.Errorf("telegram notifier is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, formatAlert(record))
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send review alert: %w", err)
	}

	return nil
}

func formatAlert(record model.ModerationRecord) string {
	var b strings.Builder
	b.WriteString("Content flagged for review\n")
	fmt.Fprintf(&b, "content: %s (%s)\n", record.ContentID, record.ContentType)
	fmt.Fprintf(&b, "author: %s\n", record.AuthorID)
	fmt.Fprintf(&b, "reason: %s\n", record.Decision.Reason)
	fmt.Fprintf(&b, "policy: %s", record.Decision.AppliedPolicyVersion)
	return b.String()
}
