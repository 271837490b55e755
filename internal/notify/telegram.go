package notify

import (
	"context"
	"fmt"
	"net/http"
)

// TelegramChannel delivers alerts through the Telegram Bot API.
type TelegramChannel struct {
	token  string
	chatID string
	client *http.Client
}

// NewTelegramChannel builds a channel posting to the given bot and chat.
func NewTelegramChannel(token, chatID string) *TelegramChannel {
	return &TelegramChannel{token: token, chatID: chatID, client: newHTTPClient()}
}

// Deliver posts the alert via the sendMessage endpoint with the title in
// bold Markdown.
func (t *TelegramChannel) Deliver(ctx context.Context, n Notification) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)
	payload := map[string]string{
		"chat_id":    t.chatID,
		"text":       fmt.Sprintf("*%s*\n%s", n.Title, n.Body),
		"parse_mode": "Markdown",
	}
	if err := postJSON(ctx, t.client, url, payload); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	return nil
}

func (t *TelegramChannel) Name() string { return "telegram" }
