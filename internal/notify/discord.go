package notify

import (
	"context"
	"fmt"
	"net/http"
)

// DiscordChannel delivers alerts through a Discord webhook.
type DiscordChannel struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordChannel builds a channel posting to the given webhook URL.
func NewDiscordChannel(webhookURL string) *DiscordChannel {
	return &DiscordChannel{webhookURL: webhookURL, client: newHTTPClient()}
}

// Deliver posts the alert as a webhook message with the title in bold.
// Discord answers 204 No Content on success.
func (d *DiscordChannel) Deliver(ctx context.Context, n Notification) error {
	payload := map[string]string{
		"content": fmt.Sprintf("**%s**\n%s", n.Title, n.Body),
	}
	if err := postJSON(ctx, d.client, d.webhookURL, payload); err != nil {
		return fmt.Errorf("discord: %w", err)
	}
	return nil
}

func (d *DiscordChannel) Name() string { return "discord" }
