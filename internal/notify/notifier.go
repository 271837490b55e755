// Package notify delivers operator alerts for ingestion events over one or
// more channels (Telegram, Discord). Events can be filtered so operators only
// receive the alert types they subscribed to.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Events emitted by the ingestion pipeline.
const (
	EventCycleFailed = "cycle_failed"
	EventDataQuality = "data_quality"
)

// Notification is one alert to deliver.
type Notification struct {
	Event string
	Title string
	Body  string
}

// Channel is a single delivery target.
type Channel interface {
	// Deliver sends the notification over this channel.
	Deliver(ctx context.Context, n Notification) error
	// Name identifies the channel in logs, e.g. "telegram".
	Name() string
}

// Notifier fans a notification out to every configured channel, subject to
// the event subscription filter. An empty subscription list means all events.
type Notifier struct {
	channels []Channel
	events   map[string]struct{}
	logger   *slog.Logger
}

// New builds a Notifier delivering to channels, restricted to the listed
// event types.
func New(channels []Channel, events []string, logger *slog.Logger) *Notifier {
	subscribed := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			subscribed[e] = struct{}{}
		}
	}
	return &Notifier{
		channels: channels,
		events:   subscribed,
		logger:   logger.With(slog.String("component", "notifier")),
	}
}

// Notify delivers the alert to every channel if the event is subscribed.
// One channel failing does not stop delivery to the others; all failures are
// joined into the returned error.
func (n *Notifier) Notify(ctx context.Context, event, title, body string) error {
	if len(n.events) > 0 {
		if _, ok := n.events[event]; !ok {
			n.logger.DebugContext(ctx, "event not subscribed", slog.String("event", event))
			return nil
		}
	}

	alert := Notification{Event: event, Title: title, Body: body}

	var errs []error
	for _, ch := range n.channels {
		if err := ch.Deliver(ctx, alert); err != nil {
			n.logger.ErrorContext(ctx, "channel delivery failed",
				slog.String("channel", ch.Name()),
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "alert delivered",
			slog.String("channel", ch.Name()),
			slog.String("event", event),
		)
	}
	return errors.Join(errs...)
}
