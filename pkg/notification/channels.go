package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/shashiranjanraj/mazraa/pkg/event"
	outbound "github.com/shashiranjanraj/mazraa/pkg/http"
	"github.com/shashiranjanraj/mazraa/pkg/mail"
)

// PushChannel publishes the payload on the event bus, where the SSE and
// WebSocket streams of the addressed participant pick it up.
type PushChannel struct {
	bus *event.Bus
}

func NewPushChannel(bus *event.Bus) *PushChannel { return &PushChannel{bus: bus} }

func (c *PushChannel) Name() string { return "push" }

func (c *PushChannel) Send(_ context.Context, topic string, p Payload) error {
	c.bus.Publish(topic, event.Notification, p)
	return nil
}

// WebhookChannel POSTs {"topic", "notification"} as JSON to a URL.
type WebhookChannel struct {
	URL      string
	Headers  map[string]string
	Attempts int
	Timeout  time.Duration
}

// NewWebhookChannel returns nil when url is empty so callers can skip it.
func NewWebhookChannel(url string) *WebhookChannel {
	if url == "" {
		return nil
	}
	return &WebhookChannel{URL: url, Attempts: 2, Timeout: 10 * time.Second}
}

func (c *WebhookChannel) Name() string { return "webhook" }

type webhookBody struct {
	Topic        string    `json:"topic"`
	Notification Payload   `json:"notification"`
	SentAt       time.Time `json:"sentAt"`
}

func (c *WebhookChannel) Send(ctx context.Context, topic string, p Payload) error {
	resp, err := outbound.Post(c.URL).
		WithContext(ctx).
		Headers(c.Headers).
		Body(webhookBody{Topic: topic, Notification: p, SentAt: time.Now().UTC()}).
		Timeout(c.Timeout).
		Retry(c.Attempts, 200*time.Millisecond).
		Send()
	if err != nil {
		return fmt.Errorf("notification: webhook: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return fmt.Errorf("notification: webhook: %w", err)
	}
	return nil
}

// MailChannel emails back-office notifications to the shop's inbox. Other
// topics are ignored.
type MailChannel struct {
	To   []string
	SMTP mail.SMTP
}

// NewMailChannel returns nil unless SMTP is configured and to is non-empty.
func NewMailChannel(cfg mail.SMTP, to ...string) *MailChannel {
	if !cfg.Configured() || len(to) == 0 {
		return nil
	}
	return &MailChannel{To: to, SMTP: cfg}
}

func (c *MailChannel) Name() string { return "mail" }

func (c *MailChannel) Send(_ context.Context, topic string, p Payload) error {
	if topic != event.AdminTopic {
		return nil
	}
	body := p.Body
	if u, ok := p.Data["url"].(string); ok && u != "" {
		body += "\n\n" + u
	}
	if err := mail.To(c.To...).UseConfig(c.SMTP).Subject(p.Title).Text(body).Send(); err != nil {
		return fmt.Errorf("notification: mail: %w", err)
	}
	return nil
}
