// Package notification delivers user-facing alerts over several channels.
//
// A notification is addressed to an event-bus topic (a client or the
// back-office) and fanned out to every configured Channel:
//
//	d := notification.NewDispatcher(pool,
//	    notification.NewPushChannel(bus),
//	    notification.NewWebhookChannel(config.NotifyWebhookURL()),
//	)
//	d.Dispatch(event.AdminTopic, notification.Payload{Title: "...", Body: "..."})
//
// Dispatch never blocks and never fails the caller; errors are logged and
// counted.
package notification

import (
	"context"
	"errors"
	"time"

	"github.com/shashiranjanraj/mazraa/pkg/logger"
	"github.com/shashiranjanraj/mazraa/pkg/metrics"
	"github.com/shashiranjanraj/mazraa/pkg/workerpool"
)

// Action is a button shown with a notification.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Payload is the notification as shown by the browser.
type Payload struct {
	Title   string         `json:"title"`
	Body    string         `json:"body"`
	Tag     string         `json:"tag,omitempty"`
	Icon    string         `json:"icon,omitempty"`
	Badge   string         `json:"badge,omitempty"`
	Vibrate []int          `json:"vibrate,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Actions []Action       `json:"actions,omitempty"`
}

// Defaults fills in the fields a payload leaves empty.
type Defaults struct {
	Icon    string
	Badge   string
	Tag     string
	Vibrate []int
}

// DefaultVibrate is the vibration pattern used when none is given.
var DefaultVibrate = []int{200, 100, 200}

// Apply returns p with empty fields taken from d.
func (d Defaults) Apply(p Payload) Payload {
	if p.Icon == "" {
		p.Icon = d.Icon
	}
	if p.Badge == "" {
		p.Badge = d.Badge
	}
	if p.Tag == "" {
		p.Tag = d.Tag
	}
	if len(p.Vibrate) == 0 {
		p.Vibrate = append([]int(nil), d.Vibrate...)
	}
	if p.Data == nil {
		p.Data = map[string]any{}
	}
	if p.Actions == nil {
		p.Actions = []Action{}
	}
	return p
}

// Channel delivers one payload to one topic.
type Channel interface {
	Name() string
	Send(ctx context.Context, topic string, p Payload) error
}

// Dispatcher fans notifications out to its channels.
type Dispatcher struct {
	channels []Channel
	pool     *workerpool.Pool
	defaults Defaults
	timeout  time.Duration
}

// NewDispatcher builds a dispatcher. A nil pool makes Dispatch synchronous.
func NewDispatcher(pool *workerpool.Pool, channels ...Channel) *Dispatcher {
	return &Dispatcher{
		channels: channels,
		pool:     pool,
		defaults: Defaults{Tag: "notification", Vibrate: DefaultVibrate},
		timeout:  10 * time.Second,
	}
}

// WithDefaults replaces the defaults applied to every payload.
func (d *Dispatcher) WithDefaults(def Defaults) *Dispatcher {
	d.defaults = def
	return d
}

// Channels lists the channel names in dispatch order.
func (d *Dispatcher) Channels() []string {
	names := make([]string, len(d.channels))
	for i, c := range d.channels {
		names[i] = c.Name()
	}
	return names
}

// Send delivers p through every channel and joins the failures.
func (d *Dispatcher) Send(ctx context.Context, topic string, p Payload) error {
	p = d.defaults.Apply(p)

	var errs []error
	for _, ch := range d.channels {
		if err := ch.Send(ctx, topic, p); err != nil {
			metrics.NotificationsSent.WithLabelValues(ch.Name(), "error").Inc()
			logger.Error("notification: channel failed",
				"channel", ch.Name(), "topic", topic, "tag", p.Tag, "error", err)
			errs = append(errs, err)
			continue
		}
		metrics.NotificationsSent.WithLabelValues(ch.Name(), "ok").Inc()
	}
	return errors.Join(errs...)
}

// Dispatch sends in the background. A full pool drops the notification.
func (d *Dispatcher) Dispatch(topic string, p Payload) {
	if d == nil {
		return
	}
	task := func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		_ = d.Send(ctx, topic, p)
	}

	if d.pool == nil {
		task()
		return
	}
	if err := d.pool.Submit(task); err != nil {
		metrics.NotificationsSent.WithLabelValues("dispatch", "dropped").Inc()
		logger.Warn("notification: dropped", "topic", topic, "tag", p.Tag, "error", err)
	}
}
