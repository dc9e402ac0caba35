// Package sse streams event-bus subscriptions as Server-Sent Events.
//
//	sub := bus.Subscribe(event.ClientTopic(id))
//	defer sub.Close()
//	sse.Serve(w, r, sub, 15*time.Second)
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shashiranjanraj/mazraa/pkg/event"
)

// DefaultKeepAlive is the interval between keepalive comments.
const DefaultKeepAlive = 15 * time.Second

// Stream represents an active SSE connection to one client.
type Stream struct {
	w       http.ResponseWriter
	r       *http.Request
	flusher http.Flusher
	closed  bool
}

// New creates an SSE stream and sets the required headers.
// Returns nil if the ResponseWriter does not support flushing.
func New(w http.ResponseWriter, r *http.Request) *Stream {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return nil
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Stream{w: w, r: r, flusher: flusher}
}

// Send writes a named event with a JSON-encoded data payload.
func (s *Stream) Send(name string, data any) error {
	if s.IsClosed() {
		return nil
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sse: marshal: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
		s.closed = true
		return err
	}
	s.flusher.Flush()
	return nil
}

// Comment writes an SSE comment, used as a keepalive heartbeat.
func (s *Stream) Comment(msg string) {
	if s.IsClosed() {
		return
	}
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", msg); err != nil {
		s.closed = true
		return
	}
	s.flusher.Flush()
}

// IsClosed reports whether the client has disconnected.
func (s *Stream) IsClosed() bool {
	if s == nil {
		return true
	}
	select {
	case <-s.r.Context().Done():
		s.closed = true
	default:
	}
	return s.closed
}

// Serve pumps sub into the response until the client goes away or the
// subscription is closed.
func Serve(w http.ResponseWriter, r *http.Request, sub *event.Subscription, keepAlive time.Duration) {
	stream := New(w, r)
	if stream == nil {
		return
	}
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}

	_ = stream.Send("ready", map[string]any{"at": time.Now().UTC()})

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if err := stream.Send(ev.Name, ev); err != nil || stream.IsClosed() {
				return
			}
		case <-ticker.C:
			stream.Comment("keepalive")
			if stream.IsClosed() {
				return
			}
		}
	}
}
