package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/app/services"
	"github.com/shashiranjanraj/mazraa/pkg/event"
	"github.com/shashiranjanraj/mazraa/pkg/logger"
	"github.com/shashiranjanraj/mazraa/pkg/response"
	"github.com/shashiranjanraj/mazraa/pkg/session"
	"github.com/shashiranjanraj/mazraa/pkg/sse"
	"github.com/shashiranjanraj/mazraa/pkg/ws"
)

// DefaultAdminRecheck is how often a live back-office stream re-checks its
// admin login, so a logout ends it too.
const DefaultAdminRecheck = 30 * time.Second

const adminExpired = "Session administrateur expirée"

// StreamController pushes bus events to browsers over SSE and WebSocket.
type StreamController struct {
	auth *services.AuthService
	chat *services.ChatService
	bus  *event.Bus
	hub  *ws.Hub
	shop string

	KeepAlive    time.Duration
	// AdminRecheck bounds how long a stream outlives its admin login.
	AdminRecheck time.Duration
}

func NewStreamController(s *services.Services, bus *event.Bus, hub *ws.Hub, shopName string) *StreamController {
	sc := &StreamController{
		auth:         s.Auth,
		chat:         s.Chat,
		bus:          bus,
		hub:          hub,
		shop:         shopName,
		KeepAlive:    sse.DefaultKeepAlive,
		AdminRecheck: DefaultAdminRecheck,
	}
	if hub != nil {
		hub.OnMessage = sc.relay
	}
	return sc
}

// participant resolves who is behind the session: the shop when an admin
// session is live, else the logged-in client. ok is false for guests.
func (sc *StreamController) participant(r *http.Request) (p ws.Participant, topics []string, ok bool, err error) {
	sid := session.ID(r.Context())
	topics = []string{event.CatalogTopic}

	admin, err := sc.auth.AdminSessionValid(r.Context(), sid)
	if err != nil {
		return p, nil, false, err
	}
	if admin {
		p = ws.Participant{ID: models.AdminSenderID, Name: sc.shop, Admin: true, SessionID: sid}
		return p, append(topics, event.AdminTopic), true, nil
	}

	client, found, err := sc.auth.CurrentClient(r.Context(), sid)
	if err != nil || !found {
		return p, topics, false, err
	}
	p = ws.Participant{ID: client.ID, Name: client.FullName(), SessionID: sid}
	return p, append(topics, event.ClientTopic(client.ID)), true, nil
}

// Events handles GET /api/events. Guests only receive catalog changes.
func (sc *StreamController) Events(w http.ResponseWriter, r *http.Request) {
	p, topics, _, err := sc.participant(r)
	if err != nil {
		logger.WithCtx(r.Context()).Error("events: resolve participant", "error", err)
		response.Error(w, http.StatusInternalServerError, "Erreur interne du serveur")
		return
	}

	if p.Admin {
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go sc.watchAdmin(ctx.Done(), p.SessionID, cancel)
		r = r.WithContext(ctx)
	}

	sub := sc.bus.Subscribe(topics...)
	defer sub.Close()
	sse.Serve(w, r, sub, sc.KeepAlive)
}

// Socket handles GET /ws.
func (sc *StreamController) Socket(w http.ResponseWriter, r *http.Request) {
	p, topics, ok, err := sc.participant(r)
	if err != nil {
		logger.WithCtx(r.Context()).Error("ws: resolve participant", "error", err)
		response.Error(w, http.StatusInternalServerError, "Erreur interne du serveur")
		return
	}
	if !ok {
		response.Unauthorized(w, "Vous devez être connecté")
		return
	}
	client := sc.hub.Upgrade(w, r, p, topics...)
	if client != nil && p.Admin {
		go sc.watchAdmin(client.Done(), p.SessionID, func() { client.Close(adminExpired) })
	}
}

// watchAdmin calls stop once the admin login on sid has lapsed or been
// closed. It returns early when done is closed.
func (sc *StreamController) watchAdmin(done <-chan struct{}, sid string, stop func()) {
	every := sc.AdminRecheck
	if every <= 0 {
		every = DefaultAdminRecheck
	}
	for {
		left, ok, err := sc.auth.AdminSessionRemaining(context.Background(), sid)
		if err != nil {
			logger.Error("stream: admin session check", "error", err)
		} else if !ok {
			stop()
			return
		}

		wait := every
		if ok && left < wait {
			wait = max(left, time.Millisecond)
		}
		timer := time.NewTimer(wait)
		select {
		case <-done:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// socketFrame is an inbound chat frame. ClientID addresses an admin reply;
// an admin frame without it is a broadcast.
type socketFrame struct {
	Message  string `json:"message"`
	ClientID string `json:"clientId"`
}

func (sc *StreamController) relay(ctx context.Context, msg ws.Message) {
	var frame socketFrame
	if err := json.Unmarshal(msg.Data, &frame); err != nil {
		msg.Client.SendJSON(map[string]string{"error": "Message invalide"})
		return
	}

	p := msg.Client.Participant
	var err error
	if p.Admin {
		valid, verr := sc.auth.AdminSessionValid(ctx, p.SessionID)
		if verr != nil {
			logger.Error("ws: admin session check", "error", verr)
			msg.Client.SendJSON(map[string]string{"error": "Erreur interne du serveur"})
			return
		}
		if !valid {
			msg.Client.SendJSON(map[string]string{"error": adminExpired})
			msg.Client.Close(adminExpired)
			return
		}
		_, err = sc.chat.SendFromAdmin(ctx, frame.ClientID, frame.Message)
	} else {
		_, err = sc.chat.SendFromClientID(ctx, p.ID, frame.Message)
	}
	if err != nil {
		msg.Client.SendJSON(map[string]string{"error": err.Error()})
	}
}
