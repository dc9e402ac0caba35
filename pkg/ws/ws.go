// Package ws pushes event-bus traffic to browsers over WebSocket and hands
// inbound frames to an application callback.
//
//	hub := ws.NewHub(bus)
//	hub.OnMessage = func(ctx context.Context, m ws.Message) { ... }
//	go hub.Run(ctx)
//
//	router.Get("/ws", "ws", func(w http.ResponseWriter, r *http.Request) {
//	    hub.Upgrade(w, r, participant, event.ClientTopic(participant.ID))
//	})
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shashiranjanraj/mazraa/pkg/event"
	"github.com/shashiranjanraj/mazraa/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins by default — restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SetCheckOrigin replaces the default (allow-all) origin checker.
func SetCheckOrigin(fn func(r *http.Request) bool) {
	upgrader.CheckOrigin = fn
}

// Participant is who sits behind a connection.
type Participant struct {
	ID        string
	Name      string
	Admin     bool
	SessionID string
}

// ─── Client ───────────────────────────────────────────────────────────────────

// Client represents a single connected WebSocket client.
type Client struct {
	Participant Participant

	hub  *Hub
	conn *websocket.Conn
	sub  *event.Subscription

	mu     sync.Mutex
	send   chan []byte
	kick   chan string
	done   chan struct{}
	closed bool
}

// readPump pumps messages from the WebSocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("ws: unexpected close", "error", err)
			}
			break
		}
		select {
		case c.hub.inbound <- Message{Client: c, Data: msg}:
		case <-c.hub.done:
			return
		}
	}
}

// writePump forwards bus events and direct replies to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case ev, ok := <-c.sub.C:
			if !ok {
				c.closeConn()
				return
			}
			raw, err := json.Marshal(ev)
			if err != nil {
				logger.Error("ws: marshal event", "event", ev.Name, "error", err)
				continue
			}
			if !c.write(websocket.TextMessage, raw) {
				return
			}
		case msg, ok := <-c.send:
			if !ok {
				c.closeConn()
				return
			}
			if !c.write(websocket.TextMessage, msg) {
				return
			}
		case reason := <-c.kick:
			c.flush()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason))
			return
		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

// flush writes the replies already queued.
func (c *Client) flush() {
	for {
		select {
		case msg, ok := <-c.send:
			if !ok || !c.write(websocket.TextMessage, msg) {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) write(kind int, data []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(kind, data) == nil
}

func (c *Client) closeConn() {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// Send queues a direct reply to this client. Dropped when the buffer is full
// or the client is gone.
func (c *Client) Send(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// SendJSON marshals v and queues it.
func (c *Client) SendJSON(v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.Send(raw)
}

// Close sends the queued replies, then closes the connection with reason.
func (c *Client) Close(reason string) {
	select {
	case c.kick <- reason:
	default:
	}
}

// Done is closed once the client has disconnected.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) shutdown() {
	c.sub.Close()
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
		close(c.done)
	}
	c.mu.Unlock()
}

// ─── Hub ──────────────────────────────────────────────────────────────────────

// Message is an inbound frame received from a client.
type Message struct {
	Client *Client
	Data   []byte
}

// Hub tracks live connections and serialises inbound messages.
type Hub struct {
	// OnMessage is called for every inbound message, one at a time.
	OnMessage func(ctx context.Context, msg Message)

	bus        *event.Bus
	clients    map[*Client]bool
	count      int
	countMu    sync.RWMutex
	inbound    chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub creates a Hub. Call hub.Run() in a goroutine at startup.
func NewHub(bus *event.Bus) *Hub {
	return &Hub{
		bus:        bus,
		clients:    make(map[*Client]bool),
		inbound:    make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the hub event loop. It returns when ctx is done, closing every
// connection.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for client := range h.clients {
			client.shutdown()
		}
		h.setCount(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true
			h.setCount(len(h.clients))
			logger.Info("ws: client connected",
				"participant", client.Participant.ID, "total", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.shutdown()
				h.setCount(len(h.clients))
				logger.Info("ws: client disconnected",
					"participant", client.Participant.ID, "total", len(h.clients))
			}

		case msg := <-h.inbound:
			if h.OnMessage != nil {
				h.OnMessage(ctx, msg)
			}
		}
	}
}

func (h *Hub) setCount(n int) {
	h.countMu.Lock()
	h.count = n
	h.countMu.Unlock()
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.countMu.RLock()
	defer h.countMu.RUnlock()
	return h.count
}

// ─── Upgrade ─────────────────────────────────────────────────────────────────

// Upgrade upgrades the request to a WebSocket subscribed to topics. It
// returns nil when the upgrade fails or the hub has stopped.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request, p Participant, topics ...string) *Client {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithCtx(r.Context()).Error("ws: upgrade failed", "error", err)
		return nil
	}
	client := &Client{
		Participant: p,
		hub:         h,
		conn:        conn,
		sub:         h.bus.Subscribe(topics...),
		send:        make(chan []byte, 32),
		kick:        make(chan string, 1),
		done:        make(chan struct{}),
	}

	select {
	case h.register <- client:
	case <-h.done:
		client.shutdown()
		conn.Close()
		return nil
	}
	go client.writePump()
	go client.readPump()
	return client
}
