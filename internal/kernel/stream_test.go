package kernel_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/mazraa/app/repositories"
	"github.com/shashiranjanraj/mazraa/app/routes"
	"github.com/shashiranjanraj/mazraa/app/services"
	"github.com/shashiranjanraj/mazraa/internal/kernel"
	"github.com/shashiranjanraj/mazraa/pkg/event"
	"github.com/shashiranjanraj/mazraa/pkg/kv"
	"github.com/shashiranjanraj/mazraa/pkg/ws"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// newLiveApp serves the full stack, websocket hub included, on a real
// listener with a controllable clock.
func newLiveApp(t *testing.T, recheck time.Duration) (*app, *clock, *httptest.Server) {
	t.Helper()
	clk := &clock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	bus := event.NewBus(16)
	hub := ws.NewHub(bus)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	svc := services.New(services.Deps{
		Repos: repositories.NewRegistry(kv.NewMemory()),
		Now:   clk.Now,
	})
	r := kernel.Build(routes.Deps{Services: svc, Bus: bus, Hub: hub, AdminRecheck: recheck}, kernel.Options{})
	srv := httptest.NewServer(r.Handler())
	t.Cleanup(srv.Close)
	return &app{t: t, h: r.Handler(), svc: svc}, clk, srv
}

func dialSocket(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// nextError skips pushed bus events until a reply carrying "error" arrives.
func nextError(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var frame map[string]any
		require.NoError(t, conn.ReadJSON(&frame))
		if msg, ok := frame["error"].(string); ok {
			return msg
		}
	}
}

// closeCode reads until the server closes the socket and returns its code.
func closeCode(t *testing.T, conn *websocket.Conn) int {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		var closeErr *websocket.CloseError
		require.ErrorAs(t, err, &closeErr)
		return closeErr.Code
	}
}

func TestAdminSocketStopsRelayingOnceLoginLapses(t *testing.T) {
	a, clk, srv := newLiveApp(t, time.Hour)
	ctx := context.Background()
	admin := a.adminLogin(sessionToken(t))
	conn := dialSocket(t, srv, admin)

	require.NoError(t, conn.WriteJSON(map[string]string{"message": "avant expiration"}))
	require.Eventually(t, func() bool {
		msgs, err := a.svc.Chat.ConversationMessages(ctx, "client_x")
		return err == nil && len(msgs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	clk.Advance(3 * time.Hour)
	require.NoError(t, conn.WriteJSON(map[string]string{"message": "sent 3h after login"}))

	assert.Equal(t, "Session administrateur expirée", nextError(t, conn))
	assert.Equal(t, websocket.ClosePolicyViolation, closeCode(t, conn))

	msgs, err := a.svc.Chat.ConversationMessages(ctx, "client_x")
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	rec, _ := a.do(http.MethodGet, "/api/admin/dashboard", admin, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminSocketClosedOnLogout(t *testing.T) {
	a, _, srv := newLiveApp(t, 20*time.Millisecond)
	admin := a.adminLogin(sessionToken(t))
	conn := dialSocket(t, srv, admin)

	rec, _ := a.do(http.MethodPost, "/api/admin/logout", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, websocket.ClosePolicyViolation, closeCode(t, conn))
}

func TestAdminEventStreamEndsWhenLoginLapses(t *testing.T) {
	a, clk, srv := newLiveApp(t, 20*time.Millisecond)
	admin := a.adminLogin(sessionToken(t))

	resp, err := http.Get(srv.URL + "/api/events?token=" + admin)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		close(done)
	}()
	ended := func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}

	require.Never(t, ended, 150*time.Millisecond, 10*time.Millisecond)
	clk.Advance(2 * time.Hour)
	require.Eventually(t, ended, 2*time.Second, 10*time.Millisecond)
}
