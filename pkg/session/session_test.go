package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/mazraa/pkg/auth"
	"github.com/shashiranjanraj/mazraa/pkg/session"
)

func serve(t *testing.T, req *http.Request) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var got string
	h := session.Middleware(session.DefaultOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = session.ID(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return got, rec
}

func TestNewSessionSetsCookie(t *testing.T) {
	id, rec := serve(t, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, id)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "mazraa_session", cookies[0].Name)
	assert.Equal(t, id, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestCookieIsReused(t *testing.T) {
	sid := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "mazraa_session", Value: sid})

	id, rec := serve(t, req)
	assert.Equal(t, sid, id)
	assert.Empty(t, rec.Result().Cookies())
}

func TestMalformedCookieIsReplaced(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "mazraa_session", Value: "../../etc"})

	id, _ := serve(t, req)
	assert.NotEqual(t, "../../etc", id)
}

func TestBearerTokenWinsOverCookie(t *testing.T) {
	tok, err := auth.GenerateToken("from-token")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	req.AddCookie(&http.Cookie{Name: "mazraa_session", Value: uuid.NewString()})

	id, _ := serve(t, req)
	assert.Equal(t, "from-token", id)
}

func TestQueryToken(t *testing.T) {
	tok, err := auth.GenerateToken("sse-client")
	require.NoError(t, err)

	id, _ := serve(t, httptest.NewRequest(http.MethodGet, "/api/events?token="+tok, nil))
	assert.Equal(t, "sse-client", id)
}

func TestInvalidBearerFallsBackToNewSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")

	id, rec := serve(t, req)
	assert.NotEmpty(t, id)
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestSessionToken(t *testing.T) {
	s := session.New("abc")
	tok, err := s.Token()
	require.NoError(t, err)

	claims, err := auth.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc", claims.SessionID)
}

func TestRenewMintsNewIDAndCookie(t *testing.T) {
	sid := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "mazraa_session", Value: sid})

	var previous, current string
	h := session.Middleware(session.DefaultOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		previous = session.FromCtx(r.Context()).Renew(w)
		current = session.ID(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, sid, previous)
	assert.NotEqual(t, sid, current)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, current, cookies[0].Value)
}
