// Package session identifies the browser session behind a request.
//
// The id travels either as a signed bearer token (pkg/auth) or as a cookie.
// Session state itself (cart, logged-in client, admin login) lives in the
// blob store under keys derived from the id.
//
//	r.Use(session.Middleware(session.DefaultOptions()))
//
//	sid := session.ID(r.Context())
package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/mazraa/pkg/auth"
)

// Options configures the session cookie.
type Options struct {
	CookieName string
	TTL        time.Duration
	HTTPOnly   bool
	Secure     bool
	SameSite   http.SameSite
	Path       string
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		CookieName: "mazraa_session",
		TTL:        auth.TokenTTL,
		HTTPOnly:   true,
		Secure:     false, // set true in production
		SameSite:   http.SameSiteLaxMode,
		Path:       "/",
	}
}

type ctxKey struct{}

// Session is the resolved identity of one request.
type Session struct {
	id   string
	opts Options
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Renew switches the session to a newly minted id, sends it as the cookie
// and returns the previous id. Call it when the session gains privileges so
// an id planted before login is worthless afterwards.
func (s *Session) Renew(w http.ResponseWriter) (previous string) {
	previous = s.id
	s.id = uuid.NewString()
	http.SetCookie(w, s.cookie())
	return previous
}

// Token returns a bearer token for the session, for API clients that do not
// keep cookies.
func (s *Session) Token() (string, error) { return auth.GenerateToken(s.id) }

func (s *Session) cookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    s.id,
		Path:     s.opts.Path,
		MaxAge:   int(s.opts.TTL.Seconds()),
		HttpOnly: s.opts.HTTPOnly,
		Secure:   s.opts.Secure,
		SameSite: s.opts.SameSite,
	}
}

// Resolve reads the session id from r: a valid bearer token wins, then the
// cookie. An invalid bearer token is ignored.
func Resolve(r *http.Request, opts Options) (id string, ok bool) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if claims, err := auth.ValidateToken(strings.TrimPrefix(h, "Bearer ")); err == nil {
			return claims.SessionID, true
		}
	}
	// EventSource and WebSocket clients cannot set headers.
	if t := r.URL.Query().Get("token"); t != "" {
		if claims, err := auth.ValidateToken(t); err == nil {
			return claims.SessionID, true
		}
	}
	if c, err := r.Cookie(opts.CookieName); err == nil && validID(c.Value) {
		return c.Value, true
	}
	return "", false
}

func validID(v string) bool {
	_, err := uuid.Parse(v)
	return err == nil
}

// Middleware resolves (or creates) the session for every request and injects
// it into the request context. A new id is sent back as a cookie.
func Middleware(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := &Session{opts: opts}

			if id, ok := Resolve(r, opts); ok {
				sess.id = id
			} else {
				sess.id = uuid.NewString()
				http.SetCookie(w, sess.cookie())
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// WithSession stores sess in ctx.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// New builds a session handle for a known id, mainly for tests.
func New(id string) *Session {
	return &Session{id: id, opts: DefaultOptions()}
}

// FromCtx retrieves the session from ctx, or nil.
func FromCtx(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// ID returns the session id stored in ctx, or "".
func ID(ctx context.Context) string {
	if s := FromCtx(ctx); s != nil {
		return s.id
	}
	return ""
}
