package middleware

import (
	"context"
	"net/http"

	"github.com/shashiranjanraj/mazraa/pkg/logger"
	"github.com/shashiranjanraj/mazraa/pkg/response"
	"github.com/shashiranjanraj/mazraa/pkg/session"
)

// ClientResolver looks up the client logged into a session ("" if none).
type ClientResolver interface {
	CurrentClientID(ctx context.Context, sid string) (string, error)
}

// AdminChecker reports whether a session holds a live admin login.
type AdminChecker interface {
	AdminSessionValid(ctx context.Context, sid string) (bool, error)
}

type clientIDKey struct{}

// ClientIDFromCtx returns the client id set by RequireClient, or "".
func ClientIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey{}).(string)
	return id
}

// WithClientID stores a client id in ctx.
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey{}, id)
}

// RequireClient rejects requests whose session has no logged-in client.
func RequireClient(clients ClientResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := clients.CurrentClientID(r.Context(), session.ID(r.Context()))
			if err != nil {
				logger.WithCtx(r.Context()).Error("guard: resolve client", "error", err)
				response.Error(w, http.StatusInternalServerError, "Erreur interne du serveur")
				return
			}
			if id == "" {
				response.Unauthorized(w, "Vous devez être connecté")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), id)))
		})
	}
}

// RequireAdmin rejects requests without a valid admin session.
func RequireAdmin(admins AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := admins.AdminSessionValid(r.Context(), session.ID(r.Context()))
			if err != nil {
				logger.WithCtx(r.Context()).Error("guard: check admin", "error", err)
				response.Error(w, http.StatusInternalServerError, "Erreur interne du serveur")
				return
			}
			if !ok {
				response.Forbidden(w, "Session administrateur expirée ou absente")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
