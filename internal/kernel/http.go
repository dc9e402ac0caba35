// Package kernel assembles the HTTP handler: global middleware, operational
// endpoints and the storefront routes.
package kernel

import (
	"net/http"

	"github.com/shashiranjanraj/mazraa/app/routes"
	"github.com/shashiranjanraj/mazraa/pkg/metrics"
	"github.com/shashiranjanraj/mazraa/pkg/middleware"
	"github.com/shashiranjanraj/mazraa/pkg/response"
	"github.com/shashiranjanraj/mazraa/pkg/router"
	"github.com/shashiranjanraj/mazraa/pkg/session"
)

// Options tunes the parts of the stack that differ between boots.
type Options struct {
	// Limiter rejects abusive clients. Nil disables rate limiting.
	Limiter *middleware.RateLimiter
	// CORSOrigins overrides the allowed origins; empty keeps the defaults.
	CORSOrigins []string
	// StaticRoot is served at /storage when set (local photo disk).
	StaticRoot string
	// Session overrides session.DefaultOptions.
	Session *session.Options
}

// Build returns the router with every middleware and route mounted.
func Build(d routes.Deps, opts Options) *router.Router {
	r := router.New()

	// Outermost first: metrics sees total latency, recovery catches panics
	// before anything else unwinds, the request id exists before the logger.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)

	sessOpts := session.DefaultOptions()
	if opts.Session != nil {
		sessOpts = *opts.Session
	}
	r.Use(session.Middleware(sessOpts))

	cors := middleware.DefaultCORSOptions()
	if len(opts.CORSOrigins) > 0 {
		cors.AllowedOrigins = opts.CORSOrigins
	}
	r.Use(middleware.CORS(cors))

	if opts.Limiter != nil {
		r.Use(opts.Limiter.Middleware)
	}

	r.Get("/metrics", "metrics", metrics.Handler())
	r.Get("/healthz", "healthz", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]string{"status": "ok"})
	})
	if opts.StaticRoot != "" {
		r.Static("/storage", "storage", http.Dir(opts.StaticRoot))
	}

	routes.RegisterAPI(r, d)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "Ressource introuvable")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Méthode non autorisée")
	})

	return r
}
