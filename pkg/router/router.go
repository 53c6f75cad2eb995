package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	accountapi "github.com/tendant/simple-keyauth/pkg/account/api"
	"github.com/tendant/simple-keyauth/pkg/apiauth"
	"github.com/tendant/simple-keyauth/pkg/audit"
	pkgconfig "github.com/tendant/simple-keyauth/pkg/config"
	"github.com/tendant/simple-keyauth/pkg/errors"
)

// Config holds all the dependencies and handlers needed to setup routes
type Config struct {
	// Prefix configuration for all routes
	PrefixConfig pkgconfig.PrefixConfig

	AccountHandle *accountapi.Handler
	Resolver      *apiauth.Resolver

	// RegistrationEnabled mounts POST /users outside the API key gate.
	RegistrationEnabled bool

	// Optional: served at /metrics when set
	MetricsHandler http.Handler
	// Optional: records authenticated requests
	Audit *audit.Middleware
}

// SetupRoutes mounts all routes on the provided router
func SetupRoutes(router chi.Router, cfg Config) {
	router.NotFound(notFound)
	router.MethodNotAllowed(methodNotAllowed)

	if cfg.MetricsHandler != nil {
		router.Handle("/metrics", cfg.MetricsHandler)
	}

	router.Route(prefix(cfg), func(r chi.Router) {
		r.With(gate(cfg)...).Get("/whoami", cfg.AccountHandle.WhoAmI)
		r.Route("/users", func(r chi.Router) {
			SetupAccountRoutes(r, cfg)
		})
	})
}

// SetupAccountRoutes mounts the /users routes on r. Everything sits behind
// the API key gate except POST / when registration is enabled.
func SetupAccountRoutes(r chi.Router, cfg Config) {
	if cfg.RegistrationEnabled {
		cfg.AccountHandle.RegisterCreateRoute(r)
		slog.Info("Public registration enabled", "path", prefix(cfg)+"/users")
	}

	r.Group(func(r chi.Router) {
		r.Use(gate(cfg)...)
		if !cfg.RegistrationEnabled {
			cfg.AccountHandle.RegisterCreateRoute(r)
		}
		cfg.AccountHandle.RegisterRoutes(r)
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	errors.WriteHTTP(w, r, errors.Newf(errors.ErrCodeNotFound, "no route for %s", r.URL.Path).
		WithDetail("request_uri", r.RequestURI))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	errors.WriteHTTP(w, r, errors.Newf(errors.ErrCodeBadRequest, "method %s not allowed", r.Method).
		WithDetail("request_uri", r.RequestURI))
}

// gate returns the middleware chain in front of authenticated routes.
func gate(cfg Config) []func(http.Handler) http.Handler {
	mws := []func(http.Handler) http.Handler{cfg.Resolver.Middleware}
	if cfg.Audit != nil {
		mws = append(mws, cfg.Audit.AuditAuthMiddleware)
	}
	return mws
}

func prefix(cfg Config) string {
	p := cfg.PrefixConfig.Normalized()
	if p == "" {
		return "/"
	}
	return p
}
