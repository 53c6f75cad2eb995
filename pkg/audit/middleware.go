// Package audit provides middleware for auditing authenticated HTTP requests
package audit

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/tendant/simple-keyauth/pkg/apiauth"
)

// Config holds the configuration for the audit middleware
type Config struct {
	// Logger receives one record per request. Defaults to slog.Default().
	Logger *slog.Logger
	// Source is attached to every record
	Source string
}

// Middleware handles HTTP request auditing
type Middleware struct {
	logger *slog.Logger
	source string
}

// NewMiddleware creates a new audit middleware instance
func NewMiddleware(config Config) *Middleware {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Source == "" {
		config.Source = "keyauth"
	}
	return &Middleware{
		logger: config.Logger,
		source: config.Source,
	}
}

// Event is one audited request
type Event struct {
	UserID   string
	Origin   string
	URI      string
	Method   string
	Status   int
	Duration time.Duration
}

func (e Event) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("user", e.UserID),
		slog.String("origin", e.Origin),
		slog.String("method", e.Method),
		slog.String("uri", e.URI),
		slog.Int("status", e.Status),
		slog.Duration("duration", e.Duration),
	)
}

// AuditAuthMiddleware records every request that passed the API key gate.
// It must run after apiauth's middleware; requests without a caller are
// passed through unrecorded.
func (m *Middleware) AuditAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := apiauth.CallerFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		event := Event{
			UserID:   caller.UserID(),
			Origin:   caller.Origin().String(),
			URI:      r.RequestURI,
			Method:   r.Method,
			Status:   status,
			Duration: time.Since(start),
		}
		m.logger.LogAttrs(r.Context(), slog.LevelInfo, "Audit",
			slog.String("source", m.source),
			slog.Any("event", event),
		)
	})
}
