package apiauth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tendant/simple-keyauth/pkg/errors"
)

// contextKey is a value for use with context.WithValue. It's used as
// a pointer so it fits in an interface{} without allocation.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "apiauth context value " + k.name
}

var callerKey = &contextKey{"Caller"}

// WithCaller returns a copy of ctx carrying c.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// CallerFromContext returns the caller stored by Middleware.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey).(Caller)
	return c, ok
}

// Middleware rejects requests that do not resolve to an account and stores
// the Caller in the request context for the rest.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		caller, err := r.Resolve(req)
		if err != nil {
			slog.Debug("Rejected request", "path", req.URL.Path, "code", errors.GetCode(err))
			errors.WriteHTTP(w, req, err)
			return
		}

		next.ServeHTTP(w, req.WithContext(WithCaller(req.Context(), caller)))
	})
}
