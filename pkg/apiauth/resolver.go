// Package apiauth authenticates requests by the API key they carry.
package apiauth

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"

	"github.com/tendant/simple-keyauth/pkg/account"
	"github.com/tendant/simple-keyauth/pkg/errors"
	"github.com/tendant/simple-keyauth/pkg/metrics"
)

// DefaultHeader is the request header carrying the API key.
const DefaultHeader = "X-API-Key"

// KeyLookup finds the account owning an API key.
type KeyLookup interface {
	ReadByKey(ctx context.Context, apiKey string) (account.AccountView, error)
}

// Config controls how credentials and origins are read from a request.
type Config struct {
	// HeaderName is matched case-insensitively. Defaults to DefaultHeader.
	HeaderName string
	// TrustProxyHeaders takes the origin from X-Forwarded-For / X-Real-IP
	// instead of the transport peer address.
	TrustProxyHeaders bool
}

// Caller is an authenticated request principal. It is immutable.
type Caller struct {
	account account.AccountView
	origin  netip.Addr
}

func (c Caller) Account() account.AccountView { return c.account }
func (c Caller) UserID() string                { return c.account.UserID }
func (c Caller) APIKey() string                { return c.account.APIKey }
func (c Caller) Origin() netip.Addr            { return c.origin }

// LogValue never includes the key.
func (c Caller) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("user", c.account.UserID),
		slog.String("origin", c.origin.String()),
	)
}

// Resolver turns a request into a Caller.
type Resolver struct {
	lookup     KeyLookup
	header     string
	trustProxy bool
}

func NewResolver(lookup KeyLookup, cfg Config) *Resolver {
	header := strings.TrimSpace(cfg.HeaderName)
	if header == "" {
		header = DefaultHeader
	}
	return &Resolver{
		lookup:     lookup,
		header:     header,
		trustProxy: cfg.TrustProxyHeaders,
	}
}

// HeaderName returns the canonical credential header name.
func (r *Resolver) HeaderName() string {
	return http.CanonicalHeaderKey(r.header)
}

// Resolve authenticates req.
//
//   - no credential, or only whitespace: Unauthenticated
//   - credential matches no account: Forbidden
//   - origin cannot be determined: Forbidden
//   - lookup failure: Internal
func (r *Resolver) Resolve(req *http.Request) (Caller, error) {
	key := strings.TrimSpace(req.Header.Get(r.header))
	if key == "" {
		metrics.RecordAuthAttempt(metrics.AuthMissingKey)
		return Caller{}, errors.Unauthenticated("missing api key")
	}

	view, err := r.lookup.ReadByKey(req.Context(), key)
	if errors.IsCode(err, errors.ErrCodeNotFound) {
		metrics.RecordAuthAttempt(metrics.AuthUnknownKey)
		return Caller{}, errors.Forbidden("invalid api key")
	}
	if err != nil {
		metrics.RecordAuthAttempt(metrics.AuthError)
		if errors.GetCode(err) == errors.ErrCodeInternal {
			return Caller{}, err
		}
		return Caller{}, errors.InternalWrap(err, "failed to resolve api key")
	}

	origin, ok := clientOrigin(req, r.trustProxy)
	if !ok {
		metrics.RecordAuthAttempt(metrics.AuthUnknownOrigin)
		slog.Warn("Rejecting request with unknown origin", "user", view.UserID, "remote_addr", req.RemoteAddr)
		return Caller{}, errors.Forbidden("unknown request origin")
	}

	metrics.RecordAuthAttempt(metrics.AuthAccepted)
	return Caller{account: view, origin: origin}, nil
}
