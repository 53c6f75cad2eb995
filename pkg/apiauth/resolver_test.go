package apiauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-keyauth/pkg/account"
	"github.com/tendant/simple-keyauth/pkg/errors"
)

const aliceKey = "sk_alice"

func seededRepo(t *testing.T) *account.InMemoryRepository {
	t.Helper()
	repo := account.NewInMemoryRepository()
	_, err := repo.Create(context.Background(), account.Account{
		UserID:       "alice",
		PasswordHash: "$argon2id$hash",
		APIKey:       aliceKey,
		Email:        "alice@example.com",
	})
	require.NoError(t, err)
	return repo
}

type failingLookup struct{}

func (failingLookup) ReadByKey(ctx context.Context, apiKey string) (account.AccountView, error) {
	return account.AccountView{}, fmt.Errorf("connection refused")
}

func TestResolve(t *testing.T) {
	repo := seededRepo(t)

	tests := []struct {
		name       string
		cfg        Config
		headers    map[string]string
		remoteAddr string
		wantCode   errors.ErrorCode
		wantOrigin string
	}{
		{
			name:       "valid key direct",
			headers:    map[string]string{"X-API-Key": aliceKey},
			wantOrigin: "192.0.2.1",
		},
		{
			name:       "header name is case insensitive",
			headers:    map[string]string{"x-api-key": aliceKey},
			wantOrigin: "192.0.2.1",
		},
		{
			name:       "value is trimmed",
			headers:    map[string]string{"X-API-Key": "  " + aliceKey + "\t"},
			wantOrigin: "192.0.2.1",
		},
		{
			name:     "missing header",
			wantCode: errors.ErrCodeUnauthenticated,
		},
		{
			name:     "blank header",
			headers:  map[string]string{"X-API-Key": "   "},
			wantCode: errors.ErrCodeUnauthenticated,
		},
		{
			name:     "unknown key is forbidden not missing",
			headers:  map[string]string{"X-API-Key": "sk_nobody"},
			wantCode: errors.ErrCodeForbidden,
		},
		{
			name:       "custom header",
			cfg:        Config{HeaderName: "Authorization-Key"},
			headers:    map[string]string{"authorization-key": aliceKey},
			wantOrigin: "192.0.2.1",
		},
		{
			name:     "default header ignored when custom configured",
			cfg:      Config{HeaderName: "Authorization-Key"},
			headers:  map[string]string{"X-API-Key": aliceKey},
			wantCode: errors.ErrCodeUnauthenticated,
		},
		{
			name:       "direct mode ignores forwarding headers",
			headers:    map[string]string{"X-API-Key": aliceKey, "X-Forwarded-For": "203.0.113.9"},
			wantOrigin: "192.0.2.1",
		},
		{
			name:       "unparseable peer address",
			headers:    map[string]string{"X-API-Key": aliceKey},
			remoteAddr: "not-an-address",
			wantCode:   errors.ErrCodeForbidden,
		},
		{
			name:       "ipv6 peer",
			headers:    map[string]string{"X-API-Key": aliceKey},
			remoteAddr: "[2001:db8::1]:443",
			wantOrigin: "2001:db8::1",
		},
		{
			name:       "gateway first forwarded entry",
			cfg:        Config{TrustProxyHeaders: true},
			headers:    map[string]string{"X-API-Key": aliceKey, "X-Forwarded-For": "203.0.113.9, 10.0.0.1"},
			wantOrigin: "203.0.113.9",
		},
		{
			name:       "gateway real ip",
			cfg:        Config{TrustProxyHeaders: true},
			headers:    map[string]string{"X-API-Key": aliceKey, "X-Real-IP": "198.51.100.7"},
			wantOrigin: "198.51.100.7",
		},
		{
			name:     "gateway without forwarding headers",
			cfg:      Config{TrustProxyHeaders: true},
			headers:  map[string]string{"X-API-Key": aliceKey},
			wantCode: errors.ErrCodeForbidden,
		},
		{
			name:     "gateway garbage forwarded entry",
			cfg:      Config{TrustProxyHeaders: true},
			headers:  map[string]string{"X-API-Key": aliceKey, "X-Forwarded-For": "unknown"},
			wantCode: errors.ErrCodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if tt.remoteAddr != "" {
				req.RemoteAddr = tt.remoteAddr
			}

			caller, err := NewResolver(repo, tt.cfg).Resolve(req)

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.GetCode(err))
				assert.Equal(t, Caller{}, caller)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice", caller.UserID())
			assert.Equal(t, aliceKey, caller.APIKey())
			assert.Equal(t, "alice@example.com", caller.Account().Email)
			assert.Equal(t, netip.MustParseAddr(tt.wantOrigin), caller.Origin())
		})
	}
}

func TestResolveLookupFailure(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("X-API-Key", aliceKey)

	_, err := NewResolver(failingLookup{}, Config{}).Resolve(req)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInternal))
}

func TestMiddleware(t *testing.T) {
	resolver := NewResolver(seededRepo(t), Config{})

	var seen Caller
	handler := resolver.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := CallerFromContext(r.Context())
		require.True(t, ok)
		seen = c
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("X-API-Key", aliceKey)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "alice", seen.UserID())
	})

	for _, tc := range []struct {
		key    string
		status int
		code   errors.ErrorCode
	}{
		{"", http.StatusUnauthorized, errors.ErrCodeUnauthenticated},
		{"sk_wrong", http.StatusForbidden, errors.ErrCodeForbidden},
	} {
		t.Run(string(tc.code), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			if tc.key != "" {
				req.Header.Set("X-API-Key", tc.key)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			var body errors.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Code)
			assert.Equal(t, tc.status, body.Status)
		})
	}
}

func TestCallerFromEmptyContext(t *testing.T) {
	_, ok := CallerFromContext(context.Background())
	assert.False(t, ok)
}

func TestCallerLogValueHidesKey(t *testing.T) {
	c := Caller{account: account.AccountView{UserID: "alice", APIKey: aliceKey}, origin: netip.MustParseAddr("192.0.2.1")}
	assert.NotContains(t, c.LogValue().String(), aliceKey)
}

func TestResolverHeaderName(t *testing.T) {
	repo := account.NewInMemoryRepository()
	assert.Equal(t, DefaultHeader, NewResolver(repo, Config{}).HeaderName())
	assert.Equal(t, "X-Service-Key", NewResolver(repo, Config{HeaderName: " x-service-key "}).HeaderName())
}
