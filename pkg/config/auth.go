package config

import (
	"github.com/tendant/simple-keyauth/pkg/apiauth"
	"github.com/tendant/simple-keyauth/pkg/password"
)

// AuthConfig controls API key authentication.
type AuthConfig struct {
	HeaderName string `env:"API_KEY_HEADER" env-default:"X-API-Key"`
	// TrustProxyHeaders is set when the service runs behind a gateway that
	// sets X-Forwarded-For or X-Real-IP.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" env-default:"false"`
	// RegistrationEnabled exposes POST /users without an API key.
	RegistrationEnabled bool `env:"REGISTRATION_ENABLED" env-default:"false"`
	// AuditEnabled logs one record per authenticated request.
	AuditEnabled bool `env:"AUDIT_ENABLED" env-default:"true"`
}

// ToResolverConfig converts the config to an apiauth.Config
func (a AuthConfig) ToResolverConfig() apiauth.Config {
	return apiauth.Config{
		HeaderName:        a.HeaderName,
		TrustProxyHeaders: a.TrustProxyHeaders,
	}
}

func (a AuthConfig) validate() ValidationErrors {
	return collect(RequireNonEmpty("API_KEY_HEADER", a.HeaderName))
}

// PasswordConfig holds the Argon2id cost parameters.
type PasswordConfig struct {
	Memory      uint32 `env:"PASSWORD_ARGON2_MEMORY" env-default:"65536"`
	Iterations  uint32 `env:"PASSWORD_ARGON2_ITERATIONS" env-default:"10"`
	Parallelism uint8  `env:"PASSWORD_ARGON2_PARALLELISM" env-default:"4"`
	KeyLength   uint32 `env:"PASSWORD_ARGON2_KEY_LENGTH" env-default:"32"`
	// Workers bounds concurrent hash computations; 0 means GOMAXPROCS.
	Workers int `env:"PASSWORD_HASH_WORKERS" env-default:"0"`
}

// ToParams converts the config to password.Params
func (p PasswordConfig) ToParams() password.Params {
	return password.Params{
		Memory:      p.Memory,
		Iterations:  p.Iterations,
		Parallelism: p.Parallelism,
		KeyLength:   p.KeyLength,
	}
}

func (p PasswordConfig) validate() ValidationErrors {
	errs := collect(RequireNonNegative("PASSWORD_HASH_WORKERS", p.Workers))
	if err := p.ToParams().Validate(); err != nil {
		errs = append(errs, ValidationError{Field: "PASSWORD_ARGON2_*", Message: err.Error()})
	}
	return errs
}

// BootstrapConfig describes the account created on first start when the
// store is empty. Bootstrap is skipped when AdminUserID is unset.
type BootstrapConfig struct {
	AdminUserID   string `env:"ADMIN_USER_ID" env-default:""`
	AdminEmail    string `env:"ADMIN_EMAIL" env-default:""`
	AdminPassword string `env:"ADMIN_PASSWORD" env-default:""`
}

// Enabled reports whether an admin account should be bootstrapped.
func (b BootstrapConfig) Enabled() bool {
	return b.AdminUserID != ""
}

func (b BootstrapConfig) validate() ValidationErrors {
	if !b.Enabled() {
		return nil
	}
	return collect(RequireNonEmpty("ADMIN_EMAIL", b.AdminEmail))
}
