package router

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tendant/simple-keyauth/pkg/account"
	accountapi "github.com/tendant/simple-keyauth/pkg/account/api"
	"github.com/tendant/simple-keyauth/pkg/apiauth"
	"github.com/tendant/simple-keyauth/pkg/audit"
	pkgconfig "github.com/tendant/simple-keyauth/pkg/config"
	"github.com/tendant/simple-keyauth/pkg/metrics"
	"github.com/tendant/simple-keyauth/pkg/password"
)

// MinimalOptions contains minimal configuration for wiring the account API
type MinimalOptions struct {
	// Required
	Repository account.Repository

	// Optional - defaults will be used if not provided
	PasswordParams      *password.Params        // Argon2id cost (default: password.DefaultParams())
	HashWorkers         int                     // Concurrent hash limit (default: GOMAXPROCS)
	PrefixConfig        *pkgconfig.PrefixConfig // API route prefix (default: /api/v1)
	Auth                apiauth.Config          // Credential header and origin mode
	RegistrationEnabled bool                    // Allow POST /users without an API key (default: false)
	Registry            *prometheus.Registry    // Metrics registry; /metrics is not mounted when nil
	AuditEnabled        bool                    // Log one audit record per authenticated request
	ServiceOptions      []account.Option
	// Service replaces the service built from the options above
	Service *account.Service
}

// NewMinimalConfig creates a router configuration with sane defaults
//
// Example:
//
//	cfg, err := router.NewMinimalConfig(router.MinimalOptions{
//	    Repository: account.NewInMemoryRepository(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	router.SetupRoutes(r, cfg)
func NewMinimalConfig(opts MinimalOptions) (Config, error) {
	service := opts.Service
	if service == nil {
		params := password.DefaultParams()
		if opts.PasswordParams != nil {
			params = *opts.PasswordParams
		}
		hasher, err := password.NewHasher(params)
		if err != nil {
			return Config{}, err
		}
		service = account.NewService(
			opts.Repository,
			password.NewPool(hasher, opts.HashWorkers),
			opts.ServiceOptions...,
		)
	}

	prefixConfig := pkgconfig.PrefixConfig{API: "/api/v1"}
	if opts.PrefixConfig != nil {
		prefixConfig = *opts.PrefixConfig
	}

	cfg := Config{
		PrefixConfig:        prefixConfig,
		AccountHandle:       accountapi.NewHandler(service),
		Resolver:            apiauth.NewResolver(opts.Repository, opts.Auth),
		RegistrationEnabled: opts.RegistrationEnabled,
	}

	if opts.AuditEnabled {
		cfg.Audit = audit.NewMiddleware(audit.Config{})
	}

	if opts.Registry != nil {
		metrics.RegisterMetrics(opts.Registry)
		cfg.MetricsHandler = metrics.Handler(opts.Registry)
	}

	return cfg, nil
}
