package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tendant/chi-demo/app"

	"github.com/tendant/simple-keyauth/pkg/account"
	"github.com/tendant/simple-keyauth/pkg/bootstrap"
	"github.com/tendant/simple-keyauth/pkg/router"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the HTTP API server.

With the postgres backend, database migrations are run on startup. Use
--no-migrate to skip them. The sqlite and memory backends create their
schema directly.

Example:
  keyauth serve
  STORAGE_BACKEND=sqlite SQLITE_PATH=/var/lib/keyauth/keyauth.db keyauth serve`,
	Run: func(cmd *cobra.Command, args []string) {
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")

		if err := serve(noMigrate); err != nil {
			fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("no-migrate", false, "Skip database migrations on startup")
}

func serve(noMigrate bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	slog.Info("Starting keyauth", "storage", cfg.Storage.Backend, "prefix", cfg.Prefix.API, "registration", cfg.Auth.RegistrationEnabled)

	if cfg.Storage.Backend == account.PersistencePostgres && !noMigrate {
		slog.Info("Running database migrations")
		if err := migrateUp(cfg.Database.ToDatabaseURL()); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	ctx := context.Background()
	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to prepare schema: %w", err)
	}

	service, err := newService(repo, cfg)
	if err != nil {
		return err
	}

	if cfg.Bootstrap.Enabled() {
		result, err := bootstrap.BootstrapAdmin(ctx, bootstrap.AdminBootstrapConfig{
			AdminUserID:   cfg.Bootstrap.AdminUserID,
			AdminEmail:    cfg.Bootstrap.AdminEmail,
			AdminPassword: cfg.Bootstrap.AdminPassword,
			Service:       service,
		})
		if err != nil {
			return err
		}
		bootstrap.PrintBootstrapResult(os.Stdout, result)
		bootstrap.LogBootstrapSummary(result)
	}

	prefixConfig := cfg.Prefix
	routerConfig, err := router.NewMinimalConfig(router.MinimalOptions{
		Repository:          repo,
		Service:             service,
		PrefixConfig:        &prefixConfig,
		Auth:                cfg.Auth.ToResolverConfig(),
		RegistrationEnabled: cfg.Auth.RegistrationEnabled,
		AuditEnabled:        cfg.Auth.AuditEnabled,
		Registry:            prometheus.NewRegistry(),
	})
	if err != nil {
		return err
	}

	slog.Info("API key gate ready", "header", routerConfig.Resolver.HeaderName(), "trust_proxy_headers", cfg.Auth.TrustProxyHeaders)

	server := app.DefaultApp()
	app.RegisterHealthzRoutes(server.R)
	router.SetupRoutes(server.R, routerConfig)

	server.Run()
	return nil
}
