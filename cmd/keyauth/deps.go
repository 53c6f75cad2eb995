package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-keyauth/pkg/account"
	"github.com/tendant/simple-keyauth/pkg/config"
	"github.com/tendant/simple-keyauth/pkg/password"
)

// loadConfig reads the configuration and installs the default logger. Logs
// go to STDERR so commands can keep STDOUT for their result.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.SetDefault(cfg.Log.NewLogger(os.Stderr))
	return cfg, nil
}

// openRepository connects the configured storage backend. The returned
// close function releases the pool or database handle.
func openRepository(ctx context.Context, cfg config.Config) (account.Repository, func(), error) {
	switch cfg.Storage.Backend {
	case account.PersistencePostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.ToDatabaseURL())
		if err != nil {
			return nil, nil, fmt.Errorf("failed creating dbpool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed connecting to %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
		}
		repo, err := account.NewRepository(account.PersistencePostgres, account.RepositoryConfig{Pool: pool})
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil

	case account.PersistenceSQLite:
		db, err := account.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		repo, err := account.NewRepository(account.PersistenceSQLite, account.RepositoryConfig{DB: db})
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repo, func() {
			if err := db.Close(); err != nil {
				slog.Error("Failed closing sqlite database", "path", cfg.Storage.SQLitePath, "error", err)
			}
		}, nil

	default:
		repo, err := account.NewRepository(cfg.Storage.Backend, account.RepositoryConfig{})
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	}
}

// newService builds the account service used by the CLI commands.
func newService(repo account.Repository, cfg config.Config) (*account.Service, error) {
	hasher, err := password.NewHasher(cfg.Password.ToParams())
	if err != nil {
		return nil, err
	}
	params := hasher.Params()
	slog.Debug("Password hasher ready", "memory", params.Memory, "iterations", params.Iterations, "parallelism", params.Parallelism)
	return account.NewService(repo, password.NewPool(hasher, cfg.Password.Workers)), nil
}
