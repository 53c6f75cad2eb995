package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-keyauth/pkg/account"
	"github.com/tendant/simple-keyauth/pkg/config"
)

func testConfig(backend string, t *testing.T) config.Config {
	return config.Config{
		Storage: config.StorageConfig{
			Backend:    backend,
			SQLitePath: filepath.Join(t.TempDir(), "keyauth.db"),
		},
		Password: config.PasswordConfig{Memory: 64, Iterations: 1, Parallelism: 1, KeyLength: 32, Workers: 1},
	}
}

func TestOpenRepositoryAndRotate(t *testing.T) {
	for _, backend := range []string{account.PersistenceMemory, account.PersistenceSQLite} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(backend, t)

			repo, closeRepo, err := openRepository(ctx, cfg)
			require.NoError(t, err)
			defer closeRepo()
			require.NoError(t, repo.EnsureSchema(ctx))

			service, err := newService(repo, cfg)
			require.NoError(t, err)

			created, err := service.CreateAccount(ctx, account.NewAccountRequest{UserID: "admin", Password: "pw", Email: "admin@example.com"})
			require.NoError(t, err)

			rotated, err := service.RotateAPIKey(ctx, "admin")
			require.NoError(t, err)
			assert.NotEqual(t, created.APIKey, rotated.APIKey)

			_, err = repo.ReadByKey(ctx, created.APIKey)
			assert.Error(t, err)
		})
	}
}

func TestOpenRepositoryUnknownBackend(t *testing.T) {
	_, _, err := openRepository(context.Background(), testConfig("file", t))
	assert.Error(t, err)
}

func TestNewServiceRejectsInvalidParams(t *testing.T) {
	_, err := newService(account.NewInMemoryRepository(), config.Config{})
	assert.Error(t, err)
}

func TestCreateAccountKeepsStdoutForTheKey(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("STORAGE_BACKEND", account.PersistenceMemory)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PASSWORD_ARGON2_MEMORY", "64")
	t.Setenv("PASSWORD_ARGON2_ITERATIONS", "1")
	t.Setenv("PASSWORD_ARGON2_PARALLELISM", "1")

	defaultLogger := slog.Default()
	stdout := os.Stdout
	t.Cleanup(func() {
		os.Stdout = stdout
		slog.SetDefault(defaultLogger)
	})

	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	view, err := createAccount(account.NewAccountRequest{UserID: "admin", Password: "pw", Email: "admin@example.com"})
	os.Stdout = stdout
	require.NoError(t, w.Close())
	require.NoError(t, err)
	assert.NotEmpty(t, view.APIKey)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, string(out))
}
