package account

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-keyauth/pkg/errors"
)

func strPtr(s string) *string { return &s }

// runRepositoryContract exercises behaviour every Repository must share.
func runRepositoryContract(t *testing.T, repo Repository) {
	ctx := context.Background()
	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.EnsureSchema(ctx), "EnsureSchema must be idempotent")

	newAccount := func(prefix string) Account {
		id := prefix + "-" + uuid.NewString()
		return Account{
			UserID:       id,
			PasswordHash: "$argon2id$v=19$m=64,t=1,p=1$c2FsdHNhbHQ$aGFzaA",
			APIKey:       "sk_" + uuid.NewString(),
			Email:        id + "@example.com",
		}
	}

	t.Run("create and read", func(t *testing.T) {
		a := newAccount("alice")
		view, err := repo.Create(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, a.View(), view)

		byID, err := repo.ReadByID(ctx, a.UserID)
		require.NoError(t, err)
		assert.Equal(t, a.View(), byID)

		byKey, err := repo.ReadByKey(ctx, a.APIKey)
		require.NoError(t, err)
		assert.Equal(t, a.UserID, byKey.UserID)
	})

	t.Run("duplicate user id keeps original row", func(t *testing.T) {
		a := newAccount("dup")
		_, err := repo.Create(ctx, a)
		require.NoError(t, err)

		b := a
		b.APIKey = "sk_" + uuid.NewString()
		b.Email = "other@example.com"
		_, err = repo.Create(ctx, b)
		require.Error(t, err)
		assert.True(t, errors.IsDuplicateField(err, FieldUserID), "got %v", err)

		got, err := repo.ReadByID(ctx, a.UserID)
		require.NoError(t, err)
		assert.Equal(t, a.View(), got)
	})

	t.Run("duplicate api key", func(t *testing.T) {
		a := newAccount("key")
		_, err := repo.Create(ctx, a)
		require.NoError(t, err)

		b := newAccount("key")
		b.APIKey = a.APIKey
		_, err = repo.Create(ctx, b)
		require.Error(t, err)
		assert.True(t, errors.IsDuplicateField(err, FieldAPIKey), "got %v", err)

		_, err = repo.ReadByID(ctx, b.UserID)
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	})

	t.Run("read missing", func(t *testing.T) {
		_, err := repo.ReadByID(ctx, "nobody-"+uuid.NewString())
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))

		_, err = repo.ReadByKey(ctx, "sk_missing")
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	})

	t.Run("read all", func(t *testing.T) {
		a := newAccount("list")
		_, err := repo.Create(ctx, a)
		require.NoError(t, err)

		all, err := repo.ReadAll(ctx)
		require.NoError(t, err)
		assert.Contains(t, all, a.View())
	})

	t.Run("update both fields", func(t *testing.T) {
		a := newAccount("upd")
		_, err := repo.Create(ctx, a)
		require.NoError(t, err)

		newKey := "sk_" + uuid.NewString()
		err = repo.Update(ctx, a.UserID, AccountUpdate{PasswordHash: strPtr("$argon2id$new"), APIKey: &newKey})
		require.NoError(t, err)

		got, err := repo.ReadByKey(ctx, newKey)
		require.NoError(t, err)
		assert.Equal(t, a.UserID, got.UserID)
		assert.Equal(t, a.Email, got.Email)

		_, err = repo.ReadByKey(ctx, a.APIKey)
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound), "old key must stop resolving")
	})

	t.Run("update password only keeps key", func(t *testing.T) {
		a := newAccount("pw")
		_, err := repo.Create(ctx, a)
		require.NoError(t, err)

		require.NoError(t, repo.Update(ctx, a.UserID, AccountUpdate{PasswordHash: strPtr("$argon2id$other")}))

		got, err := repo.ReadByID(ctx, a.UserID)
		require.NoError(t, err)
		assert.Equal(t, a.APIKey, got.APIKey)
	})

	t.Run("update to taken key fails without changes", func(t *testing.T) {
		a := newAccount("taken")
		b := newAccount("taken")
		_, err := repo.Create(ctx, a)
		require.NoError(t, err)
		_, err = repo.Create(ctx, b)
		require.NoError(t, err)

		err = repo.Update(ctx, b.UserID, AccountUpdate{PasswordHash: strPtr("$argon2id$x"), APIKey: &a.APIKey})
		require.Error(t, err)
		assert.True(t, errors.IsDuplicateField(err, FieldAPIKey), "got %v", err)

		got, err := repo.ReadByID(ctx, b.UserID)
		require.NoError(t, err)
		assert.Equal(t, b.APIKey, got.APIKey)
	})

	t.Run("update missing", func(t *testing.T) {
		err := repo.Update(ctx, "ghost-"+uuid.NewString(), AccountUpdate{APIKey: strPtr("sk_ghost")})
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	})

	t.Run("update nothing", func(t *testing.T) {
		err := repo.Update(ctx, "anyone", AccountUpdate{})
		assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
	})

	t.Run("delete", func(t *testing.T) {
		a := newAccount("del")
		_, err := repo.Create(ctx, a)
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, a.UserID))

		_, err = repo.ReadByID(ctx, a.UserID)
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
		_, err = repo.ReadByKey(ctx, a.APIKey)
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))

		err = repo.Delete(ctx, a.UserID)
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	})
}

func TestInMemoryRepository(t *testing.T) {
	runRepositoryContract(t, NewInMemoryRepository())
}

func TestSQLiteRepository(t *testing.T) {
	db, err := OpenSQLite(t.TempDir() + "/accounts.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	runRepositoryContract(t, NewSQLiteRepository(db))
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ")
	assert.Error(t, err)
}

func TestNewRepository(t *testing.T) {
	repo, err := NewRepository(PersistenceMemory, RepositoryConfig{})
	require.NoError(t, err)
	assert.IsType(t, &InMemoryRepository{}, repo)

	_, err = NewRepository(PersistencePostgres, RepositoryConfig{})
	assert.Error(t, err)

	_, err = NewRepository(PersistenceSQLite, RepositoryConfig{})
	assert.Error(t, err)

	_, err = NewRepository("file", RepositoryConfig{})
	assert.Error(t, err)
}
