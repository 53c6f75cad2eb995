package account

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-keyauth/pkg/errors"
)

var viewColumns = []string{"user_id", "api_key", "email"}

func TestPostgresRepository_Create(t *testing.T) {
	alice := Account{UserID: "alice", PasswordHash: "$argon2id$h", APIKey: "sk_a", Email: "alice@example.com"}

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantCode  errors.ErrorCode
		wantField string
	}{
		{
			name: "inserted",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(regexp.QuoteMeta(pgInsertAccount)).
					WithArgs("alice", "$argon2id$h", "sk_a", "alice@example.com").
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "duplicate user id",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(regexp.QuoteMeta(pgInsertAccount)).
					WithArgs("alice", "$argon2id$h", "sk_a", "alice@example.com").
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "accounts_pkey"})
			},
			wantCode:  errors.ErrCodeDuplicateKey,
			wantField: FieldUserID,
		},
		{
			name: "duplicate api key",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(regexp.QuoteMeta(pgInsertAccount)).
					WithArgs("alice", "$argon2id$h", "sk_a", "alice@example.com").
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "accounts_api_key_key"})
			},
			wantCode:  errors.ErrCodeDuplicateKey,
			wantField: FieldAPIKey,
		},
		{
			name: "connection failure",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(regexp.QuoteMeta(pgInsertAccount)).
					WithArgs("alice", "$argon2id$h", "sk_a", "alice@example.com").
					WillReturnError(fmt.Errorf("connection refused"))
			},
			wantCode: errors.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewPostgresRepository(mock)
			view, err := repo.Create(context.Background(), alice)

			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, alice.View(), view)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.GetCode(err))
				if tt.wantField != "" {
					assert.True(t, errors.IsDuplicateField(err, tt.wantField))
				}
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestPostgresRepository_ReadByKey(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(pgSelectByKey)).
		WithArgs("sk_a").
		WillReturnRows(pgxmock.NewRows(viewColumns).AddRow("alice", "sk_a", "alice@example.com"))
	mock.ExpectQuery(regexp.QuoteMeta(pgSelectByKey)).
		WithArgs("sk_secret").
		WillReturnError(pgx.ErrNoRows)

	repo := NewPostgresRepository(mock)

	view, err := repo.ReadByKey(context.Background(), "sk_a")
	require.NoError(t, err)
	assert.Equal(t, AccountView{UserID: "alice", APIKey: "sk_a", Email: "alice@example.com"}, view)

	_, err = repo.ReadByKey(context.Background(), "sk_secret")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	assert.NotContains(t, err.Error(), "sk_secret")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ReadAll(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(pgSelectAll)).
		WillReturnRows(pgxmock.NewRows(viewColumns).
			AddRow("alice", "sk_a", "alice@example.com").
			AddRow("bob", "sk_b", "bob@example.com"))

	views, err := NewPostgresRepository(mock).ReadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, views, 2)
	assert.Equal(t, "bob", views[1].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Update(t *testing.T) {
	hash := "$argon2id$new"
	key := "sk_new"

	tests := []struct {
		name      string
		update    AccountUpdate
		setupMock func(mock pgxmock.PgxPoolIface)
		wantCode  errors.ErrorCode
	}{
		{
			name:   "both fields in one transaction",
			update: AccountUpdate{PasswordHash: &hash, APIKey: &key},
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(pgLockByID)).
					WithArgs("alice").
					WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow("alice"))
				mock.ExpectExec(regexp.QuoteMeta(pgUpdateAccount)).
					WithArgs("alice", &hash, &key).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectCommit()
			},
		},
		{
			name:   "missing account rolls back",
			update: AccountUpdate{APIKey: &key},
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(pgLockByID)).
					WithArgs("alice").
					WillReturnError(pgx.ErrNoRows)
				mock.ExpectRollback()
			},
			wantCode: errors.ErrCodeNotFound,
		},
		{
			name:   "key collision rolls back",
			update: AccountUpdate{PasswordHash: &hash, APIKey: &key},
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(pgLockByID)).
					WithArgs("alice").
					WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow("alice"))
				mock.ExpectExec(regexp.QuoteMeta(pgUpdateAccount)).
					WithArgs("alice", pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "accounts_api_key_key"})
				mock.ExpectRollback()
			},
			wantCode: errors.ErrCodeDuplicateKey,
		},
		{
			name:   "begin failure",
			update: AccountUpdate{APIKey: &key},
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin().WillReturnError(fmt.Errorf("pool exhausted"))
			},
			wantCode: errors.ErrCodeInternal,
		},
		{
			name:      "empty update never touches the database",
			update:    AccountUpdate{},
			setupMock: func(mock pgxmock.PgxPoolIface) {},
			wantCode:  errors.ErrCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setupMock(mock)

			err = NewPostgresRepository(mock).Update(context.Background(), "alice", tt.update)
			if tt.wantCode == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.GetCode(err))
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta(pgDeleteAccount)).
		WithArgs("alice").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta(pgDeleteAccount)).
		WithArgs("alice").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewPostgresRepository(mock)
	require.NoError(t, repo.Delete(context.Background(), "alice"))

	err = repo.Delete(context.Background(), "alice")
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_EnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS accounts`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, NewPostgresRepository(mock).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
