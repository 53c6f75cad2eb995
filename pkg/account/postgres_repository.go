package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/tendant/simple-keyauth/pkg/errors"
)

// DBTX is the subset of *pgxpool.Pool used by PostgresRepository.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const postgresSchema = `CREATE TABLE IF NOT EXISTS accounts (
    user_id       TEXT PRIMARY KEY,
    password_hash TEXT NOT NULL,
    api_key       TEXT NOT NULL,
    email         TEXT NOT NULL,
    CONSTRAINT accounts_api_key_key UNIQUE (api_key)
)`

const (
	pgInsertAccount = `INSERT INTO accounts (user_id, password_hash, api_key, email) VALUES ($1, $2, $3, $4)`
	pgSelectByID    = `SELECT user_id, api_key, email FROM accounts WHERE user_id = $1`
	pgSelectByKey   = `SELECT user_id, api_key, email FROM accounts WHERE api_key = $1`
	pgSelectAll     = `SELECT user_id, api_key, email FROM accounts ORDER BY user_id`
	pgLockByID      = `SELECT user_id FROM accounts WHERE user_id = $1 FOR UPDATE`
	pgUpdateAccount = `UPDATE accounts SET password_hash = COALESCE($2, password_hash), api_key = COALESCE($3, api_key) WHERE user_id = $1`
	pgDeleteAccount = `DELETE FROM accounts WHERE user_id = $1`
)

// PostgresRepository implements Repository on PostgreSQL.
type PostgresRepository struct {
	db DBTX
}

// NewPostgresRepository creates a repository on db. The caller owns db.
func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, postgresSchema); err != nil {
		return apperrors.InternalWrap(err, "failed to create accounts table")
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, account Account) (AccountView, error) {
	_, err := r.db.Exec(ctx, pgInsertAccount, account.UserID, account.PasswordHash, account.APIKey, account.Email)
	if err != nil {
		return AccountView{}, mapPgError(err, "failed to insert account")
	}
	return account.View(), nil
}

func (r *PostgresRepository) ReadByID(ctx context.Context, userID string) (AccountView, error) {
	return r.readOne(ctx, pgSelectByID, userID, userID)
}

func (r *PostgresRepository) ReadByKey(ctx context.Context, apiKey string) (AccountView, error) {
	// the key itself is never echoed back in the error
	return r.readOne(ctx, pgSelectByKey, apiKey, "api key")
}

func (r *PostgresRepository) readOne(ctx context.Context, query, arg, label string) (AccountView, error) {
	var v AccountView
	err := r.db.QueryRow(ctx, query, arg).Scan(&v.UserID, &v.APIKey, &v.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return AccountView{}, apperrors.NotFound(resourceAccount, label)
	}
	if err != nil {
		return AccountView{}, apperrors.InternalWrap(err, "failed to read account")
	}
	return v, nil
}

func (r *PostgresRepository) ReadAll(ctx context.Context) ([]AccountView, error) {
	rows, err := r.db.Query(ctx, pgSelectAll)
	if err != nil {
		return nil, apperrors.InternalWrap(err, "failed to list accounts")
	}
	defer rows.Close()

	views := []AccountView{}
	for rows.Next() {
		var v AccountView
		if err := rows.Scan(&v.UserID, &v.APIKey, &v.Email); err != nil {
			return nil, apperrors.InternalWrap(err, "failed to scan account")
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.InternalWrap(err, "failed to list accounts")
	}
	return views, nil
}

// Update locks the row, applies every present field in one statement, and commits.
func (r *PostgresRepository) Update(ctx context.Context, userID string, update AccountUpdate) error {
	if update.IsEmpty() {
		return apperrors.BadRequest("no fields to update")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperrors.InternalWrap(err, "failed to begin transaction")
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("Failed rolling back account update", "error", err, "user_id", userID)
		}
	}()

	var locked string
	err = tx.QueryRow(ctx, pgLockByID, userID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NotFound(resourceAccount, userID)
	}
	if err != nil {
		return apperrors.InternalWrap(err, "failed to lock account")
	}

	if _, err := tx.Exec(ctx, pgUpdateAccount, userID, update.PasswordHash, update.APIKey); err != nil {
		return mapPgError(err, "failed to update account")
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.InternalWrap(err, "failed to commit account update")
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID string) error {
	tag, err := r.db.Exec(ctx, pgDeleteAccount, userID)
	if err != nil {
		return apperrors.InternalWrap(err, "failed to delete account")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(resourceAccount, userID)
	}
	return nil
}

func mapPgError(err error, message string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "api_key") {
			return apperrors.DuplicateKey(FieldAPIKey, err)
		}
		return apperrors.DuplicateKey(FieldUserID, err)
	}
	return apperrors.InternalWrap(err, message)
}
