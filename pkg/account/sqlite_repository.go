package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	apperrors "github.com/tendant/simple-keyauth/pkg/errors"
	"github.com/tendant/simple-keyauth/pkg/utils"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS accounts (
    user_id       TEXT PRIMARY KEY,
    password_hash TEXT NOT NULL,
    api_key       TEXT NOT NULL UNIQUE,
    email         TEXT NOT NULL
)`

const (
	liteInsertAccount = `INSERT INTO accounts (user_id, password_hash, api_key, email) VALUES (?, ?, ?, ?)`
	liteSelectByID    = `SELECT user_id, api_key, email FROM accounts WHERE user_id = ?`
	liteSelectByKey   = `SELECT user_id, api_key, email FROM accounts WHERE api_key = ?`
	liteSelectAll     = `SELECT user_id, api_key, email FROM accounts ORDER BY user_id`
	liteExists        = `SELECT user_id FROM accounts WHERE user_id = ?`
	liteUpdateAccount = `UPDATE accounts SET password_hash = COALESCE(?, password_hash), api_key = COALESCE(?, api_key) WHERE user_id = ?`
	liteDeleteAccount = `DELETE FROM accounts WHERE user_id = ?`
)

// OpenSQLite opens the database file at path.
func OpenSQLite(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

// SQLiteRepository implements Repository on SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on db. The caller owns db.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return apperrors.InternalWrap(err, "failed to create accounts table")
	}
	return nil
}

func (r *SQLiteRepository) Create(ctx context.Context, account Account) (AccountView, error) {
	_, err := r.db.ExecContext(ctx, liteInsertAccount, account.UserID, account.PasswordHash, account.APIKey, account.Email)
	if err != nil {
		return AccountView{}, mapSQLiteError(err, "failed to insert account")
	}
	return account.View(), nil
}

func (r *SQLiteRepository) ReadByID(ctx context.Context, userID string) (AccountView, error) {
	return r.readOne(ctx, liteSelectByID, userID, userID)
}

func (r *SQLiteRepository) ReadByKey(ctx context.Context, apiKey string) (AccountView, error) {
	return r.readOne(ctx, liteSelectByKey, apiKey, "api key")
}

func (r *SQLiteRepository) readOne(ctx context.Context, query, arg, label string) (AccountView, error) {
	var v AccountView
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&v.UserID, &v.APIKey, &v.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return AccountView{}, apperrors.NotFound(resourceAccount, label)
	}
	if err != nil {
		return AccountView{}, apperrors.InternalWrap(err, "failed to read account")
	}
	return v, nil
}

func (r *SQLiteRepository) ReadAll(ctx context.Context) ([]AccountView, error) {
	rows, err := r.db.QueryContext(ctx, liteSelectAll)
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

func (r *SQLiteRepository) Update(ctx context.Context, userID string, update AccountUpdate) error {
	if update.IsEmpty() {
		return apperrors.BadRequest("no fields to update")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.InternalWrap(err, "failed to begin transaction")
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("Failed rolling back account update", "error", err, "user_id", userID)
		}
	}()

	var existing string
	err = tx.QueryRowContext(ctx, liteExists, userID).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(resourceAccount, userID)
	}
	if err != nil {
		return apperrors.InternalWrap(err, "failed to read account")
	}

	if _, err := tx.ExecContext(ctx, liteUpdateAccount, utils.ToNullString(update.PasswordHash), utils.ToNullString(update.APIKey), userID); err != nil {
		return mapSQLiteError(err, "failed to update account")
	}

	if err := tx.Commit(); err != nil {
		return apperrors.InternalWrap(err, "failed to commit account update")
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, liteDeleteAccount, userID)
	if err != nil {
		return apperrors.InternalWrap(err, "failed to delete account")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.InternalWrap(err, "failed to delete account")
	}
	if n == 0 {
		return apperrors.NotFound(resourceAccount, userID)
	}
	return nil
}

func mapSQLiteError(err error, message string) error {
	if !isSQLiteUniqueViolation(err) {
		return apperrors.InternalWrap(err, message)
	}
	if strings.Contains(err.Error(), "accounts.api_key") {
		return apperrors.DuplicateKey(FieldAPIKey, err)
	}
	return apperrors.DuplicateKey(FieldUserID, err)
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
