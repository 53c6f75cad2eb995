package account

import (
	"context"
)

// Repository defines durable storage for accounts.
//
// Implementations return errors from pkg/errors: NotFound for a missing
// account and DuplicateKey (with the "field" detail set to FieldUserID or
// FieldAPIKey) for uniqueness violations. Anything else is Internal.
type Repository interface {
	// EnsureSchema creates the accounts table if it does not exist.
	EnsureSchema(ctx context.Context) error

	Create(ctx context.Context, account Account) (AccountView, error)
	ReadByID(ctx context.Context, userID string) (AccountView, error)
	ReadByKey(ctx context.Context, apiKey string) (AccountView, error)
	ReadAll(ctx context.Context) ([]AccountView, error)

	// Update applies every present field of update atomically.
	Update(ctx context.Context, userID string, update AccountUpdate) error
	Delete(ctx context.Context, userID string) error
}

const resourceAccount = "account"
