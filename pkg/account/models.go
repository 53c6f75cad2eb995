package account

import (
	"github.com/jinzhu/copier"
)

// Account is a stored account record.
type Account struct {
	UserID       string `json:"user_id"`
	PasswordHash string `json:"-"`
	APIKey       string `json:"api_key"`
	Email        string `json:"email"`
}

// AccountView is an account without its password hash. It is the only
// account shape returned by the service and the repositories.
type AccountView struct {
	UserID string `json:"user_id"`
	APIKey string `json:"api_key"`
	Email  string `json:"email"`
}

// View strips the password hash.
func (a Account) View() AccountView {
	var v AccountView
	// copier only fails on nil or mismatched kinds, neither possible here
	_ = copier.Copy(&v, &a)
	return v
}

// NewAccountRequest contains parameters for creating an account.
type NewAccountRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// UpdateAccountRequest carries the fields to change. A nil field is left as is.
type UpdateAccountRequest struct {
	Password *string `json:"password,omitempty"`
	APIKey   *string `json:"api_key,omitempty"`
}

// IsEmpty reports whether the request changes nothing.
func (r UpdateAccountRequest) IsEmpty() bool {
	return r.Password == nil && r.APIKey == nil
}

// AccountUpdate is the storage-level change set. PasswordHash is already hashed.
type AccountUpdate struct {
	PasswordHash *string
	APIKey       *string
}

// IsEmpty reports whether the update changes nothing.
func (u AccountUpdate) IsEmpty() bool {
	return u.PasswordHash == nil && u.APIKey == nil
}

// Duplicate key fields reported in errors.Error details.
const (
	FieldUserID = "user_id"
	FieldAPIKey = "api_key"
)
