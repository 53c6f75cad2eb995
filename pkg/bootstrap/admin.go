package bootstrap

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tendant/simple-keyauth/pkg/account"
)

// generatedPasswordBytes is the entropy of an auto-generated admin password.
const generatedPasswordBytes = 18

// AccountCreator is the part of account.Service the bootstrap needs.
type AccountCreator interface {
	ListAccounts(ctx context.Context) ([]account.AccountView, error)
	CreateAccount(ctx context.Context, req account.NewAccountRequest) (account.AccountView, error)
}

// AdminBootstrapConfig contains configuration for bootstrapping the first account
type AdminBootstrapConfig struct {
	// Admin account (from ADMIN_USER_ID, ADMIN_EMAIL, ADMIN_PASSWORD)
	AdminUserID   string
	AdminEmail    string
	AdminPassword string // generated when empty

	Service AccountCreator
}

// AdminBootstrapResult contains the result of admin bootstrap operation
type AdminBootstrapResult struct {
	UserID      string
	Email       string
	APIKey      string
	Password    string // Only populated if auto-generated
	UserCreated bool   // true if the account was created, false if skipped

	// Password was provided via environment variable
	PasswordFromEnv bool
}

// BootstrapAdmin creates the first account when the store is empty, so an
// operator has an API key to call the protected routes with. It does nothing
// once any account exists.
func BootstrapAdmin(ctx context.Context, cfg AdminBootstrapConfig) (*AdminBootstrapResult, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid bootstrap configuration: %w", err)
	}

	existing, err := cfg.Service.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check if accounts exist: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("Accounts already exist - skipping admin bootstrap", "accounts", len(existing))
		return &AdminBootstrapResult{UserCreated: false}, nil
	}

	slog.Info("No accounts exist - starting admin bootstrap", "user_id", cfg.AdminUserID)

	password := cfg.AdminPassword
	if password == "" {
		password, err = generatePassword()
		if err != nil {
			return nil, err
		}
	}

	view, err := cfg.Service.CreateAccount(ctx, account.NewAccountRequest{
		UserID:   cfg.AdminUserID,
		Email:    cfg.AdminEmail,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create admin account: %w", err)
	}

	result := &AdminBootstrapResult{
		UserID:          view.UserID,
		Email:           view.Email,
		APIKey:          view.APIKey,
		UserCreated:     true,
		PasswordFromEnv: cfg.AdminPassword != "",
	}
	if !result.PasswordFromEnv {
		result.Password = password
	}

	slog.Info("Admin bootstrap completed successfully", "user_id", result.UserID)
	return result, nil
}

// validateConfig validates the bootstrap configuration
func validateConfig(cfg AdminBootstrapConfig) error {
	if strings.TrimSpace(cfg.AdminUserID) == "" {
		return fmt.Errorf("admin user id is required")
	}
	if strings.TrimSpace(cfg.AdminEmail) == "" {
		return fmt.Errorf("admin email is required")
	}
	if cfg.Service == nil {
		return fmt.Errorf("Service is required")
	}
	return nil
}

func generatePassword() (string, error) {
	buf := make([]byte, generatedPasswordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate admin password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
