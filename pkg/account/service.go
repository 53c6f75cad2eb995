package account

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/tendant/simple-keyauth/pkg/apikey"
	"github.com/tendant/simple-keyauth/pkg/errors"
	"github.com/tendant/simple-keyauth/pkg/metrics"
	"github.com/tendant/simple-keyauth/pkg/utils"
)

// PasswordHasher produces storable password hashes.
// HashAndCheck must verify its own output before returning it.
type PasswordHasher interface {
	HashAndCheck(ctx context.Context, password string) (string, error)
}

const defaultMintAttempts = 5

// Service orchestrates account lifecycle on top of a Repository.
type Service struct {
	repo         Repository
	hasher       PasswordHasher
	issuer       apikey.Issuer
	mintAttempts uint64
	mintBackoff  time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithIssuer replaces the default crypto-random key generator.
func WithIssuer(issuer apikey.Issuer) Option {
	return func(s *Service) {
		s.issuer = issuer
	}
}

// WithMintAttempts sets how many keys are tried when a generated key collides.
func WithMintAttempts(n uint64) Option {
	return func(s *Service) {
		if n > 0 {
			s.mintAttempts = n
		}
	}
}

// NewService creates an account service.
func NewService(repo Repository, hasher PasswordHasher, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		hasher:       hasher,
		issuer:       apikey.NewGenerator(),
		mintAttempts: defaultMintAttempts,
		mintBackoff:  time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount validates the request, hashes the password, mints an api key
// and stores the account. The returned view carries the new key.
func (s *Service) CreateAccount(ctx context.Context, req NewAccountRequest) (view AccountView, err error) {
	defer func() { metrics.RecordAccountOperation("create", err) }()

	if err := validateNewAccount(req); err != nil {
		return AccountView{}, err
	}

	hash, err := s.hasher.HashAndCheck(ctx, req.Password)
	if err != nil {
		return AccountView{}, err
	}

	view, err = s.storeWithFreshKey(ctx, func(key string) (AccountView, error) {
		return s.repo.Create(ctx, Account{
			UserID:       req.UserID,
			PasswordHash: hash,
			APIKey:       key,
			Email:        req.Email,
		})
	})
	if err != nil {
		return AccountView{}, err
	}

	slog.Info("Account created", "user_id", view.UserID, "email", utils.MaskEmail(view.Email))
	return view, nil
}

// storeWithFreshKey calls store with newly issued keys until one does not
// collide with an existing account.
func (s *Service) storeWithFreshKey(ctx context.Context, store func(key string) (AccountView, error)) (AccountView, error) {
	var view AccountView
	backoff := retry.WithMaxRetries(s.mintAttempts-1, retry.NewConstant(s.mintBackoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		key, err := s.issuer.Issue()
		if err != nil {
			return err
		}
		if key == "" {
			return errors.Internal("issued an empty api key")
		}

		view, err = store(key)
		if errors.IsDuplicateField(err, FieldAPIKey) {
			metrics.RecordKeyCollision()
			slog.Warn("Generated api key collided, retrying")
			return retry.RetryableError(err)
		}
		return err
	})
	if errors.IsDuplicateField(err, FieldAPIKey) {
		return AccountView{}, errors.InternalWrap(err, "failed to mint a unique api key")
	}
	if err != nil {
		return AccountView{}, err
	}
	return view, nil
}

// UpdateAccount changes the password, the api key, or both in one write.
func (s *Service) UpdateAccount(ctx context.Context, req UpdateAccountRequest, userID string) (err error) {
	defer func() { metrics.RecordAccountOperation("update", err) }()

	if req.IsEmpty() {
		return errors.BadRequest("no fields to update")
	}
	if req.Password != nil && *req.Password == "" {
		return errors.BadRequest("password must not be empty")
	}
	if req.APIKey != nil && strings.TrimSpace(*req.APIKey) == "" {
		return errors.BadRequest("api_key must not be empty")
	}

	// Fail before paying for a hash.
	if _, err := s.repo.ReadByID(ctx, userID); err != nil {
		return err
	}

	var update AccountUpdate
	if req.APIKey != nil {
		key := strings.TrimSpace(*req.APIKey)
		update.APIKey = &key
	}
	if req.Password != nil {
		hash, err := s.hasher.HashAndCheck(ctx, *req.Password)
		if err != nil {
			return err
		}
		update.PasswordHash = &hash
	}

	if err := s.repo.Update(ctx, userID, update); err != nil {
		return err
	}

	slog.Info("Account updated", "user_id", userID, "password", req.Password != nil, "api_key", req.APIKey != nil)
	return nil
}

// RotateAPIKey replaces the account's key with a newly minted one.
func (s *Service) RotateAPIKey(ctx context.Context, userID string) (view AccountView, err error) {
	defer func() { metrics.RecordAccountOperation("rotate_key", err) }()

	current, err := s.repo.ReadByID(ctx, userID)
	if err != nil {
		return AccountView{}, err
	}

	view, err = s.storeWithFreshKey(ctx, func(key string) (AccountView, error) {
		if err := s.repo.Update(ctx, userID, AccountUpdate{APIKey: &key}); err != nil {
			return AccountView{}, err
		}
		current.APIKey = key
		return current, nil
	})
	if err != nil {
		return AccountView{}, err
	}

	slog.Info("Account api key rotated", "user_id", userID)
	return view, nil
}

func (s *Service) DeleteAccount(ctx context.Context, userID string) (err error) {
	defer func() { metrics.RecordAccountOperation("delete", err) }()

	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	slog.Info("Account deleted", "user_id", userID)
	return nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]AccountView, error) {
	return s.repo.ReadAll(ctx)
}

func (s *Service) GetAccount(ctx context.Context, userID string) (AccountView, error) {
	return s.repo.ReadByID(ctx, userID)
}

func (s *Service) GetAccountByKey(ctx context.Context, apiKey string) (AccountView, error) {
	return s.repo.ReadByKey(ctx, apiKey)
}

func validateNewAccount(req NewAccountRequest) error {
	switch {
	case strings.TrimSpace(req.UserID) == "":
		return errors.BadRequest("user_id is required")
	case req.Password == "":
		return errors.BadRequest("password is required")
	case strings.TrimSpace(req.Email) == "":
		return errors.BadRequest("email is required")
	}
	return nil
}
