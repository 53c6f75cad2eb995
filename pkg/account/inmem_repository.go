package account

import (
	"context"
	"sort"
	"sync"

	"github.com/tendant/simple-keyauth/pkg/errors"
)

// InMemoryRepository implements Repository using in-memory storage.
// Data is lost when the process exits.
type InMemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
	byKey    map[string]string // api_key -> user_id
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		accounts: make(map[string]Account),
		byKey:    make(map[string]string),
	}
}

func (r *InMemoryRepository) EnsureSchema(ctx context.Context) error {
	return nil
}

func (r *InMemoryRepository) Create(ctx context.Context, account Account) (AccountView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.UserID]; ok {
		return AccountView{}, errors.DuplicateKey(FieldUserID, nil)
	}
	if _, ok := r.byKey[account.APIKey]; ok {
		return AccountView{}, errors.DuplicateKey(FieldAPIKey, nil)
	}

	r.accounts[account.UserID] = account
	r.byKey[account.APIKey] = account.UserID
	return account.View(), nil
}

func (r *InMemoryRepository) ReadByID(ctx context.Context, userID string) (AccountView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[userID]
	if !ok {
		return AccountView{}, errors.NotFound(resourceAccount, userID)
	}
	return account.View(), nil
}

func (r *InMemoryRepository) ReadByKey(ctx context.Context, apiKey string) (AccountView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.byKey[apiKey]
	if !ok {
		return AccountView{}, errors.NotFound(resourceAccount, "api key")
	}
	return r.accounts[userID].View(), nil
}

func (r *InMemoryRepository) ReadAll(ctx context.Context) ([]AccountView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	views := make([]AccountView, 0, len(r.accounts))
	for _, account := range r.accounts {
		views = append(views, account.View())
	}
	sort.Slice(views, func(i, j int) bool { return views[i].UserID < views[j].UserID })
	return views, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, userID string, update AccountUpdate) error {
	if update.IsEmpty() {
		return errors.BadRequest("no fields to update")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[userID]
	if !ok {
		return errors.NotFound(resourceAccount, userID)
	}

	if update.APIKey != nil && *update.APIKey != account.APIKey {
		if _, taken := r.byKey[*update.APIKey]; taken {
			return errors.DuplicateKey(FieldAPIKey, nil)
		}
		delete(r.byKey, account.APIKey)
		account.APIKey = *update.APIKey
		r.byKey[account.APIKey] = userID
	}
	if update.PasswordHash != nil {
		account.PasswordHash = *update.PasswordHash
	}

	r.accounts[userID] = account
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[userID]
	if !ok {
		return errors.NotFound(resourceAccount, userID)
	}
	delete(r.byKey, account.APIKey)
	delete(r.accounts, userID)
	return nil
}

// passwordHash exposes the stored hash to tests in this package.
func (r *InMemoryRepository) passwordHash(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[userID]
	return account.PasswordHash, ok
}
