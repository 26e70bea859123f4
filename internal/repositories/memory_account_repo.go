package repositories

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/mybiotracker/internal/models"
	"github.com/google/uuid"
)

type memoryEntry struct {
	email string // immutable, readable without mu

	mu      sync.Mutex
	account *models.Account
	deleted bool
}

// MemoryAccountRepository keeps accounts in process memory. Updates to one account are
// serialized by that account's mutex; different accounts never contend.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*memoryEntry
	byEmail  map[string]string
	now      func() time.Time
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[string]*memoryEntry),
		byEmail:  make(map[string]string),
		now:      time.Now,
	}
}

// WithClock replaces the timestamp source, for tests
func (r *MemoryAccountRepository) WithClock(now func() time.Time) *MemoryAccountRepository {
	r.now = now
	return r
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *MemoryAccountRepository) entry(id string) *memoryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.accounts[id]
}

func (e *memoryEntry) snapshot() (*models.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, models.ErrNotFound
	}
	return e.account.Clone(), nil
}

func (r *MemoryAccountRepository) GetByID(_ context.Context, id string) (*models.Account, error) {
	e := r.entry(id)
	if e == nil {
		return nil, models.ErrNotFound
	}
	return e.snapshot()
}

func (r *MemoryAccountRepository) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	id, ok := r.byEmail[normalizeEmail(email)]
	e := r.accounts[id]
	r.mu.RUnlock()
	if !ok || e == nil {
		return nil, models.ErrNotFound
	}
	return e.snapshot()
}

func (r *MemoryAccountRepository) List(_ context.Context, limit, offset int) ([]*models.Account, error) {
	r.mu.RLock()
	entries := make([]*memoryEntry, 0, len(r.accounts))
	for _, e := range r.accounts {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	accounts := make([]*models.Account, 0, len(entries))
	for _, e := range entries {
		if a, err := e.snapshot(); err == nil {
			accounts = append(accounts, a)
		}
	}

	slices.SortFunc(accounts, func(a, b *models.Account) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if offset >= len(accounts) {
		return []*models.Account{}, nil
	}
	accounts = accounts[offset:]
	if limit >= 0 && limit < len(accounts) {
		accounts = accounts[:limit]
	}
	return accounts, nil
}

func (r *MemoryAccountRepository) Create(_ context.Context, account *models.Account) (*models.Account, error) {
	stored := account.Clone()
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	stored.Email = normalizeEmail(stored.Email)
	now := r.now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[stored.Email]; exists {
		return nil, models.ErrConflict
	}
	if _, exists := r.accounts[stored.ID]; exists {
		return nil, models.ErrConflict
	}

	r.accounts[stored.ID] = &memoryEntry{email: stored.Email, account: stored}
	r.byEmail[stored.Email] = stored.ID
	return stored.Clone(), nil
}

// Update applies fn to a private copy and publishes it only if fn succeeds.
// ID, email and creation time are not writable.
func (r *MemoryAccountRepository) Update(_ context.Context, id string, fn func(*models.Account) error) (*models.Account, error) {
	e := r.entry(id)
	if e == nil {
		return nil, models.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, models.ErrNotFound
	}

	working := e.account.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.ID = e.account.ID
	working.Email = e.account.Email
	working.CreatedAt = e.account.CreatedAt
	working.UpdatedAt = r.now()

	e.account = working
	return working.Clone(), nil
}

func (r *MemoryAccountRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	e, ok := r.accounts[id]
	if !ok {
		r.mu.Unlock()
		return models.ErrNotFound
	}
	delete(r.accounts, id)
	delete(r.byEmail, e.email)
	r.mu.Unlock()

	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()
	return nil
}
