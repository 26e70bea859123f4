package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BradenHooton/mybiotracker/internal/models"
	"github.com/redis/go-redis/v9"
)

const defaultPendingKeyPrefix = "mybiotracker:2fa:pending:"

// RedisPendingSetupStore keeps pending two-factor setups in Redis with a native TTL
type RedisPendingSetupStore struct {
	client *redis.Client
	prefix string
}

func NewRedisPendingSetupStore(client *redis.Client, prefix string) *RedisPendingSetupStore {
	if prefix == "" {
		prefix = defaultPendingKeyPrefix
	}
	return &RedisPendingSetupStore{client: client, prefix: prefix}
}

func (s *RedisPendingSetupStore) key(accountID string) string {
	return s.prefix + accountID
}

// Save replaces any earlier pending setup for the same account
func (s *RedisPendingSetupStore) Save(ctx context.Context, setup *models.PendingTwoFactorSetup, ttl time.Duration) error {
	data, err := json.Marshal(setup)
	if err != nil {
		return fmt.Errorf("encode pending setup: %w", err)
	}
	if err := s.client.Set(ctx, s.key(setup.AccountID), data, ttl).Err(); err != nil {
		return fmt.Errorf("store pending setup: %w", err)
	}
	return nil
}

func (s *RedisPendingSetupStore) Get(ctx context.Context, accountID string) (*models.PendingTwoFactorSetup, error) {
	data, err := s.client.Get(ctx, s.key(accountID)).Bytes()
	return decodePending(data, err)
}

// Take atomically reads and removes the pending setup, so only one caller can claim it
func (s *RedisPendingSetupStore) Take(ctx context.Context, accountID string) (*models.PendingTwoFactorSetup, error) {
	data, err := s.client.GetDel(ctx, s.key(accountID)).Bytes()
	return decodePending(data, err)
}

func (s *RedisPendingSetupStore) Delete(ctx context.Context, accountID string) error {
	if err := s.client.Del(ctx, s.key(accountID)).Err(); err != nil {
		return fmt.Errorf("delete pending setup: %w", err)
	}
	return nil
}

// Sweep is a no-op; Redis expires keys itself
func (s *RedisPendingSetupStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

func decodePending(data []byte, err error) (*models.PendingTwoFactorSetup, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrSetupNotFound
		}
		return nil, fmt.Errorf("load pending setup: %w", err)
	}

	var setup models.PendingTwoFactorSetup
	if err := json.Unmarshal(data, &setup); err != nil {
		return nil, fmt.Errorf("decode pending setup: %w", err)
	}
	return &setup, nil
}

// MemoryPendingSetupStore is the single-process store. Expired records are invisible
// immediately and reclaimed by Sweep.
type MemoryPendingSetupStore struct {
	mu      sync.Mutex
	pending map[string]*models.PendingTwoFactorSetup
	now     func() time.Time
}

func NewMemoryPendingSetupStore() *MemoryPendingSetupStore {
	return &MemoryPendingSetupStore{
		pending: make(map[string]*models.PendingTwoFactorSetup),
		now:     time.Now,
	}
}

// WithClock replaces the expiry clock, for tests
func (s *MemoryPendingSetupStore) WithClock(now func() time.Time) *MemoryPendingSetupStore {
	s.now = now
	return s
}

func (s *MemoryPendingSetupStore) Save(_ context.Context, setup *models.PendingTwoFactorSetup, ttl time.Duration) error {
	stored := clonePending(setup)
	stored.ExpiresAt = s.now().Add(ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[setup.AccountID] = stored
	return nil
}

func (s *MemoryPendingSetupStore) Get(_ context.Context, accountID string) (*models.PendingTwoFactorSetup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	setup, ok := s.live(accountID)
	if !ok {
		return nil, models.ErrSetupNotFound
	}
	return clonePending(setup), nil
}

func (s *MemoryPendingSetupStore) Take(_ context.Context, accountID string) (*models.PendingTwoFactorSetup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	setup, ok := s.live(accountID)
	if !ok {
		return nil, models.ErrSetupNotFound
	}
	delete(s.pending, accountID)
	return setup, nil
}

func (s *MemoryPendingSetupStore) Delete(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, accountID)
	return nil
}

// Sweep drops every record that expired at or before now and returns how many it removed
func (s *MemoryPendingSetupStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, setup := range s.pending {
		if !setup.ExpiresAt.After(now) {
			delete(s.pending, id)
			removed++
		}
	}
	return removed, nil
}

// live must be called with mu held
func (s *MemoryPendingSetupStore) live(accountID string) (*models.PendingTwoFactorSetup, bool) {
	setup, ok := s.pending[accountID]
	if !ok {
		return nil, false
	}
	if !setup.ExpiresAt.After(s.now()) {
		delete(s.pending, accountID)
		return nil, false
	}
	return setup, true
}

func clonePending(p *models.PendingTwoFactorSetup) *models.PendingTwoFactorSetup {
	c := *p
	c.BackupCodes = append([]string(nil), p.BackupCodes...)
	return &c
}
