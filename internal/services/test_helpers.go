package services

import (
	"context"
	"time"

	"github.com/BradenHooton/mybiotracker/internal/models"
)

// MockAccountRepository implements AccountRepository for testing
type MockAccountRepository struct {
	GetByIDFunc    func(ctx context.Context, id string) (*models.Account, error)
	GetByEmailFunc func(ctx context.Context, email string) (*models.Account, error)
	ListFunc       func(ctx context.Context, limit, offset int) ([]*models.Account, error)
	CreateFunc     func(ctx context.Context, account *models.Account) (*models.Account, error)
	UpdateFunc     func(ctx context.Context, id string, fn func(*models.Account) error) (*models.Account, error)
	DeleteFunc     func(ctx context.Context, id string) error
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.Account{}, nil
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAccountRepository) Update(ctx context.Context, id string, fn func(*models.Account) error) (*models.Account, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, fn)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAccountRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockPendingSetupStore implements PendingSetupStore for testing
type MockPendingSetupStore struct {
	SaveFunc   func(ctx context.Context, setup *models.PendingTwoFactorSetup, ttl time.Duration) error
	GetFunc    func(ctx context.Context, accountID string) (*models.PendingTwoFactorSetup, error)
	TakeFunc   func(ctx context.Context, accountID string) (*models.PendingTwoFactorSetup, error)
	DeleteFunc func(ctx context.Context, accountID string) error
	SweepFunc  func(ctx context.Context, now time.Time) (int, error)
}

func (m *MockPendingSetupStore) Save(ctx context.Context, setup *models.PendingTwoFactorSetup, ttl time.Duration) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, setup, ttl)
	}
	return nil
}

func (m *MockPendingSetupStore) Get(ctx context.Context, accountID string) (*models.PendingTwoFactorSetup, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, accountID)
	}
	return nil, models.ErrSetupNotFound
}

func (m *MockPendingSetupStore) Take(ctx context.Context, accountID string) (*models.PendingTwoFactorSetup, error) {
	if m.TakeFunc != nil {
		return m.TakeFunc(ctx, accountID)
	}
	return nil, models.ErrSetupNotFound
}

func (m *MockPendingSetupStore) Delete(ctx context.Context, accountID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, accountID)
	}
	return nil
}

func (m *MockPendingSetupStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	if m.SweepFunc != nil {
		return m.SweepFunc(ctx, now)
	}
	return 0, nil
}
