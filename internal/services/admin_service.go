package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/BradenHooton/mybiotracker/internal/models"
	pkglogger "github.com/BradenHooton/mybiotracker/pkg/logger"
)

const statsPageSize = 500

// DashboardStats contains aggregate account counts
type DashboardStats struct {
	TotalAccounts    int `json:"total_accounts"`
	ActiveAccounts   int `json:"active_accounts"`
	DisabledAccounts int `json:"disabled_accounts"`
	AdminCount       int `json:"admin_count"`
	TwoFactorEnabled int `json:"two_factor_enabled"`
	LockedAccounts   int `json:"locked_accounts"`
}

// AdminService manages accounts on behalf of administrators
type AdminService struct {
	Deps
}

// NewAdminService creates a new AdminService
func NewAdminService(deps Deps) *AdminService {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &AdminService{Deps: deps}
}

// List returns one page of accounts, newest first
func (s *AdminService) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	accounts, err := s.Repo.List(ctx, limit, offset)
	if err != nil {
		s.Logger.Error("admin: failed to list accounts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return accounts, nil
}

// ToggleActive flips the active flag of target. An admin cannot toggle themself.
func (s *AdminService) ToggleActive(ctx context.Context, actorID, targetID string) (*models.Account, error) {
	if actorID == targetID {
		return nil, models.ErrCannotModifySelf
	}

	updated, err := s.Repo.Update(ctx, targetID, func(a *models.Account) error {
		a.IsActive = !a.IsActive
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.Logger.Error("admin: failed to toggle account", slog.String("target_id", targetID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.Logger.Info("admin toggled account",
		slog.String("actor_id", actorID),
		slog.String("target_id", targetID),
		slog.Bool("is_active", updated.IsActive))
	s.Audit.Log(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventAdminToggle,
		AccountID: actorID,
		Success:   true,
		Metadata: map[string]string{
			"target_id": targetID,
			"is_active": strconv.FormatBool(updated.IsActive),
		},
	})
	return updated, nil
}

// Delete removes target. An admin cannot delete themself.
func (s *AdminService) Delete(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return models.ErrCannotModifySelf
	}

	if err := s.Repo.Delete(ctx, targetID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.Logger.Error("admin: failed to delete account", slog.String("target_id", targetID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.Logger.Info("admin deleted account", slog.String("actor_id", actorID), slog.String("target_id", targetID))
	s.Audit.Log(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventAdminDelete,
		AccountID: actorID,
		Success:   true,
		Metadata:  map[string]string{"target_id": targetID},
	})
	return nil
}

// Stats walks every account page and aggregates counts
func (s *AdminService) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	now := s.clock()

	for offset := 0; ; offset += statsPageSize {
		page, err := s.Repo.List(ctx, statsPageSize, offset)
		if err != nil {
			s.Logger.Error("dashboard: failed to list accounts", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		for _, a := range page {
			stats.TotalAccounts++
			if a.IsActive {
				stats.ActiveAccounts++
			} else {
				stats.DisabledAccounts++
			}
			if a.IsAdmin {
				stats.AdminCount++
			}
			if a.Is2FAEnabled {
				stats.TwoFactorEnabled++
			}
			if s.Policy.MayAttempt(a, now).Locked {
				stats.LockedAccounts++
			}
		}

		if len(page) < statsPageSize {
			return stats, nil
		}
	}
}
