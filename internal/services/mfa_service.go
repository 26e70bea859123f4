package services

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/BradenHooton/mybiotracker/internal/models"
	pkglogger "github.com/BradenHooton/mybiotracker/pkg/logger"
)

// DefaultPendingSetupTTL bounds how long a generated secret waits for confirmation
const DefaultPendingSetupTTL = 10 * time.Minute

// PendingSetupStore holds two-factor setups that were generated but not yet confirmed
type PendingSetupStore interface {
	Save(ctx context.Context, setup *models.PendingTwoFactorSetup, ttl time.Duration) error
	Get(ctx context.Context, accountID string) (*models.PendingTwoFactorSetup, error)
	Take(ctx context.Context, accountID string) (*models.PendingTwoFactorSetup, error)
	Delete(ctx context.Context, accountID string) error
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// TwoFactorSetup is returned by BeginSetup. The account is unchanged until ConfirmSetup.
type TwoFactorSetup struct {
	Secret          string
	ProvisioningURI string
	BackupCodes     []string
	ExpiresAt       time.Time
}

// MFAService handles the two-factor lifecycle
type MFAService struct {
	Deps
	pending PendingSetupStore
	ttl     time.Duration
}

// NewMFAService creates a new MFA service. A non-positive ttl uses DefaultPendingSetupTTL.
func NewMFAService(deps Deps, pending PendingSetupStore, ttl time.Duration) *MFAService {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultPendingSetupTTL
	}
	return &MFAService{Deps: deps, pending: pending, ttl: ttl}
}

func (s *MFAService) loadAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.Repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.Logger.Error("failed to get account", slog.String("account_id", accountID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return account, nil
}

// BeginSetup generates a secret and backup codes and stores them as a pending setup.
// Calling it again replaces the earlier pending setup.
func (s *MFAService) BeginSetup(ctx context.Context, accountID string) (*TwoFactorSetup, error) {
	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Is2FAEnabled {
		return nil, models.ErrTwoFactorAlreadyEnabled
	}

	generated, err := s.TOTP.GenerateSetup(account.Email)
	if err != nil {
		s.Logger.Error("failed to generate two-factor setup", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := s.clock()
	pending := &models.PendingTwoFactorSetup{
		AccountID:   account.ID,
		Secret:      generated.Secret,
		BackupCodes: generated.BackupCodes,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}
	if err := s.pending.Save(ctx, pending, s.ttl); err != nil {
		s.Logger.Error("failed to store pending setup", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.Logger.Info("two-factor setup started", slog.String("account_id", account.ID))
	s.Metrics.TwoFactor("setup")
	s.Audit.Log(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventTwoFactorSetup,
		AccountID: account.ID,
		Success:   true,
	})

	return &TwoFactorSetup{
		Secret:          generated.Secret,
		ProvisioningURI: generated.ProvisioningURI,
		BackupCodes:     slices.Clone(generated.BackupCodes),
		ExpiresAt:       pending.ExpiresAt,
	}, nil
}

// ConfirmSetup checks code against the pending secret and enables two-factor.
// A wrong code leaves the pending setup in place.
func (s *MFAService) ConfirmSetup(ctx context.Context, accountID, code string) error {
	pending, err := s.pending.Get(ctx, accountID)
	if err != nil {
		return s.pendingError(accountID, err)
	}

	now := s.clock()
	if !s.TOTP.ValidateTOTP(pending.Secret, code, now) {
		s.auditTwoFactor(ctx, pkglogger.EventTwoFactorEnabled, accountID, false, "invalid_code")
		return models.ErrInvalidTwoFactor
	}

	// Only one confirmation can claim the record
	claimed, err := s.pending.Take(ctx, accountID)
	if err != nil {
		return s.pendingError(accountID, err)
	}
	if claimed.Secret != pending.Secret && !s.TOTP.ValidateTOTP(claimed.Secret, code, now) {
		// A newer setup replaced the one we checked; put it back for its own confirmation
		if remaining := claimed.ExpiresAt.Sub(now); remaining > 0 {
			if err := s.pending.Save(ctx, claimed, remaining); err != nil {
				s.Logger.Error("failed to restore pending setup", slog.String("account_id", accountID), slog.Any("error", err))
			}
		}
		return models.ErrInvalidTwoFactor
	}

	_, err = s.Repo.Update(ctx, accountID, func(a *models.Account) error {
		if a.Is2FAEnabled {
			return models.ErrTwoFactorAlreadyEnabled
		}
		a.EnableTwoFactor(claimed.Secret, claimed.BackupCodes)
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrTwoFactorAlreadyEnabled) || errors.Is(err, models.ErrNotFound) {
			return err
		}
		s.Logger.Error("failed to enable two-factor", slog.String("account_id", accountID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.Logger.Info("two-factor enabled", slog.String("account_id", accountID))
	s.Metrics.TwoFactor("enabled")
	s.auditTwoFactor(ctx, pkglogger.EventTwoFactorEnabled, accountID, true, "")
	return nil
}

func (s *MFAService) pendingError(accountID string, err error) error {
	if errors.Is(err, models.ErrSetupNotFound) {
		return models.ErrSetupNotFound
	}
	s.Logger.Error("failed to load pending setup", slog.String("account_id", accountID), slog.Any("error", err))
	return models.ErrInternalServer
}

// Disable clears the secret, the backup codes and the flag in one update
func (s *MFAService) Disable(ctx context.Context, accountID string) error {
	_, err := s.Repo.Update(ctx, accountID, func(a *models.Account) error {
		if !a.Is2FAEnabled {
			return models.ErrTwoFactorNotEnabled
		}
		a.DisableTwoFactor()
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrTwoFactorNotEnabled) || errors.Is(err, models.ErrNotFound) {
			return err
		}
		s.Logger.Error("failed to disable two-factor", slog.String("account_id", accountID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.pending.Delete(ctx, accountID); err != nil {
		s.Logger.Warn("failed to drop pending setup", slog.String("account_id", accountID), slog.Any("error", err))
	}

	s.Logger.Info("two-factor disabled", slog.String("account_id", accountID))
	s.Metrics.TwoFactor("disabled")
	s.auditTwoFactor(ctx, pkglogger.EventTwoFactorDisable, accountID, true, "")
	return nil
}

// ConsumeBackupCode removes code from the account if present. Each code works once.
func (s *MFAService) ConsumeBackupCode(ctx context.Context, accountID, code string) (bool, error) {
	consumed, err := consumeBackupCode(ctx, s.Repo, accountID, code)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, err
		}
		s.Logger.Error("failed to consume backup code", slog.String("account_id", accountID), slog.Any("error", err))
		return false, models.ErrInternalServer
	}
	if consumed {
		s.Metrics.BackupCodeConsumed()
		s.auditTwoFactor(ctx, pkglogger.EventBackupCodeUsed, accountID, true, "")
	}
	return consumed, nil
}

// BackupCodes lists the codes not yet consumed
func (s *MFAService) BackupCodes(ctx context.Context, accountID string) ([]string, error) {
	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.Is2FAEnabled {
		return nil, models.ErrTwoFactorNotEnabled
	}
	if account.BackupCodes == nil {
		return []string{}, nil
	}
	return account.BackupCodes, nil
}

// SweepExpired drops pending setups past their expiry. Returns how many were removed.
func (s *MFAService) SweepExpired(ctx context.Context) (int, error) {
	return s.pending.Sweep(ctx, s.clock())
}

func (s *MFAService) auditTwoFactor(ctx context.Context, event, accountID string, success bool, reason string) {
	s.Audit.Log(ctx, pkglogger.AuditEvent{
		EventType:     event,
		AccountID:     accountID,
		Success:       success,
		FailureReason: reason,
	})
}
