package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/mybiotracker/internal/auth"
	"github.com/BradenHooton/mybiotracker/internal/metrics"
	"github.com/BradenHooton/mybiotracker/internal/models"
	pkgauth "github.com/BradenHooton/mybiotracker/pkg/auth"
	pkglogger "github.com/BradenHooton/mybiotracker/pkg/logger"
)

// AccountRepository is the credential store. Update is the only way account state
// changes after creation: it applies fn to the current record atomically.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context, limit, offset int) ([]*models.Account, error)
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	Update(ctx context.Context, id string, fn func(*models.Account) error) (*models.Account, error)
	Delete(ctx context.Context, id string) error
}

// Deps holds the collaborators shared by the auth services
type Deps struct {
	Repo    AccountRepository
	Hasher  *pkgauth.Hasher
	Tokens  *auth.TokenManager
	TOTP    *auth.TOTPManager
	Policy  auth.LockoutPolicy
	Delay   *auth.TimingDelay // nil disables the equalizing delay
	Logger  *slog.Logger
	Audit   *pkglogger.AuditLogger
	Metrics *metrics.AuthMetrics
	Now     func() time.Time
}

func (d *Deps) clock() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// LoginResult is a successful login or refresh
type LoginResult struct {
	Tokens  *models.TokenPair
	Account *models.Account
}

// AuthService runs login, refresh, registration and password changes
type AuthService struct {
	Deps

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService
func NewAuthService(deps Deps) *AuthService {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Policy.Threshold == 0 {
		deps.Policy = auth.DefaultLockoutPolicy()
	}
	return &AuthService{Deps: deps}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// dummy returns a real hash to verify against when the email is unknown,
// so both branches pay the same hashing cost
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.Hasher.Hash("mybiotracker-timing-equalizer")
		if err != nil {
			s.Logger.Error("failed to prepare dummy hash", slog.Any("error", err))
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

// Login authenticates email and password, plus a TOTP or backup code when the account
// has two-factor enabled. Steps run in a fixed order and stop at the first failure.
func (s *AuthService) Login(ctx context.Context, email, password, code, ipAddress string) (*LoginResult, error) {
	started := time.Now()
	email = normalizeEmail(email)

	account, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.Logger.Error("failed to get account by email", slog.Any("error", err))
			s.Metrics.Login(metrics.OutcomeError)
			return nil, models.ErrInternalServer
		}

		_, _ = s.Hasher.Verify(password, s.dummy())
		s.Delay.WaitFrom(ctx, started, false)

		s.Logger.Info("login failed: invalid credentials")
		s.loginFailed(ctx, "", email, ipAddress, "unknown_email", metrics.OutcomeInvalid)
		return nil, models.ErrInvalidCredentials
	}

	now := s.clock()
	if state := s.Policy.MayAttempt(account, now); state.Locked {
		s.Logger.Info("login blocked: account locked",
			slog.String("account_id", account.ID),
			slog.Time("locked_until", state.Until))
		s.loginFailed(ctx, account.ID, email, ipAddress, "locked", metrics.OutcomeLocked)
		return nil, state.Err()
	}

	if !account.IsActive {
		s.Logger.Info("login blocked: account disabled", slog.String("account_id", account.ID))
		s.loginFailed(ctx, account.ID, email, ipAddress, "disabled", metrics.OutcomeDisabled)
		return nil, models.ErrAccountDisabled
	}

	ok, err := s.Hasher.Verify(password, account.PasswordHash)
	if err != nil {
		s.Logger.Error("stored password hash is unreadable",
			slog.String("account_id", account.ID),
			slog.Any("error", err))
	}
	if !ok {
		if err := s.recordFailure(ctx, account.ID, email, ipAddress, now); err != nil {
			s.Metrics.Login(metrics.OutcomeError)
			return nil, err
		}
		s.Delay.WaitFrom(ctx, started, false)

		s.Logger.Info("login failed: invalid credentials")
		s.loginFailed(ctx, account.ID, email, ipAddress, "invalid_password", metrics.OutcomeInvalid)
		return nil, models.ErrInvalidCredentials
	}

	usedBackupCode := false
	if account.Is2FAEnabled {
		code = strings.TrimSpace(code)
		if code == "" {
			s.loginFailed(ctx, account.ID, email, ipAddress, "two_factor_required", metrics.OutcomeTwoFactorRequired)
			return nil, models.ErrTwoFactorRequired
		}

		if account.TOTPSecret == nil || !s.TOTP.ValidateTOTP(*account.TOTPSecret, code, now) {
			consumed, err := consumeBackupCode(ctx, s.Repo, account.ID, code)
			if err != nil {
				s.Logger.Error("failed to consume backup code",
					slog.String("account_id", account.ID),
					slog.Any("error", err))
				s.Metrics.Login(metrics.OutcomeError)
				return nil, models.ErrInternalServer
			}
			if !consumed {
				if err := s.recordFailure(ctx, account.ID, email, ipAddress, now); err != nil {
					s.Metrics.Login(metrics.OutcomeError)
					return nil, err
				}
				s.Logger.Info("login failed: invalid two-factor code", slog.String("account_id", account.ID))
				s.loginFailed(ctx, account.ID, email, ipAddress, "invalid_two_factor", metrics.OutcomeInvalidTwoFactor)
				return nil, models.ErrInvalidTwoFactor
			}
			usedBackupCode = true
			s.Metrics.BackupCodeConsumed()
			s.Audit.Log(ctx, pkglogger.AuditEvent{
				EventType: pkglogger.EventBackupCodeUsed,
				AccountID: account.ID,
				IPAddress: ipAddress,
				Success:   true,
			})
		}
	}

	// Upgrade legacy or weaker hashes while the plaintext is at hand.
	// Hashing happens before the row is locked.
	var upgraded string
	if s.Hasher.NeedsRehash(account.PasswordHash) {
		if h, err := s.Hasher.Hash(password); err == nil {
			upgraded = h
		} else {
			s.Logger.Warn("password rehash failed", slog.String("account_id", account.ID), slog.Any("error", err))
		}
	}

	updated, err := s.Repo.Update(ctx, account.ID, func(a *models.Account) error {
		s.Policy.RecordSuccess(a, now)
		if upgraded != "" && a.PasswordHash == account.PasswordHash {
			a.PasswordHash = upgraded
		}
		return nil
	})
	if err != nil {
		s.Logger.Error("failed to record successful login",
			slog.String("account_id", account.ID),
			slog.Any("error", err))
		s.Metrics.Login(metrics.OutcomeError)
		return nil, models.ErrInternalServer
	}

	tokens, err := s.Tokens.IssuePair(updated.Email, updated.ID)
	if err != nil {
		s.Logger.Error("failed to issue tokens", slog.String("account_id", updated.ID), slog.Any("error", err))
		s.Metrics.Login(metrics.OutcomeError)
		return nil, models.ErrInternalServer
	}

	s.Logger.Info("account logged in",
		slog.String("account_id", updated.ID),
		slog.Bool("backup_code", usedBackupCode),
		slog.Bool("rehashed", upgraded != ""))
	s.Metrics.Login(metrics.OutcomeSuccess)
	s.Audit.Log(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventLogin,
		AccountID: updated.ID,
		Email:     updated.Email,
		IPAddress: ipAddress,
		Success:   true,
	})

	return &LoginResult{Tokens: tokens, Account: updated}, nil
}

// recordFailure counts a failed attempt inside one atomic update
func (s *AuthService) recordFailure(ctx context.Context, accountID, email, ipAddress string, now time.Time) error {
	var locked bool
	updated, err := s.Repo.Update(ctx, accountID, func(a *models.Account) error {
		locked = s.Policy.RecordFailure(a, now)
		return nil
	})
	if err != nil {
		s.Logger.Error("failed to record login failure",
			slog.String("account_id", accountID),
			slog.Any("error", err))
		return models.ErrInternalServer
	}

	if locked {
		s.Logger.Warn("account locked after repeated failures",
			slog.String("account_id", accountID),
			slog.Int("failed_attempts", updated.FailedLoginAttempts))
		s.Metrics.Lockout()
		s.Audit.Log(ctx, pkglogger.AuditEvent{
			EventType: pkglogger.EventAccountLocked,
			AccountID: accountID,
			Email:     email,
			IPAddress: ipAddress,
			Success:   false,
			Metadata:  map[string]string{"locked_for": s.Policy.Duration.String()},
		})
	}
	return nil
}

func (s *AuthService) loginFailed(ctx context.Context, accountID, email, ipAddress, reason, outcome string) {
	s.Metrics.Login(outcome)
	s.Audit.Log(ctx, pkglogger.AuditEvent{
		EventType:     pkglogger.EventLogin,
		AccountID:     accountID,
		Email:         email,
		IPAddress:     ipAddress,
		Success:       false,
		FailureReason: reason,
	})
}

// Refresh exchanges a refresh token for a new pair. Lock state and second factor are
// not re-checked; the account must still exist and be active.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.Tokens.Verify(strings.TrimSpace(refreshToken), models.TokenTypeRefresh)
	if err != nil {
		s.Metrics.Refresh(false)
		return nil, models.ErrTokenInvalid
	}

	account, err := s.Repo.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.Logger.Info("refresh for missing account", slog.String("account_id", claims.AccountID))
			s.Metrics.Refresh(false)
			return nil, models.ErrTokenInvalid
		}
		s.Logger.Error("failed to get account for refresh",
			slog.String("account_id", claims.AccountID),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !account.IsActive {
		s.Logger.Info("refresh blocked: account disabled", slog.String("account_id", account.ID))
		s.Metrics.Refresh(false)
		return nil, models.ErrTokenInvalid
	}

	tokens, err := s.Tokens.IssuePair(account.Email, account.ID)
	if err != nil {
		s.Logger.Error("failed to issue tokens", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.Logger.Info("token refreshed", slog.String("account_id", account.ID))
	s.Metrics.Refresh(true)
	s.Audit.Log(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventRefresh,
		AccountID: account.ID,
		Success:   true,
	})

	return &LoginResult{Tokens: tokens, Account: account}, nil
}

// Register creates an active, non-admin account
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.Account, error) {
	return s.create(ctx, email, password, false)
}

func (s *AuthService) create(ctx context.Context, email, password string, admin bool) (*models.Account, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", models.ErrBadRequest)
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrWeakPassword, err.Error())
	}

	_, err := s.Repo.GetByEmail(ctx, email)
	if err == nil {
		s.Logger.Info("registration failed: account already exists")
		return nil, models.ErrDuplicateAccount
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.Logger.Error("failed to check if account exists", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hashed, err := s.Hasher.Hash(password)
	if err != nil {
		s.Logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	created, err := s.Repo.Create(ctx, &models.Account{
		Email:        email,
		PasswordHash: hashed,
		IsActive:     true,
		IsAdmin:      admin,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrDuplicateAccount
		}
		s.Logger.Error("failed to create account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.Logger.Info("account registered", slog.String("account_id", created.ID), slog.Bool("admin", admin))
	s.Metrics.Registration()
	s.Audit.Log(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventRegister,
		AccountID: created.ID,
		Email:     created.Email,
		Success:   true,
	})
	return created, nil
}

// ChangePassword replaces the password hash after checking the old password
func (s *AuthService) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	account, err := s.Repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.Logger.Error("failed to get account", slog.String("account_id", accountID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	ok, err := s.Hasher.Verify(oldPassword, account.PasswordHash)
	if err != nil {
		s.Logger.Error("stored password hash is unreadable", slog.String("account_id", accountID), slog.Any("error", err))
	}
	if !ok {
		s.Audit.Log(ctx, pkglogger.AuditEvent{
			EventType:     pkglogger.EventPasswordChange,
			AccountID:     accountID,
			Success:       false,
			FailureReason: "wrong_current_password",
		})
		return models.ErrInvalidCredentials
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %s", models.ErrWeakPassword, err.Error())
	}
	if oldPassword == newPassword {
		return models.ErrSamePassword
	}

	hashed, err := s.Hasher.Hash(newPassword)
	if err != nil {
		s.Logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	_, err = s.Repo.Update(ctx, accountID, func(a *models.Account) error {
		// A concurrent change means oldPassword was checked against a stale hash
		if a.PasswordHash != account.PasswordHash {
			return models.ErrConflict
		}
		a.PasswordHash = hashed
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) || errors.Is(err, models.ErrNotFound) {
			return err
		}
		s.Logger.Error("failed to update password", slog.String("account_id", accountID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.Logger.Info("password changed", slog.String("account_id", accountID))
	s.Audit.Log(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventPasswordChange,
		AccountID: accountID,
		Success:   true,
	})
	return nil
}

// Authenticate resolves an access token to its account. Used by the HTTP middleware.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.Account, error) {
	claims, err := s.Tokens.Verify(accessToken, models.TokenTypeAccess)
	if err != nil {
		return nil, models.ErrTokenInvalid
	}

	account, err := s.Repo.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrTokenInvalid
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	if !account.IsActive {
		return nil, models.ErrTokenInvalid
	}
	if state := s.Policy.MayAttempt(account, s.clock()); state.Locked {
		return nil, state.Err()
	}
	return account, nil
}

// EnsureAdmin creates the bootstrap admin account, or grants the flag to an existing account
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	existing, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		if existing.IsAdmin {
			s.Logger.Info("admin account already exists")
			return nil
		}
		_, err = s.Repo.Update(ctx, existing.ID, func(a *models.Account) error {
			a.IsAdmin = true
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to grant admin: %w", err)
		}
		s.Logger.Info("admin flag granted to existing account", slog.String("account_id", existing.ID))
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	if _, err := s.create(ctx, email, password, true); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}
	return nil
}
